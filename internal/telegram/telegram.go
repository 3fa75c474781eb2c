package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const defaultAPIBase = "https://api.telegram.org"

// Client posts messages through the Telegram Bot API. Every send is a
// single attempt.
type Client struct {
	apiBase string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(token string, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		apiBase: defaultAPIBase,
		token:   token,
		http:    httpClient,
		logger:  logger,
	}
}

// WithAPIBase points the client at another Bot API host.
func (c *Client) WithAPIBase(base string) *Client {
	c.apiBase = base
	return c
}

// SendMessage sends an HTML-formatted text message to a chat or channel.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.token)

	payload := map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error make JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
	}

	return nil
}
