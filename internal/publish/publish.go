// Package publish delivers the rendered page to its destinations.
package publish

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/deusflow/briefing/internal/render"
	"github.com/deusflow/briefing/internal/telegram"
)

// Publisher is a terminal sink for the rendered artifact.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, art render.Artifact) error
}

// FilePublisher overwrites a single local file with the page.
type FilePublisher struct {
	Path string
}

func (f *FilePublisher) Name() string { return "file" }

func (f *FilePublisher) Publish(ctx context.Context, art render.Artifact) error {
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	// Write next to the target and rename so readers never see a partial page.
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".briefing-*.html")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(art.HTML); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write page: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write page: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set page permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.Path, err)
	}
	return nil
}

type messageSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// TelegramNotifier announces a new edition in a Telegram chat.
type TelegramNotifier struct {
	sender    messageSender
	chatID    string
	publicURL string
}

func NewTelegramNotifier(client *telegram.Client, chatID, publicURL string) *TelegramNotifier {
	return &TelegramNotifier{sender: client, chatID: chatID, publicURL: publicURL}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Publish(ctx context.Context, art render.Artifact) error {
	return t.sender.SendMessage(ctx, t.chatID, notice(art, t.publicURL))
}

func notice(art render.Artifact, publicURL string) string {
	date := art.GeneratedAt.Format("2006-01-02")
	if publicURL == "" {
		return fmt.Sprintf("📰 <b>Daily Briefing %s</b> is ready.", date)
	}
	return fmt.Sprintf("📰 <b>Daily Briefing %s</b> is ready: <a href=\"%s\">read it here</a>",
		date, html.EscapeString(publicURL))
}
