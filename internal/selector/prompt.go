package selector

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/deusflow/briefing/internal/llm"
	"github.com/deusflow/briefing/internal/news"
)

// ErrEmptySelection is returned when the model answers with an empty list.
var ErrEmptySelection = errors.New("model returned an empty selection")

// BuildPrompt asks the model for a raw JSON array of the most relevant
// candidate URLs.
func BuildPrompt(candidates []news.Candidate, interests string, minCount, maxCount int) string {
	var sb strings.Builder

	sb.WriteString("Here is a list of news headlines:\n\n")
	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("[%d] Title: %s\n", i+1, c.Title))
		sb.WriteString(fmt.Sprintf("    URL: %s\n", c.Link))
		if c.Summary != "" {
			sb.WriteString(fmt.Sprintf("    Summary: %s\n", c.Summary))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Based on these reader interests:\n\"\"\"\n")
	sb.WriteString(strings.TrimSpace(interests))
	sb.WriteString("\n\"\"\"\n\n")

	if minCount == maxCount {
		sb.WriteString(fmt.Sprintf("Select the top %d most relevant articles.\n", maxCount))
	} else {
		sb.WriteString(fmt.Sprintf("Select the %d to %d most relevant articles.\n", minCount, maxCount))
	}
	sb.WriteString("When an article is borderline, include it rather than leave it out.\n")
	sb.WriteString("Return ONLY a raw JSON list of their URLs, exactly as given above, nothing else. No prose, no markdown.\n")
	sb.WriteString(`Example: ["https://example.com/a", "https://example.com/b"]`)
	sb.WriteString("\n")

	return sb.String()
}

// ParseSelection decodes the model answer as a JSON array of strings after
// stripping code fences.
func ParseSelection(response string) ([]string, error) {
	content := llm.StripCodeFence(response)

	var urls []string
	if err := json.Unmarshal([]byte(content), &urls); err != nil {
		return nil, fmt.Errorf("failed to parse selection: %w", err)
	}
	if len(urls) == 0 {
		return nil, ErrEmptySelection
	}
	return urls, nil
}
