// Package digest turns extracted article text into one editorial briefing.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deusflow/briefing/internal/llm"
)

// EmptyDigest is returned without a model call when no article text could
// be retrieved.
const EmptyDigest = "## No stories today\n\nNone of the selected articles could be retrieved, so there is nothing to summarise for this edition."

// BuildPrompt wraps the concatenated source blocks in the editorial brief.
func BuildPrompt(content string) string {
	return fmt.Sprintf(`You are a professional news editor.
Here is the full text of several articles. Each one starts with a "SOURCE URL:" line and ends with "---".

%s

Task:
1. Group these articles by topic (e.g. Tech, Science, Business, Politics). Use one heading per topic.
2. Write a concise, calm "Morning Briefing". No hype, no sensational wording, no clickbait.
3. For each article, write a substantive summary a busy reader can finish in about two minutes: what happened, why it matters, and the key facts and numbers.
4. End each article's section with a Markdown link to its SOURCE URL, exactly in the form [Read full article](SOURCE URL). Every article you cover MUST have this link.
5. Use minimal Markdown: headings, short paragraphs and, where they help, bullet lists. No emoji, no decorative separators, no tables of contents.
`, content)
}

type Synthesizer struct {
	model  llm.Generator
	logger *slog.Logger
}

func New(model llm.Generator, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{model: model, logger: logger}
}

// Synthesize asks the model for the digest and returns its answer as-is.
func (s *Synthesizer) Synthesize(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		s.logger.Warn("no article content; writing empty edition")
		return EmptyDigest, nil
	}

	prompt := BuildPrompt(content)
	s.logger.Debug("digest prompt built", "chars", len(prompt))

	text, err := s.model.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to write digest: %w", err)
	}

	if strings.TrimSpace(text) == "" {
		s.logger.Warn("model returned an empty digest")
	}
	return text, nil
}
