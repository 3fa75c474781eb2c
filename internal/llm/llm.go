// Package llm wraps the supported language-model providers behind one
// text-in/text-out interface.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/deusflow/briefing/internal/config"
	"github.com/deusflow/briefing/internal/metrics"
	"github.com/deusflow/briefing/internal/ratelimit"
)

// Generator sends a single prompt and returns the model's text answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client is a Generator holding provider resources.
type Client interface {
	Generator
	Close() error
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// New builds the client for cfg.Provider.
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.Model, ""), nil
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, cfg.Model, ""), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// Limited charges every request against a run budget before forwarding it.
type Limited struct {
	next     Generator
	provider string
	budget   *ratelimit.Budget
	stats    *metrics.Metrics
}

func NewLimited(next Generator, provider string, budget *ratelimit.Budget, stats *metrics.Metrics) *Limited {
	return &Limited{next: next, provider: provider, budget: budget, stats: stats}
}

func (l *Limited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := l.budget.Use(l.provider); err != nil {
		return "", err
	}
	l.stats.IncrementModelRequests()
	return l.next.Generate(ctx, prompt)
}

// StripCodeFence removes markdown code-fence markers a model may wrap
// around a JSON answer.
func StripCodeFence(content string) string {
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```JSON", "")
	content = strings.ReplaceAll(content, "```", "")
	return strings.TrimSpace(content)
}
