// Package selector asks the language model which candidates match the
// interest profile and recovers deterministically when it cannot.
package selector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/samber/lo"

	"github.com/deusflow/briefing/internal/config"
	"github.com/deusflow/briefing/internal/llm"
	"github.com/deusflow/briefing/internal/metrics"
	"github.com/deusflow/briefing/internal/news"
)

var errNoKnownURL = errors.New("no selected URL is a known candidate")

type Options struct {
	Interests     string
	Min           int
	Max           int
	FallbackCount int
	Policy        string // config.PolicyPassthrough or config.PolicyStrict
}

type Selector struct {
	model    llm.Generator
	opts     Options
	progress io.Writer
	logger   *slog.Logger
	stats    *metrics.Metrics
}

func New(model llm.Generator, opts Options, progress io.Writer, logger *slog.Logger, stats *metrics.Metrics) *Selector {
	return &Selector{
		model:    model,
		opts:     opts,
		progress: progress,
		logger:   logger,
		stats:    stats,
	}
}

// Select returns the model's choice of URLs. It never fails: an unusable
// answer falls back to the first FallbackCount candidates.
func (s *Selector) Select(ctx context.Context, candidates []news.Candidate) news.Selection {
	if len(candidates) == 0 {
		s.logger.Warn("no candidates to select from")
		return news.Selection{}
	}

	prompt := BuildPrompt(candidates, s.opts.Interests, s.opts.Min, s.opts.Max)
	s.logger.Debug("selection prompt built", "candidates", len(candidates), "chars", len(prompt))

	response, err := s.model.Generate(ctx, prompt)
	if err != nil {
		return s.fallback(candidates, fmt.Errorf("selection request failed: %w", err))
	}

	urls, err := ParseSelection(response)
	if err != nil {
		s.logger.Debug("unparsable selection", "response", response)
		return s.fallback(candidates, err)
	}

	if s.opts.Policy == config.PolicyStrict {
		urls = keepKnown(urls, candidates)
		if len(urls) == 0 {
			return s.fallback(candidates, errNoKnownURL)
		}
	}

	s.stats.AddSelected(len(urls))
	s.logger.Info("model selected articles", "count", len(urls))
	return news.Selection{URLs: urls}
}

func (s *Selector) fallback(candidates []news.Candidate, err error) news.Selection {
	urls := news.Links(candidates, s.opts.FallbackCount)

	s.logger.Error("selection fallback", "error", err, "fallback_count", len(urls))
	fmt.Fprintf(s.progress, "Could not use the model's selection (%v). Falling back to the first %d candidates.\n", err, len(urls))

	s.stats.IncrementSelectionFallbacks()
	s.stats.AddSelected(len(urls))
	return news.Selection{URLs: urls, FellBack: true, Err: err}
}

// keepKnown drops URLs that are not candidate links and repeated URLs.
func keepKnown(urls []string, candidates []news.Candidate) []string {
	known := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		known[c.Link] = struct{}{}
	}
	return lo.Uniq(lo.Filter(urls, func(u string, _ int) bool {
		_, ok := known[u]
		return ok
	}))
}
