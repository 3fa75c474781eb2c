package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/deusflow/briefing/internal/metrics"
	"github.com/deusflow/briefing/internal/news"
)

// Reader turns syndicated feeds into candidate articles.
type Reader struct {
	client   *http.Client
	maxItems int
	workers  int
	logger   *slog.Logger
	stats    *metrics.Metrics
}

func NewReader(client *http.Client, maxItems, workers int, logger *slog.Logger, stats *metrics.Metrics) *Reader {
	if workers < 1 {
		workers = 1
	}
	return &Reader{
		client:   client,
		maxItems: maxItems,
		workers:  workers,
		logger:   logger,
		stats:    stats,
	}
}

// FetchFeed downloads and parses one feed, keeping at most maxItems entries
// in feed order.
func (r *Reader) FetchFeed(ctx context.Context, feedURL string) ([]news.Candidate, error) {
	// gofeed parsers keep per-document state, one per call.
	parser := gofeed.NewParser()
	parser.Client = r.client

	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	count := min(len(feed.Items), r.maxItems)
	candidates := make([]news.Candidate, 0, count)

	for _, item := range feed.Items[:count] {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		candidates = append(candidates, news.Candidate{
			Title:   strings.TrimSpace(item.Title),
			Link:    link,
			Summary: news.TruncateSummary(plainText(summary)),
		})
	}

	return candidates, nil
}

// FetchAll reads every feed and returns candidates in feed-list order, then
// entry order. A failing feed is logged and skipped.
func (r *Reader) FetchAll(ctx context.Context, feeds []string) []news.Candidate {
	perFeed := make([][]news.Candidate, len(feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, feedURL := range feeds {
		g.Go(func() error {
			items, err := r.FetchFeed(gctx, feedURL)
			if err != nil {
				r.logger.Warn("skipping feed", "url", feedURL, "error", err)
				r.stats.IncrementFeedsFailed()
				return nil
			}
			perFeed[i] = items
			r.stats.IncrementFeedsFetched()
			r.logger.Info("loaded feed", "url", feedURL, "items", len(items))
			return nil
		})
	}
	// Workers never return errors; failures are per feed.
	_ = g.Wait()

	var all []news.Candidate
	ok := 0
	for _, items := range perFeed {
		if items != nil {
			ok++
		}
		all = append(all, items...)
	}

	r.stats.AddCandidates(len(all))
	r.logger.Info("processed feeds", "ok", ok, "total", len(feeds), "candidates", len(all))
	return all
}

// plainText drops markup from a feed description and collapses whitespace.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
