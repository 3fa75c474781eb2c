// Package scraper fetches selected pages and extracts their readable text.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/sync/errgroup"

	"github.com/deusflow/briefing/internal/metrics"
	"github.com/deusflow/briefing/internal/news"
)

const (
	userAgent    = "Mozilla/5.0 (compatible; briefing/1.0)"
	maxBodyBytes = 5 << 20
)

var errNoContent = errors.New("can't get content")

type Extractor struct {
	client  *http.Client
	workers int
	logger  *slog.Logger
	stats   *metrics.Metrics
}

func NewExtractor(client *http.Client, workers int, logger *slog.Logger, stats *metrics.Metrics) *Extractor {
	if workers < 1 {
		workers = 1
	}
	return &Extractor{
		client:  client,
		workers: workers,
		logger:  logger,
		stats:   stats,
	}
}

// Extract downloads one page and returns its primary text. Readability is
// tried first, then a paragraph selector cascade.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (news.Document, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return news.Document{}, fmt.Errorf("invalid article URL %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return news.Document{}, fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return news.Document{}, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return news.Document{}, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return news.Document{}, fmt.Errorf("error reading page: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return news.Document{}, fmt.Errorf("empty response")
	}

	text := ""
	if article, err := readability.FromReader(bytes.NewReader(body), u); err == nil {
		text = cleanContent(article.TextContent)
	} else {
		e.logger.Debug("readability failed", "url", pageURL, "error", err)
	}

	if text == "" {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return news.Document{}, fmt.Errorf("error parsing HTML: %w", err)
		}
		text = cleanContent(extractGenericContent(doc))
	}

	if text == "" {
		return news.Document{}, errNoContent
	}

	return news.Document{SourceURL: pageURL, Text: text}, nil
}

// ExtractAll extracts every URL, keeping selection order and skipping
// failures. A URL listed twice is extracted once.
func (e *Extractor) ExtractAll(ctx context.Context, urls []string) []news.Document {
	unique := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			e.logger.Debug("skipping repeated URL", "url", u)
			continue
		}
		seen[u] = struct{}{}
		unique = append(unique, u)
	}

	results := make([]*news.Document, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, pageURL := range unique {
		g.Go(func() error {
			e.logger.Info("getting full content", "n", i+1, "of", len(unique), "url", pageURL)

			doc, err := e.Extract(gctx, pageURL)
			if err != nil {
				e.logger.Warn("can't get content", "url", pageURL, "error", err)
				e.stats.IncrementExtractionFailures()
				return nil
			}

			results[i] = &doc
			e.stats.IncrementArticlesExtracted()
			e.logger.Info("got content", "url", pageURL, "chars", len(doc.Text))
			return nil
		})
	}
	// Workers never return errors; failures are per URL.
	_ = g.Wait()

	docs := make([]news.Document, 0, len(unique))
	for _, d := range results {
		if d != nil {
			docs = append(docs, *d)
		}
	}
	return docs
}

// extractGenericContent is the fallback parser for pages readability
// cannot handle.
func extractGenericContent(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside, form, noscript").Remove()

	var paragraphs []string

	selectors := []string{
		"article p",
		".article p",
		".article-body p",
		".content p",
		".post-content p",
		".entry-content p",
		"main p",
		"#content p",
		".text p",
		"p",
	}

	for _, selector := range selectors {
		paragraphs = paragraphs[:0]
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= 3 {
			break
		}
	}

	return strings.Join(paragraphs, "\n\n")
}
