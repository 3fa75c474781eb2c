// Package app wires the briefing stages into one run.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/briefing/internal/config"
	"github.com/deusflow/briefing/internal/digest"
	"github.com/deusflow/briefing/internal/llm"
	"github.com/deusflow/briefing/internal/metrics"
	"github.com/deusflow/briefing/internal/news"
	"github.com/deusflow/briefing/internal/publish"
	"github.com/deusflow/briefing/internal/render"
	"github.com/deusflow/briefing/internal/rss"
	"github.com/deusflow/briefing/internal/scraper"
	"github.com/deusflow/briefing/internal/selector"
	"github.com/deusflow/briefing/internal/telegram"
)

// Pipeline runs fetch, select, extract, synthesize, render and publish once.
type Pipeline struct {
	cfg    *config.Config
	model  llm.Generator
	http   *http.Client
	out    io.Writer
	logger *slog.Logger
	stats  *metrics.Metrics

	// Extra sinks run after the output file has been written.
	Publishers []publish.Publisher
	Now        func() time.Time
}

func NewPipeline(cfg *config.Config, model llm.Generator, httpClient *http.Client, out io.Writer, logger *slog.Logger, stats *metrics.Metrics) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		model:  model,
		http:   httpClient,
		out:    out,
		logger: logger,
		stats:  stats,
		Now:    time.Now,
	}
}

// OptionalPublishers builds the S3 and Telegram sinks enabled in cfg.
func OptionalPublishers(ctx context.Context, cfg *config.Config, httpClient *http.Client, logger *slog.Logger) ([]publish.Publisher, error) {
	var pubs []publish.Publisher

	if cfg.S3Bucket != "" {
		s3Pub, err := publish.NewS3Publisher(ctx, cfg.S3Bucket, cfg.S3Key, cfg.S3Region)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, s3Pub)
	}

	if cfg.TelegramToken != "" {
		client := telegram.NewClient(cfg.TelegramToken, httpClient, logger)
		pubs = append(pubs, publish.NewTelegramNotifier(client, cfg.TelegramChatID, cfg.PublicURL))
	}

	return pubs, nil
}

// Run executes one edition. Feed, selection and extraction problems degrade
// the result; a synthesis or output-file failure aborts the run.
func (p *Pipeline) Run(ctx context.Context) error {
	log := p.logger.With("run_id", uuid.NewString())
	log.Info("briefing run started", "provider", p.cfg.Provider, "feeds", len(p.cfg.Feeds))

	err := p.run(ctx, log)
	if err != nil {
		p.stats.SetError(err.Error())
		log.Error("briefing run failed", "error", err)
	}
	log.Info("run statistics", "stats", p.stats.GetStats())
	return err
}

func (p *Pipeline) run(ctx context.Context, log *slog.Logger) error {
	cfg := p.cfg

	fmt.Fprintln(p.out, "1. Fetching RSS feeds...")
	var candidates []news.Candidate
	p.stage("fetch", func() {
		reader := rss.NewReader(p.http, cfg.MaxItemsPerFeed, cfg.FeedConcurrency, log, p.stats)
		candidates = reader.FetchAll(ctx, cfg.Feeds)
	})
	fmt.Fprintf(p.out, "   Found %d candidate articles.\n", len(candidates))

	fmt.Fprintln(p.out, "2. Selecting relevant articles...")
	var selection news.Selection
	p.stage("select", func() {
		sel := selector.New(p.model, selector.Options{
			Interests:     cfg.Interests,
			Min:           cfg.SelectMin,
			Max:           cfg.SelectMax,
			FallbackCount: cfg.FallbackCount,
			Policy:        cfg.SelectionPolicy,
		}, p.out, log, p.stats)
		selection = sel.Select(ctx, candidates)
	})
	fmt.Fprintf(p.out, "   Selected %d articles.\n", len(selection.URLs))

	fmt.Fprintln(p.out, "3. Extracting article text...")
	var docs []news.Document
	p.stage("extract", func() {
		extractor := scraper.NewExtractor(p.http, cfg.ExtractConcurrency, log, p.stats)
		docs = extractor.ExtractAll(ctx, selection.URLs)
	})
	fmt.Fprintf(p.out, "   Extracted %d of %d articles.\n", len(docs), len(selection.URLs))

	fmt.Fprintln(p.out, "4. Writing the briefing...")
	var text string
	var err error
	p.stage("synthesize", func() {
		text, err = digest.New(p.model, log).Synthesize(ctx, news.FormatSources(docs))
	})
	if err != nil {
		return err
	}

	var art render.Artifact
	p.stage("render", func() {
		art, err = render.New().Render(text, p.Now())
	})
	if err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}

	fmt.Fprintln(p.out, "5. Publishing...")
	file := &publish.FilePublisher{Path: cfg.OutputPath}
	p.stage("publish", func() {
		if err = file.Publish(ctx, art); err != nil {
			return
		}
		for _, pub := range p.Publishers {
			if perr := pub.Publish(ctx, art); perr != nil {
				log.Warn("publisher failed", "publisher", pub.Name(), "error", perr)
				continue
			}
			log.Info("published", "publisher", pub.Name())
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(p.out, "Done. Briefing saved to %s\n", cfg.OutputPath)
	return nil
}

func (p *Pipeline) stage(name string, fn func()) {
	start := time.Now()
	fn()
	p.stats.RecordStage(name, time.Since(start))
}
