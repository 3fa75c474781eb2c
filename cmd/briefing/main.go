package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/deusflow/briefing/internal/app"
	"github.com/deusflow/briefing/internal/config"
	"github.com/deusflow/briefing/internal/llm"
	"github.com/deusflow/briefing/internal/logger"
	"github.com/deusflow/briefing/internal/metrics"
	"github.com/deusflow/briefing/internal/ratelimit"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	lg := logger.Init(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := llm.New(ctx, cfg)
	if err != nil {
		lg.Error("failed to create model client", "provider", cfg.Provider, "error", err)
		os.Exit(1)
	}
	defer client.Close()

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	stats := metrics.New()
	model := llm.NewLimited(client, cfg.Provider, ratelimit.NewBudget(cfg.MaxModelRequests), stats)

	pipeline := app.NewPipeline(cfg, model, httpClient, os.Stdout, lg, stats)
	pipeline.Publishers, err = app.OptionalPublishers(ctx, cfg, httpClient, lg)
	if err != nil {
		lg.Warn("optional publishers disabled", "error", err)
	}

	if err := pipeline.Run(ctx); err != nil {
		client.Close()
		os.Exit(1)
	}
}
