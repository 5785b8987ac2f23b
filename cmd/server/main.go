package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/stylelens/ingest/internal/config"
	"github.com/stylelens/ingest/internal/core"
	"github.com/stylelens/ingest/internal/history"
	"github.com/stylelens/ingest/internal/logging"
	"github.com/stylelens/ingest/internal/transport"
	"github.com/stylelens/ingest/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"catalog_url", cfg.Catalog.BaseURL,
		"batch_size", cfg.Ingest.BatchSize,
		"max_concurrent_runs", cfg.Ingest.MaxConcurrentRuns,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Catalog client shared by all runs
	client := transport.NewClient(cfg.Catalog.BaseURL, &http.Client{
		Timeout: cfg.Catalog.Timeout,
	})

	// Open run history store; the server still works without it
	store, err := history.OpenAt(cfg.History.Path)
	if err != nil {
		slog.Warn("run history unavailable", "path", cfg.History.Path, "error", err)
		store = nil
	} else {
		slog.Info("run history opened", "path", cfg.History.Path)
	}

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	if store != nil {
		go store.StartRetentionScheduler(jobCtx, history.RetentionConfig{
			Retention:     cfg.History.Retention,
			CheckInterval: cfg.History.CheckInterval,
		})
	}

	// Create service with config
	svcCfg := core.ServiceConfig{
		BatchSize:         cfg.Ingest.BatchSize,
		PaceInterval:      cfg.Ingest.PaceInterval,
		MaxConcurrentRuns: cfg.Ingest.MaxConcurrentRuns,
		DefaultTrendID:    cfg.Ingest.TrendID(),
	}
	if store != nil {
		svcCfg.Recorder = store
	}
	service := core.NewService(client, svcCfg)

	// Create server with config
	server := web.NewServer(service, store, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active runs to finish (with timeout)
		if active := service.ActiveRuns(); active > 0 {
			slog.Info("waiting for runs to complete", "active", active)
			if err := service.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("runs did not complete in time", "error", err)
			} else {
				slog.Info("all runs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
