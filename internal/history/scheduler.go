package history

// scheduler.go provides background retention pruning for the run history.
//
// The scheduler is long-running and context-aware for graceful shutdown. It
// logs progress and errors but does not fail the application if individual
// prune cycles fail.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig holds configuration for the prune scheduler. Zero values
// fall back to defaults.
type RetentionConfig struct {
	Retention     time.Duration // How long to keep records (default: 90 days)
	CheckInterval time.Duration // How often to run (default: 24h)
}

// StartRetentionScheduler starts a background goroutine that periodically
// deletes run records older than the retention window. It runs immediately
// on start, then every CheckInterval, and stops when the context is
// cancelled.
func (s *Store) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) {
	if cfg.Retention <= 0 {
		cfg.Retention = 90 * 24 * time.Hour
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 24 * time.Hour
	}

	slog.Info("history retention scheduler started",
		"retention", cfg.Retention,
		"check_interval", cfg.CheckInterval,
	)

	s.runPruneJob(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history retention scheduler stopped")
			return
		case <-ticker.C:
			s.runPruneJob(ctx, cfg)
		}
	}
}

// runPruneJob performs one prune cycle.
func (s *Store) runPruneJob(ctx context.Context, cfg RetentionConfig) {
	start := time.Now()

	pruned, err := s.Prune(ctx, cfg.Retention)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return
	}
	if pruned > 0 {
		slog.Info("pruned run history",
			"records_pruned", pruned,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
