// Package history persists terminal run summaries to a local embedded
// database so past runs survive process restarts.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/stylelens/ingest/internal/core"
)

// RunRecord is one persisted run summary.
type RunRecord struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	RunID      string `gorm:"uniqueIndex" json:"run_id"`
	FileName   string `json:"file_name"`
	Status     string `gorm:"index" json:"status"`
	TotalRows  int    `json:"total_rows"`
	ValidRows  int    `json:"valid_rows"`
	Uploaded   int    `json:"uploaded"`
	Skipped    int    `json:"skipped"`
	Errors     int    `json:"errors"`
	DurationMs int64  `json:"duration_ms"`
	// Detail holds the full summary as JSON for drill-down views.
	Detail     string    `gorm:"type:text" json:"-"`
	FinishedAt time.Time `gorm:"autoCreateTime;index" json:"finished_at"`
}

// Store wraps the embedded database handle.
type Store struct {
	db *gorm.DB
}

// OpenAt opens (or creates) the history database at path and migrates the
// schema.
func OpenAt(path string) (*Store, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := gdb.AutoMigrate(&RunRecord{}); err != nil {
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: gdb}, nil
}

// Record persists one terminal summary. Implements core.Recorder.
func (s *Store) Record(ctx context.Context, summary core.Summary) error {
	detail, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	rec := RunRecord{
		RunID:      summary.RunID,
		FileName:   summary.FileName,
		Status:     summary.Status,
		TotalRows:  summary.TotalRows,
		ValidRows:  summary.ValidRows,
		Uploaded:   summary.Uploaded,
		Skipped:    summary.Skipped,
		Errors:     summary.Errors,
		DurationMs: summary.Duration.Milliseconds(),
		Detail:     string(detail),
		FinishedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []RunRecord
	err := s.db.WithContext(ctx).
		Order("finished_at DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

// Get returns one persisted run with its full summary decoded.
func (s *Store) Get(ctx context.Context, runID string) (*RunRecord, *core.Summary, error) {
	var rec RunRecord
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).First(&rec).Error; err != nil {
		return nil, nil, err
	}

	var summary core.Summary
	if err := json.Unmarshal([]byte(rec.Detail), &summary); err != nil {
		return &rec, nil, fmt.Errorf("decode summary: %w", err)
	}
	return &rec, &summary, nil
}

// Prune deletes records older than the retention window and returns how
// many were removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res := s.db.WithContext(ctx).
		Where("finished_at < ?", cutoff).
		Delete(&RunRecord{})
	return res.RowsAffected, res.Error
}
