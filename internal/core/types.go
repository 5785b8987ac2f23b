package core

import (
	"context"
	"time"

	"github.com/stylelens/ingest/internal/catalog"
)

// RunPhase indicates the current stage of an ingestion run.
type RunPhase string

const (
	PhasePending    RunPhase = "pending"
	PhaseParsing    RunPhase = "parsing"
	PhaseValidating RunPhase = "validating"
	PhaseUploading  RunPhase = "uploading"
	PhaseCompleted  RunPhase = "completed"
	PhaseFailed     RunPhase = "failed"
)

// Terminal reports whether the phase is a terminal state.
func (p RunPhase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// RowViolation reports one source row excluded by validation, with the
// 1-based data row index and every rule it violated.
type RowViolation struct {
	Row     int      `json:"row"`
	Reasons []string `json:"reasons"`
}

// Progress is the published snapshot of a run's state. Observers only ever
// see copies; the run driver is the sole writer.
//
// Processed counts valid rows whose batch has resolved, Successful counts
// rows the server accepted (uploaded or skipped), Errors counts rows that
// failed either client validation or delivery.
type Progress struct {
	RunID        string   `json:"run_id"`
	FileName     string   `json:"file_name"`
	Phase        RunPhase `json:"phase"`
	Total        int      `json:"total"`
	Processed    int      `json:"processed"`
	Successful   int      `json:"successful"`
	Errors       int      `json:"errors"`
	CurrentBatch int      `json:"current_batch"`
	TotalBatches int      `json:"total_batches"`
	Error        string   `json:"error,omitempty"`
}

// Summary is the cumulative outcome of one run. It is mutated additively
// after each batch by the run driver and becomes immutable once the run
// reaches a terminal phase.
type Summary struct {
	RunID    string `json:"run_id"`
	FileName string `json:"file_name"`

	// Source accounting.
	TotalRows   int            `json:"total_rows"`
	ValidRows   int            `json:"valid_rows"`
	InvalidRows []RowViolation `json:"invalid_rows,omitempty"`

	// Upload accounting, merged batch by batch.
	Processed     int      `json:"processed"`
	Uploaded      int      `json:"uploaded"`
	Skipped       int      `json:"skipped"`
	Errors        int      `json:"errors"`
	ErrorMessages []string `json:"error_messages,omitempty"`

	CurrentBatch int `json:"current_batch"`
	TotalBatches int `json:"total_batches"`

	// Status is set once terminal: "success" when anything was uploaded,
	// "failed" otherwise. Error carries the reason for runs that aborted
	// before any upload (parse failure, zero valid rows).
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Run status values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// apply folds one per-batch outcome into the summary. Error messages are
// concatenated without deduplication; truncation is a display concern.
func (s *Summary) apply(batchSize int, out catalog.BulkResponse) {
	s.Processed += batchSize
	s.Uploaded += out.UploadedCount
	s.Skipped += out.SkippedCount
	s.Errors += out.ErrorCount
	s.ErrorMessages = append(s.ErrorMessages, out.Errors...)
}

// Succeeded reports whether the run counts as a success: the upload endpoint
// stored at least one new record. Partial failure does not negate success.
func (s *Summary) Succeeded() bool {
	return s.Uploaded > 0
}

// RunOptions configures one ingestion run. Zero values fall back to the
// service defaults.
type RunOptions struct {
	FileName       string
	BatchSize      int
	PaceInterval   time.Duration
	DefaultTrendID *int
}

// Uploader delivers one batch to the catalog service. Implemented by
// transport.Client; faked in tests.
type Uploader interface {
	UploadBatch(ctx context.Context, batch []catalog.Product) (catalog.BulkResponse, error)
}
