package core

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/stylelens/ingest/internal/normalize"
)

// execute drives one ingestion run from raw bytes to a terminal summary.
// It is the only writer of the run's progress; observers read snapshots.
//
// Phase order is fixed: parsing, validating, uploading, then completed or
// failed. A parse failure or an empty valid set aborts before any network
// activity. Once uploading starts every batch is dispatched exactly once,
// strictly in order, with a fixed pause between batches.
func (s *Service) execute(ctx context.Context, run *activeRun, opts RunOptions, data []byte) Summary {
	start := time.Now()

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = s.batchSize
	}
	pace := opts.PaceInterval
	if pace <= 0 {
		pace = s.paceInterval
	}
	trendID := opts.DefaultTrendID
	if trendID == nil {
		trendID = s.defaultTrendID
	}

	summary := Summary{
		RunID:    run.ID,
		FileName: run.FileName,
	}
	progress := Progress{
		RunID:    run.ID,
		FileName: run.FileName,
		Phase:    PhaseParsing,
	}
	run.setProgress(progress)

	s.log.Info("run started", "run_id", run.ID, "file", run.FileName)

	rows, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		return s.fail(run, summary, progress, start, fmt.Sprintf("could not read file: %v", err))
	}

	summary.TotalRows = len(rows)
	progress.Total = len(rows)
	progress.Phase = PhaseValidating
	run.setProgress(progress)

	norm := normalize.Normalizer{DefaultTrendID: trendID}
	products := norm.Rows(rows)

	valid, invalid := PartitionRows(products)
	summary.ValidRows = len(valid)
	summary.InvalidRows = invalid
	summary.Errors = len(invalid)
	progress.Errors = len(invalid)

	if len(valid) == 0 {
		s.log.Warn("run has no valid rows", "run_id", run.ID, "total", summary.TotalRows)
		return s.fail(run, summary, progress, start, "no valid rows to upload")
	}

	batches := SplitBatches(valid, batchSize)
	summary.TotalBatches = len(batches)
	progress.TotalBatches = len(batches)
	progress.Phase = PhaseUploading
	run.setProgress(progress)

	for i, batch := range batches {
		summary.CurrentBatch = i + 1
		progress.CurrentBatch = i + 1
		run.setProgress(progress)

		out, err := s.uploader.UploadBatch(ctx, batch)
		if err != nil {
			s.log.Warn("batch delivery failed",
				"run_id", run.ID,
				"batch", i+1,
				"of", len(batches),
				"rows", len(batch),
				"error", err,
			)
		}
		summary.apply(len(batch), out)

		progress.Processed = summary.Processed
		progress.Successful = summary.Uploaded + summary.Skipped
		progress.Errors = summary.Errors
		run.setProgress(progress)

		if i < len(batches)-1 {
			select {
			case <-time.After(pace):
			case <-ctx.Done():
				// The timeout still lets remaining batches resolve as
				// transport failures rather than vanishing uncounted.
			}
		}
	}

	summary.Duration = time.Since(start)
	if summary.Succeeded() {
		summary.Status = StatusSuccess
		progress.Phase = PhaseCompleted
	} else {
		summary.Status = StatusFailed
		summary.Error = fmt.Sprintf("no rows uploaded, %d errors", summary.Errors)
		progress.Phase = PhaseFailed
		progress.Error = summary.Error
	}
	run.setProgress(progress)

	s.log.Info("run finished",
		"run_id", run.ID,
		"status", summary.Status,
		"uploaded", summary.Uploaded,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"duration", summary.Duration,
	)

	return summary
}

// fail finalizes a run that aborted before any upload.
func (s *Service) fail(run *activeRun, summary Summary, progress Progress, start time.Time, reason string) Summary {
	summary.Status = StatusFailed
	summary.Error = reason
	summary.Duration = time.Since(start)

	progress.Phase = PhaseFailed
	progress.Error = reason
	run.setProgress(progress)

	s.log.Warn("run failed", "run_id", run.ID, "reason", reason)
	return summary
}
