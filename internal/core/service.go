package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunTimeout is the maximum duration for a single ingestion run.
var RunTimeout = 10 * time.Minute

// cleanupDelay is how long a terminal run stays queryable before it is
// dropped from the registry. History persists beyond this window.
const cleanupDelay = 30 * time.Minute

// Recorder persists terminal run summaries. Implemented by history.Store.
type Recorder interface {
	Record(ctx context.Context, summary Summary) error
}

// Service owns ingestion runs: it starts them, tracks live progress, and
// hands out results. All methods are safe for concurrent use.
type Service struct {
	uploader Uploader
	limiter  *RunLimiter
	recorder Recorder
	log      *slog.Logger

	batchSize      int
	paceInterval   time.Duration
	defaultTrendID *int

	mu   sync.RWMutex
	runs map[string]*activeRun
}

type activeRun struct {
	ID       string
	FileName string

	// mu guards Progress, Summary, and Result while the driver is live.
	mu       sync.Mutex
	Progress Progress
	Result   *Summary

	Done       chan struct{}
	Listeners  []chan Progress
	ListenerMu sync.Mutex
}

// ServiceConfig carries the tunables for a Service. Zero values fall back
// to the pipeline defaults.
type ServiceConfig struct {
	BatchSize         int
	PaceInterval      time.Duration
	MaxConcurrentRuns int
	DefaultTrendID    *int
	Recorder          Recorder
	Logger            *slog.Logger
}

// NewService creates a Service that delivers batches through the given
// uploader.
func NewService(uploader Uploader, cfg ServiceConfig) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.PaceInterval <= 0 {
		cfg.PaceInterval = DefaultPaceInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Service{
		uploader:       uploader,
		limiter:        NewRunLimiter(cfg.MaxConcurrentRuns),
		recorder:       cfg.Recorder,
		log:            cfg.Logger,
		batchSize:      cfg.BatchSize,
		paceInterval:   cfg.PaceInterval,
		defaultTrendID: cfg.DefaultTrendID,
		runs:           make(map[string]*activeRun),
	}
}

// StartRun begins an asynchronous ingestion run over the source data and
// returns the run ID immediately. Use SubscribeProgress for live updates and
// GetRunResult for the terminal summary.
func (s *Service) StartRun(ctx context.Context, opts RunOptions, source io.Reader) (string, error) {
	if err := s.limiter.Acquire(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(source)
	if err != nil {
		s.limiter.Release()
		return "", fmt.Errorf("read source: %w", err)
	}

	runID := uuid.New().String()
	run := &activeRun{
		ID:       runID,
		FileName: opts.FileName,
		Progress: Progress{
			RunID:    runID,
			FileName: opts.FileName,
			Phase:    PhasePending,
		},
		Done:      make(chan struct{}),
		Listeners: make([]chan Progress, 0),
	}

	s.mu.Lock()
	s.runs[runID] = run
	s.mu.Unlock()

	runCtx, cancel := context.WithTimeout(context.Background(), RunTimeout)

	go func() {
		defer cancel()
		defer s.limiter.Release()
		defer s.cleanup(runID, cleanupDelay)

		summary := s.execute(runCtx, run, opts, data)

		run.mu.Lock()
		run.Result = &summary
		run.mu.Unlock()

		if s.recorder != nil {
			if err := s.recorder.Record(runCtx, summary); err != nil {
				s.log.Error("record run history", "run_id", runID, "error", err)
			}
		}

		close(run.Done)
		run.closeListeners()
	}()

	return runID, nil
}

// Run executes an ingestion run synchronously and returns its summary.
// Used by the CLI; progress callbacks are not exposed.
func (s *Service) Run(ctx context.Context, opts RunOptions, source io.Reader) (Summary, error) {
	runID, err := s.StartRun(ctx, opts, source)
	if err != nil {
		return Summary{}, err
	}
	result, err := s.GetRunResult(runID)
	if err != nil {
		return Summary{}, err
	}
	return *result, nil
}

// SubscribeProgress returns a channel that receives progress snapshots.
// The channel is closed when the run reaches a terminal phase.
func (s *Service) SubscribeProgress(runID string) (<-chan Progress, error) {
	run, err := s.get(runID)
	if err != nil {
		return nil, err
	}

	ch := make(chan Progress, 10)

	run.ListenerMu.Lock()
	select {
	case <-run.Done:
		// Already terminal; deliver the final snapshot and close.
		run.ListenerMu.Unlock()
		ch <- run.snapshot()
		close(ch)
		return ch, nil
	default:
	}
	run.Listeners = append(run.Listeners, ch)
	select {
	case ch <- run.snapshot():
	default:
	}
	run.ListenerMu.Unlock()

	return ch, nil
}

// GetRunProgress returns the current progress without blocking.
func (s *Service) GetRunProgress(runID string) (Progress, error) {
	run, err := s.get(runID)
	if err != nil {
		return Progress{}, err
	}
	return run.snapshot(), nil
}

// GetRunResult returns the terminal summary, blocking until the run
// completes if it is still in progress.
func (s *Service) GetRunResult(runID string) (*Summary, error) {
	run, err := s.get(runID)
	if err != nil {
		return nil, err
	}

	<-run.Done

	run.mu.Lock()
	defer run.mu.Unlock()
	return run.Result, nil
}

// ActiveRuns reports how many runs are currently executing.
func (s *Service) ActiveRuns() int {
	return s.limiter.Active()
}

// WaitForDrain blocks until every in-flight run has finished or the context
// is done. Used during graceful shutdown.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) get(runID string) (*activeRun, error) {
	s.mu.RLock()
	run, ok := s.runs[runID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	return run, nil
}

// cleanup removes the run from tracking after a delay.
func (s *Service) cleanup(runID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.runs, runID)
		s.mu.Unlock()
	})
}

func (run *activeRun) snapshot() Progress {
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.Progress
}

// setProgress publishes a new progress snapshot to every listener. The run
// driver is the only caller.
func (run *activeRun) setProgress(p Progress) {
	run.mu.Lock()
	run.Progress = p
	run.mu.Unlock()

	run.ListenerMu.Lock()
	defer run.ListenerMu.Unlock()
	for _, ch := range run.Listeners {
		select {
		case ch <- p:
		default:
			// Listener is slow, skip this update
		}
	}
}

// closeListeners closes all listener channels.
func (run *activeRun) closeListeners() {
	run.ListenerMu.Lock()
	defer run.ListenerMu.Unlock()

	for _, ch := range run.Listeners {
		close(ch)
	}
	run.Listeners = nil
}
