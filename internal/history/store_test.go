package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stylelens/ingest/internal/core"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenAt(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	return store
}

func sampleSummary(runID string) core.Summary {
	return core.Summary{
		RunID:     runID,
		FileName:  "products.csv",
		Status:    core.StatusSuccess,
		TotalRows: 25,
		ValidRows: 24,
		Uploaded:  20,
		Skipped:   3,
		Errors:    2,
		Duration:  1200 * time.Millisecond,
	}
}

// ============================================================================
// Record / Get
// ============================================================================

func TestStore_RecordAndGet(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, sampleSummary("run-1")); err != nil {
		t.Fatalf("Record: %v", err)
	}

	rec, summary, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Uploaded != 20 || rec.Status != core.StatusSuccess {
		t.Errorf("record = %+v", rec)
	}
	if rec.DurationMs != 1200 {
		t.Errorf("duration_ms = %d, want 1200", rec.DurationMs)
	}
	if summary.ValidRows != 24 {
		t.Errorf("decoded summary = %+v", summary)
	}
}

func TestStore_GetUnknown(t *testing.T) {
	store := testStore(t)

	if _, _, err := store.Get(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown run")
	}
}

// ============================================================================
// Recent / Prune
// ============================================================================

func TestStore_RecentNewestFirst(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-1", "run-2", "run-3"} {
		if err := store.Record(ctx, sampleSummary(id)); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	recs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].RunID != "run-3" || recs[1].RunID != "run-2" {
		t.Errorf("order = [%s %s], want newest first", recs[0].RunID, recs[1].RunID)
	}
}

func TestStore_Prune(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, sampleSummary("old-run")); err != nil {
		t.Fatalf("Record: %v", err)
	}

	// Retention of zero makes everything already recorded eligible.
	time.Sleep(5 * time.Millisecond)
	pruned, err := store.Prune(ctx, 0)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}

	recs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected empty history after prune, got %d", len(recs))
	}
}
