package persistence

import (
	"testing"
	"time"
)

func TestRecordObservationCreatesAndUpdates(t *testing.T) {
	tr := NewTracker()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tr.RecordObservation("fp1", 0.01, now)
	r, ok := tr.Get("fp1")
	if !ok {
		t.Fatal("expected record to exist")
	}
	if r.DetectionCount != 1 {
		t.Fatalf("expected detection count 1, got %d", r.DetectionCount)
	}

	later := now.Add(time.Minute)
	tr.RecordObservation("fp1", 0.02, later)
	r, _ = tr.Get("fp1")
	if r.DetectionCount != 2 {
		t.Fatalf("expected detection count 2, got %d", r.DetectionCount)
	}
	if r.PeakReturn != 0.02 {
		t.Fatalf("expected peak return 0.02, got %f", r.PeakReturn)
	}
}

func TestPruneEvictsExpiredRecords(t *testing.T) {
	tr := NewTracker()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr.RecordObservation("stale", 0.01, now)

	evicted := tr.Prune(now.Add(2*time.Hour), 30*time.Minute)
	if evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if tr.Count() != 0 {
		t.Fatalf("expected tracker empty after prune, got %d", tr.Count())
	}
}

func TestRingBufferBoundedAt128(t *testing.T) {
	tr := NewTracker()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 200; i++ {
		tr.RecordObservation("fp", float64(i)*0.0001, now.Add(time.Duration(i)*time.Second))
	}
	r, _ := tr.Get("fp")
	if len(r.Returns()) != ringCapacity {
		t.Fatalf("expected ring bounded at %d, got %d", ringCapacity, len(r.Returns()))
	}
	// the most recent 128 observations should be retained, oldest-first
	returns := r.Returns()
	if returns[len(returns)-1] != 199*0.0001 {
		t.Fatalf("expected last entry to be the most recent observation, got %f", returns[len(returns)-1])
	}
}

func TestClassifyDecayMonotonicIncreasing(t *testing.T) {
	if got := classifyDecay([]float64{0.01, 0.02, 0.03, 0.04}); got != "monotonic" {
		t.Fatalf("expected monotonic, got %s", got)
	}
}

func TestClassifyDecayOscillating(t *testing.T) {
	if got := classifyDecay([]float64{0.01, -0.01, 0.01, -0.01, 0.01}); got != "oscillating" {
		t.Fatalf("expected oscillating, got %s", got)
	}
}

func TestScoreRecordWithinBounds(t *testing.T) {
	tr := NewTracker()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		tr.RecordObservation("fp", 0.01, now.Add(time.Duration(i)*time.Minute))
	}
	r, _ := tr.Get("fp")
	score := ScoreRecord(r)
	if score.Composite < 0 || score.Composite > 100 {
		t.Fatalf("expected composite in [0,100], got %f", score.Composite)
	}
}
