package regime

import "testing"

func TestSnapshotRequiresTwoObservations(t *testing.T) {
	tr := NewTracker(0)
	tr.Observe("BTC/USDT", Observation{Price: 100, Volume: 10})

	_, ok := tr.Snapshot("BTC/USDT")
	if ok {
		t.Fatal("expected snapshot to be unavailable with a single observation")
	}
}

func TestSnapshotWindowTrims(t *testing.T) {
	tr := NewTracker(5)
	for i := 0; i < 20; i++ {
		tr.Observe("BTC/USDT", Observation{Price: 100 + float64(i), Volume: 10})
	}
	snap, ok := tr.Snapshot("BTC/USDT")
	if !ok {
		t.Fatal("expected a snapshot")
	}
	// Only the last 5 observations remain, fewer than the 10-sample short
	// SMA, so the trend is Flat; all 20 rising prices would classify as Up.
	if snap.TrendClass != "Flat" {
		t.Fatalf("expected Flat trend from the trimmed window, got %q", snap.TrendClass)
	}
}

func TestTrendClassUpwardOnSustainedRise(t *testing.T) {
	tr := NewTracker(0)
	price := 100.0
	for i := 0; i < 40; i++ {
		tr.Observe("A/B", Observation{Price: price, Volume: 10})
		price += 2
	}
	snap, ok := tr.Snapshot("A/B")
	if !ok {
		t.Fatal("expected a snapshot")
	}
	if snap.TrendClass != "StrongUp" && snap.TrendClass != "Up" {
		t.Fatalf("expected an upward trend class, got %s", snap.TrendClass)
	}
}

func TestVolatilityRankAcrossPairs(t *testing.T) {
	tr := NewTracker(0)
	// Low-volatility pair.
	for i := 0; i < 10; i++ {
		tr.Observe("STABLE/USDT", Observation{Price: 1.0, Volume: 10})
	}
	// High-volatility pair.
	price := 100.0
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			price *= 1.2
		} else {
			price *= 0.8
		}
		tr.Observe("VOLATILE/USDT", Observation{Price: price, Volume: 10})
	}

	stable, _ := tr.Snapshot("STABLE/USDT")
	volatile, _ := tr.Snapshot("VOLATILE/USDT")

	rank := func(class string, labels []string) int {
		for i, l := range labels {
			if l == class {
				return i
			}
		}
		return -1
	}

	if rank(stable.VolatilityClass, volatilityThresholds) > rank(volatile.VolatilityClass, volatilityThresholds) {
		t.Fatalf("expected stable pair to rank no higher than volatile pair: %s vs %s", stable.VolatilityClass, volatile.VolatilityClass)
	}
}
