package simulation

import (
	"context"
	"testing"

	"github.com/nrv/arbitrage-engine/internal/microstructure"
)

func profitableHops() []HopInput {
	return []HopInput{
		{Rate: 15.0, Fee: 0.001, Liquidity: 1e6, Volume: 1000, Sigma: 0.001},
		{Rate: 2500.0, Fee: 0.001, Liquidity: 1e6, Volume: 1000, Sigma: 0.001},
		{Rate: 1.0 / (15.0 * 2500.0 * 0.995), Fee: 0.001, Liquidity: 1e6, Volume: 1000, Sigma: 0.001},
	}
}

func TestSimulateIsDeterministicForFixedSeed(t *testing.T) {
	hops := profitableHops()
	cfg := microstructure.DefaultConfig()
	params := Params{Samples: 200}

	r1, err := Simulate(context.Background(), hops, 42, params, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := Simulate(context.Background(), hops, 42, params, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(r1.Samples) != len(r2.Samples) {
		t.Fatalf("sample count mismatch: %d vs %d", len(r1.Samples), len(r2.Samples))
	}
	for i := range r1.Samples {
		if r1.Samples[i] != r2.Samples[i] {
			t.Fatalf("sample %d differs across runs: %f vs %f", i, r1.Samples[i], r2.Samples[i])
		}
	}
}

func TestSimulateClampsSampleCount(t *testing.T) {
	hops := profitableHops()
	cfg := microstructure.DefaultConfig()
	params := Params{Samples: 50000}

	r, err := Simulate(context.Background(), hops, 1, params, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Samples) > maxSamples {
		t.Fatalf("expected samples clamped to %d, got %d", maxSamples, len(r.Samples))
	}
}

func TestSimulateSharpeUndefinedWhenStdZero(t *testing.T) {
	res := summarize([]float64{0.01})
	if res.SharpeDefined {
		t.Fatal("expected Sharpe undefined for a single-sample (std=0) result")
	}
}

func TestSimulateRespectsCancellation(t *testing.T) {
	hops := profitableHops()
	cfg := microstructure.DefaultConfig()
	params := Params{Samples: 10000}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Simulate(ctx, hops, 1, params, cfg)
	if err == nil {
		t.Fatal("expected an error for a pre-cancelled context")
	}
}

func TestHalfLifeZeroForUnprofitableCycle(t *testing.T) {
	hops := []HopInput{
		{Rate: 1.0, Fee: 0.05, Liquidity: 1e6},
		{Rate: 0.9, Fee: 0.05, Liquidity: 1e6},
	}
	cfg := microstructure.DefaultConfig()
	res := HalfLife(hops, cfg, 100)
	if res.HalfLifeMs != 0 {
		t.Fatalf("expected half-life 0 for unprofitable cycle, got %f", res.HalfLifeMs)
	}
}

func TestHalfLifeUnboundedForStronglyProfitableCycle(t *testing.T) {
	hops := []HopInput{
		{Rate: 3.0, Fee: 0, Liquidity: 1e9},
	}
	cfg := microstructure.DefaultConfig()
	// Breakeven latency is decayRef*(1-1/3); a 20000ms decay reference puts
	// it past the 10000ms search ceiling.
	res := HalfLife(hops, cfg, 20000)
	if !res.Unbounded {
		t.Fatal("expected unbounded half-life for a strongly profitable cycle")
	}
}

func TestHalfLifeWithinSearchBoundsForModeratelyProfitableCycle(t *testing.T) {
	hops := profitableHops()
	cfg := microstructure.DefaultConfig()
	res := HalfLife(hops, cfg, 100)
	if res.Unbounded {
		return // acceptable for a strongly arbitraged synthetic triangle
	}
	if res.HalfLifeMs < 0 || res.HalfLifeMs > latencySearchMaxMs {
		t.Fatalf("expected half-life within [0, %d], got %f", latencySearchMaxMs, res.HalfLifeMs)
	}
}
