package microstructure

import (
	"math"
	"testing"
)

func TestImpactClampedToHalf(t *testing.T) {
	cfg := DefaultConfig()
	impact := Impact(1e9, 1, cfg) // absurd utilization
	if impact != maxImpact {
		t.Fatalf("expected impact clamped to %f, got %f", maxImpact, impact)
	}
}

func TestImpactZeroVolume(t *testing.T) {
	cfg := DefaultConfig()
	if got := Impact(0, 1e6, cfg); got != 0 {
		t.Fatalf("expected zero impact for zero volume, got %f", got)
	}
}

func TestImpactIsConvex(t *testing.T) {
	cfg := DefaultConfig()
	small := Impact(100, 1e6, cfg)
	large := Impact(200, 1e6, cfg)
	// convexity: doubling volume more than doubles impact (alpha > 1)
	if large < 2*small {
		t.Fatalf("expected convex growth, impact(100)=%f impact(200)=%f", small, large)
	}
}

func TestImpactIlliquidPoolClamped(t *testing.T) {
	cfg := DefaultConfig()
	if got := Impact(10, 0, cfg); got != maxImpact {
		t.Fatalf("expected maximal impact for zero liquidity, got %f", got)
	}
}

func TestImpactBpsConversion(t *testing.T) {
	if got := ImpactBps(0.01); got != 100 {
		t.Fatalf("expected 100 bps for 1%% impact, got %f", got)
	}
}

func TestUtilizationInfiniteForZeroLiquidity(t *testing.T) {
	got := Utilization(1, 0)
	if !math.IsInf(got, 1) {
		t.Fatalf("expected +Inf utilization, got %f", got)
	}
}

func TestEffectiveRateWithNoiseAppliesMultiplicatively(t *testing.T) {
	base := EffectiveRate(10, 0.01, 0.02)
	noisy := EffectiveRateWithNoise(10, 0.01, 0.02, 0.05)
	want := base * 1.05
	if math.Abs(noisy-want) > 1e-9 {
		t.Fatalf("expected %f, got %f", want, noisy)
	}
}
