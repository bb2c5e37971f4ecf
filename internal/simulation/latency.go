package simulation

import (
	"encoding/json"
	"math"

	"github.com/nrv/arbitrage-engine/internal/microstructure"
)

const (
	latencySearchMaxMs = 10000
	latencyToleranceMs = 1
)

// DeterministicMultiplier computes the no-noise, no-latency-variance
// product of per-hop effective rates: 1 plus the cycle's return if
// executed instantly at the given (base) liquidity.
func DeterministicMultiplier(hops []HopInput, impactCfg microstructure.Config) float64 {
	product := 1.0
	for _, h := range hops {
		impact := microstructure.Impact(h.Volume, h.Liquidity, impactCfg)
		product *= microstructure.EffectiveRate(h.Rate, h.Fee, impact)
	}
	return product
}

// HalfLifeResult is the outcome of a latency half-life search.
type HalfLifeResult struct {
	HalfLifeMs float64
	Unbounded  bool // true when the cycle stays profitable through the search ceiling
}

// MarshalJSON serializes an unbounded half-life as the string "unbounded"
// per the wire contract, and a finite one as a plain number.
func (h HalfLifeResult) MarshalJSON() ([]byte, error) {
	if h.Unbounded {
		return json.Marshal("unbounded")
	}
	return json.Marshal(h.HalfLifeMs)
}

// HalfLife finds the smallest latency ell > 0, in milliseconds, at which
// the cycle's expected return (under the linear decay law
// max(0, 1 - ell/decayRefMs)) falls to zero or below, by bisection over
// [0, 10000ms] with 1ms tolerance. If the cycle is already unprofitable
// at ell=0, the half-life is 0; if it remains profitable through the
// search ceiling, the result is reported unbounded.
func HalfLife(hops []HopInput, impactCfg microstructure.Config, decayRefMs float64) HalfLifeResult {
	if decayRefMs <= 0 {
		decayRefMs = DefaultParams().DecayRefMs
	}
	multiplier := DeterministicMultiplier(hops, impactCfg)

	expectedReturn := func(ell float64) float64 {
		decay := math.Max(0, 1-ell/decayRefMs)
		return multiplier*decay - 1
	}

	if expectedReturn(0) <= 0 {
		return HalfLifeResult{HalfLifeMs: 0}
	}
	if expectedReturn(latencySearchMaxMs) > 0 {
		return HalfLifeResult{HalfLifeMs: math.Inf(1), Unbounded: true}
	}

	lo, hi := 0.0, float64(latencySearchMaxMs)
	for hi-lo > latencyToleranceMs {
		mid := (lo + hi) / 2
		if expectedReturn(mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return HalfLifeResult{HalfLifeMs: hi}
}

// DecayPoint is one sample of the latency decay curve.
type DecayPoint struct {
	LatencyMs    float64
	ReturnPct    float64
	IsProfitable bool
}

// DecayCurve samples the deterministic expected-return-vs-latency curve
// at the given latency checkpoints (e.g. 0, 50, 100, 200ms).
func DecayCurve(hops []HopInput, impactCfg microstructure.Config, decayRefMs float64, checkpoints []float64) []DecayPoint {
	if decayRefMs <= 0 {
		decayRefMs = DefaultParams().DecayRefMs
	}
	multiplier := DeterministicMultiplier(hops, impactCfg)

	out := make([]DecayPoint, len(checkpoints))
	for i, ell := range checkpoints {
		decay := math.Max(0, 1-ell/decayRefMs)
		ret := multiplier*decay - 1
		out[i] = DecayPoint{
			LatencyMs:    ell,
			ReturnPct:    ret * 100,
			IsProfitable: ret > 0,
		}
	}
	return out
}

// ReliabilityBucket classifies a half-life result into a qualitative
// execution-reliability label.
func ReliabilityBucket(h HalfLifeResult) string {
	switch {
	case h.Unbounded:
		return "Highly Reliable"
	case h.HalfLifeMs >= 300:
		return "Reliable"
	case h.HalfLifeMs >= 100:
		return "Moderate"
	case h.HalfLifeMs >= 20:
		return "Fragile"
	default:
		return "Very Fragile"
	}
}
