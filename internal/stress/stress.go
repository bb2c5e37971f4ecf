// Package stress runs a fixed battery of market-shock scenarios against
// a cycle's hops and reports how many it survives.
package stress

import (
	"github.com/nrv/arbitrage-engine/internal/microstructure"
	"github.com/nrv/arbitrage-engine/internal/simulation"
)

// Scenario is one named shock applied to a cycle's hops before
// re-evaluating its deterministic expected return.
type Scenario struct {
	Name  string
	Apply func([]simulation.HopInput) []simulation.HopInput
}

// Scenarios returns the seven-scenario battery, in the fixed order the
// report enumerates them. LatencyMax10x and SpreadTripled leave the hops
// unchanged, since HopInput carries no latency or spread field, and
// VolatilityDoubled changes only Sigma, which DeterministicMultiplier
// does not read; all three therefore report the unshocked return.
func Scenarios() []Scenario {
	return []Scenario{
		{Name: "PriceShock1Pct", Apply: mutateRate(0.99)},
		{Name: "LiquidityDown30Pct", Apply: mutateLiquidity(0.70)},
		{Name: "VolatilityDoubled", Apply: mutateSigma(2.0)},
		{Name: "FeeDoubled", Apply: mutateFee(2.0)},
		{Name: "LatencyMax10x", Apply: identity},
		{Name: "SpreadTripled", Apply: identity},
		{Name: "Combined", Apply: combined(mutateRate(0.99), mutateLiquidity(0.70), mutateFee(2.0))},
	}
}

func identity(hops []simulation.HopInput) []simulation.HopInput { return cloneHops(hops) }

func mutateRate(factor float64) func([]simulation.HopInput) []simulation.HopInput {
	return func(hops []simulation.HopInput) []simulation.HopInput {
		out := cloneHops(hops)
		for i := range out {
			out[i].Rate *= factor
		}
		return out
	}
}

func mutateLiquidity(factor float64) func([]simulation.HopInput) []simulation.HopInput {
	return func(hops []simulation.HopInput) []simulation.HopInput {
		out := cloneHops(hops)
		for i := range out {
			out[i].Liquidity *= factor
		}
		return out
	}
}

func mutateSigma(factor float64) func([]simulation.HopInput) []simulation.HopInput {
	return func(hops []simulation.HopInput) []simulation.HopInput {
		out := cloneHops(hops)
		for i := range out {
			out[i].Sigma *= factor
		}
		return out
	}
}

func mutateFee(factor float64) func([]simulation.HopInput) []simulation.HopInput {
	return func(hops []simulation.HopInput) []simulation.HopInput {
		out := cloneHops(hops)
		for i := range out {
			fee := out[i].Fee * factor
			if fee > 0.999 {
				fee = 0.999
			}
			out[i].Fee = fee
		}
		return out
	}
}

func combined(fns ...func([]simulation.HopInput) []simulation.HopInput) func([]simulation.HopInput) []simulation.HopInput {
	return func(hops []simulation.HopInput) []simulation.HopInput {
		out := cloneHops(hops)
		for _, fn := range fns {
			out = fn(out)
		}
		return out
	}
}

func cloneHops(hops []simulation.HopInput) []simulation.HopInput {
	out := make([]simulation.HopInput, len(hops))
	copy(out, hops)
	return out
}

// Result is the outcome of one scenario.
type Result struct {
	Scenario       string
	ExpectedReturn float64
	Survived       bool
}

// Report is the full seven-scenario battery outcome for one cycle.
type Report struct {
	Results     []Result
	SurvivedN   int
	Robustness float64 // SurvivedN / 7
	Rating     string
}

// Run applies each of the seven named scenarios to hops and reports
// whether the cycle's deterministic expected return stays positive
// under each shock.
func Run(hops []simulation.HopInput, impactCfg microstructure.Config) Report {
	scenarios := Scenarios()
	results := make([]Result, len(scenarios))

	survived := 0
	for i, s := range scenarios {
		mutated := s.Apply(hops)
		multiplier := simulation.DeterministicMultiplier(mutated, impactCfg)
		expected := multiplier - 1
		ok := expected > 0
		if ok {
			survived++
		}
		results[i] = Result{Scenario: s.Name, ExpectedReturn: expected, Survived: ok}
	}

	robustness := float64(survived) / float64(len(scenarios))
	return Report{
		Results:    results,
		SurvivedN:  survived,
		Robustness: robustness,
		Rating:     rating(survived),
	}
}

func rating(survived int) string {
	switch {
	case survived >= 6:
		return "Excellent"
	case survived >= 4:
		return "Strong"
	case survived >= 2:
		return "Moderate"
	case survived == 1:
		return "Weak"
	default:
		return "VeryWeak"
	}
}
