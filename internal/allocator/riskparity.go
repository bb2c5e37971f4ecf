package allocator

import "sort"

// allocateRiskParity selects cycles by descending confidence, adding
// one at a time as long as a fraction exists that equalizes x_i*risk_i
// across the selected set without violating any cap, then solves for
// that common risk contribution directly.
func allocateRiskParity(ranked []Candidate, cons Constraints, mode Mode) Plan {
	plan := Plan{Mode: mode}

	byConfidence := append([]Candidate(nil), ranked...)
	sort.SliceStable(byConfidence, func(i, j int) bool {
		return byConfidence[i].Confidence > byConfidence[j].Confidence
	})

	selected := make([]Candidate, 0, len(ranked))
	for _, c := range byConfidence {
		if c.Risk <= 0 {
			continue // undefined risk contribution; cannot parity-weight
		}
		trial := append(append([]Candidate{}, selected...), c)
		fractions, totalFraction, ok := solveRiskParity(trial, cons)
		if !ok {
			continue // adding c would force a cap violation
		}
		selected = trial
		plan.Allocations = toAllocations(trial, fractions, cons.Capital)
		plan.TotalFraction = totalFraction
	}

	return plan
}

// solveRiskParity finds the common risk contribution level r such that
// x_i = r/risk_i for every candidate, honoring each per-cycle cap and
// sum(x_i) <= 1. It returns the largest feasible r (to use capital as
// fully as the constraints allow).
func solveRiskParity(candidates []Candidate, cons Constraints) (fractions []float64, total float64, ok bool) {
	if len(candidates) == 0 {
		return nil, 0, true
	}

	caps := make([]float64, len(candidates))
	for i, c := range candidates {
		caps[i] = perCycleCap(c, cons)
		if caps[i] <= 0 {
			return nil, 0, false
		}
	}

	// The binding constraint is either sum(x_i) == 1 or some x_i == cap_i.
	// r is bounded above by min_i(cap_i * risk_i); find the largest r <=
	// that bound such that sum(r/risk_i) <= 1.
	rMax := -1.0
	for i, c := range candidates {
		bound := caps[i] * c.Risk
		if rMax < 0 || bound < rMax {
			rMax = bound
		}
	}

	sumInvRisk := 0.0
	for _, c := range candidates {
		sumInvRisk += 1.0 / c.Risk
	}
	if sumInvRisk <= 0 {
		return nil, 0, false
	}
	rCapacity := 1.0 / sumInvRisk

	r := rMax
	if rCapacity < r {
		r = rCapacity
	}
	if r <= 0 {
		return nil, 0, false
	}

	fractions = make([]float64, len(candidates))
	total = 0
	for i, c := range candidates {
		x := r / c.Risk
		if x > caps[i]+1e-9 {
			return nil, 0, false
		}
		fractions[i] = x
		total += x
	}
	if total > 1+1e-9 {
		return nil, 0, false
	}
	return fractions, total, true
}

func toAllocations(candidates []Candidate, fractions []float64, capital float64) []Allocation {
	out := make([]Allocation, len(candidates))
	for i, c := range candidates {
		out[i] = Allocation{ID: c.ID, Fraction: fractions[i], Amount: fractions[i] * capital}
	}
	return out
}
