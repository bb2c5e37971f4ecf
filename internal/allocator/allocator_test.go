package allocator

import "testing"

func sampleCandidates() []Candidate {
	return []Candidate{
		{ID: "a", Sharpe: 2.0, MeanReturn: 0.02, Confidence: 90, Risk: 20, MinHopLiquidity: 100000},
		{ID: "b", Sharpe: 1.5, MeanReturn: 0.015, Confidence: 80, Risk: 30, MinHopLiquidity: 50000},
		{ID: "c", Sharpe: 0.5, MeanReturn: 0.005, Confidence: 40, Risk: 60, MinHopLiquidity: 10000}, // below default min_confidence
	}
}

func TestAllocateGreedyRespectsConstraints(t *testing.T) {
	cons := DefaultConstraints(10000)
	plan := Allocate(sampleCandidates(), CriterionSharpe, ModeGreedy, cons)

	if err := Validate(plan, sampleCandidates(), cons); err != nil {
		t.Fatalf("greedy plan violated a constraint: %v", err)
	}
	if len(plan.Allocations) == 0 {
		t.Fatal("expected at least one allocation")
	}
}

func TestAllocateGreedyExcludesLowConfidence(t *testing.T) {
	cons := DefaultConstraints(10000)
	plan := Allocate(sampleCandidates(), CriterionSharpe, ModeGreedy, cons)
	for _, a := range plan.Allocations {
		if a.ID == "c" {
			t.Fatal("expected candidate below min_confidence to be excluded")
		}
	}
}

func TestAllocateLPNoWorseThanGreedyOnObjective(t *testing.T) {
	cons := DefaultConstraints(10000)
	candidates := sampleCandidates()

	greedy := Allocate(candidates, CriterionComposite, ModeGreedy, cons)
	lp := Allocate(candidates, CriterionComposite, ModeLP, cons)

	byID := make(map[string]Candidate)
	for _, c := range candidates {
		byID[c.ID] = c
	}
	objective := func(plan Plan) float64 {
		var total float64
		for _, a := range plan.Allocations {
			c := byID[a.ID]
			total += a.Fraction * c.MeanReturn * c.Confidence / maxf(c.Risk, epsilon)
		}
		return total
	}

	if objective(lp) < objective(greedy)-1e-9 {
		t.Fatalf("expected LP objective >= greedy objective: lp=%f greedy=%f", objective(lp), objective(greedy))
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func TestAllocateRiskParityEqualizesRiskContribution(t *testing.T) {
	cons := DefaultConstraints(1000000) // large capital, so liquidity caps bind below max_position
	candidates := sampleCandidates()
	plan := Allocate(candidates, CriterionSharpe, ModeRiskParity, cons)

	if err := Validate(plan, candidates, cons); err != nil {
		t.Fatalf("risk parity plan violated a constraint: %v", err)
	}

	byID := make(map[string]Candidate)
	for _, c := range candidates {
		byID[c.ID] = c
	}
	var contributions []float64
	for _, a := range plan.Allocations {
		contributions = append(contributions, a.Fraction*byID[a.ID].Risk)
	}
	for i := 1; i < len(contributions); i++ {
		if diff := contributions[i] - contributions[0]; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("expected equal risk contributions, got %v", contributions)
		}
	}
}

func TestAllocateEmptyCandidatesYieldsEmptyPlan(t *testing.T) {
	cons := DefaultConstraints(10000)
	plan := Allocate(nil, CriterionSharpe, ModeGreedy, cons)
	if len(plan.Allocations) != 0 {
		t.Fatalf("expected no allocations, got %d", len(plan.Allocations))
	}
}
