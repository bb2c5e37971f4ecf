// Package allocator ranks arbitrage opportunities and assigns capital
// fractions to them under liquidity, position-size, and confidence
// constraints.
package allocator

import (
	"math"
	"sort"
)

// Criterion selects how candidates are ranked before allocation.
type Criterion int

const (
	// CriterionSharpe ranks by Sharpe ratio, descending.
	CriterionSharpe Criterion = iota
	// CriterionMeanReturn ranks by absolute mean return, descending.
	CriterionMeanReturn
	// CriterionComposite ranks by Sharpe*confidence/max(risk, eps), descending.
	CriterionComposite
)

// Mode selects the allocation algorithm.
type Mode int

const (
	ModeGreedy Mode = iota
	ModeLP
	ModeRiskParity
)

const epsilon = 1e-6

// Candidate is one cycle's allocator-relevant figures.
type Candidate struct {
	ID              string
	Sharpe          float64
	MeanReturn      float64
	Confidence      float64 // 0-100
	Risk            float64 // composite risk score, 0-100
	MinHopLiquidity float64
}

// Constraints bounds a plan.
type Constraints struct {
	Capital       float64
	MaxPosition   float64 // default 0.3
	MinConfidence float64 // default 50
}

// DefaultConstraints returns the engine's default allocator bounds.
func DefaultConstraints(capital float64) Constraints {
	return Constraints{Capital: capital, MaxPosition: 0.3, MinConfidence: 50}
}

// Allocation is one cycle's assigned fraction of capital.
type Allocation struct {
	ID       string
	Fraction float64
	Amount   float64
}

// Plan is the full allocation result.
type Plan struct {
	Allocations   []Allocation
	TotalFraction float64
	Mode          Mode
}

func score(c Candidate, criterion Criterion) float64 {
	switch criterion {
	case CriterionMeanReturn:
		return math.Abs(c.MeanReturn)
	case CriterionComposite:
		return c.Sharpe * c.Confidence / math.Max(c.Risk, epsilon)
	default:
		return c.Sharpe
	}
}

// rank filters candidates below MinConfidence and sorts the rest by
// criterion, descending, ties broken by ID for determinism.
func rank(candidates []Candidate, criterion Criterion, cons Constraints) []Candidate {
	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Confidence >= cons.MinConfidence {
			filtered = append(filtered, c)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		si, sj := score(filtered[i], criterion), score(filtered[j], criterion)
		if si != sj {
			return si > sj
		}
		return filtered[i].ID < filtered[j].ID
	})
	return filtered
}

// perCycleCap returns the maximum fraction allowed for c given cons: the
// smaller of max_position and min_hop_liquidity/capital.
func perCycleCap(c Candidate, cons Constraints) float64 {
	capFrac := cons.MaxPosition
	if cons.Capital > 0 && c.MinHopLiquidity > 0 {
		liquidityCap := c.MinHopLiquidity / cons.Capital
		if liquidityCap < capFrac {
			capFrac = liquidityCap
		}
	}
	if capFrac < 0 {
		capFrac = 0
	}
	return capFrac
}

// Allocate ranks candidates and dispatches to the selected algorithm.
// Greedy ranks by the caller's chosen criterion; RiskParity selects by
// descending confidence; LP always maximizes its own fixed objective
// (mean_return*confidence/max(risk,eps)) regardless of criterion.
func Allocate(candidates []Candidate, criterion Criterion, mode Mode, cons Constraints) Plan {
	switch mode {
	case ModeLP:
		return allocateLP(rank(candidates, CriterionComposite, cons), cons, mode)
	case ModeRiskParity:
		return allocateRiskParity(rank(candidates, criterion, cons), cons, mode)
	default:
		return allocateGreedy(rank(candidates, criterion, cons), cons, mode)
	}
}

func allocateGreedy(ranked []Candidate, cons Constraints, mode Mode) Plan {
	plan := Plan{Mode: mode}
	remaining := 1.0 // remaining capital as a fraction of cons.Capital

	for _, c := range ranked {
		if remaining <= 0 {
			break
		}
		capFrac := perCycleCap(c, cons)
		fraction := math.Min(remaining, capFrac)
		if fraction <= 0 {
			continue
		}
		plan.Allocations = append(plan.Allocations, Allocation{
			ID:       c.ID,
			Fraction: fraction,
			Amount:   fraction * cons.Capital,
		})
		plan.TotalFraction += fraction
		remaining -= fraction
	}
	return plan
}
