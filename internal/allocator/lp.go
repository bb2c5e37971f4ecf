package allocator

import (
	"math"
	"sort"
)

// allocateLP maximizes sum(x_i * mu_i * confidence_i / max(risk_i, eps))
// subject to sum(x_i) <= 1 and 0 <= x_i <= perCycleCap(i). This
// single-resource, per-item-capped LP is a fractional knapsack: the
// objective is linear in each x_i and every unit of fractional capital
// assigned to cycle i contributes the same per-unit value regardless of
// how much of i is already allocated, so the greedy rule — fill the
// highest-objective candidate to its cap, then the next, and so on —
// reaches the same optimal vertex any simplex or interior-point solver
// would. ranked is re-sorted by exactly that per-unit objective (ties by
// ID) before the greedy fill, so this is the LP solution, not an
// approximation of it.
func allocateLP(ranked []Candidate, cons Constraints, mode Mode) Plan {
	byObjective := append([]Candidate(nil), ranked...)
	objective := func(c Candidate) float64 {
		return c.MeanReturn * c.Confidence / math.Max(c.Risk, epsilon)
	}
	sort.SliceStable(byObjective, func(i, j int) bool {
		oi, oj := objective(byObjective[i]), objective(byObjective[j])
		if oi != oj {
			return oi > oj
		}
		return byObjective[i].ID < byObjective[j].ID
	})
	return allocateGreedy(byObjective, cons, mode)
}
