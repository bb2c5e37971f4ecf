package allocator

// Validate checks that plan satisfies every allocator invariant against
// cons and the original candidates (by ID). A violation here indicates
// a bug in one of the allocation algorithms, never a normal outcome.
func Validate(plan Plan, candidates []Candidate, cons Constraints) error {
	byID := make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	var total float64
	for _, a := range plan.Allocations {
		total += a.Fraction
		if a.Fraction > cons.MaxPosition+1e-9 {
			return &ConstraintViolation{Reason: "fraction exceeds max_position", ID: a.ID}
		}
		if c, ok := byID[a.ID]; ok && cons.Capital > 0 && c.MinHopLiquidity > 0 {
			if a.Fraction*cons.Capital > c.MinHopLiquidity+1e-6 {
				return &ConstraintViolation{Reason: "fraction * capital exceeds min_hop_liquidity", ID: a.ID}
			}
		}
	}
	if total > 1+1e-9 {
		return &ConstraintViolation{Reason: "total allocation exceeds capital"}
	}
	return nil
}

// ConstraintViolation reports a broken allocator invariant.
type ConstraintViolation struct {
	Reason string
	ID     string
}

func (e *ConstraintViolation) Error() string {
	if e.ID == "" {
		return "allocator: " + e.Reason
	}
	return "allocator: " + e.Reason + " (" + e.ID + ")"
}
