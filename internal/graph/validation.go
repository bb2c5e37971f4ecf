package graph

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// ValidationResult holds the results of a graph consistency check.
type ValidationResult struct {
	Valid         bool
	Errors        []string
	OrphanTokens  []string // tokens with zero incident edges (warning only)
	DanglingEdges []string // edges referencing an out-of-range node index
}

// Validate performs a consistency check on the graph's core invariants:
// every edge endpoint refers to a valid node index, and there are no
// duplicate node entries.
func (g *Graph) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(g.tokenIndex) != len(g.tokens) {
		result.Valid = false
		result.Errors = append(result.Errors, "duplicate node entries detected")
	}

	hasEdge := make([]bool, len(g.tokens))
	for i, e := range g.edges {
		if e.From < 0 || e.From >= len(g.tokens) || e.To < 0 || e.To >= len(g.tokens) {
			result.Valid = false
			msg := fmt.Sprintf("edge %d references out-of-range node (from=%d to=%d, n=%d)",
				i, e.From, e.To, len(g.tokens))
			result.Errors = append(result.Errors, msg)
			result.DanglingEdges = append(result.DanglingEdges, msg)
			continue
		}
		hasEdge[e.From] = true
		hasEdge[e.To] = true
	}

	for i, sym := range g.tokens {
		if !hasEdge[i] {
			result.OrphanTokens = append(result.OrphanTokens, sym)
		}
	}

	return result
}

// ValidateAndLog performs validation and logs the results, returning
// whether the graph is structurally valid.
func (g *Graph) ValidateAndLog() bool {
	result := g.Validate()

	if result.Valid {
		log.Info().
			Int("tokens", g.NodeCount()).
			Int("edges", g.EdgeCount()).
			Int("orphans", len(result.OrphanTokens)).
			Msg("graph validation passed")
		return true
	}

	for _, err := range result.Errors {
		log.Error().Msg("graph validation error: " + err)
	}
	log.Error().Int("error_count", len(result.Errors)).Msg("graph validation FAILED")
	return false
}
