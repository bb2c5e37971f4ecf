package graph

import "github.com/rs/zerolog/log"

// PrunerConfig holds the thresholds the Edge Pruner applies before cycle
// detection. Each threshold is independently enableable so a scan can,
// for example, filter on liquidity alone.
type PrunerConfig struct {
	MinLiquidity        float64
	EnableMinLiquidity  bool
	MaxFee              float64
	EnableMaxFee        bool
	MinRate             float64
	EnableMinRate       bool
	MaxRate             float64
	EnableMaxRate       bool
}

// keep reports whether an edge survives the configured thresholds.
func (c PrunerConfig) keep(e Edge) bool {
	if c.EnableMinLiquidity && e.Liquidity < c.MinLiquidity {
		return false
	}
	if c.EnableMaxFee && e.Fee > c.MaxFee {
		return false
	}
	if c.EnableMinRate && e.Rate < c.MinRate {
		return false
	}
	if c.EnableMaxRate && e.Rate > c.MaxRate {
		return false
	}
	return true
}

// Prune is a pure function of its configuration: it returns a new graph
// containing only the edges that satisfy cfg, plus the number removed.
//
// Node identity/indices are preserved when every original token still has
// at least one surviving incident edge; otherwise the result is
// re-indexed (disconnected tokens are dropped and remaining tokens are
// renumbered in their original relative order).
func Prune(g *Graph, cfg PrunerConfig) (*Graph, int) {
	kept := make([]Edge, 0, len(g.edges))
	removed := 0
	for _, e := range g.edges {
		if cfg.keep(e) {
			kept = append(kept, e)
		} else {
			removed++
		}
	}

	if removed == 0 {
		return cloneGraph(g), 0
	}

	connected := make([]bool, len(g.tokens))
	for _, e := range kept {
		connected[e.From] = true
		connected[e.To] = true
	}

	allConnected := true
	for _, ok := range connected {
		if !ok {
			allConnected = false
			break
		}
	}

	out := NewGraph()
	if allConnected {
		// Node identity preserved: replay AddNode in original order first.
		for _, sym := range g.tokens {
			out.AddNode(sym)
		}
		for _, e := range kept {
			out.AddEdge(g.tokens[e.From], g.tokens[e.To], e.Rate, e.Fee, e.Liquidity, e.Venue)
		}
		log.Debug().Int("removed", removed).Msg("pruner: node identity preserved")
		return out, removed
	}

	// Re-index: only tokens touched by a surviving edge are kept, in
	// their original relative order.
	for i, sym := range g.tokens {
		if connected[i] {
			out.AddNode(sym)
		}
	}
	for _, e := range kept {
		out.AddEdge(g.tokens[e.From], g.tokens[e.To], e.Rate, e.Fee, e.Liquidity, e.Venue)
	}
	log.Debug().
		Int("removed", removed).
		Int("nodes_before", len(g.tokens)).
		Int("nodes_after", out.NodeCount()).
		Msg("pruner: re-indexed due to disconnected tokens")
	return out, removed
}

// cloneGraph makes a structural copy of g (used when pruning removes
// nothing, so callers can still treat the result as a fresh instance).
func cloneGraph(g *Graph) *Graph {
	out := NewGraph()
	for _, sym := range g.tokens {
		out.AddNode(sym)
	}
	for _, e := range g.edges {
		out.AddEdge(g.tokens[e.From], g.tokens[e.To], e.Rate, e.Fee, e.Liquidity, e.Venue)
	}
	return out
}
