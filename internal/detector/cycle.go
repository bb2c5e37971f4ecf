package detector

import (
	"sort"
	"strings"

	"github.com/nrv/arbitrage-engine/internal/graph"
)

// Cycle is a single detected arbitrage loop: an ordered token path (first
// and last entries equal), the global edge indices traversed, and the
// profitability figures derived from the accumulated edge weight.
type Cycle struct {
	TokenPath       []string
	EdgeIndices     []int
	RawProfit       float64 // multiplicative return over one full loop, e.g. 1.002 = +0.2%
	LogProfit       float64 // -TotalWeight; negative TotalWeight means RawProfit > 1
	PathLength      int     // number of hops (len(EdgeIndices))
	DetectionTimeMs float64
}

// Fingerprint returns an order-insensitive identity for this cycle: the
// sorted multiset of its token symbols (the closing repeat of the start
// token excluded), joined with a separator that cannot appear in a token
// symbol. Two cycles visiting the same tokens in a different rotation or
// direction share a fingerprint.
func (c Cycle) Fingerprint() string {
	if len(c.TokenPath) == 0 {
		return ""
	}
	tokens := make([]string, len(c.TokenPath)-1)
	copy(tokens, c.TokenPath[:len(c.TokenPath)-1])
	sort.Strings(tokens)
	return strings.Join(tokens, "|")
}

// buildCycle converts a node-index path and edge-index sequence produced
// by the Bellman-Ford walk-back into a Cycle, computing weight and
// profit from the snapshot's edges.
func buildCycle(snap *graph.Snapshot, nodeIdxs []int, edgeIdxs []int, detectionMs float64) (Cycle, bool) {
	if len(nodeIdxs) < 2 || len(edgeIdxs) == 0 {
		return Cycle{}, false
	}

	tokenPath := make([]string, len(nodeIdxs))
	for i, ni := range nodeIdxs {
		tokenPath[i] = snap.Symbol(ni)
	}

	var totalWeight float64
	for i, ei := range edgeIdxs {
		e, ok := snap.Edge(ei)
		if !ok {
			return Cycle{}, false
		}
		if e.From != nodeIdxs[i] || e.To != nodeIdxs[i+1] {
			// the tracked parentEdge didn't line up with this hop; recover
			// the best matching edge between the pair instead.
			alt, found := edgeIndexBetween(snap, nodeIdxs[i], nodeIdxs[i+1], e.Weight())
			if !found {
				return Cycle{}, false
			}
			edgeIdxs[i] = alt
			e, _ = snap.Edge(alt)
		}
		totalWeight += e.Weight()
	}

	logProfit := -totalWeight
	return Cycle{
		TokenPath:       tokenPath,
		EdgeIndices:     edgeIdxs,
		RawProfit:       graph.CycleProfit(totalWeight),
		LogProfit:       logProfit,
		PathLength:      len(edgeIdxs),
		DetectionTimeMs: detectionMs,
	}, true
}

// CycleSet accumulates distinct cycles (by Fingerprint) in discovery
// order, used to dedup cycles found from different source nodes within
// a single scan.
type CycleSet struct {
	seen  map[string]bool
	order []Cycle
}

// NewCycleSet returns an empty CycleSet.
func NewCycleSet() *CycleSet {
	return &CycleSet{seen: make(map[string]bool)}
}

// Add inserts c if its fingerprint hasn't been seen yet. Returns true if
// it was newly added.
func (s *CycleSet) Add(c Cycle) bool {
	fp := c.Fingerprint()
	if s.seen[fp] {
		return false
	}
	s.seen[fp] = true
	s.order = append(s.order, c)
	return true
}

// Count returns the number of distinct cycles accumulated.
func (s *CycleSet) Count() int { return len(s.order) }

// All returns the accumulated cycles in discovery order.
func (s *CycleSet) All() []Cycle { return s.order }
