package graph

// Snapshot is an immutable, point-in-time view of a Graph. The cycle
// detector and Monte Carlo simulator operate against a Snapshot so that
// per-cycle fan-out work never aliases a graph that could be mutated
// concurrently — in this engine the graph is always scan-local, but the
// Snapshot still gives every per-cycle goroutine its own read-only handle.
type Snapshot struct {
	tokens     []string
	tokenIndex map[string]int
	edges      []Edge
	adjacency  [][]int
}

// CreateSnapshot captures the current state of g. It copies the token
// list, symbol index, edge list and adjacency lists, so later changes to
// g are not visible through the snapshot.
func (g *Graph) CreateSnapshot() *Snapshot {
	tokenIndex := make(map[string]int, len(g.tokenIndex))
	for sym, idx := range g.tokenIndex {
		tokenIndex[sym] = idx
	}
	adjacency := make([][]int, len(g.adjacency))
	for i, out := range g.adjacency {
		adjacency[i] = append([]int(nil), out...)
	}
	return &Snapshot{
		tokens:     append([]string(nil), g.tokens...),
		tokenIndex: tokenIndex,
		edges:      append([]Edge(nil), g.edges...),
		adjacency:  adjacency,
	}
}

// NumNodes returns the number of tokens in the snapshot.
func (s *Snapshot) NumNodes() int { return len(s.tokens) }

// NumEdges returns the number of directed edges in the snapshot.
func (s *Snapshot) NumEdges() int { return len(s.edges) }

// Symbol returns the token symbol for a node index.
func (s *Snapshot) Symbol(idx int) string {
	if idx < 0 || idx >= len(s.tokens) {
		return ""
	}
	return s.tokens[idx]
}

// NodeIndex returns the index for a token symbol.
func (s *Snapshot) NodeIndex(symbol string) (int, bool) {
	idx, ok := s.tokenIndex[symbol]
	return idx, ok
}

// Edge returns the edge at the given global index.
func (s *Snapshot) Edge(idx int) (Edge, bool) {
	if idx < 0 || idx >= len(s.edges) {
		return Edge{}, false
	}
	return s.edges[idx], true
}

// AllEdges returns the full insertion-ordered edge list.
func (s *Snapshot) AllEdges() []Edge {
	out := make([]Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// EdgeIndicesFrom returns the global edge indices leaving a node, in
// insertion order.
func (s *Snapshot) EdgeIndicesFrom(nodeIdx int) []int {
	if nodeIdx < 0 || nodeIdx >= len(s.adjacency) {
		return nil
	}
	return s.adjacency[nodeIdx]
}

// EdgesFrom returns the edges leaving a node, in insertion order.
func (s *Snapshot) EdgesFrom(nodeIdx int) []Edge {
	idxs := s.EdgeIndicesFrom(nodeIdx)
	out := make([]Edge, len(idxs))
	for i, ei := range idxs {
		out[i] = s.edges[ei]
	}
	return out
}
