package detector

import (
	"math"

	"github.com/nrv/arbitrage-engine/internal/graph"
)

const infinity = math.MaxFloat64

// bellmanFordResult holds the distance/parent state produced by running
// classic Bellman-Ford relaxation from a single source over the global
// edge list.
type bellmanFordResult struct {
	dist       []float64
	parent     []int // parent node, or -1
	parentEdge []int // global edge index that produced parent[v], or -1
}

// runBellmanFord performs |V|-1 relaxation passes from sourceIdx over the
// graph's full edge list (in insertion order, for determinism), followed
// by one extra pass used by the caller to detect a reachable negative
// cycle. It never mutates the snapshot.
func runBellmanFord(snap *graph.Snapshot, sourceIdx int) bellmanFordResult {
	n := snap.NumNodes()
	edges := snap.AllEdges()

	dist := make([]float64, n)
	parent := make([]int, n)
	parentEdge := make([]int, n)
	for i := range dist {
		dist[i] = infinity
		parent[i] = -1
		parentEdge[i] = -1
	}
	dist[sourceIdx] = 0

	relax := func() bool {
		changed := false
		for ei, e := range edges {
			if dist[e.From] >= infinity {
				continue // guard against relaxing from an unreachable node
			}
			w := e.Weight()
			if graph.IsInvalidWeight(w) {
				continue // non-relaxable edge
			}
			nd := dist[e.From] + w
			if nd < dist[e.To] {
				dist[e.To] = nd
				parent[e.To] = e.From
				parentEdge[e.To] = ei
				changed = true
			}
		}
		return changed
	}

	for i := 0; i < n-1; i++ {
		if !relax() {
			break
		}
	}

	return bellmanFordResult{dist: dist, parent: parent, parentEdge: parentEdge}
}

// findRelaxableEdge runs one additional relaxation pass and returns the
// destination node index of the first edge that still relaxes, i.e. a
// node reachable from a negative cycle, recording that edge in res's
// parent and parentEdge entries. Returns ok=false if nothing relaxes (no
// negative cycle reachable from sourceIdx).
func findRelaxableEdge(snap *graph.Snapshot, res bellmanFordResult) (node int, ok bool) {
	edges := snap.AllEdges()
	for ei, e := range edges {
		if res.dist[e.From] >= infinity {
			continue
		}
		w := e.Weight()
		if graph.IsInvalidWeight(w) {
			continue
		}
		if res.dist[e.From]+w < res.dist[e.To] {
			res.parent[e.To] = e.From
			res.parentEdge[e.To] = ei
			return e.To, true
		}
	}
	return -1, false
}

// landOnCycle walks the parent chain |V| times from node, which is
// guaranteed (by the pigeonhole principle over V nodes) to land on a
// node that is actually on the negative cycle rather than merely
// reachable from it.
func landOnCycle(parent []int, node int) int {
	n := len(parent)
	cur := node
	for i := 0; i < n; i++ {
		if parent[cur] < 0 {
			return -1
		}
		cur = parent[cur]
	}
	return cur
}

// extractCycle walks parent pointers from a confirmed on-cycle node until
// it returns to that node, collecting the traversed nodes in reverse
// (cycle) order, then reverses them into traversal order and maps
// consecutive node pairs to edge indices.
func extractCycle(snap *graph.Snapshot, res bellmanFordResult, startNode int) (nodes []int, edgeIdxs []int, ok bool) {
	n := snap.NumNodes()
	visited := make(map[int]bool, n)
	var revNodes []int
	var revEdges []int

	cur := startNode
	for {
		if visited[cur] {
			break
		}
		visited[cur] = true
		revNodes = append(revNodes, cur)

		p := res.parent[cur]
		if p < 0 {
			return nil, nil, false
		}
		revEdges = append(revEdges, res.parentEdge[cur])

		cur = p
		if cur == startNode {
			break
		}
		if len(revNodes) > n {
			return nil, nil, false // safety: should never happen given landOnCycle
		}
	}

	// revNodes collected walking backwards (child -> parent); reverse to
	// get forward traversal order, and prepend the closing node.
	k := len(revNodes)
	nodes = make([]int, k+1)
	edgeIdxs = make([]int, k)
	for i := 0; i < k; i++ {
		nodes[k-i] = revNodes[i]
	}
	nodes[0] = startNode
	for i := 0; i < k; i++ {
		edgeIdxs[k-1-i] = revEdges[i]
	}

	return nodes, edgeIdxs, true
}

// edgeIndexBetween picks the edge index to use for the hop from -> to,
// preferring one whose weight matches preferWeight (the weight that
// produced the relaxation), else falling back to the minimum-weight edge
// between the pair, ties broken by insertion (and therefore index) order.
func edgeIndexBetween(snap *graph.Snapshot, from, to int, preferWeight float64) (int, bool) {
	best := -1
	bestW := infinity
	for _, ei := range snap.EdgeIndicesFrom(from) {
		e, _ := snap.Edge(ei)
		if e.To != to {
			continue
		}
		w := e.Weight()
		if w == preferWeight {
			return ei, true
		}
		if best < 0 || w < bestW {
			best = ei
			bestW = w
		}
	}
	if best < 0 {
		return -1, false
	}
	return best, true
}
