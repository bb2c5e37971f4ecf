// Package detector implements negative-cycle arbitrage detection over a
// currency graph using classic Bellman-Ford relaxation.
package detector

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nrv/arbitrage-engine/internal/graph"
)

// driftTolerance is the largest log-profit still treated as rounding
// noise: a loop whose rates multiply to exactly 1 can sum to a log-profit
// of a few 1e-16 depending on the source node.
const driftTolerance = 1e-12

// Stats summarizes a single detection run for logging and metrics.
type Stats struct {
	SourcesScanned int
	CyclesFound    int
	DurationMs     float64
	EarlyExit      bool // true if maxCycles was reached before exhausting sources
}

// Detect scans every node of snap as a Bellman-Ford source, in node-index
// order, accumulating distinct negative cycles (deduplicated by
// Fingerprint) until either all sources are exhausted or maxCycles
// distinct cycles have been found. maxCycles <= 0 means unbounded.
func Detect(snap *graph.Snapshot, maxCycles int) ([]Cycle, Stats) {
	start := time.Now()
	set := NewCycleSet()
	stats := Stats{}

	n := snap.NumNodes()
	for source := 0; source < n; source++ {
		stats.SourcesScanned++

		res := runBellmanFord(snap, source)
		node, ok := findRelaxableEdge(snap, res)
		if !ok {
			continue
		}

		onCycle := landOnCycle(res.parent, node)
		if onCycle < 0 {
			continue
		}

		detectMs := float64(time.Since(start)) / float64(time.Millisecond)
		nodeIdxs, edgeIdxs, ok := extractCycle(snap, res, onCycle)
		if !ok {
			continue
		}

		cycle, ok := buildCycle(snap, nodeIdxs, edgeIdxs, detectMs)
		if !ok {
			continue
		}

		// A log-profit at or below driftTolerance means floating point
		// drift produced a false positive; discard it.
		if cycle.LogProfit <= driftTolerance {
			continue
		}

		if set.Add(cycle) {
			stats.CyclesFound++
			if maxCycles > 0 && stats.CyclesFound >= maxCycles {
				stats.EarlyExit = true
				break
			}
		}
	}

	stats.DurationMs = float64(time.Since(start)) / float64(time.Millisecond)

	log.Debug().
		Int("sources_scanned", stats.SourcesScanned).
		Int("cycles_found", stats.CyclesFound).
		Float64("duration_ms", stats.DurationMs).
		Bool("early_exit", stats.EarlyExit).
		Msg("cycle detection complete")

	return set.All(), stats
}
