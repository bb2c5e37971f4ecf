// Package engine wires the graph, detector, microstructure, simulation,
// risk, stress, persistence, regime, and allocator components into a
// single scan operation.
package engine

import (
	"github.com/nrv/arbitrage-engine/internal/allocator"
	"github.com/nrv/arbitrage-engine/internal/detector"
	"github.com/nrv/arbitrage-engine/internal/regime"
	"github.com/nrv/arbitrage-engine/internal/risk"
	"github.com/nrv/arbitrage-engine/internal/simulation"
	"github.com/nrv/arbitrage-engine/internal/stress"
)

// EdgeInput is one market-data hop as the external interface receives
// it.
type EdgeInput struct {
	FromToken string
	ToToken   string
	Rate      float64
	Fee       float64
	Liquidity float64
	Venue     string
}

// ScanRequest is the scan operation's input.
type ScanRequest struct {
	Edges              []EdgeInput
	Capital            float64
	MaxCycles          int
	RunMonteCarlo      bool
	McSamples          int
	Seed               int64
	RunStress          bool
	AllocatorMode      allocator.Mode
	AllocatorCriterion allocator.Criterion
	Conservative       bool
}

// OpportunityResult bundles every analytic attached to one detected
// cycle.
type OpportunityResult struct {
	Fingerprint     string
	Cycle           detector.Cycle
	MinHopLiquidity float64
	Simulation      simulation.Result
	Risk            risk.Profile
	Stress          stress.Report
	Regime          regime.Snapshot
	RegimeKnown     bool // false until the entry pair has at least two observations
}

// ScanMetricsSummary is the scan-wide summary returned alongside
// opportunities.
type ScanMetricsSummary struct {
	TotalScans          int
	TotalCyclesFound    int
	AvgDetectionTimeMs  float64
	TrackedFingerprints int
	PortfolioSharpe     float64
}

// ScanResponse is the scan operation's output.
type ScanResponse struct {
	ScanID        string
	Opportunities []OpportunityResult
	Allocation    allocator.Plan
	Metrics       ScanMetricsSummary
	ElapsedMs     float64
}
