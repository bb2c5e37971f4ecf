package engine

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/nrv/arbitrage-engine/internal/allocator"
	"github.com/nrv/arbitrage-engine/internal/engineerr"
	"github.com/nrv/arbitrage-engine/internal/microstructure"
	"github.com/nrv/arbitrage-engine/internal/persistence"
	"github.com/nrv/arbitrage-engine/internal/simulation"
	"github.com/nrv/arbitrage-engine/internal/stress"
)

// cachedOpportunity retains the hop data alongside the last scan's result
// for a fingerprint, so stress_test and allocate can be driven by
// opportunity_id without re-running detection.
type cachedOpportunity struct {
	result OpportunityResult
	hops   []simulation.HopInput
}

// cache holds the most recent scan's opportunities, keyed by fingerprint.
// It is replaced wholesale by each Scan that detects at least one cycle;
// a scan that finds no cycles leaves it unchanged.
type cache struct {
	mu   sync.RWMutex
	byID map[string]cachedOpportunity
}

func newCache() *cache { return &cache{byID: make(map[string]cachedOpportunity)} }

func (c *cache) replace(entries map[string]cachedOpportunity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = entries
}

func (c *cache) get(id string) (cachedOpportunity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.byID[id]
	return v, ok
}

func (c *cache) all() map[string]cachedOpportunity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]cachedOpportunity, len(c.byID))
	for k, v := range c.byID {
		out[k] = v
	}
	return out
}

// EdgeSource supplies market data for QuickScan, standing in for the
// configured collaborator (a live feed or a simulated generator) that
// quick_scan's use_real_data flag selects between.
type EdgeSource interface {
	Edges(ctx context.Context, useRealData bool) ([]EdgeInput, error)
}

// QuickScan runs a scan against edges produced by src instead of a
// caller-supplied edge list. Every other ScanRequest field behaves as in
// Scan.
func (e *Engine) QuickScan(ctx context.Context, src EdgeSource, useRealData bool, req ScanRequest) (*ScanResponse, error) {
	edges, err := src.Edges(ctx, useRealData)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.KindInternal, "edge source failed", err)
	}
	req.Edges = edges
	return e.Scan(ctx, req)
}

// GlobalMetrics is the "metrics" operation's response: scan-wide counters
// plus a persistence summary of the most frequently recurring
// opportunities.
type GlobalMetrics struct {
	Scan          ScanMetricsSummary
	TopPersistent []PersistenceSummary
}

// PersistenceSummary is one fingerprint's persistence scoring.
type PersistenceSummary struct {
	Fingerprint string
	Score       persistence.Score
	Record      *persistence.Record
}

const topPersistentN = 10

// Metrics returns global scan counters and a persistence summary, per the
// "metrics" operation.
func (e *Engine) Metrics() GlobalMetrics {
	avgDetectMs := 0.0
	if e.totalScans > 0 {
		avgDetectMs = e.totalDetectMs / float64(e.totalScans)
	}

	records := e.tracker.All()
	summaries := make([]PersistenceSummary, len(records))
	for i, r := range records {
		summaries[i] = PersistenceSummary{
			Fingerprint: r.Fingerprint,
			Score:       persistence.ScoreRecord(r),
			Record:      r,
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Score.Composite != summaries[j].Score.Composite {
			return summaries[i].Score.Composite > summaries[j].Score.Composite
		}
		return summaries[i].Fingerprint < summaries[j].Fingerprint
	})
	if len(summaries) > topPersistentN {
		summaries = summaries[:topPersistentN]
	}

	return GlobalMetrics{
		Scan: ScanMetricsSummary{
			TotalScans:          e.totalScans,
			TotalCyclesFound:    e.totalCyclesFound,
			AvgDetectionTimeMs:  avgDetectMs,
			TrackedFingerprints: e.tracker.Count(),
		},
		TopPersistent: summaries,
	}
}

// AllocateRequest is the standalone "allocate" operation's input: it
// re-allocates over opportunities already known from a prior scan,
// identified by fingerprint.
type AllocateRequest struct {
	OpportunityIDs []string // empty means "every cached opportunity"
	Capital        float64
	Mode           allocator.Mode
	Criterion      allocator.Criterion
	MaxPosition    float64
	MinConfidence  float64
}

// Allocate runs the capital allocator over a set of previously scanned
// opportunities, identified by fingerprint, per the "allocate" operation.
func (e *Engine) Allocate(req AllocateRequest) (allocator.Plan, error) {
	if req.Capital <= 0 {
		return allocator.Plan{}, engineerr.New(engineerr.KindInvalidInput, "capital must be positive")
	}

	cached := e.cache.all()
	ids := req.OpportunityIDs
	if len(ids) == 0 {
		for id := range cached {
			ids = append(ids, id)
		}
	}

	candidates := make([]allocator.Candidate, 0, len(ids))
	for _, id := range ids {
		entry, ok := cached[id]
		if !ok {
			continue
		}
		candidates = append(candidates, allocator.Candidate{
			ID:              entry.result.Fingerprint,
			Sharpe:          sharpeOrZero(entry.result.Simulation),
			MeanReturn:      entry.result.Cycle.RawProfit - 1,
			Confidence:      entry.result.Risk.Confidence,
			Risk:            entry.result.Risk.Composite,
			MinHopLiquidity: entry.result.MinHopLiquidity,
		})
	}
	if len(candidates) == 0 {
		return allocator.Plan{}, engineerr.New(engineerr.KindNoCyclesFound, "no matching cached opportunities")
	}

	cons := allocator.Constraints{Capital: req.Capital, MaxPosition: req.MaxPosition, MinConfidence: req.MinConfidence}
	if cons.MaxPosition <= 0 {
		cons.MaxPosition = e.cfg.Allocator.MaxPosition
	}

	plan := allocator.Allocate(candidates, req.Criterion, req.Mode, cons)
	if err := allocator.Validate(plan, candidates, cons); err != nil {
		return allocator.Plan{}, engineerr.Wrap(engineerr.KindInternal, "allocator produced an invalid plan", err)
	}
	return plan, nil
}

// StressTest returns the seven-scenario stress report for a previously
// scanned opportunity, identified by fingerprint, per the "stress_test"
// operation. The report is recomputed on demand, independent of whether
// the originating scan requested RunStress.
func (e *Engine) StressTest(opportunityID string) (stress.Report, error) {
	entry, ok := e.cache.get(opportunityID)
	if !ok {
		return stress.Report{}, engineerr.New(engineerr.KindInvalidInput, "unknown opportunity id")
	}
	impactCfg := microstructure.Config{K: e.cfg.Microstructure.K, Alpha: e.cfg.Microstructure.Alpha}
	return stress.Run(entry.hops, impactCfg), nil
}

// MarketImpactRequest is the "market_impact" operation's input.
type MarketImpactRequest struct {
	Volume     float64
	Liquidity  float64
	BasePrice  float64
	K          float64
	Alpha      float64
	Volatility float64
}

// VolumeImpactPoint is one point on the market-impact comparison curve.
type VolumeImpactPoint struct {
	VolumeMultiplier float64
	ImpactPct        float64
}

// MarketImpactResponse is the "market_impact" operation's output.
type MarketImpactResponse struct {
	ImpactPct      float64
	ImpactBps      float64
	ImpactedPrice  float64
	PriceIncrease  float64
	UtilizationPct float64
	ComparisonData []VolumeImpactPoint
}

var comparisonMultipliers = []float64{0.25, 0.5, 1, 1.5, 2, 3, 5, 10}

// MarketImpact computes price impact for a single hypothetical trade and
// a comparison curve across volume multipliers, per the "market_impact"
// operation. It does not depend on Engine state.
func MarketImpact(req MarketImpactRequest) MarketImpactResponse {
	cfg := microstructure.Config{K: req.K, Alpha: req.Alpha}
	if cfg.K <= 0 || cfg.Alpha <= 0 {
		cfg = microstructure.DefaultConfig()
	}

	impact := microstructure.Impact(req.Volume, req.Liquidity, cfg)
	impactedPrice := req.BasePrice * (1 + impact)

	curve := make([]VolumeImpactPoint, len(comparisonMultipliers))
	for i, m := range comparisonMultipliers {
		curve[i] = VolumeImpactPoint{
			VolumeMultiplier: m,
			ImpactPct:        microstructure.Impact(req.Volume*m, req.Liquidity, cfg) * 100,
		}
	}

	return MarketImpactResponse{
		ImpactPct:      impact * 100,
		ImpactBps:      microstructure.ImpactBps(impact),
		ImpactedPrice:  impactedPrice,
		PriceIncrease:  impactedPrice - req.BasePrice,
		UtilizationPct: microstructure.Utilization(req.Volume, req.Liquidity) * 100,
		ComparisonData: curve,
	}
}

// LatencySensitivityRequest is the "latency_sensitivity" operation's
// input. It describes a cycle in aggregate (rather than hop-by-hop) terms:
// a target base return spread evenly across path_length identical hops.
type LatencySensitivityRequest struct {
	BaseReturn     float64
	PathLength     int
	Liquidity      float64
	Volatility     float64
	FeePerHop      float64
	InitialCapital float64
}

var keyLatencyCheckpoints = []float64{0, 50, 100, 200}

// LatencySensitivityResponse is the "latency_sensitivity" operation's
// output.
type LatencySensitivityResponse struct {
	HalfLife          simulation.HalfLifeResult
	DecayCurve        []simulation.DecayPoint
	KeyMetrics        []simulation.DecayPoint
	ReliabilityBucket string
}

// LatencySensitivity computes a cycle's latency half-life and decay curve
// from aggregate inputs, per the "latency_sensitivity" operation. It does
// not depend on Engine state.
func LatencySensitivity(req LatencySensitivityRequest, decayRefMs float64) LatencySensitivityResponse {
	hops := buildSyntheticHops(req)
	impactCfg := microstructure.DefaultConfig()
	if decayRefMs <= 0 {
		decayRefMs = simulation.DefaultParams().DecayRefMs
	}

	halfLife := simulation.HalfLife(hops, impactCfg, decayRefMs)
	checkpoints := append([]float64{}, keyLatencyCheckpoints...)
	curve := simulation.DecayCurve(hops, impactCfg, decayRefMs, checkpoints)

	return LatencySensitivityResponse{
		HalfLife:          halfLife,
		DecayCurve:        curve,
		KeyMetrics:        curve,
		ReliabilityBucket: simulation.ReliabilityBucket(halfLife),
	}
}

// buildSyntheticHops distributes req.BaseReturn evenly across
// req.PathLength identical hops: each hop's effective rate is the
// path_length-th root of (1+base_return), grossed back up by fee_per_hop
// to recover a quoted Rate.
func buildSyntheticHops(req LatencySensitivityRequest) []simulation.HopInput {
	n := req.PathLength
	if n < 1 {
		n = 1
	}
	fee := req.FeePerHop
	if fee < 0 || fee >= 1 {
		fee = 0
	}

	perHopReturn := math.Pow(1+req.BaseReturn, 1/float64(n))
	rate := perHopReturn
	if fee < 1 {
		rate = perHopReturn / (1 - fee)
	}

	volume := req.InitialCapital / float64(n)

	hops := make([]simulation.HopInput, n)
	for i := range hops {
		hops[i] = simulation.HopInput{
			Rate:      rate,
			Fee:       fee,
			Liquidity: req.Liquidity,
			Volume:    volume,
			Sigma:     req.Volatility,
		}
	}
	return hops
}
