package engine

import (
	"context"
	"math"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/nrv/arbitrage-engine/internal/allocator"
	"github.com/nrv/arbitrage-engine/internal/config"
	"github.com/nrv/arbitrage-engine/internal/detector"
	"github.com/nrv/arbitrage-engine/internal/engineerr"
	"github.com/nrv/arbitrage-engine/internal/graph"
	"github.com/nrv/arbitrage-engine/internal/metrics"
	"github.com/nrv/arbitrage-engine/internal/microstructure"
	"github.com/nrv/arbitrage-engine/internal/persistence"
	"github.com/nrv/arbitrage-engine/internal/regime"
	"github.com/nrv/arbitrage-engine/internal/risk"
	"github.com/nrv/arbitrage-engine/internal/simulation"
	"github.com/nrv/arbitrage-engine/internal/stress"
)

// defaultHopSigma is used as every hop's volatility when the caller's
// market data doesn't carry one; the external scan interface transports
// rate/fee/liquidity/venue only.
const defaultHopSigma = 0.0015

// Engine owns the process-wide state shared across scans: the
// persistence tracker and metrics registry. The graph and all per-scan
// state are scan-local.
type Engine struct {
	cfg     config.Config
	metrics *metrics.Metrics
	tracker *persistence.Tracker
	regime  *regime.Tracker
	cache   *cache

	totalScans       int
	totalCyclesFound int
	totalDetectMs    float64
}

// New constructs an Engine sharing m and a fresh persistence tracker
// across scans.
func New(cfg config.Config, m *metrics.Metrics) *Engine {
	return &Engine{
		cfg:     cfg,
		metrics: m,
		tracker: persistence.NewTracker(),
		regime:  regime.NewTracker(cfg.Regime.Window),
		cache:   newCache(),
	}
}

// pairKey identifies a directed token pair for regime tracking.
func pairKey(from, to string) string {
	return from + "->" + to
}

// Scan runs one full scan: prune, detect, per-cycle fan-out
// (microstructure+simulation+risk+stress), then allocate. Cycles are
// reported in deterministic order (source index, then detection order
// within a source).
func (e *Engine) Scan(ctx context.Context, req ScanRequest) (*ScanResponse, error) {
	start := time.Now()
	scanID := uuid.New().String()
	log.Debug().Str("scan_id", scanID).Int("edges", len(req.Edges)).Float64("capital", req.Capital).Msg("scan starting")

	if err := validateRequest(req); err != nil {
		if e.metrics != nil {
			e.metrics.RecordFailure(engineerr.KindInvalidInput.String())
		}
		return nil, err
	}

	g, err := buildGraph(req.Edges)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordFailure(engineerr.KindInvalidInput.String())
		}
		return nil, err
	}

	for _, edge := range req.Edges {
		e.regime.Observe(pairKey(edge.FromToken, edge.ToToken), regime.Observation{Price: edge.Rate, Volume: edge.Liquidity})
	}

	pruned, removed := graph.Prune(g, e.prunerConfig())
	if !pruned.ValidateAndLog() {
		if e.metrics != nil {
			e.metrics.RecordFailure(engineerr.KindInternal.String())
		}
		return nil, engineerr.New(engineerr.KindInternal, "pruned graph failed consistency validation")
	}
	snap := pruned.CreateSnapshot()

	detectStart := time.Now()
	cycles, _ := detector.Detect(snap, req.MaxCycles)
	detectMs := float64(time.Since(detectStart)) / float64(time.Millisecond)

	if e.metrics != nil {
		e.metrics.RecordGraphStats(snap.NumNodes(), snap.NumEdges(), removed)
		e.metrics.RecordDetectionLatency(time.Since(detectStart))
	}
	e.totalDetectMs += detectMs

	if len(cycles) == 0 {
		log.Debug().Float64("detection_ms", detectMs).Msg("scan found no cycles")
		return e.finish(scanID, req, nil, allocator.Plan{}, start)
	}
	log.Info().Int("cycles", len(cycles)).Float64("detection_ms", detectMs).Msg("scan detected cycles")

	impactCfg := microstructure.Config{K: e.cfg.Microstructure.K, Alpha: e.cfg.Microstructure.Alpha}
	results, err := e.analyzeCycles(ctx, snap, cycles, req, impactCfg)
	if err != nil {
		if err == context.Canceled || err == context.DeadlineExceeded {
			if e.metrics != nil {
				e.metrics.RecordCancelled()
			}
			return nil, engineerr.Wrap(engineerr.KindCancelled, "scan cancelled during per-cycle analysis", err)
		}
		if e.metrics != nil {
			e.metrics.RecordFailure(engineerr.KindInternal.String())
		}
		return nil, engineerr.Wrap(engineerr.KindInternal, "per-cycle analysis failed", err)
	}

	now := time.Now()
	entries := make(map[string]cachedOpportunity, len(results))
	for i, r := range results {
		e.tracker.RecordObservation(r.Fingerprint, r.Cycle.RawProfit-1, now)
		hops, _ := hopsForCycle(snap, cycles[i])
		entries[r.Fingerprint] = cachedOpportunity{result: r, hops: hops}
	}
	e.cache.replace(entries)

	plan, err := e.allocate(results, req)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordFailure(engineerr.KindInternal.String())
		}
		return nil, err
	}

	return e.finish(scanID, req, results, plan, start)
}

func (e *Engine) finish(scanID string, req ScanRequest, results []OpportunityResult, plan allocator.Plan, start time.Time) (*ScanResponse, error) {
	e.totalScans++
	e.totalCyclesFound += len(results)

	ttl := time.Duration(e.cfg.Persistence.TTLMinutes) * time.Minute
	e.tracker.Prune(time.Now(), ttl)

	profitable := 0
	for _, r := range results {
		if r.Cycle.RawProfit > 1 {
			profitable++
		}
	}

	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.RecordScan(elapsed, len(results), profitable)
		e.metrics.SetTrackedFingerprints(e.tracker.Count())
	}

	avgDetectMs := 0.0
	if e.totalScans > 0 {
		avgDetectMs = e.totalDetectMs / float64(e.totalScans)
	}

	sharpe := portfolioSharpe(results, plan)
	if e.metrics != nil {
		e.metrics.SetPortfolioSharpe(sharpe)
	}

	return &ScanResponse{
		ScanID:        scanID,
		Opportunities: results,
		Allocation:    plan,
		Metrics: ScanMetricsSummary{
			TotalScans:          e.totalScans,
			TotalCyclesFound:    e.totalCyclesFound,
			AvgDetectionTimeMs:  avgDetectMs,
			TrackedFingerprints: e.tracker.Count(),
			PortfolioSharpe:     sharpe,
		},
		ElapsedMs: float64(elapsed) / float64(time.Millisecond),
	}, nil
}

// analyzeCycles runs microstructure/simulation/risk/stress for every
// cycle concurrently, writing results into a slice pre-sized by cycle
// index so the output order never depends on completion order.
func (e *Engine) analyzeCycles(ctx context.Context, snap *graph.Snapshot, cycles []detector.Cycle, req ScanRequest, impactCfg microstructure.Config) ([]OpportunityResult, error) {
	results := make([]OpportunityResult, len(cycles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, cycle := range cycles {
		i, cycle := i, cycle
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			hops, minLiquidity := hopsForCycle(snap, cycle)

			var simResult simulation.Result
			if req.RunMonteCarlo {
				params := simulation.Params{
					Samples:      req.McSamples,
					LatencyMaxMs: e.cfg.Simulation.LatencyMaxMs,
					Delta:        e.cfg.Simulation.Delta,
					HalfLifeMs:   e.cfg.Simulation.HalfLifeMs,
					DecayRefMs:   e.cfg.Simulation.DecayRefMs,
				}
				var err error
				simResult, err = simulation.Simulate(gctx, hops, req.Seed, params, impactCfg)
				if err != nil {
					return err
				}
				if e.metrics != nil {
					e.metrics.RecordSamplesRejected(simResult.RejectedCount)
				}
			}

			halfLife := simulation.HalfLife(hops, impactCfg, e.cfg.Simulation.DecayRefMs)

			riskProfile := risk.Score(risk.Inputs{
				Capital:         req.Capital,
				MinHopLiquidity: minLiquidity,
				PathLength:      cycle.PathLength,
				MeanHopSigma:    defaultHopSigma,
				HalfLifeMs:      halfLife.HalfLifeMs,
				Spread:          0,
				MidPrice:        1,
				Conservative:    req.Conservative || e.cfg.Risk.Conservative,
			})

			var stressReport stress.Report
			if req.RunStress {
				stressReport = stress.Run(hops, impactCfg)
			}

			regimeSnap, regimeKnown := e.regime.Snapshot(pairKey(cycle.TokenPath[0], cycle.TokenPath[1]))

			results[i] = OpportunityResult{
				Fingerprint:     cycle.Fingerprint(),
				Cycle:           cycle,
				MinHopLiquidity: minLiquidity,
				Simulation:      simResult,
				Risk:            riskProfile,
				Stress:          stressReport,
				Regime:          regimeSnap,
				RegimeKnown:     regimeKnown,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// allocate runs the capital allocator and validates the resulting plan
// against the same constraints before returning it: a plan that fails
// validation is an allocator bug, not a normal outcome, and must fail
// the scan rather than flow through to the caller.
func (e *Engine) allocate(results []OpportunityResult, req ScanRequest) (allocator.Plan, error) {
	candidates := make([]allocator.Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, allocator.Candidate{
			ID:              r.Fingerprint,
			Sharpe:          sharpeOrZero(r.Simulation),
			MeanReturn:      r.Cycle.RawProfit - 1,
			Confidence:      r.Risk.Confidence,
			Risk:            r.Risk.Composite,
			MinHopLiquidity: r.MinHopLiquidity,
		})
	}

	cons := allocator.Constraints{
		Capital:       req.Capital,
		MaxPosition:   e.cfg.Allocator.MaxPosition,
		MinConfidence: e.cfg.Allocator.MinConfidence,
	}
	plan := allocator.Allocate(candidates, req.AllocatorCriterion, req.AllocatorMode, cons)
	if err := allocator.Validate(plan, candidates, cons); err != nil {
		return allocator.Plan{}, engineerr.Wrap(engineerr.KindInternal, "allocator produced an invalid plan", err)
	}
	return plan, nil
}

func sharpeOrZero(r simulation.Result) float64 {
	if r.SharpeDefined {
		return r.Sharpe
	}
	return 0
}

func portfolioSharpe(results []OpportunityResult, plan allocator.Plan) float64 {
	if len(plan.Allocations) == 0 {
		return 0
	}
	byID := make(map[string]OpportunityResult, len(results))
	for _, r := range results {
		byID[r.Fingerprint] = r
	}
	var weighted, totalWeight float64
	for _, a := range plan.Allocations {
		r, ok := byID[a.ID]
		if !ok || !r.Simulation.SharpeDefined {
			continue
		}
		weighted += a.Fraction * r.Simulation.Sharpe
		totalWeight += a.Fraction
	}
	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
}

func (e *Engine) prunerConfig() graph.PrunerConfig {
	p := e.cfg.Pruner
	return graph.PrunerConfig{
		MinLiquidity:       p.MinLiquidity,
		EnableMinLiquidity: p.EnableMinLiquidity,
		MaxFee:             p.MaxFee,
		EnableMaxFee:       p.EnableMaxFee,
		MinRate:            p.MinRate,
		EnableMinRate:      p.EnableMinRate,
		MaxRate:            p.MaxRate,
		EnableMaxRate:      p.EnableMaxRate,
	}
}

func buildGraph(edges []EdgeInput) (*graph.Graph, error) {
	g := graph.NewGraph()
	for i, e := range edges {
		if e.Rate <= 0 || math.IsNaN(e.Rate) || math.IsInf(e.Rate, 0) {
			return nil, engineerr.New(engineerr.KindInvalidInput, invalidEdgeMsg(i, "rate must be positive"))
		}
		if e.Fee < 0 || e.Fee >= 1 {
			return nil, engineerr.New(engineerr.KindInvalidInput, invalidEdgeMsg(i, "fee must be in [0, 1)"))
		}
		if e.FromToken == "" || e.ToToken == "" {
			return nil, engineerr.New(engineerr.KindInvalidInput, invalidEdgeMsg(i, "token symbols must be non-empty"))
		}
		g.AddEdge(e.FromToken, e.ToToken, e.Rate, e.Fee, e.Liquidity, e.Venue)
	}
	return g, nil
}

func invalidEdgeMsg(i int, reason string) string {
	return "edge " + strconv.Itoa(i) + ": " + reason
}

func validateRequest(req ScanRequest) error {
	if req.Capital <= 0 {
		return engineerr.New(engineerr.KindInvalidInput, "capital must be positive")
	}
	if req.McSamples < 0 || req.McSamples > 10000 {
		return engineerr.New(engineerr.KindInvalidInput, "mc_samples out of range [0, 10000] (0 uses the default)")
	}
	switch req.AllocatorMode {
	case allocator.ModeGreedy, allocator.ModeLP, allocator.ModeRiskParity:
	default:
		return engineerr.New(engineerr.KindInvalidInput, "unknown allocator mode")
	}
	return nil
}

// hopsForCycle converts a cycle's traversed edges into simulation.HopInput,
// deriving a notional per-hop trade volume from each hop's liquidity (see
// notionalVolume), and returns the cycle's minimum hop liquidity.
func hopsForCycle(snap *graph.Snapshot, cycle detector.Cycle) ([]simulation.HopInput, float64) {
	hops := make([]simulation.HopInput, len(cycle.EdgeIndices))
	minLiquidity := math.Inf(1)
	for i, ei := range cycle.EdgeIndices {
		e, _ := snap.Edge(ei)
		if e.Liquidity < minLiquidity {
			minLiquidity = e.Liquidity
		}
		hops[i] = simulation.HopInput{
			Rate:      e.Rate,
			Fee:       e.Fee,
			Liquidity: e.Liquidity,
			Volume:    notionalVolume(e.Liquidity),
			Sigma:     defaultHopSigma,
		}
	}
	if math.IsInf(minLiquidity, 1) {
		minLiquidity = 0
	}
	return hops, minLiquidity
}

// notionalVolume assumes a conservative per-hop trade size of 1% of the
// hop's own liquidity, absent a caller-supplied trade size.
func notionalVolume(liquidity float64) float64 {
	return 0.01 * liquidity
}

