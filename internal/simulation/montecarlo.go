// Package simulation runs Monte Carlo execution simulations over a
// detected cycle's hops and derives latency-sensitivity metrics.
package simulation

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/nrv/arbitrage-engine/internal/microstructure"
)

// HopInput is the per-hop market data a cycle exposes to the simulator.
type HopInput struct {
	Rate      float64
	Fee       float64
	Liquidity float64
	Volume    float64
	Sigma     float64 // per-hop volatility used for the noise draw
}

// Params configures one Monte Carlo run. Zero-value fields are replaced
// by DefaultParams()'s defaults by NormalizeParams.
type Params struct {
	Samples      int
	LatencyMaxMs float64
	Delta        float64 // liquidity variance half-width
	HalfLifeMs   float64 // decay reference for the noise-affected path
	DecayRefMs   float64 // decay reference used by the half-life search
}

// DefaultParams returns the engine's default Monte Carlo configuration.
func DefaultParams() Params {
	return Params{
		Samples:      500,
		LatencyMaxMs: 200,
		Delta:        0.2,
		HalfLifeMs:   100,
		DecayRefMs:   100,
	}
}

const maxSamples = 10000

// NormalizeParams fills in zero fields with defaults and clamps Samples
// to [1, maxSamples].
func NormalizeParams(p Params) Params {
	d := DefaultParams()
	if p.Samples <= 0 {
		p.Samples = d.Samples
	}
	if p.Samples > maxSamples {
		p.Samples = maxSamples
	}
	if p.LatencyMaxMs <= 0 {
		p.LatencyMaxMs = d.LatencyMaxMs
	}
	if p.Delta <= 0 {
		p.Delta = d.Delta
	}
	if p.HalfLifeMs <= 0 {
		p.HalfLifeMs = d.HalfLifeMs
	}
	if p.DecayRefMs <= 0 {
		p.DecayRefMs = d.DecayRefMs
	}
	return p
}

// Result is the statistical summary of one Monte Carlo run, matching the
// reported SimulationResult fields.
type Result struct {
	Samples            []float64
	Mean               float64
	Std                float64
	Median             float64
	P5                 float64
	P95                float64
	ProbLoss           float64
	Sharpe             float64
	SharpeDefined      bool
	FractionProfitable float64
	RejectedCount      int
	Confidence         float64 // 0 when > 10% of samples were rejected
}

// everyN is the poll interval (in samples) at which workers check the
// cancellation context, per the engine's concurrency contract.
const everyN = 64

// Simulate draws params.Samples i.i.d. sample paths over hops and
// returns their statistical summary. Sample i's randomness depends only
// on (seed, i), so the result is bit-identical regardless of how many
// workers draw it. ctx cancellation is observed every 64 samples; a
// cancelled run returns an empty Result along with the context's error.
func Simulate(ctx context.Context, hops []HopInput, seed int64, params Params, impactCfg microstructure.Config) (Result, error) {
	params = NormalizeParams(params)
	n := params.Samples

	raw := make([]float64, n)
	valid := make([]bool, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if i%everyN == 0 {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
			}
			ret, ok := drawSample(hops, seed, i, params, impactCfg)
			raw[i] = ret
			valid[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	samples := make([]float64, 0, n)
	rejected := 0
	for i := 0; i < n; i++ {
		if valid[i] {
			samples = append(samples, raw[i])
		} else {
			rejected++
		}
	}

	res := summarize(samples)
	res.RejectedCount = rejected
	if n > 0 && float64(rejected)/float64(n) > 0.10 {
		res.Confidence = 0
	} else {
		res.Confidence = 100
	}
	return res, nil
}

// drawSample computes one realized cycle return for sample index i.
func drawSample(hops []HopInput, seed int64, i int, params Params, impactCfg microstructure.Config) (float64, bool) {
	rng := rngForSample(seed, i)

	latency := rng.Float64() * params.LatencyMaxMs
	lambda := (1 - params.Delta) + rng.Float64()*2*params.Delta

	product := 1.0
	for _, h := range hops {
		eps := rng.NormFloat64() * h.Sigma
		impact := microstructure.Impact(h.Volume, h.Liquidity*lambda, impactCfg)
		effRate := microstructure.EffectiveRateWithNoise(h.Rate, h.Fee, impact, eps)
		product *= effRate
	}

	decay := math.Max(0, 1-latency/params.HalfLifeMs)
	ret := product*decay - 1

	if math.IsNaN(ret) || math.IsInf(ret, 0) {
		return 0, false
	}
	return ret, true
}

func summarize(samples []float64) Result {
	n := len(samples)
	res := Result{Samples: samples}
	if n == 0 {
		return res
	}

	var sum float64
	for _, s := range samples {
		sum += s
	}
	mean := sum / float64(n)

	var sqSum float64
	var lossCount, profitCount int
	for _, s := range samples {
		d := s - mean
		sqSum += d * d
		if s < 0 {
			lossCount++
		}
		if s > 0 {
			profitCount++
		}
	}
	var std float64
	if n > 1 {
		std = math.Sqrt(sqSum / float64(n-1))
	}

	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	res.Mean = mean
	res.Std = std
	res.Median = percentile(sorted, 0.5)
	res.P5 = percentile(sorted, 0.05)
	res.P95 = percentile(sorted, 0.95)
	res.ProbLoss = float64(lossCount) / float64(n)
	res.FractionProfitable = float64(profitCount) / float64(n)
	if std > 0 {
		res.Sharpe = mean / std
		res.SharpeDefined = true
	}
	return res
}

// percentile returns the p-th quantile (p in [0,1]) of an already-sorted
// slice using linear interpolation between the two nearest ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
