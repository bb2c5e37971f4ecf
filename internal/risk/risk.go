// Package risk computes the five-factor composite execution-risk score
// for a detected cycle.
package risk

import "math"

const maxPathLength = 6
const executionReferenceMs = 500

// Inputs bundles everything the risk engine needs to score one cycle.
type Inputs struct {
	Capital         float64
	MinHopLiquidity float64
	PathLength      int
	MeanHopSigma    float64
	HalfLifeMs      float64 // math.Inf(1) for an unbounded half-life
	Spread          float64
	MidPrice        float64
	Conservative    bool
}

// Profile is the five scored components plus their composite.
type Profile struct {
	Liquidity  float64
	Complexity float64
	Volatility float64
	Execution  float64
	Spread     float64
	Composite  float64
	Level      string
	Confidence float64
	Warnings   []string
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Score computes the RiskProfile for the given inputs.
func Score(in Inputs) Profile {
	liquidity := scoreLiquidity(in.Capital, in.MinHopLiquidity)
	complexity := scoreComplexity(in.PathLength)
	volatility := scoreVolatility(in.MeanHopSigma)
	execution := scoreExecution(in.HalfLifeMs)
	spread := scoreSpread(in.Spread, in.MidPrice)

	composite := 0.3*liquidity + 0.2*complexity + 0.2*volatility + 0.2*execution + 0.1*spread
	if in.Conservative {
		composite = math.Min(100, composite*1.3)
	}

	p := Profile{
		Liquidity:  liquidity,
		Complexity: complexity,
		Volatility: volatility,
		Execution:  execution,
		Spread:     spread,
		Composite:  composite,
		Level:      level(composite),
		Confidence: 100 - composite,
	}
	p.Warnings = warnings(p)
	return p
}

func scoreLiquidity(capital, minHopLiquidity float64) float64 {
	if minHopLiquidity <= 0 {
		return 100
	}
	return clamp(100*capital/minHopLiquidity, 0, 100)
}

func scoreComplexity(pathLength int) float64 {
	return clamp(100*float64(pathLength)/maxPathLength, 0, 100)
}

func scoreVolatility(meanHopSigma float64) float64 {
	return clamp(1000*meanHopSigma, 0, 100)
}

func scoreExecution(halfLifeMs float64) float64 {
	h := halfLifeMs
	if math.IsInf(h, 1) || h > executionReferenceMs {
		h = executionReferenceMs
	}
	return clamp(100*(1-h/executionReferenceMs), 0, 100)
}

func scoreSpread(spread, midPrice float64) float64 {
	if midPrice <= 0 {
		return 100
	}
	return clamp(100*spread/midPrice, 0, 100)
}

// level buckets a composite score per the engine's risk levels.
func level(composite float64) string {
	switch {
	case composite < 20:
		return "VeryLow"
	case composite < 40:
		return "Low"
	case composite < 60:
		return "Moderate"
	case composite < 80:
		return "High"
	default:
		return "VeryHigh"
	}
}

func warnings(p Profile) []string {
	var w []string
	if p.Liquidity > 70 {
		w = append(w, "thin liquidity relative to requested capital")
	}
	if p.Complexity > 70 {
		w = append(w, "path length approaching the complexity ceiling")
	}
	if p.Volatility > 70 {
		w = append(w, "elevated hop volatility")
	}
	if p.Execution > 70 {
		w = append(w, "short execution window before the opportunity decays")
	}
	if p.Spread > 70 {
		w = append(w, "wide spread relative to mid price")
	}
	return w
}
