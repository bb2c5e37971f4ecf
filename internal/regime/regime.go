// Package regime classifies a trading pair's recent volatility,
// liquidity, and trend from a rolling window of price/volume
// observations.
package regime

import (
	"math"
	"sort"
	"sync"
)

const defaultWindow = 100

// Observation is one price/volume sample for a pair.
type Observation struct {
	Price  float64
	Volume float64
}

// Snapshot is the classification derived from a pair's rolling window.
type Snapshot struct {
	VolatilityClass string // VeryLow..VeryHigh
	LiquidityClass  string // Drought..Abundant
	TrendClass      string // StrongDown..StrongUp
}

// Tracker maintains one rolling window per pair. Append-only, safe for a
// single writer concurrent with multiple readers.
type Tracker struct {
	mu     sync.RWMutex
	window int
	series map[string][]Observation
}

// NewTracker returns a Tracker with the given rolling window size (0
// means the default of 100).
func NewTracker(window int) *Tracker {
	if window <= 0 {
		window = defaultWindow
	}
	return &Tracker{window: window, series: make(map[string][]Observation)}
}

// Observe appends an observation for pair, dropping the oldest entry
// once the window is full.
func (t *Tracker) Observe(pair string, obs Observation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.series[pair]
	s = append(s, obs)
	if len(s) > t.window {
		s = s[len(s)-t.window:]
	}
	t.series[pair] = s
}

// Snapshot classifies the current window for pair, ranking its
// volatility and liquidity by quintile against every other pair
// currently tracked. ok is false if fewer than two observations are
// recorded for pair.
func (t *Tracker) Snapshot(pair string) (Snapshot, bool) {
	t.mu.RLock()
	allSeries := make(map[string][]Observation, len(t.series))
	for p, s := range t.series {
		allSeries[p] = append([]Observation(nil), s...)
	}
	t.mu.RUnlock()

	series, ok := allSeries[pair]
	if !ok || len(series) < 2 {
		return Snapshot{}, false
	}

	volBy := make(map[string]float64, len(allSeries))
	liqBy := make(map[string]float64, len(allSeries))
	for p, s := range allSeries {
		if len(s) < 2 {
			continue
		}
		volBy[p] = stdev(logReturnsOf(s))
		liqBy[p] = mean(volumesOf(s))
	}

	return Snapshot{
		VolatilityClass: classifyByQuintile(pair, volBy, volatilityThresholds),
		LiquidityClass:  classifyByQuintile(pair, liqBy, liquidityThresholds),
		TrendClass:      classifyTrend(series),
	}, true
}

func logReturnsOf(series []Observation) []float64 {
	out := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		if series[i-1].Price <= 0 || series[i].Price <= 0 {
			continue
		}
		out = append(out, math.Log(series[i].Price/series[i-1].Price))
	}
	return out
}

func volumesOf(series []Observation) []float64 {
	out := make([]float64, len(series))
	for i, o := range series {
		out[i] = o.Volume
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		d := x - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)-1))
}

// volatilityThresholds and liquidityThresholds name the five buckets
// from lowest to highest rank, low-to-high for volatility and
// drought-to-abundant for liquidity.
var volatilityThresholds = []string{"VeryLow", "Low", "Moderate", "High", "VeryHigh"}
var liquidityThresholds = []string{"Drought", "Scarce", "Balanced", "Ample", "Abundant"}

// classifyByQuintile ranks values[pair] against the full population in
// values and buckets its quintile rank into labels. With fewer than 5
// pairs tracked, the population is simply padded by the ranking itself
// (fewer distinguishable buckets populated, never an error).
func classifyByQuintile(pair string, values map[string]float64, labels []string) string {
	target, ok := values[pair]
	if !ok {
		return labels[0]
	}

	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		sorted = append(sorted, v)
	}
	sort.Float64s(sorted)

	rank := sort.SearchFloat64s(sorted, target)
	quintile := rank * len(labels) / len(sorted)
	if quintile >= len(labels) {
		quintile = len(labels) - 1
	}
	return labels[quintile]
}

func classifyTrend(series []Observation) string {
	shortN, longN := 10, 30
	if len(series) < shortN {
		return "Flat"
	}
	if len(series) < longN {
		longN = len(series)
	}

	smaShort := smaOf(series, shortN)
	smaLong := smaOf(series, longN)
	diff := smaShort - smaLong

	prices := make([]float64, len(series))
	for i, o := range series {
		prices[i] = o.Price
	}
	sd := stdev(prices)
	if sd == 0 {
		return "Flat"
	}

	z := diff / sd
	switch {
	case z >= 1.5:
		return "StrongUp"
	case z >= 0.5:
		return "Up"
	case z <= -1.5:
		return "StrongDown"
	case z <= -0.5:
		return "Down"
	default:
		return "Flat"
	}
}

func smaOf(series []Observation, n int) float64 {
	if n > len(series) {
		n = len(series)
	}
	tail := series[len(series)-n:]
	var sum float64
	for _, o := range tail {
		sum += o.Price
	}
	return sum / float64(n)
}
