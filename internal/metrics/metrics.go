// Package metrics exposes process-wide Prometheus counters for the
// scan pipeline.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics holds the engine's Prometheus metrics.
type Metrics struct {
	// Scan-level counters.
	TotalScans        prometheus.Counter
	TotalCyclesFound  prometheus.Counter
	ProfitableCycles  prometheus.Counter
	ScansCancelled    prometheus.Counter
	ScansFailed       *prometheus.CounterVec // labeled by engineerr.Kind

	// Graph/detection gauges and histograms.
	GraphNodes        prometheus.Gauge
	GraphEdges        prometheus.Gauge
	EdgesPruned       prometheus.Gauge
	DetectionLatency  prometheus.Histogram
	ScanLatency       prometheus.Histogram
	SamplesRejected   prometheus.Counter

	// Persistence/regime summary gauges.
	TrackedFingerprints prometheus.Gauge
	PortfolioSharpe     prometheus.Gauge

	server *http.Server
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		TotalScans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arb_scans_total",
			Help: "Total number of scan operations completed",
		}),
		TotalCyclesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arb_cycles_found_total",
			Help: "Total number of negative cycles found across all scans",
		}),
		ProfitableCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arb_profitable_cycles_total",
			Help: "Total number of detected cycles whose raw profit factor exceeds 1",
		}),
		ScansCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arb_scans_cancelled_total",
			Help: "Total number of scans that ended via cancellation or timeout",
		}),
		ScansFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arb_scans_failed_total",
			Help: "Total number of scans that returned an error, labeled by kind",
		}, []string{"kind"}),
		GraphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arb_graph_nodes",
			Help: "Number of tokens in the most recently scanned graph",
		}),
		GraphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arb_graph_edges",
			Help: "Number of edges in the most recently scanned graph",
		}),
		EdgesPruned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arb_edges_pruned",
			Help: "Number of edges removed by the pruner in the most recent scan",
		}),
		DetectionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arb_detection_latency_seconds",
			Help:    "Time to run cycle detection on a snapshot",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		ScanLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arb_scan_latency_seconds",
			Help:    "Full scan latency: prune, detect, per-cycle fan-out, allocate",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		SamplesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arb_mc_samples_rejected_total",
			Help: "Total Monte Carlo samples rejected for non-finite returns",
		}),
		TrackedFingerprints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arb_tracked_fingerprints",
			Help: "Number of cycle fingerprints currently tracked by the persistence store",
		}),
		PortfolioSharpe: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arb_portfolio_sharpe",
			Help: "Sharpe ratio of the most recent allocation plan",
		}),
	}

	prometheus.MustRegister(
		m.TotalScans,
		m.TotalCyclesFound,
		m.ProfitableCycles,
		m.ScansCancelled,
		m.ScansFailed,
		m.GraphNodes,
		m.GraphEdges,
		m.EdgesPruned,
		m.DetectionLatency,
		m.ScanLatency,
		m.SamplesRejected,
		m.TrackedFingerprints,
		m.PortfolioSharpe,
	)

	return m
}

// StartServer starts the HTTP server exposing the Prometheus handler.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	m.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		log.Info().Int("port", port).Str("path", path).Msg("starting metrics server")
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()

	return nil
}

// Shutdown gracefully stops the metrics server.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.server != nil {
		return m.server.Shutdown(ctx)
	}
	return nil
}

// RecordScan records the outcome of one completed scan.
func (m *Metrics) RecordScan(d time.Duration, cyclesFound, profitable int) {
	m.TotalScans.Inc()
	m.ScanLatency.Observe(d.Seconds())
	m.TotalCyclesFound.Add(float64(cyclesFound))
	m.ProfitableCycles.Add(float64(profitable))
}

// RecordCancelled records a scan that ended via cancellation/timeout.
func (m *Metrics) RecordCancelled() { m.ScansCancelled.Inc() }

// RecordFailure records a scan that returned an error of the given kind.
func (m *Metrics) RecordFailure(kind string) { m.ScansFailed.WithLabelValues(kind).Inc() }

// RecordGraphStats updates the graph size gauges.
func (m *Metrics) RecordGraphStats(nodes, edges, pruned int) {
	m.GraphNodes.Set(float64(nodes))
	m.GraphEdges.Set(float64(edges))
	m.EdgesPruned.Set(float64(pruned))
}

// RecordDetectionLatency records the time spent in cycle detection.
func (m *Metrics) RecordDetectionLatency(d time.Duration) {
	m.DetectionLatency.Observe(d.Seconds())
}

// RecordSamplesRejected adds n rejected Monte Carlo samples to the total.
func (m *Metrics) RecordSamplesRejected(n int) {
	m.SamplesRejected.Add(float64(n))
}

// SetTrackedFingerprints sets the persistence store's fingerprint count.
func (m *Metrics) SetTrackedFingerprints(n int) { m.TrackedFingerprints.Set(float64(n)) }

// SetPortfolioSharpe sets the most recent allocation plan's Sharpe ratio.
func (m *Metrics) SetPortfolioSharpe(s float64) { m.PortfolioSharpe.Set(s) }
