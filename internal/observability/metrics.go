package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pizzeria_traffic"

// Metrics holds the Prometheus counters, histograms, and gauges for collection cycles.
type Metrics struct {
	Cycles             *prometheus.CounterVec // labels: outcome={completed,gated,failed}
	CycleRunning       prometheus.Gauge
	CycleDuration      prometheus.Histogram
	LastCycleTimestamp prometheus.Gauge

	TargetsProcessed *prometheus.CounterVec   // labels: status={stored,skipped,fetch_failed,store_failed}
	FetchDuration    *prometheus.HistogramVec // labels: mode={browser,static}
	LastAnomaly      *prometheus.GaugeVec     // labels: pizzeria

	PublishErrors *prometheus.CounterVec // labels: publisher
}

// NewMetrics creates and registers all collector metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// Register adds every metric to reg, for callers that gather from a registry
// other than the default one.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func newMetrics() *Metrics {
	return &Metrics{
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Collection cycles by outcome.",
		}, []string{"outcome"}),
		CycleRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cycle_running",
			Help:      "1 while a collection cycle is in progress, 0 otherwise.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-parse-store cycle.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		LastCycleTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time at which the last non-gated cycle finished.",
		}),
		TargetsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "targets_processed_total",
			Help:      "Targets processed by result status.",
		}, []string{"status"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single target page fetch.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"mode"}),
		LastAnomaly: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_anomaly_points",
			Help:      "Most recent live minus historical traffic per pizzeria.",
		}, []string{"pizzeria"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed publications of stored observations by publisher.",
		}, []string{"publisher"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Cycles,
		m.CycleRunning,
		m.CycleDuration,
		m.LastCycleTimestamp,
		m.TargetsProcessed,
		m.FetchDuration,
		m.LastAnomaly,
		m.PublishErrors,
	}
}
