package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRegistry holds all Prometheus metrics for the datacheck runner
type MetricsRegistry struct {
	// Check execution metrics
	CheckDuration *prometheus.HistogramVec
	ChecksTotal   *prometheus.CounterVec

	// System metrics
	ActiveChecks prometheus.Gauge
	RunsTotal    prometheus.Counter
}

// NewMetricsRegistry creates a metrics registry and registers it with the
// given Prometheus registerer.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	registry := &MetricsRegistry{
		CheckDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "datacheck_duration_seconds",
				Help:    "Duration of each datacheck in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0, 300.0},
			},
			[]string{"check", "result"},
		),

		ChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datacheck_runs_total",
				Help: "Total number of datacheck executions by result",
			},
			[]string{"check", "result"},
		),

		ActiveChecks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "datacheck_active_checks",
				Help: "Number of datachecks currently executing",
			},
		),

		RunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "datacheck_started_total",
				Help: "Total number of datachecks started",
			},
		),
	}

	reg.MustRegister(
		registry.CheckDuration,
		registry.ChecksTotal,
		registry.ActiveChecks,
		registry.RunsTotal,
	)

	return registry
}

// CheckStarted implements datacheck.Observer.
func (m *MetricsRegistry) CheckStarted(check string) {
	m.RunsTotal.Inc()
	m.ActiveChecks.Inc()
}

// CheckFinished implements datacheck.Observer.
func (m *MetricsRegistry) CheckFinished(check, result string, duration time.Duration) {
	m.ActiveChecks.Dec()
	m.ChecksTotal.WithLabelValues(check, result).Inc()
	m.CheckDuration.WithLabelValues(check, result).Observe(duration.Seconds())
}
