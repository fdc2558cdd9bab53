// Package metrics exposes solve statistics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

const namespace = "wavetiles"

// Metrics holds the solve collectors registered on one registry
type Metrics struct {
	registry *prometheus.Registry

	solvesTotal         *prometheus.CounterVec
	contradictionsTotal prometheus.Counter
	attempts            prometheus.Histogram
	steps               prometheus.Histogram
	duration            prometheus.Histogram
	activeSolves        prometheus.Gauge
}

// New registers the solve collectors on reg. A nil reg gets a fresh registry
// carrying the Go and process collectors.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Labels: state (done, halted, running)
		solvesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Finished generation runs by final solver state",
		}, []string{"state"}),

		contradictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contradictions_total",
			Help:      "Cells collapsed onto the fallback tile because no candidate was left",
		}),

		attempts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_attempts",
			Help:      "Attempts used per generation run",
			Buckets:   []float64{1, 2, 3, 5, 10, 20},
		}),

		steps: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_steps",
			Help:      "Collapse steps taken by the final attempt of a run",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall time of a generation run including retries",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),

		activeSolves: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_solves",
			Help:      "Generation runs currently in progress",
		}),
	}
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveResult records a finished run. A nil result is ignored.
func (m *Metrics) ObserveResult(result *wfc.Result, duration time.Duration) {
	if result == nil {
		return
	}
	m.solvesTotal.WithLabelValues(result.State.String()).Inc()
	m.attempts.Observe(float64(result.Attempts))
	m.steps.Observe(float64(result.Steps))
	m.duration.Observe(duration.Seconds())

	for _, p := range result.Placements {
		if p.Contradiction {
			m.contradictionsTotal.Inc()
		}
	}
}

// SolveStarted marks a run in progress; call the returned func when it ends
func (m *Metrics) SolveStarted() func() {
	m.activeSolves.Inc()
	return m.activeSolves.Dec
}
