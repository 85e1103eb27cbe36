// Package metrics defines the Prometheus instruments exposed on the
// status server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "windsurf"

// Metrics bundles the engine's instruments with their own registry, so an
// application instance never collides with another in the same process.
type Metrics struct {
	Registry *prometheus.Registry

	// CoreSteps counts Update calls per model core.
	CoreSteps *prometheus.CounterVec
	// Exchanges counts variable exchanges between cores.
	Exchanges prometheus.Counter
	// SimTime tracks the composite simulation time in seconds.
	SimTime prometheus.Gauge
	// StepDuration observes the wallclock cost of single core steps.
	StepDuration prometheus.Histogram
}

// New creates and registers the engine instruments.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CoreSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "core_steps_total",
			Help:      "Number of update steps taken, per model core.",
		}, []string{"model"}),
		Exchanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchanges_total",
			Help:      "Number of variable exchanges performed between cores.",
		}),
		SimTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulation_time_seconds",
			Help:      "Current composite simulation time.",
		}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wallclock duration of individual core update steps.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}

	m.Registry.MustRegister(m.CoreSteps, m.Exchanges, m.SimTime, m.StepDuration)
	return m
}
