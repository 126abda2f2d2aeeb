// Package telemetry provides scheduler instrumentation backends for reflow.
//
// Both backends implement reflow.Hooks and are installed with
// reflow.WithHooks (or Scheduler.SetHooks). Combine them with
// reflow.MultiHooks to export to more than one system at once.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reflow-ui/reflow/pkg/reflow"
)

// PrometheusConfig configures the Prometheus scheduler hooks.
type PrometheusConfig struct {
	// Namespace is the metrics namespace (default: "reflow").
	Namespace string

	// Subsystem is the metrics subsystem (default: "scheduler").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush and effect durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// PrometheusOption configures the Prometheus scheduler hooks.
type PrometheusOption func(*PrometheusConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.Registry = registry
	}
}

func defaultPrometheusConfig() PrometheusConfig {
	return PrometheusConfig{
		Namespace: "reflow",
		Subsystem: "scheduler",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// PrometheusHooks exports scheduler activity as Prometheus metrics.
//
// Metrics collected:
//   - reflow_scheduler_flushes_total: Counter of completed flushes
//   - reflow_scheduler_flush_duration_seconds: Histogram of flush duration
//   - reflow_scheduler_effect_runs_total: Counter of effect runs
//   - reflow_scheduler_effect_duration_seconds: Histogram of effect run duration
//   - reflow_scheduler_effect_errors_total: Counter of recovered effect panics
//   - reflow_scheduler_cycle_aborts_total: Counter of cycle-guard aborts
//   - reflow_scheduler_flush_queue_effects: Histogram of effects per flush
type PrometheusHooks struct {
	flushesTotal   prometheus.Counter
	flushDuration  prometheus.Histogram
	effectRuns     prometheus.Counter
	effectDuration prometheus.Histogram
	effectErrors   prometheus.Counter
	cycleAborts    prometheus.Counter
	flushQueue     prometheus.Histogram
}

// NewPrometheusHooks registers the scheduler metrics and returns hooks
// ready to install on a Scheduler.
//
// Example:
//
//	sched := reflow.NewScheduler(
//	    reflow.WithHooks(telemetry.NewPrometheusHooks(
//	        telemetry.WithNamespace("myapp"),
//	    )),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func NewPrometheusHooks(opts ...PrometheusOption) *PrometheusHooks {
	config := defaultPrometheusConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &PrometheusHooks{
		flushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of completed scheduler flushes",
			ConstLabels: config.ConstLabels,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Scheduler flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		effectRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total number of effect runs",
			ConstLabels: config.ConstLabels,
		}),

		effectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_duration_seconds",
			Help:        "Effect run duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		effectErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_errors_total",
			Help:        "Total number of recovered effect panics",
			ConstLabels: config.ConstLabels,
		}),

		cycleAborts: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycle_aborts_total",
			Help:        "Total number of flushes aborted by the cycle guard",
			ConstLabels: config.ConstLabels,
		}),

		flushQueue: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_queue_effects",
			Help:        "Number of effect runs per flush",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}
}

// FlushStart implements reflow.Hooks.
func (h *PrometheusHooks) FlushStart() {}

// FlushEnd implements reflow.Hooks.
func (h *PrometheusHooks) FlushEnd(d time.Duration, runs int) {
	h.flushesTotal.Inc()
	h.flushDuration.Observe(d.Seconds())
	h.flushQueue.Observe(float64(runs))
}

// EffectRun implements reflow.Hooks.
func (h *PrometheusHooks) EffectRun(d time.Duration) {
	h.effectRuns.Inc()
	h.effectDuration.Observe(d.Seconds())
}

// EffectError implements reflow.Hooks.
func (h *PrometheusHooks) EffectError(err error) {
	h.effectErrors.Inc()
}

// CycleAbort implements reflow.Hooks.
func (h *PrometheusHooks) CycleAbort(effectID uint64, runs int) {
	h.cycleAborts.Inc()
}

var _ reflow.Hooks = (*PrometheusHooks)(nil)
