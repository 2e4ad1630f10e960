// Package metrics records session and routing metrics with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bloom-go/bloom/pkg/scheduler"
)

// Config configures the Prometheus recorder.
type Config struct {
	// Namespace is the metrics namespace (default: "bloom").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the recorder.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "bloom",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Recorder implements scheduler.Recorder and counts route misses.
type Recorder struct {
	sessionsStarted *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	renders         *prometheus.CounterVec
	renderDuration  *prometheus.HistogramVec
	failures        *prometheus.CounterVec
	terminations    *prometheus.CounterVec
	routeMisses     prometheus.Counter
}

var _ scheduler.Recorder = (*Recorder)(nil)

// New registers the metrics and returns a Recorder. Registering twice in
// the same registry panics, as with promauto.
func New(opts ...Option) *Recorder {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Recorder{
		sessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sessions_started_total",
			Help:        "Total number of render sessions started",
			ConstLabels: config.ConstLabels,
		}, []string{"label"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of live render sessions",
			ConstLabels: config.ConstLabels,
		}),

		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of trees applied",
			ConstLabels: config.ConstLabels,
		}, []string{"label"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Time spent applying a tree in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"label"}),

		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "session_failures_total",
			Help:        "Total number of producer failures",
			ConstLabels: config.ConstLabels,
		}, []string{"label", "op"}),

		terminations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sessions_terminated_total",
			Help:        "Total number of terminated sessions by reason",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),

		routeMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "route_misses_total",
			Help:        "Total number of navigations that matched no route",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// SessionStarted implements scheduler.Recorder.
func (r *Recorder) SessionStarted(label string) {
	r.sessionsStarted.WithLabelValues(label).Inc()
	r.activeSessions.Inc()
}

// SessionTerminated implements scheduler.Recorder.
func (r *Recorder) SessionTerminated(_ string, reason scheduler.Reason) {
	r.activeSessions.Dec()
	r.terminations.WithLabelValues(reason.String()).Inc()
}

// RenderApplied implements scheduler.Recorder.
func (r *Recorder) RenderApplied(label string, d time.Duration) {
	r.renders.WithLabelValues(label).Inc()
	r.renderDuration.WithLabelValues(label).Observe(d.Seconds())
}

// SessionFailed implements scheduler.Recorder.
func (r *Recorder) SessionFailed(label, op string) {
	r.failures.WithLabelValues(label, op).Inc()
}

// RouteMiss counts a navigation that matched no route.
func (r *Recorder) RouteMiss(string) {
	r.routeMisses.Inc()
}
