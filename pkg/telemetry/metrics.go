package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Listen    string `yaml:"listen"`
	Path      string `yaml:"path"`
}

// Metrics provides Prometheus metrics for the reconciliation agent.
type Metrics struct {
	config MetricsConfig

	// Run metrics
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	// Operation metrics
	operationsResolved *prometheus.CounterVec
	packagesTouched    *prometheus.CounterVec

	// Policy metrics
	kernelProtections prometheus.Counter
	localSkips        prometheus.Counter
	forcedResolutions *prometheus.CounterVec

	// Error metrics
	errorsByClass *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		// No-op metrics instance
		return &Metrics{config: cfg}
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "pkgdrift"
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		runsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_started_total",
				Help:      "Total number of reconciliation runs started",
			},
		),
		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of reconciliation runs completed",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of reconciliation runs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),

		operationsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_resolved_total",
				Help:      "Total number of resolved operations by kind",
			},
			[]string{"kind"},
		),
		packagesTouched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "packages_touched_total",
				Help:      "Total number of packages scheduled for change",
			},
			[]string{"action"},
		),

		kernelProtections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "kernel_protections_total",
				Help:      "Total number of deletions suppressed to protect the running kernel",
			},
		),
		localSkips: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "local_package_skips_total",
				Help:      "Total number of operations skipped in favour of local packages",
			},
		),
		forcedResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forced_resolutions_total",
				Help:      "Total number of forced resolutions by type",
			},
			[]string{"type"},
		),

		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),
	}

	registry.MustRegister(
		m.runsStarted,
		m.runsCompleted,
		m.runDuration,
		m.operationsResolved,
		m.packagesTouched,
		m.kernelProtections,
		m.localSkips,
		m.forcedResolutions,
		m.errorsByClass,
	)

	return m
}

// RecordRunStarted increments the counter for started runs.
func (m *Metrics) RecordRunStarted() {
	if m.runsStarted == nil {
		return
	}
	m.runsStarted.Inc()
}

// RecordRunCompleted records a completed run with its status and duration.
func (m *Metrics) RecordRunCompleted(status string, duration time.Duration) {
	if m.runsCompleted == nil {
		return
	}
	m.runsCompleted.WithLabelValues(status).Inc()
	m.runDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordOperation records a resolved operation by kind.
func (m *Metrics) RecordOperation(kind string) {
	if m.operationsResolved == nil {
		return
	}
	m.operationsResolved.WithLabelValues(kind).Inc()
}

// RecordPackagesTouched adds to the count of packages scheduled for an action.
func (m *Metrics) RecordPackagesTouched(action string, count int) {
	if m.packagesTouched == nil {
		return
	}
	m.packagesTouched.WithLabelValues(action).Add(float64(count))
}

// RecordKernelProtections adds to the kernel protection counter.
func (m *Metrics) RecordKernelProtections(count int) {
	if m.kernelProtections == nil {
		return
	}
	m.kernelProtections.Add(float64(count))
}

// RecordLocalSkips adds to the local package skip counter.
func (m *Metrics) RecordLocalSkips(count int) {
	if m.localSkips == nil {
		return
	}
	m.localSkips.Add(float64(count))
}

// RecordForcedResolutions records forced resolutions by type ("delete"
// or "install").
func (m *Metrics) RecordForcedResolutions(kind string, count int) {
	if m.forcedResolutions == nil {
		return
	}
	m.forcedResolutions.WithLabelValues(kind).Add(float64(count))
}

// RecordError records an error by class.
func (m *Metrics) RecordError(class string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(class).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint, or nil when
// metrics are disabled.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing the metrics endpoint. It blocks
// until the server fails and is intended to run in its own goroutine.
func (m *Metrics) Serve() error {
	handler := m.Handler()
	if handler == nil {
		return nil
	}
	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}
	listen := m.config.Listen
	if listen == "" {
		listen = ":9464"
	}
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
