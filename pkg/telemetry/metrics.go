package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for functoria.
type Metrics struct {
	config MetricsConfig

	// Build metrics
	buildsStarted   *prometheus.CounterVec
	buildsCompleted *prometheus.CounterVec
	buildDuration   *prometheus.HistogramVec

	// Phase metrics
	phaseDuration *prometheus.HistogramVec

	// Key metrics
	keyResolutions *prometheus.CounterVec
	parseFailures  *prometheus.CounterVec

	// Graph metrics
	graphNodes *prometheus.GaugeVec

	// Pack metrics
	packCalls    *prometheus.CounterVec
	packDuration *prometheus.HistogramVec
	packErrors   *prometheus.CounterVec

	// Policy metrics
	policyViolations *prometheus.CounterVec

	// Artifact metrics
	artifactsWritten *prometheus.CounterVec

	// Error metrics
	errorsByClass *prometheus.CounterVec
	errorsByCode  *prometheus.CounterVec

	// System metrics
	activeBuilds  prometheus.Gauge
	watchedFiles  prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	// Create a new registry
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		// Build metrics
		buildsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "builds_started_total",
				Help:      "Total number of builds started",
			},
			[]string{"app"},
		),
		buildsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "builds_completed_total",
				Help:      "Total number of builds completed",
			},
			[]string{"status"},
		),
		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "build_duration_seconds",
				Help:      "Duration of build execution in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),

		// Phase metrics
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "phase_duration_seconds",
				Help:      "Duration of build phases in seconds",
				Buckets:   buckets,
			},
			[]string{"phase"},
		),

		// Key metrics
		keyResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "key_resolutions_total",
				Help:      "Total number of key resolutions by value source",
			},
			[]string{"source"},
		),
		parseFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parse_failures_total",
				Help:      "Total number of key flag parse failures",
			},
			[]string{"key"},
		),

		// Graph metrics
		graphNodes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_nodes",
				Help:      "Current number of composition graph nodes",
			},
			[]string{"kind"},
		),

		// Pack metrics
		packCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pack_calls_total",
				Help:      "Total number of component pack calls",
			},
			[]string{"pack", "operation"},
		),
		packDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pack_call_duration_seconds",
				Help:      "Duration of component pack calls in seconds",
				Buckets:   buckets,
			},
			[]string{"pack", "operation"},
		),
		packErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pack_errors_total",
				Help:      "Total number of component pack errors",
			},
			[]string{"pack", "operation"},
		),

		// Policy metrics
		policyViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_violations_total",
				Help:      "Total number of policy violations",
			},
			[]string{"policy", "severity"},
		),

		// Artifact metrics
		artifactsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "artifacts_written_total",
				Help:      "Total number of artifacts written",
			},
			[]string{"kind"},
		),

		// Error metrics
		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),
		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_code_total",
				Help:      "Total number of errors by error code",
			},
			[]string{"code"},
		),

		// System metrics
		activeBuilds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_builds",
				Help:      "Current number of active builds",
			},
		),
		watchedFiles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "watched_files",
				Help:      "Current number of files watched in dev mode",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.buildsStarted,
		m.buildsCompleted,
		m.buildDuration,
		m.phaseDuration,
		m.keyResolutions,
		m.parseFailures,
		m.graphNodes,
		m.packCalls,
		m.packDuration,
		m.packErrors,
		m.policyViolations,
		m.artifactsWritten,
		m.errorsByClass,
		m.errorsByCode,
		m.activeBuilds,
		m.watchedFiles,
	)

	return m, nil
}

// Build Metrics

// RecordBuildStarted increments the counter for started builds.
func (m *Metrics) RecordBuildStarted(app string) {
	if m.buildsStarted == nil {
		return
	}
	m.buildsStarted.WithLabelValues(app).Inc()
	m.activeBuilds.Inc()
}

// RecordBuildCompleted records a completed build with its status and duration.
func (m *Metrics) RecordBuildCompleted(status string, duration time.Duration) {
	if m.buildsCompleted == nil {
		return
	}
	m.buildsCompleted.WithLabelValues(status).Inc()
	m.buildDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.activeBuilds.Dec()
}

// Phase Metrics

// RecordPhase records one build phase's duration.
func (m *Metrics) RecordPhase(phase string, duration time.Duration) {
	if m.phaseDuration == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// Key Metrics

// RecordKeyResolution records one key resolution by its value source.
func (m *Metrics) RecordKeyResolution(source string) {
	if m.keyResolutions == nil {
		return
	}
	m.keyResolutions.WithLabelValues(source).Inc()
}

// RecordParseFailure records a flag parse failure for a key.
func (m *Metrics) RecordParseFailure(key string) {
	if m.parseFailures == nil {
		return
	}
	m.parseFailures.WithLabelValues(key).Inc()
}

// Graph Metrics

// SetGraphNodes sets the current node count for one node kind.
func (m *Metrics) SetGraphNodes(kind string, count float64) {
	if m.graphNodes == nil {
		return
	}
	m.graphNodes.WithLabelValues(kind).Set(count)
}

// Pack Metrics

// RecordPackCall records a component pack call with its duration.
func (m *Metrics) RecordPackCall(pack, operation string, duration time.Duration) {
	if m.packCalls == nil {
		return
	}
	m.packCalls.WithLabelValues(pack, operation).Inc()
	m.packDuration.WithLabelValues(pack, operation).Observe(duration.Seconds())
}

// RecordPackError records a component pack error.
func (m *Metrics) RecordPackError(pack, operation string) {
	if m.packErrors == nil {
		return
	}
	m.packErrors.WithLabelValues(pack, operation).Inc()
}

// Policy Metrics

// RecordPolicyViolation records a policy violation by severity.
func (m *Metrics) RecordPolicyViolation(policy, severity string) {
	if m.policyViolations == nil {
		return
	}
	m.policyViolations.WithLabelValues(policy, severity).Inc()
}

// Artifact Metrics

// RecordArtifactWritten records one written artifact by kind.
func (m *Metrics) RecordArtifactWritten(kind string) {
	if m.artifactsWritten == nil {
		return
	}
	m.artifactsWritten.WithLabelValues(kind).Inc()
}

// Error Metrics

// RecordError records an error by class and optionally by code.
func (m *Metrics) RecordError(errorClass, errorCode string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
	if errorCode != "" && m.errorsByCode != nil {
		m.errorsByCode.WithLabelValues(errorCode).Inc()
	}
}

// System Metrics

// SetActiveBuilds sets the current number of active builds.
func (m *Metrics) SetActiveBuilds(count float64) {
	if m.activeBuilds == nil {
		return
	}
	m.activeBuilds.Set(count)
}

// SetWatchedFiles sets the current number of watched files.
func (m *Metrics) SetWatchedFiles(count float64) {
	if m.watchedFiles == nil {
		return
	}
	m.watchedFiles.Set(count)
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration is a helper to time an operation and record it.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics. Only the
// dev watch command calls this; one-shot commands record metrics
// without serving them.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
