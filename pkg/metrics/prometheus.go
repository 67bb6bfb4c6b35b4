// Package metrics provides Prometheus metrics for the gatekeeper service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the gatekeeper service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Core business metrics - the analysis pipeline
	tracksAnalyzed    prometheus.Counter
	decodeFailures    prometheus.Counter
	extractionLatency prometheus.Histogram
	profilesBuilt     prometheus.Counter
	buildFailures     *prometheus.CounterVec
	evaluations       prometheus.Counter
	evaluationLatency prometheus.Histogram
	alertsEmitted     *prometheus.CounterVec

	// Profile store health
	profilesLive    prometheus.Gauge
	profilesExpired prometheus.Counter
	profilesEvicted prometheus.Counter

	// Extraction pool health
	workerCount   prometheus.Gauge
	batchAborts   prometheus.Counter
	batchDuration prometheus.Histogram

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System performance metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gatekeeper",
		subsystem:        "analysis",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.tracksAnalyzed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracks_analyzed_total",
		Help:      "Total number of tracks successfully fingerprinted",
	})

	m.decodeFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decode_failures_total",
		Help:      "Total number of sources rejected as not analyzable",
	})

	m.extractionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extraction_latency_milliseconds",
		Help:      "Histogram of per-track fingerprint extraction latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.profilesBuilt = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profiles_built_total",
		Help:      "Total number of reference profiles fitted",
	})

	m.buildFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "profile_build_failures_total",
			Help:      "Total number of failed profile builds by reason",
		},
		[]string{"reason"},
	)

	m.evaluations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluations_total",
		Help:      "Total number of candidate evaluations completed",
	})

	m.evaluationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluation_latency_milliseconds",
		Help:      "Histogram of candidate evaluation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.alertsEmitted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "alerts_emitted_total",
			Help:      "Total number of compatibility alerts by severity",
		},
		[]string{"severity"},
	)

	m.profilesLive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profiles_live",
		Help:      "Current number of reference profiles held in the store",
	})

	m.profilesExpired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profiles_expired_total",
		Help:      "Total number of reference profiles removed by TTL expiry",
	})

	m.profilesEvicted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profiles_evicted_total",
		Help:      "Total number of reference profiles evicted for capacity",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extraction_workers",
		Help:      "Configured size of the extraction worker pool",
	})

	m.batchAborts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_aborts_total",
		Help:      "Total number of extraction batches aborted early for lack of usable sources",
	})

	m.batchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_duration_milliseconds",
		Help:      "Histogram of whole-batch extraction duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// RecordTrackAnalyzed increments the successful fingerprint counter.
func RecordTrackAnalyzed() {
	globalManager.tracksAnalyzed.Inc()
}

// RecordDecodeFailure increments the unanalyzable-source counter.
func RecordDecodeFailure() {
	globalManager.decodeFailures.Inc()
}

// RecordExtractionLatency records one track's extraction latency.
func RecordExtractionLatency(latencyMs float64) {
	globalManager.extractionLatency.Observe(latencyMs)
}

// RecordProfileBuilt increments the fitted-profile counter.
func RecordProfileBuilt() {
	globalManager.profilesBuilt.Inc()
}

// RecordBuildFailure increments the failed-build counter for a reason.
func RecordBuildFailure(reason string) {
	globalManager.buildFailures.WithLabelValues(reason).Inc()
}

// RecordEvaluation increments the completed-evaluation counter.
func RecordEvaluation() {
	globalManager.evaluations.Inc()
}

// RecordEvaluationLatency records one candidate evaluation's latency.
func RecordEvaluationLatency(latencyMs float64) {
	globalManager.evaluationLatency.Observe(latencyMs)
}

// RecordAlert increments the emitted-alert counter for a severity.
func RecordAlert(severity string) {
	globalManager.alertsEmitted.WithLabelValues(severity).Inc()
}

// UpdateProfilesLive sets the live-profile gauge.
func UpdateProfilesLive(count int) {
	globalManager.profilesLive.Set(float64(count))
}

// RecordProfileExpired increments the TTL-expiry counter.
func RecordProfileExpired() {
	globalManager.profilesExpired.Inc()
}

// RecordProfileEvicted increments the capacity-eviction counter.
func RecordProfileEvicted() {
	globalManager.profilesEvicted.Inc()
}

// UpdateWorkerCount sets the extraction pool size gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordBatchAbort increments the early-abort counter.
func RecordBatchAbort() {
	globalManager.batchAborts.Inc()
}

// RecordBatchDuration records one batch's total extraction duration.
func RecordBatchDuration(durationMs float64) {
	globalManager.batchDuration.Observe(durationMs)
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request's duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the heap usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
