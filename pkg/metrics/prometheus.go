// Package metrics provides Prometheus metrics for the rank and team balancing service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Balancing Metrics - what the /team command produces
	balanceRequests        *prometheus.CounterVec
	balanceLatency         prometheus.Histogram
	balancePowerDifference prometheus.Histogram
	balanceCandidates      prometheus.Histogram
	balanceCombinations    prometheus.Histogram
	balanceFallbacks       prometheus.Counter

	// Rank Registry Metrics
	rankRegistrations *prometheus.CounterVec
	rankLookups       prometheus.Counter
	rankLookupLatency prometheus.Histogram
	registeredRanks   prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "rankteam",
		subsystem:        "balancer",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.balanceRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "balance_requests_total",
		Help:        "Total number of balancing requests by outcome",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.balanceLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "balance_latency_milliseconds",
		Help:        "Histogram of end-to-end balancing latency in milliseconds, rank lookup included",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.balancePowerDifference = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "balance_power_difference",
		Help:        "Power difference of the chosen team split",
		Buckets:     []float64{0, 1, 2, 4, 8, 16, 32, 64, 128},
		ConstLabels: m.constLabels,
	})

	m.balanceCandidates = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "balance_candidates",
		Help:        "Number of acceptable splits selection chose from",
		Buckets:     prometheus.ExponentialBuckets(1, 2, 14),
		ConstLabels: m.constLabels,
	})

	m.balanceCombinations = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "balance_combinations",
		Help:        "Number of splits enumerated per request",
		Buckets:     prometheus.ExponentialBuckets(1, 2, 14),
		ConstLabels: m.constLabels,
	})

	m.balanceFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "balance_fallbacks_total",
		Help:        "Requests where no split met the threshold and the closest was used",
		ConstLabels: m.constLabels,
	})

	m.rankRegistrations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rank_registrations_total",
		Help:        "Total number of rank registrations by tier",
		ConstLabels: m.constLabels,
	}, []string{"tier"})

	m.rankLookups = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rank_lookups_total",
		Help:        "Total number of batched rank lookups",
		ConstLabels: m.constLabels,
	})

	m.rankLookupLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rank_lookup_latency_milliseconds",
		Help:        "Histogram of batched rank lookup latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.registeredRanks = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "registered_ranks",
		Help:        "Number of identities with a registered rank",
		ConstLabels: m.constLabels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_type_total",
			Help:        "Total number of errors by type and severity",
			ConstLabels: m.constLabels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_endpoint_total",
			Help:        "Total number of errors by endpoint",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "error_latency_milliseconds",
			Help:        "Latency of failed operations in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// RecordBalance records one balancing request outcome, e.g. "ok",
// "insufficient_participants" or "rank_lookup_failed".
func RecordBalance(outcome string, latencyMs float64) {
	globalManager.balanceRequests.WithLabelValues(outcome).Inc()
	globalManager.balanceLatency.Observe(latencyMs)
}

// RecordBalanceResult records the shape of a successful split.
func RecordBalanceResult(powerDifference, candidates, combinations int, withinThreshold bool) {
	globalManager.balancePowerDifference.Observe(float64(powerDifference))
	globalManager.balanceCandidates.Observe(float64(candidates))
	globalManager.balanceCombinations.Observe(float64(combinations))
	if !withinThreshold {
		globalManager.balanceFallbacks.Inc()
	}
}

// RecordRankRegistration increments the registration counter for tier.
func RecordRankRegistration(tier string) {
	globalManager.rankRegistrations.WithLabelValues(tier).Inc()
}

// RecordRankLookup records a batched lookup and its latency.
func RecordRankLookup(latencyMs float64) {
	globalManager.rankLookups.Inc()
	globalManager.rankLookupLatency.Observe(latencyMs)
}

// UpdateRegisteredRanks sets the registered identity count.
func UpdateRegisteredRanks(count int) {
	globalManager.registeredRanks.Set(float64(count))
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType increments the error counter by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint increments the error counter by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// Configure rebuilds the global metrics on a fresh registry with opts, e.g.
// a namespace or a deployment label from configuration. Call it at startup,
// before GetRegistry is handed to an exporter.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	all := append(append([]Option{}, opts...), WithPrometheusRegistry(customRegistry))
	globalManager = NewManager(all...)
}

// GetRegistry returns the registry backing the global metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
