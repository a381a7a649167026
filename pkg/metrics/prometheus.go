package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the audiogram service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Analysis Metrics
	analyses        *prometheus.CounterVec
	classifications *prometheus.CounterVec
	summaryDuration prometheus.Histogram

	// Dataset Metrics
	datasetRecords      prometheus.Gauge
	datasetRejected     *prometheus.CounterVec
	datasetLoadDuration prometheus.Histogram
	datasetLoadFailures *prometheus.CounterVec
	datasetLastLoadUnix prometheus.Gauge

	// Repository Metrics
	selectionLatency *prometheus.HistogramVec
	lookupMisses     *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

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
		namespace:        "audiogram",
		subsystem:        "service",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics on the configured registry.
func (m *Manager) initializeMetrics() {
	m.analyses = m.counterVec("analyses_total",
		"Total number of audiogram analyses by kind (dataset, manual)", "kind")
	m.classifications = m.counterVec("classifications_total",
		"Whole-ear severity classifications by ear and category", "ear", "category")
	m.summaryDuration = m.histogram("summary_duration_milliseconds",
		"Cohort summary computation time in milliseconds", m.histogramBuckets)

	m.datasetRecords = m.gauge("dataset_records",
		"Number of participant records currently loaded")
	m.datasetRejected = m.counterVec("dataset_rejected_rows_total",
		"Dataset rows rejected during loading by reason", "reason")
	m.datasetLoadDuration = m.histogram("dataset_load_duration_milliseconds",
		"Dataset fetch and parse time in milliseconds", m.histogramBuckets)
	m.datasetLoadFailures = m.counterVec("dataset_load_failures_total",
		"Dataset loads that failed by error type", "error_type")
	m.datasetLastLoadUnix = m.gauge("dataset_last_load_unix",
		"Unix time of the last successful dataset load")

	m.selectionLatency = m.histogramVec("selection_latency_milliseconds",
		"Record selection latency in milliseconds by mode (first, random, id, index)", "mode")
	m.lookupMisses = m.counterVec("lookup_misses_total",
		"Record lookups that found nothing by mode", "mode")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total",
		"Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Analysis Metrics Functions.

// RecordAnalysis increments the analyses counter for kind.
func RecordAnalysis(kind string) {
	globalManager.analyses.WithLabelValues(kind).Inc()
}

// RecordClassification counts a whole-ear classification.
func RecordClassification(ear, category string) {
	globalManager.classifications.WithLabelValues(ear, category).Inc()
}

// RecordSummaryDuration records cohort summary time in milliseconds.
func RecordSummaryDuration(ms float64) {
	globalManager.summaryDuration.Observe(ms)
}

// Dataset Metrics Functions.

// UpdateDatasetRecords sets the number of loaded records.
func UpdateDatasetRecords(count int) {
	globalManager.datasetRecords.Set(float64(count))
}

// RecordDatasetRejected adds n rejected rows for reason.
func RecordDatasetRejected(reason string, n int) {
	if n <= 0 {
		return
	}
	globalManager.datasetRejected.WithLabelValues(reason).Add(float64(n))
}

// RecordDatasetLoadDuration records dataset load time in milliseconds.
func RecordDatasetLoadDuration(ms float64) {
	globalManager.datasetLoadDuration.Observe(ms)
}

// RecordDatasetLoadFailure counts a failed load.
func RecordDatasetLoadFailure(errorType string) {
	globalManager.datasetLoadFailures.WithLabelValues(errorType).Inc()
}

// UpdateDatasetLastLoad sets the time of the last successful load.
func UpdateDatasetLastLoad(unix float64) {
	globalManager.datasetLastLoadUnix.Set(unix)
}

// Repository Metrics Functions.

// RecordSelectionLatency records how long a record selection took.
func RecordSelectionLatency(mode string, ms float64) {
	globalManager.selectionLatency.WithLabelValues(mode).Observe(ms)
}

// RecordLookupMiss counts a lookup that found no record.
func RecordLookupMiss(mode string) {
	globalManager.lookupMisses.WithLabelValues(mode).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
