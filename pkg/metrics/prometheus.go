// Package metrics provides Prometheus metrics for the ApplyFlow pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultScoreBuckets split the 0-100 match score range into deciles.
var defaultScoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100} //nolint:gochecknoglobals // read-only defaults

// Manager manages all Prometheus metrics for the ApplyFlow service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	scoreBuckets     []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Pipeline Metrics - one increment per ingestion outcome
	runsTotal         prometheus.Counter
	runDuration       prometheus.Histogram
	postingsFetched   *prometheus.CounterVec
	postingsSaved     prometheus.Counter
	postingsDuplicate prometheus.Counter
	postingsFailed    prometheus.Counter
	sourceFailures    *prometheus.CounterVec
	matchScore        prometheus.Histogram
	hardMismatches    prometheus.Counter

	// Latency Metrics
	fetchLatency *prometheus.HistogramVec
	scoreLatency prometheus.Histogram
	storeLatency *prometheus.HistogramVec

	// Inventory
	totalJobs         prometheus.Gauge
	totalApplications prometheus.Gauge
	statusUpdates     *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue Metrics - event notification queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Publisher Metrics
	eventsPublished  *prometheus.CounterVec
	publishErrors    prometheus.Counter
	publishLatency   prometheus.Histogram
	schedulerTrigger *prometheus.CounterVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

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
		namespace:        "applyflow",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		scoreBuckets:     defaultScoreBuckets,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(n, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(n), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(n, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(n), Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(n, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(n), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(n, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(n), Help: help, Buckets: buckets, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(n, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(n), Help: help, Buckets: buckets, ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	latencyMs := []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

	m.runsTotal = m.counter("runs_total", "Total number of completed ingestion runs")
	m.runDuration = m.histogram("run_duration_seconds", "Wall time of an ingestion run in seconds",
		[]float64{1, 5, 15, 30, 60, 120, 300, 600, 1800})
	m.postingsFetched = m.counterVec("postings_fetched_total", "Postings returned by collectors", "source")
	m.postingsSaved = m.counter("postings_saved_total", "Postings newly stored and scored")
	m.postingsDuplicate = m.counter("postings_duplicate_total", "Postings skipped because their id was already stored")
	m.postingsFailed = m.counter("postings_failed_total", "Postings or sources that failed processing")
	m.sourceFailures = m.counterVec("source_failures_total", "Collector fetch failures by source", "source")
	m.matchScore = m.histogram("match_score", "Distribution of final match scores", m.scoreBuckets)
	m.hardMismatches = m.counter("hard_mismatch_total", "Scored postings flagged as hard experience mismatch")

	m.fetchLatency = m.histogramVec("fetch_latency_milliseconds", "Collector fetch latency in milliseconds", latencyMs, "source")
	m.scoreLatency = m.histogram("scoring_latency_milliseconds", "Extraction plus scoring latency in milliseconds", m.histogramBuckets)
	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Persistence call latency in milliseconds", latencyMs, "operation")

	m.totalJobs = m.gauge("jobs_total", "Postings currently in storage")
	m.totalApplications = m.gauge("applications_total", "Applications currently in storage")
	m.statusUpdates = m.counterVec("status_updates_total", "Application status updates by target status", "status")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		m.histogramBuckets, "endpoint", "method", "status_code")

	m.queueSize = m.gauge("queue_size", "Current size of the event queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum capacity of the event queue")
	m.queueUtilization = m.gauge("queue_utilization", "Event queue utilization ratio (0-1)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total events enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total events dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Events dropped at enqueue")

	m.eventsPublished = m.counterVec("events_published_total", "Events published by type", "type")
	m.publishErrors = m.counter("publish_errors_total", "Event publish failures")
	m.publishLatency = m.histogram("publish_latency_milliseconds", "Event publish latency in milliseconds", latencyMs)
	m.schedulerTrigger = m.counterVec("scheduler_triggers_total", "Ingestion runs started by trigger", "trigger")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component",
		"component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint",
		"endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of operations that resulted in errors",
		m.histogramBuckets, "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Pipeline Metrics Functions.

// RecordRun records a completed ingestion run.
func RecordRun(duration time.Duration) {
	globalManager.runsTotal.Inc()
	globalManager.runDuration.Observe(duration.Seconds())
}

// RecordPostingsFetched adds n fetched postings for source.
func RecordPostingsFetched(source string, n int) {
	globalManager.postingsFetched.WithLabelValues(source).Add(float64(n))
}

// RecordPostingSaved increments the saved postings counter.
func RecordPostingSaved() {
	globalManager.postingsSaved.Inc()
}

// RecordPostingDuplicate increments the duplicate postings counter.
func RecordPostingDuplicate() {
	globalManager.postingsDuplicate.Inc()
}

// RecordPostingFailed increments the failed postings counter.
func RecordPostingFailed() {
	globalManager.postingsFailed.Inc()
}

// RecordSourceFailure increments the fetch failure counter for source.
func RecordSourceFailure(source string) {
	globalManager.sourceFailures.WithLabelValues(source).Inc()
}

// RecordMatchScore observes a final score and flags hard mismatches.
func RecordMatchScore(score float64, hardMismatch bool) {
	globalManager.matchScore.Observe(score)
	if hardMismatch {
		globalManager.hardMismatches.Inc()
	}
}

// RecordFetchLatency records collector fetch latency in milliseconds.
func RecordFetchLatency(source string, latencyMs float64) {
	globalManager.fetchLatency.WithLabelValues(source).Observe(latencyMs)
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoreLatency.Observe(latencyMs)
}

// RecordStoreLatency records persistence latency in milliseconds.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateTotalJobs sets the stored postings gauge.
func UpdateTotalJobs(count int) {
	globalManager.totalJobs.Set(float64(count))
}

// UpdateTotalApplications sets the stored applications gauge.
func UpdateTotalApplications(count int) {
	globalManager.totalApplications.Set(float64(count))
}

// RecordStatusUpdate counts a status update to status.
func RecordStatusUpdate(status string) {
	globalManager.statusUpdates.WithLabelValues(status).Inc()
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

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Publisher Metrics Functions.

// RecordEventPublished counts a published event of eventType.
func RecordEventPublished(eventType string, latencyMs float64) {
	globalManager.eventsPublished.WithLabelValues(eventType).Inc()
	globalManager.publishLatency.Observe(latencyMs)
}

// RecordPublishError increments the publish error counter.
func RecordPublishError() {
	globalManager.publishErrors.Inc()
}

// RecordSchedulerTrigger counts a run started by trigger ("cron", "manual", "startup").
func RecordSchedulerTrigger(trigger string) {
	globalManager.schedulerTrigger.WithLabelValues(trigger).Inc()
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

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
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

// Since returns milliseconds elapsed since start, the unit every latency metric uses.
func Since(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
