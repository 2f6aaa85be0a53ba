// Package metrics provides Prometheus metrics for the draftlens service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scan pipeline
	scansTotal          *prometheus.CounterVec
	scanDuration        *prometheus.HistogramVec
	scansRejected       prometheus.Counter
	scanInFlight        prometheus.Gauge
	slotsClassified     *prometheus.CounterVec
	slotsBelowThreshold prometheus.Counter
	slotsDropped        prometheus.Counter
	poolSize            *prometheus.GaugeVec
	pickedTotal         prometheus.Gauge

	// Classifier
	inferenceLatency   prometheus.Histogram
	inferenceBatchSize prometheus.Histogram
	classifierInits    *prometheus.CounterVec
	classifierReady    prometheus.Gauge

	// Capture cache
	captureCacheHits   prometheus.Counter
	captureCacheMisses prometheus.Counter
	captureErrors      prometheus.Counter
	captureLatency     prometheus.Histogram

	// Layout
	layoutResolutions *prometheus.CounterVec

	// Statistics snapshot
	statsRecords *prometheus.GaugeVec
	statsReloads *prometheus.CounterVec

	// Staleness
	modelGaps *prometheus.GaugeVec

	// Request queue / worker
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueEnqueueErrs *prometheus.CounterVec
	workerRequests   *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "draftlens",
		subsystem:        "engine",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.scansTotal = m.counterVec("scans_total", "Scans processed by mode and outcome", "mode", "outcome")
	m.scanDuration = m.histogramVec("scan_duration_milliseconds", "End-to-end scan latency in milliseconds", "mode")
	m.scansRejected = m.counter("scans_rejected_in_progress_total", "Scan requests rejected because another scan was in flight")
	m.scanInFlight = m.gauge("scan_in_flight", "1 while a scan is being processed")
	m.slotsClassified = m.counterVec("slots_classified_total", "Slots classified by category", "category")
	m.slotsBelowThreshold = m.counter("slots_below_threshold_total", "Slots whose top class fell below the confidence threshold")
	m.slotsDropped = m.counter("slots_dropped_total", "Slots dropped before batching (empty or failed crop)")
	m.poolSize = m.gaugeVec("pool_size", "Abilities still in the draft pool", "kind")
	m.pickedTotal = m.gauge("picked_abilities", "Abilities identified as picked in the current session")

	m.inferenceLatency = m.histogram("inference_latency_milliseconds", "Forward pass latency in milliseconds", m.histogramBuckets)
	m.inferenceBatchSize = m.histogram("inference_batch_size", "Images per forward pass", []float64{1, 6, 12, 24, 48, 64, 96, 128})
	m.classifierInits = m.counterVec("classifier_inits_total", "Classifier initialisation attempts by provider and outcome", "provider", "outcome")
	m.classifierReady = m.gauge("classifier_ready", "1 when the inference session is initialised")

	m.captureCacheHits = m.counter("capture_cache_hits_total", "Scans served from a cached screenshot")
	m.captureCacheMisses = m.counter("capture_cache_misses_total", "Scans that required a fresh capture")
	m.captureErrors = m.counter("capture_errors_total", "Screenshot capture failures")
	m.captureLatency = m.histogram("capture_latency_milliseconds", "Screenshot capture latency in milliseconds", m.histogramBuckets)

	m.layoutResolutions = m.counterVec("layout_resolutions_total", "Layout lookups by source", "source")

	m.statsRecords = m.gaugeVec("stats_records", "Statistics records loaded by kind", "kind")
	m.statsReloads = m.counterVec("stats_reloads_total", "Statistics snapshot reloads by outcome", "outcome")

	m.modelGaps = m.gaugeVec("model_gaps", "Names diverging between classifier and statistics store", "direction")

	m.queueSize = m.gauge("request_queue_size", "Pending classifier worker requests")
	m.queueCapacity = m.gauge("request_queue_capacity", "Classifier worker request queue capacity")
	m.queueEnqueueErrs = m.counterVec("request_queue_enqueue_errors_total", "Rejected worker requests by reason", "reason")
	m.workerRequests = m.counterVec("worker_requests_total", "Classifier worker requests by type and status", "type", "status")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100})
}

// RecordScan counts a finished scan. mode is initial or rescan; outcome is
// success, rejected, unsupported_resolution or error.
func RecordScan(mode, outcome string) {
	globalManager.scansTotal.WithLabelValues(mode, outcome).Inc()
}

// RecordScanDuration observes end-to-end scan latency.
func RecordScanDuration(mode string, latencyMs float64) {
	globalManager.scanDuration.WithLabelValues(mode).Observe(latencyMs)
}

// RecordScanRejected counts a scan refused because one was already active.
func RecordScanRejected() {
	globalManager.scansRejected.Inc()
}

// SetScanInFlight flips the in-flight gauge.
func SetScanInFlight(active bool) {
	if active {
		globalManager.scanInFlight.Set(1)
		return
	}
	globalManager.scanInFlight.Set(0)
}

// RecordSlotsClassified adds n classified slots for a category.
func RecordSlotsClassified(category string, n int) {
	globalManager.slotsClassified.WithLabelValues(category).Add(float64(n))
}

// RecordSlotsBelowThreshold adds n low-confidence slots.
func RecordSlotsBelowThreshold(n int) {
	globalManager.slotsBelowThreshold.Add(float64(n))
}

// RecordSlotsDropped adds n slots skipped before batching.
func RecordSlotsDropped(n int) {
	globalManager.slotsDropped.Add(float64(n))
}

// UpdatePoolSize sets the remaining pool size for ultimate or standard.
func UpdatePoolSize(kind string, size int) {
	globalManager.poolSize.WithLabelValues(kind).Set(float64(size))
}

// UpdatePickedTotal sets the picked abilities gauge.
func UpdatePickedTotal(n int) {
	globalManager.pickedTotal.Set(float64(n))
}

// RecordInference observes one forward pass.
func RecordInference(latencyMs float64, batch int) {
	globalManager.inferenceLatency.Observe(latencyMs)
	globalManager.inferenceBatchSize.Observe(float64(batch))
}

// RecordClassifierInit counts an initialisation attempt.
func RecordClassifierInit(provider, outcome string) {
	globalManager.classifierInits.WithLabelValues(provider, outcome).Inc()
}

// SetClassifierReady flips the readiness gauge.
func SetClassifierReady(ready bool) {
	if ready {
		globalManager.classifierReady.Set(1)
		return
	}
	globalManager.classifierReady.Set(0)
}

// RecordCaptureCacheHit counts a scan served from cache.
func RecordCaptureCacheHit() {
	globalManager.captureCacheHits.Inc()
}

// RecordCaptureCacheMiss counts a scan that paid for a fresh capture.
func RecordCaptureCacheMiss() {
	globalManager.captureCacheMisses.Inc()
}

// RecordCapture observes a capture attempt.
func RecordCapture(latencyMs float64, err error) {
	globalManager.captureLatency.Observe(latencyMs)
	if err != nil {
		globalManager.captureErrors.Inc()
	}
}

// RecordLayoutResolution counts a layout lookup by its source.
func RecordLayoutResolution(source string) {
	globalManager.layoutResolutions.WithLabelValues(source).Inc()
}

// UpdateStatsRecords sets the loaded record count for heroes, abilities, pairs or hero_rows.
func UpdateStatsRecords(kind string, n int) {
	globalManager.statsRecords.WithLabelValues(kind).Set(float64(n))
}

// RecordStatsReload counts a snapshot reload attempt.
func RecordStatsReload(outcome string) {
	globalManager.statsReloads.WithLabelValues(outcome).Inc()
}

// UpdateModelGaps publishes the size of the last staleness report.
func UpdateModelGaps(missingFromModel, staleInModel int) {
	globalManager.modelGaps.WithLabelValues("missing_from_model").Set(float64(missingFromModel))
	globalManager.modelGaps.WithLabelValues("stale_in_model").Set(float64(staleInModel))
}

// UpdateQueueSize sets the number of pending worker requests.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the worker request queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError counts a rejected worker request.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrs.WithLabelValues(reason).Inc()
}

// RecordWorkerRequest counts a handled worker request.
func RecordWorkerRequest(requestType, status string) {
	globalManager.workerRequests.WithLabelValues(requestType, status).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
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
