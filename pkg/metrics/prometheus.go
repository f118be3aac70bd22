// Package metrics provides Prometheus metrics for the rapport service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Import pipeline
	evidenceImported  prometheus.Counter
	evidenceDuplicate prometheus.Counter
	syncRuns          *prometheus.CounterVec
	syncDuration      prometheus.Histogram

	// LLM analysis
	analysisLatency   prometheus.Histogram
	analysisErrors    prometheus.Counter
	insightsExtracted prometheus.Counter
	llmTokens         *prometheus.CounterVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueDequeues      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Store
	storeQueryLatency prometheus.Histogram
	storeWriteLatency prometheus.Histogram
	storeErrors       prometheus.Counter

	// Coaching queue and scored views
	outcomesGenerated prometheus.Counter
	outcomesResolved  *prometheus.CounterVec
	activeOutcomes    prometheus.Gauge
	trackedPeople     prometheus.Gauge
	overduePeople     prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Detailed error tracking
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with configuration options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rapport",
		subsystem:        "coach",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // metric declarations are one long list
	auto := promauto.With(m.registry)

	m.evidenceImported = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "evidence_imported_total",
		Help: "Total number of evidence items imported from sources",
	})
	m.evidenceDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "evidence_duplicate_total",
		Help: "Total number of already-seen source refs skipped at import",
	})
	m.syncRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "sync_runs_total",
		Help: "Total sync runs by source and terminal status",
	}, []string{"source", "status"})
	m.syncDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "sync_duration_milliseconds",
		Help:    "Duration of a full source sync in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.analysisLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "analysis_latency_milliseconds",
		Help:    "LLM analysis latency per evidence item in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.analysisErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "analysis_errors_total",
		Help: "Total number of failed LLM analysis calls",
	})
	m.insightsExtracted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "insights_extracted_total",
		Help: "Total number of insights extracted from evidence",
	})
	m.llmTokens = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "llm_tokens_total",
		Help: "LLM token usage by direction (input/output)",
	}, []string{"direction"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_size",
		Help: "Current size of the analysis queue",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_capacity",
		Help: "Configured capacity of the analysis queue",
	})
	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_utilization_ratio",
		Help: "Analysis queue utilization (size / capacity)",
	})
	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueues_total",
		Help: "Total successful enqueues onto the analysis queue",
	})
	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_dequeues_total",
		Help: "Total dequeues off the analysis queue",
	})
	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueue_errors_total",
		Help: "Total rejected enqueues (closed, full, cancelled)",
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_active_count",
		Help: "Number of analysis workers running",
	})
	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "worker_processing_latency_milliseconds",
		Help:    "End-to-end per-item processing latency in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_errors_total",
		Help: "Total worker processing errors",
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "store_query_latency_milliseconds",
		Help:    "SQLite read latency in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.storeWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "store_write_latency_milliseconds",
		Help:    "SQLite write latency in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.storeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "store_errors_total",
		Help: "Total store operation errors",
	})

	m.outcomesGenerated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "outcomes_generated_total",
		Help: "Total outcomes added to the coaching queue",
	})
	m.outcomesResolved = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "outcomes_resolved_total",
		Help: "Total outcomes resolved by terminal status",
	}, []string{"status"})
	m.activeOutcomes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "outcomes_active",
		Help: "Current size of the active coaching queue",
	})
	m.trackedPeople = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "people_tracked",
		Help: "Number of unarchived people in the store",
	})
	m.overduePeople = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "people_overdue",
		Help: "Number of people past their overdue threshold at last scoring pass",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "Total HTTP requests by endpoint, method, and status code",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_by_component_total",
		Help: "Errors by component and error type",
	}, []string{"component", "error_type"})
}

// RecordEvidenceImported increments the imported evidence counter.
func RecordEvidenceImported() { globalManager.evidenceImported.Inc() }

// RecordEvidenceDuplicate increments the duplicate source-ref counter.
func RecordEvidenceDuplicate() { globalManager.evidenceDuplicate.Inc() }

// RecordSyncRun counts one sync run for a source with its terminal status.
func RecordSyncRun(source, status string) {
	globalManager.syncRuns.WithLabelValues(source, status).Inc()
}

// RecordSyncDuration records a full sync duration in milliseconds.
func RecordSyncDuration(ms float64) { globalManager.syncDuration.Observe(ms) }

// RecordAnalysisLatency records one LLM analysis latency in milliseconds.
func RecordAnalysisLatency(ms float64) { globalManager.analysisLatency.Observe(ms) }

// RecordAnalysisError increments the failed analysis counter.
func RecordAnalysisError() { globalManager.analysisErrors.Inc() }

// RecordInsightsExtracted adds to the extracted insight counter.
func RecordInsightsExtracted(n int) { globalManager.insightsExtracted.Add(float64(n)) }

// RecordLLMTokens adds token usage for a direction ("input" or "output").
func RecordLLMTokens(direction string, n int64) {
	globalManager.llmTokens.WithLabelValues(direction).Add(float64(n))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the configured queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(ratio float64) { globalManager.queueUtilization.Set(ratio) }

// RecordQueueEnqueue increments the successful enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueues.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeues.Inc() }

// RecordQueueEnqueueError increments the rejected enqueue counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records a per-item processing latency.
func RecordWorkerProcessingLatency(ms float64) { globalManager.workerProcessingLatency.Observe(ms) }

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordStoreQueryLatency records a store read latency in milliseconds.
func RecordStoreQueryLatency(ms float64) { globalManager.storeQueryLatency.Observe(ms) }

// RecordStoreWriteLatency records a store write latency in milliseconds.
func RecordStoreWriteLatency(ms float64) { globalManager.storeWriteLatency.Observe(ms) }

// RecordStoreError increments the store error counter.
func RecordStoreError() { globalManager.storeErrors.Inc() }

// RecordOutcomesGenerated adds to the generated outcome counter.
func RecordOutcomesGenerated(n int) { globalManager.outcomesGenerated.Add(float64(n)) }

// RecordOutcomeResolved counts a terminal transition by status.
func RecordOutcomeResolved(status string) {
	globalManager.outcomesResolved.WithLabelValues(status).Inc()
}

// UpdateActiveOutcomes sets the active coaching queue size.
func UpdateActiveOutcomes(count int) { globalManager.activeOutcomes.Set(float64(count)) }

// UpdateTrackedPeople sets the unarchived people gauge.
func UpdateTrackedPeople(count int) { globalManager.trackedPeople.Set(float64(count)) }

// UpdateOverduePeople sets the overdue people gauge.
func UpdateOverduePeople(count int) { globalManager.overduePeople.Set(float64(count)) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordErrorByComponent records an error for detailed tracking.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
