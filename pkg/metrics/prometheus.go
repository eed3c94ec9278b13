// Package metrics provides Prometheus metrics for the gridiron
// evaluation service.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Label values used by the recording helpers.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeFound     = "found"
	OutcomeExhausted = "exhausted"

	BackendRemote = "remote"
	BackendRules  = "rules"
)

// Manager manages all Prometheus metrics for the gridiron service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Evaluation pipeline metrics
	evaluations       *prometheus.CounterVec
	evaluationLatency prometheus.Histogram
	evaluationErrors  prometheus.Counter
	imputedFields     prometheus.Counter

	// What-if solver metrics
	whatifSearches prometheus.Counter
	whatifProbes   prometheus.Counter
	whatifOutcomes *prometheus.CounterVec

	// Classifier boundary metrics
	classifierQueries *prometheus.CounterVec
	classifierLatency prometheus.Histogram
	classifierRetries prometheus.Counter
	schemaRefreshes   *prometheus.CounterVec

	// Intake queue metrics
	queueSize            prometheus.Gauge
	queueCapacity        prometheus.Gauge
	queueUtilization     prometheus.Gauge
	enqueues             prometheus.Counter
	dequeues             prometheus.Counter
	enqueueErrors        prometheus.Counter
	duplicateSubmissions prometheus.Counter

	// Worker metrics
	workerActive  prometheus.Gauge
	workerLatency prometheus.Histogram
	workerErrors  prometheus.Counter

	// Prospect board metrics
	boardAthletes      prometheus.Gauge
	boardUpdates       prometheus.Counter
	boardUpdateLatency prometheus.Histogram
	boardQueryLatency  prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorsByComponent *prometheus.CounterVec

	// Runtime metrics
	systemGoroutines prometheus.Gauge
	systemMemory     prometheus.Gauge
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
		namespace:        "gridiron",
		subsystem:        "eval",
		histogramBuckets: prometheus.DefBuckets,
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
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Evaluation pipeline metrics
	m.evaluations = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "evaluations_total",
			Help:      "Total number of completed evaluations by position and predicted tier",
		},
		[]string{"position", "tier"},
	)

	m.evaluationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluation_latency_milliseconds",
		Help:      "End-to-end evaluation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.evaluationErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluation_errors_total",
		Help:      "Total number of evaluations that failed",
	})

	m.imputedFields = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "imputed_fields_total",
		Help:      "Total number of combine metrics filled in by the imputer",
	})

	// What-if solver metrics
	m.whatifSearches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "whatif_searches_total",
		Help:      "Total number of what-if solves started",
	})

	m.whatifProbes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "whatif_probes_total",
		Help:      "Total number of classifier probes spent on what-if searches",
	})

	m.whatifOutcomes = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "whatif_outcomes_total",
			Help:      "Total number of what-if solves by outcome (found, exhausted)",
		},
		[]string{"outcome"},
	)

	// Classifier boundary metrics
	m.classifierQueries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "classifier_queries_total",
			Help:      "Total number of classifier queries by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	m.classifierLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "classifier_latency_milliseconds",
		Help:      "Classifier query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.classifierRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "classifier_retries_total",
		Help:      "Total number of classifier query retries",
	})

	m.schemaRefreshes = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "schema_refreshes_total",
			Help:      "Total number of model schema fetches by outcome",
		},
		[]string{"outcome"},
	)

	// Intake queue metrics
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the submission intake queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum intake queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization_ratio",
		Help:      "Intake queue utilization ratio (current size / capacity)",
	})

	m.enqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_total",
		Help:      "Total number of submissions enqueued",
	})

	m.dequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeue_total",
		Help:      "Total number of submissions dequeued",
	})

	m.enqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of rejected enqueue attempts (queue full or closed)",
	})

	m.duplicateSubmissions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_submissions_total",
		Help:      "Total number of duplicate submissions detected by idempotency tracking",
	})

	// Worker metrics
	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of active evaluation workers",
	})

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Worker processing latency per submission in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of worker processing errors",
	})

	// Prospect board metrics
	m.boardAthletes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "board_athletes",
		Help:      "Total number of athletes on the prospect board",
	})

	m.boardUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "board_updates_total",
		Help:      "Total number of prospect board updates",
	})

	m.boardUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "board_update_latency_milliseconds",
		Help:      "Prospect board update latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.boardQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "board_query_latency_milliseconds",
		Help:      "Prospect board query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// HTTP metrics
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

	// Error tracking
	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component and type",
		},
		[]string{"component", "error_type"},
	)

	// Runtime metrics
	m.systemGoroutines = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemMemory = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Heap memory in use in bytes",
	})
}

// Evaluation pipeline functions.

// RecordEvaluation counts one completed evaluation.
func RecordEvaluation(position, tier string) {
	globalManager.evaluations.WithLabelValues(position, tier).Inc()
}

// RecordEvaluationLatency records end-to-end evaluation latency in milliseconds.
func RecordEvaluationLatency(latencyMs float64) {
	globalManager.evaluationLatency.Observe(latencyMs)
}

// RecordEvaluationError increments the failed evaluation counter.
func RecordEvaluationError() {
	globalManager.evaluationErrors.Inc()
}

// RecordImputedFields adds the number of metrics the imputer filled in.
func RecordImputedFields(n int) {
	if n > 0 {
		globalManager.imputedFields.Add(float64(n))
	}
}

// What-if solver functions.

// RecordWhatIfSearch counts one what-if solve.
func RecordWhatIfSearch() {
	globalManager.whatifSearches.Inc()
}

// RecordWhatIfProbes adds classifier probes spent on a solve.
func RecordWhatIfProbes(n int) {
	if n > 0 {
		globalManager.whatifProbes.Add(float64(n))
	}
}

// RecordWhatIfOutcome counts a solve outcome (found, exhausted).
func RecordWhatIfOutcome(outcome string) {
	globalManager.whatifOutcomes.WithLabelValues(outcome).Inc()
}

// Classifier boundary functions.

// RecordClassifierQuery counts one classifier query by backend and outcome.
func RecordClassifierQuery(backend, outcome string) {
	globalManager.classifierQueries.WithLabelValues(backend, outcome).Inc()
}

// RecordClassifierLatency records classifier query latency in milliseconds.
func RecordClassifierLatency(latencyMs float64) {
	globalManager.classifierLatency.Observe(latencyMs)
}

// RecordClassifierRetry increments the retry counter.
func RecordClassifierRetry() {
	globalManager.classifierRetries.Inc()
}

// RecordSchemaRefresh counts one model schema fetch by outcome.
func RecordSchemaRefresh(outcome string) {
	globalManager.schemaRefreshes.WithLabelValues(outcome).Inc()
}

// Intake queue functions.

// UpdateQueueSize sets the current intake queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum intake queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the intake queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordEnqueue increments the enqueue counter.
func RecordEnqueue() {
	globalManager.enqueues.Inc()
}

// RecordDequeue increments the dequeue counter.
func RecordDequeue() {
	globalManager.dequeues.Inc()
}

// RecordEnqueueError increments the rejected enqueue counter.
func RecordEnqueueError() {
	globalManager.enqueueErrors.Inc()
}

// RecordDuplicateSubmission increments the duplicate submission counter.
func RecordDuplicateSubmission() {
	globalManager.duplicateSubmissions.Inc()
}

// Worker functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Prospect board functions.

// UpdateBoardAthletes sets the number of athletes on the board.
func UpdateBoardAthletes(count int) {
	globalManager.boardAthletes.Set(float64(count))
}

// RecordBoardUpdate increments the board update counter.
func RecordBoardUpdate() {
	globalManager.boardUpdates.Inc()
}

// RecordBoardUpdateLatency records board update latency.
func RecordBoardUpdateLatency(latencyMs float64) {
	globalManager.boardUpdateLatency.Observe(latencyMs)
}

// RecordBoardQueryLatency records board query latency.
func RecordBoardQueryLatency(latencyMs float64) {
	globalManager.boardQueryLatency.Observe(latencyMs)
}

// HTTP functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error tracking functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// Runtime functions.

// StartRuntimeCollector updates the runtime gauges on the manager's
// refresh interval until ctx is done. Run it in its own goroutine.
func StartRuntimeCollector(ctx context.Context) {
	ticker := time.NewTicker(globalManager.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			collectRuntime()
		}
	}
}

func collectRuntime() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	globalManager.systemGoroutines.Set(float64(runtime.NumGoroutine()))
	globalManager.systemMemory.Set(float64(ms.HeapInuse))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
