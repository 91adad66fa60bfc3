// Package metrics provides Prometheus metrics for the dxapi client, its batch
// executor and the development stub server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for dxapi.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Dispatcher
	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	usageErrors  *prometheus.CounterVec

	// Transport
	transportRetries  *prometheus.CounterVec
	transportAttempts *prometheus.CounterVec

	// Batch executor
	batchQueueSize     prometheus.Gauge
	batchQueueCapacity prometheus.Gauge
	batchWorkersActive prometheus.Gauge
	batchJobs          *prometheus.CounterVec
	batchJobLatency    prometheus.Histogram

	// Stub server
	stubHTTPRequests        *prometheus.CounterVec
	stubHTTPRequestDuration *prometheus.HistogramVec
	stubObjects             prometheus.Gauge
	stubNonceHits           prometheus.Counter
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dxapi",
		subsystem:        "client",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		enabled:          true,
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

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for all series
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.calls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("calls_total"),
		Help:        "Total number of API calls by route, scope and outcome",
		ConstLabels: constLabels,
	}, []string{"route", "scope", "outcome"})

	m.callDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("call_duration_milliseconds"),
		Help:        "API call duration in milliseconds, transport included",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"route"})

	m.usageErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("usage_errors_total"),
		Help:        "Calls rejected before reaching the transport",
		ConstLabels: constLabels,
	}, []string{"reason"})

	m.transportRetries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("transport_retries_total"),
		Help:        "Requests re-sent by the HTTP transport",
		ConstLabels: constLabels,
	}, []string{"route"})

	m.transportAttempts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("transport_attempts_total"),
		Help:        "HTTP round trips by route and status class",
		ConstLabels: constLabels,
	}, []string{"route", "status_class"})

	m.batchQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("batch_queue_size"),
		Help:        "Calls waiting in the batch queue",
		ConstLabels: constLabels,
	})

	m.batchQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("batch_queue_capacity"),
		Help:        "Capacity of the batch queue",
		ConstLabels: constLabels,
	})

	m.batchWorkersActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("batch_workers_active"),
		Help:        "Batch workers currently executing a call",
		ConstLabels: constLabels,
	})

	m.batchJobs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("batch_jobs_total"),
		Help:        "Batch jobs by outcome",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	m.batchJobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("batch_job_latency_milliseconds"),
		Help:        "Time from dequeue to result for a batch job",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.stubHTTPRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "stub",
		Name:        m.name("http_requests_total"),
		Help:        "Stub server HTTP requests by endpoint, method and status",
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.stubHTTPRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "stub",
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "Stub server HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.stubObjects = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "stub",
		Name:        m.name("objects_total"),
		Help:        "Objects held by the stub server store",
		ConstLabels: constLabels,
	})

	m.stubNonceHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "stub",
		Name:        m.name("nonce_hits_total"),
		Help:        "Create requests answered from the nonce cache",
		ConstLabels: constLabels,
	})
}

// RecordCall records the outcome of one dispatcher call.
func RecordCall(route, scope, outcome string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.calls.WithLabelValues(route, scope, outcome).Inc()
	globalManager.callDuration.WithLabelValues(route).Observe(durationMs)
}

// RecordUsageError counts a call rejected before the transport.
func RecordUsageError(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.usageErrors.WithLabelValues(reason).Inc()
}

// RecordTransportRetry counts a re-sent request.
func RecordTransportRetry(route string) {
	if !globalManager.enabled {
		return
	}
	globalManager.transportRetries.WithLabelValues(route).Inc()
}

// RecordTransportAttempt counts one round trip. statusClass is "2xx".."5xx" or "error".
func RecordTransportAttempt(route, statusClass string) {
	if !globalManager.enabled {
		return
	}
	globalManager.transportAttempts.WithLabelValues(route, statusClass).Inc()
}

// UpdateBatchQueueSize sets the number of queued batch jobs.
func UpdateBatchQueueSize(size int) {
	globalManager.batchQueueSize.Set(float64(size))
}

// UpdateBatchQueueCapacity sets the batch queue capacity.
func UpdateBatchQueueCapacity(capacity int) {
	globalManager.batchQueueCapacity.Set(float64(capacity))
}

// AddBatchWorkersActive adjusts the active worker gauge by delta.
func AddBatchWorkersActive(delta int) {
	globalManager.batchWorkersActive.Add(float64(delta))
}

// RecordBatchJob records a finished batch job.
func RecordBatchJob(outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.batchJobs.WithLabelValues(outcome).Inc()
	globalManager.batchJobLatency.Observe(latencyMs)
}

// RecordStubHTTPRequest records a stub server request.
func RecordStubHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.stubHTTPRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.stubHTTPRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateStubObjects sets the stub store object count.
func UpdateStubObjects(count int) {
	globalManager.stubObjects.Set(float64(count))
}

// RecordStubNonceHit counts a create answered from the nonce cache.
func RecordStubNonceHit() {
	if !globalManager.enabled {
		return
	}
	globalManager.stubNonceHits.Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
