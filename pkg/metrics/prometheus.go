// Package metrics provides Prometheus metrics for the pairwise ranking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pairwise service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer
	constLabels      prometheus.Labels

	// Voting
	votesRecorded   *prometheus.CounterVec
	votesDuplicate  prometheus.Counter
	votesRejected   *prometheus.CounterVec
	matchupsServed  *prometheus.CounterVec
	samplerFailures prometheus.Counter
	fitLatency      *prometheus.HistogramVec
	reconciliations *prometheus.CounterVec

	// State size
	listsTracked prometheus.Gauge
	itemsTracked *prometheus.GaugeVec

	// Persistence
	persistenceSaves   *prometheus.CounterVec
	persistenceLoads   *prometheus.CounterVec
	persistenceLatency *prometheus.HistogramVec
	snapshotBytes      prometheus.Gauge

	// Save queue
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	queueEnqueued   prometheus.Counter
	queueSuperseded prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         *prometheus.CounterVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pairwise",
		subsystem:        "ranking",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
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
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels, Name: name, Help: help,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels, Name: name, Help: help,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.votesRecorded = m.counterVec("votes_recorded_total", "Votes applied to a list's win matrix", "list")
	m.votesDuplicate = m.counter("votes_duplicate_total", "Vote submissions ignored because their id was already applied")
	m.votesRejected = m.counterVec("votes_rejected_total", "Votes rejected before reaching the model", "reason")
	m.matchupsServed = m.counterVec("matchups_served_total", "Matchups produced by the sampler", "sampler")
	m.samplerFailures = m.counter("sampler_failures_total", "Sampling attempts that produced no matchup")
	m.fitLatency = m.histogramVec("fit_latency_milliseconds", "Bradley-Terry fit latency in milliseconds", "phase")
	m.reconciliations = m.counterVec("reconciliations_total", "List state alignments by outcome", "kind")

	m.listsTracked = m.gauge("lists_tracked", "Lists with stored comparison history")
	m.itemsTracked = m.itemsGauge()

	m.persistenceSaves = m.counterVec("persistence_saves_total", "State saves by result", "result")
	m.persistenceLoads = m.counterVec("persistence_loads_total", "State loads by result", "result")
	m.persistenceLatency = m.histogramVec("persistence_latency_milliseconds", "Blob store latency in milliseconds", "operation")
	m.snapshotBytes = m.gauge("snapshot_bytes", "Encoded size of the last saved state")

	m.queueSize = m.gauge("save_queue_size", "Snapshots waiting to be saved")
	m.queueCapacity = m.gauge("save_queue_capacity", "Maximum pending snapshots")
	m.queueEnqueued = m.counter("save_queue_enqueued_total", "Snapshots enqueued for saving")
	m.queueSuperseded = m.counter("save_queue_superseded_total", "Pending snapshots dropped in favour of a newer one")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")
	m.rateLimited = m.counterVec("rate_limited_total", "Requests rejected by the rate limiter", "endpoint")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component",
		"component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint",
		"endpoint", "method", "error_type")
}

func (m *Manager) itemsGauge() *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "items_tracked", Help: "Items per tracked list",
	}, []string{"list"})
}

// RecordVote counts a vote applied to list.
func RecordVote(list string) {
	globalManager.votesRecorded.WithLabelValues(list).Inc()
}

// RecordDuplicateVote counts a vote ignored by the deduper.
func RecordDuplicateVote() {
	globalManager.votesDuplicate.Inc()
}

// RecordRejectedVote counts a vote rejected for reason.
func RecordRejectedVote(reason string) {
	globalManager.votesRejected.WithLabelValues(reason).Inc()
}

// RecordMatchupServed counts a matchup produced by sampler.
func RecordMatchupServed(sampler string) {
	globalManager.matchupsServed.WithLabelValues(sampler).Inc()
}

// RecordSamplerFailure counts a sampling attempt that produced nothing.
func RecordSamplerFailure() {
	globalManager.samplerFailures.Inc()
}

// RecordFitLatency records fit latency in milliseconds. Phase is "initial"
// or "incremental".
func RecordFitLatency(phase string, latencyMs float64) {
	globalManager.fitLatency.WithLabelValues(phase).Observe(latencyMs)
}

// RecordReconciliation counts an alignment outcome.
func RecordReconciliation(kind string) {
	globalManager.reconciliations.WithLabelValues(kind).Inc()
}

// UpdateListsTracked sets the number of lists with history.
func UpdateListsTracked(count int) {
	globalManager.listsTracked.Set(float64(count))
}

// UpdateItemsTracked sets the item count of list.
func UpdateItemsTracked(list string, count int) {
	globalManager.itemsTracked.WithLabelValues(list).Set(float64(count))
}

// ForgetList drops per-list series.
func ForgetList(list string) {
	globalManager.itemsTracked.DeleteLabelValues(list)
	globalManager.votesRecorded.DeleteLabelValues(list)
}

// RecordPersistenceSave counts a save with result "ok" or "error".
func RecordPersistenceSave(result string) {
	globalManager.persistenceSaves.WithLabelValues(result).Inc()
}

// RecordPersistenceLoad counts a load with result "ok", "missing",
// "read_error" or "decode_error".
func RecordPersistenceLoad(result string) {
	globalManager.persistenceLoads.WithLabelValues(result).Inc()
}

// RecordPersistenceLatency records blob store latency for operation.
func RecordPersistenceLatency(operation string, latencyMs float64) {
	globalManager.persistenceLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateSnapshotBytes sets the encoded size of the last saved state.
func UpdateSnapshotBytes(size int) {
	globalManager.snapshotBytes.Set(float64(size))
}

// UpdateQueueSize sets the current save queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the save queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueSuperseded counts a pending snapshot dropped for a newer one.
func RecordQueueSuperseded() {
	globalManager.queueSuperseded.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
