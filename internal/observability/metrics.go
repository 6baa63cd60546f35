package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	transitionsTotal       *prometheus.CounterVec
	scoreTotals            *prometheus.HistogramVec
	scoreCacheLookups      *prometheus.CounterVec
	eventsPublishedTotal   *prometheus.CounterVec
	eventsPublishFailTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appraisal_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "appraisal_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appraisal_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appraisal_transitions_total",
			Help: "Committed workflow transitions by source and target state.",
		}, []string{"from", "to"})

		scoreTotals = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "appraisal_score_total",
			Help:    "Distribution of computed total scores.",
			Buckets: []float64{10, 20, 30, 40, 50, 75, 100, 150, 200},
		}, []string{"form_type"})

		scoreCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appraisal_score_cache_lookups_total",
			Help: "Score cache lookups by result.",
		}, []string{"result"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appraisal_events_published_total",
			Help: "Workflow events published by broker.",
		}, []string{"broker"})

		eventsPublishFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appraisal_events_publish_failures_total",
			Help: "Workflow events that could not be published.",
		}, []string{"broker"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			transitionsTotal,
			scoreTotals,
			scoreCacheLookups,
			eventsPublishedTotal,
			eventsPublishFailTotal,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Transitions counts committed workflow transitions.
func Transitions() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionsTotal
}

// ScoreTotals observes computed total scores per form type.
func ScoreTotals() *prometheus.HistogramVec {
	RegisterMetrics()
	return scoreTotals
}

// ScoreCacheLookups counts score cache hits and misses.
func ScoreCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return scoreCacheLookups
}

// EventsPublished counts workflow events delivered to a broker.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// EventPublishFailures counts workflow events a broker rejected.
func EventPublishFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishFailTotal
}
