// Package metrics defines Prometheus metrics for auditflow.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auditflow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditflow_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditflow_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	EventsEnqueued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auditflow_events_enqueued_total",
			Help: "Events accepted onto the ingestion queue",
		},
	)

	EventsIndexed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auditflow_events_indexed_total",
			Help: "Events written to the search index",
		},
	)

	IndexFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auditflow_index_failures_total",
			Help: "Failed index write attempts",
		},
	)

	EventsQuarantined = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auditflow_events_quarantined_total",
			Help: "Queue items moved to the dead-letter table",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "auditflow_ingest_queue_depth",
			Help: "Current ingestion queue depth",
		},
	)

	WatermarkAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "auditflow_index_watermark_age_seconds",
			Help: "Seconds since the last successful indexing cycle",
		},
	)

	PumpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditflow_search_pumps_total",
			Help: "Active search pump requests by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		EventsEnqueued, EventsIndexed, IndexFailures, EventsQuarantined,
		QueueDepth, WatermarkAge, PumpsTotal,
	)
}
