// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransformTotal tracks normalization attempts per entity and outcome
	TransformTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legacybooks_transform_total",
			Help: "Total number of legacy payload normalizations",
		},
		[]string{"entity", "outcome"},
	)

	// DownstreamErrorsTotal tracks classified failures per operation and kind
	DownstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legacybooks_downstream_errors_total",
			Help: "Total number of classified downstream failures",
		},
		[]string{"operation", "kind"},
	)

	// HTTPLatency tracks legacy API request latency
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "legacybooks_http_latency_seconds",
			Help:    "Legacy API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// RejectsStored tracks rejected payloads handed to the reject store
	RejectsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legacybooks_rejects_stored_total",
			Help: "Total number of rejected payloads stored for triage",
		},
		[]string{"entity"},
	)

	// SyncRuns tracks sync attempts per outcome
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legacybooks_sync_runs_total",
			Help: "Total number of book sync runs",
		},
		[]string{"outcome"},
	)

	// DBConnectionPoolUsage tracks reject store connection pool usage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "legacybooks_db_connection_pool_usage_percent",
			Help: "Reject store connection pool usage percentage",
		},
	)
)
