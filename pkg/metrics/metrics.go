// Package metrics contains the Prometheus collectors exposed by the
// proxy. All collectors are registered with the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Values for the result label of Requests
const (
	ResultHit              = "hit"
	ResultMiss             = "miss"
	ResultBadRequest       = "bad_request"
	ResultUpstreamStatus   = "upstream_status"
	ResultUpstreamError    = "upstream_error"
	ResultStorageReadError = "storage_read_error"
)

// Values for the operation label of StorageErrors
const (
	OpExists = "exists"
	OpRead   = "read"
	OpWrite  = "write"
)

var (
	// Requests counts handled proxy requests by their outcome
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediacache_requests_total",
			Help: "Total number of proxy requests by result",
		},
		[]string{"result"},
	)

	// StorageErrors counts failed storage operations
	StorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediacache_storage_errors_total",
			Help: "Total number of cache storage operation errors",
		},
		[]string{"operation"},
	)

	// UpstreamBytes counts bytes fetched from upstream on cache misses
	UpstreamBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediacache_upstream_bytes_total",
			Help: "Total number of bytes fetched from upstream",
		},
	)
)
