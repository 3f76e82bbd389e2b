// Package metrics provides the centralized Prometheus metrics registry for
// the catalog client. All metrics are defined in their respective packages
// (cache, client, list) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the catalog client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - catalog_cache_hits_total{layer} (Counter): Cache hits by layer (memory, redis)
//   - catalog_cache_misses_total (Counter): Cache misses
//   - catalog_cache_joins_total (Counter): Callers deduplicated onto an in-flight request
//   - catalog_cache_evictions_total{cause} (Counter): Entry removals (sweep, invalidate)
//   - catalog_cache_size_bytes{layer} (Gauge): Stored payload bytes
//   - catalog_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - catalog_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - catalog_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - catalog_errors_total{class} (Counter): Errors by class (network, server, validation, not_found)
//
// Retry Metrics (pkg/client):
//   - catalog_retries_total{error_class} (Counter): Retry attempts by error class
//   - catalog_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - catalog_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// List Metrics (pkg/list):
//   - catalog_list_page_loads_total{stage, status} (Counter): Page loads by stage (first, next)
//   - catalog_list_resets_total (Counter): List resets caused by query changes
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(catalog_cache_hits_total[5m])) /
//   (sum(rate(catalog_cache_hits_total[5m])) + sum(rate(catalog_cache_misses_total[5m])))
//
//   # Deduplication Rate
//   rate(catalog_cache_joins_total[5m]) / rate(catalog_requests_total[5m])
//
//   # Request Error Rate
//   rate(catalog_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(catalog_request_duration_seconds_bucket[5m]))
