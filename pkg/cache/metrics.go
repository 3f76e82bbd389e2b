package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (memory, redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Total number of catalog cache hits",
		},
		[]string{"layer"}, // "memory", "redis"
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Total number of catalog cache misses",
		},
	)

	// CacheJoins tracks callers that attached to an already in-flight request
	CacheJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_cache_joins_total",
			Help: "Total number of callers deduplicated onto an in-flight request",
		},
	)

	// CacheEvictions tracks entry removals by cause
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_evictions_total",
			Help: "Total number of cache entries removed",
		},
		[]string{"cause"}, // "sweep", "invalidate"
	)

	// CacheSize tracks cache size in bytes by layer
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_cache_size_bytes",
			Help: "Current size of catalog cache in bytes",
		},
		[]string{"layer"}, // "redis"
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "produce", "get", "set", "delete"
	)
)
