// Package cache provides request deduplication and TTL caching for catalog
// fetches.
//
// The Resolver guarantees at-most-one-concurrent-request-per-key: the first
// caller for a key registers a pending entry and runs the producer, and every
// concurrent caller for the same key inside that window joins the pending
// outcome instead of issuing its own request. Settled results are served
// from memory until the entry's TTL elapses. TTL is measured from
// registration, never refreshed on access.
//
// # Basic Usage
//
//	resolver := cache.NewResolver(cache.ResolverConfig{})
//	defer resolver.Close()
//
//	value, err := resolver.Resolve(ctx, q.Key(), 30*time.Second,
//		func(ctx context.Context) (any, error) {
//			return fetchPage(ctx, q)
//		})
//
// # Failure Semantics
//
// A failed producer settles its entry with the error and propagates it to
// every joined caller. The entry still expires at its creation-relative
// deadline, so a later Resolve retries instead of being stuck behind a
// cached failure. Invalidate forces an immediate retry.
//
// # Second Level
//
// The Store offers an optional Redis-backed layer for settled payloads,
// shared across processes. In-flight deduplication remains purely
// in-process; Redis never holds pending entries.
//
// # Metrics
//
//   - catalog_cache_hits_total{layer} - hits by layer (memory, redis)
//   - catalog_cache_misses_total - misses
//   - catalog_cache_joins_total - callers deduplicated onto in-flight requests
//   - catalog_cache_evictions_total{cause} - removals (sweep, invalidate)
//   - catalog_cache_size_bytes{layer} - stored payload bytes
//   - catalog_cache_errors_total{operation} - operation errors
package cache
