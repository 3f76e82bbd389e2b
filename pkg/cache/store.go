package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is an optional Redis-backed second cache level for resolved
// payloads. Deduplication of in-flight requests stays in-process in the
// Resolver; the Store only serves settled results, so multiple processes
// sharing a Redis instance share each other's completed fetches.
type Store struct {
	redis *redis.Client
}

// NewStore creates a Redis-backed store.
func NewStore(redisClient *redis.Client) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Store{redis: redisClient}
}

// Get retrieves a cached payload by key.
// Returns ErrCacheMiss if the key doesn't exist or has expired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	CacheHits.WithLabelValues("redis").Inc()
	return data, nil
}

// Set stores a payload under key with the given TTL. Redis removes the
// key when the TTL elapses; non-positive TTLs are not stored at all.
func (s *Store) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, key, payload, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheSize.WithLabelValues("redis").Add(float64(len(payload)))
	return nil
}

// Delete removes a cached payload.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
