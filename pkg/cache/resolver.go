package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrResolverClosed is returned by Resolve after Close.
	ErrResolverClosed = errors.New("resolver closed")
)

// DefaultSweepInterval is how often the background sweep prunes expired
// entries when no interval is configured.
const DefaultSweepInterval = 30 * time.Second

// Producer fetches the value for a key on a cache miss.
type Producer func(ctx context.Context) (any, error)

// Resolver is the in-process fetch cache and request deduplicator.
//
// It guarantees at most one in-flight producer per key: callers that ask
// for a key while its producer is pending join the pending outcome, and
// callers within the TTL window after settlement get the cached result
// without re-invoking the producer. TTL is measured from registration,
// not from last access.
type Resolver struct {
	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	logger zerolog.Logger

	stopSweep chan struct{}
	stopOnce  sync.Once
}

// ResolverConfig holds resolver configuration.
type ResolverConfig struct {
	// SweepInterval is how often expired entries are pruned in the
	// background. Zero means DefaultSweepInterval; negative disables
	// the sweep (expiry is still enforced on access).
	SweepInterval time.Duration

	// Logger is the component logger. The zero value logs nowhere.
	Logger zerolog.Logger
}

// NewResolver creates a resolver and starts its background sweep.
func NewResolver(cfg ResolverConfig) *Resolver {
	r := &Resolver{
		entries:   make(map[string]*entry),
		logger:    cfg.Logger,
		stopSweep: make(chan struct{}),
	}

	interval := cfg.SweepInterval
	if interval == 0 {
		interval = DefaultSweepInterval
	}
	if interval > 0 {
		go r.sweepLoop(interval)
	}

	return r
}

// Resolve returns the value for key, deduplicating concurrent calls.
//
// If an unexpired entry exists it is served: settled entries return
// immediately, pending entries block until the producer settles (or ctx is
// done). Otherwise the producer is registered under key before it runs, so
// every concurrent caller inside the pending window attaches to the same
// outcome, and the entry expires ttl after registration regardless of
// whether the producer succeeded.
func (r *Resolver) Resolve(ctx context.Context, key string, ttl time.Duration, produce Producer) (any, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrResolverClosed
	}

	now := time.Now()
	if e, ok := r.entries[key]; ok && !e.expired(now) {
		r.mu.Unlock()
		return r.join(ctx, e)
	}

	// Miss (or expired entry being replaced). Register before producing
	// so concurrent callers in the same window join this entry.
	e := &entry{
		key:       key,
		done:      make(chan struct{}),
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	r.entries[key] = e
	CacheMisses.Inc()
	r.mu.Unlock()

	r.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("cache miss, invoking producer")

	value, err := produce(ctx)
	e.value, e.err = value, err
	close(e.done)

	if err != nil {
		CacheErrors.WithLabelValues("produce").Inc()
		r.logger.Debug().Str("key", key).Err(err).Msg("producer failed")
	}
	return value, err
}

// join attaches a caller to an existing entry.
func (r *Resolver) join(ctx context.Context, e *entry) (any, error) {
	if e.settled() {
		CacheHits.WithLabelValues("memory").Inc()
		return e.value, e.err
	}

	CacheJoins.Inc()
	select {
	case <-e.done:
		return e.value, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate removes the entry for key immediately. The next Resolve for
// that key invokes a fresh producer.
func (r *Resolver) Invalidate(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; ok {
		delete(r.entries, key)
		CacheEvictions.WithLabelValues("invalidate").Inc()
	}
}

// InvalidateAll removes every entry.
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.entries)
	r.entries = make(map[string]*entry)
	if n > 0 {
		CacheEvictions.WithLabelValues("invalidate").Add(float64(n))
	}
}

// Len returns the number of registered entries, expired or not.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close stops the background sweep and rejects further Resolve calls.
// Callers already joined to pending entries still receive their outcome.
func (r *Resolver) Close() {
	r.stopOnce.Do(func() { close(r.stopSweep) })
	r.mu.Lock()
	r.closed = true
	r.entries = make(map[string]*entry)
	r.mu.Unlock()
}

// sweepLoop prunes expired entries so the map does not grow unbounded.
// Access-time expiry checks remain authoritative; the sweep is hygiene.
func (r *Resolver) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopSweep:
			return
		case <-ticker.C:
			r.sweep(time.Now())
		}
	}
}

func (r *Resolver) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, e := range r.entries {
		if e.expired(now) {
			delete(r.entries, key)
			removed++
		}
	}
	if removed > 0 {
		CacheEvictions.WithLabelValues("sweep").Add(float64(removed))
		r.logger.Debug().Int("removed", removed).Msg("swept expired cache entries")
	}
}
