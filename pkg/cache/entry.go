// Package cache provides the fetch cache and request deduplicator that sits
// between callers and the catalog API.
package cache

import (
	"time"
)

// entry is a single keyed result slot. It is created before its producer
// runs, so concurrent callers for the same key can attach to the pending
// outcome instead of issuing duplicate requests. Once done is closed the
// entry is settled and value/err are immutable.
type entry struct {
	key string

	// done is closed when the producer settles. value and err must not
	// be read before that.
	done chan struct{}

	value any
	err   error

	// createdAt is the registration time. expiresAt is always
	// createdAt+ttl: expiry is creation-relative and is never refreshed
	// by later hits.
	createdAt time.Time
	expiresAt time.Time
}

// settled reports whether the producer has completed (successfully or not).
func (e *entry) settled() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// expired reports whether the entry is past its creation-relative TTL.
func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// remaining returns the time until expiry, or 0 if already expired.
func (e *entry) remaining(now time.Time) time.Duration {
	d := e.expiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
