// Package debounce converts a rapidly changing value into a stable one that
// is emitted only after a quiet period, gating expensive downstream work
// such as search-as-you-type queries.
package debounce

import (
	"sync"
	"time"
)

// Debouncer emits the latest value passed to Set once delay has elapsed
// with no newer value arriving. Every Set restarts the quiet period and
// cancels the previously scheduled emission, so a burst of inputs produces
// exactly one emission carrying the final value.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	emit    func(T)
	timer   *time.Timer
	latest  T
	gen     uint64
	stopped bool
}

// New creates a debouncer that calls emit with the settled value. The emit
// callback runs on a timer goroutine; it must not block for long.
func New[T any](delay time.Duration, emit func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, emit: emit}
}

// Set records a new raw value and restarts the quiet-period window.
func (d *Debouncer[T]) Set(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.latest = value
	if d.timer != nil {
		d.timer.Stop()
	}
	// Stop can lose the race with an already-running timer goroutine; the
	// generation check in fire keeps that stale goroutine from emitting
	// alongside the one scheduled here.
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	value := d.latest
	emit := d.emit
	d.timer = nil
	d.mu.Unlock()

	emit(value)
}

// Flush emits the latest value immediately, canceling any pending
// emission. It does nothing when no emission is pending.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.stopped || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer.Stop()
	d.gen++
	value := d.latest
	emit := d.emit
	d.timer = nil
	d.mu.Unlock()

	emit(value)
}

// Stop cancels any pending emission. After Stop the debouncer never emits
// again, so tearing down the consumer is safe even with inputs in flight.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
