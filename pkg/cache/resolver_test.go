package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestResolver() *Resolver {
	// Negative interval: no background sweep, tests drive expiry via access.
	return NewResolver(ResolverConfig{SweepInterval: -1})
}

func TestResolver_DeduplicatesConcurrentCalls(t *testing.T) {
	r := newTestResolver()
	defer r.Close()

	var calls int32
	release := make(chan struct{})

	producer := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "result", nil
	}

	const callers = 25
	var wg sync.WaitGroup
	results := make([]any, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Resolve(context.Background(), "k", time.Minute, producer)
		}(i)
	}

	// Let all callers register or join before the producer settles.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("producer invoked %d times, want 1", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Errorf("caller %d: unexpected error %v", i, errs[i])
		}
		if results[i] != "result" {
			t.Errorf("caller %d: got %v, want %q", i, results[i], "result")
		}
	}
}

func TestResolver_ServesSettledValueWithinTTL(t *testing.T) {
	r := newTestResolver()
	defer r.Close()

	var calls int
	producer := func(ctx context.Context) (any, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 5; i++ {
		v, err := r.Resolve(context.Background(), "k", time.Minute, producer)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if v != 42 {
			t.Fatalf("Resolve() = %v, want 42", v)
		}
	}

	if calls != 1 {
		t.Errorf("producer invoked %d times, want 1", calls)
	}
}

func TestResolver_TTLIsCreationRelative(t *testing.T) {
	r := newTestResolver()
	defer r.Close()

	var calls int
	producer := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	ttl := 60 * time.Millisecond

	if _, err := r.Resolve(context.Background(), "k", ttl, producer); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// Repeated hits inside the window must not refresh the expiry.
	time.Sleep(40 * time.Millisecond)
	if _, err := r.Resolve(context.Background(), "k", ttl, producer); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("producer invoked %d times before expiry, want 1", calls)
	}

	// 40ms + 40ms is past the original deadline even though the last hit
	// was only 40ms ago.
	time.Sleep(40 * time.Millisecond)
	v, err := r.Resolve(context.Background(), "k", ttl, producer)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("producer invoked %d times after expiry, want 2", calls)
	}
	if v != 2 {
		t.Errorf("Resolve() = %v, want fresh value 2", v)
	}
}

func TestResolver_FailurePropagatesToAllJoinedCallers(t *testing.T) {
	r := newTestResolver()
	defer r.Close()

	wantErr := errors.New("upstream down")
	release := make(chan struct{})

	producer := func(ctx context.Context) (any, error) {
		<-release
		return nil, wantErr
	}

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Resolve(context.Background(), "k", time.Minute, producer)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, wantErr) {
			t.Errorf("caller %d: error = %v, want %v", i, err, wantErr)
		}
	}
}

func TestResolver_FailedEntryExpiresAndRetries(t *testing.T) {
	r := newTestResolver()
	defer r.Close()

	var calls int
	producer := func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	}

	ttl := 30 * time.Millisecond

	if _, err := r.Resolve(context.Background(), "k", ttl, producer); err == nil {
		t.Fatal("first Resolve() should fail")
	}

	// Inside the TTL the failure is shared, not retried.
	if _, err := r.Resolve(context.Background(), "k", ttl, producer); err == nil {
		t.Fatal("Resolve() inside TTL should serve the cached failure")
	}
	if calls != 1 {
		t.Fatalf("producer invoked %d times inside TTL, want 1", calls)
	}

	// A failed result must not poison the cache beyond the TTL.
	time.Sleep(50 * time.Millisecond)
	v, err := r.Resolve(context.Background(), "k", ttl, producer)
	if err != nil {
		t.Fatalf("Resolve() after expiry error = %v", err)
	}
	if v != "ok" {
		t.Errorf("Resolve() = %v, want %q", v, "ok")
	}
}

func TestResolver_Invalidate(t *testing.T) {
	r := newTestResolver()
	defer r.Close()

	var calls int
	producer := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	r.Resolve(context.Background(), "a", time.Minute, producer)
	r.Resolve(context.Background(), "b", time.Minute, producer)

	r.Invalidate("a")

	v, _ := r.Resolve(context.Background(), "a", time.Minute, producer)
	if v != 3 {
		t.Errorf("Resolve(a) after Invalidate = %v, want fresh value 3", v)
	}

	// "b" is untouched.
	v, _ = r.Resolve(context.Background(), "b", time.Minute, producer)
	if v != 2 {
		t.Errorf("Resolve(b) = %v, want cached value 2", v)
	}
}

func TestResolver_InvalidateAll(t *testing.T) {
	r := newTestResolver()
	defer r.Close()

	var calls int
	producer := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	r.Resolve(context.Background(), "a", time.Minute, producer)
	r.Resolve(context.Background(), "b", time.Minute, producer)

	r.InvalidateAll()

	if r.Len() != 0 {
		t.Errorf("Len() = %d after InvalidateAll, want 0", r.Len())
	}

	r.Resolve(context.Background(), "a", time.Minute, producer)
	if calls != 3 {
		t.Errorf("producer invoked %d times, want 3 (fresh call after InvalidateAll)", calls)
	}
}

func TestResolver_JoinRespectsCallerContext(t *testing.T) {
	r := newTestResolver()
	defer r.Close()

	release := make(chan struct{})
	defer close(release)

	producer := func(ctx context.Context) (any, error) {
		<-release
		return "slow", nil
	}

	go r.Resolve(context.Background(), "k", time.Minute, producer)
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve(ctx, "k", time.Minute, producer)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("joined caller error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("joined caller did not unblock on context cancellation")
	}
}

func TestResolver_Sweep(t *testing.T) {
	r := newTestResolver()
	defer r.Close()

	producer := func(ctx context.Context) (any, error) { return 1, nil }

	r.Resolve(context.Background(), "short", 10*time.Millisecond, producer)
	r.Resolve(context.Background(), "long", time.Minute, producer)

	time.Sleep(20 * time.Millisecond)
	r.sweep(time.Now())

	if r.Len() != 1 {
		t.Errorf("Len() = %d after sweep, want 1 (only unexpired entry)", r.Len())
	}
}

func TestResolver_Close(t *testing.T) {
	r := newTestResolver()
	r.Close()

	_, err := r.Resolve(context.Background(), "k", time.Minute, func(ctx context.Context) (any, error) {
		return nil, nil
	})
	if !errors.Is(err, ErrResolverClosed) {
		t.Errorf("Resolve() after Close error = %v, want ErrResolverClosed", err)
	}
}
