// Package pagination provides parallel batch fetching for paginated catalog
// listings.
package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	MaxConcurrency int

	// Timeout per page fetch.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 5,
		Timeout:        15 * time.Second,
	}
}

// PageFetcher fetches a single page of items and reports the total page
// count of the listing.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, page int) (items []T, totalPages int, err error)
}

// PageResult is the outcome of fetching a single page.
type PageResult[T any] struct {
	Page  int
	Items []T
	Err   error
}

// BatchFetcher fetches every page of a listing in parallel using a worker
// pool. It exists for bulk flows (exports, prefetch warmups); interactive
// infinite-scroll lists load pages one at a time through the list
// controller instead.
type BatchFetcher[T any] struct {
	fetcher PageFetcher[T]
	config  Config
}

// NewBatchFetcher creates a batch fetcher.
func NewBatchFetcher[T any](fetcher PageFetcher[T], config Config) *BatchFetcher[T] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	return &BatchFetcher[T]{fetcher: fetcher, config: config}
}

// FetchAll fetches all pages and returns the items in page order.
// On a worker error the items fetched so far are returned alongside the
// error, so callers can keep partial data.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context) ([]T, error) {
	start := time.Now()

	firstItems, totalPages, err := bf.fetcher.FetchPage(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	log.Info().
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	if totalPages <= 1 {
		return firstItems, nil
	}

	byPage := make(map[int][]T, totalPages)
	byPage[1] = firstItems
	var mu sync.Mutex

	pageQueue := make(chan int, totalPages)
	results := make(chan PageResult[T], totalPages)

	go func() {
		for page := 2; page <= totalPages; page++ {
			pageQueue <- page
		}
		close(pageQueue)
	}()

	var wg sync.WaitGroup
	for i := 0; i < bf.config.MaxConcurrency; i++ {
		wg.Add(1)
		go bf.worker(ctx, pageQueue, results, &wg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for res := range results {
		if res.Err != nil {
			log.Warn().Err(res.Err).Int("page", res.Page).Msg("Page fetch failed")
			if firstErr == nil {
				firstErr = res.Err
			}
			continue
		}
		mu.Lock()
		byPage[res.Page] = res.Items
		mu.Unlock()
	}

	// Flatten in page order.
	items := make([]T, 0, len(firstItems)*totalPages)
	for page := 1; page <= totalPages; page++ {
		items = append(items, byPage[page]...)
	}

	if firstErr != nil {
		return items, fmt.Errorf("partial data (%d/%d pages): %w", len(byPage), totalPages, firstErr)
	}

	log.Info().
		Int("pages", totalPages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, nil
}

// worker processes pages from the queue until it is drained or the context
// is cancelled.
func (bf *BatchFetcher[T]) worker(ctx context.Context, pageQueue <-chan int, results chan<- PageResult[T], wg *sync.WaitGroup) {
	defer wg.Done()

	for page := range pageQueue {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		items, _, err := bf.fetcher.FetchPage(pageCtx, page)
		cancel()

		select {
		case results <- PageResult[T]{Page: page, Items: items, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}
