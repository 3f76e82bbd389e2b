// Package list implements the paginated list controller: an explicit state
// machine over a growing product collection, driving incremental page loads
// from viewport movement. It is independent of any rendering mechanism; the
// presentation layer observes it through Items/State and the OnChange hook.
package list

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/storefront-labs/catalog-client/pkg/client"
	"github.com/storefront-labs/catalog-client/pkg/query"
	"github.com/storefront-labs/catalog-client/pkg/virtual"
)

// Prometheus metrics for list controller operations.
var (
	listPageLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_list_page_loads_total",
		Help: "Total list page loads by stage and status",
	}, []string{"stage", "status"}) // stage: "first", "next"

	listResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_list_resets_total",
		Help: "Total list resets caused by query changes",
	})
)

// State is the list controller state.
type State string

const (
	// StateEmpty is the initial state before any query was set.
	StateEmpty State = "empty"

	// StateLoadingFirstPage means the first page of the current query is
	// in flight and the collection is empty.
	StateLoadingFirstPage State = "loading_first_page"

	// StateReady means at least one page is loaded and nothing is in flight.
	StateReady State = "ready"

	// StateLoadingNextPage means a follow-up page is in flight; loaded
	// items remain visible.
	StateLoadingNextPage State = "loading_next_page"

	// StateErrored means the last load failed. Items loaded before the
	// failure are preserved and the failed stage can be retried.
	StateErrored State = "errored"
)

// Fetcher fetches one listing page. *client.Client satisfies it through
// ClientFetcher.
type Fetcher interface {
	FetchPage(ctx context.Context, q query.Query) (*client.ProductPage, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, q query.Query) (*client.ProductPage, error)

// FetchPage implements Fetcher.
func (f FetcherFunc) FetchPage(ctx context.Context, q query.Query) (*client.ProductPage, error) {
	return f(ctx, q)
}

// ClientFetcher adapts a catalog client to the Fetcher interface.
func ClientFetcher(c *client.Client) Fetcher {
	return FetcherFunc(func(ctx context.Context, q query.Query) (*client.ProductPage, error) {
		return c.ListProducts(ctx, q)
	})
}

// Cursor tracks pagination progress for the current query.
type Cursor struct {
	// Page is the last successfully loaded page (0 before the first).
	Page int

	// HasNextPage reports whether the server has more pages.
	HasNextPage bool
}

// Config holds list controller configuration.
type Config struct {
	// Fetcher loads listing pages (required).
	Fetcher Fetcher

	// Limit is the page size. Zero means query.DefaultLimit.
	Limit int

	// Overscan is the trailing threshold in items: when the visible range
	// reaches within Overscan items of the end of loaded data, the next
	// page is requested. Zero means DefaultOverscan.
	Overscan int

	// OnChange is invoked (outside the controller lock) after every
	// observable state change. Optional.
	OnChange func()
}

// DefaultOverscan is the default trailing threshold in items.
const DefaultOverscan = 4

// Controller owns one rendered list: its item collection, page cursor and
// state machine. All next-page loads are serialized per controller; a
// LoadNextPage call while one is in flight is a no-op.
type Controller struct {
	mu sync.Mutex

	fetcher  Fetcher
	limit    int
	overscan int
	onChange func()
	logger   zerolog.Logger

	filters    query.Filters
	filterKey  string
	generation uint64

	items  *Collection
	cursor Cursor
	state  State
	err    error

	fetchingNext bool
	closed       bool
}

// New creates a list controller in the Empty state.
func New(cfg Config) (*Controller, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.Limit <= 0 {
		cfg.Limit = query.DefaultLimit
	}
	if cfg.Overscan <= 0 {
		cfg.Overscan = DefaultOverscan
	}

	return &Controller{
		fetcher:  cfg.Fetcher,
		limit:    cfg.Limit,
		overscan: cfg.Overscan,
		onChange: cfg.OnChange,
		logger:   log.With().Str("component", "list-controller").Logger(),
		items:    NewCollection(),
		state:    StateEmpty,
	}, nil
}

// SetQuery switches the controller to a new logical query. The collection
// and cursor are reset wholesale before the first page of the new query is
// requested, so stale items never render alongside the new query's loading
// state. Setting the same query again is a no-op unless the previous load
// failed.
func (c *Controller) SetQuery(ctx context.Context, f query.Filters) error {
	key := f.FilterKey()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if key == c.filterKey && c.state != StateEmpty && c.state != StateErrored {
		c.mu.Unlock()
		return nil
	}

	c.generation++
	gen := c.generation
	c.filters = f
	c.filterKey = key
	c.items.Reset()
	c.cursor = Cursor{}
	c.err = nil
	c.fetchingNext = false
	c.state = StateLoadingFirstPage
	listResets.Inc()
	q := query.Query{Filters: c.filters, Page: 1, Limit: c.limit}
	c.logger.Debug().Str("filter_key", key).Msg("Query changed, list reset")
	c.mu.Unlock()
	c.notify()

	return c.loadFirstPage(ctx, gen, q)
}

// Reload refetches the current query from scratch.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.state == StateEmpty {
		c.mu.Unlock()
		return nil
	}
	c.generation++
	gen := c.generation
	c.items.Reset()
	c.cursor = Cursor{}
	c.err = nil
	c.fetchingNext = false
	c.state = StateLoadingFirstPage
	q := query.Query{Filters: c.filters, Page: 1, Limit: c.limit}
	c.mu.Unlock()
	c.notify()

	return c.loadFirstPage(ctx, gen, q)
}

func (c *Controller) loadFirstPage(ctx context.Context, gen uint64, q query.Query) error {
	page, err := c.fetcher.FetchPage(ctx, q)

	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.state = StateErrored
		c.err = err
		listPageLoads.WithLabelValues("first", "error").Inc()
		c.logger.Warn().Err(err).Msg("First page load failed")
		c.mu.Unlock()
		c.notify()
		return err
	}

	c.items.Append(page.Data)
	c.cursor = Cursor{Page: 1, HasNextPage: page.HasNextPage}
	c.state = StateReady
	listPageLoads.WithLabelValues("first", "ok").Inc()
	c.logger.Debug().Int("items", c.items.Len()).Bool("has_next", page.HasNextPage).Msg("First page loaded")
	c.mu.Unlock()
	c.notify()
	return nil
}

// LoadNextPage requests the next page. It is a no-op while a load is
// already in flight, when there is no next page, or before the first page
// has loaded, so repeated threshold crossings during one fetch collapse
// into a single request.
func (c *Controller) LoadNextPage(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.state != StateReady || !c.cursor.HasNextPage || c.fetchingNext {
		c.mu.Unlock()
		return nil
	}

	gen := c.generation
	nextPage := c.cursor.Page + 1
	c.fetchingNext = true
	c.state = StateLoadingNextPage
	q := query.Query{Filters: c.filters, Page: nextPage, Limit: c.limit}
	c.mu.Unlock()
	c.notify()

	page, err := c.fetcher.FetchPage(ctx, q)

	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return nil
	}
	c.fetchingNext = false
	if err != nil {
		// Loaded items stay; only the trailing placeholder errors.
		c.state = StateErrored
		c.err = err
		listPageLoads.WithLabelValues("next", "error").Inc()
		c.logger.Warn().Err(err).Int("page", nextPage).Msg("Next page load failed")
		c.mu.Unlock()
		c.notify()
		return err
	}

	c.items.Append(page.Data)
	c.cursor = Cursor{Page: nextPage, HasNextPage: page.HasNextPage}
	c.state = StateReady
	c.err = nil
	listPageLoads.WithLabelValues("next", "ok").Inc()
	c.logger.Debug().Int("page", nextPage).Int("items", c.items.Len()).Msg("Next page loaded")
	c.mu.Unlock()
	c.notify()
	return nil
}

// Retry re-issues the stage that failed: the first page when nothing
// loaded, the next page otherwise.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.state != StateErrored {
		c.mu.Unlock()
		return nil
	}
	if c.cursor.Page == 0 {
		gen := c.generation
		c.err = nil
		c.state = StateLoadingFirstPage
		q := query.Query{Filters: c.filters, Page: 1, Limit: c.limit}
		c.mu.Unlock()
		c.notify()
		return c.loadFirstPage(ctx, gen, q)
	}
	c.err = nil
	c.state = StateReady
	c.mu.Unlock()
	return c.LoadNextPage(ctx)
}

// OnRangeChange feeds the current visible item range into the controller.
// When the range enters the trailing threshold and a next page exists, the
// next load is triggered; while one is in flight further crossings are
// no-ops.
func (c *Controller) OnRangeChange(ctx context.Context, r virtual.Range) error {
	c.mu.Lock()
	loaded := c.items.Len()
	overscan := c.overscan
	hasNext := c.cursor.HasNextPage
	c.mu.Unlock()

	if !hasNext || !virtual.NearEnd(r, loaded, overscan) {
		return nil
	}
	return c.LoadNextPage(ctx)
}

// OnRowRangeChange feeds a visible row window from a multi-column grid into
// the controller. The row range is widened to the item indices it covers
// (a trailing placeholder row maps past the loaded items, which still
// counts as entering the threshold) and handled like OnRangeChange.
func (c *Controller) OnRowRangeChange(ctx context.Context, r virtual.Range, columns int) error {
	if r.Empty() {
		return nil
	}
	if columns < 1 {
		columns = 1
	}
	items := virtual.Range{
		First: r.First * columns,
		Last:  r.Last*columns + columns - 1,
	}
	return c.OnRangeChange(ctx, items)
}

// Items returns a snapshot of the loaded collection.
func (c *Controller) Items() []client.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Items()
}

// Len returns the number of loaded items.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error of the last failed load, if the controller is in
// the Errored state.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Cursor returns the current pagination cursor.
func (c *Controller) Cursor() Cursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// HasNextPage reports whether more pages exist for the current query.
func (c *Controller) HasNextPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor.HasNextPage
}

// Close detaches the controller. In-flight completions are discarded
// instead of mutating a closed controller.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// stale reports whether a completion belongs to a superseded query or a
// closed controller. Caller must hold the lock.
func (c *Controller) stale(gen uint64) bool {
	return c.closed || gen != c.generation
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}
