// Package client provides the catalog HTTP client with request
// deduplication, TTL caching, and error handling.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/storefront-labs/catalog-client/pkg/cache"
	"github.com/storefront-labs/catalog-client/pkg/pagination"
	"github.com/storefront-labs/catalog-client/pkg/query"
)

// Prometheus metrics for catalog client operations.
var (
	catalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total catalog requests by endpoint and status",
	}, []string{"endpoint", "status"})

	catalogRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Catalog request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	catalogErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_errors_total",
		Help: "Total catalog errors by class",
	}, []string{"class"})
)

// Client is the catalog API client. All fetches are routed through an
// in-process deduplicating TTL cache, so concurrent callers asking for the
// same logical query share a single network request, and repeated callers
// within the TTL window are served without touching the network.
type Client struct {
	httpClient *http.Client
	resolver   *cache.Resolver
	store      *cache.Store
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the catalog API base URL (required).
	BaseURL string

	// Redis enables the optional shared second cache level for settled
	// payloads. Nil means in-process caching only.
	Redis *redis.Client

	// CacheTTL is how long resolved results are served before a fresh
	// request is issued. Measured from registration, not last access.
	CacheTTL time.Duration

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// Retry controls backoff behavior for transient failures.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		CacheTTL:  30 * time.Second,
		Timeout:   10 * time.Second,
		UserAgent: "catalog-client/1.0",
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	logger := log.With().Str("component", "catalog-client").Logger()

	var store *cache.Store
	if cfg.Redis != nil {
		store = cache.NewStore(cfg.Redis)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		resolver: cache.NewResolver(cache.ResolverConfig{Logger: logger}),
		store:    store,
		config:   cfg,
		logger:   logger,
	}, nil
}

// ListProducts fetches one page of a product listing. Concurrent calls for
// the same query share a single request; results are cached for CacheTTL.
func (c *Client) ListProducts(ctx context.Context, q query.Query) (*ProductPage, error) {
	if err := q.Validate(); err != nil {
		catalogErrorsTotal.WithLabelValues(string(ErrorClassValidation)).Inc()
		return nil, &APIError{
			Class:   ErrorClassValidation,
			Message: "invalid query",
			Err:     err,
		}
	}

	key := q.Key()
	v, err := c.resolver.Resolve(ctx, key, c.config.CacheTTL, func(ctx context.Context) (any, error) {
		return c.fetchPage(ctx, q, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ProductPage), nil
}

// GetProduct fetches a single product by identifier.
// Returns an error wrapping ErrNotFound when the identifier is unknown.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	if id == "" {
		return nil, &APIError{Class: ErrorClassValidation, Message: "empty product id"}
	}

	key := query.ProductKey(id)
	v, err := c.resolver.Resolve(ctx, key, c.config.CacheTTL, func(ctx context.Context) (any, error) {
		body, err := c.getJSON(ctx, "/products/{id}", c.config.BaseURL+"/products/"+id)
		if err != nil {
			return nil, err
		}
		var p Product
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		return &p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Product), nil
}

// ListCategories fetches the category listing.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	v, err := c.resolver.Resolve(ctx, query.CategoriesKey, c.config.CacheTTL, func(ctx context.Context) (any, error) {
		body, err := c.getJSON(ctx, "/categories", c.config.BaseURL+"/categories")
		if err != nil {
			return nil, err
		}
		var resp categoriesResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode categories: %w", err)
		}
		return resp.Data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Category), nil
}

// InvalidateQuery drops the cached result for a query, forcing the next
// ListProducts call to hit the network.
func (c *Client) InvalidateQuery(ctx context.Context, q query.Query) {
	key := q.Key()
	c.resolver.Invalidate(key)
	if c.store != nil {
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("Failed to invalidate store entry")
		}
	}
}

// InvalidateAll drops every in-process cache entry.
func (c *Client) InvalidateAll() {
	c.resolver.InvalidateAll()
}

// PageFetcher adapts the client to the pagination batch fetcher for a
// fixed filter set.
func (c *Client) PageFetcher(q query.Query) pagination.PageFetcher[Product] {
	return queryPageFetcher{c: c, q: q}
}

// Close releases client resources.
func (c *Client) Close() error {
	c.resolver.Close()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// fetchPage performs the network fetch for one listing page, consulting the
// shared Redis level first when configured.
func (c *Client) fetchPage(ctx context.Context, q query.Query, key string) (*ProductPage, error) {
	if c.store != nil {
		data, err := c.store.Get(ctx, key)
		if err == nil {
			var page ProductPage
			if err := json.Unmarshal(data, &page); err == nil {
				c.logger.Debug().Str("key", key).Msg("Serving page from shared store")
				return &page, nil
			}
			c.logger.Warn().Str("key", key).Msg("Corrupt store entry, refetching")
		} else if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("key", key).Msg("Store get error")
		}
	}

	rawURL := c.config.BaseURL + "/products"
	if enc := q.Values().Encode(); enc != "" {
		rawURL += "?" + enc
	}

	body, err := c.getJSON(ctx, "/products", rawURL)
	if err != nil {
		return nil, err
	}

	var page ProductPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode product page: %w", err)
	}

	if c.store != nil {
		if err := c.store.Set(ctx, key, body, c.config.CacheTTL); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("Failed to write shared store")
		}
	}

	return &page, nil
}

// getJSON executes a GET request with retry and classification. The
// endpoint label is the templated path used for metrics.
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		catalogRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	var body []byte

	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return &APIError{Class: ErrorClassValidation, Message: "create request", Err: err}
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			catalogErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			catalogRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
			return &APIError{Class: ErrorClassNetwork, Message: "request failed", Err: err}
		}
		defer resp.Body.Close()

		catalogRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			apiErr := c.classifyStatus(resp)
			catalogErrorsTotal.WithLabelValues(string(apiErr.Class)).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(apiErr.Class)).
				Msg("Catalog request error")
			return apiErr
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			catalogErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return &APIError{Class: ErrorClassNetwork, Message: "read response body", Err: err}
		}
		return nil
	}

	if err := retryWithBackoff(ctx, c.config.Retry, c.logger, attempt); err != nil {
		return nil, err
	}
	return body, nil
}

// classifyStatus builds an APIError from an HTTP error status.
func (c *Client) classifyStatus(resp *http.Response) *APIError {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &APIError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassNotFound,
			Message:    resp.Status,
			Err:        ErrNotFound,
		}
	case resp.StatusCode >= 500:
		return &APIError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassServer,
			Message:    resp.Status,
		}
	default:
		return &APIError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassValidation,
			Message:    resp.Status,
		}
	}
}

// queryPageFetcher adapts ListProducts to pagination.PageFetcher.
type queryPageFetcher struct {
	c *Client
	q query.Query
}

func (f queryPageFetcher) FetchPage(ctx context.Context, page int) ([]Product, int, error) {
	q := f.q
	q.Page = page

	p, err := f.c.ListProducts(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	limit := p.Limit
	if limit <= 0 {
		limit = query.DefaultLimit
	}
	totalPages := (p.Total + limit - 1) / limit
	return p.Data, totalPages, nil
}
