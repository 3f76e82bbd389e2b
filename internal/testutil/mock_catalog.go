// Package testutil provides testing utilities for the catalog client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockProduct mirrors the catalog API product shape.
type MockProduct struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MockResponse overrides the behavior for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockCatalog is a configurable mock catalog API server for testing. It
// serves a seeded product corpus through the real listing semantics
// (search, category, price range, stock flag, sorting, paging) so tests
// exercise realistic pagination envelopes.
type MockCatalog struct {
	server   *httptest.Server
	mu       sync.RWMutex
	products []MockProduct
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	PathCounts   map[string]int
}

// NewMockCatalog creates a mock catalog server seeded with total products
// spread across a few categories.
func NewMockCatalog(total int) *MockCatalog {
	mock := &MockCatalog{
		products: SeedProducts(total),
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.route(w, r)
	}))

	return mock
}

// SeedProducts builds a deterministic product corpus.
func SeedProducts(total int) []MockProduct {
	categories := []string{"electronics", "books", "clothing", "home"}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	products := make([]MockProduct, 0, total)
	for i := 0; i < total; i++ {
		products = append(products, MockProduct{
			ID:        fmt.Sprintf("prod-%05d", i),
			Name:      fmt.Sprintf("Product %d", i),
			Category:  categories[i%len(categories)],
			Price:     float64(10 + (i%100)*5),
			InStock:   i%7 != 0,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return products
}

// URL returns the mock server URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PathCounts = make(map[string]int)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCatalog) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns the number of requests made to a specific path.
func (m *MockCatalog) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}

// SetHandler sets a custom handler for a specific path.
func (m *MockCatalog) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockCatalog) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// FailPath makes a path return the given status until cleared.
func (m *MockCatalog) FailPath(path string, status int) {
	m.SetResponse(path, MockResponse{StatusCode: status, Body: `{"error":"injected failure"}`})
}

// ClearHandler restores the default behavior for a path.
func (m *MockCatalog) ClearHandler(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, path)
}

func (m *MockCatalog) route(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/products":
		m.handleList(w, r)
	case strings.HasPrefix(r.URL.Path, "/products/"):
		m.handleGet(w, r)
	case r.URL.Path == "/categories":
		m.handleCategories(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (m *MockCatalog) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			http.Error(w, `{"error":"invalid page"}`, http.StatusBadRequest)
			return
		}
		page = n
	}

	limit := 20
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}

	m.mu.RLock()
	filtered := m.filter(q)
	m.mu.RUnlock()

	sortProducts(filtered, q.Get("sortBy"), q.Get("sortOrder"))

	total := len(filtered)
	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	resp := map[string]any{
		"data":            filtered[start:end],
		"total":           total,
		"page":            page,
		"limit":           limit,
		"hasNextPage":     end < total,
		"hasPreviousPage": page > 1,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (m *MockCatalog) handleGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/products/")

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.products {
		if p.ID == id {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(p)
			return
		}
	}
	http.Error(w, `{"error":"product not found"}`, http.StatusNotFound)
}

func (m *MockCatalog) handleCategories(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	counts := make(map[string]int)
	for _, p := range m.products {
		counts[p.Category]++
	}
	m.mu.RUnlock()

	slugs := make([]string, 0, len(counts))
	for slug := range counts {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	data := make([]map[string]any, 0, len(slugs))
	for _, slug := range slugs {
		data = append(data, map[string]any{
			"slug":  slug,
			"name":  strings.ToUpper(slug[:1]) + slug[1:],
			"count": counts[slug],
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

// filter applies the listing query parameters. Caller must hold the read lock.
func (m *MockCatalog) filter(q map[string][]string) []MockProduct {
	get := func(name string) string {
		if vs := q[name]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}

	search := strings.ToLower(get("search"))
	category := get("category")
	minPrice, _ := strconv.ParseFloat(get("minPrice"), 64)
	maxPrice, _ := strconv.ParseFloat(get("maxPrice"), 64)
	inStock := get("inStock")

	out := make([]MockProduct, 0, len(m.products))
	for _, p := range m.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if minPrice > 0 && p.Price < minPrice {
			continue
		}
		if maxPrice > 0 && p.Price > maxPrice {
			continue
		}
		if inStock == "true" && !p.InStock {
			continue
		}
		out = append(out, p)
	}
	return out
}

func sortProducts(products []MockProduct, sortBy, sortOrder string) {
	if sortBy == "" || sortBy == "relevance" {
		return
	}

	less := func(a, b MockProduct) bool { return a.ID < b.ID }
	switch sortBy {
	case "name":
		less = func(a, b MockProduct) bool { return a.Name < b.Name }
	case "price":
		less = func(a, b MockProduct) bool { return a.Price < b.Price }
	case "created":
		less = func(a, b MockProduct) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}

	sort.SliceStable(products, func(i, j int) bool {
		if sortOrder == "desc" {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}
