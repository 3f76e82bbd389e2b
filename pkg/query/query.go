// Package query defines the catalog query model and its canonical cache-key
// derivation. Two queries with the same effective parameters always produce
// the same key, regardless of how the query was constructed, and parameters
// left at their defaults are omitted from the key entirely.
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// SortField identifies the field a listing is ordered by.
type SortField string

const (
	// SortRelevance is the default ordering (server-side relevance).
	SortRelevance SortField = "relevance"

	// SortName orders by product name.
	SortName SortField = "name"

	// SortPrice orders by price.
	SortPrice SortField = "price"

	// SortCreated orders by creation date.
	SortCreated SortField = "created"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	// OrderAsc sorts ascending (default).
	OrderAsc SortOrder = "asc"

	// OrderDesc sorts descending.
	OrderDesc SortOrder = "desc"
)

// DefaultLimit is the page size used when none is specified.
const DefaultLimit = 20

// Filters is the filter/sort/search component of a catalog query.
// The zero value means "no filter": every field at its zero value is
// treated as unset and omitted from keys and wire parameters.
type Filters struct {
	// Search is a free-text search term.
	Search string

	// Category restricts the listing to a single category slug.
	Category string

	// MinPrice and MaxPrice bound the price range (0 = unbounded).
	MinPrice float64
	MaxPrice float64

	// InStock restricts to in-stock items when set (nil = no restriction).
	InStock *bool

	// SortBy and SortOrder control ordering. Empty values mean the
	// defaults (relevance, ascending).
	SortBy    SortField
	SortOrder SortOrder
}

// Query is a full listing request: filters plus pagination.
type Query struct {
	Filters

	// Page is the 1-based page number. Zero means page 1.
	Page int

	// Limit is the page size. Zero means DefaultLimit.
	Limit int
}

// Normalize returns a copy with equivalent spellings collapsed: search
// terms are whitespace-trimmed, category slugs lowercased, and default
// sort values cleared so they compare equal to the unset form.
func (f Filters) Normalize() Filters {
	f.Search = strings.TrimSpace(f.Search)
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
	if f.SortBy == SortRelevance {
		f.SortBy = ""
	}
	if f.SortOrder == OrderAsc {
		f.SortOrder = ""
	}
	return f
}

// params returns the non-default filter parameters as name/value pairs.
func (f Filters) params() map[string]string {
	f = f.Normalize()

	p := make(map[string]string)
	if f.Search != "" {
		p["search"] = f.Search
	}
	if f.Category != "" {
		p["category"] = f.Category
	}
	if f.MinPrice > 0 {
		p["minPrice"] = strconv.FormatFloat(f.MinPrice, 'f', -1, 64)
	}
	if f.MaxPrice > 0 {
		p["maxPrice"] = strconv.FormatFloat(f.MaxPrice, 'f', -1, 64)
	}
	if f.InStock != nil {
		p["inStock"] = strconv.FormatBool(*f.InStock)
	}
	if f.SortBy != "" {
		p["sortBy"] = string(f.SortBy)
	}
	if f.SortOrder != "" {
		p["sortOrder"] = string(f.SortOrder)
	}
	return p
}

// Values returns the wire-format query parameters for the listing
// endpoint. Default-valued parameters are omitted.
func (q Query) Values() url.Values {
	v := url.Values{}
	for name, val := range q.Filters.params() {
		v.Set(name, val)
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 && q.Limit != DefaultLimit {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Key generates a deterministic cache key string for the query.
// Format: catalog:products:param1=val1:param2=val2:page=N
//
// Parameters are sorted by name so insertion order never matters, and
// parameters at their default value are omitted so "no filter" and
// "filter explicitly unset" collapse to the same key.
func (q Query) Key() string {
	parts := []string{"catalog", "products"}
	parts = append(parts, sortedParams(q.Filters.params())...)

	page := q.Page
	if page < 1 {
		page = 1
	}
	parts = append(parts, fmt.Sprintf("page=%d", page))

	if q.Limit > 0 && q.Limit != DefaultLimit {
		parts = append(parts, fmt.Sprintf("limit=%d", q.Limit))
	}

	return strings.Join(parts, ":")
}

// FilterKey generates the key of the filter/sort/search component only,
// without pagination. List controllers compare FilterKeys to decide
// whether a query change requires a wholesale reset.
func (f Filters) FilterKey() string {
	parts := []string{"catalog", "products"}
	parts = append(parts, sortedParams(f.params())...)
	return strings.Join(parts, ":")
}

// ProductKey generates the cache key for a single-product lookup.
func ProductKey(id string) string {
	return "catalog:product:" + id
}

// CategoriesKey is the cache key for the category listing.
const CategoriesKey = "catalog:categories"

func sortedParams(p map[string]string) []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", name, p[name]))
	}
	return parts
}

// Validate checks the query for malformed parameters.
func (q Query) Validate() error {
	if q.Page < 0 {
		return fmt.Errorf("page must be >= 1 (got %d)", q.Page)
	}
	if q.Limit < 0 {
		return fmt.Errorf("limit must be >= 1 (got %d)", q.Limit)
	}
	if q.MinPrice < 0 || q.MaxPrice < 0 {
		return fmt.Errorf("price bounds must be >= 0")
	}
	if q.MinPrice > 0 && q.MaxPrice > 0 && q.MinPrice > q.MaxPrice {
		return fmt.Errorf("minPrice %v exceeds maxPrice %v", q.MinPrice, q.MaxPrice)
	}
	switch q.SortBy {
	case "", SortRelevance, SortName, SortPrice, SortCreated:
	default:
		return fmt.Errorf("unknown sort field %q", q.SortBy)
	}
	switch q.SortOrder {
	case "", OrderAsc, OrderDesc:
	default:
		return fmt.Errorf("unknown sort order %q", q.SortOrder)
	}
	return nil
}
