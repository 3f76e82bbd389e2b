package list

import (
	"github.com/storefront-labs/catalog-client/pkg/client"
)

// Collection is an ordered, deduplicated product sequence keyed by product
// ID. Pages are merged with Append; a product that reappears (e.g. after a
// refetch) replaces the earlier occurrence at its original position instead
// of being duplicated.
type Collection struct {
	items []client.Product
	index map[string]int
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{index: make(map[string]int)}
}

// Append merges a page of items into the collection. New IDs are appended
// in order; existing IDs are replaced in place. The merge is all-or-nothing
// in the sense that callers only invoke it with a fully fetched page.
func (c *Collection) Append(items []client.Product) {
	for _, item := range items {
		if pos, ok := c.index[item.ID]; ok {
			c.items[pos] = item
			continue
		}
		c.index[item.ID] = len(c.items)
		c.items = append(c.items, item)
	}
}

// Reset drops every item.
func (c *Collection) Reset() {
	c.items = c.items[:0]
	c.index = make(map[string]int)
}

// Len returns the number of items.
func (c *Collection) Len() int {
	return len(c.items)
}

// Get returns the item at position i.
func (c *Collection) Get(i int) (client.Product, bool) {
	if i < 0 || i >= len(c.items) {
		return client.Product{}, false
	}
	return c.items[i], true
}

// Items returns a snapshot copy of the collection.
func (c *Collection) Items() []client.Product {
	out := make([]client.Product, len(c.items))
	copy(out, c.items)
	return out
}
