package list

import (
	"testing"

	"github.com/storefront-labs/catalog-client/pkg/client"
)

func products(ids ...string) []client.Product {
	out := make([]client.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, client.Product{ID: id, Name: "name-" + id})
	}
	return out
}

func TestCollection_AppendKeepsOrder(t *testing.T) {
	c := NewCollection()
	c.Append(products("a", "b", "c"))
	c.Append(products("d", "e"))

	if c.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", c.Len())
	}

	want := []string{"a", "b", "c", "d", "e"}
	for i, id := range want {
		item, ok := c.Get(i)
		if !ok || item.ID != id {
			t.Errorf("Get(%d) = %v, want ID %q", i, item.ID, id)
		}
	}
}

func TestCollection_AppendReplacesDuplicatesInPlace(t *testing.T) {
	c := NewCollection()
	c.Append(products("a", "b", "c"))

	// "b" reappears with updated data: replaced at its original position,
	// not duplicated at the end.
	c.Append([]client.Product{{ID: "b", Name: "updated"}, {ID: "d"}})

	if c.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", c.Len())
	}

	item, _ := c.Get(1)
	if item.ID != "b" || item.Name != "updated" {
		t.Errorf("Get(1) = %+v, want updated item b at original position", item)
	}

	item, _ = c.Get(3)
	if item.ID != "d" {
		t.Errorf("Get(3) = %v, want d appended at end", item.ID)
	}
}

func TestCollection_Reset(t *testing.T) {
	c := NewCollection()
	c.Append(products("a", "b"))
	c.Reset()

	if c.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", c.Len())
	}

	// IDs from before the reset are appendable again.
	c.Append(products("a"))
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCollection_ItemsIsSnapshot(t *testing.T) {
	c := NewCollection()
	c.Append(products("a"))

	snap := c.Items()
	c.Append(products("b"))

	if len(snap) != 1 {
		t.Errorf("snapshot grew with the collection: len = %d, want 1", len(snap))
	}
}

func TestCollection_GetOutOfRange(t *testing.T) {
	c := NewCollection()
	c.Append(products("a"))

	if _, ok := c.Get(-1); ok {
		t.Error("Get(-1) ok = true, want false")
	}
	if _, ok := c.Get(1); ok {
		t.Error("Get(1) ok = true, want false")
	}
}
