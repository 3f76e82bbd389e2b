package virtual

import "testing"

func TestGrid_ColumnsFor(t *testing.T) {
	g := DefaultGrid()

	tests := []struct {
		width float64
		want  int
	}{
		{320, 1},
		{639, 1},
		{640, 2},
		{1023, 2},
		{1024, 3},
		{1280, 4},
		{2560, 4},
	}

	for _, tt := range tests {
		if got := g.ColumnsFor(tt.width); got != tt.want {
			t.Errorf("ColumnsFor(%v) = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestGrid_ColumnsFor_Empty(t *testing.T) {
	g := Grid{}
	if got := g.ColumnsFor(1920); got != 1 {
		t.Errorf("ColumnsFor() with no breakpoints = %d, want 1", got)
	}
}

func TestRowCount(t *testing.T) {
	tests := []struct {
		name        string
		itemCount   int
		columns     int
		hasNextPage bool
		want        int
	}{
		{"exact rows", 40, 4, false, 10},
		{"partial last row", 41, 4, false, 11},
		{"placeholder row appended", 40, 4, true, 11},
		{"empty with next page", 0, 4, true, 1},
		{"empty", 0, 4, false, 0},
		{"single column", 7, 1, false, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RowCount(tt.itemCount, tt.columns, tt.hasNextPage); got != tt.want {
				t.Errorf("RowCount(%d, %d, %v) = %d, want %d",
					tt.itemCount, tt.columns, tt.hasNextPage, got, tt.want)
			}
		})
	}
}

func TestRowItems(t *testing.T) {
	tests := []struct {
		name      string
		row       int
		columns   int
		itemCount int
		wantStart int
		wantEnd   int
	}{
		{"first row", 0, 4, 41, 0, 4},
		{"middle row", 5, 4, 41, 20, 24},
		{"partial last row", 10, 4, 41, 40, 41},
		{"placeholder row", 11, 4, 41, 41, 41},
		{"far past end", 20, 4, 41, 41, 41},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := RowItems(tt.row, tt.columns, tt.itemCount)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("RowItems(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.row, tt.columns, tt.itemCount, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

// TestGrid_ResizeKeepsScrollFraction walks a resize from 2 to 4 columns and
// checks the preserved offset stays within one row of the same fraction.
func TestGrid_ResizeKeepsScrollFraction(t *testing.T) {
	const itemCount, itemHeight = 1000, 450

	oldRows := RowCount(itemCount, 2, false) // 500
	newRows := RowCount(itemCount, 4, false) // 250

	oldTop := 0.5 * float64(oldRows*itemHeight)
	newTop := PreserveScroll(oldTop, oldRows, newRows, itemHeight)

	wantFraction := 0.5
	gotFraction := newTop / float64(newRows*itemHeight)
	if diff := gotFraction - wantFraction; diff > 0.01 || diff < -0.01 {
		t.Errorf("scroll fraction after resize = %v, want ~%v", gotFraction, wantFraction)
	}
}
