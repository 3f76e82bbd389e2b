// Package virtual implements the windowing math for rendering large item
// collections with work proportional to the viewport, not the collection.
package virtual

import "math"

// Range is an inclusive row index range. An empty range has Last < First.
type Range struct {
	First int
	Last  int
}

// Empty reports whether the range contains no rows.
func (r Range) Empty() bool {
	return r.Last < r.First
}

// Len returns the number of rows in the range.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.Last - r.First + 1
}

// Contains reports whether row is inside the range.
func (r Range) Contains(row int) bool {
	return row >= r.First && row <= r.Last
}

// Window computes the row range to instantiate for the current scroll
// position: the visible rows floor(scrollTop/H)..ceil((scrollTop+V)/H),
// expanded by overscan rows on each side and clamped to [0, rowCount-1].
// The result size is bounded by ceil(V/H)+2*overscan+1 regardless of
// rowCount.
func Window(scrollTop, viewportHeight float64, itemHeight, rowCount, overscan int) Range {
	if rowCount <= 0 || itemHeight <= 0 {
		return Range{First: 0, Last: -1}
	}
	if scrollTop < 0 {
		scrollTop = 0
	}

	h := float64(itemHeight)
	first := int(math.Floor(scrollTop/h)) - overscan
	last := int(math.Ceil((scrollTop+viewportHeight)/h)) - 1 + overscan

	if first < 0 {
		first = 0
	}
	// A stale scroll offset can point past the content (e.g. a query
	// change just shrank the list); pin the window to the final row.
	if first > rowCount-1 {
		first = rowCount - 1
	}
	if last > rowCount-1 {
		last = rowCount - 1
	}
	if last < first {
		last = first
	}
	return Range{First: first, Last: last}
}

// NearEnd reports whether the window's last row has entered the trailing
// threshold of the loaded rows: within overscan rows of the end. The list
// controller uses this as the next-page trigger.
func NearEnd(r Range, loadedRows, overscan int) bool {
	if r.Empty() || loadedRows <= 0 {
		return false
	}
	return r.Last >= loadedRows-1-overscan
}

// PreserveScroll maps a scroll offset across a change in row count (e.g. a
// resize changed the column count) so the user stays at approximately the
// same fraction of the list.
func PreserveScroll(scrollTop float64, oldRows, newRows, itemHeight int) float64 {
	if oldRows <= 0 || newRows <= 0 || itemHeight <= 0 {
		return 0
	}
	oldHeight := float64(oldRows * itemHeight)
	newHeight := float64(newRows * itemHeight)
	fraction := scrollTop / oldHeight
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return fraction * newHeight
}
