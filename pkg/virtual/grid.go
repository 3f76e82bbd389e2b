package virtual

// Breakpoint maps a minimum available width to a column count.
type Breakpoint struct {
	MinWidth float64
	Columns  int
}

// Grid groups items into rows of a width-dependent column count.
type Grid struct {
	// Breakpoints in any order; the widest satisfied one wins.
	// An empty slice means a single column at every width.
	Breakpoints []Breakpoint
}

// DefaultGrid mirrors a typical storefront layout: 1 column on narrow
// screens, up to 4 on wide ones.
func DefaultGrid() Grid {
	return Grid{Breakpoints: []Breakpoint{
		{MinWidth: 0, Columns: 1},
		{MinWidth: 640, Columns: 2},
		{MinWidth: 1024, Columns: 3},
		{MinWidth: 1280, Columns: 4},
	}}
}

// ColumnsFor returns the column count for the given available width.
func (g Grid) ColumnsFor(width float64) int {
	cols := 1
	best := -1.0
	for _, bp := range g.Breakpoints {
		if width >= bp.MinWidth && bp.MinWidth > best {
			best = bp.MinWidth
			cols = bp.Columns
		}
	}
	if cols < 1 {
		cols = 1
	}
	return cols
}

// RowCount returns the number of rows needed for itemCount items at the
// given column count, plus one trailing placeholder row when hasNextPage
// (the placeholder is what the user scrolls into to trigger the next load).
func RowCount(itemCount, columns int, hasNextPage bool) int {
	if columns < 1 {
		columns = 1
	}
	rows := (itemCount + columns - 1) / columns
	if hasNextPage {
		rows++
	}
	return rows
}

// RowItems returns the half-open item index range [start, end) rendered in
// the given row. Rows past the loaded items are placeholder rows and
// return an empty range.
func RowItems(row, columns, itemCount int) (start, end int) {
	if columns < 1 {
		columns = 1
	}
	start = row * columns
	if start >= itemCount {
		return itemCount, itemCount
	}
	end = start + columns
	if end > itemCount {
		end = itemCount
	}
	return start, end
}
