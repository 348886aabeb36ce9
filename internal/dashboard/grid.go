package dashboard

// GridColumns is the width of the dashboard grid.
const GridColumns = 6

// NextItemCell returns the cell for a newly added 1x1 item.
//
// Placement walks the bottom row: find the highest occupied row, then
// the rightmost item in it, and place one cell to the right. When that
// runs past the last column the item starts a new row at column 0.
// Gaps left by removed or dragged items are not reclaimed; the
// allocator only ever appends.
func NextItemCell(items []GridRect) GridRect {
	maxY := 0
	for _, r := range items {
		if r.Y > maxY {
			maxY = r.Y
		}
	}

	maxX := -1
	for _, r := range items {
		if r.Y == maxY && r.X > maxX {
			maxX = r.X
		}
	}

	x, y := maxX+1, maxY
	if x >= GridColumns {
		x, y = 0, maxY+1
	}
	return GridRect{X: x, Y: y, W: 1, H: 1}
}

// NextGroupCell returns the cell for a newly created 2x2 group.
//
// Groups scan items and groups together for the bottom row, then step
// two columns right of the rightmost occupant. Overflow starts a new
// row two below, leaving room for the group's height. The step ignores
// the actual width of the rightmost occupant, so a wide item can
// overlap a freshly placed group; the layout editor lets the user drag
// tiles apart, and saved positions always win over allocation.
func NextGroupCell(items, groups []GridRect) GridRect {
	maxY := 0
	for _, r := range items {
		if r.Y > maxY {
			maxY = r.Y
		}
	}
	for _, r := range groups {
		if r.Y > maxY {
			maxY = r.Y
		}
	}

	maxX := -1
	for _, r := range items {
		if r.Y == maxY && r.X > maxX {
			maxX = r.X
		}
	}
	for _, r := range groups {
		if r.Y == maxY && r.X > maxX {
			maxX = r.X
		}
	}

	x, y := maxX+2, maxY
	if x >= GridColumns {
		x, y = 0, maxY+2
	}
	return GridRect{X: x, Y: y, W: 2, H: 2}
}
