package atlas

// shelfAllocator implements shelf-based rectangle packing for one page.
// Simple and fast, suitable for uniform-sized glyph cells.
//
// The algorithm organizes rectangles in horizontal "shelves". Each shelf
// has a fixed height (determined by the tallest item placed so far). New
// items are placed left-to-right on the current shelf until no space
// remains, then a new shelf is started below.
type shelfAllocator struct {
	width   int
	height  int
	padding int
	shelves []shelf

	usedArea int
}

// shelf represents a horizontal strip in the page.
type shelf struct {
	y      int // Y position of shelf top
	height int // height of the shelf (tallest item so far)
	x      int // current X position (next free slot)
}

// newShelfAllocator creates a new allocator for the given dimensions.
func newShelfAllocator(width, height, padding int) *shelfAllocator {
	return &shelfAllocator{
		width:   width,
		height:  height,
		padding: padding,
		shelves: make([]shelf, 0, 16),
	}
}

// allocate finds space for a rectangle of the given size.
// Returns x, y position and true if space was found.
func (a *shelfAllocator) allocate(w, h int) (x, y int, ok bool) {
	paddedW := w + a.padding
	paddedH := h + a.padding

	for i := range a.shelves {
		s := &a.shelves[i]

		if s.x+paddedW > a.width {
			continue
		}

		if h > s.height {
			// Item is taller than the shelf. Extending is only possible on
			// the last shelf, when there is room below.
			if i == len(a.shelves)-1 {
				if s.y+paddedH <= a.height {
					s.height = h
					x, y = s.x, s.y
					s.x += paddedW
					a.usedArea += w * h
					return x, y, true
				}
			}
			continue
		}

		x, y = s.x, s.y
		s.x += paddedW
		a.usedArea += w * h
		return x, y, true
	}

	// No existing shelf works; start a new one.
	newY := 0
	if len(a.shelves) > 0 {
		last := a.shelves[len(a.shelves)-1]
		newY = last.y + last.height + a.padding
	}
	if newY+paddedH > a.height {
		return -1, -1, false
	}

	a.shelves = append(a.shelves, shelf{y: newY, height: h, x: paddedW})
	a.usedArea += w * h
	return 0, newY, true
}

// reset clears all allocations, allowing the allocator to be reused.
func (a *shelfAllocator) reset() {
	a.shelves = a.shelves[:0]
	a.usedArea = 0
}

// utilization returns the fraction of page space used (0.0 to 1.0).
func (a *shelfAllocator) utilization() float64 {
	if a.width <= 0 || a.height <= 0 {
		return 0
	}
	return float64(a.usedArea) / float64(a.width*a.height)
}
