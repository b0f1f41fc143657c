// Package atlas provides the multi-page scalar distance-field texture the
// rendering core samples, together with the page packing and sampling
// filters used to populate and read it.
//
// A Texture is a stack of equally sized square pages, each holding one
// byte per texel: the normalized distance to the nearest glyph edge
// (0 = far outside, 1 = far inside, with the edge nominally at the draw
// style's buffer value). Pages are selected per primitive by an integer
// index that never interpolates.
package atlas

import "math"

// Filter selects the texture sampling filter.
type Filter int

const (
	// FilterLinear interpolates bilinearly between the four nearest
	// texels. This is the expected filter for distance fields: the field
	// stays continuous between texels, which the coverage math relies on.
	FilterLinear Filter = iota

	// FilterNearest snaps to the nearest texel.
	FilterNearest
)

// AddressMode selects how UV coordinates outside [0, 1] are resolved.
type AddressMode int

const (
	// AddressClampToEdge clamps coordinates to the edge texels.
	AddressClampToEdge AddressMode = iota

	// AddressRepeat wraps coordinates, tiling the page.
	AddressRepeat
)

// Texture is a multi-page stack of scalar distance fields plus its
// sampling configuration. The rendering core only reads it; pages are
// populated by a Manager or directly via SetTexel.
//
// Page indices are a caller contract: sampling an out-of-range page is a
// contract violation (it panics), not a checked error. The check would sit
// on the per-pixel hot path.
type Texture struct {
	size    int
	pages   [][]uint8
	filter  Filter
	address AddressMode
}

// NewTexture creates a texture with the given page size and page count,
// with linear filtering and clamp-to-edge addressing.
func NewTexture(size, pages int) *Texture {
	t := &Texture{size: size}
	for i := 0; i < pages; i++ {
		t.AddPage()
	}
	return t
}

// Size returns the page width (= height) in texels.
func (t *Texture) Size() int { return t.size }

// Pages returns the number of pages.
func (t *Texture) Pages() int { return len(t.pages) }

// AddPage appends an empty page and returns its index.
func (t *Texture) AddPage() int {
	t.pages = append(t.pages, make([]uint8, t.size*t.size))
	return len(t.pages) - 1
}

// SetFilter sets the sampling filter.
func (t *Texture) SetFilter(f Filter) { t.filter = f }

// Filter returns the sampling filter.
func (t *Texture) Filter() Filter { return t.filter }

// SetAddressMode sets the UV addressing mode.
func (t *Texture) SetAddressMode(m AddressMode) { t.address = m }

// AddressMode returns the UV addressing mode.
func (t *Texture) AddressMode() AddressMode { return t.address }

// PageData returns the raw texel data of one page (one byte per texel,
// row-major).
func (t *Texture) PageData(page int) []uint8 { return t.pages[page] }

// Texel returns the normalized distance value at integer texel
// coordinates, resolved through the texture's address mode.
func (t *Texture) Texel(page, x, y int) float64 {
	x = t.resolve(x)
	y = t.resolve(y)
	return float64(t.pages[page][y*t.size+x]) / 255
}

// SetTexel stores a normalized distance value at integer texel
// coordinates. Values are clamped to [0, 1].
func (t *Texture) SetTexel(page, x, y int, v float64) {
	if x < 0 || x >= t.size || y < 0 || y >= t.size {
		return
	}
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	t.pages[page][y*t.size+x] = uint8(v*255 + 0.5)
}

// FillPage sets every texel of a page to the same value.
func (t *Texture) FillPage(page int, v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	b := uint8(v*255 + 0.5)
	data := t.pages[page]
	for i := range data {
		data[i] = b
	}
}

// Sample reads the distance field at UV coordinates on the given page,
// applying the texture's filter and address mode. Texel centers sit at
// (i + 0.5) / size, matching GPU sampling rules.
func (t *Texture) Sample(page int, u, v float64) float64 {
	fx := u*float64(t.size) - 0.5
	fy := v*float64(t.size) - 0.5

	if t.filter == FilterNearest {
		return t.Texel(page, int(math.Round(fx)), int(math.Round(fy)))
	}

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	d00 := t.Texel(page, x0, y0)
	d10 := t.Texel(page, x0+1, y0)
	d01 := t.Texel(page, x0, y0+1)
	d11 := t.Texel(page, x0+1, y0+1)

	top := d00 + (d10-d00)*tx
	bot := d01 + (d11-d01)*tx
	return top + (bot-top)*ty
}

// resolve maps a texel coordinate into [0, size) per the address mode.
func (t *Texture) resolve(i int) int {
	switch t.address {
	case AddressRepeat:
		i %= t.size
		if i < 0 {
			i += t.size
		}
		return i
	default: // AddressClampToEdge
		if i < 0 {
			return 0
		}
		if i >= t.size {
			return t.size - 1
		}
		return i
	}
}
