package atlas

import (
	"image"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"

	"github.com/fossabot/huozi"
)

// Config holds atlas configuration.
type Config struct {
	// PageSize is the page texture size (width = height).
	// Must be a power of 2. Default: 1024
	PageSize int

	// CellSize is the size of each glyph cell.
	// Default: 32
	CellSize int

	// Padding between glyphs to prevent bleeding.
	// Default: 2
	Padding int

	// MaxPages limits the number of atlas pages.
	// Default: 8
	MaxPages int
}

// DefaultConfig returns the default atlas configuration.
func DefaultConfig() Config {
	return Config{
		PageSize: 1024,
		CellSize: 32,
		Padding:  2,
		MaxPages: 8,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PageSize < 64 {
		return &ConfigError{Field: "PageSize", Reason: "must be at least 64"}
	}
	if c.PageSize > 8192 {
		return &ConfigError{Field: "PageSize", Reason: "must be at most 8192"}
	}
	if c.PageSize&(c.PageSize-1) != 0 {
		return &ConfigError{Field: "PageSize", Reason: "must be power of 2"}
	}
	if c.CellSize < 8 {
		return &ConfigError{Field: "CellSize", Reason: "must be at least 8"}
	}
	if c.CellSize > c.PageSize {
		return &ConfigError{Field: "CellSize", Reason: "must be at most PageSize"}
	}
	if c.Padding < 0 {
		return &ConfigError{Field: "Padding", Reason: "must be non-negative"}
	}
	if c.Padding >= c.CellSize/2 {
		return &ConfigError{Field: "Padding", Reason: "must be less than half CellSize"}
	}
	if c.MaxPages < 1 {
		return &ConfigError{Field: "MaxPages", Reason: "must be at least 1"}
	}
	if c.MaxPages > 256 {
		return &ConfigError{Field: "MaxPages", Reason: "must be at most 256"}
	}
	return nil
}

// GlyphKey uniquely identifies a glyph in the atlas.
type GlyphKey struct {
	// FontID identifies the font (hash of font data or path).
	FontID uint64

	// GlyphID is the glyph index within the font.
	GlyphID uint16

	// Size is the distance-field bitmap size the glyph was generated at.
	Size int16
}

// Region describes a glyph's location in the atlas.
type Region struct {
	// Page indicates which atlas page holds this glyph.
	Page int

	// UV coordinates [0, 1] for texture sampling.
	U0, V0, U1, V1 float32

	// Texel coordinates in the page.
	X, Y, Width, Height int
}

// Manager packs glyph distance-field bitmaps into the pages of a Texture
// and tracks which pages need a GPU upload. It is the "atlas manager"
// collaborator of the rendering core: the core never writes the texture,
// the manager never samples it.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	config  Config
	tex     *Texture
	allocs  []*shelfAllocator
	dirty   []bool
	lookup  map[GlyphKey]Region
	regions []int // glyph count per page

	// Statistics (atomic for lock-free reads)
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewManager creates a new atlas manager.
func NewManager(config Config) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		config: config,
		tex:    NewTexture(config.PageSize, 0),
		lookup: make(map[GlyphKey]Region),
	}, nil
}

// NewManagerDefault creates a new atlas manager with default configuration.
func NewManagerDefault() *Manager {
	m, _ := NewManager(DefaultConfig())
	return m
}

// Texture returns the texture the manager packs into. The rendering core
// samples it; callers must not write to it directly.
func (m *Manager) Texture() *Texture { return m.tex }

// Config returns the manager configuration.
func (m *Manager) Config() Config { return m.config }

// Lookup returns the region for a previously inserted glyph.
func (m *Manager) Lookup(key GlyphKey) (Region, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	region, ok := m.lookup[key]
	return region, ok
}

// Insert adds a glyph distance-field bitmap to the atlas, scaling it into
// a fixed-size cell, and returns the cell's region. Inserting a key that
// is already present returns the existing region without touching the
// texture.
func (m *Manager) Insert(key GlyphKey, field *image.Gray) (Region, error) {
	// Fast path: already cached (read lock).
	m.mu.RLock()
	if region, ok := m.lookup[key]; ok {
		m.mu.RUnlock()
		m.hits.Add(1)
		return region, nil
	}
	m.mu.RUnlock()

	m.misses.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring the write lock.
	if region, ok := m.lookup[key]; ok {
		return region, nil
	}

	page, x, y, err := m.allocateCell()
	if err != nil {
		return Region{}, err
	}

	m.copyField(page, x, y, field)

	cell := m.config.CellSize
	pageSize := float32(m.config.PageSize)
	region := Region{
		Page:   page,
		X:      x,
		Y:      y,
		Width:  cell,
		Height: cell,
		U0:     float32(x) / pageSize,
		V0:     float32(y) / pageSize,
		U1:     float32(x+cell) / pageSize,
		V1:     float32(y+cell) / pageSize,
	}

	m.lookup[key] = region
	m.regions[page]++
	return region, nil
}

// allocateCell finds or creates a page with room for one glyph cell.
func (m *Manager) allocateCell() (page, x, y int, err error) {
	cell := m.config.CellSize
	for i, a := range m.allocs {
		if x, y, ok := a.allocate(cell, cell); ok {
			return i, x, y, nil
		}
	}
	if len(m.allocs) >= m.config.MaxPages {
		huozi.Logger().Warn("atlas: full", "pages", len(m.allocs), "glyphs", len(m.lookup))
		return 0, 0, 0, ErrAtlasFull
	}

	page = m.tex.AddPage()
	m.allocs = append(m.allocs, newShelfAllocator(m.config.PageSize, m.config.PageSize, m.config.Padding))
	m.dirty = append(m.dirty, false)
	m.regions = append(m.regions, 0)
	huozi.Logger().Debug("atlas: page added", "page", page, "pages", len(m.allocs))

	x, y, ok := m.allocs[page].allocate(cell, cell)
	if !ok {
		return 0, 0, 0, ErrAllocationFailed
	}
	return page, x, y, nil
}

// copyField scales the glyph bitmap into the cell at (x, y) and marks the
// page dirty. A page's texel data is one byte per texel, so it doubles as
// the Pix buffer of an image.Gray and x/image bilinear scaling writes into
// the cell rectangle directly.
func (m *Manager) copyField(page, x, y int, field *image.Gray) {
	if field == nil {
		return
	}
	size := m.config.PageSize
	cell := m.config.CellSize

	dst := &image.Gray{
		Pix:    m.tex.PageData(page),
		Stride: size,
		Rect:   image.Rect(0, 0, size, size),
	}
	cellRect := image.Rect(x, y, x+cell, y+cell)
	draw.BiLinear.Scale(dst, cellRect, field, field.Bounds(), draw.Src, nil)

	m.dirty[page] = true
}

// DirtyPages returns the indices of pages modified since their last upload.
func (m *Manager) DirtyPages() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var dirty []int
	for i, d := range m.dirty {
		if d {
			dirty = append(dirty, i)
		}
	}
	return dirty
}

// MarkClean marks a page as uploaded.
func (m *Manager) MarkClean(page int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if page >= 0 && page < len(m.dirty) {
		m.dirty[page] = false
	}
}

// GlyphCount returns the total number of glyphs across all pages.
func (m *Manager) GlyphCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lookup)
}

// Utilization returns the fraction of space used on one page.
func (m *Manager) Utilization(page int) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if page < 0 || page >= len(m.allocs) {
		return 0
	}
	return m.allocs[page].utilization()
}

// PageGlyphs returns the number of glyphs stored on one page.
func (m *Manager) PageGlyphs(page int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if page < 0 || page >= len(m.regions) {
		return 0
	}
	return m.regions[page]
}

// Hits returns the number of cache hits.
func (m *Manager) Hits() uint64 { return m.hits.Load() }

// Misses returns the number of cache misses.
func (m *Manager) Misses() uint64 { return m.misses.Load() }

// Clear removes all glyphs and pages.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.allocs {
		a.reset()
	}
	m.allocs = nil
	m.dirty = nil
	m.regions = nil
	m.lookup = make(map[GlyphKey]Region)
	m.tex = NewTexture(m.config.PageSize, 0)
}
