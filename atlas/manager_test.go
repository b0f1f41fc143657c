package atlas

import (
	"bytes"
	"errors"
	"image"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/fossabot/huozi"
)

// solidField returns a glyph bitmap filled with one gray value.
func solidField(size int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"page size too small", func(c *Config) { c.PageSize = 32 }, true},
		{"page size too large", func(c *Config) { c.PageSize = 16384 }, true},
		{"page size not power of 2", func(c *Config) { c.PageSize = 1000 }, true},
		{"cell size too small", func(c *Config) { c.CellSize = 4 }, true},
		{"cell larger than page", func(c *Config) { c.CellSize = 2048 }, true},
		{"negative padding", func(c *Config) { c.Padding = -1 }, true},
		{"padding too large", func(c *Config) { c.Padding = 16 }, true},
		{"zero max pages", func(c *Config) { c.MaxPages = 0 }, true},
		{"too many pages", func(c *Config) { c.MaxPages = 512 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				var cerr *ConfigError
				if !errors.As(err, &cerr) {
					t.Errorf("error %T, want *ConfigError", err)
				}
			}
		})
	}
}

func TestManagerInsertLookup(t *testing.T) {
	m := NewManagerDefault()
	key := GlyphKey{FontID: 1, GlyphID: 42, Size: 32}

	if _, ok := m.Lookup(key); ok {
		t.Fatal("Lookup found a glyph before Insert")
	}

	region, err := m.Insert(key, solidField(32, 200))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if region.Width != 32 || region.Height != 32 {
		t.Errorf("region size = %dx%d, want 32x32", region.Width, region.Height)
	}
	if region.U0 < 0 || region.U1 > 1 || region.U0 >= region.U1 {
		t.Errorf("bad U range: [%f, %f]", region.U0, region.U1)
	}
	if region.V0 < 0 || region.V1 > 1 || region.V0 >= region.V1 {
		t.Errorf("bad V range: [%f, %f]", region.V0, region.V1)
	}

	got, ok := m.Lookup(key)
	if !ok || got != region {
		t.Errorf("Lookup = (%+v, %v), want the inserted region", got, ok)
	}

	// The cell's texels carry the bitmap.
	center := m.Texture().Texel(region.Page, region.X+16, region.Y+16)
	if center < 0.7 || center > 0.85 {
		t.Errorf("cell center texel = %f, want about %f", center, 200.0/255)
	}
}

func TestManagerInsertIdempotent(t *testing.T) {
	m := NewManagerDefault()
	key := GlyphKey{FontID: 1, GlyphID: 7, Size: 32}

	first, err := m.Insert(key, solidField(32, 128))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	second, err := m.Insert(key, solidField(32, 255))
	if err != nil {
		t.Fatalf("re-Insert: %v", err)
	}
	if first != second {
		t.Errorf("re-Insert returned %+v, want %+v", second, first)
	}
	if m.GlyphCount() != 1 {
		t.Errorf("GlyphCount = %d, want 1", m.GlyphCount())
	}
	if m.Hits() != 1 || m.Misses() != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", m.Hits(), m.Misses())
	}
}

func TestManagerInsertScalesBitmap(t *testing.T) {
	m := NewManagerDefault()
	key := GlyphKey{FontID: 2, GlyphID: 1, Size: 64}

	// A 64x64 bitmap is rescaled into the 32x32 cell.
	region, err := m.Insert(key, solidField(64, 255))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	center := m.Texture().Texel(region.Page, region.X+16, region.Y+16)
	if center < 0.99 {
		t.Errorf("rescaled cell center = %f, want 1.0", center)
	}
}

func TestManagerGrowsPages(t *testing.T) {
	config := DefaultConfig()
	config.PageSize = 64
	config.CellSize = 32
	config.Padding = 0
	config.MaxPages = 2
	m, err := NewManager(config)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	// 4 cells per 64x64 page; the fifth insert opens page 1.
	for i := 0; i < 5; i++ {
		region, err := m.Insert(GlyphKey{GlyphID: uint16(i)}, solidField(32, 255))
		if err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
		wantPage := i / 4
		if region.Page != wantPage {
			t.Errorf("glyph %d on page %d, want %d", i, region.Page, wantPage)
		}
	}
	if m.Texture().Pages() != 2 {
		t.Errorf("Pages() = %d, want 2", m.Texture().Pages())
	}
}

func TestManagerFull(t *testing.T) {
	config := DefaultConfig()
	config.PageSize = 64
	config.CellSize = 32
	config.Padding = 0
	config.MaxPages = 1
	m, err := NewManager(config)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	for i := 0; i < 4; i++ {
		if _, err := m.Insert(GlyphKey{GlyphID: uint16(i)}, solidField(32, 255)); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}
	_, err = m.Insert(GlyphKey{GlyphID: 99}, solidField(32, 255))
	if !errors.Is(err, ErrAtlasFull) {
		t.Errorf("Insert on full atlas = %v, want ErrAtlasFull", err)
	}
}

func TestManagerDirtyPages(t *testing.T) {
	m := NewManagerDefault()

	if got := m.DirtyPages(); len(got) != 0 {
		t.Fatalf("DirtyPages = %v before any insert", got)
	}

	if _, err := m.Insert(GlyphKey{GlyphID: 1}, solidField(32, 255)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got := m.DirtyPages()
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("DirtyPages = %v, want [0]", got)
	}

	m.MarkClean(0)
	if got := m.DirtyPages(); len(got) != 0 {
		t.Errorf("DirtyPages = %v after MarkClean", got)
	}
}

func TestManagerClear(t *testing.T) {
	m := NewManagerDefault()
	key := GlyphKey{GlyphID: 1}
	if _, err := m.Insert(key, solidField(32, 255)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	m.Clear()
	if m.GlyphCount() != 0 {
		t.Errorf("GlyphCount = %d after Clear", m.GlyphCount())
	}
	if _, ok := m.Lookup(key); ok {
		t.Error("Lookup found a glyph after Clear")
	}
}

func TestManagerConcurrentInsert(t *testing.T) {
	m := NewManagerDefault()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				key := GlyphKey{FontID: 1, GlyphID: uint16(i)}
				if _, err := m.Insert(key, solidField(32, 128)); err != nil {
					t.Errorf("Insert: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	if m.GlyphCount() != 20 {
		t.Errorf("GlyphCount = %d, want 20", m.GlyphCount())
	}
}

func BenchmarkManagerInsertHit(b *testing.B) {
	m := NewManagerDefault()
	key := GlyphKey{GlyphID: 1}
	field := solidField(32, 255)
	if _, err := m.Insert(key, field); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for b.Loop() {
		_, _ = m.Insert(key, field)
	}
}

func TestManagerPageGlyphs(t *testing.T) {
	config := DefaultConfig()
	config.PageSize = 64
	config.CellSize = 32
	config.Padding = 0
	config.MaxPages = 2
	m, err := NewManager(config)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	// 4 cells per page: page 0 fills up, the fifth glyph lands on page 1.
	for i := 0; i < 5; i++ {
		if _, err := m.Insert(GlyphKey{GlyphID: uint16(i)}, solidField(32, 255)); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}

	if got := m.PageGlyphs(0); got != 4 {
		t.Errorf("PageGlyphs(0) = %d, want 4", got)
	}
	if got := m.PageGlyphs(1); got != 1 {
		t.Errorf("PageGlyphs(1) = %d, want 1", got)
	}
	if got := m.PageGlyphs(-1); got != 0 {
		t.Errorf("PageGlyphs(-1) = %d, want 0", got)
	}
	if got := m.PageGlyphs(7); got != 0 {
		t.Errorf("PageGlyphs(7) = %d, want 0", got)
	}

	m.Clear()
	if got := m.PageGlyphs(0); got != 0 {
		t.Errorf("PageGlyphs(0) after Clear = %d, want 0", got)
	}
}

func TestManagerLogsPageGrowth(t *testing.T) {
	orig := huozi.Logger()
	t.Cleanup(func() { huozi.SetLogger(orig) })

	var buf bytes.Buffer
	huozi.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	config := DefaultConfig()
	config.PageSize = 64
	config.CellSize = 32
	config.Padding = 0
	config.MaxPages = 1
	m, err := NewManager(config)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := m.Insert(GlyphKey{GlyphID: 1}, solidField(32, 255)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !strings.Contains(buf.String(), "atlas: page added") {
		t.Errorf("expected page-growth log entry, got: %s", buf.String())
	}

	// Fill the single page, then overflow it.
	for i := 2; i <= 4; i++ {
		if _, err := m.Insert(GlyphKey{GlyphID: uint16(i)}, solidField(32, 255)); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}
	buf.Reset()
	if _, err := m.Insert(GlyphKey{GlyphID: 99}, solidField(32, 255)); !errors.Is(err, ErrAtlasFull) {
		t.Fatalf("Insert on full atlas = %v, want ErrAtlasFull", err)
	}
	if !strings.Contains(buf.String(), "atlas: full") {
		t.Errorf("expected atlas-full log entry, got: %s", buf.String())
	}
}
