package render

import (
	"errors"

	"github.com/fossabot/huozi"
	"github.com/fossabot/huozi/atlas"
	"github.com/fossabot/huozi/raster"
)

// Renderer errors.
var (
	// ErrNilTarget is returned when Render is called with a nil pixmap.
	ErrNilTarget = errors.New("render: nil target")

	// ErrNilAtlas is returned when Render is called with a nil atlas texture.
	ErrNilAtlas = errors.New("render: nil atlas texture")
)

// SoftwareRenderer runs the glyph pipeline on the CPU via the raster
// package. It needs no GPU device and produces the same coverage math as
// the GPU shader, so it doubles as the fallback path and the reference for
// comparing GPU output.
type SoftwareRenderer struct{}

// NewSoftwareRenderer creates a CPU glyph renderer.
func NewSoftwareRenderer() *SoftwareRenderer {
	return &SoftwareRenderer{}
}

// Render implements Renderer.
func (r *SoftwareRenderer) Render(target *huozi.Pixmap, tex *atlas.Texture, batches []Batch) error {
	if target == nil {
		return ErrNilTarget
	}
	if tex == nil {
		return ErrNilAtlas
	}
	rast := raster.Renderer{Target: target, Atlas: tex}
	for _, batch := range batches {
		rast.DrawQuads(batch.Quads, batch.Style)
	}
	return nil
}

// Flush implements Renderer. CPU rendering is synchronous.
func (r *SoftwareRenderer) Flush() error { return nil }

// Capabilities implements CapableRenderer.
func (r *SoftwareRenderer) Capabilities() RendererCapabilities {
	return RendererCapabilities{
		IsGPU:            false,
		MaxQuadsPerBatch: 0,
	}
}

var (
	_ Renderer        = (*SoftwareRenderer)(nil)
	_ CapableRenderer = (*SoftwareRenderer)(nil)
)
