// Package render provides the high-level glyph renderer API: a common
// Renderer interface with a software implementation and a GPU
// implementation that shares the host application's device.
package render

import (
	"github.com/fossabot/huozi"
	"github.com/fossabot/huozi/atlas"
)

// Batch is one draw call: a set of glyph quads sharing a draw style. Quads
// within a batch may reference different atlas pages.
type Batch struct {
	Quads []huozi.Quad
	Style huozi.Style
}

// Renderer draws glyph batches into a pixmap.
//
// Renderers are NOT safe for concurrent use. Each renderer should be used
// from a single goroutine, or external synchronization must be used.
type Renderer interface {
	// Render draws the batches over the target's current contents, in
	// order. The atlas texture is read-only during the call.
	Render(target *huozi.Pixmap, tex *atlas.Texture, batches []Batch) error

	// Flush ensures all pending rendering operations are complete. For the
	// software renderer this is a no-op; the GPU renderer waits for
	// submitted work.
	Flush() error
}

// RendererCapabilities describes the features of a renderer.
type RendererCapabilities struct {
	// IsGPU indicates a GPU-accelerated renderer.
	IsGPU bool

	// MaxQuadsPerBatch is the largest batch one Render call accepts
	// (0 = unlimited).
	MaxQuadsPerBatch int
}

// CapableRenderer is an optional interface for renderers that can report
// their capabilities.
type CapableRenderer interface {
	Renderer

	Capabilities() RendererCapabilities
}
