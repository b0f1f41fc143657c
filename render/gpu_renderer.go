package render

import (
	"errors"
	"log/slog"

	"github.com/gogpu/wgpu/hal"

	"github.com/fossabot/huozi"
	"github.com/fossabot/huozi/atlas"
	"github.com/fossabot/huozi/internal/gpu"
)

// ErrNoGPUDevice is returned by operations that require an attached GPU
// device while the renderer is in software fallback mode.
var ErrNoGPUDevice = errors.New("render: no GPU device attached")

// maxQuadsPerBatch mirrors the pipeline's indexed-draw limit: uint16
// indices address 65536 vertices, 4 per quad.
const maxQuadsPerBatch = 16384

// GPURenderer draws glyph batches through the wgpu render pipeline.
//
// The renderer RECEIVES its device from the host: either a DeviceHandle
// whose provider exposes HAL types, or a device the renderer opens itself
// via NewGPURendererOwnDevice. When the provider cannot share a usable
// device, Render transparently falls back to the software path.
type GPURenderer struct {
	handle DeviceHandle

	glyphs *gpu.GlyphRenderer

	// softwareFallback is used when no GPU device is available.
	softwareFallback *SoftwareRenderer
}

// NewGPURenderer creates a GPU renderer on the host application's shared
// device. The handle must be provided by the host (e.g., a gogpu.App); the
// renderer does NOT create its own GPU device.
func NewGPURenderer(handle DeviceHandle) (*GPURenderer, error) {
	if handle == nil {
		return nil, errors.New("render: nil device handle")
	}

	r := &GPURenderer{
		handle:           handle,
		softwareFallback: NewSoftwareRenderer(),
	}

	glyphs, err := gpu.FromProvider(handle)
	if err != nil {
		// Non-fatal: the provider exists but does not expose HAL types.
		// Rendering falls back to the CPU path.
		huozi.Logger().Warn("render: GPU device unavailable, using software fallback",
			slog.String("error", err.Error()))
		return r, nil
	}
	r.glyphs = glyphs
	return r, nil
}

// NewGPURendererOwnDevice creates a GPU renderer that opens and owns its
// device, for standalone use outside a host application. Close destroys
// the device.
func NewGPURendererOwnDevice() (*GPURenderer, error) {
	glyphs, err := gpu.OpenDevice()
	if err != nil {
		return nil, err
	}
	return &GPURenderer{
		glyphs:           glyphs,
		softwareFallback: NewSoftwareRenderer(),
	}, nil
}

// IsGPUReady reports whether a GPU device is attached. When false, Render
// uses the software path.
func (r *GPURenderer) IsGPUReady() bool { return r.glyphs != nil }

// SyncAtlas uploads the manager's dirty pages to the GPU before the next
// Render. A no-op in software fallback mode, where the texture is sampled
// directly.
func (r *GPURenderer) SyncAtlas(m *atlas.Manager) error {
	if r.glyphs == nil {
		return nil
	}
	return r.glyphs.SyncAtlas(m)
}

// Render implements Renderer.
func (r *GPURenderer) Render(target *huozi.Pixmap, tex *atlas.Texture, batches []Batch) error {
	if target == nil {
		return ErrNilTarget
	}
	if tex == nil {
		return ErrNilAtlas
	}
	if r.glyphs == nil {
		return r.softwareFallback.Render(target, tex, batches)
	}
	for _, batch := range batches {
		if len(batch.Quads) == 0 {
			continue
		}
		if err := r.glyphs.Render(target, tex, batch.Quads, batch.Style); err != nil {
			return err
		}
	}
	return nil
}

// RecordDraws records batches into a render pass the host owns, for
// applications that composite glyphs inside their own frame pass instead of
// going through the offscreen readback path. The pass must carry a
// Depth24PlusStencil8 attachment; glyph draws leave stencil untouched.
//
// The returned release function frees the per-frame GPU resources and must
// be called after the pass's command buffer has completed. Requires an
// attached GPU device; there is no software fallback for pass recording.
func (r *GPURenderer) RecordDraws(rp hal.RenderPassEncoder, tex *atlas.Texture, batches []Batch) (release func(), err error) {
	if r.glyphs == nil {
		return nil, ErrNoGPUDevice
	}
	if tex == nil {
		return nil, ErrNilAtlas
	}

	draws := make([]*gpu.PassDraw, 0, len(batches))
	release = func() {
		for _, d := range draws {
			d.Release()
		}
	}
	for _, batch := range batches {
		if len(batch.Quads) == 0 {
			continue
		}
		d, err := r.glyphs.PrepareDraw(tex, batch.Quads, batch.Style)
		if err != nil {
			release()
			return nil, err
		}
		draws = append(draws, d)
		r.glyphs.RecordDraw(rp, d)
	}
	return release, nil
}

// Flush implements Renderer. Render submits and waits per batch, so there
// is no pending work to flush.
func (r *GPURenderer) Flush() error { return nil }

// Capabilities implements CapableRenderer.
func (r *GPURenderer) Capabilities() RendererCapabilities {
	return RendererCapabilities{
		IsGPU:            r.glyphs != nil,
		MaxQuadsPerBatch: maxQuadsPerBatch,
	}
}

// Close releases GPU resources. Safe to call on a renderer in software
// fallback mode.
func (r *GPURenderer) Close() {
	if r.glyphs != nil {
		r.glyphs.Close()
		r.glyphs = nil
	}
}

var (
	_ Renderer        = (*GPURenderer)(nil)
	_ CapableRenderer = (*GPURenderer)(nil)
)
