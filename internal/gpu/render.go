package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/fossabot/huozi"
	"github.com/fossabot/huozi/atlas"
)

// GlyphRenderer renders batches of SDF glyph quads offscreen and reads the
// result back into a huozi.Pixmap. It owns the render pipeline, the GPU
// copy of the atlas, and the MSAA/resolve texture pair.
//
// GlyphRenderer is not safe for concurrent use.
type GlyphRenderer struct {
	instance       hal.Instance // non-nil only when the renderer owns the device
	device         hal.Device
	queue          hal.Queue
	externalDevice bool

	pipeline *SDFTextPipeline
	atlasTex *atlasTexture

	// MSAA and resolve textures for offscreen rendering.
	msaaTex     hal.Texture
	msaaView    hal.TextureView
	resolveTex  hal.Texture
	resolveView hal.TextureView

	width, height uint32
}

// NewGlyphRenderer creates a renderer on an externally owned device and
// queue. Close will not destroy them.
func NewGlyphRenderer(device hal.Device, queue hal.Queue) *GlyphRenderer {
	return &GlyphRenderer{
		device:         device,
		queue:          queue,
		externalDevice: true,
		pipeline:       NewSDFTextPipeline(device, queue),
	}
}

// Close releases all GPU resources. Safe to call multiple times.
func (r *GlyphRenderer) Close() {
	if r.device == nil {
		return
	}
	r.atlasTex.destroy(r.device)
	r.atlasTex = nil
	r.destroyTextures()
	if r.pipeline != nil {
		r.pipeline.Destroy()
		r.pipeline = nil
	}
	if !r.externalDevice {
		r.device.Destroy()
		if r.instance != nil {
			r.instance.Destroy()
			r.instance = nil
		}
	}
	r.device = nil
	r.queue = nil
}

// SyncAtlas uploads the manager's dirty pages to the GPU atlas copy and
// marks them clean. If the GPU texture's layer count no longer matches the
// atlas (a page was added), the whole stack is recreated and re-uploaded.
func (r *GlyphRenderer) SyncAtlas(m *atlas.Manager) error {
	tex := m.Texture()
	if !r.atlasTex.matches(tex) {
		r.atlasTex.destroy(r.device)
		at, err := createAtlasTexture(r.device, r.queue, tex)
		if err != nil {
			return err
		}
		r.atlasTex = at
		for _, page := range m.DirtyPages() {
			m.MarkClean(page)
		}
		return nil
	}
	for _, page := range m.DirtyPages() {
		r.atlasTex.uploadPage(r.queue, tex, page)
		m.MarkClean(page)
	}
	return nil
}

// Render draws one batch of glyph quads over the pixmap's current contents.
// The atlas must have been uploaded (SyncAtlas or a previous Render with the
// same texture); quads reference its pages.
func (r *GlyphRenderer) Render(target *huozi.Pixmap, tex *atlas.Texture, quads []huozi.Quad, style huozi.Style) error {
	if r.device == nil {
		return ErrPipelineNotInitialized
	}
	if len(quads) == 0 {
		return ErrNoQuadsToRender
	}
	if len(quads) > maxQuadsPerDraw {
		return fmt.Errorf("%w: %d quads, max %d", ErrQuadBufferOverflow, len(quads), maxQuadsPerDraw)
	}

	w, h := uint32(target.Width()), uint32(target.Height()) //nolint:gosec // pixmap dimensions always fit uint32
	if err := r.ensureReady(w, h); err != nil {
		return err
	}
	if !r.atlasTex.matches(tex) {
		r.atlasTex.destroy(r.device)
		at, err := createAtlasTexture(r.device, r.queue, tex)
		if err != nil {
			return err
		}
		r.atlasTex = at
	}

	resources, err := r.buildFrameResources(quads, style)
	if err != nil {
		return err
	}
	defer r.destroyFrameResources(resources)

	return r.encodeAndReadback(w, h, resources, target)
}

// PassDraw holds the per-frame GPU resources of a glyph batch prepared for
// a host-owned render pass. Release must be called after the pass's command
// buffer has been submitted and completed; it is safe to call twice.
type PassDraw struct {
	r   *GlyphRenderer
	res *glyphFrameResources
}

// Release frees the draw's buffers and bind group.
func (d *PassDraw) Release() {
	if d == nil || d.r == nil {
		return
	}
	d.r.destroyFrameResources(d.res)
	d.r = nil
	d.res = nil
}

// PrepareDraw uploads a glyph batch for recording into a render pass the
// host owns (a UI frame pass, typically). The pass must carry a
// Depth24PlusStencil8 attachment; glyphs neither test nor write stencil, so
// they compose with stencil-then-cover geometry sharing the pass.
func (r *GlyphRenderer) PrepareDraw(tex *atlas.Texture, quads []huozi.Quad, style huozi.Style) (*PassDraw, error) {
	if r.device == nil {
		return nil, ErrPipelineNotInitialized
	}
	if len(quads) == 0 {
		return nil, ErrNoQuadsToRender
	}
	if len(quads) > maxQuadsPerDraw {
		return nil, fmt.Errorf("%w: %d quads, max %d", ErrQuadBufferOverflow, len(quads), maxQuadsPerDraw)
	}
	if err := r.pipeline.ensurePipelineWithStencil(); err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}
	if !r.atlasTex.matches(tex) {
		r.atlasTex.destroy(r.device)
		at, err := createAtlasTexture(r.device, r.queue, tex)
		if err != nil {
			return nil, err
		}
		r.atlasTex = at
	}
	resources, err := r.buildFrameResources(quads, style)
	if err != nil {
		return nil, err
	}
	return &PassDraw{r: r, res: resources}, nil
}

// RecordDraw records a prepared glyph batch into rp using the
// stencil-compatible pipeline variant.
func (r *GlyphRenderer) RecordDraw(rp hal.RenderPassEncoder, d *PassDraw) {
	if d == nil || d.res == nil {
		return
	}
	r.pipeline.RecordDraws(rp, d.res)
}

// ensureReady creates the offscreen textures and the pipeline if needed.
func (r *GlyphRenderer) ensureReady(w, h uint32) error {
	if err := r.ensureTextures(w, h); err != nil {
		return fmt.Errorf("ensure textures: %w", err)
	}
	if r.pipeline.pipeline == nil {
		if err := r.pipeline.createPipeline(); err != nil {
			return fmt.Errorf("create pipeline: %w", err)
		}
	}
	return nil
}

// ensureTextures creates or recreates the MSAA and resolve textures when
// the requested dimensions differ from the current size.
func (r *GlyphRenderer) ensureTextures(w, h uint32) error {
	if r.width == w && r.height == h && r.msaaTex != nil {
		return nil
	}
	r.destroyTextures()

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	msaaTex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "sdf_text_msaa",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   sampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create MSAA texture: %w", err)
	}
	r.msaaTex = msaaTex

	msaaView, err := r.device.CreateTextureView(msaaTex, &hal.TextureViewDescriptor{
		Label:         "sdf_text_msaa_view",
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		r.destroyTextures()
		return fmt.Errorf("create MSAA view: %w", err)
	}
	r.msaaView = msaaView

	resolveTex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "sdf_text_resolve",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		r.destroyTextures()
		return fmt.Errorf("create resolve texture: %w", err)
	}
	r.resolveTex = resolveTex

	resolveView, err := r.device.CreateTextureView(resolveTex, &hal.TextureViewDescriptor{
		Label:         "sdf_text_resolve_view",
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		r.destroyTextures()
		return fmt.Errorf("create resolve view: %w", err)
	}
	r.resolveView = resolveView

	r.width = w
	r.height = h
	return nil
}

// destroyTextures releases the offscreen textures and resets dimensions.
func (r *GlyphRenderer) destroyTextures() {
	if r.resolveView != nil {
		r.device.DestroyTextureView(r.resolveView)
		r.resolveView = nil
	}
	if r.resolveTex != nil {
		r.device.DestroyTexture(r.resolveTex)
		r.resolveTex = nil
	}
	if r.msaaView != nil {
		r.device.DestroyTextureView(r.msaaView)
		r.msaaView = nil
	}
	if r.msaaTex != nil {
		r.device.DestroyTexture(r.msaaTex)
		r.msaaTex = nil
	}
	r.width = 0
	r.height = 0
}

// buildFrameResources uploads the quad batch and style into fresh GPU
// buffers and binds them with the atlas view and sampler.
func (r *GlyphRenderer) buildFrameResources(quads []huozi.Quad, style huozi.Style) (*glyphFrameResources, error) {
	vertBuf, err := r.createAndUploadBuffer("sdf_text_verts", buildGlyphVertexData(quads),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}

	idxBuf, err := r.createAndUploadBuffer("sdf_text_indices", buildGlyphIndexData(len(quads)),
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		r.device.DestroyBuffer(vertBuf)
		return nil, err
	}

	uniformBuf, err := r.createAndUploadBuffer("sdf_text_style", makeStyleUniform(style),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		r.device.DestroyBuffer(idxBuf)
		r.device.DestroyBuffer(vertBuf)
		return nil, err
	}

	bindGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "sdf_text_bind",
		Layout: r.pipeline.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: styleUniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: r.atlasTex.view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: r.pipeline.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		r.device.DestroyBuffer(uniformBuf)
		r.device.DestroyBuffer(idxBuf)
		r.device.DestroyBuffer(vertBuf)
		return nil, fmt.Errorf("create bind group: %w", err)
	}

	return &glyphFrameResources{
		vertBuf:    vertBuf,
		idxBuf:     idxBuf,
		uniformBuf: uniformBuf,
		bindGroup:  bindGroup,
		indexCount: uint32(len(quads) * 6), //nolint:gosec // quad count checked against maxQuadsPerDraw
	}, nil
}

// destroyFrameResources releases per-frame buffers and the bind group.
func (r *GlyphRenderer) destroyFrameResources(res *glyphFrameResources) {
	if res == nil {
		return
	}
	if res.bindGroup != nil {
		r.device.DestroyBindGroup(res.bindGroup)
	}
	if res.uniformBuf != nil {
		r.device.DestroyBuffer(res.uniformBuf)
	}
	if res.idxBuf != nil {
		r.device.DestroyBuffer(res.idxBuf)
	}
	if res.vertBuf != nil {
		r.device.DestroyBuffer(res.vertBuf)
	}
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (r *GlyphRenderer) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	r.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// encodeAndReadback encodes the glyph render pass, copies the resolve
// texture to a staging buffer, submits, waits, and composites the result
// over the pixmap.
func (r *GlyphRenderer) encodeAndReadback(w, h uint32, res *glyphFrameResources, target *huozi.Pixmap) error {
	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "sdf_text_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("sdf_text"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "sdf_text_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:          r.msaaView,
				ResolveTarget: r.resolveView,
				LoadOp:        gputypes.LoadOpClear,
				StoreOp:       gputypes.StoreOpStore,
				ClearValue:    gputypes.Color{R: 0, G: 0, B: 0, A: 0},
			},
		},
	})
	rp.SetPipeline(r.pipeline.pipeline)
	rp.SetBindGroup(0, res.bindGroup, nil)
	rp.SetVertexBuffer(0, res.vertBuf, 0)
	rp.SetIndexBuffer(res.idxBuf, gputypes.IndexFormatUint16, 0)
	rp.DrawIndexed(res.indexCount, 1, 0, 0, 0)
	rp.End()

	// After the MSAA resolve the texture sits in COLOR_ATTACHMENT_OPTIMAL
	// layout; CopyTextureToBuffer requires TRANSFER_SRC_OPTIMAL. Explicit
	// barrier for Vulkan, a no-op on other backends.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.resolveTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	pixelBufSize := uint64(w) * uint64(h) * 4
	stagingBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sdf_text_staging",
		Size:  pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer r.device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(r.resolveTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: r.resolveTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	fence, err := r.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer r.device.DestroyFence(fence)

	if err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := r.device.Wait(fence, 1, 5*time.Second)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, pixelBufSize)
	if err := r.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}

	compositeBGRAOverRGBA(readback, target.Data(), int(w)*int(h))
	return nil
}

// compositeBGRAOverRGBA alpha-composites premultiplied BGRA readback pixels
// over straight-alpha RGBA destination pixels in place.
func compositeBGRAOverRGBA(src []byte, dst []uint8, pixelCount int) {
	for i := 0; i < pixelCount; i++ {
		off := i * 4
		sb := uint32(src[off+0])
		sg := uint32(src[off+1])
		sr := uint32(src[off+2])
		sa := uint32(src[off+3])
		if sa == 0 {
			continue
		}
		if sa == 255 {
			dst[off+0] = uint8(sr) //nolint:gosec // 8-bit channel
			dst[off+1] = uint8(sg) //nolint:gosec // 8-bit channel
			dst[off+2] = uint8(sb) //nolint:gosec // 8-bit channel
			dst[off+3] = 255
			continue
		}

		da := uint32(dst[off+3])
		inv := 255 - sa
		outA := sa + (da*inv+127)/255
		if outA == 0 {
			dst[off+0], dst[off+1], dst[off+2], dst[off+3] = 0, 0, 0, 0
			continue
		}

		// src channels are premultiplied; dst channels are straight, so
		// premultiply dst on the way in and divide the result back out.
		blend := func(s, d uint32) uint8 {
			dp := (d*da + 127) / 255
			out := (s*255 + dp*inv + 127) / 255     // premultiplied result
			return uint8((out*255 + outA/2) / outA) //nolint:gosec // quotient bounded by 255
		}
		dst[off+0] = blend(sr, uint32(dst[off+0]))
		dst[off+1] = blend(sg, uint32(dst[off+1]))
		dst[off+2] = blend(sb, uint32(dst[off+2]))
		dst[off+3] = uint8(outA) //nolint:gosec // alpha bounded by 255
	}
}
