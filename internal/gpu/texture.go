package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/fossabot/huozi/atlas"
)

// atlasTexture owns the GPU copy of a multi-page distance-field atlas: a
// 2D array texture with one layer per page, plus the array view the bind
// group samples through.
type atlasTexture struct {
	tex   hal.Texture
	view  hal.TextureView
	size  uint32
	pages uint32
}

// createAtlasTexture allocates the array texture and uploads every page of
// src. The layer count is fixed at creation; growing the atlas past it
// means recreating the texture (ensureAtlasTexture handles that).
func createAtlasTexture(device hal.Device, queue hal.Queue, src *atlas.Texture) (*atlasTexture, error) {
	size := uint32(src.Size())   //nolint:gosec // page size is bounded by atlas config
	pages := uint32(src.Pages()) //nolint:gosec // page count is bounded by atlas config
	if size == 0 || pages == 0 {
		return nil, fmt.Errorf("atlas texture is empty")
	}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: "sdf_atlas",
		Size: hal.Extent3D{
			Width:              size,
			Height:             size,
			DepthOrArrayLayers: pages,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create atlas texture: %w", err)
	}

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "sdf_atlas_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2DArray,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create atlas view: %w", err)
	}

	at := &atlasTexture{tex: tex, view: view, size: size, pages: pages}
	for page := 0; page < src.Pages(); page++ {
		at.uploadPage(queue, src, page)
	}
	return at, nil
}

// uploadPage writes one page's texel data into its array layer, expanding
// the scalar field to RGBA on the way.
func (at *atlasTexture) uploadPage(queue hal.Queue, src *atlas.Texture, page int) {
	rgba := fieldToRGBA(src.PageData(page))
	queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  at.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: 0, Y: 0, Z: uint32(page)}, //nolint:gosec // page count is bounded
			Aspect:   gputypes.TextureAspectAll,
		},
		rgba,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  at.size * 4,
			RowsPerImage: at.size,
		},
		&hal.Extent3D{Width: at.size, Height: at.size, DepthOrArrayLayers: 1},
	)
}

// matches reports whether the GPU texture still fits the CPU atlas.
func (at *atlasTexture) matches(src *atlas.Texture) bool {
	return at != nil &&
		at.size == uint32(src.Size()) && //nolint:gosec // page size is bounded
		at.pages == uint32(src.Pages()) //nolint:gosec // page count is bounded
}

// destroy releases the texture resources.
func (at *atlasTexture) destroy(device hal.Device) {
	if at == nil {
		return
	}
	if at.view != nil {
		device.DestroyTextureView(at.view)
		at.view = nil
	}
	if at.tex != nil {
		device.DestroyTexture(at.tex)
		at.tex = nil
	}
}
