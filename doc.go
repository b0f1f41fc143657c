// Package huozi renders antialiased glyphs from a signed-distance-field
// (SDF) texture atlas.
//
// # Overview
//
// huozi implements the two per-primitive stages of SDF text rendering:
//
//   - Vertex transform: a glyph-quad vertex (position, atlas UV, atlas page)
//     is carried into clip space. Projection happens upstream; this stage is
//     a pure pass-through.
//   - Coverage resolve: per pixel, the scalar distance field is sampled on
//     the selected atlas page and converted into coverage (alpha) with a
//     smooth threshold function. The transition width is either fixed or
//     derived from the screen-space rate of change of the sampled distance,
//     keeping glyph edges one pixel wide at any scale.
//
// Everything upstream of these stages (glyph shaping, layout, SDF
// generation) is the host application's responsibility: huozi consumes
// fully formed vertex records and a per-draw style block.
//
// # Packages
//
//   - huozi (this package): core coverage math, vertex records, style block,
//     pixmap render target
//   - atlas: multi-page scalar SDF texture, page packing, sampling filters
//   - raster: software rasterizer running both stages on the CPU
//   - render: renderer front end selecting the GPU or software path
//   - internal/gpu: wgpu render pipeline running the stages on the GPU
//   - markup: inline styling markup parser ([tag=value]text[/tag])
//   - cache: sharded LRU backing the markup parse cache
//
// # Quick Start
//
//	tex := atlas.NewTexture(64, 1)
//	// ... populate tex with distance values ...
//
//	pix := huozi.NewPixmap(256, 256)
//	r := raster.Renderer{Target: pix, Atlas: tex}
//	r.DrawQuads(quads, huozi.Style{
//	    Color:  huozi.RGB(1, 1, 1),
//	    Buffer: 0.5, // distance value of the glyph edge
//	    Gamma:  0,   // 0 = automatic derivative-based smoothing
//	})
//	pix.SavePNG("out.png")
package huozi
