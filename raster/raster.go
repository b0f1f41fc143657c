// Package raster runs the SDF glyph pipeline in software: the vertex
// transform and coverage resolve stages execute on the CPU, pixel by
// pixel, blending into a huozi.Pixmap.
//
// The GPU pipeline (internal/gpu) is the production path; this package is
// the reference implementation of the same math, and the harness the
// pipeline's numeric properties are tested against.
package raster

import (
	"math"

	"github.com/fossabot/huozi"
	"github.com/fossabot/huozi/atlas"
)

// Gradient approximates the hardware screen-space derivative primitive:
// the rate of change of the sampled distance with respect to screen X and
// screen Y at one pixel. GPUs provide it by finite differencing over a
// 2x2 pixel block; implementations here approximate it with explicit
// atlas taps at neighboring pixels' UVs.
type Gradient interface {
	// At returns d(dist)/dx and d(dist)/dy at the pixel whose UV is
	// (u, v), where dudx and dvdy are the UV steps per screen pixel.
	At(tex *atlas.Texture, page int, u, v, dudx, dvdy float64) (ddx, ddy float64)
}

// ForwardDifference estimates derivatives with one extra atlas tap per
// axis at the next pixel's UV, mirroring how hardware differences within
// a pixel block.
type ForwardDifference struct{}

// At implements Gradient.
func (ForwardDifference) At(tex *atlas.Texture, page int, u, v, dudx, dvdy float64) (ddx, ddy float64) {
	d0 := tex.Sample(page, u, v)
	ddx = tex.Sample(page, u+dudx, v) - d0
	ddy = tex.Sample(page, u, v+dvdy) - d0
	return ddx, ddy
}

// Renderer rasterizes glyph quads into a pixmap.
//
// Each quad is a screen-aligned rectangle in normalized device
// coordinates; the renderer maps it to pixels, interpolates UV linearly
// across it, holds the page index flat, and resolves coverage per pixel.
// Pixels are independent: there is no cross-pixel state beyond the
// derivative estimator's read-only neighborhood taps.
type Renderer struct {
	// Target receives the blended output.
	Target *huozi.Pixmap

	// Atlas is the distance-field texture, read-only during a draw.
	Atlas *atlas.Texture

	// Gradient overrides the derivative estimator used in automatic
	// smoothing mode. Nil selects ForwardDifference.
	Gradient Gradient
}

// DrawQuads runs both pipeline stages for one draw call. The style is
// constant across the call; its smoothing mode is resolved once, outside
// the per-pixel loop.
func (r *Renderer) DrawQuads(quads []huozi.Quad, style huozi.Style) {
	mode := style.Smoothing()
	grad := r.Gradient
	if grad == nil {
		grad = ForwardDifference{}
	}
	for _, q := range quads {
		r.drawQuad(q, style, mode, grad)
	}
}

// drawQuad rasterizes a single glyph quad.
func (r *Renderer) drawQuad(q huozi.Quad, style huozi.Style, mode huozi.Smoothing, grad Gradient) {
	verts := q.Vertices()

	// Vertex stage: clip position plus pass-through varyings. Glyph quads
	// arrive with w = 1, so the perspective divide is a no-op and the
	// viewport transform maps NDC straight to pixels.
	var sx, sy [4]float64
	for i, v := range verts {
		out := huozi.TransformVertex(v)
		sx[i], sy[i] = r.viewport(float64(out.X), float64(out.Y))
	}

	// Corners 0 and 2 are (X0,Y0) and (X1,Y1); screen-aligned quads keep
	// UV a linear function of the pixel coordinates.
	x0, y0, u0, v0 := sx[0], sy[0], float64(q.U0), float64(q.V0)
	x1, y1, u1, v1 := sx[2], sy[2], float64(q.U1), float64(q.V1)

	if x1 < x0 {
		x0, x1 = x1, x0
		u0, u1 = u1, u0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
		v0, v1 = v1, v0
	}
	if x1-x0 <= 0 || y1-y0 <= 0 {
		return
	}

	dudx := (u1 - u0) / (x1 - x0)
	dvdy := (v1 - v0) / (y1 - y0)
	page := int(q.Page)

	minX := clampInt(int(math.Floor(x0)), 0, r.Target.Width())
	maxX := clampInt(int(math.Ceil(x1)), 0, r.Target.Width())
	minY := clampInt(int(math.Floor(y0)), 0, r.Target.Height())
	maxY := clampInt(int(math.Ceil(y1)), 0, r.Target.Height())

	for py := minY; py < maxY; py++ {
		cy := float64(py) + 0.5
		if cy < y0 || cy >= y1 {
			continue
		}
		v := v0 + (cy-y0)*dvdy
		for px := minX; px < maxX; px++ {
			cx := float64(px) + 0.5
			if cx < x0 || cx >= x1 {
				continue
			}
			u := u0 + (cx-x0)*dudx

			d := r.Atlas.Sample(page, u, v)
			var ddx, ddy float64
			if mode.Auto() {
				ddx, ddy = grad.At(r.Atlas, page, u, v, dudx, dvdy)
			}
			r.Target.BlendPixel(px, py, mode.Resolve(style, d, ddx, ddy))
		}
	}
}

// viewport maps normalized device coordinates to pixel coordinates:
// x in [-1, 1] left to right, y in [-1, 1] bottom to top.
func (r *Renderer) viewport(x, y float64) (px, py float64) {
	px = (x + 1) / 2 * float64(r.Target.Width())
	py = (1 - y) / 2 * float64(r.Target.Height())
	return px, py
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
