package huozi

import "math"

// invSqrt2 scales the screen-space gradient magnitude of the sampled
// distance down to the half-width of a one-pixel transition band.
const invSqrt2 = 0.70710678118654757

// Style is the per-draw uniform block: tint color, the distance value that
// marks the glyph edge, and the smoothing half-width. All three are
// constant for the duration of one draw call.
type Style struct {
	// Color is the tint applied to every covered pixel.
	Color RGBA

	// Buffer is the distance-field value considered the exact glyph edge,
	// in [0, 1]. Values outside [0, 1] are a caller contract violation and
	// produce an undefined result.
	Buffer float64

	// Gamma is the smoothing half-width around Buffer over which coverage
	// ramps from 0 to 1. Zero selects automatic derivative-based smoothing,
	// which keeps edges one pixel wide regardless of glyph scale. Negative
	// values are a caller contract violation.
	Gamma float64
}

// Smoothing is the smoothing mode of one draw call, resolved from Style
// once so the per-pixel loop branches on a plain bool instead of
// re-interpreting Gamma.
type Smoothing struct {
	auto  bool
	width float64
}

// Smoothing resolves the style's gamma into a smoothing mode.
func (s Style) Smoothing() Smoothing {
	if s.Gamma == 0 {
		return Smoothing{auto: true}
	}
	return Smoothing{width: s.Gamma}
}

// Auto reports whether the width is derived per pixel from the sampled
// distance's screen-space derivatives.
func (m Smoothing) Auto() bool { return m.auto }

// Width returns the antialiasing half-width for one pixel given the
// screen-space partial derivatives of the sampled distance. In fixed mode
// the derivatives are ignored.
func (m Smoothing) Width(ddx, ddy float64) float64 {
	if m.auto {
		return AutoWidth(ddx, ddy)
	}
	return m.width
}

// AutoWidth derives the antialiasing half-width from the screen-space
// partial derivatives of the sampled distance. The width is proportional
// to how fast the field changes per pixel, so the edge transition stays
// one pixel wide under any scale, rotation, or resolution.
func AutoWidth(ddx, ddy float64) float64 {
	return math.Hypot(ddx, ddy) * invSqrt2
}

// Coverage converts a sampled distance value d into antialiased coverage
// using a Hermite smoothstep over [edge-w, edge+w]:
//
//	d <= edge-w => 0.0 (fully outside)
//	d >= edge+w => 1.0 (fully inside)
//	otherwise   => smooth transition, 0.5 exactly at the edge
//
// A zero width is a hard step at the edge (d >= edge yields 1). The branch
// is explicit so a degenerate width never divides by zero and never leaks
// a NaN into the output color.
func Coverage(d, edge, w float64) float64 {
	if w == 0 {
		if d >= edge {
			return 1
		}
		return 0
	}
	lo, hi := edge-w, edge+w
	if d <= lo {
		return 0
	}
	if d >= hi {
		return 1
	}
	t := (d - lo) / (2 * w)
	// Hermite smoothstep: 3t^2 - 2t^3
	return t * t * (3 - 2*t)
}

// Resolve runs the coverage resolve for one pixel: given the sampled
// distance and its screen-space derivatives, it returns the final fragment
// color (tint.rgb, tint.a * coverage). Pure function; the derivatives are
// only consulted in automatic smoothing mode.
func (m Smoothing) Resolve(style Style, d, ddx, ddy float64) RGBA {
	alpha := Coverage(d, style.Buffer, m.Width(ddx, ddy))
	return RGBA{
		R: style.Color.R,
		G: style.Color.G,
		B: style.Color.B,
		A: style.Color.A * alpha,
	}
}
