package huozi

import (
	"image/color"
	"math"
	"testing"
)

func colorsEqual(a, b RGBA, tol float64) bool {
	return math.Abs(a.R-b.R) <= tol &&
		math.Abs(a.G-b.G) <= tol &&
		math.Abs(a.B-b.B) <= tol &&
		math.Abs(a.A-b.A) <= tol
}

func TestRGB(t *testing.T) {
	c := RGB(0.1, 0.2, 0.3)
	if !colorsEqual(c, RGBA{0.1, 0.2, 0.3, 1.0}, 1e-9) {
		t.Errorf("RGB(0.1, 0.2, 0.3) = %+v", c)
	}
}

func TestPremultiply(t *testing.T) {
	c := RGBA{R: 1.0, G: 0.5, B: 0.25, A: 0.5}
	got := c.Premultiply()
	want := RGBA{R: 0.5, G: 0.25, B: 0.125, A: 0.5}
	if !colorsEqual(got, want, 1e-9) {
		t.Errorf("Premultiply() = %+v, want %+v", got, want)
	}
}

func TestHex(t *testing.T) {
	tests := []struct {
		name string
		hex  string
		want RGBA
	}{
		{"RGB short", "#f60", RGBA{1, 0.4, 0, 1}},
		{"RGBA short", "#f608", RGBA{1, 0.4, 0, 136.0 / 255}},
		{"RRGGBB", "#ff6600", RGBA{1, 0.4, 0, 1}},
		{"RRGGBBAA", "#ff660080", RGBA{1, 0.4, 0, 128.0 / 255}},
		{"no prefix", "ff6600", RGBA{1, 0.4, 0, 1}},
		{"0x prefix", "0xff6600", RGBA{1, 0.4, 0, 1}},
		{"uppercase", "#FF6600", RGBA{1, 0.4, 0, 1}},
		{"invalid length", "#ff66", Black},
		{"empty", "", Black},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hex(tt.hex)
			if !colorsEqual(got, tt.want, 1e-2) {
				t.Errorf("Hex(%q) = %+v, want %+v", tt.hex, got, tt.want)
			}
		})
	}
}

func TestColorRoundTrip(t *testing.T) {
	orig := RGBA{R: 0.25, G: 0.5, B: 0.75, A: 1.0}
	got := FromColor(orig.Color())
	if !colorsEqual(got, orig, 1.0/255) {
		t.Errorf("round trip = %+v, want %+v", got, orig)
	}
}

func TestFromColor(t *testing.T) {
	got := FromColor(color.NRGBA{R: 255, G: 102, B: 0, A: 255})
	want := RGBA{1, 0.4, 0, 1}
	if !colorsEqual(got, want, 1e-2) {
		t.Errorf("FromColor = %+v, want %+v", got, want)
	}
}
