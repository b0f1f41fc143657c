package gpu

import (
	"encoding/binary"
	"math"

	"github.com/fossabot/huozi"
)

// buildGlyphVertexData serializes glyph quads into raw vertex bytes for GPU
// upload. Each quad produces 4 vertices x 24 bytes = 96 bytes, in the
// bottom-left, bottom-right, top-right, top-left order QuadIndices expects.
func buildGlyphVertexData(quads []huozi.Quad) []byte {
	if len(quads) == 0 {
		return nil
	}
	data := make([]byte, len(quads)*4*glyphVertexStride)
	off := 0
	for _, q := range quads {
		for _, v := range q.Vertices() {
			writeGlyphVertex(data[off:], v)
			off += glyphVertexStride
		}
	}
	return data
}

// writeGlyphVertex writes a single vertex into buf, matching
// glyphVertexLayout.
func writeGlyphVertex(buf []byte, v huozi.Vertex) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Z))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v.U))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(v.V))
	binary.LittleEndian.PutUint32(buf[20:24], v.Page)
}

// buildGlyphIndexData serializes quad indices into raw bytes for GPU upload.
func buildGlyphIndexData(numQuads int) []byte {
	indices := huozi.QuadIndices(numQuads)
	data := make([]byte, len(indices)*2)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(data[i*2:], idx)
	}
	return data
}

// makeStyleUniform creates the 32-byte uniform buffer for one draw call,
// matching StyleUniforms in sdf_text.wgsl: color vec4, buffer value, gamma,
// 8 bytes of padding.
func makeStyleUniform(style huozi.Style) []byte {
	buf := make([]byte, styleUniformSize)
	off := 0

	for _, c := range [4]float64{style.Color.R, style.Color.G, style.Color.B, style.Color.A} {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(c)))
		off += 4
	}

	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(style.Buffer)))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(style.Gamma)))
	// Trailing padding remains zero.

	return buf
}

// fieldToRGBA expands one-byte-per-texel distance data to 4-byte RGBA,
// replicating the scalar into every channel. GPU texture uploads use
// RGBA8Unorm; the shader reads only .r.
func fieldToRGBA(field []byte) []byte {
	rgba := make([]byte, len(field)*4)
	for i, d := range field {
		off := i * 4
		rgba[off+0] = d
		rgba[off+1] = d
		rgba[off+2] = d
		rgba[off+3] = d
	}
	return rgba
}
