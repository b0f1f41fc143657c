package huozi

// Vertex is one corner of a glyph quad as handed over by the upstream mesh
// builder. Positions are already in normalized device coordinates; no
// projection is applied downstream.
type Vertex struct {
	// Position in normalized device coordinates.
	X, Y, Z float32

	// Atlas UV coordinates in [0, 1].
	U, V float32

	// Atlas page index. Must interpolate flat across a primitive: every
	// pixel selects exactly one page, never a blend of two.
	Page uint32
}

// Varying is the output of the vertex stage: the clip-space position plus
// the attributes interpolated for the coverage resolve stage.
type Varying struct {
	// Clip-space position.
	X, Y, Z, W float32

	// Interpolated atlas UV.
	U, V float32

	// Flat atlas page index.
	Page uint32
}

// TransformVertex runs the vertex transform stage: clip position is
// (position, 1) and the remaining attributes pass through unmodified.
func TransformVertex(v Vertex) Varying {
	return Varying{
		X: v.X, Y: v.Y, Z: v.Z, W: 1,
		U: v.U, V: v.V,
		Page: v.Page,
	}
}

// Quad is one glyph quad: a screen-aligned rectangle in normalized device
// coordinates mapped to a rectangular atlas region on a single page.
type Quad struct {
	// Corners in normalized device coordinates.
	X0, Y0, X1, Y1 float32

	// Atlas UV coordinates of the matching corners.
	U0, V0, U1, V1 float32

	// Atlas page holding the glyph.
	Page uint32
}

// Vertices expands the quad into 4 vertices for indexed rendering, in
// bottom-left, bottom-right, top-right, top-left order.
func (q Quad) Vertices() [4]Vertex {
	return [4]Vertex{
		{X: q.X0, Y: q.Y0, U: q.U0, V: q.V0, Page: q.Page},
		{X: q.X1, Y: q.Y0, U: q.U1, V: q.V0, Page: q.Page},
		{X: q.X1, Y: q.Y1, U: q.U1, V: q.V1, Page: q.Page},
		{X: q.X0, Y: q.Y1, U: q.U0, V: q.V1, Page: q.Page},
	}
}

// QuadVertices expands a batch of quads into a vertex array, 4 vertices
// per quad.
func QuadVertices(quads []Quad) []Vertex {
	vertices := make([]Vertex, len(quads)*4)
	for i, q := range quads {
		v := q.Vertices()
		copy(vertices[i*4:], v[:])
	}
	return vertices
}

// QuadIndices generates index buffer data for a given number of quads.
// Uses the pattern 0,1,2, 2,3,0 for each quad (two triangles).
func QuadIndices(numQuads int) []uint16 {
	indices := make([]uint16, numQuads*6)
	for i := 0; i < numQuads; i++ {
		base := i * 6
		vertex := uint16(i * 4) //nolint:gosec // quad count is bounded by the pipeline's max capacity

		indices[base+0] = vertex + 0
		indices[base+1] = vertex + 1
		indices[base+2] = vertex + 2

		indices[base+3] = vertex + 2
		indices[base+4] = vertex + 3
		indices[base+5] = vertex + 0
	}
	return indices
}
