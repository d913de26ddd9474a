package geometry

// MeshAttributeCornerTable overlays a corner table with attribute seams: it
// redirects Opposite to return InvalidIndex across seam edges and renumbers
// vertices so that every seam-separated fan around a mesh vertex gets its
// own attribute vertex. Attribute traversal runs on this table so predicted
// values never leak across discontinuities.
type MeshAttributeCornerTable struct {
	base *CornerTable

	isEdgeOnSeam   []bool
	cornerToVertex []int32
	// vertexToLeftMostCorner anchors each attribute vertex at the first
	// corner of its fan.
	vertexToLeftMostCorner []int32

	noInteriorSeams bool
	numVertices     int
}

// NewMeshAttributeCornerTable creates a seam-free overlay of base. Seams are
// added with AddSeamEdge and applied with RecomputeVertices.
func NewMeshAttributeCornerTable(base *CornerTable) *MeshAttributeCornerTable {
	return &MeshAttributeCornerTable{
		base:            base,
		isEdgeOnSeam:    make([]bool, base.NumCorners()),
		cornerToVertex:  make([]int32, base.NumCorners()),
		noInteriorSeams: true,
	}
}

// AddSeamEdge marks the edge facing corner c (and its mirror) as an
// attribute seam.
func (t *MeshAttributeCornerTable) AddSeamEdge(c int32) {
	t.isEdgeOnSeam[c] = true
	if opp := t.base.Opposite(c); opp != InvalidIndex {
		t.noInteriorSeams = false
		t.isEdgeOnSeam[opp] = true
	}
}

// NoInteriorSeams reports whether every marked seam lies on a mesh boundary;
// such attributes can share the position vertex numbering.
func (t *MeshAttributeCornerTable) NoInteriorSeams() bool {
	return t.noInteriorSeams
}

// RecomputeVertices walks every mesh vertex ring and assigns attribute
// vertices, starting a new one whenever the walk crosses a seam edge.
func (t *MeshAttributeCornerTable) RecomputeVertices() {
	t.numVertices = 0
	t.vertexToLeftMostCorner = t.vertexToLeftMostCorner[:0]

	maxSteps := t.base.NumCorners()
	for v := int32(0); v < int32(t.base.NumVertices()); v++ {
		c := t.base.LeftMostCorner(v)
		if c == InvalidIndex {
			continue // isolated vertex
		}

		// Find the clockwise-most corner of the base ring; an open ring must
		// be walked from its clockwise end to cover every corner.
		start := c
		closed := false
		for steps := 0; steps < maxSteps; steps++ {
			actC := t.base.SwingRight(start)
			if actC == InvalidIndex {
				break
			}
			if actC == c {
				closed = true
				start = c
				break
			}
			start = actC
		}
		if closed {
			// A closed ring with seams starts at a fan boundary instead.
			for steps := 0; steps < maxSteps; steps++ {
				actC := t.SwingRight(start)
				if actC == InvalidIndex || actC == c {
					break
				}
				start = actC
			}
		}

		firstVert := int32(t.numVertices)
		t.numVertices++
		t.vertexToLeftMostCorner = append(t.vertexToLeftMostCorner, start)
		t.cornerToVertex[start] = firstVert

		actC := t.base.SwingLeft(start)
		for actC != InvalidIndex && actC != start {
			// The step onto actC crossed the radial edge facing
			// Previous(actC); a seam there splits the fan.
			if t.IsCornerOppositeToSeamEdge(t.base.Previous(actC)) {
				firstVert = int32(t.numVertices)
				t.numVertices++
				t.vertexToLeftMostCorner = append(t.vertexToLeftMostCorner, actC)
			}
			t.cornerToVertex[actC] = firstVert
			actC = t.base.SwingLeft(actC)
		}
	}
}

// IsCornerOppositeToSeamEdge reports whether the edge facing c is a seam.
func (t *MeshAttributeCornerTable) IsCornerOppositeToSeamEdge(c int32) bool {
	return c >= 0 && t.isEdgeOnSeam[c]
}

// NumVertices returns the number of attribute vertices.
func (t *MeshAttributeCornerTable) NumVertices() int {
	return t.numVertices
}

// NumFaces returns the number of faces of the underlying table.
func (t *MeshAttributeCornerTable) NumFaces() int {
	return t.base.NumFaces()
}

// NumCorners returns the number of corners of the underlying table.
func (t *MeshAttributeCornerTable) NumCorners() int {
	return t.base.NumCorners()
}

// Next returns the next corner on the same face.
func (t *MeshAttributeCornerTable) Next(c int32) int32 {
	return t.base.Next(c)
}

// Previous returns the previous corner on the same face.
func (t *MeshAttributeCornerTable) Previous(c int32) int32 {
	return t.base.Previous(c)
}

// Vertex returns the attribute vertex at corner c.
func (t *MeshAttributeCornerTable) Vertex(c int32) int32 {
	if c < 0 {
		return InvalidIndex
	}

	return t.cornerToVertex[c]
}

// Opposite mirrors CornerTable.Opposite but treats seam edges as
// boundaries.
func (t *MeshAttributeCornerTable) Opposite(c int32) int32 {
	if c < 0 || t.isEdgeOnSeam[c] {
		return InvalidIndex
	}

	return t.base.Opposite(c)
}

// SwingRight swings clockwise around the attribute vertex of c.
func (t *MeshAttributeCornerTable) SwingRight(c int32) int32 {
	return t.Previous(t.Opposite(t.Previous(c)))
}

// SwingLeft swings counter-clockwise around the attribute vertex of c.
func (t *MeshAttributeCornerTable) SwingLeft(c int32) int32 {
	return t.Next(t.Opposite(t.Next(c)))
}

// GetRightCorner returns the corner opposite to Next(c), honoring seams.
func (t *MeshAttributeCornerTable) GetRightCorner(c int32) int32 {
	if c < 0 {
		return InvalidIndex
	}

	return t.Opposite(t.base.Next(c))
}

// GetLeftCorner returns the corner opposite to Previous(c), honoring seams.
func (t *MeshAttributeCornerTable) GetLeftCorner(c int32) int32 {
	if c < 0 {
		return InvalidIndex
	}

	return t.Opposite(t.base.Previous(c))
}

// LeftMostCorner returns the fan anchor of attribute vertex v.
func (t *MeshAttributeCornerTable) LeftMostCorner(v int32) int32 {
	if v < 0 || int(v) >= len(t.vertexToLeftMostCorner) {
		return InvalidIndex
	}

	return t.vertexToLeftMostCorner[v]
}

// IsOnBoundary reports whether attribute vertex v touches a seam or mesh
// boundary.
func (t *MeshAttributeCornerTable) IsOnBoundary(v int32) bool {
	c := t.LeftMostCorner(v)
	if c == InvalidIndex {
		return true
	}

	return t.SwingLeft(c) == InvalidIndex
}
