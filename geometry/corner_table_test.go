package geometry

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// quadFaces is a unit quad split into two triangles sharing the edge 0-2.
//
//	3---2
//	| / |
//	0---1
var quadFaces = [][3]uint32{
	{0, 1, 2},
	{0, 2, 3},
}

func TestCornerTable_NextPrevious(t *testing.T) {
	ct := NewCornerTableFromFaces(quadFaces, 4)

	require.Equal(t, int32(1), ct.Next(0))
	require.Equal(t, int32(2), ct.Next(1))
	require.Equal(t, int32(0), ct.Next(2))
	require.Equal(t, int32(2), ct.Previous(0))
	require.Equal(t, int32(4), ct.Next(3))
	require.Equal(t, int32(5), ct.Previous(3))
}

func TestCornerTable_FromFaces(t *testing.T) {
	ct := NewCornerTableFromFaces(quadFaces, 4)

	require.Equal(t, 2, ct.NumFaces())
	require.Equal(t, 6, ct.NumCorners())
	require.Equal(t, 4, ct.NumVertices())

	// The shared edge 0-2 faces corner 1 (vertex 1) and corner 5 (vertex 3).
	require.Equal(t, int32(5), ct.Opposite(1))
	require.Equal(t, int32(1), ct.Opposite(5))

	// All other edges are boundaries.
	for _, c := range []int32{0, 2, 3, 4} {
		require.Equal(t, InvalidIndex, ct.Opposite(c), "corner %d", c)
	}

	// Opposite is an involution on interior corners.
	for c := int32(0); c < int32(ct.NumCorners()); c++ {
		if opp := ct.Opposite(c); opp != InvalidIndex {
			require.Equal(t, c, ct.Opposite(opp))
		}
	}
}

func TestCornerTable_VertexRings(t *testing.T) {
	ct := NewCornerTableFromFaces(quadFaces, 4)

	// Every vertex of the open quad is on the boundary.
	for v := int32(0); v < 4; v++ {
		require.True(t, ct.IsOnBoundary(v), "vertex %d", v)
	}

	// Swinging around vertex 0 from its leftmost corner visits both faces.
	anchor := ct.LeftMostCorner(0)
	require.NotEqual(t, InvalidIndex, anchor)
	require.Equal(t, int32(0), ct.Vertex(anchor))

	seen := map[int32]bool{ct.Face(anchor): true}
	for c := ct.SwingRight(anchor); c != InvalidIndex && c != anchor; c = ct.SwingRight(c) {
		require.Equal(t, int32(0), ct.Vertex(c))
		seen[ct.Face(c)] = true
	}
	require.Len(t, seen, 2)
}

func TestCornerTable_ClosedFan(t *testing.T) {
	// Tetrahedron: closed 2-manifold, no boundary anywhere.
	faces := [][3]uint32{
		{0, 1, 2},
		{0, 2, 3},
		{0, 3, 1},
		{1, 3, 2},
	}
	ct := NewCornerTableFromFaces(faces, 4)

	for c := int32(0); c < int32(ct.NumCorners()); c++ {
		opp := ct.Opposite(c)
		require.NotEqual(t, InvalidIndex, opp, "corner %d", c)
		require.Equal(t, c, ct.Opposite(opp))
		// Shared-edge invariant: vertex(next(c)) == vertex(prev(opposite(c))).
		require.Equal(t, ct.Vertex(ct.Next(c)), ct.Vertex(ct.Previous(opp)))
	}
	for v := int32(0); v < 4; v++ {
		require.False(t, ct.IsOnBoundary(v), "vertex %d", v)
	}
}

func TestMeshAttributeCornerTable_NoSeams(t *testing.T) {
	ct := NewCornerTableFromFaces(quadFaces, 4)
	act := NewMeshAttributeCornerTable(ct)
	act.RecomputeVertices()

	require.True(t, act.NoInteriorSeams())
	require.Equal(t, 4, act.NumVertices())
	require.Equal(t, ct.Opposite(1), act.Opposite(1))
}

func TestMeshAttributeCornerTable_InteriorSeam(t *testing.T) {
	ct := NewCornerTableFromFaces(quadFaces, 4)
	act := NewMeshAttributeCornerTable(ct)
	// Split the quad along its diagonal: the shared edge faces corner 1.
	act.AddSeamEdge(1)
	act.RecomputeVertices()

	require.False(t, act.NoInteriorSeams())
	// Vertices 0 and 2 sit on the seam and split in two; 1 and 3 do not.
	require.Equal(t, 6, act.NumVertices())

	// The seam behaves as a boundary for attribute traversal.
	require.Equal(t, InvalidIndex, act.Opposite(1))
	require.Equal(t, InvalidIndex, act.Opposite(5))

	// Corners of the two faces on seam vertices map to distinct attribute
	// vertices.
	require.NotEqual(t, act.Vertex(0), act.Vertex(3)) // mesh vertex 0
	require.NotEqual(t, act.Vertex(2), act.Vertex(4)) // mesh vertex 2
	// The base table keeps the mesh vertex numbering.
	require.Equal(t, int32(1), ct.Vertex(1))
	require.Equal(t, int32(3), ct.Vertex(5))
}

func TestPointAttribute_Mapping(t *testing.T) {
	att := NewPointAttribute(0, 9, 3, false) // position, float32 x3
	att.ResizeValueBuffer(2)
	require.Equal(t, 2, att.NumValues())
	require.Equal(t, 12, att.ByteStride())
	require.Len(t, att.Buffer(), 24)

	require.True(t, att.IsMappingIdentity())
	require.Equal(t, uint32(7), att.MappedIndex(7))

	att.SetExplicitMapping([]uint32{1, 0, 1})
	require.False(t, att.IsMappingIdentity())
	require.Equal(t, uint32(1), att.MappedIndex(0))
	require.Equal(t, uint32(0), att.MappedIndex(1))
	require.Equal(t, uint32(1), att.MappedIndex(2))
}

func TestPointAttribute_ComponentsFloat64(t *testing.T) {
	t.Run("Normalized uint8 scales into unit range", func(t *testing.T) {
		att := NewPointAttribute(2, 2, 3, true) // color, uint8 x3, normalized
		att.ResizeValueBuffer(2)
		copy(att.Buffer(), []byte{0, 128, 255, 51, 102, 204})

		require.Equal(t, []float64{0, 128.0 / 255, 1}, att.ComponentsFloat64(0))
		require.Equal(t, []float64{51.0 / 255, 102.0 / 255, 204.0 / 255}, att.ComponentsFloat64(1))
	})

	t.Run("Normalized int16 scales into signed unit range", func(t *testing.T) {
		att := NewPointAttribute(4, 3, 2, true) // generic, int16 x2, normalized
		att.ResizeValueBuffer(1)
		buf := att.Buffer()
		buf[0], buf[1] = 0xFF, 0x7F // 32767
		buf[2], buf[3] = 0x00, 0x80 // -32768 clamps to -1

		got := att.ComponentsFloat64(0)
		require.Equal(t, 1.0, got[0])
		require.Equal(t, -1.0, got[1])
	})

	t.Run("Unnormalized integers convert by value", func(t *testing.T) {
		att := NewPointAttribute(4, 4, 1, false) // generic, uint16 x1
		att.ResizeValueBuffer(1)
		att.Buffer()[0], att.Buffer()[1] = 0x2C, 0x01 // 300

		require.Equal(t, []float64{300}, att.ComponentsFloat64(0))
	})

	t.Run("Floats pass through untouched", func(t *testing.T) {
		att := NewPointAttribute(0, 9, 1, true) // float32, flag is meaningless
		att.ResizeValueBuffer(1)
		binary.LittleEndian.PutUint32(att.Buffer(), math.Float32bits(-2.5))

		require.Equal(t, []float64{-2.5}, att.ComponentsFloat64(0))
	})
}

func TestFingerprint_Stability(t *testing.T) {
	build := func() *Mesh {
		m := &Mesh{}
		m.SetNumPoints(4)
		att := NewPointAttribute(0, 9, 3, false)
		att.ResizeValueBuffer(4)
		copy(att.Buffer(), []byte{1, 2, 3, 4, 5, 6, 7, 8})
		m.AddAttribute(att)
		m.SetNumFaces(2)
		m.SetFace(0, [3]uint32{0, 1, 2})
		m.SetFace(1, [3]uint32{0, 2, 3})

		return m
	}

	a, b := build(), build()
	require.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.SetFace(1, [3]uint32{0, 3, 2})
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
