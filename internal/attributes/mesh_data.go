// Package attributes implements the sequential attribute pipeline: the
// four-phase per-attribute decoders, the prediction schemes with their
// correction transforms, and the traversal sequencing that orders attribute
// values the way the encoder produced them.
package attributes

import (
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/geometry"
)

// CornerTableView is the connectivity surface the attribute pipeline walks:
// either the position corner table or a seam-aware attribute corner table.
type CornerTableView interface {
	NumFaces() int
	NumCorners() int
	NumVertices() int
	Next(c int32) int32
	Previous(c int32) int32
	Vertex(c int32) int32
	Opposite(c int32) int32
	SwingRight(c int32) int32
	SwingLeft(c int32) int32
	GetRightCorner(c int32) int32
	GetLeftCorner(c int32) int32
	LeftMostCorner(v int32) int32
	IsOnBoundary(v int32) bool
}

var (
	_ CornerTableView = (*geometry.CornerTable)(nil)
	_ CornerTableView = (*geometry.MeshAttributeCornerTable)(nil)
)

// MeshData binds a corner-table view to the value ordering of one attribute:
// DataToCorner maps value index to the corner it was reached through,
// VertexToData maps corner-table vertices to value indices (-1 when a vertex
// carries no value).
type MeshData struct {
	Corner       CornerTableView
	DataToCorner []int32
	VertexToData []int32
}

// Valid reports whether mesh connectivity is available; point-cloud streams
// decode without it.
func (m *MeshData) Valid() bool {
	return m != nil && m.Corner != nil
}

// PointsSequence carries the value ordering of one attributes-decoder: the
// point id of every attribute value in decode order, the optional mesh data
// for prediction, and the point-to-value map installed on the finished
// attribute.
type PointsSequence struct {
	// PointIDs has one entry per attribute value, in decode order.
	PointIDs []uint32
	// IndicesMap maps point ids to value indices; nil means identity.
	IndicesMap []uint32
	// MeshData is non-nil when the values were ordered by a corner-table
	// traversal.
	MeshData *MeshData
	// CornerToPoint maps corners to point ids for parent-attribute lookups.
	CornerToPoint []uint32
}

// NumValues returns the number of attribute values in the sequence.
func (s *PointsSequence) NumValues() int {
	return len(s.PointIDs)
}

// LinearSequence orders values identically to point ids: value i belongs to
// point i. Used by point clouds and sequentially-coded meshes.
func LinearSequence(numPoints int) *PointsSequence {
	pointIDs := make([]uint32, numPoints)
	for i := range pointIDs {
		pointIDs[i] = uint32(i)
	}

	return &PointsSequence{PointIDs: pointIDs}
}

// LinearMeshSequence is a linear sequence that still carries mesh data so
// parallelogram-family schemes can run on sequentially-coded meshes. Every
// vertex maps to the value of its id; values anchor at ring corners.
func LinearMeshSequence(view CornerTableView, cornerToPoint []uint32, numPoints int) *PointsSequence {
	seq := LinearSequence(numPoints)
	numVerts := view.NumVertices()
	md := &MeshData{
		Corner:       view,
		DataToCorner: make([]int32, numVerts),
		VertexToData: make([]int32, numVerts),
	}
	for v := 0; v < numVerts; v++ {
		md.DataToCorner[v] = view.LeftMostCorner(int32(v))
		md.VertexToData[v] = int32(v)
	}
	seq.MeshData = md
	seq.CornerToPoint = cornerToPoint

	return seq
}

// TraversalSequence orders values by a depth-first traversal of the corner
// table, visiting faces in id order; this reproduces the value order of the
// edgebreaker encoder.
func TraversalSequence(view CornerTableView, cornerToPoint []uint32, numPoints int) (*PointsSequence, error) {
	dataToCorner, vertexToData, err := traverseDepthFirst(view)
	if err != nil {
		return nil, err
	}

	seq := &PointsSequence{
		PointIDs:      make([]uint32, len(dataToCorner)),
		IndicesMap:    make([]uint32, numPoints),
		MeshData:      &MeshData{Corner: view, DataToCorner: dataToCorner, VertexToData: vertexToData},
		CornerToPoint: cornerToPoint,
	}
	for d, corner := range dataToCorner {
		seq.PointIDs[d] = cornerToPoint[corner]
	}
	for c := 0; c < view.NumCorners(); c++ {
		v := view.Vertex(int32(c))
		if v == geometry.InvalidIndex {
			return nil, errs.Internal(0, "corner without vertex during sequencing")
		}
		d := vertexToData[v]
		if d < 0 {
			return nil, errs.Internal(0, "vertex without attribute value during sequencing")
		}
		seq.IndicesMap[cornerToPoint[c]] = uint32(d)
	}

	return seq, nil
}

// traverseDepthFirst floods the corner table face by face, registering every
// vertex the first time it is reached. The visit order matches the
// traversal the encoder used, which is what makes prediction reproducible.
func traverseDepthFirst(view CornerTableView) (dataToCorner []int32, vertexToData []int32, err error) {
	numFaces := view.NumFaces()
	vertexToData = make([]int32, view.NumVertices())
	for i := range vertexToData {
		vertexToData[i] = -1
	}
	visitedFace := make([]bool, numFaces)

	onVertex := func(v, c int32) {
		if vertexToData[v] < 0 {
			vertexToData[v] = int32(len(dataToCorner))
			dataToCorner = append(dataToCorner, c)
		}
	}

	var stack []int32
	for f := int32(0); f < int32(numFaces); f++ {
		if visitedFace[f] {
			continue
		}
		startCorner := 3 * f
		nextVert := view.Vertex(view.Next(startCorner))
		prevVert := view.Vertex(view.Previous(startCorner))
		if nextVert == geometry.InvalidIndex || prevVert == geometry.InvalidIndex {
			return nil, nil, errs.Internal(0, "face without vertices during traversal")
		}
		onVertex(nextVert, view.Next(startCorner))
		onVertex(prevVert, view.Previous(startCorner))

		stack = stack[:0]
		stack = append(stack, startCorner)
		for len(stack) > 0 {
			corner := stack[len(stack)-1]
			for {
				if corner == geometry.InvalidIndex || visitedFace[corner/3] {
					stack = stack[:len(stack)-1]
					break
				}
				visitedFace[corner/3] = true

				vert := view.Vertex(corner)
				if vert == geometry.InvalidIndex {
					return nil, nil, errs.Internal(0, "corner without vertex during traversal")
				}
				if vertexToData[vert] < 0 {
					onVertex(vert, corner)
					if !view.IsOnBoundary(vert) {
						corner = view.GetRightCorner(corner)
						continue
					}
				}

				right := view.GetRightCorner(corner)
				left := view.GetLeftCorner(corner)
				rightVisited := right == geometry.InvalidIndex || visitedFace[right/3]
				leftVisited := left == geometry.InvalidIndex || visitedFace[left/3]
				switch {
				case leftVisited && rightVisited:
					stack = stack[:len(stack)-1]
				case leftVisited:
					corner = right
					continue
				case rightVisited:
					corner = left
					continue
				default:
					// Both branches open: continue right, queue left.
					stack[len(stack)-1] = left
					stack = append(stack, right)
					corner = right
					continue
				}
				break
			}
		}
	}

	return dataToCorner, vertexToData, nil
}
