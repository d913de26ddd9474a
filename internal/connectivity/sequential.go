// Package connectivity decodes mesh connectivity: the sequential face-index
// coder and the edgebreaker CLERS coder, both producing the corner table and
// point bookkeeping that drive attribute traversal.
package connectivity

import (
	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
	"github.com/arloliu/draco/geometry"
	"github.com/arloliu/draco/internal/entropy"
)

// AttributeData carries the seam-aware corner table of one attribute-data
// block of an edgebreaker stream.
type AttributeData struct {
	CornerTable     *geometry.MeshAttributeCornerTable
	TraversalMethod format.TraversalMethod
	// DecoderID is the attributes-decoder bound to this data, -1 while
	// unbound.
	DecoderID int
}

// DecodedMesh is the result of connectivity decoding: the corner table, the
// triangle list in point ids, and the per-attribute seam tables.
type DecodedMesh struct {
	CornerTable *geometry.CornerTable
	// CornerToPoint maps every corner to its point id. With attribute seams
	// several points can share one corner-table vertex.
	CornerToPoint []uint32
	Faces         [][3]uint32
	NumPoints     int

	AttributeData []*AttributeData
	// IsVertexHole marks corner-table vertices that lie on an open boundary.
	IsVertexHole []bool
}

// maxDecodableFaces bounds declared face counts: 3 corners must fit in
// uint32 corner ids.
const maxDecodableFaces = (1 << 32) / 3

// DecodeSequential decodes the sequential connectivity block (raw or
// delta-compressed face indices) and builds the corner table from the
// resulting triangles.
func DecodeSequential(buf *buffer.DecoderBuffer) (*DecodedMesh, error) {
	var numFaces, numPoints uint32
	var err error
	if buf.Version() < format.V2_2 {
		if numFaces, err = buf.DecodeUint32(); err != nil {
			return nil, err
		}
		if numPoints, err = buf.DecodeUint32(); err != nil {
			return nil, err
		}
	} else {
		if numFaces, err = buf.DecodeVarintUint32(); err != nil {
			return nil, err
		}
		if numPoints, err = buf.DecodeVarintUint32(); err != nil {
			return nil, err
		}
	}
	if uint64(numFaces) > maxDecodableFaces {
		return nil, errs.Corruptf(buf.Pos(), "face count %d exceeds sanity bound", numFaces)
	}

	method, err := buf.DecodeUint8()
	if err != nil {
		return nil, err
	}

	faces := make([][3]uint32, numFaces)
	switch method {
	case 0:
		err = decodeCompressedIndices(buf, faces)
	case 1:
		err = decodeRawIndices(buf, numPoints, faces)
	default:
		return nil, errs.Unsupported(buf.Pos(), "unknown sequential connectivity method")
	}
	if err != nil {
		return nil, err
	}

	for f, face := range faces {
		for _, idx := range face {
			if idx >= numPoints {
				return nil, errs.Corruptf(buf.Pos(), "face %d references point %d of %d", f, idx, numPoints)
			}
		}
	}

	mesh := &DecodedMesh{
		CornerTable: geometry.NewCornerTableFromFaces(faces, int(numPoints)),
		Faces:       faces,
		NumPoints:   int(numPoints),
	}
	// Sequential streams address points directly: corner -> point is just
	// the face index entry.
	mesh.CornerToPoint = make([]uint32, 3*len(faces))
	for f, face := range faces {
		mesh.CornerToPoint[3*f] = face[0]
		mesh.CornerToPoint[3*f+1] = face[1]
		mesh.CornerToPoint[3*f+2] = face[2]
	}

	return mesh, nil
}

// decodeCompressedIndices reads 3*numFaces symbols and undoes the
// sign-magnitude delta coding against a running index.
func decodeCompressedIndices(buf *buffer.DecoderBuffer, faces [][3]uint32) error {
	numIndices := 3 * len(faces)
	symbols := make([]uint32, numIndices)
	if err := entropy.DecodeSymbols(numIndices, 1, buf, symbols); err != nil {
		return err
	}

	last := int32(0)
	for i, sym := range symbols {
		delta := int32(sym >> 1)
		if sym&1 != 0 {
			delta = -delta
		}
		last += delta
		if last < 0 {
			return errs.Corrupt(buf.Pos(), "negative face index after delta decode")
		}
		faces[i/3][i%3] = uint32(last)
	}

	return nil
}

// decodeRawIndices reads per-index values whose width steps up with the
// point count: uint8, uint16, varint (2.2+), then uint32.
func decodeRawIndices(buf *buffer.DecoderBuffer, numPoints uint32, faces [][3]uint32) error {
	readIndex := func() (uint32, error) { return buf.DecodeUint32() }
	switch {
	case numPoints < 256:
		readIndex = func() (uint32, error) {
			v, err := buf.DecodeUint8()
			return uint32(v), err
		}
	case numPoints < 1<<16:
		readIndex = func() (uint32, error) {
			v, err := buf.DecodeUint16()
			return uint32(v), err
		}
	case numPoints < 1<<21 && buf.Version() >= format.V2_2:
		readIndex = func() (uint32, error) { return buf.DecodeVarintUint32() }
	}

	for f := range faces {
		for c := 0; c < 3; c++ {
			v, err := readIndex()
			if err != nil {
				return err
			}
			faces[f][c] = v
		}
	}

	return nil
}
