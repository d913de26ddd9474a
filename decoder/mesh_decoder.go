package decoder

import (
	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
	"github.com/arloliu/draco/geometry"
	"github.com/arloliu/draco/internal/attributes"
	"github.com/arloliu/draco/internal/connectivity"
	"github.com/arloliu/draco/internal/options"
)

// DecodeMesh decodes a mesh bitstream: connectivity first, then the
// attribute pipeline driven by the reconstructed corner table.
func DecodeMesh(data []byte, opts ...Option) (*geometry.Mesh, error) {
	o := defaultOptions()
	if err := options.Apply(o, opts...); err != nil {
		return nil, err
	}
	buf, err := PrepareBuffer(data, o)
	if err != nil {
		return nil, err
	}

	h, err := DecodeHeader(buf)
	if err != nil {
		return nil, err
	}
	if h.GeometryType != format.GeometryMesh {
		return nil, errs.Corrupt(7, "bitstream does not hold a mesh")
	}

	mesh := &geometry.Mesh{}
	if err := decodeMetadataBlock(buf, h, &mesh.PointCloud, o); err != nil {
		return nil, err
	}

	var conn *connectivity.DecodedMesh
	switch h.Method {
	case format.MeshSequentialEncoding:
		conn, err = connectivity.DecodeSequential(buf)
	case format.MeshEdgebreakerEncoding:
		conn, err = connectivity.DecodeEdgebreaker(buf)
	default:
		return nil, errs.Unsupported(8, "unknown mesh encoding method")
	}
	if err != nil {
		return nil, err
	}

	mesh.SetNumPoints(conn.NumPoints)
	mesh.SetNumFaces(len(conn.Faces))
	for f, face := range conn.Faces {
		mesh.SetFace(f, face)
	}

	sequencerFor := meshSequencer(buf, h, conn)
	if err := decodeAttributesDecoders(buf, &mesh.PointCloud, sequencerFor); err != nil {
		return nil, err
	}

	return mesh, nil
}

// meshSequencer returns the per-attributes-decoder sequencer factory. For
// edgebreaker streams it also consumes each decoder's configuration bytes:
// the attribute-data binding and the traversal method.
func meshSequencer(buf *buffer.DecoderBuffer, h Header, conn *connectivity.DecodedMesh) func(int) (*attributes.PointsSequence, error) {
	if h.Method == format.MeshSequentialEncoding {
		return func(int) (*attributes.PointsSequence, error) {
			return attributes.LinearMeshSequence(conn.CornerTable, conn.CornerToPoint, conn.NumPoints), nil
		}
	}

	return func(attDecoderID int) (*attributes.PointsSequence, error) {
		attDataID, err := buf.DecodeInt8()
		if err != nil {
			return nil, err
		}
		traversalMethod := format.TraversalDepthFirst
		if buf.Version() >= format.V1_2 {
			method, err := buf.DecodeUint8()
			if err != nil {
				return nil, err
			}
			traversalMethod = format.TraversalMethod(method)
		}
		if traversalMethod != format.TraversalDepthFirst {
			return nil, errs.Unsupported(buf.Pos(), "prediction-degree attribute traversal")
		}

		var view attributes.CornerTableView = conn.CornerTable
		if attDataID >= 0 {
			if int(attDataID) >= len(conn.AttributeData) {
				// Older streams can carry stale bindings; fall back to the
				// position corner table like the reference decoder.
				if buf.Version() >= format.V2_0 {
					return nil, errs.Corrupt(buf.Pos(), "attribute data binding out of range")
				}
			} else {
				ad := conn.AttributeData[attDataID]
				ad.DecoderID = attDecoderID
				ad.TraversalMethod = traversalMethod
				view = ad.CornerTable
			}
		}

		return attributes.TraversalSequence(view, conn.CornerToPoint, conn.NumPoints)
	}
}
