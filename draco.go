// Package draco decodes Draco-compressed 3D geometry - triangular meshes
// and point clouds - from its self-describing bitstream into vertex
// attributes (positions, normals, colors, texture coordinates, generic data)
// and triangle connectivity.
//
// # Basic Usage
//
// Decoding a mesh:
//
//	data, _ := os.ReadFile("bunny.drc")
//	mesh, err := draco.DecodeMesh(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d points, %d faces\n", mesh.NumPoints(), mesh.NumFaces())
//	pos := mesh.NamedAttribute(format.AttributePosition)
//
// Inputs wrapped in a zstd, lz4 or s2 container (.drc.zst and friends) are
// detected and unwrapped transparently; disable with
// decoder.WithContainerDecompression(false).
//
// When the geometry kind is not known up front:
//
//	switch gt, _ := draco.GetEncodedGeometryType(data); gt {
//	case format.GeometryMesh:
//	    mesh, err := draco.DecodeMesh(data)
//	    ...
//	case format.GeometryPointCloud:
//	    pc, err := draco.DecodePointCloud(data)
//	    ...
//	}
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the decoder
// package, simplifying the most common use cases. For advanced usage and
// fine-grained control, use the decoder package directly.
package draco

import (
	"github.com/arloliu/draco/decoder"
	"github.com/arloliu/draco/format"
	"github.com/arloliu/draco/geometry"
)

// GetEncodedGeometryType peeks the bitstream header and reports whether it
// holds a mesh or a point cloud, without decoding the geometry.
//
// Parameters:
//   - data: Encoded bitstream (optionally container-wrapped)
//
// Returns:
//   - format.GeometryType: The encoded geometry kind.
//   - error: Header parsing error for malformed or unsupported streams.
func GetEncodedGeometryType(data []byte) (format.GeometryType, error) {
	return decoder.GetEncodedGeometryType(data)
}

// DecodeMesh decodes a mesh bitstream into a fully reconstructed mesh:
// triangle connectivity plus all encoded attributes.
//
// Parameters:
//   - data: Encoded bitstream (optionally container-wrapped)
//   - opts: Optional configuration (see decoder.Option)
//
// Returns:
//   - *geometry.Mesh: The decoded mesh.
//   - error: Any decode failure; no partial mesh is ever returned.
func DecodeMesh(data []byte, opts ...decoder.Option) (*geometry.Mesh, error) {
	return decoder.DecodeMesh(data, opts...)
}

// DecodePointCloud decodes a point-cloud bitstream.
//
// Parameters:
//   - data: Encoded bitstream (optionally container-wrapped)
//   - opts: Optional configuration (see decoder.Option)
//
// Returns:
//   - *geometry.PointCloud: The decoded point cloud.
//   - error: Any decode failure; no partial geometry is ever returned.
func DecodePointCloud(data []byte, opts ...decoder.Option) (*geometry.PointCloud, error) {
	return decoder.DecodePointCloud(data, opts...)
}
