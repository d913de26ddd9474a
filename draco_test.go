package draco

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/draco/compress"
	"github.com/arloliu/draco/decoder"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
)

// sequentialMeshStream is a minimal v2.2 sequential mesh: two triangles over
// four points, no attributes.
func sequentialMeshStream() []byte {
	data := []byte{'D', 'R', 'A', 'C', 'O', 2, 2, 1, 0}
	data = binary.LittleEndian.AppendUint16(data, 0)
	data = append(data, 2) // num_faces varint
	data = append(data, 4) // num_points varint
	data = append(data, 1) // raw indices
	data = append(data, 0, 1, 2, 0, 2, 3)
	data = append(data, 0) // no attributes decoders

	return data
}

func TestDecodeMesh(t *testing.T) {
	mesh, err := DecodeMesh(sequentialMeshStream())
	require.NoError(t, err)
	require.Equal(t, 2, mesh.NumFaces())
	require.Equal(t, 4, mesh.NumPoints())
	require.Equal(t, [3]uint32{0, 2, 3}, mesh.Face(1))
}

func TestGetEncodedGeometryType(t *testing.T) {
	gt, err := GetEncodedGeometryType(sequentialMeshStream())
	require.NoError(t, err)
	require.Equal(t, format.GeometryMesh, gt)
}

func TestDecodeMesh_WrappedContainers(t *testing.T) {
	raw := sequentialMeshStream()
	want, err := DecodeMesh(raw)
	require.NoError(t, err)

	codecs := map[string]compress.Codec{
		"zstd": compress.NewZstdCompressor(),
		"lz4":  compress.NewLZ4Compressor(),
		"s2":   compress.NewS2Compressor(),
	}
	for name, codec := range codecs {
		t.Run(name, func(t *testing.T) {
			wrapped, err := codec.Compress(raw)
			require.NoError(t, err)

			mesh, err := DecodeMesh(wrapped)
			require.NoError(t, err)
			require.Equal(t, want.Fingerprint(), mesh.Fingerprint())

			// With unwrapping disabled the container is just a bad header.
			_, err = DecodeMesh(wrapped, decoder.WithContainerDecompression(false))
			require.Error(t, err)
		})
	}
}

func TestDecodeMesh_Truncated(t *testing.T) {
	data := sequentialMeshStream()
	_, err := DecodeMesh(data[:11])
	require.ErrorIs(t, err, errs.ErrBufferTooShort)
}
