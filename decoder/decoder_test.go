package decoder

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
)

func appendVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}

	return append(buf, byte(v))
}

func header(major, minor, geomType, method uint8, flags uint16) []byte {
	data := []byte{'D', 'R', 'A', 'C', 'O', major, minor, geomType, method}

	return binary.LittleEndian.AppendUint16(data, flags)
}

// pointCloudStream builds a v2.3 sequential point cloud with one
// attributes-decoder holding a quantized position attribute and a raw color
// attribute. Returns the stream plus the expected color bytes.
func pointCloudStream(numPoints int) ([]byte, []byte) {
	data := header(2, 3, 0, 0, 0)
	data = appendVarint(data, uint64(numPoints)) // varint since 2.2

	data = append(data, 1) // num_attributes_decoders

	// Attribute metadata.
	data = appendVarint(data, 2)
	data = append(data, 0, 9, 3, 0) // position: float32 x3
	data = appendVarint(data, 0)
	data = append(data, 2, 2, 3, 1) // color: uint8 x3, normalized
	data = appendVarint(data, 1)

	// Phase 1: encoder types.
	data = append(data, byte(format.SequentialEncoderQuantization))
	data = append(data, byte(format.SequentialEncoderInteger))

	// Phase 2: position portable integers, prediction none, raw one byte.
	data = append(data, 0xFE, 0, 1)
	for i := 0; i < numPoints; i++ {
		data = append(data, byte(i*3%256), byte((i*3+1)%256), byte((i*3+2)%256))
	}
	// Phase 2: color values, prediction none, raw one byte.
	data = append(data, 0xFE, 0, 1)
	colors := make([]byte, numPoints*3)
	for i := range colors {
		colors[i] = byte(137 * i)
	}
	data = append(data, colors...)

	// Phase 3: quantization parameters for the position attribute.
	data = append(data, 8)
	for i := 0; i < 3; i++ {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(-1))
	}
	data = binary.LittleEndian.AppendUint32(data, math.Float32bits(2))

	return data, colors
}

func TestDecodePointCloud_EndToEnd(t *testing.T) {
	data, wantColors := pointCloudStream(21)

	pc, err := DecodePointCloud(data)
	require.NoError(t, err)
	require.Equal(t, 21, pc.NumPoints())
	require.Equal(t, 2, pc.NumAttributes())

	pos := pc.NamedAttribute(format.AttributePosition)
	require.NotNil(t, pos)
	require.Equal(t, format.DTFloat32, pos.DataType)
	require.Equal(t, 21, pos.NumValues())

	// Dequantization: q * range/255 + min within one quantization step.
	scale := 2.0 / 255.0
	for i := 0; i < 21; i++ {
		raw := pos.ValueBytes(i)
		for c := 0; c < 3; c++ {
			q := float64((i*3 + c) % 256)
			want := q*scale - 1
			got := float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*c:])))
			require.InDelta(t, want, got, scale, "point %d component %d", i, c)
		}
	}

	col := pc.NamedAttribute(format.AttributeColor)
	require.NotNil(t, col)
	require.True(t, col.Normalized)
	require.Equal(t, wantColors, col.Buffer())

	// The normalized flag scales byte components into [0, 1] on conversion.
	for i := 0; i < 21; i++ {
		converted := col.ComponentsFloat64(i)
		for c := 0; c < 3; c++ {
			require.Equal(t, float64(wantColors[3*i+c])/255, converted[c])
		}
	}

	// Fingerprints are stable across decodes.
	pc2, err := DecodePointCloud(data)
	require.NoError(t, err)
	require.Equal(t, pc.Fingerprint(), pc2.Fingerprint())
}

func TestDecodePointCloud_LegacyPointCount(t *testing.T) {
	// Before 2.2 the point count is a raw uint32.
	const numPoints = 130
	data := header(2, 0, 0, 0, 0)
	data = binary.LittleEndian.AppendUint32(data, numPoints)

	data = append(data, 1) // num_attributes_decoders
	data = appendVarint(data, 1)
	data = append(data, 2, 2, 3, 1) // color: uint8 x3, normalized
	data = appendVarint(data, 0)
	data = append(data, byte(format.SequentialEncoderInteger))

	data = append(data, 0xFE, 0, 1) // prediction none, raw one byte
	colors := make([]byte, numPoints*3)
	for i := range colors {
		colors[i] = byte(11 * i)
	}
	data = append(data, colors...)

	pc, err := DecodePointCloud(data)
	require.NoError(t, err)
	require.Equal(t, numPoints, pc.NumPoints())
	require.Equal(t, colors, pc.NamedAttribute(format.AttributeColor).Buffer())
}

func TestDecodeMesh_SequentialRawU16(t *testing.T) {
	const numPoints = 500
	const numFaces = 998

	data := header(2, 2, 1, 0, 0)
	data = appendVarint(data, numFaces)
	data = appendVarint(data, numPoints)
	data = append(data, 1) // raw indices
	for f := 0; f < numFaces; f++ {
		for k := 0; k < 3; k++ {
			data = binary.LittleEndian.AppendUint16(data, uint16((f*3+k*7)%numPoints))
		}
	}
	data = append(data, 0) // no attributes decoders

	mesh, err := DecodeMesh(data)
	require.NoError(t, err)
	require.Equal(t, numFaces, mesh.NumFaces())
	require.Equal(t, numPoints, mesh.NumPoints())
	for f := 0; f < numFaces; f++ {
		for _, idx := range mesh.Face(f) {
			require.Less(t, idx, uint32(numPoints))
		}
	}
}

// edgebreakerQuadStream builds a v2.2 edgebreaker mesh (two triangles via
// E,R) with a quantized position attribute decoded in traversal order.
func edgebreakerQuadStream() []byte {
	data := header(2, 2, 1, 1, 0)

	// Connectivity: standard traversal, E,R symbols, one boundary start.
	data = append(data, format.EdgebreakerStandard)
	data = appendVarint(data, 4) // num vertices
	data = appendVarint(data, 2) // num faces
	data = append(data, 0)       // num attribute data
	data = appendVarint(data, 2) // num symbols
	data = appendVarint(data, 0) // num split symbols
	data = appendVarint(data, 0) // num topology splits
	// Symbols E then R, bits LSB-first: a 1 bit plus the two suffix bits.
	var clers []byte
	var acc uint32
	var accBits uint
	push := func(v uint32, n uint) {
		acc |= v << accBits
		accBits += n
		for accBits >= 8 {
			clers = append(clers, byte(acc))
			acc >>= 8
			accBits -= 8
		}
	}
	push(1, 1)
	push(3, 2) // E
	push(1, 1)
	push(2, 2) // R
	if accBits > 0 {
		clers = append(clers, byte(acc))
	}
	data = appendVarint(data, uint64(len(clers)))
	data = append(data, clers...)
	data = appendVarint(data, 1) // start-face section: one byte
	data = append(data, 0)       // boundary configuration

	// Attributes: one decoder bound to the position corner table.
	data = append(data, 1)          // num_attributes_decoders
	data = append(data, 0xFF)       // att_data_id -1
	data = append(data, 0)          // depth-first traversal
	data = appendVarint(data, 1)    // one attribute
	data = append(data, 0, 9, 3, 0) // position float32 x3
	data = appendVarint(data, 0)    // unique id
	data = append(data, byte(format.SequentialEncoderQuantization))

	// Phase 2: prediction none, uncompressed, one byte per value: value d is
	// (d, d, d) in traversal order.
	data = append(data, 0xFE, 0, 1)
	for d := 0; d < 4; d++ {
		data = append(data, byte(d), byte(d), byte(d))
	}

	// Phase 3: 2 quantization bits, min (0,0,0), range 3.
	data = append(data, 2)
	for i := 0; i < 3; i++ {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(0))
	}
	data = binary.LittleEndian.AppendUint32(data, math.Float32bits(3))

	return data
}

func TestDecodeMesh_Edgebreaker(t *testing.T) {
	mesh, err := DecodeMesh(edgebreakerQuadStream())
	require.NoError(t, err)
	require.Equal(t, 2, mesh.NumFaces())
	require.Equal(t, 4, mesh.NumPoints())

	pos := mesh.NamedAttribute(format.AttributePosition)
	require.NotNil(t, pos)
	require.Equal(t, 4, pos.NumValues())

	// Every point resolves to a distinct value d with position (d, d, d).
	seen := map[uint32]bool{}
	for p := uint32(0); p < 4; p++ {
		d := pos.MappedIndex(p)
		require.Less(t, d, uint32(4))
		require.False(t, seen[d])
		seen[d] = true

		raw := pos.ValueBytes(int(d))
		want := float64(d) // quantized d with range 3 over 2 bits is exact
		for c := 0; c < 3; c++ {
			got := float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*c:])))
			require.InDelta(t, want, got, 1e-6)
		}
	}
}

func TestDecodeHeader_Robustness(t *testing.T) {
	t.Run("Bad magic", func(t *testing.T) {
		data := append([]byte{'D', 'R', 'A', 'C', 'X'}, header(2, 2, 1, 0, 0)[5:]...)
		_, err := DecodeMesh(data)
		require.ErrorIs(t, err, errs.ErrCorruptStream)

		var decodeErr *errs.DecodeError
		require.ErrorAs(t, err, &decodeErr)
		require.LessOrEqual(t, decodeErr.Offset, 4)
	})

	t.Run("Unsupported version", func(t *testing.T) {
		_, err := DecodeMesh(header(99, 99, 1, 0, 0))
		require.ErrorIs(t, err, errs.ErrUnsupportedVersion)

		var decodeErr *errs.DecodeError
		require.ErrorAs(t, err, &decodeErr)
		require.GreaterOrEqual(t, decodeErr.Offset, 5)
		require.LessOrEqual(t, decodeErr.Offset, 6)
	})

	t.Run("Short input", func(t *testing.T) {
		for n := 0; n < 11; n++ {
			_, err := DecodeMesh(header(2, 2, 1, 0, 0)[:n])
			require.ErrorIs(t, err, errs.ErrBufferTooShort, "length %d", n)
		}
	})

	t.Run("Header only", func(t *testing.T) {
		_, err := DecodeMesh(header(2, 2, 1, 0, 0))
		require.ErrorIs(t, err, errs.ErrBufferTooShort)

		_, err = DecodePointCloud(header(2, 3, 0, 0, 0))
		require.ErrorIs(t, err, errs.ErrBufferTooShort)
	})

	t.Run("Geometry type mismatch", func(t *testing.T) {
		data, _ := pointCloudStream(4)
		_, err := DecodeMesh(data)
		require.ErrorIs(t, err, errs.ErrCorruptStream)
	})

	t.Run("KD-tree unsupported", func(t *testing.T) {
		data := header(2, 3, 0, 1, 0)
		data = binary.LittleEndian.AppendUint32(data, 10)
		_, err := DecodePointCloud(data)
		require.ErrorIs(t, err, errs.ErrUnsupportedFeature)
	})
}

func TestGetEncodedGeometryType(t *testing.T) {
	pcData, _ := pointCloudStream(4)
	gt, err := GetEncodedGeometryType(pcData)
	require.NoError(t, err)
	require.Equal(t, format.GeometryPointCloud, gt)

	gt, err = GetEncodedGeometryType(edgebreakerQuadStream())
	require.NoError(t, err)
	require.Equal(t, format.GeometryMesh, gt)

	_, err = GetEncodedGeometryType([]byte("DRACX???????"))
	require.ErrorIs(t, err, errs.ErrCorruptStream)
}

func TestDecodePointCloud_Metadata(t *testing.T) {
	numPoints := 3
	body, _ := pointCloudStream(numPoints)

	// Rebuild with the metadata flag and a block between header and body.
	data := header(2, 3, 0, 0, format.HeaderFlagMetadata)
	data = appendVarint(data, 0) // no attribute metadata
	data = appendVarint(data, 1) // one file-level entry
	data = append(data, 4)
	data = append(data, []byte("name")...)
	data = append(data, 5)
	data = append(data, []byte("tests")...)
	data = appendVarint(data, 0) // no sub metadata
	data = append(data, body[11:]...)

	pc, err := DecodePointCloud(data)
	require.NoError(t, err)
	require.NotNil(t, pc.Metadata())
	name, ok := pc.Metadata().EntryString("name")
	require.True(t, ok)
	require.Equal(t, "tests", name)

	t.Run("Metadata decoding disabled", func(t *testing.T) {
		pc, err := DecodePointCloud(data, WithMetadata(false))
		require.NoError(t, err)
		require.Nil(t, pc.Metadata())
		require.Equal(t, numPoints, pc.NumPoints())
	})
}
