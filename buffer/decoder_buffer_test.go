package buffer

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

func appendSignedVarint(buf []byte, v int64) []byte {
	u := uint64(v<<1) ^ uint64(v>>63)

	return appendVarint(buf, u)
}

func TestDecoderBuffer_TypedReads(t *testing.T) {
	data := make([]byte, 0, 32)
	data = append(data, 0x7B)
	data = binary.LittleEndian.AppendUint16(data, 0xBEEF)
	data = binary.LittleEndian.AppendUint32(data, 0xDEADBEEF)
	data = binary.LittleEndian.AppendUint64(data, 0x0123456789ABCDEF)
	data = binary.LittleEndian.AppendUint32(data, math.Float32bits(1.5))
	data = binary.LittleEndian.AppendUint64(data, math.Float64bits(-2.25))

	buf := New(data, format.V2_2)

	u8, err := buf.DecodeUint8()
	require.NoError(t, err)
	require.Equal(t, uint8(0x7B), u8)

	u16, err := buf.DecodeUint16()
	require.NoError(t, err)
	require.Equal(t, uint16(0xBEEF), u16)

	u32, err := buf.DecodeUint32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), u32)

	u64, err := buf.DecodeUint64()
	require.NoError(t, err)
	require.Equal(t, uint64(0x0123456789ABCDEF), u64)

	f32, err := buf.DecodeFloat32()
	require.NoError(t, err)
	require.Equal(t, float32(1.5), f32)

	f64, err := buf.DecodeFloat64()
	require.NoError(t, err)
	require.Equal(t, -2.25, f64)

	require.Equal(t, 0, buf.Remaining())
}

func TestDecoderBuffer_Underflow(t *testing.T) {
	t.Run("Empty buffer", func(t *testing.T) {
		buf := New(nil, format.V2_2)
		_, err := buf.DecodeUint8()
		require.ErrorIs(t, err, errs.ErrBufferTooShort)
	})

	t.Run("Partial value", func(t *testing.T) {
		buf := New([]byte{1, 2, 3}, format.V2_2)
		_, err := buf.DecodeUint32()
		require.ErrorIs(t, err, errs.ErrBufferTooShort)
		// A failed read must not advance the cursor.
		require.Equal(t, 0, buf.Pos())
	})

	t.Run("Error carries offset", func(t *testing.T) {
		buf := New([]byte{1, 2}, format.V2_2)
		_, err := buf.DecodeUint8()
		require.NoError(t, err)
		_, err = buf.DecodeUint16()

		var decodeErr *errs.DecodeError
		require.ErrorAs(t, err, &decodeErr)
		require.Equal(t, 1, decodeErr.Offset)
	})
}

func TestDecoderBuffer_PeekAndAdvance(t *testing.T) {
	buf := New([]byte{10, 20, 30, 40}, format.V2_2)

	v, err := buf.PeekUint8()
	require.NoError(t, err)
	require.Equal(t, uint8(10), v)
	require.Equal(t, 0, buf.Pos())

	require.NoError(t, buf.Advance(2))
	require.Equal(t, 2, buf.Pos())

	v, err = buf.DecodeUint8()
	require.NoError(t, err)
	require.Equal(t, uint8(30), v)

	require.Error(t, buf.Advance(5))
}

func TestDecoderBuffer_Varint(t *testing.T) {
	t.Run("Unsigned round trip", func(t *testing.T) {
		values := []uint64{0, 1, 127, 128, 300, 16383, 16384, 1<<32 - 1, 1 << 40, math.MaxUint64}
		var data []byte
		for _, v := range values {
			data = appendVarint(data, v)
		}

		buf := New(data, format.V2_2)
		for _, want := range values {
			got, err := buf.DecodeVarintUint64()
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
		require.Equal(t, 0, buf.Remaining())
	})

	t.Run("Signed round trip", func(t *testing.T) {
		values := []int64{0, -1, 1, -64, 64, -8192, 8192, math.MinInt64, math.MaxInt64}
		var data []byte
		for _, v := range values {
			data = appendSignedVarint(data, v)
		}

		buf := New(data, format.V2_2)
		for _, want := range values {
			got, err := buf.DecodeVarintInt64()
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	})

	t.Run("Uint32 range", func(t *testing.T) {
		data := appendVarint(nil, math.MaxUint32)
		buf := New(data, format.V2_2)
		got, err := buf.DecodeVarintUint32()
		require.NoError(t, err)
		require.Equal(t, uint32(math.MaxUint32), got)
	})

	t.Run("Overlong continuation", func(t *testing.T) {
		data := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80}
		buf := New(data, format.V2_2)
		_, err := buf.DecodeVarintUint32()
		require.ErrorIs(t, err, errs.ErrCorruptStream)
	})

	t.Run("Truncated", func(t *testing.T) {
		data := []byte{0x80, 0x80}
		buf := New(data, format.V2_2)
		_, err := buf.DecodeVarintUint32()
		require.ErrorIs(t, err, errs.ErrBufferTooShort)
	})
}

func TestDecoderBuffer_BitDecoding(t *testing.T) {
	t.Run("LSB first order", func(t *testing.T) {
		// 0b10110100, 0b00000001
		buf := New([]byte{0xB4, 0x01}, format.V2_2)
		_, err := buf.StartBitDecoding(false)
		require.NoError(t, err)

		v, err := buf.DecodeLeastSignificantBits32(3)
		require.NoError(t, err)
		require.Equal(t, uint32(0b100), v)

		v, err = buf.DecodeLeastSignificantBits32(5)
		require.NoError(t, err)
		require.Equal(t, uint32(0b10110), v)

		v, err = buf.DecodeLeastSignificantBits32(8)
		require.NoError(t, err)
		require.Equal(t, uint32(1), v)

		buf.EndBitDecoding()
		require.Equal(t, 0, buf.Remaining())
	})

	t.Run("Size prefix varint v2.2", func(t *testing.T) {
		data := appendVarint(nil, 2)
		data = append(data, 0xFF, 0x00, 0xAA)
		buf := New(data, format.V2_2)

		size, err := buf.StartBitDecoding(true)
		require.NoError(t, err)
		require.Equal(t, uint64(2), size)

		v, err := buf.DecodeLeastSignificantBits32(16)
		require.NoError(t, err)
		require.Equal(t, uint32(0x00FF), v)
		buf.EndBitDecoding()

		tail, err := buf.DecodeUint8()
		require.NoError(t, err)
		require.Equal(t, uint8(0xAA), tail)
	})

	t.Run("Size prefix uint64 before v2.2", func(t *testing.T) {
		data := binary.LittleEndian.AppendUint64(nil, 1)
		data = append(data, 0x5A)
		buf := New(data, format.V2_0)

		size, err := buf.StartBitDecoding(true)
		require.NoError(t, err)
		require.Equal(t, uint64(1), size)

		v, err := buf.DecodeLeastSignificantBits32(8)
		require.NoError(t, err)
		require.Equal(t, uint32(0x5A), v)
	})

	t.Run("Byte alignment on end", func(t *testing.T) {
		buf := New([]byte{0x0F, 0x77}, format.V2_2)
		_, err := buf.StartBitDecoding(false)
		require.NoError(t, err)

		_, err = buf.DecodeLeastSignificantBits32(3)
		require.NoError(t, err)
		buf.EndBitDecoding()

		v, err := buf.DecodeUint8()
		require.NoError(t, err)
		require.Equal(t, uint8(0x77), v)
	})

	t.Run("Bit read past end", func(t *testing.T) {
		buf := New([]byte{0x01}, format.V2_2)
		_, err := buf.StartBitDecoding(false)
		require.NoError(t, err)

		_, err = buf.DecodeLeastSignificantBits32(8)
		require.NoError(t, err)
		_, err = buf.DecodeLeastSignificantBits32(1)
		require.ErrorIs(t, err, errs.ErrBufferTooShort)
	})

	t.Run("Bit read outside bit mode", func(t *testing.T) {
		buf := New([]byte{0x01}, format.V2_2)
		_, err := buf.DecodeLeastSignificantBits32(1)
		require.ErrorIs(t, err, errs.ErrInternal)
	})
}

func TestDecoderBuffer_Slice(t *testing.T) {
	buf := New([]byte{1, 2, 3, 4, 5}, format.V2_2)
	head, err := buf.Slice(3)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, head)
	require.Equal(t, 2, buf.Remaining())

	_, err = buf.Slice(3)
	require.ErrorIs(t, err, errs.ErrBufferTooShort)
}
