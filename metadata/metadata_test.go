package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/draco/buffer"
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

func appendEntry(buf []byte, key string, value []byte) []byte {
	buf = append(buf, byte(len(key)))
	buf = append(buf, key...)
	buf = append(buf, byte(len(value)))

	return append(buf, value...)
}

func TestDecode(t *testing.T) {
	t.Run("File level entries", func(t *testing.T) {
		data := appendVarint(nil, 0) // no attribute metadata
		data = appendVarint(data, 2) // two entries
		data = appendEntry(data, "generator", []byte("draco_encoder"))
		data = appendEntry(data, "version", []byte{3, 0, 0, 0})
		data = appendVarint(data, 0) // no sub metadata

		m, err := Decode(buffer.New(data, format.V2_3))
		require.NoError(t, err)
		require.Equal(t, 2, m.NumEntries())

		gen, ok := m.EntryString("generator")
		require.True(t, ok)
		require.Equal(t, "draco_encoder", gen)

		v, ok := m.EntryInt32("version")
		require.True(t, ok)
		require.Equal(t, int32(3), v)

		_, ok = m.Entry("missing")
		require.False(t, ok)
	})

	t.Run("Attribute and nested metadata", func(t *testing.T) {
		data := appendVarint(nil, 1)  // one attribute metadata block
		data = appendVarint(data, 7)  // attribute unique id
		data = appendVarint(data, 1)  // one entry
		data = appendEntry(data, "name", []byte("uv0"))
		data = appendVarint(data, 0) // no sub metadata
		// File-level block with one nested node.
		data = appendVarint(data, 0)
		data = appendVarint(data, 1)
		data = append(data, 5)
		data = append(data, "scene"...)
		data = appendVarint(data, 1)
		data = appendEntry(data, "unit", []byte("meter"))
		data = appendVarint(data, 0)

		m, err := Decode(buffer.New(data, format.V2_3))
		require.NoError(t, err)

		att, ok := m.AttributeMetadata(7)
		require.True(t, ok)
		name, ok := att.EntryString("name")
		require.True(t, ok)
		require.Equal(t, "uv0", name)

		scene, ok := m.Sub("scene")
		require.True(t, ok)
		unit, ok := scene.EntryString("unit")
		require.True(t, ok)
		require.Equal(t, "meter", unit)
	})

	t.Run("Truncated", func(t *testing.T) {
		data := appendVarint(nil, 0)
		data = appendVarint(data, 1)
		data = append(data, 10, 'a', 'b') // key promises 10 bytes

		_, err := Decode(buffer.New(data, format.V2_3))
		require.ErrorIs(t, err, errs.ErrBufferTooShort)
	})
}
