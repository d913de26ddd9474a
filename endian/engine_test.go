package endian

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetLittleEndianEngine(t *testing.T) {
	engine := GetLittleEndianEngine()
	require.Equal(t, binary.ByteOrder(binary.LittleEndian), binary.ByteOrder(engine))

	buf := make([]byte, 4)
	engine.PutUint32(buf, 0xDEADBEEF)
	require.Equal(t, []byte{0xEF, 0xBE, 0xAD, 0xDE}, buf)
	require.Equal(t, uint32(0xDEADBEEF), engine.Uint32(buf))
}

func TestCheckEndianness(t *testing.T) {
	// The host is one of the two; the two predicates must agree.
	native := CheckEndianness()
	require.NotNil(t, native)
	if IsNativeLittleEndian() {
		require.Equal(t, binary.ByteOrder(binary.LittleEndian), native)
		require.True(t, CompareNativeEndian(GetLittleEndianEngine()))
	} else {
		require.Equal(t, binary.ByteOrder(binary.BigEndian), native)
		require.True(t, CompareNativeEndian(GetBigEndianEngine()))
	}
}
