package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetUint32Slice(t *testing.T) {
	s, cleanup := GetUint32Slice(1 << 12)
	require.Len(t, s, 1<<12)
	for i := range s {
		s[i] = uint32(i)
	}
	cleanup()

	// A second request of the same size reuses capacity.
	s2, cleanup2 := GetUint32Slice(1 << 12)
	defer cleanup2()
	require.Len(t, s2, 1<<12)

	// Growing requests still yield the exact length.
	s3, cleanup3 := GetUint32Slice(1 << 16)
	defer cleanup3()
	require.Len(t, s3, 1<<16)
}
