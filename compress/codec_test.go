package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func samplePayload() []byte {
	var buf bytes.Buffer
	buf.WriteString("DRACO")
	for i := 0; i < 4096; i++ {
		buf.WriteByte(byte(i % 251))
	}

	return buf.Bytes()
}

func TestCodecs_RoundTrip(t *testing.T) {
	codecs := []struct {
		name  string
		codec Codec
	}{
		{"zstd", NewZstdCompressor()},
		{"lz4", NewLZ4Compressor()},
		{"s2", NewS2Compressor()},
		{"noop", NewNoOpCompressor()},
	}
	payload := samplePayload()

	for _, tc := range codecs {
		t.Run(tc.name, func(t *testing.T) {
			compressed, err := tc.codec.Compress(payload)
			require.NoError(t, err)

			decompressed, err := tc.codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, payload, decompressed)
		})
	}
}

func TestSniffCodec(t *testing.T) {
	payload := samplePayload()

	t.Run("Unwrapped data has no codec", func(t *testing.T) {
		require.Nil(t, SniffCodec(payload))
	})

	t.Run("Wrapped data sniffs back to its codec", func(t *testing.T) {
		for _, tc := range []struct {
			name  string
			codec Codec
		}{
			{"zstd", NewZstdCompressor()},
			{"lz4", NewLZ4Compressor()},
			{"s2", NewS2Compressor()},
		} {
			compressed, err := tc.codec.Compress(payload)
			require.NoError(t, err)

			sniffed := SniffCodec(compressed)
			require.NotNil(t, sniffed, tc.name)
			require.Equal(t, CodecName(tc.codec), CodecName(sniffed))

			out, err := sniffed.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, payload, out)
		}
	})

	t.Run("Empty input", func(t *testing.T) {
		require.Nil(t, SniffCodec(nil))
	})
}
