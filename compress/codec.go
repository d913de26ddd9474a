// Package compress provides the container codecs for wrapped bitstreams.
//
// Draco files at rest are frequently stored compressed (.drc.zst, .drc.lz4,
// snappy-framed blobs in object stores). The decoder sniffs the container
// magic ahead of the DRACO signature and unwraps transparently; this package
// supplies the codec implementations and the sniffing.
package compress

import (
	"bytes"
	"fmt"
)

// Compressor compresses a byte payload. The decoder itself never
// compresses; the interface exists for tools that re-wrap bitstreams.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses a container payload.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original result.
	//
	// Error conditions:
	//   - Returns error if input data is corrupted or invalid
	//   - Returns error if data was compressed with an incompatible algorithm
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// Container magics recognized by SniffCodec.
var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
	s2Magic   = []byte{0xFF, 0x06, 0x00, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'}
)

// SniffCodec inspects the leading bytes of data and returns the codec of
// the detected container, or nil when data is not wrapped.
func SniffCodec(data []byte) Codec {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return NewZstdCompressor()
	case bytes.HasPrefix(data, lz4Magic):
		return NewLZ4Compressor()
	case bytes.HasPrefix(data, s2Magic):
		return NewS2Compressor()
	default:
		return nil
	}
}

// CodecName identifies a codec for diagnostics.
func CodecName(c Codec) string {
	switch c.(type) {
	case ZstdCompressor:
		return "zstd"
	case LZ4Compressor:
		return "lz4"
	case S2Compressor:
		return "s2"
	case NoOpCompressor:
		return "none"
	default:
		return fmt.Sprintf("%T", c)
	}
}
