//go:build draco_cgo_zstd

package compress

import (
	"github.com/valyala/gozstd"
)

// Compress compresses the input data into a Zstandard frame using libzstd.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, data, 3), nil
}

// Decompress decompresses a Zstandard frame using libzstd.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.Decompress(nil, data)
}
