package compress

// ZstdCompressor wraps bitstreams in Zstandard frames. Zstd is the common
// at-rest wrapping for large mesh archives: high ratio, fast decompression.
//
// Two implementations exist behind build tags, mirroring the split between
// the pure-Go and cgo zstd libraries:
//   - default: klauspost/compress/zstd (pure Go)
//   - with the draco_cgo_zstd tag: valyala/gozstd (libzstd bindings)
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
