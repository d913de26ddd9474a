package compress

// NoOpCompressor bypasses data without compression. SniffCodec does not
// return it: unwrapped bitstreams yield a nil codec.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a new no-operation compressor that bypasses data.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns the input data directly without copying.
//
// Note: The returned slice shares the same underlying memory as the input.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input data directly without copying.
//
// Note: The returned slice shares the same underlying memory as the input.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
