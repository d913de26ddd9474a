package compress

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/s2"
)

// S2Compressor wraps bitstreams in the framed s2 (snappy-compatible)
// container.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress wraps the input data in a framed s2 stream with the snappy
// signature, so the result is sniffable by SniffCodec.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var out bytes.Buffer
	w := s2.NewWriter(&out, s2.WriterSnappyCompat())
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// Decompress unwraps a framed s2/snappy stream.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r := s2.NewReader(bytes.NewReader(data))

	return io.ReadAll(r)
}
