// Package hash computes 64-bit content fingerprints for decoded geometry.
//
// Fingerprints use xxHash64 for its speed on the multi-megabyte attribute
// buffers a decoded mesh can carry. They identify decoded content in tests
// and in the CLI digest output; they are not cryptographic.
package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Digest is an incremental xxHash64 fingerprint builder.
type Digest struct {
	h *xxhash.Digest
}

// NewDigest creates a fingerprint builder.
func NewDigest() *Digest {
	return &Digest{h: xxhash.New()}
}

// WriteBytes folds a byte slice into the fingerprint.
func (d *Digest) WriteBytes(b []byte) {
	_, _ = d.h.Write(b)
}

// WriteUint32 folds a single little-endian uint32 into the fingerprint.
func (d *Digest) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	_, _ = d.h.Write(tmp[:])
}

// WriteUint32Slice folds a uint32 slice into the fingerprint.
func (d *Digest) WriteUint32Slice(vs []uint32) {
	for _, v := range vs {
		d.WriteUint32(v)
	}
}

// Sum64 returns the fingerprint accumulated so far.
func (d *Digest) Sum64() uint64 {
	return d.h.Sum64()
}

// Sum64Bytes is a convenience for fingerprinting a single byte slice.
func Sum64Bytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}
