// Package buffer implements the byte/bit cursor every Draco decoding stage
// reads through.
//
// A DecoderBuffer wraps an immutable byte slice with a cursor and the
// bitstream version stamp. Reads are little-endian; bit-mode reads are
// LSB-first within each byte. All failures are reported through the errs
// package with the offset at which they were raised.
//
// Note: The DecoderBuffer is NOT thread-safe. Each buffer instance should be
// used by a single goroutine at a time.
package buffer

import (
	"math"

	"github.com/arloliu/draco/endian"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
)

// DecoderBuffer is a forward-only cursor over an encoded byte slice.
//
// The buffer operates in one of two modes: byte mode (the default) and bit
// mode, entered with StartBitDecoding and left with EndBitDecoding. Byte
// reads do not check the mode; bit reads outside bit mode are rejected as
// internal errors.
type DecoderBuffer struct {
	data    []byte
	pos     int
	version format.Version
	engine  endian.EndianEngine

	bitMode   bool
	bitOffset int // absolute bit position relative to data[pos] at bit-mode start
}

// New creates a DecoderBuffer over data stamped with the given bitstream
// version.
func New(data []byte, version format.Version) *DecoderBuffer {
	return &DecoderBuffer{
		data:    data,
		version: version,
		engine:  endian.GetLittleEndianEngine(),
	}
}

// Version returns the bitstream version stamped on the buffer.
func (b *DecoderBuffer) Version() format.Version {
	return b.version
}

// SetVersion stamps the buffer with a bitstream version. The header decoder
// calls this once the version bytes are parsed.
func (b *DecoderBuffer) SetVersion(v format.Version) {
	b.version = v
}

// Pos returns the current byte offset from the start of the buffer.
func (b *DecoderBuffer) Pos() int {
	return b.pos
}

// Remaining returns the number of undecoded bytes.
func (b *DecoderBuffer) Remaining() int {
	return len(b.data) - b.pos
}

// RemainingBytes returns the undecoded tail of the buffer without advancing.
func (b *DecoderBuffer) RemainingBytes() []byte {
	return b.data[b.pos:]
}

// Advance skips n bytes.
func (b *DecoderBuffer) Advance(n int) error {
	if n < 0 || b.Remaining() < n {
		return errs.IO(b.pos, "advance past end of buffer")
	}
	b.pos += n

	return nil
}

// DecodeBytes reads len(out) bytes into out.
func (b *DecoderBuffer) DecodeBytes(out []byte) error {
	if b.Remaining() < len(out) {
		return errs.IO(b.pos, "byte read past end of buffer")
	}
	copy(out, b.data[b.pos:])
	b.pos += len(out)

	return nil
}

// Slice returns n bytes starting at the cursor and advances past them. The
// returned slice aliases the underlying data.
func (b *DecoderBuffer) Slice(n int) ([]byte, error) {
	if n < 0 || b.Remaining() < n {
		return nil, errs.IO(b.pos, "slice past end of buffer")
	}
	out := b.data[b.pos : b.pos+n]
	b.pos += n

	return out, nil
}

// DecodeUint8 reads one byte.
func (b *DecoderBuffer) DecodeUint8() (uint8, error) {
	if b.Remaining() < 1 {
		return 0, errs.IO(b.pos, "uint8 read past end of buffer")
	}
	v := b.data[b.pos]
	b.pos++

	return v, nil
}

// DecodeInt8 reads one signed byte.
func (b *DecoderBuffer) DecodeInt8() (int8, error) {
	v, err := b.DecodeUint8()

	return int8(v), err
}

// DecodeUint16 reads a little-endian uint16.
func (b *DecoderBuffer) DecodeUint16() (uint16, error) {
	if b.Remaining() < 2 {
		return 0, errs.IO(b.pos, "uint16 read past end of buffer")
	}
	v := b.engine.Uint16(b.data[b.pos:])
	b.pos += 2

	return v, nil
}

// DecodeUint32 reads a little-endian uint32.
func (b *DecoderBuffer) DecodeUint32() (uint32, error) {
	if b.Remaining() < 4 {
		return 0, errs.IO(b.pos, "uint32 read past end of buffer")
	}
	v := b.engine.Uint32(b.data[b.pos:])
	b.pos += 4

	return v, nil
}

// DecodeUint64 reads a little-endian uint64.
func (b *DecoderBuffer) DecodeUint64() (uint64, error) {
	if b.Remaining() < 8 {
		return 0, errs.IO(b.pos, "uint64 read past end of buffer")
	}
	v := b.engine.Uint64(b.data[b.pos:])
	b.pos += 8

	return v, nil
}

// DecodeInt32 reads a little-endian int32.
func (b *DecoderBuffer) DecodeInt32() (int32, error) {
	v, err := b.DecodeUint32()

	return int32(v), err
}

// DecodeFloat32 reads a little-endian IEEE-754 float32.
func (b *DecoderBuffer) DecodeFloat32() (float32, error) {
	v, err := b.DecodeUint32()
	if err != nil {
		return 0, err
	}

	return math.Float32frombits(v), nil
}

// DecodeFloat64 reads a little-endian IEEE-754 float64.
func (b *DecoderBuffer) DecodeFloat64() (float64, error) {
	v, err := b.DecodeUint64()
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(v), nil
}

// PeekUint8 returns the next byte without advancing.
func (b *DecoderBuffer) PeekUint8() (uint8, error) {
	if b.Remaining() < 1 {
		return 0, errs.IO(b.pos, "peek past end of buffer")
	}

	return b.data[b.pos], nil
}

// PeekBytes returns the next n bytes without advancing.
func (b *DecoderBuffer) PeekBytes(n int) ([]byte, error) {
	if b.Remaining() < n {
		return nil, errs.IO(b.pos, "peek past end of buffer")
	}

	return b.data[b.pos : b.pos+n], nil
}
