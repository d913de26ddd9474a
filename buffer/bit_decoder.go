package buffer

import (
	"github.com/arloliu/draco/errs"
)

// StartBitDecoding switches the buffer into bit mode. When decodeSize is
// true, the encoded size of the bit section is read first: a uint64 for
// streams older than 2.2, a varint for 2.2 and newer. The returned size is
// what the encoder declared; callers that need to skip the section combine it
// with EndBitDecoding.
//
// Bits are consumed LSB-first within each byte.
func (b *DecoderBuffer) StartBitDecoding(decodeSize bool) (uint64, error) {
	var size uint64
	if decodeSize {
		if b.version.Major() < 2 || (b.version.Major() == 2 && b.version.Minor() < 2) {
			v, err := b.DecodeUint64()
			if err != nil {
				return 0, err
			}
			size = v
		} else {
			v, err := b.DecodeVarintUint64()
			if err != nil {
				return 0, err
			}
			size = v
		}
	}
	b.bitMode = true
	b.bitOffset = 0

	return size, nil
}

// DecodeLeastSignificantBits32 reads n bits (0 <= n <= 32) LSB-first and
// returns them packed into the low bits of the result.
func (b *DecoderBuffer) DecodeLeastSignificantBits32(n int) (uint32, error) {
	if !b.bitMode {
		return 0, errs.Internal(b.pos, "bit read outside bit mode")
	}
	if n < 0 || n > 32 {
		return 0, errs.Internal(b.pos, "bit count out of range")
	}

	var out uint32
	for i := 0; i < n; i++ {
		byteIdx := b.pos + (b.bitOffset >> 3)
		if byteIdx >= len(b.data) {
			return 0, errs.IO(byteIdx, "bit read past end of buffer")
		}
		bit := (b.data[byteIdx] >> (b.bitOffset & 7)) & 1
		out |= uint32(bit) << i
		b.bitOffset++
	}

	return out, nil
}

// DecodeBit reads a single bit.
func (b *DecoderBuffer) DecodeBit() (uint32, error) {
	return b.DecodeLeastSignificantBits32(1)
}

// BitsDecoded returns the number of bits consumed since StartBitDecoding.
func (b *DecoderBuffer) BitsDecoded() int {
	return b.bitOffset
}

// EndBitDecoding leaves bit mode and aligns the cursor to the next byte
// boundary.
func (b *DecoderBuffer) EndBitDecoding() {
	if !b.bitMode {
		return
	}
	b.pos += (b.bitOffset + 7) >> 3
	if b.pos > len(b.data) {
		b.pos = len(b.data)
	}
	b.bitMode = false
	b.bitOffset = 0
}
