package buffer

import (
	"github.com/arloliu/draco/errs"
)

// Varint limits: LEB128 uses 7 payload bits per byte, so a 32-bit value needs
// at most 5 bytes and a 64-bit value at most 10.
const (
	maxVarintLen32 = 5
	maxVarintLen64 = 10
)

// DecodeVarintUint32 reads an unsigned LEB128 value of at most 32 bits.
//
// The decode fails with Io on buffer underflow and with Corrupt when the
// continuation chain exceeds the 5-byte limit for 32-bit values.
func (b *DecoderBuffer) DecodeVarintUint32() (uint32, error) {
	var out uint32
	var shift uint
	for i := 0; i < maxVarintLen32; i++ {
		c, err := b.DecodeUint8()
		if err != nil {
			return 0, err
		}
		out |= uint32(c&0x7F) << shift
		if c&0x80 == 0 {
			return out, nil
		}
		shift += 7
	}

	return 0, errs.Corrupt(b.pos, "varint exceeds 32 bits")
}

// DecodeVarintUint64 reads an unsigned LEB128 value of at most 64 bits.
func (b *DecoderBuffer) DecodeVarintUint64() (uint64, error) {
	var out uint64
	var shift uint
	for i := 0; i < maxVarintLen64; i++ {
		c, err := b.DecodeUint8()
		if err != nil {
			return 0, err
		}
		out |= uint64(c&0x7F) << shift
		if c&0x80 == 0 {
			return out, nil
		}
		shift += 7
	}

	return 0, errs.Corrupt(b.pos, "varint exceeds 64 bits")
}

// DecodeVarintInt32 reads a zig-zag coded signed LEB128 value.
func (b *DecoderBuffer) DecodeVarintInt32() (int32, error) {
	u, err := b.DecodeVarintUint32()
	if err != nil {
		return 0, err
	}

	return int32(u>>1) ^ -int32(u&1), nil
}

// DecodeVarintInt64 reads a zig-zag coded signed LEB128 value.
func (b *DecoderBuffer) DecodeVarintInt64() (int64, error) {
	u, err := b.DecodeVarintUint64()
	if err != nil {
		return 0, err
	}

	return int64(u>>1) ^ -int64(u&1), nil
}
