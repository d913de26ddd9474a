package entropy

import (
	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/errs"
)

// DirectBitDecoder reads uncompressed bit sequences stored as little-endian
// uint32 words with bits consumed MSB-first within each word.
type DirectBitDecoder struct {
	words       []uint32
	pos         int
	numUsedBits int
}

// StartDecoding reads the word block off buf. The block length must be a
// multiple of four bytes.
func (d *DirectBitDecoder) StartDecoding(buf *buffer.DecoderBuffer) error {
	sizeInBytes, err := buf.DecodeUint32()
	if err != nil {
		return err
	}
	if sizeInBytes%4 != 0 {
		return errs.Corrupt(buf.Pos(), "direct bit stream size not word aligned")
	}
	data, err := buf.Slice(int(sizeInBytes))
	if err != nil {
		return err
	}

	d.words = make([]uint32, sizeInBytes/4)
	for i := range d.words {
		d.words[i] = uint32(data[4*i]) | uint32(data[4*i+1])<<8 |
			uint32(data[4*i+2])<<16 | uint32(data[4*i+3])<<24
	}
	d.pos = 0
	d.numUsedBits = 0

	return nil
}

// DecodeNextBit returns the next bit. Reads past the end of the stream
// return false.
func (d *DirectBitDecoder) DecodeNextBit() bool {
	if d.pos >= len(d.words) {
		return false
	}
	bit := d.words[d.pos]&(1<<(31-d.numUsedBits)) != 0
	d.numUsedBits++
	if d.numUsedBits == 32 {
		d.pos++
		d.numUsedBits = 0
	}

	return bit
}

// DecodeLeastSignificantBits32 reads n bits (1 <= n <= 32) and returns them
// in the low bits of the result.
func (d *DirectBitDecoder) DecodeLeastSignificantBits32(n int) uint32 {
	if d.pos >= len(d.words) {
		return 0
	}
	remaining := 32 - d.numUsedBits
	if n <= remaining {
		out := (d.words[d.pos] << d.numUsedBits) >> (32 - n)
		d.numUsedBits += n
		if d.numUsedBits == 32 {
			d.pos++
			d.numUsedBits = 0
		}

		return out
	}

	// The value spans two words.
	hi := d.words[d.pos] << d.numUsedBits >> d.numUsedBits // low "remaining" bits
	d.pos++
	d.numUsedBits = n - remaining
	if d.pos >= len(d.words) {
		return hi << d.numUsedBits
	}
	lo := d.words[d.pos] >> (32 - d.numUsedBits)

	return hi<<d.numUsedBits | lo
}

// EndDecoding finalizes the stream.
func (d *DirectBitDecoder) EndDecoding() {}
