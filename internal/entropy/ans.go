// Package entropy implements the rANS entropy decoders of the Draco
// bitstream: the multi-symbol range decoder with its probability tables, the
// binary rANS decoder used for flag streams, the direct (uncompressed) bit
// decoder, and the symbol-coding layer that dispatches between the tagged
// and raw schemes.
//
// rANS streams are written forward by the encoder and consumed backwards by
// the decoder; every decoder here walks its byte slice from the end toward
// the start.
package entropy

import (
	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
)

const (
	// ansIOBase is the radix of the byte stream: renormalization moves one
	// base-256 digit at a time.
	ansIOBase = 256
	// ansLBase is the renormalization floor of the binary coder. The
	// multi-symbol decoder scales its floor with the probability precision
	// instead (4 << precisionBits).
	ansLBase = 4096
	// ansP8Precision is the probability precision of the binary coder.
	ansP8Precision = 256
)

// ansState is the shared backward-reading register of the rANS decoders: a
// state accumulator over a byte slice consumed from the end.
type ansState struct {
	buf   []byte
	pos   int // next byte to consume walks downward
	state uint64
}

// init seeds the state from the tail of data. The top two bits of the final
// byte select how many trailing bytes carry the initial state (1, 2, 3 or 4
// including the tag byte); the remaining bits of those bytes are the state
// itself, to which the caller's renormalization floor is added.
func (a *ansState) init(data []byte, lBase uint64) error {
	n := len(data)
	if n < 1 {
		return errs.Corrupt(0, "empty rANS stream")
	}
	a.buf = data
	x := data[n-1] >> 6
	switch x {
	case 0:
		a.pos = n - 1
		a.state = uint64(data[n-1] & 0x3F)
	case 1:
		if n < 2 {
			return errs.Corrupt(0, "truncated rANS state")
		}
		a.pos = n - 2
		a.state = uint64(data[n-2]) | uint64(data[n-1]&0x3F)<<8
	case 2:
		if n < 3 {
			return errs.Corrupt(0, "truncated rANS state")
		}
		a.pos = n - 3
		a.state = uint64(data[n-3]) | uint64(data[n-2])<<8 | uint64(data[n-1]&0x3F)<<16
	default: // 3
		if n < 4 {
			return errs.Corrupt(0, "truncated rANS state")
		}
		a.pos = n - 4
		a.state = uint64(data[n-4]) | uint64(data[n-3])<<8 | uint64(data[n-2])<<16 |
			uint64(data[n-1]&0x3F)<<24
	}
	a.state += lBase
	if a.state >= lBase*ansIOBase {
		return errs.Corrupt(0, "rANS initial state out of range")
	}

	return nil
}

// refill renormalizes the state up to the floor, absorbing one trailing byte
// per step. An exhausted stream leaves the state as is; the surrounding
// decoder bounds the number of decode calls, so this cannot loop forever.
func (a *ansState) refill(lBase uint64) {
	for a.state < lBase && a.pos > 0 {
		a.pos--
		a.state = a.state*ansIOBase + uint64(a.buf[a.pos])
	}
}

// RAnsBitDecoder decodes a stream of individual bits coded with the binary
// rANS variant. The probability of a zero bit is fixed for the whole stream
// and transmitted in its first byte.
type RAnsBitDecoder struct {
	ans      ansState
	probZero uint8
}

// StartDecoding reads the bit stream header (zero-probability byte and coded
// size) from buf and prepares for DecodeNextBit calls. The coded bytes are
// consumed from buf immediately; subsequent reads of buf continue after them.
func (d *RAnsBitDecoder) StartDecoding(buf *buffer.DecoderBuffer) error {
	probZero, err := buf.DecodeUint8()
	if err != nil {
		return err
	}
	d.probZero = probZero

	var size uint32
	if buf.Version() < format.V2_2 {
		size, err = buf.DecodeUint32()
	} else {
		size, err = buf.DecodeVarintUint32()
	}
	if err != nil {
		return err
	}
	data, err := buf.Slice(int(size))
	if err != nil {
		return err
	}

	return d.ans.init(data, ansLBase)
}

// DecodeNextBit returns the next bit of the stream.
func (d *RAnsBitDecoder) DecodeNextBit() bool {
	d.ans.refill(ansLBase)

	p1 := uint64(ansP8Precision - uint32(d.probZero))
	x := d.ans.state
	quot := x / ansP8Precision
	rem := x % ansP8Precision
	xn := quot * p1
	if rem < p1 {
		d.ans.state = xn + rem
		return true
	}
	d.ans.state = x - xn - p1

	return false
}

// DecodeLeastSignificantBits32 assembles n bits MSB-first from consecutive
// DecodeNextBit calls, mirroring the encoder's bit order.
func (d *RAnsBitDecoder) DecodeLeastSignificantBits32(n int) uint32 {
	var out uint32
	for i := 0; i < n; i++ {
		out <<= 1
		if d.DecodeNextBit() {
			out |= 1
		}
	}

	return out
}

// EndDecoding finalizes the stream. Draco streams carry no explicit
// terminator for bit sequences; this exists for symmetry with the symbol
// decoder.
func (d *RAnsBitDecoder) EndDecoding() {}
