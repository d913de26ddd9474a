package entropy

import (
	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
	"github.com/arloliu/draco/internal/pool"
)

// ransSym is one entry of the decoded probability model.
type ransSym struct {
	prob    uint32
	cumProb uint32
}

// RAnsSymbolDecoder decodes a stream of multi-bit symbols coded with range
// asymmetric numeral systems.
//
// The decoder is created from a probability model read off the buffer, then
// started on the coded byte block. Symbols are recovered via a flat inverse
// lookup table of size 1<<precisionBits.
type RAnsSymbolDecoder struct {
	precisionBits int
	precision     uint32
	lBase         uint64

	probs      []ransSym
	lut        []uint32
	lutCleanup func()

	ans ansState
}

// ComputeRAnsPrecision derives the probability precision from the declared
// maximum symbol bit length: clamp(ceil(3*l/2), 12, 20).
func ComputeRAnsPrecision(symbolBitLength int) int {
	p := (3*symbolBitLength + 1) / 2
	if p < 12 {
		return 12
	}
	if p > 20 {
		return 20
	}

	return p
}

// NewRAnsSymbolDecoder reads the probability model for a stream whose
// symbols need at most symbolBitLength bits and builds the inverse lookup
// table.
//
// Creation fails with Corrupt when the probabilities do not sum to the
// precision or a zero-run escapes the symbol range.
func NewRAnsSymbolDecoder(symbolBitLength int, buf *buffer.DecoderBuffer) (*RAnsSymbolDecoder, error) {
	bits := ComputeRAnsPrecision(symbolBitLength)
	d := &RAnsSymbolDecoder{
		precisionBits: bits,
		precision:     1 << bits,
		lBase:         uint64(4) << bits,
	}

	var numSymbols uint32
	var err error
	if buf.Version() < format.V2_0 {
		numSymbols, err = buf.DecodeUint32()
	} else {
		numSymbols, err = buf.DecodeVarintUint32()
	}
	if err != nil {
		return nil, err
	}
	// Every present symbol needs probability >= 1, so the model can never
	// hold more symbols than the precision.
	if numSymbols > d.precision {
		return nil, errs.Corrupt(buf.Pos(), "rANS symbol count exceeds precision")
	}

	d.probs = make([]ransSym, numSymbols)
	for i := uint32(0); i < numSymbols; i++ {
		probData, err := buf.DecodeUint8()
		if err != nil {
			return nil, err
		}
		token := probData & 3
		if token == 3 {
			// Zero-probability run: the next offset+1 symbols are absent.
			offset := uint32(probData >> 2)
			if i+offset >= numSymbols {
				return nil, errs.Corrupt(buf.Pos(), "rANS zero-probability run out of range")
			}
			i += offset
			continue
		}
		prob := uint32(probData >> 2)
		for b := 0; b < int(token); b++ {
			eb, err := buf.DecodeUint8()
			if err != nil {
				return nil, err
			}
			prob |= uint32(eb) << (8*(b+1) - 2)
		}
		d.probs[i].prob = prob
	}

	// Cumulative table and flat inverse lookup.
	var total uint32
	for i := range d.probs {
		d.probs[i].cumProb = total
		total += d.probs[i].prob
		if total > d.precision {
			return nil, errs.Corrupt(buf.Pos(), "rANS cumulative probability overflow")
		}
	}
	if total != d.precision {
		return nil, errs.Corruptf(buf.Pos(), "rANS probability sum %d != precision %d", total, d.precision)
	}

	d.lut, d.lutCleanup = pool.GetUint32Slice(int(d.precision))
	for s := range d.probs {
		for j := d.probs[s].cumProb; j < d.probs[s].cumProb+d.probs[s].prob; j++ {
			d.lut[j] = uint32(s)
		}
	}

	return d, nil
}

// NumSymbols returns the number of symbols in the probability model.
func (d *RAnsSymbolDecoder) NumSymbols() int {
	return len(d.probs)
}

// StartDecoding reads the coded byte block off buf and seeds the rANS state
// from its tail. The block is consumed from buf immediately.
func (d *RAnsSymbolDecoder) StartDecoding(buf *buffer.DecoderBuffer) error {
	bytesEncoded, err := buf.DecodeVarintUint64()
	if err != nil {
		return err
	}
	if bytesEncoded > uint64(buf.Remaining()) {
		return errs.IO(buf.Pos(), "rANS coded block past end of buffer")
	}
	data, err := buf.Slice(int(bytesEncoded))
	if err != nil {
		return err
	}

	return d.ans.init(data, d.lBase)
}

// DecodeSymbol returns the next symbol of the stream.
//
// Decoding an exhausted stream keeps returning symbols derived from the
// residual state; callers bound the number of calls by the expected symbol
// count.
func (d *RAnsSymbolDecoder) DecodeSymbol() uint32 {
	d.ans.refill(d.lBase)

	quot := d.ans.state / uint64(d.precision)
	rem := uint32(d.ans.state % uint64(d.precision))
	s := d.lut[rem]
	sym := &d.probs[s]
	d.ans.state = quot*uint64(sym.prob) + uint64(rem) - uint64(sym.cumProb)

	return s
}

// EndDecoding finalizes the stream and releases the lookup table back to
// the scratch pool. The decoder must not be used afterwards.
func (d *RAnsSymbolDecoder) EndDecoding() {
	if d.lutCleanup != nil {
		d.lutCleanup()
		d.lutCleanup = nil
		d.lut = nil
	}
}
