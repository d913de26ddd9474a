package entropy

import (
	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
)

// maxTagSymbolBitLength bounds the bit-length tags of the tagged scheme;
// values are at most 32 bits wide so tags fit in 5 bits.
const maxTagSymbolBitLength = 5

// maxRawSymbolBitLength bounds the declared symbol width of the raw scheme.
const maxRawSymbolBitLength = 18

// DecodeSymbols decodes numValues unsigned integers grouped in components
// of numComponents, dispatching on the one-byte scheme prefix between the
// tagged and raw coding schemes. Values are appended to out in encoder
// order; out must be sized to numValues.
func DecodeSymbols(numValues, numComponents int, buf *buffer.DecoderBuffer, out []uint32) error {
	if numValues < 0 || len(out) < numValues {
		return errs.Internal(buf.Pos(), "symbol output buffer too small")
	}
	if numValues == 0 {
		return nil
	}

	scheme, err := buf.DecodeUint8()
	if err != nil {
		return err
	}
	switch format.SymbolCoding(scheme) {
	case format.SymbolCodingTagged:
		return decodeTaggedSymbols(numValues, numComponents, buf, out)
	default:
		return decodeRawSymbols(numValues, buf, out)
	}
}

// decodeTaggedSymbols reads one rANS-coded bit-length tag per group of
// numComponents values, then the values themselves as raw LSB bit groups
// from the shared bit section.
func decodeTaggedSymbols(numValues, numComponents int, buf *buffer.DecoderBuffer, out []uint32) error {
	if numComponents <= 0 {
		numComponents = 1
	}
	tagDecoder, err := NewRAnsSymbolDecoder(maxTagSymbolBitLength, buf)
	if err != nil {
		return err
	}
	if err := tagDecoder.StartDecoding(buf); err != nil {
		return err
	}

	// An empty tag model with pending values means the encoder stored the
	// bit lengths directly in the bit section, one 5-bit length per group.
	inlineTags := tagDecoder.NumSymbols() == 0

	if _, err := buf.StartBitDecoding(false); err != nil {
		return err
	}
	for i := 0; i < numValues; i += numComponents {
		var bitLength uint32
		if inlineTags {
			bitLength, err = buf.DecodeLeastSignificantBits32(maxTagSymbolBitLength)
			if err != nil {
				return err
			}
		} else {
			bitLength = tagDecoder.DecodeSymbol()
		}
		if bitLength > 32 {
			return errs.Corrupt(buf.Pos(), "tagged symbol bit length out of range")
		}
		for j := 0; j < numComponents && i+j < numValues; j++ {
			v, err := buf.DecodeLeastSignificantBits32(int(bitLength))
			if err != nil {
				return err
			}
			out[i+j] = v
		}
	}
	tagDecoder.EndDecoding()
	buf.EndBitDecoding()

	return nil
}

// decodeRawSymbols decodes every value as one rANS symbol from a model of
// the declared maximum bit length.
func decodeRawSymbols(numValues int, buf *buffer.DecoderBuffer, out []uint32) error {
	maxBitLength, err := buf.DecodeUint8()
	if err != nil {
		return err
	}
	if maxBitLength == 0 || maxBitLength > maxRawSymbolBitLength {
		return errs.Corrupt(buf.Pos(), "raw symbol bit length out of range")
	}

	decoder, err := NewRAnsSymbolDecoder(int(maxBitLength), buf)
	if err != nil {
		return err
	}
	if err := decoder.StartDecoding(buf); err != nil {
		return err
	}
	for i := 0; i < numValues; i++ {
		out[i] = decoder.DecodeSymbol()
	}
	decoder.EndDecoding()

	return nil
}

// ConvertSymbolsToSignedInts returns the zig-zag-decoded values as a new
// signed slice; the input is left unchanged.
func ConvertSymbolsToSignedInts(values []uint32) []int32 {
	out := make([]int32, len(values))
	for i, u := range values {
		out[i] = int32(u>>1) ^ -int32(u&1)
	}

	return out
}

// ConvertSignedIntsInPlace reinterprets zig-zag coded symbols as signed
// values stored back into the same backing array.
func ConvertSignedIntsInPlace(values []uint32) {
	for i, u := range values {
		values[i] = uint32(int32(u>>1) ^ -int32(u&1))
	}
}
