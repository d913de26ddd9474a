package connectivity

import (
	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
	"github.com/arloliu/draco/geometry"
	"github.com/arloliu/draco/internal/entropy"
)

// CLERS symbols in decode order.
const (
	symC uint8 = iota
	symS
	symL
	symR
	symE
	symInvalid
)

// traversalDecoder feeds the edgebreaker reconstruction: CLERS symbols,
// start-face configurations and attribute seam flags, plus the valence
// bookkeeping hooks the valence variant needs.
type traversalDecoder interface {
	// Start consumes the traversal data sections from buf.
	Start(buf *buffer.DecoderBuffer, numSymbols, numAttributeData int) error
	// DecodeSymbol returns the next CLERS symbol.
	DecodeSymbol() (uint8, error)
	// NewActiveCornerReached tells the decoder which corner became the
	// active gate after the last symbol.
	NewActiveCornerReached(ct *geometry.CornerTable, corner int32)
	// MergeVertices signals that source was merged into dest by a split.
	MergeVertices(dest, source int32)
	// DecodeStartFaceConfiguration returns true when a start face is
	// interior (closes a loop) rather than a hole boundary.
	DecodeStartFaceConfiguration() (bool, error)
	// DecodeAttributeSeam returns the seam flag of the next edge for
	// attribute data att.
	DecodeAttributeSeam(att int) (bool, error)
}

// standardTraversal reads CLERS symbols directly from a bit section:
// C is a single 0 bit, the other symbols a 1 bit plus two suffix bits.
type standardTraversal struct {
	symbols []uint8
	symPos  int

	startFaces    *buffer.DecoderBuffer
	startFaceRAns *entropy.RAnsBitDecoder
	seams         []entropy.RAnsBitDecoder
}

var suffixToSymbol = [4]uint8{symS, symL, symR, symE}

func (d *standardTraversal) Start(buf *buffer.DecoderBuffer, numSymbols, numAttributeData int) error {
	if err := d.decodeSymbolSection(buf, numSymbols); err != nil {
		return err
	}
	if err := d.decodeStartFaceSection(buf); err != nil {
		return err
	}

	return d.decodeSeamSections(buf, numAttributeData)
}

// decodeSymbolSection slices the sized symbol bit section off buf and
// pre-decodes all CLERS symbols.
func (d *standardTraversal) decodeSymbolSection(buf *buffer.DecoderBuffer, numSymbols int) error {
	var size uint64
	var err error
	if buf.Version() < format.V2_2 {
		size, err = buf.DecodeUint64()
	} else {
		size, err = buf.DecodeVarintUint64()
	}
	if err != nil {
		return err
	}
	if size > uint64(buf.Remaining()) {
		return errs.IO(buf.Pos(), "CLERS section past end of buffer")
	}
	data, err := buf.Slice(int(size))
	if err != nil {
		return err
	}

	bits := buffer.New(data, buf.Version())
	if _, err := bits.StartBitDecoding(false); err != nil {
		return err
	}
	d.symbols = make([]uint8, numSymbols)
	for i := 0; i < numSymbols; i++ {
		b, err := bits.DecodeBit()
		if err != nil {
			return err
		}
		if b == 0 {
			d.symbols[i] = symC
			continue
		}
		suffix, err := bits.DecodeLeastSignificantBits32(2)
		if err != nil {
			return err
		}
		d.symbols[i] = suffixToSymbol[suffix]
	}

	return nil
}

func (d *standardTraversal) decodeStartFaceSection(buf *buffer.DecoderBuffer) error {
	if buf.Version() < format.V2_2 {
		d.startFaceRAns = &entropy.RAnsBitDecoder{}

		return d.startFaceRAns.StartDecoding(buf)
	}

	size, err := buf.DecodeVarintUint64()
	if err != nil {
		return err
	}
	data, err := buf.Slice(int(size))
	if err != nil {
		return err
	}
	d.startFaces = buffer.New(data, buf.Version())
	_, err = d.startFaces.StartBitDecoding(false)

	return err
}

func (d *standardTraversal) decodeSeamSections(buf *buffer.DecoderBuffer, numAttributeData int) error {
	d.seams = make([]entropy.RAnsBitDecoder, numAttributeData)
	for i := range d.seams {
		if err := d.seams[i].StartDecoding(buf); err != nil {
			return err
		}
	}

	return nil
}

func (d *standardTraversal) DecodeSymbol() (uint8, error) {
	if d.symPos >= len(d.symbols) {
		return symInvalid, errs.Corrupt(0, "CLERS symbol stream exhausted")
	}
	s := d.symbols[d.symPos]
	d.symPos++

	return s, nil
}

func (d *standardTraversal) NewActiveCornerReached(*geometry.CornerTable, int32) {}

func (d *standardTraversal) MergeVertices(int32, int32) {}

func (d *standardTraversal) DecodeStartFaceConfiguration() (bool, error) {
	if d.startFaceRAns != nil {
		return d.startFaceRAns.DecodeNextBit(), nil
	}
	b, err := d.startFaces.DecodeBit()
	if err != nil {
		return false, err
	}

	return b != 0, nil
}

func (d *standardTraversal) DecodeAttributeSeam(att int) (bool, error) {
	if att < 0 || att >= len(d.seams) {
		return false, errs.Internal(0, "attribute seam index out of range")
	}

	return d.seams[att].DecodeNextBit(), nil
}

// valenceTraversal groups CLERS symbols by the valence of the active vertex:
// each valence in [2, 7] owns an independently rANS-coded symbol list that
// is consumed back to front. Valences are tracked while the corner table is
// rebuilt, so decoder and encoder always agree on the active context.
type valenceTraversal struct {
	standardTraversal // start faces and seams are coded as in the standard variant

	contextSymbols  [][]uint32
	contextCounters []int
	activeContext   int
	lastSymbol      uint8

	vertexValences []int32
}

const (
	minValence        = 2
	maxValence        = 7
	numUniqueValences = maxValence - minValence + 1
)

var valenceSymbolToTopology = [5]uint8{symC, symS, symL, symR, symE}

func (d *valenceTraversal) Start(buf *buffer.DecoderBuffer, numSymbols, numAttributeData int) error {
	if buf.Version() < format.V2_2 {
		return errs.Unsupported(buf.Pos(), "valence traversal before bitstream 2.2")
	}
	if err := d.decodeStartFaceSection(buf); err != nil {
		return err
	}
	if err := d.decodeSeamSections(buf, numAttributeData); err != nil {
		return err
	}

	d.activeContext = -1
	d.lastSymbol = symInvalid
	d.contextSymbols = make([][]uint32, numUniqueValences)
	d.contextCounters = make([]int, numUniqueValences)
	for i := 0; i < numUniqueValences; i++ {
		count, err := buf.DecodeVarintUint32()
		if err != nil {
			return err
		}
		if int(count) > numSymbols {
			return errs.Corrupt(buf.Pos(), "valence context larger than symbol stream")
		}
		if count > 0 {
			d.contextSymbols[i] = make([]uint32, count)
			if err := entropy.DecodeSymbols(int(count), 1, buf, d.contextSymbols[i]); err != nil {
				return err
			}
		}
		d.contextCounters[i] = int(count)
	}

	return nil
}

func (d *valenceTraversal) DecodeSymbol() (uint8, error) {
	if d.activeContext < 0 {
		// The first symbol of every stream seeds a new face and is always E.
		d.lastSymbol = symE

		return symE, nil
	}

	d.contextCounters[d.activeContext]--
	counter := d.contextCounters[d.activeContext]
	if counter < 0 {
		return symInvalid, errs.Corrupt(0, "valence context exhausted")
	}
	symbolID := d.contextSymbols[d.activeContext][counter]
	if symbolID >= uint32(len(valenceSymbolToTopology)) {
		return symInvalid, errs.Corrupt(0, "invalid valence symbol")
	}
	d.lastSymbol = valenceSymbolToTopology[symbolID]

	return d.lastSymbol, nil
}

func (d *valenceTraversal) NewActiveCornerReached(ct *geometry.CornerTable, corner int32) {
	next := ct.Next(corner)
	prev := ct.Previous(corner)
	d.growValences(ct.NumVertices())

	switch d.lastSymbol {
	case symC, symS:
		d.vertexValences[ct.Vertex(next)]++
		d.vertexValences[ct.Vertex(prev)]++
	case symR:
		d.vertexValences[ct.Vertex(corner)]++
		d.vertexValences[ct.Vertex(next)]++
		d.vertexValences[ct.Vertex(prev)] += 2
	case symL:
		d.vertexValences[ct.Vertex(corner)]++
		d.vertexValences[ct.Vertex(next)] += 2
		d.vertexValences[ct.Vertex(prev)]++
	case symE:
		d.vertexValences[ct.Vertex(corner)] += 2
		d.vertexValences[ct.Vertex(next)] += 2
		d.vertexValences[ct.Vertex(prev)] += 2
	}

	valence := d.vertexValences[ct.Vertex(next)]
	if valence < minValence {
		valence = minValence
	} else if valence > maxValence {
		valence = maxValence
	}
	d.activeContext = int(valence - minValence)
}

func (d *valenceTraversal) MergeVertices(dest, source int32) {
	d.growValences(int(max32(dest, source)) + 1)
	d.vertexValences[dest] += d.vertexValences[source]
}

func (d *valenceTraversal) growValences(n int) {
	for len(d.vertexValences) < n {
		d.vertexValences = append(d.vertexValences, 0)
	}
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}

	return b
}
