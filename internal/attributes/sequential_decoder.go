package attributes

import (
	"math"

	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/endian"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
	"github.com/arloliu/draco/geometry"
	"github.com/arloliu/draco/internal/entropy"
)

// SharedState carries cross-attribute data of one decode operation: the
// portable integer positions that texture-coordinate and normal prediction
// read as their parent attribute.
type SharedState struct {
	Positions        []int32
	PosIndexForPoint func(uint32) uint32
}

// sequentialDecoder is one per-attribute decoder driven through the four
// pipeline phases.
type sequentialDecoder interface {
	Attribute() *geometry.PointAttribute
	// DecodePortableAttribute is phase 2: entropy-decoded integers plus
	// prediction.
	DecodePortableAttribute(seq *PointsSequence, buf *buffer.DecoderBuffer, shared *SharedState) error
	// DecodeDataNeededByPortableTransform is phase 3: transform parameters.
	DecodeDataNeededByPortableTransform(buf *buffer.DecoderBuffer) error
	// TransformAttributeToOriginalFormat is phase 4: portable to original.
	TransformAttributeToOriginalFormat() error
	// PortableInts exposes the phase-2 integers for dependent attributes.
	PortableInts() []int32
}

func newSequentialDecoder(encoderType format.SequentialEncoder, att *geometry.PointAttribute, offset int) (sequentialDecoder, error) {
	switch encoderType {
	case format.SequentialEncoderGeneric:
		return &genericDecoder{att: att}, nil
	case format.SequentialEncoderInteger:
		return &integerDecoder{att: att}, nil
	case format.SequentialEncoderQuantization:
		if att.DataType != format.DTFloat32 {
			return nil, errs.Corrupt(offset, "quantized attribute with non-float type")
		}
		return &quantizationDecoder{integerDecoder: integerDecoder{att: att}}, nil
	case format.SequentialEncoderNormals:
		if att.NumComponents != 3 {
			return nil, errs.Corrupt(offset, "octahedral normals need three components")
		}
		return &normalsDecoder{integerDecoder: integerDecoder{att: att}}, nil
	case format.SequentialEncoderKDTree:
		// KD-tree coded attributes degrade to plain quantization on the
		// sequential pipeline.
		if att.DataType != format.DTFloat32 {
			return nil, errs.Corrupt(offset, "quantized attribute with non-float type")
		}
		return &quantizationDecoder{integerDecoder: integerDecoder{att: att}}, nil
	default:
		return nil, errs.Unsupported(offset, "sequential attribute encoder type")
	}
}

// genericDecoder copies raw little-endian values without prediction;
// the encoder uses it for attributes that compress poorly as integers.
type genericDecoder struct {
	att *geometry.PointAttribute
}

func (d *genericDecoder) Attribute() *geometry.PointAttribute { return d.att }

func (d *genericDecoder) DecodePortableAttribute(seq *PointsSequence, buf *buffer.DecoderBuffer, _ *SharedState) error {
	numValues := seq.NumValues()
	d.att.ResizeValueBuffer(numValues)

	return buf.DecodeBytes(d.att.Buffer())
}

func (d *genericDecoder) DecodeDataNeededByPortableTransform(*buffer.DecoderBuffer) error {
	return nil
}

func (d *genericDecoder) TransformAttributeToOriginalFormat() error { return nil }

func (d *genericDecoder) PortableInts() []int32 { return nil }

// integerDecoder decodes symbol-coded integers with an optional prediction
// scheme, producing portable int32 values.
type integerDecoder struct {
	att      *geometry.PointAttribute
	scheme   predictionScheme
	portable []int32
	seq      *PointsSequence
}

func (d *integerDecoder) Attribute() *geometry.PointAttribute { return d.att }

func (d *integerDecoder) PortableInts() []int32 { return d.portable }

// portableComponents is the component count of the portable representation;
// octahedral normals shrink three float components into two integers.
func (d *integerDecoder) portableComponents() int {
	return int(d.att.NumComponents)
}

func (d *integerDecoder) decodePortable(seq *PointsSequence, buf *buffer.DecoderBuffer, shared *SharedState, numComponents int) error {
	d.seq = seq

	rawMethod, err := buf.DecodeInt8()
	if err != nil {
		return err
	}
	method := format.PredictionMethod(rawMethod)
	if method != format.PredictionNone {
		rawTransform, err := buf.DecodeInt8()
		if err != nil {
			return err
		}
		scheme, err := newPredictionScheme(method, format.PredictionTransform(rawTransform), seq, buf)
		if err != nil {
			return err
		}
		d.scheme = scheme
	}

	numValues := seq.NumValues()
	values := make([]uint32, numValues*numComponents)
	compressed, err := buf.DecodeUint8()
	if err != nil {
		return err
	}
	if compressed > 0 {
		if err := entropy.DecodeSymbols(len(values), numComponents, buf, values); err != nil {
			return err
		}
	} else if err := decodeRawIntegers(buf, values); err != nil {
		return err
	}

	// Signed corrections arrive zig-zag coded; positive-correction
	// transforms skip the remapping. This ordering is load-bearing.
	if d.scheme != nil && !d.scheme.Transform().AreCorrectionsPositive() {
		entropy.ConvertSignedIntsInPlace(values)
	}

	d.portable = make([]int32, len(values))
	for i, v := range values {
		d.portable[i] = int32(v)
	}

	if d.scheme != nil {
		if err := d.scheme.DecodePredictionData(buf); err != nil {
			return err
		}
		if consumer, ok := d.scheme.(parentAttributeConsumer); ok {
			if shared == nil || shared.Positions == nil {
				return errs.Corrupt(buf.Pos(), "prediction scheme needs decoded positions")
			}
			consumer.SetParentPositions(shared.Positions, shared.PosIndexForPoint)
		}
		if numValues > 0 {
			corr := d.portable
			out := make([]int32, len(corr))
			if err := d.scheme.ComputeOriginalValues(corr, out, numComponents); err != nil {
				return err
			}
			d.portable = out
		}
	}

	return nil
}

func (d *integerDecoder) DecodePortableAttribute(seq *PointsSequence, buf *buffer.DecoderBuffer, shared *SharedState) error {
	return d.decodePortable(seq, buf, shared, d.portableComponents())
}

func (d *integerDecoder) DecodeDataNeededByPortableTransform(*buffer.DecoderBuffer) error {
	return nil
}

// TransformAttributeToOriginalFormat stores the portable integers in the
// attribute's declared data type.
func (d *integerDecoder) TransformAttributeToOriginalFormat() error {
	numValues := len(d.portable) / d.portableComponents()
	d.att.ResizeValueBuffer(numValues)

	return storeTypedValues(d.att, d.portable)
}

// decodeRawIntegers reads the uncompressed layout: a byte-width prefix and
// one little-endian value of that width per entry.
func decodeRawIntegers(buf *buffer.DecoderBuffer, out []uint32) error {
	numBytes, err := buf.DecodeUint8()
	if err != nil {
		return err
	}
	if numBytes == 0 || numBytes > 4 {
		return errs.Corrupt(buf.Pos(), "raw integer width out of range")
	}
	for i := range out {
		var v uint32
		for b := 0; b < int(numBytes); b++ {
			c, err := buf.DecodeUint8()
			if err != nil {
				return err
			}
			v |= uint32(c) << (8 * b)
		}
		out[i] = v
	}

	return nil
}

// storeTypedValues writes portable int32 components into the attribute
// buffer using its declared component type.
func storeTypedValues(att *geometry.PointAttribute, portable []int32) error {
	engine := endian.GetLittleEndianEngine()
	buf := att.Buffer()
	size := att.DataType.Size()
	if size == 0 {
		return errs.Corrupt(0, "attribute with invalid data type")
	}
	for i, v := range portable {
		off := i * size
		switch att.DataType {
		case format.DTInt8, format.DTUint8, format.DTBool:
			buf[off] = byte(v)
		case format.DTInt16, format.DTUint16:
			engine.PutUint16(buf[off:], uint16(v))
		case format.DTInt32, format.DTUint32:
			engine.PutUint32(buf[off:], uint32(v))
		case format.DTInt64, format.DTUint64:
			engine.PutUint64(buf[off:], uint64(int64(v)))
		case format.DTFloat32:
			engine.PutUint32(buf[off:], math.Float32bits(float32(v)))
		case format.DTFloat64:
			engine.PutUint64(buf[off:], math.Float64bits(float64(v)))
		default:
			return errs.Corrupt(0, "attribute with invalid data type")
		}
	}

	return nil
}

// quantizationDecoder dequantizes integer-coded float attributes using the
// declared min/range box.
type quantizationDecoder struct {
	integerDecoder

	quantizationBits uint8
	minValues        []float32
	rangeValue       float32
}

func (d *quantizationDecoder) DecodeDataNeededByPortableTransform(buf *buffer.DecoderBuffer) error {
	bits, err := buf.DecodeUint8()
	if err != nil {
		return err
	}
	if bits > 30 {
		return errs.Corrupt(buf.Pos(), "quantization bits out of range")
	}
	d.quantizationBits = bits

	d.minValues = make([]float32, d.att.NumComponents)
	for i := range d.minValues {
		if d.minValues[i], err = buf.DecodeFloat32(); err != nil {
			return err
		}
	}
	if d.rangeValue, err = buf.DecodeFloat32(); err != nil {
		return err
	}

	return nil
}

func (d *quantizationDecoder) TransformAttributeToOriginalFormat() error {
	nc := int(d.att.NumComponents)
	numValues := len(d.portable) / nc
	d.att.ResizeValueBuffer(numValues)

	engine := endian.GetLittleEndianEngine()
	buf := d.att.Buffer()
	if d.quantizationBits == 0 {
		return nil // zero bits quantizes everything to zero
	}
	maxQuantized := float64(uint32(1)<<d.quantizationBits - 1)
	scale := float64(d.rangeValue) / maxQuantized

	for i, q := range d.portable {
		c := i % nc
		f := float32(float64(q)*scale) + d.minValues[c]
		engine.PutUint32(buf[4*i:], math.Float32bits(f))
	}

	return nil
}

// normalsDecoder reconstructs unit normals from two-component octahedral
// integers.
type normalsDecoder struct {
	integerDecoder

	quantizationBits uint8
}

func (d *normalsDecoder) portableComponents() int { return 2 }

func (d *normalsDecoder) DecodePortableAttribute(seq *PointsSequence, buf *buffer.DecoderBuffer, shared *SharedState) error {
	return d.decodePortable(seq, buf, shared, d.portableComponents())
}

func (d *normalsDecoder) DecodeDataNeededByPortableTransform(buf *buffer.DecoderBuffer) error {
	bits, err := buf.DecodeUint8()
	if err != nil {
		return err
	}
	if bits == 0 || bits > 30 {
		return errs.Corrupt(buf.Pos(), "normal quantization bits out of range")
	}
	d.quantizationBits = bits

	return nil
}

func (d *normalsDecoder) TransformAttributeToOriginalFormat() error {
	numValues := len(d.portable) / 2
	d.att.ResizeValueBuffer(numValues)

	toolbox := newOctahedronToolBox(int32(uint32(1)<<d.quantizationBits - 1))
	engine := endian.GetLittleEndianEngine()
	buf := d.att.Buffer()
	for i := 0; i < numValues; i++ {
		x, y, z := toolbox.quantizedOctahedralCoordsToUnitVector(d.portable[2*i], d.portable[2*i+1])
		engine.PutUint32(buf[12*i:], math.Float32bits(x))
		engine.PutUint32(buf[12*i+4:], math.Float32bits(y))
		engine.PutUint32(buf[12*i+8:], math.Float32bits(z))
	}

	return nil
}
