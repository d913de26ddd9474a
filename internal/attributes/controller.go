package attributes

import (
	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
	"github.com/arloliu/draco/geometry"
)

// Controller runs the four-phase sequential pipeline for one
// attributes-decoder of the bitstream. Phases are invoked globally in order
// by the geometry decoder: all controllers finish a phase before any enters
// the next, because later phase-2 streams sit behind earlier ones in the
// buffer.
type Controller struct {
	seq      *PointsSequence
	atts     []*geometry.PointAttribute
	decoders []sequentialDecoder
}

// NewController creates a pipeline over the value sequence of this
// attributes-decoder.
func NewController(seq *PointsSequence) *Controller {
	return &Controller{seq: seq}
}

// Attributes returns the attributes owned by this controller.
func (c *Controller) Attributes() []*geometry.PointAttribute {
	return c.atts
}

// DecodeAttributesDecoderData reads the attribute metadata block and
// registers the new attributes on the point cloud.
func (c *Controller) DecodeAttributesDecoderData(buf *buffer.DecoderBuffer, pc *geometry.PointCloud) error {
	var numAttributes uint32
	var err error
	if buf.Version() < format.V2_0 {
		numAttributes, err = buf.DecodeUint32()
	} else {
		numAttributes, err = buf.DecodeVarintUint32()
	}
	if err != nil {
		return err
	}
	if numAttributes == 0 {
		return errs.Corrupt(buf.Pos(), "attributes decoder without attributes")
	}
	if int(numAttributes) > buf.Remaining() {
		return errs.Corrupt(buf.Pos(), "attribute count exceeds stream size")
	}

	c.atts = make([]*geometry.PointAttribute, 0, numAttributes)
	for i := uint32(0); i < numAttributes; i++ {
		attType, err := buf.DecodeUint8()
		if err != nil {
			return err
		}
		if format.AttributeType(attType) > format.AttributeGeneric {
			return errs.Corrupt(buf.Pos(), "invalid attribute type")
		}
		dataType, err := buf.DecodeUint8()
		if err != nil {
			return err
		}
		if format.DataType(dataType).Size() == 0 {
			return errs.Corrupt(buf.Pos(), "invalid attribute data type")
		}
		numComponents, err := buf.DecodeUint8()
		if err != nil {
			return err
		}
		if numComponents == 0 {
			return errs.Corrupt(buf.Pos(), "attribute without components")
		}
		normalized, err := buf.DecodeUint8()
		if err != nil {
			return err
		}

		var uniqueID uint32
		if buf.Version() < format.V1_3 {
			id16, err := buf.DecodeUint16()
			if err != nil {
				return err
			}
			uniqueID = uint32(id16)
		} else {
			if uniqueID, err = buf.DecodeVarintUint32(); err != nil {
				return err
			}
		}

		att := geometry.NewPointAttribute(format.AttributeType(attType), format.DataType(dataType),
			numComponents, normalized != 0)
		att.UniqueID = uniqueID
		c.atts = append(c.atts, att)
		pc.AddAttribute(att)
	}

	return nil
}

// DecodeAttributeTypes is phase 1: one encoder-type byte per attribute.
func (c *Controller) DecodeAttributeTypes(buf *buffer.DecoderBuffer) error {
	c.decoders = make([]sequentialDecoder, len(c.atts))
	for i, att := range c.atts {
		encoderType, err := buf.DecodeUint8()
		if err != nil {
			return err
		}
		dec, err := newSequentialDecoder(format.SequentialEncoder(encoderType), att, buf.Pos())
		if err != nil {
			return err
		}
		c.decoders[i] = dec
	}

	return nil
}

// DecodePortableAttributes is phase 2. Once the position attribute's
// portable integers exist they are published to shared state for dependent
// prediction schemes.
func (c *Controller) DecodePortableAttributes(buf *buffer.DecoderBuffer, shared *SharedState) error {
	for i, dec := range c.decoders {
		if err := dec.DecodePortableAttribute(c.seq, buf, shared); err != nil {
			return err
		}
		if c.atts[i].Type == format.AttributePosition && shared != nil && shared.Positions == nil {
			if ints := dec.PortableInts(); ints != nil {
				shared.Positions = ints
				shared.PosIndexForPoint = c.valueIndexForPoint
			}
		}
	}

	return nil
}

// valueIndexForPoint resolves a point id to this controller's value index.
func (c *Controller) valueIndexForPoint(point uint32) uint32 {
	if c.seq.IndicesMap == nil {
		return point
	}

	return c.seq.IndicesMap[point]
}

// DecodeDataNeededByPortableTransforms is phase 3.
func (c *Controller) DecodeDataNeededByPortableTransforms(buf *buffer.DecoderBuffer) error {
	for _, dec := range c.decoders {
		if err := dec.DecodeDataNeededByPortableTransform(buf); err != nil {
			return err
		}
	}

	return nil
}

// TransformAttributesToOriginalFormats is phase 4: dequantization and final
// storage, plus the point-to-value maps.
func (c *Controller) TransformAttributesToOriginalFormats() error {
	for _, dec := range c.decoders {
		if err := dec.TransformAttributeToOriginalFormat(); err != nil {
			return err
		}
		att := dec.Attribute()
		if c.seq.IndicesMap != nil {
			indices := make([]uint32, len(c.seq.IndicesMap))
			copy(indices, c.seq.IndicesMap)
			att.SetExplicitMapping(indices)
		} else {
			att.SetIdentityMapping()
		}
	}

	return nil
}
