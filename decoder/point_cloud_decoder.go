package decoder

import (
	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
	"github.com/arloliu/draco/geometry"
	"github.com/arloliu/draco/internal/attributes"
	"github.com/arloliu/draco/internal/options"
	"github.com/arloliu/draco/metadata"
)

// DecodePointCloud decodes a point-cloud bitstream.
func DecodePointCloud(data []byte, opts ...Option) (*geometry.PointCloud, error) {
	o := defaultOptions()
	if err := options.Apply(o, opts...); err != nil {
		return nil, err
	}
	buf, err := PrepareBuffer(data, o)
	if err != nil {
		return nil, err
	}

	h, err := DecodeHeader(buf)
	if err != nil {
		return nil, err
	}
	if h.GeometryType != format.GeometryPointCloud {
		return nil, errs.Corrupt(7, "bitstream does not hold a point cloud")
	}

	pc := &geometry.PointCloud{}
	if err := decodePointCloudBody(buf, h, pc, o); err != nil {
		return nil, err
	}

	return pc, nil
}

func decodePointCloudBody(buf *buffer.DecoderBuffer, h Header, pc *geometry.PointCloud, o *Options) error {
	if err := decodeMetadataBlock(buf, h, pc, o); err != nil {
		return err
	}
	if h.Method != format.PointCloudSequentialEncoding {
		return errs.Unsupported(buf.Pos(), "KD-tree point cloud encoding")
	}

	var numPoints uint32
	var err error
	if buf.Version() < format.V2_2 {
		numPoints, err = buf.DecodeUint32()
	} else {
		numPoints, err = buf.DecodeVarintUint32()
	}
	if err != nil {
		return err
	}
	pc.SetNumPoints(int(numPoints))

	sequencerFor := func(attDecoderID int) (*attributes.PointsSequence, error) {
		return attributes.LinearSequence(int(numPoints)), nil
	}

	return decodeAttributesDecoders(buf, pc, sequencerFor)
}

// decodeMetadataBlock parses the optional metadata section directly after
// the header.
func decodeMetadataBlock(buf *buffer.DecoderBuffer, h Header, pc *geometry.PointCloud, o *Options) error {
	if h.Flags&format.HeaderFlagMetadata == 0 {
		return nil
	}
	meta, err := metadata.Decode(buf)
	if err != nil {
		return err
	}
	if o.decodeMetadata {
		pc.SetMetadata(meta)
	}

	return nil
}

// decodeAttributesDecoders runs the attributes-decoder loop: per decoder the
// sequencer callback (which also consumes any decoder-specific configuration
// bytes), the attribute metadata and the encoder types; then phases 2-4
// globally in declared order.
func decodeAttributesDecoders(buf *buffer.DecoderBuffer, pc *geometry.PointCloud,
	sequencerFor func(attDecoderID int) (*attributes.PointsSequence, error)) error {
	numDecoders, err := buf.DecodeUint8()
	if err != nil {
		return err
	}

	controllers := make([]*attributes.Controller, numDecoders)
	for i := range controllers {
		seq, err := sequencerFor(i)
		if err != nil {
			return err
		}
		controllers[i] = attributes.NewController(seq)
		if err := controllers[i].DecodeAttributesDecoderData(buf, pc); err != nil {
			return err
		}
		if err := controllers[i].DecodeAttributeTypes(buf); err != nil {
			return err
		}
	}

	shared := &attributes.SharedState{}
	for _, c := range controllers {
		if err := c.DecodePortableAttributes(buf, shared); err != nil {
			return err
		}
	}
	for _, c := range controllers {
		if err := c.DecodeDataNeededByPortableTransforms(buf); err != nil {
			return err
		}
	}
	for _, c := range controllers {
		if err := c.TransformAttributesToOriginalFormats(); err != nil {
			return err
		}
	}

	return nil
}
