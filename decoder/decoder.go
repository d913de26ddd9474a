// Package decoder implements the Draco bitstream decoder: header parsing,
// version gating, and the mesh and point-cloud decoding pipelines.
//
// Note: decoders are single-use and not thread-safe. Decoding distinct
// buffers from distinct goroutines is safe.
package decoder

import (
	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/compress"
	"github.com/arloliu/draco/errs"
	"github.com/arloliu/draco/format"
	"github.com/arloliu/draco/internal/options"
)

// headerSize is the fixed byte length of the bitstream header.
const headerSize = 11

// Options configures a decode operation.
type Options struct {
	decodeMetadata         bool
	containerDecompression bool
}

// Option is a functional option for Decode operations.
type Option = options.Option[*Options]

func defaultOptions() *Options {
	return &Options{
		decodeMetadata:         true,
		containerDecompression: true,
	}
}

// WithMetadata controls whether an embedded metadata block is decoded and
// attached to the geometry (default true). When disabled the block is still
// parsed to locate the geometry body, then discarded.
func WithMetadata(enabled bool) Option {
	return options.Setter(func(o *Options) {
		o.decodeMetadata = enabled
	})
}

// WithContainerDecompression controls transparent decompression of
// zstd/lz4/s2-wrapped bitstreams before header parsing (default true).
func WithContainerDecompression(enabled bool) Option {
	return options.Setter(func(o *Options) {
		o.containerDecompression = enabled
	})
}

// Header is the parsed fixed bitstream header.
type Header struct {
	GeometryType format.GeometryType
	Method       format.EncodingMethod
	Version      format.Version
	Flags        uint16
}

// DecodeHeader parses and validates the 11-byte header and stamps the
// bitstream version on the buffer.
func DecodeHeader(buf *buffer.DecoderBuffer) (Header, error) {
	if buf.Remaining() < headerSize {
		return Header{}, errs.IO(buf.Pos(), "bitstream shorter than header")
	}

	var magic [5]byte
	if err := buf.DecodeBytes(magic[:]); err != nil {
		return Header{}, err
	}
	if magic != format.Magic {
		return Header{}, errs.Corrupt(0, "invalid Draco magic")
	}

	major, _ := buf.DecodeUint8()
	minor, _ := buf.DecodeUint8()
	version := format.MakeVersion(major, minor)

	encoderType, _ := buf.DecodeUint8()
	method, _ := buf.DecodeUint8()
	flags, err := buf.DecodeUint16()
	if err != nil {
		return Header{}, err
	}

	h := Header{
		GeometryType: format.GeometryType(encoderType),
		Method:       format.EncodingMethod(method),
		Version:      version,
		Flags:        flags,
	}
	if h.GeometryType != format.GeometryPointCloud && h.GeometryType != format.GeometryMesh {
		return Header{}, errs.Corrupt(7, "unknown encoder geometry type")
	}

	maxVersion := format.MaxPointCloudVersion
	if h.GeometryType == format.GeometryMesh {
		maxVersion = format.MaxMeshVersion
	}
	if version < format.V0_9 || version > maxVersion {
		return Header{}, errs.Version(5, "bitstream version "+versionString(version)+" not supported")
	}

	buf.SetVersion(version)

	return h, nil
}

func versionString(v format.Version) string {
	digits := func(n uint8) string {
		if n >= 10 {
			return string([]byte{'0' + n/10, '0' + n%10})
		}
		return string([]byte{'0' + n})
	}

	return digits(v.Major()) + "." + digits(v.Minor())
}

// PrepareBuffer sniffs an optional compression container, unwraps it when
// enabled, and returns a decoder buffer positioned at the header.
func PrepareBuffer(data []byte, opts *Options) (*buffer.DecoderBuffer, error) {
	if opts.containerDecompression {
		if codec := compress.SniffCodec(data); codec != nil {
			unwrapped, err := codec.Decompress(data)
			if err != nil {
				return nil, errs.Corrupt(0, "container decompression failed: "+err.Error())
			}
			data = unwrapped
		}
	}

	return buffer.New(data, 0), nil
}

// GetEncodedGeometryType peeks the header of an encoded (optionally
// container-wrapped) bitstream without decoding the geometry.
func GetEncodedGeometryType(data []byte, opts ...Option) (format.GeometryType, error) {
	o := defaultOptions()
	if err := options.Apply(o, opts...); err != nil {
		return 0, err
	}
	buf, err := PrepareBuffer(data, o)
	if err != nil {
		return 0, err
	}
	h, err := DecodeHeader(buf)
	if err != nil {
		return 0, err
	}

	return h.GeometryType, nil
}
