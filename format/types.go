// Package format defines the enumerated types and constants of the Draco
// bitstream: geometry types, encoding methods, attribute semantics, component
// data types, prediction schemes and prediction transforms.
//
// All values mirror the on-wire byte codes of the bitstream; the decoder
// reads them directly into these types.
package format

type (
	// GeometryType identifies the kind of geometry stored in a bitstream.
	GeometryType uint8
	// EncodingMethod identifies the connectivity/point encoding method.
	EncodingMethod uint8
	// AttributeType identifies the semantic of a point attribute.
	AttributeType uint8
	// DataType identifies the component type of decoded attribute values.
	DataType uint8
	// SymbolCoding identifies the entropy-coding scheme of a symbol stream.
	SymbolCoding uint8
	// PredictionMethod identifies the prediction scheme of an attribute.
	PredictionMethod int8
	// PredictionTransform identifies the correction transform of a
	// prediction scheme.
	PredictionTransform int8
	// TraversalMethod identifies the corner-table traversal used to order
	// attribute values.
	TraversalMethod uint8
	// SequentialEncoder identifies the per-attribute sequential decoder type.
	SequentialEncoder uint8
)

const (
	GeometryPointCloud GeometryType = 0 // GeometryPointCloud is an unconnected point set.
	GeometryMesh       GeometryType = 1 // GeometryMesh is a triangular mesh.
)

// Connectivity encoding methods. The meaning of the byte depends on the
// geometry type: meshes choose between sequential and edgebreaker coding,
// point clouds between sequential and KD-tree coding.
const (
	MeshSequentialEncoding  EncodingMethod = 0
	MeshEdgebreakerEncoding EncodingMethod = 1

	PointCloudSequentialEncoding EncodingMethod = 0
	PointCloudKDTreeEncoding     EncodingMethod = 1
)

const (
	AttributeInvalid  AttributeType = 255
	AttributePosition AttributeType = 0
	AttributeNormal   AttributeType = 1
	AttributeColor    AttributeType = 2
	AttributeTexCoord AttributeType = 3
	// AttributeGeneric covers all application-specific attributes such as
	// skinning weights or per-vertex ambient occlusion.
	AttributeGeneric AttributeType = 4
)

const (
	DTInvalid DataType = 0
	DTInt8    DataType = 1
	DTUint8   DataType = 2
	DTInt16   DataType = 3
	DTUint16  DataType = 4
	DTInt32   DataType = 5
	DTUint32  DataType = 6
	DTInt64   DataType = 7
	DTUint64  DataType = 8
	DTFloat32 DataType = 9
	DTFloat64 DataType = 10
	DTBool    DataType = 11
)

const (
	// SymbolCodingTagged groups values by a rANS-coded bit-length tag
	// followed by raw bits.
	SymbolCodingTagged SymbolCoding = 0
	// SymbolCodingRaw decodes every value as a single rANS symbol.
	SymbolCodingRaw SymbolCoding = 1
)

const (
	// PredictionUndefined marks an attribute whose scheme byte has not been
	// read yet.
	PredictionUndefined PredictionMethod = -1
	// PredictionNone disables prediction; corrections are the values.
	PredictionNone PredictionMethod = -2

	PredictionDifference                    PredictionMethod = 0
	PredictionParallelogram                 PredictionMethod = 1
	PredictionMultiParallelogram            PredictionMethod = 2
	PredictionTexCoordsDeprecated           PredictionMethod = 3
	PredictionConstrainedMultiParallelogram PredictionMethod = 4
	PredictionTexCoordsPortable             PredictionMethod = 5
	PredictionGeometricNormal               PredictionMethod = 6
)

const (
	TransformNone PredictionTransform = -1
	// TransformDelta applies corrections directly without wrapping.
	TransformDelta PredictionTransform = 0
	// TransformWrap wraps reconstructed values into a decoded [min, max]
	// interval.
	TransformWrap                          PredictionTransform = 1
	TransformNormalOctahedron              PredictionTransform = 2
	TransformNormalOctahedronCanonicalized PredictionTransform = 3
)

const (
	TraversalDepthFirst       TraversalMethod = 0
	TraversalPredictionDegree TraversalMethod = 1
)

const (
	SequentialEncoderGeneric      SequentialEncoder = 0
	SequentialEncoderInteger      SequentialEncoder = 1
	SequentialEncoderQuantization SequentialEncoder = 2
	SequentialEncoderNormals      SequentialEncoder = 3
	// SequentialEncoderKDTree appears in point-cloud streams produced by the
	// KD-tree encoder; the sequential pipeline decodes it with the
	// quantization decoder.
	SequentialEncoderKDTree SequentialEncoder = 6
)

// Traversal decoder types used by the edgebreaker connectivity decoder.
const (
	EdgebreakerStandard   uint8 = 0
	EdgebreakerPredictive uint8 = 1
	EdgebreakerValence    uint8 = 2
)

// Size returns the byte width of a single component of the data type, or 0
// for DTInvalid.
func (d DataType) Size() int {
	switch d {
	case DTInt8, DTUint8, DTBool:
		return 1
	case DTInt16, DTUint16:
		return 2
	case DTInt32, DTUint32, DTFloat32:
		return 4
	case DTInt64, DTUint64, DTFloat64:
		return 8
	default:
		return 0
	}
}

// IsIntegral reports whether the data type stores integer components.
func (d DataType) IsIntegral() bool {
	switch d {
	case DTInt8, DTUint8, DTInt16, DTUint16, DTInt32, DTUint32, DTInt64, DTUint64, DTBool:
		return true
	default:
		return false
	}
}

func (g GeometryType) String() string {
	switch g {
	case GeometryPointCloud:
		return "PointCloud"
	case GeometryMesh:
		return "Mesh"
	default:
		return "Unknown"
	}
}

func (a AttributeType) String() string {
	switch a {
	case AttributePosition:
		return "Position"
	case AttributeNormal:
		return "Normal"
	case AttributeColor:
		return "Color"
	case AttributeTexCoord:
		return "TexCoord"
	case AttributeGeneric:
		return "Generic"
	default:
		return "Invalid"
	}
}

func (d DataType) String() string {
	switch d {
	case DTInt8:
		return "int8"
	case DTUint8:
		return "uint8"
	case DTInt16:
		return "int16"
	case DTUint16:
		return "uint16"
	case DTInt32:
		return "int32"
	case DTUint32:
		return "uint32"
	case DTInt64:
		return "int64"
	case DTUint64:
		return "uint64"
	case DTFloat32:
		return "float32"
	case DTFloat64:
		return "float64"
	case DTBool:
		return "bool"
	default:
		return "invalid"
	}
}

func (p PredictionMethod) String() string {
	switch p {
	case PredictionNone:
		return "None"
	case PredictionDifference:
		return "Difference"
	case PredictionParallelogram:
		return "Parallelogram"
	case PredictionMultiParallelogram:
		return "MultiParallelogram"
	case PredictionConstrainedMultiParallelogram:
		return "ConstrainedMultiParallelogram"
	case PredictionTexCoordsPortable:
		return "TexCoordsPortable"
	case PredictionGeometricNormal:
		return "GeometricNormal"
	default:
		return "Undefined"
	}
}

func (t PredictionTransform) String() string {
	switch t {
	case TransformNone:
		return "None"
	case TransformDelta:
		return "Delta"
	case TransformWrap:
		return "Wrap"
	case TransformNormalOctahedron:
		return "NormalOctahedron"
	case TransformNormalOctahedronCanonicalized:
		return "NormalOctahedronCanonicalized"
	default:
		return "Unknown"
	}
}
