// Package geometry defines the decoded geometry model: point attributes,
// point clouds, triangular meshes, and the corner tables that describe mesh
// connectivity during decoding.
package geometry

import (
	"encoding/binary"
	"math"

	"github.com/arloliu/draco/format"
)

// PointAttribute holds the decoded values of one vertex attribute together
// with the mapping from point ids to stored values.
//
// Values are stored packed in a little-endian byte buffer of
// NumValues() * NumComponents * DataType.Size() bytes. The indices map
// translates a point id to the index of its value; attributes without seams
// use an implicit identity mapping.
type PointAttribute struct {
	// Type is the attribute semantic (position, normal, ...).
	Type format.AttributeType
	// DataType is the component type of the stored values.
	DataType format.DataType
	// NumComponents is the number of components per value, in [1, 255].
	NumComponents uint8
	// Normalized marks integer attributes whose unsigned values represent
	// [0, 1] and signed values [-1, 1].
	Normalized bool
	// UniqueID is the stable application-visible attribute identifier.
	UniqueID uint32

	numValues  int
	buffer     []byte
	indicesMap []uint32 // nil means identity
}

// NewPointAttribute creates an attribute shell; values are allocated by
// ResizeValueBuffer once the decoder knows the value count.
func NewPointAttribute(attType format.AttributeType, dataType format.DataType, numComponents uint8, normalized bool) *PointAttribute {
	return &PointAttribute{
		Type:          attType,
		DataType:      dataType,
		NumComponents: numComponents,
		Normalized:    normalized,
	}
}

// NumValues returns the number of distinct stored values.
func (a *PointAttribute) NumValues() int {
	return a.numValues
}

// ByteStride returns the byte width of one stored value.
func (a *PointAttribute) ByteStride() int {
	return int(a.NumComponents) * a.DataType.Size()
}

// ResizeValueBuffer allocates the packed value buffer for numValues values.
func (a *PointAttribute) ResizeValueBuffer(numValues int) {
	a.numValues = numValues
	a.buffer = make([]byte, numValues*a.ByteStride())
}

// Buffer returns the packed value buffer.
func (a *PointAttribute) Buffer() []byte {
	return a.buffer
}

// ValueBytes returns the packed bytes of value valueIndex.
func (a *PointAttribute) ValueBytes(valueIndex int) []byte {
	stride := a.ByteStride()

	return a.buffer[valueIndex*stride : (valueIndex+1)*stride]
}

// MappedIndex translates a point id to its value index.
func (a *PointAttribute) MappedIndex(pointID uint32) uint32 {
	if a.indicesMap == nil {
		return pointID
	}

	return a.indicesMap[pointID]
}

// IsMappingIdentity reports whether points map to values one to one.
func (a *PointAttribute) IsMappingIdentity() bool {
	return a.indicesMap == nil
}

// SetIdentityMapping switches the attribute to the implicit identity map.
func (a *PointAttribute) SetIdentityMapping() {
	a.indicesMap = nil
}

// SetExplicitMapping installs a point-to-value index map. The slice is owned
// by the attribute afterwards.
func (a *PointAttribute) SetExplicitMapping(indices []uint32) {
	a.indicesMap = indices
}

// IndicesMap returns the explicit point-to-value map, or nil for identity.
func (a *PointAttribute) IndicesMap() []uint32 {
	return a.indicesMap
}

// ComponentsFloat64 returns the components of value valueIndex converted to
// float64, honoring the Normalized flag: normalized unsigned components
// scale into [0, 1] and normalized signed components into [-1, 1]; all
// other integers convert by value.
func (a *PointAttribute) ComponentsFloat64(valueIndex int) []float64 {
	raw := a.ValueBytes(valueIndex)
	size := a.DataType.Size()
	out := make([]float64, a.NumComponents)
	for c := range out {
		out[c] = a.componentFloat64(raw[c*size:])
	}

	return out
}

func (a *PointAttribute) componentFloat64(raw []byte) float64 {
	var v float64
	var maxMagnitude float64
	switch a.DataType {
	case format.DTInt8:
		v = float64(int8(raw[0]))
		maxMagnitude = math.MaxInt8
	case format.DTUint8:
		v = float64(raw[0])
		maxMagnitude = math.MaxUint8
	case format.DTInt16:
		v = float64(int16(binary.LittleEndian.Uint16(raw)))
		maxMagnitude = math.MaxInt16
	case format.DTUint16:
		v = float64(binary.LittleEndian.Uint16(raw))
		maxMagnitude = math.MaxUint16
	case format.DTInt32:
		v = float64(int32(binary.LittleEndian.Uint32(raw)))
		maxMagnitude = math.MaxInt32
	case format.DTUint32:
		v = float64(binary.LittleEndian.Uint32(raw))
		maxMagnitude = math.MaxUint32
	case format.DTInt64:
		v = float64(int64(binary.LittleEndian.Uint64(raw)))
		maxMagnitude = math.MaxInt64
	case format.DTUint64:
		v = float64(binary.LittleEndian.Uint64(raw))
		maxMagnitude = math.MaxUint64
	case format.DTFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(raw)))
	case format.DTFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(raw))
	case format.DTBool:
		if raw[0] != 0 {
			return 1
		}
		return 0
	default:
		return 0
	}

	if !a.Normalized {
		return v
	}
	v /= maxMagnitude
	// Signed minimum values land just below -1 after scaling by the
	// positive maximum.
	if v < -1 {
		v = -1
	}

	return v
}
