package geometry

import (
	"github.com/arloliu/draco/format"
	"github.com/arloliu/draco/internal/hash"
	"github.com/arloliu/draco/metadata"
)

// PointCloud is an unconnected set of points with per-point attributes.
type PointCloud struct {
	numPoints  int
	attributes []*PointAttribute
	meta       *metadata.GeometryMetadata
}

// NumPoints returns the number of points.
func (pc *PointCloud) NumPoints() int {
	return pc.numPoints
}

// SetNumPoints sets the number of points.
func (pc *PointCloud) SetNumPoints(n int) {
	pc.numPoints = n
}

// NumAttributes returns the number of attributes.
func (pc *PointCloud) NumAttributes() int {
	return len(pc.attributes)
}

// Attribute returns the attribute at index i.
func (pc *PointCloud) Attribute(i int) *PointAttribute {
	return pc.attributes[i]
}

// AddAttribute appends an attribute and returns its index.
func (pc *PointCloud) AddAttribute(att *PointAttribute) int {
	pc.attributes = append(pc.attributes, att)

	return len(pc.attributes) - 1
}

// NamedAttribute returns the first attribute of the given semantic, or nil.
func (pc *PointCloud) NamedAttribute(t format.AttributeType) *PointAttribute {
	for _, att := range pc.attributes {
		if att.Type == t {
			return att
		}
	}

	return nil
}

// NamedAttributeID returns the index of the first attribute of the given
// semantic, or -1.
func (pc *PointCloud) NamedAttributeID(t format.AttributeType) int {
	for i, att := range pc.attributes {
		if att.Type == t {
			return i
		}
	}

	return -1
}

// AttributeByUniqueID returns the attribute with the given unique id, or nil.
func (pc *PointCloud) AttributeByUniqueID(id uint32) *PointAttribute {
	for _, att := range pc.attributes {
		if att.UniqueID == id {
			return att
		}
	}

	return nil
}

// Metadata returns the geometry metadata, or nil when the stream carried
// none.
func (pc *PointCloud) Metadata() *metadata.GeometryMetadata {
	return pc.meta
}

// SetMetadata attaches decoded metadata to the geometry.
func (pc *PointCloud) SetMetadata(m *metadata.GeometryMetadata) {
	pc.meta = m
}

// Fingerprint returns a 64-bit content digest over the attribute layouts,
// value buffers and index maps. Two decodes of the same stream always agree.
func (pc *PointCloud) Fingerprint() uint64 {
	d := hash.NewDigest()
	d.WriteUint32(uint32(pc.numPoints))
	for _, att := range pc.attributes {
		d.WriteUint32(uint32(att.Type)<<16 | uint32(att.DataType)<<8 | uint32(att.NumComponents))
		d.WriteUint32(att.UniqueID)
		d.WriteBytes(att.Buffer())
		if !att.IsMappingIdentity() {
			d.WriteUint32Slice(att.IndicesMap())
		}
	}

	return d.Sum64()
}

// Mesh is a point cloud with triangle connectivity.
type Mesh struct {
	PointCloud
	faces [][3]uint32
}

// NumFaces returns the number of triangles.
func (m *Mesh) NumFaces() int {
	return len(m.faces)
}

// Face returns the vertex (point) indices of triangle f.
func (m *Mesh) Face(f int) [3]uint32 {
	return m.faces[f]
}

// Faces returns all triangles. The slice is owned by the mesh.
func (m *Mesh) Faces() [][3]uint32 {
	return m.faces
}

// SetNumFaces allocates the face array.
func (m *Mesh) SetNumFaces(n int) {
	m.faces = make([][3]uint32, n)
}

// SetFace sets triangle f.
func (m *Mesh) SetFace(f int, face [3]uint32) {
	m.faces[f] = face
}

// Fingerprint extends the point-cloud digest with the face indices.
func (m *Mesh) Fingerprint() uint64 {
	d := hash.NewDigest()
	d.WriteUint32(m.PointCloud.Fingerprint32())
	for _, f := range m.faces {
		d.WriteUint32(f[0])
		d.WriteUint32(f[1])
		d.WriteUint32(f[2])
	}

	return d.Sum64()
}

// Fingerprint32 folds the point-cloud fingerprint to 32 bits for embedding
// into larger digests.
func (pc *PointCloud) Fingerprint32() uint32 {
	fp := pc.Fingerprint()

	return uint32(fp) ^ uint32(fp>>32)
}
