// Package metadata decodes the optional key/value metadata block carried
// between the bitstream header and the geometry body.
//
// Metadata is a tree: a flat list of byte-string entries plus named
// sub-metadata nodes. The geometry-level block additionally maps attribute
// unique ids to per-attribute metadata.
package metadata

import (
	"encoding/binary"

	"github.com/arloliu/draco/buffer"
	"github.com/arloliu/draco/errs"
)

// Metadata is one node of the metadata tree.
type Metadata struct {
	entries map[string][]byte
	sub     map[string]*Metadata
}

// NumEntries returns the number of entries of this node.
func (m *Metadata) NumEntries() int {
	return len(m.entries)
}

// Entry returns the raw bytes of an entry.
func (m *Metadata) Entry(key string) ([]byte, bool) {
	v, ok := m.entries[key]

	return v, ok
}

// EntryString returns an entry interpreted as a UTF-8 string.
func (m *Metadata) EntryString(key string) (string, bool) {
	v, ok := m.entries[key]

	return string(v), ok
}

// EntryInt32 returns an entry interpreted as a little-endian int32.
func (m *Metadata) EntryInt32(key string) (int32, bool) {
	v, ok := m.entries[key]
	if !ok || len(v) != 4 {
		return 0, false
	}

	return int32(binary.LittleEndian.Uint32(v)), true
}

// Sub returns a named sub-metadata node.
func (m *Metadata) Sub(key string) (*Metadata, bool) {
	s, ok := m.sub[key]

	return s, ok
}

// GeometryMetadata is the stream-level metadata block: file-level entries
// plus per-attribute nodes keyed by attribute unique id.
type GeometryMetadata struct {
	Metadata
	attribute map[uint32]*Metadata
}

// AttributeMetadata returns the metadata of the attribute with the given
// unique id.
func (g *GeometryMetadata) AttributeMetadata(uniqueID uint32) (*Metadata, bool) {
	m, ok := g.attribute[uniqueID]

	return m, ok
}

// maxMetadataNestingDepth bounds the metadata tree so a hostile stream
// cannot recurse the decoder into the ground.
const maxMetadataNestingDepth = 32

// Decode reads the metadata block at the buffer cursor.
func Decode(buf *buffer.DecoderBuffer) (*GeometryMetadata, error) {
	numAtt, err := buf.DecodeVarintUint32()
	if err != nil {
		return nil, err
	}
	g := &GeometryMetadata{attribute: make(map[uint32]*Metadata, numAtt)}
	for i := uint32(0); i < numAtt; i++ {
		uniqueID, err := buf.DecodeVarintUint32()
		if err != nil {
			return nil, err
		}
		m, err := decodeElement(buf, 0)
		if err != nil {
			return nil, err
		}
		g.attribute[uniqueID] = m
	}

	fileLevel, err := decodeElement(buf, 0)
	if err != nil {
		return nil, err
	}
	g.Metadata = *fileLevel

	return g, nil
}

func decodeElement(buf *buffer.DecoderBuffer, depth int) (*Metadata, error) {
	if depth > maxMetadataNestingDepth {
		return nil, errs.Corrupt(buf.Pos(), "metadata nesting too deep")
	}

	m := &Metadata{}
	numEntries, err := buf.DecodeVarintUint32()
	if err != nil {
		return nil, err
	}
	if numEntries > 0 {
		m.entries = make(map[string][]byte, numEntries)
	}
	for i := uint32(0); i < numEntries; i++ {
		key, err := decodeName(buf)
		if err != nil {
			return nil, err
		}
		valueSize, err := buf.DecodeUint8()
		if err != nil {
			return nil, err
		}
		value := make([]byte, valueSize)
		if err := buf.DecodeBytes(value); err != nil {
			return nil, err
		}
		m.entries[key] = value
	}

	numSub, err := buf.DecodeVarintUint32()
	if err != nil {
		return nil, err
	}
	if numSub > 0 {
		m.sub = make(map[string]*Metadata, numSub)
	}
	for i := uint32(0); i < numSub; i++ {
		key, err := decodeName(buf)
		if err != nil {
			return nil, err
		}
		sub, err := decodeElement(buf, depth+1)
		if err != nil {
			return nil, err
		}
		m.sub[key] = sub
	}

	return m, nil
}

func decodeName(buf *buffer.DecoderBuffer) (string, error) {
	size, err := buf.DecodeUint8()
	if err != nil {
		return "", err
	}
	name := make([]byte, size)
	if err := buf.DecodeBytes(name); err != nil {
		return "", err
	}

	return string(name), nil
}
