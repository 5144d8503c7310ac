// Copyright 2025 Certen Protocol

package schema

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Document is one schema-typed dynamic value plus the document-level
// metadata every document carries (spec.md §3 Document entity).
type Document struct {
	ID          Identifier
	OwnerID     Identifier
	DocumentType string
	Revision    uint64
	CreatedAt   uint64 // milliseconds since epoch, 0 if unset
	UpdatedAt   uint64

	Values map[string]interface{}
}

// Serialize produces DTM's canonical wire encoding for doc under dt:
// id(32) || owner_id(32) || encoded_fields, fields in lexicographic order
// of their top-level property names; declaration order is not kept
// (spec.md §4.3). It is used both as the primary-storage value and
// as the preimage hashed into index keys.
func (dt *DocumentType) Serialize(doc *Document) ([]byte, error) {
	out := make([]byte, 0, 64)
	out = append(out, doc.ID[:]...)
	out = append(out, doc.OwnerID[:]...)

	for _, path := range dt.orderedPropertyPaths() {
		prop := dt.properties[path]
		val, present := doc.Values[path]
		if !present {
			if dt.Required(path) {
				return nil, fmt.Errorf("schema: missing required property %q", path)
			}
			continue
		}
		encoded, err := encodeValue(prop, val)
		if err != nil {
			return nil, fmt.Errorf("schema: encode property %q: %w", path, err)
		}
		out = append(out, encoded...)
	}
	return out, nil
}

// EncodeIndexKey deterministically encodes the indexed property values of
// doc for idx, in idx's declared property order. SE uses this as the key
// under which a document is written into one of its document type's
// index subtrees.
func (dt *DocumentType) EncodeIndexKey(doc *Document, idx Index) ([]byte, error) {
	out := make([]byte, 0, 32*len(idx.Properties))
	for _, path := range idx.Properties {
		ft, err := dt.FieldTypeForProperty(path)
		if err != nil {
			return nil, err
		}
		val, ok := lookupPath(doc, path)
		if !ok {
			return nil, fmt.Errorf("schema: index property %q not set on document", path)
		}
		prop := &Property{Type: ft}
		encoded, err := encodeValue(prop, val)
		if err != nil {
			return nil, fmt.Errorf("schema: encode index property %q: %w", path, err)
		}
		out = append(out, encoded...)
	}
	return out, nil
}

func lookupPath(doc *Document, path string) (interface{}, bool) {
	switch path {
	case "$id":
		return doc.ID, true
	case "$ownerId":
		return doc.OwnerID, true
	case "$createdAt":
		if doc.CreatedAt == 0 {
			return nil, false
		}
		return int64(doc.CreatedAt), true
	case "$updatedAt":
		if doc.UpdatedAt == 0 {
			return nil, false
		}
		return int64(doc.UpdatedAt), true
	default:
		v, ok := doc.Values[path]
		return v, ok
	}
}

func encodeValue(prop *Property, val interface{}) ([]byte, error) {
	switch prop.Type {
	case FieldTypeString:
		s, ok := val.(string)
		if !ok {
			return nil, ErrUnsupportedFieldType
		}
		return lengthPrefixed([]byte(s)), nil
	case FieldTypeInteger, FieldTypeDate:
		n, ok := toInt64(val)
		if !ok {
			return nil, ErrUnsupportedFieldType
		}
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(n))
		return b, nil
	case FieldTypeNumber:
		f, ok := val.(float64)
		if !ok {
			return nil, ErrUnsupportedFieldType
		}
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, math.Float64bits(f))
		return b, nil
	case FieldTypeBoolean:
		bv, ok := val.(bool)
		if !ok {
			return nil, ErrUnsupportedFieldType
		}
		if bv {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case FieldTypeBinary:
		b, ok := val.([]byte)
		if !ok {
			return nil, ErrUnsupportedFieldType
		}
		if prop.ByteLength > 0 && len(b) != prop.ByteLength {
			return nil, ErrUnsupportedFieldType
		}
		return lengthPrefixed(b), nil
	case FieldTypeIdentifier:
		id, ok := val.(Identifier)
		if !ok {
			return nil, ErrUnsupportedFieldType
		}
		return id[:], nil
	default:
		return nil, ErrUnsupportedFieldType
	}
}

func lengthPrefixed(b []byte) []byte {
	out := make([]byte, 4+len(b))
	binary.BigEndian.PutUint32(out, uint32(len(b)))
	copy(out[4:], b)
	return out
}

func toInt64(val interface{}) (int64, bool) {
	switch v := val.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}
