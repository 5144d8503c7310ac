// Copyright 2025 Certen Protocol
//
// DocumentType is DTM's compiled view of one document type declared by a
// data contract (spec.md §4.3). It is built once via CompileDocumentType
// and never mutated afterward; every accessor is a pure read.

package schema

import (
	"sort"
	"strings"
)

// DocumentType is the compiled representation of one (contract_id, name)
// document type (spec.md §3 DocumentType entity).
type DocumentType struct {
	ContractID Identifier
	Name       string

	properties  map[string]*Property
	required    map[string]bool
	indexes     []Index
	mutable     bool
	keepHistory bool
}

// CompileDocumentType validates and compiles one document type's property
// tree and index set. It enforces spec.md §4.3's invariants: every index
// property must resolve to a declared (or synthetic) property, and at
// most one contested index may exist. The resolved property's type is
// not checked.
func CompileDocumentType(contractID Identifier, name string, properties map[string]*Property, required []string, indexes []Index, mutable, keepHistory bool) (*DocumentType, error) {
	dt := &DocumentType{
		ContractID:  contractID,
		Name:        name,
		properties:  properties,
		required:    make(map[string]bool, len(required)),
		indexes:     append([]Index{}, indexes...),
		mutable:     mutable,
		keepHistory: keepHistory,
	}
	for _, r := range required {
		dt.required[r] = true
	}

	contestedCount := 0
	for _, idx := range dt.indexes {
		for _, path := range idx.Properties {
			if _, err := dt.FieldTypeForProperty(path); err != nil {
				return nil, err
			}
		}
		if idx.Contested {
			contestedCount++
		}
	}
	if contestedCount > 1 {
		return nil, ErrMultipleContestedIndexes
	}
	return dt, nil
}

// Mutable reports whether documents of this type may be updated after
// creation (spec.md §3 Document entity: "immutable types forbid update").
func (dt *DocumentType) Mutable() bool { return dt.mutable }

// KeepHistory reports whether deletes/updates append a tombstone/history
// slot instead of physically overwriting prior index entries.
func (dt *DocumentType) KeepHistory() bool { return dt.keepHistory }

// Indexes returns every index declared on this document type.
func (dt *DocumentType) Indexes() []Index {
	return append([]Index{}, dt.indexes...)
}

// ContestedIndex returns the document type's single contested index, if
// any (spec.md §4.3 invariant guarantees at most one).
func (dt *DocumentType) ContestedIndex() (Index, bool) {
	for _, idx := range dt.indexes {
		if idx.Contested {
			return idx, true
		}
	}
	return Index{}, false
}

// Required reports whether path is a required property.
func (dt *DocumentType) Required(path string) bool {
	return dt.required[path]
}

// IdentifierPaths returns the set of property paths DTM treats as
// 32-byte identifiers, including the synthetic $id/$ownerId fields
// (spec.md §4.3).
func (dt *DocumentType) IdentifierPaths() map[string]bool {
	out := map[string]bool{}
	for k := range SyntheticIdentifierPaths {
		out[k] = true
	}
	dt.walk(func(path string, p *Property) {
		if p.Type == FieldTypeIdentifier {
			out[path] = true
		}
	})
	return out
}

// BinaryPaths returns the set of property paths DTM treats as raw binary
// blobs (spec.md §4.3), excluding Identifier paths which are binary of a
// fixed, already-tracked width.
func (dt *DocumentType) BinaryPaths() map[string]bool {
	out := map[string]bool{}
	dt.walk(func(path string, p *Property) {
		if p.Type == FieldTypeBinary {
			out[path] = true
		}
	})
	return out
}

// FieldTypeForProperty resolves path (dot-separated for nested Object
// properties) to its compiled FieldType, including the synthetic
// document-level fields (spec.md §4.3).
func (dt *DocumentType) FieldTypeForProperty(path string) (FieldType, error) {
	if SyntheticIdentifierPaths[path] {
		return FieldTypeIdentifier, nil
	}
	if SyntheticDatePaths[path] {
		return FieldTypeDate, nil
	}

	segments := strings.Split(path, ".")
	props := dt.properties
	var cur *Property
	for i, seg := range segments {
		p, ok := props[seg]
		if !ok {
			return 0, ErrUnknownProperty
		}
		cur = p
		if i < len(segments)-1 {
			if p.Type != FieldTypeObject {
				return 0, ErrUnknownProperty
			}
			props = p.Properties
		}
	}
	if cur == nil {
		return 0, ErrUnknownProperty
	}
	return cur.Type, nil
}

// walk visits every property (dot-path, *Property) in map iteration
// order, which is unspecified, descending into Object properties.
func (dt *DocumentType) walk(visit func(path string, p *Property)) {
	var rec func(prefix string, props map[string]*Property)
	rec = func(prefix string, props map[string]*Property) {
		for name, p := range props {
			path := name
			if prefix != "" {
				path = prefix + "." + name
			}
			visit(path, p)
			if p.Type == FieldTypeObject {
				rec(path, p.Properties)
			}
		}
	}
	rec("", dt.properties)
}

// orderedPropertyPaths returns every top-level declared property path in
// a stable order (insertion order is not preserved by Go maps, so this
// sorts lexicographically; spec.md §4.3 requires a deterministic
// encoding order which this satisfies as long as it is applied
// consistently by both writer and reader).
func (dt *DocumentType) orderedPropertyPaths() []string {
	paths := make([]string, 0, len(dt.properties))
	for name := range dt.properties {
		paths = append(paths, name)
	}
	sort.Strings(paths)
	return paths
}
