// Copyright 2025 Certen Protocol
//
// DataContract is DTM's compiled view of a contract's full document-type
// set (spec.md §3 DataContract entity). Grounded on the teacher's
// pkg/intent naming for identifier-addressed, version-stamped entities,
// generalized into a document-schema compilation unit.

package schema

import "sort"

// DataContract is the compiled representation of one data contract.
// Created once per contract-create transition, replaced wholesale on
// every contract-update (spec.md §3: "version strictly increasing").
type DataContract struct {
	ID      Identifier
	OwnerID Identifier
	Version uint32

	documentTypes map[string]*DocumentType
}

// CompileDataContract assembles a DataContract from its already-compiled
// document types, rejecting duplicate names (spec.md §3: "Names unique
// per contract").
func CompileDataContract(id, ownerID Identifier, version uint32, types []*DocumentType) (*DataContract, error) {
	dc := &DataContract{ID: id, OwnerID: ownerID, Version: version, documentTypes: make(map[string]*DocumentType, len(types))}
	for _, dt := range types {
		if _, exists := dc.documentTypes[dt.Name]; exists {
			return nil, ErrDuplicateDocumentType
		}
		dc.documentTypes[dt.Name] = dt
	}
	return dc, nil
}

// DocumentType returns the compiled document type named name, or
// ErrUnknownDocumentType.
func (dc *DataContract) DocumentType(name string) (*DocumentType, error) {
	dt, ok := dc.documentTypes[name]
	if !ok {
		return nil, ErrUnknownDocumentType
	}
	return dt, nil
}

// DocumentTypeNames returns every declared document type name, sorted.
func (dc *DataContract) DocumentTypeNames() []string {
	out := make([]string, 0, len(dc.documentTypes))
	for name := range dc.documentTypes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
