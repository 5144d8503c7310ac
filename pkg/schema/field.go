// Copyright 2025 Certen Protocol

package schema

// FieldType enumerates the property encodings DTM can compile and
// serialize. Identifier and Binary carry a fixed or bounded byte length;
// the rest map onto the obvious wire width.
type FieldType int

const (
	FieldTypeString FieldType = iota
	FieldTypeInteger
	FieldTypeNumber
	FieldTypeBoolean
	FieldTypeDate // milliseconds since epoch, same wire shape as Integer
	FieldTypeBinary
	FieldTypeIdentifier // always 32 bytes, spec.md §4.3 invariant
	FieldTypeArray
	FieldTypeObject
)

// SyntheticIdentifierPaths are the document-level fields DTM always
// treats as 32-byte identifiers even though they are not declared in a
// contract's property tree (spec.md §4.3: "synthetic $id, $ownerId").
var SyntheticIdentifierPaths = map[string]bool{
	"$id":      true,
	"$ownerId": true,
}

// SyntheticDatePaths are document-level fields DTM always treats as
// dates (spec.md §4.3: "$createdAt, $updatedAt as dates").
var SyntheticDatePaths = map[string]bool{
	"$createdAt": true,
	"$updatedAt": true,
}
