// Copyright 2025 Certen Protocol
//
// Package schema implements the Schema & Document-Type Model (DTM)
// described in spec.md §4.3: a compiled, read-only representation of a
// data contract's document types, properties, and indexes.

package schema

import "errors"

var (
	// ErrUnknownDocumentType is returned when a contract has no document
	// type with the requested name.
	ErrUnknownDocumentType = errors.New("schema: unknown document type")
	// ErrUnknownProperty is returned when an index or path references a
	// property the document type never declared.
	ErrUnknownProperty = errors.New("schema: unknown property")
	// ErrUnsupportedFieldType is returned when a property declares a
	// FieldType this implementation does not know how to encode.
	ErrUnsupportedFieldType = errors.New("schema: unsupported field type")
	// ErrMultipleContestedIndexes is returned when a document type
	// declares more than one contested index (spec.md §4.3 invariant).
	ErrMultipleContestedIndexes = errors.New("schema: at most one contested index per document type")
	// ErrDuplicateDocumentType is returned when a contract declares the
	// same document type name twice.
	ErrDuplicateDocumentType = errors.New("schema: duplicate document type name")
)
