// Copyright 2025 Certen Protocol

package schema

// Property is one compiled field declaration within a document type's
// property tree. Object properties nest further Properties; Array
// properties declare the type of their Items.
type Property struct {
	Name       string
	Type       FieldType
	Required   bool
	ByteLength int // fixed width for Binary/Identifier; 0 means variable-length Binary

	Properties map[string]*Property // populated when Type == FieldTypeObject
	Items      *Property             // populated when Type == FieldTypeArray
}

// Index is one compiled index declaration (spec.md §4.3): an ordered list
// of property paths plus the unique/contested flags governing how SE
// lowers writes against it.
type Index struct {
	Name       string
	Properties []string
	Unique     bool
	Contested  bool
}
