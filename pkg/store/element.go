// Copyright 2025 Certen Protocol
//
// Element and operation types for the authenticated store.
// Grounded on the teacher's pkg/kvdb adapter shape and generalized from
// a single-value KV into GroveDB-style typed elements.

package store

// OpKind identifies the low-level mutation a batched Op performs.
type OpKind int

const (
	// OpInsertTree creates a new regular (non-sum) subtree at path/key.
	OpInsertTree OpKind = iota
	// OpInsertEmptySumTree creates a new sum subtree, initialized to zero.
	OpInsertEmptySumTree
	// OpInsert writes an Item, Reference, or SumItem element.
	OpInsert
	// OpInsertIfNotExists writes only if the key is absent; otherwise the
	// whole batch is rejected.
	OpInsertIfNotExists
	// OpDelete removes a key; the whole batch is rejected if it is absent.
	OpDelete
	// OpDeleteIfExists removes a key if present and is a no-op otherwise.
	OpDeleteIfExists
	// OpSumItemDelta adds (or subtracts, via a negative delta) to a
	// SumItem leaf's value in-place.
	OpSumItemDelta
)

// ElementKind distinguishes the payload carried by OpInsert.
type ElementKind int

const (
	ElementItem ElementKind = iota
	ElementReference
	ElementSumItem
)

// Element is the value half of a key/value pair stored in a subtree.
type Element struct {
	Kind ElementKind

	// Item holds arbitrary bytes (ElementItem).
	Item []byte

	// ReferencePath/ReferenceKey point at another key in the store
	// (ElementReference). The referenced key must exist in the same
	// transaction or a prior committed state (AS invariant, spec.md §4.1).
	ReferencePath []string
	ReferenceKey  []byte

	// SumValue is the signed 64-bit contribution of a SumItem leaf to its
	// enclosing sum tree (ElementSumItem).
	SumValue int64
}

// NewItem builds an Item element.
func NewItem(value []byte) Element {
	return Element{Kind: ElementItem, Item: value}
}

// NewReference builds a Reference element pointing at another path/key.
func NewReference(path []string, key []byte) Element {
	return Element{Kind: ElementReference, ReferencePath: path, ReferenceKey: key}
}

// NewSumItem builds a SumItem element carrying the given signed value.
func NewSumItem(value int64) Element {
	return Element{Kind: ElementSumItem, SumValue: value}
}

// Op is one entry in an ordered batch passed to Apply. Path identifies the
// subtree (root-relative, each segment a logical path component such as a
// contract ID or document type name); Key is the leaf key within that
// subtree.
type Op struct {
	Kind  OpKind
	Path  []string
	Key   []byte
	Elem  Element
	Delta int64 // used only by OpSumItemDelta
}

// InsertTree returns an Op that creates a regular subtree.
func InsertTree(path []string, key []byte) Op {
	return Op{Kind: OpInsertTree, Path: path, Key: key}
}

// InsertEmptySumTree returns an Op that creates a sum subtree.
func InsertEmptySumTree(path []string, key []byte) Op {
	return Op{Kind: OpInsertEmptySumTree, Path: path, Key: key}
}

// Insert returns an Op that writes elem at path/key, overwriting any prior
// value.
func Insert(path []string, key []byte, elem Element) Op {
	return Op{Kind: OpInsert, Path: path, Key: key, Elem: elem}
}

// InsertIfNotExists returns an Op that writes elem only if key is absent.
func InsertIfNotExists(path []string, key []byte, elem Element) Op {
	return Op{Kind: OpInsertIfNotExists, Path: path, Key: key, Elem: elem}
}

// Delete returns an Op that removes key, rejecting the batch if absent.
func Delete(path []string, key []byte) Op {
	return Op{Kind: OpDelete, Path: path, Key: key}
}

// DeleteIfExists returns an Op that removes key if present.
func DeleteIfExists(path []string, key []byte) Op {
	return Op{Kind: OpDeleteIfExists, Path: path, Key: key}
}

// SumItemDelta returns an Op that adds delta to the SumItem at path/key.
// A negative delta subtracts.
func SumItemDelta(path []string, key []byte, delta int64) Op {
	return Op{Kind: OpSumItemDelta, Path: path, Key: key, Delta: delta}
}
