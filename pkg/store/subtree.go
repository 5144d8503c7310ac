// Copyright 2025 Certen Protocol
//
// Subtree: a single authenticated key-value namespace within the store,
// either a regular tree or a sum tree (spec.md §3: "every subtree is
// either a regular tree or a sum tree whose node value is the 64-bit sum
// of contained items").

package store

import (
	"bytes"
	"sort"
)

// subtree holds one level of the path hierarchy: its own key/value map
// plus, lazily, the Merkle levels built over its sorted keys.
type subtree struct {
	isSumTree bool
	values    map[string]Element // keyed by string(key)
	sum       int64              // valid only when isSumTree

	dirty  bool
	keys   [][]byte // sorted ascending, rebuilt on dirty
	levels [][][]byte
}

func newSubtree(isSumTree bool) *subtree {
	return &subtree{
		isSumTree: isSumTree,
		values:    make(map[string]Element),
		dirty:     true,
	}
}

// clone deep-copies a subtree for transaction isolation.
func (s *subtree) clone() *subtree {
	c := &subtree{
		isSumTree: s.isSumTree,
		sum:       s.sum,
		values:    make(map[string]Element, len(s.values)),
		dirty:     true,
	}
	for k, v := range s.values {
		c.values[k] = v
	}
	return c
}

func (s *subtree) set(key []byte, elem Element) {
	old, existed := s.values[string(key)]
	if s.isSumTree {
		if existed {
			s.sum -= old.SumValue
		}
		s.sum += elem.SumValue
	}
	s.values[string(key)] = elem
	s.dirty = true
}

func (s *subtree) delete(key []byte) bool {
	old, ok := s.values[string(key)]
	if !ok {
		return false
	}
	if s.isSumTree {
		s.sum -= old.SumValue
	}
	delete(s.values, string(key))
	s.dirty = true
	return true
}

func (s *subtree) get(key []byte) (Element, bool) {
	e, ok := s.values[string(key)]
	return e, ok
}

// rebuild recomputes the sorted key order and Merkle levels. Deterministic
// key ordering satisfies the AS invariant "deterministic iteration order
// on keys" (spec.md §4.1).
func (s *subtree) rebuild(encode func(key []byte, elem Element) []byte) {
	if !s.dirty {
		return
	}
	keys := make([][]byte, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, []byte(k))
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })

	leaves := make([][]byte, len(keys))
	for i, k := range keys {
		elem := s.values[string(k)]
		leaves[i] = leafHash(k, encode(k, elem))
	}

	s.keys = keys
	s.levels = buildLevels(leaves)
	s.dirty = false
}

func (s *subtree) root(encode func(key []byte, elem Element) []byte) []byte {
	s.rebuild(encode)
	return rootOf(s.levels)
}

func (s *subtree) indexOf(key []byte) int {
	for i, k := range s.keys {
		if bytes.Equal(k, key) {
			return i
		}
	}
	return -1
}

// encodeElement produces the bytes hashed into a leaf. It must be a pure
// function of the element's logical content so two stores holding the same
// data always converge on the same root (spec.md §8 determinism).
func encodeElement(_ []byte, elem Element) []byte {
	switch elem.Kind {
	case ElementItem:
		return append([]byte{byte(ElementItem)}, elem.Item...)
	case ElementReference:
		buf := []byte{byte(ElementReference)}
		for _, seg := range elem.ReferencePath {
			buf = append(buf, []byte(seg)...)
			buf = append(buf, 0)
		}
		buf = append(buf, elem.ReferenceKey...)
		return buf
	case ElementSumItem:
		buf := make([]byte, 9)
		buf[0] = byte(ElementSumItem)
		putInt64(buf[1:], elem.SumValue)
		return buf
	default:
		return nil
	}
}

func putInt64(buf []byte, v int64) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		buf[i] = byte(u >> (8 * (7 - i)))
	}
}
