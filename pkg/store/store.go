// Copyright 2025 Certen Protocol
//
// Store is the Authenticated Store (AS) adapter described in spec.md §4.1.
// It is the one consensus-critical primitive every other package in this
// module is built on: a Merkle key-value engine exposing transactions,
// batched apply, point/range query with proof, dry-run cost estimation,
// and snapshot export/import.
//
// Grounded on the teacher's pkg/kvdb (KV adapter shape) and pkg/ledger
// (single-writer transaction discipline, documented here verbatim):
//
// CONCURRENCY: a Transaction assumes single-writer access. Store.Query
// runs under the store's read lock against the last committed state; it
// never observes a transaction's uncommitted writes (spec.md §5).

package store

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
)

// Store is the root of the authenticated subtree hierarchy.
type Store struct {
	mu       sync.RWMutex
	subtrees map[string]*subtree // keyed by "/"-joined path
	rootHash []byte
}

// New returns an empty Store with no subtrees.
func New() *Store {
	s := &Store{subtrees: make(map[string]*subtree)}
	s.recomputeRoot()
	return s
}

func pathKey(path []string) string {
	return joinPath(path)
}

func joinPath(path []string) string {
	out := make([]byte, 0, 16*len(path))
	for _, p := range path {
		out = append(out, []byte(p)...)
		out = append(out, 0)
	}
	return string(out)
}

// RootHash returns the last committed root hash: SHA256 over the sorted
// concatenation of every subtree path and its own Merkle root.
func (s *Store) RootHash() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	root := make([]byte, len(s.rootHash))
	copy(root, s.rootHash)
	return root
}

func (s *Store) recomputeRoot() {
	paths := make([]string, 0, len(s.subtrees))
	for p := range s.subtrees {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, p := range paths {
		st := s.subtrees[p]
		root := st.root(encodeElement)
		h.Write([]byte(p))
		if root != nil {
			h.Write(root)
		}
	}
	s.rootHash = h.Sum(nil)
}

// Transaction is an isolated, single-writer view over a copy-on-write
// overlay of the store's subtrees. Ops applied to it are invisible to
// concurrent Store.Query calls until Commit.
type Transaction struct {
	store   *Store
	overlay map[string]*subtree // cloned lazily, path -> subtree
	ops     []Op
	closed  bool
}

// StartTransaction begins a new write transaction against the store.
func (s *Store) StartTransaction() *Transaction {
	return &Transaction{
		store:   s,
		overlay: make(map[string]*subtree),
	}
}

func (tx *Transaction) subtreeFor(path []string, create, asSumTree bool) (*subtree, bool) {
	key := pathKey(path)
	if st, ok := tx.overlay[key]; ok {
		return st, true
	}

	tx.store.mu.RLock()
	base, ok := tx.store.subtrees[key]
	tx.store.mu.RUnlock()

	if ok {
		cloned := base.clone()
		tx.overlay[key] = cloned
		return cloned, true
	}
	if !create {
		return nil, false
	}
	st := newSubtree(asSumTree)
	tx.overlay[key] = st
	return st, true
}

// Apply executes an ordered batch of ops against tx. The batch is atomic:
// on the first failing op, every op already staged in this call is rolled
// back and ErrBatchRejected is returned wrapping the underlying cause
// (spec.md §4.1: "rejects the whole batch on any op failure").
func (tx *Transaction) Apply(ops []Op) error {
	if tx.closed {
		return ErrTxClosed
	}

	// Snapshot the overlay so a mid-batch failure can be undone without
	// touching ops from a prior, already-committed Apply call.
	snapshot := make(map[string]*subtree, len(tx.overlay))
	for k, v := range tx.overlay {
		snapshot[k] = v.clone()
	}

	if err := tx.applyOrdered(ops); err != nil {
		tx.overlay = snapshot
		return fmt.Errorf("%w: %v", ErrBatchRejected, err)
	}
	tx.ops = append(tx.ops, ops...)
	return nil
}

func (tx *Transaction) applyOrdered(ops []Op) error {
	for _, op := range ops {
		if len(op.Path) == 0 && op.Kind != OpInsertTree && op.Kind != OpInsertEmptySumTree {
			return ErrEmptyPath
		}
		switch op.Kind {
		case OpInsertTree:
			key := pathKey(append(append([]string{}, op.Path...), string(op.Key)))
			if _, exists := tx.overlay[key]; exists {
				return ErrSubtreeExists
			}
			tx.overlay[key] = newSubtree(false)

		case OpInsertEmptySumTree:
			key := pathKey(append(append([]string{}, op.Path...), string(op.Key)))
			if _, exists := tx.overlay[key]; exists {
				return ErrSubtreeExists
			}
			tx.overlay[key] = newSubtree(true)

		case OpInsert:
			st, _ := tx.subtreeFor(op.Path, true, op.Elem.Kind == ElementSumItem)
			if err := tx.checkReference(op.Elem); err != nil {
				return err
			}
			st.set(op.Key, op.Elem)

		case OpInsertIfNotExists:
			st, _ := tx.subtreeFor(op.Path, true, op.Elem.Kind == ElementSumItem)
			if _, exists := st.get(op.Key); exists {
				return ErrKeyExists
			}
			if err := tx.checkReference(op.Elem); err != nil {
				return err
			}
			st.set(op.Key, op.Elem)

		case OpDelete:
			st, ok := tx.subtreeFor(op.Path, false, false)
			if !ok {
				return ErrSubtreeNotFound
			}
			if !st.delete(op.Key) {
				return ErrKeyNotFound
			}

		case OpDeleteIfExists:
			if st, ok := tx.subtreeFor(op.Path, false, false); ok {
				st.delete(op.Key)
			}

		case OpSumItemDelta:
			st, _ := tx.subtreeFor(op.Path, true, true)
			if !st.isSumTree {
				return ErrNotSumTree
			}
			cur, _ := st.get(op.Key)
			cur.Kind = ElementSumItem
			cur.SumValue += op.Delta
			st.set(op.Key, cur)

		default:
			return fmt.Errorf("store: unknown op kind %d", op.Kind)
		}
	}
	return nil
}

// checkReference ensures a Reference element's target exists, either in
// this transaction's overlay or in the last committed store state.
func (tx *Transaction) checkReference(elem Element) error {
	if elem.Kind != ElementReference {
		return nil
	}
	if st, ok := tx.subtreeFor(elem.ReferencePath, false, false); ok {
		if _, exists := st.get(elem.ReferenceKey); exists {
			return nil
		}
	}
	return ErrReferenceDangling
}

// Commit merges the transaction's overlay into the store and returns the
// new root hash. After Commit the transaction is closed.
func (tx *Transaction) Commit() ([]byte, error) {
	if tx.closed {
		return nil, ErrTxClosed
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	for path, st := range tx.overlay {
		tx.store.subtrees[path] = st
	}
	tx.store.recomputeRoot()
	tx.closed = true

	root := make([]byte, len(tx.store.rootHash))
	copy(root, tx.store.rootHash)
	return root, nil
}

// Rollback discards every staged op and closes the transaction.
func (tx *Transaction) Rollback() {
	tx.overlay = nil
	tx.ops = nil
	tx.closed = true
}

// Get performs a point lookup against the transaction's overlay, falling
// back to the last committed store state.
func (tx *Transaction) Get(path []string, key []byte) (Element, bool) {
	if st, ok := tx.subtreeFor(path, false, false); ok {
		return st.get(key)
	}
	return Element{}, false
}

// SumValue returns the current aggregate of a sum subtree.
func (tx *Transaction) SumValue(path []string) (int64, error) {
	st, ok := tx.subtreeFor(path, false, false)
	if !ok {
		return 0, ErrSubtreeNotFound
	}
	if !st.isSumTree {
		return 0, ErrNotSumTree
	}
	return st.sum, nil
}

// QueryResult is one key/value pair returned by Query, in deterministic
// sorted-key order.
type QueryResult struct {
	Key     []byte
	Element Element
}

// Query performs a point or prefix-range read against the last committed
// state. If withProof is true it also returns an InclusionProof for every
// returned leaf (nil when the subtree is empty).
func (s *Store) Query(path []string, startKey, endKey []byte, withProof bool) ([]QueryResult, []*InclusionProof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.subtrees[pathKey(path)]
	if !ok {
		return nil, nil, ErrSubtreeNotFound
	}
	st.rebuild(encodeElement)

	var results []QueryResult
	var proofs []*InclusionProof
	for i, k := range st.keys {
		if startKey != nil && bytes.Compare(k, startKey) < 0 {
			continue
		}
		if endKey != nil && bytes.Compare(k, endKey) >= 0 {
			continue
		}
		elem := st.values[string(k)]
		results = append(results, QueryResult{Key: k, Element: elem})
		if withProof {
			p, err := proofFor(st.levels, i)
			if err != nil {
				return nil, nil, err
			}
			proofs = append(proofs, p)
		}
	}
	return results, proofs, nil
}

// SubtreeRoot returns the Merkle root of a single subtree as committed,
// used by PV to validate partial proofs against an intermediate node.
func (s *Store) SubtreeRoot(path []string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.subtrees[pathKey(path)]
	if !ok {
		return nil, ErrSubtreeNotFound
	}
	return st.root(encodeElement), nil
}
