// Copyright 2025 Certen Protocol
//
// Snapshot export/import, used by blockdriver's state-sync path
// (spec.md §4.8 OfferSnapshot/ApplySnapshotChunk). Grounded on the
// teacher's ledger meta persistence (JSON-marshaled metadata written
// under stable keys): a snapshot is the JSON encoding of every subtree's
// sorted key/value set, chunked by path.

package store

import (
	"encoding/json"
	"sort"
)

// SnapshotChunk is one subtree's full contents, suitable for streaming
// over ApplySnapshotChunk.
type SnapshotChunk struct {
	Path      []string        `json:"path"`
	IsSumTree bool            `json:"isSumTree"`
	Entries   []SnapshotEntry `json:"entries"`
}

// SnapshotEntry is a single key/element pair within a SnapshotChunk.
type SnapshotEntry struct {
	Key  []byte  `json:"key"`
	Elem Element `json:"elem"`
}

// Export serializes every subtree into an ordered list of chunks. Path
// order is deterministic (lexicographic on the joined path key) so two
// nodes exporting the same committed state produce byte-identical output.
func (s *Store) Export() ([]SnapshotChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.subtrees))
	for p := range s.subtrees {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	chunks := make([]SnapshotChunk, 0, len(paths))
	for _, p := range paths {
		st := s.subtrees[p]
		st.rebuild(encodeElement)
		chunk := SnapshotChunk{Path: splitPath(p), IsSumTree: st.isSumTree}
		for _, k := range st.keys {
			chunk.Entries = append(chunk.Entries, SnapshotEntry{Key: k, Elem: st.values[string(k)]})
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// Import builds a new Store from the given chunks and returns it; its
// RootHash is the resulting root hash. Import does not compare that root
// against any expected app hash.
func Import(chunks []SnapshotChunk) (*Store, error) {
	s := New()
	for _, c := range chunks {
		st := newSubtree(c.IsSumTree)
		for _, e := range c.Entries {
			st.set(e.Key, e.Elem)
		}
		s.subtrees[pathKey(c.Path)] = st
	}
	s.recomputeRoot()
	return s, nil
}

// MarshalSnapshot and UnmarshalSnapshot provide a single-blob convenience
// wrapper around Export/Import for transports that want one byte slice
// rather than a chunk stream.
func MarshalSnapshot(chunks []SnapshotChunk) ([]byte, error) {
	return json.Marshal(chunks)
}

func UnmarshalSnapshot(data []byte) ([]SnapshotChunk, error) {
	var chunks []SnapshotChunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

func splitPath(joined string) []string {
	var parts []string
	var cur []byte
	for i := 0; i < len(joined); i++ {
		if joined[i] == 0 {
			parts = append(parts, string(cur))
			cur = nil
			continue
		}
		cur = append(cur, joined[i])
	}
	return parts
}
