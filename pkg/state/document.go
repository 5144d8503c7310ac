// Copyright 2025 Certen Protocol

package state

import (
	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/store"
)

// StorageFlags carries caller-supplied hints for how a document write
// should treat history (spec.md §4.4: "storage_flags").
type StorageFlags struct {
	Override bool
}

// AddDocumentForContract lowers a document insert into primary-storage
// and per-index ops (spec.md §4.4). Contested indexes are never handled
// here — callers must route a contested insert through the voting
// package's OpenOrJoinVotePoll instead of calling this directly.
func AddDocumentForContract(tx *store.Transaction, contract *schema.DataContract, dt *schema.DocumentType, doc *schema.Document, flags StorageFlags) ([]store.Op, error) {
	docPath := DocumentPath(contract.ID, doc.DocumentType)
	if _, exists := tx.Get(docPath, doc.ID[:]); exists && !flags.Override {
		return nil, ErrDocumentExists
	}

	serialized, err := dt.Serialize(doc)
	if err != nil {
		return nil, err
	}

	ops := []store.Op{
		store.Insert(docPath, doc.ID[:], store.NewItem(serialized)),
	}

	for _, idx := range dt.Indexes() {
		if idx.Contested {
			continue
		}
		key, err := dt.EncodeIndexKey(doc, idx)
		if err != nil {
			return nil, err
		}
		indexOps, err := indexWriteOps(dt, contract.ID, idx, key, doc.ID)
		if err != nil {
			return nil, err
		}
		ops = append(ops, indexOps...)
	}
	return ops, nil
}

// UpdateDocument requires an existing primary entry, a strictly
// increasing revision, and a mutable document type (spec.md §4.4).
func UpdateDocument(tx *store.Transaction, contract *schema.DataContract, dt *schema.DocumentType, oldDoc, newDoc *schema.Document) ([]store.Op, error) {
	if !dt.Mutable() {
		return nil, ErrImmutableDocumentType
	}
	docPath := DocumentPath(contract.ID, newDoc.DocumentType)
	if _, exists := tx.Get(docPath, newDoc.ID[:]); !exists {
		return nil, ErrDocumentNotFound
	}
	if newDoc.Revision <= oldDoc.Revision {
		return nil, ErrRevisionNotIncreasing
	}

	serialized, err := dt.Serialize(newDoc)
	if err != nil {
		return nil, err
	}
	ops := []store.Op{store.Insert(docPath, newDoc.ID[:], store.NewItem(serialized))}

	for _, idx := range dt.Indexes() {
		if idx.Contested {
			continue
		}
		oldKey, err := dt.EncodeIndexKey(oldDoc, idx)
		if err != nil {
			return nil, err
		}
		newKey, err := dt.EncodeIndexKey(newDoc, idx)
		if err != nil {
			return nil, err
		}
		if string(oldKey) == string(newKey) {
			continue
		}
		ops = append(ops, indexDeleteOps(dt, contract.ID, idx, oldKey, oldDoc.ID, dt.KeepHistory())...)
		writeOps, err := indexWriteOps(dt, contract.ID, idx, newKey, newDoc.ID)
		if err != nil {
			return nil, err
		}
		ops = append(ops, writeOps...)
	}
	return ops, nil
}

// DeleteDocument removes primary storage and every index entry for doc,
// appending a tombstone instead of a physical delete when the document
// type keeps history (spec.md §4.4).
func DeleteDocument(tx *store.Transaction, contract *schema.DataContract, dt *schema.DocumentType, doc *schema.Document) ([]store.Op, error) {
	docPath := DocumentPath(contract.ID, doc.DocumentType)
	if _, exists := tx.Get(docPath, doc.ID[:]); !exists {
		return nil, ErrDocumentNotFound
	}

	var ops []store.Op
	if dt.KeepHistory() {
		ops = append(ops, store.Insert(docPath, tombstoneKey(doc.ID), store.NewItem(nil)))
	} else {
		ops = append(ops, store.Delete(docPath, doc.ID[:]))
	}

	for _, idx := range dt.Indexes() {
		if idx.Contested {
			continue
		}
		key, err := dt.EncodeIndexKey(doc, idx)
		if err != nil {
			return nil, err
		}
		ops = append(ops, indexDeleteOps(dt, contract.ID, idx, key, doc.ID, dt.KeepHistory())...)
	}
	return ops, nil
}

func tombstoneKey(id schema.Identifier) []byte {
	return append(append([]byte{}, id[:]...), '~')
}

// indexWriteOps writes doc.ID under key in idx's subtree. Unique indexes
// store the key directly; non-unique/compound indexes nest the document
// ID under the key so multiple documents can share it.
func indexWriteOps(dt *schema.DocumentType, contractID schema.Identifier, idx schema.Index, key []byte, docID schema.Identifier) ([]store.Op, error) {
	path := IndexPath(contractID, dt.Name, idx.Name)
	if idx.Unique {
		return []store.Op{store.InsertIfNotExists(path, key, store.NewReference(DocumentPath(contractID, dt.Name), docID[:]))}, nil
	}
	return []store.Op{store.Insert(append(append([]string{}, path...), string(key)), docID[:], store.NewReference(DocumentPath(contractID, dt.Name), docID[:]))}, nil
}

func indexDeleteOps(dt *schema.DocumentType, contractID schema.Identifier, idx schema.Index, key []byte, docID schema.Identifier, keepHistory bool) []store.Op {
	path := IndexPath(contractID, dt.Name, idx.Name)
	if keepHistory {
		return nil
	}
	if idx.Unique {
		return []store.Op{store.DeleteIfExists(path, key)}
	}
	return []store.Op{store.DeleteIfExists(append(append([]string{}, path...), string(key)), docID[:])}
}
