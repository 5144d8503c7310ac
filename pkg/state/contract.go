// Copyright 2025 Certen Protocol
//
// ContractRecord persists the existence/version of a compiled
// DataContract (spec.md §3: "id immutable; version strictly increasing
// on update"). The compiled schema.DataContract itself — its document
// types, indexes, and properties — is held in the caller's in-memory
// contract cache (populated from the same create/update transition);
// AS here only needs enough to enforce the version invariant and answer
// existence queries, not to re-derive the full schema from stored bytes.

package state

import (
	"encoding/json"

	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/store"
)

const contractRecordLeaf = "record"

// ContractRecord is the on-chain existence/version marker for one
// DataContract.
type ContractRecord struct {
	ID      schema.Identifier
	OwnerID schema.Identifier
	Version uint32
}

// CreateContractRecordOps persists a brand-new contract record,
// rejecting one that already exists at this ID.
func CreateContractRecordOps(tx *store.Transaction, record ContractRecord) ([]store.Op, error) {
	if _, exists := GetContractRecord(tx, record.ID); exists {
		return nil, ErrContractExists
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	return []store.Op{store.Insert(ContractPath(record.ID), []byte(contractRecordLeaf), store.NewItem(encoded))}, nil
}

// UpdateContractRecordOps persists a new version of an existing
// contract record, requiring the version to strictly increase.
func UpdateContractRecordOps(tx *store.Transaction, record ContractRecord) ([]store.Op, error) {
	existing, exists := GetContractRecord(tx, record.ID)
	if !exists {
		return nil, ErrContractNotFound
	}
	if record.Version <= existing.Version {
		return nil, ErrContractVersionNotIncreasing
	}
	if record.OwnerID != existing.OwnerID {
		return nil, ErrContractOwnerImmutable
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	return []store.Op{store.Insert(ContractPath(record.ID), []byte(contractRecordLeaf), store.NewItem(encoded))}, nil
}

// GetContractRecord reads id's current record, if one exists.
func GetContractRecord(tx *store.Transaction, id schema.Identifier) (ContractRecord, bool) {
	elem, exists := tx.Get(ContractPath(id), []byte(contractRecordLeaf))
	if !exists {
		return ContractRecord{}, false
	}
	var record ContractRecord
	if err := json.Unmarshal(elem.Item, &record); err != nil {
		return ContractRecord{}, false
	}
	return record, true
}
