// Copyright 2025 Certen Protocol

package statetransition

import (
	"encoding/json"

	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/state"
	"github.com/driveplatform/core/pkg/store"
)

// DataContractCreateTransition introduces a new DataContract. The
// document-type set is supplied already compiled (schema.CompileDataContract
// ran during structural validation, off-chain from AS's perspective).
type DataContractCreateTransition struct {
	OwnerID   schema.Identifier
	KeyID     uint32
	Signature []byte
	Contract  *schema.DataContract
}

func (t *DataContractCreateTransition) signingPayload() []byte {
	b, _ := json.Marshal(struct {
		OwnerID    schema.Identifier
		ContractID schema.Identifier
		Version    uint32
	}{t.OwnerID, t.Contract.ID, t.Contract.Version})
	return b
}

// ValidateDataContractCreate runs structural, signature, and state
// validation and returns the lowered ops (spec.md §4.5 steps 1-3, 6).
func ValidateDataContractCreate(tx *store.Transaction, t *DataContractCreateTransition) ([]store.Op, *ConsensusError) {
	if t.Contract == nil {
		return nil, BasicError("contract is nil")
	}
	if t.Contract.ID.IsZero() || t.Contract.OwnerID.IsZero() {
		return nil, BasicError("contract id and owner_id must be non-zero")
	}
	if len(t.Signature) == 0 {
		return nil, BasicError("signature is required")
	}

	key, cerr := resolveSigningKeyChecked(tx, t.OwnerID, t.KeyID, state.PurposeAuthentication, state.LevelCritical)
	if cerr != nil {
		return nil, cerr
	}
	if cerr := verifySignature(key, t.signingPayload(), t.Signature); cerr != nil {
		return nil, cerr
	}
	if t.OwnerID != t.Contract.OwnerID {
		return nil, StateError("signer identity does not own the contract")
	}

	ops, err := state.CreateContractRecordOps(tx, state.ContractRecord{
		ID: t.Contract.ID, OwnerID: t.Contract.OwnerID, Version: t.Contract.Version,
	})
	if err != nil {
		return nil, StateError("%v", err)
	}
	return ops, nil
}

// DataContractUpdateTransition publishes a new version of an existing
// contract (spec.md §3: "version strictly increasing on update").
type DataContractUpdateTransition struct {
	OwnerID   schema.Identifier
	KeyID     uint32
	Signature []byte
	Contract  *schema.DataContract
}

func (t *DataContractUpdateTransition) signingPayload() []byte {
	b, _ := json.Marshal(struct {
		OwnerID    schema.Identifier
		ContractID schema.Identifier
		Version    uint32
	}{t.OwnerID, t.Contract.ID, t.Contract.Version})
	return b
}

func ValidateDataContractUpdate(tx *store.Transaction, t *DataContractUpdateTransition) ([]store.Op, *ConsensusError) {
	if t.Contract == nil {
		return nil, BasicError("contract is nil")
	}
	if len(t.Signature) == 0 {
		return nil, BasicError("signature is required")
	}

	key, cerr := resolveSigningKeyChecked(tx, t.OwnerID, t.KeyID, state.PurposeAuthentication, state.LevelCritical)
	if cerr != nil {
		return nil, cerr
	}
	if cerr := verifySignature(key, t.signingPayload(), t.Signature); cerr != nil {
		return nil, cerr
	}

	existing, exists := state.GetContractRecord(tx, t.Contract.ID)
	if !exists {
		return nil, StateError("contract %s does not exist", t.Contract.ID)
	}
	if existing.OwnerID != t.OwnerID {
		return nil, StateError("signer does not own contract %s", t.Contract.ID.String())
	}

	ops, err := state.UpdateContractRecordOps(tx, state.ContractRecord{
		ID: t.Contract.ID, OwnerID: t.Contract.OwnerID, Version: t.Contract.Version,
	})
	if err != nil {
		return nil, StateError("%v", err)
	}
	return ops, nil
}
