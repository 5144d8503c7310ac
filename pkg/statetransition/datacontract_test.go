// Copyright 2025 Certen Protocol

package statetransition

import (
	"crypto/ed25519"
	"testing"

	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/state"
	"github.com/driveplatform/core/pkg/store"
)

func newSignedIdentity(t *testing.T, s *store.Store, id schema.Identifier, keyID uint32, purpose state.KeyPurpose, level state.SecurityLevel) (*store.Transaction, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tx := s.StartTransaction()
	ops, err := state.CreateIdentityOps(id, []state.IdentityKey{
		{KeyID: keyID, Purpose: purpose, SecurityLevel: level, Type: state.KeyTypeED25519, Data: pub},
		{KeyID: keyID + 1, Purpose: state.PurposeAuthentication, SecurityLevel: state.LevelMaster, Type: state.KeyTypeED25519, Data: pub},
	}, 100000)
	if err != nil {
		t.Fatalf("create identity ops: %v", err)
	}
	if err := tx.Apply(ops); err != nil {
		t.Fatalf("apply: %v", err)
	}
	return tx, priv
}

func simpleContract(t *testing.T, contractID, ownerID schema.Identifier, version uint32) *schema.DataContract {
	t.Helper()
	dt, err := schema.CompileDocumentType(contractID, "note", map[string]*schema.Property{
		"title": {Name: "title", Type: schema.FieldTypeString, Required: true},
	}, []string{"title"}, nil, true, false)
	if err != nil {
		t.Fatalf("compile document type: %v", err)
	}
	dc, err := schema.CompileDataContract(contractID, ownerID, version, []*schema.DocumentType{dt})
	if err != nil {
		t.Fatalf("compile data contract: %v", err)
	}
	return dc
}

func TestValidateDataContractCreateAcceptsOwnerSignedContract(t *testing.T) {
	s := store.New()
	ownerID := schema.Identifier{1}
	contractID := schema.Identifier{2}
	tx, priv := newSignedIdentity(t, s, ownerID, 0, state.PurposeAuthentication, state.LevelCritical)

	contract := simpleContract(t, contractID, ownerID, 1)
	transition := &DataContractCreateTransition{OwnerID: ownerID, KeyID: 0, Contract: contract}
	transition.Signature = ed25519.Sign(priv, transition.signingPayload())

	ops, cerr := ValidateDataContractCreate(tx, transition)
	if cerr != nil {
		t.Fatalf("unexpected error: %v", cerr)
	}
	if err := tx.Apply(ops); err != nil {
		t.Fatalf("apply: %v", err)
	}

	record, ok := state.GetContractRecord(tx, contractID)
	if !ok || record.Version != 1 {
		t.Fatalf("expected contract record at version 1, got %+v ok=%v", record, ok)
	}
}

func TestValidateDataContractCreateRejectsBadSignature(t *testing.T) {
	s := store.New()
	ownerID := schema.Identifier{1}
	contractID := schema.Identifier{2}
	tx, _ := newSignedIdentity(t, s, ownerID, 0, state.PurposeAuthentication, state.LevelCritical)

	contract := simpleContract(t, contractID, ownerID, 1)
	transition := &DataContractCreateTransition{OwnerID: ownerID, KeyID: 0, Contract: contract, Signature: make([]byte, ed25519.SignatureSize)}

	_, cerr := ValidateDataContractCreate(tx, transition)
	if cerr == nil || cerr.Stage != StageSignature {
		t.Fatalf("expected a SignatureError, got %v", cerr)
	}
}

func TestValidateDataContractCreateRejectsOwnerMismatch(t *testing.T) {
	s := store.New()
	ownerID := schema.Identifier{1}
	otherOwner := schema.Identifier{9}
	contractID := schema.Identifier{2}
	tx, priv := newSignedIdentity(t, s, ownerID, 0, state.PurposeAuthentication, state.LevelCritical)

	contract := simpleContract(t, contractID, otherOwner, 1)
	transition := &DataContractCreateTransition{OwnerID: ownerID, KeyID: 0, Contract: contract}
	transition.Signature = ed25519.Sign(priv, transition.signingPayload())

	_, cerr := ValidateDataContractCreate(tx, transition)
	if cerr == nil || cerr.Stage != StageState {
		t.Fatalf("expected a StateError for owner mismatch, got %v", cerr)
	}
}

func TestValidateDataContractUpdateRequiresIncreasingVersion(t *testing.T) {
	s := store.New()
	ownerID := schema.Identifier{1}
	contractID := schema.Identifier{2}
	tx, priv := newSignedIdentity(t, s, ownerID, 0, state.PurposeAuthentication, state.LevelCritical)

	created := simpleContract(t, contractID, ownerID, 1)
	createTransition := &DataContractCreateTransition{OwnerID: ownerID, KeyID: 0, Contract: created}
	createTransition.Signature = ed25519.Sign(priv, createTransition.signingPayload())
	ops, cerr := ValidateDataContractCreate(tx, createTransition)
	if cerr != nil {
		t.Fatalf("create: %v", cerr)
	}
	if err := tx.Apply(ops); err != nil {
		t.Fatalf("apply: %v", err)
	}

	sameVersion := simpleContract(t, contractID, ownerID, 1)
	updateTransition := &DataContractUpdateTransition{OwnerID: ownerID, KeyID: 0, Contract: sameVersion}
	updateTransition.Signature = ed25519.Sign(priv, updateTransition.signingPayload())

	_, cerr = ValidateDataContractUpdate(tx, updateTransition)
	if cerr == nil || cerr.Stage != StageState {
		t.Fatalf("expected a StateError for non-increasing version, got %v", cerr)
	}
}
