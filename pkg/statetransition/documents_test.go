// Copyright 2025 Certen Protocol

package statetransition

import (
	"crypto/ed25519"
	"testing"

	"github.com/driveplatform/core/pkg/datatrigger"
	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/state"
	"github.com/driveplatform/core/pkg/store"
)

func TestValidateDocumentsBatchCreatesDocument(t *testing.T) {
	s := store.New()
	ownerID := schema.Identifier{20}
	contractID := schema.Identifier{21}
	tx, priv := newSignedIdentity(t, s, ownerID, 0, state.PurposeAuthentication, state.LevelHigh)
	contract := simpleContract(t, contractID, ownerID, 1)
	triggers := datatrigger.NewEngine(nil)

	doc := &schema.Document{ID: schema.Identifier{22}, OwnerID: ownerID, DocumentType: "note", Values: map[string]interface{}{"title": "hello"}}
	transition := &DocumentsBatchTransition{
		OwnerID:       ownerID,
		KeyID:         0,
		Contract:      contract,
		Entries:       []DocumentTransitionEntry{{Kind: datatrigger.ActionCreate, DocType: "note", Document: doc}},
		ContractNonce: 1,
	}
	transition.Signature = ed25519.Sign(priv, transition.signingPayload())

	ops, cerr := ValidateDocumentsBatch(tx, triggers, transition)
	if cerr != nil {
		t.Fatalf("unexpected error: %v", cerr)
	}
	if err := tx.Apply(ops); err != nil {
		t.Fatalf("apply: %v", err)
	}
}

func TestValidateDocumentsBatchRejectsTriggerRefusal(t *testing.T) {
	s := store.New()
	ownerID := schema.Identifier{23}
	contractID := schema.Identifier{24}
	tx, priv := newSignedIdentity(t, s, ownerID, 0, state.PurposeAuthentication, state.LevelHigh)
	contract := simpleContract(t, contractID, ownerID, 1)
	triggers := datatrigger.NewEngine([]datatrigger.Binding{datatrigger.Reject(contractID, "note", datatrigger.ActionCreate)})

	doc := &schema.Document{ID: schema.Identifier{25}, OwnerID: ownerID, DocumentType: "note", Values: map[string]interface{}{"title": "hello"}}
	transition := &DocumentsBatchTransition{
		OwnerID:       ownerID,
		KeyID:         0,
		Contract:      contract,
		Entries:       []DocumentTransitionEntry{{Kind: datatrigger.ActionCreate, DocType: "note", Document: doc}},
		ContractNonce: 1,
	}
	transition.Signature = ed25519.Sign(priv, transition.signingPayload())

	_, cerr := ValidateDocumentsBatch(tx, triggers, transition)
	if cerr == nil || cerr.Stage != StageState {
		t.Fatalf("expected a StateError from the rejecting trigger, got %v", cerr)
	}
}

func TestValidateDocumentsBatchRejectsReplaceWithoutOldDocument(t *testing.T) {
	s := store.New()
	ownerID := schema.Identifier{26}
	contractID := schema.Identifier{27}
	tx, priv := newSignedIdentity(t, s, ownerID, 0, state.PurposeAuthentication, state.LevelHigh)
	contract := simpleContract(t, contractID, ownerID, 1)
	triggers := datatrigger.NewEngine(nil)

	doc := &schema.Document{ID: schema.Identifier{28}, OwnerID: ownerID, DocumentType: "note", Values: map[string]interface{}{"title": "v2"}}
	transition := &DocumentsBatchTransition{
		OwnerID:       ownerID,
		KeyID:         0,
		Contract:      contract,
		Entries:       []DocumentTransitionEntry{{Kind: datatrigger.ActionReplace, DocType: "note", Document: doc}},
		ContractNonce: 1,
	}
	transition.Signature = ed25519.Sign(priv, transition.signingPayload())

	_, cerr := ValidateDocumentsBatch(tx, triggers, transition)
	if cerr == nil || cerr.Stage != StageStructural {
		t.Fatalf("expected a BasicError for missing old document, got %v", cerr)
	}
}

func TestValidateDocumentsBatchRejectsStaleNonce(t *testing.T) {
	s := store.New()
	ownerID := schema.Identifier{29}
	contractID := schema.Identifier{30}
	tx, priv := newSignedIdentity(t, s, ownerID, 0, state.PurposeAuthentication, state.LevelHigh)
	contract := simpleContract(t, contractID, ownerID, 1)
	triggers := datatrigger.NewEngine(nil)

	firstDoc := &schema.Document{ID: schema.Identifier{31}, OwnerID: ownerID, DocumentType: "note", Values: map[string]interface{}{"title": "first"}}
	first := &DocumentsBatchTransition{
		OwnerID: ownerID, KeyID: 0, Contract: contract,
		Entries:       []DocumentTransitionEntry{{Kind: datatrigger.ActionCreate, DocType: "note", Document: firstDoc}},
		ContractNonce: 5,
	}
	first.Signature = ed25519.Sign(priv, first.signingPayload())
	ops, cerr := ValidateDocumentsBatch(tx, triggers, first)
	if cerr != nil {
		t.Fatalf("first batch: %v", cerr)
	}
	if err := tx.Apply(ops); err != nil {
		t.Fatalf("apply: %v", err)
	}

	secondDoc := &schema.Document{ID: schema.Identifier{32}, OwnerID: ownerID, DocumentType: "note", Values: map[string]interface{}{"title": "second"}}
	second := &DocumentsBatchTransition{
		OwnerID: ownerID, KeyID: 0, Contract: contract,
		Entries:       []DocumentTransitionEntry{{Kind: datatrigger.ActionCreate, DocType: "note", Document: secondDoc}},
		ContractNonce: 4,
	}
	second.Signature = ed25519.Sign(priv, second.signingPayload())
	_, cerr = ValidateDocumentsBatch(tx, triggers, second)
	if cerr == nil || cerr.Stage != StageState {
		t.Fatalf("expected a StateError for a stale nonce, got %v", cerr)
	}
}
