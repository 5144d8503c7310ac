// Copyright 2025 Certen Protocol

package statetransition

import (
	"crypto/ed25519"
	"testing"

	"github.com/driveplatform/core/pkg/costs"
	"github.com/driveplatform/core/pkg/datatrigger"
	"github.com/driveplatform/core/pkg/pvr"
	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/state"
	"github.com/driveplatform/core/pkg/store"
	"github.com/rs/zerolog"
)

func newTestEngine() *Engine {
	registry := pvr.New(pvr.Default())
	accountant := costs.New(nil, zerolog.Nop())
	triggers := datatrigger.NewEngine(nil)
	return NewEngine(registry, accountant, triggers)
}

func TestEngineDispatchAppliesDataContractCreate(t *testing.T) {
	s := store.New()
	ownerID := schema.Identifier{60}
	contractID := schema.Identifier{61}
	tx, priv := newSignedIdentity(t, s, ownerID, 0, state.PurposeAuthentication, state.LevelCritical)
	engine := newTestEngine()

	contract := simpleContract(t, contractID, ownerID, 1)
	transition := &DataContractCreateTransition{OwnerID: ownerID, KeyID: 0, Contract: contract}
	transition.Signature = ed25519.Sign(priv, transition.signingPayload())

	ctx := DispatchContext{ProtocolVersion: 1, CurrentEpoch: 0, PayerID: ownerID}
	result, cerr, err := engine.Dispatch(tx, ctx, transition)
	if cerr != nil {
		t.Fatalf("unexpected consensus error: %v", cerr)
	}
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if result.Total() == 0 {
		t.Fatal("expected a non-zero fee for creating a contract")
	}

	if _, ok := state.GetContractRecord(tx, contractID); !ok {
		t.Fatal("expected contract record to be applied")
	}
}

func TestEngineDispatchRejectsUnknownProtocolVersion(t *testing.T) {
	s := store.New()
	tx := s.StartTransaction()
	engine := newTestEngine()

	ctx := DispatchContext{ProtocolVersion: 999}
	_, cerr, err := engine.Dispatch(tx, ctx, &IdentityTopUpTransition{})
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if cerr == nil || cerr.Stage != StageStructural {
		t.Fatalf("expected a BasicError for an unknown protocol version, got %v", cerr)
	}
}

func TestEngineDispatchReturnsConsensusErrorWithoutApplying(t *testing.T) {
	s := store.New()
	ownerID := schema.Identifier{62}
	contractID := schema.Identifier{63}
	tx, _ := newSignedIdentity(t, s, ownerID, 0, state.PurposeAuthentication, state.LevelCritical)
	engine := newTestEngine()

	contract := simpleContract(t, contractID, ownerID, 1)
	transition := &DataContractCreateTransition{OwnerID: ownerID, KeyID: 0, Contract: contract, Signature: make([]byte, ed25519.SignatureSize)}

	ctx := DispatchContext{ProtocolVersion: 1, CurrentEpoch: 0, PayerID: ownerID}
	_, cerr, err := engine.Dispatch(tx, ctx, transition)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if cerr == nil || cerr.Stage != StageSignature {
		t.Fatalf("expected a SignatureError, got %v", cerr)
	}
	if _, ok := state.GetContractRecord(tx, contractID); ok {
		t.Fatal("contract record should not have been applied after a rejected transition")
	}
}
