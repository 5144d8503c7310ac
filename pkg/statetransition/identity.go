// Copyright 2025 Certen Protocol

package statetransition

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/state"
	"github.com/driveplatform/core/pkg/store"
)

// IdentityCreateTransition opens a new identity funded by a consumed
// asset-lock outpoint (spec.md §3: "Created by identity-create with
// asset-lock proof"). Signature proves possession of the first declared
// key rather than resolving against an existing identity, since none
// exists yet.
type IdentityCreateTransition struct {
	IdentityID     schema.Identifier
	Outpoint       [36]byte
	Keys           []state.IdentityKey
	InitialBalance uint64
	Signature      []byte
}

func (t *IdentityCreateTransition) signingPayload() []byte {
	b, _ := json.Marshal(struct {
		IdentityID schema.Identifier
		Outpoint   [36]byte
		Balance    uint64
	}{t.IdentityID, t.Outpoint, t.InitialBalance})
	return b
}

func ValidateIdentityCreate(tx *store.Transaction, t *IdentityCreateTransition) ([]store.Op, *ConsensusError) {
	if len(t.Keys) == 0 {
		return nil, BasicError("identity-create requires at least one key")
	}
	if len(t.Signature) == 0 {
		return nil, BasicError("signature is required")
	}
	if state.OutpointConsumed(tx, t.Outpoint) {
		return nil, StateError("asset-lock outpoint already consumed")
	}

	if cerr := verifySignature(t.Keys[0], t.signingPayload(), t.Signature); cerr != nil {
		return nil, cerr
	}

	outpointOps, err := state.ConsumeAssetLockOutpointOps(tx, t.Outpoint)
	if err != nil {
		return nil, StateError("%v", err)
	}
	identityOps, err := state.CreateIdentityOps(t.IdentityID, t.Keys, t.InitialBalance)
	if err != nil {
		return nil, StateError("%v", err)
	}
	return append(outpointOps, identityOps...), nil
}

// IdentityTopUpTransition credits an existing identity's balance from a
// freshly consumed asset-lock outpoint. Anyone holding the outpoint may
// top up any identity, so there is no signature to resolve against the
// recipient's own keys (spec.md §3 lifecycle: "mutated by ... top-ups").
type IdentityTopUpTransition struct {
	IdentityID schema.Identifier
	Outpoint   [36]byte
	Amount     uint64
}

func ValidateIdentityTopUp(tx *store.Transaction, t *IdentityTopUpTransition) ([]store.Op, *ConsensusError) {
	if t.Amount == 0 {
		return nil, BasicError("top-up amount must be non-zero")
	}
	if _, exists := state.IdentityRevision(tx, t.IdentityID); !exists {
		return nil, StateError("identity %s does not exist", t.IdentityID.String())
	}
	outpointOps, err := state.ConsumeAssetLockOutpointOps(tx, t.Outpoint)
	if err != nil {
		return nil, StateError("%v", err)
	}
	return append(outpointOps, state.AddToIdentityBalance(t.IdentityID, t.Amount)...), nil
}

// IdentityUpdateTransition adds and/or disables keys and bumps the
// identity's revision counter. Adding or disabling keys is a MASTER-level
// operation (spec.md §4.5: "identity-update add-keys requires MASTER").
type IdentityUpdateTransition struct {
	IdentityID    schema.Identifier
	KeyID         uint32
	Signature     []byte
	AddKeys       []state.IdentityKey
	DisableKeyIDs []uint32
	NewRevision   uint64
	BlockHeight   uint64
}

func (t *IdentityUpdateTransition) signingPayload() []byte {
	b, _ := json.Marshal(struct {
		IdentityID  schema.Identifier
		AddKeys     []state.IdentityKey
		DisableKeys []uint32
		Revision    uint64
	}{t.IdentityID, t.AddKeys, t.DisableKeyIDs, t.NewRevision})
	return b
}

func ValidateIdentityUpdate(tx *store.Transaction, t *IdentityUpdateTransition) ([]store.Op, *ConsensusError) {
	if len(t.Signature) == 0 {
		return nil, BasicError("signature is required")
	}

	key, cerr := resolveSigningKeyChecked(tx, t.IdentityID, t.KeyID, state.PurposeAuthentication, state.LevelMaster)
	if cerr != nil {
		return nil, cerr
	}
	if cerr := verifySignature(key, t.signingPayload(), t.Signature); cerr != nil {
		return nil, cerr
	}

	var ops []store.Op
	for _, newKey := range t.AddKeys {
		keyOps, err := state.AddIdentityKeyOps(tx, t.IdentityID, newKey)
		if err != nil {
			return nil, StateError("%v", err)
		}
		ops = append(ops, keyOps...)
	}
	for _, keyID := range t.DisableKeyIDs {
		keyOps, err := state.DisableIdentityKeyOps(tx, t.IdentityID, keyID, t.BlockHeight)
		if err != nil {
			return nil, StateError("%v", err)
		}
		ops = append(ops, keyOps...)
	}
	revisionOps, err := state.UpdateIdentityRevisionOps(tx, t.IdentityID, t.NewRevision)
	if err != nil {
		return nil, StateError("%v", err)
	}
	return append(ops, revisionOps...), nil
}

// IdentityCreditWithdrawalTransition moves credits off-chain to
// OutputScript, requiring a CRITICAL-level TRANSFER key (spec.md §4.5:
// "credit-withdrawal requires CRITICAL").
type IdentityCreditWithdrawalTransition struct {
	IdentityID   schema.Identifier
	KeyID        uint32
	Signature    []byte
	Amount       uint64
	OutputScript []byte
}

func (t *IdentityCreditWithdrawalTransition) signingPayload() []byte {
	b, _ := json.Marshal(struct {
		IdentityID   schema.Identifier
		Amount       uint64
		OutputScript []byte
	}{t.IdentityID, t.Amount, t.OutputScript})
	return b
}

func ValidateIdentityCreditWithdrawal(tx *store.Transaction, t *IdentityCreditWithdrawalTransition) ([]store.Op, *ConsensusError) {
	if t.Amount == 0 || len(t.OutputScript) == 0 {
		return nil, BasicError("withdrawal requires a non-zero amount and output script")
	}
	if len(t.Signature) == 0 {
		return nil, BasicError("signature is required")
	}

	key, cerr := resolveSigningKeyChecked(tx, t.IdentityID, t.KeyID, state.PurposeTransfer, state.LevelCritical)
	if cerr != nil {
		return nil, cerr
	}
	if cerr := verifySignature(key, t.signingPayload(), t.Signature); cerr != nil {
		return nil, cerr
	}

	// Unlike RemoveFromIdentityBalance's general floor-at-zero/
	// negative-balance split (used as-is for fee debits), a withdrawal
	// transition must reject outright on insufficient funds rather than
	// ever push the identity into negative balance (spec.md withdrawal
	// scenario: "rejected with FeeError::BalanceIsNotEnough; balance
	// unchanged; nonce unchanged").
	if t.Amount > state.IdentityBalance(tx, t.IdentityID) {
		return nil, FeeError("identity %s balance is not enough for withdrawal of %d", t.IdentityID.String(), t.Amount)
	}

	balanceOps, err := state.RemoveFromIdentityBalance(tx, t.IdentityID, t.Amount)
	if err != nil {
		return nil, StateError("%v", err)
	}
	record, _ := json.Marshal(struct {
		IdentityID   schema.Identifier
		Amount       uint64
		OutputScript []byte
	}{t.IdentityID, t.Amount, t.OutputScript})
	withdrawalOps := []store.Op{store.Insert([]string{state.RootWithdrawals, t.IdentityID.String()}, withdrawalKey(t.Amount, t.OutputScript), store.NewItem(record))}
	return append(balanceOps, withdrawalOps...), nil
}

func withdrawalKey(amount uint64, outputScript []byte) []byte {
	record, _ := json.Marshal(struct {
		Amount uint64
		Script []byte
	}{amount, outputScript})
	h := sha256.Sum256(record)
	return h[:]
}

// IdentityCreditTransferTransition moves credits between two
// identities atomically, requiring a CRITICAL-level TRANSFER key.
type IdentityCreditTransferTransition struct {
	SenderID    schema.Identifier
	RecipientID schema.Identifier
	KeyID       uint32
	Signature   []byte
	Amount      uint64
}

func (t *IdentityCreditTransferTransition) signingPayload() []byte {
	b, _ := json.Marshal(struct {
		SenderID    schema.Identifier
		RecipientID schema.Identifier
		Amount      uint64
	}{t.SenderID, t.RecipientID, t.Amount})
	return b
}

func ValidateIdentityCreditTransfer(tx *store.Transaction, t *IdentityCreditTransferTransition) ([]store.Op, *ConsensusError) {
	if t.Amount == 0 {
		return nil, BasicError("transfer amount must be non-zero")
	}
	if t.SenderID == t.RecipientID {
		return nil, BasicError("sender and recipient must differ")
	}
	if len(t.Signature) == 0 {
		return nil, BasicError("signature is required")
	}

	key, cerr := resolveSigningKeyChecked(tx, t.SenderID, t.KeyID, state.PurposeTransfer, state.LevelCritical)
	if cerr != nil {
		return nil, cerr
	}
	if cerr := verifySignature(key, t.signingPayload(), t.Signature); cerr != nil {
		return nil, cerr
	}

	ops, err := state.TransferIdentityBalanceOps(tx, t.SenderID, t.RecipientID, t.Amount)
	if err != nil {
		return nil, StateError("%v", err)
	}
	return ops, nil
}
