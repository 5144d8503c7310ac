// Copyright 2025 Certen Protocol
//
// Package blockdriver implements the Block Driver (BD) described in
// spec.md §4.8: the consensus-facing ABCI application that feeds each
// block's transactions through the State-Transition Validator/Executor,
// persists the authenticated store, and serves state-sync snapshots.
// Grounded on the base repo's consensus.ValidatorApp — same ABCI++
// method set (InitChain/CheckTx/PrepareProposal/ProcessProposal/
// FinalizeBlock/Commit/Query/snapshot RPCs) and the same mutex-guarded
// struct holding the current block's header fields between
// FinalizeBlock and Commit — generalized from ValidatorBlock/bundle
// transactions to the nine V0 state-transition variants.

package blockdriver

import (
	"encoding/json"
	"fmt"

	"github.com/driveplatform/core/pkg/statetransition"
)

// TransitionKind discriminates which of the nine V0 transition variants
// an Envelope carries (spec.md §4.5).
type TransitionKind string

const (
	KindDataContractCreate       TransitionKind = "data_contract_create"
	KindDataContractUpdate       TransitionKind = "data_contract_update"
	KindDocumentsBatch           TransitionKind = "documents_batch"
	KindIdentityCreate           TransitionKind = "identity_create"
	KindIdentityTopUp            TransitionKind = "identity_top_up"
	KindIdentityUpdate           TransitionKind = "identity_update"
	KindIdentityCreditWithdrawal TransitionKind = "identity_credit_withdrawal"
	KindIdentityCreditTransfer   TransitionKind = "identity_credit_transfer"
	KindMasternodeVote           TransitionKind = "masternode_vote"
)

// Envelope is the wire shape of one transaction as it arrives in an ABCI
// Tx byte slice: a discriminator plus the JSON-encoded typed transition.
type Envelope struct {
	Kind    TransitionKind  `json:"kind"`
	Payload json.RawMessage `json:"payload"`
	PayerID string          `json:"payer_id"`
}

// Decode parses raw into an Envelope and unmarshals its payload into the
// concrete statetransition type named by Kind, returning the typed
// transition ready for Engine.Dispatch.
func Decode(raw []byte) (TransitionKind, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("blockdriver: invalid envelope: %w", err)
	}

	var transition interface{}
	switch env.Kind {
	case KindDataContractCreate:
		transition = &statetransition.DataContractCreateTransition{}
	case KindDataContractUpdate:
		transition = &statetransition.DataContractUpdateTransition{}
	case KindDocumentsBatch:
		transition = &statetransition.DocumentsBatchTransition{}
	case KindIdentityCreate:
		transition = &statetransition.IdentityCreateTransition{}
	case KindIdentityTopUp:
		transition = &statetransition.IdentityTopUpTransition{}
	case KindIdentityUpdate:
		transition = &statetransition.IdentityUpdateTransition{}
	case KindIdentityCreditWithdrawal:
		transition = &statetransition.IdentityCreditWithdrawalTransition{}
	case KindIdentityCreditTransfer:
		transition = &statetransition.IdentityCreditTransferTransition{}
	case KindMasternodeVote:
		transition = &statetransition.MasternodeVoteTransition{}
	default:
		return env.Kind, nil, fmt.Errorf("blockdriver: unknown transition kind %q", env.Kind)
	}

	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, transition); err != nil {
			return env.Kind, nil, fmt.Errorf("blockdriver: invalid payload for %q: %w", env.Kind, err)
		}
	}
	return env.Kind, transition, nil
}
