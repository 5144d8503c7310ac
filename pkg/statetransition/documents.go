// Copyright 2025 Certen Protocol

package statetransition

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/driveplatform/core/pkg/datatrigger"
	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/state"
	"github.com/driveplatform/core/pkg/store"
	"github.com/driveplatform/core/pkg/voting"
)

// DocumentTransitionEntry is one inner transition of a documents batch.
type DocumentTransitionEntry struct {
	Kind        datatrigger.ActionKind
	DocType     string
	Document    *schema.Document
	OldDocument *schema.Document // required for Kind == ActionReplace
	Override    bool
}

// DocumentsBatchTransition applies a sequence of document create/
// replace/delete operations against one contract, signed once by the
// owning identity (spec.md §4.5: "inner document transitions apply in
// declared order").
type DocumentsBatchTransition struct {
	OwnerID       schema.Identifier
	KeyID         uint32
	Signature     []byte
	Contract      *schema.DataContract
	Entries       []DocumentTransitionEntry
	BlockHeight   uint64
	ContractNonce uint64 // declared by the submitter, checked monotonic
}

func (t *DocumentsBatchTransition) signingPayload() []byte {
	type entrySummary struct {
		Kind    datatrigger.ActionKind
		DocType string
		DocID   schema.Identifier
	}
	summaries := make([]entrySummary, len(t.Entries))
	for i, e := range t.Entries {
		summaries[i] = entrySummary{Kind: e.Kind, DocType: e.DocType, DocID: e.Document.ID}
	}
	b, _ := json.Marshal(struct {
		OwnerID    schema.Identifier
		ContractID schema.Identifier
		Entries    []entrySummary
	}{t.OwnerID, t.Contract.ID, summaries})
	return b
}

// ValidateDocumentsBatch runs the STE pipeline for a documents batch:
// structural checks, signature, per-entry state validation and data
// triggers, returning the combined SE ops for the whole batch.
func ValidateDocumentsBatch(tx *store.Transaction, triggers *datatrigger.Engine, t *DocumentsBatchTransition) ([]store.Op, *ConsensusError) {
	if t.Contract == nil || len(t.Entries) == 0 {
		return nil, BasicError("documents batch requires a contract and at least one entry")
	}
	if len(t.Signature) == 0 {
		return nil, BasicError("signature is required")
	}
	for i, e := range t.Entries {
		if e.Document == nil {
			return nil, BasicError("entry %d has no document", i)
		}
		if e.Kind == datatrigger.ActionReplace && e.OldDocument == nil {
			return nil, BasicError("entry %d is a replace but has no old document", i)
		}
	}

	key, cerr := resolveSigningKeyChecked(tx, t.OwnerID, t.KeyID, state.PurposeAuthentication, state.LevelHigh)
	if cerr != nil {
		return nil, cerr
	}
	if cerr := verifySignature(key, t.signingPayload(), t.Signature); cerr != nil {
		return nil, cerr
	}

	var allOps []store.Op
	for i, e := range t.Entries {
		dt, err := t.Contract.DocumentType(e.DocType)
		if err != nil {
			return nil, StateError("entry %d: %v", i, err)
		}

		action := datatrigger.Action{
			ContractID:   t.Contract.ID,
			DocumentType: e.DocType,
			DocumentID:   e.Document.ID,
			Kind:         e.Kind,
			Values:       e.Document.Values,
		}
		triggerCtx := datatrigger.Context{Contract: t.Contract, OwnerID: t.OwnerID, BlockHeight: t.BlockHeight}
		if result := triggers.Run(action, triggerCtx); !result.Accept() {
			return nil, StateError("entry %d rejected by data trigger: %v", i, result.Errors)
		}

		var ops []store.Op
		switch e.Kind {
		case datatrigger.ActionCreate:
			ops, err = state.AddDocumentForContract(tx, t.Contract, dt, e.Document, state.StorageFlags{Override: e.Override})
		case datatrigger.ActionReplace:
			ops, err = state.UpdateDocument(tx, t.Contract, dt, e.OldDocument, e.Document)
		case datatrigger.ActionDelete:
			ops, err = state.DeleteDocument(tx, t.Contract, dt, e.Document)
		default:
			err = ErrUnknownActionKind
		}
		if err != nil {
			return nil, StateError("entry %d: %v", i, err)
		}

		// A contested index is never written by AddDocumentForContract
		// itself (spec.md §4.4); route the insert through the voting
		// package instead so it opens or joins the index key's poll.
		if e.Kind == datatrigger.ActionCreate {
			if idx, ok := dt.ContestedIndex(); ok {
				pollOps, perr := openContestedPoll(tx, t.Contract.ID, dt, idx, e.Document, t.OwnerID, t.BlockHeight)
				if perr != nil {
					return nil, StateError("entry %d: %v", i, perr)
				}
				ops = append(ops, pollOps...)
			}
		}
		allOps = append(allOps, ops...)
	}

	nonceOps, err := state.UpdateIdentityContractNonce(tx, t.OwnerID, t.Contract.ID, t.ContractNonce)
	if err != nil {
		return nil, StateError("%v", err)
	}
	allOps = append(allOps, nonceOps...)
	return allOps, nil
}

// openContestedPoll lowers a contested-index insert into voting ops
// (spec.md §4.7: "the first document that would occupy a contested
// unique index ... opens a VotePoll"). The poll's end height is the
// submitting block height plus voting.DefaultVoteDurationBlocks; its
// prefunded specialized balance opens at zero, funded only by whatever
// a future protocol version charges contenders or voters against it
// (spec.md does not price contested voting, so casting a vote costs
// nothing by default here).
func openContestedPoll(tx *store.Transaction, contractID schema.Identifier, dt *schema.DocumentType, idx schema.Index, doc *schema.Document, ownerID schema.Identifier, blockHeight uint64) ([]store.Op, error) {
	key, err := dt.EncodeIndexKey(doc, idx)
	if err != nil {
		return nil, err
	}
	ref := voting.PollRef{ContractID: contractID, DocType: dt.Name, IndexName: idx.Name, PollKey: hex.EncodeToString(key)}
	return voting.OpenOrJoinVotePoll(tx, ref, voting.Contender{OwnerID: ownerID, DocumentID: doc.ID},
		blockHeight, blockHeight+voting.DefaultVoteDurationBlocks, contestedBalanceID(ref))
}

// contestedBalanceID derives a stable prefunded-specialized-balance
// identifier from a poll's path, so every contender joining the same
// poll shares the one sum-tree leaf backing it.
func contestedBalanceID(ref voting.PollRef) schema.Identifier {
	return schema.Identifier(sha256.Sum256([]byte(ref.ContractID.String() + "/" + ref.DocType + "/" + ref.IndexName + "/" + ref.PollKey)))
}
