// Copyright 2025 Certen Protocol

package statetransition

import (
	"github.com/driveplatform/core/pkg/costs"
	"github.com/driveplatform/core/pkg/datatrigger"
	"github.com/driveplatform/core/pkg/pvr"
	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/state"
	"github.com/driveplatform/core/pkg/store"
)

// Engine is the top-level STE: it dispatches one transition through the
// full 8-step pipeline (spec.md §4.5) -- structural, signature and state
// validation (steps 1-3, delegated to the per-variant Validate* function
// below), action lowering and data triggers (steps 4-5, folded into
// ValidateDocumentsBatch), SE op batching (already returned by every
// Validate* function), fee accounting (step 7, via Accountant), and
// atomic apply (step 8).
type Engine struct {
	Registry   *pvr.Registry
	Accountant *costs.Accountant
	Triggers   *datatrigger.Engine
}

// NewEngine wires the versioned method registry, cost accountant, and
// data trigger engine that every transition is validated and priced
// against.
func NewEngine(registry *pvr.Registry, accountant *costs.Accountant, triggers *datatrigger.Engine) *Engine {
	return &Engine{Registry: registry, Accountant: accountant, Triggers: triggers}
}

// DispatchContext carries the per-block parameters a transition is
// validated and priced against: which protocol version's selectors
// apply, the epoch fee tables refund against, who pays the assessed
// fee, and the estimated shape of any subtree the transition's ops may
// touch for the first time.
type DispatchContext struct {
	ProtocolVersion uint32
	CurrentEpoch    uint16
	PayerID         schema.Identifier
	Layers          map[string]store.LayerInfo
}

// Dispatch validates transition, assesses its fee, and applies the
// combined ops atomically. A non-nil ConsensusError rejects only this
// transition (spec.md §4.5: "errors from steps 1-7 reject only that
// transition"); block driver records it and moves on. A non-nil error
// return comes from the final tx.Apply and is fatal -- block driver
// must abort the block (spec.md §4.5: "errors from step 8 ... are
// fatal").
func (e *Engine) Dispatch(tx *store.Transaction, ctx DispatchContext, transition interface{}) (costs.FeeResult, *ConsensusError, error) {
	vm, err := e.Registry.Lookup(ctx.ProtocolVersion)
	if err != nil {
		return costs.FeeResult{}, BasicError("%v", err), nil
	}

	ops, cerr := e.validate(tx, transition)
	if cerr != nil {
		return costs.FeeResult{}, cerr, nil
	}

	result, err := e.Accountant.Assess(ops, ctx.Layers, vm.FeeVersion, ctx.CurrentEpoch)
	if err != nil {
		return costs.FeeResult{}, StateError("%v", err), nil
	}

	debitOps, err := state.RemoveFromIdentityBalance(tx, ctx.PayerID, result.Total())
	if err != nil {
		return costs.FeeResult{}, StateError("%v", err), nil
	}
	ops = append(ops, debitOps...)
	ops = append(ops, costs.CreditPoolOps(ctx.CurrentEpoch, result)...)

	if err := tx.Apply(ops); err != nil {
		return result, nil, err
	}
	return result, nil, nil
}

func (e *Engine) validate(tx *store.Transaction, transition interface{}) ([]store.Op, *ConsensusError) {
	switch t := transition.(type) {
	case *DataContractCreateTransition:
		return ValidateDataContractCreate(tx, t)
	case *DataContractUpdateTransition:
		return ValidateDataContractUpdate(tx, t)
	case *DocumentsBatchTransition:
		return ValidateDocumentsBatch(tx, e.Triggers, t)
	case *IdentityCreateTransition:
		return ValidateIdentityCreate(tx, t)
	case *IdentityTopUpTransition:
		return ValidateIdentityTopUp(tx, t)
	case *IdentityUpdateTransition:
		return ValidateIdentityUpdate(tx, t)
	case *IdentityCreditWithdrawalTransition:
		return ValidateIdentityCreditWithdrawal(tx, t)
	case *IdentityCreditTransferTransition:
		return ValidateIdentityCreditTransfer(tx, t)
	case *MasternodeVoteTransition:
		return ValidateMasternodeVote(tx, t)
	default:
		return nil, BasicError("unknown transition type %T", transition)
	}
}
