// Copyright 2025 Certen Protocol

package voting

import (
	"github.com/driveplatform/core/pkg/costs"
	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/state"
	"github.com/driveplatform/core/pkg/store"
)

// CastVote debits voter's prefunded specialized balance and records its
// choice, rejecting votes once currentHeight has reached the poll's end
// height (spec.md §4.7: "Votes accepted only while block height <
// end-height").
func CastVote(tx *store.Transaction, ref PollRef, voter, choice schema.Identifier, currentHeight, cost uint64) ([]store.Op, error) {
	endHeight, exists := EndHeight(tx, ref)
	if !exists {
		return nil, ErrPollNotFound
	}
	if currentHeight >= endHeight {
		return nil, ErrPollClosed
	}
	balanceID, _ := BalanceID(tx, ref)
	return state.RegisterIdentityVote(tx, ref.path(), balanceID, voter, choice, cost)
}

// tallyVotes reads every recorded (voter -> choice) entry under ref and
// counts votes per contender owner. It relies on Query against the last
// committed store state, since Transaction has no key-enumeration API —
// callers invoke this between blocks, after the poll's votes are
// committed, never against same-block in-flight writes.
func tallyVotes(s *store.Store, ref PollRef) (map[schema.Identifier]int, error) {
	votersPath := append(append([]string{}, ref.path()...), "voters")
	results, _, err := s.Query(votersPath, nil, nil, false)
	if err != nil {
		return map[schema.Identifier]int{}, nil
	}
	tallies := make(map[schema.Identifier]int)
	for _, r := range results {
		if len(r.Element.Item) != 32 {
			continue
		}
		var choice schema.Identifier
		copy(choice[:], r.Element.Item)
		tallies[choice]++
	}
	return tallies, nil
}

// EndedPollResult describes one poll's resolution, returned for
// telemetry/audit after CheckForEndedVotePolls runs.
type EndedPollResult struct {
	Ref     PollRef
	Winner  Contender
	Refund  uint64
}

// CheckForEndedVotePolls implements spec.md §4.7's epoch-boundary sweep:
// for every poll in refs whose end height has been reached, it tallies
// recorded votes, applies the winning contender's document as a normal
// insert, drops the losing contenders, and refunds any residual
// prefunded balance to the epoch's protocol fee pool.
func CheckForEndedVotePolls(tx *store.Transaction, s *store.Store, refs []PollRef, currentHeight, currentEpoch uint64, contracts map[schema.Identifier]*schema.DataContract, documents map[schema.Identifier]map[schema.Identifier]*schema.Document) ([]store.Op, []EndedPollResult, error) {
	var ops []store.Op
	var resolved []EndedPollResult

	for _, ref := range refs {
		endHeight, exists := EndHeight(tx, ref)
		if !exists || currentHeight < endHeight {
			continue
		}

		contenders, err := readContenders(tx, ref)
		if err != nil {
			return nil, nil, err
		}
		if len(contenders) == 0 {
			return nil, nil, ErrNoContenders
		}
		sortContenders(contenders)

		tallies, err := tallyVotes(s, ref)
		if err != nil {
			return nil, nil, err
		}
		winner := winningContender(tallies, contenders)

		contract := contracts[ref.ContractID]
		if contract != nil {
			if dt, err := contract.DocumentType(ref.DocType); err == nil {
				if byOwner, ok := documents[ref.ContractID]; ok {
					if doc, ok := byOwner[winner.DocumentID]; ok {
						docOps, err := state.AddDocumentForContract(tx, contract, dt, doc, state.StorageFlags{Override: true})
						if err != nil {
							return nil, nil, err
						}
						ops = append(ops, docOps...)
					}
				}
			}
		}

		balanceID, _ := BalanceID(tx, ref)
		balanceElem, _ := tx.Get(state.PrefundedBalancePath(), balanceID[:])
		var residual uint64
		if balanceElem.SumValue > 0 {
			residual = uint64(balanceElem.SumValue)
		}
		if residual > 0 {
			ops = append(ops, store.SumItemDelta(state.PrefundedBalancePath(), balanceID[:], -int64(residual)))
			ops = append(ops, costs.CreditPoolOps(uint16(currentEpoch), costs.FeeResult{StorageCredits: residual})...)
		}

		resolved = append(resolved, EndedPollResult{Ref: ref, Winner: winner, Refund: residual})
	}
	return ops, resolved, nil
}
