// Copyright 2025 Certen Protocol

package state

import (
	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/store"
)

const voterIndexSubkey = "voter_index"

// RegisterIdentityVote debits balanceID's prefunded specialized balance
// by cost, records voter's choice under the poll, and indexes voter ->
// poll for later revocation (spec.md §4.4).
func RegisterIdentityVote(tx *store.Transaction, pollPath []string, balanceID, voter schema.Identifier, choice schema.Identifier, cost uint64) ([]store.Op, error) {
	votersPath := append(append([]string{}, pollPath...), "voters")
	if _, exists := tx.Get(votersPath, voter[:]); exists {
		return nil, ErrVoterAlreadyVoted
	}

	balancePath := PrefundedBalancePath()
	elem, _ := tx.Get(balancePath, balanceID[:])
	available := uint64(0)
	if elem.SumValue > 0 {
		available = uint64(elem.SumValue)
	}
	if cost > available {
		return nil, ErrInsufficientPrefundedBalance
	}

	ops := []store.Op{
		store.SumItemDelta(balancePath, balanceID[:], -int64(cost)),
		store.Insert(votersPath, voter[:], store.NewItem(choice[:])),
		store.Insert([]string{RootVotes, "ByVoter"}, voter[:], store.NewItem(joinPollPath(pollPath))),
	}
	return ops, nil
}

// AddPrefundedSpecializedBalance creates or tops up the sum-tree leaf
// backing a vote poll's specialized balance.
func AddPrefundedSpecializedBalance(balanceID schema.Identifier, amount uint64) []store.Op {
	return []store.Op{store.SumItemDelta(PrefundedBalancePath(), balanceID[:], int64(amount))}
}

func joinPollPath(path []string) []byte {
	out := make([]byte, 0, 32)
	for _, p := range path {
		out = append(out, []byte(p)...)
		out = append(out, '/')
	}
	return out
}
