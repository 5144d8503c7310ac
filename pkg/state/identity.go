// Copyright 2025 Certen Protocol

package state

import (
	"encoding/binary"
	"encoding/json"

	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/store"
)

const (
	balanceLeaf         = "balance"
	negativeBalanceLeaf = "negative_balance"
	identityNonceKey    = "identity_nonce"
	contractNonceSubkey = "contract_nonces"
	revisionLeaf        = "revision"
)

// CreateIdentityOps opens a new identity: revision 1, the supplied
// starting keys (must include at least one enabled MASTER key per
// spec.md §3), and an initial balance credited from the consumed
// asset-lock outpoint.
func CreateIdentityOps(id schema.Identifier, keys []IdentityKey, initialBalance uint64) ([]store.Op, error) {
	hasMaster := false
	for _, k := range keys {
		if k.Enabled() && k.SecurityLevel == LevelMaster {
			hasMaster = true
			break
		}
	}
	if !hasMaster {
		return nil, ErrIdentityNeedsMasterKey
	}

	ops := []store.Op{store.Insert(IdentityPath(id), []byte(revisionLeaf), store.NewItem(encodeNonce(1)))}
	ops = append(ops, AddToIdentityBalance(id, initialBalance)...)

	// AddIdentityKeyOps needs a *store.Transaction to check for
	// duplicates; a brand new identity has none, so encode directly.
	ids := make([]uint32, 0, len(keys))
	for _, k := range keys {
		encoded, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		ops = append(ops, store.Insert(KeysPath(id), keyLeaf(k.KeyID), store.NewItem(encoded)))
		ids = append(ids, k.KeyID)
	}
	ops = append(ops, store.Insert(KeysPath(id), []byte(keyIDsLeaf), store.NewItem(encodeKeyIDs(ids))))
	return ops, nil
}

// IdentityRevision returns id's current revision counter, if set.
func IdentityRevision(tx *store.Transaction, id schema.Identifier) (uint64, bool) {
	elem, exists := tx.Get(IdentityPath(id), []byte(revisionLeaf))
	if !exists {
		return 0, false
	}
	return decodeNonce(elem.Item), true
}

// UpdateIdentityRevisionOps enforces strictly-increasing revision
// (spec.md §3: "revision monotonic") and returns the persisting op.
func UpdateIdentityRevisionOps(tx *store.Transaction, id schema.Identifier, newRevision uint64) ([]store.Op, error) {
	current, exists := IdentityRevision(tx, id)
	if exists && newRevision <= current {
		return nil, ErrRevisionNotIncreasing
	}
	return []store.Op{store.Insert(IdentityPath(id), []byte(revisionLeaf), store.NewItem(encodeNonce(newRevision)))}, nil
}

// IdentityBalance reads id's current balance sum-leaf, 0 if unset.
func IdentityBalance(tx *store.Transaction, id schema.Identifier) uint64 {
	elem, _ := tx.Get(BalancePath(id), []byte(balanceLeaf))
	if elem.SumValue > 0 {
		return uint64(elem.SumValue)
	}
	return 0
}

// AddToIdentityBalance credits id's balance sum-leaf by amount.
func AddToIdentityBalance(id schema.Identifier, amount uint64) []store.Op {
	return []store.Op{store.SumItemDelta(BalancePath(id), []byte(balanceLeaf), int64(amount))}
}

// RemoveFromIdentityBalance debits id's balance by amount. If amount
// would drive the balance below zero, the removal is split atomically
// into `balance := 0` and `negative_balance += deficit` (spec.md §4.4).
func RemoveFromIdentityBalance(tx *store.Transaction, id schema.Identifier, amount uint64) ([]store.Op, error) {
	path := BalancePath(id)
	elem, _ := tx.Get(path, []byte(balanceLeaf))
	current := uint64(0)
	if elem.SumValue > 0 {
		current = uint64(elem.SumValue)
	}

	if amount <= current {
		return []store.Op{store.SumItemDelta(path, []byte(balanceLeaf), -int64(amount))}, nil
	}

	deficit := amount - current
	return []store.Op{
		store.SumItemDelta(path, []byte(balanceLeaf), -int64(current)),
		store.SumItemDelta(path, []byte(negativeBalanceLeaf), int64(deficit)),
	}, nil
}

// TransferIdentityBalanceOps moves amount from one identity's balance
// to another's, rejecting the transfer outright (rather than going
// negative) if the sender's balance is insufficient.
func TransferIdentityBalanceOps(tx *store.Transaction, from, to schema.Identifier, amount uint64) ([]store.Op, error) {
	fromPath := BalancePath(from)
	elem, _ := tx.Get(fromPath, []byte(balanceLeaf))
	current := uint64(0)
	if elem.SumValue > 0 {
		current = uint64(elem.SumValue)
	}
	if amount > current {
		return nil, ErrInsufficientBalance
	}
	return []store.Op{
		store.SumItemDelta(fromPath, []byte(balanceLeaf), -int64(amount)),
		store.SumItemDelta(BalancePath(to), []byte(balanceLeaf), int64(amount)),
	}, nil
}

// UpdateIdentityNonce enforces the monotonic-or-equal check (spec.md
// §4.4: "never decreases") and returns the op that persists newNonce.
func UpdateIdentityNonce(tx *store.Transaction, id schema.Identifier, newNonce uint64) ([]store.Op, error) {
	path := IdentityPath(id)
	elem, exists := tx.Get(path, []byte(identityNonceKey))
	if exists {
		current := decodeNonce(elem.Item)
		if newNonce < current {
			return nil, ErrNonceNotIncreasing
		}
	}
	return []store.Op{store.Insert(path, []byte(identityNonceKey), store.NewItem(encodeNonce(newNonce)))}, nil
}

// UpdateIdentityContractNonce is UpdateIdentityNonce scoped to one
// contract (spec.md §4.4), used to dedupe per-contract document
// transitions from the same identity.
func UpdateIdentityContractNonce(tx *store.Transaction, id, contractID schema.Identifier, newNonce uint64) ([]store.Op, error) {
	path := append(append([]string{}, IdentityPath(id)...), contractNonceSubkey)
	elem, exists := tx.Get(path, contractID[:])
	if exists {
		current := decodeNonce(elem.Item)
		if newNonce < current {
			return nil, ErrNonceNotIncreasing
		}
	}
	return []store.Op{store.Insert(path, contractID[:], store.NewItem(encodeNonce(newNonce)))}, nil
}

func encodeNonce(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

func decodeNonce(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
