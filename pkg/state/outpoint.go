// Copyright 2025 Certen Protocol
//
// Asset-lock outpoint tracking (spec.md §3: "Each outpoint usable at most
// once across the entire chain"). Consumed on identity-create or top-up.

package state

import "github.com/driveplatform/core/pkg/store"

var outpointPath = []string{RootMisc, "AssetLockOutpoints"}

// ConsumeAssetLockOutpointOps marks a 36-byte outpoint as spent, failing
// if it was already consumed.
func ConsumeAssetLockOutpointOps(tx *store.Transaction, outpoint [36]byte) ([]store.Op, error) {
	if _, exists := tx.Get(outpointPath, outpoint[:]); exists {
		return nil, ErrOutpointAlreadyConsumed
	}
	return []store.Op{store.InsertIfNotExists(outpointPath, outpoint[:], store.NewItem([]byte{1}))}, nil
}

// OutpointConsumed reports whether outpoint has already been spent.
func OutpointConsumed(tx *store.Transaction, outpoint [36]byte) bool {
	_, exists := tx.Get(outpointPath, outpoint[:])
	return exists
}
