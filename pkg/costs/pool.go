// Copyright 2025 Certen Protocol
//
// Fee-pool bookkeeping ops. CA never writes to the store directly — like
// SE, it only produces ops for the caller (STE/BD) to fold into the same
// batch being applied, keeping the debit-then-apply ordering in spec.md
// §4.1 step 7 atomic with everything else in the block.

package costs

import "github.com/driveplatform/core/pkg/store"

const (
	storageLeaf    = "storage"
	processingLeaf = "processing"
)

func poolPath(epoch uint16) []string {
	return []string{"Pools", encodeEpoch(epoch)}
}

// CreditPoolOps returns the ops that add result's credits into epoch's
// fee-pool sum-tree leaves (spec.md §3 Epoch: "fee-pool totals
// (storage/processing)").
func CreditPoolOps(epoch uint16, result FeeResult) []store.Op {
	path := poolPath(epoch)
	return []store.Op{
		store.SumItemDelta(path, []byte(storageLeaf), int64(result.StorageCredits)),
		store.SumItemDelta(path, []byte(processingLeaf), int64(result.ProcessingCredits)),
	}
}

// OpenPoolOps returns the ops that create an empty fee-pool sum tree for
// a newly started epoch.
func OpenPoolOps(epoch uint16) []store.Op {
	return []store.Op{store.InsertEmptySumTree([]string{"Pools"}, []byte(encodeEpoch(epoch)))}
}

// PoolTotals reads back the storage/processing sum-tree leaves for epoch.
func PoolTotals(tx *store.Transaction, epoch uint16) (storageCredits, processingCredits uint64, err error) {
	path := poolPath(epoch)
	if _, err := tx.SumValue(path); err != nil {
		return 0, 0, err
	}
	storageElem, _ := tx.Get(path, []byte(storageLeaf))
	processingElem, _ := tx.Get(path, []byte(processingLeaf))
	if storageElem.SumValue > 0 {
		storageCredits = uint64(storageElem.SumValue)
	}
	if processingElem.SumValue > 0 {
		processingCredits = uint64(processingElem.SumValue)
	}
	return storageCredits, processingCredits, nil
}

func encodeEpoch(epoch uint16) string {
	const hexDigits = "0123456789abcdef"
	b := [4]byte{
		hexDigits[(epoch>>12)&0xf],
		hexDigits[(epoch>>8)&0xf],
		hexDigits[(epoch>>4)&0xf],
		hexDigits[epoch&0xf],
	}
	return string(b[:])
}
