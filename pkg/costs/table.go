// Copyright 2025 Certen Protocol

package costs

import "github.com/driveplatform/core/pkg/store"

// FeeTable is one versioned fee schedule (pvr.VersionedMethods.FeeVersion
// selects which table applies to a block). Every field is a price, not a
// behavior, so two nodes on the same selector always compute identical
// fees for the same batch.
type FeeTable struct {
	StorageCreditsPerByte    uint64
	ProcessingCreditsPerOp   uint64
	ProcessingCreditsPerHash uint64
	RefundEpochs             uint16 // how many epochs until a storage credit is refundable
}

// DefaultFeeTable is the V0 fee schedule.
func DefaultFeeTable() FeeTable {
	return FeeTable{
		StorageCreditsPerByte:    50,
		ProcessingCreditsPerOp:   1000,
		ProcessingCreditsPerHash: 3,
		RefundEpochs:             50,
	}
}

// FeeResult is CA's output for one batch: storage and processing credits
// to debit immediately, plus the epoch at which the storage portion
// becomes eligible for refund (spec.md §4.1 step 7, §4.2 Epoch entity).
type FeeResult struct {
	StorageCredits    uint64
	ProcessingCredits uint64
	RefundableAtEpoch uint16
}

// Total is the sum of storage and processing credits, the amount
// actually debited from the paying identity's balance.
func (f FeeResult) Total() uint64 {
	return f.StorageCredits + f.ProcessingCredits
}

// Compute turns a store.Estimate layer-cost map into a FeeResult using
// table. It is a pure function of its inputs (spec.md §4.1: "Deterministic
// function of versioned fee tables").
func Compute(costs map[string]store.LayerCost, table FeeTable, currentEpoch uint16) FeeResult {
	var storageCredits, processingCredits uint64
	for _, c := range costs {
		storageCredits += c.WrittenBytes * table.StorageCreditsPerByte
		processingCredits += c.RecomputedOps * table.ProcessingCreditsPerOp
		processingCredits += c.HashedBytes * table.ProcessingCreditsPerHash
	}
	return FeeResult{
		StorageCredits:    storageCredits,
		ProcessingCredits: processingCredits,
		RefundableAtEpoch: currentEpoch + table.RefundEpochs,
	}
}
