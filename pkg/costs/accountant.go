// Copyright 2025 Certen Protocol
//
// Accountant is the process-wide Cost Accountant: a small, mutex-guarded
// registry of FeeTables (one per pvr.Selector) plus running totals used
// for telemetry. Grounded on the teacher's batch.CostTracker shape
// (config struct + cached stats behind a RWMutex, one Record-style
// entrypoint) generalized away from gas/ETH pricing to credit accounting.

package costs

import (
	"sync"

	"github.com/driveplatform/core/pkg/pvr"
	"github.com/driveplatform/core/pkg/store"
	"github.com/rs/zerolog"
)

// Accountant holds the versioned fee tables and running credit totals for
// telemetry and epoch fee-pool bookkeeping.
type Accountant struct {
	mu     sync.RWMutex
	tables map[pvr.Selector]FeeTable
	logger zerolog.Logger

	totalStorageCredits    uint64
	totalProcessingCredits uint64
	totalBatches           uint64
}

// New returns an Accountant seeded with tables, plus the V0 default under
// selector 0 if not already present.
func New(tables map[pvr.Selector]FeeTable, logger zerolog.Logger) *Accountant {
	cloned := make(map[pvr.Selector]FeeTable, len(tables)+1)
	for k, v := range tables {
		cloned[k] = v
	}
	if _, ok := cloned[0]; !ok {
		cloned[0] = DefaultFeeTable()
	}
	return &Accountant{tables: cloned, logger: logger}
}

// TableFor returns the FeeTable registered under selector.
func (a *Accountant) TableFor(selector pvr.Selector) (FeeTable, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	t, ok := a.tables[selector]
	if !ok {
		return FeeTable{}, ErrUnknownFeeVersion
	}
	return t, nil
}

// Assess runs store.Estimate over ops then Computes a FeeResult under the
// FeeTable selected by selector, recording running totals for telemetry.
func (a *Accountant) Assess(ops []store.Op, layers map[string]store.LayerInfo, selector pvr.Selector, currentEpoch uint16) (FeeResult, error) {
	table, err := a.TableFor(selector)
	if err != nil {
		return FeeResult{}, err
	}
	costMap := store.Estimate(ops, layers)
	result := Compute(costMap, table, currentEpoch)

	a.mu.Lock()
	a.totalStorageCredits += result.StorageCredits
	a.totalProcessingCredits += result.ProcessingCredits
	a.totalBatches++
	a.mu.Unlock()

	a.logger.Debug().
		Uint64("storage_credits", result.StorageCredits).
		Uint64("processing_credits", result.ProcessingCredits).
		Uint16("refundable_at_epoch", result.RefundableAtEpoch).
		Msg("batch fee assessed")

	return result, nil
}

// Totals returns the running storage/processing credit totals and batch
// count observed by this Accountant since construction.
func (a *Accountant) Totals() (storageCredits, processingCredits, batches uint64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.totalStorageCredits, a.totalProcessingCredits, a.totalBatches
}
