// Copyright 2025 Certen Protocol
//
// Package costs implements the Cost Accountant (CA) described in
// spec.md §4.1/§4.2: a deterministic function of a versioned fee table
// that turns a batch's dry-run layer costs into storage credits,
// processing credits, and per-epoch refunds.

package costs

import "errors"

var (
	// ErrUnknownFeeVersion is returned when no FeeTable is registered for
	// a requested selector (pvr.VersionedMethods.FeeVersion).
	ErrUnknownFeeVersion = errors.New("costs: unknown fee version")
)
