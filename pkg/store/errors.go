// Copyright 2025 Certen Protocol
//
// Package store implements the authenticated Merkle key-value adapter
// that underlies every higher-level component of the platform core.

package store

import "errors"

// Sentinel errors for store operations.
var (
	ErrKeyNotFound       = errors.New("store: key not found")
	ErrSubtreeNotFound   = errors.New("store: subtree not found")
	ErrSubtreeExists     = errors.New("store: subtree already exists")
	ErrKeyExists         = errors.New("store: key already exists")
	ErrNotSumTree        = errors.New("store: path does not reference a sum tree")
	ErrTxClosed          = errors.New("store: transaction already committed or rolled back")
	ErrEmptyPath         = errors.New("store: path must not be empty")
	ErrReferenceDangling = errors.New("store: reference element points to a missing key")
	ErrBatchRejected     = errors.New("store: batch rejected, no operations were applied")
)
