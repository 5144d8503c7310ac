// Copyright 2025 Certen Protocol
//
// Package state implements the State Engine (SE) described in spec.md
// §4.4: high-level intents that lower deterministically to Authenticated
// Store ops. Every intent here only reads tx (via Get/SumValue) to
// validate preconditions; it never calls tx.Apply itself, so STE can
// batch many intents' ops together, run them through Cost Accountant,
// and apply everything in one atomic transaction (spec.md §4.5 steps
// 6-8).

package state

import "errors"

var (
	ErrDocumentExists       = errors.New("state: document already exists")
	ErrDocumentNotFound     = errors.New("state: document not found")
	ErrImmutableDocumentType = errors.New("state: document type is immutable")
	ErrRevisionNotIncreasing = errors.New("state: revision must strictly increase")
	ErrNonceNotIncreasing    = errors.New("state: nonce must not decrease")
	ErrInsufficientPrefundedBalance = errors.New("state: insufficient prefunded specialized balance")
	ErrVoterAlreadyVoted     = errors.New("state: voter already has an active vote on this poll")
	ErrDuplicateKeyID        = errors.New("state: key ID already assigned to this identity")
	ErrUnknownKeyID          = errors.New("state: unknown key ID")
	ErrReadOnlyKey           = errors.New("state: read-only keys cannot be disabled or replaced")
	ErrLastMasterKey         = errors.New("state: cannot disable the last enabled MASTER key")
	ErrOutpointAlreadyConsumed = errors.New("state: asset-lock outpoint already consumed")
	ErrIdentityNeedsMasterKey  = errors.New("state: identity must have at least one enabled MASTER key")
	ErrContractExists               = errors.New("state: contract already exists")
	ErrContractNotFound             = errors.New("state: contract not found")
	ErrContractVersionNotIncreasing = errors.New("state: contract version must strictly increase")
	ErrContractOwnerImmutable       = errors.New("state: contract owner_id is immutable")
	ErrInsufficientBalance          = errors.New("state: insufficient balance for transfer")
)
