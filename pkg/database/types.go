// Copyright 2025 Certen Protocol
//
// Read-index row types for the platform execution core's secondary
// index. These map directly to the PostgreSQL schema defined in
// migrations/001_initial_schema.sql; pkg/store's authenticated tree
// remains the source of truth, this package mirrors committed state
// for query efficiency only.

package database

import (
	"encoding/json"
	"time"
)

// Identity mirrors one pkg/state identity's read-indexed fields.
// Maps to: identities table
type Identity struct {
	IdentityID    []byte
	Revision      uint64
	Balance       uint64
	Nonce         uint64
	PublicKeyHash []byte
	CreatedHeight int64
	UpdatedHeight int64
	UpdatedAt     time.Time
}

// IdentityKeyRow mirrors one of an identity's public keys.
// Maps to: identity_keys table
type IdentityKeyRow struct {
	IdentityID     []byte
	KeyID          uint32
	Purpose        int16
	SecurityLevel  int16
	KeyType        int16
	PublicKey      []byte
	DisabledHeight *int64
}

// DataContract mirrors a compiled data contract's read-indexed fields.
// Definition holds the contract's document-type schema as committed
// (opaque to this package; query handlers decode it per document type).
// Maps to: data_contracts table
type DataContract struct {
	ContractID    []byte
	OwnerID       []byte
	Version       uint32
	Definition    json.RawMessage
	CreatedHeight int64
	UpdatedHeight int64
	UpdatedAt     time.Time
}

// Document mirrors one committed document's read-indexed fields.
// Maps to: documents table
type Document struct {
	DocumentID    []byte
	ContractID    []byte
	DocumentType  string
	OwnerID       []byte
	Revision      uint64
	Data          json.RawMessage
	Deleted       bool
	CreatedHeight int64
	UpdatedHeight int64
	UpdatedAt     time.Time
}

// VotePoll mirrors a contested-index vote poll's read-indexed fields.
// Maps to: vote_polls table
type VotePoll struct {
	PollKey       []byte
	ContractID    []byte
	DocumentType  string
	IndexName     string
	EndHeight     int64
	Resolved      bool
	WinnerChoice  []byte
	CreatedHeight int64
	UpdatedAt     time.Time
}

// VotePollChoice mirrors one choice's accumulated vote weight on a poll.
// Maps to: vote_poll_choices table
type VotePollChoice struct {
	PollKey     []byte
	Choice      []byte
	Accumulated uint64
}

// ProtocolVersionVote mirrors one height's protocol-upgrade vote tally
// (spec.md §3 Epoch / PVR voting window).
// Maps to: protocol_version_votes table
type ProtocolVersionVote struct {
	Height          int64
	ProposedVersion uint32
	ValidatorCount  int
	VoteCount       int
	Activated       bool
	RecordedAt      time.Time
}
