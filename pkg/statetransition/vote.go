// Copyright 2025 Certen Protocol

package statetransition

import (
	"encoding/json"

	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/state"
	"github.com/driveplatform/core/pkg/store"
	"github.com/driveplatform/core/pkg/voting"
)

// MasternodeVoteTransition casts one vote, requiring a VOTING-purpose
// key (spec.md §4.7 / §3: keys of purpose VOTING sign MasternodeVote
// transitions). It serves two distinct on-chain votes under the one
// transition shape the spec names: a contested-index vote (Poll set,
// Choice the contender it backs) or a protocol-upgrade vote (Poll left
// as the zero value, ProtocolVersionVote set to the version this
// masternode supports) — spec.md §4.2 names the upgrade-voting
// mechanism but not the transaction shape that conveys individual
// votes, so this reuses the one transition kind the spec does name for
// masternode voting rather than adding a tenth V0 transition kind.
type MasternodeVoteTransition struct {
	VoterID             schema.Identifier
	KeyID               uint32
	Signature           []byte
	Poll                voting.PollRef
	Choice              schema.Identifier
	Cost                uint64
	BlockHeight         uint64
	ProtocolVersionVote uint32 // 0 = no protocol-upgrade vote in this transition
}

// IsProtocolVersionVote reports whether this transition casts a
// protocol-upgrade vote rather than a contested-index vote.
func (t *MasternodeVoteTransition) IsProtocolVersionVote() bool {
	return t.ProtocolVersionVote != 0 && t.Poll == (voting.PollRef{})
}

func (t *MasternodeVoteTransition) signingPayload() []byte {
	b, _ := json.Marshal(struct {
		VoterID             schema.Identifier
		Poll                voting.PollRef
		Choice              schema.Identifier
		ProtocolVersionVote uint32
	}{t.VoterID, t.Poll, t.Choice, t.ProtocolVersionVote})
	return b
}

// ValidateMasternodeVote checks structure and signature, then either
// casts a contested-index vote via SE (returning its ops) or, for a
// protocol-upgrade vote, returns no ops at all — Upgrader.RecordVote is
// an in-memory block-driver concern, not an AS-persisted one (spec.md
// §4.2: the registry itself is never mutated; only Misc's
// current/next keys are).
func ValidateMasternodeVote(tx *store.Transaction, t *MasternodeVoteTransition) ([]store.Op, *ConsensusError) {
	if len(t.Signature) == 0 {
		return nil, BasicError("signature is required")
	}

	key, cerr := resolveSigningKeyChecked(tx, t.VoterID, t.KeyID, state.PurposeVoting, state.LevelHigh)
	if cerr != nil {
		return nil, cerr
	}
	if cerr := verifySignature(key, t.signingPayload(), t.Signature); cerr != nil {
		return nil, cerr
	}

	if t.IsProtocolVersionVote() {
		return nil, nil
	}

	ops, err := voting.CastVote(tx, t.Poll, t.VoterID, t.Choice, t.BlockHeight, t.Cost)
	if err != nil {
		return nil, StateError("%v", err)
	}
	return ops, nil
}
