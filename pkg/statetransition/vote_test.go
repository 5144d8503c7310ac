// Copyright 2025 Certen Protocol

package statetransition

import (
	"crypto/ed25519"
	"testing"

	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/state"
	"github.com/driveplatform/core/pkg/store"
	"github.com/driveplatform/core/pkg/voting"
)

func TestValidateMasternodeVoteCastsVote(t *testing.T) {
	s := store.New()
	voterID := schema.Identifier{40}
	tx, priv := newSignedIdentity(t, s, voterID, 0, state.PurposeVoting, state.LevelHigh)

	ref := voting.PollRef{ContractID: schema.Identifier{41}, DocType: "listing", IndexName: "byName", PollKey: "alice"}
	balanceID := schema.Identifier{42}
	openOps, err := voting.OpenOrJoinVotePoll(tx, ref, voting.Contender{OwnerID: schema.Identifier{43}, DocumentID: schema.Identifier{44}}, 10, 1000, balanceID)
	if err != nil {
		t.Fatalf("open poll: %v", err)
	}
	openOps = append(openOps, state.AddPrefundedSpecializedBalance(balanceID, 500)...)
	if err := tx.Apply(openOps); err != nil {
		t.Fatalf("apply poll setup: %v", err)
	}

	transition := &MasternodeVoteTransition{
		VoterID:     voterID,
		KeyID:       0,
		Poll:        ref,
		Choice:      schema.Identifier{43},
		Cost:        50,
		BlockHeight: 20,
	}
	transition.Signature = ed25519.Sign(priv, transition.signingPayload())

	ops, cerr := ValidateMasternodeVote(tx, transition)
	if cerr != nil {
		t.Fatalf("unexpected error: %v", cerr)
	}
	if err := tx.Apply(ops); err != nil {
		t.Fatalf("apply: %v", err)
	}
}

func TestValidateMasternodeVoteRejectsAfterPollEnded(t *testing.T) {
	s := store.New()
	voterID := schema.Identifier{45}
	tx, priv := newSignedIdentity(t, s, voterID, 0, state.PurposeVoting, state.LevelHigh)

	ref := voting.PollRef{ContractID: schema.Identifier{46}, DocType: "listing", IndexName: "byName", PollKey: "bob"}
	balanceID := schema.Identifier{47}
	openOps, err := voting.OpenOrJoinVotePoll(tx, ref, voting.Contender{OwnerID: schema.Identifier{48}, DocumentID: schema.Identifier{49}}, 10, 100, balanceID)
	if err != nil {
		t.Fatalf("open poll: %v", err)
	}
	openOps = append(openOps, state.AddPrefundedSpecializedBalance(balanceID, 500)...)
	if err := tx.Apply(openOps); err != nil {
		t.Fatalf("apply poll setup: %v", err)
	}

	transition := &MasternodeVoteTransition{
		VoterID:     voterID,
		KeyID:       0,
		Poll:        ref,
		Choice:      schema.Identifier{48},
		Cost:        10,
		BlockHeight: 200, // past end height 100
	}
	transition.Signature = ed25519.Sign(priv, transition.signingPayload())

	_, cerr := ValidateMasternodeVote(tx, transition)
	if cerr == nil || cerr.Stage != StageState {
		t.Fatalf("expected a StateError for closed poll, got %v", cerr)
	}
}

func TestValidateMasternodeVoteRejectsWrongKeyPurpose(t *testing.T) {
	s := store.New()
	voterID := schema.Identifier{50}
	tx, _ := newSignedIdentity(t, s, voterID, 0, state.PurposeAuthentication, state.LevelHigh)

	ref := voting.PollRef{ContractID: schema.Identifier{51}, DocType: "listing", IndexName: "byName", PollKey: "carol"}
	transition := &MasternodeVoteTransition{
		VoterID:   voterID,
		KeyID:     0,
		Poll:      ref,
		Choice:    schema.Identifier{52},
		Cost:      10,
		Signature: make([]byte, ed25519.SignatureSize),
	}

	_, cerr := ValidateMasternodeVote(tx, transition)
	if cerr == nil || cerr.Stage != StageSignature {
		t.Fatalf("expected a SignatureError for wrong key purpose, got %v", cerr)
	}
}
