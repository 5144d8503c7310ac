// Copyright 2025 Certen Protocol

package database

import (
	"context"
	"testing"
)

func TestVoteRepositoryPollAndChoiceWeights(t *testing.T) {
	if testClient == nil {
		t.Skip("test database not configured")
	}
	ctx := context.Background()
	owner := []byte{30, 30}
	contractID := []byte{31, 31}
	seedContract(t, ctx, owner, contractID)

	votes := NewVoteRepository(testClient)
	pollKey := []byte{32, 32}
	poll := &VotePoll{PollKey: pollKey, ContractID: contractID, DocumentType: "note", IndexName: "byText", EndHeight: 100, CreatedHeight: 1}
	if err := votes.UpsertPoll(ctx, poll); err != nil {
		t.Fatalf("upsert poll: %v", err)
	}

	choiceA := []byte{1}
	choiceB := []byte{2}
	if err := votes.AddChoiceWeight(ctx, pollKey, choiceA, 10); err != nil {
		t.Fatalf("add weight a: %v", err)
	}
	if err := votes.AddChoiceWeight(ctx, pollKey, choiceA, 5); err != nil {
		t.Fatalf("add weight a again: %v", err)
	}
	if err := votes.AddChoiceWeight(ctx, pollKey, choiceB, 20); err != nil {
		t.Fatalf("add weight b: %v", err)
	}

	choices, err := votes.ListChoices(ctx, pollKey)
	if err != nil {
		t.Fatalf("list choices: %v", err)
	}
	if len(choices) != 2 || choices[0].Accumulated != 20 {
		t.Fatalf("expected choice b to lead with 20, got %+v", choices)
	}

	poll.Resolved = true
	poll.WinnerChoice = choiceB
	if err := votes.UpsertPoll(ctx, poll); err != nil {
		t.Fatalf("resolve poll: %v", err)
	}
	got, err := votes.GetPoll(ctx, pollKey)
	if err != nil {
		t.Fatalf("get poll: %v", err)
	}
	if !got.Resolved || string(got.WinnerChoice) != string(choiceB) {
		t.Fatalf("expected resolved poll with winner b, got %+v", got)
	}
}

func TestVoteRepositoryProtocolVersionVotes(t *testing.T) {
	if testClient == nil {
		t.Skip("test database not configured")
	}
	ctx := context.Background()
	votes := NewVoteRepository(testClient)

	if err := votes.RecordProtocolVersionVote(ctx, &ProtocolVersionVote{Height: 100, ProposedVersion: 2, ValidatorCount: 10, VoteCount: 3}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := votes.RecordProtocolVersionVote(ctx, &ProtocolVersionVote{Height: 200, ProposedVersion: 2, ValidatorCount: 10, VoteCount: 8, Activated: true}); err != nil {
		t.Fatalf("record later height: %v", err)
	}

	latest, err := votes.LatestProtocolVersionVote(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Height != 200 || !latest.Activated {
		t.Fatalf("expected height 200 activated, got %+v", latest)
	}
}
