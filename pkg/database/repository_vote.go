// Copyright 2025 Certen Protocol
//
// Vote Repository - read-index CRUD for contested-index vote polls and
// protocol version upgrade votes (spec.md §6 GetProtocolVersionUpgradeVoteStatus)

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// VoteRepository handles vote-poll and protocol-version-vote read-index operations.
type VoteRepository struct {
	client *Client
}

// NewVoteRepository creates a new vote repository.
func NewVoteRepository(client *Client) *VoteRepository {
	return &VoteRepository{client: client}
}

// UpsertPoll mirrors a committed vote poll into the read-index.
func (r *VoteRepository) UpsertPoll(ctx context.Context, p *VotePoll) error {
	query := `
		INSERT INTO vote_polls (poll_key, contract_id, document_type, index_name, end_height, resolved, winner_choice, created_height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (poll_key) DO UPDATE SET
			resolved = EXCLUDED.resolved,
			winner_choice = EXCLUDED.winner_choice,
			updated_at = now()`

	_, err := r.client.ExecContext(ctx, query,
		p.PollKey, p.ContractID, p.DocumentType, p.IndexName, p.EndHeight, p.Resolved, p.WinnerChoice, p.CreatedHeight)
	if err != nil {
		return fmt.Errorf("failed to upsert vote poll: %w", err)
	}
	return nil
}

// GetPoll retrieves a vote poll by key.
func (r *VoteRepository) GetPoll(ctx context.Context, pollKey []byte) (*VotePoll, error) {
	query := `
		SELECT poll_key, contract_id, document_type, index_name, end_height, resolved, winner_choice, created_height, updated_at
		FROM vote_polls
		WHERE poll_key = $1`

	p := &VotePoll{}
	err := r.client.QueryRowContext(ctx, query, pollKey).Scan(
		&p.PollKey, &p.ContractID, &p.DocumentType, &p.IndexName, &p.EndHeight, &p.Resolved, &p.WinnerChoice, &p.CreatedHeight, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote poll: %w", err)
	}
	return p, nil
}

// AddChoiceWeight accumulates a vote's cost onto a poll choice's running total.
func (r *VoteRepository) AddChoiceWeight(ctx context.Context, pollKey, choice []byte, weight uint64) error {
	query := `
		INSERT INTO vote_poll_choices (poll_key, choice, accumulated)
		VALUES ($1, $2, $3)
		ON CONFLICT (poll_key, choice) DO UPDATE SET
			accumulated = vote_poll_choices.accumulated + EXCLUDED.accumulated`

	_, err := r.client.ExecContext(ctx, query, pollKey, choice, weight)
	if err != nil {
		return fmt.Errorf("failed to accumulate vote poll choice weight: %w", err)
	}
	return nil
}

// ListChoices returns every choice recorded against a poll, highest weight first.
func (r *VoteRepository) ListChoices(ctx context.Context, pollKey []byte) ([]*VotePollChoice, error) {
	query := `
		SELECT poll_key, choice, accumulated
		FROM vote_poll_choices
		WHERE poll_key = $1
		ORDER BY accumulated DESC`

	rows, err := r.client.QueryContext(ctx, query, pollKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list vote poll choices: %w", err)
	}
	defer rows.Close()

	var choices []*VotePollChoice
	for rows.Next() {
		c := &VotePollChoice{}
		if err := rows.Scan(&c.PollKey, &c.Choice, &c.Accumulated); err != nil {
			return nil, fmt.Errorf("failed to scan vote poll choice: %w", err)
		}
		choices = append(choices, c)
	}
	return choices, rows.Err()
}

// RecordProtocolVersionVote upserts one height's protocol-upgrade tally.
func (r *VoteRepository) RecordProtocolVersionVote(ctx context.Context, v *ProtocolVersionVote) error {
	query := `
		INSERT INTO protocol_version_votes (height, proposed_version, validator_count, vote_count, activated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (height) DO UPDATE SET
			vote_count = EXCLUDED.vote_count,
			activated = EXCLUDED.activated`

	_, err := r.client.ExecContext(ctx, query, v.Height, v.ProposedVersion, v.ValidatorCount, v.VoteCount, v.Activated)
	if err != nil {
		return fmt.Errorf("failed to record protocol version vote: %w", err)
	}
	return nil
}

// LatestProtocolVersionVote returns the most recent upgrade-vote tally, used
// by GetProtocolVersionUpgradeVoteStatus.
func (r *VoteRepository) LatestProtocolVersionVote(ctx context.Context) (*ProtocolVersionVote, error) {
	query := `
		SELECT height, proposed_version, validator_count, vote_count, activated, recorded_at
		FROM protocol_version_votes
		ORDER BY height DESC
		LIMIT 1`

	v := &ProtocolVersionVote{}
	err := r.client.QueryRowContext(ctx, query).Scan(
		&v.Height, &v.ProposedVersion, &v.ValidatorCount, &v.VoteCount, &v.Activated, &v.RecordedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest protocol version vote: %w", err)
	}
	return v, nil
}
