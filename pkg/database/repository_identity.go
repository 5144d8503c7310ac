// Copyright 2025 Certen Protocol
//
// Identity Repository - read-index CRUD for identities and their keys

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// IdentityRepository handles identity read-index operations.
type IdentityRepository struct {
	client *Client
}

// NewIdentityRepository creates a new identity repository.
func NewIdentityRepository(client *Client) *IdentityRepository {
	return &IdentityRepository{client: client}
}

// Upsert mirrors a committed identity into the read-index.
func (r *IdentityRepository) Upsert(ctx context.Context, id *Identity) error {
	query := `
		INSERT INTO identities (identity_id, revision, balance, nonce, public_key_hash, created_height, updated_height)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (identity_id) DO UPDATE SET
			revision = EXCLUDED.revision,
			balance = EXCLUDED.balance,
			nonce = EXCLUDED.nonce,
			public_key_hash = EXCLUDED.public_key_hash,
			updated_height = EXCLUDED.updated_height,
			updated_at = now()`

	_, err := r.client.ExecContext(ctx, query,
		id.IdentityID, id.Revision, id.Balance, id.Nonce, id.PublicKeyHash, id.CreatedHeight, id.UpdatedHeight)
	if err != nil {
		return fmt.Errorf("failed to upsert identity: %w", err)
	}
	return nil
}

// Get retrieves an identity by ID.
func (r *IdentityRepository) Get(ctx context.Context, identityID []byte) (*Identity, error) {
	query := `
		SELECT identity_id, revision, balance, nonce, public_key_hash, created_height, updated_height, updated_at
		FROM identities
		WHERE identity_id = $1`

	id := &Identity{}
	err := r.client.QueryRowContext(ctx, query, identityID).Scan(
		&id.IdentityID, &id.Revision, &id.Balance, &id.Nonce, &id.PublicKeyHash,
		&id.CreatedHeight, &id.UpdatedHeight, &id.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	return id, nil
}

// GetByPublicKeyHash retrieves an identity by one of its key hashes.
func (r *IdentityRepository) GetByPublicKeyHash(ctx context.Context, hash []byte) (*Identity, error) {
	query := `
		SELECT identity_id, revision, balance, nonce, public_key_hash, created_height, updated_height, updated_at
		FROM identities
		WHERE public_key_hash = $1`

	id := &Identity{}
	err := r.client.QueryRowContext(ctx, query, hash).Scan(
		&id.IdentityID, &id.Revision, &id.Balance, &id.Nonce, &id.PublicKeyHash,
		&id.CreatedHeight, &id.UpdatedHeight, &id.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity by public key hash: %w", err)
	}
	return id, nil
}

// UpsertKey mirrors one of an identity's keys into the read-index.
func (r *IdentityRepository) UpsertKey(ctx context.Context, key *IdentityKeyRow) error {
	query := `
		INSERT INTO identity_keys (identity_id, key_id, purpose, security_level, key_type, public_key, disabled_height)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (identity_id, key_id) DO UPDATE SET
			disabled_height = EXCLUDED.disabled_height`

	_, err := r.client.ExecContext(ctx, query,
		key.IdentityID, key.KeyID, key.Purpose, key.SecurityLevel, key.KeyType, key.PublicKey, key.DisabledHeight)
	if err != nil {
		return fmt.Errorf("failed to upsert identity key: %w", err)
	}
	return nil
}

// ListKeys returns every key recorded for an identity, ordered by key ID.
func (r *IdentityRepository) ListKeys(ctx context.Context, identityID []byte) ([]*IdentityKeyRow, error) {
	query := `
		SELECT identity_id, key_id, purpose, security_level, key_type, public_key, disabled_height
		FROM identity_keys
		WHERE identity_id = $1
		ORDER BY key_id`

	rows, err := r.client.QueryContext(ctx, query, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list identity keys: %w", err)
	}
	defer rows.Close()

	var keys []*IdentityKeyRow
	for rows.Next() {
		k := &IdentityKeyRow{}
		if err := rows.Scan(&k.IdentityID, &k.KeyID, &k.Purpose, &k.SecurityLevel, &k.KeyType, &k.PublicKey, &k.DisabledHeight); err != nil {
			return nil, fmt.Errorf("failed to scan identity key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
