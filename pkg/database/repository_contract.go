// Copyright 2025 Certen Protocol
//
// Contract Repository - read-index CRUD for compiled data contracts

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// ContractRepository handles data contract read-index operations.
type ContractRepository struct {
	client *Client
}

// NewContractRepository creates a new contract repository.
func NewContractRepository(client *Client) *ContractRepository {
	return &ContractRepository{client: client}
}

// Upsert mirrors a committed data contract into the read-index.
func (r *ContractRepository) Upsert(ctx context.Context, c *DataContract) error {
	query := `
		INSERT INTO data_contracts (contract_id, owner_id, version, definition, created_height, updated_height)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (contract_id) DO UPDATE SET
			version = EXCLUDED.version,
			definition = EXCLUDED.definition,
			updated_height = EXCLUDED.updated_height,
			updated_at = now()`

	_, err := r.client.ExecContext(ctx, query,
		c.ContractID, c.OwnerID, c.Version, c.Definition, c.CreatedHeight, c.UpdatedHeight)
	if err != nil {
		return fmt.Errorf("failed to upsert data contract: %w", err)
	}
	return nil
}

// Get retrieves a data contract by ID.
func (r *ContractRepository) Get(ctx context.Context, contractID []byte) (*DataContract, error) {
	query := `
		SELECT contract_id, owner_id, version, definition, created_height, updated_height, updated_at
		FROM data_contracts
		WHERE contract_id = $1`

	c := &DataContract{}
	err := r.client.QueryRowContext(ctx, query, contractID).Scan(
		&c.ContractID, &c.OwnerID, &c.Version, &c.Definition, &c.CreatedHeight, &c.UpdatedHeight, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data contract: %w", err)
	}
	return c, nil
}

// GetMany retrieves multiple data contracts by ID, skipping IDs not found.
func (r *ContractRepository) GetMany(ctx context.Context, contractIDs [][]byte) ([]*DataContract, error) {
	out := make([]*DataContract, 0, len(contractIDs))
	for _, id := range contractIDs {
		c, err := r.Get(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ListByOwner returns every data contract owned by an identity.
func (r *ContractRepository) ListByOwner(ctx context.Context, ownerID []byte) ([]*DataContract, error) {
	query := `
		SELECT contract_id, owner_id, version, definition, created_height, updated_height, updated_at
		FROM data_contracts
		WHERE owner_id = $1
		ORDER BY created_height`

	rows, err := r.client.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list data contracts by owner: %w", err)
	}
	defer rows.Close()

	var contracts []*DataContract
	for rows.Next() {
		c := &DataContract{}
		if err := rows.Scan(&c.ContractID, &c.OwnerID, &c.Version, &c.Definition, &c.CreatedHeight, &c.UpdatedHeight, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan data contract: %w", err)
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}
