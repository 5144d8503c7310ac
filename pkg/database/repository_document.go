// Copyright 2025 Certen Protocol
//
// Document Repository - read-index CRUD for committed documents

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// DocumentQuery narrows a document listing by contract, type, owner, and
// tombstone visibility (spec.md §6 query interface GetDocuments).
type DocumentQuery struct {
	ContractID   []byte
	DocumentType string
	OwnerID      []byte
	IncludeDeleted bool
	Limit        int
	Offset       int
}

// DocumentRepository handles document read-index operations.
type DocumentRepository struct {
	client *Client
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(client *Client) *DocumentRepository {
	return &DocumentRepository{client: client}
}

// Upsert mirrors a committed document into the read-index.
func (r *DocumentRepository) Upsert(ctx context.Context, d *Document) error {
	query := `
		INSERT INTO documents (document_id, contract_id, document_type, owner_id, revision, data, deleted, created_height, updated_height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (document_id) DO UPDATE SET
			revision = EXCLUDED.revision,
			data = EXCLUDED.data,
			deleted = EXCLUDED.deleted,
			updated_height = EXCLUDED.updated_height,
			updated_at = now()`

	_, err := r.client.ExecContext(ctx, query,
		d.DocumentID, d.ContractID, d.DocumentType, d.OwnerID, d.Revision, d.Data, d.Deleted, d.CreatedHeight, d.UpdatedHeight)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (r *DocumentRepository) Get(ctx context.Context, documentID []byte) (*Document, error) {
	query := `
		SELECT document_id, contract_id, document_type, owner_id, revision, data, deleted, created_height, updated_height, updated_at
		FROM documents
		WHERE document_id = $1`

	d := &Document{}
	err := r.client.QueryRowContext(ctx, query, documentID).Scan(
		&d.DocumentID, &d.ContractID, &d.DocumentType, &d.OwnerID, &d.Revision, &d.Data, &d.Deleted,
		&d.CreatedHeight, &d.UpdatedHeight, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

// List returns documents matching q, newest first, paginated.
func (r *DocumentRepository) List(ctx context.Context, q DocumentQuery) ([]*Document, error) {
	limit := q.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `
		SELECT document_id, contract_id, document_type, owner_id, revision, data, deleted, created_height, updated_height, updated_at
		FROM documents
		WHERE contract_id = $1 AND document_type = $2
			AND ($3::bytea IS NULL OR owner_id = $3)
			AND (deleted = false OR $4)
		ORDER BY updated_height DESC
		LIMIT $5 OFFSET $6`

	var ownerID interface{}
	if len(q.OwnerID) > 0 {
		ownerID = q.OwnerID
	}

	rows, err := r.client.QueryContext(ctx, query, q.ContractID, q.DocumentType, ownerID, q.IncludeDeleted, limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		d := &Document{}
		if err := rows.Scan(&d.DocumentID, &d.ContractID, &d.DocumentType, &d.OwnerID, &d.Revision, &d.Data, &d.Deleted,
			&d.CreatedHeight, &d.UpdatedHeight, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
