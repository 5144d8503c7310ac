// Copyright 2025 Certen Protocol
//
// Repositories - convenience wrapper for all database repositories
// Provides a single point of access to all repository types

package database

// Repositories holds all repository instances.
type Repositories struct {
	Identities *IdentityRepository
	Contracts  *ContractRepository
	Documents  *DocumentRepository
	Votes      *VoteRepository
}

// NewRepositories creates all repositories with the given client.
func NewRepositories(client *Client) *Repositories {
	return &Repositories{
		Identities: NewIdentityRepository(client),
		Contracts:  NewContractRepository(client),
		Documents:  NewDocumentRepository(client),
		Votes:      NewVoteRepository(client),
	}
}
