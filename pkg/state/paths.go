// Copyright 2025 Certen Protocol
//
// Root subtree paths (spec.md §3: "Root subtrees (constant byte tags)").

package state

import "github.com/driveplatform/core/pkg/schema"

const (
	RootIdentities                 = "Identities"
	RootBalances                   = "Balances"
	RootUniqueKeyHashes             = "UniqueKeyHashes"
	RootNonUniqueKeyHashes          = "NonUniqueKeyHashes"
	RootContracts                  = "Contracts"
	RootPools                      = "Pools"
	RootMisc                       = "Misc"
	RootVersions                   = "Versions"
	RootPreFundedSpecializedBalances = "PreFundedSpecializedBalances"
	RootVotes                      = "Votes"
	RootWithdrawals                = "Withdrawals"
)

func idHex(id schema.Identifier) string { return id.String() }

// IdentityPath is the subtree holding one identity's record.
func IdentityPath(id schema.Identifier) []string {
	return []string{RootIdentities, idHex(id)}
}

// BalancePath is the sum-tree subtree holding one identity's balance and
// negative-balance leaves.
func BalancePath(id schema.Identifier) []string {
	return []string{RootBalances, idHex(id)}
}

// ContractPath is the subtree holding one contract's record.
func ContractPath(contractID schema.Identifier) []string {
	return []string{RootContracts, idHex(contractID)}
}

// DocumentPath is the primary-storage subtree for one document type
// within a contract (spec.md §4.4: "Contracts/<contract_id>/Documents/<type>").
func DocumentPath(contractID schema.Identifier, docType string) []string {
	return []string{RootContracts, idHex(contractID), "Documents", docType}
}

// IndexPath is the subtree for one declared index of a document type.
func IndexPath(contractID schema.Identifier, docType, indexName string) []string {
	return []string{RootContracts, idHex(contractID), "Indexes", docType, indexName}
}

// VotePollPath is the subtree holding one contested vote poll's state.
func VotePollPath(contractID schema.Identifier, docType, indexName, pollKey string) []string {
	return []string{RootVotes, idHex(contractID), docType, indexName, pollKey}
}

// PrefundedBalancePath is the sum tree shared by every prefunded
// specialized balance; each balance is one leaf keyed by its ID.
func PrefundedBalancePath() []string {
	return []string{RootPreFundedSpecializedBalances}
}

// KeysPath is the subtree holding one identity's IdentityPublicKey set.
func KeysPath(id schema.Identifier) []string {
	return append(IdentityPath(id), "Keys")
}
