// Copyright 2025 Certen Protocol
//
// Package proofverifier implements the Proof Verifier (PV) described in
// spec.md §4.9: stateless verification that reproduces a committed root
// hash from proof bytes and a query descriptor, optionally checking a
// masternode quorum signature over that root. Grounded on the teacher's
// pkg/proof/liteclient_adapter.go (VerifyProof: structural validation
// plus cryptographic Merkle-path verification, returning named error
// classes) and pkg/store's inclusion-proof machinery; quorum checks
// reuse pkg/bls's Quorum/VerifyThresholdSignature rather than the
// teacher's bespoke Merkle-path walk, since pkg/store already owns that
// recomputation.

package proofverifier

import (
	"encoding/hex"

	"github.com/driveplatform/core/pkg/bls"
	"github.com/driveplatform/core/pkg/pvr"
	"github.com/driveplatform/core/pkg/store"
)

// QuorumDomain is the BLS signing domain masternode quorums sign
// committed roots under.
const QuorumDomain = "certen/proofverifier/quorum-v0"

// QueryDescriptor identifies what a proof claims to answer: a path/key
// pair within the authenticated store, and whether the caller expects a
// value to be present at that key.
type QueryDescriptor struct {
	Path          []string
	Key           []byte
	ExpectPresent bool
}

// QuorumInfo carries the masternode quorum's aggregate BLS signature
// over a committed root, binding a proof to a specific block (spec.md
// §4.9: InvalidQuorum covers a signature that fails this check).
type QuorumInfo struct {
	PublicKeys    [][]byte
	Threshold     int
	SignerIndices []int
	AggregateSig  []byte
	Domain        string
}

// Proof is the wire shape a caller presents to Verify: the raw value at
// Key (nil if the proof attests absence), the Merkle inclusion proof
// binding that value to a root, and optionally a quorum signature
// binding that root to a block.
type Proof struct {
	Value     []byte
	Inclusion *store.InclusionProof
	Quorum    *QuorumInfo
}

// Result is the typed outcome of a successful verification.
type Result struct {
	RootHash []byte
	Found    bool
	Value    []byte
}

// Verify reproduces expectedRoot from proof and checks any presented
// quorum signature over it, returning a typed Result or one of the four
// named VerificationError kinds. protocolVersion selects PVR's
// algorithm variant for proof verification; V0 has exactly one, so
// registry is consulted only to reject an unknown protocol version, not
// to branch on a selector yet.
func Verify(registry *pvr.Registry, protocolVersion uint32, descriptor QueryDescriptor, proof *Proof, expectedRoot []byte) (*Result, error) {
	if registry != nil {
		if _, err := registry.Lookup(protocolVersion); err != nil {
			return nil, err
		}
	}
	if proof == nil {
		return nil, emptyResponse("no proof presented for key %x", descriptor.Key)
	}
	if proof.Inclusion == nil {
		return nil, emptyResponse("no inclusion proof presented for key %x", descriptor.Key)
	}
	if descriptor.ExpectPresent && len(proof.Value) == 0 {
		return nil, documentMissing("expected a value at key %x but proof carries none", descriptor.Key)
	}

	leaf, err := hex.DecodeString(proof.Inclusion.LeafHash)
	if err != nil {
		return nil, documentMissing("invalid leaf hash encoding: %v", err)
	}
	ok, err := store.VerifyInclusionProof(leaf, proof.Inclusion, expectedRoot)
	if err != nil {
		return nil, documentMissing("%v", err)
	}
	if !ok {
		return nil, documentMissing("inclusion proof does not reproduce the expected root for key %x", descriptor.Key)
	}

	if proof.Quorum != nil {
		if err := verifyQuorum(proof.Quorum, expectedRoot); err != nil {
			return nil, err
		}
	}

	return &Result{RootHash: expectedRoot, Found: len(proof.Value) > 0, Value: proof.Value}, nil
}

func verifyQuorum(q *QuorumInfo, message []byte) error {
	if len(q.AggregateSig) == 0 || len(q.PublicKeys) == 0 {
		return invalidQuorum("quorum info missing signature or public keys")
	}
	pubKeys := make([]*bls.PublicKey, len(q.PublicKeys))
	for i, raw := range q.PublicKeys {
		pk, err := bls.PublicKeyFromBytes(raw)
		if err != nil {
			return invalidSignature("invalid public key at index %d: %v", i, err)
		}
		pubKeys[i] = pk
	}
	quorum, err := bls.NewQuorum(pubKeys, q.Threshold)
	if err != nil {
		return invalidQuorum("%v", err)
	}
	aggSig, err := bls.SignatureFromBytes(q.AggregateSig)
	if err != nil {
		return invalidSignature("invalid aggregate signature: %v", err)
	}
	domain := q.Domain
	if domain == "" {
		domain = QuorumDomain
	}
	if err := quorum.VerifyThresholdSignature(q.SignerIndices, aggSig, message, domain); err != nil {
		return invalidQuorum("%v", err)
	}
	return nil
}
