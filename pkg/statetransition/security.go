// Copyright 2025 Certen Protocol

package statetransition

import (
	"crypto/ed25519"

	"github.com/driveplatform/core/pkg/bls"
	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/state"
	"github.com/driveplatform/core/pkg/store"
)

// meetsSecurityLevel reports whether a key's level is at least as
// strong as required (lower enum value == stronger, per state.SecurityLevel).
func meetsSecurityLevel(have, required state.SecurityLevel) bool {
	return have <= required
}

// verifySignature checks signature against message using key's declared
// algorithm (spec.md §4.5 step 2: "verifies the signature using the
// key's algorithm").
func verifySignature(key state.IdentityKey, message, signature []byte) *ConsensusError {
	switch key.Type {
	case state.KeyTypeED25519:
		if len(key.Data) != ed25519.PublicKeySize {
			return SignatureError("malformed ed25519 public key")
		}
		if !ed25519.Verify(ed25519.PublicKey(key.Data), message, signature) {
			return SignatureError("ed25519 signature verification failed")
		}
		return nil
	case state.KeyTypeBLS12381:
		pk, err := bls.PublicKeyFromBytes(key.Data)
		if err != nil {
			return SignatureError("malformed BLS public key: %v", err)
		}
		sig, err := bls.SignatureFromBytes(signature)
		if err != nil {
			return SignatureError("malformed BLS signature: %v", err)
		}
		if !pk.VerifyWithDomain(sig, message, bls.DomainStateProof) {
			return SignatureError("BLS signature verification failed")
		}
		return nil
	default:
		return SignatureError("unknown key type %d", key.Type)
	}
}

// resolveSigningKeyChecked looks up keyID on identityID, checking it is
// enabled and meets the purpose/security-level requirement for this
// transition kind (spec.md §4.5 step 2).
func resolveSigningKeyChecked(tx *store.Transaction, identityID schema.Identifier, keyID uint32, requiredPurpose state.KeyPurpose, requiredLevel state.SecurityLevel) (state.IdentityKey, *ConsensusError) {
	key, ok := state.GetIdentityKey(tx, identityID, keyID)
	if !ok {
		return state.IdentityKey{}, SignatureError("key %d not found on identity", keyID)
	}
	if !key.Enabled() {
		return state.IdentityKey{}, SignatureError("key %d is disabled", keyID)
	}
	if key.Purpose != requiredPurpose {
		return state.IdentityKey{}, SignatureError("key %d has purpose %d, transition requires %d", keyID, key.Purpose, requiredPurpose)
	}
	if !meetsSecurityLevel(key.SecurityLevel, requiredLevel) {
		return state.IdentityKey{}, SignatureError("key %d security level %d does not meet required level %d", keyID, key.SecurityLevel, requiredLevel)
	}
	return key, nil
}
