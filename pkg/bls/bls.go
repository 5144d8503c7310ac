// Copyright 2025 Certen Protocol
//
// Package bls provides BLS12-381 signatures for masternode quorum
// consensus: block commit signatures, contested-vote attestations, and
// state transition co-signing. Pure Go via gnark-crypto.

package bls

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sync"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

var (
	initOnce sync.Once

	g1Gen bls12381.G1Affine
	g2Gen bls12381.G2Affine
)

// Domain separation tags for the signature roles this module produces.
const (
	DomainBlockCommit   = "DRIVE_BLOCK_COMMIT_V1"
	DomainVoteAttest    = "DRIVE_VOTE_ATTEST_V1"
	DomainStateProof    = "DRIVE_STATE_PROOF_V1"
	DomainQuorumRotate  = "DRIVE_QUORUM_ROTATE_V1"
)

const (
	PrivateKeySize = 32
	PublicKeySize  = 96
	SignatureSize  = 48
)

// Initialize sets up the curve generator points. Safe to call repeatedly.
func Initialize() error {
	initOnce.Do(func() {
		_, _, g1GenPoint, g2GenPoint := bls12381.Generators()
		g1Gen = g1GenPoint
		g2Gen = g2GenPoint
	})
	return nil
}

// PrivateKey is a BLS12-381 scalar in Fr.
type PrivateKey struct {
	scalar fr.Element
}

// PublicKey is a point on G2.
type PublicKey struct {
	point bls12381.G2Affine
}

// Signature is a point on G1.
type Signature struct {
	point bls12381.G1Affine
}

// GenerateKeyPair produces a new key pair from the system random source.
func GenerateKeyPair() (*PrivateKey, *PublicKey, error) {
	if err := Initialize(); err != nil {
		return nil, nil, fmt.Errorf("initialize bls: %w", err)
	}
	var sk fr.Element
	if _, err := sk.SetRandom(); err != nil {
		return nil, nil, fmt.Errorf("generate random scalar: %w", err)
	}
	priv := &PrivateKey{scalar: sk}
	return priv, priv.PublicKey(), nil
}

// GenerateKeyPairFromSeed derives a deterministic key pair, used to give
// each masternode a reproducible quorum key across restarts.
func GenerateKeyPairFromSeed(seed []byte) (*PrivateKey, *PublicKey, error) {
	if err := Initialize(); err != nil {
		return nil, nil, fmt.Errorf("initialize bls: %w", err)
	}
	if len(seed) < 32 {
		return nil, nil, errors.New("seed must be at least 32 bytes")
	}
	hash := sha256.Sum256(seed)
	var sk fr.Element
	sk.SetBytes(hash[:])
	priv := &PrivateKey{scalar: sk}
	return priv, priv.PublicKey(), nil
}

func PrivateKeyFromBytes(data []byte) (*PrivateKey, error) {
	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("initialize bls: %w", err)
	}
	if len(data) != PrivateKeySize {
		return nil, fmt.Errorf("invalid private key size: got %d, want %d", len(data), PrivateKeySize)
	}
	var sk fr.Element
	sk.SetBytes(data)
	return &PrivateKey{scalar: sk}, nil
}

func PrivateKeyFromHex(hexStr string) (*PrivateKey, error) {
	data, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return PrivateKeyFromBytes(data)
}

func PublicKeyFromBytes(data []byte) (*PublicKey, error) {
	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("initialize bls: %w", err)
	}
	var pk bls12381.G2Affine
	if _, err := pk.SetBytes(data); err != nil {
		return nil, fmt.Errorf("deserialize public key: %w", err)
	}
	return &PublicKey{point: pk}, nil
}

func PublicKeyFromHex(hexStr string) (*PublicKey, error) {
	data, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return PublicKeyFromBytes(data)
}

func SignatureFromBytes(data []byte) (*Signature, error) {
	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("initialize bls: %w", err)
	}
	var sig bls12381.G1Affine
	if _, err := sig.SetBytes(data); err != nil {
		return nil, fmt.Errorf("deserialize signature: %w", err)
	}
	return &Signature{point: sig}, nil
}

func SignatureFromHex(hexStr string) (*Signature, error) {
	data, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return SignatureFromBytes(data)
}

func (sk *PrivateKey) Bytes() []byte {
	b := sk.scalar.Bytes()
	return b[:]
}

func (sk *PrivateKey) Hex() string { return hex.EncodeToString(sk.Bytes()) }

// PublicKey derives pk = sk * G2.
func (sk *PrivateKey) PublicKey() *PublicKey {
	var pk bls12381.G2Affine
	var skBig big.Int
	sk.scalar.BigInt(&skBig)
	pk.ScalarMultiplication(&g2Gen, &skBig)
	return &PublicKey{point: pk}
}

// Sign computes sig = sk * H(message).
func (sk *PrivateKey) Sign(message []byte) *Signature {
	h := hashToG1(message)
	var sig bls12381.G1Affine
	var skBig big.Int
	sk.scalar.BigInt(&skBig)
	sig.ScalarMultiplication(&h, &skBig)
	return &Signature{point: sig}
}

// SignWithDomain signs H(domain || message), per DomainBlockCommit etc.
func (sk *PrivateKey) SignWithDomain(message []byte, domain string) *Signature {
	return sk.Sign(computeDomainMessage(domain, message))
}

func (pk *PublicKey) Bytes() []byte {
	b := pk.point.Bytes()
	return b[:]
}

func (pk *PublicKey) Hex() string { return hex.EncodeToString(pk.Bytes()) }

// Verify checks e(sig, G2) == e(H(message), pk) via a pairing product.
func (pk *PublicKey) Verify(sig *Signature, message []byte) bool {
	h := hashToG1(message)
	var negPk bls12381.G2Affine
	negPk.Neg(&pk.point)
	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{sig.point, h},
		[]bls12381.G2Affine{g2Gen, negPk},
	)
	if err != nil {
		return false
	}
	return ok
}

func (pk *PublicKey) VerifyWithDomain(sig *Signature, message []byte, domain string) bool {
	return pk.Verify(sig, computeDomainMessage(domain, message))
}

func (pk *PublicKey) Equal(other *PublicKey) bool { return pk.point.Equal(&other.point) }

func (sig *Signature) Bytes() []byte {
	b := sig.point.Bytes()
	return b[:]
}

func (sig *Signature) Hex() string { return hex.EncodeToString(sig.Bytes()) }

// AggregateSignatures sums G1 points, producing one signature that
// verifies against the aggregate of the signers' public keys.
func AggregateSignatures(signatures []*Signature) (*Signature, error) {
	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("initialize bls: %w", err)
	}
	if len(signatures) == 0 {
		return nil, errors.New("no signatures to aggregate")
	}
	var agg bls12381.G1Jac
	agg.FromAffine(&signatures[0].point)
	for i := 1; i < len(signatures); i++ {
		var jac bls12381.G1Jac
		jac.FromAffine(&signatures[i].point)
		agg.AddAssign(&jac)
	}
	var result bls12381.G1Affine
	result.FromJacobian(&agg)
	return &Signature{point: result}, nil
}

// AggregatePublicKeys sums G2 points.
func AggregatePublicKeys(publicKeys []*PublicKey) (*PublicKey, error) {
	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("initialize bls: %w", err)
	}
	if len(publicKeys) == 0 {
		return nil, errors.New("no public keys to aggregate")
	}
	var agg bls12381.G2Jac
	agg.FromAffine(&publicKeys[0].point)
	for i := 1; i < len(publicKeys); i++ {
		var jac bls12381.G2Jac
		jac.FromAffine(&publicKeys[i].point)
		agg.AddAssign(&jac)
	}
	var result bls12381.G2Affine
	result.FromJacobian(&agg)
	return &PublicKey{point: result}, nil
}

// VerifyAggregateSignature checks aggSig against the aggregate of
// publicKeys, all of whom must have signed the same message — the
// shape used to check a quorum commit against its member set.
func VerifyAggregateSignature(aggSig *Signature, publicKeys []*PublicKey, message []byte) bool {
	if err := Initialize(); err != nil {
		return false
	}
	if len(publicKeys) == 0 {
		return false
	}
	aggPk, err := AggregatePublicKeys(publicKeys)
	if err != nil {
		return false
	}
	return aggPk.Verify(aggSig, message)
}

func VerifyAggregateSignatureWithDomain(aggSig *Signature, publicKeys []*PublicKey, message []byte, domain string) bool {
	return VerifyAggregateSignature(aggSig, publicKeys, computeDomainMessage(domain, message))
}

// hashToG1 maps a message onto a point on G1, retrying the
// hash-and-increment construction until a valid point is found.
func hashToG1(message []byte) bls12381.G1Affine {
	h := sha256.New()
	h.Write([]byte("BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_"))
	h.Write(message)

	var counter uint64
	for {
		h2 := sha256.New()
		h2.Write(h.Sum(nil))
		binary.Write(h2, binary.BigEndian, counter)
		hash := h2.Sum(nil)

		var point bls12381.G1Affine
		if _, err := point.SetBytes(hash); err == nil && !point.IsInfinity() {
			return point
		}

		var scalar fr.Element
		scalar.SetBytes(hash)
		var scalarBig big.Int
		scalar.BigInt(&scalarBig)

		var result bls12381.G1Affine
		result.ScalarMultiplication(&g1Gen, &scalarBig)
		if !result.IsInfinity() {
			return result
		}

		counter++
		if counter > 1000 {
			return g1Gen
		}
	}
}

func computeDomainMessage(domain string, message []byte) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write(message)
	return h.Sum(nil)
}

// ComputeMessageHash hashes domain-tagged data for a signature that
// block producers and quorum members must agree on byte-for-byte.
func ComputeMessageHash(domain string, data ...[]byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	for _, d := range data {
		h.Write(d)
	}
	var result [32]byte
	copy(result[:], h.Sum(nil))
	return result
}

func IsValidPublicKeySize(data []byte) bool { return len(data) == PublicKeySize }
func IsValidSignatureSize(data []byte) bool { return len(data) == SignatureSize }
func IsValidPrivateKeySize(data []byte) bool { return len(data) == PrivateKeySize }

// ValidatePublicKeySubgroup rejects keys that decode but are off-curve,
// identity, or outside the prime-order subgroup — required before
// trusting a key in quorum aggregation to foreclose rogue-key attacks.
func ValidatePublicKeySubgroup(pubKeyBytes []byte) error {
	if err := Initialize(); err != nil {
		return fmt.Errorf("initialize bls: %w", err)
	}
	if len(pubKeyBytes) != PublicKeySize {
		return fmt.Errorf("invalid public key size: got %d, expected %d", len(pubKeyBytes), PublicKeySize)
	}
	var pk bls12381.G2Affine
	if _, err := pk.SetBytes(pubKeyBytes); err != nil {
		return fmt.Errorf("invalid public key encoding: %w", err)
	}
	if !pk.IsOnCurve() {
		return errors.New("public key not on BLS12-381 G2 curve")
	}
	if pk.IsInfinity() {
		return errors.New("public key is identity point")
	}
	if !pk.IsInSubGroup() {
		return errors.New("public key not in correct G2 subgroup")
	}
	return nil
}

func ValidateSignatureSubgroup(sigBytes []byte) error {
	if err := Initialize(); err != nil {
		return fmt.Errorf("initialize bls: %w", err)
	}
	if len(sigBytes) != SignatureSize {
		return fmt.Errorf("invalid signature size: got %d, expected %d", len(sigBytes), SignatureSize)
	}
	var sig bls12381.G1Affine
	if _, err := sig.SetBytes(sigBytes); err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	if !sig.IsOnCurve() {
		return errors.New("signature not on BLS12-381 G1 curve")
	}
	if sig.IsInfinity() {
		return errors.New("signature is identity point")
	}
	if !sig.IsInSubGroup() {
		return errors.New("signature not in correct G1 subgroup")
	}
	return nil
}

func (pk *PublicKey) IsValid() bool {
	if pk == nil {
		return false
	}
	return pk.point.IsOnCurve() && !pk.point.IsInfinity() && pk.point.IsInSubGroup()
}

func (sig *Signature) IsValid() bool {
	if sig == nil {
		return false
	}
	return sig.point.IsOnCurve() && !sig.point.IsInfinity() && sig.point.IsInSubGroup()
}

// ValidateAllPublicKeys checks every key in a quorum member list,
// returning the index of the first invalid one.
func ValidateAllPublicKeys(pubKeys [][]byte) error {
	for i, pk := range pubKeys {
		if err := ValidatePublicKeySubgroup(pk); err != nil {
			return fmt.Errorf("invalid public key at index %d: %w", i, err)
		}
	}
	return nil
}
