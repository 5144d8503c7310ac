// Copyright 2025 Certen Protocol

package bls

import (
	"bytes"
	"testing"
)

func TestInitializeIsIdempotent(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	if err := Initialize(); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
}

func TestGenerateKeyPair(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key pair: %v", err)
	}
	if !IsValidPrivateKeySize(sk.Bytes()) {
		t.Errorf("invalid private key size: got %d, want %d", len(sk.Bytes()), PrivateKeySize)
	}
	if !IsValidPublicKeySize(pk.Bytes()) {
		t.Errorf("invalid public key size: got %d, want %d", len(pk.Bytes()), PublicKeySize)
	}
}

func TestGenerateKeyPairFromSeedIsDeterministic(t *testing.T) {
	seed := []byte("this is a test seed for BLS key generation - 32+ bytes")
	sk1, pk1, err := GenerateKeyPairFromSeed(seed)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	sk2, pk2, err := GenerateKeyPairFromSeed(seed)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !bytes.Equal(sk1.Bytes(), sk2.Bytes()) {
		t.Error("same seed produced different private keys")
	}
	if !bytes.Equal(pk1.Bytes(), pk2.Bytes()) {
		t.Error("same seed produced different public keys")
	}
}

func TestSignAndVerify(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key pair: %v", err)
	}
	message := []byte("block commit for height 100")
	sig := sk.Sign(message)
	if !IsValidSignatureSize(sig.Bytes()) {
		t.Errorf("invalid signature size: got %d, want %d", len(sig.Bytes()), SignatureSize)
	}
	if !pk.Verify(sig, message) {
		t.Error("valid signature failed to verify")
	}
	if pk.Verify(sig, []byte("a different message")) {
		t.Error("verification succeeded against wrong message")
	}
}

func TestSignWithDomainRejectsWrongDomain(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key pair: %v", err)
	}
	message := []byte("vote attestation payload")
	sig := sk.SignWithDomain(message, DomainVoteAttest)
	if !pk.VerifyWithDomain(sig, message, DomainVoteAttest) {
		t.Error("domain-tagged verification failed")
	}
	if pk.VerifyWithDomain(sig, message, DomainBlockCommit) {
		t.Error("verification succeeded under the wrong domain tag")
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key pair: %v", err)
	}
	sk2, err := PrivateKeyFromBytes(sk.Bytes())
	if err != nil {
		t.Fatalf("roundtrip private key: %v", err)
	}
	if !bytes.Equal(sk.Bytes(), sk2.Bytes()) {
		t.Error("private key roundtrip mismatch")
	}
	pk2, err := PublicKeyFromBytes(pk.Bytes())
	if err != nil {
		t.Fatalf("roundtrip public key: %v", err)
	}
	if !pk.Equal(pk2) {
		t.Error("public key roundtrip mismatch")
	}
}

func TestAggregateSignaturesVerifiesAgainstAggregatePublicKeys(t *testing.T) {
	message := []byte("quorum commit payload")
	var sigs []*Signature
	var pubKeys []*PublicKey
	for i := 0; i < 5; i++ {
		sk, pk, err := GenerateKeyPair()
		if err != nil {
			t.Fatalf("generate key pair %d: %v", i, err)
		}
		sigs = append(sigs, sk.Sign(message))
		pubKeys = append(pubKeys, pk)
	}
	aggSig, err := AggregateSignatures(sigs)
	if err != nil {
		t.Fatalf("aggregate signatures: %v", err)
	}
	if !VerifyAggregateSignature(aggSig, pubKeys, message) {
		t.Error("aggregate signature failed to verify against aggregate public keys")
	}
}

func TestValidatePublicKeySubgroupRejectsWrongSize(t *testing.T) {
	if err := ValidatePublicKeySubgroup([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for undersized public key")
	}
}

func TestValidatePublicKeySubgroupAcceptsGeneratedKey(t *testing.T) {
	_, pk, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key pair: %v", err)
	}
	if err := ValidatePublicKeySubgroup(pk.Bytes()); err != nil {
		t.Errorf("expected valid key to pass subgroup check: %v", err)
	}
}
