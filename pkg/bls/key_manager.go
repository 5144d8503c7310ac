// Copyright 2025 Certen Protocol
//
// KeyManager handles generation, loading, and on-disk storage of a
// masternode's BLS signing key for quorum participation.

package bls

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// KeyManager owns one masternode's BLS key pair.
type KeyManager struct {
	keyPath    string
	privateKey *PrivateKey
	publicKey  *PublicKey
}

func NewKeyManager(keyPath string) *KeyManager {
	return &KeyManager{keyPath: keyPath}
}

// LoadOrGenerateKey loads the key at keyPath, or generates and persists
// a new one if no file exists there yet.
func (km *KeyManager) LoadOrGenerateKey() error {
	if err := Initialize(); err != nil {
		return fmt.Errorf("initialize bls: %w", err)
	}
	if km.keyPath != "" {
		if _, err := os.Stat(km.keyPath); err == nil {
			return km.LoadKey()
		}
	}
	return km.GenerateNewKey()
}

func (km *KeyManager) LoadKey() error {
	if km.keyPath == "" {
		return fmt.Errorf("no key path specified")
	}
	data, err := os.ReadFile(km.keyPath)
	if err != nil {
		return fmt.Errorf("read key file: %w", err)
	}
	keyBytes, err := hex.DecodeString(string(data))
	if err != nil {
		return fmt.Errorf("decode key hex: %w", err)
	}
	km.privateKey, err = PrivateKeyFromBytes(keyBytes)
	if err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}
	km.publicKey = km.privateKey.PublicKey()
	return nil
}

func (km *KeyManager) GenerateNewKey() error {
	var err error
	km.privateKey, km.publicKey, err = GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("generate key pair: %w", err)
	}
	if km.keyPath != "" {
		return km.SaveKey()
	}
	return nil
}

func (km *KeyManager) GenerateFromSeed(seed []byte) error {
	var err error
	km.privateKey, km.publicKey, err = GenerateKeyPairFromSeed(seed)
	if err != nil {
		return fmt.Errorf("generate from seed: %w", err)
	}
	return nil
}

// GenerateFromMasternodeID derives a deterministic key from the
// masternode's pro-reg transaction hash and the chain ID, so a
// restarted node recovers the same quorum key without a key file.
func (km *KeyManager) GenerateFromMasternodeID(masternodeID, chainID string) error {
	seed := sha256.Sum256([]byte(fmt.Sprintf("DRIVE_BLS_KEY_V1:%s:%s", masternodeID, chainID)))
	return km.GenerateFromSeed(seed[:])
}

func (km *KeyManager) SaveKey() error {
	if km.keyPath == "" {
		return fmt.Errorf("no key path specified")
	}
	if km.privateKey == nil {
		return fmt.Errorf("no private key to save")
	}
	dir := filepath.Dir(km.keyPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	keyHex := hex.EncodeToString(km.privateKey.Bytes())
	if err := os.WriteFile(km.keyPath, []byte(keyHex), 0600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

func (km *KeyManager) GetPrivateKey() *PrivateKey { return km.privateKey }
func (km *KeyManager) GetPublicKey() *PublicKey   { return km.publicKey }

func (km *KeyManager) GetPublicKeyBytes() []byte {
	if km.publicKey == nil {
		return nil
	}
	return km.publicKey.Bytes()
}

func (km *KeyManager) GetPublicKeyHex() string {
	if km.publicKey == nil {
		return ""
	}
	return km.publicKey.Hex()
}

func (km *KeyManager) Sign(message []byte) (*Signature, error) {
	if km.privateKey == nil {
		return nil, fmt.Errorf("no private key loaded")
	}
	return km.privateKey.Sign(message), nil
}

func (km *KeyManager) SignWithDomain(message []byte, domain string) (*Signature, error) {
	if km.privateKey == nil {
		return nil, fmt.Errorf("no private key loaded")
	}
	return km.privateKey.SignWithDomain(message, domain), nil
}
