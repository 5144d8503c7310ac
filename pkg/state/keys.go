// Copyright 2025 Certen Protocol
//
// Identity public key management (spec.md §3 IdentityPublicKey row):
// keys are added at identity-create/update, soft-disabled by update, and
// never physically removed. At least one enabled MASTER-level key must
// remain at all times.

package state

import (
	"encoding/json"

	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/store"
)

type KeyPurpose int

const (
	PurposeAuthentication KeyPurpose = iota
	PurposeEncryption
	PurposeDecryption
	PurposeTransfer
	PurposeSystem
	PurposeVoting
)

type SecurityLevel int

const (
	LevelMaster SecurityLevel = iota
	LevelCritical
	LevelHigh
	LevelMedium
)

type KeyType int

const (
	KeyTypeED25519 KeyType = iota
	KeyTypeBLS12381
)

// IdentityKey is one IdentityPublicKey record.
type IdentityKey struct {
	KeyID         uint32
	Purpose       KeyPurpose
	SecurityLevel SecurityLevel
	Type          KeyType
	Data          []byte
	ReadOnly      bool
	DisabledAt    uint64 // 0 means not disabled
}

func (k IdentityKey) Enabled() bool { return k.DisabledAt == 0 }

const keyIDsLeaf = "key_ids"

func keyLeaf(keyID uint32) []byte {
	b := make([]byte, 5)
	b[0] = 'k'
	b[1] = byte(keyID >> 24)
	b[2] = byte(keyID >> 16)
	b[3] = byte(keyID >> 8)
	b[4] = byte(keyID)
	return b
}

// AddIdentityKeyOps appends a new key to id's key set. It rejects a
// duplicate KeyID.
func AddIdentityKeyOps(tx *store.Transaction, id schema.Identifier, key IdentityKey) ([]store.Op, error) {
	path := KeysPath(id)
	if _, exists := tx.Get(path, keyLeaf(key.KeyID)); exists {
		return nil, ErrDuplicateKeyID
	}
	ids, err := readKeyIDs(tx, id)
	if err != nil {
		return nil, err
	}
	ids = append(ids, key.KeyID)
	encoded, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}
	return []store.Op{
		store.Insert(path, keyLeaf(key.KeyID), store.NewItem(encoded)),
		store.Insert(path, []byte(keyIDsLeaf), store.NewItem(encodeKeyIDs(ids))),
	}, nil
}

// DisableIdentityKeyOps soft-disables keyID at atHeight, rejecting
// read-only keys and rejecting disabling the last enabled MASTER key.
func DisableIdentityKeyOps(tx *store.Transaction, id schema.Identifier, keyID uint32, atHeight uint64) ([]store.Op, error) {
	key, ok := GetIdentityKey(tx, id, keyID)
	if !ok {
		return nil, ErrUnknownKeyID
	}
	if key.ReadOnly {
		return nil, ErrReadOnlyKey
	}
	if !key.Enabled() {
		return []store.Op{}, nil
	}
	if key.SecurityLevel == LevelMaster {
		masters, err := CountEnabledMasterKeys(tx, id)
		if err != nil {
			return nil, err
		}
		if masters <= 1 {
			return nil, ErrLastMasterKey
		}
	}
	key.DisabledAt = atHeight
	encoded, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}
	return []store.Op{store.Insert(KeysPath(id), keyLeaf(keyID), store.NewItem(encoded))}, nil
}

// GetIdentityKey reads one key record, if present.
func GetIdentityKey(tx *store.Transaction, id schema.Identifier, keyID uint32) (IdentityKey, bool) {
	elem, exists := tx.Get(KeysPath(id), keyLeaf(keyID))
	if !exists {
		return IdentityKey{}, false
	}
	var key IdentityKey
	if err := json.Unmarshal(elem.Item, &key); err != nil {
		return IdentityKey{}, false
	}
	return key, true
}

// CountEnabledMasterKeys counts id's currently-enabled MASTER-level keys.
func CountEnabledMasterKeys(tx *store.Transaction, id schema.Identifier) (int, error) {
	ids, err := readKeyIDs(tx, id)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, keyID := range ids {
		key, ok := GetIdentityKey(tx, id, keyID)
		if ok && key.Enabled() && key.SecurityLevel == LevelMaster {
			count++
		}
	}
	return count, nil
}

func readKeyIDs(tx *store.Transaction, id schema.Identifier) ([]uint32, error) {
	elem, exists := tx.Get(KeysPath(id), []byte(keyIDsLeaf))
	if !exists {
		return nil, nil
	}
	var ids []uint32
	if err := json.Unmarshal(elem.Item, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func encodeKeyIDs(ids []uint32) []byte {
	b, _ := json.Marshal(ids)
	return b
}
