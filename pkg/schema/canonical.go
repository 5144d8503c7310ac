// Copyright 2025 Certen Protocol
//
// Canonical JSON helpers used when hashing a contract's raw schema value
// tree (as opposed to a compiled Document, which uses Serialize).
// Adapted from the teacher's pkg/commitment package, keeping the
// RFC8785-style canonicalization and SHA256 helpers and dropping the
// governance/cross-chain-bundle specific functions that had no
// counterpart in a document-schema model.

package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// CanonicalizeJSON returns raw re-encoded with deterministic object key
// order; array order is preserved as declared.
func CanonicalizeJSON(raw []byte) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(canonicalizeValue(v))
}

func canonicalizeValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make(map[string]interface{}, len(vv))
		for _, k := range keys {
			ordered[k] = canonicalizeValue(vv[k])
		}
		return ordered
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, e := range vv {
			out[i] = canonicalizeValue(e)
		}
		return out
	default:
		return vv
	}
}

// HashSchema returns SHA256 of the canonicalized JSON schema tree, used
// to detect no-op contract updates (same schema content, new version).
func HashSchema(raw []byte) (string, error) {
	canon, err := CanonicalizeJSON(raw)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(canon)
	return hex.EncodeToString(h[:]), nil
}
