// Package hash computes the content hashes that make snapshots
// tamper-evident. The digest is sha256 over a canonical JSON encoding so
// the same value always hashes identically regardless of key order or
// whitespace in the stored bytes, and so the storage layer can recompute
// the same digest with its own sha256.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Canonicalize re-encodes raw JSON into its canonical form: object keys
// sorted, no insignificant whitespace. encoding/json sorts map keys, which
// is the only ordering guarantee we need.
func Canonicalize(raw []byte) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return json.Marshal(v)
}

// ContentHash returns the hex sha256 of the canonical form of raw.
func ContentHash(raw []byte) (string, error) {
	canonical, err := Canonicalize(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// MarshalCanonical encodes v to canonical JSON and returns the bytes
// together with their content hash. Snapshot writes use this so the stored
// bytes are already in the form the hash was computed over.
func MarshalCanonical(v interface{}) ([]byte, string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, "", err
	}
	canonical, err := Canonicalize(raw)
	if err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(canonical)
	return canonical, hex.EncodeToString(sum[:]), nil
}
