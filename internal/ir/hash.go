package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DomainModule prefixes module hashes. The version suffix allows the
// algorithm to change without colliding with old ledger entries.
const DomainModule = "extract/module/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of m. Two modules that decode from
// differently formatted JSON, YAML or CUE documents hash equal when their
// node trees are equal.
func Hash(m *Module) (string, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("Hash: failed to marshal: %w", err)
	}
	canonical, err := CanonicalJSON(raw)
	if err != nil {
		return "", fmt.Errorf("Hash: failed to canonicalize: %w", err)
	}
	return hashWithDomain(DomainModule, canonical), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when m is known to be well formed.
func MustHash(m *Module) string {
	h, err := Hash(m)
	if err != nil {
		panic(err)
	}
	return h
}
