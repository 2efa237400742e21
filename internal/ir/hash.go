package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSequence = "msgir/sequence/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SequenceHash computes the content-addressed identity of a sequence.
// Equal sequences hash equally; any change to any token field, including
// an offset resolved by a pass, changes the hash.
func SequenceHash(seq Sequence) (string, error) {
	canonical, err := MarshalCanonical(seq)
	if err != nil {
		return "", fmt.Errorf("SequenceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSequence, canonical), nil
}

// MustSequenceHash is like SequenceHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSequenceHash(seq Sequence) string {
	hash, err := SequenceHash(seq)
	if err != nil {
		panic(err)
	}
	return hash
}
