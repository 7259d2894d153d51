package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm change.
const (
	DomainSessionEvent = "council/session-event/v1"
	DomainTransaction  = "council/transaction/v1"
)

// HashWithDomain computes SHA256(domain || 0x00 || data) as lowercase hex.
// The null separator prevents ambiguity at the domain/data boundary.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ID hashes the canonical encoding of v under domain.
func ID(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonical id: %w", err)
	}
	return HashWithDomain(domain, data), nil
}

// MustID is like ID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustID(domain string, v any) string {
	id, err := ID(domain, v)
	if err != nil {
		panic(err)
	}
	return id
}
