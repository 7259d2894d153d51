// Package commitment derives key/secret pairs and the public commitment id
// for the private airdrop claim, and drives its three-step flow.
package commitment

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyBytes is the size of a generated key.
const KeyBytes = 20

// Pair is a key and the secret derived from it.
type Pair struct {
	Key    string `json:"privateKey"`
	Secret string `json:"secret"`
}

// Complete reports whether both halves are present.
func (p Pair) Complete() bool {
	return p.Key != "" && p.Secret != ""
}

// DeriveSecret returns keccak256 of the reversed key as 0x-prefixed hex.
// It is a pure function of key.
func DeriveSecret(key string) string {
	return crypto.Keccak256Hash([]byte(reverse(key))).Hex()
}

// Derive returns the pair for key. An empty key yields an empty pair.
func Derive(key string) Pair {
	if key == "" {
		return Pair{}
	}
	return Pair{Key: key, Secret: DeriveSecret(key)}
}

// GenerateKey returns a random hex key.
func GenerateKey() (string, error) {
	buf := make([]byte, KeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hexutil.Encode(buf), nil
}

// ParseValue parses a decimal or 0x-prefixed hex integer.
func ParseValue(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("commitment: %q is not an integer", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("commitment: %q is negative", s)
	}
	return v, nil
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
