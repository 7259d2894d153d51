package commitment

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// Hasher is a deterministic, order-sensitive binding commitment over two
// integers.
type Hasher interface {
	Hash(a, b *big.Int) (*big.Int, error)
}

// MiMCHasher commits with MiMC over the BN254 scalar field. Inputs are
// reduced modulo the field order before hashing.
type MiMCHasher struct{}

// Hash implements Hasher.
func (MiMCHasher) Hash(a, b *big.Int) (*big.Int, error) {
	h := mimc.NewMiMC()
	for _, v := range []*big.Int{a, b} {
		var e fr.Element
		e.SetBigInt(v)
		block := e.Bytes()
		if _, err := h.Write(block[:]); err != nil {
			return nil, fmt.Errorf("mimc write: %w", err)
		}
	}
	return new(big.Int).SetBytes(h.Sum(nil)), nil
}

// ToHex renders x as 0x-prefixed, zero-padded 32-byte hex.
func ToHex(x *big.Int) string {
	return fmt.Sprintf("0x%064x", x)
}

// PublicID computes the shareable id for p. Key and secret must both be
// present and parse as integers.
func PublicID(h Hasher, p Pair) (string, error) {
	if !p.Complete() {
		return "", ErrIncompletePair
	}
	key, err := ParseValue(p.Key)
	if err != nil {
		return "", err
	}
	secret, err := ParseValue(p.Secret)
	if err != nil {
		return "", err
	}
	c, err := h.Hash(key, secret)
	if err != nil {
		return "", fmt.Errorf("commitment hash: %w", err)
	}
	return ToHex(c), nil
}
