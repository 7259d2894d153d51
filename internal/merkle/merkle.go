// Package merkle builds and verifies airdrop Merkle trees.
//
// Leaves are keccak256(address || uint256(amount)) and interior nodes hash
// their two children in ascending byte order, so a proof is just the list
// of siblings from leaf to root with no position flags.
package merkle

import (
	"bytes"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// ErrEmptyTree is returned when building a tree with no leaves.
var ErrEmptyTree = errors.New("merkle: no leaves")

// LeafHash hashes one (address, amount) entitlement. amount is in wei and
// is encoded as a 32-byte big-endian word; callers must keep it within
// uint256, as Generate does.
func LeafHash(address common.Address, amount *big.Int) common.Hash {
	word := new(uint256.Int)
	word.SetFromBig(amount)
	b := word.Bytes32()
	return crypto.Keccak256Hash(address.Bytes(), b[:])
}

// HashPair hashes two nodes in sorted order.
func HashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

// Verify reports whether proof links leaf to root.
func Verify(proof []common.Hash, root, leaf common.Hash) bool {
	return ProcessProof(proof, leaf) == root
}

// ProcessProof folds proof into leaf and returns the resulting root.
func ProcessProof(proof []common.Hash, leaf common.Hash) common.Hash {
	node := leaf
	for _, sibling := range proof {
		node = HashPair(node, sibling)
	}
	return node
}
