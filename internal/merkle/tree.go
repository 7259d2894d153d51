package merkle

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Tree is a fully materialized Merkle tree. levels[0] holds the leaves in
// insertion order and the last level holds the root. An odd node at the end
// of a level is promoted unchanged.
type Tree struct {
	levels [][]common.Hash
}

// Build constructs a tree from leaf hashes.
func Build(leaves []common.Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}

	level := make([]common.Hash, len(leaves))
	copy(level, leaves)
	levels := [][]common.Hash{level}

	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, HashPair(level[i], level[i+1]))
		}
		levels = append(levels, next)
		level = next
	}

	return &Tree{levels: levels}, nil
}

// Root returns the tree root.
func (t *Tree) Root() common.Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Leaf returns the leaf at index i.
func (t *Tree) Leaf(i int) common.Hash {
	return t.levels[0][i]
}

// Proof returns the sibling path for leaf i.
func (t *Tree) Proof(i int) ([]common.Hash, error) {
	if i < 0 || i >= t.Len() {
		return nil, fmt.Errorf("merkle: leaf index %d out of range [0, %d)", i, t.Len())
	}

	var proof []common.Hash
	idx := i
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := idx ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		idx /= 2
	}
	return proof, nil
}
