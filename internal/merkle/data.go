package merkle

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrInvalidAmount is returned for allocations that cannot be encoded as a
// leaf: missing, negative or wider than 256 bits.
var ErrInvalidAmount = errors.New("merkle: invalid amount")

// Allocation is one airdrop grant used to build a data file.
type Allocation struct {
	Address common.Address
	// Value is the human-readable decimal amount published in the data file.
	Value string
	// Amount is Value scaled to wei; it is what the leaf commits to.
	Amount *big.Int
}

// Entry is the published entitlement for one address.
type Entry struct {
	Value string        `json:"value"`
	Proof []common.Hash `json:"proof"`
}

// Data is the on-disk airdrop data file.
type Data struct {
	Root    common.Hash      `json:"root"`
	Entries map[string]Entry `json:"entries"`
}

// NormalizeAddress lowercases a hex address for use as a data file key.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Generate builds the tree for allocs and returns the data file content.
// Leaves are ordered by address so output is stable.
func Generate(allocs []Allocation) (*Data, *Tree, error) {
	sorted := make([]Allocation, len(allocs))
	copy(sorted, allocs)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.Compare(sorted[i].Address.Hex(), sorted[j].Address.Hex()) < 0
	})

	seen := make(map[common.Address]bool, len(sorted))
	leaves := make([]common.Hash, len(sorted))
	for i, a := range sorted {
		if seen[a.Address] {
			return nil, nil, fmt.Errorf("merkle: duplicate allocation for %s", a.Address.Hex())
		}
		seen[a.Address] = true
		if a.Amount == nil || a.Amount.Sign() < 0 {
			return nil, nil, fmt.Errorf("%w for %s", ErrInvalidAmount, a.Address.Hex())
		}
		if _, overflow := uint256.FromBig(a.Amount); overflow {
			return nil, nil, fmt.Errorf("%w for %s: exceeds uint256", ErrInvalidAmount, a.Address.Hex())
		}
		leaves[i] = LeafHash(a.Address, a.Amount)
	}

	tree, err := Build(leaves)
	if err != nil {
		return nil, nil, err
	}

	data := &Data{Root: tree.Root(), Entries: make(map[string]Entry, len(sorted))}
	for i, a := range sorted {
		proof, err := tree.Proof(i)
		if err != nil {
			return nil, nil, err
		}
		if proof == nil {
			proof = []common.Hash{}
		}
		data.Entries[NormalizeAddress(a.Address.Hex())] = Entry{Value: a.Value, Proof: proof}
	}
	return data, tree, nil
}

// Load reads a data file from path.
func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read merkle data: %w", err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse merkle data %s: %w", path, err)
	}

	normalized := make(map[string]Entry, len(data.Entries))
	for addr, e := range data.Entries {
		normalized[NormalizeAddress(addr)] = e
	}
	data.Entries = normalized
	return &data, nil
}

// Write stores data at path as indented JSON.
func Write(path string, data *Data) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode merkle data: %w", err)
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write merkle data: %w", err)
	}
	return nil
}
