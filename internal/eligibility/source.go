package eligibility

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/council/internal/merkle"
)

// FileSource serves eligibility from a loaded merkle data file.
type FileSource struct {
	data *merkle.Data
}

// NewFileSource wraps already loaded data.
func NewFileSource(data *merkle.Data) *FileSource {
	return &FileSource{data: data}
}

// LoadFileSource reads the data file at path.
func LoadFileSource(path string) (*FileSource, error) {
	data, err := merkle.Load(path)
	if err != nil {
		return nil, err
	}
	return NewFileSource(data), nil
}

// Root returns the root published in the data file.
func (s *FileSource) Root() common.Hash {
	return s.data.Root
}

// Lookup implements Source.
func (s *FileSource) Lookup(ctx context.Context, address string) (*MerkleEligibility, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	addr := merkle.NormalizeAddress(address)
	entry, ok := s.data.Entries[addr]
	if !ok {
		return nil, nil
	}
	proof := make([]common.Hash, len(entry.Proof))
	copy(proof, entry.Proof)
	return &MerkleEligibility{Address: addr, LeafValue: entry.Value, Proof: proof}, nil
}
