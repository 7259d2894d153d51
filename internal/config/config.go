// Package config loads the council CUE configuration.
//
// A config file is unified with the embedded schema, validated as concrete
// and decoded into Config. Defaults (rpc, chainId, empty delegate and
// proposal lists) come from the schema.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/roach88/council/internal/chain"
	"github.com/roach88/council/internal/delegate"
	"github.com/roach88/council/internal/governance"
)

//go:embed schema.cue
var schemaCUE string

// DefaultPath is the config file used when --config is not given.
const DefaultPath = "council.cue"

// Config is the decoded configuration.
type Config struct {
	RPC                       string     `json:"rpc"`
	ChainID                   int64      `json:"chainId"`
	Contracts                 Contracts  `json:"contracts"`
	Merkle                    *Merkle    `json:"merkle,omitempty"`
	Delegates                 []Delegate `json:"delegates"`
	Proposals                 []Proposal `json:"proposals"`
	RecentDelegatorsFromBlock uint64     `json:"recentDelegatorsFromBlock"`
}

// Contracts holds the deployed contract addresses.
type Contracts struct {
	ElementToken string `json:"elementToken"`
	LockingVault string `json:"lockingVault"`
	VestingVault string `json:"vestingVault"`
	Airdrop      string `json:"airdrop"`
	CoreVoting   string `json:"coreVoting"`
}

// Merkle locates the published airdrop data.
type Merkle struct {
	Path string `json:"path"`
	Root string `json:"root,omitempty"`
}

type Delegate struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	TwitterHandle string `json:"twitterHandle,omitempty"`
}

type Proposal struct {
	ID         uint64 `json:"id"`
	Title      string `json:"title"`
	StartBlock uint64 `json:"startBlock"`
	EndBlock   uint64 `json:"endBlock"`
	Quorum     string `json:"quorum"`
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse validates CUE source against the schema. filename is only used in
// error positions.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile %s: %s", filename, cueerrors.Details(err, nil))
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config %s: %s", filename, cueerrors.Details(err, nil))
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// ChainContracts converts the contract addresses.
func (c *Config) ChainContracts() chain.Contracts {
	return chain.Contracts{
		ElementToken: common.HexToAddress(c.Contracts.ElementToken),
		LockingVault: common.HexToAddress(c.Contracts.LockingVault),
		VestingVault: common.HexToAddress(c.Contracts.VestingVault),
		Airdrop:      common.HexToAddress(c.Contracts.Airdrop),
		CoreVoting:   common.HexToAddress(c.Contracts.CoreVoting),
	}
}

// MerkleRoot returns the configured root, if any.
func (c *Config) MerkleRoot() (common.Hash, bool) {
	if c.Merkle == nil || c.Merkle.Root == "" {
		return common.Hash{}, false
	}
	return common.HexToHash(c.Merkle.Root), true
}

// Registry builds the featured delegate registry. Addresses go through
// delegate.ValidateAddress so badly checksummed entries are refused.
func (c *Config) Registry() (*delegate.Registry, error) {
	out := make([]delegate.Delegate, 0, len(c.Delegates))
	for _, d := range c.Delegates {
		addr, err := delegate.ValidateAddress(d.Address)
		if err != nil {
			return nil, fmt.Errorf("delegate %q: %w", d.Name, err)
		}
		out = append(out, delegate.Delegate{Name: d.Name, Address: addr, TwitterHandle: d.TwitterHandle})
	}
	return delegate.NewRegistry(out)
}

// GovernanceProposals converts the proposal list.
func (c *Config) GovernanceProposals() ([]governance.Proposal, error) {
	out := make([]governance.Proposal, 0, len(c.Proposals))
	for _, p := range c.Proposals {
		q, err := decimal.NewFromString(p.Quorum)
		if err != nil {
			return nil, fmt.Errorf("proposal %d quorum: %w", p.ID, err)
		}
		out = append(out, governance.Proposal{
			ID:         p.ID,
			Title:      p.Title,
			StartBlock: p.StartBlock,
			EndBlock:   p.EndBlock,
			Quorum:     q,
		})
	}
	return out, nil
}
