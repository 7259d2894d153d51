// Package delegate validates delegate addresses, tracks the known delegate
// registry and changes an account's locking vault delegation.
package delegate

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"math/rand/v2"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/council/internal/chain"
)

// ErrInvalidAddress is returned for malformed addresses. Actions taking an
// address validate it before anything is submitted.
var ErrInvalidAddress = errors.New("invalid address")

// ValidateAddress parses a 0x-prefixed hex address. Mixed-case input must
// carry a valid EIP-55 checksum.
func ValidateAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Address{}, fmt.Errorf("%w: %q: missing 0x prefix", ErrInvalidAddress, s)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	addr := common.HexToAddress(s)
	body := s[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && addr.Hex()[2:] != body {
		return common.Address{}, fmt.Errorf("%w: %q: bad checksum", ErrInvalidAddress, s)
	}
	return addr, nil
}

// ShortAddress renders an address as 0x1234...abcd.
func ShortAddress(addr common.Address) string {
	h := addr.Hex()
	return h[:6] + "..." + h[len(h)-4:]
}

// Delegate is a known, featured delegate.
type Delegate struct {
	Name          string
	Address       common.Address
	TwitterHandle string
}

// Registry is the list of featured delegates.
type Registry struct {
	delegates []Delegate
	byAddress map[common.Address]int
}

// NewRegistry indexes delegates. Duplicate addresses are rejected.
func NewRegistry(delegates []Delegate) (*Registry, error) {
	r := &Registry{byAddress: make(map[common.Address]int, len(delegates))}
	for _, d := range delegates {
		if _, dup := r.byAddress[d.Address]; dup {
			return nil, fmt.Errorf("duplicate delegate %s", d.Address.Hex())
		}
		r.byAddress[d.Address] = len(r.delegates)
		r.delegates = append(r.delegates, d)
	}
	return r, nil
}

// Lookup returns the delegate registered at addr.
func (r *Registry) Lookup(addr common.Address) (Delegate, bool) {
	i, ok := r.byAddress[addr]
	if !ok {
		return Delegate{}, false
	}
	return r.delegates[i], true
}

// All returns the delegates in registration order.
func (r *Registry) All() []Delegate {
	out := make([]Delegate, len(r.delegates))
	copy(out, r.delegates)
	return out
}

// Shuffled returns the delegates in random order so no delegate is
// favored by list position.
func (r *Registry) Shuffled(rng *rand.Rand) []Delegate {
	out := r.All()
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// CurrentDelegate returns the registered delegate an account's deposit
// points at. Nothing is returned unless the on-chain delegate is in the
// registry and the delegated amount is positive.
func CurrentDelegate(r *Registry, onChain common.Address, amountDelegated *big.Int) (Delegate, bool) {
	if amountDelegated == nil || amountDelegated.Sign() <= 0 {
		return Delegate{}, false
	}
	return r.Lookup(onChain)
}

// Changer submits delegation changes.
type Changer struct {
	submitter chain.Submitter
	contracts chain.Contracts
}

// NewChanger creates a Changer.
func NewChanger(submitter chain.Submitter, contracts chain.Contracts) *Changer {
	return &Changer{submitter: submitter, contracts: contracts}
}

// ChangeDelegation validates input and moves the submitter's vault
// delegation to it. On success the account's deposits read and every vote
// power read are invalidated.
func (c *Changer) ChangeDelegation(ctx context.Context, input string) (*chain.Receipt, error) {
	to, err := ValidateAddress(input)
	if err != nil {
		return nil, err
	}
	return c.submitter.Submit(ctx, chain.Call{
		Contract: c.contracts.LockingVault,
		ABI:      chain.LockingVaultABI,
		Method:   "changeDelegation",
		Args:     []any{to},
		Invalidates: []chain.Entity{
			{Contract: c.contracts.LockingVault, Method: "deposits", Account: c.submitter.From()},
			{Contract: c.contracts.LockingVault, Method: "queryVotePowerView"},
		},
	})
}
