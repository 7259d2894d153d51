// Package eligibility resolves airdrop claim state for a wallet address.
//
// Resolution combines the published Merkle entitlement with on-chain
// claimed, deposited and balance reads. All amounts use exact decimal
// arithmetic. A failed or pending read yields ErrUnavailable rather than a
// zero result so callers never mistake "unknown" for "already claimed".
package eligibility

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/roach88/council/internal/merkle"
)

// Resolver derives ClaimState for an address.
type Resolver struct {
	source Source
	ledger Ledger
	root   *common.Hash
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRoot enables proof verification against root.
func WithRoot(root common.Hash) ResolverOption {
	return func(r *Resolver) {
		r.root = &root
	}
}

// NewResolver creates a resolver over source and ledger.
func NewResolver(source Source, ledger Ledger, opts ...ResolverOption) *Resolver {
	r := &Resolver{source: source, ledger: ledger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the claim state for address. It returns ErrUnavailable
// (possibly wrapped) when address is empty or any lookup fails.
func (r *Resolver) Resolve(ctx context.Context, address string) (ClaimState, error) {
	if address == "" {
		return ClaimState{}, fmt.Errorf("%w: no wallet connected", ErrUnavailable)
	}
	if !common.IsHexAddress(address) {
		return ClaimState{}, fmt.Errorf("resolve eligibility: invalid address %q", address)
	}
	account := common.HexToAddress(address)

	elig, err := r.source.Lookup(ctx, merkle.NormalizeAddress(address))
	if err != nil {
		return ClaimState{}, fmt.Errorf("%w: merkle lookup: %w", ErrUnavailable, err)
	}

	state := ClaimState{Address: account, Eligibility: elig}
	if elig != nil {
		wei, err := ParseAmount(elig.LeafValue)
		if err != nil {
			return ClaimState{}, fmt.Errorf("resolve eligibility: leaf value: %w", err)
		}
		if r.root != nil && !merkle.Verify(elig.Proof, *r.root, merkle.LeafHash(account, wei)) {
			return ClaimState{}, fmt.Errorf("resolve eligibility for %s: %w", account.Hex(), ErrProofMismatch)
		}
		state.TotalGranted = FromWei(wei)
	}

	reads := []struct {
		name string
		fn   func(context.Context, common.Address) (*big.Int, error)
		dst  *decimal.Decimal
	}{
		{"claimed", r.ledger.Claimed, &state.AlreadyClaimed},
		{"deposited", r.ledger.Deposited, &state.Deposited},
		{"balance", r.ledger.BalanceOf, &state.WalletBalance},
	}
	for _, read := range reads {
		wei, err := read.fn(ctx, account)
		if err != nil {
			return ClaimState{}, fmt.Errorf("%w: read %s: %w", ErrUnavailable, read.name, err)
		}
		*read.dst = FromWei(wei)
	}

	slog.Debug("eligibility resolved",
		"account", account.Hex(),
		"eligible", elig != nil,
		"unclaimed", state.Unclaimed().String(),
	)
	return state, nil
}
