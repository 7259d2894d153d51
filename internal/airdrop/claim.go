package airdrop

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/council/internal/chain"
	"github.com/roach88/council/internal/eligibility"
)

// Claimer submits airdrop claims for the submitter's account.
type Claimer struct {
	submitter chain.Submitter
	contracts chain.Contracts
}

// NewClaimer creates a Claimer.
func NewClaimer(submitter chain.Submitter, contracts chain.Contracts) *Claimer {
	return &Claimer{submitter: submitter, contracts: contracts}
}

// Claim sends the unclaimed amount straight to the wallet.
func (c *Claimer) Claim(ctx context.Context, state eligibility.ClaimState) (*chain.Receipt, error) {
	amount, total, proof, err := c.claimArgs(state)
	if err != nil {
		return nil, err
	}
	account := c.submitter.From()
	return c.submitter.Submit(ctx, chain.Call{
		Contract:    c.contracts.Airdrop,
		ABI:         chain.AirdropABI,
		Method:      "claim",
		Args:        []any{amount, total, proof, account},
		Invalidates: c.claimChanged(account),
	})
}

// ClaimAndDelegate claims the unclaimed amount into the locking vault with
// delegate as the voting delegate.
func (c *Claimer) ClaimAndDelegate(ctx context.Context, state eligibility.ClaimState, delegate common.Address) (*chain.Receipt, error) {
	if delegate == (common.Address{}) {
		return nil, ErrNoDelegate
	}
	amount, total, proof, err := c.claimArgs(state)
	if err != nil {
		return nil, err
	}
	account := c.submitter.From()
	return c.submitter.Submit(ctx, chain.Call{
		Contract: c.contracts.Airdrop,
		ABI:      chain.AirdropABI,
		Method:   "claimAndDelegate",
		Args:     []any{amount, delegate, total, proof, account},
		Invalidates: append(c.claimChanged(account),
			chain.Entity{Contract: c.contracts.LockingVault, Method: "deposits", Account: account},
			chain.Entity{Contract: c.contracts.LockingVault, Method: "queryVotePowerView"},
		),
	})
}

func (c *Claimer) claimArgs(state eligibility.ClaimState) (amount, total *big.Int, proof [][32]byte, err error) {
	if state.Eligibility == nil {
		return nil, nil, nil, eligibility.ErrUnavailable
	}
	if state.Address != c.submitter.From() {
		return nil, nil, nil, errors.New("airdrop: claim state belongs to another account")
	}
	if !eligibility.HasUnclaimedAirdrop(state) {
		return nil, nil, nil, ErrNothingToClaim
	}
	amount = eligibility.ToWei(state.Unclaimed())
	total, err = eligibility.ParseAmount(state.Eligibility.LeafValue)
	if err != nil {
		return nil, nil, nil, err
	}
	proof = make([][32]byte, len(state.Eligibility.Proof))
	for i, h := range state.Eligibility.Proof {
		proof[i] = h
	}
	return amount, total, proof, nil
}

func (c *Claimer) claimChanged(account common.Address) []chain.Entity {
	return []chain.Entity{
		{Contract: c.contracts.Airdrop, Method: "claimed", Account: account},
		{Contract: c.contracts.ElementToken, Method: "balanceOf", Account: account},
	}
}
