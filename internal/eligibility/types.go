package eligibility

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// MerkleEligibility is one address's published airdrop entitlement.
// Proof is only meaningful together with the exact LeafValue it was
// generated for.
type MerkleEligibility struct {
	Address   string        `json:"address"`
	LeafValue string        `json:"value"`
	Proof     []common.Hash `json:"proof"`
}

// Source looks up published eligibility. A nil result with a nil error
// means the address is not in the tree.
type Source interface {
	Lookup(ctx context.Context, address string) (*MerkleEligibility, error)
}

// Ledger reads the on-chain amounts that combine with the entitlement.
// All values are in wei.
type Ledger interface {
	Claimed(ctx context.Context, account common.Address) (*big.Int, error)
	Deposited(ctx context.Context, account common.Address) (*big.Int, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
}

// ClaimState is derived from the entitlement and on-chain reads; it is
// never stored.
type ClaimState struct {
	Address        common.Address
	Eligibility    *MerkleEligibility
	TotalGranted   decimal.Decimal
	AlreadyClaimed decimal.Decimal
	Deposited      decimal.Decimal
	WalletBalance  decimal.Decimal
}

// Unclaimed returns max(TotalGranted - AlreadyClaimed, 0).
func (c ClaimState) Unclaimed() decimal.Decimal {
	return decimal.Max(c.TotalGranted.Sub(c.AlreadyClaimed), decimal.Zero)
}

// TotalBalance is wallet balance plus unclaimed plus deposited.
func (c ClaimState) TotalBalance() decimal.Decimal {
	return c.WalletBalance.Add(c.Unclaimed()).Add(c.Deposited)
}

// HasUnclaimedAirdrop reports whether anything is left to claim.
func HasUnclaimedAirdrop(c ClaimState) bool {
	return c.Unclaimed().IsPositive()
}

// HasClaimedAirdrop reports whether the address has an entitlement and
// nothing left to claim.
func HasClaimedAirdrop(c ClaimState) bool {
	return c.Eligibility != nil && c.Unclaimed().IsZero()
}
