// Package vault guards and submits locking vault deposits, withdrawals and
// token approvals.
//
// Deposits need an allowance of at least the deposited amount. That
// ordering is checked here before anything is submitted; callers approve
// first and deposit once the approval is mined.
package vault

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"

	"github.com/roach88/council/internal/chain"
	"github.com/roach88/council/internal/eligibility"
)

var (
	ErrNoBalance           = errors.New("no balance available")
	ErrEmptyAmount         = errors.New("amount is required")
	ErrInsufficientBalance = errors.New("amount exceeds balance")
	ErrAllowanceRequired   = errors.New("token allowance is below the deposit amount")
	ErrNoDelegate          = errors.New("a delegate is required for deposits")
)

// Portfolio is an account's token position.
type Portfolio struct {
	Wallet    decimal.Decimal
	Vault     decimal.Decimal
	Allowance decimal.Decimal
}

// CheckDeposit validates a deposit of amount against p. It returns the
// amount in wei on success.
func CheckDeposit(p Portfolio, amount string, delegate common.Address) (*big.Int, error) {
	if p.Wallet.IsZero() {
		return nil, ErrNoBalance
	}
	wei, d, err := parse(amount)
	if err != nil {
		return nil, err
	}
	if d.GreaterThan(p.Wallet) {
		return nil, fmt.Errorf("deposit %s: %w (%s)", d, ErrInsufficientBalance, p.Wallet)
	}
	if delegate == (common.Address{}) {
		return nil, ErrNoDelegate
	}
	if p.Allowance.LessThan(d) {
		return nil, fmt.Errorf("deposit %s: %w", d, ErrAllowanceRequired)
	}
	return wei, nil
}

// CheckWithdraw validates a withdrawal of amount against p.
func CheckWithdraw(p Portfolio, amount string) (*big.Int, error) {
	if p.Vault.IsZero() {
		return nil, ErrNoBalance
	}
	wei, d, err := parse(amount)
	if err != nil {
		return nil, err
	}
	if d.GreaterThan(p.Vault) {
		return nil, fmt.Errorf("withdraw %s: %w (%s)", d, ErrInsufficientBalance, p.Vault)
	}
	return wei, nil
}

func parse(amount string) (*big.Int, decimal.Decimal, error) {
	if amount == "" {
		return nil, decimal.Zero, ErrEmptyAmount
	}
	wei, err := eligibility.ParseAmount(amount)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if wei.Sign() == 0 {
		return nil, decimal.Zero, ErrEmptyAmount
	}
	return wei, eligibility.FromWei(wei), nil
}

// Reads is the subset of chain.Reader the vault needs.
type Reads interface {
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	Deposited(ctx context.Context, account common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
}

// Vault operates on the submitter's locking vault position.
type Vault struct {
	reads     Reads
	submitter chain.Submitter
	contracts chain.Contracts
}

// New creates a Vault.
func New(reads Reads, submitter chain.Submitter, contracts chain.Contracts) *Vault {
	return &Vault{reads: reads, submitter: submitter, contracts: contracts}
}

// Portfolio reads the current position of account.
func (v *Vault) Portfolio(ctx context.Context, account common.Address) (Portfolio, error) {
	wallet, err := v.reads.BalanceOf(ctx, account)
	if err != nil {
		return Portfolio{}, err
	}
	deposited, err := v.reads.Deposited(ctx, account)
	if err != nil {
		return Portfolio{}, err
	}
	allowance, err := v.reads.Allowance(ctx, account, v.contracts.LockingVault)
	if err != nil {
		return Portfolio{}, err
	}
	return Portfolio{
		Wallet:    eligibility.FromWei(wallet),
		Vault:     eligibility.FromWei(deposited),
		Allowance: eligibility.FromWei(allowance),
	}, nil
}

// Approve lets the locking vault move amount tokens. A nil amount approves
// the maximum.
func (v *Vault) Approve(ctx context.Context, amount *big.Int) (*chain.Receipt, error) {
	if amount == nil {
		amount = new(big.Int).Set(math.MaxBig256)
	}
	return v.submitter.Submit(ctx, chain.Call{
		Contract: v.contracts.ElementToken,
		ABI:      chain.ERC20ABI,
		Method:   "approve",
		Args:     []any{v.contracts.LockingVault, amount},
		Invalidates: []chain.Entity{
			{Contract: v.contracts.ElementToken, Method: "allowance", Account: v.submitter.From()},
		},
	})
}

// Deposit locks amount tokens, delegating to delegate if this is the
// account's first deposit.
func (v *Vault) Deposit(ctx context.Context, amount string, delegate common.Address) (*chain.Receipt, error) {
	account := v.submitter.From()
	p, err := v.Portfolio(ctx, account)
	if err != nil {
		return nil, err
	}
	wei, err := CheckDeposit(p, amount, delegate)
	if err != nil {
		return nil, err
	}
	return v.submitter.Submit(ctx, chain.Call{
		Contract:    v.contracts.LockingVault,
		ABI:         chain.LockingVaultABI,
		Method:      "deposit",
		Args:        []any{account, wei, delegate},
		Invalidates: v.positionChanged(account),
	})
}

// Withdraw unlocks amount tokens back to the wallet.
func (v *Vault) Withdraw(ctx context.Context, amount string) (*chain.Receipt, error) {
	account := v.submitter.From()
	p, err := v.Portfolio(ctx, account)
	if err != nil {
		return nil, err
	}
	wei, err := CheckWithdraw(p, amount)
	if err != nil {
		return nil, err
	}
	return v.submitter.Submit(ctx, chain.Call{
		Contract:    v.contracts.LockingVault,
		ABI:         chain.LockingVaultABI,
		Method:      "withdraw",
		Args:        []any{wei},
		Invalidates: v.positionChanged(account),
	})
}

func (v *Vault) positionChanged(account common.Address) []chain.Entity {
	return []chain.Entity{
		{Contract: v.contracts.ElementToken, Method: "balanceOf", Account: account},
		{Contract: v.contracts.ElementToken, Method: "allowance", Account: account},
		{Contract: v.contracts.LockingVault, Method: "deposits", Account: account},
		{Contract: v.contracts.LockingVault, Method: "queryVotePowerView"},
	}
}
