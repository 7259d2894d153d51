package vault

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/council/internal/chain"
	"github.com/roach88/council/internal/eligibility"
)

var (
	contracts = chain.Contracts{
		ElementToken: common.HexToAddress("0x1000000000000000000000000000000000000001"),
		LockingVault: common.HexToAddress("0x1000000000000000000000000000000000000002"),
	}
	holder   = common.HexToAddress("0x2000000000000000000000000000000000000001")
	delegate = common.HexToAddress("0x3000000000000000000000000000000000000001")
)

type fakeReads struct {
	balance, deposited, allowance *big.Int
}

func (f fakeReads) BalanceOf(context.Context, common.Address) (*big.Int, error) {
	return f.balance, nil
}

func (f fakeReads) Deposited(context.Context, common.Address) (*big.Int, error) {
	return f.deposited, nil
}

func (f fakeReads) Allowance(_ context.Context, _, spender common.Address) (*big.Int, error) {
	if spender != contracts.LockingVault {
		return big.NewInt(0), nil
	}
	return f.allowance, nil
}

type fakeSubmitter struct {
	calls []chain.Call
}

func (f *fakeSubmitter) From() common.Address { return holder }

func (f *fakeSubmitter) Submit(_ context.Context, call chain.Call) (*chain.Receipt, error) {
	f.calls = append(f.calls, call)
	return &chain.Receipt{Method: call.Method}, nil
}

func wei(t *testing.T, s string) *big.Int {
	t.Helper()
	w, err := eligibility.ParseAmount(s)
	require.NoError(t, err)
	return w
}

func portfolio(wallet, vault, allowance string) Portfolio {
	return Portfolio{
		Wallet:    decimal.RequireFromString(wallet),
		Vault:     decimal.RequireFromString(vault),
		Allowance: decimal.RequireFromString(allowance),
	}
}

func TestCheckDeposit(t *testing.T) {
	tests := []struct {
		name     string
		p        Portfolio
		amount   string
		delegate common.Address
		wantErr  error
	}{
		{"ok", portfolio("10", "0", "10"), "10", delegate, nil},
		{"fractional balance counts", portfolio("0.5", "0", "1"), "0.25", delegate, nil},
		{"no balance", portfolio("0", "0", "10"), "1", delegate, ErrNoBalance},
		{"empty amount", portfolio("10", "0", "10"), "", delegate, ErrEmptyAmount},
		{"zero amount", portfolio("10", "0", "10"), "0", delegate, ErrEmptyAmount},
		{"over balance", portfolio("10", "0", "100"), "10.000000000000000001", delegate, ErrInsufficientBalance},
		{"no delegate", portfolio("10", "0", "10"), "1", common.Address{}, ErrNoDelegate},
		{"allowance first", portfolio("10", "0", "5"), "6", delegate, ErrAllowanceRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckDeposit(tt.p, tt.amount, tt.delegate)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, wei(t, tt.amount), got)
		})
	}
}

func TestCheckWithdraw(t *testing.T) {
	_, err := CheckWithdraw(portfolio("10", "0", "0"), "1")
	assert.ErrorIs(t, err, ErrNoBalance)

	_, err = CheckWithdraw(portfolio("0", "3", "0"), "4")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	got, err := CheckWithdraw(portfolio("0", "3", "0"), "3")
	require.NoError(t, err)
	assert.Equal(t, wei(t, "3"), got)
}

func TestVault_DepositSubmitsAfterChecks(t *testing.T) {
	sub := &fakeSubmitter{}
	v := New(fakeReads{balance: wei(t, "50"), deposited: wei(t, "0"), allowance: wei(t, "50")}, sub, contracts)

	_, err := v.Deposit(context.Background(), "20", delegate)
	require.NoError(t, err)

	require.Len(t, sub.calls, 1)
	call := sub.calls[0]
	assert.Equal(t, "deposit", call.Method)
	assert.Equal(t, contracts.LockingVault, call.Contract)
	assert.Equal(t, []any{holder, wei(t, "20"), delegate}, call.Args)
	assert.Contains(t, call.Invalidates, chain.Entity{Contract: contracts.LockingVault, Method: "deposits", Account: holder})
}

func TestVault_DepositWithoutAllowanceNotSubmitted(t *testing.T) {
	sub := &fakeSubmitter{}
	v := New(fakeReads{balance: wei(t, "50"), deposited: wei(t, "0"), allowance: wei(t, "0")}, sub, contracts)

	_, err := v.Deposit(context.Background(), "20", delegate)
	assert.ErrorIs(t, err, ErrAllowanceRequired)
	assert.Empty(t, sub.calls)
}

func TestVault_ApproveDefaultsToMax(t *testing.T) {
	sub := &fakeSubmitter{}
	v := New(fakeReads{}, sub, contracts)

	_, err := v.Approve(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, sub.calls, 1)
	assert.Equal(t, "approve", sub.calls[0].Method)
	assert.Equal(t, contracts.ElementToken, sub.calls[0].Contract)
	assert.Equal(t, 0, sub.calls[0].Args[1].(*big.Int).Cmp(math.MaxBig256))
}

func TestVault_Withdraw(t *testing.T) {
	sub := &fakeSubmitter{}
	v := New(fakeReads{balance: wei(t, "0"), deposited: wei(t, "7"), allowance: wei(t, "0")}, sub, contracts)

	_, err := v.Withdraw(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, []any{wei(t, "7")}, sub.calls[0].Args)
}

func TestVault_Portfolio(t *testing.T) {
	v := New(fakeReads{balance: wei(t, "1.5"), deposited: wei(t, "2"), allowance: wei(t, "3")}, &fakeSubmitter{}, contracts)
	p, err := v.Portfolio(context.Background(), holder)
	require.NoError(t, err)
	assert.Equal(t, "1.5", p.Wallet.String())
	assert.Equal(t, "2", p.Vault.String())
	assert.Equal(t, "3", p.Allowance.String())
}
