package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testContracts = Contracts{
		ElementToken: common.HexToAddress("0x1000000000000000000000000000000000000001"),
		LockingVault: common.HexToAddress("0x1000000000000000000000000000000000000002"),
		VestingVault: common.HexToAddress("0x1000000000000000000000000000000000000003"),
		Airdrop:      common.HexToAddress("0x1000000000000000000000000000000000000004"),
		CoreVoting:   common.HexToAddress("0x1000000000000000000000000000000000000005"),
	}
	holder   = common.HexToAddress("0x2000000000000000000000000000000000000001")
	delegate = common.HexToAddress("0x3000000000000000000000000000000000000001")
)

func stockCaller() *fakeCaller {
	f := newFakeCaller()
	f.on(ERC20ABI, "balanceOf", func(_ common.Address, args []any) []any {
		return []any{big.NewInt(1500)}
	})
	f.on(ERC20ABI, "allowance", func(_ common.Address, args []any) []any {
		if args[1].(common.Address) == testContracts.LockingVault {
			return []any{big.NewInt(700)}
		}
		return []any{big.NewInt(0)}
	})
	f.on(AirdropABI, "claimed", func(_ common.Address, _ []any) []any {
		return []any{big.NewInt(42)}
	})
	f.on(LockingVaultABI, "deposits", func(_ common.Address, _ []any) []any {
		return []any{delegate, big.NewInt(900)}
	})
	f.on(LockingVaultABI, "queryVotePowerView", func(_ common.Address, args []any) []any {
		return []any{new(big.Int).Mul(args[1].(*big.Int), big.NewInt(2))}
	})
	return f
}

func TestReader_TypedReads(t *testing.T) {
	ctx := context.Background()
	r := NewReader(stockCaller(), testContracts)

	bal, err := r.BalanceOf(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), bal.Int64())

	allowance, err := r.Allowance(ctx, holder, testContracts.LockingVault)
	require.NoError(t, err)
	assert.Equal(t, int64(700), allowance.Int64())

	claimed, err := r.Claimed(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claimed.Int64())

	dep, err := r.Deposits(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, delegate, dep.Delegate)
	assert.Equal(t, int64(900), dep.Amount.Int64())

	deposited, err := r.Deposited(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, int64(900), deposited.Int64())

	power, err := r.VotingPower(ctx, holder, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(20), power.Int64())
}

func TestReader_CallError(t *testing.T) {
	f := stockCaller()
	f.err = errors.New("dial tcp: connection refused")
	r := NewReader(f, testContracts)

	_, err := r.BalanceOf(context.Background(), holder)
	assert.ErrorContains(t, err, "connection refused")
}

func TestCachedReader_ReusesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	f := stockCaller()
	bus := NewBus()
	r := NewCachedReader(f, testContracts, bus)

	for i := 0; i < 3; i++ {
		_, err := r.Deposits(ctx, holder)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.count("deposits"))

	// Unrelated account: entry survives.
	bus.Publish(Entity{Contract: testContracts.LockingVault, Method: "deposits", Account: delegate})
	bus.Flush()
	_, err := r.Deposits(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, 1, f.count("deposits"))

	bus.Publish(Entity{Contract: testContracts.LockingVault, Method: "deposits", Account: holder})
	bus.Flush()
	_, err = r.Deposits(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, 2, f.count("deposits"))
}

func TestCachedReader_ResultsAreCopies(t *testing.T) {
	ctx := context.Background()
	f := stockCaller()
	r := NewCachedReader(f, testContracts, NewBus())

	dep, err := r.Deposits(ctx, holder)
	require.NoError(t, err)
	dep.Amount.SetInt64(1)

	bal, err := r.BalanceOf(ctx, holder)
	require.NoError(t, err)
	bal.SetInt64(1)

	dep, err = r.Deposits(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, int64(900), dep.Amount.Int64())
	bal, err = r.BalanceOf(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), bal.Int64())
	assert.Equal(t, 1, f.count("deposits"))
}

func TestCachedReader_ContractWildcard(t *testing.T) {
	ctx := context.Background()
	f := stockCaller()
	bus := NewBus()
	r := NewCachedReader(f, testContracts, bus)

	_, err := r.BalanceOf(ctx, holder)
	require.NoError(t, err)
	_, err = r.Allowance(ctx, holder, testContracts.LockingVault)
	require.NoError(t, err)
	_, err = r.Claimed(ctx, holder)
	require.NoError(t, err)

	bus.Publish(Entity{Contract: testContracts.ElementToken})
	bus.Flush()

	_, err = r.BalanceOf(ctx, holder)
	require.NoError(t, err)
	_, err = r.Allowance(ctx, holder, testContracts.LockingVault)
	require.NoError(t, err)
	_, err = r.Claimed(ctx, holder)
	require.NoError(t, err)

	assert.Equal(t, 2, f.count("balanceOf"))
	assert.Equal(t, 2, f.count("allowance"))
	assert.Equal(t, 1, f.count("claimed"))
}
