package eligibility

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/council/internal/merkle"
)

type fakeLedger struct {
	claimed   map[common.Address]*big.Int
	deposited map[common.Address]*big.Int
	balance   map[common.Address]*big.Int
	err       error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		claimed:   map[common.Address]*big.Int{},
		deposited: map[common.Address]*big.Int{},
		balance:   map[common.Address]*big.Int{},
	}
}

func (l *fakeLedger) read(m map[common.Address]*big.Int, a common.Address) (*big.Int, error) {
	if l.err != nil {
		return nil, l.err
	}
	if v, ok := m[a]; ok {
		return v, nil
	}
	return new(big.Int), nil
}

func (l *fakeLedger) Claimed(_ context.Context, a common.Address) (*big.Int, error) {
	return l.read(l.claimed, a)
}

func (l *fakeLedger) Deposited(_ context.Context, a common.Address) (*big.Int, error) {
	return l.read(l.deposited, a)
}

func (l *fakeLedger) BalanceOf(_ context.Context, a common.Address) (*big.Int, error) {
	return l.read(l.balance, a)
}

type failingSource struct{}

func (failingSource) Lookup(context.Context, string) (*MerkleEligibility, error) {
	return nil, errors.New("connection refused")
}

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000A11CE")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000B0B")
	carol = common.HexToAddress("0x00000000000000000000000000000000000CA201")
)

func mustWei(t *testing.T, s string) *big.Int {
	t.Helper()
	w, err := ParseAmount(s)
	require.NoError(t, err)
	return w
}

func testSource(t *testing.T) *FileSource {
	t.Helper()
	data, _, err := merkle.Generate([]merkle.Allocation{
		{Address: alice, Value: "100.0", Amount: mustWei(t, "100.0")},
		{Address: bob, Value: "2500.5", Amount: mustWei(t, "2500.5")},
	})
	require.NoError(t, err)
	return NewFileSource(data)
}

func TestResolve_NoWallet(t *testing.T) {
	r := NewResolver(testSource(t), newFakeLedger())
	_, err := r.Resolve(context.Background(), "")
	assert.True(t, IsUnavailable(err))
}

func TestResolve_SourceUnreachableIsUnavailable(t *testing.T) {
	r := NewResolver(failingSource{}, newFakeLedger())
	_, err := r.Resolve(context.Background(), alice.Hex())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.ErrorContains(t, err, "connection refused")
}

func TestResolve_LedgerFailureIsUnavailable(t *testing.T) {
	ledger := newFakeLedger()
	ledger.err = errors.New("rpc timeout")
	r := NewResolver(testSource(t), ledger)
	_, err := r.Resolve(context.Background(), alice.Hex())
	assert.True(t, IsUnavailable(err))
}

func TestResolve_NotInTreeIsZeroEntitlement(t *testing.T) {
	r := NewResolver(testSource(t), newFakeLedger())
	state, err := r.Resolve(context.Background(), carol.Hex())
	require.NoError(t, err)
	assert.Nil(t, state.Eligibility)
	assert.True(t, state.Unclaimed().IsZero())
	assert.False(t, HasUnclaimedAirdrop(state))
	assert.False(t, HasClaimedAirdrop(state), "no entitlement is not the same as already claimed")
}

func TestResolve_FullyClaimed(t *testing.T) {
	ledger := newFakeLedger()
	ledger.claimed[alice] = mustWei(t, "100.0")

	src := testSource(t)
	r := NewResolver(src, ledger, WithRoot(src.Root()))
	state, err := r.Resolve(context.Background(), alice.Hex())
	require.NoError(t, err)

	assert.True(t, state.Unclaimed().IsZero())
	assert.False(t, HasUnclaimedAirdrop(state))
	assert.True(t, HasClaimedAirdrop(state))
}

func TestResolve_PartialClaimAndBalances(t *testing.T) {
	ledger := newFakeLedger()
	ledger.claimed[bob] = mustWei(t, "500.25")
	ledger.deposited[bob] = mustWei(t, "10")
	ledger.balance[bob] = mustWei(t, "0.000000000000000001")

	src := testSource(t)
	r := NewResolver(src, ledger, WithRoot(src.Root()))
	state, err := r.Resolve(context.Background(), bob.Hex())
	require.NoError(t, err)

	assert.Equal(t, "2000.25", state.Unclaimed().String())
	assert.Equal(t, "2010.250000000000000001", state.TotalBalance().String())
	assert.True(t, HasUnclaimedAirdrop(state))
}

func TestResolve_LowercaseAddress(t *testing.T) {
	r := NewResolver(testSource(t), newFakeLedger())
	state, err := r.Resolve(context.Background(), merkle.NormalizeAddress(alice.Hex()))
	require.NoError(t, err)
	require.NotNil(t, state.Eligibility)
	assert.Equal(t, "100", state.TotalGranted.String())
}

func TestResolve_ProofMismatch(t *testing.T) {
	src := testSource(t)
	entry := src.data.Entries[merkle.NormalizeAddress(alice.Hex())]
	entry.Value = "1000.0"
	src.data.Entries[merkle.NormalizeAddress(alice.Hex())] = entry

	r := NewResolver(src, newFakeLedger(), WithRoot(src.Root()))
	_, err := r.Resolve(context.Background(), alice.Hex())
	assert.ErrorIs(t, err, ErrProofMismatch)
	assert.False(t, IsUnavailable(err))
}

func TestResolve_InvalidAddress(t *testing.T) {
	r := NewResolver(testSource(t), newFakeLedger())
	_, err := r.Resolve(context.Background(), "0xnothex")
	require.Error(t, err)
	assert.False(t, IsUnavailable(err))
}

func TestUnclaimed_ClampedAtZero(t *testing.T) {
	state := ClaimState{
		Eligibility:    &MerkleEligibility{},
		TotalGranted:   FromWei(big.NewInt(5)),
		AlreadyClaimed: FromWei(big.NewInt(9)),
	}
	assert.True(t, state.Unclaimed().IsZero())
	assert.False(t, state.Unclaimed().IsNegative())
}
