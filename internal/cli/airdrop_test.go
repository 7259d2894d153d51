package cli

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/council/internal/airdrop"
	"github.com/roach88/council/internal/delegate"
	"github.com/roach88/council/internal/eligibility"
	"github.com/roach88/council/internal/wizard"
)

var (
	account   = common.HexToAddress("0x52908400098527886E0F7030069857D2E4169EE7")
	delegatee = common.HexToAddress("0xde709f2102306220921060314715629080e2fb77")
)

func claimState(total, claimed string) eligibility.ClaimState {
	return eligibility.ClaimState{
		Address: account,
		Eligibility: &eligibility.MerkleEligibility{
			Address:   strings.ToLower(account.Hex()),
			LeafValue: total,
			Proof:     []common.Hash{common.HexToHash("0x01")},
		},
		TotalGranted:   decimal.RequireFromString(total),
		AlreadyClaimed: decimal.RequireFromString(claimed),
	}
}

func newWalk(s eligibility.ClaimState) *airdrop.Flow {
	f := airdrop.NewFlow(nil)
	f.Connect(account)
	f.SetEligibility(s)
	return f
}

func TestWalkAirdrop_StopsAtDelegateChoice(t *testing.T) {
	f := newWalk(claimState("100", "0"))

	require.NoError(t, walkAirdrop(f, ""))
	assert.Equal(t, airdrop.PhaseChooseDelegate, f.Phase())
	assert.Equal(t, wizard.StatusCurrent, f.Indicator().Delegate)
}

func TestWalkAirdrop_ReachesFinalPreview(t *testing.T) {
	f := newWalk(claimState("100", "0"))

	require.NoError(t, walkAirdrop(f, delegatee.Hex()))
	assert.Equal(t, airdrop.PhaseClaimAndDelegatePreview, f.Phase())
	assert.Equal(t, wizard.StatusCurrent, f.Indicator().ClaimAndDelegate)
}

func TestWalkAirdrop_AlreadyClaimed(t *testing.T) {
	f := newWalk(claimState("100", "100"))

	require.NoError(t, walkAirdrop(f, delegatee.Hex()))
	assert.Equal(t, airdrop.PhaseAlreadyClaimed, f.Phase())
}

func TestWalkAirdrop_InvalidDelegate(t *testing.T) {
	f := newWalk(claimState("100", "0"))

	err := walkAirdrop(f, "0x123")
	require.ErrorIs(t, err, delegate.ErrInvalidAddress)
	assert.Equal(t, airdrop.PhaseChooseDelegate, f.Phase())
	assert.Equal(t, ExitCommandError, fail("walk", err).Code)
}

func TestWalkAirdrop_Unavailable(t *testing.T) {
	f := airdrop.NewFlow(nil)
	f.Connect(account)
	f.SetUnavailable()

	err := walkAirdrop(f, "")
	require.Error(t, err)
	assert.Equal(t, CodeUnavailable, ErrorCode(err))
	assert.Equal(t, airdrop.PhaseStartClaiming, f.Phase())
}

func TestAirdropView_Text(t *testing.T) {
	s := claimState("1234.5", "0")
	f := newWalk(s)
	require.NoError(t, walkAirdrop(f, ""))

	text := newAirdropView(f, &s, "").String()
	assert.Contains(t, text, "Unclaimed:       1,234.5 ELFI")
	assert.Contains(t, text, "Phase: choose_delegate")
	assert.Contains(t, text, "[complete] connect_wallet")
	assert.Contains(t, text, "[current] delegate")
	assert.Contains(t, text, "[upcoming] claim_and_delegate")
}
