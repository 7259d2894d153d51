package airdrop

import (
	"github.com/roach88/council/internal/eligibility"
	"github.com/roach88/council/internal/wizard"
)

// Stage is one of the three coarse steps shown above the claim wizard.
type Stage int

const (
	StageConnectWallet Stage = iota
	StageDelegate
	StageClaimAndDelegate
)

func (s Stage) String() string {
	switch s {
	case StageConnectWallet:
		return "connect_wallet"
	case StageDelegate:
		return "delegate"
	default:
		return "claim_and_delegate"
	}
}

// Indicator is the render status of each stage.
type Indicator struct {
	ConnectWallet    wizard.Status `json:"connect_wallet"`
	Delegate         wizard.Status `json:"delegate"`
	ClaimAndDelegate wizard.Status `json:"claim_and_delegate"`
}

// Indicator derives the stage statuses from the flow position.
func (f *Flow) Indicator() Indicator {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Indicator{
		ConnectWallet:    f.connectWalletStatus(),
		Delegate:         f.delegateStatus(),
		ClaimAndDelegate: f.claimAndDelegateStatus(),
	}
}

func (f *Flow) connectWalletStatus() wizard.Status {
	if f.connected {
		return wizard.StatusComplete
	}
	if f.started && f.phase == PhaseStartClaiming {
		return wizard.StatusComplete
	}
	return wizard.StatusUpcoming
}

func (f *Flow) delegateStatus() wizard.Status {
	if !f.started {
		return wizard.StatusUpcoming
	}
	switch f.phase {
	case PhaseStartClaiming, PhaseAirdropPreview:
		return wizard.StatusUpcoming
	case PhaseDelegateInstructions, PhaseChooseDelegate, PhaseDelegatePreview:
		return wizard.StatusCurrent
	default:
		return wizard.StatusComplete
	}
}

// The final stage renders complete first once the claim has landed.
func (f *Flow) claimAndDelegateStatus() wizard.Status {
	if f.phase != PhaseClaimAndDelegatePreview {
		return wizard.StatusUpcoming
	}
	if f.claimed || (f.state != nil && eligibility.HasClaimedAirdrop(*f.state)) {
		return wizard.StatusComplete
	}
	return wizard.StatusCurrent
}
