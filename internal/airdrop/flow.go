// Package airdrop drives the main airdrop claim wizard: eligibility check,
// preview, delegate choice and the combined claim-and-delegate transaction.
package airdrop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/council/internal/chain"
	"github.com/roach88/council/internal/delegate"
	"github.com/roach88/council/internal/eligibility"
	"github.com/roach88/council/internal/wizard"
)

var (
	// ErrNoDelegate is returned when leaving the delegate choice without a
	// valid delegate.
	ErrNoDelegate = errors.New("airdrop: no delegate chosen")

	// ErrNothingToClaim is returned by Claim when nothing is unclaimed.
	ErrNothingToClaim = errors.New("airdrop: nothing to claim")
)

// TransitionError reports a refused phase change. The phase is unchanged.
type TransitionError struct {
	From   Phase
	Event  Event
	Reason error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s on %s: %v", wizard.ErrCodeInvalidTransition, e.Event, e.From, e.Reason)
}

func (e *TransitionError) Unwrap() error {
	return e.Reason
}

// errNoTransition is the reason for pairs absent from the table.
var errNoTransition = errors.New("no such transition")

// Transition records one processed event.
type Transition struct {
	From     Phase
	To       Phase
	Event    Event
	Accepted bool
	Err      error
}

// Observer is notified of every processed event.
type Observer func(Transition)

// Flow is the airdrop claim wizard for one connected account. It is safe
// for concurrent use.
type Flow struct {
	mu        sync.Mutex
	phase     Phase
	started   bool
	account   common.Address
	connected bool
	state     *eligibility.ClaimState
	delegate  common.Address
	hasDel    bool
	claimed   bool
	claimer   *Claimer
	observers []Observer
}

// NewFlow creates a flow on the start phase. claimer may be nil when the
// flow is only navigated, never claimed.
func NewFlow(claimer *Claimer) *Flow {
	return &Flow{phase: PhaseStartClaiming, claimer: claimer}
}

// Observe registers o.
func (f *Flow) Observe(o Observer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, o)
}

// Connect sets the wallet account.
func (f *Flow) Connect(account common.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.account = account
	f.connected = true
}

// SetEligibility records a resolved claim state.
func (f *Flow) SetEligibility(state eligibility.ClaimState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = &state
}

// SetUnavailable forgets the claim state, for example after a failed
// lookup.
func (f *Flow) SetUnavailable() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = nil
}

// ChooseDelegate validates and records the delegate address.
func (f *Flow) ChooseDelegate(input string) error {
	addr, err := delegate.ValidateAddress(input)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delegate = addr
	f.hasDel = true
	return nil
}

// Phase returns the current phase.
func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Claimed reports whether the claim transaction succeeded in this flow.
func (f *Flow) Claimed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claimed
}

// Next fires EventNext.
func (f *Flow) Next() error { return f.Fire(EventNext) }

// Back fires EventBack.
func (f *Flow) Back() error { return f.Fire(EventBack) }

// Fire applies event through the transition table.
func (f *Flow) Fire(event Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fire(event)
}

func (f *Flow) fire(event Event) error {
	from := f.phase
	t, ok := transitions[transitionKey{from, event}]
	var target Phase
	var err error
	if !ok {
		err = errNoTransition
	} else {
		target, err = t(f)
	}

	if err != nil {
		terr := &TransitionError{From: from, Event: event, Reason: err}
		f.notify(Transition{From: from, To: from, Event: event, Err: terr})
		return terr
	}

	f.phase = target
	f.started = true
	f.notify(Transition{From: from, To: target, Event: event, Accepted: true})
	slog.Debug("airdrop phase", "event", event.String(), "from", from.String(), "to", target.String())
	return nil
}

func (f *Flow) notify(t Transition) {
	for _, o := range f.observers {
		o(t)
	}
}

func startClaimingNext(f *Flow) (Phase, error) {
	if f.state == nil {
		return 0, eligibility.ErrUnavailable
	}
	if !eligibility.HasUnclaimedAirdrop(*f.state) {
		return PhaseAlreadyClaimed, nil
	}
	return PhaseAirdropPreview, nil
}

func chooseDelegateNext(f *Flow) (Phase, error) {
	if !f.hasDel {
		return 0, ErrNoDelegate
	}
	return PhaseDelegatePreview, nil
}

// Claim submits the claim-and-delegate transaction from the final preview.
// A transaction failure leaves the phase unchanged and is returned as a
// chain.TransactionError.
func (f *Flow) Claim(ctx context.Context) (*chain.Receipt, error) {
	f.mu.Lock()
	if f.phase != PhaseClaimAndDelegatePreview {
		defer f.mu.Unlock()
		return nil, &TransitionError{From: f.phase, Event: EventClaimed, Reason: errNoTransition}
	}
	if f.claimer == nil {
		f.mu.Unlock()
		return nil, errors.New("airdrop: no claimer configured")
	}
	if f.state == nil || f.state.Eligibility == nil {
		f.mu.Unlock()
		return nil, eligibility.ErrUnavailable
	}
	if !eligibility.HasUnclaimedAirdrop(*f.state) {
		f.mu.Unlock()
		return nil, ErrNothingToClaim
	}
	state := *f.state
	del := f.delegate
	f.mu.Unlock()

	receipt, err := f.claimer.ClaimAndDelegate(ctx, state, del)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.claimed = true
	claimedState := state
	claimedState.AlreadyClaimed = state.TotalGranted
	f.state = &claimedState
	if err := f.fire(EventClaimed); err != nil {
		return receipt, err
	}
	return receipt, nil
}
