package airdrop

import "fmt"

// Phase is a stage of the airdrop claim wizard.
type Phase int

const (
	PhaseStartClaiming Phase = iota
	PhaseAirdropPreview
	PhaseAlreadyClaimed
	PhaseDelegateInstructions
	PhaseChooseDelegate
	PhaseDelegatePreview
	PhaseClaimAndDelegatePreview
)

var phaseNames = [...]string{
	PhaseStartClaiming:           "start_claiming",
	PhaseAirdropPreview:          "airdrop_preview",
	PhaseAlreadyClaimed:          "already_claimed",
	PhaseDelegateInstructions:    "delegate_instructions",
	PhaseChooseDelegate:          "choose_delegate",
	PhaseDelegatePreview:         "delegate_preview",
	PhaseClaimAndDelegatePreview: "claim_and_delegate_preview",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText renders the phase name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Event drives phase transitions.
type Event int

const (
	EventNext Event = iota
	EventBack
	EventClaimed
)

func (e Event) String() string {
	switch e {
	case EventNext:
		return "next"
	case EventBack:
		return "back"
	case EventClaimed:
		return "claimed"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

type transitionKey struct {
	from  Phase
	event Event
}

// A transition computes the target phase, or refuses with an error.
type transition func(f *Flow) (Phase, error)

func to(p Phase) transition {
	return func(*Flow) (Phase, error) { return p, nil }
}

// transitions is the complete table. Pairs missing from it are rejected.
var transitions = map[transitionKey]transition{
	{PhaseStartClaiming, EventNext}: startClaimingNext,

	{PhaseAirdropPreview, EventBack}: to(PhaseStartClaiming),
	{PhaseAirdropPreview, EventNext}: to(PhaseDelegateInstructions),

	{PhaseDelegateInstructions, EventBack}: to(PhaseAirdropPreview),
	{PhaseDelegateInstructions, EventNext}: to(PhaseChooseDelegate),

	{PhaseChooseDelegate, EventBack}: to(PhaseDelegateInstructions),
	{PhaseChooseDelegate, EventNext}: chooseDelegateNext,

	{PhaseDelegatePreview, EventBack}: to(PhaseChooseDelegate),
	{PhaseDelegatePreview, EventNext}: to(PhaseClaimAndDelegatePreview),

	{PhaseClaimAndDelegatePreview, EventBack}:    to(PhaseDelegatePreview),
	{PhaseClaimAndDelegatePreview, EventClaimed}: to(PhaseClaimAndDelegatePreview),
}
