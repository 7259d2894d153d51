package session

import (
	"context"
	"fmt"

	"github.com/roach88/council/internal/airdrop"
	"github.com/roach88/council/internal/commitment"
	"github.com/roach88/council/internal/wizard"
)

// Commitment is a tracked private claim flow.
type Commitment struct {
	*commitment.Flow
	Tracker *Tracker
}

// StartCommitment begins a tracked commitment flow.
func (m *Manager) StartCommitment(ctx context.Context, hasher commitment.Hasher, exporter commitment.Exporter) (*Commitment, error) {
	flow, err := commitment.NewFlow(hasher, exporter)
	if err != nil {
		return nil, err
	}
	tracker, err := m.Start(ctx, FlowCommitment, commitment.StepShare, flow.State())
	if err != nil {
		return nil, err
	}
	flow.Observe(tracker.ObserveWizard)
	return &Commitment{Flow: flow, Tracker: tracker}, nil
}

// ResumeCommitment restores a commitment flow at its persisted position.
// The key is never stored; the export gate is reopened from the last public
// id the session saved, and stays closed when it never exported.
func (m *Manager) ResumeCommitment(ctx context.Context, id string, hasher commitment.Hasher, exporter commitment.Exporter) (*Commitment, error) {
	tracker, state, err := m.Resume(ctx, id)
	if err != nil {
		return nil, err
	}
	if flow := tracker.Session().Flow; flow != FlowCommitment {
		return nil, fmt.Errorf("resume %s as %s: %w (%s)", id, FlowCommitment, ErrWrongFlow, flow)
	}
	flow, err := commitment.NewFlow(hasher, exporter, wizard.WithState(state))
	if err != nil {
		return nil, err
	}
	ids, err := m.store.PublicIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resume %s: %w", id, err)
	}
	if len(ids) > 0 {
		flow.RestoreExport(ids[len(ids)-1])
	}
	flow.Observe(tracker.ObserveWizard)
	return &Commitment{Flow: flow, Tracker: tracker}, nil
}

// Export exports the pair and stores the resulting public id.
func (c *Commitment) Export(ctx context.Context) error {
	if err := c.Flow.Export(ctx); err != nil {
		return err
	}
	id, ok := c.Flow.PublicID()
	if !ok {
		return nil
	}
	return c.Tracker.SavePublicID(ctx, id)
}

// StartAirdrop begins a tracked airdrop claim flow. Only the phase is
// persisted; airdrop sessions are not resumable because the phase depends
// on live eligibility.
func (m *Manager) StartAirdrop(ctx context.Context, claimer *airdrop.Claimer) (*airdrop.Flow, *Tracker, error) {
	tracker, err := m.start(ctx, FlowAirdrop, 1, wizard.State{CurrentStep: 1}, airdrop.PhaseStartClaiming.String())
	if err != nil {
		return nil, nil, err
	}
	flow := airdrop.NewFlow(claimer)
	flow.Observe(tracker.ObservePhase)
	return flow, tracker, nil
}
