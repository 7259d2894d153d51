// Package session persists wizard sessions: their position, transition
// log and derived public ids.
//
// A Manager creates Trackers. A Tracker observes one flow and writes every
// processed request to the store as an event, updating the persisted
// position after accepted ones. Resume rebuilds a flow from that position.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/council/internal/airdrop"
	"github.com/roach88/council/internal/store"
	"github.com/roach88/council/internal/wizard"
)

// Flow kinds.
const (
	FlowWizard     = "wizard"
	FlowCommitment = "commitment"
	FlowAirdrop    = "airdrop"
)

// ErrWrongFlow is returned when resuming a session as a different flow.
var ErrWrongFlow = errors.New("session belongs to another flow")

// Store is the persistence the manager needs. *store.Store satisfies it.
type Store interface {
	CreateSession(ctx context.Context, sess store.Session) error
	UpdateSession(ctx context.Context, sess store.Session) error
	AppendEvent(ctx context.Context, e store.Event) error
	SavePublicID(ctx context.Context, sessionID, publicID string, seq int64) error
	GetSession(ctx context.Context, id string) (store.Session, error)
	PublicIDs(ctx context.Context, sessionID string) ([]string, error)
	MaxSeq(ctx context.Context) (int64, error)
}

// Manager creates and resumes tracked sessions.
type Manager struct {
	store Store
	clock Sequencer
	ids   IDGenerator
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the default store-seeded clock.
func WithClock(c Sequencer) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithIDGenerator replaces the UUIDv7 generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(m *Manager) {
		m.ids = g
	}
}

// NewManager creates a manager. Without WithClock the clock continues from
// the highest seq already stored.
func NewManager(ctx context.Context, st Store, opts ...Option) (*Manager, error) {
	m := &Manager{store: st, ids: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		last, err := st.MaxSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("seed session clock: %w", err)
		}
		m.clock = NewClockAt(last)
	}
	return m, nil
}

// Start creates a session for a flow with steps steps, positioned at state.
func (m *Manager) Start(ctx context.Context, flow string, steps int, state wizard.State) (*Tracker, error) {
	return m.start(ctx, flow, steps, state, "")
}

func (m *Manager) start(ctx context.Context, flow string, steps int, state wizard.State, phase string) (*Tracker, error) {
	seq := m.clock.Next()
	sess := store.Session{
		ID:                   m.ids.Generate(),
		Flow:                 flow,
		Steps:                steps,
		CurrentStep:          state.CurrentStep,
		HighestCompletedStep: state.HighestCompletedStep,
		Phase:                phase,
		CreatedSeq:           seq,
		UpdatedSeq:           seq,
	}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	slog.Debug("session started", "session", sess.ID, "flow", flow)
	return &Tracker{m: m, ctx: ctx, sess: sess}, nil
}

// Resume loads a session and returns a tracker for it together with the
// persisted wizard position.
func (m *Manager) Resume(ctx context.Context, id string) (*Tracker, wizard.State, error) {
	sess, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, wizard.State{}, err
	}
	state := wizard.State{
		CurrentStep:          sess.CurrentStep,
		HighestCompletedStep: sess.HighestCompletedStep,
	}
	slog.Debug("session resumed", "session", sess.ID, "flow", sess.Flow, "position", Position(state))
	return &Tracker{m: m, ctx: ctx, sess: sess}, state, nil
}

// Position renders a wizard state as current/highest, the form stored in
// the event log.
func Position(s wizard.State) string {
	return fmt.Sprintf("%d/%d", s.CurrentStep, s.HighestCompletedStep)
}

// Tracker records the transitions of one session.
//
// Observer callbacks have no error return, so write failures are logged
// and the first one is kept for Err.
type Tracker struct {
	m   *Manager
	ctx context.Context

	mu   sync.Mutex
	sess store.Session
	err  error
}

// ID returns the session id.
func (t *Tracker) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess.ID
}

// Session returns the persisted session as last written.
func (t *Tracker) Session() store.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess
}

// Err returns the first persistence failure, if any.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// ObserveWizard is a wizard.Observer.
func (t *Tracker) ObserveWizard(tr wizard.Transition) {
	e := store.Event{
		Op:       string(tr.Op),
		Step:     tr.Step,
		From:     Position(tr.From),
		To:       Position(tr.To),
		Accepted: tr.Accepted,
	}
	if tr.Err != nil {
		e.Reason = tr.Err.Error()
	}
	t.record(e, func(s *store.Session) {
		s.CurrentStep = tr.To.CurrentStep
		s.HighestCompletedStep = tr.To.HighestCompletedStep
	})
}

// ObservePhase is an airdrop.Observer.
func (t *Tracker) ObservePhase(tr airdrop.Transition) {
	e := store.Event{
		Op:       tr.Event.String(),
		From:     tr.From.String(),
		To:       tr.To.String(),
		Accepted: tr.Accepted,
	}
	if tr.Err != nil {
		e.Reason = tr.Err.Error()
	}
	t.record(e, func(s *store.Session) {
		s.Phase = tr.To.String()
	})
}

func (t *Tracker) record(e store.Event, apply func(*store.Session)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seq := t.m.clock.Next()
	e.SessionID = t.sess.ID
	e.Seq = seq
	if err := t.m.store.AppendEvent(t.ctx, e); err != nil {
		t.fail(err)
		return
	}
	if !e.Accepted {
		return
	}

	next := t.sess
	apply(&next)
	next.UpdatedSeq = seq
	if err := t.m.store.UpdateSession(t.ctx, next); err != nil {
		t.fail(err)
		return
	}
	t.sess = next
}

func (t *Tracker) fail(err error) {
	slog.Error("session write failed", "session", t.sess.ID, "error", err)
	if t.err == nil {
		t.err = err
	}
}

// SavePublicID stores a public id derived in this session.
func (t *Tracker) SavePublicID(ctx context.Context, publicID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m.store.SavePublicID(ctx, t.sess.ID, publicID, t.m.clock.Next())
}
