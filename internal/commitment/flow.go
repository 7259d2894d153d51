package commitment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/council/internal/wizard"
)

// Flow steps.
const (
	StepIntro      = 1
	StepEncryption = 2
	StepShare      = 3
)

var (
	// ErrIncompletePair is returned when key or secret is empty.
	ErrIncompletePair = errors.New("commitment: key and secret are required")

	// ErrStaleExport is returned when the key changed while an export was
	// in flight. The export gate stays closed.
	ErrStaleExport = errors.New("commitment: key changed during export")
)

// Flow is the three-step private claim wizard: intro, encryption, share.
//
// Leaving the encryption step requires an export made since the last key
// change. Setting a key closes the gate immediately, including for an
// export that is still running. Flow is safe for concurrent use.
type Flow struct {
	mu       sync.Mutex
	wiz      *wizard.Wizard
	hasher   Hasher
	exporter Exporter

	pair       Pair
	generation uint64
	exported   bool
	publicID   string
}

// NewFlow creates a flow positioned on the intro step. The intro step
// starts completed so the user may advance without any action.
func NewFlow(hasher Hasher, exporter Exporter, opts ...wizard.Option) (*Flow, error) {
	opts = append([]wizard.Option{wizard.WithInitialCompleted(StepIntro)}, opts...)
	wiz, err := wizard.New(StepShare, opts...)
	if err != nil {
		return nil, err
	}
	return &Flow{wiz: wiz, hasher: hasher, exporter: exporter}, nil
}

// SetKey replaces the key, re-derives the secret and closes the export
// gate. It returns the new pair. The key is fixed once the share step is
// reached; step back to the encryption step to change it.
func (f *Flow) SetKey(key string) (Pair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.wiz.CurrentStep() > StepEncryption {
		return f.pair, f.wiz.Refuse(wizard.OpComplete, StepEncryption, "key is fixed on the share step")
	}
	f.pair = Derive(key)
	f.generation++
	f.exported = false
	f.publicID = ""
	slog.Debug("commitment key changed", "generation", f.generation)
	return f.pair, nil
}

// RestoreExport reopens the export gate for a flow rebuilt from a stored
// session. publicID is the id saved by that session's last export; the
// key itself is never stored, so Pair stays empty until SetKey.
func (f *Flow) RestoreExport(publicID string) {
	if publicID == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exported = true
	f.publicID = publicID
}

// Pair returns the current pair.
func (f *Flow) Pair() Pair {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pair
}

// Exported reports whether the current key has been exported.
func (f *Flow) Exported() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exported
}

// PublicID returns the shareable id once the current key is exported.
func (f *Flow) PublicID() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.publicID, f.publicID != ""
}

// Export hands the pair to the exporter and, if the key is unchanged when
// it returns, opens the gate, computes the public id and completes the
// encryption step. It is refused on any other step.
func (f *Flow) Export(ctx context.Context) error {
	f.mu.Lock()
	pair := f.pair
	gen := f.generation
	if f.wiz.CurrentStep() != StepEncryption {
		defer f.mu.Unlock()
		return f.wiz.Refuse(wizard.OpComplete, StepEncryption, "export is only possible on the encryption step")
	}
	if !pair.Complete() {
		defer f.mu.Unlock()
		return f.wiz.Refuse(wizard.OpComplete, StepEncryption, ErrIncompletePair.Error())
	}
	f.mu.Unlock()

	publicID, err := PublicID(f.hasher, pair)
	if err != nil {
		return err
	}

	if err := f.exporter.Export(ctx, ExportName, pair); err != nil {
		return fmt.Errorf("export key and secret: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generation != gen {
		slog.Warn("discarding export for replaced key", "generation", gen, "current", f.generation)
		return ErrStaleExport
	}
	f.exported = true
	f.publicID = publicID
	if err := f.wiz.Complete(StepEncryption); err != nil {
		return err
	}
	slog.Info("commitment exported", "public_id", publicID)
	return nil
}

// CanAdvance reports whether Next would currently succeed.
func (f *Flow) CanAdvance() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	target := f.wiz.CurrentStep() + 1
	return target <= f.wiz.Steps() && f.gateOpen(target) && f.wiz.CanView(target) && !f.wiz.Locked()
}

// CanView reports whether step is reachable, including the export gate.
func (f *Flow) CanView(step int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wiz.CanView(step) && f.gateOpen(step)
}

// Next advances one step.
func (f *Flow) Next() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur := f.wiz.CurrentStep()
	if !f.gateOpen(cur + 1) {
		return f.wiz.Refuse(wizard.OpNext, cur+1, "key and secret not exported")
	}
	return f.wiz.Next()
}

// Previous moves back one step.
func (f *Flow) Previous() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wiz.Previous()
}

// GoTo jumps to step.
func (f *Flow) GoTo(step int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.gateOpen(step) {
		return f.wiz.Refuse(wizard.OpGoTo, step, "key and secret not exported")
	}
	return f.wiz.GoTo(step)
}

// State returns the wizard snapshot.
func (f *Flow) State() wizard.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wiz.State()
}

// Statuses returns per-step render status.
func (f *Flow) Statuses() []wizard.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wiz.Statuses()
}

// Observe registers a wizard transition observer. Observers run with the
// flow lock held and must not call back into the flow.
func (f *Flow) Observe(o wizard.Observer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wiz.Observe(o)
}

func (f *Flow) gateOpen(step int) bool {
	if step != StepShare {
		return true
	}
	return f.exported && f.publicID != ""
}
