// Package wizard implements an ordered-step controller with reachability
// guards.
//
// A Wizard tracks the current step and the highest completed step of a
// linear flow. A step is viewable when it is at most one past the highest
// completed step, so users can revisit anything they finished and move into
// exactly one unfinished step.
//
// INVARIANTS:
//   - CurrentStep >= 1 and CurrentStep <= HighestCompletedStep + 1
//   - HighestCompletedStep only ever grows (Complete is monotonic)
//   - A refused request leaves the state untouched
//
// A Wizard has a single owner. It is not safe for concurrent mutation;
// callers sharing one across goroutines must synchronize externally.
package wizard

import "fmt"

// Op names a wizard operation.
type Op string

const (
	OpNext     Op = "next"
	OpPrevious Op = "previous"
	OpGoTo     Op = "goto"
	OpComplete Op = "complete"
)

// State is a snapshot of the wizard position.
type State struct {
	CurrentStep          int `json:"current_step"`
	HighestCompletedStep int `json:"highest_completed_step"`
}

// Transition describes one processed request, accepted or not.
type Transition struct {
	Op       Op
	Step     int // requested step (target for navigation, index for complete)
	From     State
	To       State
	Accepted bool
	Err      error
}

// Observer is notified after every request the wizard processes.
type Observer func(Transition)

// Wizard is a generic ordered-step controller.
type Wizard struct {
	steps       int
	state       State
	statusMode  StatusMode
	lockOnFinal bool
	observers   []Observer
}

// Option configures a Wizard.
type Option func(*config)

type config struct {
	initialCompleted int
	resume           *State
	statusMode       StatusMode
	lockOnFinal      bool
	observers        []Observer
}

// WithInitialCompleted marks steps 1..n as completed at start.
func WithInitialCompleted(n int) Option {
	return func(c *config) {
		c.initialCompleted = n
	}
}

// WithState resumes a wizard from a persisted snapshot, for example one
// restored by routing integration.
func WithState(s State) Option {
	return func(c *config) {
		c.resume = &s
	}
}

// WithStatusMode sets how StatusOf treats a completed current step.
func WithStatusMode(m StatusMode) Option {
	return func(c *config) {
		c.statusMode = m
	}
}

// WithLockOnFinal makes the final step terminal: once reached, every
// navigation away from it is rejected.
func WithLockOnFinal() Option {
	return func(c *config) {
		c.lockOnFinal = true
	}
}

// WithObserver registers an observer for processed transitions.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observers = append(c.observers, o)
	}
}

// New creates a wizard with the given number of steps, positioned on step 1.
func New(steps int, opts ...Option) (*Wizard, error) {
	if steps < 1 {
		return nil, fmt.Errorf("wizard: steps must be >= 1, got %d", steps)
	}

	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.initialCompleted < 0 || cfg.initialCompleted > steps {
		return nil, fmt.Errorf("wizard: initial completed %d outside [0, %d]", cfg.initialCompleted, steps)
	}

	state := State{CurrentStep: 1, HighestCompletedStep: cfg.initialCompleted}
	if cfg.resume != nil {
		if err := validateState(*cfg.resume, steps); err != nil {
			return nil, err
		}
		state = *cfg.resume
		if state.HighestCompletedStep < cfg.initialCompleted {
			state.HighestCompletedStep = cfg.initialCompleted
		}
	}

	return &Wizard{
		steps:       steps,
		state:       state,
		statusMode:  cfg.statusMode,
		lockOnFinal: cfg.lockOnFinal,
		observers:   cfg.observers,
	}, nil
}

func validateState(s State, steps int) error {
	if s.HighestCompletedStep < 0 || s.HighestCompletedStep > steps {
		return fmt.Errorf("wizard: highest completed step %d outside [0, %d]", s.HighestCompletedStep, steps)
	}
	if s.CurrentStep < 1 || s.CurrentStep > steps {
		return fmt.Errorf("wizard: current step %d outside [1, %d]", s.CurrentStep, steps)
	}
	if s.CurrentStep > s.HighestCompletedStep+1 {
		return fmt.Errorf("wizard: current step %d not reachable with %d completed", s.CurrentStep, s.HighestCompletedStep)
	}
	return nil
}

// Steps returns the number of steps.
func (w *Wizard) Steps() int { return w.steps }

// State returns the current snapshot.
func (w *Wizard) State() State { return w.state }

// CurrentStep returns the current step.
func (w *Wizard) CurrentStep() int { return w.state.CurrentStep }

// HighestCompletedStep returns the highest completed step (0 if none).
func (w *Wizard) HighestCompletedStep() int { return w.state.HighestCompletedStep }

// Observe registers an additional observer.
func (w *Wizard) Observe(o Observer) {
	w.observers = append(w.observers, o)
}

// CanView reports whether step is reachable: 1 <= step <= highest+1.
// It is a pure predicate over the completion state; GoTo additionally
// enforces the step count and the final-step lock.
func (w *Wizard) CanView(step int) bool {
	return step >= 1 && step <= w.state.HighestCompletedStep+1
}

// Locked reports whether the wizard sits on a terminal final step.
func (w *Wizard) Locked() bool {
	return w.lockOnFinal && w.state.CurrentStep == w.steps
}

// Next advances to the following step. Moving into an uncompleted step is
// only allowed when it is the immediate next one.
func (w *Wizard) Next() error {
	from := w.state
	target := from.CurrentStep + 1

	switch {
	case w.Locked():
		return w.refuse(OpNext, target, rejected(OpNext, from.CurrentStep, target, "final step is terminal"))
	case target > w.steps:
		return w.refuse(OpNext, target, rejected(OpNext, from.CurrentStep, target, "already on the last step"))
	case !w.CanView(target):
		return w.refuse(OpNext, target, rejected(OpNext, from.CurrentStep, target, "current step not completed"))
	}

	w.state.CurrentStep = target
	w.emit(OpNext, target, from)
	return nil
}

// Previous moves back one step, floored at step 1. Going back from step 1
// is accepted and leaves the state unchanged.
func (w *Wizard) Previous() error {
	from := w.state
	target := from.CurrentStep - 1
	if target < 1 {
		target = 1
	}

	if w.Locked() && target != from.CurrentStep {
		return w.refuse(OpPrevious, target, rejected(OpPrevious, from.CurrentStep, target, "final step is terminal"))
	}

	w.state.CurrentStep = target
	w.emit(OpPrevious, target, from)
	return nil
}

// GoTo jumps to step if it is viewable. Unreached steps are rejected with
// an ErrCodeInvalidTransition error and the state is left untouched.
func (w *Wizard) GoTo(step int) error {
	from := w.state
	if step < 1 || step > w.steps {
		return w.refuse(OpGoTo, step, invalidIndex(OpGoTo, from.CurrentStep, step, w.steps))
	}
	if !w.CanView(step) {
		return w.refuse(OpGoTo, step, rejected(OpGoTo, from.CurrentStep, step, "step not reached"))
	}
	if w.Locked() && step != from.CurrentStep {
		return w.refuse(OpGoTo, step, rejected(OpGoTo, from.CurrentStep, step, "final step is terminal"))
	}

	w.state.CurrentStep = step
	w.emit(OpGoTo, step, from)
	return nil
}

// Complete raises the highest completed step to step. It never lowers it,
// so repeated or out-of-order calls are harmless.
func (w *Wizard) Complete(step int) error {
	from := w.state
	if step < 1 || step > w.steps {
		return w.refuse(OpComplete, step, invalidIndex(OpComplete, from.CurrentStep, step, w.steps))
	}

	w.state.HighestCompletedStep = max(w.state.HighestCompletedStep, step)
	w.emit(OpComplete, step, from)
	return nil
}

// Refuse rejects a request on behalf of a caller that layers its own gates
// on top of the wizard. Observers see it like any other rejection.
func (w *Wizard) Refuse(op Op, step int, reason string) error {
	return w.refuse(op, step, rejected(op, w.state.CurrentStep, step, reason))
}

func (w *Wizard) emit(op Op, step int, from State) {
	t := Transition{Op: op, Step: step, From: from, To: w.state, Accepted: true}
	for _, o := range w.observers {
		o(t)
	}
}

func (w *Wizard) refuse(op Op, step int, err *TransitionError) error {
	t := Transition{Op: op, Step: step, From: w.state, To: w.state, Err: err}
	for _, o := range w.observers {
		o(t)
	}
	return err
}
