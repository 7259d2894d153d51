package wizard

// Status is the render state of a single step.
type Status int

const (
	StatusUpcoming Status = iota
	StatusCurrent
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusCurrent:
		return "current"
	case StatusComplete:
		return "complete"
	default:
		return "upcoming"
	}
}

// MarshalText renders the status as its lowercase name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StatusMode decides which status wins when the current step has also been
// completed.
type StatusMode int

const (
	// CurrentFirst reports the current step as current even when completed.
	CurrentFirst StatusMode = iota

	// CompleteFirst reports a completed current step as complete, so a
	// finished final step renders as done.
	CompleteFirst
)

// StatusOf returns the status of step under the wizard's status mode.
// Steps outside [1, steps] are reported as upcoming.
func (w *Wizard) StatusOf(step int) Status {
	return statusOf(step, w.state, w.steps, w.statusMode)
}

// Statuses returns the status of every step, index 0 holding step 1.
func (w *Wizard) Statuses() []Status {
	out := make([]Status, w.steps)
	for i := range out {
		out[i] = w.StatusOf(i + 1)
	}
	return out
}

func statusOf(step int, s State, steps int, mode StatusMode) Status {
	if step < 1 || step > steps {
		return StatusUpcoming
	}
	completed := step <= s.HighestCompletedStep
	current := step == s.CurrentStep

	switch {
	case current && completed && mode == CompleteFirst:
		return StatusComplete
	case current:
		return StatusCurrent
	case completed:
		return StatusComplete
	default:
		return StatusUpcoming
	}
}
