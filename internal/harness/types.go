package harness

import "github.com/roach88/council/internal/store"

// TraceEvent is one persisted transition, without its content id.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	Op       string `json:"op"`
	Step     int    `json:"step"`
	From     string `json:"from"`
	To       string `json:"to"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

func traceFromEvents(events []store.Event) []TraceEvent {
	trace := make([]TraceEvent, 0, len(events))
	for _, e := range events {
		trace = append(trace, TraceEvent{
			Seq:      e.Seq,
			Op:       e.Op,
			Step:     e.Step,
			From:     e.From,
			To:       e.To,
			Accepted: e.Accepted,
			Reason:   e.Reason,
		})
	}
	return trace
}

// FinalState is the flow position after the last op.
type FinalState struct {
	CurrentStep          int      `json:"current_step"`
	HighestCompletedStep int      `json:"highest_completed_step"`
	Phase                string   `json:"phase,omitempty"`
	Exported             bool     `json:"exported"`
	PublicIDs            int      `json:"public_ids"`
	Statuses             []string `json:"statuses,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every op met its expectation and every assertion
	// held.
	Pass bool `json:"pass"`

	SessionID string       `json:"session_id"`
	Trace     []TraceEvent `json:"trace"`
	Final     FinalState   `json:"final"`
	Errors    []string     `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}, Errors: []string{}}
}

// AddError records a failure.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
