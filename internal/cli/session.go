package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/council/internal/session"
	"github.com/roach88/council/internal/store"
	"github.com/roach88/council/internal/wizard"
)

// SessionSummary is one row of the session list.
type SessionSummary struct {
	ID       string `json:"id"`
	Flow     string `json:"flow"`
	Position string `json:"position"`
	Phase    string `json:"phase,omitempty"`
	Updated  int64  `json:"updated_seq"`
}

// SessionList is every recorded session, oldest first.
type SessionList struct {
	Sessions []SessionSummary `json:"sessions"`
}

func (l SessionList) String() string {
	if len(l.Sessions) == 0 {
		return "No sessions found."
	}
	var b strings.Builder
	for _, s := range l.Sessions {
		fmt.Fprintf(&b, "%s  %-10s %s", s.ID, s.Flow, s.Position)
		if s.Phase != "" {
			fmt.Fprintf(&b, " %s", s.Phase)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// SessionEventView is one recorded transition.
type SessionEventView struct {
	Seq      int64  `json:"seq"`
	Op       string `json:"op"`
	Step     int    `json:"step"`
	From     string `json:"from"`
	To       string `json:"to"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// SessionHistoryView is a session with its transition log.
type SessionHistoryView struct {
	Session      SessionSummary     `json:"session"`
	Events       []SessionEventView `json:"events"`
	PublicIDs    []string           `json:"public_ids"`
	Accepted     int                `json:"accepted"`
	Rejected     int                `json:"rejected"`
	LastPosition string             `json:"last_position,omitempty"`
}

func (v SessionHistoryView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s (%s) at %s\n", v.Session.ID, v.Session.Flow, v.Session.Position)
	for _, e := range v.Events {
		mark := "ok"
		if !e.Accepted {
			mark = "rejected"
		}
		fmt.Fprintf(&b, "  %4d %-10s %s -> %s %s", e.Seq, e.Op, e.From, e.To, mark)
		if e.Reason != "" {
			fmt.Fprintf(&b, ": %s", e.Reason)
		}
		b.WriteByte('\n')
	}
	for _, id := range v.PublicIDs {
		fmt.Fprintf(&b, "  public id %s\n", id)
	}
	fmt.Fprintf(&b, "%d accepted, %d rejected", v.Accepted, v.Rejected)
	return b.String()
}

// NewSessionCommand creates the session command.
func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "session [id]",
		Short: "Inspect recorded flow sessions",
		Long: `Without an id, list every recorded session. With an id, print the
session's transition log in sequence order, including rejected attempts.

Examples:
  council session
  council session 01939a4e-7c1f-7a2b-9d3e-5f6a7b8c9d0e --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv(rootOpts)
			defer e.close()
			ctx := commandContext(cmd)
			out := NewFormatter(cmd, rootOpts)

			st, err := e.openStore()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				sessions, err := st.ListSessions(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list sessions", err)
				}
				list := SessionList{Sessions: make([]SessionSummary, 0, len(sessions))}
				for _, s := range sessions {
					list.Sessions = append(list.Sessions, summarize(s))
				}
				return out.Success(list)
			}

			h, err := st.GetHistory(ctx, args[0])
			if errors.Is(err, store.ErrSessionNotFound) {
				return &ExitError{Code: ExitCommandError, Message: "unknown session " + args[0], Err: err, CodeName: CodeStore}
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read session", err)
			}
			return out.Success(historyView(h))
		},
	}
}

func summarize(s store.Session) SessionSummary {
	return SessionSummary{
		ID:       s.ID,
		Flow:     s.Flow,
		Position: session.Position(wizard.State{CurrentStep: s.CurrentStep, HighestCompletedStep: s.HighestCompletedStep}),
		Phase:    s.Phase,
		Updated:  s.UpdatedSeq,
	}
}

func historyView(h store.History) SessionHistoryView {
	v := SessionHistoryView{
		Session:      summarize(h.Session),
		Events:       make([]SessionEventView, 0, len(h.Events)),
		PublicIDs:    h.PublicIDs,
		Accepted:     h.Accepted,
		Rejected:     h.Rejected,
		LastPosition: h.LastPosition,
	}
	for _, e := range h.Events {
		v.Events = append(v.Events, SessionEventView{
			Seq:      e.Seq,
			Op:       e.Op,
			Step:     e.Step,
			From:     e.From,
			To:       e.To,
			Accepted: e.Accepted,
			Reason:   e.Reason,
		})
	}
	return v
}
