package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/council/internal/chain"
)

// ErrSessionNotFound is returned when a session id is unknown.
var ErrSessionNotFound = errors.New("session not found")

// Session is a persisted flow position.
type Session struct {
	ID                   string `json:"id"`
	Flow                 string `json:"flow"`
	Steps                int    `json:"steps"`
	CurrentStep          int    `json:"current_step"`
	HighestCompletedStep int    `json:"highest_completed_step"`
	Phase                string `json:"phase,omitempty"`
	CreatedSeq           int64  `json:"created_seq"`
	UpdatedSeq           int64  `json:"updated_seq"`
}

// Event is one entry of a session's transition log. From and To are the
// rendered positions before and after the request.
type Event struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
	Op        string `json:"op"`
	Step      int    `json:"step"`
	From      string `json:"from"`
	To        string `json:"to"`
	Accepted  bool   `json:"accepted"`
	Reason    string `json:"reason,omitempty"`
}

// CreateSession inserts a new session. The id must be unique.
func (s *Store) CreateSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, flow, steps, current_step, highest_completed_step, phase, created_seq, updated_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sess.ID,
		sess.Flow,
		sess.Steps,
		sess.CurrentStep,
		sess.HighestCompletedStep,
		sess.Phase,
		sess.CreatedSeq,
		sess.UpdatedSeq,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// UpdateSession persists the position of an existing session. Only the
// step fields, phase and updated_seq change.
func (s *Store) UpdateSession(ctx context.Context, sess Session) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET current_step = ?, highest_completed_step = ?, phase = ?, updated_seq = ?
		WHERE id = ?
	`,
		sess.CurrentStep,
		sess.HighestCompletedStep,
		sess.Phase,
		sess.UpdatedSeq,
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update session %s: %w", sess.ID, ErrSessionNotFound)
	}
	return nil
}

// AppendEvent writes an event to the transition log. An empty ID is
// filled with EventID. Writing the same event twice is a no-op.
func (s *Store) AppendEvent(ctx context.Context, e Event) error {
	if e.ID == "" {
		id, err := EventID(e)
		if err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		e.ID = id
	}

	accepted := 0
	if e.Accepted {
		accepted = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_events
		(id, session_id, seq, op, step, from_pos, to_pos, accepted, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.SessionID,
		e.Seq,
		e.Op,
		e.Step,
		e.From,
		e.To,
		accepted,
		e.Reason,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// SavePublicID records a public id derived in a session. Saving the same
// id twice is a no-op.
func (s *Store) SavePublicID(ctx context.Context, sessionID, publicID string, seq int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO public_ids (session_id, public_id, seq)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`, sessionID, publicID, seq)
	if err != nil {
		return fmt.Errorf("save public id: %w", err)
	}
	return nil
}

// RecordTransaction implements chain.Recorder. Records are ordered by
// insertion; identical records collapse.
func (s *Store) RecordTransaction(ctx context.Context, rec chain.TxRecord) error {
	id, err := TransactionID(rec)
	if err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions
		(id, ordinal, method, from_addr, to_addr, tx_hash, status, error)
		VALUES (?, (SELECT COALESCE(MAX(ordinal), 0) + 1 FROM transactions), ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		rec.Method,
		rec.From.Hex(),
		rec.To.Hex(),
		rec.TxHash.Hex(),
		rec.Status,
		rec.Err,
	)
	if err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}

var _ chain.Recorder = (*Store)(nil)
