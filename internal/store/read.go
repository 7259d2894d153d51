package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/council/internal/chain"
)

// GetSession returns the session with id.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, flow, steps, current_step, highest_completed_step, phase, created_seq, updated_seq
		FROM sessions
		WHERE id = ?
	`, id)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("get session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// ListSessions returns every session, oldest first.
//
// Returns an empty slice (not nil) when there are none.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, flow, steps, current_step, highest_completed_step, phase, created_seq, updated_seq
		FROM sessions
		ORDER BY created_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadEvents returns a session's transition log in seq order.
//
// Returns an empty slice (not nil) if the session has no events.
func (s *Store) ReadEvents(ctx context.Context, sessionID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, seq, op, step, from_pos, to_pos, accepted, reason
		FROM session_events
		WHERE session_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var accepted int
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Seq, &e.Op, &e.Step, &e.From, &e.To, &accepted, &e.Reason); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Accepted = accepted == 1
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// MaxSeq returns the highest seq used by any session or event, or 0 for an
// empty store. Clocks resume from it.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT MAX(seq) FROM session_events), 0),
			COALESCE((SELECT MAX(updated_seq) FROM sessions), 0),
			COALESCE((SELECT MAX(seq) FROM public_ids), 0)
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq, nil
}

// PublicIDs returns the public ids saved for a session in seq order.
func (s *Store) PublicIDs(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT public_id
		FROM public_ids
		WHERE session_id = ?
		ORDER BY seq ASC, public_id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query public ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan public id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate public ids: %w", err)
	}
	return ids, nil
}

// Transactions returns recorded transactions in insertion order.
func (s *Store) Transactions(ctx context.Context) ([]chain.TxRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT method, from_addr, to_addr, tx_hash, status, error
		FROM transactions
		ORDER BY ordinal ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	records := []chain.TxRecord{}
	for rows.Next() {
		var rec chain.TxRecord
		var from, to, hash string
		if err := rows.Scan(&rec.Method, &from, &to, &hash, &rec.Status, &rec.Err); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		rec.From = common.HexToAddress(from)
		rec.To = common.HexToAddress(to)
		rec.TxHash = common.HexToHash(hash)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var sess Session
	err := row.Scan(
		&sess.ID,
		&sess.Flow,
		&sess.Steps,
		&sess.CurrentStep,
		&sess.HighestCompletedStep,
		&sess.Phase,
		&sess.CreatedSeq,
		&sess.UpdatedSeq,
	)
	return sess, err
}
