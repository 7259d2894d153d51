package store

import (
	"context"
	"fmt"
)

// History is everything recorded for one session, used to inspect or
// resume it.
type History struct {
	Session   Session
	Events    []Event
	PublicIDs []string
	LastSeq   int64
	Accepted  int
	Rejected  int
	// LastPosition is the To position of the last accepted event, empty if
	// none was accepted.
	LastPosition string
}

// GetHistory loads a session together with its log.
func (s *Store) GetHistory(ctx context.Context, sessionID string) (History, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return History{}, fmt.Errorf("get history: %w", err)
	}
	h := History{Session: sess, LastSeq: sess.UpdatedSeq}

	events, err := s.ReadEvents(ctx, sessionID)
	if err != nil {
		return History{}, fmt.Errorf("get history: %w", err)
	}
	h.Events = events

	for _, e := range events {
		if e.Seq > h.LastSeq {
			h.LastSeq = e.Seq
		}
		if e.Accepted {
			h.Accepted++
			h.LastPosition = e.To
		} else {
			h.Rejected++
		}
	}

	ids, err := s.PublicIDs(ctx, sessionID)
	if err != nil {
		return History{}, fmt.Errorf("get history: %w", err)
	}
	h.PublicIDs = ids

	return h, nil
}
