package store

import (
	"github.com/roach88/council/internal/canonical"
	"github.com/roach88/council/internal/chain"
)

// EventID computes the content-addressed id of a session event. The id
// covers every column except itself.
func EventID(e Event) (string, error) {
	return canonical.ID(canonical.DomainSessionEvent, map[string]any{
		"session_id": e.SessionID,
		"seq":        e.Seq,
		"op":         e.Op,
		"step":       int64(e.Step),
		"from":       e.From,
		"to":         e.To,
		"accepted":   e.Accepted,
		"reason":     e.Reason,
	})
}

// TransactionID computes the content-addressed id of a transaction record.
func TransactionID(rec chain.TxRecord) (string, error) {
	return canonical.ID(canonical.DomainTransaction, map[string]any{
		"method":  rec.Method,
		"from":    rec.From.Hex(),
		"to":      rec.To.Hex(),
		"tx_hash": rec.TxHash.Hex(),
		"status":  rec.Status,
		"error":   rec.Err,
	})
}
