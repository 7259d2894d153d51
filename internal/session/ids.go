package session

import "github.com/google/uuid"

// IDGenerator creates session ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator creates time-sortable UUIDv7 session ids, so listing
// sessions by id roughly follows creation order.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a hyphenated UUIDv7. It panics if the random source
// fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
