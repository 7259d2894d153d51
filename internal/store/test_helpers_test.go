package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore opens a fresh store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession inserts a three-step session positioned on step 1.
func createTestSession(t *testing.T, s *Store, id string, seq int64) Session {
	t.Helper()
	sess := Session{
		ID:          id,
		Flow:        "commitment",
		Steps:       3,
		CurrentStep: 1,
		CreatedSeq:  seq,
		UpdatedSeq:  seq,
	}
	if err := s.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return sess
}
