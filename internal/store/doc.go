// Package store provides SQLite-backed durable state for council flows.
//
// Tables:
//   - sessions: persisted wizard position (current and highest completed
//     step, airdrop phase) so a flow can be resumed
//   - session_events: append-only transition log with content-addressed ids
//   - public_ids: commitment public ids derived in a session
//   - transactions: outcome of every submitted contract transaction
//
// Ordering uses the logical seq column, never timestamps. Queries order by
// seq ASC, id ASC COLLATE BINARY so reads are identical across runs.
//
// Commitment keys and secrets are never stored.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
