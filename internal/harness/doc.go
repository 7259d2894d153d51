// Package harness runs YAML flow scenarios and compares their session logs
// against golden traces.
//
// A scenario drives one flow (a bare wizard, the commitment flow or the
// airdrop claim flow) through a list of ops. Every op runs through a
// session.Tracker backed by an in-memory store, so the trace under test is
// the persisted transition log, not a copy kept by the harness.
//
// Runs are deterministic: seq values come from testutil.DeterministicClock
// and session ids from testutil.FixedFlowGenerator seeded with the
// scenario name. Golden traces leave out public ids and event ids.
package harness
