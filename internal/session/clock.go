package session

import "sync/atomic"

// Sequencer hands out strictly increasing logical timestamps.
type Sequencer interface {
	Next() int64
}

// Clock is the default Sequencer. Session events are ordered by the seq it
// returns, never by wall time, so a replayed log keeps its order.
//
// Thread-safety: Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that continues after start, for example the
// highest seq already in the store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
