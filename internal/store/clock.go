package store

import "sync/atomic"

// seqClock is the monotonic logical clock that stamps every written row.
//
// Fetches order by seq, never by wall-clock timestamps, so results are
// deterministic. The clock resumes from the highest stored seq when a
// durable container is reopened.
//
// Thread-safety: safe for concurrent use (atomic operations).
type seqClock struct {
	seq atomic.Int64
}

// newSeqClockAt creates a clock whose next value is start+1.
func newSeqClockAt(start int64) *seqClock {
	c := &seqClock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *seqClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *seqClock) Current() int64 {
	return c.seq.Load()
}
