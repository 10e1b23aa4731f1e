package record

import "time"

// Clock supplies wall-clock time for lifecycle updates.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now with the monotonic reading stripped, so values
// compare with == after a JSON round-trip.
//
// Thread-safety: SystemClock is stateless and safe for concurrent use.
type SystemClock struct{}

// Now returns the current time in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC().Round(0)
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}
