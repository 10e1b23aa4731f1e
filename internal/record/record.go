package record

import "time"

// Record is a unit of persisted domain data.
type Record interface {
	// RecordKind returns the schema entity name, e.g. "Note".
	RecordKind() string
	// RecordKey returns the identity of the record within its kind.
	RecordKey() string
}

// Timestamped is implemented by records that carry lifecycle timestamps.
// Embedding Timestamps in a struct is the usual way to satisfy it.
type Timestamped interface {
	LifecycleTimestamps() *Timestamps
}

// Timestamps is the created/updated pair. Embed it in a record type.
//
// Both fields are pointers so that "never set" is distinguishable from the
// zero time and survives a JSON round-trip.
type Timestamps struct {
	CreatedAt *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// LifecycleTimestamps returns t itself.
func (t *Timestamps) LifecycleTimestamps() *Timestamps {
	return t
}

// LifecycleState is the state of a record's timestamp pair.
type LifecycleState int

const (
	// LifecycleUninitialized means CreatedAt has never been set.
	LifecycleUninitialized LifecycleState = iota
	// LifecycleInitialized means CreatedAt is set and will not change again.
	LifecycleInitialized
)

func (s LifecycleState) String() string {
	switch s {
	case LifecycleUninitialized:
		return "uninitialized"
	case LifecycleInitialized:
		return "initialized"
	default:
		return "unknown"
	}
}

// State reports which lifecycle state the pair is in.
func (t *Timestamps) State() LifecycleState {
	if t.CreatedAt == nil {
		return LifecycleUninitialized
	}
	return LifecycleInitialized
}

// ApplyLifecycleUpdate stamps r with the current wall-clock time.
// See ApplyLifecycleUpdateWith.
func ApplyLifecycleUpdate(r Timestamped) {
	ApplyLifecycleUpdateWith(r, SystemClock{})
}

// ApplyLifecycleUpdateWith stamps r using clock.
//
// Uninitialized records get CreatedAt and UpdatedAt set to the same instant.
// Initialized records only get a new UpdatedAt. UpdatedAt never moves
// backwards: if the clock reads earlier than the stored UpdatedAt, the
// stored value is kept. CreatedAt is not checked for chronology.
func ApplyLifecycleUpdateWith(r Timestamped, clock Clock) {
	ts := r.LifecycleTimestamps()
	now := clock.Now()
	if ts.UpdatedAt != nil && now.Before(*ts.UpdatedAt) {
		now = *ts.UpdatedAt
	}

	switch ts.State() {
	case LifecycleUninitialized:
		created := now
		ts.CreatedAt = &created
		updated := now
		ts.UpdatedAt = &updated
	case LifecycleInitialized:
		updated := now
		ts.UpdatedAt = &updated
	}
}

// TimestampsOf returns the lifecycle timestamps of r, or nil when r does not
// carry them.
func TimestampsOf(r any) *Timestamps {
	if tr, ok := r.(Timestamped); ok {
		return tr.LifecycleTimestamps()
	}
	return nil
}
