package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/persistkit/internal/testutil"
)

// mockModel is a record type that adopts lifecycle timestamps by embedding.
type mockModel struct {
	Timestamps
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (m *mockModel) RecordKind() string { return "MockModel" }
func (m *mockModel) RecordKey() string  { return m.ID }

var epoch = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func TestApplyLifecycleUpdate_WhenCreatedAtIsNil_SetsBoth(t *testing.T) {
	model := &mockModel{ID: "m1", Name: "Test Model"}
	require.Equal(t, LifecycleUninitialized, model.State())

	ApplyLifecycleUpdate(model)

	require.NotNil(t, model.CreatedAt, "createdAt should be set after the first update")
	require.NotNil(t, model.UpdatedAt, "updatedAt should be set after the first update")
	assert.True(t, model.CreatedAt.Equal(*model.UpdatedAt), "a new record has createdAt == updatedAt")
	assert.Equal(t, LifecycleInitialized, model.State())
}

func TestApplyLifecycleUpdate_WhenCreatedAtIsSet_UpdatesOnlyUpdatedAt(t *testing.T) {
	initial := time.Now().Add(-time.Hour).UTC()
	created, updated := initial, initial
	model := &mockModel{
		ID:         "m1",
		Name:       "Test Model",
		Timestamps: Timestamps{CreatedAt: &created, UpdatedAt: &updated},
	}

	ApplyLifecycleUpdate(model)

	assert.True(t, model.CreatedAt.Equal(initial), "createdAt must not change once set")
	assert.True(t, model.UpdatedAt.After(initial), "updatedAt should move to the current time")
}

func TestApplyLifecycleUpdateWith_ClockFunc(t *testing.T) {
	readings := []time.Time{epoch, epoch.Add(time.Minute)}
	calls := 0
	clock := ClockFunc(func() time.Time {
		now := readings[calls]
		calls++
		return now
	})
	model := &mockModel{ID: "m1"}

	ApplyLifecycleUpdateWith(model, clock)
	ApplyLifecycleUpdateWith(model, clock)

	assert.Equal(t, 2, calls, "one clock reading per update")
	assert.Equal(t, epoch, *model.CreatedAt)
	assert.Equal(t, epoch.Add(time.Minute), *model.UpdatedAt)
}

func TestApplyLifecycleUpdate_MultipleUpdates_KeepCreatedAtConstant(t *testing.T) {
	clock := testutil.NewStepClock(epoch, 500*time.Millisecond)
	model := &mockModel{ID: "m1", Name: "Test Model"}

	ApplyLifecycleUpdateWith(model, clock)
	first := *model.UpdatedAt
	createdAt := *model.CreatedAt

	ApplyLifecycleUpdateWith(model, clock)
	second := *model.UpdatedAt

	ApplyLifecycleUpdateWith(model, clock)
	third := *model.UpdatedAt

	assert.Equal(t, first, createdAt)
	assert.Equal(t, createdAt, *model.CreatedAt, "createdAt is write-once")
	assert.True(t, second.After(first))
	assert.True(t, third.After(second))
	assert.Equal(t, epoch.Add(time.Second), third)
}

func TestApplyLifecycleUpdate_ClockDidNotAdvance(t *testing.T) {
	clock := testutil.FixedClock{T: epoch}
	model := &mockModel{}

	ApplyLifecycleUpdateWith(model, clock)
	ApplyLifecycleUpdateWith(model, clock)

	assert.Equal(t, epoch, *model.CreatedAt)
	assert.Equal(t, epoch, *model.UpdatedAt)
}

func TestApplyLifecycleUpdate_ClockWentBackwards_UpdatedAtDoesNotDecrease(t *testing.T) {
	model := &mockModel{}
	ApplyLifecycleUpdateWith(model, testutil.FixedClock{T: epoch})

	ApplyLifecycleUpdateWith(model, testutil.FixedClock{T: epoch.Add(-time.Minute)})

	assert.Equal(t, epoch, *model.UpdatedAt)
	assert.Equal(t, epoch, *model.CreatedAt)
}

func TestApplyLifecycleUpdate_FutureCreatedAtIsNotValidated(t *testing.T) {
	future := epoch.Add(24 * time.Hour)
	model := &mockModel{Timestamps: Timestamps{CreatedAt: &future}}

	ApplyLifecycleUpdateWith(model, testutil.FixedClock{T: epoch})

	assert.Equal(t, future, *model.CreatedAt)
	assert.Equal(t, epoch, *model.UpdatedAt)
}

func TestApplyLifecycleUpdate_DoesNotAliasCreatedAndUpdated(t *testing.T) {
	clock := testutil.NewStepClock(epoch, time.Second)
	model := &mockModel{}

	ApplyLifecycleUpdateWith(model, clock)
	ApplyLifecycleUpdateWith(model, clock)

	assert.Equal(t, epoch, *model.CreatedAt)
	assert.Equal(t, epoch.Add(time.Second), *model.UpdatedAt)
}

func TestLifecycleState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", LifecycleUninitialized.String())
	assert.Equal(t, "initialized", LifecycleInitialized.String())
	assert.Equal(t, "unknown", LifecycleState(7).String())
}

func TestTimestampsOf(t *testing.T) {
	model := &mockModel{}
	assert.Same(t, &model.Timestamps, TimestampsOf(model))
	assert.Nil(t, TimestampsOf("not a record"))
}

func TestDocument_ImplementsRecordAndTimestamped(t *testing.T) {
	var r Record = NewDocument("Note", "note-1", nil)
	assert.Equal(t, "Note", r.RecordKind())
	assert.Equal(t, "note-1", r.RecordKey())

	_, ok := r.(Timestamped)
	assert.True(t, ok)
}

func TestNewDocument_GeneratesID(t *testing.T) {
	a := NewDocument("Note", "", nil)
	b := NewDocument("Note", "", nil)

	assert.Len(t, a.ID, 36)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotNil(t, a.Fields)
}
