package store

import (
	"context"

	"github.com/roach88/persistkit/internal/record"
)

// changeOp distinguishes pending change kinds.
type changeOp int

const (
	opInsert changeOp = iota + 1
	opDelete
)

func (op changeOp) String() string {
	switch op {
	case opInsert:
		return "insert"
	case opDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// change is one pending mutation.
type change struct {
	op  changeOp
	rec record.Record
}

// Context is a working set of pending changes bound to one container.
// Changes accumulate until Commit applies all of them in one transaction,
// or Rollback discards them.
//
// A Context is not safe for concurrent mutation; the container's main
// context is confined to Container.Main.
type Context struct {
	container *Container
	pending   []change
}

// Container returns the container this context is bound to.
func (c *Context) Container() *Container {
	return c.container
}

// Insert adds r to the pending set. Inserting a record whose key already
// exists replaces the stored row on commit.
func (c *Context) Insert(r record.Record) {
	c.pending = append(c.pending, change{op: opInsert, rec: r})
}

// Delete schedules removal of r's row. Deleting a missing row is a no-op.
func (c *Context) Delete(r record.Record) {
	c.pending = append(c.pending, change{op: opDelete, rec: r})
}

// Touch applies a lifecycle update to r using the container's clock and
// schedules it for saving.
func (c *Context) Touch(r interface {
	record.Record
	record.Timestamped
}) {
	record.ApplyLifecycleUpdateWith(r, c.container.clock)
	c.Insert(r)
}

// HasChanges reports whether there is anything to commit.
func (c *Context) HasChanges() bool {
	return len(c.pending) > 0
}

// PendingCount returns the number of pending changes.
func (c *Context) PendingCount() int {
	return len(c.pending)
}

// Rollback discards all pending changes.
func (c *Context) Rollback() {
	c.pending = nil
}

// Commit applies every pending change in a single transaction.
//
// With no pending changes Commit does nothing and returns nil. On failure it
// returns a *CommitError, nothing is written, and the pending set is kept so
// the caller can fix, retry or Rollback.
func (c *Context) Commit(ctx context.Context) error {
	if len(c.pending) == 0 {
		return nil
	}

	if err := c.container.apply(ctx, c.pending); err != nil {
		c.container.metrics.observeCommit(false, nil)
		return &CommitError{Changes: len(c.pending), Err: err}
	}

	c.container.metrics.observeCommit(true, c.pending)
	c.pending = nil
	return nil
}

// SQLiteCommand returns a shell command that opens this context's database
// in the sqlite3 CLI, or "No SQLite database found." for in-memory stores.
func (c *Context) SQLiteCommand() string {
	return SQLiteCommand(c)
}
