package store

import (
	"context"

	"github.com/roach88/persistkit/internal/record"
)

// SafeCommit commits c and swallows any failure after logging it to the
// container's logger. Use it for best-effort saves such as seeding; callers
// that need to know the outcome should call Commit or re-fetch.
func SafeCommit(ctx context.Context, c *Context) {
	if err := c.Commit(ctx); err != nil {
		c.container.logger.Error("failed to save changes", "error", err)
	}
}

// InsertAll inserts records into c in order, then SafeCommits.
func InsertAll[T record.Record](ctx context.Context, c *Context, records []T) {
	for _, r := range records {
		c.Insert(r)
	}
	SafeCommit(ctx, c)
}
