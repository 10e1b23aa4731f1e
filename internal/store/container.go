package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/roach88/persistkit/internal/record"
)

// Container is the top-level handle to a configured SQLite store and its
// schema. Create one per process (or per test) and Close it on teardown.
//
// A container owns a main context that is only reachable through Main;
// Main runs on the container's coordination goroutine so the main context
// has a single writer. Background contexts come from NewContext and belong
// to whoever created them.
type Container struct {
	db      *sql.DB
	config  Configuration
	schema  Schema
	seq     *seqClock
	logger  *slog.Logger
	metrics *Metrics
	clock   record.Clock

	coord *coordinator
	main  *Context

	closeOnce sync.Once
	closeErr  error
}

// OpenContainer creates or opens a container for schema.
//
// Without options the container is durable and lives at DefaultStorePath.
// WithInMemory(true) selects a private in-memory database. Failures are
// returned as *ContainerInitError.
func OpenContainer(schema Schema, opts ...Option) (*Container, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := o.resolve()
	if err != nil {
		return nil, &ContainerInitError{Config: cfg, Err: err}
	}

	ctx := context.Background()
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, &ContainerInitError{Config: cfg, Err: err}
	}

	start, err := maxSeq(ctx, db)
	if err != nil {
		db.Close()
		return nil, &ContainerInitError{Config: cfg, Err: err}
	}

	c := &Container{
		db:      db,
		config:  cfg,
		schema:  schema,
		seq:     newSeqClockAt(start),
		logger:  o.logger,
		metrics: o.metrics,
		clock:   o.clock,
		coord:   newCoordinator(),
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.clock == nil {
		c.clock = record.SystemClock{}
	}
	c.main = c.NewContext()
	return c, nil
}

// Fatal is called by MustContainer when a container cannot be initialized.
// It logs and exits the process; tests may replace it.
var Fatal = func(err error) {
	slog.Error("failed to initialize model container", "error", err)
	os.Exit(1)
}

// MustContainer is OpenContainer with the fatal policy: an initialization
// failure is an unrecoverable environment problem and ends the process
// through Fatal.
func MustContainer(schema Schema, opts ...Option) *Container {
	c, err := OpenContainer(schema, opts...)
	if err != nil {
		Fatal(err)
		return nil
	}
	return c
}

// PreloadedContainer builds an in-memory container (unless opts say
// otherwise), inserts records into its main context in the given order and
// safe-commits them. A failed commit is logged, not returned: the container
// is handed back either way.
func PreloadedContainer[T record.Record](schema Schema, records []T, opts ...Option) *Container {
	opts = append([]Option{WithInMemory(true)}, opts...)
	c := MustContainer(schema, opts...)
	if c == nil {
		return nil
	}

	ctx := context.Background()
	if err := c.Main(ctx, func(mc *Context) error {
		InsertAll(ctx, mc, records)
		return nil
	}); err != nil {
		c.logger.Error("failed to preload container", "error", err)
	}
	return c
}

// Main runs fn with the container's main context on the coordination
// goroutine and waits for it to return. Calls are serialized. fn must not
// call Main itself.
//
// If ctx is cancelled before fn starts, fn is skipped and ctx.Err() is
// returned. A panic in fn is re-raised in the caller.
func (c *Container) Main(ctx context.Context, fn func(*Context) error) error {
	var (
		fnErr     error
		recovered any
		panicked  bool
	)

	done, ok := c.coord.Submit(func() {
		if ctx.Err() != nil {
			fnErr = ctx.Err()
			return
		}
		defer func() {
			if r := recover(); r != nil {
				recovered, panicked = r, true
			}
		}()
		fnErr = fn(c.main)
	})
	if !ok {
		return ErrContainerClosed
	}

	<-done
	if panicked {
		panic(recovered)
	}
	return fnErr
}

// NewContext returns a fresh context bound to c. The caller owns it and
// must not share it across goroutines without synchronization.
func (c *Container) NewContext() *Context {
	return &Context{container: c}
}

// Configuration returns how the container stores its records.
func (c *Container) Configuration() Configuration {
	return c.config
}

// Schema returns the kinds the container accepts.
func (c *Container) Schema() Schema {
	return c.schema
}

// Logger returns the logger that receives swallowed failures.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer Context methods when available.
func (c *Container) DB() *sql.DB {
	return c.db
}

// Close waits for queued Main calls, then closes the database. An
// in-memory store is discarded. Safe to call more than once.
func (c *Container) Close() error {
	c.closeOnce.Do(func() {
		c.coord.Close()
		if c.db != nil {
			if err := c.db.Close(); err != nil {
				c.closeErr = fmt.Errorf("close container: %w", err)
			}
		}
	})
	return c.closeErr
}
