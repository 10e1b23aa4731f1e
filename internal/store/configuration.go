package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/roach88/persistkit/internal/record"
)

// Supported database/sql driver names.
const (
	// DriverSQLite3 is github.com/mattn/go-sqlite3 (cgo). Default.
	DriverSQLite3 = "sqlite3"
	// DriverSQLite is modernc.org/sqlite (pure Go).
	DriverSQLite = "sqlite"
)

// DefaultStoreFile is the file name used when no path is configured.
const DefaultStoreFile = "default.store"

// Configuration describes where a container keeps its records.
type Configuration struct {
	// Path is the absolute database file path. Empty for in-memory stores.
	Path string
	// InMemory routes storage to a private in-memory database that is
	// discarded when the container closes.
	InMemory bool
	// Driver is the database/sql driver name.
	Driver string

	// name identifies the in-memory database within the process.
	name string
}

// URL returns the on-disk database file, if there is one.
func (c Configuration) URL() (string, bool) {
	if c.InMemory || c.Path == "" {
		return "", false
	}
	return c.Path, true
}

func (c Configuration) dsn() string {
	if c.InMemory {
		return fmt.Sprintf("file:%s?mode=memory&cache=shared", c.name)
	}
	return c.Path
}

// Option configures OpenContainer.
type Option func(*options)

type options struct {
	inMemory bool
	path     string
	driver   string
	logger   *slog.Logger
	metrics  *Metrics
	clock    record.Clock
}

// WithInMemory selects ephemeral (true) or durable (false) storage.
func WithInMemory(inMemory bool) Option {
	return func(o *options) { o.inMemory = inMemory }
}

// WithPath sets the database file for durable storage.
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithDriver selects the SQLite driver (DriverSQLite3 or DriverSQLite).
func WithDriver(driver string) Option {
	return func(o *options) { o.driver = driver }
}

// WithLogger sets the logger that receives swallowed commit failures.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records commit outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock sets the clock used by Touch. Defaults to record.SystemClock.
func WithClock(clock record.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// resolve turns options into a Configuration, choosing the default
// location for durable stores without an explicit path.
func (o options) resolve() (Configuration, error) {
	cfg := Configuration{InMemory: o.inMemory, Driver: o.driver}
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite3
	}
	if cfg.Driver != DriverSQLite3 && cfg.Driver != DriverSQLite {
		return cfg, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	if cfg.InMemory {
		cfg.name = "persistkit-" + uuid.NewString()
		return cfg, nil
	}

	path := o.path
	if path == "" {
		def, err := DefaultStorePath()
		if err != nil {
			return cfg, err
		}
		path = def
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return cfg, fmt.Errorf("resolve path %q: %w", path, err)
	}
	cfg.Path = abs
	return cfg, nil
}

// DefaultStorePath returns the location used for durable containers opened
// without WithPath: <user config dir>/persistkit/default.store.
// The parent directory is created if missing.
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("default store path: %w", err)
	}
	dir = filepath.Join(dir, "persistkit")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("default store path: create dir: %w", err)
	}
	return filepath.Join(dir, DefaultStoreFile), nil
}
