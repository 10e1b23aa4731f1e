package cli

import (
	"errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/persistkit/internal/config"
	"github.com/roach88/persistkit/internal/logging"
	"github.com/roach88/persistkit/internal/schema"
	"github.com/roach88/persistkit/internal/store"
)

// Error code constants - unified across all CLI commands.
// Schema load and document codes come from the schema package.
const (
	ErrCodeGeneric = "E001" // Generic/unknown error
	ErrCodeConfig  = "E008" // Config load or logger setup failed
	ErrCodeSeed    = "E203" // Seed file unreadable or malformed

	ErrCodeStoreInit = "E301" // Container could not be opened
	ErrCodeCommit    = "E302" // Changes could not be saved
	ErrCodeNotFound  = "E303" // Record not found
	ErrCodeRead      = "E304" // Records could not be read
)

// storeFlags are the --db / --in-memory flags shared by store commands.
type storeFlags struct {
	Database string
	InMemory bool
}

func (f *storeFlags) register(cmd *cobra.Command, withInMemory bool) {
	cmd.Flags().StringVar(&f.Database, "db", "", "path to SQLite database (default: config or user config dir)")
	if withInMemory {
		cmd.Flags().BoolVar(&f.InMemory, "in-memory", false, "use an in-memory database that is discarded on exit")
	}
}

// overrides turns flags the user actually set into config overrides.
func (f *storeFlags) overrides(cmd *cobra.Command) config.FlagOverrides {
	var o config.FlagOverrides
	if cmd.Flags().Changed("db") {
		o.StorePath = &f.Database
	}
	if cmd.Flags().Lookup("in-memory") != nil && cmd.Flags().Changed("in-memory") {
		o.InMemory = &f.InMemory
	}
	return o
}

// session is the per-invocation environment: effective config, logger and
// optional metrics.
type session struct {
	opts     *RootOptions
	cfg      config.Config
	logger   *slog.Logger
	closer   io.Closer
	registry *prometheus.Registry
	metrics  *store.Metrics
}

func openSession(opts *RootOptions, flags config.FlagOverrides, cmd *cobra.Command) (*session, error) {
	flags.Verbose = opts.Verbose
	cfg, err := config.Load(config.LoadOptions{
		ConfigPath: opts.ConfigPath,
		Env:        opts.Env,
		Flags:      flags,
	})
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(logging.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
		Writer:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	s := &session{opts: opts, cfg: cfg, logger: logger, closer: closer}
	if cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		s.metrics = store.NewMetrics(s.registry)
	}
	return s, nil
}

// storeOptions returns container options for the session's config.
func (s *session) storeOptions() []store.Option {
	opts := s.cfg.Store.Options()
	opts = append(opts, store.WithLogger(s.logger), store.WithMetrics(s.metrics))
	if s.opts.Clock != nil {
		opts = append(opts, store.WithClock(s.opts.Clock))
	}
	return opts
}

// openContainer opens a container, reporting failures through f.
func (s *session) openContainer(f *OutputFormatter, sch store.Schema) (*store.Container, error) {
	s.logger.Debug("opening container", "path", s.cfg.Store.Path, "in_memory", s.cfg.Store.InMemory, "driver", s.cfg.Store.Driver)
	c, err := store.OpenContainer(sch, s.storeOptions()...)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStoreInit, err.Error(), nil)
	}
	return c, nil
}

// close logs collected metrics and releases the log file.
func (s *session) close() {
	s.reportMetrics()
	if err := s.closer.Close(); err != nil {
		slog.Error("error closing log file", "error", err)
	}
}

func (s *session) reportMetrics() {
	if s.registry == nil {
		return
	}
	families, err := s.registry.Gather()
	if err != nil {
		s.logger.Warn("failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"name", mf.GetName(), "value", m.GetCounter().GetValue()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			s.logger.Info("metric", attrs...)
		}
	}
}

// startSession opens a session or reports why it could not.
func startSession(opts *RootOptions, f *OutputFormatter, flags config.FlagOverrides, cmd *cobra.Command) (*session, error) {
	s, err := openSession(opts, flags, cmd)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	return s, nil
}

// newFormatter builds the formatter for cmd.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// failSchema reports a schema load error with its own code.
func failSchema(f *OutputFormatter, err error) error {
	var loadErr *schema.LoadError
	if errors.As(err, &loadErr) {
		var details any
		if loadErr.Pos.IsValid() {
			details = map[string]any{"file": loadErr.Pos.Filename(), "line": loadErr.Pos.Line()}
		}
		return f.Fail(ExitCommandError, loadErr.Code, loadErr.Message, details)
	}
	return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}
