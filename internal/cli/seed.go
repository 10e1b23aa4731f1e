package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/persistkit/internal/record"
	"github.com/roach88/persistkit/internal/schema"
	"github.com/roach88/persistkit/internal/seed"
	"github.com/roach88/persistkit/internal/store"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	storeFlags
	Touch bool
}

// SeedResult is the output of the seed command.
type SeedResult struct {
	Records       int         `json:"records"`
	Kinds         []KindCount `json:"kinds"`
	Database      string      `json:"database,omitempty"`
	SQLiteCommand string      `json:"sqlite_command"`
}

// KindCount is the number of stored records of one kind.
type KindCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

func (r SeedResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Seeded %d record(s)\n", r.Records)
	for _, k := range r.Kinds {
		fmt.Fprintf(&b, "  %-12s %d\n", k.Kind, k.Count)
	}
	b.WriteString(r.SQLiteCommand)
	return b.String()
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed [schema-dir] <seed-file>",
		Short: "Validate seed records and load them into a container",
		Long: `Validate the records in a YAML seed file against CUE record kinds and
save them into a container.

The schema directory may be omitted when the seed file names one with a
top-level "schema:" key (relative to the seed file).

Records without an id get a time-ordered UUIDv7. With --touch every record
gets lifecycle timestamps before it is saved. A failed save is logged rather
than returned; the command reports how many records are stored.

Example:
  persistkit seed ./schema ./seed.yaml --db ./app.store
  persistkit seed ./seed.yaml --db ./app.store
  persistkit seed ./schema ./seed.yaml --in-memory --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runSeed(opts, "", args[0], cmd)
			}
			return runSeed(opts, args[0], args[1], cmd)
		},
	}

	opts.storeFlags.register(cmd, true)
	cmd.Flags().BoolVar(&opts.Touch, "touch", false, "apply a lifecycle update to every record before saving")

	return cmd
}

func runSeed(opts *SeedOptions, schemaDir, seedPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	sess, err := startSession(opts.RootOptions, formatter, opts.storeFlags.overrides(cmd), cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	var seedOpts []seed.Option
	if opts.IDs != nil {
		seedOpts = append(seedOpts, seed.WithIDGenerator(opts.IDs))
	}
	file, err := seed.Load(seedPath, seedOpts...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSeed, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %d record(s) from %s", len(file.Records), seedPath)

	if schemaDir == "" {
		schemaDir = file.Schema
	}
	if schemaDir == "" {
		return formatter.Fail(ExitCommandError, ErrCodeSeed,
			"no schema directory: pass <schema-dir> or set schema: in the seed file", nil)
	}

	set, err := schema.Load(schemaDir)
	if err != nil {
		return failSchema(formatter, err)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", set.FileCount(), schemaDir)

	if errs := set.ValidateAll(file.Records); len(errs) > 0 {
		return failValidation(formatter, errs)
	}

	if opts.Touch {
		clock := opts.Clock
		if clock == nil {
			clock = record.SystemClock{}
		}
		for _, doc := range file.Records {
			record.ApplyLifecycleUpdateWith(doc, clock)
		}
	}

	container, err := preload(sess, formatter, set.StoreSchema(), file.Records)
	if err != nil {
		return err
	}
	defer container.Close()

	result := SeedResult{
		SQLiteCommand: container.NewContext().SQLiteCommand(),
	}
	if path, ok := container.Configuration().URL(); ok {
		result.Database = path
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	mc := container.NewContext()
	for _, kind := range container.Schema().Entities() {
		n, err := mc.Count(ctx, kind)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeRead, err.Error(), nil)
		}
		result.Kinds = append(result.Kinds, KindCount{Kind: kind, Count: n})
		result.Records += n
	}

	sess.logger.Debug("seed complete", "records", result.Records, "sqlite", result.SQLiteCommand)
	return formatter.Success(result)
}

// preload inserts docs into the container's main context and safe-commits
// them. In-memory stores go through PreloadedContainer; durable ones are
// opened first so that a bad path is reported instead of ending the process.
func preload(sess *session, f *OutputFormatter, sch store.Schema, docs []*record.Document) (*store.Container, error) {
	if sess.cfg.Store.InMemory {
		return store.PreloadedContainer(sch, docs, sess.storeOptions()...), nil
	}

	c, err := sess.openContainer(f, sch)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := c.Main(ctx, func(mc *store.Context) error {
		store.InsertAll(ctx, mc, docs)
		return nil
	}); err != nil {
		c.Close()
		return nil, f.Fail(ExitFailure, ErrCodeCommit, err.Error(), nil)
	}
	return c, nil
}

// failValidation reports every invalid document.
func failValidation(f *OutputFormatter, errs []error) error {
	details := make([]string, len(errs))
	for i, err := range errs {
		details[i] = err.Error()
	}

	code := schema.ErrCodeInvalidDocument
	if verr, ok := errs[0].(*schema.ValidationError); ok {
		code = verr.Code
	}

	if f.Format == "json" {
		return f.Fail(ExitFailure, code, fmt.Sprintf("validation failed: %d invalid record(s)", len(errs)), details)
	}

	fmt.Fprintf(f.Writer, "Validation failed: %d invalid record(s)\n", len(errs))
	for _, d := range details {
		fmt.Fprintf(f.Writer, "  %s\n", d)
	}
	return NewExitError(ExitFailure, "validation failed")
}
