package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/persistkit/internal/store"
)

// SQLiteCommandOptions holds flags for the sqlite-command command.
type SQLiteCommandOptions struct {
	*RootOptions
	storeFlags
}

// SQLiteCommandResult is the output of the sqlite-command command.
type SQLiteCommandResult struct {
	Command string `json:"command"`
}

func (r SQLiteCommandResult) String() string {
	return r.Command
}

// NewSQLiteCommandCommand creates the sqlite-command command.
func NewSQLiteCommandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLiteCommandOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sqlite-command",
		Short: "Print a shell command that opens the database in sqlite3",
		Long: `Print the sqlite3 shell command for the configured database, for
debugging. Nothing is executed. In-memory stores have no database file.

Example:
  persistkit sqlite-command --db ./app.store
  $(persistkit sqlite-command --db ./app.store) ".tables"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQLiteCommand(opts, cmd)
		},
	}

	opts.storeFlags.register(cmd, true)

	return cmd
}

func runSQLiteCommand(opts *SQLiteCommandOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	sess, err := startSession(opts.RootOptions, formatter, opts.storeFlags.overrides(cmd), cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	container, err := sess.openContainer(formatter, store.NewSchemaOf())
	if err != nil {
		return err
	}
	defer container.Close()

	return formatter.Success(SQLiteCommandResult{Command: store.SQLiteCommand(container.NewContext())})
}
