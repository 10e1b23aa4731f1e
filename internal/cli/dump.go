package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/persistkit/internal/store"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	storeFlags
}

// DumpResult is the output of the dump command.
type DumpResult struct {
	Kind    string               `json:"kind"`
	Records []store.StoredRecord `json:"records"`
}

func (r DumpResult) String() string {
	if len(r.Records) == 0 {
		return fmt.Sprintf("No %s records", r.Kind)
	}
	var b strings.Builder
	for i, rec := range r.Records {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\t%s\t%s", rec.Seq, rec.ID, rec.Data)
	}
	return b.String()
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <kind>",
		Short: "Print stored records of a kind",
		Long: `Print every stored record of a kind in fetch order (by write sequence,
then id).

Text output is one record per line: seq, id and the stored JSON.

Example:
  persistkit dump Note --db ./app.store
  persistkit dump Note --db ./app.store --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, args[0], cmd)
		},
	}

	opts.storeFlags.register(cmd, false)

	return cmd
}

func runDump(opts *DumpOptions, kind string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	sess, err := startSession(opts.RootOptions, formatter, opts.storeFlags.overrides(cmd), cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	container, err := sess.openContainer(formatter, store.NewSchemaOf(kind))
	if err != nil {
		return err
	}
	defer container.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	records, err := container.NewContext().FetchRaw(ctx, kind)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeRead, err.Error(), nil)
	}
	formatter.VerboseLog("Read %d %s record(s)", len(records), kind)

	return formatter.Success(DumpResult{Kind: kind, Records: records})
}
