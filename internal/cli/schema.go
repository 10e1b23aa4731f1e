package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/persistkit/internal/schema"
)

// SchemaResult is the output of the schema command.
type SchemaResult struct {
	Kinds []schema.Kind `json:"kinds"`
}

func (r SchemaResult) String() string {
	var b strings.Builder
	for i, k := range r.Kinds {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k.Name)
		for _, f := range k.Fields {
			name := f.Name
			if f.Optional {
				name += "?"
			}
			fmt.Fprintf(&b, "\n  %-16s %s", name, f.Type)
		}
	}
	return b.String()
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema <schema-dir>",
		Short: "List record kinds and their fields",
		Long: `Load the CUE files in a directory and list the record kinds declared
under the top-level "record" struct, with their fields. Optional fields are
marked with "?".

Example:
  persistkit schema ./schema`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runSchema(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	set, err := schema.Load(dir)
	if err != nil {
		return failSchema(formatter, err)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", set.FileCount(), dir)

	return formatter.Success(SchemaResult{Kinds: set.Kinds()})
}
