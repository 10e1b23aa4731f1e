package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/persistkit/internal/record"
	"github.com/roach88/persistkit/internal/store"
)

// TouchOptions holds flags for the touch command.
type TouchOptions struct {
	*RootOptions
	storeFlags
}

// TouchResult is the output of the touch command.
type TouchResult struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r TouchResult) String() string {
	return fmt.Sprintf("%s %s\n  created_at %s\n  updated_at %s",
		r.Kind, r.ID,
		r.CreatedAt.Format(time.RFC3339Nano),
		r.UpdatedAt.Format(time.RFC3339Nano))
}

// NewTouchCommand creates the touch command.
func NewTouchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TouchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "touch <kind> <id>",
		Short: "Apply a lifecycle update to a stored record",
		Long: `Apply a lifecycle update to one stored document and save it.

A record that was never stamped gets created_at and updated_at set to now;
otherwise only updated_at moves forward.

Example:
  persistkit touch Note note-1 --db ./app.store`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTouch(opts, args[0], args[1], cmd)
		},
	}

	opts.storeFlags.register(cmd, false)

	return cmd
}

func runTouch(opts *TouchOptions, kind, id string, cmd *cobra.Command) error {
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

	var doc *record.Document
	err = container.Main(ctx, func(mc *store.Context) error {
		var err error
		doc, err = store.FetchOne[record.Document](ctx, mc, kind, id)
		if err != nil {
			return err
		}
		mc.Touch(doc)
		return mc.Commit(ctx)
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return formatter.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("no %s record with id %q", kind, id), nil)
	case err != nil:
		var commitErr *store.CommitError
		if errors.As(err, &commitErr) {
			return formatter.Fail(ExitFailure, ErrCodeCommit, err.Error(), nil)
		}
		return formatter.Fail(ExitFailure, ErrCodeRead, err.Error(), nil)
	}

	sess.logger.Debug("record touched", "kind", kind, "id", id)
	return formatter.Success(TouchResult{
		Kind:      kind,
		ID:        id,
		CreatedAt: *doc.CreatedAt,
		UpdatedAt: *doc.UpdatedAt,
	})
}
