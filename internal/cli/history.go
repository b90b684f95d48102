package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scenesync/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB string // journal database path
}

// HistoryResult is the payload of the history command.
type HistoryResult struct {
	Path string             `json:"path"`
	Ops  []journal.OpRecord `json:"ops"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <prim-path>",
		Short: "Show every journaled operation on a prim path",
		Long: `List the render-index operations recorded for one prim path across
all journal sessions, oldest first.

Examples:
  scenesync history --db ./frames.db /SceneSync/rprims/cube/cubeShape
  scenesync history --db ./frames.db /SceneSync/materials/redSG --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to journal database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	store, err := openJournal(out, opts.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	ops, err := store.PathHistory(cmd.Context(), path)
	if err != nil {
		return out.CommandError(ErrCodeJournal, "failed to read history", err)
	}

	result := HistoryResult{Path: path, Ops: ops}
	return out.Success(result, func(w io.Writer) {
		if len(ops) == 0 {
			fmt.Fprintf(w, "No operations recorded for %s\n", path)
			return
		}
		fmt.Fprintf(w, "%s (%d ops)\n", path, len(ops))
		for _, op := range ops {
			line := fmt.Sprintf("  %-12s", op.Kind)
			if op.PrimType != "" {
				line += " " + op.PrimType
			}
			if len(op.Dirty) > 0 {
				line += " [" + strings.Join(op.Dirty, ",") + "]"
			}
			if op.Err != "" {
				line += " error: " + op.Err
			}
			fmt.Fprintln(w, line)
		}
	})
}
