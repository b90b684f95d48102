package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/scenesync/internal/config"
	"github.com/roach88/scenesync/internal/engine"
	"github.com/roach88/scenesync/internal/harness"
	"github.com/roach88/scenesync/internal/journal"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal string // journal database path
	Params  string // params file
	Session string // journal session id
}

// RunResult is the payload of the run command.
type RunResult struct {
	Scenario string             `json:"scenario"`
	Pass     bool               `json:"pass"`
	Frames   int                `json:"frames"`
	Session  string             `json:"session,omitempty"`
	Tables   engine.TableCounts `json:"tables"`
	Errors   []string           `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario against the engine",
		Long: `Run a scenario file against an in-memory scene and render index.

Parameters are resolved like the params command; the scenario's own params
block overrides them. With --journal every settled frame is appended to a
SQLite journal that verify and history can inspect.

Exit codes:
  0 - Scenario passed
  1 - A step or assertion failed
  2 - Command error (missing file, invalid params, etc.)

Examples:
  scenesync run ./scenarios/render_items_basic.yaml
  scenesync run ./scenario.yaml --journal ./frames.db --session nightly
  scenesync run ./scenario.yaml --params ./params.yaml -v`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "append settled frames to this SQLite journal")
	cmd.Flags().StringVar(&opts.Params, "params", "", "params file to resolve before the scenario's params")
	cmd.Flags().StringVar(&opts.Session, "session", "", "journal session id (default: scenario name)")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return out.CommandError(ErrCodeScenario, fmt.Sprintf("failed to load scenario %s", path), err)
	}

	params, err := loadParams(opts.Params)
	if err != nil {
		return out.CommandError(loadErrorCode(err, ErrCodeGeneric), "failed to resolve params", err)
	}
	out.VerboseLog("Params: %s", paramsSummary(params))

	hopts := harness.Options{
		SessionID: opts.Session,
		Logger:    newLogger(opts.RootOptions, cmd),
		Params:    &params,
	}
	if opts.Journal != "" {
		store, err := journal.Open(opts.Journal)
		if err != nil {
			return out.CommandError(ErrCodeJournal, fmt.Sprintf("failed to open journal %s", opts.Journal), err)
		}
		defer store.Close()
		hopts.Store = store
	}

	result, err := harness.RunWithOptions(cmd.Context(), scenario, hopts)
	if err != nil {
		return out.CommandError(runErrorCode(err), "scenario could not run", err)
	}

	payload := RunResult{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Frames:   len(result.Reports),
		Session:  result.Session,
		Tables:   result.Final.Tables,
		Errors:   result.Errors,
	}
	text := func(w io.Writer) {
		mark := "✓"
		if !payload.Pass {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s (%d frames)\n", mark, payload.Scenario, payload.Frames)
		for _, e := range payload.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		if payload.Session != "" {
			fmt.Fprintf(w, "  journal session: %s\n", payload.Session)
		}
	}

	if !result.Pass {
		return out.Failure(ErrCodeGeneric, fmt.Sprintf("scenario %s failed", scenario.Name), payload, text)
	}
	return out.Success(payload, text)
}

// runErrorCode classifies an error that kept a scenario from starting.
func runErrorCode(err error) string {
	var invalid *config.InvalidParamsError
	if errors.As(err, &invalid) {
		return ErrCodeInvalidParams
	}
	return ErrCodeJournal
}
