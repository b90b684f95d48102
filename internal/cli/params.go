package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/scenesync/internal/config"
)

// ParamsOptions holds flags for the params command.
type ParamsOptions struct {
	*RootOptions
	Output string // write resolved params to this file
}

// NewParamsCommand creates the params command.
func NewParamsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParamsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "params [file]",
		Short: "Resolve synchronizer parameters",
		Long: `Resolve synchronizer parameters from defaults, an optional params
file, a .env file and SCENESYNC_* environment variables, validate them and
print the result.

Examples:
  scenesync params
  scenesync params ./params.yaml
  scenesync params ./params.yaml -o resolved.yaml
  SCENESYNC_LIGHTS_ENABLED=false scenesync params --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runParams(opts, path, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write resolved params as YAML to this file")

	return cmd
}

func runParams(opts *ParamsOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	p, err := loadParams(path)
	if err != nil {
		return out.CommandError(loadErrorCode(err, ErrCodeGeneric), "failed to resolve params", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return out.CommandError(ErrCodeGeneric, "failed to encode params", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			return out.CommandError(ErrCodeWriteFailed, fmt.Sprintf("failed to write %s", opts.Output), err)
		}
		out.VerboseLog("Wrote params to %s", opts.Output)
	}

	return out.Success(p, func(w io.Writer) {
		if opts.Output != "" {
			fmt.Fprintf(w, "Params written to %s\n", opts.Output)
			return
		}
		w.Write(data)
	})
}

// paramsSummary is the short form of params shown by other commands.
func paramsSummary(p config.Params) string {
	mode := "render items"
	if p.UseMeshAdapter {
		mode = "structural"
	}
	return fmt.Sprintf("%s, %s, lights=%t", p.RendererName, mode, p.LightsEnabled)
}
