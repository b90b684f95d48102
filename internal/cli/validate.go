package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// ValidateResult is the payload of the validate command.
type ValidateResult struct {
	Kind   string          `json:"kind"` // "params" or "scenarios"
	Path   string          `json:"path"`
	Valid  int             `json:"valid"`
	Issues []ValidateIssue `json:"issues"`
}

// ValidateIssue is one problem found by validate.
type ValidateIssue struct {
	Code    string `json:"code"`
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate a params file or a directory of scenarios",
		Long: `Validate inputs without running anything.

A file is treated as a params file and checked against the parameter
schema. A directory is searched for scenario files; every scenario is
parsed and its steps and assertions checked.

Exit codes:
  0 - Everything is valid
  1 - Validation failed
  2 - Command error (path not found, etc.)

Examples:
  scenesync validate ./params.yaml
  scenesync validate ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	info, err := os.Stat(path)
	if err != nil {
		return out.CommandError(ErrCodeNotFound, fmt.Sprintf("path not found: %s", path), err)
	}

	var result ValidateResult
	if info.IsDir() {
		result, err = validateScenarios(path, out)
		if err != nil {
			return err
		}
	} else {
		result = validateParamsFile(path)
	}

	text := func(w io.Writer) {
		for _, issue := range result.Issues {
			if issue.File != "" {
				fmt.Fprintf(w, "✗ %s\n  [%s] %s\n", issue.File, issue.Code, issue.Message)
			} else {
				fmt.Fprintf(w, "✗ [%s] %s\n", issue.Code, issue.Message)
			}
		}
		if len(result.Issues) == 0 {
			fmt.Fprintf(w, "✓ %s valid (%d checked)\n", result.Kind, result.Valid)
		}
	}

	if len(result.Issues) > 0 {
		return out.Failure(ErrCodeGeneric, fmt.Sprintf("%d validation issue(s)", len(result.Issues)), result, text)
	}
	return out.Success(result, text)
}

func validateParamsFile(path string) ValidateResult {
	result := ValidateResult{Kind: "params", Path: path, Issues: []ValidateIssue{}}
	if _, err := loadParams(path); err != nil {
		result.Issues = append(result.Issues, ValidateIssue{
			Code:    loadErrorCode(err, ErrCodeGeneric),
			File:    path,
			Message: err.Error(),
		})
		return result
	}
	result.Valid = 1
	return result
}

func validateScenarios(dir string, out *OutputFormatter) (ValidateResult, error) {
	result := ValidateResult{Kind: "scenarios", Path: dir, Issues: []ValidateIssue{}}

	files, err := findScenarioFiles(dir, "")
	if err != nil {
		return result, out.CommandError(ErrCodeScanError, "failed to scan scenarios", err)
	}
	if len(files) == 0 {
		return result, out.CommandError(ErrCodeNoScenarios, fmt.Sprintf("no scenario files found in %s", dir), nil)
	}

	_, errs := loadScenarios(files)
	for i, err := range errs {
		if err == nil {
			result.Valid++
			out.VerboseLog("ok %s", files[i])
			continue
		}
		result.Issues = append(result.Issues, ValidateIssue{
			Code:    ErrCodeScenario,
			File:    files[i],
			Message: err.Error(),
		})
	}
	return result, nil
}
