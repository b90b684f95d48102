package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/scenesync/internal/config"
	"github.com/roach88/scenesync/internal/harness"
)

// LoadError represents a failure to load a CLI input.
type LoadError struct {
	Code    string
	Message string
	Path    string // file the error refers to, if any
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// loadParams resolves synchronizer parameters from defaults, the optional
// params file, .env and the environment.
func loadParams(path string) (config.Params, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return config.Params{}, &LoadError{Code: ErrCodeNotFound, Message: "params file not found", Path: path}
		}
	}
	p, err := config.Load(path)
	if err != nil {
		var invalid *config.InvalidParamsError
		if errors.As(err, &invalid) {
			return p, &LoadError{Code: ErrCodeInvalidParams, Message: invalid.Error(), Path: path}
		}
		return p, &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Path: path}
	}
	return p, nil
}

// requireDir checks that dir exists and is a directory.
func requireDir(dir, what string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found", what), Path: dir}
	}
	if !info.IsDir() {
		return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s is not a directory", what), Path: dir}
	}
	return nil
}

// findScenarioFiles walks dir and returns YAML scenario files in lexical
// order. A non-empty filter is a glob matched against the file name
// without extension. Files under a golden directory are skipped.
func findScenarioFiles(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir && info.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			matched, err := filepath.Match(filter, scenarioBase(path))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	slices.Sort(files)
	return files, err
}

// scenarioBase is the file name of a scenario without its extension.
func scenarioBase(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// loadScenarios parses every file. Load failures are returned per file;
// a failed file has a nil scenario.
func loadScenarios(files []string) ([]*harness.Scenario, []error) {
	scenarios := make([]*harness.Scenario, len(files))
	errs := make([]error, len(files))
	for i, f := range files {
		s, err := harness.LoadScenario(f)
		if err != nil {
			errs[i] = &LoadError{Code: ErrCodeScenario, Message: err.Error(), Path: f}
			continue
		}
		scenarios[i] = s
	}
	return scenarios, errs
}

// loadErrorCode returns the code of a LoadError, or fallback.
func loadErrorCode(err error, fallback string) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return fallback
}
