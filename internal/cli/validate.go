package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fluxury/internal/scenario"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// FileValidation holds the validation outcome of one scenario file.
type FileValidation struct {
	Path   string                     `json:"path"`
	Name   string                     `json:"name,omitempty"`
	Valid  bool                       `json:"valid"`
	Load   string                     `json:"load_error,omitempty"`
	Errors []scenario.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario-or-dir>",
		Short: "Validate scenarios without running them",
		Long: `Validate YAML and CUE scenarios without running them.

Checks that stores, composed stores, steps and assertions are well formed
and reference declared stores. Every problem is reported, not just the
first. A directory is searched recursively.`,
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
	formatter := NewOutputFormatter(opts, cmd)

	info, err := os.Stat(path)
	if err != nil {
		_ = formatter.Error(CodeNotFound, fmt.Sprintf("path not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "path not found", err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = findScenarioFiles(path, "")
		if err != nil {
			_ = formatter.Error(CodeGeneric, "failed to find scenario files", err.Error())
			return WrapExitError(ExitCommandError, "failed to find scenario files", err)
		}
		if len(files) == 0 {
			_ = formatter.Error(CodeNotFound, fmt.Sprintf("no scenario files found in %s", path), nil)
			return NewExitError(ExitCommandError, "no scenario files found")
		}
	}

	result := ValidationResult{Valid: true}
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		fv := validateFile(file)
		if !fv.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fv)
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp = CLIResponse{
				Status: "error",
				Data:   result,
				Error:  &CLIError{Code: CodeInvalidScenario, Message: "validation failed"},
			}
		}
		if err := json.NewEncoder(cmd.OutOrStdout()).Encode(resp); err != nil {
			return err
		}
	} else {
		outputValidateText(cmd, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func validateFile(path string) FileValidation {
	fv := FileValidation{Path: path}
	s, err := scenario.Parse(path)
	if err != nil {
		fv.Load = err.Error()
		return fv
	}
	fv.Name = s.Name
	fv.Errors = scenario.Validate(s)
	fv.Valid = len(fv.Errors) == 0
	return fv
}

func outputValidateText(cmd *cobra.Command, result ValidationResult) {
	w := cmd.OutOrStdout()
	invalid := 0
	for _, fv := range result.Files {
		if fv.Valid {
			fmt.Fprintf(w, "✓ %s\n", fv.Path)
			continue
		}
		invalid++
		fmt.Fprintf(w, "✗ %s\n", fv.Path)
		if fv.Load != "" {
			fmt.Fprintf(w, "    %s\n", fv.Load)
		}
		for _, e := range fv.Errors {
			fmt.Fprintf(w, "    %s\n", e.Error())
		}
	}

	if invalid == 0 {
		fmt.Fprintf(w, "\n✓ All scenarios valid (%d)\n", len(result.Files))
		return
	}
	fmt.Fprintf(w, "\n✗ %d of %d scenario(s) invalid\n", invalid, len(result.Files))
}
