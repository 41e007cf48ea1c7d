package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Output string // output directory
}

// BuildResult lists the files written by build.
type BuildResult struct {
	Files    []string     `json:"files"`
	Warnings []Diagnostic `json:"warnings,omitempty"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build [project-dir]",
		Short: "Translate Veryl sources to SystemVerilog",
		Long: `Analyze the project and write one .sv file per .veryl file.

Source maps are written next to each output as <file>.sv.map unless
the build configuration disables them.

Exit codes:
  0 - Build succeeded
  1 - The sources have errors
  2 - Command error (invalid paths, unreadable configuration, etc.)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, projectDir(args), cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory (default: next to each source)")

	return cmd
}

func projectDir(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func runBuild(opts *BuildOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	c, err := loadAndAnalyze(formatter, dir)
	if err != nil {
		return err
	}

	arts, errs := Emit(c, opts.Output)
	all := append(c.Errors, errs...)
	if all.HasErrors() {
		_ = formatter.Diagnostics(all)
		return NewExitError(ExitFailure, fmt.Sprintf("build failed with %d diagnostic(s)", len(all)))
	}

	if opts.Output != "" {
		if err := os.MkdirAll(opts.Output, 0o755); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("creating output directory: %v", err))
		}
	}
	result := BuildResult{Warnings: toDiagnostics(all)}
	for _, a := range arts {
		if err := writeArtifact(a); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, err.Error())
		}
		formatter.VerboseLog("%s -> %s", a.Source, a.Dest)
		result.Files = append(result.Files, a.Dest)
		if a.SourceMap != nil {
			result.Files = append(result.Files, a.MapPath())
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if len(all) > 0 {
		_ = formatter.Diagnostics(all)
	}
	formatter.Done("Built %d file(s) into %s", len(arts), outputLabel(opts.Output))
	return nil
}

func outputLabel(dir string) string {
	if dir == "" {
		return "the source directories"
	}
	return filepath.Clean(dir)
}

func writeArtifact(a *Artifact) error {
	if err := os.WriteFile(a.Dest, []byte(a.Text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", a.Dest, err)
	}
	if a.SourceMap == nil {
		return nil
	}
	data, err := json.Marshal(a.SourceMap)
	if err != nil {
		return fmt.Errorf("encoding source map of %s: %w", a.Dest, err)
	}
	if err := os.WriteFile(a.MapPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", a.MapPath(), err)
	}
	return nil
}

// loadAndAnalyze loads the project in dir and analyzes it, reporting load
// failures. Analyzer errors are left to the caller.
func loadAndAnalyze(formatter *OutputFormatter, dir string) (*Compilation, error) {
	p, loadErrs := LoadProject(dir)
	if p == nil || len(loadErrs) > 0 {
		return nil, outputLoadErrors(formatter, loadErrs)
	}
	formatter.VerboseLog("Found %d source file(s) in %s", len(p.Files), dir)
	return Analyze(p), nil
}

// outputCommandError outputs a single command-level error.
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputLoadErrors outputs the errors of loading a project. Syntax errors
// fail the sources; anything else fails the command.
func outputLoadErrors(formatter *OutputFormatter, errs []error) error {
	code := ExitCommandError
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			c, m := parseLoadError(err)
			cliErrors[i] = CLIError{Code: c, Message: m}
			if c == ErrCodeSyntax {
				code = ExitFailure
			}
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(CLIResponse{Status: "error", Error: &cliErrors[0], Data: cliErrors}); err != nil {
			return err
		}
		return NewExitError(code, fmt.Sprintf("loading failed with %d error(s)", len(errs)))
	}

	for _, err := range errs {
		c, m := parseLoadError(err)
		if c == ErrCodeSyntax {
			code = ExitFailure
		}
		_ = formatter.Error(c, m, nil)
	}
	return NewExitError(code, fmt.Sprintf("loading failed with %d error(s)", len(errs)))
}

func parseLoadError(err error) (string, string) {
	var le *LoadError
	if errors.As(err, &le) {
		msg := le.Message
		switch {
		case le.Path != "" && le.Line > 0:
			msg = fmt.Sprintf("%s:%d:%d: %s", le.Path, le.Line, le.Column, msg)
		case le.Path != "":
			msg = le.Path + ": " + msg
		}
		return le.Code, msg
	}
	return ErrCodeGeneric, err.Error()
}
