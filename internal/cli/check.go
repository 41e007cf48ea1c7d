package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CheckResult summarizes a successful check.
type CheckResult struct {
	Files      int          `json:"files"`
	Components int          `json:"components"`
	Warnings   []Diagnostic `json:"warnings,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [project-dir]",
		Short: "Analyze Veryl sources without writing output",
		Long: `Parse the project, build its symbol table, check the instance
hierarchy and elaborate every top-level component.

Exit codes:
  0 - No errors
  1 - The sources have errors
  2 - Command error (invalid paths, unreadable configuration, etc.)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, projectDir(args), cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	c, err := loadAndAnalyze(formatter, dir)
	if err != nil {
		return err
	}
	if c.Errors.HasErrors() {
		_ = formatter.Diagnostics(c.Errors)
		return NewExitError(ExitFailure, fmt.Sprintf("check failed with %d diagnostic(s)", len(c.Errors)))
	}

	result := CheckResult{
		Files:      len(c.Project.Files),
		Components: len(c.Ir.Components),
		Warnings:   toDiagnostics(c.Errors),
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if len(c.Errors) > 0 {
		_ = formatter.Diagnostics(c.Errors)
	}
	formatter.Done("Checked %d file(s), %d component(s)", result.Files, result.Components)
	return nil
}
