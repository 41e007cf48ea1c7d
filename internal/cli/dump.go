package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/veryl-go/internal/ir"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Component string // only this component
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump [project-dir]",
		Short: "Print the elaborated IR",
		Long: `Elaborate the project and print the IR of every top-level component.

Text output is the readable IR listing. JSON output is canonical: keys
are sorted, so two dumps of the same design compare byte for byte.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, projectDir(args), cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Component, "component", "c", "", "dump only this component")

	return cmd
}

func runDump(opts *DumpOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	c, err := loadAndAnalyze(formatter, dir)
	if err != nil {
		return err
	}
	if c.Errors.HasErrors() {
		_ = formatter.Diagnostics(c.Errors)
		return NewExitError(ExitFailure, fmt.Sprintf("dump failed with %d diagnostic(s)", len(c.Errors)))
	}

	out := &ir.Ir{}
	for _, comp := range c.Ir.Components {
		if opts.Component == "" || comp.ComponentName() == opts.Component {
			out.Components = append(out.Components, comp)
		}
	}
	if len(out.Components) == 0 {
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("component not found: %s", opts.Component))
	}

	if formatter.Format != "json" {
		fmt.Fprintln(formatter.Writer, out.String())
		return nil
	}
	dumps := make([]any, len(out.Components))
	for i, comp := range out.Components {
		dumps[i] = ir.DumpComponent(comp)
	}
	data, err := ir.MarshalCanonical(dumps)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, fmt.Sprintf("encoding IR: %v", err))
	}
	return formatter.Success(json.RawMessage(data))
}
