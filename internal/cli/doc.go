package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/veryl-go/internal/docgen"
)

// DocOptions holds flags for the doc command.
type DocOptions struct {
	*RootOptions
	Output string // output directory
}

// NewDocCommand creates the doc command.
func NewDocCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DocOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "doc [project-dir]",
		Short: "Generate HTML documentation",
		Long: `Write one HTML page per module, interface and package, built from
their /// doc comments, plus an index.html linking them.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoc(opts, projectDir(args), cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory (default: <project-dir>/doc)")

	return cmd
}

func runDoc(opts *DocOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	p, loadErrs := LoadProject(dir)
	if p == nil || len(loadErrs) > 0 {
		return outputLoadErrors(formatter, loadErrs)
	}

	gen := docgen.New(p.Config.Project.Name)
	pages, err := gen.Pages(p.Files)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, fmt.Sprintf("rendering documentation: %v", err))
	}
	index, err := gen.Index(pages)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, fmt.Sprintf("rendering index: %v", err))
	}

	out := opts.Output
	if out == "" {
		out = filepath.Join(dir, "doc")
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("creating output directory: %v", err))
	}
	var written []string
	for _, page := range append(pages, index) {
		path := filepath.Join(out, page.FileName())
		if err := os.WriteFile(path, page.HTML, 0o644); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing %s: %v", path, err))
		}
		formatter.VerboseLog("wrote %s", path)
		written = append(written, path)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"files": written})
	}
	formatter.Done("Documented %d component(s) in %s", len(pages), out)
	return nil
}
