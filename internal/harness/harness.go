package harness

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/veryl-go/internal/cli"
	"github.com/roach88/veryl-go/internal/diag"
)

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Outputs maps emitted files, relative to the project directory, to
	// their text.
	Outputs map[string]string `json:"outputs"`

	// Diagnostics are the analyzer and emitter diagnostics.
	Diagnostics diag.List `json:"-"`

	// LoadErrors are configuration and syntax failures. A scenario with
	// load errors is not compiled.
	LoadErrors []string `json:"load_errors,omitempty"`

	// Errors contains the failed assertions.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Outputs: make(map[string]string)}
}

// AddError records a failed assertion and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run writes scenario into dir, compiles it and evaluates its assertions.
// dir should be empty; tests pass t.TempDir().
func Run(scenario *Scenario, dir string) (*Result, error) {
	if err := writeProject(scenario, dir); err != nil {
		return nil, err
	}
	logger := slog.Default().With("scenario", scenario.Name)

	result := NewResult()
	p, errs := cli.LoadProject(dir)
	for _, err := range errs {
		result.LoadErrors = append(result.LoadErrors, err.Error())
	}
	if p == nil || len(errs) > 0 {
		logger.Debug("scenario did not load", "errors", len(errs))
		evaluate(scenario, result)
		return result, nil
	}

	c := cli.Analyze(p)
	arts, emitErrs := cli.Emit(c, "")
	result.Diagnostics = append(append(result.Diagnostics, c.Errors...), emitErrs...)
	result.Diagnostics.Sort()
	for _, a := range arts {
		rel, err := filepath.Rel(dir, a.Dest)
		if err != nil {
			return nil, fmt.Errorf("output %s outside project: %w", a.Dest, err)
		}
		result.Outputs[filepath.ToSlash(rel)] = a.Text
	}
	logger.Debug("scenario compiled", "outputs", len(result.Outputs), "diagnostics", len(result.Diagnostics))

	evaluate(scenario, result)
	return result, nil
}

func writeProject(s *Scenario, dir string) error {
	cfg := s.Config
	if cfg == "" {
		cfg = defaultConfig
	}
	if err := os.WriteFile(filepath.Join(dir, "Veryl.toml"), []byte(cfg), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	for _, f := range s.Files {
		p := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", f.Path, err)
		}
		if err := os.WriteFile(p, []byte(f.Source), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
	}
	return nil
}

func evaluate(s *Scenario, r *Result) {
	for _, a := range s.Assertions {
		if err := checkAssertion(r, a); err != nil {
			r.AddError(err.Error())
		}
	}
}
