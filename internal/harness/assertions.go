package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/veryl-go/internal/diag"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Output   string // Emitted text or diagnostics for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Output != "" {
		fmt.Fprintf(&buf, "\n%s\n", e.Output)
	}
	return buf.String()
}

func checkAssertion(r *Result, a Assertion) error {
	switch a.Type {
	case AssertOutputContains:
		return assertOutputContains(r, a)
	case AssertOutputExcludes:
		return assertOutputExcludes(r, a)
	case AssertOutputOrder:
		return assertOutputOrder(r, a)
	case AssertErrorKinds:
		return assertErrorKinds(r, a)
	case AssertNoErrors:
		return assertNoErrors(r)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func output(r *Result, a Assertion) (string, error) {
	text, ok := r.Outputs[a.File]
	if !ok {
		names := make([]string, 0, len(r.Outputs))
		for name := range r.Outputs {
			names = append(names, name)
		}
		slices.Sort(names)
		return "", &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("output file %s", a.File),
			Actual:   fmt.Sprintf("emitted %v", names),
			Output:   diagnosticsText(r),
		}
	}
	return text, nil
}

func assertOutputContains(r *Result, a Assertion) error {
	text, err := output(r, a)
	if err != nil {
		return err
	}
	if strings.Contains(text, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutputContains,
		Expected: fmt.Sprintf("%s contains %q", a.File, a.Text),
		Actual:   "not found",
		Output:   text,
	}
}

func assertOutputExcludes(r *Result, a Assertion) error {
	text, err := output(r, a)
	if err != nil {
		return err
	}
	if !strings.Contains(text, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutputExcludes,
		Expected: fmt.Sprintf("%s does not contain %q", a.File, a.Text),
		Actual:   "found",
		Output:   text,
	}
}

// assertOutputOrder checks that the lines appear in order. Lines are
// compared after trimming surrounding whitespace; intervening lines are
// allowed.
func assertOutputOrder(r *Result, a Assertion) error {
	text, err := output(r, a)
	if err != nil {
		return err
	}
	next := 0
	for _, line := range strings.Split(text, "\n") {
		if next < len(a.Lines) && strings.TrimSpace(line) == strings.TrimSpace(a.Lines[next]) {
			next++
		}
	}
	if next == len(a.Lines) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutputOrder,
		Expected: fmt.Sprintf("lines in order: %q", a.Lines),
		Actual:   fmt.Sprintf("missing %q after %d matched", a.Lines[next], next),
		Output:   text,
	}
}

func assertErrorKinds(r *Result, a Assertion) error {
	var missing []string
	for _, k := range a.Kinds {
		if !r.Diagnostics.Has(diag.Kind(k)) {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertErrorKinds,
		Expected: fmt.Sprintf("diagnostics of kind %v", a.Kinds),
		Actual:   fmt.Sprintf("missing %v", missing),
		Output:   diagnosticsText(r),
	}
}

func assertNoErrors(r *Result) error {
	if len(r.LoadErrors) == 0 && !r.Diagnostics.HasErrors() {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoErrors,
		Expected: "no errors",
		Actual:   fmt.Sprintf("%d load error(s), %d diagnostic(s)", len(r.LoadErrors), len(r.Diagnostics)),
		Output:   diagnosticsText(r),
	}
}

func diagnosticsText(r *Result) string {
	var lines []string
	lines = append(lines, r.LoadErrors...)
	for _, d := range r.Diagnostics {
		lines = append(lines, d.Error())
	}
	return strings.Join(lines, "\n")
}
