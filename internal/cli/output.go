package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/roach88/veryl-go/internal/diag"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The sources have errors
	ExitCommandError = 2 // Command error (invalid paths, unreadable configuration, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

var (
	errorStyle   = pterm.NewStyle(pterm.FgRed, pterm.Bold)
	warningStyle = pterm.NewStyle(pterm.FgYellow, pterm.Bold)
	successStyle = pterm.NewStyle(pterm.FgLightGreen)
)

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E101", "C003", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Diagnostic is the JSON form of an analyzer error.
type Diagnostic struct {
	Code     string `json:"code"`
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Path     string `json:"path,omitempty"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
}

func toDiagnostics(list diag.List) []Diagnostic {
	out := make([]Diagnostic, len(list))
	for i, e := range list {
		out[i] = Diagnostic{
			Code:     e.Code(),
			Kind:     string(e.Kind),
			Severity: e.Severity.String(),
			Path:     e.Path,
			Line:     e.Token.Line,
			Column:   e.Token.Column,
			Message:  e.Message,
		}
	}
	return out
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "%s %s\n", errorStyle.Sprint("Error ["+code+"]:"), message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Diagnostics outputs analyzer errors and warnings. In JSON the first
// error is the response error and the full list is the data.
func (f *OutputFormatter) Diagnostics(list diag.List) error {
	ds := toDiagnostics(list)
	if f.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: ds}
		if list.HasErrors() {
			resp.Status = "error"
			for _, d := range ds {
				if d.Severity == "error" {
					resp.Error = &CLIError{Code: d.Code, Message: d.Message}
					break
				}
			}
		}
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resp)
	}

	var nerr, nwarn int
	for _, d := range ds {
		tag := d.Severity + "[" + d.Code + "]"
		if d.Severity == "error" {
			nerr++
			tag = errorStyle.Sprint(tag)
		} else {
			nwarn++
			tag = warningStyle.Sprint(tag)
		}
		loc := fmt.Sprintf("%d:%d", d.Line, d.Column)
		if d.Path != "" {
			loc = d.Path + ":" + loc
		}
		fmt.Fprintf(f.Writer, "%s %s: %s (%s)\n", tag, loc, d.Message, d.Kind)
	}
	if len(ds) > 0 {
		fmt.Fprintf(f.Writer, "\n%d error(s), %d warning(s)\n", nerr, nwarn)
	}
	return nil
}

// Done prints a success line in text mode.
func (f *OutputFormatter) Done(format string, args ...any) {
	fmt.Fprintln(f.Writer, successStyle.Sprint("✓ "+fmt.Sprintf(format, args...)))
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func newFormatter(opts *RootOptions, w, errw io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    w,
		ErrWriter: errw,
		Verbose:   opts.Verbose,
	}
}
