package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/syntax"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"result": "success"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E005", "project directory not found", map[string]string{"dir": "x"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E005", resp.Error.Code)
	assert.Equal(t, "project directory not found", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error("E006", "unexpected token", map[string]string{"file": "a.veryl"}))
			assert.Contains(t, buf.String(), "Error [E006]")
			assert.Contains(t, buf.String(), "unexpected token")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func sampleDiagnostics() diag.List {
	var l diag.List
	e := diag.New(diag.UndefinedIdentifier, syntax.Token{Line: 3, Column: 5}, "b is undefined")
	e.Path = "src/a.veryl"
	l.Add(e)
	l.Add(diag.Warn(diag.MissingIfReset, syntax.Token{Line: 7, Column: 1}, "always_ff has no if_reset"))
	return l
}

func TestOutputFormatter_DiagnosticsText(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Diagnostics(sampleDiagnostics()))
	out := buf.String()
	assert.Contains(t, out, fmt.Sprintf("error[%s]", diag.UndefinedIdentifier.Code()))
	assert.Contains(t, out, "src/a.veryl:3:5: b is undefined (undefined_identifier)")
	assert.Contains(t, out, fmt.Sprintf("warning[%s]", diag.MissingIfReset.Code()))
	assert.Contains(t, out, " 7:1: always_ff has no if_reset")
	assert.Contains(t, out, "1 error(s), 1 warning(s)")
}

func TestOutputFormatter_DiagnosticsJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Diagnostics(sampleDiagnostics()))

	var resp struct {
		Status string       `json:"status"`
		Data   []Diagnostic `json:"data"`
		Error  *CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, diag.UndefinedIdentifier.Code(), resp.Error.Code)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, Diagnostic{
		Code:     diag.UndefinedIdentifier.Code(),
		Kind:     "undefined_identifier",
		Severity: "error",
		Path:     "src/a.veryl",
		Line:     3,
		Column:   5,
		Message:  "b is undefined",
	}, resp.Data[0])
	assert.Equal(t, "warning", resp.Data[1].Severity)
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			errBuf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    buf,
				ErrWriter: errBuf,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Processing %s", "a.veryl")

			assert.Empty(t, buf.String())
			if tt.wantLog {
				assert.Contains(t, errBuf.String(), "Processing a.veryl")
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "build failed", errors.New("x")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, "build failed: x", WrapExitError(ExitFailure, "build failed", errors.New("x")).Error())
}
