package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s, t.TempDir())
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

const minimal = `
name: minimal
description: "one module"
files:
  - path: top.veryl
    source: |
      module Top (
          i: input  logic,
          o: output logic,
      ) {
          assign o = i;
      }
assertions:
  - type: no_errors
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(minimal))
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Files, 1)
	assert.Equal(t, "top.veryl", s.Files[0].Path)
	assert.Contains(t, s.Files[0].Source, "assign o = i;")
	assert.Equal(t, AssertNoErrors, s.Assertions[0].Type)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", minimal + "extra: 1\n", "failed to parse YAML"},
		{"missing name", "description: d\nfiles: [{path: a.veryl}]\nassertions: [{type: no_errors}]\n", "name is required"},
		{"no files", "name: n\ndescription: d\nassertions: [{type: no_errors}]\n", "files list is required"},
		{"escaping path", "name: n\ndescription: d\nfiles: [{path: ../a.veryl}]\nassertions: [{type: no_errors}]\n", "must stay inside the project"},
		{"wrong extension", "name: n\ndescription: d\nfiles: [{path: a.sv}]\nassertions: [{type: no_errors}]\n", "is not a .veryl file"},
		{"unknown assertion", "name: n\ndescription: d\nfiles: [{path: a.veryl}]\nassertions: [{type: trace_order}]\n", "unknown assertion type"},
		{"contains without text", "name: n\ndescription: d\nfiles: [{path: a.veryl}]\nassertions: [{type: output_contains, file: a.sv}]\n", "file and text are required"},
		{"empty kinds", "name: n\ndescription: d\nfiles: [{path: a.veryl}]\nassertions: [{type: error_kinds}]\n", "kinds list is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_Outputs(t *testing.T) {
	s, err := ParseScenario([]byte(minimal))
	require.NoError(t, err)

	result, err := Run(s, t.TempDir())
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Empty(t, result.LoadErrors)
	require.Contains(t, result.Outputs, "top.sv")
	assert.Contains(t, result.Outputs["top.sv"], "module prj_Top (")
	assert.Contains(t, result.Outputs["top.sv"], "endmodule")
}

func TestRun_FailedAssertions(t *testing.T) {
	s, err := ParseScenario([]byte(minimal))
	require.NoError(t, err)
	s.Assertions = []Assertion{
		{Type: AssertOutputContains, File: "top.sv", Text: "always_ff"},
		{Type: AssertOutputExcludes, File: "top.sv", Text: "endmodule"},
		{Type: AssertOutputOrder, File: "top.sv", Lines: []string{"endmodule", "module prj_Top ("}},
		{Type: AssertOutputContains, File: "missing.sv", Text: "x"},
		{Type: AssertErrorKinds, Kinds: []string{"undefined_identifier"}},
	}

	result, err := Run(s, t.TempDir())
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "Assertion failed: output_contains")
	assert.Contains(t, result.Errors[1], "Actual: found")
	assert.Contains(t, result.Errors[2], `missing "module prj_Top (" after 1 matched`)
	assert.Contains(t, result.Errors[3], "output file missing.sv")
	assert.Contains(t, result.Errors[4], "missing [undefined_identifier]")
}

func TestRun_SyntaxError(t *testing.T) {
	s := &Scenario{
		Name:        "syntax",
		Description: "unterminated module",
		Files:       []SourceFile{{Path: "a.veryl", Source: "module {\n"}},
		Assertions:  []Assertion{{Type: AssertNoErrors}},
	}

	result, err := Run(s, t.TempDir())
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.LoadErrors)
	assert.Empty(t, result.Outputs)
	assert.Contains(t, result.Errors[0], "Assertion failed: no_errors")
}

func TestRun_InvalidConfig(t *testing.T) {
	s, err := ParseScenario([]byte(minimal))
	require.NoError(t, err)
	s.Config = "[project]\nname = \"prj\"\n[build]\nreset_type = \"sideways\"\n"

	result, err := Run(s, t.TempDir())
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.LoadErrors, 1)
	assert.Contains(t, result.LoadErrors[0], "unknown reset type")
}
