package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadFile_TOML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "Veryl.toml", `
[project]
name = "prj"

[build]
clock_type = "negedge"
reset_type = "sync_low"
reset_low_prefix = "rst_low_"
omit_project_prefix = true
hierarchy_depth = 16
`)
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "prj", cfg.Project.Name)
	assert.Equal(t, ClockNegedge, cfg.Build.ClockType)
	assert.Equal(t, ResetSyncLow, cfg.Build.ResetType)
	assert.Equal(t, "rst_low_", cfg.Build.ResetLowPrefix)
	assert.True(t, cfg.Build.OmitProjectPrefix)
	assert.Equal(t, 16, cfg.Build.HierarchyDepth)

	// Unset options keep their defaults.
	assert.Equal(t, Default("").Build.TotalInstance, cfg.Build.TotalInstance)
	assert.Equal(t, SourceMapTarget, cfg.Build.Sourcemap)
}

func TestLoadFile_YAML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "veryl.yaml", `
project:
  name: prj
build:
  expand_inside_operation: true
  emit_cond_type: true
  implicit_parameter_types: [string, type]
`)
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	assert.True(t, cfg.Build.ExpandInsideOperation)
	assert.True(t, cfg.Build.EmitCondType)
	assert.True(t, cfg.Build.ImplicitParameterType("type"))
	assert.False(t, cfg.Build.ImplicitParameterType("u32"))
}

func TestLoadFile_CUE(t *testing.T) {
	p := writeFile(t, t.TempDir(), "veryl.cue", `
project: name: "prj"
build: {
	clock_type:          "posedge"
	hashed_mangled_name: true
	evaluate_size:       64
}
`)
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	assert.True(t, cfg.Build.HashedMangledName)
	assert.Equal(t, 64, cfg.Build.EvaluateSize)
	assert.Equal(t, 64, cfg.Build.Conv().EvaluateSize)
	assert.True(t, cfg.Build.Conv().HashedMangledName)
}

func TestLoadFile_CUESchemaViolation(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad enum", `project: name: "prj"
build: clock_type: "rising"`},
		{"unknown field", `project: name: "prj"
build: no_such_option: true`},
		{"non positive limit", `project: name: "prj"
build: hierarchy_depth: 0`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, t.TempDir(), "veryl.cue", tt.src)
			_, err := LoadFile(p)
			assert.True(t, IsLoadError(err, ErrCodeSchema), "got %v", err)
		})
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	p := writeFile(t, dir, "Veryl.toml", `
[project]
name = "prj"
[build]
reset_type = "sometimes"
`)
	_, err := LoadFile(p)
	require.Error(t, err)
	assert.True(t, IsLoadError(err, ErrCodeInvalid))
	assert.Contains(t, err.Error(), "build.reset_type")

	p = writeFile(t, dir, "broken.toml", "[project\n")
	_, err = LoadFile(p)
	assert.True(t, IsLoadError(err, ErrCodeParse))

	_, err = LoadFile(filepath.Join(dir, "missing.toml"))
	assert.True(t, IsLoadError(err, ErrCodeRead))
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "VERYL_CLOCK_TYPE=negedge\nVERYL_TOTAL_INSTANCE=9\nOTHER=1\n")
	t.Setenv("VERYL_TOTAL_INSTANCE", "12")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), cfg.Project.Name)
	assert.Equal(t, ClockNegedge, cfg.Build.ClockType)
	// The process environment wins over the .env file.
	assert.Equal(t, 12, cfg.Build.TotalInstance)
}

func TestFind_Preference(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "veryl.cue", `project: name: "a"`)
	writeFile(t, dir, "Veryl.toml", "[project]\nname = \"b\"\n")
	p, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, "Veryl.toml", filepath.Base(p))

	_, err = Find(t.TempDir())
	assert.True(t, IsLoadError(err, ErrCodeNotFound))
}

func TestApplyEnv(t *testing.T) {
	cfg := Default("prj")
	err := ApplyEnv(&cfg, map[string]string{
		"VERYL_RESET_TYPE":               "ASYNC_HIGH",
		"VERYL_FLATTEN_ARRAY_INTERFACE":  "true",
		"VERYL_IMPLICIT_PARAMETER_TYPES": "string, type",
		"VERYL_CLOCK_POSEDGE_SUFFIX":     "_p",
		"VERYL_UNKNOWN":                  "x",
	})
	require.NoError(t, err)
	assert.Equal(t, ResetAsyncHigh, cfg.Build.ResetType)
	assert.True(t, cfg.Build.FlattenArrayInterface)
	assert.Equal(t, []string{"string", "type"}, cfg.Build.ImplicitParameterTypes)
	pre, suf := cfg.Build.ClockAffix(false)
	assert.Equal(t, "", pre)
	assert.Equal(t, "_p", suf)

	err = ApplyEnv(&cfg, map[string]string{"VERYL_EVALUATE_SIZE": "lots"})
	assert.True(t, IsLoadError(err, ErrCodeEnv))
}

func TestResetType(t *testing.T) {
	assert.True(t, ResetAsyncLow.IsAsync())
	assert.True(t, ResetAsyncLow.IsLow())
	assert.False(t, ResetSyncHigh.IsAsync())
	assert.False(t, ResetSyncHigh.IsLow())
}
