package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_WritesNextToSources(t *testing.T) {
	dir := writeProject(t, map[string]string{"top.veryl": passSrc})

	out, err := execute(NewBuildCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Built 1 file(s)")

	sv, err := os.ReadFile(filepath.Join(dir, "top.sv"))
	require.NoError(t, err)
	text := string(sv)
	assert.True(t, strings.HasPrefix(text, "module prj_Top (\n    input  var logic i,\n    output var logic o\n);\n"), text)
	assert.Contains(t, text, "    always_comb o = i;\nendmodule\n")
	assert.True(t, strings.HasSuffix(text, "//# sourceMappingURL=top.sv.map\n"), text)

	data, err := os.ReadFile(filepath.Join(dir, "top.sv.map"))
	require.NoError(t, err)
	var m struct {
		Version  int      `json:"version"`
		File     string   `json:"file"`
		Sources  []string `json:"sources"`
		Mappings string   `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, 3, m.Version)
	assert.Equal(t, "top.sv", m.File)
	assert.Equal(t, []string{"top.veryl"}, m.Sources)
	assert.NotEmpty(t, m.Mappings)
}

func TestBuild_OutputDirectoryJSON(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/top.veryl": passSrc,
		"src/pkg.veryl": "package Pkg {\n    const W: u32 = 8;\n}\n",
	})
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := execute(NewBuildCommand(&RootOptions{Format: "json"}), dir, "--output", outDir)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   BuildResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.ElementsMatch(t, []string{
		filepath.Join(outDir, "pkg.sv"),
		filepath.Join(outDir, "pkg.sv.map"),
		filepath.Join(outDir, "top.sv"),
		filepath.Join(outDir, "top.sv.map"),
	}, resp.Data.Files)

	pkg, err := os.ReadFile(filepath.Join(outDir, "pkg.sv"))
	require.NoError(t, err)
	assert.Contains(t, string(pkg), "package prj_Pkg;")
}

func TestBuild_GenericDeclaredInLaterFile(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a_top.veryl": `module Top (
    i: input logic<4>,
    o: output logic<4>,
) {
    assign o = Pkg::Inc::<4>(i);
}
`,
		"b_pkg.veryl": `package Pkg {
    function Inc::<N: u32> (x: input logic<N>) -> logic<N> {
        return x + 1;
    }
}
`,
	})

	_, err := execute(NewBuildCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)

	pkg, err := os.ReadFile(filepath.Join(dir, "b_pkg.sv"))
	require.NoError(t, err)
	assert.Contains(t, string(pkg), "__Inc__4(")
}

func TestBuild_Errors(t *testing.T) {
	dir := writeProject(t, map[string]string{"top.veryl": brokenSrc})

	out, err := execute(NewBuildCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "undefined_identifier")
	_, statErr := os.Stat(filepath.Join(dir, "top.sv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCheck(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		dir := writeProject(t, map[string]string{"top.veryl": passSrc})
		out, err := execute(NewCheckCommand(&RootOptions{Format: "json"}), dir)
		require.NoError(t, err)

		var resp struct {
			Status string      `json:"status"`
			Data   CheckResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, 1, resp.Data.Files)
		assert.Equal(t, 1, resp.Data.Components)
	})

	t.Run("recursive hierarchy", func(t *testing.T) {
		dir := writeProject(t, map[string]string{"a.veryl": "module A {\n    inst u: B;\n}\nmodule B {\n    inst u: A;\n}\n"})
		out, err := execute(NewCheckCommand(&RootOptions{Format: "text"}), dir)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "A -> B -> A")
		assert.Contains(t, out, "recursive_hierarchy")
	})

	t.Run("syntax error", func(t *testing.T) {
		dir := writeProject(t, map[string]string{"a.veryl": "module {\n"})
		out, err := execute(NewCheckCommand(&RootOptions{Format: "text"}), dir)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "Error ["+ErrCodeSyntax+"]")
	})

	t.Run("missing directory", func(t *testing.T) {
		out, err := execute(NewCheckCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "project directory not found")
	})
}

func TestDump(t *testing.T) {
	dir := writeProject(t, map[string]string{"top.veryl": passSrc})

	out, err := execute(NewDumpCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "module Top {")
	assert.Contains(t, out, "input var0(i): logic")

	out, err = execute(NewDumpCommand(&RootOptions{Format: "json"}), dir)
	require.NoError(t, err)
	var resp struct {
		Status string           `json:"status"`
		Data   []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Top", resp.Data[0]["name"])
	assert.Equal(t, "module", resp.Data[0]["kind"])

	_, err = execute(NewDumpCommand(&RootOptions{Format: "text"}), dir, "--component", "Nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDoc(t *testing.T) {
	dir := writeProject(t, map[string]string{"top.veryl": "/// The top.\n" + passSrc})
	outDir := filepath.Join(t.TempDir(), "html")

	out, err := execute(NewDocCommand(&RootOptions{Format: "text"}), dir, "-o", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Documented 1 component(s)")

	page, err := os.ReadFile(filepath.Join(outDir, "Top.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<h1>module Top</h1>")

	index, err := os.ReadFile(filepath.Join(outDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "The top.")
}
