package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProject(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/b.veryl":            passSrc,
		"src/a.veryl":            "package Pkg {}\n",
		".hidden/c.veryl":        "module C {}\n",
		"dependencies/x/d.veryl": "module D {}\n",
		"src/notes.md":           "# notes\n",
	})

	p, errs := LoadProject(dir)
	require.Empty(t, errs)
	require.NotNil(t, p)
	assert.Equal(t, "prj", p.Config.Project.Name)
	require.Len(t, p.Files, 2)
	assert.Equal(t, filepath.Join(dir, "src", "a.veryl"), p.Files[0].Path)
	assert.Equal(t, filepath.Join(dir, "src", "b.veryl"), p.Files[1].Path)
}

func TestLoadProject_Errors(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
		code string
	}{
		{
			name: "missing directory",
			dir:  func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
			code: ErrCodeNotFound,
		},
		{
			name: "not a directory",
			dir: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "file")
				require.NoError(t, os.WriteFile(p, nil, 0o644))
				return p
			},
			code: ErrCodeNotFound,
		},
		{
			name: "no sources",
			dir:  func(t *testing.T) string { return writeProject(t, nil) },
			code: ErrCodeNoFiles,
		},
		{
			name: "bad configuration",
			dir: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.WriteFile(filepath.Join(dir, "Veryl.toml"), []byte("[project\n"), 0o644))
				return dir
			},
			code: "C003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, errs := LoadProject(tt.dir(t))
			assert.Nil(t, p)
			require.Len(t, errs, 1)
			var le *LoadError
			require.ErrorAs(t, errs[0], &le)
			assert.Equal(t, tt.code, le.Code)
		})
	}
}

func TestLoadProject_SyntaxErrorKeepsOtherFiles(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a.veryl": passSrc,
		"b.veryl": "module {\n",
	})

	p, errs := LoadProject(dir)
	require.NotNil(t, p)
	assert.Len(t, p.Files, 1)
	require.Len(t, errs, 1)
	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, ErrCodeSyntax, le.Code)
	assert.Equal(t, filepath.Join(dir, "b.veryl"), le.Path)
	assert.Equal(t, 1, le.Line)
}
