package emitter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// TestEmit_Golden emits every testdata/src/*.veryl file and compares it to
// testdata/golden/<name>.golden. Run with -update to regenerate.
func TestEmit_Golden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "src", "*.veryl"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithNameSuffix(".golden"),
	)
	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), ".veryl")
		t.Run(name, func(t *testing.T) {
			src, err := os.ReadFile(path)
			require.NoError(t, err)
			g.Assert(t, name, []byte(mustEmit(t, string(src), nil)))
		})
	}
}
