package docgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/veryl-go/internal/syntax"
)

const counterSrc = `/// Up counter.
/// Wraps at the top.
module Counter #(
    /// Counter width.
    param W: u32 = 8,
) (
    i_clk: input clock,
    o_cnt: output logic<W>, // count
) {}

/// Shared definitions.
package Pkg {
    /// Bus width.
    const WIDTH: u32 = 32;
    type word = logic<WIDTH>;
    function inc (x: input logic<WIDTH>) -> logic<WIDTH> {
        return x + 1;
    }
}

interface Bus {
    var req: logic;
    modport mst {
        req: output,
    }
}
`

func pages(t *testing.T) []*Page {
	t.Helper()
	f, err := syntax.Parse("counter.veryl", counterSrc)
	require.NoError(t, err)
	ps, err := New("prj").Pages([]*syntax.File{f})
	require.NoError(t, err)
	require.Len(t, ps, 3)
	return ps
}

func TestPages_ModuleMarkdown(t *testing.T) {
	p := pages(t)[0]
	assert.Equal(t, "Counter", p.Name)
	assert.Equal(t, "module", p.Kind)
	assert.Equal(t, "Counter.html", p.FileName())
	assert.Equal(t, "Up counter. Wraps at the top.", p.Summary)
	assert.Equal(t, "# module Counter\n"+
		"\n"+
		"Up counter.\n"+
		"Wraps at the top.\n"+
		"\n"+
		"## Parameters\n"+
		"\n"+
		"| Name | Declaration | Description |\n"+
		"|---|---|---|\n"+
		"| `W` | `param W: u32 = 8` | Counter width. |\n"+
		"\n"+
		"## Ports\n"+
		"\n"+
		"| Name | Direction | Declaration | Description |\n"+
		"|---|---|---|---|\n"+
		"| `i_clk` | input | `i_clk: input clock` |  |\n"+
		"| `o_cnt` | output | `o_cnt: output logic<W>` |  |\n", p.Markdown)
}

func TestPages_ModuleHTML(t *testing.T) {
	html := string(pages(t)[0].HTML)
	assert.Contains(t, html, "<title>prj: Counter</title>")
	assert.Contains(t, html, "<h1>module Counter</h1>")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<code>o_cnt: output logic&lt;W&gt;</code>")
}

func TestPages_PackageAndInterface(t *testing.T) {
	ps := pages(t)

	pkg := ps[1]
	assert.Equal(t, "package", pkg.Kind)
	assert.Equal(t, "Shared definitions.", pkg.Summary)
	assert.Contains(t, pkg.Markdown, "| `WIDTH` | `const WIDTH: u32 = 32` | Bus width. |")
	assert.Contains(t, pkg.Markdown, "| `word` | `type word = logic<WIDTH>` |  |")
	assert.Contains(t, pkg.Markdown, "## Functions")

	bus := ps[2]
	assert.Equal(t, "interface", bus.Kind)
	assert.Empty(t, bus.Summary)
	assert.Contains(t, bus.Markdown, "| `req` | `var req: logic` |  |")
	assert.Contains(t, bus.Markdown, "| `mst` | req: output |")
}

func TestIndex(t *testing.T) {
	idx, err := New("prj").Index(pages(t))
	require.NoError(t, err)
	assert.Equal(t, "index.html", idx.FileName())

	html := string(idx.HTML)
	assert.Contains(t, html, "<title>prj</title>")
	assert.Contains(t, html, `<a href="Counter.html">Counter</a>`)
	assert.Contains(t, html, "<h2>Packages</h2>")
	assert.Contains(t, html, "Shared definitions.")
}

func TestCell_EscapesPipes(t *testing.T) {
	assert.Equal(t, "`a \\| b`", code("a | b"))
	assert.Equal(t, "", code(""))
}
