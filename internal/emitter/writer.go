package emitter

import (
	"strings"

	"github.com/roach88/veryl-go/internal/syntax"
)

const indentUnit = "    "

// writer accumulates generated text, tracking the output position for the
// source map.
type writer struct {
	sb     strings.Builder
	line   int
	col    int
	indent int
	bol    bool
	smap   *SourceMap
}

func newWriter(smap *SourceMap) *writer {
	return &writer{bol: true, smap: smap}
}

// lead writes the indentation of a fresh line.
func (w *writer) lead() {
	if !w.bol {
		return
	}
	w.bol = false
	for i := 0; i < w.indent; i++ {
		w.sb.WriteString(indentUnit)
		w.col += len(indentUnit)
	}
}

// str writes text containing no newline.
func (w *writer) str(s string) {
	if s == "" {
		return
	}
	w.lead()
	w.sb.WriteString(s)
	w.col += len(s)
}

// tok writes text produced from a source token and maps it.
func (w *writer) tok(t syntax.Token, s string) {
	w.lead()
	if w.smap != nil && t.Line > 0 {
		w.smap.Add(w.line, w.col, t.Line-1, t.Column-1)
	}
	w.str(s)
}

// raw writes text that may span lines, such as embedded code.
func (w *writer) raw(s string) {
	for i, part := range strings.Split(s, "\n") {
		if i > 0 {
			w.nl()
		}
		if part != "" {
			w.bol = false
			w.sb.WriteString(part)
			w.col += len(part)
		}
	}
}

func (w *writer) nl() {
	w.sb.WriteByte('\n')
	w.line++
	w.col = 0
	w.bol = true
}

// line writes one indented line.
func (w *writer) linef(s string) {
	w.str(s)
	w.nl()
}

func (w *writer) String() string { return w.sb.String() }
