package ir

import (
	"strings"

	"github.com/roach88/veryl-go/internal/syntax"
)

// Statement is a procedural statement. For loops are unrolled and returns
// become assignments to the function's return variable during conversion,
// so neither has a node here.
type Statement interface {
	write(w *writer)
	Token() syntax.Token
}

// AssignStatement is dst = expr. Several destinations mean a concatenated
// left side.
type AssignStatement struct {
	Dst  []*AssignDestination
	Expr Expression
	Tok  syntax.Token
}

func (s *AssignStatement) Token() syntax.Token { return s.Tok }

func (s *AssignStatement) write(w *writer) {
	if len(s.Dst) == 1 {
		w.line(s.Dst[0].String() + " = " + s.Expr.String() + ";")
		return
	}
	parts := make([]string, len(s.Dst))
	for i, d := range s.Dst {
		parts[i] = d.String()
	}
	w.line("{" + strings.Join(parts, ", ") + "} = " + s.Expr.String() + ";")
}

// IfStatement is if cond { } else { }. An else-if chain nests in FalseSide.
type IfStatement struct {
	Cond      Expression
	TrueSide  []Statement
	FalseSide []Statement
	Tok       syntax.Token
}

func (s *IfStatement) Token() syntax.Token { return s.Tok }

func (s *IfStatement) write(w *writer) {
	w.line("if " + s.Cond.String() + " {")
	writeBranches(w, s.TrueSide, s.FalseSide)
}

// IfResetStatement is if_reset { } else { }.
type IfResetStatement struct {
	TrueSide  []Statement
	FalseSide []Statement
	Tok       syntax.Token
}

func (s *IfResetStatement) Token() syntax.Token { return s.Tok }

func (s *IfResetStatement) write(w *writer) {
	w.line("if_reset {")
	writeBranches(w, s.TrueSide, s.FalseSide)
}

func writeBranches(w *writer, t, f []Statement) {
	w.block(t)
	if len(f) == 0 {
		w.line("}")
		return
	}
	w.line("} else {")
	w.block(f)
	w.line("}")
}

// CallStatement is a function or system function call used as a statement.
type CallStatement struct {
	Call Factor
}

func (s *CallStatement) Token() syntax.Token { return s.Call.Token() }
func (s *CallStatement) write(w *writer)     { w.line(s.Call.String() + ";") }

// StatementsString renders statements one per line.
func StatementsString(stmts []Statement) string {
	w := &writer{}
	for _, s := range stmts {
		s.write(w)
	}
	return w.String()
}

type writer struct {
	sb     strings.Builder
	indent int
}

func (w *writer) line(s string) {
	if s == "" {
		w.sb.WriteString("\n")
		return
	}
	w.sb.WriteString(strings.Repeat("  ", w.indent))
	w.sb.WriteString(s)
	w.sb.WriteString("\n")
}

func (w *writer) block(stmts []Statement) {
	w.indent++
	for _, s := range stmts {
		s.write(w)
	}
	w.indent--
}

func (w *writer) String() string { return w.sb.String() }
