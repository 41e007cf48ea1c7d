package ir

import (
	"strings"

	"github.com/roach88/veryl-go/internal/syntax"
)

// Declaration is a module-level process or instance.
type Declaration interface {
	write(w *writer)
	Token() syntax.Token
}

// CombDeclaration is always_comb or a continuous assignment.
type CombDeclaration struct {
	Statements []Statement
	Tok        syntax.Token
}

func (d *CombDeclaration) Token() syntax.Token { return d.Tok }

func (d *CombDeclaration) write(w *writer) {
	w.line("comb {")
	w.block(d.Statements)
	w.line("}")
}

// FfClock is the clock of an always_ff.
type FfClock struct {
	ID       VarID
	Index    []Expression
	Comptime Comptime
}

// FfReset is the reset of an always_ff.
type FfReset struct {
	ID       VarID
	Index    []Expression
	Comptime Comptime
}

func refString(id VarID, index []Expression) string {
	s := id.String()
	for _, x := range index {
		s += "[" + x.String() + "]"
	}
	return s
}

// FfDeclaration is always_ff.
type FfDeclaration struct {
	Clock      FfClock
	Reset      *FfReset
	Statements []Statement
	Tok        syntax.Token
}

func (d *FfDeclaration) Token() syntax.Token { return d.Tok }

func (d *FfDeclaration) write(w *writer) {
	head := refString(d.Clock.ID, d.Clock.Index)
	if d.Reset != nil {
		head += ", " + refString(d.Reset.ID, d.Reset.Index)
	}
	w.line("ff (" + head + ") {")
	w.block(d.Statements)
	w.line("}")
}

// InstInput drives instance ports from the parent.
type InstInput struct {
	ID   []VarID
	Expr Expression
}

// InstOutput drives parent destinations from instance ports.
type InstOutput struct {
	ID  []VarID
	Dst []*AssignDestination
}

func idsString(ids []VarID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// InstDeclaration instantiates a component. IDs in Inputs and Outputs
// belong to the instantiated component.
type InstDeclaration struct {
	Name      string
	Inputs    []InstInput
	Outputs   []InstOutput
	Component Component
	Tok       syntax.Token
}

func (d *InstDeclaration) Token() syntax.Token { return d.Tok }

func (d *InstDeclaration) write(w *writer) {
	w.line("inst " + d.Name + " (")
	w.indent++
	for _, in := range d.Inputs {
		w.line(idsString(in.ID) + " <- " + in.Expr.String() + ";")
	}
	for _, out := range d.Outputs {
		dst := make([]string, len(out.Dst))
		for i, x := range out.Dst {
			dst[i] = x.String()
		}
		w.line(idsString(out.ID) + " -> " + strings.Join(dst, ", ") + ";")
	}
	w.indent--
	w.line(") {")
	w.indent++
	d.Component.write(w)
	w.indent--
	w.line("}")
}

// InitialDeclaration is initial or final.
type InitialDeclaration struct {
	Final      bool
	Statements []Statement
	Tok        syntax.Token
}

func (d *InitialDeclaration) Token() syntax.Token { return d.Tok }

func (d *InitialDeclaration) write(w *writer) {
	if d.Final {
		w.line("final {")
	} else {
		w.line("initial {")
	}
	w.block(d.Statements)
	w.line("}")
}
