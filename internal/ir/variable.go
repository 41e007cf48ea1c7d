package ir

import (
	"strconv"
	"strings"

	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

// VarID numbers variables and functions within one component.
type VarID int

func (id VarID) String() string { return "var" + strconv.Itoa(int(id)) }

// VarPath is the hierarchical name of a variable inside its component:
// block labels and struct or interface members, outermost first.
type VarPath []string

// Push returns a copy with name appended.
func (p VarPath) Push(name string) VarPath {
	out := make(VarPath, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

func (p VarPath) String() string { return strings.Join(p, ".") }

// Key returns a map key for the path.
func (p VarPath) Key() string { return strings.Join(p, "\x00") }

// VarKind is the storage class of a variable.
type VarKind int

const (
	VarInput VarKind = iota
	VarOutput
	VarInout
	VarVariable
	VarLet
	VarConst
	VarParam
)

var varKindNames = [...]string{"input", "output", "inout", "var", "let", "const", "param"}

func (k VarKind) String() string { return varKindNames[k] }

// IsPort reports whether k is a port direction.
func (k VarKind) IsPort() bool { return k <= VarInout }

// Assignable reports whether a statement may drive a variable of kind k.
func (k VarKind) Assignable() bool {
	return k == VarOutput || k == VarInout || k == VarVariable
}

// Affiliation is the syntactic context a variable was declared in.
type Affiliation int

const (
	AffModule Affiliation = iota
	AffInterface
	AffPackage
	AffFunction
	AffAlwaysFf
	AffAlwaysComb
	AffStatementBlock
	AffModport
)

var affiliationNames = [...]string{
	"module", "interface", "package", "function", "always_ff", "always_comb", "statement_block", "modport",
}

func (a Affiliation) String() string { return affiliationNames[a] }

// Variable is an elaborated variable. Arrays hold one value per element.
type Variable struct {
	ID          VarID
	Path        VarPath
	Kind        VarKind
	Type        Type
	Values      []value.Value
	Affiliation Affiliation
	ClockDomain ClockDomain
	Token       syntax.Token
}

// NewVariable allocates a variable whose elements start as all X.
func NewVariable(id VarID, path VarPath, kind VarKind, t Type, aff Affiliation, tok syntax.Token) *Variable {
	n, ok := t.TotalArray()
	if !ok || n < 1 {
		n = 1
	}
	w, ok := t.TotalWidth()
	if !ok || w < 1 {
		w = 1
	}
	init := value.NewX(w, t.Signed)
	if t.Is2State() {
		init = value.New(0, w, t.Signed)
	}
	vals := make([]value.Value, n)
	for i := range vals {
		vals[i] = init
	}
	return &Variable{ID: id, Path: path, Kind: kind, Type: t, Values: vals, Affiliation: aff, Token: tok}
}

// Value returns element i, or false when out of range.
func (v *Variable) Value(i int) (value.Value, bool) {
	if i < 0 || i >= len(v.Values) {
		return value.Value{}, false
	}
	return v.Values[i], true
}

// SetValue stores element i resized to the variable width.
func (v *Variable) SetValue(i int, x value.Value) bool {
	if i < 0 || i >= len(v.Values) {
		return false
	}
	w := v.Values[i].Width()
	v.Values[i] = x.Expand(w, x.Signed()).Trunc(w).WithSigned(v.Type.Signed)
	return true
}

func (v *Variable) String() string {
	var sb strings.Builder
	sb.WriteString(v.Kind.String())
	sb.WriteString(" ")
	sb.WriteString(v.ID.String())
	sb.WriteString("(")
	sb.WriteString(v.Path.String())
	sb.WriteString(")")
	if v.ClockDomain.Kind == DomainExplicit {
		sb.WriteString(" ")
		sb.WriteString(v.ClockDomain.String())
	}
	sb.WriteString(": ")
	sb.WriteString(v.Type.String())
	sb.WriteString(" = ")
	if len(v.Values) == 1 {
		sb.WriteString("'h" + v.Values[0].HexDigits())
	} else {
		parts := make([]string, len(v.Values))
		for i, x := range v.Values {
			parts[i] = "'h" + x.HexDigits()
		}
		sb.WriteString("{" + strings.Join(parts, ", ") + "}")
	}
	sb.WriteString(";")
	return sb.String()
}

// AssignDestination is the target of an assignment.
type AssignDestination struct {
	ID       VarID
	Path     VarPath
	Index    []Expression
	Select   *VarSelect
	Comptime Comptime
	Token    syntax.Token
}

func (d *AssignDestination) String() string {
	var sb strings.Builder
	sb.WriteString(d.ID.String())
	for _, x := range d.Index {
		sb.WriteString("[" + x.String() + "]")
	}
	if d.Select != nil {
		sb.WriteString(d.Select.String())
	}
	return sb.String()
}
