package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

// Factor is a leaf expression. Its Comptime is fixed at conversion time.
type Factor interface {
	Expression
	factor()
}

type factorBase struct {
	C Comptime
}

func (f *factorBase) factor()                                 {}
func (f *factorBase) Comptime() *Comptime                     { return &f.C }
func (f *factorBase) EvalComptime(Env, int) *Comptime         { return &f.C }
func (f *factorBase) Token() syntax.Token                     { return f.C.Token }
func (f *factorBase) EvalValue(Env, int) (value.Value, bool) { return f.C.ConstValue() }

// SelectKind is the form of a part select.
type SelectKind int

const (
	SelectBit SelectKind = iota
	SelectColon
	SelectPlusColon
	SelectMinusColon
	SelectStep
)

var selectSeparators = [...]string{"", ":", "+:", "-:", " step "}

// VarSelect is a bit or part select applied after array indexing.
type VarSelect struct {
	Kind SelectKind
	Msb  Expression
	Lsb  Expression
}

func (s *VarSelect) String() string {
	if s.Kind == SelectBit {
		return "[" + s.Msb.String() + "]"
	}
	return "[" + s.Msb.String() + selectSeparators[s.Kind] + s.Lsb.String() + "]"
}

// Range evaluates the select to [beg:end] bit positions.
func (s *VarSelect) Range(env Env) (beg, end int, ok bool) {
	msb, ok := evalInt(env, s.Msb)
	if !ok {
		return 0, 0, false
	}
	if s.Kind == SelectBit {
		return msb, msb, true
	}
	lsb, ok := evalInt(env, s.Lsb)
	if !ok {
		return 0, 0, false
	}
	switch s.Kind {
	case SelectColon:
		return msb, lsb, true
	case SelectPlusColon:
		return msb + lsb - 1, msb, true
	case SelectMinusColon:
		return msb, msb - lsb + 1, true
	}
	return (msb+1)*lsb - 1, msb * lsb, true
}

func evalInt(env Env, e Expression) (int, bool) {
	if e.Comptime() == nil {
		e.EvalComptime(env, 0)
	}
	v, ok := e.EvalValue(env, 0)
	if !ok {
		return 0, false
	}
	return v.ToInteger()
}

// VariableFactor references a variable, optionally indexed and selected.
type VariableFactor struct {
	factorBase
	ID     VarID
	Index  []Expression
	Select *VarSelect
}

// NewVariableFactor returns a reference to id typed by c.
func NewVariableFactor(id VarID, index []Expression, sel *VarSelect, c Comptime) *VariableFactor {
	return &VariableFactor{factorBase: factorBase{C: c}, ID: id, Index: index, Select: sel}
}

func (f *VariableFactor) String() string {
	var sb strings.Builder
	sb.WriteString(f.ID.String())
	for _, x := range f.Index {
		sb.WriteString("[" + x.String() + "]")
	}
	if f.Select != nil {
		sb.WriteString(f.Select.String())
	}
	return sb.String()
}

// ValueFactor is a literal number, string or type.
type ValueFactor struct {
	factorBase
}

// NewValueFactor wraps a comptime as a literal.
func NewValueFactor(c Comptime) *ValueFactor { return &ValueFactor{factorBase{C: c}} }

func (f *ValueFactor) String() string {
	switch f.C.Value.Kind {
	case ValueNumeric:
		return f.C.Value.Numeric.HexDigits()
	case ValueType:
		return f.C.Value.Type.String()
	case ValueString:
		return strconv.Quote(f.C.Value.Text)
	}
	return "unknown"
}

// FunctionCallFactor calls a converted function.
type FunctionCallFactor struct {
	factorBase
	ID      VarID
	Inputs  []Expression
	Outputs []*AssignDestination
}

// NewFunctionCallFactor returns a call typed by c.
func NewFunctionCallFactor(id VarID, inputs []Expression, outputs []*AssignDestination, c Comptime) *FunctionCallFactor {
	return &FunctionCallFactor{factorBase: factorBase{C: c}, ID: id, Inputs: inputs, Outputs: outputs}
}

func (f *FunctionCallFactor) String() string {
	args := make([]string, 0, len(f.Inputs)+len(f.Outputs))
	for _, x := range f.Inputs {
		args = append(args, x.String())
	}
	for _, d := range f.Outputs {
		args = append(args, d.String())
	}
	return fmt.Sprintf("%s(%s)", f.ID, strings.Join(args, ", "))
}

// SystemFunctionCallFactor is $name(args).
type SystemFunctionCallFactor struct {
	factorBase
	Name string
	Args []Expression
}

// NewSystemFunctionCallFactor returns a system call typed by c.
func NewSystemFunctionCallFactor(name string, args []Expression, c Comptime) *SystemFunctionCallFactor {
	return &SystemFunctionCallFactor{factorBase: factorBase{C: c}, Name: name, Args: args}
}

func (f *SystemFunctionCallFactor) String() string {
	args := make([]string, len(f.Args))
	for i, x := range f.Args {
		args[i] = x.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(args, ", "))
}

// AnonymousFactor is _ in an unconnected output port.
type AnonymousFactor struct {
	factorBase
}

// NewAnonymousFactor returns _.
func NewAnonymousFactor(tok syntax.Token) *AnonymousFactor {
	c := NewUnknown(tok)
	return &AnonymousFactor{factorBase{C: c}}
}

func (f *AnonymousFactor) String() string { return "_" }

// UnknownFactor stands for an expression the IR does not model, such as a
// reference into $sv.
type UnknownFactor struct {
	factorBase
}

// NewUnknownFactor returns an unknown leaf.
func NewUnknownFactor(tok syntax.Token) *UnknownFactor {
	return &UnknownFactor{factorBase{C: NewUnknown(tok)}}
}

func (f *UnknownFactor) String() string { return "unknown" }

// Fold replaces every constant subtree without X/Z bits by its value. It
// uses the comptimes recorded by the last EvalComptime.
func Fold(e Expression) Expression {
	c := e.Comptime()
	if c == nil {
		return e
	}
	if t, ok := e.(*Term); ok {
		if _, lit := t.Factor.(*ValueFactor); lit {
			return e
		}
	}
	if v, ok := c.ConstValue(); ok && !v.IsXZ() && !c.Type.IsArray() {
		folded := *c
		folded.Value = ValueVariant{Kind: ValueNumeric, Numeric: v}
		return &Term{Factor: NewValueFactor(folded)}
	}
	switch x := e.(type) {
	case *Unary:
		x.X = Fold(x.X)
	case *Binary:
		x.X, x.Y = Fold(x.X), Fold(x.Y)
	case *Ternary:
		x.Cond, x.Then, x.Else = Fold(x.Cond), Fold(x.Then), Fold(x.Else)
	case *Concatenation:
		for i := range x.Items {
			x.Items[i].X = Fold(x.Items[i].X)
		}
	case *ArrayLiteral:
		for i := range x.Items {
			x.Items[i].X = Fold(x.Items[i].X)
		}
	case *StructConstructor:
		for i := range x.Fields {
			x.Fields[i].X = Fold(x.Fields[i].X)
		}
	}
	return e
}
