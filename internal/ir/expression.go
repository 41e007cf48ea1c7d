package ir

import (
	"fmt"
	"strings"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

// Expression is an IR expression.
//
// EvalComptime types the expression bottom-up, reports operand errors to env
// and records the result on the node. EvalValue evaluates the expression in
// a context of ctx bits (0 when self-determined); it is only meaningful
// after EvalComptime and fails when any leaf is not constant.
type Expression interface {
	fmt.Stringer
	EvalComptime(env Env, ctx int) *Comptime
	EvalValue(env Env, ctx int) (value.Value, bool)
	Comptime() *Comptime
	Token() syntax.Token
}

// EvalSigned reports whether e evaluates as a signed value.
func EvalSigned(env Env, e Expression) bool {
	c := e.Comptime()
	if c == nil {
		c = e.EvalComptime(env, 0)
	}
	return c.Type.Signed
}

// Term wraps a single factor.
type Term struct {
	Factor Factor
}

func (e *Term) String() string                                 { return e.Factor.String() }
func (e *Term) Token() syntax.Token                            { return e.Factor.Token() }
func (e *Term) Comptime() *Comptime                            { return e.Factor.Comptime() }
func (e *Term) EvalComptime(env Env, ctx int) *Comptime        { return e.Factor.EvalComptime(env, ctx) }
func (e *Term) EvalValue(env Env, ctx int) (value.Value, bool) { return e.Factor.EvalValue(env, ctx) }

// NewTerm returns a literal term.
func NewTerm(v value.Value, tok syntax.Token) *Term {
	return &Term{Factor: &ValueFactor{factorBase{C: NewValue(v, tok)}}}
}

// Unary is op x.
type Unary struct {
	Op  value.Op
	X   Expression
	Tok syntax.Token

	comptime *Comptime
}

func (e *Unary) String() string      { return fmt.Sprintf("(%s %s)", e.Op, e.X) }
func (e *Unary) Token() syntax.Token { return e.Tok }
func (e *Unary) Comptime() *Comptime { return e.comptime }

func (e *Unary) EvalComptime(env Env, ctx int) *Comptime {
	xc := e.X.EvalComptime(env, e.Op.UnaryContextWidth(ctx))
	c := &Comptime{
		Type:        Type{Kind: TypeLogic},
		IsConst:     xc.IsConst,
		IsGlobal:    xc.IsGlobal,
		ClockDomain: xc.ClockDomain,
		Token:       e.Tok,
	}
	e.comptime = c

	switch {
	case xc.Type.IsUnknown():
		c.Type = Type{Kind: TypeUnknown}
		return c
	case xc.Type.IsArray(), xc.Type.IsType(), xc.Type.IsString(), xc.Value.Kind == ValueType:
		env.InsertError(diag.New(diag.InvalidOperand, e.Tok, "%s cannot be used as an operand of unary %s", xc.Type, e.Op))
		c.Type = Type{Kind: TypeUnknown}
		return c
	case (xc.Type.IsClock() || xc.Type.IsReset()) && e.Op != value.BitNot && e.Op != value.LogicNot:
		env.InsertError(diag.New(diag.InvalidOperand, e.Tok, "%s cannot be used as an operand of unary %s", xc.Type, e.Op))
	case e.Op == value.LogicNot && !xc.Type.IsBinary():
		env.InsertError(diag.New(diag.InvalidLogicalOperand, e.Tok, "operand of ! must be 1 bit, found %s", xc.Type))
	}

	w := e.Op.UnaryResultWidth(xc.Width(), ctx)
	c.Type = typed(xc.Type.Is2State(), e.Op.UnarySigned(xc.Type.Signed), w)
	if c.IsConst {
		if v, ok := e.EvalValue(env, ctx); ok {
			c.Value = ValueVariant{Kind: ValueNumeric, Numeric: v}
		}
	}
	return c
}

func (e *Unary) EvalValue(env Env, ctx int) (value.Value, bool) {
	xc := e.X.Comptime()
	if xc == nil {
		xc = e.X.EvalComptime(env, 0)
	}
	inner := e.Op.UnaryContextWidth(ctx)
	if inner != 0 {
		inner = max(inner, xc.Width())
	}
	x, ok := e.X.EvalValue(env, inner)
	if !ok {
		return value.Value{}, false
	}
	return value.EvalUnary(e.Op, x, ctx, e.Op.UnarySigned(xc.Type.Signed), env.MaskCache()), true
}

// Binary is x op y. For value.As, Y is a type value.
type Binary struct {
	X   Expression
	Op  value.Op
	Y   Expression
	Tok syntax.Token

	comptime *Comptime
}

func (e *Binary) String() string      { return fmt.Sprintf("(%s %s %s)", e.X, e.Op, e.Y) }
func (e *Binary) Token() syntax.Token { return e.Tok }
func (e *Binary) Comptime() *Comptime { return e.comptime }

func (e *Binary) EvalComptime(env Env, ctx int) *Comptime {
	if e.Op == value.As {
		return e.evalCast(env)
	}
	xc := e.X.EvalComptime(env, 0)
	yc := e.Y.EvalComptime(env, 0)
	c := &Comptime{
		Type:     Type{Kind: TypeLogic},
		IsConst:  xc.IsConst && yc.IsConst,
		IsGlobal: xc.IsGlobal && yc.IsGlobal,
		Token:    e.Tok,
	}
	e.comptime = c

	if !xc.ClockDomain.Compatible(yc.ClockDomain) {
		env.InsertError(diag.New(diag.MismatchClockDomain, e.Tok,
			"clock domain crossing from %s to %s", xc.ClockDomain, yc.ClockDomain))
	}
	c.ClockDomain = xc.ClockDomain.Merge(yc.ClockDomain)

	if xc.Type.IsUnknown() || yc.Type.IsUnknown() {
		c.Type = Type{Kind: TypeUnknown}
		return c
	}
	for _, oc := range []*Comptime{xc, yc} {
		if !e.checkOperand(env, oc) {
			c.Type = Type{Kind: TypeUnknown}
			return c
		}
	}
	if e.Op.IsLogical() && (!xc.Type.IsBinary() || !yc.Type.IsBinary()) {
		env.InsertError(diag.New(diag.InvalidLogicalOperand, e.Tok,
			"operands of %s must be 1 bit, found %s and %s", e.Op, xc.Type, yc.Type))
	}

	w := e.Op.BinaryResultWidth(xc.Width(), yc.Width(), ctx)
	signed := e.Op.BinarySigned(xc.Type.Signed, yc.Type.Signed)
	if e.Op.IsCompare() || e.Op.IsLogical() {
		signed = false
	}
	c.Type = typed(xc.Type.Is2State() && yc.Type.Is2State(), signed, w)
	if c.IsConst {
		if v, ok := e.EvalValue(env, ctx); ok {
			c.Value = ValueVariant{Kind: ValueNumeric, Numeric: v}
		}
	}
	return c
}

func (e *Binary) checkOperand(env Env, oc *Comptime) bool {
	switch {
	case oc.Type.IsArray(), oc.Type.IsType(), oc.Value.Kind == ValueType:
	case oc.Type.IsString():
		if e.Op == value.Eq || e.Op == value.Ne {
			return true
		}
	case oc.Type.IsClock(), oc.Type.IsReset():
	default:
		return true
	}
	env.InsertError(diag.New(diag.InvalidOperand, e.Tok, "%s cannot be used as an operand of %s", oc.Type, e.Op))
	return false
}

func (e *Binary) evalCast(env Env) *Comptime {
	xc := e.X.EvalComptime(env, 0)
	yc := e.Y.EvalComptime(env, 0)
	c := &Comptime{
		Type:        Type{Kind: TypeUnknown},
		IsConst:     xc.IsConst,
		IsGlobal:    xc.IsGlobal,
		ClockDomain: xc.ClockDomain,
		Token:       e.Tok,
	}
	e.comptime = c
	if yc.Value.Kind != ValueType {
		env.InsertError(diag.New(diag.InvalidCast, e.Tok, "cast target is not a type"))
		return c
	}
	dst := yc.Value.Type
	c.Type = dst
	src := xc.Type
	if src.IsUnknown() || dst.IsUnknown() {
		return c
	}
	plainBit := (src.Kind == TypeLogic || src.Kind == TypeBit) && src.IsBinary()
	if !plainBit && (src.IsClock() != dst.IsClock() || src.IsReset() != dst.IsReset()) {
		env.InsertError(diag.New(diag.InvalidCast, e.Tok, "cannot cast %s to %s", src, dst))
		return c
	}
	if c.IsConst {
		if v, ok := e.EvalValue(env, 0); ok {
			c.Value = ValueVariant{Kind: ValueNumeric, Numeric: v}
		}
	}
	return c
}

func (e *Binary) EvalValue(env Env, ctx int) (value.Value, bool) {
	xc, yc := e.X.Comptime(), e.Y.Comptime()
	if xc == nil || yc == nil {
		e.EvalComptime(env, ctx)
		xc, yc = e.X.Comptime(), e.Y.Comptime()
	}
	cache := env.MaskCache()

	if e.Op == value.As {
		x, ok := e.X.EvalValue(env, 0)
		if !ok || yc.Value.Kind != ValueType {
			return value.Value{}, false
		}
		dst := yc.Value.Type
		w, ok := dst.TotalWidth()
		if !ok {
			return value.Value{}, false
		}
		return x.Expand(w, x.Signed()).Trunc(w).WithSigned(dst.Signed), true
	}

	var xctx, yctx int
	switch {
	case e.Op.IsCompare():
		xctx = max(xc.Width(), yc.Width())
		yctx = xctx
	case e.Op.IsLogical():
	case e.Op.IsShift(), e.Op == value.Pow:
		xctx = max(ctx, xc.Width())
	default:
		xctx = max(ctx, xc.Width(), yc.Width())
		yctx = xctx
	}
	x, ok := e.X.EvalValue(env, xctx)
	if !ok {
		return value.Value{}, false
	}
	y, ok := e.Y.EvalValue(env, yctx)
	if !ok {
		return value.Value{}, false
	}
	signed := e.Op.BinarySigned(xc.Type.Signed, yc.Type.Signed)
	return value.EvalBinary(e.Op, x, y, ctx, signed, cache), true
}

// Ternary is cond ? then : else.
type Ternary struct {
	Cond Expression
	Then Expression
	Else Expression
	Tok  syntax.Token

	comptime *Comptime
}

func (e *Ternary) String() string      { return fmt.Sprintf("(%s ? %s : %s)", e.Cond, e.Then, e.Else) }
func (e *Ternary) Token() syntax.Token { return e.Tok }
func (e *Ternary) Comptime() *Comptime { return e.comptime }

func (e *Ternary) EvalComptime(env Env, ctx int) *Comptime {
	cc := e.Cond.EvalComptime(env, 0)
	tc := e.Then.EvalComptime(env, ctx)
	ec := e.Else.EvalComptime(env, ctx)
	c := &Comptime{
		IsConst:  cc.IsConst && tc.IsConst && ec.IsConst,
		IsGlobal: cc.IsGlobal && tc.IsGlobal && ec.IsGlobal,
		Token:    e.Tok,
	}
	e.comptime = c

	domains := []*Comptime{cc, tc, ec}
	c.ClockDomain = cc.ClockDomain
	for _, d := range domains[1:] {
		if !c.ClockDomain.Compatible(d.ClockDomain) {
			env.InsertError(diag.New(diag.MismatchClockDomain, e.Tok,
				"clock domain crossing from %s to %s", c.ClockDomain, d.ClockDomain))
		}
		c.ClockDomain = c.ClockDomain.Merge(d.ClockDomain)
	}

	switch {
	case tc.Type.IsUnknown() || ec.Type.IsUnknown():
		c.Type = Type{Kind: TypeUnknown}
		return c
	case tc.Type.IsArray() || tc.Type.IsStruct() || tc.Type.IsString() || tc.Type.IsType() || tc.Type.IsClock() || tc.Type.IsReset():
		c.Type = tc.Type
	default:
		w := max(tc.Width(), ec.Width(), ctx)
		c.Type = typed(tc.Type.Is2State() && ec.Type.Is2State(), tc.Type.Signed && ec.Type.Signed, w)
	}
	if c.IsConst {
		if v, ok := e.EvalValue(env, ctx); ok {
			c.Value = ValueVariant{Kind: ValueNumeric, Numeric: v}
		}
	}
	return c
}

func (e *Ternary) EvalValue(env Env, ctx int) (value.Value, bool) {
	if e.comptime == nil {
		e.EvalComptime(env, ctx)
	}
	cond, ok := e.Cond.EvalValue(env, 0)
	if !ok {
		return value.Value{}, false
	}
	w := max(ctx, e.Then.Comptime().Width(), e.Else.Comptime().Width())
	if cond.IsXZ() {
		return value.NewX(w, false), true
	}
	branch := e.Else
	if !cond.IsZero() {
		branch = e.Then
	}
	v, ok := branch.EvalValue(env, w)
	if !ok {
		return value.Value{}, false
	}
	return v.Expand(w, v.Signed()), true
}

// ConcatItem is one element of a concatenation.
type ConcatItem struct {
	X      Expression
	Repeat Expression
}

// Concatenation is {a, b repeat n}.
type Concatenation struct {
	Items []ConcatItem
	Tok   syntax.Token

	comptime *Comptime
}

func (e *Concatenation) String() string {
	parts := make([]string, len(e.Items))
	for i, it := range e.Items {
		parts[i] = it.X.String()
		if it.Repeat != nil {
			parts[i] += " repeat " + it.Repeat.String()
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (e *Concatenation) Token() syntax.Token { return e.Tok }
func (e *Concatenation) Comptime() *Comptime { return e.comptime }

func (e *Concatenation) EvalComptime(env Env, _ int) *Comptime {
	c := &Comptime{IsConst: true, IsGlobal: true, Token: e.Tok}
	e.comptime = c
	width, twoState, known := 0, true, true
	for _, it := range e.Items {
		xc := it.X.EvalComptime(env, 0)
		c.IsConst = c.IsConst && xc.IsConst
		c.IsGlobal = c.IsGlobal && xc.IsGlobal
		if !c.ClockDomain.Compatible(xc.ClockDomain) {
			env.InsertError(diag.New(diag.MismatchClockDomain, e.Tok,
				"clock domain crossing from %s to %s", c.ClockDomain, xc.ClockDomain))
		}
		c.ClockDomain = c.ClockDomain.Merge(xc.ClockDomain)
		if xc.Type.IsArray() || xc.Type.IsType() || xc.Type.IsString() {
			env.InsertError(diag.New(diag.InvalidOperand, xc.Token, "%s cannot be concatenated", xc.Type))
			known = false
			continue
		}
		twoState = twoState && xc.Type.Is2State()
		w, ok := xc.Type.TotalWidth()
		if !ok {
			known = false
			continue
		}
		n := 1
		if it.Repeat != nil {
			rc := it.Repeat.EvalComptime(env, 0)
			r, ok := rc.ConstValue()
			cnt, isInt := r.ToInteger()
			if !ok || !isInt {
				env.InsertError(diag.New(diag.UnevaluableValue, it.Repeat.Token(), "repeat count must be a constant"))
				known = false
				continue
			}
			n = cnt
		}
		width += w * n
	}
	if !known {
		c.Type = Type{Kind: TypeUnknown}
		return c
	}
	c.Type = typed(twoState, false, width)
	if c.IsConst {
		if v, ok := e.EvalValue(env, 0); ok {
			c.Value = ValueVariant{Kind: ValueNumeric, Numeric: v}
		}
	}
	return c
}

func (e *Concatenation) EvalValue(env Env, _ int) (value.Value, bool) {
	var acc value.Value
	first := true
	for _, it := range e.Items {
		x, ok := it.X.EvalValue(env, 0)
		if !ok || x.Width() == 0 {
			return value.Value{}, false
		}
		n := 1
		if it.Repeat != nil {
			r, ok := it.Repeat.EvalValue(env, 0)
			if !ok {
				return value.Value{}, false
			}
			if n, ok = r.ToInteger(); !ok {
				return value.Value{}, false
			}
		}
		for i := 0; i < n; i++ {
			if first {
				acc, first = x.WithSigned(false), false
			} else {
				acc = acc.Concat(x)
			}
		}
	}
	return acc, !first
}

// ArrayLiteralItem is one entry of an array literal.
type ArrayLiteralItem struct {
	X       Expression
	Repeat  Expression
	Default bool
}

// ArrayLiteral is '{a, b repeat n, default: c}. It only appears on the
// right side of an assignment, where it is expanded per element.
type ArrayLiteral struct {
	Items []ArrayLiteralItem
	Tok   syntax.Token

	comptime *Comptime
}

func (e *ArrayLiteral) String() string {
	parts := make([]string, len(e.Items))
	for i, it := range e.Items {
		switch {
		case it.Default:
			parts[i] = "default: " + it.X.String()
		case it.Repeat != nil:
			parts[i] = it.X.String() + " repeat " + it.Repeat.String()
		default:
			parts[i] = it.X.String()
		}
	}
	return "'{" + strings.Join(parts, ", ") + "}"
}

func (e *ArrayLiteral) Token() syntax.Token { return e.Tok }
func (e *ArrayLiteral) Comptime() *Comptime { return e.comptime }

func (e *ArrayLiteral) EvalComptime(env Env, ctx int) *Comptime {
	c := &Comptime{IsConst: true, IsGlobal: true, Token: e.Tok}
	e.comptime = c
	var elem *Comptime
	for _, it := range e.Items {
		xc := it.X.EvalComptime(env, ctx)
		if it.Repeat != nil {
			it.Repeat.EvalComptime(env, 0)
		}
		c.IsConst = c.IsConst && xc.IsConst
		c.IsGlobal = c.IsGlobal && xc.IsGlobal
		c.ClockDomain = c.ClockDomain.Merge(xc.ClockDomain)
		if elem == nil {
			elem = xc
		}
	}
	if elem == nil {
		c.Type = Type{Kind: TypeUnknown}
		return c
	}
	c.Type = elem.Type
	c.Type.Array = append(Shape{len(e.Items)}, elem.Type.Array...)
	return c
}

func (e *ArrayLiteral) EvalValue(Env, int) (value.Value, bool) { return value.Value{}, false }

// StructField is one member value of a struct constructor.
type StructField struct {
	Name string
	X    Expression
}

// StructConstructor is Type'{a: x, b: y}. Fields are in declaration order.
type StructConstructor struct {
	Type   Type
	Fields []StructField
	Tok    syntax.Token

	comptime *Comptime
}

func (e *StructConstructor) String() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Name + ": " + f.X.String()
	}
	return e.Type.String() + "'{" + strings.Join(parts, ", ") + "}"
}

func (e *StructConstructor) Token() syntax.Token { return e.Tok }
func (e *StructConstructor) Comptime() *Comptime { return e.comptime }

func (e *StructConstructor) EvalComptime(env Env, _ int) *Comptime {
	c := &Comptime{Type: e.Type, IsConst: true, IsGlobal: true, Token: e.Tok}
	e.comptime = c
	for i, f := range e.Fields {
		ctx := 0
		if i < len(e.Type.Members) {
			ctx, _ = e.Type.Members[i].Type.TotalWidth()
		}
		xc := f.X.EvalComptime(env, ctx)
		c.IsConst = c.IsConst && xc.IsConst
		c.IsGlobal = c.IsGlobal && xc.IsGlobal
		c.ClockDomain = c.ClockDomain.Merge(xc.ClockDomain)
	}
	if c.IsConst {
		if v, ok := e.EvalValue(env, 0); ok {
			c.Value = ValueVariant{Kind: ValueNumeric, Numeric: v}
		}
	}
	return c
}

func (e *StructConstructor) EvalValue(env Env, _ int) (value.Value, bool) {
	if len(e.Fields) != len(e.Type.Members) || len(e.Fields) == 0 {
		return value.Value{}, false
	}
	var acc value.Value
	for i, f := range e.Fields {
		w, ok := e.Type.Members[i].Type.TotalWidth()
		if !ok {
			return value.Value{}, false
		}
		x, ok := f.X.EvalValue(env, w)
		if !ok {
			return value.Value{}, false
		}
		x = x.Expand(w, x.Signed()).Trunc(w).WithSigned(false)
		if i == 0 {
			acc = x
		} else {
			acc = acc.Concat(x)
		}
	}
	return acc, true
}

func typed(twoState, signed bool, width int) Type {
	t := NewLogic(width)
	if twoState {
		t.Kind = TypeBit
	}
	t.Signed = signed
	return t
}
