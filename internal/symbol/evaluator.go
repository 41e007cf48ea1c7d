package symbol

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

const maxEvalDepth = 32

// Evaluator computes constant expressions against the symbol table.
// Parameters and consts are followed to their declarations; generic
// parameters are looked up in the bindings, which apply to expressions
// evaluated inside bindScope.
type Evaluator struct {
	sess      *Session
	ns        Namespace
	bindings  map[string]GenericValue
	bindScope Namespace
	cache     *value.MaskCache
	depth     int
}

// NewEvaluator creates an evaluator for expressions written in ns.
func NewEvaluator(sess *Session, ns Namespace) *Evaluator {
	return &Evaluator{sess: sess, ns: ns, cache: value.NewMaskCache()}
}

// In returns a copy evaluating in ns.
func (e *Evaluator) In(ns Namespace) *Evaluator {
	c := *e
	c.ns = ns
	return &c
}

// WithBindings returns a copy where the arguments of m are bound inside
// scope.
func (e *Evaluator) WithBindings(scope Namespace, m GenericMap) *Evaluator {
	c := *e
	c.bindings = m.Args
	c.bindScope = scope
	return &c
}

// Namespace returns the evaluation namespace.
func (e *Evaluator) Namespace() Namespace { return e.ns }

func (e *Evaluator) binding(name string) (GenericValue, bool) {
	if e.bindings == nil || !e.ns.Included(e.bindScope) {
		return GenericValue{}, false
	}
	v, ok := e.bindings[name]
	return v, ok
}

func (e *Evaluator) deeper(ns Namespace) (*Evaluator, bool) {
	if e.depth >= maxEvalDepth {
		return nil, false
	}
	c := e.In(ns)
	c.depth++
	return c, true
}

// EvalInt evaluates x to a non-negative integer.
func (e *Evaluator) EvalInt(x syntax.Expr) (int, bool) {
	v, ok := e.Eval(x)
	if !ok {
		return 0, false
	}
	return v.ToInteger()
}

// Eval evaluates x. ok is false when x is not a compile-time constant.
func (e *Evaluator) Eval(x syntax.Expr) (value.Value, bool) {
	switch x := x.(type) {
	case *syntax.NumberLit:
		v, err := x.Value()
		return v, err == nil
	case *syntax.BoolLit:
		return value.NewBool(x.Val), true
	case *syntax.ParenExpr:
		return e.Eval(x.X)
	case *syntax.UnaryExpr:
		v, ok := e.Eval(x.X)
		if !ok {
			return value.Value{}, false
		}
		return value.EvalUnary(x.Op, v, 0, x.Op.UnarySigned(v.Signed()), e.cache), true
	case *syntax.BinaryExpr:
		xv, ok := e.Eval(x.X)
		if !ok {
			return value.Value{}, false
		}
		yv, ok := e.Eval(x.Y)
		if !ok {
			return value.Value{}, false
		}
		signed := x.Op.BinarySigned(xv.Signed(), yv.Signed())
		return value.EvalBinary(x.Op, xv, yv, 0, signed, e.cache), true
	case *syntax.IfExpr:
		c, ok := e.Eval(x.Cond)
		if !ok || c.IsXZ() {
			return value.Value{}, false
		}
		if !c.IsZero() {
			return e.Eval(x.Then)
		}
		return e.Eval(x.Else)
	case *syntax.ConcatExpr:
		return e.concat(x)
	case *syntax.AsExpr:
		v, ok := e.Eval(x.X)
		if !ok {
			return value.Value{}, false
		}
		if w, ok := e.TypeWidth(x.Type); ok {
			v = v.Resize(w).WithSigned(e.TypeSigned(x.Type))
		}
		return v, true
	case *syntax.IdentExpr:
		return e.ident(x)
	case *syntax.CallExpr:
		if x.System != nil {
			return e.systemCall(x)
		}
	}
	return value.Value{}, false
}

func (e *Evaluator) concat(x *syntax.ConcatExpr) (value.Value, bool) {
	var out value.Value
	first := true
	for _, item := range x.Items {
		v, ok := e.Eval(item.X)
		if !ok || v.Width() == 0 {
			return value.Value{}, false
		}
		n := 1
		if item.Repeat != nil {
			if n, ok = e.EvalInt(item.Repeat); !ok {
				return value.Value{}, false
			}
		}
		for i := 0; i < n; i++ {
			if first {
				out, first = v.WithSigned(false), false
			} else {
				out = out.Concat(v)
			}
		}
	}
	return out, !first
}

func (e *Evaluator) ident(x *syntax.IdentExpr) (value.Value, bool) {
	if len(x.Members) > 0 {
		return value.Value{}, false
	}
	v, ok := e.identValue(x.Path)
	if !ok {
		return value.Value{}, false
	}
	for _, sel := range x.Selects {
		if v, ok = e.selectValue(v, sel); !ok {
			return value.Value{}, false
		}
	}
	return v, true
}

func (e *Evaluator) identValue(path *syntax.ScopedIdent) (value.Value, bool) {
	names := path.Names()
	if len(names) == 1 {
		if b, ok := e.binding(names[0]); ok {
			return b.Value, b.Kind == GenericConst
		}
	}
	res, err := e.sess.Resolve(names, e.ns)
	if err != nil || len(res.Rest) > 0 {
		return value.Value{}, false
	}
	return e.symbolValue(res.Found)
}

func (e *Evaluator) symbolValue(sym *Symbol) (value.Value, bool) {
	switch sym.Kind {
	case KindParameter, KindConst:
		props := sym.Props.(*ValueProps)
		if props.Value == nil {
			return value.Value{}, false
		}
		sub, ok := e.deeper(sym.Namespace)
		if !ok {
			return value.Value{}, false
		}
		v, ok := sub.Eval(props.Value)
		if !ok {
			return value.Value{}, false
		}
		if props.Type != nil {
			if w, ok := sub.TypeWidth(props.Type); ok && w > 0 {
				v = v.Resize(w).WithSigned(sub.TypeSigned(props.Type))
			}
		}
		return v, true
	case KindGenericParameter:
		if b, ok := e.In(sym.Namespace).binding(sym.Name()); ok {
			return b.Value, b.Kind == GenericConst
		}
		p := sym.Props.(*GenericParamProps).Param
		if p.Default != nil && p.Default.Expr != nil {
			if sub, ok := e.deeper(sym.Namespace); ok {
				return sub.Eval(p.Default.Expr)
			}
		}
	case KindEnumMember:
		props := sym.Props.(*EnumMemberProps)
		return props.Value, props.Known
	case KindEnumMemberMangled:
		if m := e.sess.Get(sym.Props.(*MangledProps).Member); m != nil {
			return e.symbolValue(m)
		}
	}
	return value.Value{}, false
}

func (e *Evaluator) selectValue(v value.Value, sel syntax.Select) (value.Value, bool) {
	hi, ok := e.EvalInt(sel.Msb)
	if !ok {
		return value.Value{}, false
	}
	lo := hi
	switch sel.Kind {
	case syntax.SelectColon:
		if lo, ok = e.EvalInt(sel.Lsb); !ok {
			return value.Value{}, false
		}
	case syntax.SelectPlusColon, syntax.SelectMinusColon:
		w, ok := e.EvalInt(sel.Lsb)
		if !ok || w == 0 {
			return value.Value{}, false
		}
		if sel.Kind == syntax.SelectPlusColon {
			lo, hi = hi, hi+w-1
		} else {
			lo = hi - w + 1
		}
	case syntax.SelectStep:
		return value.Value{}, false
	}
	if hi < lo || hi >= v.Width() {
		return value.Value{}, false
	}
	return v.Select(hi, lo), true
}

func (e *Evaluator) systemCall(x *syntax.CallExpr) (value.Value, bool) {
	if len(x.Args) != 1 {
		return value.Value{}, false
	}
	arg := x.Args[0].X
	switch x.System.Text {
	case "$clog2":
		v, ok := e.Eval(arg)
		if !ok {
			return value.Value{}, false
		}
		n, ok := v.ToUint()
		if !ok {
			return value.Value{}, false
		}
		return value.New(uint64(Clog2(n)), 32, false), true
	case "$bits":
		if w, ok := e.exprTypeWidth(arg); ok {
			return value.New(uint64(w), 32, false), true
		}
		v, ok := e.Eval(arg)
		if !ok {
			return value.Value{}, false
		}
		return value.New(uint64(v.Width()), 32, false), true
	case "$signed", "$unsigned":
		v, ok := e.Eval(arg)
		return v.WithSigned(x.System.Text == "$signed"), ok
	}
	return value.Value{}, false
}

// exprTypeWidth handles a type written in expression position.
func (e *Evaluator) exprTypeWidth(x syntax.Expr) (int, bool) {
	switch x := x.(type) {
	case *syntax.TypeValueExpr:
		return e.TypeWidth(x.Type)
	case *syntax.IdentExpr:
		if len(x.Selects) > 0 || len(x.Members) > 0 {
			return 0, false
		}
		return e.namedWidth(x.Path)
	}
	return 0, false
}

// Clog2 returns ceil(log2(n)), with Clog2(0) = Clog2(1) = 0.
func Clog2(n uint64) int {
	if n <= 1 {
		return 0
	}
	return bits.Len64(n - 1)
}

// TypeSigned reports whether t is a signed type.
func (e *Evaluator) TypeSigned(t *syntax.TypeExpr) bool {
	switch t.Kind {
	case syntax.TypeI8, syntax.TypeI16, syntax.TypeI32, syntax.TypeI64:
		return true
	}
	return t.Signed
}

// BaseWidth returns the width of one element of a builtin type keyword.
func BaseWidth(k syntax.TypeKind) (int, bool) {
	switch k {
	case syntax.TypeU8, syntax.TypeI8:
		return 8, true
	case syntax.TypeU16, syntax.TypeI16:
		return 16, true
	case syntax.TypeU32, syntax.TypeI32, syntax.TypeF32:
		return 32, true
	case syntax.TypeU64, syntax.TypeI64, syntax.TypeF64:
		return 64, true
	case syntax.TypeString, syntax.TypeType, syntax.TypeNamed:
		return 0, false
	}
	return 1, true
}

// TypeWidth returns the packed width of t, excluding unpacked array
// dimensions.
func (e *Evaluator) TypeWidth(t *syntax.TypeExpr) (int, bool) {
	base, ok := BaseWidth(t.Kind)
	if t.Kind == syntax.TypeNamed {
		base, ok = e.namedWidth(t.Name)
	}
	if !ok {
		return 0, false
	}
	for _, w := range t.Width {
		n, ok := e.EvalInt(w)
		if !ok {
			return 0, false
		}
		base *= n
	}
	return base, true
}

// Dims evaluates a list of dimension expressions.
func (e *Evaluator) Dims(xs []syntax.Expr) ([]int, bool) {
	out := make([]int, len(xs))
	for i, x := range xs {
		n, ok := e.EvalInt(x)
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

func (e *Evaluator) namedWidth(path *syntax.ScopedIdent) (int, bool) {
	names := path.Names()
	if len(names) == 1 {
		if b, ok := e.binding(names[0]); ok {
			return e.genericWidth(b)
		}
	}
	res, err := e.sess.Resolve(names, e.ns)
	if err != nil || len(res.Rest) > 0 {
		return 0, false
	}
	return e.SymbolWidth(res.Found)
}

func (e *Evaluator) genericWidth(b GenericValue) (int, bool) {
	switch b.Kind {
	case GenericType:
		return e.TypeWidth(b.Type)
	case GenericSymbol:
		if sym := e.sess.Get(b.Symbol); sym != nil {
			return e.SymbolWidth(sym)
		}
	}
	return 0, false
}

// SymbolWidth returns the packed width of a type symbol.
func (e *Evaluator) SymbolWidth(sym *Symbol) (int, bool) {
	sub, ok := e.deeper(sym.Namespace)
	if !ok {
		return 0, false
	}
	switch sym.Kind {
	case KindStruct, KindUnion:
		total := 0
		for _, id := range sym.Props.(*StructProps).Members {
			m := e.sess.Get(id)
			w, ok := sub.In(m.Namespace).TypeWidth(m.Props.(*MemberProps).Type)
			if !ok {
				return 0, false
			}
			if sym.Kind == KindUnion {
				total = max(total, w)
			} else {
				total += w
			}
		}
		return total, true
	case KindEnum:
		w := sym.Props.(*EnumProps).Width
		return w, w > 0
	case KindTypeDef:
		t := sym.Props.(*TypeDefProps).Type
		if t == nil {
			return 0, false
		}
		return sub.TypeWidth(t)
	case KindGenericParameter:
		if b, ok := e.In(sym.Namespace).binding(sym.Name()); ok {
			return e.genericWidth(b)
		}
		p := sym.Props.(*GenericParamProps).Param
		if p.Default != nil && p.Default.Type != nil {
			return sub.TypeWidth(p.Default.Type)
		}
	}
	return 0, false
}

// GenericArg evaluates one generic argument.
func (e *Evaluator) GenericArg(arg syntax.GenericArg) (GenericValue, bool) {
	if arg.Type != nil {
		if arg.Type.Kind == syntax.TypeNamed {
			return e.genericPath(arg.Type.Name)
		}
		text, ok := e.TypeText(arg.Type)
		return GenericValue{Kind: GenericType, Type: arg.Type, Text: text}, ok
	}
	if id, ok := arg.Expr.(*syntax.IdentExpr); ok && len(id.Selects) == 0 && len(id.Members) == 0 {
		if g, ok := e.genericPath(id.Path); ok {
			return g, true
		}
	}
	v, ok := e.Eval(arg.Expr)
	if !ok {
		return GenericValue{}, false
	}
	return ConstValue(v), true
}

func (e *Evaluator) genericPath(path *syntax.ScopedIdent) (GenericValue, bool) {
	names := path.Names()
	if len(names) == 1 {
		if b, ok := e.binding(names[0]); ok {
			return b, true
		}
	}
	res, err := e.sess.Resolve(names, e.ns)
	if err != nil || len(res.Rest) > 0 {
		return GenericValue{}, false
	}
	switch res.Found.Kind {
	case KindModule, KindInterface, KindPackage, KindProtoModule, KindProtoPackage,
		KindStruct, KindUnion, KindEnum, KindTypeDef:
		return GenericValue{
			Kind:   GenericSymbol,
			Symbol: res.Found.ID,
			Path:   names,
			Text:   strings.Join(names, "_"),
		}, true
	case KindGenericParameter:
		if b, ok := e.In(res.Found.Namespace).binding(res.Found.Name()); ok {
			return b, true
		}
		return GenericValue{}, false
	}
	v, ok := e.symbolValue(res.Found)
	if !ok {
		return GenericValue{}, false
	}
	return ConstValue(v), true
}

// TypeText renders a builtin type as it appears in mangled names:
// logic<8> becomes "logic_8".
func (e *Evaluator) TypeText(t *syntax.TypeExpr) (string, bool) {
	var sb strings.Builder
	if t.Signed {
		sb.WriteString("signed_")
	}
	if t.Kind == syntax.TypeNamed {
		sb.WriteString(strings.Join(t.Name.Names(), "_"))
	} else {
		sb.WriteString(t.Tok.Text)
	}
	for _, w := range t.Width {
		n, ok := e.EvalInt(w)
		if !ok {
			return "", false
		}
		sb.WriteString("_")
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String(), true
}

// GenericMap binds args to the generic parameters of sym. Missing trailing
// arguments take their defaults, evaluated inside sym with the earlier
// parameters bound.
func (e *Evaluator) GenericMap(sym *Symbol, args []syntax.GenericArg, tok syntax.Token) (GenericMap, *diag.AnalyzerError) {
	params := sym.GenericParams()
	m := GenericMap{Symbol: sym.ID, Args: make(map[string]GenericValue, len(params))}
	if len(args) > len(params) {
		return m, diag.New(diag.MismatchGenericsArity, tok,
			"%s takes %d generic arguments but %d were given", sym.Name(), len(params), len(args))
	}
	for i, id := range params {
		p := e.sess.Get(id)
		param := p.Props.(*GenericParamProps).Param
		var (
			g  GenericValue
			ok bool
		)
		switch {
		case i < len(args):
			g, ok = e.GenericArg(args[i])
		case param.Default != nil:
			g, ok = e.In(sym.Inner()).WithBindings(sym.Inner(), m).GenericArg(*param.Default)
		default:
			return m, diag.New(diag.MismatchGenericsArity, tok,
				"missing generic argument %s of %s", p.Name(), sym.Name())
		}
		if !ok {
			return m, diag.New(diag.UnevaluableValue, tok,
				"generic argument %s of %s cannot be evaluated", p.Name(), sym.Name())
		}
		if err := e.checkBound(p, g, tok); err != nil {
			return m, err
		}
		m.Names = append(m.Names, p.Name())
		m.Args[p.Name()] = g
	}
	return m, nil
}

func (e *Evaluator) checkBound(p *Symbol, g GenericValue, tok syntax.Token) *diag.AnalyzerError {
	param := p.Props.(*GenericParamProps).Param
	switch param.Bound {
	case syntax.BoundConst:
		if g.Kind != GenericConst {
			return diag.New(diag.MismatchType, tok, "generic parameter %s expects a constant", param.Name.Text)
		}
	case syntax.BoundType:
		if g.Kind == GenericConst {
			return diag.New(diag.MismatchType, tok, "generic parameter %s expects a type", param.Name.Text)
		}
	case syntax.BoundInst, syntax.BoundProto:
		if g.Kind != GenericSymbol {
			return diag.New(diag.MismatchType, tok, "generic parameter %s expects a component", param.Name.Text)
		}
		if param.Proto == nil {
			return nil
		}
		res, err := e.sess.Resolve(param.Proto.Names(), p.Namespace)
		if err != nil {
			return nil
		}
		if msgs := e.sess.CheckProtoBound(res.Found, e.sess.Get(g.Symbol)); len(msgs) > 0 {
			return diag.New(diag.MismatchProto, tok, "%s does not satisfy %s: %s",
				strings.Join(g.Path, "::"), res.Found.Name(), strings.Join(msgs, "; "))
		}
	}
	return nil
}
