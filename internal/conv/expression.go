package conv

import (
	"strconv"
	"strings"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/ir"
	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

// evalExpr converts x, types it in a context of ctx bits and folds the
// constant subtrees.
func (c *Context) evalExpr(x syntax.Expr, ctx int) (ir.Expression, *ir.Comptime, error) {
	e, err := c.expr(x)
	if err != nil {
		return nil, nil, err
	}
	ct := e.EvalComptime(c, ctx)
	return ir.Fold(e), ct, nil
}

// constValue evaluates x as a constant. ok is false when x converts but is
// not constant.
func (c *Context) constValue(x syntax.Expr) (value.Value, bool, error) {
	_, ct, err := c.evalExpr(x, 0)
	if err != nil {
		return value.Value{}, false, err
	}
	v, ok := ct.ConstValue()
	if !ok || v.IsXZ() {
		return value.Value{}, false, nil
	}
	return v, true, nil
}

func intTerm(n int, tok syntax.Token) *ir.Term {
	return ir.NewTerm(value.New(uint64(n), 32, false), tok)
}

func valueTerm(ct ir.Comptime) *ir.Term {
	return &ir.Term{Factor: ir.NewValueFactor(ct)}
}

// expr converts an expression without typing it.
func (c *Context) expr(x syntax.Expr) (ir.Expression, error) {
	switch x := x.(type) {
	case *syntax.NumberLit:
		v, err := x.Value()
		if err != nil {
			return nil, c.fail(diag.InvalidNumber, x.Tok, "%s", err.Error())
		}
		return valueTerm(ir.NewValue(v, x.Tok)), nil
	case *syntax.BoolLit:
		return valueTerm(ir.NewValue(value.NewBool(x.Val), x.Tok)), nil
	case *syntax.StringLit:
		text, err := strconv.Unquote(x.Tok.Text)
		if err != nil {
			text = strings.Trim(x.Tok.Text, `"`)
		}
		return valueTerm(ir.Comptime{
			Value:    ir.ValueVariant{Kind: ir.ValueString, Text: text},
			Type:     ir.Type{Kind: ir.TypeString},
			IsConst:  true,
			IsGlobal: true,
			Token:    x.Tok,
		}), nil
	case *syntax.IdentExpr:
		return c.identExpr(x)
	case *syntax.ParenExpr:
		return c.expr(x.X)
	case *syntax.UnaryExpr:
		operand, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		return &ir.Unary{Op: x.Op, X: operand, Tok: x.Tok}, nil
	case *syntax.BinaryExpr:
		return c.binary(x)
	case *syntax.IfExpr:
		return c.ifExpr(x)
	case *syntax.CaseExpr:
		return c.caseExpr(x)
	case *syntax.SwitchExpr:
		return c.switchExpr(x)
	case *syntax.InsideExpr:
		return c.insideExpr(x)
	case *syntax.ConcatExpr:
		out := &ir.Concatenation{Tok: x.Tok}
		for _, it := range x.Items {
			item, err := c.expr(it.X)
			if err != nil {
				return nil, err
			}
			ci := ir.ConcatItem{X: item}
			if it.Repeat != nil {
				if ci.Repeat, err = c.expr(it.Repeat); err != nil {
					return nil, err
				}
			}
			out.Items = append(out.Items, ci)
		}
		return out, nil
	case *syntax.ArrayLitExpr:
		out := &ir.ArrayLiteral{Tok: x.Tok}
		for _, it := range x.Items {
			item, err := c.expr(it.X)
			if err != nil {
				return nil, err
			}
			ai := ir.ArrayLiteralItem{X: item, Default: it.Default}
			if it.Repeat != nil {
				if ai.Repeat, err = c.expr(it.Repeat); err != nil {
					return nil, err
				}
			}
			out.Items = append(out.Items, ai)
		}
		return out, nil
	case *syntax.StructLitExpr:
		return c.structLit(x)
	case *syntax.CallExpr:
		f, err := c.call(x)
		if err != nil {
			return nil, err
		}
		return &ir.Term{Factor: f}, nil
	case *syntax.AsExpr:
		operand, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		t := c.convType(x.Type)
		return &ir.Binary{X: operand, Op: value.As, Y: valueTerm(ir.NewTypeValue(t, x.Type.Tok)), Tok: x.Tok}, nil
	case *syntax.TypeValueExpr:
		return valueTerm(ir.NewTypeValue(c.convType(x.Type), x.Type.Tok)), nil
	case *syntax.MsbExpr:
		if len(c.msb) == 0 {
			return nil, c.fail(diag.InvalidSelect, x.Tok, "msb can only be used inside a select")
		}
		return intTerm(max(c.msb[len(c.msb)-1]-1, 0), x.Tok), nil
	case *syntax.LsbExpr:
		return intTerm(0, x.Tok), nil
	}
	return nil, irError("expression", x.Start())
}

// binary converts x op y. Subtraction becomes the addition of the negated
// right operand.
func (c *Context) binary(x *syntax.BinaryExpr) (ir.Expression, error) {
	lhs, err := c.expr(x.X)
	if err != nil {
		return nil, err
	}
	rhs, err := c.expr(x.Y)
	if err != nil {
		return nil, err
	}
	if x.Op == value.Sub {
		return &ir.Binary{X: lhs, Op: value.Add, Y: &ir.Unary{Op: value.Sub, X: rhs, Tok: x.Tok}, Tok: x.Tok}, nil
	}
	return &ir.Binary{X: lhs, Op: x.Op, Y: rhs, Tok: x.Tok}, nil
}

func (c *Context) ifExpr(x *syntax.IfExpr) (ir.Expression, error) {
	for _, inner := range []syntax.Expr{x.Cond, x.Then} {
		if nested, ok := inner.(*syntax.IfExpr); ok {
			return nil, c.fail(diag.UnenclosedInnerIfExpression, nested.Tok, "inner if expression must be enclosed in parentheses")
		}
	}
	cond, err := c.expr(x.Cond)
	if err != nil {
		return nil, err
	}
	then, err := c.expr(x.Then)
	if err != nil {
		return nil, err
	}
	els, err := c.expr(x.Else)
	if err != nil {
		return nil, err
	}
	return &ir.Ternary{Cond: cond, Then: then, Else: els, Tok: x.Tok}, nil
}

// matchRange builds the condition that subject matches one range item.
func (c *Context) matchRange(subject syntax.Expr, r syntax.RangeItem, tok syntax.Token) (ir.Expression, error) {
	s, err := c.expr(subject)
	if err != nil {
		return nil, err
	}
	lo, err := c.expr(r.Lo)
	if err != nil {
		return nil, err
	}
	if !r.IsRange() {
		return &ir.Binary{X: s, Op: value.EqWildcard, Y: lo, Tok: tok}, nil
	}
	hi, err := c.expr(r.Hi)
	if err != nil {
		return nil, err
	}
	upper := value.Less
	if r.Inclusive {
		upper = value.LessEq
	}
	s2, err := c.expr(subject)
	if err != nil {
		return nil, err
	}
	return &ir.Binary{
		X:   &ir.Binary{X: lo, Op: value.LessEq, Y: s, Tok: tok},
		Op:  value.LogicAnd,
		Y:   &ir.Binary{X: s2, Op: upper, Y: hi, Tok: tok},
		Tok: tok,
	}, nil
}

func orChain(conds []ir.Expression, tok syntax.Token) ir.Expression {
	acc := conds[0]
	for _, x := range conds[1:] {
		acc = &ir.Binary{X: acc, Op: value.LogicOr, Y: x, Tok: tok}
	}
	return acc
}

func (c *Context) rangeConds(subject syntax.Expr, items []syntax.RangeItem, tok syntax.Token) (ir.Expression, error) {
	conds := make([]ir.Expression, 0, len(items))
	for _, r := range items {
		m, err := c.matchRange(subject, r, tok)
		if err != nil {
			return nil, err
		}
		conds = append(conds, m)
	}
	if len(conds) == 0 {
		return valueTerm(ir.NewValue(value.NewBool(false), tok)), nil
	}
	return orChain(conds, tok), nil
}

func (c *Context) caseExpr(x *syntax.CaseExpr) (ir.Expression, error) {
	if x.Default == nil {
		return nil, c.fail(diag.MismatchType, x.Tok, "case expression needs a default arm")
	}
	acc, err := c.expr(x.Default)
	if err != nil {
		return nil, err
	}
	for i := len(x.Items) - 1; i >= 0; i-- {
		it := x.Items[i]
		cond, err := c.rangeConds(x.Subject, it.Conds, x.Tok)
		if err != nil {
			return nil, err
		}
		v, err := c.expr(it.Value)
		if err != nil {
			return nil, err
		}
		acc = &ir.Ternary{Cond: cond, Then: v, Else: acc, Tok: x.Tok}
	}
	return acc, nil
}

func (c *Context) switchExpr(x *syntax.SwitchExpr) (ir.Expression, error) {
	if x.Default == nil {
		return nil, c.fail(diag.MismatchType, x.Tok, "switch expression needs a default arm")
	}
	acc, err := c.expr(x.Default)
	if err != nil {
		return nil, err
	}
	for i := len(x.Items) - 1; i >= 0; i-- {
		it := x.Items[i]
		conds := make([]ir.Expression, 0, len(it.Conds))
		for _, cx := range it.Conds {
			cond, err := c.expr(cx)
			if err != nil {
				return nil, err
			}
			conds = append(conds, cond)
		}
		v, err := c.expr(it.Value)
		if err != nil {
			return nil, err
		}
		acc = &ir.Ternary{Cond: orChain(conds, x.Tok), Then: v, Else: acc, Tok: x.Tok}
	}
	return acc, nil
}

func (c *Context) insideExpr(x *syntax.InsideExpr) (ir.Expression, error) {
	cond, err := c.rangeConds(x.Subject, x.Items, x.Tok)
	if err != nil {
		return nil, err
	}
	if x.Outside {
		return &ir.Unary{Op: value.LogicNot, X: cond, Tok: x.Tok}, nil
	}
	return cond, nil
}

// structLit converts Type'{...} to a constructor listing every member in
// declaration order.
func (c *Context) structLit(x *syntax.StructLitExpr) (ir.Expression, error) {
	sym, err := c.resolvePath(x.Type)
	if err != nil {
		return nil, err
	}
	t := c.symbolType(sym, 0)
	if !t.IsStruct() {
		return nil, c.fail(diag.MismatchType, x.Type.First(), "%s is not a struct", x.Type)
	}
	given := make(map[string]syntax.Expr, len(x.Items))
	for _, it := range x.Items {
		given[it.Name.Text] = it.Value
	}
	out := &ir.StructConstructor{Type: t, Tok: x.Type.First()}
	for _, m := range t.Members {
		src, ok := given[m.Name]
		if !ok {
			src = x.Default
		}
		if src == nil {
			return nil, c.fail(diag.MismatchType, x.Type.First(), "member %s of %s is not initialized", m.Name, x.Type)
		}
		delete(given, m.Name)
		v, err := c.expr(src)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, ir.StructField{Name: m.Name, X: v})
	}
	for _, it := range x.Items {
		if _, extra := given[it.Name.Text]; extra {
			return nil, c.fail(diag.UndefinedIdentifier, it.Name, "%s has no member %s", x.Type, it.Name.Text)
		}
	}
	return out, nil
}

// systemCall converts $name(args). $clog2, $bits and $size fold to
// constants when their argument allows it.
func (c *Context) systemCall(x *syntax.CallExpr) (ir.Factor, error) {
	tok := *x.System
	name := tok.Text
	u32 := ir.NewBit(32)

	switch name {
	case "$clog2", "$bits", "$size", "$signed", "$unsigned":
		if len(x.Args) != 1 {
			return nil, c.fail(diag.MismatchFunctionArity, tok, "%s takes 1 argument but %d were given", name, len(x.Args))
		}
	}

	switch name {
	case "$clog2":
		arg, ct, err := c.evalExpr(x.Args[0].X, 0)
		if err != nil {
			return nil, err
		}
		if v, ok := ct.ConstValue(); ok {
			if n, ok := v.ToUint(); ok {
				return ir.NewValueFactor(ir.NewValue(value.New(uint64(symbol.Clog2(n)), 32, false), tok)), nil
			}
		}
		rc := ir.Comptime{Type: u32, ClockDomain: ct.ClockDomain, Token: tok}
		return ir.NewSystemFunctionCallFactor(name, []ir.Expression{arg}, rc), nil
	case "$bits", "$size":
		t, err := c.argType(x.Args[0].X)
		if err != nil {
			return nil, err
		}
		var n int
		var ok bool
		if name == "$bits" {
			var w, a int
			w, ok = t.TotalWidth()
			if ok {
				a, ok = t.TotalArray()
				n = w * a
			}
		} else {
			switch {
			case t.IsArray():
				n, ok = t.Array[0], t.Array[0] != ir.Unknown
			case len(t.Width) > 0:
				n, ok = t.Width[0], t.Width[0] != ir.Unknown
			default:
				n, ok = t.TotalWidth()
			}
		}
		if !ok {
			return nil, c.fail(diag.UnevaluableValue, tok, "%s of %s cannot be evaluated", name, t)
		}
		return ir.NewValueFactor(ir.NewValue(value.New(uint64(n), 32, false), tok)), nil
	case "$signed", "$unsigned":
		arg, ct, err := c.evalExpr(x.Args[0].X, 0)
		if err != nil {
			return nil, err
		}
		rc := *ct
		rc.Token = tok
		rc.Type.Signed = name == "$signed"
		if v, ok := rc.Numeric(); ok {
			rc.Value.Numeric = v.WithSigned(rc.Type.Signed)
		}
		return ir.NewSystemFunctionCallFactor(name, []ir.Expression{arg}, rc), nil
	}

	args := make([]ir.Expression, 0, len(x.Args))
	for _, a := range x.Args {
		arg, _, err := c.evalExpr(a.X, 0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return ir.NewSystemFunctionCallFactor(name, args, ir.NewUnknown(tok)), nil
}

// argType returns the type named or carried by a $bits or $size argument.
func (c *Context) argType(x syntax.Expr) (ir.Type, error) {
	if tv, ok := x.(*syntax.TypeValueExpr); ok {
		return c.convType(tv.Type), nil
	}
	_, ct, err := c.evalExpr(x, 0)
	if err != nil {
		return ir.Type{}, err
	}
	if ct.Value.Kind == ir.ValueType {
		return ct.Value.Type, nil
	}
	return ct.Type, nil
}
