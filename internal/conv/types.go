package conv

import (
	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/ir"
	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
)

const maxTypeDepth = 32

var builtinKinds = map[syntax.TypeKind]ir.TypeKind{
	syntax.TypeLogic:          ir.TypeLogic,
	syntax.TypeBit:            ir.TypeBit,
	syntax.TypeClock:          ir.TypeClock,
	syntax.TypeClockPosedge:   ir.TypeClockPosedge,
	syntax.TypeClockNegedge:   ir.TypeClockNegedge,
	syntax.TypeReset:          ir.TypeReset,
	syntax.TypeResetAsyncHigh: ir.TypeResetAsyncHigh,
	syntax.TypeResetAsyncLow:  ir.TypeResetAsyncLow,
	syntax.TypeResetSyncHigh:  ir.TypeResetSyncHigh,
	syntax.TypeResetSyncLow:   ir.TypeResetSyncLow,
	syntax.TypeString:         ir.TypeString,
	syntax.TypeType:           ir.TypeType,
}

// convType converts a type written in the current namespace.
func (c *Context) convType(t *syntax.TypeExpr) ir.Type {
	return c.typeIn(t, c.ns, 0)
}

// typeIn converts a type written in ns. Dimensions inside the component
// are evaluated with the component's parameter values; dimensions written
// elsewhere go through the symbol evaluator.
func (c *Context) typeIn(t *syntax.TypeExpr, ns symbol.Namespace, depth int) ir.Type {
	if t == nil {
		return ir.Type{Kind: ir.TypeUnknown}
	}
	if depth > maxTypeDepth {
		c.InsertError(diag.New(diag.UnevaluableValue, t.Tok, "type %s is nested too deeply", t.Tok.Text))
		return ir.Type{Kind: ir.TypeUnknown}
	}

	var out ir.Type
	switch t.Kind {
	case syntax.TypeNamed:
		out = c.namedType(t.Name, ns, depth+1)
	case syntax.TypeBool:
		out = ir.NewBit(1)
	default:
		if k, ok := builtinKinds[t.Kind]; ok {
			out = ir.Type{Kind: k}
		} else {
			w, _ := symbol.BaseWidth(t.Kind)
			out = ir.NewBit(w)
		}
	}
	if out.Kind == ir.TypeUnknown && t.Kind == syntax.TypeNamed {
		return out
	}

	if len(t.Width) > 0 {
		dims := c.dimsIn(t.Width, ns)
		out.Width = append(dims, out.Width...)
	}
	if t.Signed || t.Kind == syntax.TypeI8 || t.Kind == syntax.TypeI16 || t.Kind == syntax.TypeI32 || t.Kind == syntax.TypeI64 {
		out.Signed = true
	}
	if len(t.Array) > 0 {
		out.Array = append(c.dimsIn(t.Array, ns), out.Array...)
	}
	return out
}

func (c *Context) dimsIn(xs []syntax.Expr, ns symbol.Namespace) ir.Shape {
	out := make(ir.Shape, len(xs))
	for i, x := range xs {
		n, ok := c.dimIn(x, ns)
		if !ok {
			c.InsertError(diag.New(diag.UnevaluableValue, x.Start(), "dimension must be a constant"))
			out[i] = ir.Unknown
			continue
		}
		out[i] = n
	}
	return out
}

func (c *Context) dimIn(x syntax.Expr, ns symbol.Namespace) (int, bool) {
	if ns.Included(c.compNS) {
		saved := c.ns
		c.ns = ns
		v, ok, err := c.constValue(x)
		c.ns = saved
		if err != nil || !ok {
			return 0, false
		}
		return v.ToInteger()
	}
	return c.evaluator(ns).EvalInt(x)
}

// namedType converts a type name.
func (c *Context) namedType(path *syntax.ScopedIdent, ns symbol.Namespace, depth int) ir.Type {
	if path.IsSystemVerilog() {
		return ir.Type{Kind: ir.TypeSystemVerilog}
	}
	if len(path.Segments) == 1 && len(path.Segments[0].Args) == 0 && ns.Included(c.compNS) {
		if e, ok := c.findPath(ir.VarPath{path.First().Text}); ok && e.c.Value.Kind == ir.ValueType {
			return e.c.Value.Type
		}
	}
	saved := c.ns
	c.ns = ns
	sym, err := c.resolvePath(path)
	c.ns = saved
	if err != nil {
		return ir.Type{Kind: ir.TypeUnknown}
	}
	return c.symbolType(sym, depth)
}

// symbolType converts a type symbol.
func (c *Context) symbolType(sym *symbol.Symbol, depth int) ir.Type {
	if depth > maxTypeDepth {
		return ir.Type{Kind: ir.TypeUnknown}
	}
	switch sym.Kind {
	case symbol.KindStruct, symbol.KindUnion:
		props := sym.Props.(*symbol.StructProps)
		t := ir.Type{Kind: ir.TypeStruct, Name: sym.Name()}
		if sym.Kind == symbol.KindUnion {
			t.Kind = ir.TypeUnion
		}
		for _, id := range props.Members {
			m := c.sess.Get(id)
			mt := c.typeIn(m.Props.(*symbol.MemberProps).Type, m.Namespace, depth+1)
			t.Members = append(t.Members, ir.Member{Name: m.Name(), Type: mt})
		}
		return t
	case symbol.KindEnum:
		props := sym.Props.(*symbol.EnumProps)
		return ir.Type{Kind: ir.TypeEnum, Name: sym.Name(), EnumWidth: props.Width}
	case symbol.KindTypeDef:
		return c.typeIn(sym.Props.(*symbol.TypeDefProps).Type, sym.Namespace, depth+1)
	case symbol.KindGenericParameter:
		if g, ok := c.genericFor(sym); ok {
			return c.genericType(g, depth)
		}
		p := sym.Props.(*symbol.GenericParamProps).Param
		if p.Default != nil && p.Default.Type != nil {
			return c.typeIn(p.Default.Type, sym.Namespace, depth+1)
		}
	case symbol.KindInterface:
		return ir.Type{Kind: ir.TypeInterface, Name: sym.Name()}
	case symbol.KindModport:
		return ir.Type{Kind: ir.TypeModport, Name: sym.Namespace[len(sym.Namespace)-1] + "::" + sym.Name()}
	case symbol.KindSystemVerilog:
		return ir.Type{Kind: ir.TypeSystemVerilog}
	}
	return ir.Type{Kind: ir.TypeUnknown}
}

func (c *Context) genericType(g symbol.GenericValue, depth int) ir.Type {
	switch g.Kind {
	case symbol.GenericType:
		return c.typeIn(g.Type, c.sess.Root(), depth+1)
	case symbol.GenericSymbol:
		if sym := c.sess.Get(g.Symbol); sym != nil {
			return c.symbolType(sym, depth+1)
		}
	}
	return ir.Type{Kind: ir.TypeUnknown}
}

// genericFor returns the argument bound to a generic parameter symbol.
func (c *Context) genericFor(sym *symbol.Symbol) (symbol.GenericValue, bool) {
	for i := len(c.bindings) - 1; i >= 0; i-- {
		b := c.bindings[i]
		if !b.scope.Matched(sym.Namespace) {
			continue
		}
		if g, ok := b.m.Get(sym.Name()); ok {
			return g, true
		}
	}
	return symbol.GenericValue{}, false
}

// resolvePath resolves a path in the current namespace, substituting the
// symbol bound to a generic parameter when the path continues past it.
func (c *Context) resolvePath(path *syntax.ScopedIdent) (*symbol.Symbol, error) {
	names := path.Names()
	res, err := c.sess.Resolve(names, c.ns)
	if err != nil {
		return nil, c.fail(diag.UndefinedIdentifier, path.First(), "%s", err.Error())
	}
	sym := res.Found
	if len(res.Rest) == 0 {
		if sym.Kind == symbol.KindGenericParameter {
			if g, ok := c.genericFor(sym); ok && g.Kind == symbol.GenericSymbol {
				if bound := c.sess.Get(g.Symbol); bound != nil {
					return bound, nil
				}
			}
		}
		return sym, nil
	}
	if sym.Kind != symbol.KindGenericParameter {
		return nil, c.fail(diag.UndefinedIdentifier, path.Last(), "%s cannot be resolved before elaboration", path)
	}
	g, ok := c.genericFor(sym)
	if !ok || g.Kind != symbol.GenericSymbol {
		return nil, c.fail(diag.UndefinedIdentifier, path.Last(), "%s is not bound to a component", sym.Name())
	}
	cur := c.sess.Get(g.Symbol)
	for _, name := range res.Rest {
		next, ok := c.sess.Lookup(cur.Inner(), name)
		if !ok {
			return nil, c.fail(diag.UndefinedIdentifier, path.Last(), "%s is undefined in %s", name, cur.Name())
		}
		cur = next
	}
	return cur, nil
}

// domainOf returns the clock domain of a declaration, falling back to def
// when it carries no annotation.
func domainOf(tok *syntax.Token, def ir.ClockDomain) ir.ClockDomain {
	if tok == nil {
		return def
	}
	return ir.Explicit(tok.Text)
}
