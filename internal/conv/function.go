package conv

import (
	"strconv"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/ir"
	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
)

// funcArg is one declared argument of a converted function. A modport
// argument has one variable per member instead of v.
type funcArg struct {
	name    string
	dir     syntax.Direction
	v       *ir.Variable
	members []groupMember
}

// funcProto is what a call site needs to know about a converted function.
type funcProto struct {
	id   ir.VarID
	sym  *symbol.Symbol
	ret  *ir.Variable
	args []funcArg
}

// function converts sym for one generic instantiation, once per component.
// The prototype is registered before the body so that recursive calls
// resolve.
func (c *Context) function(sym *symbol.Symbol, gm symbol.GenericMap) (*funcProto, error) {
	key := strconv.Itoa(int(sym.ID)) + "|" + gm.Key()
	if p, ok := c.funcs[key]; ok {
		return p, nil
	}
	d := sym.Props.(*symbol.FunctionProps).Decl
	name := gm.Mangled(sym.Name(), c.config.HashedMangledName)

	p := &funcProto{id: c.nextID, sym: sym}
	c.nextID++
	fn := &ir.Function{ID: p.id, Path: ir.VarPath{name}, Token: sym.Token}
	c.body.Functions[p.id] = fn

	err := c.Block(func(c *Context) error {
		saved := c.hier
		c.hier = []string{name}
		defer func() { c.hier = saved }()

		c.ns = sym.Inner()
		if !gm.IsEmpty() {
			c.bindings = append(c.bindings, binding{scope: sym.Inner(), m: gm})
		}
		c.pushAffiliation(ir.AffFunction)
		c.clock, c.hasReset, c.ret = nil, false, nil
		c.pushScope("")

		implicit := ir.ClockDomain{Kind: ir.DomainImplicit}
		for _, a := range d.Args {
			arg := funcArg{name: a.Name.Text, dir: a.Direction}
			if a.Direction == syntax.DirModport {
				mp, err := c.resolvePath(a.Modport)
				if err != nil {
					return err
				}
				if mp.Kind != symbol.KindModport {
					return c.fail(diag.MismatchType, a.Name, "%s is not a modport", a.Modport)
				}
				g := c.modportGroup(ir.VarPath{a.Name.Text}, mp, nil, a.Name)
				arg.members = g.members
				for _, m := range g.members {
					fn.Args = append(fn.Args, m.id)
				}
				p.args = append(p.args, arg)
				continue
			}
			kind, ok := dirKind(a.Direction)
			if !ok {
				return irError("function_argument_direction", a.Name)
			}
			arg.v = c.insertVar(ir.VarPath{a.Name.Text}, kind, c.convType(a.Type), domainOf(a.ClockDomain, implicit), a.Name)
			fn.Args = append(fn.Args, arg.v.ID)
			p.args = append(p.args, arg)
		}
		if d.Ret != nil {
			p.ret = c.insertVar(ir.VarPath{"return"}, ir.VarVariable, c.convType(d.Ret), implicit, d.Name)
			fn.Ret = &p.ret.ID
			c.ret = &ir.AssignDestination{ID: p.ret.ID, Path: p.ret.Path, Comptime: variableComptime(p.ret, d.Name), Token: d.Name}
		}
		c.funcs[key] = p

		body, _, err := c.stmts(d.Body)
		fn.Statements = body
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// call converts a function call expression.
func (c *Context) call(x *syntax.CallExpr) (ir.Factor, error) {
	if x.System != nil {
		return c.systemCall(x)
	}
	tok := x.Callee.Path.First()
	if len(x.Callee.Members) > 0 || x.Callee.Path.IsSystemVerilog() {
		for _, a := range x.Args {
			if _, _, err := c.evalExpr(a.X, 0); err != nil {
				return nil, err
			}
		}
		return ir.NewUnknownFactor(tok), nil
	}

	sym, err := c.resolvePath(x.Callee.Path)
	if err != nil {
		return nil, err
	}
	switch sym.Kind {
	case symbol.KindFunction:
	case symbol.KindModportFunctionMember:
		return ir.NewUnknownFactor(tok), nil
	default:
		return nil, c.fail(diag.CallNonFunction, tok, "%s %s is not a function", sym.Kind, sym.Name())
	}

	last := x.Callee.Path.Segments[len(x.Callee.Path.Segments)-1]
	gm, aerr := c.evaluator(c.ns).GenericMap(sym, last.Args, tok)
	if aerr != nil {
		return nil, c.report(aerr)
	}
	p, err := c.function(sym, gm)
	if err != nil {
		return nil, err
	}

	actual, err := c.bindArgs(p, x, tok)
	if err != nil {
		return nil, err
	}

	rc := ir.Comptime{Type: ir.Type{Kind: ir.TypeUnknown}, Token: tok}
	if p.ret != nil {
		rc.Type = p.ret.Type
	}
	var (
		inputs  []ir.Expression
		outputs []*ir.AssignDestination
	)
	for i, a := range p.args {
		src := actual[i]
		if a.members != nil {
			id := identOf(src)
			if id == nil {
				return nil, c.fail(diag.MismatchType, src.Start(), "argument %s needs an interface", a.name)
			}
			view, ok, err := c.groupView(id)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, c.fail(diag.MismatchType, src.Start(), "argument %s needs an interface", a.name)
			}
			for _, m := range a.members {
				am, ok := view.member(m.name)
				if !ok {
					return nil, c.fail(diag.MismatchType, src.Start(), "argument %s has no member %s", a.name, m.name)
				}
				if m.dir == syntax.DirInput {
					e := c.varTerm(am.id, tok)
					rc.ClockDomain = rc.ClockDomain.Merge(e.Comptime().ClockDomain)
					inputs = append(inputs, e)
				} else {
					outputs = append(outputs, c.varDestination(am.id, tok))
				}
			}
			continue
		}
		if a.dir == syntax.DirInput {
			w, _ := a.v.Type.TotalWidth()
			e, ct, err := c.evalExpr(src, w)
			if err != nil {
				return nil, err
			}
			if !a.v.Type.Compatible(ct.Type) {
				c.InsertError(diag.New(diag.MismatchType, src.Start(), "%s cannot be passed as %s", ct.Type, a.v.Type))
			}
			if !rc.ClockDomain.Compatible(ct.ClockDomain) {
				c.InsertError(diag.New(diag.MismatchClockDomain, src.Start(), "clock domain crossing from %s to %s", ct.ClockDomain, rc.ClockDomain))
			}
			rc.ClockDomain = rc.ClockDomain.Merge(ct.ClockDomain)
			inputs = append(inputs, e)
			continue
		}
		id := identOf(src)
		if id == nil {
			return nil, c.fail(diag.MismatchAssignment, src.Start(), "output argument %s needs a variable", a.name)
		}
		dst, v, err := c.destination(id)
		if err != nil {
			return nil, err
		}
		if !v.Kind.Assignable() {
			return nil, c.fail(diag.MismatchAssignment, src.Start(), "%s %s cannot be assigned", v.Kind, v.Path)
		}
		outputs = append(outputs, dst)
	}
	return ir.NewFunctionCallFactor(p.id, inputs, outputs, rc), nil
}

func identOf(x syntax.Expr) *syntax.IdentExpr {
	if p, ok := x.(*syntax.ParenExpr); ok {
		return identOf(p.X)
	}
	id, _ := x.(*syntax.IdentExpr)
	return id
}

// bindArgs orders the actual arguments of a call by declared argument.
// Arguments are either all positional or all named.
func (c *Context) bindArgs(p *funcProto, x *syntax.CallExpr, tok syntax.Token) ([]syntax.Expr, error) {
	named := 0
	for _, a := range x.Args {
		if a.Name != nil {
			named++
		}
	}
	if named > 0 && named != len(x.Args) {
		return nil, c.fail(diag.MixedFunctionArgument, tok, "positional and named arguments cannot be mixed")
	}
	if len(x.Args) != len(p.args) {
		return nil, c.fail(diag.MismatchFunctionArity, tok, "%s takes %d arguments but %d were given", p.sym.Name(), len(p.args), len(x.Args))
	}
	out := make([]syntax.Expr, len(p.args))
	if named == 0 {
		for i, a := range x.Args {
			out[i] = a.X
		}
		return out, nil
	}
	index := make(map[string]int, len(p.args))
	for i, a := range p.args {
		index[a.name] = i
	}
	for _, a := range x.Args {
		i, ok := index[a.Name.Text]
		if !ok {
			return nil, c.fail(diag.UndefinedIdentifier, *a.Name, "%s has no argument %s", p.sym.Name(), a.Name.Text)
		}
		if out[i] != nil {
			return nil, c.fail(diag.DuplicatedIdentifier, *a.Name, "argument %s is given twice", a.Name.Text)
		}
		out[i] = a.X
	}
	return out, nil
}
