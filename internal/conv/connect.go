package conv

import (
	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/ir"
	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
)

// groupMember is one variable of an interface instance or modport port.
type groupMember struct {
	name string
	dir  syntax.Direction
	id   ir.VarID
}

// group is an interface instance or a modport port. Each member is a
// variable of its own and connections are made member by member.
type group struct {
	iface   *symbol.Symbol
	modport *symbol.Symbol
	members []groupMember
}

func (g *group) member(name string) (groupMember, bool) {
	for _, m := range g.members {
		if m.name == name {
			return m, true
		}
	}
	return groupMember{}, false
}

// groupView is a group seen through one modport.
type groupView struct {
	g       *group
	members []groupMember
}

func (v *groupView) member(name string) (groupMember, bool) {
	for _, m := range v.members {
		if m.name == name {
			return m, true
		}
	}
	return groupMember{}, false
}

func dirKind(d syntax.Direction) (ir.VarKind, bool) {
	switch d {
	case syntax.DirInput:
		return ir.VarInput, true
	case syntax.DirOutput:
		return ir.VarOutput, true
	case syntax.DirInout:
		return ir.VarInout, true
	}
	return 0, false
}

func drives(d syntax.Direction) bool { return d == syntax.DirOutput || d == syntax.DirInout }

// ifaceOf returns the interface a modport belongs to.
func (c *Context) ifaceOf(mp *symbol.Symbol) *symbol.Symbol {
	ns := mp.Namespace
	sym, _ := c.sess.Lookup(ns.Pop(), ns[len(ns)-1])
	return sym
}

// modportGroup declares one variable per member of mp under path and binds
// path to the group.
func (c *Context) modportGroup(path ir.VarPath, mp *symbol.Symbol, array ir.Shape, tok syntax.Token) *group {
	g := &group{iface: c.ifaceOf(mp), modport: mp}
	for _, m := range c.sess.ModportMembers(mp) {
		kind, ok := dirKind(m.Direction)
		if !ok {
			continue
		}
		vs, ok := c.sess.Lookup(mp.Namespace, m.Name)
		if !ok || (vs.Kind != symbol.KindVariable && vs.Kind != symbol.KindLet) {
			continue
		}
		props := vs.Props.(*symbol.VariableProps)
		t := c.typeIn(props.Type, vs.Namespace, 0)
		if len(array) > 0 {
			t.Array = append(append(ir.Shape(nil), array...), t.Array...)
		}
		domain := domainOf(props.ClockDomain, ir.ClockDomain{Kind: ir.DomainImplicit})
		v := c.insertVar(path.Push(m.Name), kind, t, domain, tok)
		g.members = append(g.members, groupMember{name: m.Name, dir: m.Direction, id: v.ID})
	}
	c.bind(path, varEntry{kind: entryGroup, group: g})
	return g
}

// groupView resolves x to a modport port, or to an interface instance
// viewed through one of its modports.
func (c *Context) groupView(x *syntax.IdentExpr) (*groupView, bool, error) {
	if len(x.Path.Segments) != 1 || len(x.Path.Segments[0].Args) > 0 {
		return nil, false, nil
	}
	e, ok := c.findPath(ir.VarPath{x.Path.First().Text})
	if !ok || e.kind != entryGroup {
		return nil, false, nil
	}
	if len(x.Selects) > 0 {
		return nil, false, irError("interface_array_select", x.Path.First())
	}
	g := e.group
	switch {
	case len(x.Members) == 0:
		if g.modport == nil {
			return nil, false, c.fail(diag.MismatchType, x.Path.First(), "interface instance %s needs a modport to connect", x.Path.First().Text)
		}
		return &groupView{g: g, members: g.members}, true, nil
	case len(x.Members) == 1 && g.modport == nil:
		name := x.Members[0].Name
		mp, ok := c.sess.Lookup(g.iface.Inner(), name.Text)
		if !ok || mp.Kind != symbol.KindModport {
			// A plain member access.
			return nil, false, nil
		}
		v := &groupView{g: g}
		for _, m := range c.sess.ModportMembers(mp) {
			if _, ok := dirKind(m.Direction); !ok {
				continue
			}
			if gm, ok := g.member(m.Name); ok {
				v.members = append(v.members, groupMember{name: m.Name, dir: m.Direction, id: gm.id})
			}
		}
		return v, true, nil
	}
	return nil, false, nil
}

// varTerm reads a whole variable.
func (c *Context) varTerm(id ir.VarID, tok syntax.Token) ir.Expression {
	v := c.body.Variables[id]
	e := &ir.Term{Factor: ir.NewVariableFactor(id, nil, nil, variableComptime(v, tok))}
	e.EvalComptime(c, 0)
	return e
}

// varDestination drives a whole variable.
func (c *Context) varDestination(id ir.VarID, tok syntax.Token) *ir.AssignDestination {
	v := c.body.Variables[id]
	return &ir.AssignDestination{ID: id, Path: v.Path, Comptime: variableComptime(v, tok), Token: tok}
}

func (c *Context) memberAssign(dst, src ir.VarID, tok syntax.Token) ir.Statement {
	d := c.varDestination(dst, tok)
	s := c.varTerm(src, tok)
	c.checkDomain(d.Comptime.ClockDomain, s.Comptime().ClockDomain, tok)
	return &ir.AssignStatement{Dst: []*ir.AssignDestination{d}, Expr: s, Tok: tok}
}

// connect expands lhs <> rhs. Members are paired by name: an output on
// the left is driven by an input on the right and the other way around.
// Inout pairs carry no assignment.
// A constant right side drives every output and inout member of the
// left side's modport.
func (c *Context) connect(lhs *syntax.IdentExpr, rhs syntax.Expr, tok syntax.Token) ([]ir.Statement, error) {
	lv, ok, err := c.groupView(lhs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, c.fail(diag.MismatchType, lhs.Path.First(), "%s is not an interface or modport", lhs.Path)
	}

	var out []ir.Statement
	if ri, isIdent := rhs.(*syntax.IdentExpr); isIdent {
		rv, ok, err := c.groupView(ri)
		if err != nil {
			return nil, err
		}
		if ok {
			for _, lm := range lv.members {
				rm, ok := rv.member(lm.name)
				if !ok {
					continue
				}
				switch {
				case drives(lm.dir) && rm.dir == syntax.DirInput:
					out = append(out, c.memberAssign(lm.id, rm.id, tok))
				case lm.dir == syntax.DirInput && drives(rm.dir):
					out = append(out, c.memberAssign(rm.id, lm.id, tok))
				case lm.dir == syntax.DirInout && rm.dir == syntax.DirInout:
					// Bidirectional, joined by the emitter.
				default:
					c.InsertError(diag.New(diag.MismatchConnectDirection, tok,
						"%s is %s on the left side and %s on the right side", lm.name, lm.dir, rm.dir))
				}
			}
			return out, nil
		}
	}

	v, ok, err := c.constValue(rhs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, c.fail(diag.UnevaluableValue, rhs.Start(), "right side of <> must be an interface or a constant")
	}
	for _, m := range lv.members {
		if !drives(m.dir) {
			continue
		}
		d := c.varDestination(m.id, tok)
		src := ir.NewTerm(v.Resize(max(d.Comptime.Width(), 1)), tok)
		out = append(out, &ir.AssignStatement{Dst: []*ir.AssignDestination{d}, Expr: src, Tok: tok})
	}
	return out, nil
}
