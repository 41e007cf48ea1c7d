package conv

import (
	"fmt"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/ir"
	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

// component converts the symbol of the context into a module or interface.
func (c *Context) component() (ir.Component, error) {
	switch p := c.sym.Props.(type) {
	case *symbol.ModuleProps:
		if p.DefaultClock != 0 {
			c.defaultClock = c.sess.Get(p.DefaultClock).Name()
		}
		if p.DefaultReset != 0 {
			c.defaultReset = c.sess.Get(p.DefaultReset).Name()
		}
		for _, id := range p.Params {
			c.insertIrError(c.paramSym(c.sess.Get(id)))
		}
		for _, id := range p.Ports {
			c.insertIrError(c.port(c.sess.Get(id)))
		}
		if !p.Decl.Proto {
			c.decls(p.Decl.Body)
		}
		return &ir.Module{Body: *c.body}, nil
	case *symbol.InterfaceProps:
		c.pushAffiliation(ir.AffInterface)
		for _, id := range p.Params {
			c.insertIrError(c.paramSym(c.sess.Get(id)))
		}
		c.decls(p.Decl.Body)
		return &ir.Interface{Body: *c.body}, nil
	}
	return nil, irError("component", c.sym.Token)
}

func (c *Context) paramSym(sym *symbol.Symbol) error {
	props := sym.Props.(*symbol.ValueProps)
	kind := ir.VarParam
	if !props.Overridable {
		kind = ir.VarConst
	}
	return c.param(sym.Token, props.Type, props.Value, kind, props.Overridable)
}

// param declares a parameter or constant. An overridable parameter takes
// the value given by the instance when there is one.
func (c *Context) param(name syntax.Token, typ *syntax.TypeExpr, x syntax.Expr, kind ir.VarKind, overridable bool) error {
	path := ir.VarPath{name.Text}
	if typ != nil && typ.Kind == syntax.TypeType {
		if x == nil {
			c.bind(path, varEntry{kind: entryOpaque, c: ir.NewUnknown(name)})
			return nil
		}
		_, ct, err := c.evalExpr(x, 0)
		if err != nil {
			return err
		}
		c.bind(path, varEntry{kind: entryConst, c: *ct})
		return nil
	}

	t := c.convType(typ)
	if ov, ok := c.overrides[name.Text]; ok && overridable {
		if typ == nil {
			t = ir.NewBit(max(ov.Value.Width(), 1))
			t.Signed = ov.Value.Signed()
		}
		v := c.insertVar(path, kind, t, ir.ClockDomain{}, name)
		e := varEntry{kind: entryVar, id: v.ID}
		if ov.Known {
			v.SetValue(0, ov.Value)
			e.c = variableComptime(v, name)
		} else {
			e.c = variableComptime(v, name)
			e.c.IsConst = false
			e.c.Value = ir.ValueVariant{}
		}
		c.bind(path, e)
		return nil
	}
	if x == nil {
		return c.fail(diag.MissingDefaultArgument, name, "parameter %s has no value", name.Text)
	}

	if lit, ok := x.(*syntax.ArrayLitExpr); ok {
		vals, err := c.arrayValues(t, lit)
		if err != nil {
			return err
		}
		v := c.insertVar(path, kind, t, ir.ClockDomain{}, name)
		for i, x := range vals {
			v.SetValue(i, x)
		}
		c.bind(path, varEntry{kind: entryVar, id: v.ID, c: variableComptime(v, name)})
		return nil
	}

	w, _ := t.TotalWidth()
	if typ == nil {
		w = 0
	}
	_, ct, err := c.evalExpr(x, w)
	if err != nil {
		return err
	}
	if ct.Value.Kind == ir.ValueType {
		c.bind(path, varEntry{kind: entryConst, c: *ct})
		return nil
	}
	val, ok := ct.ConstValue()
	if !ok {
		return c.fail(diag.UnevaluableValue, x.Start(), "value of %s must be a constant", name.Text)
	}
	if typ == nil {
		t = ct.Type
		if t.IsUnknown() {
			t = ir.NewBit(max(val.Width(), 1))
			t.Signed = val.Signed()
		}
	}
	v := c.insertVar(path, kind, t, ir.ClockDomain{}, name)
	v.SetValue(0, val)
	c.bind(path, varEntry{kind: entryVar, id: v.ID, c: variableComptime(v, name)})
	return nil
}

// port declares a port of the component.
func (c *Context) port(sym *symbol.Symbol) error {
	pd := sym.Props.(*symbol.PortProps).Decl
	path := ir.VarPath{pd.Name.Text}
	switch pd.Direction {
	case syntax.DirModport:
		mp, err := c.resolvePath(pd.Modport)
		if err != nil {
			return err
		}
		if mp.Kind != symbol.KindModport {
			return c.fail(diag.MismatchType, pd.Name, "%s is not a modport", pd.Modport)
		}
		g := c.modportGroup(path, mp, c.dimsIn(pd.Array, c.ns), pd.Name)
		for _, m := range g.members {
			c.body.Ports = append(c.body.Ports, ir.Port{Path: path.Push(m.name), ID: m.id})
		}
		return nil
	case syntax.DirInterface:
		c.bind(path, varEntry{kind: entryOpaque, c: ir.NewUnknown(pd.Name)})
		return nil
	}
	kind, ok := dirKind(pd.Direction)
	if !ok {
		return irError("port_direction", pd.Name)
	}
	domain := domainOf(pd.ClockDomain, ir.ClockDomain{Kind: ir.DomainImplicit})
	v := c.insertVar(path, kind, c.convType(pd.Type), domain, pd.Name)
	c.body.Ports = append(c.body.Ports, ir.Port{Path: path, ID: v.ID})
	return nil
}

// decls converts a declaration list. A declaration that fails is reported
// and skipped.
func (c *Context) decls(list []syntax.Decl) {
	for _, d := range list {
		c.insertIrError(c.decl(d))
	}
}

func (c *Context) comb(stmts []ir.Statement, tok syntax.Token) {
	if len(stmts) == 0 {
		return
	}
	c.body.Declarations = append(c.body.Declarations, &ir.CombDeclaration{Statements: stmts, Tok: tok})
}

func (c *Context) decl(decl syntax.Decl) error {
	implicit := ir.ClockDomain{Kind: ir.DomainImplicit}
	switch d := decl.(type) {
	case *syntax.VarDecl:
		c.insertVar(ir.VarPath{d.Name.Text}, ir.VarVariable, c.convType(d.Type), domainOf(d.ClockDomain, implicit), d.Name)
	case *syntax.LetDecl:
		v := c.insertVar(ir.VarPath{d.Name.Text}, ir.VarLet, c.convType(d.Type), domainOf(d.ClockDomain, implicit), d.Name)
		dst := c.varDestination(v.ID, d.Name)
		if lit, ok := d.Value.(*syntax.ArrayLitExpr); ok {
			stmts, err := c.arrayAssign(dst, lit, d.Tok)
			if err != nil {
				return err
			}
			c.comb(stmts, d.Tok)
			return nil
		}
		st, err := c.assignTo([]*ir.AssignDestination{dst}, d.Value, d.Tok)
		if err != nil {
			return err
		}
		c.comb([]ir.Statement{st}, d.Tok)
	case *syntax.ConstDecl:
		return c.param(d.Name, d.Type, d.Value, ir.VarConst, false)
	case *syntax.ParamDecl:
		kind := ir.VarParam
		if d.Const {
			kind = ir.VarConst
		}
		return c.param(d.Name, d.Type, d.Value, kind, !d.Const)
	case *syntax.AssignDecl:
		stmts, err := c.assignStmt(&syntax.AssignStmt{Tok: d.Tok, Dst: d.Dst, Op: "=", Value: d.Value})
		if err != nil {
			return err
		}
		c.comb(stmts, d.Tok)
	case *syntax.AlwaysFfDecl:
		return c.alwaysFf(d)
	case *syntax.AlwaysCombDecl:
		return c.Block(func(c *Context) error {
			if symbol.HasLocals(d.Body) {
				c.pushNS(c.sess.NameBlock(d))
			}
			c.pushAffiliation(ir.AffAlwaysComb)
			c.pushScope("")
			stmts, _, err := c.stmts(d.Body)
			if err != nil {
				return err
			}
			c.body.Declarations = append(c.body.Declarations, &ir.CombDeclaration{Statements: stmts, Tok: d.Tok})
			return nil
		})
	case *syntax.InitialDecl:
		return c.Block(func(c *Context) error {
			if symbol.HasLocals(d.Body) {
				c.pushNS(c.sess.NameBlock(d))
			}
			c.pushAffiliation(ir.AffStatementBlock)
			c.pushScope("")
			stmts, _, err := c.stmts(d.Body)
			if err != nil {
				return err
			}
			c.body.Declarations = append(c.body.Declarations, &ir.InitialDeclaration{Final: d.Final, Statements: stmts, Tok: d.Tok})
			return nil
		})
	case *syntax.GenerateIfDecl:
		return c.generateIf(d)
	case *syntax.GenerateForDecl:
		return c.generateFor(d)
	case *syntax.GenerateBlockDecl:
		return c.Block(func(c *Context) error {
			c.pushNS(d.Label.Text)
			c.pushScope(d.Label.Text)
			c.decls(d.Body)
			return nil
		})
	case *syntax.InstDecl:
		return c.instDecl(d)
	case *syntax.UnsafeDecl:
		c.decls(d.Body)
	case *syntax.ConnectDecl:
		stmts, err := c.connect(d.Lhs, d.Rhs, d.Tok)
		if err != nil {
			return err
		}
		c.comb(stmts, d.Tok)
	case *syntax.FunctionDecl, *syntax.StructDecl, *syntax.EnumDecl, *syntax.TypeDefDecl,
		*syntax.ModportDecl, *syntax.ImportDecl, *syntax.EmbedDecl:
		// Types and functions are converted where they are used.
	default:
		return irError("declaration", decl.Start())
	}
	return nil
}

// generateIf elaborates the first branch whose condition holds.
func (c *Context) generateIf(d *syntax.GenerateIfDecl) error {
	for i := range d.Branches {
		b := &d.Branches[i]
		if b.Cond != nil {
			v, ok, err := c.constValue(b.Cond)
			if err != nil {
				return err
			}
			if !ok {
				return c.fail(diag.UnevaluableValue, b.Cond.Start(), "generate condition must be a constant")
			}
			if v.IsZero() {
				continue
			}
		}
		name, label := c.sess.NameBlock(b), ""
		if b.Label != nil {
			name, label = b.Label.Text, b.Label.Text
		}
		return c.Block(func(c *Context) error {
			c.pushNS(name)
			c.pushScope(label)
			c.decls(b.Body)
			return nil
		})
	}
	return nil
}

// generateFor elaborates one copy of the body per loop value, labeled
// label[i].
func (c *Context) generateFor(d *syntax.GenerateForDecl) error {
	vals, err := c.EvalForRange(d.Range, d.Tok)
	if err != nil {
		return err
	}
	return c.Block(func(c *Context) error {
		c.pushNS(d.Label.Text)
		for _, i := range vals {
			err := c.Block(func(c *Context) error {
				c.pushScope(fmt.Sprintf("%s[%d]", d.Label.Text, i))
				c.bindConst(d.Var.Text, value.New(uint64(i), 32, false), ir.NewBit(32), d.Var)
				c.decls(d.Body)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func hasIfReset(body []syntax.Stmt) bool {
	for _, s := range body {
		if _, ok := s.(*syntax.IfResetStmt); ok {
			return true
		}
	}
	return false
}

func simpleIdent(name string) *syntax.IdentExpr {
	return &syntax.IdentExpr{Path: &syntax.ScopedIdent{Segments: []syntax.PathSegment{{Name: syntax.Synthetic(name)}}}}
}

// signal resolves the clock or reset of an always_ff.
func (c *Context) signal(x *syntax.IdentExpr) (*access, error) {
	a, found, err := c.localAccess(x)
	if err != nil {
		return nil, err
	}
	if !found {
		if _, err := c.resolvePath(x.Path); err != nil {
			return nil, err
		}
		return nil, irError("external_clock", x.Path.First())
	}
	if a.entry.kind != entryVar {
		return nil, irError("clock_signal", x.Path.First())
	}
	return a, nil
}

// alwaysFf converts an always_ff. The clock and reset default to the
// component's only clock and reset; the reset is only needed when the body
// has an if_reset.
func (c *Context) alwaysFf(d *syntax.AlwaysFfDecl) error {
	return c.Block(func(c *Context) error {
		clk := d.Clock
		if clk == nil {
			if c.defaultClock == "" {
				return c.fail(diag.MissingClockSignal, d.Tok, "always_ff needs a clock signal")
			}
			clk = simpleIdent(c.defaultClock)
		}
		ca, err := c.signal(clk)
		if err != nil {
			return err
		}
		if t := ca.c.Type; !t.IsUnknown() && !t.IsClock() {
			c.InsertError(diag.New(diag.MismatchType, clk.Path.First(), "%s is not a clock", clk.Path))
		}
		decl := &ir.FfDeclaration{
			Clock: ir.FfClock{ID: ca.entry.id, Index: ca.index, Comptime: ca.c},
			Tok:   d.Tok,
		}

		usesReset := hasIfReset(d.Body)
		rst := d.Reset
		switch {
		case rst != nil && !usesReset:
			c.InsertError(diag.New(diag.MissingIfReset, rst.Path.First(), "reset %s is given but the body has no if_reset", rst.Path))
		case rst == nil && usesReset:
			if c.defaultReset == "" {
				return c.fail(diag.MissingResetSignal, d.Tok, "if_reset needs a reset signal")
			}
			rst = simpleIdent(c.defaultReset)
		}
		if rst != nil {
			ra, err := c.signal(rst)
			if err != nil {
				return err
			}
			if t := ra.c.Type; !t.IsUnknown() && !t.IsReset() {
				c.InsertError(diag.New(diag.MismatchType, rst.Path.First(), "%s is not a reset", rst.Path))
			}
			c.checkDomain(ca.c.ClockDomain, ra.c.ClockDomain, rst.Path.First())
			decl.Reset = &ir.FfReset{ID: ra.entry.id, Index: ra.index, Comptime: ra.c}
		}

		if symbol.HasLocals(d.Body) {
			c.pushNS(c.sess.NameBlock(d))
		}
		c.pushAffiliation(ir.AffAlwaysFf)
		c.pushScope("")
		c.clock = &decl.Clock.Comptime
		c.hasReset = decl.Reset != nil

		stmts, _, err := c.stmts(d.Body)
		if err != nil {
			return err
		}
		decl.Statements = stmts
		c.body.Declarations = append(c.body.Declarations, decl)
		return nil
	})
}
