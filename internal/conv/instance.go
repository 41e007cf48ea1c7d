package conv

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/ir"
	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
)

// getComponent returns the elaboration of sym for the given generic
// arguments and parameter overrides, converting it on first use. It
// returns nil without error when the signature is already being
// elaborated with unknown parameters.
func (c *Context) getComponent(sym *symbol.Symbol, gm symbol.GenericMap, overrides map[string]symbol.ParamValue, tok syntax.Token) (ir.Component, error) {
	params := make([]symbol.ParamValue, 0, len(overrides))
	for _, p := range overrides {
		params = append(params, p)
	}
	sig := symbol.NewSignature(sym, gm, params)
	if comp, ok := c.history.Get(sig); ok {
		return comp, nil
	}

	pushed, err := c.history.Push(sig)
	if err != nil {
		var le *ExceedLimitError
		if errors.As(err, &le) {
			return nil, c.fail(diag.ExceedLimit, tok, "%s", le.Error())
		}
		return nil, c.fail(diag.InfiniteRecursion, tok, "%s", err.Error())
	}
	if !pushed {
		return nil, nil
	}

	slog.Debug("elaborate", "component", sig.String(), "depth", c.history.Depth())
	child := c.newContext(sym, gm.Mangled(sym.Name(), c.config.HashedMangledName))
	if !gm.IsEmpty() {
		child.bindings = []binding{{scope: sym.Inner(), m: gm}}
	}
	child.overrides = overrides
	comp, err := child.component()
	c.history.Pop(err != nil)
	if err != nil {
		return nil, err
	}
	c.history.Set(sig, comp)
	return comp, nil
}

// instParams evaluates the parameter overrides of an instance in the
// caller. A parameter given without a value takes the caller's value of
// the same name.
func (c *Context) instParams(sym *symbol.Symbol, d *syntax.InstDecl) (map[string]symbol.ParamValue, error) {
	var ids []symbol.ID
	switch p := sym.Props.(type) {
	case *symbol.ModuleProps:
		ids = p.Params
	case *symbol.InterfaceProps:
		ids = p.Params
	}
	declared := make(map[string]bool, len(ids))
	for _, id := range ids {
		declared[c.sess.Get(id).Name()] = true
	}

	out := make(map[string]symbol.ParamValue, len(d.Params))
	for _, ip := range d.Params {
		if !declared[ip.Name.Text] {
			return nil, c.fail(diag.UndefinedIdentifier, ip.Name, "%s has no parameter %s", sym.Name(), ip.Name.Text)
		}
		x := ip.Value
		if x == nil {
			x = &syntax.IdentExpr{Path: &syntax.ScopedIdent{Segments: []syntax.PathSegment{{Name: ip.Name}}}}
		}
		_, ct, err := c.evalExpr(x, 0)
		if err != nil {
			return nil, err
		}
		if ct.Value.Kind == ir.ValueType {
			continue
		}
		v, ok := ct.ConstValue()
		if !ok || v.IsXZ() {
			c.InsertError(diag.New(diag.UnevaluableValue, x.Start(), "parameter %s must be a constant", ip.Name.Text))
			out[ip.Name.Text] = symbol.ParamValue{Name: ip.Name.Text}
			continue
		}
		out[ip.Name.Text] = symbol.ParamValue{Name: ip.Name.Text, Value: v, Known: true}
	}
	return out, nil
}

// instDecl elaborates an instance and connects its ports.
func (c *Context) instDecl(d *syntax.InstDecl) error {
	if d.Component.IsSystemVerilog() {
		return c.svInstance(d)
	}
	sym, err := c.resolvePath(d.Component)
	if err != nil {
		return err
	}
	switch sym.Kind {
	case symbol.KindModule, symbol.KindInterface:
	case symbol.KindSystemVerilog:
		return c.svInstance(d)
	default:
		return c.fail(diag.MismatchType, d.Component.First(), "%s %s cannot be instantiated", sym.Kind, sym.Name())
	}

	last := d.Component.Segments[len(d.Component.Segments)-1]
	gm, aerr := c.evaluator(c.ns).GenericMap(sym, last.Args, d.Component.Last())
	if aerr != nil {
		return c.report(aerr)
	}
	if !gm.IsEmpty() {
		c.sess.AddGenericMap(sym.ID, gm)
	}
	overrides, err := c.instParams(sym, d)
	if err != nil {
		return err
	}
	array := c.dimsIn(d.Array, c.ns)

	comp, err := c.getComponent(sym, gm, overrides, d.Name)
	if err != nil {
		return err
	}
	switch comp := comp.(type) {
	case *ir.Interface:
		c.importInterface(d, sym, comp, array)
	case *ir.Module:
		return c.instModule(d, sym, comp)
	}
	return nil
}

// importInterface makes the variables of an interface instance variables
// of the caller under the instance name.
func (c *Context) importInterface(d *syntax.InstDecl, sym *symbol.Symbol, comp *ir.Interface, array ir.Shape) {
	ids := make([]ir.VarID, 0, len(comp.Variables))
	for id := range comp.Variables {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	g := &group{iface: sym}
	for _, id := range ids {
		cv := comp.Variables[id]
		if cv.Affiliation == ir.AffFunction {
			continue
		}
		t := cv.Type
		if len(array) > 0 {
			t.Array = append(append(ir.Shape(nil), array...), t.Array...)
		}
		kind := ir.VarVariable
		if cv.Kind == ir.VarParam || cv.Kind == ir.VarConst {
			kind = cv.Kind
		}
		path := append(ir.VarPath{d.Name.Text}, cv.Path...)
		v := c.insertVar(path, kind, t, cv.ClockDomain, d.Name)
		if kind != ir.VarVariable && len(array) == 0 {
			copy(v.Values, cv.Values)
			c.bind(path, varEntry{kind: entryVar, id: v.ID, c: variableComptime(v, d.Name)})
		}
		if len(cv.Path) == 1 && kind == ir.VarVariable {
			g.members = append(g.members, groupMember{name: cv.Path[0], id: v.ID})
		}
	}
	c.bind(ir.VarPath{d.Name.Text}, varEntry{kind: entryGroup, group: g})
}

// portSymbols returns the port declarations of a module in order.
func (c *Context) portSymbols(sym *symbol.Symbol) []*syntax.PortDecl {
	props, ok := sym.Props.(*symbol.ModuleProps)
	if !ok {
		return nil
	}
	out := make([]*syntax.PortDecl, 0, len(props.Ports))
	for _, id := range props.Ports {
		out = append(out, c.sess.Get(id).Props.(*symbol.PortProps).Decl)
	}
	return out
}

// domainMap pairs the clock domains of a child with those of the caller.
type domainMap map[string]ir.ClockDomain

func domainKey(d ir.ClockDomain) (string, bool) {
	switch d.Kind {
	case ir.DomainExplicit:
		return d.Name, true
	case ir.DomainImplicit:
		return "_", true
	}
	return "", false
}

func (c *Context) mapDomain(m domainMap, child, parent ir.ClockDomain, tok syntax.Token) {
	key, ok := domainKey(child)
	if !ok || parent.Kind == ir.DomainNone {
		return
	}
	if prev, ok := m[key]; ok {
		if !prev.Compatible(parent) {
			c.InsertError(diag.New(diag.MismatchClockDomain, tok,
				"clock domain %s of %s is connected to both %s and %s", child, tok.Text, prev, parent))
		}
		return
	}
	m[key] = parent
}

// instModule connects the ports of a module instance.
func (c *Context) instModule(d *syntax.InstDecl, sym *symbol.Symbol, m *ir.Module) error {
	decl := &ir.InstDeclaration{Name: d.Name.Text, Component: m, Tok: d.Name}
	ports := c.portSymbols(sym)
	byName := make(map[string]*syntax.PortDecl, len(ports))
	for _, p := range ports {
		byName[p.Name.Text] = p
	}
	given := make(map[string]syntax.Expr, len(d.Ports))
	for _, ip := range d.Ports {
		if _, ok := byName[ip.Name.Text]; !ok {
			c.InsertError(diag.New(diag.UnknownPort, ip.Name, "%s has no port %s", sym.Name(), ip.Name.Text))
			continue
		}
		x := ip.Value
		if x == nil {
			x = &syntax.IdentExpr{Path: &syntax.ScopedIdent{Segments: []syntax.PathSegment{{Name: ip.Name}}}}
		}
		given[ip.Name.Text] = x
	}

	domains := make(domainMap)
	for _, p := range ports {
		x, ok := given[p.Name.Text]
		if !ok {
			if p.Default == nil {
				c.InsertError(diag.New(diag.MissingPort, d.Name, "port %s of %s is not connected", p.Name.Text, sym.Name()))
			}
			continue
		}
		if err := c.connectPort(decl, m, p, x, domains); err != nil {
			c.insertIrError(err)
		}
	}
	c.body.Declarations = append(c.body.Declarations, decl)
	return nil
}

func (c *Context) connectPort(decl *ir.InstDeclaration, m *ir.Module, p *syntax.PortDecl, x syntax.Expr, domains domainMap) error {
	name := p.Name.Text
	switch p.Direction {
	case syntax.DirInterface:
		return nil
	case syntax.DirModport:
		id := identOf(x)
		if id == nil {
			return c.fail(diag.MismatchType, x.Start(), "port %s needs an interface", name)
		}
		view, ok, err := c.groupView(id)
		if err != nil {
			return err
		}
		if !ok {
			return c.fail(diag.MismatchType, x.Start(), "port %s needs an interface", name)
		}
		for _, port := range m.PortsWithPrefix(ir.VarPath{name}) {
			member := port.Path[len(port.Path)-1]
			am, ok := view.member(member)
			if !ok {
				c.InsertError(diag.New(diag.MismatchType, x.Start(), "%s has no member %s", id.Path, member))
				continue
			}
			cv := m.Variables[port.ID]
			if cv.Kind == ir.VarInput {
				e := c.varTerm(am.id, p.Name)
				c.mapDomain(domains, cv.ClockDomain, e.Comptime().ClockDomain, p.Name)
				decl.Inputs = append(decl.Inputs, ir.InstInput{ID: []ir.VarID{port.ID}, Expr: e})
				continue
			}
			dst := c.varDestination(am.id, p.Name)
			c.mapDomain(domains, cv.ClockDomain, dst.Comptime.ClockDomain, p.Name)
			decl.Outputs = append(decl.Outputs, ir.InstOutput{ID: []ir.VarID{port.ID}, Dst: []*ir.AssignDestination{dst}})
		}
		return nil
	}

	pid, ok := m.PortID(ir.VarPath{name})
	if !ok {
		return irError("port", p.Name)
	}
	cv := m.Variables[pid]
	if p.Direction == syntax.DirInput {
		w, _ := cv.Type.TotalWidth()
		e, ct, err := c.evalExpr(x, w)
		if err != nil {
			return err
		}
		if !cv.Type.Compatible(ct.Type) {
			c.InsertError(diag.New(diag.MismatchType, x.Start(), "%s cannot be connected to port %s of type %s", ct.Type, name, cv.Type))
		}
		c.mapDomain(domains, cv.ClockDomain, ct.ClockDomain, p.Name)
		decl.Inputs = append(decl.Inputs, ir.InstInput{ID: []ir.VarID{pid}, Expr: e})
		return nil
	}

	targets, err := outputTargets(x)
	if err != nil {
		return c.fail(diag.UnassignableOutput, x.Start(), "output port %s must be connected to a variable", name)
	}
	out := ir.InstOutput{ID: []ir.VarID{pid}}
	for _, t := range targets {
		if t.Path.First().Text == "_" && len(t.Path.Segments) == 1 {
			continue
		}
		dst, v, err := c.destination(t)
		if err != nil {
			return err
		}
		if !v.Kind.Assignable() {
			return c.fail(diag.UnassignableOutput, t.Path.First(), "%s %s cannot be driven by port %s", v.Kind, v.Path, name)
		}
		c.mapDomain(domains, cv.ClockDomain, dst.Comptime.ClockDomain, p.Name)
		out.Dst = append(out.Dst, dst)
	}
	if len(out.Dst) > 0 {
		decl.Outputs = append(decl.Outputs, out)
	}
	return nil
}

var errNotAssignable = errors.New("not assignable")

// outputTargets returns the identifiers an output port drives: a single
// identifier or a concatenation of identifiers.
func outputTargets(x syntax.Expr) ([]*syntax.IdentExpr, error) {
	if id := identOf(x); id != nil {
		return []*syntax.IdentExpr{id}, nil
	}
	cat, ok := x.(*syntax.ConcatExpr)
	if !ok {
		return nil, errNotAssignable
	}
	out := make([]*syntax.IdentExpr, 0, len(cat.Items))
	for _, it := range cat.Items {
		id := identOf(it.X)
		if id == nil || it.Repeat != nil {
			return nil, errNotAssignable
		}
		out = append(out, id)
	}
	return out, nil
}

// svInstance connects a SystemVerilog module. Its ports are unknown, so
// every connection is an input expression.
func (c *Context) svInstance(d *syntax.InstDecl) error {
	decl := &ir.InstDeclaration{
		Name:      d.Name.Text,
		Component: &ir.SystemVerilog{Name: d.Component.Last().Text},
		Tok:       d.Name,
	}
	for _, ip := range d.Params {
		if ip.Value != nil {
			if _, _, err := c.evalExpr(ip.Value, 0); err != nil {
				return err
			}
		}
	}
	for _, ip := range d.Ports {
		x := ip.Value
		if x == nil {
			x = &syntax.IdentExpr{Path: &syntax.ScopedIdent{Segments: []syntax.PathSegment{{Name: ip.Name}}}}
		}
		if id := identOf(x); id != nil {
			if _, ok, _ := c.groupView(id); ok {
				continue
			}
		}
		e, ct, err := c.evalExpr(x, 0)
		if err != nil {
			c.insertIrError(err)
			continue
		}
		if ct.Type.Kind == ir.TypeReset {
			c.InsertError(diag.New(diag.SvWithImplicitReset, x.Start(),
				"reset %s of implicit polarity cannot be connected to a SystemVerilog module", ip.Name.Text))
		}
		decl.Inputs = append(decl.Inputs, ir.InstInput{Expr: e})
	}
	c.body.Declarations = append(c.body.Declarations, decl)
	return nil
}
