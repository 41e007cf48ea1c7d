package emitter

import (
	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
)

// view is a modport port, or an interface instance seen through one of
// its modports.
type view struct {
	base    string
	modport *symbol.Symbol
	members []symbol.ModportMember
}

func (v *view) member(name string) (symbol.ModportMember, bool) {
	for _, m := range v.members {
		if m.Name == name {
			return m, true
		}
	}
	return symbol.ModportMember{}, false
}

// memberText renders base.member with the member's clock or reset affixes.
func (e *Emitter) memberText(v *view, m symbol.ModportMember) string {
	name := m.Name
	if sym, ok := e.sess.Lookup(v.modport.Namespace, m.Name); ok {
		name = e.signalName(sym)
	}
	return v.base + "." + name
}

func (e *Emitter) viewOf(x syntax.Expr) (*view, bool) {
	id, ok := x.(*syntax.IdentExpr)
	if !ok || len(id.Path.Segments) != 1 || len(id.Selects) > 0 {
		return nil, false
	}
	sym, ok := e.resolveSignal(id.Path)
	if !ok {
		return nil, false
	}
	base := sym.Name()
	switch p := sym.Props.(type) {
	case *symbol.PortProps:
		if p.Decl.Direction != syntax.DirModport || len(id.Members) > 0 {
			return nil, false
		}
		res, err := e.sess.Resolve(p.Decl.Modport.Names(), e.ns)
		if err != nil || len(res.Rest) > 0 || res.Found.Kind != symbol.KindModport {
			return nil, false
		}
		return e.newView(base, res.Found), true
	case *symbol.InstanceProps:
		if len(id.Members) != 1 {
			return nil, false
		}
		iface, ok := e.componentSymbol(p.Decl.Component)
		if !ok || iface.Kind != symbol.KindInterface {
			return nil, false
		}
		mp, ok := e.sess.Lookup(iface.Inner(), id.Members[0].Name.Text)
		if !ok || mp.Kind != symbol.KindModport {
			return nil, false
		}
		return e.newView(base, mp), true
	}
	return nil, false
}

func (e *Emitter) newView(base string, mp *symbol.Symbol) *view {
	v := &view{base: base, modport: mp}
	for _, m := range e.sess.ModportMembers(mp) {
		switch m.Direction {
		case syntax.DirInput, syntax.DirOutput, syntax.DirInout:
			v.members = append(v.members, m)
		}
	}
	return v
}

type connection struct {
	dst, src string
	inout    bool
}

// connections pairs the members of lhs <> rhs by name. The output side
// is driven by the input side; inout pairs are joined.
func (e *Emitter) connections(lhs *syntax.IdentExpr, rhs syntax.Expr, tok syntax.Token) ([]connection, bool) {
	lv, ok := e.viewOf(lhs)
	if !ok {
		return nil, false
	}
	if rv, ok := e.viewOf(rhs); ok {
		var out []connection
		for _, lm := range lv.members {
			rm, ok := rv.member(lm.Name)
			if !ok {
				continue
			}
			l, r := e.memberText(lv, lm), e.memberText(rv, rm)
			switch {
			case lm.Direction == syntax.DirInout && rm.Direction == syntax.DirInout:
				out = append(out, connection{dst: l, src: r, inout: true})
			case lm.Direction != syntax.DirInput && rm.Direction == syntax.DirInput:
				out = append(out, connection{dst: l, src: r})
			case lm.Direction == syntax.DirInput && rm.Direction != syntax.DirInput:
				out = append(out, connection{dst: r, src: l})
			default:
				e.reportf(diag.MismatchConnectDirection, tok,
					"%s is %s on the left side and %s on the right side", lm.Name, lm.Direction, rm.Direction)
			}
		}
		return out, true
	}

	v := e.exprText(rhs)
	var out []connection
	for _, m := range lv.members {
		if m.Direction == syntax.DirInput {
			continue
		}
		out = append(out, connection{dst: e.memberText(lv, m), src: v, inout: m.Direction == syntax.DirInout})
	}
	return out, true
}

// connectDecl emits connect lhs <> rhs at declaration level: one
// always_comb for the driven members, then tran for interface pairs and
// assign for constants driven onto inout members.
func (e *Emitter) connectDecl(d *syntax.ConnectDecl) {
	conns, ok := e.connections(d.Lhs, d.Rhs, d.Tok)
	if !ok {
		e.reportf(diag.MismatchType, d.Tok, "%s is not an interface or modport", d.Lhs.Path)
		return
	}
	_, constant := e.viewOf(d.Rhs)
	constant = !constant

	started := false
	for _, c := range conns {
		if c.inout {
			continue
		}
		if !started {
			e.w.tok(d.Tok, "always_comb begin")
			e.w.nl()
			e.w.indent++
			started = true
		}
		e.w.linef(c.dst + " = " + c.src + ";")
	}
	if started {
		e.w.indent--
		e.w.linef("end")
	}
	for _, c := range conns {
		if !c.inout {
			continue
		}
		if constant {
			e.w.tok(d.Tok, "assign "+c.dst+" = "+c.src+";")
		} else {
			e.w.tok(d.Tok, "tran ("+c.dst+", "+c.src+");")
		}
		e.w.nl()
	}
}

// connectStmt emits lhs <> rhs inside a statement block as plain
// assignments.
func (e *Emitter) connectStmt(s *syntax.ConnectStmt) {
	conns, ok := e.connections(s.Lhs, s.Rhs, s.Tok)
	if !ok {
		e.reportf(diag.MismatchType, s.Tok, "%s is not an interface or modport", s.Lhs.Path)
		return
	}
	for _, c := range conns {
		if c.inout {
			continue
		}
		op := " = "
		if e.ff != nil {
			op = " <= "
		}
		e.w.tok(s.Tok, c.dst+op+c.src+";")
		e.w.nl()
	}
}
