package emitter

import (
	"strings"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
)

// ffState describes the always_ff being emitted.
type ffState struct {
	reset     string
	resetLow  bool
	haveReset bool
}

func (e *Emitter) alwaysFf(d *syntax.AlwaysFfDecl) {
	var clock, clockEdge string
	if d.Clock != nil {
		clock = e.identText(d.Clock)
		t, _ := e.exprType(d.Clock)
		clockEdge = e.edge(t)
	} else if sym, ok := e.defaultSignal(true); ok {
		clock = e.signalName(sym)
		clockEdge = e.edge(signalType(sym))
	} else {
		e.reportf(diag.MissingClockSignal, d.Tok, "always_ff needs a clock signal")
	}

	ff := &ffState{}
	var resetType *syntax.TypeExpr
	if d.Reset != nil {
		ff.reset = e.identText(d.Reset)
		ff.haveReset = true
		resetType, _ = e.exprType(d.Reset)
	} else if hasIfReset(d.Body) {
		if sym, ok := e.defaultSignal(false); ok {
			ff.reset = e.signalName(sym)
			ff.haveReset = true
			resetType = signalType(sym)
		}
	}
	async := false
	if resetType != nil {
		ff.resetLow = e.resetLow(resetType.Kind)
		async = e.resetAsync(resetType.Kind)
	} else if ff.haveReset {
		ff.resetLow = e.build.ResetType.IsLow()
		async = e.build.ResetType.IsAsync()
	}

	sens := clockEdge + " " + clock
	if ff.haveReset && async && hasIfReset(d.Body) {
		edge := "posedge"
		if ff.resetLow {
			edge = "negedge"
		}
		sens += ", " + edge + " " + ff.reset
	}
	e.w.tok(d.Tok, "always_ff @ ("+sens+") begin")
	e.w.nl()

	saved := e.ff
	e.ff = ff
	e.stmtBlock(d, d.Body)
	e.ff = saved
	e.w.linef("end")
}

func (e *Emitter) edge(t *syntax.TypeExpr) string {
	if t != nil && e.clockNegedge(t.Kind) {
		return "negedge"
	}
	return "posedge"
}

// defaultSignal returns the only clock or reset of the current module.
func (e *Emitter) defaultSignal(clock bool) (*symbol.Symbol, bool) {
	if e.comp == nil {
		return nil, false
	}
	props, ok := e.comp.Props.(*symbol.ModuleProps)
	if !ok {
		return nil, false
	}
	id := props.DefaultReset
	if clock {
		id = props.DefaultClock
	}
	if id == 0 {
		return nil, false
	}
	sym := e.sess.Get(id)
	return sym, sym != nil
}

func hasIfReset(body []syntax.Stmt) bool {
	for _, s := range body {
		switch s := s.(type) {
		case *syntax.IfResetStmt:
			return true
		case *syntax.IfStmt:
			for _, b := range s.Branches {
				if hasIfReset(b.Body) {
					return true
				}
			}
			if hasIfReset(s.Else) {
				return true
			}
		}
	}
	return false
}

// stmtBlock emits the body of an always block, entering the scope that
// holds its local declarations.
func (e *Emitter) stmtBlock(node any, body []syntax.Stmt) {
	ns := e.ns
	if symbol.HasLocals(body) {
		ns = ns.Push(e.sess.NameBlock(node))
	}
	e.within(ns, func() {
		e.w.indent++
		e.locals(body)
		e.stmts(body)
		e.w.indent--
	})
}

// locals declares the let and var statements of a block at its top.
// Loop bodies declare their own.
func (e *Emitter) locals(body []syntax.Stmt) {
	var walk func([]syntax.Stmt)
	walk = func(ss []syntax.Stmt) {
		for _, s := range ss {
			switch s := s.(type) {
			case *syntax.LetStmt:
				e.local(s.Tok, s.Name, s.Type)
			case *syntax.VarStmt:
				e.local(s.Tok, s.Name, s.Type)
			case *syntax.IfStmt:
				for _, b := range s.Branches {
					walk(b.Body)
				}
				walk(s.Else)
			case *syntax.IfResetStmt:
				walk(s.Body)
				for _, b := range s.Branches {
					walk(b.Body)
				}
				walk(s.Else)
			case *syntax.CaseStmt:
				for _, it := range s.Items {
					walk(it.Body)
				}
			case *syntax.SwitchStmt:
				for _, it := range s.Items {
					walk(it.Body)
				}
			}
		}
	}
	walk(body)
}

func (e *Emitter) local(tok, name syntax.Token, t *syntax.TypeExpr) {
	e.w.tok(tok, e.typeText(t)+" ")
	e.w.tok(name, e.affixed(name.Text, t)+e.arrayText(arrayOf(t)))
	e.w.linef(";")
}

func arrayOf(t *syntax.TypeExpr) []syntax.Expr {
	if t == nil {
		return nil
	}
	return t.Array
}

func (e *Emitter) stmts(body []syntax.Stmt) {
	for _, s := range body {
		e.stmt(s)
	}
}

// simpleStmt reports whether s fits on the line of a case label.
func simpleStmt(s syntax.Stmt) bool {
	switch s.(type) {
	case *syntax.AssignStmt, *syntax.CallStmt, *syntax.ReturnStmt, *syntax.BreakStmt, *syntax.LetStmt:
		return true
	}
	return false
}

func (e *Emitter) stmt(s syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.AssignStmt:
		e.w.tok(s.Tok, e.assignText(s))
		e.w.nl()
	case *syntax.LetStmt:
		name := e.affixed(s.Name.Text, s.Type)
		e.w.tok(s.Tok, name+" = "+e.exprText(s.Value)+";")
		e.w.nl()
	case *syntax.VarStmt:
	case *syntax.IfStmt:
		e.ifStmt(s)
	case *syntax.IfResetStmt:
		e.ifReset(s)
	case *syntax.CaseStmt:
		e.caseStmt(s)
	case *syntax.SwitchStmt:
		e.switchStmt(s)
	case *syntax.ForStmt:
		e.forStmt(s)
	case *syntax.ReturnStmt:
		if s.Value == nil {
			e.w.tok(s.Tok, "return;")
		} else {
			e.w.tok(s.Tok, "return "+e.exprText(s.Value)+";")
		}
		e.w.nl()
	case *syntax.BreakStmt:
		e.w.tok(s.Tok, "break;")
		e.w.nl()
	case *syntax.CallStmt:
		e.w.tok(s.Start(), e.exprText(s.Call)+";")
		e.w.nl()
	case *syntax.ConnectStmt:
		e.connectStmt(s)
	}
}

// assignText renders an assignment. Inside always_ff assignments are
// non-blocking and compound operators are spelled out.
func (e *Emitter) assignText(s *syntax.AssignStmt) string {
	dst := e.dstText(s.Dst)
	v := e.exprText(s.Value)
	if e.ff == nil {
		return dst + " " + s.Op + " " + v + ";"
	}
	if s.Op == "=" {
		return dst + " <= " + v + ";"
	}
	op := strings.TrimSuffix(s.Op, "=")
	return dst + " <= " + dst + " " + op + " " + e.wrap(s.Value) + ";"
}

// condType returns the unique, unique0 or priority keyword requested by a
// cond_type attribute.
func (e *Emitter) condType(attrs []syntax.Attribute) string {
	if !e.build.EmitCondType {
		return ""
	}
	a, ok := syntax.FindAttr(attrs, "cond_type")
	if !ok {
		return ""
	}
	switch kw := a.Arg(0); kw {
	case "unique", "unique0", "priority":
		return kw + " "
	}
	return ""
}

func (e *Emitter) ifStmt(s *syntax.IfStmt) {
	for i, b := range s.Branches {
		if i == 0 {
			e.w.tok(s.Tok, e.condType(s.Attrs)+"if ("+e.exprText(b.Cond)+") begin")
		} else {
			e.w.str("end else if (" + e.exprText(b.Cond) + ") begin")
		}
		e.w.nl()
		e.indented(b.Body)
	}
	if s.HasElse {
		e.w.linef("end else begin")
		e.indented(s.Else)
	}
	e.w.linef("end")
}

func (e *Emitter) ifReset(s *syntax.IfResetStmt) {
	cond := "rst"
	if e.ff == nil || !e.ff.haveReset {
		e.reportf(diag.MissingResetSignal, s.Tok, "if_reset needs a reset signal")
	} else {
		cond = e.ff.reset
		if e.ff.resetLow {
			cond = "!" + cond
		}
	}
	e.w.tok(s.Tok, e.condType(s.Attrs)+"if ("+cond+") begin")
	e.w.nl()
	e.indented(s.Body)
	for _, b := range s.Branches {
		e.w.linef("end else if (" + e.exprText(b.Cond) + ") begin")
		e.indented(b.Body)
	}
	if s.HasElse {
		e.w.linef("end else begin")
		e.indented(s.Else)
	}
	e.w.linef("end")
}

func (e *Emitter) indented(body []syntax.Stmt) {
	e.w.indent++
	e.stmts(body)
	e.w.indent--
}

// arm emits one case arm: a single simple statement after the label,
// anything else in a begin/end block.
func (e *Emitter) arm(label string, body []syntax.Stmt) {
	if len(body) == 1 && simpleStmt(body[0]) {
		e.w.str(label + ": ")
		e.stmt(body[0])
		return
	}
	e.w.linef(label + ": begin")
	e.indented(body)
	e.w.linef("end")
}

func (e *Emitter) caseStmt(s *syntax.CaseStmt) {
	subject := e.exprText(s.Subject)
	g := e.group(s.Tok)
	expand := e.build.ExpandInsideOperation
	if expand {
		e.w.tok(s.Tok, e.condType(s.Attrs)+"case (1'b1)")
	} else {
		e.w.tok(s.Tok, e.condType(s.Attrs)+"case ("+subject+") inside")
	}
	e.w.nl()
	e.w.indent++
	for _, it := range s.Items {
		var label string
		if it.Default {
			label = "default"
		} else {
			conds := make([]string, len(it.Conds))
			for i, c := range it.Conds {
				if expand {
					conds[i] = e.condText(subject, c)
				} else {
					conds[i] = e.insideItem(c)
				}
			}
			label = strings.Join(conds, ", ")
		}
		e.arm(e.cell(g, ClassCaseCond, label, false), it.Body)
	}
	e.w.indent--
	e.w.linef("endcase")
}

func (e *Emitter) switchStmt(s *syntax.SwitchStmt) {
	g := e.group(s.Tok)
	e.w.tok(s.Tok, e.condType(s.Attrs)+"case (1'b1)")
	e.w.nl()
	e.w.indent++
	for _, it := range s.Items {
		label := "default"
		if !it.Default {
			conds := make([]string, len(it.Conds))
			for i, c := range it.Conds {
				conds[i] = e.exprText(c)
			}
			label = strings.Join(conds, ", ")
		}
		e.arm(e.cell(g, ClassCaseCond, label, false), it.Body)
	}
	e.w.indent--
	e.w.linef("endcase")
}

func (e *Emitter) forStmt(s *syntax.ForStmt) {
	typ := "int unsigned"
	if s.Type != nil {
		typ = e.typeText(s.Type)
	}
	ns := e.ns.Push(e.sess.NameBlock(s))
	e.within(ns, func() {
		e.w.tok(s.Tok, e.forHeader(typ, s.Var.Text, s.Range)+" begin")
		e.w.nl()
		e.w.indent++
		e.locals(s.Body)
		e.stmts(s.Body)
		e.w.indent--
	})
	e.w.linef("end")
}
