package emitter

import (
	"fmt"
	"strings"

	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
)

// ---------------------------------------------------------------------------
// Parameters and ports

func (e *Emitter) params(ps []*syntax.ParamDecl) {
	g := e.group(ps[0].Tok)
	for i, p := range ps {
		last := i == len(ps)-1
		kind := "parameter"
		if p.Const {
			kind = "localparam"
		}
		e.w.tok(p.Tok, e.cell(g, ClassParamKind, kind, false))
		e.w.str(" ")
		typ := e.paramType(p.Type)
		if e.mode == modeAlign || e.align.Width(g, ClassParamType) > 0 {
			e.w.str(e.cell(g, ClassParamType, typ, false))
			e.w.str(" ")
		}
		e.w.tok(p.Name, e.cell(g, ClassParamName, p.Name.Text, false))
		e.w.str(" = ")
		e.w.str(e.exprText(p.Value))
		if !last {
			e.w.str(",")
		}
		e.w.nl()
	}
}

// paramType renders the type of a parameter or const. Types configured as
// implicit render empty.
func (e *Emitter) paramType(t *syntax.TypeExpr) string {
	if t == nil || e.build.ImplicitParameterType(t.Tok.Text) {
		return ""
	}
	return e.typeText(t) + e.arrayText(t.Array)
}

func (e *Emitter) ports(ps []*syntax.PortDecl) {
	g := e.group(ps[0].Name)
	for i, p := range ps {
		last := i == len(ps)-1
		e.port(g, p, last)
		if !last {
			e.w.str(",")
		}
		e.w.nl()
	}
}

func (e *Emitter) port(g string, p *syntax.PortDecl, last bool) {
	switch p.Direction {
	case syntax.DirModport:
		e.w.tok(p.Name, e.modportText(p.Modport))
		e.w.str(" ")
		e.w.str(e.cell(g, ClassPortName, p.Name.Text+e.portArray(p), last))
		return
	case syntax.DirInterface:
		head := "interface"
		if p.Modport != nil {
			head += "." + p.Modport.Last().Text
		}
		e.w.tok(p.Name, head)
		e.w.str(" ")
		e.w.str(e.cell(g, ClassPortName, p.Name.Text+e.portArray(p), last))
		return
	}

	e.w.tok(p.Name, e.cell(g, ClassPortDir, p.Direction.String(), false))
	e.w.str(" ")
	net := "var "
	if p.Direction == syntax.DirInout {
		net = "tri "
	}
	e.w.str(e.cell(g, ClassPortType, net+e.typeText(p.Type), false))
	e.w.str(" ")
	name := e.affixed(p.Name.Text, p.Type) + e.arrayText(p.Type.Array)
	if p.Default != nil {
		e.w.str(e.cell(g, ClassPortName, name, false))
		e.w.str(" = " + e.exprText(p.Default))
		return
	}
	e.w.str(e.cell(g, ClassPortName, name, last))
}

func (e *Emitter) portArray(p *syntax.PortDecl) string {
	if e.build.FlattenArrayInterface && len(p.Array) > 1 {
		return e.flatArrayText(p.Array)
	}
	return e.arrayText(p.Array)
}

// modportText renders Interface::modport as prj_Interface.modport.
func (e *Emitter) modportText(path *syntax.ScopedIdent) string {
	names := path.Names()
	res, err := e.sess.Resolve(names, e.ns)
	if err != nil {
		if len(names) < 2 {
			return strings.Join(names, "::")
		}
		return strings.Join(names[:len(names)-1], "::") + "." + names[len(names)-1]
	}
	parts := e.chainText(res, path.Segments)
	if len(parts) < 2 {
		return strings.Join(parts, "::")
	}
	return strings.Join(parts[:len(parts)-1], "::") + "." + parts[len(parts)-1]
}

// ---------------------------------------------------------------------------
// Body declarations

type family int

const (
	famNone family = iota
	famVar
	famConst
	famAssign
)

func familyOf(d syntax.Decl) family {
	switch d.(type) {
	case *syntax.VarDecl, *syntax.LetDecl:
		return famVar
	case *syntax.ConstDecl:
		return famConst
	case *syntax.AssignDecl:
		return famAssign
	}
	return famNone
}

// singleLine reports whether a declaration is emitted on one line.
func singleLine(d syntax.Decl) bool {
	switch d.(type) {
	case *syntax.VarDecl, *syntax.LetDecl, *syntax.ConstDecl, *syntax.AssignDecl,
		*syntax.ImportDecl, *syntax.TypeDefDecl:
		return true
	}
	return false
}

// decls emits a body. Single-line declarations on consecutive source lines
// stay together and share alignment; anything else is separated by a
// blank line.
func (e *Emitter) decls(body []syntax.Decl) {
	var list []syntax.Decl
	for _, d := range body {
		if e.emits(d) {
			list = append(list, d)
		}
	}
	var anchor syntax.Token
	for i, d := range list {
		adjacent := false
		if i > 0 {
			prev := list[i-1]
			adjacent = singleLine(prev) && singleLine(d) && d.Start().Line == prev.Start().Line+1
			if !adjacent {
				e.w.nl()
			}
		}
		if i == 0 || !adjacent || familyOf(d) != familyOf(list[i-1]) {
			anchor = d.Start()
		}
		e.decl(d, e.group(anchor))
	}
}

// emits reports whether d produces any text.
func (e *Emitter) emits(d syntax.Decl) bool {
	switch d := d.(type) {
	case *syntax.EmbedDecl:
		return isInlineSV(d)
	case *syntax.FunctionDecl:
		if len(d.Generics) == 0 {
			return true
		}
		fn, ok := e.sess.Lookup(e.ns, d.Name.Text)
		return ok && len(e.nested[nestedKey{fn: fn.ID, parent: e.compKey}]) > 0
	case *syntax.UnsafeDecl:
		for _, inner := range d.Body {
			if e.emits(inner) {
				return true
			}
		}
		return false
	}
	return true
}

func (e *Emitter) decl(decl syntax.Decl, g string) {
	switch d := decl.(type) {
	case *syntax.VarDecl:
		e.w.tok(d.Tok, e.cell(g, ClassDeclType, e.typeText(d.Type), false))
		e.w.str(" ")
		e.w.tok(d.Name, e.affixed(d.Name.Text, d.Type)+e.arrayText(d.Type.Array))
		e.w.linef(";")
	case *syntax.LetDecl:
		name := e.affixed(d.Name.Text, d.Type)
		e.w.tok(d.Tok, e.cell(g, ClassDeclType, e.typeText(d.Type), false))
		e.w.str(" ")
		e.w.tok(d.Name, name+e.arrayText(d.Type.Array))
		e.w.str("; always_comb " + name + " = ")
		e.w.str(e.exprText(d.Value))
		e.w.linef(";")
	case *syntax.ConstDecl:
		e.w.tok(d.Tok, "localparam ")
		if e.mode == modeAlign || e.align.Width(g, ClassConstType) > 0 {
			e.w.str(e.cell(g, ClassConstType, e.paramType(d.Type), false) + " ")
		}
		e.w.tok(d.Name, e.cell(g, ClassConstName, d.Name.Text, false))
		e.w.str(" = ")
		e.w.str(e.exprText(d.Value))
		e.w.linef(";")
	case *syntax.ParamDecl:
		e.w.tok(d.Tok, "localparam ")
		if typ := e.paramType(d.Type); typ != "" {
			e.w.str(typ + " ")
		}
		e.w.tok(d.Name, d.Name.Text)
		e.w.str(" = " + e.exprText(d.Value))
		e.w.linef(";")
	case *syntax.AssignDecl:
		e.w.tok(d.Tok, "always_comb ")
		e.w.str(e.cell(g, ClassAssignDst, e.dstText(d.Dst), false))
		e.w.str(" = ")
		e.w.str(e.exprText(d.Value))
		e.w.linef(";")
	case *syntax.AlwaysFfDecl:
		e.alwaysFf(d)
	case *syntax.AlwaysCombDecl:
		e.w.tok(d.Tok, "always_comb begin")
		e.w.nl()
		e.stmtBlock(d, d.Body)
		e.w.linef("end")
	case *syntax.InitialDecl:
		kw := "initial"
		if d.Final {
			kw = "final"
		}
		e.w.tok(d.Tok, kw+" begin")
		e.w.nl()
		e.stmtBlock(d, d.Body)
		e.w.linef("end")
	case *syntax.InstDecl:
		e.inst(d)
	case *syntax.GenerateIfDecl:
		e.generateIf(d)
	case *syntax.GenerateForDecl:
		e.generateFor(d)
	case *syntax.GenerateBlockDecl:
		e.w.tok(d.Tok, "if (1) begin :"+d.Label.Text)
		e.w.nl()
		e.within(e.ns.Push(d.Label.Text), func() { e.body(d.Body) })
		e.w.linef("end")
	case *syntax.FunctionDecl:
		e.function(d)
	case *syntax.StructDecl:
		e.structDecl(d)
	case *syntax.EnumDecl:
		e.enum(d)
	case *syntax.TypeDefDecl:
		e.w.tok(d.Tok, "typedef ")
		e.w.str(e.typeText(d.Type) + " ")
		e.w.tok(d.Name, d.Name.Text+e.arrayText(d.Type.Array))
		e.w.linef(";")
	case *syntax.ModportDecl:
		e.modport(d)
	case *syntax.ConnectDecl:
		e.connectDecl(d)
	case *syntax.UnsafeDecl:
		e.decls(d.Body)
	case *syntax.ImportDecl:
		e.importDecl(d)
	case *syntax.EmbedDecl:
		e.embed(d)
	}
}

func (e *Emitter) dstText(dst []*syntax.IdentExpr) string {
	if len(dst) == 1 {
		return e.identText(dst[0])
	}
	parts := make([]string, len(dst))
	for i, d := range dst {
		parts[i] = e.identText(d)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (e *Emitter) importDecl(d *syntax.ImportDecl) {
	text := e.pathText(d.Path)
	if d.Wildcard {
		text += "::*"
	}
	e.w.tok(d.Tok, "import "+text)
	e.w.linef(";")
}

// embed copies inline SystemVerilog as written.
func (e *Emitter) embed(d *syntax.EmbedDecl) {
	content := strings.TrimPrefix(d.Content.Text, "\n")
	content = strings.TrimRight(content, " \t\n")
	e.w.lead()
	if e.w.smap != nil && d.Tok.Line > 0 {
		e.w.smap.Add(e.w.line, e.w.col, d.Tok.Line-1, d.Tok.Column-1)
	}
	e.w.raw(content)
	e.w.nl()
}

// ---------------------------------------------------------------------------
// Instances

func (e *Emitter) inst(d *syntax.InstDecl) {
	comp, _ := e.componentSymbol(d.Component)
	e.w.tok(d.Tok, e.pathText(d.Component))
	if len(d.Params) > 0 {
		g := e.group(d.Params[0].Name)
		e.w.str(" #(")
		e.w.nl()
		e.w.indent++
		for i, p := range d.Params {
			last := i == len(d.Params)-1
			e.w.tok(p.Name, "."+e.cell(g, ClassInstName, p.Name.Text, false))
			e.w.str(" (" + e.cell(g, ClassInstExpr, e.instValue(p.Name, p.Value), false) + ")")
			if !last {
				e.w.str(",")
			}
			e.w.nl()
		}
		e.w.indent--
		e.w.str(")")
	}

	sym, _ := e.sess.Lookup(e.ns, d.Name.Text)
	array := e.arrayText(d.Array)
	if dims, ok := e.flattenDims(sym); ok {
		array = e.flatArrayText(dims)
	}
	e.w.str(" ")
	e.w.tok(d.Name, d.Name.Text+array)

	if len(d.Ports) == 0 {
		e.w.linef(" ();")
		return
	}
	g := e.group(d.Ports[0].Name)
	e.w.str(" (")
	e.w.nl()
	e.w.indent++
	for i, p := range d.Ports {
		last := i == len(d.Ports)-1
		name := p.Name.Text
		if comp != nil {
			if cp, ok := e.sess.Lookup(comp.Inner(), name); ok {
				name = e.signalName(cp)
			}
		}
		e.w.tok(p.Name, "."+e.cell(g, ClassInstName, name, false))
		e.w.str(" (" + e.cell(g, ClassInstExpr, e.instValue(p.Name, p.Value), false) + ")")
		if !last {
			e.w.str(",")
		}
		e.w.nl()
	}
	e.w.indent--
	e.w.linef(");")
}

// instValue renders a connection. A shorthand connection names the signal
// of the same name in the current scope.
func (e *Emitter) instValue(name syntax.Token, x syntax.Expr) string {
	if x != nil {
		return e.exprText(x)
	}
	if sym, ok := e.sess.Lookup(e.ns, name.Text); ok {
		return e.signalName(sym)
	}
	res, err := e.sess.Resolve([]string{name.Text}, e.ns)
	if err == nil && len(res.Rest) == 0 {
		return e.signalName(res.Found)
	}
	return name.Text
}

// ---------------------------------------------------------------------------
// Generate blocks

func (e *Emitter) generateIf(d *syntax.GenerateIfDecl) {
	for i := range d.Branches {
		b := &d.Branches[i]
		label := e.sess.NameBlock(b)
		if b.Label != nil {
			label = b.Label.Text
		}
		switch {
		case i == 0:
			e.w.tok(d.Tok, "if ("+e.exprText(b.Cond)+") begin :"+label)
		case b.Cond != nil:
			e.w.str("end else if (" + e.exprText(b.Cond) + ") begin :" + label)
		default:
			e.w.str("end else begin :" + label)
		}
		e.w.nl()
		e.within(e.ns.Push(label), func() { e.body(b.Body) })
	}
	e.w.linef("end")
}

func (e *Emitter) generateFor(d *syntax.GenerateForDecl) {
	ns := e.ns.Push(d.Label.Text)
	var header string
	e.within(ns, func() { header = e.forHeader("genvar", d.Var.Text, d.Range) })
	e.w.tok(d.Tok, header+" begin :"+d.Label.Text)
	e.w.nl()
	e.within(ns, func() { e.body(d.Body) })
	e.w.linef("end")
}

// forHeader renders for (<decl> i = lo; i < hi; i++). Reversed loops count
// down from the last value.
func (e *Emitter) forHeader(decl, v string, r syntax.ForRange) string {
	lo, hi := "0", ""
	if r.Range.IsRange() {
		lo, hi = e.exprText(r.Range.Lo), e.exprText(r.Range.Hi)
	} else {
		hi = e.exprText(r.Range.Lo)
	}
	var init, cond, step string
	switch {
	case r.Rev:
		init = hi
		if !r.Range.Inclusive {
			init = e.wrapText(hi) + " - 1"
		}
		cond = v + " >= " + lo
		step = v + "--"
	default:
		init = lo
		op := " < "
		if r.Range.Inclusive {
			op = " <= "
		}
		cond = v + op + hi
		step = v + "++"
	}
	if r.Step != nil {
		step = v + " " + r.StepOp + " " + e.exprText(r.Step)
	}
	return "for (" + decl + " " + v + " = " + init + "; " + cond + "; " + step + ")"
}

func (e *Emitter) wrapText(s string) string {
	if strings.ContainsAny(s, " +-*/%&|^<>?:") {
		return "(" + s + ")"
	}
	return s
}

// ---------------------------------------------------------------------------
// Functions

func (e *Emitter) function(d *syntax.FunctionDecl) {
	fn, ok := e.sess.Lookup(e.ns, d.Name.Text)
	if !ok {
		return
	}
	if len(d.Generics) == 0 {
		e.within(fn.Inner(), func() { e.functionBody(d, d.Name.Text) })
		return
	}
	maps := e.nested[nestedKey{fn: fn.ID, parent: e.compKey}]
	for i, m := range maps {
		if i > 0 {
			e.w.nl()
		}
		e.withSpec(fn.Inner(), m, func() {
			e.functionBody(d, m.Mangled(fn.Name(), e.build.HashedMangledName))
		})
	}
}

func (e *Emitter) functionBody(d *syntax.FunctionDecl, name string) {
	ret := "void"
	if d.Ret != nil {
		ret = e.typeText(d.Ret)
	}
	e.w.tok(d.Tok, "function automatic "+ret+" ")
	e.w.tok(d.Name, name)
	if len(d.Args) == 0 {
		e.w.linef(";")
	} else {
		e.w.str("(")
		e.w.nl()
		e.w.indent++
		e.ports(d.Args)
		e.w.indent--
		e.w.linef(");")
	}
	e.w.indent++
	e.locals(d.Body)
	e.stmts(d.Body)
	e.w.indent--
	e.w.linef("endfunction")
}

// ---------------------------------------------------------------------------
// Types

func (e *Emitter) structDecl(d *syntax.StructDecl) {
	kw := "struct"
	if d.Union {
		kw = "union"
	}
	e.w.tok(d.Tok, "typedef "+kw+" packed {")
	e.w.nl()
	e.w.indent++
	if len(d.Members) > 0 {
		g := e.group(d.Members[0].Name)
		e.within(e.ns.Push(d.Name.Text), func() {
			for _, m := range d.Members {
				e.w.tok(m.Name, e.cell(g, ClassMemberType, e.typeText(m.Type), false))
				e.w.str(" " + m.Name.Text + e.arrayText(m.Type.Array))
				e.w.linef(";")
			}
		})
	}
	e.w.indent--
	e.w.str("} ")
	e.w.tok(d.Name, d.Name.Text)
	e.w.linef(";")
}

func (e *Emitter) enum(d *syntax.EnumDecl) {
	sym, ok := e.sess.Lookup(e.ns, d.Name.Text)
	if !ok {
		return
	}
	props := sym.Props.(*symbol.EnumProps)
	base := fmt.Sprintf("logic [%d-1:0]", max(props.Width, 1))
	if d.Base != nil {
		base = e.typeText(d.Base)
	}
	e.w.tok(d.Tok, "typedef enum "+base+" {")
	e.w.nl()
	e.w.indent++
	g := e.group(d.Tok)
	for i, id := range props.Members {
		m := e.sess.Get(id)
		mp := m.Props.(*symbol.EnumMemberProps)
		var v string
		switch {
		case mp.Known:
			v = mp.Value.Hex()
		case i < len(d.Members) && d.Members[i].Value != nil:
			v = e.exprText(d.Members[i].Value)
		}
		name := d.Name.Text + "_" + m.Name()
		if v == "" {
			e.w.tok(m.Token, name)
		} else {
			e.w.tok(m.Token, e.cell(g, ClassMemberName, name, false))
			e.w.str(" = " + v)
		}
		if i < len(props.Members)-1 {
			e.w.str(",")
		}
		e.w.nl()
	}
	e.w.indent--
	e.w.str("} ")
	e.w.tok(d.Name, d.Name.Text)
	e.w.linef(";")
}

func (e *Emitter) modport(d *syntax.ModportDecl) {
	sym, ok := e.sess.Lookup(e.ns, d.Name.Text)
	if !ok {
		return
	}
	members := e.sess.ModportMembers(sym)
	e.w.tok(d.Tok, "modport ")
	e.w.tok(d.Name, d.Name.Text)
	if len(members) == 0 {
		e.w.linef(" ();")
		return
	}
	e.w.str(" (")
	e.w.nl()
	e.w.indent++
	g := e.group(d.Tok)
	for i, m := range members {
		name := m.Name
		if v, ok := e.sess.Lookup(e.ns, m.Name); ok {
			name = e.signalName(v)
		}
		e.w.tok(m.Token, e.cell(g, ClassModportDir, m.Direction.String(), false))
		e.w.str(" " + name)
		if i < len(members)-1 {
			e.w.str(",")
		}
		e.w.nl()
	}
	e.w.indent--
	e.w.linef(");")
}
