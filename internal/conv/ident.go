package conv

import (
	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/ir"
	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

// access is an identifier resolved to local storage, with its array
// indices and part select.
type access struct {
	entry varEntry
	path  ir.VarPath
	index []ir.Expression
	sel   *ir.VarSelect
	c     ir.Comptime
}

// selGroup is one element of a dotted identifier with the selects written
// after it.
type selGroup struct {
	name string
	tok  syntax.Token
	sels []syntax.Select
}

func identGroups(x *syntax.IdentExpr) []selGroup {
	out := make([]selGroup, 0, 1+len(x.Members))
	out = append(out, selGroup{name: x.Path.First().Text, tok: x.Path.First(), sels: x.Selects})
	for _, m := range x.Members {
		out = append(out, selGroup{name: m.Name.Text, tok: m.Name, sels: m.Selects})
	}
	return out
}

// localAccess resolves x against the variables of the component. The
// longest dotted prefix naming a local variable wins; the members after it
// select struct members.
func (c *Context) localAccess(x *syntax.IdentExpr) (*access, bool, error) {
	if len(x.Path.Segments) != 1 || len(x.Path.Segments[0].Args) > 0 {
		return nil, false, nil
	}
	groups := identGroups(x)
	for n := len(groups); n >= 1; n-- {
		path := make(ir.VarPath, n)
		for i := 0; i < n; i++ {
			path[i] = groups[i].name
		}
		e, ok := c.findPath(path)
		if !ok {
			continue
		}
		a := &access{entry: e, path: path, c: e.c}
		a.c.Token = x.Path.First()
		var sels []syntax.Select
		for _, g := range groups[:n] {
			sels = append(sels, g.sels...)
		}
		switch e.kind {
		case entryOpaque:
			a.c = ir.NewUnknown(x.Path.First())
			return a, true, nil
		case entryGroup:
			if n < len(groups) {
				g := groups[n]
				return nil, false, c.fail(diag.UndefinedIdentifier, g.tok, "%s has no member %s", path, g.name)
			}
			a.c = ir.NewUnknown(x.Path.First())
			return a, true, nil
		case entryConst:
			if len(sels) > 0 || n < len(groups) {
				v, ok := e.c.Numeric()
				if !ok {
					return nil, false, irError("select_of_constant", x.Path.First())
				}
				sv, err := c.selectConst(v, sels)
				if err != nil {
					return nil, false, err
				}
				a.c = ir.NewValue(sv, x.Path.First())
			}
			return a, true, nil
		}
		if err := c.applySelects(a, sels, groups[n:]); err != nil {
			return nil, false, err
		}
		return a, true, nil
	}
	return nil, false, nil
}

// selectConst applies constant bit selects to a constant value.
func (c *Context) selectConst(v value.Value, sels []syntax.Select) (value.Value, error) {
	for _, s := range sels {
		c.msb = append(c.msb, v.Width())
		beg, end, ok, err := c.constRange(s)
		c.msb = c.msb[:len(c.msb)-1]
		if err != nil {
			return value.Value{}, err
		}
		if !ok {
			return value.Value{}, c.fail(diag.UnevaluableValue, s.Tok, "select of a constant must be constant")
		}
		if beg >= v.Width() || end < 0 || beg < end {
			return value.Value{}, c.fail(diag.InvalidSelect, s.Tok, "select [%d:%d] is out of range of %d bits", beg, end, v.Width())
		}
		v = v.Select(beg, end)
	}
	return v, nil
}

// constRange evaluates a select with constant bounds to [beg:end].
func (c *Context) constRange(s syntax.Select) (beg, end int, ok bool, err error) {
	msb, ok, err := c.constInt(s.Msb)
	if err != nil || !ok {
		return 0, 0, false, err
	}
	if s.Kind == syntax.SelectIndex {
		return msb, msb, true, nil
	}
	lsb, ok, err := c.constInt(s.Lsb)
	if err != nil || !ok {
		return 0, 0, false, err
	}
	switch s.Kind {
	case syntax.SelectColon:
		return msb, lsb, true, nil
	case syntax.SelectPlusColon:
		return msb + lsb - 1, msb, true, nil
	case syntax.SelectMinusColon:
		return msb, msb - lsb + 1, true, nil
	}
	return (msb+1)*lsb - 1, msb * lsb, true, nil
}

func (c *Context) constInt(x syntax.Expr) (int, bool, error) {
	v, ok, err := c.constValue(x)
	if err != nil || !ok {
		return 0, false, err
	}
	n, ok := v.ToInteger()
	return n, ok, nil
}

func exprInt(e ir.Expression) (int, bool) {
	ct := e.Comptime()
	if ct == nil {
		return 0, false
	}
	v, ok := ct.ConstValue()
	if !ok {
		return 0, false
	}
	return v.ToInteger()
}

var selectKinds = map[syntax.SelectKind]ir.SelectKind{
	syntax.SelectIndex:      ir.SelectBit,
	syntax.SelectColon:      ir.SelectColon,
	syntax.SelectPlusColon:  ir.SelectPlusColon,
	syntax.SelectMinusColon: ir.SelectMinusColon,
	syntax.SelectStep:       ir.SelectStep,
}

// applySelects resolves array indices, a part select and struct members of
// a variable access.
func (c *Context) applySelects(a *access, sels []syntax.Select, members []selGroup) error {
	v := c.body.Variables[a.entry.id]
	t := v.Type
	tok := a.c.Token

	// Array indices come first.
	for len(t.Array) > 0 && len(sels) > 0 {
		s := sels[0]
		if s.Kind != syntax.SelectIndex {
			return irError("array_range_select", s.Tok)
		}
		c.msb = append(c.msb, t.Array[0])
		idx, _, err := c.evalExpr(s.Msb, 0)
		c.msb = c.msb[:len(c.msb)-1]
		if err != nil {
			return err
		}
		if n, ok := exprInt(idx); ok && t.Array[0] != ir.Unknown && n >= t.Array[0] {
			return c.fail(diag.InvalidSelect, s.Tok, "index %d is out of range of %d elements", n, t.Array[0])
		}
		a.index = append(a.index, idx)
		t.Array = t.Array[1:]
		sels = sels[1:]
	}

	var (
		inMember bool
		off      int
		parts    []ir.PartSelect
		beg, end int
	)
	if len(sels) > 0 {
		if len(t.Array) > 0 {
			return irError("array_range_select", sels[0].Tok)
		}
		rt, sel, err := c.partSelect(t, sels, tok)
		if err != nil {
			return err
		}
		a.sel = sel
		t = rt
	}

	for _, m := range members {
		if a.sel != nil || len(t.Array) > 0 {
			return irError("member_after_select", m.tok)
		}
		if !t.IsStruct() {
			return c.fail(diag.UndefinedIdentifier, m.tok, "%s has no member %s", t, m.name)
		}
		idx := -1
		for i, mm := range t.Members {
			if mm.Name == m.name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return c.fail(diag.UndefinedIdentifier, m.tok, "%s has no member %s", t, m.name)
		}
		lsb := 0
		if t.Kind == ir.TypeStruct {
			for _, later := range t.Members[idx+1:] {
				w, ok := later.Type.TotalWidth()
				if !ok {
					return irError("unknown_member_width", m.tok)
				}
				lsb += w
			}
		}
		mt := t.Members[idx].Type
		w, ok := mt.TotalWidth()
		if !ok {
			return irError("unknown_member_width", m.tok)
		}
		off += lsb
		inMember = true
		parts = append(parts, ir.PartSelect{Member: m.name, Beg: off + w - 1, End: off, Type: mt})
		t = mt
		beg, end = off+w-1, off

		if len(m.sels) > 0 {
			c.msb = append(c.msb, w)
			for _, s := range m.sels {
				sb, se, ok, err := c.constRange(s)
				if err != nil {
					c.msb = c.msb[:len(c.msb)-1]
					return err
				}
				if !ok {
					c.msb = c.msb[:len(c.msb)-1]
					return irError("dynamic_member_select", s.Tok)
				}
				if sb >= beg-off+1 || se < 0 || sb < se {
					c.msb = c.msb[:len(c.msb)-1]
					return c.fail(diag.InvalidSelect, s.Tok, "select [%d:%d] is out of range of %s", sb, se, m.name)
				}
				beg, end = off+sb, off+se
				t = typed(t, sb-se+1)
			}
			c.msb = c.msb[:len(c.msb)-1]
		}
	}
	if inMember {
		if beg == end {
			a.sel = &ir.VarSelect{Kind: ir.SelectBit, Msb: intTerm(beg, tok)}
		} else {
			a.sel = &ir.VarSelect{Kind: ir.SelectColon, Msb: intTerm(beg, tok), Lsb: intTerm(end, tok)}
		}
	}

	a.c.Type = t
	a.c.PartSelect = parts
	c.constAccess(a, v)
	return nil
}

// typed returns an unsigned vector of width w with the state of t.
func typed(t ir.Type, w int) ir.Type {
	out := ir.NewLogic(w)
	if t.Is2State() {
		out.Kind = ir.TypeBit
	}
	return out
}

// partSelect converts the single select written after the array indices.
func (c *Context) partSelect(t ir.Type, sels []syntax.Select, tok syntax.Token) (ir.Type, *ir.VarSelect, error) {
	if len(sels) > 1 {
		return t, nil, irError("multiple_select", sels[1].Tok)
	}
	s := sels[0]
	total, known := t.TotalWidth()
	elem := 1
	if len(t.Width) > 1 && known {
		elem = total / t.Width[0]
	}

	c.msb = append(c.msb, total)
	defer func() { c.msb = c.msb[:len(c.msb)-1] }()
	if len(t.Width) > 0 && elem > 1 {
		c.msb[len(c.msb)-1] = t.Width[0]
	}

	msb, _, err := c.evalExpr(s.Msb, 0)
	if err != nil {
		return t, nil, err
	}
	sel := &ir.VarSelect{Kind: selectKinds[s.Kind], Msb: msb}
	if s.Lsb != nil {
		if sel.Lsb, _, err = c.evalExpr(s.Lsb, 0); err != nil {
			return t, nil, err
		}
	}

	rt := typed(t, 1)
	switch s.Kind {
	case syntax.SelectIndex:
		if elem > 1 {
			sel.Kind = ir.SelectStep
			sel.Lsb = intTerm(elem, tok)
			rt = t
			rt.Width = t.Width[1:]
			rt.Array = nil
			if rt.IsStruct() || rt.Kind == ir.TypeEnum {
				rt = typed(t, elem)
			}
		}
	case syntax.SelectColon:
		hi, ok1 := exprInt(sel.Msb)
		lo, ok2 := exprInt(sel.Lsb)
		if elem > 1 {
			if !ok1 || !ok2 {
				return t, nil, irError("dynamic_element_range", s.Tok)
			}
			sel.Msb = intTerm((hi+1)*elem-1, tok)
			sel.Lsb = intTerm(lo*elem, tok)
			hi, lo = (hi+1)*elem-1, lo*elem
		}
		if ok1 && ok2 {
			rt = typed(t, hi-lo+1)
		} else {
			rt = typed(t, 1)
			rt.Width = ir.Shape{ir.Unknown}
		}
	case syntax.SelectPlusColon, syntax.SelectMinusColon, syntax.SelectStep:
		if w, ok := exprInt(sel.Lsb); ok {
			rt = typed(t, w)
		} else {
			return t, nil, c.fail(diag.UnevaluableValue, s.Tok, "select width must be a constant")
		}
	}

	if known {
		if b, e, ok := sel.Range(c); ok && (b >= total || e < 0 || b < e) {
			return t, nil, c.fail(diag.InvalidSelect, s.Tok, "select [%d:%d] is out of range of %d bits", b, e, total)
		}
	}
	return rt, sel, nil
}

// constAccess fills in the value of a parameter or const access when every
// index and select is constant.
func (c *Context) constAccess(a *access, v *ir.Variable) {
	if v.Kind != ir.VarParam && v.Kind != ir.VarConst {
		return
	}
	a.c.Value = ir.ValueVariant{}
	if !a.c.IsConst {
		return
	}
	linear := 0
	dims := v.Type.Array
	for i, idx := range a.index {
		n, ok := exprInt(idx)
		if !ok {
			a.c.IsConst = false
			return
		}
		linear = linear*dims[i] + n
	}
	if len(a.index) < len(dims) {
		return
	}
	x, ok := v.Value(linear)
	if !ok {
		a.c.IsConst = false
		return
	}
	if a.sel != nil {
		beg, end, ok := a.sel.Range(c)
		if !ok {
			a.c.IsConst = false
			return
		}
		x = x.Select(beg, end)
	}
	a.c.Value = ir.ValueVariant{Kind: ir.ValueNumeric, Numeric: x.WithSigned(a.c.Type.Signed)}
}

func (c *Context) accessTerm(a *access) ir.Expression {
	switch a.entry.kind {
	case entryVar:
		return &ir.Term{Factor: ir.NewVariableFactor(a.entry.id, a.index, a.sel, a.c)}
	case entryConst:
		return valueTerm(a.c)
	}
	return &ir.Term{Factor: ir.NewUnknownFactor(a.c.Token)}
}

// identExpr converts an identifier used as a value.
func (c *Context) identExpr(x *syntax.IdentExpr) (ir.Expression, error) {
	tok := x.Path.First()
	if x.Path.IsSystemVerilog() {
		return &ir.Term{Factor: ir.NewUnknownFactor(tok)}, nil
	}
	a, found, err := c.localAccess(x)
	if err != nil {
		return nil, err
	}
	if found {
		return c.accessTerm(a), nil
	}

	if len(x.Path.Segments) == 1 && len(x.Members) == 0 {
		if g, ok := c.generic(tok.Text); ok {
			return c.genericTerm(g, x.Selects, tok)
		}
	}

	sym, err := c.resolvePath(x.Path)
	if err != nil {
		return nil, err
	}
	switch sym.Kind {
	case symbol.KindVariable, symbol.KindLet, symbol.KindPort, symbol.KindParameter, symbol.KindConst, symbol.KindGenvar:
		if c.local(sym) {
			return nil, c.fail(diag.ReferringBeforeDefinition, tok, "%s is referred before it is defined", sym.Name())
		}
	}

	switch sym.Kind {
	case symbol.KindParameter, symbol.KindConst, symbol.KindEnumMember, symbol.KindEnumMemberMangled:
		if len(x.Members) > 0 {
			return nil, irError("member_of_constant", x.Members[0].Name)
		}
		v, ok := c.evaluator(c.ns).Eval(&syntax.IdentExpr{Path: x.Path, Selects: x.Selects})
		if !ok {
			return nil, c.fail(diag.UnevaluableValue, tok, "%s cannot be evaluated", x.Path)
		}
		ct := ir.NewValue(v, tok)
		if len(x.Selects) == 0 {
			if t := c.constType(sym); !t.IsUnknown() && !t.IsType() {
				t.Signed = t.Signed || v.Signed()
				ct.Type = t
			}
		}
		return valueTerm(ct), nil
	case symbol.KindStruct, symbol.KindUnion, symbol.KindEnum, symbol.KindTypeDef:
		return valueTerm(ir.NewTypeValue(c.symbolType(sym, 0), tok)), nil
	case symbol.KindGenericParameter:
		if g, ok := c.genericFor(sym); ok {
			return c.genericTerm(g, x.Selects, tok)
		}
		if v, ok := c.evaluator(c.ns).Eval(x); ok {
			return valueTerm(ir.NewValue(v, tok)), nil
		}
		return &ir.Term{Factor: ir.NewUnknownFactor(tok)}, nil
	case symbol.KindFunction:
		return nil, c.fail(diag.MismatchType, tok, "function %s is used without a call", sym.Name())
	case symbol.KindVariable, symbol.KindLet, symbol.KindPort, symbol.KindSystemVerilog,
		symbol.KindModportVariableMember, symbol.KindInstance:
		return &ir.Term{Factor: ir.NewUnknownFactor(tok)}, nil
	}
	return nil, c.fail(diag.MismatchType, tok, "%s %s is not a value", sym.Kind, sym.Name())
}

// constType returns the declared type of a parameter, const or enum member.
func (c *Context) constType(sym *symbol.Symbol) ir.Type {
	switch p := sym.Props.(type) {
	case *symbol.ValueProps:
		if p.Type != nil {
			return c.typeIn(p.Type, sym.Namespace, 0)
		}
	case *symbol.EnumMemberProps:
		if e := c.sess.Get(p.Enum); e != nil {
			return c.symbolType(e, 0)
		}
	case *symbol.MangledProps:
		if m := c.sess.Get(p.Member); m != nil {
			return c.constType(m)
		}
	}
	return ir.Type{Kind: ir.TypeUnknown}
}

func (c *Context) genericTerm(g symbol.GenericValue, sels []syntax.Select, tok syntax.Token) (ir.Expression, error) {
	if g.Kind != symbol.GenericConst {
		return valueTerm(ir.NewTypeValue(c.genericType(g, 0), tok)), nil
	}
	v, err := c.selectConst(g.Value, sels)
	if err != nil {
		return nil, err
	}
	return valueTerm(ir.NewValue(v, tok)), nil
}

// destination resolves the target of an assignment.
func (c *Context) destination(x *syntax.IdentExpr) (*ir.AssignDestination, *ir.Variable, error) {
	tok := x.Path.First()
	a, found, err := c.localAccess(x)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		if x.Path.IsSystemVerilog() {
			return nil, nil, irError("assign_to_systemverilog", tok)
		}
		sym, err := c.resolvePath(x.Path)
		if err != nil {
			return nil, nil, err
		}
		if c.local(sym) && (sym.Kind == symbol.KindVariable || sym.Kind == symbol.KindLet || sym.Kind == symbol.KindPort) {
			return nil, nil, c.fail(diag.ReferringBeforeDefinition, tok, "%s is referred before it is defined", sym.Name())
		}
		return nil, nil, c.fail(diag.MismatchAssignment, tok, "%s %s cannot be assigned", sym.Kind, sym.Name())
	}
	if a.entry.kind != entryVar {
		return nil, nil, c.fail(diag.MismatchAssignment, tok, "%s cannot be assigned", a.path)
	}
	v := c.body.Variables[a.entry.id]
	return &ir.AssignDestination{
		ID:       v.ID,
		Path:     v.Path,
		Index:    a.index,
		Select:   a.sel,
		Comptime: a.c,
		Token:    tok,
	}, v, nil
}
