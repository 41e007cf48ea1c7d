package emitter

import (
	"strconv"
	"strings"

	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
)

// exprText renders an expression on one line.
func (e *Emitter) exprText(x syntax.Expr) string {
	switch x := x.(type) {
	case nil:
		return ""
	case *syntax.NumberLit:
		return x.Tok.Text
	case *syntax.BoolLit:
		if x.Val {
			return "1'b1"
		}
		return "1'b0"
	case *syntax.StringLit:
		return `"` + x.Tok.Text + `"`
	case *syntax.IdentExpr:
		return e.identText(x)
	case *syntax.UnaryExpr:
		return x.Tok.Text + e.exprText(x.X)
	case *syntax.BinaryExpr:
		return e.exprText(x.X) + " " + x.Op.SVString() + " " + e.exprText(x.Y)
	case *syntax.ParenExpr:
		return "(" + e.exprText(x.X) + ")"
	case *syntax.IfExpr:
		return "((" + e.exprText(x.Cond) + ") ? (" + e.exprText(x.Then) + ") : (" + e.exprText(x.Else) + "))"
	case *syntax.CaseExpr:
		return e.caseExpr(x)
	case *syntax.SwitchExpr:
		return e.switchExpr(x)
	case *syntax.InsideExpr:
		return e.insideExpr(x)
	case *syntax.ConcatExpr:
		items := make([]string, len(x.Items))
		for i, it := range x.Items {
			items[i] = e.exprText(it.X)
			if it.Repeat != nil {
				items[i] = "{" + e.exprText(it.Repeat) + "{" + items[i] + "}}"
			}
		}
		return "{" + strings.Join(items, ", ") + "}"
	case *syntax.ArrayLitExpr:
		return e.arrayLit(x)
	case *syntax.StructLitExpr:
		items := make([]string, 0, len(x.Items)+1)
		for _, it := range x.Items {
			items = append(items, it.Name.Text+": "+e.exprText(it.Value))
		}
		if x.Default != nil {
			items = append(items, "default: "+e.exprText(x.Default))
		}
		return "'{" + strings.Join(items, ", ") + "}"
	case *syntax.CallExpr:
		return e.callText(x)
	case *syntax.AsExpr:
		return e.castText(x)
	case *syntax.TypeValueExpr:
		return e.typeText(x.Type)
	case *syntax.MsbExpr:
		return e.msbText()
	case *syntax.LsbExpr:
		return "0"
	}
	return ""
}

// condText renders the test of one case arm against subject: a wildcard
// equality for a value, a pair of comparisons for a range.
func (e *Emitter) condText(subject string, r syntax.RangeItem) string {
	lo := e.exprText(r.Lo)
	if !r.IsRange() {
		return "(" + subject + ") ==? (" + lo + ")"
	}
	op := "<"
	if r.Inclusive {
		op = "<="
	}
	return "((" + subject + ") >= (" + lo + ")) && ((" + subject + ") " + op + " (" + e.exprText(r.Hi) + "))"
}

func joinConds(conds []string) string {
	if len(conds) == 1 {
		return conds[0]
	}
	wrapped := make([]string, len(conds))
	for i, c := range conds {
		wrapped[i] = "(" + c + ")"
	}
	return strings.Join(wrapped, " || ")
}

func ternaryChain(conds, values []string, def string) string {
	var sb strings.Builder
	sb.WriteString("(")
	for i := range conds {
		sb.WriteString("(" + conds[i] + ") ? (" + values[i] + ") : ")
	}
	sb.WriteString("(" + def + "))")
	return sb.String()
}

func (e *Emitter) caseExpr(x *syntax.CaseExpr) string {
	subject := e.exprText(x.Subject)
	var conds, values []string
	for _, it := range x.Items {
		cs := make([]string, len(it.Conds))
		for i, c := range it.Conds {
			cs[i] = e.condText(subject, c)
		}
		conds = append(conds, joinConds(cs))
		values = append(values, e.exprText(it.Value))
	}
	return ternaryChain(conds, values, e.defaultText(x.Default))
}

func (e *Emitter) switchExpr(x *syntax.SwitchExpr) string {
	var conds, values []string
	for _, it := range x.Items {
		cs := make([]string, len(it.Conds))
		for i, c := range it.Conds {
			cs[i] = e.exprText(c)
		}
		conds = append(conds, joinConds(cs))
		values = append(values, e.exprText(it.Value))
	}
	return ternaryChain(conds, values, e.defaultText(x.Default))
}

func (e *Emitter) defaultText(x syntax.Expr) string {
	if x == nil {
		return "'x"
	}
	return e.exprText(x)
}

// insideExpr renders inside/outside either as a SystemVerilog inside
// operator or, when configured, as an expanded chain of comparisons.
func (e *Emitter) insideExpr(x *syntax.InsideExpr) string {
	subject := e.exprText(x.Subject)
	var out string
	if e.build.ExpandInsideOperation {
		items := make([]string, len(x.Items))
		for i, it := range x.Items {
			items[i] = e.condText(subject, it)
		}
		out = "(" + strings.Join(items, " || ") + ")"
	} else {
		items := make([]string, len(x.Items))
		for i, it := range x.Items {
			items[i] = e.insideItem(it)
		}
		out = "(" + subject + " inside {" + strings.Join(items, ", ") + "})"
	}
	if x.Outside {
		return "!" + out
	}
	return out
}

// insideItem renders one element of an inside set. Exclusive ranges lose
// one from the upper bound.
func (e *Emitter) insideItem(r syntax.RangeItem) string {
	if !r.IsRange() {
		return e.exprText(r.Lo)
	}
	hi := e.exprText(r.Hi)
	if !r.Inclusive {
		hi = e.minusOne(r.Hi)
	}
	return "[" + e.exprText(r.Lo) + ":" + hi + "]"
}

// arrayLit expands repeated elements when the count is constant.
func (e *Emitter) arrayLit(x *syntax.ArrayLitExpr) string {
	var items []string
	for _, it := range x.Items {
		v := e.exprText(it.X)
		switch {
		case it.Default:
			items = append(items, "default: "+v)
		case it.Repeat != nil:
			n, ok := e.evaluator().EvalInt(it.Repeat)
			if !ok || n > e.build.EvaluateSize {
				items = append(items, e.exprText(it.Repeat)+"{"+v+"}")
				continue
			}
			for i := 0; i < n; i++ {
				items = append(items, v)
			}
		default:
			items = append(items, v)
		}
	}
	return "'{" + strings.Join(items, ", ") + "}"
}

// callText renders a function or system call. Named arguments are put in
// declaration order.
func (e *Emitter) callText(x *syntax.CallExpr) string {
	var name string
	if x.System != nil {
		name = x.System.Text
	} else {
		name = e.identText(x.Callee)
	}
	args := make([]string, len(x.Args))
	for i, a := range x.Args {
		args[i] = e.exprText(a.X)
	}
	if len(x.Args) > 0 && x.Args[0].Name != nil && x.Callee != nil {
		if ordered, ok := e.orderArgs(x); ok {
			args = ordered
		}
	}
	return name + "(" + strings.Join(args, ", ") + ")"
}

func (e *Emitter) orderArgs(x *syntax.CallExpr) ([]string, bool) {
	fn, ok := e.resolveSignal(x.Callee.Path)
	if !ok || fn.Kind != symbol.KindFunction || len(x.Callee.Members) > 0 {
		return nil, false
	}
	byName := make(map[string]syntax.Expr, len(x.Args))
	for _, a := range x.Args {
		if a.Name == nil {
			return nil, false
		}
		byName[a.Name.Text] = a.X
	}
	var out []string
	for _, id := range fn.Props.(*symbol.FunctionProps).Args {
		arg := e.sess.Get(id)
		if v, ok := byName[arg.Name()]; ok {
			out = append(out, e.exprText(v))
		}
	}
	return out, len(out) == len(x.Args)
}

// castText lowers x as T. Clock and reset casts invert the signal when the
// edge or polarity differs; other casts use SystemVerilog casts.
func (e *Emitter) castText(x *syntax.AsExpr) string {
	v := e.exprText(x.X)
	t := x.Type
	switch {
	case t.Kind.IsReset():
		src, ok := e.exprType(x.X)
		if ok && src.Kind.IsReset() && e.resetLow(src.Kind) != e.resetLow(t.Kind) {
			return "~" + v
		}
		return v
	case t.Kind.IsClock():
		src, ok := e.exprType(x.X)
		if ok && src.Kind.IsClock() && e.clockNegedge(src.Kind) != e.clockNegedge(t.Kind) {
			return "~" + v
		}
		return v
	case t.Kind == syntax.TypeNamed:
		return e.typeText(t) + "'(" + v + ")"
	case len(t.Width) == 1:
		return e.wrap(t.Width[0]) + "'(" + v + ")"
	}
	if w, ok := symbol.BaseWidth(t.Kind); ok && t.Kind != syntax.TypeLogic && t.Kind != syntax.TypeBit && t.Kind != syntax.TypeBool {
		cast := strconv.Itoa(w) + "'(" + v + ")"
		if e.evaluator().TypeSigned(t) {
			return "signed'(" + cast + ")"
		}
		return cast
	}
	return v
}

// exprType returns the declared type of a plain signal reference.
func (e *Emitter) exprType(x syntax.Expr) (*syntax.TypeExpr, bool) {
	id, ok := x.(*syntax.IdentExpr)
	if !ok || len(id.Members) > 0 {
		return nil, false
	}
	sym, ok := e.resolveSignal(id.Path)
	if !ok {
		return nil, false
	}
	t := signalType(sym)
	return t, t != nil
}

// ---------------------------------------------------------------------------
// Identifiers and selects

// selectCtx tracks the dimensions of the signal being selected, for msb.
type selectCtx struct {
	dims []syntax.Expr
	pos  int
	name string
}

// identText renders a signal reference with its selects and members.
func (e *Emitter) identText(x *syntax.IdentExpr) string {
	base := e.pathText(x.Path)
	sym, _ := e.resolveSignal(x.Path)
	if len(x.Members) == 0 && len(x.Selects) == 0 {
		return base
	}

	var sb strings.Builder
	sb.WriteString(base)
	if dims, ok := e.flattenDims(sym); ok {
		sb.WriteString(e.flattenSelect(dims, x.Selects))
	} else {
		sb.WriteString(e.selectsText(x.Selects, signalDims(sym), base))
	}

	for _, m := range x.Members {
		name := m.Name.Text
		var dims []syntax.Expr
		if member, ok := e.memberSymbol(x, m.Name.Text); ok {
			name = e.signalName(member)
			dims = signalDims(member)
		}
		sb.WriteString(".")
		sb.WriteString(name)
		sb.WriteString(e.selectsText(m.Selects, dims, name))
	}
	return sb.String()
}

// memberSymbol resolves the first member access of x.
func (e *Emitter) memberSymbol(x *syntax.IdentExpr, name string) (*symbol.Symbol, bool) {
	if x.Path.IsSystemVerilog() || len(x.Members) == 0 || x.Members[0].Name.Text != name {
		return nil, false
	}
	path := append(x.Path.Names(), name)
	res, err := e.sess.Resolve(path, e.ns)
	if err != nil || len(res.Rest) > 0 {
		return nil, false
	}
	return res.Found, true
}

// signalDims lists the selectable dimensions of a signal: unpacked array
// dimensions first, then packed widths.
func signalDims(sym *symbol.Symbol) []syntax.Expr {
	if sym == nil {
		return nil
	}
	t := signalType(sym)
	if t == nil {
		return nil
	}
	return append(append([]syntax.Expr(nil), t.Array...), t.Width...)
}

func (e *Emitter) selectsText(sels []syntax.Select, dims []syntax.Expr, name string) string {
	var sb strings.Builder
	for i, s := range sels {
		saved := e.sel
		e.sel = &selectCtx{dims: dims, pos: i, name: name}
		sb.WriteString(e.selectText(s))
		e.sel = saved
	}
	return sb.String()
}

func (e *Emitter) selectText(s syntax.Select) string {
	msb := e.exprText(s.Msb)
	switch s.Kind {
	case syntax.SelectColon:
		return "[" + msb + ":" + e.exprText(s.Lsb) + "]"
	case syntax.SelectPlusColon:
		return "[" + msb + "+:" + e.exprText(s.Lsb) + "]"
	case syntax.SelectMinusColon:
		return "[" + msb + "-:" + e.exprText(s.Lsb) + "]"
	case syntax.SelectStep:
		w := e.exprText(s.Lsb)
		return "[(" + msb + ")*(" + w + ")+:(" + w + ")]"
	}
	return "[" + msb + "]"
}

// msbText renders the highest index of the dimension being selected.
func (e *Emitter) msbText() string {
	if e.sel == nil {
		return "0"
	}
	if e.sel.pos < len(e.sel.dims) {
		d := e.sel.dims[e.sel.pos]
		saved := e.sel
		e.sel = nil
		s := e.minusOne(d)
		e.sel = saved
		return s
	}
	return "$bits(" + e.sel.name + ")-1"
}
