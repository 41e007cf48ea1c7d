package emitter

import (
	"strings"

	"github.com/roach88/veryl-go/internal/config"
	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
)

// pathText renders a scoped identifier: packages get the project prefix
// and their mangled name, enum members become Enum_MEMBER, generic
// parameters are replaced by their arguments and $sv paths lose the $sv.
func (e *Emitter) pathText(path *syntax.ScopedIdent) string {
	names := path.Names()
	if path.IsSystemVerilog() {
		return strings.Join(names[1:], "::")
	}
	res, err := e.sess.Resolve(names, e.ns)
	if err != nil {
		return strings.Join(names, "::")
	}
	return strings.Join(e.chainText(res, path.Segments), "::")
}

func (e *Emitter) chainText(res *symbol.ResolveResult, segs []syntax.PathSegment) []string {
	var parts []string
	var pkgKey string
	seg := func(i int) syntax.PathSegment {
		if i < len(segs) {
			return segs[i]
		}
		return syntax.PathSegment{Name: res.Chain[i].Token}
	}
	for i := 0; i < len(res.Chain); i++ {
		sym := res.Chain[i]
		switch sym.Kind {
		case symbol.KindModule, symbol.KindInterface, symbol.KindPackage:
			if sym.Namespace.Depth() != 1 {
				parts = append(parts, sym.Name())
				continue
			}
			s := seg(i)
			m, ok := e.genericMap(sym, s)
			if ok {
				pkgKey = m.Key()
				parts = append(parts, e.prefix+m.Mangled(sym.Name(), e.build.HashedMangledName))
			} else {
				pkgKey = ""
				parts = append(parts, e.prefix+sym.Name())
			}
		case symbol.KindEnum:
			if i+1 < len(res.Chain) && res.Chain[i+1].Kind == symbol.KindEnumMember {
				parts = append(parts, sym.Name()+"_"+res.Chain[i+1].Name())
				i++
				continue
			}
			parts = append(parts, sym.Name())
		case symbol.KindFunction:
			parts = append(parts, e.functionName(sym, seg(i), i > 0, pkgKey))
		case symbol.KindGenericParameter:
			g, ok := e.binding(sym)
			if !ok {
				parts = append(parts, sym.Name())
				continue
			}
			if g.Kind == symbol.GenericSymbol && len(res.Rest) > 0 {
				if bound := e.sess.Get(g.Symbol); bound != nil {
					path := append([]string{bound.Name()}, res.Rest...)
					if sub, err := e.sess.Resolve(path, bound.Namespace); err == nil {
						return append(parts, e.chainText(sub, nil)...)
					}
				}
			}
			parts = append(parts, e.genericText(g))
		default:
			parts = append(parts, e.signalName(sym))
		}
	}
	return append(parts, res.Rest...)
}

// functionName renders a function reference. A generic function is named
// after its instantiation, which is recorded against the specialization of
// the package it was reached through, or of the current component.
func (e *Emitter) functionName(fn *symbol.Symbol, seg syntax.PathSegment, viaPackage bool, pkgKey string) string {
	if !fn.IsGeneric() {
		return fn.Name()
	}
	m, err := e.evaluator().GenericMap(fn, seg.Args, seg.Name)
	if err != nil {
		e.report(err)
		return fn.Name()
	}
	parent := e.compKey
	if viaPackage {
		parent = pkgKey
	}
	e.addNested(fn, parent, m)
	return m.Mangled(fn.Name(), e.build.HashedMangledName)
}

// genericText renders the argument bound to a generic parameter.
func (e *Emitter) genericText(g symbol.GenericValue) string {
	switch g.Kind {
	case symbol.GenericConst:
		return g.Text
	case symbol.GenericType:
		return e.typeText(g.Type)
	}
	bound := e.sess.Get(g.Symbol)
	if bound == nil {
		return strings.Join(g.Path, "::")
	}
	ns := bound.Namespace
	switch ns.Depth() {
	case 1:
		return e.prefix + bound.Name()
	case 2:
		if parent, ok := e.sess.Lookup(ns.Pop(), ns[1]); ok && parent.Kind == symbol.KindPackage {
			return e.prefix + parent.Name() + "::" + bound.Name()
		}
	}
	return bound.Name()
}

// signalType returns the declared type of a port or variable.
func signalType(sym *symbol.Symbol) *syntax.TypeExpr {
	switch p := sym.Props.(type) {
	case *symbol.PortProps:
		return p.Decl.Type
	case *symbol.VariableProps:
		return p.Type
	}
	return nil
}

// signalName renders a value symbol, adding the configured prefix and
// suffix to clocks and resets.
func (e *Emitter) signalName(sym *symbol.Symbol) string {
	switch sym.Kind {
	case symbol.KindPort, symbol.KindVariable, symbol.KindLet:
		return e.affixed(sym.Name(), signalType(sym))
	}
	return sym.Name()
}

func (e *Emitter) affixed(name string, t *syntax.TypeExpr) string {
	if t == nil {
		return name
	}
	switch {
	case t.Kind.IsClock():
		pre, suf := e.build.ClockAffix(e.clockNegedge(t.Kind))
		return pre + name + suf
	case t.Kind.IsReset():
		pre, suf := e.build.ResetAffix(e.resetLow(t.Kind))
		return pre + name + suf
	}
	return name
}

func (e *Emitter) clockNegedge(k syntax.TypeKind) bool {
	switch k {
	case syntax.TypeClockNegedge:
		return true
	case syntax.TypeClock:
		return e.build.ClockType == config.ClockNegedge
	}
	return false
}

func (e *Emitter) resetLow(k syntax.TypeKind) bool {
	switch k {
	case syntax.TypeResetAsyncLow, syntax.TypeResetSyncLow:
		return true
	case syntax.TypeReset:
		return e.build.ResetType.IsLow()
	}
	return false
}

func (e *Emitter) resetAsync(k syntax.TypeKind) bool {
	switch k {
	case syntax.TypeResetAsyncHigh, syntax.TypeResetAsyncLow:
		return true
	case syntax.TypeReset:
		return e.build.ResetType.IsAsync()
	}
	return false
}

// resolveSignal finds the symbol named by a plain identifier path.
func (e *Emitter) resolveSignal(path *syntax.ScopedIdent) (*symbol.Symbol, bool) {
	if path.IsSystemVerilog() {
		return nil, false
	}
	res, err := e.sess.Resolve(path.Names(), e.ns)
	if err != nil || len(res.Rest) > 0 {
		return nil, false
	}
	return res.Found, true
}

// ---------------------------------------------------------------------------
// Types

var builtinTypes = map[syntax.TypeKind]string{
	syntax.TypeU8:     "byte unsigned",
	syntax.TypeU16:    "shortint unsigned",
	syntax.TypeU32:    "int unsigned",
	syntax.TypeU64:    "longint unsigned",
	syntax.TypeI8:     "byte signed",
	syntax.TypeI16:    "shortint signed",
	syntax.TypeI32:    "int signed",
	syntax.TypeI64:    "longint signed",
	syntax.TypeF32:    "shortreal",
	syntax.TypeF64:    "real",
	syntax.TypeString: "string",
	syntax.TypeType:   "type",
}

// typeText renders the packed part of a type: logic signed [8-1:0].
func (e *Emitter) typeText(t *syntax.TypeExpr) string {
	if t == nil {
		return "logic"
	}
	var sb strings.Builder
	switch {
	case t.Kind == syntax.TypeNamed:
		sb.WriteString(e.pathText(t.Name))
	case t.Kind == syntax.TypeBit:
		sb.WriteString("bit")
	default:
		if s, ok := builtinTypes[t.Kind]; ok {
			sb.WriteString(s)
		} else {
			sb.WriteString("logic")
		}
	}
	if t.Signed {
		sb.WriteString(" signed")
	}
	for i, w := range t.Width {
		if i == 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("[")
		sb.WriteString(e.minusOne(w))
		sb.WriteString(":0]")
	}
	return sb.String()
}

// arrayText renders unpacked dimensions: [0:N-1][0:M-1].
func (e *Emitter) arrayText(dims []syntax.Expr) string {
	if len(dims) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(" ")
	for _, d := range dims {
		sb.WriteString("[0:")
		sb.WriteString(e.minusOne(d))
		sb.WriteString("]")
	}
	return sb.String()
}

// minusOne renders x-1, parenthesizing x unless it is a single token.
func (e *Emitter) minusOne(x syntax.Expr) string {
	return e.wrap(x) + "-1"
}

// wrap renders x, parenthesized unless it is a single token.
func (e *Emitter) wrap(x syntax.Expr) string {
	s := e.exprText(x)
	if isAtom(x) {
		return s
	}
	return "(" + s + ")"
}

func isAtom(x syntax.Expr) bool {
	switch x := x.(type) {
	case *syntax.NumberLit, *syntax.BoolLit, *syntax.ParenExpr:
		return true
	case *syntax.IdentExpr:
		return len(x.Selects) == 0 && len(x.Members) == 0
	}
	return false
}
