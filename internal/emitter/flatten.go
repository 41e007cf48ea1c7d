package emitter

import (
	"strings"

	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
)

// flattenDims returns the array dimensions of an interface instance or
// modport port that is emitted as a one-dimensional array.
func (e *Emitter) flattenDims(sym *symbol.Symbol) ([]syntax.Expr, bool) {
	if !e.build.FlattenArrayInterface || sym == nil {
		return nil, false
	}
	switch p := sym.Props.(type) {
	case *symbol.InstanceProps:
		if len(p.Decl.Array) < 2 {
			return nil, false
		}
		if comp, ok := e.componentSymbol(p.Decl.Component); ok && comp.Kind == symbol.KindInterface {
			return p.Decl.Array, true
		}
	case *symbol.PortProps:
		d := p.Decl.Direction
		if (d == syntax.DirModport || d == syntax.DirInterface) && len(p.Decl.Array) > 1 {
			return p.Decl.Array, true
		}
	}
	return nil, false
}

// flatArrayText declares a flattened array: [0:(A)*(B)-1].
func (e *Emitter) flatArrayText(dims []syntax.Expr) string {
	if len(dims) == 1 {
		return e.arrayText(dims)
	}
	return " [0:" + e.product(dims) + "-1]"
}

func (e *Emitter) product(dims []syntax.Expr) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = "(" + e.exprText(d) + ")"
	}
	return strings.Join(parts, "*")
}

// flattenSelect maps selects on a multi-dimensional interface array onto
// its flattened index. Selects beyond the array dimensions are rendered
// as they are.
func (e *Emitter) flattenSelect(dims []syntax.Expr, sels []syntax.Select) string {
	n := min(len(sels), len(dims))
	if n == 0 {
		return e.selectsText(sels, nil, "")
	}

	// stride(i) is the product of the dimensions after i.
	stride := func(i int) string {
		if i+1 >= len(dims) {
			return ""
		}
		return "*" + e.product(dims[i+1:])
	}
	var terms []string
	for i := 0; i < n-1; i++ {
		terms = append(terms, "("+e.exprText(sels[i].Msb)+")"+stride(i))
	}
	pre := strings.Join(terms, "+")
	join := func(t string) string {
		if pre == "" {
			return t
		}
		return pre + "+" + t
	}

	k := n - 1
	last := sels[k]
	msb := "(" + e.exprText(last.Msb) + ")"
	var out string
	switch {
	case last.Kind == syntax.SelectIndex && n == len(dims):
		out = "[" + join(msb) + "]"
	case last.Kind == syntax.SelectIndex:
		out = "[" + join(msb+stride(k)) + ":" + join("("+msb+"+1)"+stride(k)) + "-1]"
	case last.Kind == syntax.SelectColon:
		out = "[" + join(msb) + ":" + join("("+e.exprText(last.Lsb)+")") + "]"
	case last.Kind == syntax.SelectPlusColon:
		w := "(" + e.exprText(last.Lsb) + ")"
		out = "[" + join(msb) + ":" + join(msb) + "+" + w + "-1]"
	case last.Kind == syntax.SelectMinusColon:
		w := "(" + e.exprText(last.Lsb) + ")"
		out = "[" + join(msb) + ":" + join(msb) + "-" + w + "+1]"
	case last.Kind == syntax.SelectStep:
		w := "(" + e.exprText(last.Lsb) + ")"
		out = "[" + join(msb+"*"+w) + ":" + join("("+msb+"+1)*"+w) + "-1]"
	}
	return out + e.selectsText(sels[n:], nil, "")
}

// componentSymbol resolves the module or interface named by path,
// following a generic parameter to the symbol bound to it.
func (e *Emitter) componentSymbol(path *syntax.ScopedIdent) (*symbol.Symbol, bool) {
	if path.IsSystemVerilog() {
		return nil, false
	}
	res, err := e.sess.Resolve(path.Names(), e.ns)
	if err != nil {
		return nil, false
	}
	sym := res.Found
	if sym.Kind == symbol.KindGenericParameter {
		g, ok := e.binding(sym)
		if !ok || g.Kind != symbol.GenericSymbol {
			return nil, false
		}
		sym = e.sess.Get(g.Symbol)
	}
	return sym, sym != nil
}
