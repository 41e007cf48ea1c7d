package conv

import (
	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/ir"
	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

// arrayLeaf is one scalar item of an expanded array literal and the place
// it lands in: array indices below the destination, plus a bit range when
// the literal spans packed dimensions.
type arrayLeaf struct {
	index  []int
	packed bool
	beg    int
	end    int
	x      syntax.Expr
	t      ir.Type
}

// arrayLeaves expands lit against t. Unpacked dimensions are walked first;
// a type without them is split along its outermost packed dimension, the
// first item landing in the most significant element.
func (c *Context) arrayLeaves(t ir.Type, lit *syntax.ArrayLitExpr) ([]arrayLeaf, error) {
	var out []arrayLeaf
	err := c.expandLevel(t, lit, arrayLeaf{}, &out)
	return out, err
}

func (c *Context) expandLevel(t ir.Type, lit *syntax.ArrayLitExpr, at arrayLeaf, out *[]arrayLeaf) error {
	var (
		dim    int
		packed bool
		elem   ir.Type
		elemW  int
	)
	switch {
	case len(t.Array) > 0:
		dim = t.Array[0]
		elem = t
		elem.Array = t.Array[1:]
	case len(t.Width) > 0:
		total, ok := t.TotalWidth()
		if !ok || t.Width[0] == ir.Unknown {
			return c.fail(diag.MismatchArrayLiteral, lit.Tok, "array literal needs a known size, found %s", t)
		}
		dim = t.Width[0]
		packed = true
		elemW = total / dim
		elem = t
		elem.Width = t.Width[1:]
		if elem.IsStruct() || elem.Kind == ir.TypeEnum {
			elem = typed(t, elemW)
		}
	default:
		return c.fail(diag.MismatchArrayLiteral, lit.Tok, "array literal cannot be assigned to %s", t)
	}
	if dim == ir.Unknown {
		return c.fail(diag.MismatchArrayLiteral, lit.Tok, "array literal needs a known size, found %s", t)
	}

	var (
		items []syntax.Expr
		def   syntax.Expr
	)
	for _, it := range lit.Items {
		if it.Default {
			if def != nil {
				return c.fail(diag.MultipleDefault, it.X.Start(), "array literal has more than one default")
			}
			def = it.X
			continue
		}
		n := 1
		if it.Repeat != nil {
			r, ok, err := c.constInt(it.Repeat)
			if err != nil {
				return err
			}
			if !ok {
				return c.fail(diag.UnevaluableValue, it.Repeat.Start(), "repeat count must be a constant")
			}
			n = r
		}
		if err := c.checkSize(len(items)+n, lit.Tok); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			items = append(items, it.X)
		}
	}
	for def != nil && len(items) < dim {
		items = append(items, def)
	}
	if len(items) != dim {
		return c.fail(diag.MismatchArrayLiteral, lit.Tok, "array literal has %d elements but %d are expected", len(items), dim)
	}

	for i, x := range items {
		next := arrayLeaf{index: at.index, packed: at.packed || packed, beg: at.beg, end: at.end, t: elem}
		if packed {
			e := dim - 1 - i
			next.beg = at.end + (e+1)*elemW - 1
			next.end = at.end + e*elemW
		} else {
			next.index = append(append([]int(nil), at.index...), i)
		}
		if nested, ok := x.(*syntax.ArrayLitExpr); ok {
			if err := c.expandLevel(elem, nested, next, out); err != nil {
				return err
			}
			continue
		}
		next.x = x
		*out = append(*out, next)
	}
	return nil
}

// arrayAssign expands dst = lit into one assignment per element.
func (c *Context) arrayAssign(dst *ir.AssignDestination, lit *syntax.ArrayLitExpr, tok syntax.Token) ([]ir.Statement, error) {
	leaves, err := c.arrayLeaves(dst.Comptime.Type, lit)
	if err != nil {
		return nil, err
	}
	out := make([]ir.Statement, 0, len(leaves))
	for _, l := range leaves {
		d := *dst
		d.Comptime.Type = l.t
		d.Index = append([]ir.Expression(nil), dst.Index...)
		for _, i := range l.index {
			d.Index = append(d.Index, intTerm(i, tok))
		}
		if l.packed {
			if dst.Select != nil {
				return nil, irError("array_literal_on_select", tok)
			}
			if l.beg == l.end {
				d.Select = &ir.VarSelect{Kind: ir.SelectBit, Msb: intTerm(l.beg, tok)}
			} else {
				d.Select = &ir.VarSelect{Kind: ir.SelectColon, Msb: intTerm(l.beg, tok), Lsb: intTerm(l.end, tok)}
			}
		}
		s, err := c.assignTo([]*ir.AssignDestination{&d}, l.x, tok)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// arrayValues evaluates a constant array literal into the element values
// of a parameter of type t.
func (c *Context) arrayValues(t ir.Type, lit *syntax.ArrayLitExpr) ([]value.Value, error) {
	leaves, err := c.arrayLeaves(t, lit)
	if err != nil {
		return nil, err
	}
	n, ok := t.TotalArray()
	if !ok {
		return nil, c.fail(diag.MismatchArrayLiteral, lit.Tok, "array literal needs a known size, found %s", t)
	}
	w, ok := t.TotalWidth()
	if !ok {
		return nil, c.fail(diag.MismatchArrayLiteral, lit.Tok, "array literal needs a known width, found %s", t)
	}
	out := make([]value.Value, n)
	for i := range out {
		out[i] = value.New(0, w, t.Signed)
	}
	for _, l := range leaves {
		v, ok, err := c.constValue(l.x)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, c.fail(diag.UnevaluableValue, l.x.Start(), "array parameter element must be a constant")
		}
		linear := 0
		for k, i := range l.index {
			linear = linear*t.Array[k] + i
		}
		if l.packed {
			out[linear] = out[linear].Assign(v.Resize(l.beg-l.end+1), l.beg, l.end)
		} else {
			out[linear] = v.Resize(w).WithSigned(t.Signed)
		}
	}
	return out, nil
}
