package conv

import (
	"slices"
	"strings"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

// assignOps maps the operator of a compound assignment or a for step,
// without its trailing '=', to the binary operator it applies.
var assignOps = map[string]value.Op{
	"+":   value.Add,
	"-":   value.Sub,
	"*":   value.Mul,
	"/":   value.Div,
	"%":   value.Rem,
	"&":   value.BitAnd,
	"|":   value.BitOr,
	"^":   value.BitXor,
	"<<":  value.LogicShiftL,
	">>":  value.LogicShiftR,
	"<<<": value.ArithShiftL,
	">>>": value.ArithShiftR,
}

func compoundOp(op string) (value.Op, bool) {
	o, ok := assignOps[strings.TrimSuffix(op, "=")]
	return o, ok
}

// EvalForRange returns the values a for loop iterates over.
//
// Without a step the loop visits lo..hi (hi included for ..=), reversed
// under rev. With a step it starts at lo and applies the step operator
// while the value stays below hi; a step that leaves the value unchanged
// is reported as invalid_for_step and ends the list.
func (c *Context) EvalForRange(r syntax.ForRange, tok syntax.Token) ([]int, error) {
	if !r.Range.IsRange() {
		return nil, nil
	}
	lo, err := c.forBound(r.Range.Lo)
	if err != nil {
		return nil, err
	}
	hi, err := c.forBound(r.Range.Hi)
	if err != nil {
		return nil, err
	}
	if r.Range.Inclusive {
		hi++
	}

	var out []int
	if r.Step == nil {
		if hi > lo {
			if err := c.checkSize(hi-lo, tok); err != nil {
				return nil, err
			}
			out = make([]int, 0, hi-lo)
			for i := lo; i < hi; i++ {
				out = append(out, i)
			}
		}
	} else {
		op, ok := compoundOp(r.StepOp)
		if !ok {
			return nil, c.fail(diag.InvalidForStep, tok, "%s is not a valid step operator", r.StepOp)
		}
		step, err := c.forBound(r.Step)
		if err != nil {
			return nil, err
		}
		for i := lo; i < hi; {
			out = append(out, i)
			if err := c.checkSize(len(out), tok); err != nil {
				return nil, err
			}
			next, ok := op.EvalInt(i, step)
			if !ok {
				return nil, c.fail(diag.InvalidForStep, tok, "step %s %d cannot be evaluated", r.StepOp, step)
			}
			if next == i {
				c.InsertError(diag.New(diag.InvalidForStep, tok, "step %s %d does not change the loop variable", r.StepOp, step))
				break
			}
			i = next
		}
	}
	if r.Rev {
		slices.Reverse(out)
	}
	return out, nil
}

func (c *Context) forBound(x syntax.Expr) (int, error) {
	v, ok, err := c.constValue(x)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, c.fail(diag.UnevaluableValue, x.Start(), "loop bound must be a constant")
	}
	if v.Signed() {
		n, ok := v.ToInt()
		if !ok {
			return 0, c.fail(diag.UnevaluableValue, x.Start(), "loop bound %s is out of range", v)
		}
		return int(n), nil
	}
	n, ok := v.ToInteger()
	if !ok {
		return 0, c.fail(diag.UnevaluableValue, x.Start(), "loop bound %s is out of range", v)
	}
	return n, nil
}
