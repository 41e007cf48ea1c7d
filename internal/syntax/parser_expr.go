package syntax

import (
	"strings"

	"github.com/roach88/veryl-go/internal/value"
)

type binaryLevel map[string]value.Op

// binaryLevels lists binary operators from loosest to tightest binding.
var binaryLevels = []binaryLevel{
	{"||": value.LogicOr},
	{"&&": value.LogicAnd},
	{"|": value.BitOr},
	{"^": value.BitXor, "~^": value.BitXnor, "^~": value.BitXnor},
	{"&": value.BitAnd},
	{"==": value.Eq, "!=": value.Ne, "==?": value.EqWildcard, "!=?": value.NeWildcard},
	{"<=": value.LessEq, ">=": value.GreaterEq, "<:": value.Less, ">:": value.Greater},
	{"<<": value.LogicShiftL, ">>": value.LogicShiftR, "<<<": value.ArithShiftL, ">>>": value.ArithShiftR},
	{"+": value.Add, "-": value.Sub},
	{"*": value.Mul, "/": value.Div, "%": value.Rem},
	{"**": value.Pow},
}

var unaryOps = map[string]value.Op{
	"+": value.Add, "-": value.Sub, "!": value.LogicNot, "~": value.BitNot,
	"&": value.BitAnd, "|": value.BitOr, "^": value.BitXor,
	"~^": value.BitXnor, "^~": value.BitXnor, "~&": value.BitNand, "~|": value.BitNor,
}

func (p *parser) expr() Expr {
	if p.at("if") {
		return p.ifExpr()
	}
	return p.binary(0)
}

func (p *parser) ifExpr() Expr {
	e := &IfExpr{Tok: p.expect("if")}
	e.Cond = p.expr()
	p.expect("?")
	e.Then = p.expr()
	p.expect(":")
	e.Else = p.expr()
	return e
}

// binaryOp returns the operator at the cursor for the given level. Inside
// angle brackets, operators starting with '>' close the list instead.
func (p *parser) binaryOp(level int) (value.Op, bool) {
	tok := p.peek()
	if tok.Kind != TokOperator {
		return 0, false
	}
	if p.angle > 0 && strings.HasPrefix(tok.Text, ">") {
		return 0, false
	}
	op, ok := binaryLevels[level][tok.Text]
	return op, ok
}

func (p *parser) binary(level int) Expr {
	if level == len(binaryLevels) {
		return p.asExpr()
	}
	x := p.binary(level + 1)
	for {
		op, ok := p.binaryOp(level)
		if !ok {
			return x
		}
		tok := p.next()
		y := p.binary(level + 1)
		x = &BinaryExpr{Tok: tok, Op: op, X: x, Y: y}
	}
}

func (p *parser) asExpr() Expr {
	x := p.unary()
	for p.at("as") {
		tok := p.next()
		x = &AsExpr{Tok: tok, X: x, Type: p.typeExpr()}
	}
	return x
}

func (p *parser) unary() Expr {
	tok := p.peek()
	if tok.Kind == TokOperator {
		if op, ok := unaryOps[tok.Text]; ok {
			p.next()
			return &UnaryExpr{Tok: tok, Op: op, X: p.unary()}
		}
	}
	return p.primary()
}

// nested runs f with angle-bracket tracking suspended, for sub-expressions
// enclosed in their own brackets.
func (p *parser) nested(f func()) {
	saved := p.angle
	p.angle = 0
	f()
	p.angle = saved
}

func (p *parser) primary() Expr {
	tok := p.peek()
	switch tok.Kind {
	case TokNumber:
		p.next()
		return &NumberLit{Tok: tok}
	case TokString:
		p.next()
		return &StringLit{Tok: tok}
	case TokQuoteBrace:
		return p.arrayLiteral()
	case TokSystemIdent:
		if tok.Text == "$sv" {
			return p.identOrCall()
		}
		p.next()
		call := &CallExpr{System: &tok}
		if p.at("(") {
			call.Args = p.callArgs()
		}
		return call
	case TokIdent:
		return p.identOrCall()
	}

	switch {
	case tok.Is("true"), tok.Is("false"):
		p.next()
		return &BoolLit{Tok: tok, Val: tok.Text == "true"}
	case tok.Is("("):
		p.next()
		e := &ParenExpr{Tok: tok}
		p.nested(func() { e.X = p.expr() })
		p.expect(")")
		return e
	case tok.Is("{"):
		return p.concat()
	case tok.Is("if"):
		return p.ifExpr()
	case tok.Is("case"):
		return p.caseExpr()
	case tok.Is("switch"):
		return p.switchExpr()
	case tok.Is("inside"), tok.Is("outside"):
		p.next()
		e := &InsideExpr{Tok: tok, Outside: tok.Text == "outside"}
		e.Subject = p.expr()
		p.expect("{")
		p.nested(func() {
			p.list("}", func() { e.Items = append(e.Items, p.rangeItem()) })
		})
		return e
	case tok.Is("msb"):
		p.next()
		return &MsbExpr{Tok: tok}
	case tok.Is("lsb"):
		p.next()
		return &LsbExpr{Tok: tok}
	case p.isTypeStart():
		return &TypeValueExpr{Type: p.typeExpr()}
	}
	p.failf("unexpected %q in expression", tok.String())
	return nil
}

func (p *parser) concat() Expr {
	e := &ConcatExpr{Tok: p.expect("{")}
	p.nested(func() {
		p.list("}", func() {
			item := ConcatItem{X: p.expr()}
			if p.accept("repeat") {
				item.Repeat = p.expr()
			}
			e.Items = append(e.Items, item)
		})
	})
	return e
}

func (p *parser) arrayLiteral() Expr {
	e := &ArrayLitExpr{Tok: p.next()}
	p.nested(func() {
		p.list("}", func() {
			if p.accept("default") {
				p.expect(":")
				e.Items = append(e.Items, ArrayLitItem{X: p.expr(), Default: true})
				return
			}
			item := ArrayLitItem{X: p.expr()}
			if p.accept("repeat") {
				item.Repeat = p.expr()
			}
			e.Items = append(e.Items, item)
		})
	})
	return e
}

func (p *parser) rangeItem() RangeItem {
	r := RangeItem{Lo: p.expr()}
	switch {
	case p.accept("..="):
		r.Inclusive = true
		r.Hi = p.expr()
	case p.accept(".."):
		r.Hi = p.expr()
	}
	return r
}

func (p *parser) caseExpr() Expr {
	e := &CaseExpr{Tok: p.expect("case")}
	e.Subject = p.expr()
	p.expect("{")
	p.nested(func() {
		p.list("}", func() {
			if p.accept("default") {
				p.expect(":")
				e.Default = p.expr()
				return
			}
			var item CaseExprItem
			item.Conds = append(item.Conds, p.rangeItem())
			for p.accept(",") {
				item.Conds = append(item.Conds, p.rangeItem())
			}
			p.expect(":")
			item.Value = p.expr()
			e.Items = append(e.Items, item)
		})
	})
	if e.Default == nil {
		p.failf("case expression requires a default arm")
	}
	return e
}

func (p *parser) switchExpr() Expr {
	e := &SwitchExpr{Tok: p.expect("switch")}
	p.expect("{")
	p.nested(func() {
		p.list("}", func() {
			if p.accept("default") {
				p.expect(":")
				e.Default = p.expr()
				return
			}
			var item SwitchExprItem
			item.Conds = append(item.Conds, p.expr())
			for p.accept(",") {
				item.Conds = append(item.Conds, p.expr())
			}
			p.expect(":")
			item.Value = p.expr()
			e.Items = append(e.Items, item)
		})
	})
	if e.Default == nil {
		p.failf("switch expression requires a default arm")
	}
	return e
}

// identOrCall parses an identifier expression with its selects and member
// accesses, then an optional call argument list or struct literal.
func (p *parser) identOrCall() Expr {
	id := p.identExpr()
	switch {
	case p.at("("):
		return &CallExpr{Callee: id, Args: p.callArgs()}
	case p.peek().Kind == TokQuoteBrace && len(id.Selects) == 0 && len(id.Members) == 0:
		return p.structLiteral(id.Path)
	}
	return id
}

func (p *parser) identExpr() *IdentExpr {
	e := &IdentExpr{Path: p.scopedIdent()}
	e.Selects = p.selects()
	for p.accept(".") {
		m := MemberAccess{Name: p.ident()}
		m.Selects = p.selects()
		e.Members = append(e.Members, m)
	}
	return e
}

func (p *parser) selects() []Select {
	var sels []Select
	for p.at("[") {
		sel := Select{Tok: p.next()}
		p.nested(func() {
			sel.Msb = p.expr()
			switch {
			case p.accept(":"):
				sel.Kind = SelectColon
			case p.accept("+:"):
				sel.Kind = SelectPlusColon
			case p.accept("-:"):
				sel.Kind = SelectMinusColon
			case p.accept("step"):
				sel.Kind = SelectStep
			}
			if sel.Kind != SelectIndex {
				sel.Lsb = p.expr()
			}
		})
		p.expect("]")
		sels = append(sels, sel)
	}
	return sels
}

func (p *parser) callArgs() []CallArg {
	p.expect("(")
	var args []CallArg
	p.nested(func() {
		p.list(")", func() {
			var arg CallArg
			if p.peek().Kind == TokIdent && p.peekAt(1).Is(":") {
				name := p.next()
				p.next()
				arg.Name = &name
			}
			arg.X = p.expr()
			args = append(args, arg)
		})
	})
	return args
}

func (p *parser) structLiteral(path *ScopedIdent) Expr {
	e := &StructLitExpr{Tok: p.next(), Type: path}
	p.nested(func() {
		p.list("}", func() {
			if p.accept("..") {
				p.expect("default")
				p.expect("(")
				e.Default = p.expr()
				p.expect(")")
				return
			}
			item := StructLitItem{Name: p.ident()}
			p.expect(":")
			item.Value = p.expr()
			e.Items = append(e.Items, item)
		})
	})
	return e
}

// scopedIdent parses A::B::<args>::c. The first segment may be $sv.
func (p *parser) scopedIdent() *ScopedIdent {
	tok := p.peek()
	if tok.Kind != TokIdent && !(tok.Kind == TokSystemIdent && tok.Text == "$sv") {
		p.failf("expected identifier, found %q", tok.String())
	}
	s := &ScopedIdent{Segments: []PathSegment{{Name: p.next()}}}
	for p.at("::") {
		if p.peekAt(1).Is("<") {
			p.next()
			p.next()
			last := &s.Segments[len(s.Segments)-1]
			last.Args = p.genericArgs()
			continue
		}
		if p.peekAt(1).Kind != TokIdent {
			break
		}
		p.next()
		s.Segments = append(s.Segments, PathSegment{Name: p.next()})
	}
	return s
}

func (p *parser) genericArgs() []GenericArg {
	var args []GenericArg
	for !p.atCloseAngle() {
		args = append(args, p.genericArg())
		if !p.accept(",") {
			break
		}
	}
	p.closeAngle()
	return args
}

func (p *parser) genericArg() GenericArg {
	p.angle++
	defer func() { p.angle-- }()
	if p.isTypeStart() {
		return GenericArg{Type: p.typeExpr()}
	}
	return GenericArg{Expr: p.expr()}
}

// isTypeStart reports whether the cursor is at a builtin type keyword.
func (p *parser) isTypeStart() bool {
	tok := p.peek()
	if tok.Kind != TokKeyword || tok.Text == "type" {
		return false
	}
	if tok.Text == "signed" {
		return true
	}
	_, ok := typeKeywords[tok.Text]
	return ok
}

func (p *parser) typeExpr() *TypeExpr {
	t := &TypeExpr{Tok: p.peek()}
	t.Signed = p.accept("signed")
	tok := p.peek()
	if kind, ok := typeKeywords[tok.Text]; ok && tok.Kind == TokKeyword {
		p.next()
		t.Tok, t.Kind = tok, kind
	} else {
		t.Kind = TypeNamed
		t.Name = p.scopedIdent()
		t.Tok = t.Name.First()
	}
	if p.at("<") {
		p.next()
		p.angle++
		for !p.atCloseAngle() {
			t.Width = append(t.Width, p.expr())
			if !p.accept(",") {
				break
			}
		}
		p.angle--
		p.closeAngle()
	}
	t.Array = p.arrayDims()
	return t
}
