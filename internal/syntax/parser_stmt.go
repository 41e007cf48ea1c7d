package syntax

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true, "<<<=": true, ">>>=": true,
}

// IsAssignOp reports whether s is an assignment operator.
func IsAssignOp(s string) bool { return assignOps[s] }

func (p *parser) stmtBlock() []Stmt {
	p.expect("{")
	var stmts []Stmt
	for !p.at("}") {
		if p.peek().Kind == TokEOF {
			p.failf("unexpected end of file")
		}
		stmts = append(stmts, p.stmt())
	}
	p.expect("}")
	return stmts
}

func (p *parser) stmt() Stmt {
	attrs := p.attributes()
	tok := p.peek()

	switch {
	case tok.Is("if"):
		s := &IfStmt{Tok: p.next(), Attrs: attrs}
		cond := p.expr()
		s.Branches = append(s.Branches, IfBranch{Cond: cond, Body: p.stmtBlock()})
		s.Branches, s.Else, s.HasElse = p.elseChain(s.Branches)
		return s

	case tok.Is("if_reset"):
		s := &IfResetStmt{Tok: p.next(), Attrs: attrs}
		s.Body = p.stmtBlock()
		s.Branches, s.Else, s.HasElse = p.elseChain(nil)
		return s

	case tok.Is("case"):
		s := &CaseStmt{Tok: p.next(), Attrs: attrs}
		s.Subject = p.expr()
		p.expect("{")
		for !p.accept("}") {
			var item CaseStmtItem
			if p.accept("default") {
				item.Default = true
			} else {
				item.Conds = append(item.Conds, p.rangeItem())
				for p.accept(",") {
					item.Conds = append(item.Conds, p.rangeItem())
				}
			}
			p.expect(":")
			item.Body = p.armBody()
			s.Items = append(s.Items, item)
		}
		return s

	case tok.Is("switch"):
		s := &SwitchStmt{Tok: p.next(), Attrs: attrs}
		p.expect("{")
		for !p.accept("}") {
			var item SwitchStmtItem
			if p.accept("default") {
				item.Default = true
			} else {
				item.Conds = append(item.Conds, p.expr())
				for p.accept(",") {
					item.Conds = append(item.Conds, p.expr())
				}
			}
			p.expect(":")
			item.Body = p.armBody()
			s.Items = append(s.Items, item)
		}
		return s

	case tok.Is("for"):
		s := &ForStmt{Tok: p.next()}
		s.Var = p.ident()
		if p.accept(":") {
			s.Type = p.typeExpr()
		}
		p.expect("in")
		s.Range = p.forRange()
		s.Body = p.stmtBlock()
		return s

	case tok.Is("return"):
		s := &ReturnStmt{Tok: p.next()}
		if !p.at(";") {
			s.Value = p.expr()
		}
		p.expect(";")
		return s

	case tok.Is("break"):
		s := &BreakStmt{Tok: p.next()}
		p.expect(";")
		return s

	case tok.Is("let"):
		s := &LetStmt{Tok: p.next()}
		s.Name = p.ident()
		p.expect(":")
		s.Type = p.typeExpr()
		p.expect("=")
		s.Value = p.expr()
		p.expect(";")
		return s

	case tok.Is("var"):
		s := &VarStmt{Tok: p.next()}
		s.Name = p.ident()
		p.expect(":")
		s.Type = p.typeExpr()
		p.expect(";")
		return s

	case tok.Is("{"):
		s := &AssignStmt{Tok: tok, Dst: p.destinations()}
		s.Op = p.assignOp()
		s.Value = p.expr()
		p.expect(";")
		return s

	case tok.Kind == TokSystemIdent && tok.Text != "$sv":
		p.next()
		call := &CallExpr{System: &tok}
		if p.at("(") {
			call.Args = p.callArgs()
		}
		p.expect(";")
		return &CallStmt{Call: call}
	}

	id := p.identExpr()
	switch {
	case p.at("("):
		call := &CallExpr{Callee: id, Args: p.callArgs()}
		p.expect(";")
		return &CallStmt{Call: call}
	case p.at("<>"):
		s := &ConnectStmt{Tok: p.next(), Lhs: id}
		s.Rhs = p.expr()
		p.expect(";")
		return s
	}
	s := &AssignStmt{Tok: id.Start(), Dst: []*IdentExpr{id}}
	s.Op = p.assignOp()
	s.Value = p.expr()
	p.expect(";")
	return s
}

func (p *parser) assignOp() string {
	tok := p.peek()
	if tok.Kind != TokOperator || !assignOps[tok.Text] {
		p.failf("expected assignment operator, found %q", tok.String())
	}
	return p.next().Text
}

func (p *parser) elseChain(branches []IfBranch) ([]IfBranch, []Stmt, bool) {
	for p.accept("else") {
		if p.accept("if") {
			cond := p.expr()
			branches = append(branches, IfBranch{Cond: cond, Body: p.stmtBlock()})
			continue
		}
		return branches, p.stmtBlock(), true
	}
	return branches, nil, false
}

// armBody parses the body of a case or switch arm: a block or a single
// statement. A brace followed by a matching brace and an assignment
// operator is a concatenated destination, not a block.
func (p *parser) armBody() []Stmt {
	if p.at("{") && !p.isConcatAssign() {
		return p.stmtBlock()
	}
	return []Stmt{p.stmt()}
}

func (p *parser) isConcatAssign() bool {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		tok := p.toks[i]
		switch {
		case tok.Is("{"):
			depth++
		case tok.Is("}"):
			depth--
			if depth == 0 {
				next := p.peekAt(i - p.pos + 1)
				return next.Kind == TokOperator && assignOps[next.Text]
			}
		case tok.Is(";") && depth == 1:
			return false
		}
	}
	return false
}

// forRange parses [rev] lo..hi [step op= n].
func (p *parser) forRange() ForRange {
	var r ForRange
	r.Rev = p.accept("rev")
	r.Range = p.rangeItem()
	if p.accept("step") {
		r.StepOp = p.assignOp()
		r.Step = p.expr()
	}
	return r
}
