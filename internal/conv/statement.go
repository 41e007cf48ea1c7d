package conv

import (
	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/ir"
	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

// stmts converts a statement list. A statement that fails is reported and
// skipped. brk is set when the list ends in a break.
func (c *Context) stmts(list []syntax.Stmt) (out []ir.Statement, brk bool, err error) {
	for _, s := range list {
		conv, b, err := c.stmt(s)
		if err != nil {
			c.insertIrError(err)
			continue
		}
		out = append(out, conv...)
		if b {
			return out, true, nil
		}
	}
	return out, false, nil
}

// branch converts the body of a conditional, where break is not allowed.
func (c *Context) branch(list []syntax.Stmt) ([]ir.Statement, error) {
	var out []ir.Statement
	err := c.Block(func(c *Context) error {
		c.pushScope("")
		body, brk, err := c.stmts(list)
		if err != nil {
			return err
		}
		if brk {
			return irError("break_in_branch", list[len(list)-1].Start())
		}
		out = body
		return nil
	})
	return out, err
}

func (c *Context) stmt(s syntax.Stmt) ([]ir.Statement, bool, error) {
	switch s := s.(type) {
	case *syntax.AssignStmt:
		out, err := c.assignStmt(s)
		return out, false, err
	case *syntax.IfStmt:
		out, err := c.ifChain(s.Branches, s.Else, s.HasElse, s.Tok)
		return out, false, err
	case *syntax.IfResetStmt:
		if !c.hasReset {
			return nil, false, c.fail(diag.MissingResetSignal, s.Tok, "if_reset needs a reset signal")
		}
		ts, err := c.branch(s.Body)
		if err != nil {
			return nil, false, err
		}
		fs, err := c.ifChain(s.Branches, s.Else, s.HasElse, s.Tok)
		if err != nil {
			return nil, false, err
		}
		return []ir.Statement{&ir.IfResetStatement{TrueSide: ts, FalseSide: fs, Tok: s.Tok}}, false, nil
	case *syntax.CaseStmt:
		out, err := c.caseStmt(s)
		return out, false, err
	case *syntax.SwitchStmt:
		out, err := c.switchStmt(s)
		return out, false, err
	case *syntax.ForStmt:
		out, err := c.forStmt(s)
		return out, false, err
	case *syntax.ReturnStmt:
		if c.ret == nil {
			return nil, false, irError("return_outside_function", s.Tok)
		}
		st, err := c.assignTo([]*ir.AssignDestination{c.ret}, s.Value, s.Tok)
		if err != nil {
			return nil, false, err
		}
		return []ir.Statement{st}, false, nil
	case *syntax.BreakStmt:
		return nil, true, nil
	case *syntax.LetStmt:
		out, err := c.letStmt(s)
		return out, false, err
	case *syntax.VarStmt:
		c.insertVar(ir.VarPath{s.Name.Text}, ir.VarVariable, c.convType(s.Type), c.localDomain(), s.Name)
		return nil, false, nil
	case *syntax.CallStmt:
		f, err := c.call(s.Call)
		if err != nil {
			return nil, false, err
		}
		return []ir.Statement{&ir.CallStatement{Call: f}}, false, nil
	case *syntax.ConnectStmt:
		out, err := c.connect(s.Lhs, s.Rhs, s.Tok)
		return out, false, err
	}
	return nil, false, irError("statement", s.Start())
}

// localDomain is the clock domain of a variable declared in a statement
// block.
func (c *Context) localDomain() ir.ClockDomain {
	if c.clock != nil {
		return c.clock.ClockDomain
	}
	return ir.ClockDomain{Kind: ir.DomainImplicit}
}

func (c *Context) assignStmt(s *syntax.AssignStmt) ([]ir.Statement, error) {
	dsts := make([]*ir.AssignDestination, 0, len(s.Dst))
	for _, d := range s.Dst {
		dst, v, err := c.destination(d)
		if err != nil {
			return nil, err
		}
		if !v.Kind.Assignable() {
			return nil, c.fail(diag.MismatchAssignment, d.Path.First(), "%s %s cannot be assigned", v.Kind, v.Path)
		}
		dsts = append(dsts, dst)
	}

	rhs := s.Value
	if s.Op != "=" && s.Op != "" {
		op, ok := compoundOp(s.Op)
		if !ok || len(s.Dst) != 1 {
			return nil, irError("compound_assignment", s.Tok)
		}
		rhs = &syntax.BinaryExpr{Tok: s.Tok, Op: op, X: s.Dst[0], Y: s.Value}
	}

	if lit, ok := rhs.(*syntax.ArrayLitExpr); ok {
		if len(dsts) != 1 {
			return nil, c.fail(diag.MismatchArrayLiteral, lit.Tok, "array literal cannot be assigned to a concatenation")
		}
		return c.arrayAssign(dsts[0], lit, s.Tok)
	}
	st, err := c.assignTo(dsts, rhs, s.Tok)
	if err != nil {
		return nil, err
	}
	return []ir.Statement{st}, nil
}

// assignTo converts x in the context of the destination width and checks
// that it may drive the destinations.
func (c *Context) assignTo(dsts []*ir.AssignDestination, x syntax.Expr, tok syntax.Token) (ir.Statement, error) {
	ctx := 0
	for _, d := range dsts {
		ctx += d.Comptime.Width()
	}
	e, ct, err := c.evalExpr(x, ctx)
	if err != nil {
		return nil, err
	}
	if len(dsts) == 1 && !dsts[0].Comptime.Type.Compatible(ct.Type) {
		c.InsertError(diag.New(diag.MismatchType, x.Start(), "%s cannot be assigned to %s", ct.Type, dsts[0].Comptime.Type))
	}
	for _, d := range dsts {
		c.checkDomain(d.Comptime.ClockDomain, ct.ClockDomain, x.Start())
		if c.clock != nil {
			c.checkDomain(d.Comptime.ClockDomain, c.clock.ClockDomain, d.Token)
		}
	}
	return &ir.AssignStatement{Dst: dsts, Expr: e, Tok: tok}, nil
}

func (c *Context) checkDomain(dst, src ir.ClockDomain, tok syntax.Token) {
	if !dst.Compatible(src) {
		c.InsertError(diag.New(diag.MismatchClockDomain, tok, "clock domain crossing from %s to %s", src, dst))
	}
}

// ifChain converts if / else if / else into nested if statements.
func (c *Context) ifChain(branches []syntax.IfBranch, els []syntax.Stmt, hasElse bool, tok syntax.Token) ([]ir.Statement, error) {
	var acc []ir.Statement
	if hasElse {
		var err error
		if acc, err = c.branch(els); err != nil {
			return nil, err
		}
	}
	for i := len(branches) - 1; i >= 0; i-- {
		b := branches[i]
		cond, _, err := c.evalExpr(b.Cond, 0)
		if err != nil {
			return nil, err
		}
		ts, err := c.branch(b.Body)
		if err != nil {
			return nil, err
		}
		acc = []ir.Statement{&ir.IfStatement{Cond: cond, TrueSide: ts, FalseSide: acc, Tok: tok}}
	}
	return acc, nil
}

// caseStmt lowers a case statement to an if chain of wildcard matches.
func (c *Context) caseStmt(s *syntax.CaseStmt) ([]ir.Statement, error) {
	var acc []ir.Statement
	for _, it := range s.Items {
		if it.Default {
			var err error
			if acc, err = c.branch(it.Body); err != nil {
				return nil, err
			}
		}
	}
	for i := len(s.Items) - 1; i >= 0; i-- {
		it := s.Items[i]
		if it.Default {
			continue
		}
		cond, err := c.rangeConds(s.Subject, it.Conds, s.Tok)
		if err != nil {
			return nil, err
		}
		cond.EvalComptime(c, 0)
		ts, err := c.branch(it.Body)
		if err != nil {
			return nil, err
		}
		acc = []ir.Statement{&ir.IfStatement{Cond: ir.Fold(cond), TrueSide: ts, FalseSide: acc, Tok: s.Tok}}
	}
	return acc, nil
}

func (c *Context) switchStmt(s *syntax.SwitchStmt) ([]ir.Statement, error) {
	var acc []ir.Statement
	for _, it := range s.Items {
		if it.Default {
			var err error
			if acc, err = c.branch(it.Body); err != nil {
				return nil, err
			}
		}
	}
	for i := len(s.Items) - 1; i >= 0; i-- {
		it := s.Items[i]
		if it.Default {
			continue
		}
		conds := make([]ir.Expression, 0, len(it.Conds))
		for _, x := range it.Conds {
			cond, err := c.expr(x)
			if err != nil {
				return nil, err
			}
			conds = append(conds, cond)
		}
		cond := orChain(conds, s.Tok)
		cond.EvalComptime(c, 0)
		ts, err := c.branch(it.Body)
		if err != nil {
			return nil, err
		}
		acc = []ir.Statement{&ir.IfStatement{Cond: ir.Fold(cond), TrueSide: ts, FalseSide: acc, Tok: s.Tok}}
	}
	return acc, nil
}

// forStmt unrolls a for loop. The loop variable is a constant in each
// copy of the body.
func (c *Context) forStmt(s *syntax.ForStmt) ([]ir.Statement, error) {
	vals, err := c.EvalForRange(s.Range, s.Tok)
	if err != nil {
		return nil, err
	}
	t := ir.NewBit(32)
	if s.Type != nil {
		t = c.convType(s.Type)
	}
	w, ok := t.TotalWidth()
	if !ok {
		w = 32
	}

	var out []ir.Statement
	err = c.Block(func(c *Context) error {
		c.pushNS(c.sess.NameBlock(s))
		for _, i := range vals {
			brk := false
			err := c.Block(func(c *Context) error {
				c.pushScope("")
				c.bindConst(s.Var.Text, value.New(uint64(i), w, t.Signed), t, s.Var)
				body, b, err := c.stmts(s.Body)
				out = append(out, body...)
				brk = b
				return err
			})
			if err != nil {
				return err
			}
			if brk {
				break
			}
		}
		return nil
	})
	return out, err
}

func (c *Context) letStmt(s *syntax.LetStmt) ([]ir.Statement, error) {
	t := c.convType(s.Type)
	v := c.insertVar(ir.VarPath{s.Name.Text}, ir.VarLet, t, c.localDomain(), s.Name)
	dst := &ir.AssignDestination{ID: v.ID, Path: v.Path, Comptime: variableComptime(v, s.Name), Token: s.Name}
	if lit, ok := s.Value.(*syntax.ArrayLitExpr); ok {
		return c.arrayAssign(dst, lit, s.Tok)
	}
	st, err := c.assignTo([]*ir.AssignDestination{dst}, s.Value, s.Tok)
	if err != nil {
		return nil, err
	}
	return []ir.Statement{st}, nil
}
