package symbol

import (
	"log/slog"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/syntax"
)

// scopeState accumulates per-module facts while its body is walked.
type scopeState struct {
	clocks  []ID
	resets  []ID
	domains map[string]bool
}

type creator struct {
	sess        *Session
	path        string
	ns          Namespace
	errs        diag.List
	fileImports []*syntax.ImportDecl
	scopes      []*scopeState
}

// Create inserts the symbols declared in file into sess and returns every
// diagnostic found. It never stops at the first error.
func Create(sess *Session, file *syntax.File) diag.List {
	c := &creator{sess: sess, path: file.Path, ns: sess.Root()}
	for _, item := range file.Items {
		c.item(item)
	}
	for _, e := range c.errs {
		if e.Path == "" {
			e.Path = file.Path
		}
	}
	slog.Debug("symbol table created", "session", sess.ID, "file", file.Path,
		"symbols", len(sess.Symbols()), "errors", len(c.errs))
	return c.errs
}

func (c *creator) insert(sym *Symbol) ID {
	sym.Namespace = c.ns
	id, err := c.sess.Insert(sym)
	if err != nil {
		c.errs.Add(err.(*diag.AnalyzerError))
		return 0
	}
	return id
}

func (c *creator) push(name string) { c.ns = c.ns.Push(name) }
func (c *creator) pop()             { c.ns = c.ns.Pop() }

func (c *creator) scope() *scopeState {
	if len(c.scopes) == 0 {
		return nil
	}
	return c.scopes[len(c.scopes)-1]
}

func (c *creator) item(item syntax.Item) {
	switch d := item.(type) {
	case *syntax.ImportDecl:
		c.fileImports = append(c.fileImports, d)
	case *syntax.EmbedDecl:
		c.embed(d)
	case *syntax.ModuleDecl:
		c.module(d)
	case *syntax.InterfaceDecl:
		c.interfaceDecl(d)
	case *syntax.PackageDecl:
		c.packageDecl(d)
	}
}

// replayImports makes the file-scope imports seen so far visible inside ns.
func (c *creator) replayImports() {
	for _, imp := range c.fileImports {
		c.sess.AddImport(c.ns, Import{Path: imp.Path.Names(), Wildcard: imp.Wildcard, Token: imp.Tok})
	}
}

func (c *creator) module(d *syntax.ModuleDecl) {
	kind := KindModule
	if d.Proto {
		kind = KindProtoModule
	}
	props := &ModuleProps{Decl: d}
	sym := &Symbol{Token: d.Name, Kind: kind, Public: d.Public, Doc: d.Doc, Attrs: d.Attrs, Props: props}
	id := c.insert(sym)

	c.push(d.Name.Text)
	c.replayImports()
	c.scopes = append(c.scopes, &scopeState{domains: make(map[string]bool)})

	props.Generics = c.generics(d.Generics)
	props.Params = c.params(d.Params)
	for _, p := range d.Ports {
		if pid := c.port(p); pid != 0 {
			props.Ports = append(props.Ports, pid)
		}
	}
	for _, decl := range d.Body {
		c.decl(decl)
	}

	st := c.scope()
	if len(st.clocks) == 1 {
		props.DefaultClock = st.clocks[0]
	}
	if len(st.resets) == 1 {
		props.DefaultReset = st.resets[0]
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
	c.pop()

	if id != 0 && d.ForProto != nil {
		c.checkForProto(sym, d.ForProto)
	}
}

func (c *creator) checkForProto(sym *Symbol, path *syntax.ScopedIdent) {
	res, err := c.sess.Resolve(path.Names(), sym.Namespace)
	if err != nil {
		c.errs.Addf(diag.UndefinedIdentifier, path.First(), "%s", err.Error())
		return
	}
	if msgs := c.sess.CheckProtoBound(res.Found, sym); len(msgs) > 0 {
		for _, m := range msgs {
			c.errs.Addf(diag.MismatchProto, sym.Token, "%s does not satisfy %s: %s", sym.Name(), res.Found.Name(), m)
		}
	}
}

func (c *creator) interfaceDecl(d *syntax.InterfaceDecl) {
	props := &InterfaceProps{Decl: d}
	sym := &Symbol{Token: d.Name, Kind: KindInterface, Public: d.Public, Doc: d.Doc, Attrs: d.Attrs, Props: props}
	c.insert(sym)

	c.push(d.Name.Text)
	c.replayImports()
	c.scopes = append(c.scopes, &scopeState{domains: make(map[string]bool)})
	props.Generics = c.generics(d.Generics)
	props.Params = c.params(d.Params)
	for _, decl := range d.Body {
		id := c.decl(decl)
		if id == 0 {
			continue
		}
		switch c.sess.Get(id).Kind {
		case KindModport:
			props.Modports = append(props.Modports, id)
		case KindVariable, KindLet, KindFunction, KindConst:
			props.Members = append(props.Members, id)
		}
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
	c.pop()
}

func (c *creator) packageDecl(d *syntax.PackageDecl) {
	kind := KindPackage
	if d.Proto {
		kind = KindProtoPackage
	}
	props := &PackageProps{Decl: d}
	sym := &Symbol{Token: d.Name, Kind: kind, Public: d.Public, Doc: d.Doc, Attrs: d.Attrs, Props: props}
	id := c.insert(sym)

	c.push(d.Name.Text)
	c.replayImports()
	props.Generics = c.generics(d.Generics)
	for _, decl := range d.Body {
		if mid := c.decl(decl); mid != 0 {
			props.Members = append(props.Members, mid)
		}
	}
	c.pop()

	if id != 0 && d.ForProto != nil {
		c.checkForProto(sym, d.ForProto)
	}
}

// generics inserts generic parameters and checks that no parameter without
// a default follows one with a default.
func (c *creator) generics(params []syntax.GenericParam) []ID {
	var ids []ID
	sawDefault := false
	for i := range params {
		p := &params[i]
		if p.Default != nil {
			sawDefault = true
		} else if sawDefault {
			c.errs.Addf(diag.MissingDefaultArgument, p.Name,
				"generic parameter %s needs a default because an earlier parameter has one", p.Name.Text)
		}
		id := c.insert(&Symbol{Token: p.Name, Kind: KindGenericParameter, Props: &GenericParamProps{Param: p, Index: i}})
		if id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *creator) params(params []*syntax.ParamDecl) []ID {
	var ids []ID
	for _, p := range params {
		id := c.insert(&Symbol{
			Token: p.Name,
			Kind:  KindParameter,
			Doc:   p.Doc,
			Props: &ValueProps{Type: p.Type, Value: p.Value, Overridable: !p.Const},
		})
		if id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *creator) port(p *syntax.PortDecl) ID {
	id := c.insert(&Symbol{Token: p.Name, Kind: KindPort, Doc: p.Doc, Props: &PortProps{Decl: p}})
	if id != 0 && p.Type != nil {
		c.signal(id, p.Type, p.ClockDomain)
	}
	return id
}

// signal tracks clock and reset candidates and clock domain annotations of
// a module-scope signal.
func (c *creator) signal(id ID, t *syntax.TypeExpr, domain *syntax.Token) {
	st := c.scope()
	if st == nil {
		return
	}
	if domain != nil && !st.domains[domain.Text] {
		st.domains[domain.Text] = true
		tok := *domain
		tok.Text = "'" + domain.Text
		c.insert(&Symbol{Token: tok, Kind: KindClockDomain})
	}
	if len(t.Array) > 0 {
		return
	}
	switch {
	case t.Kind.IsClock():
		st.clocks = append(st.clocks, id)
		if len(st.clocks) > 1 && domain == nil {
			c.errs.Addf(diag.MissingClockDomain, c.sess.Get(id).Token,
				"%s needs a clock domain annotation because the scope has several clocks", c.sess.Get(id).Name())
		}
	case t.Kind.IsReset():
		st.resets = append(st.resets, id)
	}
}

// decl inserts the symbols of one declaration and returns the ID of the
// principal symbol, or 0.
func (c *creator) decl(decl syntax.Decl) ID {
	switch d := decl.(type) {
	case *syntax.VarDecl:
		id := c.insert(&Symbol{Token: d.Name, Kind: KindVariable, Doc: d.Doc, Attrs: d.Attrs,
			Props: &VariableProps{Type: d.Type, ClockDomain: d.ClockDomain}})
		if id != 0 {
			c.signal(id, d.Type, d.ClockDomain)
		}
		return id
	case *syntax.LetDecl:
		id := c.insert(&Symbol{Token: d.Name, Kind: KindLet,
			Props: &VariableProps{Type: d.Type, ClockDomain: d.ClockDomain, Value: d.Value}})
		if id != 0 {
			c.signal(id, d.Type, d.ClockDomain)
		}
		return id
	case *syntax.ConstDecl:
		return c.insert(&Symbol{Token: d.Name, Kind: KindConst, Doc: d.Doc,
			Props: &ValueProps{Type: d.Type, Value: d.Value}})
	case *syntax.ParamDecl:
		ids := c.params([]*syntax.ParamDecl{d})
		if len(ids) == 0 {
			return 0
		}
		return ids[0]
	case *syntax.InstDecl:
		return c.insert(&Symbol{Token: d.Name, Kind: KindInstance, Props: &InstanceProps{Decl: d}})
	case *syntax.AlwaysFfDecl:
		c.stmtScope(d, d.Body)
	case *syntax.AlwaysCombDecl:
		c.stmtScope(d, d.Body)
	case *syntax.InitialDecl:
		c.stmtScope(d, d.Body)
	case *syntax.GenerateIfDecl:
		for i := range d.Branches {
			b := &d.Branches[i]
			name := c.sess.NameBlock(b)
			tok := syntax.Synthetic(name)
			if b.Label != nil {
				name, tok = b.Label.Text, *b.Label
			}
			c.block(name, tok, b.Body, nil)
		}
	case *syntax.GenerateForDecl:
		c.block(d.Label.Text, d.Label, d.Body, &d.Var)
	case *syntax.GenerateBlockDecl:
		c.block(d.Label.Text, d.Label, d.Body, nil)
	case *syntax.FunctionDecl:
		return c.function(d)
	case *syntax.StructDecl:
		return c.structDecl(d)
	case *syntax.EnumDecl:
		return c.enum(d)
	case *syntax.TypeDefDecl:
		return c.insert(&Symbol{Token: d.Name, Kind: KindTypeDef, Doc: d.Doc, Props: &TypeDefProps{Type: d.Type}})
	case *syntax.ModportDecl:
		return c.modport(d)
	case *syntax.ImportDecl:
		c.sess.AddImport(c.ns, Import{Path: d.Path.Names(), Wildcard: d.Wildcard, Token: d.Tok})
	case *syntax.EmbedDecl:
		c.embed(d)
	case *syntax.UnsafeDecl:
		for _, inner := range d.Body {
			c.decl(inner)
		}
	}
	return 0
}

func (c *creator) block(name string, tok syntax.Token, body []syntax.Decl, genvar *syntax.Token) {
	c.insert(&Symbol{Token: tok, Kind: KindBlock})
	c.push(name)
	if genvar != nil {
		c.insert(&Symbol{Token: *genvar, Kind: KindGenvar})
	}
	for _, d := range body {
		c.decl(d)
	}
	c.pop()
}

// stmtScope opens an anonymous namespace for the local declarations of a
// statement block, when it has any.
func (c *creator) stmtScope(node any, body []syntax.Stmt) {
	if !HasLocals(body) {
		return
	}
	name := c.sess.NameBlock(node)
	c.insert(&Symbol{Token: syntax.Synthetic(name), Kind: KindBlock})
	c.push(name)
	c.stmts(body)
	c.pop()
}

// HasLocals reports whether a statement block declares let, var or for
// variables and therefore owns an anonymous scope.
func HasLocals(body []syntax.Stmt) bool {
	found := false
	walkStmts(body, func(s syntax.Stmt) {
		switch s.(type) {
		case *syntax.LetStmt, *syntax.VarStmt, *syntax.ForStmt:
			found = true
		}
	})
	return found
}

func walkStmts(body []syntax.Stmt, f func(syntax.Stmt)) {
	for _, s := range body {
		f(s)
		switch s := s.(type) {
		case *syntax.IfStmt:
			for _, b := range s.Branches {
				walkStmts(b.Body, f)
			}
			walkStmts(s.Else, f)
		case *syntax.IfResetStmt:
			walkStmts(s.Body, f)
			for _, b := range s.Branches {
				walkStmts(b.Body, f)
			}
			walkStmts(s.Else, f)
		case *syntax.CaseStmt:
			for _, it := range s.Items {
				walkStmts(it.Body, f)
			}
		case *syntax.SwitchStmt:
			for _, it := range s.Items {
				walkStmts(it.Body, f)
			}
		case *syntax.ForStmt:
			walkStmts(s.Body, f)
		}
	}
}

func (c *creator) stmts(body []syntax.Stmt) {
	for _, s := range body {
		switch s := s.(type) {
		case *syntax.LetStmt:
			c.insert(&Symbol{Token: s.Name, Kind: KindLet, Props: &VariableProps{Type: s.Type, Value: s.Value}})
		case *syntax.VarStmt:
			c.insert(&Symbol{Token: s.Name, Kind: KindVariable, Props: &VariableProps{Type: s.Type}})
		case *syntax.ForStmt:
			name := c.sess.NameBlock(s)
			c.insert(&Symbol{Token: syntax.Synthetic(name), Kind: KindBlock})
			c.push(name)
			c.insert(&Symbol{Token: s.Var, Kind: KindGenvar})
			c.stmts(s.Body)
			c.pop()
		case *syntax.IfStmt:
			for _, b := range s.Branches {
				c.stmts(b.Body)
			}
			c.stmts(s.Else)
		case *syntax.IfResetStmt:
			c.stmts(s.Body)
			for _, b := range s.Branches {
				c.stmts(b.Body)
			}
			c.stmts(s.Else)
		case *syntax.CaseStmt:
			for _, it := range s.Items {
				c.stmts(it.Body)
			}
		case *syntax.SwitchStmt:
			for _, it := range s.Items {
				c.stmts(it.Body)
			}
		}
	}
}

func (c *creator) function(d *syntax.FunctionDecl) ID {
	props := &FunctionProps{Decl: d}
	id := c.insert(&Symbol{Token: d.Name, Kind: KindFunction, Public: d.Public, Doc: d.Doc, Attrs: d.Attrs, Props: props})
	c.push(d.Name.Text)
	props.Generics = c.generics(d.Generics)
	for _, a := range d.Args {
		if aid := c.insert(&Symbol{Token: a.Name, Kind: KindPort, Props: &PortProps{Decl: a}}); aid != 0 {
			props.Args = append(props.Args, aid)
		}
	}
	c.stmts(d.Body)
	c.pop()
	return id
}

func (c *creator) structDecl(d *syntax.StructDecl) ID {
	kind, memberKind := KindStruct, KindStructMember
	if d.Union {
		kind, memberKind = KindUnion, KindUnionMember
	}
	if c.inInterface() {
		c.errs.Addf(diag.InvalidTypeDeclaration, d.Name, "%s cannot be declared in an interface", d.Name.Text)
	}
	props := &StructProps{Decl: d}
	id := c.insert(&Symbol{Token: d.Name, Kind: kind, Public: d.Public, Doc: d.Doc, Props: props})
	c.push(d.Name.Text)
	c.generics(d.Generics)
	for _, m := range d.Members {
		if mid := c.insert(&Symbol{Token: m.Name, Kind: memberKind, Doc: m.Doc, Props: &MemberProps{Type: m.Type}}); mid != 0 {
			props.Members = append(props.Members, mid)
		}
	}
	c.pop()
	return id
}

func (c *creator) inInterface() bool {
	if len(c.ns) < 2 {
		return false
	}
	sym, ok := c.sess.Lookup(c.ns[:len(c.ns)-1], c.ns[len(c.ns)-1])
	return ok && sym.Kind == KindInterface
}

func (c *creator) modport(d *syntax.ModportDecl) ID {
	props := &ModportProps{Decl: d}
	id := c.insert(&Symbol{Token: d.Name, Kind: KindModport, Props: props})
	c.push(d.Name.Text)
	for _, item := range d.Items {
		kind := KindModportVariableMember
		if item.Direction == syntax.DirImport || item.Direction == syntax.DirExport {
			kind = KindModportFunctionMember
		}
		if mid := c.insert(&Symbol{Token: item.Name, Kind: kind, Props: &ModportMemberProps{Direction: item.Direction}}); mid != 0 {
			props.Members = append(props.Members, mid)
		}
	}
	c.pop()
	return id
}

func (c *creator) embed(d *syntax.EmbedDecl) {
	attr, ok := syntax.FindAttr(d.Attrs, "test")
	if !ok {
		return
	}
	name := attr.Arg(0)
	if name == "" {
		c.errs.Addf(diag.InvalidTestEmbed, d.Tok, "test embed needs a name")
		return
	}
	way := d.Way.Text
	if way != "inline" && way != "cocotb" {
		c.errs.Addf(diag.InvalidTestEmbed, d.Way, "test embed must be inline or cocotb, found %s", way)
		return
	}
	tok := attr.Args[0]
	c.insert(&Symbol{Token: tok, Kind: KindTest, Props: &TestProps{
		Way: way, Lang: d.Lang.Text, Top: attr.Arg(1), Content: d.Content.Text,
	}})
}
