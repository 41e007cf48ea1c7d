package syntax

import (
	"fmt"
	"strings"
)

// parser is a recursive-descent parser over a token slice. Errors abort
// the parse through a bailout panic that Parse recovers.
type parser struct {
	toks []Token
	pos  int

	// angle counts open width or generic brackets.
	angle int
}

type bailout struct{ err *SyntaxError }

// Parse tokenizes and parses a source file.
func Parse(path, src string) (file *File, err error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	defer p.recover(&err)

	file = &File{Path: path, Source: src}
	for p.peek().Kind != TokEOF {
		file.Items = append(file.Items, p.item())
	}
	return file, nil
}

// ParseExpr parses a standalone expression.
func ParseExpr(src string) (expr Expr, err error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	defer p.recover(&err)

	expr = p.expr()
	if p.peek().Kind != TokEOF {
		p.failf("unexpected %q after expression", p.peek().String())
	}
	return expr, nil
}

func (p *parser) recover(err *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*err = b.err
	}
}

func (p *parser) failf(format string, args ...any) {
	tok := p.peek()
	panic(bailout{&SyntaxError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf(format, args...)}})
}

func (p *parser) peek() Token { return p.peekAt(0) }

func (p *parser) peekAt(n int) Token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() Token {
	tok := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) at(text string) bool { return p.peek().Is(text) }

func (p *parser) accept(text string) bool {
	if p.at(text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(text string) Token {
	if !p.at(text) {
		p.failf("expected %q, found %q", text, p.peek().String())
	}
	return p.next()
}

func (p *parser) ident() Token {
	if p.peek().Kind != TokIdent {
		p.failf("expected identifier, found %q", p.peek().String())
	}
	return p.next()
}

func (p *parser) atCloseAngle() bool {
	tok := p.peek()
	return tok.Kind == TokOperator && strings.HasPrefix(tok.Text, ">")
}

// closeAngle consumes a '>' that ends a width or generic list. Tokens such
// as ">>" or ">=" are split so the remainder stays in the stream.
func (p *parser) closeAngle() {
	tok := p.peek()
	if !p.atCloseAngle() {
		p.failf("expected \">\", found %q", tok.String())
	}
	if tok.Text == ">" {
		p.next()
		return
	}
	rest := tok
	rest.Text = tok.Text[1:]
	rest.Column++
	rest.Offset++
	rest.Doc = nil
	p.toks[p.pos] = rest
}

// list parses comma-separated elements until the closing token, allowing
// a trailing comma. The closing token is consumed.
func (p *parser) list(closing string, elem func()) {
	for !p.at(closing) {
		elem()
		if !p.accept(",") {
			break
		}
	}
	p.expect(closing)
}

// ---------------------------------------------------------------------------
// Attributes and items

func (p *parser) attributes() []Attribute {
	var attrs []Attribute
	for p.accept("#[") {
		attr := Attribute{Name: p.ident()}
		if p.accept("(") {
			p.list(")", func() {
				tok := p.peek()
				switch tok.Kind {
				case TokIdent, TokKeyword, TokString, TokNumber:
					attr.Args = append(attr.Args, p.next())
				default:
					p.failf("unexpected %q in attribute", tok.String())
				}
			})
		}
		p.expect("]")
		attrs = append(attrs, attr)
	}
	return attrs
}

func (p *parser) item() Item {
	doc := p.peek().Doc
	attrs := p.attributes()
	public := p.accept("pub")
	proto := p.accept("proto")

	switch {
	case p.at("module"):
		d := p.module(proto)
		d.Attrs, d.Public, d.Doc = attrs, public, doc
		return d
	case p.at("interface"):
		d := p.interfaceDecl(proto)
		d.Attrs, d.Public, d.Doc = attrs, public, doc
		return d
	case p.at("package"):
		d := p.packageDecl(proto)
		d.Attrs, d.Public, d.Doc = attrs, public, doc
		return d
	case p.at("import") && !proto:
		return p.importDecl()
	case p.at("embed") && !proto:
		d := p.embedDecl()
		d.Attrs = attrs
		return d
	}
	p.failf("expected module, interface, package, import or embed, found %q", p.peek().String())
	return nil
}

func (p *parser) forProto() *ScopedIdent {
	if p.accept("for") {
		return p.scopedIdent()
	}
	return nil
}

func (p *parser) module(proto bool) *ModuleDecl {
	d := &ModuleDecl{Tok: p.expect("module"), Proto: proto}
	d.Name = p.ident()
	d.Generics = p.genericParams()
	d.ForProto = p.forProto()
	d.Params = p.paramList()
	if p.accept("(") {
		p.list(")", func() { d.Ports = append(d.Ports, p.portDecl()) })
	}
	if proto {
		p.expect(";")
		return d
	}
	d.Body = p.declBlock()
	return d
}

func (p *parser) interfaceDecl(proto bool) *InterfaceDecl {
	d := &InterfaceDecl{Tok: p.expect("interface"), Proto: proto}
	d.Name = p.ident()
	d.Generics = p.genericParams()
	d.ForProto = p.forProto()
	d.Params = p.paramList()
	d.Body = p.declBlock()
	return d
}

func (p *parser) packageDecl(proto bool) *PackageDecl {
	d := &PackageDecl{Tok: p.expect("package"), Proto: proto}
	d.Name = p.ident()
	d.Generics = p.genericParams()
	d.ForProto = p.forProto()
	d.Body = p.declBlock()
	return d
}

func (p *parser) importDecl() *ImportDecl {
	d := &ImportDecl{Tok: p.expect("import"), Path: &ScopedIdent{}}
	d.Path.Segments = append(d.Path.Segments, PathSegment{Name: p.ident()})
	for p.accept("::") {
		if p.accept("*") {
			d.Wildcard = true
			break
		}
		d.Path.Segments = append(d.Path.Segments, PathSegment{Name: p.ident()})
	}
	p.expect(";")
	return d
}

func (p *parser) embedDecl() *EmbedDecl {
	d := &EmbedDecl{Tok: p.expect("embed")}
	p.expect("(")
	d.Way = p.ident()
	p.expect(")")
	d.Lang = p.ident()
	if p.peek().Kind != TokEmbedContent {
		p.failf("expected embed content, found %q", p.peek().String())
	}
	d.Content = p.next()
	return d
}

// genericParams parses ::<T: type, N: u32 = 8, ...> after a declaration name.
func (p *parser) genericParams() []GenericParam {
	if !p.at("::") || !p.peekAt(1).Is("<") {
		return nil
	}
	p.next()
	p.next()
	var params []GenericParam
	for !p.atCloseAngle() {
		gp := GenericParam{Name: p.ident()}
		p.expect(":")
		switch {
		case p.accept("type"):
			gp.Bound = BoundType
		case p.accept("const"):
			gp.Bound = BoundConst
		case p.accept("inst"):
			gp.Bound = BoundInst
			gp.Proto = p.scopedIdent()
		case p.isTypeStart():
			gp.Bound = BoundConst
			gp.Type = p.typeExpr()
		default:
			gp.Bound = BoundProto
			gp.Proto = p.scopedIdent()
		}
		if p.accept("=") {
			arg := p.genericArg()
			gp.Default = &arg
		}
		params = append(params, gp)
		if !p.accept(",") {
			break
		}
	}
	p.closeAngle()
	return params
}

// paramList parses #( [param|const] name: type = value, ... ).
func (p *parser) paramList() []*ParamDecl {
	if !p.at("#") {
		return nil
	}
	p.next()
	p.expect("(")
	var params []*ParamDecl
	p.list(")", func() {
		d := &ParamDecl{Tok: p.peek(), Doc: p.peek().Doc}
		if p.accept("const") {
			d.Const = true
		} else {
			p.accept("param")
		}
		d.Name = p.ident()
		p.expect(":")
		d.Type = p.typeExpr()
		if p.accept("=") {
			d.Value = p.expr()
		}
		params = append(params, d)
	})
	return params
}

func (p *parser) direction() Direction {
	switch {
	case p.accept("input"):
		return DirInput
	case p.accept("output"):
		return DirOutput
	case p.accept("inout"):
		return DirInout
	case p.accept("modport"):
		return DirModport
	case p.accept("interface"):
		return DirInterface
	case p.accept("import"):
		return DirImport
	case p.accept("export"):
		return DirExport
	}
	p.failf("expected direction, found %q", p.peek().String())
	return DirNone
}

func (p *parser) portDecl() *PortDecl {
	d := &PortDecl{Doc: p.peek().Doc}
	d.Name = p.ident()
	p.expect(":")
	d.Direction = p.direction()
	switch d.Direction {
	case DirModport:
		d.Modport = p.scopedIdent()
		d.Array = p.arrayDims()
	case DirInterface:
		if p.accept("::") {
			d.Modport = &ScopedIdent{Segments: []PathSegment{{Name: p.ident()}}}
		}
		d.Array = p.arrayDims()
	case DirImport, DirExport:
		p.failf("unexpected direction %q on port", d.Direction.String())
	default:
		d.ClockDomain = p.clockDomain()
		d.Type = p.typeExpr()
		if p.accept("=") {
			d.Default = p.expr()
		}
	}
	return d
}

func (p *parser) clockDomain() *Token {
	if p.peek().Kind == TokClockDomain {
		tok := p.next()
		return &tok
	}
	return nil
}

func (p *parser) arrayDims() []Expr {
	if !p.at("[") {
		return nil
	}
	p.next()
	var dims []Expr
	p.nested(func() {
		p.list("]", func() { dims = append(dims, p.expr()) })
	})
	return dims
}

// ---------------------------------------------------------------------------
// Declarations

func (p *parser) declBlock() []Decl {
	p.expect("{")
	var decls []Decl
	for !p.at("}") {
		if p.peek().Kind == TokEOF {
			p.failf("unexpected end of file")
		}
		decls = append(decls, p.decl())
	}
	p.expect("}")
	return decls
}

func (p *parser) decl() Decl {
	doc := p.peek().Doc
	attrs := p.attributes()
	public := p.accept("pub")
	tok := p.peek()

	switch {
	case tok.Is("var"):
		p.next()
		d := &VarDecl{Tok: tok, Attrs: attrs, Doc: doc}
		d.Name = p.ident()
		p.expect(":")
		d.ClockDomain = p.clockDomain()
		d.Type = p.typeExpr()
		p.expect(";")
		return d

	case tok.Is("let"):
		p.next()
		d := &LetDecl{Tok: tok}
		d.Name = p.ident()
		p.expect(":")
		d.ClockDomain = p.clockDomain()
		d.Type = p.typeExpr()
		p.expect("=")
		d.Value = p.expr()
		p.expect(";")
		return d

	case tok.Is("const"), tok.Is("param"):
		p.next()
		d := &ConstDecl{Tok: tok, Doc: doc}
		d.Name = p.ident()
		p.expect(":")
		d.Type = p.typeExpr()
		if p.accept("=") {
			d.Value = p.expr()
		}
		p.expect(";")
		return d

	case tok.Is("assign"):
		p.next()
		d := &AssignDecl{Tok: tok}
		d.Dst = p.destinations()
		p.expect("=")
		d.Value = p.expr()
		p.expect(";")
		return d

	case tok.Is("always_ff"):
		p.next()
		d := &AlwaysFfDecl{Tok: tok}
		if p.accept("(") {
			d.Clock = p.identExpr()
			if p.accept(",") {
				d.Reset = p.identExpr()
			}
			p.expect(")")
		}
		d.Body = p.stmtBlock()
		return d

	case tok.Is("always_comb"):
		p.next()
		return &AlwaysCombDecl{Tok: tok, Body: p.stmtBlock()}

	case tok.Is("inst"):
		return p.instDecl()

	case tok.Is("if"):
		return p.generateIf()

	case tok.Is("for"):
		p.next()
		d := &GenerateForDecl{Tok: tok}
		d.Var = p.ident()
		if p.accept(":") {
			p.typeExpr()
		}
		p.expect("in")
		d.Range = p.forRange()
		p.expect(":")
		d.Label = p.ident()
		d.Body = p.declBlock()
		return d

	case tok.Is(":"):
		p.next()
		d := &GenerateBlockDecl{Tok: tok}
		d.Label = p.ident()
		d.Body = p.declBlock()
		return d

	case tok.Is("function"):
		d := p.functionDecl()
		d.Attrs, d.Public, d.Doc = attrs, public, doc
		return d

	case tok.Is("struct"), tok.Is("union"):
		p.next()
		d := &StructDecl{Tok: tok, Union: tok.Text == "union", Public: public, Doc: doc}
		d.Name = p.ident()
		d.Generics = p.genericParams()
		p.expect("{")
		p.list("}", func() {
			m := StructMember{Doc: p.peek().Doc}
			m.Name = p.ident()
			p.expect(":")
			m.Type = p.typeExpr()
			d.Members = append(d.Members, m)
		})
		return d

	case tok.Is("enum"):
		p.next()
		d := &EnumDecl{Tok: tok, Attrs: attrs, Public: public, Doc: doc}
		d.Name = p.ident()
		if p.accept(":") {
			d.Base = p.typeExpr()
		}
		p.expect("{")
		p.list("}", func() {
			m := EnumMember{Doc: p.peek().Doc}
			m.Name = p.ident()
			if p.accept("=") {
				m.Value = p.expr()
			}
			d.Members = append(d.Members, m)
		})
		return d

	case tok.Is("type"):
		p.next()
		d := &TypeDefDecl{Tok: tok, Doc: doc}
		d.Name = p.ident()
		if p.accept("=") {
			d.Type = p.typeExpr()
		}
		p.expect(";")
		return d

	case tok.Is("modport"):
		p.next()
		d := &ModportDecl{Tok: tok}
		d.Name = p.ident()
		p.expect("{")
		p.list("}", func() {
			if p.accept("..") {
				dir := p.direction()
				d.Default = &dir
				return
			}
			item := ModportItem{Name: p.ident()}
			p.expect(":")
			item.Direction = p.direction()
			d.Items = append(d.Items, item)
		})
		return d

	case tok.Is("connect"):
		p.next()
		d := &ConnectDecl{Tok: tok}
		d.Lhs = p.identExpr()
		p.expect("<>")
		d.Rhs = p.expr()
		p.expect(";")
		return d

	case tok.Is("initial"), tok.Is("final"):
		p.next()
		return &InitialDecl{Tok: tok, Final: tok.Text == "final", Body: p.stmtBlock()}

	case tok.Is("unsafe"):
		p.next()
		d := &UnsafeDecl{Tok: tok}
		p.expect("(")
		d.Kind = p.ident()
		p.expect(")")
		d.Body = p.declBlock()
		return d

	case tok.Is("import"):
		return p.importDecl()

	case tok.Is("embed"):
		d := p.embedDecl()
		d.Attrs = attrs
		return d
	}

	p.failf("unexpected %q in declaration list", tok.String())
	return nil
}

func (p *parser) label() *Token {
	if p.accept(":") {
		tok := p.ident()
		return &tok
	}
	return nil
}

func (p *parser) generateIf() *GenerateIfDecl {
	d := &GenerateIfDecl{Tok: p.expect("if")}
	cond := p.expr()
	label := p.label()
	d.Branches = append(d.Branches, GenerateBranch{Cond: cond, Label: label, Body: p.declBlock()})
	for p.accept("else") {
		if p.accept("if") {
			cond := p.expr()
			label := p.label()
			d.Branches = append(d.Branches, GenerateBranch{Cond: cond, Label: label, Body: p.declBlock()})
			continue
		}
		label := p.label()
		d.Branches = append(d.Branches, GenerateBranch{Label: label, Body: p.declBlock()})
		break
	}
	return d
}

func (p *parser) instDecl() *InstDecl {
	d := &InstDecl{Tok: p.expect("inst")}
	d.Name = p.ident()
	p.expect(":")
	d.Component = p.scopedIdent()
	d.Array = p.arrayDims()
	if p.at("#") {
		p.next()
		p.expect("(")
		p.list(")", func() {
			ip := InstParam{Name: p.ident()}
			if p.accept(":") {
				ip.Value = p.expr()
			}
			d.Params = append(d.Params, ip)
		})
	}
	if p.accept("(") {
		d.HasPorts = true
		p.list(")", func() {
			port := InstPort{Name: p.ident()}
			if p.accept(":") {
				port.Value = p.expr()
			}
			d.Ports = append(d.Ports, port)
		})
	}
	p.expect(";")
	return d
}

func (p *parser) functionDecl() *FunctionDecl {
	d := &FunctionDecl{Tok: p.expect("function")}
	d.Name = p.ident()
	d.Generics = p.genericParams()
	if p.accept("(") {
		p.list(")", func() { d.Args = append(d.Args, p.portDecl()) })
	}
	if p.accept("->") {
		d.Ret = p.typeExpr()
	}
	d.Body = p.stmtBlock()
	return d
}

// destinations parses an assignment target: a or {a, b}.
func (p *parser) destinations() []*IdentExpr {
	if !p.accept("{") {
		return []*IdentExpr{p.identExpr()}
	}
	var dst []*IdentExpr
	p.list("}", func() { dst = append(dst, p.identExpr()) })
	return dst
}
