package syntax

import (
	"strings"

	"github.com/roach88/veryl-go/internal/value"
)

// File is a parsed source file.
type File struct {
	Path   string
	Source string
	Items  []Item
}

// Line returns the text of the 1-based source line n without its line
// terminator, or "" when n is out of range.
func (f *File) Line(n int) string {
	if n < 1 {
		return ""
	}
	rest := f.Source
	for i := 1; i < n; i++ {
		j := strings.IndexByte(rest, '\n')
		if j < 0 {
			return ""
		}
		rest = rest[j+1:]
	}
	if j := strings.IndexByte(rest, '\n'); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSuffix(rest, "\r")
}

// Attribute is a #[name(args...)] annotation.
type Attribute struct {
	Name Token
	Args []Token
}

// Arg returns the text of the i-th argument or "".
func (a Attribute) Arg(i int) string {
	if i < len(a.Args) {
		return a.Args[i].Text
	}
	return ""
}

// FindAttr returns the first attribute with the given name.
func FindAttr(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name.Text == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// ---------------------------------------------------------------------------
// Paths and types

// PathSegment is one element of a scoped identifier with optional
// generic arguments: Name::<A, B>.
type PathSegment struct {
	Name Token
	Args []GenericArg
}

// ScopedIdent is A::<x>::B::c or $sv::pkg::c.
type ScopedIdent struct {
	Segments []PathSegment
}

// First returns the first segment token.
func (s *ScopedIdent) First() Token { return s.Segments[0].Name }

// Last returns the last segment token.
func (s *ScopedIdent) Last() Token { return s.Segments[len(s.Segments)-1].Name }

// IsSystemVerilog reports whether the path starts with $sv.
func (s *ScopedIdent) IsSystemVerilog() bool {
	return len(s.Segments) > 0 && s.Segments[0].Name.Text == "$sv"
}

// HasGenericArgs reports whether any segment carries generic arguments.
func (s *ScopedIdent) HasGenericArgs() bool {
	for _, seg := range s.Segments {
		if len(seg.Args) > 0 {
			return true
		}
	}
	return false
}

// Names returns the segment names.
func (s *ScopedIdent) Names() []string {
	out := make([]string, len(s.Segments))
	for i, seg := range s.Segments {
		out[i] = seg.Name.Text
	}
	return out
}

func (s *ScopedIdent) String() string {
	return strings.Join(s.Names(), "::")
}

// GenericArg is an expression or a type used as a generic argument.
type GenericArg struct {
	Expr Expr
	Type *TypeExpr
}

// TypeKind classifies a syntactic type.
type TypeKind int

const (
	TypeLogic TypeKind = iota
	TypeBit
	TypeClock
	TypeClockPosedge
	TypeClockNegedge
	TypeReset
	TypeResetAsyncHigh
	TypeResetAsyncLow
	TypeResetSyncHigh
	TypeResetSyncLow
	TypeU8
	TypeU16
	TypeU32
	TypeU64
	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeF32
	TypeF64
	TypeBool
	TypeString
	TypeType
	TypeNamed
)

var typeKeywords = map[string]TypeKind{
	"logic": TypeLogic, "bit": TypeBit,
	"clock": TypeClock, "clock_posedge": TypeClockPosedge, "clock_negedge": TypeClockNegedge,
	"reset": TypeReset, "reset_async_high": TypeResetAsyncHigh, "reset_async_low": TypeResetAsyncLow,
	"reset_sync_high": TypeResetSyncHigh, "reset_sync_low": TypeResetSyncLow,
	"u8": TypeU8, "u16": TypeU16, "u32": TypeU32, "u64": TypeU64,
	"i8": TypeI8, "i16": TypeI16, "i32": TypeI32, "i64": TypeI64,
	"f32": TypeF32, "f64": TypeF64, "bool": TypeBool, "string": TypeString, "type": TypeType,
}

// IsClock reports whether the kind is a clock pseudo-type.
func (k TypeKind) IsClock() bool {
	return k == TypeClock || k == TypeClockPosedge || k == TypeClockNegedge
}

// IsReset reports whether the kind is a reset pseudo-type.
func (k TypeKind) IsReset() bool {
	return k >= TypeReset && k <= TypeResetSyncLow
}

// TypeExpr is a syntactic type: [signed] logic<W, ...>[A, ...] or a named type.
type TypeExpr struct {
	Tok    Token
	Kind   TypeKind
	Signed bool
	Name   *ScopedIdent
	Width  []Expr
	Array  []Expr
}

// ---------------------------------------------------------------------------
// Expressions

// Expr is any expression node.
type Expr interface {
	exprNode()
	// Start returns the first token of the expression.
	Start() Token
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Tok Token
}

// Value parses the literal.
func (n *NumberLit) Value() (value.Value, error) {
	return value.Parse(n.Tok.Text)
}

// BoolLit is true or false.
type BoolLit struct {
	Tok Token
	Val bool
}

// StringLit is a string literal.
type StringLit struct {
	Tok Token
}

// Select is a bit or range select: [i], [a:b], [a+:w], [a-:w].
type Select struct {
	Tok  Token
	Msb  Expr
	Lsb  Expr
	Kind SelectKind
}

// SelectKind distinguishes range select forms.
type SelectKind int

const (
	SelectIndex SelectKind = iota
	SelectColon
	SelectPlusColon
	SelectMinusColon
	SelectStep
)

// MemberAccess is .name[sel]...
type MemberAccess struct {
	Name    Token
	Selects []Select
}

// IdentExpr is a scoped identifier with optional selects and member accesses:
// Pkg::a, a[0].b[3:0].
type IdentExpr struct {
	Path    *ScopedIdent
	Selects []Select
	Members []MemberAccess
}

// IsSimple reports whether the identifier has no scope, select or member.
func (e *IdentExpr) IsSimple() bool {
	return len(e.Path.Segments) == 1 && len(e.Selects) == 0 && len(e.Members) == 0 &&
		len(e.Path.Segments[0].Args) == 0
}

// UnaryExpr is op x.
type UnaryExpr struct {
	Tok Token
	Op  value.Op
	X   Expr
}

// BinaryExpr is x op y. Binary - is kept as written (value.Sub).
type BinaryExpr struct {
	Tok  Token
	Op   value.Op
	X, Y Expr
}

// ParenExpr is (x).
type ParenExpr struct {
	Tok Token
	X   Expr
}

// IfExpr is if c ? a : b.
type IfExpr struct {
	Tok        Token
	Cond       Expr
	Then, Else Expr
}

// RangeItem is a single value or lo..hi / lo..=hi.
type RangeItem struct {
	Lo        Expr
	Hi        Expr
	Inclusive bool
}

// IsRange reports whether the item has an upper bound.
func (r RangeItem) IsRange() bool { return r.Hi != nil }

// CaseExprItem is one arm of a case expression.
type CaseExprItem struct {
	Conds []RangeItem
	Value Expr
}

// CaseExpr is case x { c: v, default: d }.
type CaseExpr struct {
	Tok     Token
	Subject Expr
	Items   []CaseExprItem
	Default Expr
}

// SwitchExprItem is one arm of a switch expression.
type SwitchExprItem struct {
	Conds []Expr
	Value Expr
}

// SwitchExpr is switch { c: v, default: d }.
type SwitchExpr struct {
	Tok     Token
	Items   []SwitchExprItem
	Default Expr
}

// InsideExpr is inside x { items } or outside x { items }.
type InsideExpr struct {
	Tok     Token
	Outside bool
	Subject Expr
	Items   []RangeItem
}

// ConcatItem is x or x repeat n.
type ConcatItem struct {
	X      Expr
	Repeat Expr
}

// ConcatExpr is {a, b repeat n}.
type ConcatExpr struct {
	Tok   Token
	Items []ConcatItem
}

// ArrayLitItem is x, x repeat n, or default: x.
type ArrayLitItem struct {
	X       Expr
	Repeat  Expr
	Default bool
}

// ArrayLitExpr is '{a, b repeat n, default: c}.
type ArrayLitExpr struct {
	Tok   Token
	Items []ArrayLitItem
}

// StructLitItem is member: value.
type StructLitItem struct {
	Name  Token
	Value Expr
}

// StructLitExpr is Type'{a: 1, ..default(0)}.
type StructLitExpr struct {
	Tok     Token
	Type    *ScopedIdent
	Items   []StructLitItem
	Default Expr
}

// CallArg is a positional or named function argument.
type CallArg struct {
	Name *Token
	X    Expr
}

// CallExpr is f(args) or $sys(args).
type CallExpr struct {
	Callee *IdentExpr
	System *Token
	Args   []CallArg
}

// AsExpr is x as T.
type AsExpr struct {
	Tok  Token
	X    Expr
	Type *TypeExpr
}

// TypeValueExpr is a type in expression position, e.g. $bits(logic<8>).
type TypeValueExpr struct {
	Type *TypeExpr
}

// MsbExpr is msb inside a select.
type MsbExpr struct {
	Tok Token
}

// LsbExpr is lsb inside a select.
type LsbExpr struct {
	Tok Token
}

func (*NumberLit) exprNode()     {}
func (*BoolLit) exprNode()       {}
func (*StringLit) exprNode()     {}
func (*IdentExpr) exprNode()     {}
func (*UnaryExpr) exprNode()     {}
func (*BinaryExpr) exprNode()    {}
func (*ParenExpr) exprNode()     {}
func (*IfExpr) exprNode()        {}
func (*CaseExpr) exprNode()      {}
func (*SwitchExpr) exprNode()    {}
func (*InsideExpr) exprNode()    {}
func (*ConcatExpr) exprNode()    {}
func (*ArrayLitExpr) exprNode()  {}
func (*StructLitExpr) exprNode() {}
func (*CallExpr) exprNode()      {}
func (*AsExpr) exprNode()        {}
func (*TypeValueExpr) exprNode() {}
func (*MsbExpr) exprNode()       {}
func (*LsbExpr) exprNode()       {}

func (e *NumberLit) Start() Token     { return e.Tok }
func (e *BoolLit) Start() Token       { return e.Tok }
func (e *StringLit) Start() Token     { return e.Tok }
func (e *IdentExpr) Start() Token     { return e.Path.First() }
func (e *UnaryExpr) Start() Token     { return e.Tok }
func (e *BinaryExpr) Start() Token    { return e.X.Start() }
func (e *ParenExpr) Start() Token     { return e.Tok }
func (e *IfExpr) Start() Token        { return e.Tok }
func (e *CaseExpr) Start() Token      { return e.Tok }
func (e *SwitchExpr) Start() Token    { return e.Tok }
func (e *InsideExpr) Start() Token    { return e.Tok }
func (e *ConcatExpr) Start() Token    { return e.Tok }
func (e *ArrayLitExpr) Start() Token  { return e.Tok }
func (e *StructLitExpr) Start() Token { return e.Type.First() }
func (e *AsExpr) Start() Token        { return e.X.Start() }
func (e *TypeValueExpr) Start() Token { return e.Type.Tok }
func (e *MsbExpr) Start() Token       { return e.Tok }
func (e *LsbExpr) Start() Token       { return e.Tok }

func (e *CallExpr) Start() Token {
	if e.System != nil {
		return *e.System
	}
	return e.Callee.Start()
}

// ---------------------------------------------------------------------------
// Statements

// Stmt is any statement node.
type Stmt interface {
	stmtNode()
	Start() Token
}

// AssignStmt is dst op= value.
type AssignStmt struct {
	Tok   Token
	Dst   []*IdentExpr
	Op    string
	Value Expr
}

// IfBranch is a condition with its body.
type IfBranch struct {
	Cond Expr
	Body []Stmt
}

// IfStmt is if/else if/else.
type IfStmt struct {
	Tok      Token
	Attrs    []Attribute
	Branches []IfBranch
	Else     []Stmt
	HasElse  bool
}

// IfResetStmt is if_reset { } else ...
type IfResetStmt struct {
	Tok      Token
	Attrs    []Attribute
	Body     []Stmt
	Branches []IfBranch
	Else     []Stmt
	HasElse  bool
}

// CaseStmtItem is one arm of a case statement.
type CaseStmtItem struct {
	Conds   []RangeItem
	Default bool
	Body    []Stmt
}

// CaseStmt is case x { ... }.
type CaseStmt struct {
	Tok     Token
	Attrs   []Attribute
	Subject Expr
	Items   []CaseStmtItem
}

// SwitchStmtItem is one arm of a switch statement.
type SwitchStmtItem struct {
	Conds   []Expr
	Default bool
	Body    []Stmt
}

// SwitchStmt is switch { ... }.
type SwitchStmt struct {
	Tok   Token
	Attrs []Attribute
	Items []SwitchStmtItem
}

// ForRange is the iteration range of a for loop.
type ForRange struct {
	Rev    bool
	Range  RangeItem
	StepOp string
	Step   Expr
}

// ForStmt is for i: T in range { }.
type ForStmt struct {
	Tok   Token
	Var   Token
	Type  *TypeExpr
	Range ForRange
	Body  []Stmt
}

// ReturnStmt is return x.
type ReturnStmt struct {
	Tok   Token
	Value Expr
}

// BreakStmt is break.
type BreakStmt struct {
	Tok Token
}

// LetStmt is let x: T = v inside a statement block.
type LetStmt struct {
	Tok   Token
	Name  Token
	Type  *TypeExpr
	Value Expr
}

// VarStmt is var x: T inside a function body.
type VarStmt struct {
	Tok  Token
	Name Token
	Type *TypeExpr
}

// CallStmt is f(args).
type CallStmt struct {
	Call *CallExpr
}

// ConnectStmt is a <> b.
type ConnectStmt struct {
	Tok Token
	Lhs *IdentExpr
	Rhs Expr
}

func (*AssignStmt) stmtNode()  {}
func (*IfStmt) stmtNode()      {}
func (*IfResetStmt) stmtNode() {}
func (*CaseStmt) stmtNode()    {}
func (*SwitchStmt) stmtNode()  {}
func (*ForStmt) stmtNode()     {}
func (*ReturnStmt) stmtNode()  {}
func (*BreakStmt) stmtNode()   {}
func (*LetStmt) stmtNode()     {}
func (*VarStmt) stmtNode()     {}
func (*CallStmt) stmtNode()    {}
func (*ConnectStmt) stmtNode() {}

func (s *AssignStmt) Start() Token  { return s.Tok }
func (s *IfStmt) Start() Token      { return s.Tok }
func (s *IfResetStmt) Start() Token { return s.Tok }
func (s *CaseStmt) Start() Token    { return s.Tok }
func (s *SwitchStmt) Start() Token  { return s.Tok }
func (s *ForStmt) Start() Token     { return s.Tok }
func (s *ReturnStmt) Start() Token  { return s.Tok }
func (s *BreakStmt) Start() Token   { return s.Tok }
func (s *LetStmt) Start() Token     { return s.Tok }
func (s *VarStmt) Start() Token     { return s.Tok }
func (s *CallStmt) Start() Token    { return s.Call.Start() }
func (s *ConnectStmt) Start() Token { return s.Tok }

// ---------------------------------------------------------------------------
// Declarations

// Decl is a declaration inside a module, interface or package body.
type Decl interface {
	declNode()
	Start() Token
}

// Direction is a port or modport member direction.
type Direction int

const (
	DirNone Direction = iota
	DirInput
	DirOutput
	DirInout
	DirModport
	DirInterface
	DirImport
	DirExport
)

var directionNames = [...]string{"", "input", "output", "inout", "modport", "interface", "import", "export"}

func (d Direction) String() string { return directionNames[d] }

// GenericBoundKind classifies generic parameter bounds.
type GenericBoundKind int

const (
	BoundConst GenericBoundKind = iota
	BoundType
	BoundInst
	BoundProto
)

// GenericParam is Name: bound [= default].
type GenericParam struct {
	Name    Token
	Bound   GenericBoundKind
	Proto   *ScopedIdent
	Type    *TypeExpr
	Default *GenericArg
}

// ParamDecl is param/const in a #( ) list.
type ParamDecl struct {
	Tok   Token
	Const bool
	Name  Token
	Type  *TypeExpr
	Value Expr
	Doc   []string
}

// PortDecl is name: direction ['domain] type.
type PortDecl struct {
	Name        Token
	Direction   Direction
	ClockDomain *Token
	Type        *TypeExpr
	Modport     *ScopedIdent
	Array       []Expr
	Default     Expr
	Doc         []string
}

// ModuleDecl is a module or proto module.
type ModuleDecl struct {
	Tok      Token
	Attrs    []Attribute
	Public   bool
	Proto    bool
	Name     Token
	Generics []GenericParam
	ForProto *ScopedIdent
	Params   []*ParamDecl
	Ports    []*PortDecl
	Body     []Decl
	Doc      []string
}

// InterfaceDecl is an interface.
type InterfaceDecl struct {
	Tok      Token
	Attrs    []Attribute
	Public   bool
	Proto    bool
	Name     Token
	Generics []GenericParam
	ForProto *ScopedIdent
	Params   []*ParamDecl
	Body     []Decl
	Doc      []string
}

// PackageDecl is a package or proto package.
type PackageDecl struct {
	Tok      Token
	Attrs    []Attribute
	Public   bool
	Proto    bool
	Name     Token
	Generics []GenericParam
	ForProto *ScopedIdent
	Body     []Decl
	Doc      []string
}

// ImportDecl is import Pkg::item or import Pkg::*.
type ImportDecl struct {
	Tok      Token
	Path     *ScopedIdent
	Wildcard bool
}

// EmbedDecl is embed (way) lang {{{ content }}}.
type EmbedDecl struct {
	Tok     Token
	Attrs   []Attribute
	Way     Token
	Lang    Token
	Content Token
}

// VarDecl is var name: ['domain] type.
type VarDecl struct {
	Tok         Token
	Attrs       []Attribute
	Name        Token
	ClockDomain *Token
	Type        *TypeExpr
	Doc         []string
}

// LetDecl is let name: ['domain] type = value.
type LetDecl struct {
	Tok         Token
	Name        Token
	ClockDomain *Token
	Type        *TypeExpr
	Value       Expr
}

// ConstDecl is const name: type = value.
type ConstDecl struct {
	Tok   Token
	Name  Token
	Type  *TypeExpr
	Value Expr
	Doc   []string
}

// AssignDecl is assign dst = value.
type AssignDecl struct {
	Tok   Token
	Dst   []*IdentExpr
	Value Expr
}

// AlwaysFfDecl is always_ff [(clk[, rst])] { }.
type AlwaysFfDecl struct {
	Tok   Token
	Clock *IdentExpr
	Reset *IdentExpr
	Body  []Stmt
}

// AlwaysCombDecl is always_comb { }.
type AlwaysCombDecl struct {
	Tok  Token
	Body []Stmt
}

// InstParam is .name(value) in an instance parameter list.
type InstParam struct {
	Name  Token
	Value Expr
}

// InstPort is name: value in an instance port list.
type InstPort struct {
	Name  Token
	Value Expr
}

// InstDecl is inst name: Component #(params) (ports).
type InstDecl struct {
	Tok       Token
	Name      Token
	Array     []Expr
	Component *ScopedIdent
	Params    []InstParam
	Ports     []InstPort
	HasPorts  bool
}

// GenerateBranch is one branch of a generate if.
type GenerateBranch struct {
	Cond  Expr
	Label *Token
	Body  []Decl
}

// GenerateIfDecl is if c :label { } else ...
type GenerateIfDecl struct {
	Tok      Token
	Branches []GenerateBranch
}

// GenerateForDecl is for i in range :label { }.
type GenerateForDecl struct {
	Tok   Token
	Var   Token
	Range ForRange
	Label Token
	Body  []Decl
}

// GenerateBlockDecl is :label { } at declaration level.
type GenerateBlockDecl struct {
	Tok   Token
	Label Token
	Body  []Decl
}

// FunctionDecl is function name(args) -> ret { }.
type FunctionDecl struct {
	Tok      Token
	Attrs    []Attribute
	Public   bool
	Name     Token
	Generics []GenericParam
	Args     []*PortDecl
	Ret      *TypeExpr
	Body     []Stmt
	Doc      []string
}

// StructMember is name: type.
type StructMember struct {
	Name Token
	Type *TypeExpr
	Doc  []string
}

// StructDecl is struct or union.
type StructDecl struct {
	Tok      Token
	Union    bool
	Public   bool
	Name     Token
	Generics []GenericParam
	Members  []StructMember
	Doc      []string
}

// EnumMember is NAME [= value].
type EnumMember struct {
	Name  Token
	Value Expr
	Doc   []string
}

// EnumDecl is enum name[: type] { members }.
type EnumDecl struct {
	Tok     Token
	Attrs   []Attribute
	Public  bool
	Name    Token
	Base    *TypeExpr
	Members []EnumMember
	Doc     []string
}

// TypeDefDecl is type name = type.
type TypeDefDecl struct {
	Tok  Token
	Name Token
	Type *TypeExpr
	Doc  []string
}

// ModportItem is name: direction.
type ModportItem struct {
	Name      Token
	Direction Direction
}

// ModportDecl is modport name { items }.
type ModportDecl struct {
	Tok     Token
	Name    Token
	Items   []ModportItem
	Default *Direction
}

// ConnectDecl is connect lhs <> rhs.
type ConnectDecl struct {
	Tok Token
	Lhs *IdentExpr
	Rhs Expr
}

// InitialDecl is initial { } or final { }.
type InitialDecl struct {
	Tok   Token
	Final bool
	Body  []Stmt
}

// UnsafeDecl is unsafe (kind) { }.
type UnsafeDecl struct {
	Tok  Token
	Kind Token
	Body []Decl
}

func (*ImportDecl) declNode()        {}
func (*EmbedDecl) declNode()         {}
func (*VarDecl) declNode()           {}
func (*LetDecl) declNode()           {}
func (*ConstDecl) declNode()         {}
func (*AssignDecl) declNode()        {}
func (*AlwaysFfDecl) declNode()      {}
func (*AlwaysCombDecl) declNode()    {}
func (*InstDecl) declNode()          {}
func (*GenerateIfDecl) declNode()    {}
func (*GenerateForDecl) declNode()   {}
func (*GenerateBlockDecl) declNode() {}
func (*FunctionDecl) declNode()      {}
func (*StructDecl) declNode()        {}
func (*EnumDecl) declNode()          {}
func (*TypeDefDecl) declNode()       {}
func (*ModportDecl) declNode()       {}
func (*ConnectDecl) declNode()       {}
func (*InitialDecl) declNode()       {}
func (*UnsafeDecl) declNode()        {}
func (*ParamDecl) declNode()         {}

func (d *ImportDecl) Start() Token        { return d.Tok }
func (d *EmbedDecl) Start() Token         { return d.Tok }
func (d *VarDecl) Start() Token           { return d.Tok }
func (d *LetDecl) Start() Token           { return d.Tok }
func (d *ConstDecl) Start() Token         { return d.Tok }
func (d *AssignDecl) Start() Token        { return d.Tok }
func (d *AlwaysFfDecl) Start() Token      { return d.Tok }
func (d *AlwaysCombDecl) Start() Token    { return d.Tok }
func (d *InstDecl) Start() Token          { return d.Tok }
func (d *GenerateIfDecl) Start() Token    { return d.Tok }
func (d *GenerateForDecl) Start() Token   { return d.Tok }
func (d *GenerateBlockDecl) Start() Token { return d.Tok }
func (d *FunctionDecl) Start() Token      { return d.Tok }
func (d *StructDecl) Start() Token        { return d.Tok }
func (d *EnumDecl) Start() Token          { return d.Tok }
func (d *TypeDefDecl) Start() Token       { return d.Tok }
func (d *ModportDecl) Start() Token       { return d.Tok }
func (d *ConnectDecl) Start() Token       { return d.Tok }
func (d *InitialDecl) Start() Token       { return d.Tok }
func (d *UnsafeDecl) Start() Token        { return d.Tok }
func (d *ParamDecl) Start() Token         { return d.Tok }

// ---------------------------------------------------------------------------
// Items

// Item is a top-level description item.
type Item interface {
	itemNode()
	Start() Token
}

func (*ModuleDecl) itemNode()    {}
func (*InterfaceDecl) itemNode() {}
func (*PackageDecl) itemNode()   {}
func (*ImportDecl) itemNode()    {}
func (*EmbedDecl) itemNode()     {}

func (d *ModuleDecl) Start() Token    { return d.Tok }
func (d *InterfaceDecl) Start() Token { return d.Tok }
func (d *PackageDecl) Start() Token   { return d.Tok }
