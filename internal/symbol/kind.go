package symbol

import (
	"fmt"

	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

// Kind classifies a symbol.
type Kind int

const (
	KindModule Kind = iota
	KindInterface
	KindPackage
	KindProtoModule
	KindProtoPackage
	KindFunction
	KindVariable
	KindLet
	KindPort
	KindParameter
	KindConst
	KindStruct
	KindStructMember
	KindUnion
	KindUnionMember
	KindEnum
	KindEnumMember
	KindEnumMemberMangled
	KindModport
	KindModportVariableMember
	KindModportFunctionMember
	KindInstance
	KindGenericParameter
	KindGenericInstance
	KindTypeDef
	KindBlock
	KindGenvar
	KindClockDomain
	KindSystemVerilog
	KindTest
)

var kindNames = [...]string{
	"module", "interface", "package", "proto module", "proto package",
	"function", "variable", "let", "port", "parameter", "const",
	"struct", "struct member", "union", "union member",
	"enum", "enum member", "enum member (mangled)",
	"modport", "modport variable member", "modport function member",
	"instance", "generic parameter", "generic instance", "typedef",
	"block", "genvar", "clock domain", "systemverilog", "test",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// HasScope reports whether symbols of this kind own a namespace of their own.
func (k Kind) HasScope() bool {
	switch k {
	case KindModule, KindInterface, KindPackage, KindProtoModule, KindProtoPackage,
		KindFunction, KindStruct, KindUnion, KindEnum, KindModport, KindBlock:
		return true
	}
	return false
}

// IsValue reports whether the symbol names something usable in an
// expression.
func (k Kind) IsValue() bool {
	switch k {
	case KindVariable, KindLet, KindPort, KindParameter, KindConst,
		KindEnumMember, KindGenvar, KindGenericParameter:
		return true
	}
	return false
}

// IsType reports whether the symbol names a type.
func (k Kind) IsType() bool {
	switch k {
	case KindStruct, KindUnion, KindEnum, KindTypeDef:
		return true
	}
	return false
}

// Props holds the kind-specific properties of a symbol.
type Props interface {
	props()
}

// ModuleProps describes a module or proto module.
type ModuleProps struct {
	Decl         *syntax.ModuleDecl
	Generics     []ID
	Params       []ID
	Ports        []ID
	DefaultClock ID
	DefaultReset ID
}

// InterfaceProps describes an interface.
type InterfaceProps struct {
	Decl     *syntax.InterfaceDecl
	Generics []ID
	Params   []ID
	Modports []ID
	Members  []ID
}

// PackageProps describes a package or proto package.
type PackageProps struct {
	Decl     *syntax.PackageDecl
	Generics []ID
	Members  []ID
}

// FunctionProps describes a function.
type FunctionProps struct {
	Decl     *syntax.FunctionDecl
	Generics []ID
	Args     []ID
}

// VariableProps describes a var or let.
type VariableProps struct {
	Type        *syntax.TypeExpr
	ClockDomain *syntax.Token
	Value       syntax.Expr
}

// PortProps describes a module, interface or function port.
type PortProps struct {
	Decl *syntax.PortDecl
}

// ValueProps describes a parameter or const.
type ValueProps struct {
	Type        *syntax.TypeExpr
	Value       syntax.Expr
	Overridable bool
}

// StructProps describes a struct or union.
type StructProps struct {
	Decl    *syntax.StructDecl
	Members []ID
}

// MemberProps describes a struct or union member.
type MemberProps struct {
	Type *syntax.TypeExpr
}

// EnumEncoding selects how implicit enum values are assigned.
type EnumEncoding int

const (
	EncodingSequential EnumEncoding = iota
	EncodingOneHot
	EncodingGray
)

// EnumProps describes an enum.
type EnumProps struct {
	Decl     *syntax.EnumDecl
	Encoding EnumEncoding
	Width    int
	Members  []ID
}

// EnumMemberProps describes an enum member with its evaluated value.
type EnumMemberProps struct {
	Enum  ID
	Value value.Value
	Known bool
}

// MangledProps points a mangled Enum_member symbol at its member.
type MangledProps struct {
	Member ID
}

// ModportProps describes a modport.
type ModportProps struct {
	Decl    *syntax.ModportDecl
	Members []ID
}

// ModportMemberProps describes a modport member.
type ModportMemberProps struct {
	Direction syntax.Direction
}

// InstanceProps describes an instance.
type InstanceProps struct {
	Decl *syntax.InstDecl
}

// GenericParamProps describes a generic parameter.
type GenericParamProps struct {
	Param *syntax.GenericParam
	Index int
}

// TypeDefProps describes a type alias. Type is nil inside proto packages.
type TypeDefProps struct {
	Type *syntax.TypeExpr
}

// TestProps describes an embedded test.
type TestProps struct {
	Way     string
	Lang    string
	Top     string
	Content string
}

// NoProps is used by kinds without properties.
type NoProps struct{}

func (*ModuleProps) props()        {}
func (*InterfaceProps) props()     {}
func (*PackageProps) props()       {}
func (*FunctionProps) props()      {}
func (*VariableProps) props()      {}
func (*PortProps) props()          {}
func (*ValueProps) props()         {}
func (*StructProps) props()        {}
func (*MemberProps) props()        {}
func (*EnumProps) props()          {}
func (*EnumMemberProps) props()    {}
func (*MangledProps) props()       {}
func (*ModportProps) props()       {}
func (*ModportMemberProps) props() {}
func (*InstanceProps) props()      {}
func (*GenericParamProps) props()  {}
func (*TypeDefProps) props()       {}
func (*TestProps) props()          {}
func (NoProps) props()             {}
