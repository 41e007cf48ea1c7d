package ir

import (
	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

// ClockDomainKind distinguishes unconstrained, implicit and named domains.
type ClockDomainKind int

const (
	DomainNone ClockDomainKind = iota
	DomainImplicit
	DomainExplicit
)

// ClockDomain tags a signal with the clock it is synchronous to.
type ClockDomain struct {
	Kind ClockDomainKind
	Name string
}

// Explicit returns the named domain 'name.
func Explicit(name string) ClockDomain { return ClockDomain{Kind: DomainExplicit, Name: name} }

// Compatible reports whether two domains may meet in one expression. Only
// two different explicit domains conflict.
func (d ClockDomain) Compatible(o ClockDomain) bool {
	if d.Kind != DomainExplicit || o.Kind != DomainExplicit {
		return true
	}
	return d.Name == o.Name
}

// Merge returns the more specific of two compatible domains.
func (d ClockDomain) Merge(o ClockDomain) ClockDomain {
	if o.Kind > d.Kind {
		return o
	}
	return d
}

func (d ClockDomain) String() string {
	switch d.Kind {
	case DomainImplicit:
		return "'_"
	case DomainExplicit:
		return "'" + d.Name
	}
	return ""
}

// ValueKind classifies a compile-time value.
type ValueKind int

const (
	ValueUnknown ValueKind = iota
	ValueNumeric
	ValueNumericArray
	ValueType
	ValueString
)

// ValueVariant is the value half of a Comptime.
type ValueVariant struct {
	Kind    ValueKind
	Numeric value.Value
	Array   []value.Value
	Type    Type
	Text    string
}

// PartSelect addresses a struct or union member inside a packed value.
type PartSelect struct {
	Member string
	Beg    int
	End    int
	Type   Type
}

// Comptime is the static knowledge about an expression: its type, its value
// when constant, and its clock domain.
type Comptime struct {
	Value       ValueVariant
	Type        Type
	IsConst     bool
	IsGlobal    bool
	PartSelect  []PartSelect
	ClockDomain ClockDomain
	Token       syntax.Token
}

// Numeric returns the numeric value if one is known.
func (c *Comptime) Numeric() (value.Value, bool) {
	if c.Value.Kind != ValueNumeric {
		return value.Value{}, false
	}
	return c.Value.Numeric, true
}

// ConstValue returns the value when the comptime is a known constant.
func (c *Comptime) ConstValue() (value.Value, bool) {
	if !c.IsConst {
		return value.Value{}, false
	}
	return c.Numeric()
}

// Width returns the packed width of the type, or 0 when unknown.
func (c *Comptime) Width() int {
	w, ok := c.Type.TotalWidth()
	if !ok {
		return 0
	}
	return w
}

// NewValue returns the comptime of a literal. The type is bit when the value
// has no X/Z bits, otherwise logic.
func NewValue(v value.Value, tok syntax.Token) Comptime {
	t := NewBit(max(v.Width(), 1))
	if v.IsXZ() {
		t.Kind = TypeLogic
	}
	t.Signed = v.Signed()
	return Comptime{
		Value:    ValueVariant{Kind: ValueNumeric, Numeric: v},
		Type:     t,
		IsConst:  true,
		IsGlobal: true,
		Token:    tok,
	}
}

// NewTypeValue returns the comptime of a type used as a value.
func NewTypeValue(t Type, tok syntax.Token) Comptime {
	return Comptime{
		Value:    ValueVariant{Kind: ValueType, Type: t},
		Type:     Type{Kind: TypeType},
		IsConst:  true,
		IsGlobal: true,
		Token:    tok,
	}
}

// NewUnknown returns a comptime that suppresses follow-on errors.
func NewUnknown(tok syntax.Token) Comptime {
	return Comptime{Type: Type{Kind: TypeUnknown}, Token: tok}
}

// Env is what expression evaluation needs from its caller.
type Env interface {
	MaskCache() *value.MaskCache
	InsertError(err *diag.AnalyzerError)
}
