package ir

import (
	"strconv"
	"strings"
)

// TypeKind classifies an IR type.
type TypeKind int

const (
	TypeUnknown TypeKind = iota
	TypeClock
	TypeClockPosedge
	TypeClockNegedge
	TypeReset
	TypeResetAsyncHigh
	TypeResetAsyncLow
	TypeResetSyncHigh
	TypeResetSyncLow
	TypeBit
	TypeLogic
	TypeStruct
	TypeUnion
	TypeEnum
	TypeInterface
	TypeModport
	TypeAbstractInterface
	TypeType
	TypeString
	TypeSystemVerilog
)

var typeKindNames = [...]string{
	"unknown", "clock", "clock_posedge", "clock_negedge",
	"reset", "reset_async_high", "reset_async_low", "reset_sync_high", "reset_sync_low",
	"bit", "logic", "struct", "union", "enum", "interface", "modport", "interface",
	"type", "string", "systemverilog",
}

func (k TypeKind) String() string { return typeKindNames[k] }

// IsClock reports whether k is a clock kind.
func (k TypeKind) IsClock() bool { return k >= TypeClock && k <= TypeClockNegedge }

// IsReset reports whether k is a reset kind.
func (k TypeKind) IsReset() bool { return k >= TypeReset && k <= TypeResetSyncLow }

// Unknown marks a dimension whose size could not be evaluated.
const Unknown = -1

// Shape is a list of dimensions. An empty shape is a scalar.
type Shape []int

// Total returns the product of the dimensions, or false when any dimension
// is unknown. An empty shape totals 1.
func (s Shape) Total() (int, bool) {
	n := 1
	for _, d := range s {
		if d == Unknown {
			return 0, false
		}
		n *= d
	}
	return n, true
}

// Known reports whether every dimension is known.
func (s Shape) Known() bool {
	_, ok := s.Total()
	return ok
}

// Equal reports element-wise equality.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		if d == Unknown {
			parts[i] = "?"
		} else {
			parts[i] = strconv.Itoa(d)
		}
	}
	return strings.Join(parts, ", ")
}

// Member is a struct or union member.
type Member struct {
	Name string
	Type Type
}

// Type is the type of a variable or expression.
type Type struct {
	Kind   TypeKind
	Signed bool
	Width  Shape
	Array  Shape

	// Members is set for struct and union types.
	Members []Member

	// Name is the declared name of enum, interface and modport types.
	Name string

	// EnumWidth is the packed width of one enum element.
	EnumWidth int
}

// NewLogic returns logic<w> (scalar when w is 1).
func NewLogic(w int) Type { return sized(TypeLogic, w) }

// NewBit returns bit<w> (scalar when w is 1).
func NewBit(w int) Type { return sized(TypeBit, w) }

func sized(k TypeKind, w int) Type {
	t := Type{Kind: k}
	if w != 1 {
		t.Width = Shape{w}
	}
	return t
}

func (t Type) Is4State() bool {
	switch t.Kind {
	case TypeBit, TypeString, TypeType:
		return false
	case TypeStruct, TypeUnion:
		for _, m := range t.Members {
			if m.Type.Is4State() {
				return true
			}
		}
		return false
	}
	return true
}

func (t Type) Is2State() bool    { return !t.Is4State() }
func (t Type) IsClock() bool     { return t.Kind.IsClock() }
func (t Type) IsReset() bool     { return t.Kind.IsReset() }
func (t Type) IsArray() bool     { return len(t.Array) > 0 }
func (t Type) IsType() bool      { return t.Kind == TypeType }
func (t Type) IsString() bool    { return t.Kind == TypeString }
func (t Type) IsUnknown() bool   { return t.Kind == TypeUnknown || t.Kind == TypeSystemVerilog }
func (t Type) IsStruct() bool    { return t.Kind == TypeStruct || t.Kind == TypeUnion }
func (t Type) IsInterface() bool { return t.Kind == TypeInterface || t.Kind == TypeModport || t.Kind == TypeAbstractInterface }

// IsBinary reports whether t is a single known bit.
func (t Type) IsBinary() bool {
	if t.IsArray() || t.IsUnknown() || t.IsType() || t.IsString() || t.IsStruct() {
		return t.IsUnknown()
	}
	w, ok := t.TotalWidth()
	return ok && w == 1
}

// TotalWidth returns the packed width: the element width times every width
// dimension, excluding the array shape.
func (t Type) TotalWidth() (int, bool) {
	n, ok := t.Width.Total()
	if !ok {
		return 0, false
	}
	base := 1
	switch t.Kind {
	case TypeStruct, TypeUnion:
		base = 0
		for _, m := range t.Members {
			w, ok := m.Type.TotalWidth()
			if !ok {
				return 0, false
			}
			if t.Kind == TypeUnion {
				base = max(base, w)
			} else {
				base += w
			}
		}
	case TypeEnum:
		base = max(t.EnumWidth, 1)
	case TypeType, TypeString, TypeInterface, TypeModport, TypeAbstractInterface, TypeUnknown, TypeSystemVerilog:
		return 0, false
	}
	return base * n, true
}

// TotalArray returns the number of array elements.
func (t Type) TotalArray() (int, bool) { return t.Array.Total() }

// Element returns the type of one array element.
func (t Type) Element() Type {
	t.Array = nil
	return t
}

// Compatible reports whether a value of type src can be assigned to t.
func (t Type) Compatible(src Type) bool {
	if t.IsUnknown() || src.IsUnknown() {
		return true
	}
	if t.IsString() != src.IsString() || t.IsType() != src.IsType() {
		return false
	}
	if t.IsClock() && !src.IsClock() && src.Kind != TypeLogic && src.Kind != TypeBit {
		return false
	}
	if t.IsReset() && src.IsClock() {
		return false
	}
	if t.IsClock() && src.IsReset() {
		return false
	}
	if t.IsArray() || src.IsArray() {
		return t.Array.Equal(src.Array)
	}
	return true
}

func (t Type) String() string {
	var sb strings.Builder
	if t.Signed {
		sb.WriteString("signed ")
	}
	switch t.Kind {
	case TypeStruct, TypeUnion:
		sb.WriteString(t.Kind.String())
		sb.WriteString(" {")
		for i, m := range t.Members {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(m.Name)
			sb.WriteString(": ")
			mt := m.Type
			if len(mt.Width) == 0 && !mt.IsStruct() {
				mt.Width = Shape{1}
			}
			sb.WriteString(mt.String())
		}
		sb.WriteString("}")
	case TypeEnum, TypeInterface, TypeModport:
		sb.WriteString(t.Kind.String())
		if t.Name != "" {
			sb.WriteString(" ")
			sb.WriteString(t.Name)
		}
	case TypeAbstractInterface:
		sb.WriteString("interface")
		if t.Name != "" {
			sb.WriteString("::")
			sb.WriteString(t.Name)
		}
	default:
		sb.WriteString(t.Kind.String())
	}
	if len(t.Width) > 0 {
		sb.WriteString("<")
		sb.WriteString(t.Width.String())
		sb.WriteString(">")
	}
	if len(t.Array) > 0 {
		sb.WriteString("[")
		sb.WriteString(t.Array.String())
		sb.WriteString("]")
	}
	return sb.String()
}
