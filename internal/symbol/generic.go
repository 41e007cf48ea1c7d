package symbol

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

// Hash domains. The version suffix leaves room for changing the encoding.
const (
	DomainSignature   = "veryl/signature/v1"
	DomainMangledName = "veryl/mangled/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// GenericValueKind classifies a generic argument.
type GenericValueKind int

const (
	GenericConst GenericValueKind = iota
	GenericType
	GenericSymbol
)

// GenericValue is an evaluated generic argument.
type GenericValue struct {
	Kind GenericValueKind

	// Value is set for GenericConst.
	Value value.Value

	// Type is set for builtin type arguments. Named types use Symbol.
	Type *syntax.TypeExpr

	// Symbol is the module, interface, package or type bound to the
	// parameter. Path is its name path.
	Symbol ID
	Path   []string

	// Text is the argument as it appears in mangled names.
	Text string
}

// Key returns a canonical identity for the argument.
func (g GenericValue) Key() string {
	switch g.Kind {
	case GenericConst:
		return "c:" + g.Value.Key()
	case GenericType:
		return "t:" + g.Text
	}
	return "s:" + strings.Join(g.Path, "::")
}

// ConstValue builds a constant argument.
func ConstValue(v value.Value) GenericValue {
	text := v.HexDigits()
	if b, ok := v.ToBig(); ok {
		text = b.String()
	}
	return GenericValue{Kind: GenericConst, Value: v, Text: text}
}

// GenericMap binds the generic parameters of one instantiation.
type GenericMap struct {
	Symbol ID
	Names  []string
	Args   map[string]GenericValue
}

// Get returns the argument bound to name.
func (m GenericMap) Get(name string) (GenericValue, bool) {
	v, ok := m.Args[name]
	return v, ok
}

// IsEmpty reports whether the map binds nothing.
func (m GenericMap) IsEmpty() bool { return len(m.Names) == 0 }

// Key returns a canonical string for map identity, in parameter order.
func (m GenericMap) Key() string {
	parts := make([]string, len(m.Names))
	for i, n := range m.Names {
		parts[i] = n + "=" + m.Args[n].Key()
	}
	return strings.Join(parts, ";")
}

// Mangled returns the emitted name of the instantiation: base itself for
// an empty map, "__Base__a1__a2" otherwise, or "__Base__<hash>" when hashed.
func (m GenericMap) Mangled(base string, hashed bool) string {
	if m.IsEmpty() {
		return base
	}
	if hashed {
		sum := hashWithDomain(DomainMangledName, []byte(base+"|"+m.Key()))
		return "__" + base + "__" + sum[:16]
	}
	var sb strings.Builder
	sb.WriteString("__")
	sb.WriteString(base)
	for _, n := range m.Names {
		sb.WriteString("__")
		sb.WriteString(mangleText(m.Args[n].Text))
	}
	return sb.String()
}

func mangleText(s string) string {
	r := strings.NewReplacer("::", "_", "-", "m", "<", "_", ">", "", ",", "_", " ", "", "'", "_")
	return r.Replace(s)
}

// ParamValue is one evaluated parameter of an instantiation.
type ParamValue struct {
	Name  string
	Value value.Value
	Known bool
}

// Signature identifies one elaboration of a component: the symbol, its
// generic arguments and its evaluated parameters.
type Signature struct {
	Symbol   ID
	Name     string
	Generics GenericMap
	Params   []ParamValue
}

// NewSignature builds a signature with parameters sorted by name.
func NewSignature(sym *Symbol, generics GenericMap, params []ParamValue) Signature {
	ps := append([]ParamValue(nil), params...)
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
	return Signature{Symbol: sym.ID, Name: sym.Name(), Generics: generics, Params: ps}
}

// Key returns the canonical memoization key.
func (s Signature) Key() string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	sb.WriteString("#")
	sb.WriteString(strconv.Itoa(int(s.Symbol)))
	sb.WriteString("<")
	sb.WriteString(s.Generics.Key())
	sb.WriteString(">(")
	for i, p := range s.Params {
		if i > 0 {
			sb.WriteString(";")
		}
		sb.WriteString(p.Name)
		sb.WriteString("=")
		if p.Known {
			sb.WriteString(p.Value.Key())
		} else {
			sb.WriteString("?")
		}
	}
	sb.WriteString(")")
	return sb.String()
}

// Hash returns a content hash of the key.
func (s Signature) Hash() string {
	return hashWithDomain(DomainSignature, []byte(s.Key()))
}

// AllKnown reports whether every parameter has an evaluated value.
func (s Signature) AllKnown() bool {
	for _, p := range s.Params {
		if !p.Known {
			return false
		}
	}
	return true
}

func (s Signature) String() string {
	if s.Generics.IsEmpty() {
		return s.Name
	}
	return s.Generics.Mangled(s.Name, false)
}
