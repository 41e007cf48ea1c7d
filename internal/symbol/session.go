package symbol

import (
	"log/slog"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/syntax"
)

// ID identifies a symbol within a Session. The zero ID is never assigned.
type ID int

// Symbol is a named declaration.
type Symbol struct {
	ID        ID
	Token     syntax.Token
	Kind      Kind
	Namespace Namespace
	Public    bool
	Doc       []string
	Attrs     []syntax.Attribute
	Props     Props

	// GenericMaps lists the distinct instantiations discovered for a generic
	// module, interface or package, in discovery order.
	GenericMaps []GenericMap
}

// Name returns the declared name.
func (s *Symbol) Name() string { return s.Token.Text }

// Inner returns the namespace opened by the symbol.
func (s *Symbol) Inner() Namespace { return s.Namespace.Push(s.Name()) }

// IsGeneric reports whether the symbol declares generic parameters.
func (s *Symbol) IsGeneric() bool { return len(s.GenericParams()) > 0 }

// GenericParams returns the IDs of the declared generic parameters.
func (s *Symbol) GenericParams() []ID {
	switch p := s.Props.(type) {
	case *ModuleProps:
		return p.Generics
	case *InterfaceProps:
		return p.Generics
	case *PackageProps:
		return p.Generics
	case *FunctionProps:
		return p.Generics
	}
	return nil
}

// Import is an import visible in a namespace.
type Import struct {
	Path     []string
	Wildcard bool
	Token    syntax.Token
}

// Session owns a symbol table. Sessions are independent of each other.
type Session struct {
	ID      uuid.UUID
	Project string

	symbols []*Symbol
	index   map[string]map[string]ID
	imports map[string][]Import

	blockNames   map[any]string
	blockCounter int
}

// NewSession creates an empty session for a project.
func NewSession(project string) *Session {
	s := &Session{ID: uuid.New(), Project: project}
	s.Clear()
	return s
}

// Clear drops every symbol and import.
func (s *Session) Clear() {
	s.symbols = []*Symbol{nil}
	s.index = make(map[string]map[string]ID)
	s.imports = make(map[string][]Import)
	s.blockNames = make(map[any]string)
	s.blockCounter = 0
}

// Root returns the project namespace.
func (s *Session) Root() Namespace { return Namespace{s.Project} }

// Insert adds a symbol to its namespace and assigns its ID. A name already
// present in the same namespace is reported as duplicated_identifier and the
// existing symbol is kept.
func (s *Session) Insert(sym *Symbol) (ID, error) {
	key := sym.Namespace.String()
	names, ok := s.index[key]
	if !ok {
		names = make(map[string]ID)
		s.index[key] = names
	}
	if prev, ok := names[sym.Name()]; ok {
		return prev, diag.New(diag.DuplicatedIdentifier, sym.Token,
			"%s is already defined in %s", sym.Name(), key)
	}
	if sym.Props == nil {
		sym.Props = NoProps{}
	}
	sym.ID = ID(len(s.symbols))
	s.symbols = append(s.symbols, sym)
	names[sym.Name()] = sym.ID
	return sym.ID, nil
}

// Get returns the symbol with the given ID or nil.
func (s *Session) Get(id ID) *Symbol {
	if id <= 0 || int(id) >= len(s.symbols) {
		return nil
	}
	return s.symbols[id]
}

// Lookup finds name declared directly in ns.
func (s *Session) Lookup(ns Namespace, name string) (*Symbol, bool) {
	id, ok := s.index[ns.String()][name]
	if !ok {
		return nil, false
	}
	return s.symbols[id], true
}

// Members returns the symbols declared directly in ns, ordered by ID.
func (s *Session) Members(ns Namespace) []*Symbol {
	names := s.index[ns.String()]
	out := make([]*Symbol, 0, len(names))
	for _, id := range names {
		out = append(out, s.symbols[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Symbols returns every symbol in insertion order.
func (s *Session) Symbols() []*Symbol {
	return s.symbols[1:]
}

// AddImport makes an import visible in ns.
func (s *Session) AddImport(ns Namespace, imp Import) {
	key := ns.String()
	s.imports[key] = append(s.imports[key], imp)
}

// Imports returns the imports declared directly in ns.
func (s *Session) Imports(ns Namespace) []Import {
	return s.imports[ns.String()]
}

// NameBlock returns the scope name of an unlabeled block node, allocating
// "@N" on first use. Later passes call it with the same node to find the
// namespace the symbol table used.
func (s *Session) NameBlock(node any) string {
	if name, ok := s.blockNames[node]; ok {
		return name
	}
	name := "@" + strconv.Itoa(s.blockCounter)
	s.blockCounter++
	s.blockNames[node] = name
	return name
}

// AddGenericMap records an instantiation of a generic symbol. It returns
// false when an identical map was already recorded.
func (s *Session) AddGenericMap(id ID, m GenericMap) bool {
	sym := s.Get(id)
	if sym == nil {
		return false
	}
	key := m.Key()
	for _, prev := range sym.GenericMaps {
		if prev.Key() == key {
			return false
		}
	}
	sym.GenericMaps = append(sym.GenericMaps, m)
	slog.Debug("generic instance", "session", s.ID, "symbol", sym.Name(), "args", key)
	return true
}

// TopLevel returns the modules, interfaces and packages of the project in
// declaration order.
func (s *Session) TopLevel() []*Symbol {
	var out []*Symbol
	for _, sym := range s.Members(s.Root()) {
		switch sym.Kind {
		case KindModule, KindInterface, KindPackage, KindProtoModule, KindProtoPackage:
			out = append(out, sym)
		}
	}
	return out
}
