package symbol

import (
	"fmt"
	"strings"

	"github.com/roach88/veryl-go/internal/syntax"
)

// ResolveError reports a path that could not be resolved.
type ResolveError struct {
	Path    []string
	Missing string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s is undefined (in %s)", e.Missing, strings.Join(e.Path, "::"))
}

// ResolveResult is a successfully resolved path.
type ResolveResult struct {
	// Found is the symbol named by the last resolved element.
	Found *Symbol

	// Chain holds the symbol of every resolved element, Found last.
	Chain []*Symbol

	// Rest holds path elements left after reaching a symbol whose members
	// are only known after generic substitution.
	Rest []string
}

// Resolve finds path starting from ns. The first element is searched from
// the innermost namespace outward, checking the imports visible at each
// level; the remaining elements are looked up in the member scope of the
// previous symbol.
func (s *Session) Resolve(path []string, ns Namespace) (*ResolveResult, error) {
	if len(path) == 0 {
		return nil, &ResolveError{Missing: "<empty>"}
	}
	if path[0] == "$sv" {
		sym := &Symbol{Kind: KindSystemVerilog, Token: syntax.Synthetic(strings.Join(path, "::")), Namespace: ns}
		return &ResolveResult{Found: sym, Chain: []*Symbol{sym}}, nil
	}

	first, ok := s.lookupOutward(path[0], ns)
	if !ok {
		return nil, &ResolveError{Path: path, Missing: path[0]}
	}
	res := &ResolveResult{Found: first, Chain: []*Symbol{first}}

	for i := 1; i < len(path); i++ {
		if res.Found.Kind == KindGenericParameter {
			res.Rest = path[i:]
			return res, nil
		}
		scope, ok := s.scopeOf(res.Found)
		if !ok {
			return nil, &ResolveError{Path: path, Missing: path[i]}
		}
		if scope.generic != nil {
			res.Found = scope.generic
			res.Chain = append(res.Chain, scope.generic)
			res.Rest = path[i:]
			return res, nil
		}
		next, ok := s.Lookup(scope.ns, path[i])
		if !ok {
			return nil, &ResolveError{Path: path, Missing: path[i]}
		}
		res.Found = next
		res.Chain = append(res.Chain, next)
	}
	return res, nil
}

// ResolveIdent resolves a scoped identifier.
func (s *Session) ResolveIdent(id *syntax.ScopedIdent, ns Namespace) (*ResolveResult, error) {
	return s.Resolve(id.Names(), ns)
}

func (s *Session) lookupOutward(name string, ns Namespace) (*Symbol, bool) {
	for i := len(ns); i >= 1; i-- {
		scope := ns[:i]
		if sym, ok := s.Lookup(scope, name); ok {
			return sym, true
		}
		if sym, ok := s.lookupImports(name, scope); ok {
			return sym, true
		}
	}
	return nil, false
}

func (s *Session) lookupImports(name string, ns Namespace) (*Symbol, bool) {
	for _, imp := range s.Imports(ns) {
		if !imp.Wildcard && imp.Path[len(imp.Path)-1] != name {
			continue
		}
		pkgPath := imp.Path
		if !imp.Wildcard {
			pkgPath = imp.Path[:len(imp.Path)-1]
		}
		pkg, ok := s.lookupOutward(pkgPath[0], s.Root())
		if !ok {
			continue
		}
		for _, elem := range pkgPath[1:] {
			if pkg, ok = s.Lookup(pkg.Inner(), elem); !ok {
				break
			}
		}
		if pkg == nil {
			continue
		}
		if sym, ok := s.Lookup(pkg.Inner(), name); ok {
			return sym, true
		}
	}
	return nil, false
}

type memberScope struct {
	ns      Namespace
	generic *Symbol
}

// scopeOf returns the namespace holding the members reachable through
// sym with a following path element.
func (s *Session) scopeOf(sym *Symbol) (memberScope, bool) {
	switch sym.Kind {
	case KindModule, KindInterface, KindPackage, KindProtoModule, KindProtoPackage,
		KindStruct, KindUnion, KindEnum, KindBlock, KindFunction:
		return memberScope{ns: sym.Inner()}, true
	case KindModport:
		return memberScope{ns: sym.Namespace}, true
	case KindGenericParameter:
		return memberScope{generic: sym}, true
	case KindInstance:
		decl := sym.Props.(*InstanceProps).Decl
		return s.scopeOfPath(decl.Component.Names(), sym.Namespace)
	case KindPort:
		decl := sym.Props.(*PortProps).Decl
		if decl.Direction == syntax.DirInterface {
			return memberScope{generic: sym}, true
		}
		if decl.Modport != nil {
			return s.scopeOfPath(decl.Modport.Names(), sym.Namespace)
		}
		return s.scopeOfType(decl.Type, sym.Namespace)
	case KindVariable, KindLet:
		return s.scopeOfType(sym.Props.(*VariableProps).Type, sym.Namespace)
	case KindParameter, KindConst:
		return s.scopeOfType(sym.Props.(*ValueProps).Type, sym.Namespace)
	case KindStructMember, KindUnionMember:
		return s.scopeOfType(sym.Props.(*MemberProps).Type, sym.Namespace)
	case KindTypeDef:
		return s.scopeOfType(sym.Props.(*TypeDefProps).Type, sym.Namespace)
	}
	return memberScope{}, false
}

func (s *Session) scopeOfType(t *syntax.TypeExpr, ns Namespace) (memberScope, bool) {
	if t == nil || t.Kind != syntax.TypeNamed {
		return memberScope{}, false
	}
	return s.scopeOfPath(t.Name.Names(), ns)
}

func (s *Session) scopeOfPath(path []string, ns Namespace) (memberScope, bool) {
	res, err := s.Resolve(path, ns)
	if err != nil {
		return memberScope{}, false
	}
	if len(res.Rest) > 0 {
		return memberScope{generic: res.Found}, true
	}
	return s.scopeOf(res.Found)
}

// ModportMember is a modport member with its effective direction.
type ModportMember struct {
	Name      string
	Direction syntax.Direction
	Token     syntax.Token
}

// ModportMembers lists the members of a modport, expanding a default
// direction to every interface variable not listed explicitly.
func (s *Session) ModportMembers(mp *Symbol) []ModportMember {
	props, ok := mp.Props.(*ModportProps)
	if !ok {
		return nil
	}
	var out []ModportMember
	seen := make(map[string]bool)
	for _, item := range props.Decl.Items {
		out = append(out, ModportMember{Name: item.Name.Text, Direction: item.Direction, Token: item.Name})
		seen[item.Name.Text] = true
	}
	if props.Decl.Default == nil {
		return out
	}
	for _, m := range s.Members(mp.Namespace) {
		if (m.Kind == KindVariable || m.Kind == KindLet) && !seen[m.Name()] {
			out = append(out, ModportMember{Name: m.Name(), Direction: *props.Decl.Default, Token: m.Token})
		}
	}
	return out
}
