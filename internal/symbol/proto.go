package symbol

import (
	"fmt"

	"github.com/roach88/veryl-go/internal/syntax"
)

// CheckProtoBound reports every way actual fails to implement proto. An
// empty result means the bound is satisfied.
func (s *Session) CheckProtoBound(proto, actual *Symbol) []string {
	var msgs []string
	switch proto.Kind {
	case KindProtoModule:
		if actual.Kind != KindModule {
			return []string{fmt.Sprintf("%s is a %s, not a module", actual.Name(), actual.Kind)}
		}
		pp := proto.Props.(*ModuleProps)
		for _, id := range pp.Params {
			p := s.Get(id)
			if a, ok := s.Lookup(actual.Inner(), p.Name()); !ok || a.Kind != KindParameter {
				msgs = append(msgs, fmt.Sprintf("parameter %s is missing", p.Name()))
			}
		}
		for _, id := range pp.Ports {
			msgs = append(msgs, s.checkPort(s.Get(id), actual)...)
		}
	case KindProtoPackage:
		if actual.Kind != KindPackage {
			return []string{fmt.Sprintf("%s is a %s, not a package", actual.Name(), actual.Kind)}
		}
		msgs = s.checkMembers(proto, actual)
	case KindInterface:
		if actual.Kind != KindInterface {
			return []string{fmt.Sprintf("%s is a %s, not an interface", actual.Name(), actual.Kind)}
		}
		msgs = s.checkMembers(proto, actual)
	default:
		return []string{fmt.Sprintf("%s is not a proto", proto.Name())}
	}
	return msgs
}

func (s *Session) checkPort(p, actual *Symbol) []string {
	a, ok := s.Lookup(actual.Inner(), p.Name())
	if !ok || a.Kind != KindPort {
		return []string{fmt.Sprintf("port %s is missing", p.Name())}
	}
	pd, ad := p.Props.(*PortProps).Decl, a.Props.(*PortProps).Decl
	if pd.Direction != ad.Direction {
		return []string{fmt.Sprintf("port %s is %s, expected %s", p.Name(), ad.Direction, pd.Direction)}
	}
	if pd.Type != nil && ad.Type != nil && !sameTypeShape(pd.Type, ad.Type) {
		return []string{fmt.Sprintf("port %s has a different type", p.Name())}
	}
	return nil
}

func sameTypeShape(a, b *syntax.TypeExpr) bool {
	if a.Kind != b.Kind || a.Signed != b.Signed || len(a.Width) != len(b.Width) || len(a.Array) != len(b.Array) {
		return false
	}
	if a.Kind == syntax.TypeNamed {
		return a.Name.String() == b.Name.String()
	}
	return true
}

func (s *Session) checkMembers(proto, actual *Symbol) []string {
	var msgs []string
	for _, m := range s.Members(proto.Inner()) {
		if m.Kind == KindGenericParameter {
			continue
		}
		a, ok := s.Lookup(actual.Inner(), m.Name())
		if !ok {
			msgs = append(msgs, fmt.Sprintf("%s %s is missing", m.Kind, m.Name()))
			continue
		}
		if !compatibleMember(m.Kind, a.Kind) {
			msgs = append(msgs, fmt.Sprintf("%s is a %s, expected %s", m.Name(), a.Kind, m.Kind))
		}
	}
	return msgs
}

func compatibleMember(proto, actual Kind) bool {
	switch proto {
	case KindParameter, KindConst:
		return actual == KindParameter || actual == KindConst
	case KindTypeDef:
		return actual.IsType()
	}
	return proto == actual
}
