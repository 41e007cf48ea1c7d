package symbol

import "strings"

// Namespace is the ordered list of scope names enclosing a symbol. The first
// element is the project name.
type Namespace []string

// Push returns a copy of ns with name appended.
func (ns Namespace) Push(name string) Namespace {
	out := make(Namespace, len(ns)+1)
	copy(out, ns)
	out[len(ns)] = name
	return out
}

// Pop returns ns without its innermost element.
func (ns Namespace) Pop() Namespace {
	if len(ns) == 0 {
		return ns
	}
	return ns[:len(ns)-1:len(ns)-1]
}

// Included reports whether ns is equal to or nested inside other.
func (ns Namespace) Included(other Namespace) bool {
	if len(other) > len(ns) {
		return false
	}
	for i := range other {
		if ns[i] != other[i] {
			return false
		}
	}
	return true
}

// Matched reports whether ns and other are identical.
func (ns Namespace) Matched(other Namespace) bool {
	return len(ns) == len(other) && ns.Included(other)
}

// Depth returns the number of elements.
func (ns Namespace) Depth() int { return len(ns) }

func (ns Namespace) String() string {
	return strings.Join(ns, "::")
}
