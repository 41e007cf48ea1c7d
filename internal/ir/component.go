package ir

import (
	"sort"
	"strings"

	"github.com/roach88/veryl-go/internal/syntax"
)

// Function is a converted function body. Arguments and the return value are
// variables of the enclosing component.
type Function struct {
	ID         VarID
	Path       VarPath
	Ret        *VarID
	Args       []VarID
	Statements []Statement
	Token      syntax.Token
}

func (f *Function) write(w *writer) {
	head := "func " + f.ID.String() + "(" + f.Path.String() + ")"
	if f.Ret != nil {
		head += " -> " + f.Ret.String()
	}
	w.line(head + " {")
	w.block(f.Statements)
	w.line("}")
}

// Port is a named port of a component.
type Port struct {
	Path VarPath
	ID   VarID
}

// Body is the content shared by modules and interfaces.
type Body struct {
	Name         string
	Ports        []Port
	Variables    map[VarID]*Variable
	Functions    map[VarID]*Function
	Declarations []Declaration
	Token        syntax.Token
}

// PortID returns the variable bound to the named port.
func (b *Body) PortID(path VarPath) (VarID, bool) {
	key := path.Key()
	for _, p := range b.Ports {
		if p.Path.Key() == key {
			return p.ID, true
		}
	}
	return 0, false
}

// PortsWithPrefix returns ports whose path starts with prefix, used for
// interface and modport ports that expand per member.
func (b *Body) PortsWithPrefix(prefix VarPath) []Port {
	var out []Port
	for _, p := range b.Ports {
		if len(p.Path) > len(prefix) && VarPath(p.Path[:len(prefix)]).Key() == prefix.Key() {
			out = append(out, p)
		}
	}
	return out
}

func (b *Body) write(w *writer, keyword string) {
	w.line(keyword + " " + b.Name + " {")
	w.indent++
	ids := make([]int, 0, len(b.Variables))
	for id := range b.Variables {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		v := b.Variables[VarID(id)]
		if v.Affiliation == AffFunction {
			continue
		}
		w.line(v.String())
	}
	fids := make([]int, 0, len(b.Functions))
	for id := range b.Functions {
		fids = append(fids, int(id))
	}
	sort.Ints(fids)
	for _, id := range fids {
		w.line("")
		b.Functions[VarID(id)].write(w)
	}
	if len(b.Declarations) > 0 {
		w.line("")
	}
	for _, d := range b.Declarations {
		d.write(w)
	}
	w.indent--
	w.line("}")
}

// Component is an instantiable unit.
type Component interface {
	ComponentName() string
	write(w *writer)
}

// Module is an elaborated module.
type Module struct {
	Body
}

func (m *Module) ComponentName() string { return m.Name }
func (m *Module) write(w *writer)       { m.Body.write(w, "module") }

func (m *Module) String() string {
	w := &writer{}
	m.write(w)
	return w.String()
}

// Interface is an elaborated interface.
type Interface struct {
	Body
}

func (i *Interface) ComponentName() string { return i.Name }
func (i *Interface) write(w *writer)       { i.Body.write(w, "interface") }

func (i *Interface) String() string {
	w := &writer{}
	i.write(w)
	return w.String()
}

// SystemVerilog is a module known only by name, instantiated through $sv.
type SystemVerilog struct {
	Name string
}

func (s *SystemVerilog) ComponentName() string { return s.Name }
func (s *SystemVerilog) write(w *writer)       { w.line("systemverilog " + s.Name) }

// Ir is the conversion result for a project.
type Ir struct {
	Components []Component
}

func (ir *Ir) String() string {
	parts := make([]string, len(ir.Components))
	for i, c := range ir.Components {
		w := &writer{}
		c.write(w)
		parts[i] = w.String()
	}
	return strings.Join(parts, "\n")
}
