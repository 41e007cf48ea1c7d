package analyzer

import (
	"strings"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/syntax"
)

// edge is one unconditional instantiation.
type edge struct {
	to   string
	tok  syntax.Token
	path string
}

// hierarchyGraph maps a component to the components it always instantiates.
type hierarchyGraph struct {
	order []string
	edges map[string][]edge
}

func (g *hierarchyGraph) successors(v string) []string {
	out := make([]string, 0, len(g.edges[v]))
	for _, e := range g.edges[v] {
		out = append(out, e.to)
	}
	return out
}

func (g *hierarchyGraph) edgeTo(from, to string) edge {
	for _, e := range g.edges[from] {
		if e.to == to {
			return e
		}
	}
	return edge{}
}

// AnalyzeHierarchy reports recursive_hierarchy for every set of modules
// and interfaces that instantiate each other outside any generate if or
// generate for.
func AnalyzeHierarchy(files []*syntax.File) diag.List {
	g := buildHierarchyGraph(files)

	var errs diag.List
	for _, scc := range tarjanSCC(g) {
		if len(scc) == 1 && !hasSelfLoop(g, scc[0]) {
			continue
		}
		path := cyclePath(g, scc)
		e := g.edgeTo(path[0], path[1])
		err := diag.New(diag.RecursiveHierarchy, e.tok,
			"%s instantiates itself: %s", path[0], strings.Join(path, " -> "))
		err.Path = e.path
		errs.Add(err)
	}
	return errs
}

func buildHierarchyGraph(files []*syntax.File) *hierarchyGraph {
	g := &hierarchyGraph{edges: make(map[string][]edge)}
	components := make(map[string]bool)
	for _, f := range files {
		for _, it := range f.Items {
			switch d := it.(type) {
			case *syntax.ModuleDecl:
				if !d.Proto {
					components[d.Name.Text] = true
				}
			case *syntax.InterfaceDecl:
				if !d.Proto {
					components[d.Name.Text] = true
				}
			}
		}
	}

	add := func(file, name string, generics []syntax.GenericParam, body []syntax.Decl) {
		shadowed := make(map[string]bool, len(generics))
		for _, p := range generics {
			shadowed[p.Name.Text] = true
		}
		g.order = append(g.order, name)
		g.edges[name] = []edge{}
		for _, inst := range unconditionalInstances(body) {
			path := inst.Component
			if path.IsSystemVerilog() || len(path.Segments) != 1 {
				continue
			}
			to := path.First().Text
			if shadowed[to] || !components[to] {
				continue
			}
			g.edges[name] = append(g.edges[name], edge{to: to, tok: inst.Tok, path: file})
		}
	}
	for _, f := range files {
		for _, it := range f.Items {
			switch d := it.(type) {
			case *syntax.ModuleDecl:
				if !d.Proto {
					add(f.Path, d.Name.Text, d.Generics, d.Body)
				}
			case *syntax.InterfaceDecl:
				if !d.Proto {
					add(f.Path, d.Name.Text, d.Generics, d.Body)
				}
			}
		}
	}
	return g
}

// unconditionalInstances collects the inst declarations of body that do
// not sit under a generate if or generate for.
func unconditionalInstances(body []syntax.Decl) []*syntax.InstDecl {
	var out []*syntax.InstDecl
	for _, d := range body {
		switch d := d.(type) {
		case *syntax.InstDecl:
			out = append(out, d)
		case *syntax.GenerateBlockDecl:
			out = append(out, unconditionalInstances(d.Body)...)
		case *syntax.UnsafeDecl:
			out = append(out, unconditionalInstances(d.Body)...)
		}
	}
	return out
}

func hasSelfLoop(g *hierarchyGraph, v string) bool {
	for _, w := range g.successors(v) {
		if w == v {
			return true
		}
	}
	return false
}

// tarjanSCC finds the strongly connected components of g. Nodes are
// visited in declaration order so the result is stable.
func tarjanSCC(g *hierarchyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.successors(v) {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, v := range g.order {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}
	return sccs
}

// cyclePath returns a shortest cycle through the earliest declared member
// of scc, starting and ending at that member.
func cyclePath(g *hierarchyGraph, scc []string) []string {
	in := make(map[string]bool, len(scc))
	for _, v := range scc {
		in[v] = true
	}
	var start string
	for _, v := range g.order {
		if in[v] {
			start = v
			break
		}
	}

	// Breadth-first search back to start, within the component.
	prev := map[string]string{}
	queue := []string{start}
	seen := map[string]bool{}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range g.successors(v) {
			if !in[w] {
				continue
			}
			if w == start {
				path := []string{start}
				for u := v; u != start; u = prev[u] {
					path = append(path, u)
				}
				reverse(path[1:])
				return append(path, start)
			}
			if !seen[w] {
				seen[w] = true
				prev[w] = v
				queue = append(queue, w)
			}
		}
	}
	return []string{start, start}
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
