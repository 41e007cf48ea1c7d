package conv

import (
	"errors"
	"fmt"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/ir"
	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

// shared is the state common to every component converted in one run.
type shared struct {
	sess    *symbol.Session
	config  Config
	cache   *value.MaskCache
	errs    diag.List
	seen    map[string]bool
	history *InstanceHistory
}

type entryKind int

const (
	// entryVar is backed by a Variable of the component.
	entryVar entryKind = iota

	// entryConst is a genvar: a constant with no storage.
	entryConst

	// entryOpaque is a name whose members the IR cannot see, such as a
	// generic interface port.
	entryOpaque

	// entryGroup is an interface instance or a modport port whose members
	// are variables of their own.
	entryGroup
)

// varEntry is what a local name path resolves to.
type varEntry struct {
	kind  entryKind
	id    ir.VarID
	c     ir.Comptime
	group *group
}

// binding scopes a generic map to the namespace it applies in.
type binding struct {
	scope symbol.Namespace
	m     symbol.GenericMap
}

// scope records the names bound since it was opened so that closing it
// restores the outer bindings.
type scope struct {
	shadowed map[string]*varEntry
}

// Context is the conversion state of one component. Nested components are
// converted in fresh contexts that share errors, limits and the instance
// history.
type Context struct {
	*shared

	sym       *symbol.Symbol
	compNS    symbol.Namespace
	ns        symbol.Namespace
	bindings  []binding
	overrides map[string]symbol.ParamValue

	nextID ir.VarID
	vars   map[string]varEntry
	scopes []*scope
	hier   []string
	aff    []ir.Affiliation

	body  *ir.Body
	funcs map[string]*funcProto

	defaultClock string
	defaultReset string

	// Set while converting the statements of an always_ff.
	clock    *ir.Comptime
	hasReset bool

	// Set while converting a function body.
	ret *ir.AssignDestination

	// Width of the value being selected, for msb.
	msb []int
}

func newShared(sess *symbol.Session, cfg Config) *shared {
	return &shared{
		sess:    sess,
		config:  cfg,
		cache:   value.NewMaskCache(),
		seen:    make(map[string]bool),
		history: NewInstanceHistory(cfg.HierarchyDepth, cfg.TotalInstance),
	}
}

// newContext returns a context for converting sym.
func (s *shared) newContext(sym *symbol.Symbol, name string) *Context {
	c := &Context{
		shared: s,
		sym:    sym,
		vars:   make(map[string]varEntry),
		funcs:  make(map[string]*funcProto),
		body: &ir.Body{
			Name:      name,
			Variables: make(map[ir.VarID]*ir.Variable),
			Functions: make(map[ir.VarID]*ir.Function),
			Token:     sym.Token,
		},
	}
	c.compNS = sym.Inner()
	c.ns = c.compNS
	return c
}

// MaskCache implements ir.Env.
func (s *shared) MaskCache() *value.MaskCache { return s.cache }

// InsertError records a diagnostic once. Identical diagnostics at the same
// position are dropped.
func (s *shared) InsertError(e *diag.AnalyzerError) {
	key := fmt.Sprintf("%s|%d|%d|%s", e.Kind, e.Token.Line, e.Token.Column, e.Message)
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.errs.Add(e)
}

// fail records a diagnostic and returns an IrError that marks it reported.
func (s *shared) fail(kind diag.Kind, tok syntax.Token, format string, args ...any) error {
	s.InsertError(diag.New(kind, tok, format, args...))
	return &IrError{Code: string(kind), Token: tok, Reported: true}
}

func (s *shared) report(err *diag.AnalyzerError) error {
	s.InsertError(err)
	return &IrError{Code: string(err.Kind), Token: err.Token, Reported: true}
}

// insertIrError records unsupported_by_ir for an error whose cause was not
// reported yet. Conversion continues with the next sibling.
func (c *Context) insertIrError(err error) {
	if err == nil {
		return
	}
	var ie *IrError
	if errors.As(err, &ie) {
		if !ie.Reported {
			c.InsertError(diag.New(diag.UnsupportedByIr, ie.Token, "%s is not supported by IR", ie.Code))
		}
		return
	}
	c.InsertError(diag.New(diag.UnsupportedByIr, c.sym.Token, "%s", err.Error()))
}

// Block runs f and restores the namespace, scopes, hierarchy, affiliation
// and generic bindings afterwards, whatever f returns.
func (c *Context) Block(f func(*Context) error) error {
	ns, hier, aff := c.ns, len(c.hier), len(c.aff)
	scopes, bindings, msb := len(c.scopes), len(c.bindings), len(c.msb)
	clock, hasReset, ret := c.clock, c.hasReset, c.ret
	defer func() {
		for len(c.scopes) > scopes {
			c.popScope()
		}
		c.ns = ns
		c.hier = c.hier[:hier]
		c.aff = c.aff[:aff]
		c.bindings = c.bindings[:bindings]
		c.msb = c.msb[:msb]
		c.clock, c.hasReset, c.ret = clock, hasReset, ret
	}()
	return f(c)
}

// pushScope opens a scope. A non-empty label prefixes the paths of the
// variables declared inside.
func (c *Context) pushScope(label string) {
	c.scopes = append(c.scopes, &scope{shadowed: make(map[string]*varEntry)})
	if label != "" {
		c.hier = append(c.hier, label)
	}
}

func (c *Context) popScope() {
	s := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]
	for key, prev := range s.shadowed {
		if prev == nil {
			delete(c.vars, key)
		} else {
			c.vars[key] = *prev
		}
	}
}

func (c *Context) pushNS(name string) { c.ns = c.ns.Push(name) }

func (c *Context) pushAffiliation(a ir.Affiliation) { c.aff = append(c.aff, a) }

func (c *Context) affiliation() ir.Affiliation {
	if len(c.aff) == 0 {
		return ir.AffModule
	}
	return c.aff[len(c.aff)-1]
}

func (c *Context) bind(path ir.VarPath, e varEntry) {
	key := path.Key()
	if len(c.scopes) > 0 {
		s := c.scopes[len(c.scopes)-1]
		if _, done := s.shadowed[key]; !done {
			if prev, ok := c.vars[key]; ok {
				s.shadowed[key] = &prev
			} else {
				s.shadowed[key] = nil
			}
		}
	}
	c.vars[key] = e
}

func (c *Context) findPath(path ir.VarPath) (varEntry, bool) {
	e, ok := c.vars[path.Key()]
	return e, ok
}

// insertVar declares a variable under the local path and returns it. The
// stored path is prefixed with the enclosing block labels.
func (c *Context) insertVar(path ir.VarPath, kind ir.VarKind, t ir.Type, domain ir.ClockDomain, tok syntax.Token) *ir.Variable {
	id := c.nextID
	c.nextID++
	full := make(ir.VarPath, 0, len(c.hier)+len(path))
	full = append(full, c.hier...)
	full = append(full, path...)

	var v *ir.Variable
	if n, ok := t.TotalArray(); ok && n > c.config.EvaluateArray {
		v = ir.NewVariable(id, full, kind, t.Element(), c.affiliation(), tok)
		init := v.Values[0]
		v.Type = t
		v.Values = make([]value.Value, c.config.EvaluateArray)
		for i := range v.Values {
			v.Values[i] = init
		}
	} else {
		v = ir.NewVariable(id, full, kind, t, c.affiliation(), tok)
	}
	v.ClockDomain = domain
	c.body.Variables[id] = v
	c.bind(path, varEntry{kind: entryVar, id: id, c: variableComptime(v, tok)})
	return v
}

// bindConst makes name a constant with no storage.
func (c *Context) bindConst(name string, v value.Value, t ir.Type, tok syntax.Token) {
	ct := ir.NewValue(v, tok)
	ct.Type = t
	c.bind(ir.VarPath{name}, varEntry{kind: entryConst, c: ct})
}

func variableComptime(v *ir.Variable, tok syntax.Token) ir.Comptime {
	ct := ir.Comptime{Type: v.Type, ClockDomain: v.ClockDomain, Token: tok}
	if v.Kind == ir.VarParam || v.Kind == ir.VarConst {
		ct.IsConst = true
		ct.IsGlobal = true
		if x, ok := v.Value(0); ok && !v.Type.IsArray() {
			ct.Value = ir.ValueVariant{Kind: ir.ValueNumeric, Numeric: x}
		}
	}
	return ct
}

// evaluator returns a symbol evaluator for ns with every generic binding
// of the context applied.
func (c *Context) evaluator(ns symbol.Namespace) *symbol.Evaluator {
	e := symbol.NewEvaluator(c.sess, ns)
	if len(c.bindings) == 0 {
		return e
	}
	merged := symbol.GenericMap{Args: make(map[string]symbol.GenericValue)}
	for _, b := range c.bindings {
		for _, n := range b.m.Names {
			if _, ok := merged.Args[n]; !ok {
				merged.Names = append(merged.Names, n)
			}
			merged.Args[n] = b.m.Args[n]
		}
	}
	return e.WithBindings(c.bindings[0].scope, merged)
}

// generic returns the argument bound to name in the current namespace.
func (c *Context) generic(name string) (symbol.GenericValue, bool) {
	for i := len(c.bindings) - 1; i >= 0; i-- {
		b := c.bindings[i]
		if !c.ns.Included(b.scope) {
			continue
		}
		if g, ok := b.m.Get(name); ok {
			return g, true
		}
	}
	return symbol.GenericValue{}, false
}

// local reports whether a symbol belongs to the component being converted.
func (c *Context) local(sym *symbol.Symbol) bool {
	return sym.Namespace.Included(c.compNS)
}

// checkSize enforces the evaluate size limit.
func (c *Context) checkSize(n int, tok syntax.Token) error {
	if n > c.config.EvaluateSize {
		err := &ExceedLimitError{Kind: EvaluateSize, Value: n, Limit: c.config.EvaluateSize}
		return c.fail(diag.ExceedLimit, tok, "%s", err.Error())
	}
	return nil
}
