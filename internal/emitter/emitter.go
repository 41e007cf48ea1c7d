// Package emitter renders analyzed Veryl source as SystemVerilog.
//
// Emission walks the syntax tree twice per file. The align pass measures
// the columns that are padded across consecutive lines (port directions,
// declaration types, instance connections and so on) and records every
// generic instantiation it meets; it repeats until no new instantiation
// appears. The emit pass then writes the text, padding each column to the
// measured width, and records a source map entry for every declaration
// and statement it starts.
package emitter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/roach88/veryl-go/internal/config"
	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
)

// Options names the files of one emission.
type Options struct {
	// SourcePath is the Veryl source, as written into the source map.
	SourcePath string

	// DestPath is the SystemVerilog output.
	DestPath string

	// MapPath is the source map output. It defaults to DestPath + ".map".
	MapPath string
}

// Output is the result of emitting one file.
type Output struct {
	Text string

	// SourceMap is nil when source maps are disabled.
	SourceMap *SourceMap
}

type mode int

const (
	modeAlign mode = iota
	modeEmit
)

// genericFrame is one active generic specialization.
type genericFrame struct {
	scope symbol.Namespace
	m     symbol.GenericMap
}

// nestedKey identifies the instantiations of a generic function inside one
// specialization of its enclosing component.
type nestedKey struct {
	fn     symbol.ID
	parent string
}

// Emitter turns a syntax tree into SystemVerilog text.
type Emitter struct {
	sess   *symbol.Session
	build  config.Build
	opts   Options
	prefix string
	align  *Aligner

	mode  mode
	w     *writer
	errs  diag.List
	seen  map[string]bool
	units int

	ns      symbol.Namespace
	active  []genericFrame
	comp    *symbol.Symbol
	compKey string
	nested  map[nestedKey][]symbol.GenericMap

	// Set while emitting the body of an always_ff.
	ff *ffState

	// Set while rendering a select, for msb.
	sel *selectCtx
}

// New creates an emitter for the project in sess.
func New(sess *symbol.Session, cfg config.Config, opts Options) *Emitter {
	prefix := sess.Project + "_"
	if cfg.Build.OmitProjectPrefix {
		prefix = ""
	}
	e := &Emitter{
		sess:   sess,
		build:  cfg.Build,
		prefix: prefix,
		nested: make(map[nestedKey][]symbol.GenericMap),
	}
	e.SetOptions(opts)
	return e
}

// SetOptions retargets the emitter to another file of the same project.
// Generic instantiations found in earlier files are kept.
func (e *Emitter) SetOptions(opts Options) {
	if opts.MapPath == "" && opts.DestPath != "" {
		opts.MapPath = opts.DestPath + ".map"
	}
	e.opts = opts
}

// Emit renders file. Diagnostics found while emitting are returned with
// the best-effort text.
func (e *Emitter) Emit(file *syntax.File) (Output, diag.List) {
	e.align = NewAligner()
	e.errs = nil
	e.seen = make(map[string]bool)

	e.mode = modeAlign
	limit := max(e.build.HierarchyDepth, 1) + 1
	prev := -1
	passes := 0
	for passes < limit {
		e.pass(file, nil)
		passes++
		n := e.instantiations()
		if n == prev {
			break
		}
		prev = n
	}

	e.mode = modeEmit
	var smap *SourceMap
	if e.build.Sourcemap == config.SourceMapTarget {
		smap = NewSourceMap(filepath.Base(e.opts.DestPath), e.relToMap(e.opts.SourcePath))
	}
	e.pass(file, smap)
	if smap != nil {
		e.w.linef("//# sourceMappingURL=" + e.mapURL())
	}
	e.errs.Sort()
	slog.Debug("emitted", "file", file.Path, "align_passes", passes,
		"columns", e.align.Len(), "errors", len(e.errs))
	return Output{Text: e.w.String(), SourceMap: smap}, e.errs
}

func (e *Emitter) pass(file *syntax.File, smap *SourceMap) {
	e.w = newWriter(smap)
	e.units = 0
	e.ns = e.sess.Root()
	e.active = nil
	e.comp, e.compKey = nil, ""
	for _, item := range file.Items {
		e.item(item)
	}
}

// instantiations counts the generic instantiations recorded so far.
func (e *Emitter) instantiations() int {
	n := 0
	for _, sym := range e.sess.Symbols() {
		n += len(sym.GenericMaps)
	}
	for _, maps := range e.nested {
		n += len(maps)
	}
	return n
}

func (e *Emitter) mapURL() string {
	dir := filepath.Dir(e.opts.DestPath)
	rel, err := filepath.Rel(dir, e.opts.MapPath)
	if err != nil {
		return filepath.ToSlash(e.opts.MapPath)
	}
	return filepath.ToSlash(rel)
}

func (e *Emitter) relToMap(path string) string {
	if path == "" || e.opts.MapPath == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(filepath.Dir(e.opts.MapPath), path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// report records a diagnostic during the emit pass only, once per
// position and message.
func (e *Emitter) report(err *diag.AnalyzerError) {
	if e.mode != modeEmit || err == nil {
		return
	}
	key := fmt.Sprintf("%s|%d|%d|%s", err.Kind, err.Token.Line, err.Token.Column, err.Message)
	if e.seen[key] {
		return
	}
	e.seen[key] = true
	e.errs.Add(err)
}

func (e *Emitter) reportf(kind diag.Kind, tok syntax.Token, format string, args ...any) {
	e.report(diag.New(kind, tok, format, args...))
}

// unit starts a top-level unit, separated from the previous one by a
// blank line.
func (e *Emitter) unit() {
	if e.units > 0 {
		e.w.nl()
	}
	e.units++
}

// group returns the alignment group anchored at tok in the current
// specialization.
func (e *Emitter) group(tok syntax.Token) string {
	return fmt.Sprintf("%d:%s", tok.Offset, e.specKey())
}

func (e *Emitter) specKey() string {
	keys := make([]string, len(e.active))
	for i, s := range e.active {
		keys[i] = s.m.Key()
	}
	return strings.Join(keys, "|")
}

// cell measures text in the align pass and pads it in the emit pass. The
// last cell of a line is never padded.
func (e *Emitter) cell(group string, class Class, text string, last bool) string {
	if e.mode == modeAlign {
		e.align.Measure(group, class, text)
		return text
	}
	if last {
		return text
	}
	return e.align.Pad(group, class, text)
}

// within runs f with the namespace set to ns.
func (e *Emitter) within(ns symbol.Namespace, f func()) {
	saved := e.ns
	e.ns = ns
	defer func() { e.ns = saved }()
	f()
}

// withSpec runs f inside one specialization of a generic symbol.
func (e *Emitter) withSpec(scope symbol.Namespace, m symbol.GenericMap, f func()) {
	e.active = append(e.active, genericFrame{scope: scope, m: m})
	defer func() { e.active = e.active[:len(e.active)-1] }()
	e.within(scope, f)
}

// evaluator returns a constant evaluator for the current namespace with
// every active specialization bound.
func (e *Emitter) evaluator() *symbol.Evaluator {
	ev := symbol.NewEvaluator(e.sess, e.ns)
	if len(e.active) == 0 {
		return ev
	}
	merged := symbol.GenericMap{Args: make(map[string]symbol.GenericValue)}
	for _, s := range e.active {
		for _, n := range s.m.Names {
			if _, ok := merged.Args[n]; !ok {
				merged.Names = append(merged.Names, n)
			}
			merged.Args[n] = s.m.Args[n]
		}
	}
	return ev.WithBindings(e.active[0].scope, merged)
}

// binding returns the argument bound to a generic parameter symbol by the
// innermost specialization of its owner.
func (e *Emitter) binding(sym *symbol.Symbol) (symbol.GenericValue, bool) {
	for i := len(e.active) - 1; i >= 0; i-- {
		if sym.Namespace.Matched(e.active[i].scope) {
			return e.active[i].m.Get(sym.Name())
		}
	}
	return symbol.GenericValue{}, false
}

// ---------------------------------------------------------------------------
// Top-level items

func (e *Emitter) item(item syntax.Item) {
	switch d := item.(type) {
	case *syntax.ModuleDecl:
		if d.Proto {
			return
		}
		e.component(d.Name, func(sym *symbol.Symbol, name string) { e.module(d, sym, name) })
	case *syntax.InterfaceDecl:
		if d.Proto {
			return
		}
		e.component(d.Name, func(sym *symbol.Symbol, name string) { e.interfaceDecl(d, sym, name) })
	case *syntax.PackageDecl:
		if d.Proto {
			return
		}
		e.component(d.Name, func(sym *symbol.Symbol, name string) { e.packageDecl(d, sym, name) })
	case *syntax.ImportDecl:
		e.unit()
		e.importDecl(d)
	case *syntax.EmbedDecl:
		if isInlineSV(d) {
			e.unit()
			e.embed(d)
		}
	}
}

// component emits a top-level symbol once, or once per recorded
// instantiation when it is generic. A generic symbol nobody instantiates
// is not emitted.
func (e *Emitter) component(name syntax.Token, f func(sym *symbol.Symbol, name string)) {
	sym, ok := e.sess.Lookup(e.sess.Root(), name.Text)
	if !ok || sym.Token.Offset != name.Offset {
		return
	}
	run := func(m symbol.GenericMap, emitted string) {
		e.comp, e.compKey = sym, m.Key()
		defer func() { e.comp, e.compKey = nil, "" }()
		e.unit()
		f(sym, emitted)
	}
	if !sym.IsGeneric() {
		e.within(sym.Inner(), func() { run(symbol.GenericMap{Symbol: sym.ID}, e.prefix+sym.Name()) })
		return
	}
	maps := append([]symbol.GenericMap(nil), sym.GenericMaps...)
	for _, m := range maps {
		e.withSpec(sym.Inner(), m, func() {
			run(m, e.prefix+m.Mangled(sym.Name(), e.build.HashedMangledName))
		})
	}
}

// genericMap evaluates the generic arguments of a path segment naming a
// generic symbol and records the instantiation.
func (e *Emitter) genericMap(sym *symbol.Symbol, seg syntax.PathSegment) (symbol.GenericMap, bool) {
	if !sym.IsGeneric() {
		return symbol.GenericMap{}, false
	}
	m, err := e.evaluator().GenericMap(sym, seg.Args, seg.Name)
	if err != nil {
		e.report(err)
		return symbol.GenericMap{}, false
	}
	if sym.Namespace.Depth() == 1 {
		e.sess.AddGenericMap(sym.ID, m)
	}
	return m, true
}

// addNested records an instantiation of a generic function inside the
// specialization parent of its enclosing component.
func (e *Emitter) addNested(fn *symbol.Symbol, parent string, m symbol.GenericMap) {
	k := nestedKey{fn: fn.ID, parent: parent}
	key := m.Key()
	for _, prev := range e.nested[k] {
		if prev.Key() == key {
			return
		}
	}
	e.nested[k] = append(e.nested[k], m)
}

func (e *Emitter) module(d *syntax.ModuleDecl, sym *symbol.Symbol, name string) {
	e.w.tok(d.Tok, "module")
	e.w.str(" ")
	e.w.tok(d.Name, name)
	if len(d.Params) > 0 {
		e.w.str(" #(")
		e.w.nl()
		e.w.indent++
		e.params(d.Params)
		e.w.indent--
		e.w.str(")")
	}
	if len(d.Ports) > 0 {
		e.w.str(" (")
		e.w.nl()
		e.w.indent++
		e.ports(d.Ports)
		e.w.indent--
		e.w.str(")")
	}
	e.w.linef(";")
	e.body(d.Body)
	e.w.linef("endmodule")
}

func (e *Emitter) interfaceDecl(d *syntax.InterfaceDecl, sym *symbol.Symbol, name string) {
	e.w.tok(d.Tok, "interface")
	e.w.str(" ")
	e.w.tok(d.Name, name)
	if len(d.Params) > 0 {
		e.w.str(" #(")
		e.w.nl()
		e.w.indent++
		e.params(d.Params)
		e.w.indent--
		e.w.str(")")
	}
	e.w.linef(";")
	e.body(d.Body)
	e.w.linef("endinterface")
}

func (e *Emitter) packageDecl(d *syntax.PackageDecl, sym *symbol.Symbol, name string) {
	e.w.tok(d.Tok, "package")
	e.w.str(" ")
	e.w.tok(d.Name, name)
	e.w.linef(";")
	e.body(d.Body)
	e.w.linef("endpackage")
}

func (e *Emitter) body(decls []syntax.Decl) {
	e.w.indent++
	e.decls(decls)
	e.w.indent--
}

func isInlineSV(d *syntax.EmbedDecl) bool {
	return d.Way.Text == "inline" && d.Lang.Text == "sv"
}
