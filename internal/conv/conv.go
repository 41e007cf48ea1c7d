// Package conv elaborates analyzed source into IR.
//
// Conversion walks every non-generic module and interface, evaluates
// parameters and generate constructs, unrolls loops and instantiates
// children on demand. Each distinct combination of component, generic
// arguments and parameter overrides is elaborated once and shared; the
// elaboration stack is bounded by Config and rejects a component that
// would contain itself.
//
// Errors never abort the whole run. A declaration or statement that
// cannot be converted is reported and skipped, and conversion continues
// with its siblings.
package conv

import (
	"log/slog"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/ir"
	"github.com/roach88/veryl-go/internal/symbol"
)

// Convert elaborates the project in sess.
func Convert(sess *symbol.Session, cfg Config) (*ir.Ir, diag.List) {
	s := newShared(sess, cfg)
	out := &ir.Ir{}
	for _, sym := range sess.TopLevel() {
		if sym.Kind != symbol.KindModule && sym.Kind != symbol.KindInterface {
			continue
		}
		if sym.IsGeneric() {
			slog.Debug("skip generic top level", "component", sym.Name())
			continue
		}
		root := s.newContext(sym, sym.Name())
		comp, err := root.getComponent(sym, symbol.GenericMap{Symbol: sym.ID}, nil, sym.Token)
		if err != nil {
			root.insertIrError(err)
			continue
		}
		if comp != nil {
			out.Components = append(out.Components, comp)
		}
	}
	s.errs.Sort()
	slog.Debug("conversion done", "components", len(out.Components), "instances", s.history.Total(), "errors", len(s.errs))
	return out, s.errs
}
