package conv

import (
	"log/slog"

	"github.com/roach88/veryl-go/internal/ir"
	"github.com/roach88/veryl-go/internal/symbol"
)

// InstanceHistory tracks the elaboration stack and memoizes every component
// elaborated so far, keyed by signature.
//
// Push enforces three rules before a new elaboration starts:
//   - the stack may not grow past the hierarchy depth limit
//   - the number of distinct signatures may not grow past the total limit
//   - a fully evaluated signature already on the stack is infinite recursion
//
// A failed elaboration pops without storing a component, so a later request
// for the same signature elaborates again and reports its errors again.
type InstanceHistory struct {
	depthLimit int
	totalLimit int
	stack      []symbol.Signature
	full       map[string]ir.Component
}

// NewInstanceHistory creates a history with the given limits.
func NewInstanceHistory(depthLimit, totalLimit int) *InstanceHistory {
	return &InstanceHistory{
		depthLimit: depthLimit,
		totalLimit: totalLimit,
		full:       make(map[string]ir.Component),
	}
}

// Get returns the memoized component for sig.
func (h *InstanceHistory) Get(sig symbol.Signature) (ir.Component, bool) {
	c, ok := h.full[sig.Key()]
	if ok && c != nil {
		slog.Debug("instance memo hit", "signature", sig.String())
		return c, true
	}
	return nil, false
}

// Push starts elaborating sig. It returns false without error when sig is
// already known, in which case nothing is pushed.
func (h *InstanceHistory) Push(sig symbol.Signature) (bool, error) {
	if len(h.stack) > h.depthLimit {
		return false, &ExceedLimitError{Kind: HierarchyDepth, Value: len(h.stack), Limit: h.depthLimit}
	}
	if len(h.full) > h.totalLimit {
		return false, &ExceedLimitError{Kind: TotalInstance, Value: len(h.full), Limit: h.totalLimit}
	}
	key := sig.Key()
	for _, s := range h.stack {
		if s.Key() == key && sig.AllKnown() {
			return false, &InfiniteRecursionError{Signature: sig.String()}
		}
	}
	if _, ok := h.full[key]; ok {
		return false, nil
	}
	h.stack = append(h.stack, sig)
	h.full[key] = nil
	return true, nil
}

// Set stores the elaborated component of sig.
func (h *InstanceHistory) Set(sig symbol.Signature, c ir.Component) {
	key := sig.Key()
	if _, ok := h.full[key]; ok {
		h.full[key] = c
	}
}

// Pop ends the innermost elaboration. When it failed, the placeholder is
// dropped so the signature is not treated as known.
func (h *InstanceHistory) Pop(failed bool) {
	if len(h.stack) == 0 {
		return
	}
	top := h.stack[len(h.stack)-1]
	h.stack = h.stack[:len(h.stack)-1]
	if failed {
		if c := h.full[top.Key()]; c == nil {
			delete(h.full, top.Key())
		}
	}
}

// Current returns the signature being elaborated.
func (h *InstanceHistory) Current() (symbol.Signature, bool) {
	if len(h.stack) == 0 {
		return symbol.Signature{}, false
	}
	return h.stack[len(h.stack)-1], true
}

// Depth returns the current stack depth.
func (h *InstanceHistory) Depth() int { return len(h.stack) }

// Total returns the number of distinct signatures seen.
func (h *InstanceHistory) Total() int { return len(h.full) }

// Clear drops all state.
func (h *InstanceHistory) Clear() {
	h.stack = nil
	h.full = make(map[string]ir.Component)
}
