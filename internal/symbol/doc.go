// Package symbol builds and queries the symbol table of a Veryl project.
//
// A Session owns every symbol, the namespace index, imports and the generic
// instances discovered during conversion. Create walks a parsed file once,
// inserting one Symbol per named declaration and collecting diagnostics
// without stopping at the first one.
//
// Names are resolved lexically: Resolve looks for the first path element
// from the innermost namespace outward, then through the imports visible at
// each level, and descends member scopes for the remaining elements
// (package items, struct members, instance and modport members).
//
// Constant expressions needed while the table is built (enum values,
// widths, generic arguments) are computed by the Evaluator, which is also
// used by the emitter to mangle generic instance names.
package symbol
