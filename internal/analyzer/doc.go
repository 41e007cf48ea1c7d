// Package analyzer holds checks that run on parsed files before
// elaboration.
//
// AnalyzeHierarchy builds the instantiation graph of every module and
// interface and reports the cycles that no generate condition can break.
// Conditional recursion is left to elaboration, which stops it at the
// configured hierarchy depth.
package analyzer
