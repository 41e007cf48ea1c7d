// Package diag defines the analyzer diagnostics shared by the symbol table,
// the IR conversion and the emitter.
//
// Every diagnostic carries a Kind (snake_case, stable across releases) and a
// numeric code grouped by category:
//
//	E1xx  name resolution
//	E2xx  typing and operators
//	E3xx  constant evaluation
//	E4xx  structure and limits
//	E5xx  connections
package diag

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/veryl-go/internal/syntax"
)

// Kind identifies a diagnostic category.
type Kind string

const (
	UndefinedIdentifier       Kind = "undefined_identifier"
	DuplicatedIdentifier      Kind = "duplicated_identifier"
	ReferringBeforeDefinition Kind = "referring_before_definition"
	MismatchGenericsArity     Kind = "mismatch_generics_arity"
	MissingDefaultArgument    Kind = "missing_default_argument"
	PrivateMember             Kind = "private_member"

	MismatchType                Kind = "mismatch_type"
	MismatchAssignment          Kind = "mismatch_assignment"
	InvalidOperand              Kind = "invalid_operand"
	InvalidLogicalOperand       Kind = "invalid_logical_operand"
	InvalidCast                 Kind = "invalid_cast"
	InvalidTypeDeclaration      Kind = "invalid_type_declaration"
	CallNonFunction             Kind = "call_non_function"
	MixedFunctionArgument       Kind = "mixed_function_argument"
	MismatchFunctionArity       Kind = "mismatch_function_arity"
	UnenclosedInnerIfExpression Kind = "unenclosed_inner_if_expression"
	InvalidSelect               Kind = "invalid_select"
	MismatchClockDomain         Kind = "mismatch_clock_domain"
	MismatchProto               Kind = "mismatch_proto"

	UnevaluableValue         Kind = "unevaluable_value"
	UnevaluatableEnumVariant Kind = "unevaluatable_enum_variant"
	InvalidEnumVariantValue  Kind = "invalid_enum_variant_value"
	TooLargeEnumVariant      Kind = "too_large_enum_variant"
	MismatchArrayLiteral     Kind = "mismatch_array_literal"
	MultipleDefault          Kind = "multiple_default"
	InvalidForStep           Kind = "invalid_for_step"
	InvalidNumber            Kind = "invalid_number"

	ExceedLimit         Kind = "exceed_limit"
	InfiniteRecursion   Kind = "infinite_recursion"
	MissingClockDomain  Kind = "missing_clock_domain"
	MissingClockSignal  Kind = "missing_clock_signal"
	MissingResetSignal  Kind = "missing_reset_signal"
	MissingIfReset      Kind = "missing_if_reset"
	RecursiveHierarchy  Kind = "recursive_hierarchy"
	UnsupportedByIr     Kind = "unsupported_by_ir"
	InvalidTestEmbed    Kind = "invalid_test_embed"
	MultipleDefaultPort Kind = "multiple_default_port"

	MismatchConnectDirection Kind = "mismatch_connect_direction"
	UnassignableOutput       Kind = "unassignable_output"
	SvWithImplicitReset      Kind = "sv_with_implicit_reset"
	UnknownPort              Kind = "unknown_port"
	MissingPort              Kind = "missing_port"
)

var codes = map[Kind]string{
	UndefinedIdentifier:       "E101",
	DuplicatedIdentifier:      "E102",
	ReferringBeforeDefinition: "E103",
	MismatchGenericsArity:     "E104",
	MissingDefaultArgument:    "E105",
	PrivateMember:             "E106",

	MismatchType:                "E201",
	MismatchAssignment:          "E202",
	InvalidOperand:              "E203",
	InvalidLogicalOperand:       "E204",
	InvalidCast:                 "E205",
	InvalidTypeDeclaration:      "E206",
	CallNonFunction:             "E207",
	MixedFunctionArgument:       "E208",
	MismatchFunctionArity:       "E209",
	UnenclosedInnerIfExpression: "E210",
	InvalidSelect:               "E211",
	MismatchClockDomain:         "E212",
	MismatchProto:               "E213",

	UnevaluableValue:         "E301",
	UnevaluatableEnumVariant: "E302",
	InvalidEnumVariantValue:  "E303",
	TooLargeEnumVariant:      "E304",
	MismatchArrayLiteral:     "E305",
	MultipleDefault:          "E306",
	InvalidForStep:           "E307",
	InvalidNumber:            "E308",

	ExceedLimit:         "E401",
	InfiniteRecursion:   "E402",
	MissingClockDomain:  "E403",
	MissingClockSignal:  "E404",
	MissingResetSignal:  "E405",
	MissingIfReset:      "E406",
	RecursiveHierarchy:  "E407",
	UnsupportedByIr:     "E408",
	InvalidTestEmbed:    "E409",
	MultipleDefaultPort: "E410",

	MismatchConnectDirection: "E501",
	UnassignableOutput:       "E502",
	SvWithImplicitReset:      "E503",
	UnknownPort:              "E504",
	MissingPort:              "E505",
}

// Code returns the stable numeric code of the kind, or "E000" when the kind
// is not registered.
func (k Kind) Code() string {
	if c, ok := codes[k]; ok {
		return c
	}
	return "E000"
}

// Severity distinguishes errors from warnings.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// AnalyzerError is a diagnostic attached to a source location.
type AnalyzerError struct {
	// Kind identifies the diagnostic category.
	Kind Kind

	// Message is a human-readable description.
	Message string

	// Token locates the diagnostic in the source.
	Token syntax.Token

	// Path is the source file, when known.
	Path string

	Severity Severity
}

// New creates an AnalyzerError with a formatted message.
func New(kind Kind, tok syntax.Token, format string, args ...any) *AnalyzerError {
	return &AnalyzerError{Kind: kind, Message: fmt.Sprintf(format, args...), Token: tok}
}

// Warn creates a warning-level diagnostic.
func Warn(kind Kind, tok syntax.Token, format string, args ...any) *AnalyzerError {
	e := New(kind, tok, format, args...)
	e.Severity = SeverityWarning
	return e
}

// Code returns the numeric code of the diagnostic.
func (e *AnalyzerError) Code() string { return e.Kind.Code() }

// Error implements the error interface.
func (e *AnalyzerError) Error() string {
	loc := e.Token.Pos()
	if e.Path != "" {
		loc = e.Path + ":" + loc
	}
	return fmt.Sprintf("%s[%s] %s: %s", e.Code(), e.Kind, loc, e.Message)
}

// IsKind reports whether err is an AnalyzerError of the given kind.
// Uses errors.As to handle wrapped errors.
func IsKind(err error, kind Kind) bool {
	var ae *AnalyzerError
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// List collects diagnostics in discovery order.
type List []*AnalyzerError

// Add appends a diagnostic.
func (l *List) Add(e *AnalyzerError) { *l = append(*l, e) }

// Addf appends a new diagnostic.
func (l *List) Addf(kind Kind, tok syntax.Token, format string, args ...any) {
	l.Add(New(kind, tok, format, args...))
}

// HasErrors reports whether any error-severity diagnostic is present.
func (l List) HasErrors() bool {
	for _, e := range l {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Has reports whether a diagnostic of the given kind is present.
func (l List) Has(kind Kind) bool {
	for _, e := range l {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// Kinds returns the kinds of every diagnostic in order.
func (l List) Kinds() []Kind {
	out := make([]Kind, len(l))
	for i, e := range l {
		out[i] = e.Kind
	}
	return out
}

// Sort orders diagnostics by path then source position. The sort is stable so
// diagnostics at the same location keep discovery order.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i], l[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Token.Line != b.Token.Line {
			return a.Token.Line < b.Token.Line
		}
		return a.Token.Column < b.Token.Column
	})
}

// Err returns the list as an error, or nil when it has no errors.
func (l List) Err() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}

// Error implements the error interface by joining every message.
func (l List) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}
