package conv

import (
	"errors"
	"fmt"

	"github.com/roach88/veryl-go/internal/syntax"
)

// IrError aborts the conversion of the enclosing node. The cause, if any,
// has already been reported as a diagnostic; IrError only carries where the
// conversion stopped so that callers can record unsupported_by_ir.
type IrError struct {
	// Code is a short machine-readable reason.
	Code string

	// Token locates the node that could not be converted.
	Token syntax.Token

	// Reported is set when a diagnostic for the cause was already recorded.
	Reported bool
}

// Error implements the error interface.
func (e *IrError) Error() string {
	return fmt.Sprintf("ir conversion failed (%s) at %s", e.Code, e.Token.Pos())
}

func irError(code string, tok syntax.Token) error {
	return &IrError{Code: code, Token: tok}
}

// IsIrError reports whether err is an IrError.
// Uses errors.As to handle wrapped errors.
func IsIrError(err error) bool {
	var ie *IrError
	return errors.As(err, &ie)
}

// ExceedLimitKind names the limit that was exceeded.
type ExceedLimitKind string

const (
	// HierarchyDepth limits how deep instances may nest.
	HierarchyDepth ExceedLimitKind = "hierarchy_depth"

	// TotalInstance limits the number of distinct elaborations.
	TotalInstance ExceedLimitKind = "total_instance"

	// EvaluateSize limits loop iteration counts and evaluated sizes.
	EvaluateSize ExceedLimitKind = "evaluate_size"
)

// ExceedLimitError is returned when elaboration grows past a configured
// limit. It stops the elaboration of the current instance only.
type ExceedLimitError struct {
	Kind  ExceedLimitKind // Which limit was hit
	Value int             // Observed value
	Limit int             // Configured limit
}

// Error implements the error interface.
func (e *ExceedLimitError) Error() string {
	return fmt.Sprintf("%s limit exceeded: %d > %d", e.Kind, e.Value, e.Limit)
}

// IsExceedLimitError checks if err is an ExceedLimitError.
// Uses errors.As to handle wrapped errors.
func IsExceedLimitError(err error) bool {
	var le *ExceedLimitError
	return errors.As(err, &le)
}

// InfiniteRecursionError is returned when a component would instantiate
// itself with the same signature.
type InfiniteRecursionError struct {
	Signature string
}

// Error implements the error interface.
func (e *InfiniteRecursionError) Error() string {
	return fmt.Sprintf("infinite recursion instantiating %s", e.Signature)
}

// IsInfiniteRecursionError checks if err is an InfiniteRecursionError.
func IsInfiniteRecursionError(err error) bool {
	var re *InfiniteRecursionError
	return errors.As(err, &re)
}
