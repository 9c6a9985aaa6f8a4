// Package types implements TL's bidirectional type checker: numeric
// literal resolution, generic substitution and monomorphization
// recording, struct/method/impl-block checking, and visibility
// enforcement. Grounded section-by-section on the Rust original's
// type_checker/*.rs state-struct split (see DESIGN.md), expressed here as
// Go struct composition instead of a single visitor trait.
package types

import (
	"fmt"

	"github.com/suma/toylang/internal/ast"
)

// ErrorKind is the closed set of type-checking error kinds (spec.md §7).
type ErrorKind int

const (
	TypeMismatch ErrorKind = iota
	NotFound
	ConversionError
	UnsupportedOperation
	DuplicateField
	ArityMismatch
	ImmutableAssignment
	Generic
	RecursionLimitExceeded
)

// Error is one type-checking error, carrying a Kind-specific detail and an
// optional source location (absent when no LocationPool entry applies,
// e.g. for a `var` declared with neither an initializer nor a type, or a
// bare `return` in a function whose return type is not Unit).
type Error struct {
	Kind     ErrorKind
	Expected ast.Type
	Found    ast.Type
	From     ast.Type
	To       ast.Type
	NameKind string // e.g. "function", "struct", "field", "method"
	Name     string
	Message  string
	Location *ast.Location
}

func (e *Error) Error() string {
	loc := ""
	if e.Location != nil {
		loc = e.Location.String() + ": "
	}
	switch e.Kind {
	case TypeMismatch:
		return fmt.Sprintf("%stype mismatch: expected %s, found %s", loc, e.Expected, e.Found)
	case NotFound:
		return fmt.Sprintf("%s%s not found: %s", loc, e.NameKind, e.Name)
	case ConversionError:
		return fmt.Sprintf("%scannot convert %s to %s", loc, e.From, e.To)
	case UnsupportedOperation:
		return fmt.Sprintf("%sunsupported operation: %s", loc, e.Message)
	case DuplicateField:
		return fmt.Sprintf("%sduplicate field: %s", loc, e.Name)
	case ArityMismatch:
		return fmt.Sprintf("%sarity mismatch: %s", loc, e.Message)
	case ImmutableAssignment:
		return fmt.Sprintf("%scannot assign to immutable binding: %s", loc, e.Name)
	case RecursionLimitExceeded:
		return fmt.Sprintf("%srecursion limit exceeded", loc)
	default:
		return fmt.Sprintf("%s%s", loc, e.Message)
	}
}
