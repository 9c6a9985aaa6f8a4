package parser

import (
	"fmt"

	"github.com/suma/toylang/internal/ast"
)

// Kind is the closed set of parser error kinds, ported one-for-one from
// the Rust original's ParserErrorKind.
type Kind int

const (
	UnexpectedToken Kind = iota
	RecursionLimitExceeded
	Generic
	Io
)

// Error is a single parse error with its source location. Parse returns
// these in multiple-error mode; ParseStrict stops at the first one and
// returns it as a bare error.
type Error struct {
	Kind     Kind
	Expected string // set when Kind == UnexpectedToken
	Message  string // set when Kind == Generic or Kind == Io
	Location ast.Location
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnexpectedToken:
		return fmt.Sprintf("%s: unexpected token, expected %s", e.Location, e.Expected)
	case RecursionLimitExceeded:
		return fmt.Sprintf("%s: recursion limit exceeded", e.Location)
	case Io:
		return fmt.Sprintf("%s: io error: %s", e.Location, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Location, e.Message)
	}
}
