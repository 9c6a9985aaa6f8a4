package eval

import (
	"github.com/suma/toylang/internal/intern"
	"github.com/suma/toylang/internal/object"
)

// Environment is a scope-stack binding frame with a parent chain,
// generalizing the teacher's environment.go (parent *Environment,
// values map[string]Object) from string keys to interned symbols.
// Lookup walks from the innermost scope outward through the parent chain
// (spec.md §3.10/§4.4) and never consults the call-frame stack, which
// exists only for the recursion depth check (see Frame).
type Environment struct {
	parent *Environment
	values map[intern.Symbol]object.Object
	order  []intern.Symbol // declaration order, for scope-exit __drop__ (spec.md §4.4)
}

// NewEnvironment returns a fresh scope chained to parent (nil for a
// function's top-level scope; TL has no closures, so a function call
// never chains into its caller's environment).
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{parent: parent, values: make(map[intern.Symbol]object.Object, 8)}
}

// Define binds name to value in this scope, overwriting an existing
// binding of the same name without duplicating its Locals() entry.
func (e *Environment) Define(name intern.Symbol, value object.Object) {
	if _, exists := e.values[name]; !exists {
		e.order = append(e.order, name)
	}
	e.values[name] = value
}

// Assign walks the parent chain and rebinds the first scope that already
// defines name, reporting whether one was found.
func (e *Environment) Assign(name intern.Symbol, value object.Object) bool {
	for env := e; env != nil; env = env.parent {
		if _, found := env.values[name]; found {
			env.values[name] = value
			return true
		}
	}
	return false
}

// Get resolves name by walking outward from this scope.
func (e *Environment) Get(name intern.Symbol) (object.Object, bool) {
	for env := e; env != nil; env = env.parent {
		if v, found := env.values[name]; found {
			return v, true
		}
	}
	return nil, false
}

// Locals returns the names defined directly in this scope, in
// declaration order, used by scope-exit __drop__ dispatch.
func (e *Environment) Locals() []intern.Symbol { return e.order }
