package types

import (
	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/intern"
)

// binding is a local variable's checked type plus its mutability (val
// vs var), consulted by assignment checking (spec.md §4.3 "Assignment").
type binding struct {
	Type    ast.Type
	Mutable bool
}

// scopeEnv is the type checker's own local-variable environment: a stack
// of symbol→binding frames, independent of the evaluator's runtime
// Environment (internal/eval) but structurally the same idea — a scope
// stack with shadowing on push, per spec.md §3.10 generalized to static
// types instead of runtime values.
type scopeEnv struct {
	frames []map[intern.Symbol]binding
}

func newScopeEnv() *scopeEnv {
	return &scopeEnv{frames: []map[intern.Symbol]binding{{}}}
}

func (e *scopeEnv) push() { e.frames = append(e.frames, map[intern.Symbol]binding{}) }
func (e *scopeEnv) pop()  { e.frames = e.frames[:len(e.frames)-1] }

func (e *scopeEnv) define(name intern.Symbol, t ast.Type, mutable bool) {
	e.frames[len(e.frames)-1][name] = binding{Type: t, Mutable: mutable}
}

func (e *scopeEnv) lookup(name intern.Symbol) (binding, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if b, ok := e.frames[i][name]; ok {
			return b, true
		}
	}
	return binding{}, false
}
