package types

import "github.com/suma/toylang/internal/ast"

// FunctionCheckState tracks the declared return type of whichever
// function/method body is currently being checked, consulted by
// `return` statements nested arbitrarily deep inside it. Ported from
// the Rust original's FunctionCheckingState (type_checker/function.rs);
// the original's call-depth counter and per-signature revalidation
// cache have no counterpart here, since Check() validates each
// function's body exactly once regardless of how many call sites
// reference it (recursion depth is instead bounded by InferenceState's
// own depth counter, spec.md §5).
type FunctionCheckState struct {
	// returnTypeStack is the declared return type of the function body
	// currently being checked, consulted by `return` statements.
	returnTypeStack []ast.Type
}

func NewFunctionCheckState() *FunctionCheckState {
	return &FunctionCheckState{}
}

func (f *FunctionCheckState) pushReturnType(t ast.Type) { f.returnTypeStack = append(f.returnTypeStack, t) }
func (f *FunctionCheckState) popReturnType()             { f.returnTypeStack = f.returnTypeStack[:len(f.returnTypeStack)-1] }

func (f *FunctionCheckState) currentReturnType() (ast.Type, bool) {
	if len(f.returnTypeStack) == 0 {
		return nil, false
	}
	return f.returnTypeStack[len(f.returnTypeStack)-1], true
}
