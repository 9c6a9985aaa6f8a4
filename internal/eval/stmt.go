package eval

import (
	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/object"
)

// evalStmt dispatches on the statement's concrete type. Declarations and
// no-op top-level forms return Value(Unit{}); Break/Continue/Return
// return the corresponding sentinel Outcome for the enclosing loop/call
// to consume (spec.md §4.4 "Control-flow propagation").
func (ev *Evaluator) evalStmt(env *Environment, ref ast.StmtRef) (Outcome, error) {
	switch n := ev.prog.Stmts.Get(ref).(type) {
	case ast.ExprStmt:
		return ev.evalExpr(env, n.Expr)
	case ast.ValDecl:
		return ev.evalValDecl(env, n)
	case ast.VarDecl:
		return ev.evalVarDecl(env, n)
	case ast.Return:
		return ev.evalReturn(env, n)
	case ast.For:
		return ev.evalFor(env, n)
	case ast.While:
		return ev.evalWhile(env, n)
	case ast.Break:
		return breakOutcome, nil
	case ast.Continue:
		return continueOutcome, nil
	case ast.StructDecl, ast.ImplBlock:
		// Top-level declarations are registered ahead of time in
		// types.Context (RegisterModule) and never reach evalStmt; one
		// declared at statement position is not registered, and
		// evaluating it is a no-op.
		return Value(object.Unit{}), nil
	default:
		return Outcome{}, &RuntimeError{Kind: InternalError, Message: "unhandled statement node"}
	}
}

func (ev *Evaluator) evalValDecl(env *Environment, n ast.ValDecl) (Outcome, error) {
	oc, err := ev.evalExpr(env, n.Init)
	if err != nil || oc.Kind != KindValue {
		return oc, err
	}
	env.Define(n.Name, oc.Value)
	return Value(object.Unit{}), nil
}

func (ev *Evaluator) evalVarDecl(env *Environment, n ast.VarDecl) (Outcome, error) {
	if n.HasInit {
		oc, err := ev.evalExpr(env, n.Init)
		if err != nil || oc.Kind != KindValue {
			return oc, err
		}
		env.Define(n.Name, oc.Value)
		return Value(object.Unit{}), nil
	}
	env.Define(n.Name, zeroValue(n.Type))
	return Value(object.Unit{}), nil
}

// zeroValue is the default value of an uninitialized `var name: T`
// declaration (spec.md §4.4 "Variable declaration without initializer").
func zeroValue(t ast.Type) object.Object {
	switch t.(type) {
	case ast.TUInt64:
		return object.UInt64{Value: 0}
	case ast.TInt64:
		return object.Int64{Value: 0}
	case ast.TBool:
		return object.Bool{Value: false}
	case ast.TString:
		return object.String{Value: ""}
	default:
		return object.Null{}
	}
}

func (ev *Evaluator) evalReturn(env *Environment, n ast.Return) (Outcome, error) {
	if !n.HasValue {
		return Outcome{Kind: KindReturn, Value: object.Unit{}}, nil
	}
	oc, err := ev.evalExpr(env, n.Value)
	if err != nil {
		return Outcome{}, err
	}
	if oc.Kind != KindValue {
		return oc, nil
	}
	return Outcome{Kind: KindReturn, Value: oc.Value}, nil
}

// evalFor materializes the range expression once, then binds LoopVar in
// a fresh per-iteration scope (spec.md §4.4 "For loop"). Break unwinds
// to Unit; Continue/Value proceed to the next element; Return propagates.
func (ev *Evaluator) evalFor(env *Environment, n ast.For) (Outcome, error) {
	rangeOc, err := ev.evalExpr(env, n.Range)
	if err != nil {
		return Outcome{}, err
	}
	if rangeOc.Kind != KindValue {
		return rangeOc, nil
	}
	arr, ok := rangeOc.Value.(object.Array)
	if !ok {
		return Outcome{}, &RuntimeError{Kind: TypeError, Message: "for loop range must be an array"}
	}

	for i := 0; i < arr.Len(); i++ {
		v, _ := arr.Get(i)
		iterEnv := NewEnvironment(env)
		iterEnv.Define(n.LoopVar, v)

		oc, err := ev.evalExpr(iterEnv, n.Body)
		if err != nil {
			return Outcome{}, err
		}
		switch oc.Kind {
		case KindBreak:
			return Value(object.Unit{}), nil
		case KindReturn:
			return oc, nil
		default:
			// KindContinue and KindValue both proceed to the next element.
		}
	}
	return Value(object.Unit{}), nil
}

func (ev *Evaluator) evalWhile(env *Environment, n ast.While) (Outcome, error) {
	for {
		condOc, err := ev.evalExpr(env, n.Cond)
		if err != nil {
			return Outcome{}, err
		}
		if condOc.Kind != KindValue {
			return condOc, nil
		}
		cond, ok := condOc.Value.(object.Bool)
		if !ok {
			return Outcome{}, &RuntimeError{Kind: TypeError, Message: "while condition must be bool"}
		}
		if !cond.Value {
			return Value(object.Unit{}), nil
		}

		oc, err := ev.evalExpr(env, n.Body)
		if err != nil {
			return Outcome{}, err
		}
		switch oc.Kind {
		case KindBreak:
			return Value(object.Unit{}), nil
		case KindReturn:
			return oc, nil
		default:
			// KindContinue and KindValue both proceed to the next iteration.
		}
	}
}
