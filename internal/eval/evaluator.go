// Package eval implements TL's tree-walking evaluator: a direct
// generalization of the teacher's Interpreter/Environment/Run idiom
// (interpreter.go, environment.go, run.go, callable.go) to a statically
// typed language with a richer runtime object set, three-way break/
// continue/return outcomes, and generic monomorphization left
// structural (the evaluator never materializes a specialization; it
// just dispatches on the runtime value's own tag, as spec.md §9 notes).
package eval

import (
	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/intern"
	"github.com/suma/toylang/internal/object"
	"github.com/suma/toylang/internal/types"
)

// maxRecursionDepth bounds the call-frame stack (spec.md §5, suggested
// 500), reported as an InternalError rather than overflowing the host
// Go stack.
const maxRecursionDepth = 500

// Frame is a call-stack entry kept purely for the recursion-depth check;
// lookup never consults it (SPEC_FULL.md §4.4 "Call frames").
type Frame struct {
	Fn    *ast.Function
	Env   *Environment
	Depth int
}

// Evaluator walks a type-checked Program. It consults the Checker's
// TypeOf cache when a node's runtime representation depends on its
// resolved static type (Number literals; see spec.md §4.4 "Literals").
type Evaluator struct {
	prog    *ast.Program
	ctx     *types.Context
	checker *types.Checker
	frames  []*Frame

	mainSym  intern.Symbol
	rangeSym intern.Symbol
	dropSym  intern.Symbol
}

// New builds an Evaluator for prog, whose declarations are already
// registered in ctx and whose expressions are already typed by checker.
func New(prog *ast.Program, ctx *types.Context, checker *types.Checker) *Evaluator {
	return &Evaluator{
		prog:     prog,
		ctx:      ctx,
		checker:  checker,
		mainSym:  prog.Interner.Intern("main"),
		rangeSym: prog.Interner.Intern("__range__"),
		dropSym:  prog.Interner.Intern("__drop__"),
	}
}

// Run locates and calls main(), returning its value (spec.md §4.4
// Contract: "Output: the value returned by main()").
func (ev *Evaluator) Run() (object.Object, error) {
	fn, ok := ev.ctx.Functions[ev.mainSym]
	if !ok {
		return nil, &RuntimeError{Kind: FunctionNotFound, Name: "main"}
	}
	return ev.invoke(fn, nil, nil, false)
}

// invoke calls fn with args bound to a fresh scope (function calls push
// a new frame that shadows, not stacks onto, the caller's locals — TL
// has no closures, so the new Environment's parent is always nil).
func (ev *Evaluator) invoke(fn *ast.Function, args []object.Object, self object.Object, hasSelf bool) (object.Object, error) {
	if len(ev.frames) >= maxRecursionDepth {
		return nil, &RuntimeError{Kind: InternalError, Message: "recursion limit exceeded"}
	}

	env := NewEnvironment(nil)
	if hasSelf {
		env.Define(ev.selfSym(), self)
	}
	for i, p := range fn.Params {
		env.Define(p.Name, args[i])
	}

	frame := &Frame{Fn: fn, Env: env, Depth: len(ev.frames)}
	ev.frames = append(ev.frames, frame)
	defer func() { ev.frames = ev.frames[:len(ev.frames)-1] }()

	oc, err := ev.evalExpr(env, fn.Body)
	if err != nil {
		return nil, err
	}
	switch oc.Kind {
	case KindReturn, KindValue:
		return oc.Value, nil
	default:
		return nil, &RuntimeError{Kind: InternalError, Message: "break/continue escaped a function body"}
	}
}

// callMethod dispatches a resolved method against a receiver, binding
// self only when the method declares one (an associated function called
// through the method table, e.g. a protocol dispatch, never does).
func (ev *Evaluator) callMethod(m *ast.MethodFunction, self object.Object, args []object.Object) (object.Object, error) {
	return ev.invoke(&m.Function, args, self, m.TakesSelf)
}

func (ev *Evaluator) selfSym() intern.Symbol { return ev.prog.Interner.Intern("self") }

// dropScope invokes __drop__ on every local struct binding that defines
// it, innermost (most-recently-declared) first, before the scope's
// bindings are discarded (spec.md §4.4 "Scope exit"). __drop__ may
// re-enter the evaluator (§5); nothing here holds a lock across the
// call, since object.Handle's mutex is only ever held for the duration
// of a single Get/Set.
func (ev *Evaluator) dropScope(env *Environment) error {
	locals := env.Locals()
	for i := len(locals) - 1; i >= 0; i-- {
		v, _ := env.Get(locals[i])
		s, ok := v.(object.Struct)
		if !ok {
			continue
		}
		m, ok := ev.ctx.LookupMethod(s.TypeName(), ev.dropSym)
		if !ok {
			continue
		}
		if _, err := ev.callMethod(m, s, nil); err != nil {
			return err
		}
	}
	return nil
}
