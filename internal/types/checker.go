package types

import (
	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/intern"
)

// Checker is the entry point: given a Program, Check validates every
// statement/expression and records a type for every ExprRef. Composes
// Context (tables + module identity), InferenceState (hints, generic
// substitution, the expression-type cache, pending instantiations), and
// FunctionCheckState (the return-type stack `return` statements consult)
// exactly as split in the Rust original (see DESIGN.md for the per-file
// mapping).
type Checker struct {
	prog  *ast.Program
	ctx   *Context
	infer *InferenceState
	fns   *FunctionCheckState
	env   *scopeEnv

	errs []*Error
}

// NewChecker builds a Checker for prog. ctx may already have additional
// modules' functions/structs/methods registered through
// Context.RegisterModule (e.g. the Programs internal/module's Load
// returns) before Check is called.
func NewChecker(prog *ast.Program, ctx *Context) *Checker {
	return &Checker{
		prog:  prog,
		ctx:   ctx,
		infer: NewInferenceState(),
		fns:   NewFunctionCheckState(),
		env:   newScopeEnv(),
	}
}

// Check validates prog in full, returning every error found. On success
// (empty slice) every expression the checker visited has an entry
// recoverable via TypeOf; ExprList nodes (call argument lists and
// array/tuple element lists) are read directly and get no entry of
// their own, only their items do.
func (c *Checker) Check() []*Error {
	for _, ref := range c.prog.TopLevel {
		if impl, ok := c.prog.Stmts.Get(ref).(ast.ImplBlock); ok {
			c.checkImplBlock(impl)
		}
	}
	for _, fn := range c.prog.Functions {
		c.checkFunction(fn, nil)
	}
	return c.errs
}

// TypeOf exposes the populated expression-type cache to callers (e.g. the
// evaluator, which uses the checked type of Number literals per
// spec.md §4.4's evaluation rules).
func (c *Checker) TypeOf(ref ast.ExprRef) (ast.Type, bool) { return c.infer.TypeOf(ref) }

// PendingInstantiations exposes every recorded generic (item, subs) pair.
func (c *Checker) PendingInstantiations() []Instantiation { return c.infer.PendingInstantiations() }

func (c *Checker) report(err *Error) {
	c.errs = append(c.errs, err)
}

func (c *Checker) locOf(ref ast.ExprRef) *ast.Location {
	loc := c.prog.Locations.Get(ref)
	return &loc
}

func (c *Checker) checkImplBlock(impl ast.ImplBlock) {
	generics := make(map[intern.Symbol]ast.Type, len(impl.GenericParams))
	for _, g := range impl.GenericParams {
		generics[g] = ast.TGeneric{Param: g}
	}
	prevT, prevHas, prevG := c.ctx.pushImplTarget(impl.Target, impl.GenericParams)
	c.infer.PushGenericScope(generics)
	for _, m := range impl.Methods {
		c.checkFunction(&m.Function, m)
	}
	c.infer.PopGenericScope()
	c.ctx.popImplTarget(prevT, prevHas, prevG)
}

// checkFunction validates one function or method body. method is non-nil
// when fn is a MethodFunction, used to bind `self`.
func (c *Checker) checkFunction(fn *ast.Function, method *ast.MethodFunction) {
	generics := make(map[intern.Symbol]ast.Type, len(fn.GenericParams))
	for _, g := range fn.GenericParams {
		generics[g] = ast.TGeneric{Param: g}
	}
	if len(generics) > 0 {
		c.infer.PushGenericScope(generics)
		defer c.infer.PopGenericScope()
	}

	c.env.push()
	defer c.env.pop()

	// Self resolves to the impl target applied to its OWN generic
	// parameters (Box<T>, not bare Box), so a method's `self`/return
	// type carries the same TGeneric-bearing TypeArgs its body's struct
	// literals type to. selfArgs is read off the live generic-
	// substitution stack (pushed identity-mapped by checkImplBlock/
	// checkFunction above) via LookupGenericType, the same stack
	// unifyGenericParam's call-site substitutions would shadow if this
	// function were ever re-entered for a concrete instantiation — the
	// checker defers monomorphization (spec.md §9), so today every
	// lookup resolves to its own TGeneric, but the resolution path is
	// real rather than hand-rolled.
	var selfArgs []ast.Type
	if c.ctx.hasImplTarget {
		subs := make(map[intern.Symbol]ast.Type, len(c.ctx.currentImplGenerics))
		for _, g := range c.ctx.currentImplGenerics {
			if t, ok := c.infer.LookupGenericType(g); ok {
				subs[g] = t
			}
		}
		selfArgs = structTypeArgs(c.ctx.currentImplTarget, subs, c.ctx)
	}

	if method != nil && method.TakesSelf && c.ctx.hasImplTarget {
		selfType := ast.Type(ast.TStruct{Name: c.ctx.currentImplTarget, TypeArgs: selfArgs})
		c.env.define(c.intern("self"), selfType, false)
	}
	for _, p := range fn.Params {
		pType := c.infer.ResolveGenerics(c.ctx.ResolveSelf(p.Type, selfArgs))
		c.env.define(p.Name, pType, false)
	}

	retType := c.infer.ResolveGenerics(c.ctx.ResolveSelf(fn.ReturnType, selfArgs))
	c.fns.pushReturnType(retType)
	defer c.fns.popReturnType()

	bodyType := c.checkExprHinted(fn.Body, retType)
	if !ast.IsEquivalent(bodyType, retType) {
		if _, isUnit := retType.(ast.TUnit); !isUnit {
			c.report(&Error{Kind: TypeMismatch, Expected: retType, Found: bodyType, Location: c.locOf(fn.Body)})
		}
	}
}

// intern is a tiny convenience so checker.go doesn't need to thread an
// *intern.Interner separately from the Program that already owns one.
func (c *Checker) intern(text string) intern.Symbol {
	return c.prog.Interner.Intern(text)
}
