package types

import "github.com/suma/toylang/internal/ast"

// checkStmt validates one statement and returns the type of its
// expression value when it is an ExprStmt (used by checkBlock to compute
// the enclosing block's value per spec.md §4.4's "block yields the value
// of its last expression-statement" rule); all other statement kinds
// yield Unit.
func (c *Checker) checkStmt(ref ast.StmtRef) ast.Type {
	switch s := c.prog.Stmts.Get(ref).(type) {
	case ast.ExprStmt:
		return c.checkExpr(s.Expr)
	case ast.ValDecl:
		c.checkValDecl(s)
		return ast.TUnit{}
	case ast.VarDecl:
		c.checkVarDecl(s)
		return ast.TUnit{}
	case ast.Return:
		c.checkReturn(s)
		return ast.TUnit{}
	case ast.For:
		c.checkFor(s)
		return ast.TUnit{}
	case ast.While:
		c.checkWhile(s)
		return ast.TUnit{}
	case ast.Break, ast.Continue:
		return ast.TUnit{}
	case ast.StructDecl, ast.ImplBlock:
		// The parser accepts struct/impl declarations at statement
		// position but does not add them to Program.TopLevel, so they
		// are neither registered in the Context nor checked; this case
		// does nothing.
		return ast.TUnit{}
	default:
		return ast.TUnit{}
	}
}

// checkValDecl implements `val x[: T]? = e`: check e under T's hint (if
// any), verify it satisfies T, and bind x as immutable.
func (c *Checker) checkValDecl(s ast.ValDecl) {
	if s.Type != nil {
		got := c.checkExprHinted(s.Init, s.Type)
		if !ast.IsEquivalent(s.Type, got) && unifyIntegers(s.Type, got) == nil {
			c.report(&Error{Kind: TypeMismatch, Expected: s.Type, Found: got, Location: c.locOf(s.Init)})
		}
		c.env.define(s.Name, s.Type, false)
		return
	}
	got := c.checkExpr(s.Init)
	if _, isNumber := got.(ast.TNumber); isNumber {
		got = ast.TInt64{}
		c.infer.SetType(s.Init, got)
	}
	c.env.define(s.Name, got, false)
}

// checkVarDecl is checkValDecl's mutable counterpart; a missing
// initializer requires a declared type.
func (c *Checker) checkVarDecl(s ast.VarDecl) {
	if !s.HasInit {
		if s.Type == nil {
			c.report(&Error{Kind: Generic, Message: "var without an initializer requires a type annotation", Location: nil})
			return
		}
		c.env.define(s.Name, s.Type, true)
		return
	}
	if s.Type != nil {
		got := c.checkExprHinted(s.Init, s.Type)
		if !ast.IsEquivalent(s.Type, got) && unifyIntegers(s.Type, got) == nil {
			c.report(&Error{Kind: TypeMismatch, Expected: s.Type, Found: got, Location: c.locOf(s.Init)})
		}
		c.env.define(s.Name, s.Type, true)
		return
	}
	got := c.checkExpr(s.Init)
	if _, isNumber := got.(ast.TNumber); isNumber {
		got = ast.TInt64{}
		c.infer.SetType(s.Init, got)
	}
	c.env.define(s.Name, got, true)
}

// checkReturn validates `return [e]?` against the enclosing function's
// declared return type (spec.md §4.3 "Return type checking").
func (c *Checker) checkReturn(s ast.Return) {
	retType, ok := c.fns.currentReturnType()
	if !ok {
		retType = ast.TUnit{}
	}
	if !s.HasValue {
		if _, isUnit := retType.(ast.TUnit); !isUnit {
			c.report(&Error{Kind: TypeMismatch, Expected: retType, Found: ast.TUnit{}, Location: nil})
		}
		return
	}
	got := c.checkExprHinted(s.Value, retType)
	if !ast.IsEquivalent(retType, got) && unifyIntegers(retType, got) == nil {
		c.report(&Error{Kind: TypeMismatch, Expected: retType, Found: got, Location: c.locOf(s.Value)})
	}
}

// checkFor implements `for i in range { body }`: binds i to the range's
// element type within the body scope. A `lo to hi` range desugars (in the
// parser) to a call to the synthetic __range__ builtin returning an
// Array-shaped iterable of the bound type; any other range expression is
// expected to check as an Array and contributes its element type.
func (c *Checker) checkFor(s ast.For) {
	rangeType := c.checkExpr(s.Range)
	elem := ast.Type(ast.TUInt64{})
	if arr, ok := rangeType.(ast.TArray); ok {
		elem = arr.Elem
	}
	c.env.push()
	c.env.define(s.LoopVar, elem, false)
	c.checkExpr(s.Body)
	c.env.pop()
}

func (c *Checker) checkWhile(s ast.While) {
	condType := c.checkExprHinted(s.Cond, ast.TBool{})
	if !ast.IsEquivalent(condType, ast.TBool{}) {
		c.report(&Error{Kind: TypeMismatch, Expected: ast.TBool{}, Found: condType, Location: c.locOf(s.Cond)})
	}
	c.checkExpr(s.Body)
}
