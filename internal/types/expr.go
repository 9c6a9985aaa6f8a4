package types

import (
	"math"
	"strconv"
	"strings"

	"github.com/suma/toylang/internal/ast"
)

// checkExprHinted checks ref with hint pushed as the current type hint
// (spec.md §4.3's "type_hint"-driven literal resolution), recording and
// returning the resolved type. The TypeCache is consulted first
// (optimization.rs): a previously-resolved ExprRef is returned without
// re-deriving its type, since generic call sites can visit the same
// ExprRef more than once while unifying arguments.
func (c *Checker) checkExprHinted(ref ast.ExprRef, hint ast.Type) ast.Type {
	if cached, ok := c.infer.TypeOf(ref); ok {
		return cached
	}
	if err := c.infer.enter(); err != nil {
		c.report(err.(*Error))
		return ast.TUnknown{}
	}
	defer c.infer.leave()

	if hint != nil {
		c.infer.pushHint(hint)
		defer c.infer.popHint()
	}

	t := c.dispatchExpr(ref)
	c.infer.SetType(ref, t)
	return t
}

func (c *Checker) checkExpr(ref ast.ExprRef) ast.Type {
	return c.checkExprHinted(ref, nil)
}

func (c *Checker) dispatchExpr(ref ast.ExprRef) ast.Type {
	switch e := c.prog.Exprs.Get(ref).(type) {
	case ast.Int64Lit:
		return ast.TInt64{}
	case ast.UInt64Lit:
		return ast.TUInt64{}
	case ast.NumberLit:
		return c.checkNumberLiteral(ref, e)
	case ast.StringLit:
		return ast.TString{}
	case ast.BoolLit:
		return ast.TBool{}
	case ast.NullLit:
		return ast.TUnknown{}
	case ast.Ident:
		return c.checkIdent(ref, e)
	case ast.QualifiedIdent:
		return ast.TUnknown{}
	case ast.Binary:
		return c.checkBinary(ref, e)
	case ast.Unary:
		return c.checkUnary(ref, e)
	case ast.Block:
		return c.checkBlock(e)
	case ast.If:
		return c.checkIf(ref, e)
	case ast.Assign:
		return c.checkAssign(ref, e)
	case ast.Call:
		return c.checkCall(ref, e)
	case ast.ArrayLit:
		return c.checkArrayLit(ref, e)
	case ast.DictLit:
		return c.checkDictLit(e)
	case ast.TupleLit:
		return c.checkTupleLit(e)
	case ast.TupleAccess:
		return c.checkTupleAccess(ref, e)
	case ast.FieldAccess:
		return c.checkFieldAccess(ref, e)
	case ast.MethodCall:
		return c.checkMethodCall(ref, e)
	case ast.StructLit:
		return c.checkStructLit(ref, e)
	case ast.Index:
		return c.checkIndex(ref, e)
	case ast.Slice:
		return c.checkSlice(ref, e)
	case ast.SliceAssign:
		return c.checkSliceAssign(ref, e)
	case ast.ExprList:
		return ast.TUnit{}
	default:
		return ast.TUnknown{}
	}
}

// checkNumberLiteral implements spec.md §4.3's literal-classification
// rules exactly as ported from the Rust original's literal_checker.rs
// (see SPEC_FULL.md §4.3): with an Int64/UInt64 hint, validate range and
// take the hint; without one, classify by sign/magnitude.
func (c *Checker) checkNumberLiteral(ref ast.ExprRef, lit ast.NumberLit) ast.Type {
	text := lit.Text
	base := 10
	digits := text
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		base = 16
		digits = text[2:]
	}

	hint, hasHint := c.infer.currentHint()
	if hasHint {
		switch hint.(type) {
		case ast.TInt64:
			if _, err := strconv.ParseInt(digits, base, 64); err != nil {
				c.report(&Error{Kind: ConversionError, From: ast.TNumber{}, To: ast.TInt64{}, Location: c.locOf(ref)})
				return ast.TUnknown{}
			}
			return ast.TInt64{}
		case ast.TUInt64:
			if _, err := strconv.ParseUint(digits, base, 64); err != nil {
				c.report(&Error{Kind: ConversionError, From: ast.TNumber{}, To: ast.TUInt64{}, Location: c.locOf(ref)})
				return ast.TUnknown{}
			}
			return ast.TUInt64{}
		}
	}

	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		c.report(&Error{Kind: ConversionError, From: ast.TNumber{}, To: ast.TInt64{}, Location: c.locOf(ref)})
		return ast.TUnknown{}
	}
	if v <= math.MaxInt64 {
		return ast.TNumber{}
	}
	return ast.TUInt64{}
}

func (c *Checker) checkIdent(ref ast.ExprRef, id ast.Ident) ast.Type {
	b, ok := c.env.lookup(id.Name)
	if !ok {
		c.report(&Error{Kind: NotFound, NameKind: "variable", Name: c.prog.Interner.MustResolve(id.Name), Location: c.locOf(ref)})
		return ast.TUnknown{}
	}
	return b.Type
}

func (c *Checker) checkBlock(b ast.Block) ast.Type {
	c.env.push()
	defer c.env.pop()

	result := ast.Type(ast.TUnit{})
	for i, stmtRef := range b.Stmts {
		last := i == len(b.Stmts)-1
		t := c.checkStmt(stmtRef)
		if last {
			if es, ok := c.prog.Stmts.Get(stmtRef).(ast.ExprStmt); ok {
				_ = es
				result = t
			} else {
				result = ast.TUnit{}
			}
		}
	}
	return result
}

func (c *Checker) checkIf(ref ast.ExprRef, n ast.If) ast.Type {
	condType := c.checkExprHinted(n.Cond, ast.TBool{})
	if !ast.IsEquivalent(condType, ast.TBool{}) {
		c.report(&Error{Kind: TypeMismatch, Expected: ast.TBool{}, Found: condType, Location: c.locOf(n.Cond)})
	}
	thenType := c.checkExpr(n.Then)
	for _, elif := range n.Elifs {
		ect := c.checkExprHinted(elif.Cond, ast.TBool{})
		if !ast.IsEquivalent(ect, ast.TBool{}) {
			c.report(&Error{Kind: TypeMismatch, Expected: ast.TBool{}, Found: ect, Location: c.locOf(elif.Cond)})
		}
		c.checkExpr(elif.Block)
	}
	if n.Else == ast.NoExpr {
		return ast.TUnit{}
	}
	elseType := c.checkExpr(n.Else)
	if !ast.IsEquivalent(thenType, elseType) {
		c.report(&Error{Kind: TypeMismatch, Expected: thenType, Found: elseType, Location: c.locOf(n.Else)})
	}
	return thenType
}

var integerResultOps = map[ast.Operator]bool{
	ast.OpAdd: true, ast.OpSub: true, ast.OpMul: true, ast.OpDiv: true,
	ast.OpBitOr: true, ast.OpBitXor: true, ast.OpBitAnd: true,
	ast.OpShl: true, ast.OpShr: true,
}

var comparisonOps = map[ast.Operator]bool{
	ast.OpLt: true, ast.OpLe: true, ast.OpGt: true, ast.OpGe: true,
}

func isIntegerType(t ast.Type) bool {
	switch t.(type) {
	case ast.TInt64, ast.TUInt64, ast.TNumber:
		return true
	default:
		return false
	}
}

// checkBinary implements spec.md §4.3's binary-operator unification
// rules: integer ops require both sides to unify to the same integer
// type; comparisons require integer-integer or bool-bool; &&/|| require
// bool; Number freely unifies with Int64/UInt64, forcing resolution.
func (c *Checker) checkBinary(ref ast.ExprRef, n ast.Binary) ast.Type {
	lhs := c.checkExpr(n.LHS)

	switch {
	case integerResultOps[n.Op]:
		rhs := c.checkExprHinted(n.RHS, lhs)
		result := unifyIntegers(lhs, rhs)
		if result == nil {
			c.report(&Error{Kind: TypeMismatch, Expected: lhs, Found: rhs, Location: c.locOf(ref)})
			return ast.TUnknown{}
		}
		if _, ok := lhs.(ast.TNumber); ok {
			c.infer.SetType(n.LHS, result)
		}
		if _, ok := rhs.(ast.TNumber); ok {
			c.infer.SetType(n.RHS, result)
		}
		return result
	case comparisonOps[n.Op]:
		rhs := c.checkExprHinted(n.RHS, lhs)
		if unifyIntegers(lhs, rhs) == nil {
			c.report(&Error{Kind: TypeMismatch, Expected: lhs, Found: rhs, Location: c.locOf(ref)})
		}
		return ast.TBool{}
	case n.Op == ast.OpEq || n.Op == ast.OpNe:
		rhs := c.checkExprHinted(n.RHS, lhs)
		if !ast.IsEquivalent(lhs, rhs) && unifyIntegers(lhs, rhs) == nil {
			c.report(&Error{Kind: TypeMismatch, Expected: lhs, Found: rhs, Location: c.locOf(ref)})
		}
		return ast.TBool{}
	case n.Op == ast.OpAnd || n.Op == ast.OpOr:
		rhs := c.checkExprHinted(n.RHS, ast.TBool{})
		if !ast.IsEquivalent(lhs, ast.TBool{}) {
			c.report(&Error{Kind: TypeMismatch, Expected: ast.TBool{}, Found: lhs, Location: c.locOf(n.LHS)})
		}
		if !ast.IsEquivalent(rhs, ast.TBool{}) {
			c.report(&Error{Kind: TypeMismatch, Expected: ast.TBool{}, Found: rhs, Location: c.locOf(n.RHS)})
		}
		return ast.TBool{}
	default:
		return ast.TUnknown{}
	}
}

// unifyIntegers returns the unified integer type of a and b, preferring
// the concrete (Int64/UInt64) side when one operand is still a
// polymorphic Number, or nil if they cannot unify.
func unifyIntegers(a, b ast.Type) ast.Type {
	if !isIntegerType(a) || !isIntegerType(b) {
		return nil
	}
	_, aNum := a.(ast.TNumber)
	_, bNum := b.(ast.TNumber)
	switch {
	case !aNum && !bNum:
		if ast.IsEquivalent(a, b) {
			return a
		}
		return nil
	case aNum && !bNum:
		return b
	case !aNum && bNum:
		return a
	default:
		return ast.TNumber{}
	}
}

func (c *Checker) checkUnary(ref ast.ExprRef, n ast.Unary) ast.Type {
	operand := c.checkExpr(n.Operand)
	switch n.Op {
	case ast.OpNot:
		if !ast.IsEquivalent(operand, ast.TBool{}) {
			c.report(&Error{Kind: TypeMismatch, Expected: ast.TBool{}, Found: operand, Location: c.locOf(ref)})
		}
		return ast.TBool{}
	case ast.OpBitNot, ast.OpNeg:
		if !isIntegerType(operand) {
			c.report(&Error{Kind: UnsupportedOperation, Message: "unary " + n.Op.String() + " requires an integer operand", Location: c.locOf(ref)})
			return ast.TUnknown{}
		}
		if n.Op == ast.OpNeg {
			if _, ok := operand.(ast.TNumber); ok {
				return ast.TInt64{}
			}
		}
		return operand
	default:
		return ast.TUnknown{}
	}
}

func (c *Checker) checkArrayLit(ref ast.ExprRef, n ast.ArrayLit) ast.Type {
	list := c.prog.Exprs.Get(n.Elements).(ast.ExprList)
	var elem ast.Type = ast.TUnknown{}
	for i, item := range list.Items {
		t := c.checkExpr(item)
		if i == 0 {
			elem = t
		} else if !ast.IsEquivalent(elem, t) {
			c.report(&Error{Kind: TypeMismatch, Expected: elem, Found: t, Location: c.locOf(item)})
		}
	}
	return ast.TArray{Elem: elem, Length: len(list.Items)}
}

func (c *Checker) checkDictLit(n ast.DictLit) ast.Type {
	var keyT, valT ast.Type = ast.TUnknown{}, ast.TUnknown{}
	for i, e := range n.Entries {
		kt := c.checkExpr(e.Key)
		vt := c.checkExpr(e.Value)
		if i == 0 {
			keyT, valT = kt, vt
		}
	}
	return ast.TDict{Key: keyT, Value: valT}
}

func (c *Checker) checkTupleLit(n ast.TupleLit) ast.Type {
	list := c.prog.Exprs.Get(n.Elements).(ast.ExprList)
	elems := make([]ast.Type, len(list.Items))
	for i, item := range list.Items {
		elems[i] = c.checkExpr(item)
	}
	return ast.TTuple{Elems: elems}
}

func (c *Checker) checkTupleAccess(ref ast.ExprRef, n ast.TupleAccess) ast.Type {
	tt := c.checkExpr(n.Tuple)
	tup, ok := tt.(ast.TTuple)
	if !ok || n.Index < 0 || n.Index >= len(tup.Elems) {
		c.report(&Error{Kind: TypeMismatch, Expected: ast.TTuple{}, Found: tt, Location: c.locOf(ref)})
		return ast.TUnknown{}
	}
	return tup.Elems[n.Index]
}

func (c *Checker) checkAssign(ref ast.ExprRef, n ast.Assign) ast.Type {
	lhsType := c.checkLValue(n.LHS)
	rhsType := c.checkExprHinted(n.RHS, lhsType)
	if !ast.IsEquivalent(lhsType, rhsType) && unifyIntegers(lhsType, rhsType) == nil {
		c.report(&Error{Kind: TypeMismatch, Expected: lhsType, Found: rhsType, Location: c.locOf(ref)})
	}
	return ast.TUnit{}
}

// checkLValue validates that LHS is an lvalue-shaped expression (spec.md
// §4.3 "Assignment") and, for an identifier, that its binding is mutable.
func (c *Checker) checkLValue(ref ast.ExprRef) ast.Type {
	switch e := c.prog.Exprs.Get(ref).(type) {
	case ast.Ident:
		b, ok := c.env.lookup(e.Name)
		if !ok {
			c.report(&Error{Kind: NotFound, NameKind: "variable", Name: c.prog.Interner.MustResolve(e.Name), Location: c.locOf(ref)})
			return ast.TUnknown{}
		}
		if !b.Mutable {
			c.report(&Error{Kind: ImmutableAssignment, Name: c.prog.Interner.MustResolve(e.Name), Location: c.locOf(ref)})
		}
		c.infer.SetType(ref, b.Type)
		return b.Type
	case ast.FieldAccess, ast.Index, ast.Slice, ast.TupleAccess:
		return c.checkExpr(ref)
	default:
		c.report(&Error{Kind: UnsupportedOperation, Message: "expression is not assignable", Location: c.locOf(ref)})
		return ast.TUnknown{}
	}
}
