package eval

import (
	"strconv"
	"strings"

	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/intern"
	"github.com/suma/toylang/internal/object"
)

// evalExpr dispatches on the node's concrete type, mirroring the
// checker's dispatchExpr case analysis (spec.md §9 "Visitors as case
// analyses"). Every branch returns an Outcome so control-flow signals
// originating in a nested Block/If propagate uniformly.
func (ev *Evaluator) evalExpr(env *Environment, ref ast.ExprRef) (Outcome, error) {
	switch n := ev.prog.Exprs.Get(ref).(type) {
	case ast.Int64Lit:
		return Value(object.Int64{Value: n.Value}), nil
	case ast.UInt64Lit:
		return Value(object.UInt64{Value: n.Value}), nil
	case ast.NumberLit:
		return ev.evalNumberLit(ref, n)
	case ast.StringLit:
		text, _ := ev.prog.Interner.Resolve(n.Value)
		return Value(object.ConstString{Symbol: n.Value, Text: text}), nil
	case ast.BoolLit:
		return Value(object.Bool{Value: n.Value}), nil
	case ast.NullLit:
		return Value(object.Null{}), nil
	case ast.Ident:
		v, ok := env.Get(n.Name)
		if !ok {
			return Outcome{}, &RuntimeError{Kind: UndefinedVariable, Name: ev.prog.Interner.MustResolve(n.Name)}
		}
		return Value(v), nil
	case ast.QualifiedIdent:
		// Module-qualified expression references require the module
		// resolver's registry (spec.md §4.5); not reachable from parsed
		// source, since the parser never builds a QualifiedIdent
		// (package/import paths are stored as plain symbol slices).
		return Outcome{}, &RuntimeError{Kind: InternalError, Message: "qualified identifier expressions are not yet resolvable"}
	case ast.Binary:
		return ev.evalBinary(env, n)
	case ast.Unary:
		return ev.evalUnary(env, n)
	case ast.Block:
		return ev.evalBlock(env, n)
	case ast.If:
		return ev.evalIf(env, n)
	case ast.Assign:
		return ev.evalAssign(env, n)
	case ast.Call:
		return ev.evalCall(env, n)
	case ast.ArrayLit:
		return ev.evalArrayLit(env, n)
	case ast.DictLit:
		return ev.evalDictLit(env, n)
	case ast.TupleLit:
		return ev.evalTupleLit(env, n)
	case ast.TupleAccess:
		return ev.evalTupleAccess(env, n)
	case ast.FieldAccess:
		return ev.evalFieldAccess(env, n)
	case ast.MethodCall:
		return ev.evalMethodCall(env, n)
	case ast.StructLit:
		return ev.evalStructLit(env, n)
	case ast.Index:
		return ev.evalIndex(env, n)
	case ast.Slice:
		return ev.evalSlice(env, n)
	case ast.SliceAssign:
		return ev.evalSliceAssign(env, n)
	case ast.ExprList:
		return Value(object.Unit{}), nil
	default:
		return Outcome{}, &RuntimeError{Kind: InternalError, Message: "unhandled expression node"}
	}
}

// evalNumberLit resolves an unsuffixed literal using the checker's
// recorded type for this ExprRef (spec.md §4.4 "Literals": "if the type
// checker annotated the expression, use that annotation").
func (ev *Evaluator) evalNumberLit(ref ast.ExprRef, lit ast.NumberLit) (Outcome, error) {
	base := 10
	digits := lit.Text
	if strings.HasPrefix(lit.Text, "0x") || strings.HasPrefix(lit.Text, "0X") {
		base = 16
		digits = lit.Text[2:]
	}

	t, _ := ev.checker.TypeOf(ref)
	switch t.(type) {
	case ast.TInt64:
		v, err := strconv.ParseInt(digits, base, 64)
		if err != nil {
			return Outcome{}, &RuntimeError{Kind: TypeError, Message: "malformed integer literal: " + lit.Text}
		}
		return Value(object.Int64{Value: v}), nil
	default:
		// Unresolved (TNumber/TUnknown) or explicitly TUInt64: the
		// checker either decided this literal is u64, or never ran, in
		// which case spec.md §4.3's default of an unsuffixed literal
		// that needs no i64 context is u64.
		v, err := strconv.ParseUint(digits, base, 64)
		if err != nil {
			return Outcome{}, &RuntimeError{Kind: TypeError, Message: "malformed integer literal: " + lit.Text}
		}
		return Value(object.UInt64{Value: v}), nil
	}
}

func (ev *Evaluator) evalBinary(env *Environment, n ast.Binary) (Outcome, error) {
	lhsOc, err := ev.evalExpr(env, n.LHS)
	if err != nil {
		return Outcome{}, err
	}
	if lhsOc.Kind != KindValue {
		return lhsOc, nil
	}
	// Strict left-to-right evaluation, no short-circuit, per spec.md
	// §4.4's "evaluate lhs then rhs (strict left-to-right)" rule — this
	// generalizes the teacher's separate short-circuiting LogicOr/
	// LogicAndExpr nodes away, since TL folds && and || into the same
	// Binary node as every other operator.
	rhsOc, err := ev.evalExpr(env, n.RHS)
	if err != nil {
		return Outcome{}, err
	}
	if rhsOc.Kind != KindValue {
		return rhsOc, nil
	}
	v, err := applyBinary(n.Op, lhsOc.Value, rhsOc.Value)
	if err != nil {
		return Outcome{}, err
	}
	return Value(v), nil
}

// applyBinary implements every Binary operator over runtime values
// (spec.md §4.4 "Binary operators"). Integer ops dispatch on the
// operands' own Go tag (Int64 vs UInt64) rather than a static type,
// matching the evaluator's general policy of trusting runtime tags once
// the checker has already ruled out a tag mismatch.
func applyBinary(op ast.Operator, lhs, rhs object.Object) (object.Object, error) {
	switch op {
	case ast.OpEq:
		return object.Bool{Value: objectsEqual(lhs, rhs)}, nil
	case ast.OpNe:
		return object.Bool{Value: !objectsEqual(lhs, rhs)}, nil
	case ast.OpAnd:
		l, lok := lhs.(object.Bool)
		r, rok := rhs.(object.Bool)
		if !lok || !rok {
			return nil, &RuntimeError{Kind: TypeError, Message: "&& requires bool operands"}
		}
		return object.Bool{Value: l.Value && r.Value}, nil
	case ast.OpOr:
		l, lok := lhs.(object.Bool)
		r, rok := rhs.(object.Bool)
		if !lok || !rok {
			return nil, &RuntimeError{Kind: TypeError, Message: "|| requires bool operands"}
		}
		return object.Bool{Value: l.Value || r.Value}, nil
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return applyComparison(op, lhs, rhs)
	case ast.OpAdd:
		if ls, lok := asStringOperand(lhs); lok {
			rs, rok := asStringOperand(rhs)
			if !rok {
				return nil, &RuntimeError{Kind: TypeError, Message: "+ requires matching operand types"}
			}
			return object.String{Value: ls + rs}, nil
		}
		return applyIntegerOp(op, lhs, rhs)
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpBitOr, ast.OpBitXor, ast.OpBitAnd, ast.OpShl, ast.OpShr:
		return applyIntegerOp(op, lhs, rhs)
	default:
		return nil, &RuntimeError{Kind: InternalError, Message: "unhandled binary operator"}
	}
}

func asStringOperand(o object.Object) (string, bool) {
	switch v := o.(type) {
	case object.String:
		return v.Value, true
	case object.ConstString:
		return v.Text, true
	default:
		return "", false
	}
}

func applyIntegerOp(op ast.Operator, lhs, rhs object.Object) (object.Object, error) {
	switch l := lhs.(type) {
	case object.Int64:
		r, ok := rhs.(object.Int64)
		if !ok {
			return nil, &RuntimeError{Kind: TypeError, Message: "integer operator requires matching operand types"}
		}
		return intOp(op, l.Value, r.Value)
	case object.UInt64:
		r, ok := rhs.(object.UInt64)
		if !ok {
			return nil, &RuntimeError{Kind: TypeError, Message: "integer operator requires matching operand types"}
		}
		return uintOp(op, l.Value, r.Value)
	default:
		return nil, &RuntimeError{Kind: TypeError, Message: "operator requires integer operands"}
	}
}

// intOp and uintOp implement wrapping (two's-complement) arithmetic by
// relying on Go's own int64/uint64 overflow behavior, which already
// wraps (SPEC_FULL.md §9 Open Question (c)).
func intOp(op ast.Operator, l, r int64) (object.Object, error) {
	switch op {
	case ast.OpAdd:
		return object.Int64{Value: l + r}, nil
	case ast.OpSub:
		return object.Int64{Value: l - r}, nil
	case ast.OpMul:
		return object.Int64{Value: l * r}, nil
	case ast.OpDiv:
		if r == 0 {
			return nil, &RuntimeError{Kind: TypeError, Message: "division by zero"}
		}
		return object.Int64{Value: l / r}, nil
	case ast.OpBitOr:
		return object.Int64{Value: l | r}, nil
	case ast.OpBitXor:
		return object.Int64{Value: l ^ r}, nil
	case ast.OpBitAnd:
		return object.Int64{Value: l & r}, nil
	case ast.OpShl:
		return object.Int64{Value: l << uint(r)}, nil
	case ast.OpShr:
		return object.Int64{Value: l >> uint(r)}, nil
	default:
		return nil, &RuntimeError{Kind: InternalError, Message: "unhandled integer operator"}
	}
}

func uintOp(op ast.Operator, l, r uint64) (object.Object, error) {
	switch op {
	case ast.OpAdd:
		return object.UInt64{Value: l + r}, nil
	case ast.OpSub:
		return object.UInt64{Value: l - r}, nil
	case ast.OpMul:
		return object.UInt64{Value: l * r}, nil
	case ast.OpDiv:
		if r == 0 {
			return nil, &RuntimeError{Kind: TypeError, Message: "division by zero"}
		}
		return object.UInt64{Value: l / r}, nil
	case ast.OpBitOr:
		return object.UInt64{Value: l | r}, nil
	case ast.OpBitXor:
		return object.UInt64{Value: l ^ r}, nil
	case ast.OpBitAnd:
		return object.UInt64{Value: l & r}, nil
	case ast.OpShl:
		return object.UInt64{Value: l << r}, nil
	case ast.OpShr:
		return object.UInt64{Value: l >> r}, nil
	default:
		return nil, &RuntimeError{Kind: InternalError, Message: "unhandled integer operator"}
	}
}

func applyComparison(op ast.Operator, lhs, rhs object.Object) (object.Object, error) {
	var cmp int
	switch l := lhs.(type) {
	case object.Int64:
		r, ok := rhs.(object.Int64)
		if !ok {
			return nil, &RuntimeError{Kind: TypeError, Message: "comparison requires matching operand types"}
		}
		cmp = compareInt64(l.Value, r.Value)
	case object.UInt64:
		r, ok := rhs.(object.UInt64)
		if !ok {
			return nil, &RuntimeError{Kind: TypeError, Message: "comparison requires matching operand types"}
		}
		cmp = compareUInt64(l.Value, r.Value)
	default:
		ls, lok := asStringOperand(lhs)
		rs, rok := asStringOperand(rhs)
		if !lok || !rok {
			return nil, &RuntimeError{Kind: TypeError, Message: "comparison requires orderable operands"}
		}
		cmp = strings.Compare(ls, rs)
	}
	switch op {
	case ast.OpLt:
		return object.Bool{Value: cmp < 0}, nil
	case ast.OpLe:
		return object.Bool{Value: cmp <= 0}, nil
	case ast.OpGt:
		return object.Bool{Value: cmp > 0}, nil
	case ast.OpGe:
		return object.Bool{Value: cmp >= 0}, nil
	default:
		return nil, &RuntimeError{Kind: InternalError, Message: "unhandled comparison operator"}
	}
}

func compareInt64(l, r int64) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func compareUInt64(l, r uint64) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

// objectsEqual implements == over the scalar and reference-identity cases
// spec.md §4.4 defines equality for: integers/bools/strings by value,
// composite types by handle identity (two arrays are == only if they are
// the same shared value, not merely element-wise equal).
func objectsEqual(lhs, rhs object.Object) bool {
	switch l := lhs.(type) {
	case object.Int64:
		r, ok := rhs.(object.Int64)
		return ok && l.Value == r.Value
	case object.UInt64:
		r, ok := rhs.(object.UInt64)
		return ok && l.Value == r.Value
	case object.Bool:
		r, ok := rhs.(object.Bool)
		return ok && l.Value == r.Value
	case object.Null:
		_, ok := rhs.(object.Null)
		return ok
	case object.Unit:
		_, ok := rhs.(object.Unit)
		return ok
	default:
		ls, lok := asStringOperand(lhs)
		rs, rok := asStringOperand(rhs)
		if lok && rok {
			return ls == rs
		}
		return sameHandle(lhs, rhs)
	}
}

// sameHandle compares composite values by the identity of their shared
// Handle, so `a == b` for two arrays means "the same array", not
// "elementwise equal" (spec.md §3.9).
func sameHandle(lhs, rhs object.Object) bool {
	type handled interface{ Handle() *object.Handle }
	lh, lok := lhs.(handled)
	rh, rok := rhs.(handled)
	if !lok || !rok {
		return false
	}
	return lh.Handle() == rh.Handle()
}

func (ev *Evaluator) evalUnary(env *Environment, n ast.Unary) (Outcome, error) {
	oc, err := ev.evalExpr(env, n.Operand)
	if err != nil || oc.Kind != KindValue {
		return oc, err
	}
	switch n.Op {
	case ast.OpNot:
		b, ok := oc.Value.(object.Bool)
		if !ok {
			return Outcome{}, &RuntimeError{Kind: TypeError, Message: "! requires a bool operand"}
		}
		return Value(object.Bool{Value: !b.Value}), nil
	case ast.OpBitNot:
		switch v := oc.Value.(type) {
		case object.Int64:
			return Value(object.Int64{Value: ^v.Value}), nil
		case object.UInt64:
			return Value(object.UInt64{Value: ^v.Value}), nil
		}
		return Outcome{}, &RuntimeError{Kind: TypeError, Message: "~ requires an integer operand"}
	case ast.OpNeg:
		switch v := oc.Value.(type) {
		case object.Int64:
			return Value(object.Int64{Value: -v.Value}), nil
		case object.UInt64:
			return Value(object.UInt64{Value: -v.Value}), nil
		}
		return Outcome{}, &RuntimeError{Kind: TypeError, Message: "unary - requires an integer operand"}
	default:
		return Outcome{}, &RuntimeError{Kind: InternalError, Message: "unhandled unary operator"}
	}
}

// evalBlock pushes a scope, runs each statement, and yields the value of
// the last expression-statement (Unit otherwise), invoking scope-exit
// __drop__ before returning (spec.md §4.4 "Block", "Scope exit").
func (ev *Evaluator) evalBlock(env *Environment, b ast.Block) (Outcome, error) {
	blockEnv := NewEnvironment(env)
	result := Value(object.Object(object.Unit{}))

	for i, stmtRef := range b.Stmts {
		last := i == len(b.Stmts)-1
		oc, err := ev.evalStmt(blockEnv, stmtRef)
		if err != nil {
			return Outcome{}, err
		}
		if oc.Kind != KindValue {
			if dropErr := ev.dropScope(blockEnv); dropErr != nil {
				return Outcome{}, dropErr
			}
			return oc, nil
		}
		if last {
			if _, ok := ev.prog.Stmts.Get(stmtRef).(ast.ExprStmt); ok {
				result = oc
			} else {
				result = Value(object.Unit{})
			}
		}
	}

	if err := ev.dropScope(blockEnv); err != nil {
		return Outcome{}, err
	}
	return result, nil
}

func (ev *Evaluator) evalIf(env *Environment, n ast.If) (Outcome, error) {
	condOc, err := ev.evalExpr(env, n.Cond)
	if err != nil || condOc.Kind != KindValue {
		return condOc, err
	}
	cond, ok := condOc.Value.(object.Bool)
	if !ok {
		return Outcome{}, &RuntimeError{Kind: TypeError, Message: "if condition must be bool"}
	}
	if cond.Value {
		return ev.evalExpr(env, n.Then)
	}
	for _, elif := range n.Elifs {
		eOc, err := ev.evalExpr(env, elif.Cond)
		if err != nil || eOc.Kind != KindValue {
			return eOc, err
		}
		eb, ok := eOc.Value.(object.Bool)
		if !ok {
			return Outcome{}, &RuntimeError{Kind: TypeError, Message: "elif condition must be bool"}
		}
		if eb.Value {
			return ev.evalExpr(env, elif.Block)
		}
	}
	if n.Else == ast.NoExpr {
		return Value(object.Unit{}), nil
	}
	return ev.evalExpr(env, n.Else)
}

func (ev *Evaluator) evalAssign(env *Environment, n ast.Assign) (Outcome, error) {
	rhsOc, err := ev.evalExpr(env, n.RHS)
	if err != nil || rhsOc.Kind != KindValue {
		return rhsOc, err
	}
	if err := ev.assignTo(env, n.LHS, rhsOc.Value); err != nil {
		return Outcome{}, err
	}
	return Value(object.Unit{}), nil
}

func (ev *Evaluator) assignTo(env *Environment, ref ast.ExprRef, value object.Object) error {
	switch n := ev.prog.Exprs.Get(ref).(type) {
	case ast.Ident:
		if !env.Assign(n.Name, value) {
			return &RuntimeError{Kind: UndefinedVariable, Name: ev.prog.Interner.MustResolve(n.Name)}
		}
		return nil
	case ast.FieldAccess:
		objOc, err := ev.evalExpr(env, n.Object)
		if err != nil {
			return err
		}
		if objOc.Kind != KindValue {
			return &RuntimeError{Kind: InternalError, Message: "control flow in assignment target"}
		}
		s, ok := objOc.Value.(object.Struct)
		if !ok {
			return &RuntimeError{Kind: TypeError, Message: "field assignment target is not a struct"}
		}
		if !s.SetField(n.Field, value) {
			return &RuntimeError{Kind: TypeError, Message: "unknown field: " + ev.prog.Interner.MustResolve(n.Field)}
		}
		return nil
	case ast.Index:
		return ev.assignIndex(env, n, value)
	case ast.TupleAccess:
		return &RuntimeError{Kind: TypeError, Message: "tuples are immutable"}
	default:
		return &RuntimeError{Kind: InternalError, Message: "unsupported assignment target"}
	}
}

func (ev *Evaluator) evalArrayLit(env *Environment, n ast.ArrayLit) (Outcome, error) {
	list := ev.prog.Exprs.Get(n.Elements).(ast.ExprList)
	elems := make([]*object.Handle, 0, len(list.Items))
	for _, item := range list.Items {
		oc, err := ev.evalExpr(env, item)
		if err != nil || oc.Kind != KindValue {
			return oc, err
		}
		elems = append(elems, object.NewHandle(oc.Value))
	}
	return Value(object.NewArray(elems)), nil
}

func (ev *Evaluator) evalDictLit(env *Environment, n ast.DictLit) (Outcome, error) {
	d := object.NewDict()
	for _, entry := range n.Entries {
		kOc, err := ev.evalExpr(env, entry.Key)
		if err != nil || kOc.Kind != KindValue {
			return kOc, err
		}
		vOc, err := ev.evalExpr(env, entry.Value)
		if err != nil || vOc.Kind != KindValue {
			return vOc, err
		}
		d.Set(kOc.Value, vOc.Value)
	}
	return Value(d), nil
}

func (ev *Evaluator) evalTupleLit(env *Environment, n ast.TupleLit) (Outcome, error) {
	list := ev.prog.Exprs.Get(n.Elements).(ast.ExprList)
	elems := make([]*object.Handle, 0, len(list.Items))
	for _, item := range list.Items {
		oc, err := ev.evalExpr(env, item)
		if err != nil || oc.Kind != KindValue {
			return oc, err
		}
		elems = append(elems, object.NewHandle(oc.Value))
	}
	return Value(object.NewTuple(elems)), nil
}

func (ev *Evaluator) evalTupleAccess(env *Environment, n ast.TupleAccess) (Outcome, error) {
	oc, err := ev.evalExpr(env, n.Tuple)
	if err != nil || oc.Kind != KindValue {
		return oc, err
	}
	t, ok := oc.Value.(object.Tuple)
	if !ok {
		return Outcome{}, &RuntimeError{Kind: TypeError, Message: "tuple access on a non-tuple value"}
	}
	v, ok := t.Get(n.Index)
	if !ok {
		return Outcome{}, &RuntimeError{Kind: IndexOutOfBounds, Index: int64(n.Index), Size: -1}
	}
	return Value(v), nil
}

func (ev *Evaluator) evalFieldAccess(env *Environment, n ast.FieldAccess) (Outcome, error) {
	oc, err := ev.evalExpr(env, n.Object)
	if err != nil || oc.Kind != KindValue {
		return oc, err
	}
	s, ok := oc.Value.(object.Struct)
	if !ok {
		return Outcome{}, &RuntimeError{Kind: TypeError, Message: "field access on a non-struct value"}
	}
	v, ok := s.Field(n.Field)
	if !ok {
		return Outcome{}, &RuntimeError{Kind: TypeError, Message: "unknown field: " + ev.prog.Interner.MustResolve(n.Field)}
	}
	return Value(v), nil
}

func (ev *Evaluator) evalStructLit(env *Environment, n ast.StructLit) (Outcome, error) {
	info, ok := ev.ctx.Structs[n.Struct]
	if !ok {
		return Outcome{}, &RuntimeError{Kind: TypeError, Message: "unknown struct type"}
	}
	values := make(map[intern.Symbol]object.Object, len(n.Fields))
	for _, f := range n.Fields {
		oc, err := ev.evalExpr(env, f.Value)
		if err != nil || oc.Kind != KindValue {
			return oc, err
		}
		values[f.Field] = oc.Value
	}
	order := make([]intern.Symbol, len(info.Fields))
	fields := make(map[intern.Symbol]*object.Handle, len(info.Fields))
	for i, f := range info.Fields {
		order[i] = f.Name
		fields[f.Name] = object.NewHandle(values[f.Name])
	}
	return Value(object.NewStruct(n.Struct, order, fields)), nil
}

func (ev *Evaluator) evalMethodCall(env *Environment, n ast.MethodCall) (Outcome, error) {
	objOc, err := ev.evalExpr(env, n.Object)
	if err != nil || objOc.Kind != KindValue {
		return objOc, err
	}
	s, ok := objOc.Value.(object.Struct)
	if !ok {
		return Outcome{}, &RuntimeError{Kind: TypeError, Message: "method call on a non-struct value"}
	}
	m, ok := ev.ctx.LookupMethod(s.TypeName(), n.Method)
	if !ok {
		return Outcome{}, &RuntimeError{Kind: FunctionNotFound, Name: ev.prog.Interner.MustResolve(n.Method)}
	}
	args, oc, err := ev.evalArgs(env, n.Args)
	if err != nil {
		return Outcome{}, err
	}
	if oc.Kind != KindValue {
		return oc, nil
	}
	v, err := ev.callMethod(m, s, args)
	if err != nil {
		return Outcome{}, err
	}
	return Value(v), nil
}

// evalArgs evaluates a Call/MethodCall's ExprList left-to-right,
// propagating the first non-value outcome it meets.
func (ev *Evaluator) evalArgs(env *Environment, argsRef ast.ExprRef) ([]object.Object, Outcome, error) {
	list := ev.prog.Exprs.Get(argsRef).(ast.ExprList)
	vals := make([]object.Object, 0, len(list.Items))
	for _, item := range list.Items {
		oc, err := ev.evalExpr(env, item)
		if err != nil {
			return nil, Outcome{}, err
		}
		if oc.Kind != KindValue {
			return nil, oc, nil
		}
		vals = append(vals, oc.Value)
	}
	return vals, Value(object.Unit{}), nil
}

func (ev *Evaluator) evalCall(env *Environment, n ast.Call) (Outcome, error) {
	if len(n.Path) > 0 {
		return ev.evalAssociatedCall(env, n)
	}
	if n.Callee == ev.rangeSym {
		return ev.evalRangeBuiltin(env, n)
	}
	fn, ok := ev.ctx.Functions[n.Callee]
	if !ok {
		return Outcome{}, &RuntimeError{Kind: FunctionNotFound, Name: ev.prog.Interner.MustResolve(n.Callee)}
	}
	args, oc, err := ev.evalArgs(env, n.Args)
	if err != nil {
		return Outcome{}, err
	}
	if oc.Kind != KindValue {
		return oc, nil
	}
	if len(args) != len(fn.Params) {
		return Outcome{}, &RuntimeError{Kind: FunctionParameterMismatch, Name: ev.prog.Interner.MustResolve(n.Callee), Expected: len(fn.Params), Got: len(args)}
	}
	v, err := ev.invoke(fn, args, nil, false)
	if err != nil {
		return Outcome{}, err
	}
	return Value(v), nil
}

func (ev *Evaluator) evalAssociatedCall(env *Environment, n ast.Call) (Outcome, error) {
	structName := n.Path[0]
	methodName := n.Path[len(n.Path)-1]
	m, ok := ev.ctx.LookupMethod(structName, methodName)
	if !ok {
		return Outcome{}, &RuntimeError{Kind: FunctionNotFound, Name: ev.prog.Interner.MustResolve(methodName)}
	}
	args, oc, err := ev.evalArgs(env, n.Args)
	if err != nil {
		return Outcome{}, err
	}
	if oc.Kind != KindValue {
		return oc, nil
	}
	if len(args) != len(m.Params) {
		return Outcome{}, &RuntimeError{Kind: FunctionParameterMismatch, Name: ev.prog.Interner.MustResolve(methodName), Expected: len(m.Params), Got: len(args)}
	}
	v, err := ev.invoke(&m.Function, args, nil, false)
	if err != nil {
		return Outcome{}, err
	}
	return Value(v), nil
}

// evalRangeBuiltin materializes the synthetic `lo to hi` call the parser
// desugars a for-loop range into, as a half-open Array: `to` is
// exclusive of hi, matching spec.md §8 scenario 4 (`for i in 1u64 to
// 5u64` visits 1,2,3,4).
func (ev *Evaluator) evalRangeBuiltin(env *Environment, n ast.Call) (Outcome, error) {
	args, oc, err := ev.evalArgs(env, n.Args)
	if err != nil {
		return Outcome{}, err
	}
	if oc.Kind != KindValue {
		return oc, nil
	}
	if len(args) != 2 {
		return Outcome{}, &RuntimeError{Kind: InternalError, Message: "__range__ requires two bounds"}
	}
	switch lo := args[0].(type) {
	case object.UInt64:
		hi, ok := args[1].(object.UInt64)
		if !ok {
			return Outcome{}, &RuntimeError{Kind: TypeError, Message: "range bounds must share a type"}
		}
		var elems []*object.Handle
		for v := lo.Value; v < hi.Value; v++ {
			elems = append(elems, object.NewHandle(object.UInt64{Value: v}))
		}
		return Value(object.NewArray(elems)), nil
	case object.Int64:
		hi, ok := args[1].(object.Int64)
		if !ok {
			return Outcome{}, &RuntimeError{Kind: TypeError, Message: "range bounds must share a type"}
		}
		var elems []*object.Handle
		for v := lo.Value; v < hi.Value; v++ {
			elems = append(elems, object.NewHandle(object.Int64{Value: v}))
		}
		return Value(object.NewArray(elems)), nil
	default:
		return Outcome{}, &RuntimeError{Kind: TypeError, Message: "range bounds must be integers"}
	}
}

// evalIndex implements `o[i]` (spec.md §4.4 "Index access"): Array with
// bounds check, Dict key-lookup, Struct via __getitem__.
func (ev *Evaluator) evalIndex(env *Environment, n ast.Index) (Outcome, error) {
	objOc, err := ev.evalExpr(env, n.Object)
	if err != nil || objOc.Kind != KindValue {
		return objOc, err
	}
	idxOc, err := ev.evalExpr(env, n.Idx)
	if err != nil || idxOc.Kind != KindValue {
		return idxOc, err
	}
	switch obj := objOc.Value.(type) {
	case object.Array:
		i, err := resolveIndex(idxOc.Value, obj.Len())
		if err != nil {
			return Outcome{}, err
		}
		v, ok := obj.Get(i)
		if !ok {
			return Outcome{}, &RuntimeError{Kind: IndexOutOfBounds, Index: int64(i), Size: obj.Len()}
		}
		return Value(v), nil
	case object.Dict:
		v, ok := obj.Get(idxOc.Value)
		if !ok {
			return Outcome{}, &RuntimeError{Kind: TypeError, Message: "key not found"}
		}
		return Value(v), nil
	case object.Struct:
		return ev.dispatchProtocol(obj, "__getitem__", []object.Object{idxOc.Value})
	default:
		return Outcome{}, &RuntimeError{Kind: TypeError, Message: "value is not indexable"}
	}
}

// resolveIndex resolves the negative-index Open Question (SPEC_FULL.md
// §4.4): a UInt64 index never wraps; an Int64 index wraps as
// `len(arr) + index` when negative, still bounds-checked afterward.
func resolveIndex(idxVal object.Object, size int) (int, error) {
	switch v := idxVal.(type) {
	case object.UInt64:
		i := int(v.Value)
		if i < 0 || i >= size {
			return 0, &RuntimeError{Kind: IndexOutOfBounds, Index: int64(v.Value), Size: size}
		}
		return i, nil
	case object.Int64:
		i := v.Value
		if i < 0 {
			i += int64(size)
		}
		if i < 0 || i >= int64(size) {
			return 0, &RuntimeError{Kind: IndexOutOfBounds, Index: v.Value, Size: size}
		}
		return int(i), nil
	default:
		return 0, &RuntimeError{Kind: TypeError, Message: "array index must be an integer"}
	}
}

func (ev *Evaluator) dispatchProtocol(obj object.Struct, methodName string, args []object.Object) (Outcome, error) {
	sym := ev.prog.Interner.Intern(methodName)
	m, ok := ev.ctx.LookupMethod(obj.TypeName(), sym)
	if !ok {
		return Outcome{}, &RuntimeError{Kind: FunctionNotFound, Name: methodName}
	}
	v, err := ev.callMethod(m, obj, args)
	if err != nil {
		return Outcome{}, err
	}
	return Value(v), nil
}

func (ev *Evaluator) assignIndex(env *Environment, n ast.Index, value object.Object) error {
	objOc, err := ev.evalExpr(env, n.Object)
	if err != nil {
		return err
	}
	if objOc.Kind != KindValue {
		return &RuntimeError{Kind: InternalError, Message: "control flow in assignment target"}
	}
	idxOc, err := ev.evalExpr(env, n.Idx)
	if err != nil {
		return err
	}
	if idxOc.Kind != KindValue {
		return &RuntimeError{Kind: InternalError, Message: "control flow in index expression"}
	}
	switch obj := objOc.Value.(type) {
	case object.Array:
		i, err := resolveIndex(idxOc.Value, obj.Len())
		if err != nil {
			return err
		}
		obj.Set(i, value)
		return nil
	case object.Dict:
		obj.Set(idxOc.Value, value)
		return nil
	case object.Struct:
		_, err := ev.dispatchProtocol(obj, "__setitem__", []object.Object{idxOc.Value, value})
		return err
	default:
		return &RuntimeError{Kind: TypeError, Message: "value does not support index assignment"}
	}
}

// evalSlice implements `o[a..b]` (spec.md §4.4 "Slice"): Array produces
// a new Array over the range; Struct dispatches __getslice__.
func (ev *Evaluator) evalSlice(env *Environment, n ast.Slice) (Outcome, error) {
	objOc, err := ev.evalExpr(env, n.Object)
	if err != nil || objOc.Kind != KindValue {
		return objOc, err
	}
	switch obj := objOc.Value.(type) {
	case object.Array:
		lo, hi, err := ev.resolveSliceBounds(env, n.Info, obj.Len())
		if err != nil {
			return Outcome{}, err
		}
		return Value(obj.Slice(lo, hi)), nil
	case object.Struct:
		var args []object.Object
		if n.Info.Low != ast.NoExpr {
			loOc, err := ev.evalExpr(env, n.Info.Low)
			if err != nil || loOc.Kind != KindValue {
				return loOc, err
			}
			args = append(args, loOc.Value)
		}
		if n.Info.High != ast.NoExpr {
			hiOc, err := ev.evalExpr(env, n.Info.High)
			if err != nil || hiOc.Kind != KindValue {
				return hiOc, err
			}
			args = append(args, hiOc.Value)
		}
		return ev.dispatchProtocol(obj, "__getslice__", args)
	default:
		return Outcome{}, &RuntimeError{Kind: TypeError, Message: "value is not sliceable"}
	}
}

func (ev *Evaluator) resolveSliceBounds(env *Environment, info ast.SliceInfo, size int) (int, int, error) {
	lo, hi := 0, size
	if info.Low != ast.NoExpr {
		oc, err := ev.evalExpr(env, info.Low)
		if err != nil {
			return 0, 0, err
		}
		if oc.Kind != KindValue {
			return 0, 0, &RuntimeError{Kind: InternalError, Message: "control flow in slice bound"}
		}
		v, ok := oc.Value.(object.UInt64)
		if !ok {
			return 0, 0, &RuntimeError{Kind: TypeError, Message: "slice bound must be u64"}
		}
		lo = int(v.Value)
	}
	if info.High != ast.NoExpr {
		oc, err := ev.evalExpr(env, info.High)
		if err != nil {
			return 0, 0, err
		}
		if oc.Kind != KindValue {
			return 0, 0, &RuntimeError{Kind: InternalError, Message: "control flow in slice bound"}
		}
		v, ok := oc.Value.(object.UInt64)
		if !ok {
			return 0, 0, &RuntimeError{Kind: TypeError, Message: "slice bound must be u64"}
		}
		hi = int(v.Value)
	}
	if lo < 0 || hi > size || lo > hi {
		return 0, 0, &RuntimeError{Kind: IndexOutOfBounds, Index: int64(hi), Size: size}
	}
	return lo, hi, nil
}

func (ev *Evaluator) evalSliceAssign(env *Environment, n ast.SliceAssign) (Outcome, error) {
	objOc, err := ev.evalExpr(env, n.Object)
	if err != nil || objOc.Kind != KindValue {
		return objOc, err
	}
	arr, ok := objOc.Value.(object.Array)
	if !ok {
		return Outcome{}, &RuntimeError{Kind: TypeError, Message: "slice assignment requires an array"}
	}
	lo, hi, err := ev.resolveSliceBounds(env, n.Info, arr.Len())
	if err != nil {
		return Outcome{}, err
	}
	valOc, err := ev.evalExpr(env, n.Value)
	if err != nil || valOc.Kind != KindValue {
		return valOc, err
	}
	src, ok := valOc.Value.(object.Array)
	if !ok {
		return Outcome{}, &RuntimeError{Kind: TypeError, Message: "slice assignment value must be an array"}
	}
	if src.Len() != hi-lo {
		return Outcome{}, &RuntimeError{Kind: TypeError, Message: "slice assignment length mismatch"}
	}
	for i := 0; i < src.Len(); i++ {
		v, _ := src.Get(i)
		arr.Set(lo+i, v)
	}
	return Value(object.Unit{}), nil
}
