package types

import (
	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/intern"
)

// checkCall implements spec.md §4.3's "Calls" and "Associated functions"
// rules: a plain callee resolves in the function table; Path-qualified
// calls (Type::func) resolve a method that doesn't take self. Generic
// functions infer a substitution from argument types by in-order
// unification (no backtracking) and record a pending instantiation.
func (c *Checker) checkCall(ref ast.ExprRef, n ast.Call) ast.Type {
	if len(n.Path) > 0 {
		return c.checkAssociatedCall(ref, n)
	}

	if n.Callee == c.intern("__range__") {
		return c.checkRangeBuiltin(n)
	}

	fn, ok := c.ctx.Functions[n.Callee]
	if !ok {
		c.report(&Error{Kind: NotFound, NameKind: "function", Name: c.prog.Interner.MustResolve(n.Callee), Location: c.locOf(ref)})
		c.checkExpr(n.Args)
		return ast.TUnknown{}
	}
	return c.checkCallAgainst(ref, fn.Name, fn.GenericParams, fn.Params, fn.ReturnType, n.Args, nil)
}

// checkRangeBuiltin types the synthetic `lo to hi` range desugaring the
// parser produces for `for i in lo to hi`: both bounds must unify to the
// same integer type, and the result is an Array of that type (the
// evaluator materializes the half-open range eagerly as an Array, typed
// per spec.md's "for i in range" binding rule).
func (c *Checker) checkRangeBuiltin(n ast.Call) ast.Type {
	args := c.prog.Exprs.Get(n.Args).(ast.ExprList)
	if len(args.Items) != 2 {
		return ast.TArray{Elem: ast.TUInt64{}, Length: -1}
	}
	lo := c.checkExpr(args.Items[0])
	hi := c.checkExprHinted(args.Items[1], lo)
	elem := unifyIntegers(lo, hi)
	if elem == nil {
		c.report(&Error{Kind: TypeMismatch, Expected: lo, Found: hi, Location: c.locOf(args.Items[1])})
		elem = ast.TUInt64{}
	}
	if _, ok := elem.(ast.TNumber); ok {
		elem = ast.TUInt64{}
	}
	return ast.TArray{Elem: elem, Length: -1}
}

// checkAssociatedCall resolves `Path[0]::...::Path[len-1](args)`: Path[0]
// names the struct and Path[len-1] names the associated function or
// method. The parser accepts longer `::` paths; middle segments are
// ignored here.
func (c *Checker) checkAssociatedCall(ref ast.ExprRef, n ast.Call) ast.Type {
	structName := n.Path[0]
	methodName := n.Path[len(n.Path)-1]
	m, ok := c.ctx.LookupMethod(structName, methodName)
	if !ok {
		c.report(&Error{Kind: NotFound, NameKind: "associated function", Name: c.prog.Interner.MustResolve(methodName), Location: c.locOf(ref)})
		c.checkExpr(n.Args)
		return ast.TUnknown{}
	}
	if m.TakesSelf {
		c.report(&Error{Kind: UnsupportedOperation, Message: "cannot call an instance method without a receiver", Location: c.locOf(ref)})
	}
	info := c.ctx.Structs[structName]
	var generics []intern.Symbol
	if info != nil {
		generics = info.GenericParams
	}
	return c.checkCallAgainst(ref, m.Name, generics, m.Params, m.ReturnType, n.Args, &structName)
}

// checkCallAgainst is the shared unify-arguments-and-record-instantiation
// core used by both plain and associated-function calls.
func (c *Checker) checkCallAgainst(ref ast.ExprRef, name intern.Symbol, generics []intern.Symbol, params []ast.Param, retType ast.Type, argsRef ast.ExprRef, selfStruct *intern.Symbol) ast.Type {
	args := c.prog.Exprs.Get(argsRef).(ast.ExprList)
	if len(args.Items) != len(params) {
		c.report(&Error{Kind: ArityMismatch, Message: "expected arity", Location: c.locOf(ref)})
		for _, a := range args.Items {
			c.checkExpr(a)
		}
		return ast.TUnknown{}
	}

	subs := make(map[intern.Symbol]ast.Type, len(generics))
	genericSet := make(map[intern.Symbol]bool, len(generics))
	for _, g := range generics {
		genericSet[g] = true
	}

	argTypes := make([]ast.Type, len(args.Items))
	for i, a := range args.Items {
		hint := paramHint(params[i].Type, subs)
		argTypes[i] = c.checkExprHinted(a, hint)
		unifyGenericParam(params[i].Type, argTypes[i], genericSet, subs)
	}

	for i, a := range args.Items {
		want := ast.SubstituteGenerics(params[i].Type, subs)
		if selfStruct != nil {
			want = c.ctx.ResolveSelf(want, structTypeArgs(*selfStruct, subs, c.ctx))
		}
		if !ast.IsEquivalent(want, argTypes[i]) && unifyIntegers(want, argTypes[i]) == nil {
			c.report(&Error{Kind: TypeMismatch, Expected: want, Found: argTypes[i], Location: c.locOf(a)})
		}
	}

	result := ast.SubstituteGenerics(retType, subs)
	if selfStruct != nil {
		result = c.ctx.ResolveSelf(result, structTypeArgs(*selfStruct, subs, c.ctx))
	}

	if len(generics) > 0 {
		c.infer.RecordInstantiation(c.prog.Interner.MustResolve(name), subs)
	}
	return result
}

func structTypeArgs(structName intern.Symbol, subs map[intern.Symbol]ast.Type, ctx *Context) []ast.Type {
	info, ok := ctx.Structs[structName]
	if !ok {
		return nil
	}
	args := make([]ast.Type, len(info.GenericParams))
	for i, g := range info.GenericParams {
		if t, ok := subs[g]; ok {
			args[i] = t
		} else {
			args[i] = ast.TGeneric{Param: g}
		}
	}
	return args
}

// paramHint returns a type hint to check an argument against: the
// parameter's declared type, with any already-resolved generics
// substituted in (so a second generic parameter that depends on an
// earlier-unified one still gets a concrete hint).
func paramHint(paramType ast.Type, subs map[intern.Symbol]ast.Type) ast.Type {
	return ast.SubstituteGenerics(paramType, subs)
}

// unifyGenericParam records subs[param] = argType the first time a
// TGeneric parameter type is seen, implementing "unification in order; no
// backtracking" from spec.md §4.3.
func unifyGenericParam(paramType, argType ast.Type, generics map[intern.Symbol]bool, subs map[intern.Symbol]ast.Type) {
	switch pt := paramType.(type) {
	case ast.TGeneric:
		if generics[pt.Param] {
			if _, already := subs[pt.Param]; !already {
				subs[pt.Param] = argType
			}
		}
	case ast.TArray:
		if at, ok := argType.(ast.TArray); ok {
			unifyGenericParam(pt.Elem, at.Elem, generics, subs)
		}
	case ast.TDict:
		if at, ok := argType.(ast.TDict); ok {
			unifyGenericParam(pt.Key, at.Key, generics, subs)
			unifyGenericParam(pt.Value, at.Value, generics, subs)
		}
	case ast.TTuple:
		if at, ok := argType.(ast.TTuple); ok {
			for i := range pt.Elems {
				if i < len(at.Elems) {
					unifyGenericParam(pt.Elems[i], at.Elems[i], generics, subs)
				}
			}
		}
	case ast.TStruct:
		if at, ok := argType.(ast.TStruct); ok {
			for i := range pt.TypeArgs {
				if i < len(at.TypeArgs) {
					unifyGenericParam(pt.TypeArgs[i], at.TypeArgs[i], generics, subs)
				}
			}
		}
	}
}

// checkFieldAccess implements spec.md §4.3's "Field and method access":
// look up the struct by the object's type, check field visibility.
func (c *Checker) checkFieldAccess(ref ast.ExprRef, n ast.FieldAccess) ast.Type {
	objType := c.checkExpr(n.Object)
	structName, typeArgs, ok := structNameOf(objType)
	if !ok {
		c.report(&Error{Kind: TypeMismatch, Expected: ast.TStruct{}, Found: objType, Location: c.locOf(ref)})
		return ast.TUnknown{}
	}
	info, ok := c.ctx.Structs[structName]
	if !ok {
		c.report(&Error{Kind: NotFound, NameKind: "struct", Name: c.prog.Interner.MustResolve(structName), Location: c.locOf(ref)})
		return ast.TUnknown{}
	}
	idx := info.FieldIndex(n.Field)
	if idx < 0 {
		c.report(&Error{Kind: NotFound, NameKind: "field", Name: c.prog.Interner.MustResolve(n.Field), Location: c.locOf(ref)})
		return ast.TUnknown{}
	}
	field := info.Fields[idx]
	if field.Visibility != ast.Public && !c.sameModule(structName) {
		c.report(&Error{Kind: NotFound, NameKind: "field", Name: c.prog.Interner.MustResolve(n.Field), Location: c.locOf(ref)})
		return ast.TUnknown{}
	}
	subs := genericSubsFromTypeArgs(info.GenericParams, typeArgs)
	return ast.SubstituteGenerics(field.Type, subs)
}

// sameModule reports whether structName was declared in the currently
// checked module — spec.md §6.3: within the same module all visibility
// is ignored. Context.RegisterModule records each struct's declaring
// module path (NewContext registers the checked Program; imported
// modules are registered by whoever builds the Context — internal/module
// itself never calls RegisterModule), so this is an exact module-path
// comparison rather than a same-Program approximation.
func (c *Checker) sameModule(structName intern.Symbol) bool {
	declaredIn, ok := c.ctx.ModuleOf(structName)
	if !ok {
		return false
	}
	return samePath(declaredIn, c.ctx.ModulePath)
}

func genericSubsFromTypeArgs(params []intern.Symbol, args []ast.Type) map[intern.Symbol]ast.Type {
	subs := make(map[intern.Symbol]ast.Type, len(params))
	for i, p := range params {
		if i < len(args) {
			subs[p] = args[i]
		}
	}
	return subs
}

func structNameOf(t ast.Type) (intern.Symbol, []ast.Type, bool) {
	switch v := t.(type) {
	case ast.TStruct:
		return v.Name, v.TypeArgs, true
	case ast.TIdentifier:
		return v.Name, nil, true
	default:
		return 0, nil, false
	}
}

// checkMethodCall resolves (struct type, method symbol) in the method
// table, binds self implicitly (the receiver), and checks like a call.
func (c *Checker) checkMethodCall(ref ast.ExprRef, n ast.MethodCall) ast.Type {
	objType := c.checkExpr(n.Object)
	structName, typeArgs, ok := structNameOf(objType)
	if !ok {
		c.report(&Error{Kind: TypeMismatch, Expected: ast.TStruct{}, Found: objType, Location: c.locOf(ref)})
		c.checkExpr(n.Args)
		return ast.TUnknown{}
	}
	m, ok := c.ctx.LookupMethod(structName, n.Method)
	if !ok {
		c.report(&Error{Kind: NotFound, NameKind: "method", Name: c.prog.Interner.MustResolve(n.Method), Location: c.locOf(ref)})
		c.checkExpr(n.Args)
		return ast.TUnknown{}
	}
	info := c.ctx.Structs[structName]
	var generics []intern.Symbol
	if info != nil {
		generics = info.GenericParams
	}
	presubs := genericSubsFromTypeArgs(generics, typeArgs)
	return c.checkCallAgainstWithPresubs(ref, m.Name, generics, m.Params, m.ReturnType, n.Args, &structName, presubs)
}

func (c *Checker) checkCallAgainstWithPresubs(ref ast.ExprRef, name intern.Symbol, generics []intern.Symbol, params []ast.Param, retType ast.Type, argsRef ast.ExprRef, selfStruct *intern.Symbol, presubs map[intern.Symbol]ast.Type) ast.Type {
	args := c.prog.Exprs.Get(argsRef).(ast.ExprList)
	if len(args.Items) != len(params) {
		c.report(&Error{Kind: ArityMismatch, Message: "expected arity", Location: c.locOf(ref)})
		for _, a := range args.Items {
			c.checkExpr(a)
		}
		return ast.TUnknown{}
	}
	subs := presubs
	if subs == nil {
		subs = make(map[intern.Symbol]ast.Type)
	}
	genericSet := make(map[intern.Symbol]bool, len(generics))
	for _, g := range generics {
		genericSet[g] = true
	}
	argTypes := make([]ast.Type, len(args.Items))
	for i, a := range args.Items {
		hint := paramHint(params[i].Type, subs)
		argTypes[i] = c.checkExprHinted(a, hint)
		unifyGenericParam(params[i].Type, argTypes[i], genericSet, subs)
	}
	for i, a := range args.Items {
		want := ast.SubstituteGenerics(params[i].Type, subs)
		if selfStruct != nil {
			want = c.ctx.ResolveSelf(want, structTypeArgs(*selfStruct, subs, c.ctx))
		}
		if !ast.IsEquivalent(want, argTypes[i]) && unifyIntegers(want, argTypes[i]) == nil {
			c.report(&Error{Kind: TypeMismatch, Expected: want, Found: argTypes[i], Location: c.locOf(a)})
		}
	}
	result := ast.SubstituteGenerics(retType, subs)
	if selfStruct != nil {
		result = c.ctx.ResolveSelf(result, structTypeArgs(*selfStruct, subs, c.ctx))
	}
	return result
}

// checkStructLit validates `Name{field: value, ...}` against the struct
// table: every declared field must be initialized exactly once.
func (c *Checker) checkStructLit(ref ast.ExprRef, n ast.StructLit) ast.Type {
	info, ok := c.ctx.Structs[n.Struct]
	if !ok {
		c.report(&Error{Kind: NotFound, NameKind: "struct", Name: c.prog.Interner.MustResolve(n.Struct), Location: c.locOf(ref)})
		return ast.TUnknown{}
	}

	seen := make(map[intern.Symbol]bool, len(n.Fields))
	subs := make(map[intern.Symbol]ast.Type)
	genericSet := make(map[intern.Symbol]bool, len(info.GenericParams))
	for _, g := range info.GenericParams {
		genericSet[g] = true
	}

	for _, f := range n.Fields {
		if seen[f.Field] {
			c.report(&Error{Kind: DuplicateField, Name: c.prog.Interner.MustResolve(f.Field), Location: c.locOf(ref)})
			continue
		}
		seen[f.Field] = true
		idx := info.FieldIndex(f.Field)
		if idx < 0 {
			c.report(&Error{Kind: NotFound, NameKind: "field", Name: c.prog.Interner.MustResolve(f.Field), Location: c.locOf(ref)})
			c.checkExpr(f.Value)
			continue
		}
		declared := info.Fields[idx].Type
		hint := ast.SubstituteGenerics(declared, subs)
		valType := c.checkExprHinted(f.Value, hint)
		unifyGenericParam(declared, valType, genericSet, subs)
		want := ast.SubstituteGenerics(declared, subs)
		if !ast.IsEquivalent(want, valType) && unifyIntegers(want, valType) == nil {
			c.report(&Error{Kind: TypeMismatch, Expected: want, Found: valType, Location: c.locOf(f.Value)})
		}
	}
	for _, f := range info.Fields {
		if !seen[f.Name] {
			c.report(&Error{Kind: NotFound, NameKind: "field initializer", Name: c.prog.Interner.MustResolve(f.Name), Location: c.locOf(ref)})
		}
	}

	args := structTypeArgs(n.Struct, subs, c.ctx)
	return ast.TStruct{Name: n.Struct, TypeArgs: args}
}

// checkIndex implements Array/Dict/Struct(__getitem__) index typing. An
// Array index may be of any integer type and its sign is not checked
// here; a negative Int64 index wraps at run time (SPEC_FULL.md §4.4).
func (c *Checker) checkIndex(ref ast.ExprRef, n ast.Index) ast.Type {
	objType := c.checkExpr(n.Object)
	switch ot := objType.(type) {
	case ast.TArray:
		idxType := c.checkExpr(n.Idx)
		if !isIntegerType(idxType) {
			c.report(&Error{Kind: TypeMismatch, Expected: ast.TUInt64{}, Found: idxType, Location: c.locOf(n.Idx)})
		}
		return ot.Elem
	case ast.TDict:
		idxType := c.checkExprHinted(n.Idx, ot.Key)
		if !ast.IsEquivalent(idxType, ot.Key) {
			c.report(&Error{Kind: TypeMismatch, Expected: ot.Key, Found: idxType, Location: c.locOf(n.Idx)})
		}
		return ot.Value
	case ast.TStruct:
		return c.checkProtocolMethod(ref, ot, ast.BuiltinGetItem, []ast.ExprRef{n.Idx})
	default:
		c.report(&Error{Kind: UnsupportedOperation, Message: "indexing requires an array, dict, or struct with __getitem__", Location: c.locOf(ref)})
		c.checkExpr(n.Idx)
		return ast.TUnknown{}
	}
}

func (c *Checker) checkSlice(ref ast.ExprRef, n ast.Slice) ast.Type {
	objType := c.checkExpr(n.Object)
	c.checkSliceBounds(n.Info)
	switch ot := objType.(type) {
	case ast.TArray:
		return ast.TArray{Elem: ot.Elem, Length: -1}
	case ast.TStruct:
		args := []ast.ExprRef{}
		if n.Info.Low != ast.NoExpr {
			args = append(args, n.Info.Low)
		}
		if n.Info.High != ast.NoExpr {
			args = append(args, n.Info.High)
		}
		return c.checkProtocolMethod(ref, ot, ast.BuiltinGetSlice, args)
	default:
		c.report(&Error{Kind: UnsupportedOperation, Message: "slicing requires an array or struct with __getslice__", Location: c.locOf(ref)})
		return ast.TUnknown{}
	}
}

func (c *Checker) checkSliceBounds(info ast.SliceInfo) {
	if info.Low != ast.NoExpr {
		c.checkExprHinted(info.Low, ast.TUInt64{})
	}
	if info.High != ast.NoExpr {
		c.checkExprHinted(info.High, ast.TUInt64{})
	}
}

func (c *Checker) checkSliceAssign(ref ast.ExprRef, n ast.SliceAssign) ast.Type {
	objType := c.checkExpr(n.Object)
	c.checkSliceBounds(n.Info)
	arr, ok := objType.(ast.TArray)
	if !ok {
		c.report(&Error{Kind: UnsupportedOperation, Message: "slice assignment requires an array", Location: c.locOf(ref)})
		c.checkExpr(n.Value)
		return ast.TUnit{}
	}
	want := ast.TArray{Elem: arr.Elem, Length: -1}
	got := c.checkExprHinted(n.Value, want)
	if !ast.IsEquivalent(want, got) {
		c.report(&Error{Kind: TypeMismatch, Expected: want, Found: got, Location: c.locOf(n.Value)})
	}
	return ast.TUnit{}
}

// checkProtocolMethod dispatches a __getitem__/__setitem__/__getslice__
// call through ordinary method resolution (spec.md §4.4's protocol
// dispatch, implemented here as "just another method call").
func (c *Checker) checkProtocolMethod(ref ast.ExprRef, structType ast.TStruct, which ast.BuiltinMethod, args []ast.ExprRef) ast.Type {
	name := c.intern(which.String())
	m, ok := c.ctx.LookupMethod(structType.Name, name)
	if !ok {
		c.report(&Error{Kind: NotFound, NameKind: "method", Name: which.String(), Location: c.locOf(ref)})
		for _, a := range args {
			c.checkExpr(a)
		}
		return ast.TUnknown{}
	}
	for i, a := range args {
		if i < len(m.Params) {
			c.checkExprHinted(a, m.Params[i].Type)
		} else {
			c.checkExpr(a)
		}
	}
	info := c.ctx.Structs[structType.Name]
	var generics []intern.Symbol
	if info != nil {
		generics = info.GenericParams
	}
	subs := genericSubsFromTypeArgs(generics, structType.TypeArgs)
	return c.ctx.ResolveSelf(ast.SubstituteGenerics(m.ReturnType, subs), structType.TypeArgs)
}
