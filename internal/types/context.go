package types

import (
	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/intern"
)

// StructInfo is the struct table's entry: fields in declaration order,
// the struct's own visibility, and its generic parameter list.
type StructInfo struct {
	Fields        []ast.StructField
	Visibility    ast.Visibility
	GenericParams []intern.Symbol
}

// FieldIndex returns the declaration-order index of name within s, or -1.
func (s *StructInfo) FieldIndex(name intern.Symbol) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// methodKey is the (struct, method) composite key of the method table.
type methodKey struct {
	Struct intern.Symbol
	Method intern.Symbol
}

// Context holds the symbol tables and module/visibility bookkeeping a
// Checker consults while walking a Program: the function table, struct
// table, method table, current module path, and (while inside an impl
// block) the current impl target plus its generic parameters. Grounded
// on the Rust original's CoreReferences plus the struct-table bookkeeping
// spread across struct_literal.rs/impl_block.rs.
type Context struct {
	Functions map[intern.Symbol]*ast.Function
	Structs   map[intern.Symbol]*StructInfo
	Methods   map[methodKey]*ast.MethodFunction

	// structModule records the declaring module path of every struct
	// registered via RegisterModule, keyed by struct name, so sameModule
	// can answer P6's visibility rule exactly instead of approximating
	// "declared in this Program" (NewContext registers the checked
	// Program; imported Programs are added by further RegisterModule
	// calls, which internal/module does not make itself).
	structModule map[intern.Symbol][]intern.Symbol

	ModulePath []intern.Symbol

	// currentImplTarget/currentImplGenerics are set while checking the
	// methods of an impl block (spec.md §4.3 "Impl blocks") and cleared
	// on exit.
	currentImplTarget   intern.Symbol
	hasImplTarget       bool
	currentImplGenerics []intern.Symbol
}

// NewContext builds an empty Context for checking prog, pre-registering
// its own functions/structs/methods — a Program never needs another
// Program's tables to check its own top-level declarations, only imported
// modules' tables merged in by the caller via RegisterModule.
func NewContext(prog *ast.Program) *Context {
	c := &Context{
		Functions:    make(map[intern.Symbol]*ast.Function),
		Structs:      make(map[intern.Symbol]*StructInfo),
		Methods:      make(map[methodKey]*ast.MethodFunction),
		structModule: make(map[intern.Symbol][]intern.Symbol),
		ModulePath:   prog.Package,
	}
	c.RegisterModule(prog)
	return c
}

// RegisterModule adds every function/struct/method declared in prog to
// the tables, used both for the program's own declarations and for
// imported modules a caller merges in (e.g. the Programs returned by
// internal/module's Load, spec.md §4.5).
func (c *Context) RegisterModule(prog *ast.Program) {
	for _, fn := range prog.Functions {
		c.Functions[fn.Name] = fn
	}
	for _, ref := range prog.TopLevel {
		switch decl := prog.Stmts.Get(ref).(type) {
		case ast.StructDecl:
			c.Structs[decl.Name] = &StructInfo{
				Fields:        decl.Fields,
				Visibility:    decl.Visibility,
				GenericParams: decl.GenericParams,
			}
			c.structModule[decl.Name] = prog.Package
		case ast.ImplBlock:
			for _, m := range decl.Methods {
				c.Methods[methodKey{Struct: decl.Target, Method: m.Name}] = m
			}
		}
	}
}

func (c *Context) pushImplTarget(target intern.Symbol, generics []intern.Symbol) (prevTarget intern.Symbol, prevHas bool, prevGenerics []intern.Symbol) {
	prevTarget, prevHas, prevGenerics = c.currentImplTarget, c.hasImplTarget, c.currentImplGenerics
	c.currentImplTarget = target
	c.hasImplTarget = true
	c.currentImplGenerics = generics
	return
}

func (c *Context) popImplTarget(prevTarget intern.Symbol, prevHas bool, prevGenerics []intern.Symbol) {
	c.currentImplTarget = prevTarget
	c.hasImplTarget = prevHas
	c.currentImplGenerics = prevGenerics
}

// ResolveSelf resolves ast.TSelf to the current impl target's struct type.
func (c *Context) ResolveSelf(t ast.Type, typeArgs []ast.Type) ast.Type {
	if _, ok := t.(ast.TSelf); ok && c.hasImplTarget {
		return ast.TStruct{Name: c.currentImplTarget, TypeArgs: typeArgs}
	}
	return t
}

// LookupMethod finds a method on structName, including associated
// functions (TakesSelf == false).
func (c *Context) LookupMethod(structName, method intern.Symbol) (*ast.MethodFunction, bool) {
	m, ok := c.Methods[methodKey{Struct: structName, Method: method}]
	return m, ok
}

// ModuleOf reports the declaring module path of structName, as recorded
// by the RegisterModule call that introduced it.
func (c *Context) ModuleOf(structName intern.Symbol) ([]intern.Symbol, bool) {
	p, ok := c.structModule[structName]
	return p, ok
}

// samePath reports whether two module paths name the same module
// (spec.md §3.1's package-path equality, compared symbol-wise rather
// than text-wise; paths from different Programs compare correctly only
// when those Programs share one Interner, as module.Resolver ensures by
// parsing every module into the session interner).
func samePath(a, b []intern.Symbol) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
