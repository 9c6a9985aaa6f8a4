package ast

import (
	"strings"

	"github.com/suma/toylang/internal/intern"
)

// String renders a summary of prog's top-level declarations — function
// and struct/impl signatures — the arena-backed counterpart of the
// teacher's Program.String() (ast.go), which concatenates each
// top-level Stmt's own String(). TL's arena-indexed nodes have no
// parent pointer to walk back from, so this renders signatures rather
// than re-deriving full expression source text.
func (p *Program) String() string {
	var sb strings.Builder
	if p.HasPackage {
		sb.WriteString("package " + p.pathString(p.Package) + "\n")
	}
	for _, imp := range p.Imports {
		sb.WriteString("import " + p.pathString(imp.Path) + "\n")
	}
	for _, fn := range p.Functions {
		sb.WriteString(p.functionSignature(fn) + "\n")
	}
	for _, ref := range p.TopLevel {
		switch decl := p.Stmts.Get(ref).(type) {
		case StructDecl:
			sb.WriteString(p.structSignature(decl) + "\n")
		case ImplBlock:
			sb.WriteString(p.implSignature(decl) + "\n")
		}
	}
	return sb.String()
}

func (p *Program) pathString(path []intern.Symbol) string {
	parts := make([]string, len(path))
	for i, s := range path {
		parts[i] = p.Interner.MustResolve(s)
	}
	return strings.Join(parts, ".")
}

func (p *Program) functionSignature(fn *Function) string {
	var sb strings.Builder
	if fn.Visibility == Public {
		sb.WriteString("pub ")
	}
	sb.WriteString("fn " + p.Interner.MustResolve(fn.Name))
	if len(fn.GenericParams) > 0 {
		sb.WriteString("<" + p.symbolList(fn.GenericParams) + ">")
	}
	sb.WriteString("(" + p.paramList(fn.Params) + ") -> " + fn.ReturnType.String())
	return sb.String()
}

func (p *Program) structSignature(decl StructDecl) string {
	var sb strings.Builder
	if decl.Visibility == Public {
		sb.WriteString("pub ")
	}
	sb.WriteString("struct " + p.Interner.MustResolve(decl.Name))
	if len(decl.GenericParams) > 0 {
		sb.WriteString("<" + p.symbolList(decl.GenericParams) + ">")
	}
	sb.WriteString(" { ")
	fields := make([]string, len(decl.Fields))
	for i, f := range decl.Fields {
		fields[i] = p.Interner.MustResolve(f.Name) + ": " + f.Type.String()
	}
	sb.WriteString(strings.Join(fields, ", "))
	sb.WriteString(" }")
	return sb.String()
}

func (p *Program) implSignature(decl ImplBlock) string {
	var sb strings.Builder
	sb.WriteString("impl")
	if len(decl.GenericParams) > 0 {
		sb.WriteString("<" + p.symbolList(decl.GenericParams) + ">")
	}
	sb.WriteString(" " + p.Interner.MustResolve(decl.Target) + " {\n")
	for _, m := range decl.Methods {
		sb.WriteString("\t" + p.functionSignature(&m.Function) + "\n")
	}
	sb.WriteString("}")
	return sb.String()
}

func (p *Program) paramList(params []Param) string {
	parts := make([]string, len(params))
	for i, prm := range params {
		parts[i] = p.Interner.MustResolve(prm.Name) + ": " + prm.Type.String()
	}
	return strings.Join(parts, ", ")
}

func (p *Program) symbolList(syms []intern.Symbol) string {
	parts := make([]string, len(syms))
	for i, s := range syms {
		parts[i] = p.Interner.MustResolve(s)
	}
	return strings.Join(parts, ", ")
}
