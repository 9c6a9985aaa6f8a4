package module

import (
	"strings"

	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/intern"
)

// Load resolves every import reachable from prog, transitively, and
// returns the resulting Programs in resolution order (dependencies
// before dependents) so a caller can feed each one to
// types.Context.RegisterModule in turn before type-checking prog
// itself. A module imported by more than one other module is resolved
// once and returned once, per Resolver's cache. A program that names
// itself as a dependency, directly (`package p; import p`) or through
// a cycle of imports, is rejected with ErrSelfImport.
func Load(prog *ast.Program, r *Resolver) ([]*ast.Program, error) {
	var out []*ast.Program
	seen := make(map[*ast.Program]bool)
	visiting := make(map[string]bool)

	var walk func(p *ast.Program) error
	walk = func(p *ast.Program) error {
		ownPath := joinSymbols(r, p.Package)
		for _, imp := range p.Imports {
			path := joinSymbols(r, imp.Path)
			if path == ownPath {
				return &ErrSelfImport{Path: path}
			}
			if visiting[path] {
				return &ErrSelfImport{Path: path}
			}

			segments := make([]string, len(imp.Path))
			for i, sym := range imp.Path {
				segments[i] = r.in.MustResolve(sym)
			}
			dep, err := r.Resolve(segments)
			if err != nil {
				return err
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true

			visiting[path] = true
			err = walk(dep)
			delete(visiting, path)
			if err != nil {
				return err
			}
			out = append(out, dep)
		}
		return nil
	}

	if err := walk(prog); err != nil {
		return nil, err
	}
	return out, nil
}

func joinSymbols(r *Resolver, path []intern.Symbol) string {
	parts := make([]string, len(path))
	for i, s := range path {
		parts[i] = r.in.MustResolve(s)
	}
	return strings.Join(parts, ".")
}
