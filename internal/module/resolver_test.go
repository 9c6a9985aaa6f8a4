package module

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/intern"
	"github.com/suma/toylang/internal/lexer"
	"github.com/suma/toylang/internal/parser"
)

// parseFixture lexes and parses src with in, failing the test on any
// lex/parse error — a minimal stand-in for a caller (cmd/tl) that
// already has a checked root Program before calling Load.
func parseFixture(t *testing.T, in *intern.Interner, src []byte) *ast.Program {
	t.Helper()
	toks, lexErrs := lexer.New(src, in).Scan()
	require.Empty(t, lexErrs)
	prog, parseErrs := parser.Parse(toks, in)
	require.Empty(t, parseErrs)
	return prog
}

func TestResolveFindsModuleAcrossSearchRoots(t *testing.T) {
	fsys := fstest.MapFS{
		"geo/shapes.t": &fstest.MapFile{Data: []byte(
			"package geo.shapes\npub fn area(w: u64, h: u64) -> u64 { w * h }\n",
		)},
	}
	in := intern.New()
	r := New(in, fsys)

	prog, err := r.Resolve([]string{"geo", "shapes"})
	require.NoError(t, err)
	require.NotNil(t, prog)
	assert.True(t, prog.HasPackage)
	assert.Len(t, prog.Functions, 1)
}

func TestResolveCachesByPath(t *testing.T) {
	fsys := fstest.MapFS{
		"a.t": &fstest.MapFile{Data: []byte("package a\npub fn f() -> u64 { 1u64 }\n")},
	}
	in := intern.New()
	r := New(in, fsys)

	first, err := r.Resolve([]string{"a"})
	require.NoError(t, err)
	second, err := r.Resolve([]string{"a"})
	require.NoError(t, err)
	assert.Same(t, first, second, "re-importing the same path must not re-parse")
}

func TestResolveNotFound(t *testing.T) {
	in := intern.New()
	r := New(in, fstest.MapFS{})

	_, err := r.Resolve([]string{"missing", "module"})
	require.Error(t, err)
	var notFound *ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestLoadRejectsDirectSelfImport(t *testing.T) {
	fsys := fstest.MapFS{
		"p.t": &fstest.MapFile{Data: []byte("package p\nimport p\npub fn f() -> u64 { 1u64 }\n")},
	}
	in := intern.New()
	src := []byte("package p\nimport p\npub fn f() -> u64 { 1u64 }\n")
	prog := parseFixture(t, in, src)
	r := New(in, fsys)

	_, err := Load(prog, r)
	require.Error(t, err)
	var selfImport *ErrSelfImport
	assert.ErrorAs(t, err, &selfImport)
}

func TestLoadRejectsImportCycle(t *testing.T) {
	in := intern.New()
	fsys := fstest.MapFS{
		"a.t": &fstest.MapFile{Data: []byte("package a\nimport b\npub fn f() -> u64 { 1u64 }\n")},
		"b.t": &fstest.MapFile{Data: []byte("package b\nimport a\npub fn g() -> u64 { 1u64 }\n")},
	}
	r := New(in, fsys)

	root := parseFixture(t, in, []byte("package root\nimport a\npub fn main() -> u64 { 1u64 }\n"))
	_, err := Load(root, r)
	require.Error(t, err)
	var selfImport *ErrSelfImport
	assert.ErrorAs(t, err, &selfImport)
}

func TestLoadResolvesTransitiveDependenciesInOrder(t *testing.T) {
	in := intern.New()
	fsys := fstest.MapFS{
		"base.t": &fstest.MapFile{Data: []byte("package base\npub fn unit() -> u64 { 1u64 }\n")},
		"mid.t":  &fstest.MapFile{Data: []byte("package mid\nimport base\npub fn two() -> u64 { 2u64 }\n")},
	}
	r := New(in, fsys)
	root := parseFixture(t, in, []byte("package root\nimport mid\npub fn main() -> u64 { 3u64 }\n"))

	deps, err := Load(root, r)
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.True(t, deps[0].HasPackage)
	assert.Equal(t, "base", in.MustResolve(deps[0].Package[0]))
	assert.Equal(t, "mid", in.MustResolve(deps[1].Package[0]))
}
