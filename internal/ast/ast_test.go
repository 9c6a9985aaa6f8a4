package ast

import (
	"testing"

	"github.com/suma/toylang/internal/intern"
)

// P2: an ExprRef issued by ExprPool.Add remains valid and resolves to the
// same node for the life of the Program, even after further inserts.
func TestExprPoolStability(t *testing.T) {
	pool := NewExprPool()

	ref1 := pool.Add(Int64Lit{Value: 1})
	ref2 := pool.Add(Int64Lit{Value: 2})
	ref3 := pool.Add(Int64Lit{Value: 3})

	if got := pool.Get(ref1).(Int64Lit).Value; got != 1 {
		t.Fatalf("ref1 resolved to %d, want 1", got)
	}

	// Insert many more nodes; earlier refs must still resolve correctly.
	for i := 0; i < 100; i++ {
		pool.Add(NumberLit{Text: "0"})
	}

	if got := pool.Get(ref1).(Int64Lit).Value; got != 1 {
		t.Fatalf("ref1 resolved to %d after further inserts, want 1", got)
	}
	if got := pool.Get(ref2).(Int64Lit).Value; got != 2 {
		t.Fatalf("ref2 resolved to %d after further inserts, want 2", got)
	}
	if got := pool.Get(ref3).(Int64Lit).Value; got != 3 {
		t.Fatalf("ref3 resolved to %d after further inserts, want 3", got)
	}
}

func TestStmtPoolStability(t *testing.T) {
	pool := NewStmtPool()
	ref := pool.Add(Break{})
	for i := 0; i < 10; i++ {
		pool.Add(Continue{})
	}
	if _, ok := pool.Get(ref).(Break); !ok {
		t.Fatalf("stmt ref did not resolve back to Break")
	}
}

func TestLocationPoolParallelToExprPool(t *testing.T) {
	exprs := NewExprPool()
	locs := NewLocationPool()

	ref := exprs.Add(BoolLit{Value: true})
	locRef := locs.Add(Location{Line: 3, Column: 5})
	if ref != locRef {
		t.Fatalf("location pool index space diverged from expr pool: %v != %v", ref, locRef)
	}
	if got := locs.Get(ref); got.Line != 3 || got.Column != 5 {
		t.Fatalf("Get(%v) = %v, want {3 5 0}", ref, got)
	}
}

func TestIsEquivalentIdentifierAndStruct(t *testing.T) {
	s := intern.Symbol(7)
	id := TIdentifier{Name: s}
	st := TStruct{Name: s, TypeArgs: []Type{TInt64{}}}
	if !IsEquivalent(id, st) {
		t.Fatalf("TIdentifier(s) should be equivalent to TStruct(s, _)")
	}
	if !IsEquivalent(st, id) {
		t.Fatalf("equivalence should be symmetric")
	}
}

func TestIsEquivalentUnknownAndGenericUniversal(t *testing.T) {
	if !IsEquivalent(TUnknown{}, TBool{}) {
		t.Fatalf("Unknown should be universally compatible")
	}
	if !IsEquivalent(TInt64{}, TGeneric{Param: 1}) {
		t.Fatalf("Generic should be universally compatible")
	}
}

func TestIsEquivalentStructuralMismatch(t *testing.T) {
	if IsEquivalent(TInt64{}, TBool{}) {
		t.Fatalf("Int64 and Bool must not be equivalent")
	}
	if IsEquivalent(TArray{Elem: TInt64{}, Length: 2}, TArray{Elem: TInt64{}, Length: 3}) {
		t.Fatalf("arrays of different length must not be equivalent")
	}
}

func TestSubstituteGenerics(t *testing.T) {
	param := intern.Symbol(1)
	subs := map[intern.Symbol]Type{param: TUInt64{}}

	boxed := TStruct{Name: intern.Symbol(2), TypeArgs: []Type{TGeneric{Param: param}}}
	got := SubstituteGenerics(boxed, subs).(TStruct)
	if _, ok := got.TypeArgs[0].(TUInt64); !ok {
		t.Fatalf("substitution did not replace generic param: got %v", got.TypeArgs[0])
	}

	arr := TArray{Elem: TGeneric{Param: param}, Length: 4}
	gotArr := SubstituteGenerics(arr, subs).(TArray)
	if _, ok := gotArr.Elem.(TUInt64); !ok {
		t.Fatalf("substitution did not reach into array element type")
	}
}
