package object

import (
	"testing"

	"github.com/suma/toylang/internal/intern"
)

func TestScalarStringing(t *testing.T) {
	cases := []struct {
		o    Object
		want string
	}{
		{Int64{Value: -5}, "-5"},
		{UInt64{Value: 7}, "7"},
		{Bool{Value: true}, "true"},
		{String{Value: "hi"}, "hi"},
		{Unit{}, "()"},
		{Null{}, "null"},
	}
	for _, tc := range cases {
		if got := tc.o.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestArraySharedHandleMutation(t *testing.T) {
	a := NewArray([]*Handle{NewHandle(Int64{Value: 1}), NewHandle(Int64{Value: 2})})
	alias := a
	if !alias.Set(0, Int64{Value: 99}) {
		t.Fatalf("Set returned false")
	}
	got, ok := a.Get(0)
	if !ok {
		t.Fatalf("Get returned false")
	}
	if got.(Int64).Value != 99 {
		t.Fatalf("mutation through alias not observed: got %v", got)
	}
}

func TestArrayBoundsChecking(t *testing.T) {
	a := NewArray([]*Handle{NewHandle(Int64{Value: 1})})
	if _, ok := a.Get(5); ok {
		t.Fatalf("expected Get out of bounds to fail")
	}
	if a.Set(-1, Int64{Value: 0}) {
		t.Fatalf("expected Set out of bounds to fail")
	}
}

func TestArraySlice(t *testing.T) {
	a := NewArray([]*Handle{
		NewHandle(Int64{Value: 1}),
		NewHandle(Int64{Value: 2}),
		NewHandle(Int64{Value: 3}),
	})
	s := a.Slice(1, 3)
	if s.Len() != 2 {
		t.Fatalf("slice length = %d, want 2", s.Len())
	}
	v, _ := s.Get(0)
	if v.(Int64).Value != 2 {
		t.Fatalf("slice[0] = %v, want 2", v)
	}
}

func TestDictSetGetUpdatesInPlace(t *testing.T) {
	d := NewDict()
	d.Set(String{Value: "a"}, Int64{Value: 1})
	d.Set(String{Value: "a"}, Int64{Value: 2})
	if d.Len() != 1 {
		t.Fatalf("expected a single entry after overwrite, got %d", d.Len())
	}
	got, ok := d.Get(String{Value: "a"})
	if !ok || got.(Int64).Value != 2 {
		t.Fatalf("Get after overwrite = %v, %v", got, ok)
	}
}

func TestStructFieldAccessAndSharedMutation(t *testing.T) {
	fieldX := intern.Symbol(1)
	fieldY := intern.Symbol(2)
	fields := map[intern.Symbol]*Handle{
		fieldX: NewHandle(UInt64{Value: 10}),
		fieldY: NewHandle(UInt64{Value: 20}),
	}
	s := NewStruct(intern.Symbol(0), []intern.Symbol{fieldX, fieldY}, fields)
	alias := s
	if !alias.SetField(fieldX, UInt64{Value: 99}) {
		t.Fatalf("SetField returned false")
	}
	got, ok := s.Field(fieldX)
	if !ok || got.(UInt64).Value != 99 {
		t.Fatalf("mutation through alias not observed: %v, %v", got, ok)
	}
}

func TestIsTruthy(t *testing.T) {
	if !IsTruthy(Bool{Value: true}) {
		t.Fatalf("expected true to be truthy")
	}
	if IsTruthy(Bool{Value: false}) {
		t.Fatalf("expected false to not be truthy")
	}
	if IsTruthy(Int64{Value: 1}) {
		t.Fatalf("non-bool values are never truthy in TL")
	}
}
