package eval

import (
	"errors"
	"testing"

	"github.com/suma/toylang/internal/intern"
	"github.com/suma/toylang/internal/lexer"
	"github.com/suma/toylang/internal/object"
	"github.com/suma/toylang/internal/parser"
	"github.com/suma/toylang/internal/types"
)

// runSrc lexes, parses, type-checks, and evaluates src, mirroring the
// checker package's checkSrc test helper — run() is only ever called on
// a program that already passed Check() (spec.md §4.4 Contract).
func runSrc(t *testing.T, src string) (object.Object, error) {
	t.Helper()
	in := intern.New()
	toks, lexErrs := lexer.New([]byte(src), in).Scan()
	if len(lexErrs) != 0 {
		t.Fatalf("lexer errors: %v", lexErrs)
	}
	prog, parseErrs := parser.Parse(toks, in)
	if len(parseErrs) != 0 {
		t.Fatalf("parse errors: %v", parseErrs)
	}
	ctx := types.NewContext(prog)
	checker := types.NewChecker(prog, ctx)
	if errs := checker.Check(); len(errs) != 0 {
		t.Fatalf("type errors: %v", errs)
	}
	return New(prog, ctx, checker).Run()
}

func TestArithmeticUInt64(t *testing.T) {
	v, err := runSrc(t, `fn main() -> u64 { val a = 1u64; val b = 2u64; a + b }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := v.(object.UInt64); !ok || got.Value != 3 {
		t.Fatalf("got %v, want UInt64(3)", v)
	}
}

func TestArithmeticInt64WithNegative(t *testing.T) {
	v, err := runSrc(t, `fn main() -> i64 { val a: i64 = 42i64; val b: i64 = -10i64; a + b }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := v.(object.Int64); !ok || got.Value != 32 {
		t.Fatalf("got %v, want Int64(32)", v)
	}
}

func TestFibonacciRecursion(t *testing.T) {
	src := `fn fib(n: u64) -> u64 { if n <= 1u64 { n } else { fib(n-1u64) + fib(n-2u64) } } fn main() -> u64 { fib(10u64) }`
	v, err := runSrc(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := v.(object.UInt64); !ok || got.Value != 55 {
		t.Fatalf("got %v, want UInt64(55)", v)
	}
}

func TestForRangeWithContinue(t *testing.T) {
	src := `fn main() -> u64 { var s = 0u64; for i in 1u64 to 5u64 { if i == 3u64 { continue } s = s + i }; s }`
	v, err := runSrc(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := v.(object.UInt64); !ok || got.Value != 7 {
		t.Fatalf("got %v, want UInt64(7)", v)
	}
}

func TestStructMethodDispatch(t *testing.T) {
	src := `struct P { x: u64, y: u64 } impl P { fn sum(self: Self) -> u64 { self.x + self.y } } fn main() -> u64 { val p = P{x:10u64, y:15u64}; p.sum() }`
	v, err := runSrc(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := v.(object.UInt64); !ok || got.Value != 25 {
		t.Fatalf("got %v, want UInt64(25)", v)
	}
}

func TestGenericStructAssociatedFunction(t *testing.T) {
	src := `struct Box<T>{v:T} impl<T> Box<T>{ fn of(v:T)->Self{ Box{v:v} } fn get(self:Self)->T{self.v} } fn main()->u64{ Box::of(42u64).get() }`
	v, err := runSrc(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := v.(object.UInt64); !ok || got.Value != 42 {
		t.Fatalf("got %v, want UInt64(42)", v)
	}
}

func TestIndexOutOfBoundsRuntimeError(t *testing.T) {
	src := `fn main()->u64{ val a:[u64;2]=[1u64,2u64]; a[5u64] }`
	_, err := runSrc(t, src)
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected a *RuntimeError, got %v", err)
	}
	if rerr.Kind != IndexOutOfBounds || rerr.Index != 5 || rerr.Size != 2 {
		t.Fatalf("got %+v, want IndexOutOfBounds{index:5,size:2}", rerr)
	}
}

// P5's checker-level half (ImmutableAssignment) is covered in
// internal/types; this test covers the related sharing rule at evaluator
// level — an element assigned through a `var` binding is observable
// through a `val` alias of the same array handle.
func TestVarElementAssignmentAndArrayAliasing(t *testing.T) {
	src := `fn main() -> u64 {
		var a = [1u64, 2u64, 3u64];
		val b = a;
		a[0u64] = 99u64;
		b[0u64]
	}`
	v, err := runSrc(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := v.(object.UInt64); !ok || got.Value != 99 {
		t.Fatalf("got %v, want UInt64(99) (array aliasing through shared Handle)", v)
	}
}
