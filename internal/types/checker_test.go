package types

import (
	"testing"

	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/intern"
	"github.com/suma/toylang/internal/lexer"
	"github.com/suma/toylang/internal/parser"
)

func checkSrc(t *testing.T, src string) (*ast.Program, *Checker, []*Error) {
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
	ctx := NewContext(prog)
	c := NewChecker(prog, ctx)
	errs := c.Check()
	return prog, c, errs
}

func TestCheckSimpleArithmetic(t *testing.T) {
	_, _, errs := checkSrc(t, `fn main() -> u64 { val a = 1u64; val b = 2u64; a + b }`)
	if len(errs) != 0 {
		t.Fatalf("unexpected type errors: %v", errs)
	}
}

// P4: a positive literal <= i64::MAX with a declared type annotation
// yields exactly that annotated type.
func TestNumberLiteralSoundnessWithHint(t *testing.T) {
	prog, c, errs := checkSrc(t, `fn main() -> i64 { val a: i64 = 42 ; a }`)
	if len(errs) != 0 {
		t.Fatalf("unexpected type errors: %v", errs)
	}
	fn := prog.Functions[0]
	block := prog.Exprs.Get(fn.Body).(ast.Block)
	valDecl := prog.Stmts.Get(block.Stmts[0]).(ast.ValDecl)
	got, ok := c.TypeOf(valDecl.Init)
	if !ok {
		t.Fatalf("no recorded type for the literal")
	}
	if _, isI64 := got.(ast.TInt64); !isI64 {
		t.Fatalf("literal resolved to %v, want TInt64", got)
	}
}

func TestImmutableAssignmentRejected(t *testing.T) {
	_, _, errs := checkSrc(t, `fn main() -> u64 { val a = 1u64; a = 2u64; a }`)
	var found bool
	for _, e := range errs {
		if e.Kind == ImmutableAssignment {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an ImmutableAssignment error, got %v", errs)
	}
}

func TestMutableReassignmentAccepted(t *testing.T) {
	_, _, errs := checkSrc(t, `fn main() -> u64 { var a = 1u64; a = 2u64; a }`)
	if len(errs) != 0 {
		t.Fatalf("unexpected type errors: %v", errs)
	}
}

func TestStructMethodCall(t *testing.T) {
	src := `
struct P { x: u64, y: u64 }
impl P {
	fn sum(self: Self) -> u64 { self.x + self.y }
}
fn main() -> u64 { val p = P{x:10u64, y:15u64}; p.sum() }
`
	_, _, errs := checkSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected type errors: %v", errs)
	}
}

func TestGenericStructAssociatedFunction(t *testing.T) {
	src := `
struct Box<T>{v:T}
impl<T> Box<T>{
	fn of(v:T)->Self{ Box{v:v} }
	fn get(self:Self)->T{self.v}
}
fn main()->u64{ Box::of(42u64).get() }
`
	_, c, errs := checkSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected type errors: %v", errs)
	}
	if len(c.PendingInstantiations()) == 0 {
		t.Fatalf("expected at least one recorded generic instantiation")
	}
}

func TestArityMismatchReported(t *testing.T) {
	src := `fn add(a: u64, b: u64) -> u64 { a + b } fn main() -> u64 { add(1u64) }`
	_, _, errs := checkSrc(t, src)
	var found bool
	for _, e := range errs {
		if e.Kind == ArityMismatch {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an ArityMismatch error, got %v", errs)
	}
}

func TestUndefinedVariableReported(t *testing.T) {
	_, _, errs := checkSrc(t, `fn main() -> u64 { missing }`)
	var found bool
	for _, e := range errs {
		if e.Kind == NotFound {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a NotFound error, got %v", errs)
	}
}
