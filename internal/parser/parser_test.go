package parser

import (
	"testing"
	"time"

	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/intern"
	"github.com/suma/toylang/internal/lexer"
)

func timeoutAfter() <-chan time.Time {
	return time.After(2 * time.Second)
}

func parseSrc(t *testing.T, src string) (*ast.Program, []*Error) {
	t.Helper()
	in := intern.New()
	toks, lexErrs := lexer.New([]byte(src), in).Scan()
	if len(lexErrs) != 0 {
		t.Fatalf("lexer errors: %v", lexErrs)
	}
	return Parse(toks, in)
}

func TestParseSimpleMain(t *testing.T) {
	prog, errs := parseSrc(t, `fn main() -> u64 { val a = 1u64; val b = 2u64; a + b }`)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if len(prog.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(prog.Functions))
	}
	fn := prog.Functions[0]
	block, ok := prog.Exprs.Get(fn.Body).(ast.Block)
	if !ok {
		t.Fatalf("function body is not a Block")
	}
	if len(block.Stmts) != 3 {
		t.Fatalf("got %d statements in main's body, want 3", len(block.Stmts))
	}
}

func TestParseStructAndImpl(t *testing.T) {
	src := `
struct P { x: u64, y: u64 }
impl P {
	fn sum(self: Self) -> u64 { self.x + self.y }
}
fn main() -> u64 { val p = P{x:10u64, y:15u64}; p.sum() }
`
	prog, errs := parseSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if len(prog.TopLevel) != 2 {
		t.Fatalf("got %d top-level decls, want 2 (struct, impl)", len(prog.TopLevel))
	}
	if _, ok := prog.Stmts.Get(prog.TopLevel[0]).(ast.StructDecl); !ok {
		t.Fatalf("first top-level decl is not a StructDecl")
	}
	impl, ok := prog.Stmts.Get(prog.TopLevel[1]).(ast.ImplBlock)
	if !ok {
		t.Fatalf("second top-level decl is not an ImplBlock")
	}
	if len(impl.Methods) != 1 || !impl.Methods[0].TakesSelf {
		t.Fatalf("expected one self-taking method, got %+v", impl.Methods)
	}
}

func TestParseGenericStructAndAssociatedFn(t *testing.T) {
	src := `
struct Box<T>{v:T}
impl<T> Box<T>{
	fn of(v:T)->Self{ Box{v:v} }
	fn get(self:Self)->T{self.v}
}
fn main()->u64{ Box::of(42u64).get() }
`
	prog, errs := parseSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	sd := prog.Stmts.Get(prog.TopLevel[0]).(ast.StructDecl)
	if len(sd.GenericParams) != 1 {
		t.Fatalf("expected one generic param on Box, got %d", len(sd.GenericParams))
	}
	impl := prog.Stmts.Get(prog.TopLevel[1]).(ast.ImplBlock)
	if len(impl.GenericParams) != 1 {
		t.Fatalf("expected one generic param on impl, got %d", len(impl.GenericParams))
	}
	var assocFound bool
	for _, m := range impl.Methods {
		if !m.TakesSelf {
			assocFound = true
		}
	}
	if !assocFound {
		t.Fatalf("expected an associated (non-self) function among Box's methods")
	}
}

// P3: recovery always makes forward progress. A malformed top-level item
// must not loop forever; the parser must still reach EOF.
func TestParserRecoveryMakesProgress(t *testing.T) {
	in := intern.New()
	toks, _ := lexer.New([]byte("fn )))) garbage tokens here\nfn main() -> u64 { 1u64 }"), in).Scan()

	done := make(chan struct{})
	var prog *ast.Program
	var errs []*Error
	go func() {
		prog, errs = Parse(toks, in)
		close(done)
	}()
	select {
	case <-done:
	case <-timeoutAfter():
		t.Fatalf("Parse did not terminate on malformed input (possible infinite loop)")
	}
	if len(errs) == 0 {
		t.Fatalf("expected at least one recorded error for malformed input")
	}
	if prog == nil {
		t.Fatalf("expected a partial Program even on error")
	}
}

func TestParseStrictStopsAtFirstError(t *testing.T) {
	in := intern.New()
	toks, _ := lexer.New([]byte("fn main() -> u64 { val = }"), in).Scan()
	_, err := ParseStrict(toks, in)
	if err == nil {
		t.Fatalf("expected an error in strict mode")
	}
}
