package lexer

import (
	"testing"

	"github.com/suma/toylang/internal/intern"
	"github.com/suma/toylang/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestScanPunctuationAndOperators(t *testing.T) {
	in := intern.New()
	l := New([]byte("-> :: .. << >> == != <= >= && ||"), in)
	toks, errs := l.Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []token.Kind{
		token.Arrow, token.DoubleColon, token.DotDot, token.Shl, token.Shr,
		token.EqualEqual, token.NotEqual, token.LessEqual, token.GreaterEqual,
		token.AndAnd, token.OrOr, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanNumericLiterals(t *testing.T) {
	in := intern.New()
	l := New([]byte("123 123i64 123u64 0xFF 0xFFu64"), in)
	toks, errs := l.Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	wantKinds := []token.Kind{token.IntegerLit, token.Int64Lit, token.UInt64Lit, token.IntegerLit, token.UInt64Lit, token.EOF}
	for i, w := range wantKinds {
		if toks[i].Kind != w {
			t.Fatalf("token %d: got %v, want %v", i, toks[i].Kind, w)
		}
	}
	if toks[1].Literal != "123" {
		t.Fatalf("Int64Lit literal = %q, want \"123\"", toks[1].Literal)
	}
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	in := intern.New()
	l := New([]byte("fn struct impl val var myVar"), in)
	toks, errs := l.Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []token.Kind{token.Fn, token.Struct, token.Impl, token.Val, token.Var, token.Identifier, token.EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanStringLiteralEscapes(t *testing.T) {
	in := intern.New()
	l := New([]byte(`"hello\nworld"`), in)
	toks, errs := l.Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if toks[0].Kind != token.StringLit {
		t.Fatalf("got %v, want StringLit", toks[0].Kind)
	}
	if toks[0].Literal != "hello\nworld" {
		t.Fatalf("literal = %q, want escaped newline", toks[0].Literal)
	}
}

func TestScanUnterminatedStringReportsError(t *testing.T) {
	in := intern.New()
	l := New([]byte(`"oops`), in)
	_, errs := l.Scan()
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %d", len(errs))
	}
}

func TestScanLineAndBlockComments(t *testing.T) {
	in := intern.New()
	src := "# a line comment\n/* a\nblock comment */ fn"
	l := New([]byte(src), in)
	toks, errs := l.Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	// The line comment's trailing newline still emits a NewLine token;
	// the block comment spans two lines and is fully skipped.
	var sawFn bool
	for _, tk := range toks {
		if tk.Kind == token.Fn {
			sawFn = true
		}
	}
	if !sawFn {
		t.Fatalf("expected to find `fn` token after comments, got %v", kinds(toks))
	}
}

func TestScanUnterminatedBlockComment(t *testing.T) {
	in := intern.New()
	l := New([]byte("/* never closed"), in)
	_, errs := l.Scan()
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %d", len(errs))
	}
}
