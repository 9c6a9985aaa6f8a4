package intern

import "testing"

func TestInternIdempotent(t *testing.T) {
	in := New()
	a := in.Intern("hello")
	b := in.Intern("hello")
	if a != b {
		t.Fatalf("interning the same text twice produced different symbols: %v != %v", a, b)
	}
}

// P1: intern(s1) == intern(s2) iff s1 == s2.
func TestInternDeterminism(t *testing.T) {
	in := New()
	texts := []string{"foo", "bar", "foo", "baz", "bar", "qux"}
	symbols := make([]Symbol, len(texts))
	for i, text := range texts {
		symbols[i] = in.Intern(text)
	}

	for i := range texts {
		for j := range texts {
			want := texts[i] == texts[j]
			got := symbols[i] == symbols[j]
			if want != got {
				t.Fatalf("texts[%d]=%q texts[%d]=%q: equal=%v but symbols equal=%v", i, texts[i], j, texts[j], want, got)
			}
		}
	}
}

func TestResolveRoundTrip(t *testing.T) {
	in := New()
	sym := in.Intern("toylang")
	text, ok := in.Resolve(sym)
	if !ok || text != "toylang" {
		t.Fatalf("Resolve(%v) = (%q, %v), want (\"toylang\", true)", sym, text, ok)
	}
}

func TestResolveUnknownSymbol(t *testing.T) {
	in := New()
	if _, ok := in.Resolve(Symbol(42)); ok {
		t.Fatalf("Resolve of an unknown symbol should fail")
	}
}

func TestMergeAppendsUnseenText(t *testing.T) {
	a := New()
	aFoo := a.Intern("foo")

	b := New()
	b.Intern("bar")
	bFoo := b.Intern("foo")

	translation := a.Merge(b)

	// "foo" already existed in a, so merging must not renumber it.
	if translation[bFoo] != aFoo {
		t.Fatalf("merge renumbered an existing symbol: got %v, want %v", translation[bFoo], aFoo)
	}

	if _, ok := a.Resolve(translation[bFoo]); !ok {
		t.Fatalf("translated symbol does not resolve in the merged interner")
	}

	barSym := translation[Symbol(0)]
	text, ok := a.Resolve(barSym)
	if !ok || text != "bar" {
		t.Fatalf("bar was not merged correctly: got (%q, %v)", text, ok)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := New()
	a.Intern("shared")

	clone := a.Clone()
	clone.Intern("only-in-clone")

	if a.Len() != 1 {
		t.Fatalf("cloning should not mutate the original: a.Len() = %d, want 1", a.Len())
	}
	if clone.Len() != 2 {
		t.Fatalf("clone.Len() = %d, want 2", clone.Len())
	}
}
