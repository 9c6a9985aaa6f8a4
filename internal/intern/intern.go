// Package intern assigns small stable integer symbols to identifier and
// string-literal text, the way the teacher's lexer keeps a dense reserved-word
// table instead of comparing strings at every lookup.
package intern

// Symbol is an opaque handle into an Interner. Two symbols from the same
// Interner are equal if and only if the text they were interned from is
// equal (P1 in the specification).
type Symbol int32

// Invalid is a sentinel outside the range of symbols an Interner assigns;
// no Interner method returns it.
const Invalid Symbol = -1

// Interner assigns dense, append-only integer symbols to strings.
type Interner struct {
	bySymbol []string
	byText   map[string]Symbol
}

// New returns an empty Interner.
func New() *Interner {
	return &Interner{
		byText: make(map[string]Symbol, 64),
	}
}

// Intern returns the symbol for text, assigning a new one if text has not
// been seen before. Idempotent: interning the same text twice returns the
// same symbol.
func (in *Interner) Intern(text string) Symbol {
	if sym, ok := in.byText[text]; ok {
		return sym
	}
	sym := Symbol(len(in.bySymbol))
	in.bySymbol = append(in.bySymbol, text)
	in.byText[text] = sym
	return sym
}

// Resolve returns the text a symbol was interned from, and whether the
// symbol is known to this Interner.
func (in *Interner) Resolve(sym Symbol) (string, bool) {
	if sym < 0 || int(sym) >= len(in.bySymbol) {
		return "", false
	}
	return in.bySymbol[sym], true
}

// MustResolve is Resolve without the ok flag, for call sites that already
// know the symbol is valid (e.g. symbols minted by this same session).
func (in *Interner) MustResolve(sym Symbol) string {
	text, ok := in.Resolve(sym)
	if !ok {
		return "<invalid symbol>"
	}
	return text
}

// Len returns the number of distinct texts interned so far.
func (in *Interner) Len() int {
	return len(in.bySymbol)
}

// Clone returns an independent copy of in. Symbols from the clone keep their
// identity (same integer value resolves to the same text) but are not
// interchangeable with symbols minted later by a third Interner.
func (in *Interner) Clone() *Interner {
	out := &Interner{
		bySymbol: make([]string, len(in.bySymbol)),
		byText:   make(map[string]Symbol, len(in.byText)),
	}
	copy(out.bySymbol, in.bySymbol)
	for k, v := range in.byText {
		out.byText[k] = v
	}
	return out
}

// Merge interns every text known to other into in, in iteration order. Per
// the design notes, merging two interners is an append of unseen texts —
// never a re-numbering of the receiver's existing symbols. The returned map
// translates other's symbols into in's symbol space, for callers that need
// to rewrite references (e.g. the module resolver merging an imported
// program's interner into the session interner).
func (in *Interner) Merge(other *Interner) map[Symbol]Symbol {
	translation := make(map[Symbol]Symbol, len(other.bySymbol))
	for i, text := range other.bySymbol {
		translation[Symbol(i)] = in.Intern(text)
	}
	return translation
}
