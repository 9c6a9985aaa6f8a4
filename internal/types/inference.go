package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/intern"
)

// maxInferenceDepth is the recursion-depth guard for the type checker
// (spec.md §5, suggested 50).
const maxInferenceDepth = 50

// Instantiation is one recorded (generic item, substitution) pair, kept
// for a later monomorphization pass; the checker itself never
// materializes a specialization (spec.md §9 "deferred monomorphization").
type Instantiation struct {
	Item string // the generic function's or associated function's own name, not qualified by its struct
	Subs map[intern.Symbol]ast.Type
}

// InferenceState is a direct port of the Rust original's
// TypeInferenceState: a type-hint stack, the generic-substitution stack
// (innermost-first lookup), the per-expression type cache
// (TypeCache/optimization.rs), pending instantiations deduplicated by a
// canonical signature string, and a recursion depth counter.
type InferenceState struct {
	hints []ast.Type

	genericScopes []map[intern.Symbol]ast.Type

	exprTypes map[ast.ExprRef]ast.Type

	pending    []Instantiation
	seenSigs   map[string]bool

	depth int
}

func NewInferenceState() *InferenceState {
	return &InferenceState{
		exprTypes: make(map[ast.ExprRef]ast.Type),
		seenSigs:  make(map[string]bool),
	}
}

func (s *InferenceState) pushHint(t ast.Type) { s.hints = append(s.hints, t) }
func (s *InferenceState) popHint()             { s.hints = s.hints[:len(s.hints)-1] }
func (s *InferenceState) currentHint() (ast.Type, bool) {
	if len(s.hints) == 0 {
		return nil, false
	}
	return s.hints[len(s.hints)-1], true
}

// PushGenericScope pushes a fresh symbol→Type substitution frame, used on
// entering a generic function/struct/impl body.
func (s *InferenceState) PushGenericScope(subs map[intern.Symbol]ast.Type) {
	s.genericScopes = append(s.genericScopes, subs)
}

func (s *InferenceState) PopGenericScope() {
	s.genericScopes = s.genericScopes[:len(s.genericScopes)-1]
}

// LookupGenericType walks the generic-substitution stack innermost-first,
// returning the first binding found for param.
func (s *InferenceState) LookupGenericType(param intern.Symbol) (ast.Type, bool) {
	for i := len(s.genericScopes) - 1; i >= 0; i-- {
		if t, ok := s.genericScopes[i][param]; ok {
			return t, true
		}
	}
	return nil, false
}

// ResolveGenerics rewrites every TGeneric in t using the current
// substitution stack (innermost-first), leaving unmapped generics as-is.
func (s *InferenceState) ResolveGenerics(t ast.Type) ast.Type {
	switch v := t.(type) {
	case ast.TGeneric:
		if sub, ok := s.LookupGenericType(v.Param); ok {
			return sub
		}
		return t
	case ast.TStruct:
		args := make([]ast.Type, len(v.TypeArgs))
		for i, a := range v.TypeArgs {
			args[i] = s.ResolveGenerics(a)
		}
		return ast.TStruct{Name: v.Name, TypeArgs: args}
	case ast.TArray:
		return ast.TArray{Elem: s.ResolveGenerics(v.Elem), Length: v.Length}
	case ast.TDict:
		return ast.TDict{Key: s.ResolveGenerics(v.Key), Value: s.ResolveGenerics(v.Value)}
	case ast.TTuple:
		elems := make([]ast.Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = s.ResolveGenerics(e)
		}
		return ast.TTuple{Elems: elems}
	default:
		return t
	}
}

func (s *InferenceState) SetType(ref ast.ExprRef, t ast.Type) {
	s.exprTypes[ref] = t
}

// TypeOf consults the expression-type cache populated during checking,
// per spec.md §4.3's contract that every ExprRef has an entry on success.
func (s *InferenceState) TypeOf(ref ast.ExprRef) (ast.Type, bool) {
	t, ok := s.exprTypes[ref]
	return t, ok
}

// RecordInstantiation records a (item, substitution) pair, deduplicated
// by a canonical signature string built from sorted substitution keys —
// ported from create_instantiation_signature in the Rust original.
func (s *InferenceState) RecordInstantiation(item string, subs map[intern.Symbol]ast.Type) {
	sig := instantiationSignature(item, subs)
	if s.seenSigs[sig] {
		return
	}
	s.seenSigs[sig] = true
	s.pending = append(s.pending, Instantiation{Item: item, Subs: subs})
}

func (s *InferenceState) PendingInstantiations() []Instantiation {
	return s.pending
}

func instantiationSignature(item string, subs map[intern.Symbol]ast.Type) string {
	keys := make([]int, 0, len(subs))
	for k := range subs {
		keys = append(keys, int(k))
	}
	sort.Ints(keys)
	var sb strings.Builder
	sb.WriteString(item)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("|%d=%s", k, subs[intern.Symbol(k)]))
	}
	return sb.String()
}

func (s *InferenceState) enter() error {
	s.depth++
	if s.depth > maxInferenceDepth {
		return &Error{Kind: RecursionLimitExceeded}
	}
	return nil
}

func (s *InferenceState) leave() { s.depth-- }
