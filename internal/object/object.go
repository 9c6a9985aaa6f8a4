// Package object defines TL's runtime tagged-union value representation.
// Grounded on the teacher's object.go (Object interface + ObjectType tag +
// Is*-helper style), generalized to TL's richer value set — the Int64/
// UInt64 split, Array/Dict/Tuple/Struct/Pointer/Null, and shared *Handle
// wrappers for composite values so aliasing/sharing semantics hold
// (spec.md §3.9).
package object

import (
	"fmt"
	"strings"
	"sync"

	"github.com/suma/toylang/internal/intern"
)

// Type tags the concrete kind of an Object.
type Type int

const (
	TypeUnit Type = iota
	TypeInt64
	TypeUInt64
	TypeBool
	TypeString
	TypeConstString
	TypeArray
	TypeDict
	TypeTuple
	TypeStruct
	TypePointer
	TypeNull
)

// Object is the tagged union every runtime value implements.
type Object interface {
	Type() Type
	String() string
}

type Unit struct{}

func (Unit) Type() Type      { return TypeUnit }
func (Unit) String() string  { return "()" }

type Int64 struct{ Value int64 }

func (Int64) Type() Type          { return TypeInt64 }
func (v Int64) String() string    { return fmt.Sprintf("%d", v.Value) }

type UInt64 struct{ Value uint64 }

func (UInt64) Type() Type       { return TypeUInt64 }
func (v UInt64) String() string { return fmt.Sprintf("%d", v.Value) }

type Bool struct{ Value bool }

func (Bool) Type() Type       { return TypeBool }
func (v Bool) String() string { return fmt.Sprintf("%t", v.Value) }

// String is an owned runtime string (result of concatenation or other
// construction, as opposed to a ConstString symbol reference).
type String struct{ Value string }

func (String) Type() Type       { return TypeString }
func (v String) String() string { return v.Value }

// ConstString is a string literal's value, kept as an interned symbol
// reference so repeated literal evaluation does not re-allocate text.
type ConstString struct {
	Symbol intern.Symbol
	Text   string
}

func (ConstString) Type() Type       { return TypeConstString }
func (v ConstString) String() string { return v.Text }

type Null struct{}

func (Null) Type() Type      { return TypeNull }
func (Null) String() string  { return "null" }

type Pointer struct{ Target *Handle }

func (Pointer) Type() Type { return TypePointer }
func (v Pointer) String() string {
	if v.Target == nil {
		return "ptr(nil)"
	}
	return "ptr(" + v.Target.Get().String() + ")"
}

// Handle is the shared, interior-mutable cell backing every composite
// value (Array/Dict/Struct/Tuple), so assignment-through-reference and
// __setitem__ semantics are observable across aliases (spec.md §3.9,
// §4.4 "Mutability and sharing"). The mutex exists for re-entrancy safety
// during a __drop__ call-out (§5), not for concurrent access — execution
// is single-threaded.
type Handle struct {
	mu    sync.Mutex
	value Object
}

func NewHandle(v Object) *Handle { return &Handle{value: v} }

func (h *Handle) Get() Object {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value
}

func (h *Handle) Set(v Object) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.value = v
}

// Array is a shared mutable fixed-size sequence.
type Array struct {
	handle *Handle
}

type arrayData struct{ elems []*Handle }

func (arrayData) Type() Type      { return TypeArray }
func (a arrayData) String() string {
	parts := make([]string, len(a.elems))
	for i, e := range a.elems {
		parts[i] = e.Get().String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// NewArray constructs a fresh shared Array wrapping elems.
func NewArray(elems []*Handle) Array {
	return Array{handle: NewHandle(arrayData{elems: elems})}
}

func (a Array) Type() Type     { return TypeArray }
func (a Array) String() string { return a.handle.Get().String() }

func (a Array) data() arrayData { return a.handle.Get().(arrayData) }

func (a Array) Len() int { return len(a.data().elems) }

func (a Array) Get(i int) (Object, bool) {
	d := a.data()
	if i < 0 || i >= len(d.elems) {
		return nil, false
	}
	return d.elems[i].Get(), true
}

func (a Array) Set(i int, v Object) bool {
	d := a.data()
	if i < 0 || i >= len(d.elems) {
		return false
	}
	d.elems[i].Set(v)
	return true
}

func (a Array) Slice(lo, hi int) Array {
	d := a.data()
	sub := make([]*Handle, hi-lo)
	copy(sub, d.elems[lo:hi])
	return NewArray(sub)
}

func (a Array) Handle() *Handle { return a.handle }

// Dict is a shared mutable mapping. Keys are stored by their String()
// rendering alongside the original key Object, since Go map keys must be
// comparable and TL key types (integers, strings) already render
// distinctly.
type Dict struct {
	handle *Handle
}

type dictEntry struct {
	key   Object
	value *Handle
}

type dictData struct {
	entries map[string]dictEntry
	order   []string
}

func (dictData) Type() Type { return TypeDict }
func (d dictData) String() string {
	parts := make([]string, 0, len(d.order))
	for _, k := range d.order {
		e := d.entries[k]
		parts = append(parts, fmt.Sprintf("%q: %s", e.key.String(), e.value.Get().String()))
	}
	return "dict{" + strings.Join(parts, ", ") + "}"
}

func NewDict() Dict {
	return Dict{handle: NewHandle(dictData{entries: make(map[string]dictEntry)})}
}

func (d Dict) Type() Type     { return TypeDict }
func (d Dict) String() string { return d.handle.Get().String() }

func (d Dict) data() dictData { return d.handle.Get().(dictData) }

func (d Dict) Get(key Object) (Object, bool) {
	e, ok := d.data().entries[key.String()]
	if !ok {
		return nil, false
	}
	return e.value.Get(), true
}

func (d Dict) Set(key, value Object) {
	data := d.data()
	k := key.String()
	if existing, ok := data.entries[k]; ok {
		existing.value.Set(value)
		return
	}
	data.entries[k] = dictEntry{key: key, value: NewHandle(value)}
	data.order = append(data.order, k)
	d.handle.Set(data)
}

func (d Dict) Len() int { return len(d.data().entries) }

func (d Dict) Handle() *Handle { return d.handle }

// Tuple is a fixed, heterogeneous sequence. Unlike Array, its arity is
// part of its static type and it is not independently resizable, but it
// is still shared by handle so passing a tuple and mutating it (e.g. via
// a contained Struct) is observable by the caller.
type Tuple struct {
	handle *Handle
}

type tupleData struct{ elems []*Handle }

func (tupleData) Type() Type { return TypeTuple }
func (t tupleData) String() string {
	parts := make([]string, len(t.elems))
	for i, e := range t.elems {
		parts[i] = e.Get().String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func NewTuple(elems []*Handle) Tuple {
	return Tuple{handle: NewHandle(tupleData{elems: elems})}
}

func (t Tuple) Type() Type     { return TypeTuple }
func (t Tuple) String() string { return t.handle.Get().String() }

func (t Tuple) Get(i int) (Object, bool) {
	d := t.handle.Get().(tupleData)
	if i < 0 || i >= len(d.elems) {
		return nil, false
	}
	return d.elems[i].Get(), true
}

func (t Tuple) Handle() *Handle { return t.handle }

// Struct is a shared mutable field map plus its declaring type symbol.
type Struct struct {
	handle *Handle
}

type structData struct {
	typeName intern.Symbol
	fields   map[intern.Symbol]*Handle
	order    []intern.Symbol
}

func (structData) Type() Type { return TypeStruct }
func (s structData) String() string {
	parts := make([]string, 0, len(s.order))
	for _, name := range s.order {
		parts = append(parts, fmt.Sprintf("%d: %s", name, s.fields[name].Get().String()))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func NewStruct(typeName intern.Symbol, order []intern.Symbol, fields map[intern.Symbol]*Handle) Struct {
	return Struct{handle: NewHandle(structData{typeName: typeName, order: order, fields: fields})}
}

func (s Struct) Type() Type     { return TypeStruct }
func (s Struct) String() string { return s.handle.Get().String() }

func (s Struct) data() structData { return s.handle.Get().(structData) }

func (s Struct) TypeName() intern.Symbol { return s.data().typeName }

func (s Struct) Field(name intern.Symbol) (Object, bool) {
	h, ok := s.data().fields[name]
	if !ok {
		return nil, false
	}
	return h.Get(), true
}

func (s Struct) SetField(name intern.Symbol, v Object) bool {
	h, ok := s.data().fields[name]
	if !ok {
		return false
	}
	h.Set(v)
	return true
}

func (s Struct) Handle() *Handle { return s.handle }

// IsTruthy mirrors the teacher's IsTruthy helper, generalized to TL's
// Bool-only condition rule (TL has no implicit truthiness for other
// types; callers that reach here with a non-Bool already have a checker
// bug, so this is a defensive fallback, not a language rule).
func IsTruthy(o Object) bool {
	if b, ok := o.(Bool); ok {
		return b.Value
	}
	return false
}
