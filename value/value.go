// Package value is the in-memory JSON tree every adapter encodes to and
// decodes from.
//
// The set of variants is closed: Null, Bool, Number, Str, *Array and *Object.
// Nothing outside this package can implement Value, so a type switch over the
// six variants is always exhaustive. Trees are treated as immutable once built;
// Array.Append and Object.Set exist for construction only.
package value

import (
	"strconv"
	"unicode/utf8"
)

// Kind identifies one of the six JSON variants.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a node of the JSON tree. String renders compact JSON text.
type Value interface {
	Kind() Kind
	String() string
	appendJSON(dst []byte) []byte
}

var (
	_ Value = Null{}
	_ Value = Bool(false)
	_ Value = Number{}
	_ Value = Str("")
	_ Value = (*Array)(nil)
	_ Value = (*Object)(nil)
)

// Null is the JSON null literal. Absence is always expressed as Null, never as
// a nil Value.
type Null struct{}

func (Null) Kind() Kind                       { return KindNull }
func (Null) String() string                   { return "null" }
func (Null) appendJSON(dst []byte) []byte     { return append(dst, "null"...) }
func (b Bool) appendJSON(dst []byte) []byte   { return strconv.AppendBool(dst, bool(b)) }
func (s Str) appendJSON(dst []byte) []byte    { return AppendQuoted(dst, string(s)) }
func (n Number) appendJSON(dst []byte) []byte { return append(dst, n.Literal()...) }

// Bool is a JSON boolean.
type Bool bool

func (Bool) Kind() Kind       { return KindBool }
func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Str is a JSON string. String returns the quoted form; convert with
// string(s) for the raw text.
type Str string

func (Str) Kind() Kind       { return KindString }
func (s Str) String() string { return string(AppendQuoted(nil, string(s))) }

// Of normalizes a possibly-nil Value to Null.
func Of(v Value) Value {
	if v == nil {
		return Null{}
	}
	return v
}

// Array is an ordered sequence of values.
type Array struct {
	elems []Value
}

// NewArray returns an array holding vals in order.
func NewArray(vals ...Value) *Array {
	a := &Array{elems: make([]Value, 0, len(vals))}
	for _, v := range vals {
		a.elems = append(a.elems, Of(v))
	}
	return a
}

// NewArrayCap returns an empty array with room for n elements.
func NewArrayCap(n int) *Array {
	return &Array{elems: make([]Value, 0, n)}
}

func (*Array) Kind() Kind { return KindArray }

// Append adds v at the end. Only meant to be used while building the tree.
func (a *Array) Append(v Value) *Array {
	a.elems = append(a.elems, Of(v))
	return a
}

func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.elems)
}

// At returns the i-th element, or Null when i is out of range.
func (a *Array) At(i int) Value {
	if a == nil || i < 0 || i >= len(a.elems) {
		return Null{}
	}
	return a.elems[i]
}

// Values returns the backing elements. Callers must not modify the slice.
func (a *Array) Values() []Value {
	if a == nil {
		return nil
	}
	return a.elems
}

func (a *Array) String() string { return string(a.appendJSON(nil)) }

func (a *Array) appendJSON(dst []byte) []byte {
	dst = append(dst, '[')
	for i, e := range a.Values() {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = e.appendJSON(dst)
	}
	return append(dst, ']')
}

// Object is a string-keyed mapping that remembers insertion order.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// NewObjectCap returns an empty object with room for n members.
func NewObjectCap(n int) *Object {
	return &Object{keys: make([]string, 0, n), vals: make(map[string]Value, n)}
}

func (*Object) Kind() Kind { return KindObject }

// Set stores v under key. A duplicate key overwrites the earlier value and
// keeps its original position.
func (o *Object) Set(key string, v Value) *Object {
	if o.vals == nil {
		o.vals = make(map[string]Value)
	}
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = Of(v)
	return o
}

// Get returns the member under key, or Null when the key is missing.
// Missing and explicit null are deliberately indistinguishable here; use
// Lookup when the difference matters.
func (o *Object) Get(key string) Value {
	if v, ok := o.Lookup(key); ok {
		return v
	}
	return Null{}
}

// Lookup returns the member under key and whether it is present.
func (o *Object) Lookup(key string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.vals[key]
	return v, ok
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns member names in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Range calls fn for each member in insertion order until fn returns false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		if !fn(k, o.vals[k]) {
			return
		}
	}
}

func (o *Object) String() string { return string(o.appendJSON(nil)) }

func (o *Object) appendJSON(dst []byte) []byte {
	dst = append(dst, '{')
	for i, k := range o.keys {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = AppendQuoted(dst, k)
		dst = append(dst, ':')
		dst = o.vals[k].appendJSON(dst)
	}
	return append(dst, '}')
}

// AppendJSON appends the compact JSON form of v to dst.
func AppendJSON(dst []byte, v Value) []byte {
	return Of(v).appendJSON(dst)
}

const hexDigits = "0123456789abcdef"

// AppendQuoted appends s as a JSON string literal. Only the characters JSON
// requires are escaped; invalid UTF-8 becomes U+FFFD.
func AppendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}
			dst = append(dst, s[start:i]...)
			switch c {
			case '"', '\\':
				dst = append(dst, '\\', c)
			case '\n':
				dst = append(dst, '\\', 'n')
			case '\r':
				dst = append(dst, '\\', 'r')
			case '\t':
				dst = append(dst, '\\', 't')
			case '\b':
				dst = append(dst, '\\', 'b')
			case '\f':
				dst = append(dst, '\\', 'f')
			default:
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, s[start:i]...)
			dst = append(dst, `�`...)
			i += size
			start = i
			continue
		}
		i += size
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"')
}
