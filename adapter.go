package jsonshape

import (
	"reflect"

	"github.com/unkn0wn-root/jsonshape/value"
)

// Encoder turns a T into a JSON value.
type Encoder[T any] func(T) (value.Value, error)

// Decoder turns a JSON value into a T. It fails with ErrShapeMismatch when the
// value's variant is not the one it expects.
type Decoder[T any] func(value.Value) (T, error)

// Adapter pairs the encoder and decoder of one type. Adapters are immutable
// and safe for concurrent use.
type Adapter[T any] interface {
	Encode(T) (value.Value, error)
	Decode(value.Value) (T, error)
}

type funcAdapter[T any] struct {
	enc Encoder[T]
	dec Decoder[T]
}

func (a funcAdapter[T]) Encode(v T) (value.Value, error) { return a.enc(v) }
func (a funcAdapter[T]) Decode(v value.Value) (T, error) { return a.dec(value.Of(v)) }

// Pair builds an Adapter from an encoder and a decoder.
func Pair[T any](enc Encoder[T], dec Decoder[T]) Adapter[T] {
	return funcAdapter[T]{enc: enc, dec: dec}
}

// MapDecoder runs f on every decoded value (and-then).
func MapDecoder[A, B any](d Decoder[A], f func(A) (B, error)) Decoder[B] {
	return func(v value.Value) (B, error) {
		a, err := d(v)
		if err != nil {
			var zero B
			return zero, err
		}
		return f(a)
	}
}

// ContramapEncoder runs f on every value before encoding it.
func ContramapEncoder[A, B any](e Encoder[A], f func(B) A) Encoder[B] {
	return func(b B) (value.Value, error) {
		return e(f(b))
	}
}

// Project adapts an Adapter[A] into an Adapter[B] through a bidirectional
// projection: from maps B to A before encoding, to maps A to B after decoding.
func Project[A, B any](a Adapter[A], to func(A) (B, error), from func(B) A) Adapter[B] {
	return Pair(ContramapEncoder(a.Encode, from), MapDecoder(a.Decode, to))
}

// Nullable lifts a into the absent-aware adapter for *T: a nil pointer encodes
// as null, and null decodes to nil without calling a.
//
// Derived adapters apply it once at the top-level boundary (see FromValue)
// and wherever the type itself is a pointer; it is not stacked on every
// nested level.
func Nullable[T any](a Adapter[T]) Adapter[*T] {
	return nullable[T]{inner: a}
}

type nullable[T any] struct {
	inner Adapter[T]
}

func (n nullable[T]) Encode(p *T) (value.Value, error) {
	if p == nil {
		return value.Null{}, nil
	}
	return n.inner.Encode(*p)
}

func (n nullable[T]) Decode(v value.Value) (*T, error) {
	if value.Of(v).Kind() == value.KindNull {
		return nil, nil
	}
	t, err := n.inner.Decode(v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SliceOf builds the element-wise adapter for []E. A nil slice encodes as
// null and null decodes to a nil slice.
func SliceOf[E any](elem Adapter[E]) Adapter[[]E] {
	t := reflect.TypeFor[[]E]()
	return Pair(
		func(s []E) (value.Value, error) {
			if s == nil {
				return value.Null{}, nil
			}
			arr := value.NewArrayCap(len(s))
			for i, e := range s {
				v, err := elem.Encode(e)
				if err != nil {
					return nil, atIndex("encode", err, i)
				}
				arr.Append(v)
			}
			return arr, nil
		},
		func(v value.Value) ([]E, error) {
			switch x := v.(type) {
			case value.Null:
				return nil, nil
			case *value.Array:
				out := make([]E, 0, x.Len())
				for i, ev := range x.Values() {
					e, err := elem.Decode(ev)
					if err != nil {
						return nil, atIndex("decode", err, i)
					}
					out = append(out, e)
				}
				return out, nil
			}
			return nil, mismatch(value.KindArray, v, t)
		},
	)
}

// adapterNode exposes an externally supplied Adapter[T] to the reflective
// engine so derived types can nest it.
type adapterNode[T any] struct {
	a Adapter[T]
}

func (n adapterNode[T]) encode(rv reflect.Value) (value.Value, error) {
	v, _ := rv.Interface().(T)
	return n.a.Encode(v)
}

func (n adapterNode[T]) decode(v value.Value, dst reflect.Value) error {
	t, err := n.a.Decode(v)
	if err != nil {
		return err
	}
	dst.Set(reflect.ValueOf(&t).Elem())
	return nil
}

// derived is the typed face of a reflective node.
type derived[T any] struct {
	n node
}

func (d *derived[T]) Encode(v T) (value.Value, error) {
	return d.n.encode(reflect.ValueOf(&v).Elem())
}

func (d *derived[T]) Decode(v value.Value) (T, error) {
	var out T
	err := d.n.decode(value.Of(v), reflect.ValueOf(&out).Elem())
	return out, err
}
