package jsonshape

import (
	"strings"

	"github.com/unkn0wn-root/jsonshape/text"
	"github.com/unkn0wn-root/jsonshape/value"
)

// Mapper binds the top-level conversions of T to one registry. Mappers are
// cheap and safe for concurrent use.
type Mapper[T any] struct {
	a        Adapter[T]
	maxDepth int
}

// For returns the Mapper of T on r, deriving T's adapter if needed.
func For[T any](r *Registry) (*Mapper[T], error) {
	a, err := AdapterFor[T](r)
	if err != nil {
		return nil, err
	}
	return &Mapper[T]{a: a, maxDepth: r.maxDepth}, nil
}

// Adapter returns the adapter the mapper uses.
func (m *Mapper[T]) Adapter() Adapter[T] { return m.a }

func (m *Mapper[T]) ToJSON(v T) (value.Value, error) {
	return m.a.Encode(v)
}

// ToString renders v as compact JSON text.
func (m *Mapper[T]) ToString(v T) (string, error) {
	jv, err := m.a.Encode(v)
	if err != nil {
		return "", err
	}
	return text.Stringify(jv), nil
}

// FromValue decodes v. ok is false, with a zero T, when v is null.
func (m *Mapper[T]) FromValue(v value.Value) (T, bool, error) {
	p, err := Nullable(m.a).Decode(v)
	if err != nil || p == nil {
		var zero T
		return zero, false, err
	}
	return *p, true, nil
}

// FromJSON parses s and decodes the result. ok is false when s is the JSON
// literal null.
func (m *Mapper[T]) FromJSON(s string) (T, bool, error) {
	v, err := text.ParseReader(strings.NewReader(s), text.Options{MaxDepth: m.maxDepth})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return m.FromValue(v)
}

// ToJSON encodes v with the Default registry.
func ToJSON[T any](v T) (value.Value, error) {
	m, err := For[T](Default())
	if err != nil {
		return nil, err
	}
	return m.ToJSON(v)
}

// ToString encodes v with the Default registry and renders compact JSON.
func ToString[T any](v T) (string, error) {
	m, err := For[T](Default())
	if err != nil {
		return "", err
	}
	return m.ToString(v)
}

// FromJSON parses s and decodes it with the Default registry.
func FromJSON[T any](s string) (T, bool, error) {
	m, err := For[T](Default())
	if err != nil {
		var zero T
		return zero, false, err
	}
	return m.FromJSON(s)
}

// FromValue decodes v with the Default registry.
func FromValue[T any](v value.Value) (T, bool, error) {
	m, err := For[T](Default())
	if err != nil {
		var zero T
		return zero, false, err
	}
	return m.FromValue(v)
}
