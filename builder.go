package jsonshape

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/unkn0wn-root/jsonshape/internal/shape"
	"github.com/unkn0wn-root/jsonshape/value"
)

// Builder assembles an Adapter[T] from explicit field accessors, without
// reflection over T's fields. Fields are encoded in the order they are added
// and passed to the constructor in that same order.
//
//	a, err := jsonshape.NewBuilder[User]().
//		Int("id", func(u User) int { return u.ID }).
//		String("name", func(u User) string { return u.Name }).
//		Build(NewUser)
type Builder[T any] struct {
	fields []builderField[T]
	seen   map[string]struct{}
	err    error
}

type builderField[T any] struct {
	name   string
	typ    reflect.Type
	encode func(T) (value.Value, error)
	decode func(value.Value) (reflect.Value, error)
}

func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{seen: make(map[string]struct{})}
}

func (b *Builder[T]) String(name string, get func(T) string) *Builder[T] {
	return Field(b, name, get, StringAdapter)
}

func (b *Builder[T]) Bool(name string, get func(T) bool) *Builder[T] {
	return Field(b, name, get, BoolAdapter)
}

func (b *Builder[T]) Int(name string, get func(T) int) *Builder[T] {
	return Field(b, name, get, IntAdapter)
}

func (b *Builder[T]) Int32(name string, get func(T) int32) *Builder[T] {
	return Field(b, name, get, Int32Adapter)
}

func (b *Builder[T]) Int64(name string, get func(T) int64) *Builder[T] {
	return Field(b, name, get, Int64Adapter)
}

func (b *Builder[T]) Uint(name string, get func(T) uint) *Builder[T] {
	return Field(b, name, get, UintAdapter)
}

func (b *Builder[T]) Uint32(name string, get func(T) uint32) *Builder[T] {
	return Field(b, name, get, Uint32Adapter)
}

func (b *Builder[T]) Uint64(name string, get func(T) uint64) *Builder[T] {
	return Field(b, name, get, Uint64Adapter)
}

func (b *Builder[T]) Float32(name string, get func(T) float32) *Builder[T] {
	return Field(b, name, get, Float32Adapter)
}

func (b *Builder[T]) Float64(name string, get func(T) float64) *Builder[T] {
	return Field(b, name, get, Float64Adapter)
}

// Field adds a field encoded by a. Use it for nested objects, enums, the
// narrower integer kinds (int8, uint16) or any type with its own adapter.
func Field[T, F any](b *Builder[T], name string, get func(T) F, a Adapter[F]) *Builder[T] {
	if b.err != nil {
		return b
	}
	if get == nil || a == nil {
		b.err = fmt.Errorf("jsonshape: builder field %q needs an accessor and an adapter", name)
		return b
	}
	if _, dup := b.seen[name]; dup {
		b.err = fmt.Errorf("%w: builder field %q added twice", ErrNoBindingStrategy, name)
		return b
	}
	b.seen[name] = struct{}{}
	b.fields = append(b.fields, builderField[T]{
		name: name,
		typ:  reflect.TypeFor[F](),
		encode: func(v T) (value.Value, error) {
			return a.Encode(get(v))
		},
		decode: func(v value.Value) (reflect.Value, error) {
			f, err := a.Decode(v)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&f).Elem(), nil
		},
	})
	return b
}

// Slice adds an iterable field whose elements are encoded by elem.
func Slice[T, E any](b *Builder[T], name string, get func(T) []E, elem Adapter[E]) *Builder[T] {
	return Field(b, name, get, SliceOf(elem))
}

// Build picks, among ctors, the one whose parameter count equals the number
// of fields, and returns the adapter. Parameter i receives field i. Each ctor
// must be shaped like func(...) T, func(...) *T, or either with a trailing
// error.
func (b *Builder[T]) Build(ctors ...any) (Adapter[T], error) {
	t := reflect.TypeFor[T]()
	if b.err != nil {
		return nil, &DeriveError{Type: t, Err: b.err}
	}

	var match *shape.Constructor
	for _, fn := range ctors {
		c, err := builderCtor(t, fn)
		if err != nil {
			return nil, &DeriveError{Type: t, Err: err}
		}
		if c.Fn.Type().NumIn() != len(b.fields) {
			continue
		}
		if match != nil {
			return nil, &DeriveError{Type: t, Err: fmt.Errorf("%w: several constructors take %d parameters", ErrNoBindingStrategy, len(b.fields))}
		}
		match = c
	}
	if match == nil {
		return nil, &DeriveError{Type: t, Err: fmt.Errorf("%w: no constructor takes %d parameters", ErrNoBindingStrategy, len(b.fields))}
	}
	ft := match.Fn.Type()
	for i, f := range b.fields {
		if ft.In(i) != f.typ {
			return nil, &DeriveError{Type: t, Err: fmt.Errorf("%w: constructor parameter %d is %v, field %q is %v",
				ErrNoBindingStrategy, i, ft.In(i), f.name, f.typ)}
		}
	}

	return &built[T]{t: t, fields: append([]builderField[T](nil), b.fields...), ctor: match}, nil
}

func builderCtor(t reflect.Type, fn any) (*shape.Constructor, error) {
	fv := reflect.ValueOf(fn)
	if !fv.IsValid() || fv.Kind() != reflect.Func || fv.IsNil() {
		return nil, fmt.Errorf("jsonshape: constructor must be a non-nil func, got %T", fn)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("jsonshape: constructor %v must not be variadic", ft)
	}
	c := &shape.Constructor{Fn: fv}
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == reflect.TypeFor[error]():
		c.ReturnsErr = true
	default:
		return nil, fmt.Errorf("jsonshape: constructor %v must return %v or (%v, error)", ft, t, t)
	}
	switch ft.Out(0) {
	case t:
	case reflect.PointerTo(t):
		c.ReturnsPtr = true
	default:
		return nil, fmt.Errorf("jsonshape: constructor %v does not build %v", ft, t)
	}
	return c, nil
}

type built[T any] struct {
	t      reflect.Type
	fields []builderField[T]
	ctor   *shape.Constructor
}

func (a *built[T]) Encode(v T) (value.Value, error) {
	obj := value.NewObjectCap(len(a.fields))
	for _, f := range a.fields {
		fv, err := f.encode(v)
		if err != nil {
			return nil, atKey("encode", err, f.name)
		}
		obj.Set(f.name, fv)
	}
	return obj, nil
}

func (a *built[T]) Decode(v value.Value) (T, error) {
	var zero T
	obj, ok := value.Of(v).(*value.Object)
	if !ok {
		return zero, mismatch(value.KindObject, v, a.t)
	}
	args := make([]reflect.Value, len(a.fields))
	for i, f := range a.fields {
		mv := obj.Get(f.name)
		if mv.Kind() == value.KindNull {
			args[i] = reflect.Zero(f.typ)
			continue
		}
		arg, err := f.decode(mv)
		if err != nil {
			return zero, atKey("decode", err, f.name)
		}
		args[i] = arg
	}
	out, err := construct(a.ctor, args)
	if err != nil {
		return zero, fmt.Errorf("%v: %w", a.t, err)
	}
	res, ok := out.Interface().(T)
	if !ok {
		return zero, errors.New("jsonshape: constructor result has the wrong type")
	}
	return res, nil
}
