package jsonshape

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/jsonshape/value"
)

// Scalar adapters for use with Builder and Field. They follow the same rules
// as derived scalars.
var (
	StringAdapter  Adapter[string]  = &derived[string]{n: stringNode{t: reflect.TypeFor[string]()}}
	BoolAdapter    Adapter[bool]    = &derived[bool]{n: scalarNode{t: reflect.TypeFor[bool]()}}
	IntAdapter     Adapter[int]     = &derived[int]{n: scalarNode{t: reflect.TypeFor[int]()}}
	Int32Adapter   Adapter[int32]   = &derived[int32]{n: scalarNode{t: reflect.TypeFor[int32]()}}
	Int64Adapter   Adapter[int64]   = &derived[int64]{n: scalarNode{t: reflect.TypeFor[int64]()}}
	UintAdapter    Adapter[uint]    = &derived[uint]{n: scalarNode{t: reflect.TypeFor[uint]()}}
	Uint32Adapter  Adapter[uint32]  = &derived[uint32]{n: scalarNode{t: reflect.TypeFor[uint32]()}}
	Uint64Adapter  Adapter[uint64]  = &derived[uint64]{n: scalarNode{t: reflect.TypeFor[uint64]()}}
	Float32Adapter Adapter[float32] = &derived[float32]{n: scalarNode{t: reflect.TypeFor[float32]()}}
	Float64Adapter Adapter[float64] = &derived[float64]{n: scalarNode{t: reflect.TypeFor[float64]()}}
)

// TimeAdapter encodes time.Time as an RFC 3339 string with nanoseconds.
var TimeAdapter Adapter[time.Time] = Pair(
	func(t time.Time) (value.Value, error) {
		return value.Str(t.Format(time.RFC3339Nano)), nil
	},
	func(v value.Value) (time.Time, error) {
		s, ok := v.(value.Str)
		if !ok {
			return time.Time{}, mismatch(value.KindString, v, reflect.TypeFor[time.Time]())
		}
		t, err := time.Parse(time.RFC3339Nano, string(s))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %w", ErrShapeMismatch, err)
		}
		return t, nil
	},
)

// DurationAdapter encodes time.Duration in its String form ("1h30m0s").
var DurationAdapter Adapter[time.Duration] = Pair(
	func(d time.Duration) (value.Value, error) {
		return value.Str(d.String()), nil
	},
	func(v value.Value) (time.Duration, error) {
		s, ok := v.(value.Str)
		if !ok {
			return 0, mismatch(value.KindString, v, reflect.TypeFor[time.Duration]())
		}
		d, err := time.ParseDuration(string(s))
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrShapeMismatch, err)
		}
		return d, nil
	},
)

// UUIDAdapter encodes uuid.UUID in canonical hyphenated form.
var UUIDAdapter Adapter[uuid.UUID] = Pair(
	func(id uuid.UUID) (value.Value, error) {
		return value.Str(id.String()), nil
	},
	func(v value.Value) (uuid.UUID, error) {
		s, ok := v.(value.Str)
		if !ok {
			return uuid.Nil, mismatch(value.KindString, v, reflect.TypeFor[uuid.UUID]())
		}
		id, err := uuid.Parse(string(s))
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: %w", ErrShapeMismatch, err)
		}
		return id, nil
	},
)

// ValueAdapter passes value trees through unchanged, so a struct can carry
// raw JSON in a value.Value field.
var ValueAdapter Adapter[value.Value] = Pair(
	func(v value.Value) (value.Value, error) { return value.Of(v), nil },
	func(v value.Value) (value.Value, error) { return value.Of(v), nil },
)

func registerBuiltins(r *Registry) {
	MustRegister(r, TimeAdapter)
	MustRegister(r, DurationAdapter)
	MustRegister(r, UUIDAdapter)
	MustRegister(r, ValueAdapter)
}
