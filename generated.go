package jsonshape

import (
	"fmt"
	"reflect"

	"github.com/unkn0wn-root/jsonshape/value"
)

// The helpers below back adapters written by package gen. They reproduce the
// field handling of derived adapters so both report identical values and
// error paths.

// ExpectObject returns v as an object, or a shape mismatch naming T.
func ExpectObject[T any](v value.Value) (*value.Object, error) {
	v = value.Of(v)
	obj, ok := v.(*value.Object)
	if !ok {
		return nil, mismatch(value.KindObject, v, reflect.TypeFor[T]())
	}
	return obj, nil
}

// EncodeField encodes f with a and sets it as member key of obj.
func EncodeField[F any](obj *value.Object, key string, a Adapter[F], f F) error {
	v, err := a.Encode(f)
	if err != nil {
		return atKey("encode", err, key)
	}
	obj.Set(key, v)
	return nil
}

// DecodeField decodes member key of obj into dst. A missing or null member
// leaves dst unchanged.
func DecodeField[F any](obj *value.Object, key string, a Adapter[F], dst *F) error {
	mv := obj.Get(key)
	if mv.Kind() == value.KindNull {
		return nil
	}
	f, err := a.Decode(mv)
	if err != nil {
		return atKey("decode", err, key)
	}
	*dst = f
	return nil
}

// ConstructorFailed reports a constructor of T that returned err, or a nil
// pointer when err is nil.
func ConstructorFailed[T any](err error) error {
	if err == nil {
		return fmt.Errorf("%v: constructor returned nil", reflect.TypeFor[T]())
	}
	return fmt.Errorf("%v: constructor: %w", reflect.TypeFor[T](), err)
}
