package codec

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/unkn0wn-root/jsonshape/value"
)

// ErrUnsupportedType is returned when a decoded payload holds something with
// no value-tree form (binary strings, non-string map keys, extension types).
var ErrUnsupportedType = errors.New("codec: unsupported payload type")

// toNative converts a tree into plain Go values. Objects become
// map[string]any, so member order is lost; formats that keep order walk the
// tree themselves.
func toNative(v value.Value) (any, error) {
	switch x := value.Of(v).(type) {
	case value.Null:
		return nil, nil
	case value.Bool:
		return bool(x), nil
	case value.Str:
		return string(x), nil
	case value.Number:
		return numberToNative(x)
	case *value.Array:
		out := make([]any, x.Len())
		for i, e := range x.Values() {
			n, err := toNative(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case *value.Object:
		out := make(map[string]any, x.Len())
		var err error
		x.Range(func(k string, m value.Value) bool {
			out[k], err = toNative(m)
			return err == nil
		})
		return out, err
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

// numberToNative keeps integral numbers integral when they fit 64 bits.
func numberToNative(n value.Number) (any, error) {
	if n.IsIntegral() {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		if u, err := n.Uint64(); err == nil {
			return u, nil
		}
	}
	return n.Float64()
}

func fromNative(v any) (value.Value, error) {
	switch x := v.(type) {
	case nil:
		return value.Null{}, nil
	case bool:
		return value.Bool(x), nil
	case string:
		return value.Str(x), nil
	case int:
		return value.Int(int64(x)), nil
	case int8:
		return value.Int(int64(x)), nil
	case int16:
		return value.Int(int64(x)), nil
	case int32:
		return value.Int(int64(x)), nil
	case int64:
		return value.Int(x), nil
	case uint:
		return value.Uint(uint64(x)), nil
	case uint8:
		return value.Uint(uint64(x)), nil
	case uint16:
		return value.Uint(uint64(x)), nil
	case uint32:
		return value.Uint(uint64(x)), nil
	case uint64:
		return value.Uint(x), nil
	case float32:
		return floatValue(float64(x))
	case float64:
		return floatValue(x)
	case []any:
		arr := value.NewArrayCap(len(x))
		for _, e := range x {
			ev, err := fromNative(e)
			if err != nil {
				return nil, err
			}
			arr.Append(ev)
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := value.NewObjectCap(len(x))
		for _, k := range keys {
			mv, err := fromNative(x[k])
			if err != nil {
				return nil, err
			}
			obj.Set(k, mv)
		}
		return obj, nil
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: map key %T", ErrUnsupportedType, k)
			}
			m[ks] = e
		}
		return fromNative(m)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

// floatValue keeps integral floats integral so they decode into Go ints.
func floatValue(f float64) (value.Value, error) {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return value.Int(int64(f)), nil
	}
	return value.Float(f)
}
