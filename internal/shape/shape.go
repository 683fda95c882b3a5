// Package shape classifies Go types into the structural shapes the derivation
// engine and the generator know how to handle. Resolution only inspects types;
// it never builds adapters.
package shape

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/unkn0wn-root/jsonshape/value"
)

var (
	ErrUnsupportedShape  = errors.New("jsonshape: unsupported shape")
	ErrNoBindingStrategy = errors.New("jsonshape: no binding strategy")
)

// Kind selects a derivation rule.
type Kind uint8

const (
	Invalid Kind = iota
	Custom       // *T implements value.Marshaler and value.Unmarshaler
	Enum
	Scalar
	String
	Pointer
	Array
	Iterable
	Map
	Product
)

var kindNames = [...]string{
	Invalid:  "invalid",
	Custom:   "custom",
	Enum:     "enum",
	Scalar:   "scalar",
	String:   "string",
	Pointer:  "pointer",
	Array:    "array",
	Iterable: "iterable",
	Map:      "map",
	Product:  "product",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Materialization is the container an iterable decodes into.
type Materialization uint8

const (
	Ordered Materialization = iota // slice in input order
	Set                            // map[E]struct{}, duplicates collapse
	Sorted                         // slice sorted through its sort.Interface
)

func (m Materialization) String() string {
	switch m {
	case Set:
		return "set"
	case Sorted:
		return "sorted"
	default:
		return "ordered"
	}
}

// Shape is the classification of one concrete type.
type Shape struct {
	Type        reflect.Type
	Kind        Kind
	Elem        reflect.Type // Pointer, Array, Iterable, Map
	Len         int          // Array
	Materialize Materialization
	Enum        *EnumCases
	Plan        *Plan
}

// EnumCases holds the symbolic names of an enumerated type, index-aligned
// with its values.
type EnumCases struct {
	Names  []string
	Values []reflect.Value
}

var (
	marshalerType   = reflect.TypeOf((*value.Marshaler)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*value.Unmarshaler)(nil)).Elem()
	sortType        = reflect.TypeOf((*sort.Interface)(nil)).Elem()
	emptyStructType = reflect.TypeOf(struct{}{})
)

// Resolve classifies t. The result depends only on t and the constructors
// registered so far.
func (r *Resolver) Resolve(t reflect.Type) (Shape, error) {
	if t == nil {
		return Shape{}, fmt.Errorf("%w: nil type", ErrUnsupportedShape)
	}
	s := Shape{Type: t}

	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		pt := reflect.PointerTo(t)
		if pt.Implements(marshalerType) && pt.Implements(unmarshalerType) {
			s.Kind = Custom
			return s, nil
		}
	}

	if cases, ok, err := enumCases(t); err != nil {
		return Shape{}, err
	} else if ok {
		s.Kind = Enum
		s.Enum = cases
		return s, nil
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		s.Kind = Scalar
	case reflect.String:
		s.Kind = String
	case reflect.Pointer:
		s.Kind = Pointer
		s.Elem = t.Elem()
	case reflect.Array:
		s.Kind = Array
		s.Elem = t.Elem()
		s.Len = t.Len()
	case reflect.Slice:
		s.Kind = Iterable
		s.Elem = t.Elem()
		if t.Implements(sortType) {
			s.Materialize = Sorted
		}
	case reflect.Map:
		switch {
		case t.Elem() == emptyStructType:
			s.Kind = Iterable
			s.Elem = t.Key()
			s.Materialize = Set
		case t.Key().Kind() == reflect.String:
			s.Kind = Map
			s.Elem = t.Elem()
		default:
			return Shape{}, fmt.Errorf("%w: %v has non-string key type %v", ErrUnsupportedShape, t, t.Key())
		}
	case reflect.Struct:
		plan, err := r.plan(t)
		if err != nil {
			return Shape{}, err
		}
		s.Kind = Product
		s.Plan = plan
	default:
		// interfaces (the wildcard case), funcs, chans, complex numbers,
		// uintptr and unsafe.Pointer
		return Shape{}, fmt.Errorf("%w: %v (%v)", ErrUnsupportedShape, t, t.Kind())
	}
	return s, nil
}

// enumCases recognizes a named type with `String() string` and
// `Values() []T` methods.
func enumCases(t reflect.Type) (*EnumCases, bool, error) {
	if t.Name() == "" || t.Kind() == reflect.Interface || t.Kind() == reflect.Pointer {
		return nil, false, nil
	}
	str, ok := t.MethodByName("String")
	if !ok || str.Type.NumIn() != 1 || str.Type.NumOut() != 1 || str.Type.Out(0).Kind() != reflect.String {
		return nil, false, nil
	}
	vals, ok := t.MethodByName("Values")
	if !ok || vals.Type.NumIn() != 1 || vals.Type.NumOut() != 1 || vals.Type.Out(0) != reflect.SliceOf(t) {
		return nil, false, nil
	}
	if !t.Comparable() {
		return nil, false, fmt.Errorf("%w: enum %v is not comparable", ErrUnsupportedShape, t)
	}

	all := vals.Func.Call([]reflect.Value{reflect.Zero(t)})[0]
	if all.Len() == 0 {
		return nil, false, fmt.Errorf("%w: enum %v has no cases", ErrUnsupportedShape, t)
	}
	cases := &EnumCases{
		Names:  make([]string, 0, all.Len()),
		Values: make([]reflect.Value, 0, all.Len()),
	}
	seen := make(map[string]struct{}, all.Len())
	for i := 0; i < all.Len(); i++ {
		v := all.Index(i)
		name := str.Func.Call([]reflect.Value{v})[0].String()
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		cases.Names = append(cases.Names, name)
		cases.Values = append(cases.Values, v)
	}
	return cases, true, nil
}
