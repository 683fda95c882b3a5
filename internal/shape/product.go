package shape

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Strategy is how a product value is created while decoding.
type Strategy uint8

const (
	// FieldInjection starts from the zero value (or a zero-argument
	// constructor) and assigns every field.
	FieldInjection Strategy = iota
	// UniqueConstructor calls the only registered constructor, binding
	// parameter i to field i.
	UniqueConstructor
	// AnnotatedConstructor calls the constructor marked with parameter names,
	// binding each parameter to the field of that name.
	AnnotatedConstructor
)

func (s Strategy) String() string {
	switch s {
	case UniqueConstructor:
		return "unique-constructor"
	case AnnotatedConstructor:
		return "annotated-constructor"
	default:
		return "field-injection"
	}
}

// Field is one encodable struct field.
type Field struct {
	Name   string // object key
	GoName string
	Index  int
	Type   reflect.Type
}

// Constructor is a registered creation function for a struct type.
type Constructor struct {
	Fn         reflect.Value
	Names      []string // non-empty marks the annotated entry point
	ReturnsPtr bool
	ReturnsErr bool
}

// Plan is the resolved field layout and binding strategy of a product type.
type Plan struct {
	Fields   []Field
	Strategy Strategy
	Ctor     *Constructor
	// Params maps constructor parameter i to an index into Fields.
	Params []int
	// Injected lists fields assigned after construction.
	Injected []int
}

// Resolver classifies types. It holds the registered constructors and the
// struct tag consulted for field names. Safe for concurrent use.
type Resolver struct {
	tag   string
	mu    sync.RWMutex
	ctors map[reflect.Type][]Constructor
}

func NewResolver(tag string) *Resolver {
	if tag == "" {
		tag = "json"
	}
	return &Resolver{tag: tag, ctors: make(map[reflect.Type][]Constructor)}
}

// AddConstructor registers fn as a constructor of the struct type it returns.
// fn must look like func(P1..Pn) T, func(P1..Pn) *T, or either with a trailing
// error result. Passing names marks fn as the annotated entry point; there must
// be exactly one name per parameter.
func (r *Resolver) AddConstructor(fn any, names ...string) (reflect.Type, error) {
	fv := reflect.ValueOf(fn)
	if !fv.IsValid() || fv.Kind() != reflect.Func || fv.IsNil() {
		return nil, fmt.Errorf("jsonshape: constructor must be a non-nil func, got %T", fn)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("jsonshape: constructor %v must not be variadic", ft)
	}
	c := Constructor{Fn: fv}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("jsonshape: constructor %v: second result must be error", ft)
		}
		c.ReturnsErr = true
	default:
		return nil, fmt.Errorf("jsonshape: constructor %v must return T or (T, error)", ft)
	}
	target := ft.Out(0)
	if target.Kind() == reflect.Pointer {
		target = target.Elem()
		c.ReturnsPtr = true
	}
	if target.Kind() != reflect.Struct {
		return nil, fmt.Errorf("jsonshape: constructor %v must build a struct", ft)
	}
	if len(names) > 0 {
		if len(names) != ft.NumIn() {
			return nil, fmt.Errorf("jsonshape: constructor %v has %d parameters but %d names", ft, ft.NumIn(), len(names))
		}
		c.Names = append([]string(nil), names...)
	}

	r.mu.Lock()
	r.ctors[target] = append(r.ctors[target], c)
	r.mu.Unlock()
	return target, nil
}

// Constructors returns the constructors registered for t.
func (r *Resolver) Constructors(t reflect.Type) []Constructor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Constructor(nil), r.ctors[t]...)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Fields lists the exported fields of struct t in declaration order. A struct
// whose state lives only in unexported fields has no structural form and is
// rejected rather than rendered as an empty object.
func (r *Resolver) Fields(t reflect.Type) ([]Field, error) {
	out := make([]Field, 0, t.NumField())
	seen := make(map[string]string, t.NumField())
	exported, hidden := 0, 0
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			if sf.Name != "_" {
				hidden++
			}
			continue
		}
		exported++
		name := sf.Name
		if tag, ok := sf.Tag.Lookup(r.tag); ok {
			if tag == "-" {
				continue
			}
			if n, _, _ := strings.Cut(tag, ","); n != "" {
				name = n
			}
		}
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %v fields %s and %s share the name %q", ErrUnsupportedShape, t, prev, sf.Name, name)
		}
		seen[name] = sf.Name
		out = append(out, Field{Name: name, GoName: sf.Name, Index: i, Type: sf.Type})
	}
	if exported == 0 && hidden > 0 {
		return nil, fmt.Errorf("%w: %v has only unexported fields", ErrUnsupportedShape, t)
	}
	return out, nil
}

func (r *Resolver) plan(t reflect.Type) (*Plan, error) {
	fields, err := r.Fields(t)
	if err != nil {
		return nil, err
	}
	p := &Plan{Fields: fields}
	ctors := r.Constructors(t)

	switch {
	case len(ctors) == 0:
		p.Strategy = FieldInjection
		p.Injected = allFields(len(fields))
		return p, nil

	case len(ctors) == 1 && len(ctors[0].Names) == 0:
		c := ctors[0]
		if c.Fn.Type().NumIn() == 0 {
			p.Strategy = FieldInjection
			p.Ctor = &c
			p.Injected = allFields(len(fields))
			return p, nil
		}
		return p, p.bindPositional(t, c)
	}

	var marked []Constructor
	for _, c := range ctors {
		if len(c.Names) > 0 {
			marked = append(marked, c)
		}
	}
	switch len(marked) {
	case 1:
		return p, p.bindNamed(t, marked[0])
	case 0:
		return nil, fmt.Errorf("%w: %v has %d constructors and none is marked with parameter names", ErrNoBindingStrategy, t, len(ctors))
	default:
		return nil, fmt.Errorf("%w: %v has %d marked constructors", ErrNoBindingStrategy, t, len(marked))
	}
}

func (p *Plan) bindPositional(t reflect.Type, c Constructor) error {
	ft := c.Fn.Type()
	if ft.NumIn() != len(p.Fields) {
		return fmt.Errorf("%w: %v constructor takes %d parameters for %d fields", ErrNoBindingStrategy, t, ft.NumIn(), len(p.Fields))
	}
	p.Params = make([]int, ft.NumIn())
	for i := 0; i < ft.NumIn(); i++ {
		if ft.In(i) != p.Fields[i].Type {
			return fmt.Errorf("%w: %v constructor parameter %d is %v, field %s is %v",
				ErrNoBindingStrategy, t, i, ft.In(i), p.Fields[i].GoName, p.Fields[i].Type)
		}
		p.Params[i] = i
	}
	p.Strategy = UniqueConstructor
	p.Ctor = &c
	return nil
}

func (p *Plan) bindNamed(t reflect.Type, c Constructor) error {
	ft := c.Fn.Type()
	byName := make(map[string]int, len(p.Fields))
	for i, f := range p.Fields {
		byName[f.Name] = i
	}
	bound := make([]bool, len(p.Fields))
	p.Params = make([]int, ft.NumIn())
	for i, name := range c.Names {
		fi, ok := byName[name]
		if !ok {
			return fmt.Errorf("%w: %v constructor parameter %d names unknown field %q", ErrNoBindingStrategy, t, i, name)
		}
		if bound[fi] {
			return fmt.Errorf("%w: %v constructor binds field %q twice", ErrNoBindingStrategy, t, name)
		}
		if ft.In(i) != p.Fields[fi].Type {
			return fmt.Errorf("%w: %v constructor parameter %q is %v, field is %v",
				ErrNoBindingStrategy, t, name, ft.In(i), p.Fields[fi].Type)
		}
		bound[fi] = true
		p.Params[i] = fi
	}
	for i, b := range bound {
		if !b {
			p.Injected = append(p.Injected, i)
		}
	}
	p.Strategy = AnnotatedConstructor
	p.Ctor = &c
	return nil
}

func allFields(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
