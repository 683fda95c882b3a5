package jsonshape

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/unkn0wn-root/jsonshape/internal/shape"
	"github.com/unkn0wn-root/jsonshape/value"
)

// node is the untyped codec every derivation rule produces. decode always
// receives an addressable, settable dst.
type node interface {
	encode(rv reflect.Value) (value.Value, error)
	decode(v value.Value, dst reflect.Value) error
}

// derivation is one pass of the engine, run under Registry.mu. Nodes built in
// the pass are only published when the root type succeeds.
type derivation struct {
	r       *Registry
	pending map[reflect.Type]*lazyNode
	done    map[reflect.Type]*entry
}

func (d *derivation) derive(t reflect.Type) (node, error) {
	if e, ok := d.r.load(t); ok {
		return e.node, e.err
	}
	if e, ok := d.done[t]; ok {
		return e.node, nil
	}
	if p, ok := d.pending[t]; ok {
		// recursive reference; resolved once t's derivation returns
		return p, nil
	}

	p := &lazyNode{typ: t}
	d.pending[t] = p
	n, err := d.build(t)
	delete(d.pending, t)
	if err != nil {
		return nil, err
	}
	p.n = n
	d.done[t] = &entry{typ: t, node: n}
	return n, nil
}

func (d *derivation) build(t reflect.Type) (node, error) {
	s, err := d.r.shapes.Resolve(t)
	if err != nil {
		return nil, err
	}
	switch s.Kind {
	case shape.Custom:
		return customNode{t: t}, nil
	case shape.Enum:
		return newEnumNode(t, s.Enum), nil
	case shape.Scalar:
		return scalarNode{t: t}, nil
	case shape.String:
		return stringNode{t: t}, nil
	case shape.Pointer:
		elem, err := d.derive(s.Elem)
		if err != nil {
			return nil, err
		}
		return pointerNode{t: t, elem: elem}, nil
	case shape.Array:
		elem, err := d.derive(s.Elem)
		if err != nil {
			return nil, err
		}
		return arrayNode{t: t, elem: elem, n: s.Len}, nil
	case shape.Iterable:
		elem, err := d.derive(s.Elem)
		if err != nil {
			return nil, err
		}
		if s.Materialize == shape.Set {
			return setNode{t: t, key: elem}, nil
		}
		return sliceNode{t: t, elem: elem, sorted: s.Materialize == shape.Sorted}, nil
	case shape.Map:
		elem, err := d.derive(s.Elem)
		if err != nil {
			return nil, err
		}
		return mapNode{t: t, elem: elem}, nil
	case shape.Product:
		return d.product(t, s.Plan)
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedShape, t)
}

func (d *derivation) product(t reflect.Type, plan *shape.Plan) (node, error) {
	p := &productNode{t: t, plan: plan, fields: make([]fieldNode, len(plan.Fields))}
	for i, f := range plan.Fields {
		n, err := d.derive(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t.Name(), f.GoName, err)
		}
		p.fields[i] = fieldNode{name: f.Name, index: f.Index, typ: f.Type, node: n}
	}
	return p, nil
}

// lazyNode stands in for a type whose derivation is still running.
type lazyNode struct {
	typ reflect.Type
	n   node
}

func (l *lazyNode) encode(rv reflect.Value) (value.Value, error) { return l.n.encode(rv) }
func (l *lazyNode) decode(v value.Value, dst reflect.Value) error { return l.n.decode(v, dst) }

// ==============================
// Leaves
// ==============================

type scalarNode struct{ t reflect.Type }

func (n scalarNode) encode(rv reflect.Value) (value.Value, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return value.Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return value.Uint(rv.Uint()), nil
	case reflect.Float32:
		num, err := value.Float32(float32(rv.Float()))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
		}
		return num, nil
	case reflect.Float64:
		num, err := value.Float(rv.Float())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
		}
		return num, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedShape, n.t)
}

func (n scalarNode) decode(v value.Value, dst reflect.Value) error {
	if dst.Kind() == reflect.Bool {
		b, ok := v.(value.Bool)
		if !ok {
			return mismatch(value.KindBool, v, n.t)
		}
		dst.SetBool(bool(b))
		return nil
	}
	num, ok := v.(value.Number)
	if !ok {
		return mismatch(value.KindNumber, v, n.t)
	}
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := num.Int64()
		if err == nil && dst.OverflowInt(i) {
			err = fmt.Errorf("%w: %s overflows %v", value.ErrNumberRange, num, n.t)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrShapeMismatch, err)
		}
		dst.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := num.Uint64()
		if err == nil && dst.OverflowUint(u) {
			err = fmt.Errorf("%w: %s overflows %v", value.ErrNumberRange, num, n.t)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrShapeMismatch, err)
		}
		dst.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := num.Float64()
		if err == nil && dst.OverflowFloat(f) {
			err = fmt.Errorf("%w: %s overflows %v", value.ErrNumberRange, num, n.t)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrShapeMismatch, err)
		}
		dst.SetFloat(f)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedShape, n.t)
	}
	return nil
}

type stringNode struct{ t reflect.Type }

func (stringNode) encode(rv reflect.Value) (value.Value, error) {
	return value.Str(rv.String()), nil
}

func (n stringNode) decode(v value.Value, dst reflect.Value) error {
	s, ok := v.(value.Str)
	if !ok {
		return mismatch(value.KindString, v, n.t)
	}
	dst.SetString(string(s))
	return nil
}

// enumNode encodes a case as its symbolic name.
type enumNode struct {
	t      reflect.Type
	names  map[any]string
	values map[string]reflect.Value
}

func newEnumNode(t reflect.Type, cases *shape.EnumCases) enumNode {
	n := enumNode{
		t:      t,
		names:  make(map[any]string, len(cases.Names)),
		values: make(map[string]reflect.Value, len(cases.Names)),
	}
	for i, name := range cases.Names {
		n.names[cases.Values[i].Interface()] = name
		n.values[name] = cases.Values[i]
	}
	return n
}

func (n enumNode) encode(rv reflect.Value) (value.Value, error) {
	name, ok := n.names[rv.Interface()]
	if !ok {
		return nil, fmt.Errorf("%w: %v is not a case of %v", ErrUnknownEnumValue, rv.Interface(), n.t)
	}
	return value.Str(name), nil
}

func (n enumNode) decode(v value.Value, dst reflect.Value) error {
	s, ok := v.(value.Str)
	if !ok {
		return mismatch(value.KindString, v, n.t)
	}
	c, ok := n.values[string(s)]
	if !ok {
		return fmt.Errorf("%w: %q for %v", ErrUnknownEnumValue, string(s), n.t)
	}
	dst.Set(c)
	return nil
}

// customNode defers to value.Marshaler / value.Unmarshaler.
type customNode struct{ t reflect.Type }

func (n customNode) encode(rv reflect.Value) (value.Value, error) {
	if !rv.CanAddr() {
		p := reflect.New(n.t)
		p.Elem().Set(rv)
		rv = p.Elem()
	}
	v, err := rv.Addr().Interface().(value.Marshaler).MarshalValue()
	if err != nil {
		return nil, err
	}
	return value.Of(v), nil
}

func (n customNode) decode(v value.Value, dst reflect.Value) error {
	return dst.Addr().Interface().(value.Unmarshaler).UnmarshalValue(v)
}

// ==============================
// Containers
// ==============================

type pointerNode struct {
	t    reflect.Type
	elem node
}

func (n pointerNode) encode(rv reflect.Value) (value.Value, error) {
	if rv.IsNil() {
		return value.Null{}, nil
	}
	return n.elem.encode(rv.Elem())
}

func (n pointerNode) decode(v value.Value, dst reflect.Value) error {
	if v.Kind() == value.KindNull {
		dst.Set(reflect.Zero(n.t))
		return nil
	}
	p := reflect.New(n.t.Elem())
	if err := n.elem.decode(v, p.Elem()); err != nil {
		return err
	}
	dst.Set(p)
	return nil
}

type arrayNode struct {
	t    reflect.Type
	elem node
	n    int
}

func (n arrayNode) encode(rv reflect.Value) (value.Value, error) {
	arr := value.NewArrayCap(n.n)
	for i := 0; i < n.n; i++ {
		v, err := n.elem.encode(rv.Index(i))
		if err != nil {
			return nil, atIndex("encode", err, i)
		}
		arr.Append(v)
	}
	return arr, nil
}

func (n arrayNode) decode(v value.Value, dst reflect.Value) error {
	arr, ok := v.(*value.Array)
	if !ok {
		return mismatch(value.KindArray, v, n.t)
	}
	if arr.Len() != n.n {
		return fmt.Errorf("%w: %v wants %d elements, got %d", ErrShapeMismatch, n.t, n.n, arr.Len())
	}
	for i, ev := range arr.Values() {
		if err := n.elem.decode(ev, dst.Index(i)); err != nil {
			return atIndex("decode", err, i)
		}
	}
	return nil
}

// sliceNode materializes into a slice, in input order or, when the slice type
// implements sort.Interface, sorted.
type sliceNode struct {
	t      reflect.Type
	elem   node
	sorted bool
}

func (n sliceNode) encode(rv reflect.Value) (value.Value, error) {
	if rv.IsNil() {
		return value.Null{}, nil
	}
	arr := value.NewArrayCap(rv.Len())
	for i := 0; i < rv.Len(); i++ {
		v, err := n.elem.encode(rv.Index(i))
		if err != nil {
			return nil, atIndex("encode", err, i)
		}
		arr.Append(v)
	}
	return arr, nil
}

func (n sliceNode) decode(v value.Value, dst reflect.Value) error {
	switch arr := v.(type) {
	case value.Null:
		dst.Set(reflect.Zero(n.t))
		return nil
	case *value.Array:
		out := reflect.MakeSlice(n.t, arr.Len(), arr.Len())
		for i, ev := range arr.Values() {
			if err := n.elem.decode(ev, out.Index(i)); err != nil {
				return atIndex("decode", err, i)
			}
		}
		if n.sorted {
			sort.Sort(out.Interface().(sort.Interface))
		}
		dst.Set(out)
		return nil
	}
	return mismatch(value.KindArray, v, n.t)
}

// setNode materializes map[E]struct{}; duplicates in the input collapse.
type setNode struct {
	t   reflect.Type
	key node
}

func (n setNode) encode(rv reflect.Value) (value.Value, error) {
	if rv.IsNil() {
		return value.Null{}, nil
	}
	keys := rv.MapKeys()
	sortKeys(keys)
	arr := value.NewArrayCap(len(keys))
	for i, k := range keys {
		v, err := n.key.encode(k)
		if err != nil {
			return nil, atIndex("encode", err, i)
		}
		arr.Append(v)
	}
	return arr, nil
}

func (n setNode) decode(v value.Value, dst reflect.Value) error {
	switch arr := v.(type) {
	case value.Null:
		dst.Set(reflect.Zero(n.t))
		return nil
	case *value.Array:
		out := reflect.MakeMapWithSize(n.t, arr.Len())
		present := reflect.Zero(n.t.Elem())
		for i, ev := range arr.Values() {
			k := reflect.New(n.t.Key()).Elem()
			if err := n.key.decode(ev, k); err != nil {
				return atIndex("decode", err, i)
			}
			out.SetMapIndex(k, present)
		}
		dst.Set(out)
		return nil
	}
	return mismatch(value.KindArray, v, n.t)
}

// mapNode is a string-keyed map encoded as an object. Members are written in
// key order so output is stable.
type mapNode struct {
	t    reflect.Type
	elem node
}

func (n mapNode) encode(rv reflect.Value) (value.Value, error) {
	if rv.IsNil() {
		return value.Null{}, nil
	}
	keys := rv.MapKeys()
	sortKeys(keys)
	obj := value.NewObjectCap(len(keys))
	for _, k := range keys {
		v, err := n.elem.encode(rv.MapIndex(k))
		if err != nil {
			return nil, atKey("encode", err, k.String())
		}
		obj.Set(k.String(), v)
	}
	return obj, nil
}

func (n mapNode) decode(v value.Value, dst reflect.Value) error {
	switch obj := v.(type) {
	case value.Null:
		dst.Set(reflect.Zero(n.t))
		return nil
	case *value.Object:
		out := reflect.MakeMapWithSize(n.t, obj.Len())
		var err error
		obj.Range(func(key string, mv value.Value) bool {
			elem := reflect.New(n.t.Elem()).Elem()
			if err = n.elem.decode(mv, elem); err != nil {
				err = atKey("decode", err, key)
				return false
			}
			out.SetMapIndex(reflect.ValueOf(key).Convert(n.t.Key()), elem)
			return true
		})
		if err != nil {
			return err
		}
		dst.Set(out)
		return nil
	}
	return mismatch(value.KindObject, v, n.t)
}

// sortKeys orders map keys by their natural order where the kind has one, and
// by formatted value otherwise.
func sortKeys(keys []reflect.Value) {
	if len(keys) < 2 {
		return
	}
	switch keys[0].Kind() {
	case reflect.String:
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Int() < keys[j].Int() })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Uint() < keys[j].Uint() })
	case reflect.Float32, reflect.Float64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Float() < keys[j].Float() })
	case reflect.Bool:
		sort.Slice(keys, func(i, j int) bool { return !keys[i].Bool() && keys[j].Bool() })
	default:
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
	}
}

// ==============================
// Products
// ==============================

type fieldNode struct {
	name  string
	index int
	typ   reflect.Type
	node  node
}

type productNode struct {
	t      reflect.Type
	plan   *shape.Plan
	fields []fieldNode
}

func (n *productNode) encode(rv reflect.Value) (value.Value, error) {
	obj := value.NewObjectCap(len(n.fields))
	for _, f := range n.fields {
		v, err := f.node.encode(rv.Field(f.index))
		if err != nil {
			return nil, atKey("encode", err, f.name)
		}
		obj.Set(f.name, v)
	}
	return obj, nil
}

func (n *productNode) decode(v value.Value, dst reflect.Value) error {
	obj, ok := v.(*value.Object)
	if !ok {
		return mismatch(value.KindObject, v, n.t)
	}

	switch n.plan.Strategy {
	case shape.FieldInjection:
		if n.plan.Ctor != nil {
			base, err := construct(n.plan.Ctor, nil)
			if err != nil {
				return fmt.Errorf("%v: %w", n.t, err)
			}
			dst.Set(base)
		} else {
			dst.Set(reflect.Zero(n.t))
		}
	default:
		args := make([]reflect.Value, len(n.plan.Params))
		for i, fi := range n.plan.Params {
			arg := reflect.New(n.fields[fi].typ).Elem()
			if err := n.decodeField(obj, fi, arg); err != nil {
				return err
			}
			args[i] = arg
		}
		built, err := construct(n.plan.Ctor, args)
		if err != nil {
			return fmt.Errorf("%v: %w", n.t, err)
		}
		dst.Set(built)
	}

	for _, fi := range n.plan.Injected {
		if err := n.decodeField(obj, fi, dst.Field(n.fields[fi].index)); err != nil {
			return err
		}
	}
	return nil
}

// decodeField leaves dst untouched when the member is missing or null.
func (n *productNode) decodeField(obj *value.Object, fi int, dst reflect.Value) error {
	f := n.fields[fi]
	mv := obj.Get(f.name)
	if mv.Kind() == value.KindNull {
		return nil
	}
	if err := f.node.decode(mv, dst); err != nil {
		return atKey("decode", err, f.name)
	}
	return nil
}

func construct(c *shape.Constructor, args []reflect.Value) (reflect.Value, error) {
	out := c.Fn.Call(args)
	if c.ReturnsErr && !out[1].IsNil() {
		return reflect.Value{}, fmt.Errorf("constructor: %w", out[1].Interface().(error))
	}
	res := out[0]
	if c.ReturnsPtr {
		if res.IsNil() {
			return reflect.Value{}, fmt.Errorf("constructor returned nil")
		}
		res = res.Elem()
	}
	return res, nil
}
