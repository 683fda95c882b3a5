package jsonshape

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/jsonshape/internal/shape"
	"github.com/unkn0wn-root/jsonshape/text"
)

// Options tune a Registry. The zero value is ready to use.
type Options struct {
	Logger     Logger // if nil, NopLogger is used
	Hooks      Hooks  // if nil, NopHooks is used
	NoBuiltins bool   // skip the time, uuid and value.Value adapters
	MaxDepth   int    // nesting limit for FromJSON; 0 => 10000
	TagName    string // struct tag for field names; "" => "json"
}

// TypeDescriptor identifies the concrete type an adapter was built for.
// Descriptors are comparable and usable as map keys.
type TypeDescriptor struct {
	Type reflect.Type
}

// TypeOf returns the descriptor of T.
func TypeOf[T any]() TypeDescriptor { return TypeDescriptor{Type: reflect.TypeFor[T]()} }

func (d TypeDescriptor) String() string {
	if d.Type == nil {
		return "<nil>"
	}
	return d.Type.String()
}

// Registry caches adapters per type. Lookups of cached types never lock;
// derivation of new types is serialized so each type is derived at most once.
type Registry struct {
	log      Logger
	hooks    Hooks
	maxDepth int
	shapes   *shape.Resolver

	cache sync.Map // reflect.Type -> *entry
	size  atomic.Int64

	mu sync.Mutex // guards derivation, registration and constructor changes
}

type entry struct {
	typ   reflect.Type
	node  node
	ext   any // registered Adapter[T], returned as is
	err   error
	typed atomic.Pointer[typedBox]
}

type typedBox struct{ a any }

func NewRegistry(opts Options) *Registry {
	r := &Registry{
		log:      coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:    coalesce[Hooks](opts.Hooks, NopHooks{}),
		maxDepth: coalesce(opts.MaxDepth, text.DefaultMaxDepth),
		shapes:   shape.NewResolver(opts.TagName),
	}
	if !opts.NoBuiltins {
		registerBuiltins(r)
	}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry { return NewRegistry(Options{}) })

// Default returns the process-wide registry used by the top-level functions.
func Default() *Registry { return defaultRegistry() }

// Len reports how many adapters are cached.
func (r *Registry) Len() int { return int(r.size.Load()) }

// Register installs a precomputed adapter for T. Derivation of T and of any
// type containing T uses it. It fails with ErrAlreadyRegistered when an
// adapter for T is already cached.
func Register[T any](r *Registry, a Adapter[T]) error {
	if a == nil {
		return fmt.Errorf("jsonshape: nil adapter for %v", reflect.TypeFor[T]())
	}
	t := reflect.TypeFor[T]()

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.load(t); ok && e.err == nil {
		return fmt.Errorf("%w: %v", ErrAlreadyRegistered, t)
	}
	r.store(&entry{typ: t, node: adapterNode[T]{a: a}, ext: a}, true)

	r.log.Debug("adapter registered", Fields{"type": t.String()})
	r.hooks.AdapterRegistered(t.String())
	return nil
}

// MustRegister is Register that panics on error. Generated code calls it
// from init.
func MustRegister[T any](r *Registry, a Adapter[T]) {
	if err := Register(r, a); err != nil {
		panic(err)
	}
}

// RegisterConstructor makes fn a creation function of the struct type it
// returns. See the package docs for the accepted signatures and how names
// select the binding strategy. Constructors must be registered before the
// struct type is first derived.
func (r *Registry) RegisterConstructor(fn any, names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.shapes.AddConstructor(fn, names...)
	if err != nil {
		return err
	}
	if _, ok := r.load(t); ok {
		r.log.Warn("constructor registered after derivation; cached adapter unchanged", Fields{"type": t.String()})
	}
	return nil
}

// AdapterFor returns the adapter for T: the cached one, a registered one, or
// a freshly derived one, in that order. Repeated calls return the same
// adapter instance.
func AdapterFor[T any](r *Registry) (Adapter[T], error) {
	e, err := r.entry(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return typed[T](e), nil
}

// Lookup derives t without binding it to a Go type parameter. It lets
// callers validate types eagerly, e.g. at startup.
func (r *Registry) Lookup(t reflect.Type) (TypeDescriptor, error) {
	if t == nil {
		return TypeDescriptor{}, fmt.Errorf("%w: nil type", ErrUnsupportedShape)
	}
	if _, err := r.entry(t); err != nil {
		return TypeDescriptor{}, err
	}
	return TypeDescriptor{Type: t}, nil
}

func typed[T any](e *entry) Adapter[T] {
	if b := e.typed.Load(); b != nil {
		return b.a.(Adapter[T])
	}
	var a Adapter[T]
	if ext, ok := e.ext.(Adapter[T]); ok {
		a = ext
	} else {
		a = &derived[T]{n: e.node}
	}
	e.typed.CompareAndSwap(nil, &typedBox{a: a})
	return e.typed.Load().a.(Adapter[T])
}

func (r *Registry) load(t reflect.Type) (*entry, bool) {
	v, ok := r.cache.Load(t)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

// store publishes e. replace is only set by Register, which may overwrite a
// cached failure.
func (r *Registry) store(e *entry, replace bool) {
	if replace {
		prev, loaded := r.cache.Swap(e.typ, e)
		if loaded && prev.(*entry).err == nil {
			return
		}
		if e.err == nil {
			r.size.Add(1)
		}
		return
	}
	if _, loaded := r.cache.LoadOrStore(e.typ, e); !loaded && e.err == nil {
		r.size.Add(1)
	}
}

func (r *Registry) entry(t reflect.Type) (*entry, error) {
	if e, ok := r.load(t); ok {
		r.hooks.CacheHit(t.String())
		return e, e.err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// another goroutine may have derived t while we waited
	if e, ok := r.load(t); ok {
		r.hooks.CacheHit(t.String())
		return e, e.err
	}

	start := time.Now()
	d := &derivation{
		r:       r,
		pending: make(map[reflect.Type]*lazyNode),
		done:    make(map[reflect.Type]*entry),
	}
	if _, err := d.derive(t); err != nil {
		de := &DeriveError{Type: t, Err: err}
		r.store(&entry{typ: t, err: de}, false)
		r.log.Warn("derivation failed", Fields{"type": t.String(), "err": err.Error()})
		r.hooks.DerivationFailed(t.String(), de)
		return nil, de
	}
	for _, e := range d.done {
		r.store(e, false)
	}

	took := time.Since(start)
	r.log.Debug("adapter derived", Fields{"type": t.String(), "types": len(d.done), "took": took.String()})
	r.hooks.AdapterDerived(t.String(), took)

	e, _ := r.load(t)
	return e, nil
}
