package jsonshape

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/jsonshape/value"
)

type countingHooks struct {
	derived    atomic.Int64
	registered atomic.Int64
	failed     atomic.Int64
	hits       atomic.Int64
}

func (h *countingHooks) AdapterDerived(string, time.Duration) { h.derived.Add(1) }
func (h *countingHooks) AdapterRegistered(string)             { h.registered.Add(1) }
func (h *countingHooks) DerivationFailed(string, error)       { h.failed.Add(1) }
func (h *countingHooks) CacheHit(string)                      { h.hits.Add(1) }

type memLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *memLogger) add(msg string) {
	l.mu.Lock()
	l.msgs = append(l.msgs, msg)
	l.mu.Unlock()
}

func (l *memLogger) Debug(msg string, _ Fields) { l.add(msg) }
func (l *memLogger) Info(msg string, _ Fields)  { l.add(msg) }
func (l *memLogger) Warn(msg string, _ Fields)  { l.add(msg) }
func (l *memLogger) Error(msg string, _ Fields) { l.add(msg) }

type point struct {
	X   int `json:"x"`
	Y   int `json:"y"`
	via string
}

// pointAsList encodes a point as [x, y].
type pointAsList struct{}

func (*pointAsList) Encode(p point) (value.Value, error) {
	return value.NewArray(value.Int(int64(p.X)), value.Int(int64(p.Y))), nil
}

func (*pointAsList) Decode(v value.Value) (point, error) {
	arr, ok := v.(*value.Array)
	if !ok || arr.Len() != 2 {
		return point{}, ErrShapeMismatch
	}
	x, _ := arr.At(0).(value.Number).Int64()
	y, _ := arr.At(1).(value.Number).Int64()
	return point{X: int(x), Y: int(y), via: "registered"}, nil
}

// ==============================
// Cache identity and concurrency
// ==============================

func TestAdapterIdentity(t *testing.T) {
	r := newTestRegistry(t)
	a1, err := AdapterFor[User](r)
	require.NoError(t, err)
	a2, err := AdapterFor[User](r)
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	// nested types derived along the way are cached too
	n := r.Len()
	_, err = AdapterFor[[]string](r)
	require.NoError(t, err)
	assert.Equal(t, n, r.Len())
}

func TestConcurrentFirstUseDerivesOnce(t *testing.T) {
	h := &countingHooks{}
	r := NewRegistry(Options{Hooks: h, NoBuiltins: true})

	const workers = 32
	got := make([]Adapter[[]User], workers)
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			a, err := AdapterFor[[]User](r)
			got[i] = a
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, a := range got[1:] {
		assert.Same(t, got[0], a)
	}
	assert.Equal(t, int64(1), h.derived.Load())
	assert.Equal(t, int64(workers-1), h.hits.Load(), "every lookup that did not derive is a cache hit")
}

func TestConcurrentFailureCountsHits(t *testing.T) {
	h := &countingHooks{}
	r := NewRegistry(Options{Hooks: h})

	const workers = 16
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			if _, err := AdapterFor[chan int](r); !errors.Is(err, ErrUnsupportedShape) {
				return fmt.Errorf("lookup %d: %v", i, err)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int64(1), h.failed.Load())
	assert.Equal(t, int64(workers-1), h.hits.Load())
}

func TestConcurrentEncodeDecode(t *testing.T) {
	m := mustMapper[User](t, newTestRegistry(t))
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			u := User{ID: i, Roles: []string{"r"}}
			s, err := m.ToString(u)
			if err != nil {
				return err
			}
			back, _, err := m.FromJSON(s)
			if err != nil {
				return err
			}
			if !reflect.DeepEqual(u, back) {
				return errors.New("round trip mismatch")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

// ==============================
// Failures
// ==============================

type withWildcard struct {
	Any any `json:"any"`
}

func TestFailureIsCached(t *testing.T) {
	h := &countingHooks{}
	r := NewRegistry(Options{Hooks: h})

	_, err1 := AdapterFor[withWildcard](r)
	require.Error(t, err1)
	assert.ErrorIs(t, err1, ErrUnsupportedShape)

	var de *DeriveError
	require.True(t, errors.As(err1, &de))
	assert.Equal(t, reflect.TypeFor[withWildcard](), de.Type)

	_, err2 := AdapterFor[withWildcard](r)
	assert.Same(t, err1, err2)
	assert.Equal(t, int64(1), h.failed.Load())
}

func TestFailedDerivationCachesNothingElse(t *testing.T) {
	type half struct {
		OK  []int          `json:"ok"`
		Bad map[int]string `json:"bad"`
	}
	r := NewRegistry(Options{NoBuiltins: true})
	_, err := AdapterFor[half](r)
	require.ErrorIs(t, err, ErrUnsupportedShape)
	assert.Equal(t, 0, r.Len())
}

func TestUnsupportedTypes(t *testing.T) {
	r := newTestRegistry(t)
	_, err := AdapterFor[map[int]string](r)
	assert.ErrorIs(t, err, ErrUnsupportedShape)
	_, err = AdapterFor[complex128](r)
	assert.ErrorIs(t, err, ErrUnsupportedShape)
	_, err = AdapterFor[func()](r)
	assert.ErrorIs(t, err, ErrUnsupportedShape)
	_, err = AdapterFor[chan int](r)
	assert.ErrorIs(t, err, ErrUnsupportedShape)
}

func TestLookupValidatesEagerly(t *testing.T) {
	r := newTestRegistry(t)
	d, err := r.Lookup(reflect.TypeFor[map[string]User]())
	require.NoError(t, err)
	assert.Equal(t, TypeOf[map[string]User](), d)
	assert.Equal(t, "map[string]jsonshape.User", d.String())

	_, err = r.Lookup(reflect.TypeFor[withWildcard]())
	assert.ErrorIs(t, err, ErrUnsupportedShape)

	_, err = r.Lookup(nil)
	assert.ErrorIs(t, err, ErrUnsupportedShape)
}

// ==============================
// Registration
// ==============================

func TestRegisteredAdapterWins(t *testing.T) {
	h := &countingHooks{}
	r := NewRegistry(Options{Hooks: h, NoBuiltins: true})
	pa := &pointAsList{}
	require.NoError(t, Register[point](r, pa))
	assert.Equal(t, int64(1), h.registered.Load())

	a, err := AdapterFor[point](r)
	require.NoError(t, err)
	assert.Same(t, pa, a)

	s, err := mustMapper[[]point](t, r).ToString([]point{{X: 1, Y: 2}})
	require.NoError(t, err)
	assert.Equal(t, `[[1,2]]`, s)

	got, _, err := mustMapper[map[string]point](t, r).FromJSON(`{"p":[3,4]}`)
	require.NoError(t, err)
	assert.Equal(t, point{X: 3, Y: 4, via: "registered"}, got["p"])
}

func TestRegisterAfterDerivationFails(t *testing.T) {
	r := newTestRegistry(t)
	_, err := AdapterFor[point](r)
	require.NoError(t, err)

	err = Register[point](r, &pointAsList{})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Panics(t, func() { MustRegister[point](r, &pointAsList{}) })
}

func TestRegisterReplacesCachedFailure(t *testing.T) {
	r := newTestRegistry(t)
	_, err := AdapterFor[withWildcard](r)
	require.Error(t, err)

	wa := Pair(
		func(withWildcard) (value.Value, error) { return value.Str("w"), nil },
		func(value.Value) (withWildcard, error) { return withWildcard{Any: "w"}, nil },
	)
	require.NoError(t, Register(r, wa))
	s, err := mustMapper[withWildcard](t, r).ToString(withWildcard{})
	require.NoError(t, err)
	assert.Equal(t, `"w"`, s)
}

func TestBuiltinsAreRegistered(t *testing.T) {
	assert.Equal(t, 4, NewRegistry(Options{}).Len())
	assert.Equal(t, 0, NewRegistry(Options{NoBuiltins: true}).Len())
}

func TestRegistryLogs(t *testing.T) {
	l := &memLogger{}
	r := NewRegistry(Options{Logger: l, NoBuiltins: true})
	_, _ = AdapterFor[User](r)
	_, _ = AdapterFor[withWildcard](r)
	assert.Equal(t, []string{"adapter derived", "derivation failed"}, l.msgs)
}

// ==============================
// Binding strategies
// ==============================

func TestPositionalConstructor(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.RegisterConstructor(func(x, y int) point {
		return point{X: x, Y: y, via: "positional"}
	}))

	got, _, err := mustMapper[point](t, r).FromJSON(`{"y":2,"x":1}`)
	require.NoError(t, err)
	assert.Equal(t, point{X: 1, Y: 2, via: "positional"}, got)
}

func TestZeroArgPlusUnmarkedConstructorFails(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.RegisterConstructor(func() point { return point{} }))
	require.NoError(t, r.RegisterConstructor(func(x, y int) point { return point{X: x, Y: y} }))

	_, err := AdapterFor[point](r)
	assert.ErrorIs(t, err, ErrNoBindingStrategy)
}

func TestAnnotatedConstructorAndInjection(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.RegisterConstructor(func() point { return point{} }))
	require.NoError(t, r.RegisterConstructor(func(y int) *point {
		return &point{Y: y, via: "named"}
	}, "y"))

	got, _, err := mustMapper[point](t, r).FromJSON(`{"x":3,"y":4}`)
	require.NoError(t, err)
	assert.Equal(t, point{X: 3, Y: 4, via: "named"}, got)
}

func TestZeroArgConstructorPresets(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.RegisterConstructor(func() *point { return &point{X: 7, via: "zero"} }))

	got, _, err := mustMapper[point](t, r).FromJSON(`{"y":1,"x":null}`)
	require.NoError(t, err)
	assert.Equal(t, point{X: 7, Y: 1, via: "zero"}, got)
}

func TestConstructorErrorPropagates(t *testing.T) {
	errNegative := errors.New("negative")
	r := newTestRegistry(t)
	require.NoError(t, r.RegisterConstructor(func(x, y int) (point, error) {
		if x < 0 {
			return point{}, errNegative
		}
		return point{X: x, Y: y}, nil
	}))

	_, _, err := mustMapper[point](t, r).FromJSON(`{"x":-1,"y":0}`)
	assert.ErrorIs(t, err, errNegative)
}

func TestConstructorNilResult(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.RegisterConstructor(func(x, y int) *point { return nil }))
	_, _, err := mustMapper[point](t, r).FromJSON(`{"x":1,"y":2}`)
	assert.Error(t, err)
}

func TestRegisterConstructorRejectsBadFuncs(t *testing.T) {
	r := newTestRegistry(t)
	assert.Error(t, r.RegisterConstructor(nil))
	assert.Error(t, r.RegisterConstructor(func() int { return 1 }))
	assert.Error(t, r.RegisterConstructor(func(x, y int) point { return point{} }, "x"))
}
