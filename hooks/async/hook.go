// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{CacheHitEvery: 1000})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	r := jsonshape.NewRegistry(jsonshape.Options{Hooks: hooks})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/jsonshape"
)

// Hooks forwards events to inner on worker goroutines. Events are dropped
// when the queue is full or after Close.
type Hooks struct {
	inner   jsonshape.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ jsonshape.Hooks = (*Hooks)(nil)

func New(inner jsonshape.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains the queue and stops the workers.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) AdapterDerived(typ string, took time.Duration) {
	h.try(func() { h.inner.AdapterDerived(typ, took) })
}
func (h *Hooks) AdapterRegistered(typ string) { h.try(func() { h.inner.AdapterRegistered(typ) }) }
func (h *Hooks) DerivationFailed(typ string, err error) {
	h.try(func() { h.inner.DerivationFailed(typ, err) })
}
func (h *Hooks) CacheHit(typ string) { h.try(func() { h.inner.CacheHit(typ) }) }
