package sloghooks

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/jsonshape"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	CacheHitEvery uint64
	FailureEvery  uint64
	// Log cache hits at all. Off by default; hits fire on every lookup.
	LogCacheHits bool
	// Derivations faster than this are not logged. 0 logs all.
	SlowDerivation time.Duration
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr     atomic.Uint64
	failureCtr atomic.Uint64
}

var _ jsonshape.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) AdapterDerived(typ string, took time.Duration) {
	if h.l == nil || took < h.opts.SlowDerivation {
		return
	}
	h.l.Debug("jsonshape.adapter_derived",
		"type", typ,
		"took", took)
}

func (h *Hooks) AdapterRegistered(typ string) {
	if h.l == nil {
		return
	}
	h.l.Debug("jsonshape.adapter_registered", "type", typ)
}

func (h *Hooks) DerivationFailed(typ string, err error) {
	if h.l == nil || !sample(h.opts.FailureEvery, &h.failureCtr) {
		return
	}
	h.l.Warn("jsonshape.derivation_failed",
		"type", typ,
		"err", err)
}

func (h *Hooks) CacheHit(typ string) {
	if h.l == nil || !h.opts.LogCacheHits || !sample(h.opts.CacheHitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("jsonshape.cache_hit", "type", typ)
}
