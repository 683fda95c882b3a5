// Package prom exports registry events as Prometheus metrics.
//
//	h := prom.New(prometheus.DefaultRegisterer, "myapp")
//	r := jsonshape.NewRegistry(jsonshape.Options{Hooks: h})
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/jsonshape"
)

type Hooks struct {
	derived    *prometheus.CounterVec
	registered prometheus.Counter
	failed     *prometheus.CounterVec
	hits       prometheus.Counter
	took       prometheus.Histogram
}

var _ jsonshape.Hooks = (*Hooks)(nil)

// New creates the collectors and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer, namespace string) *Hooks {
	h := &Hooks{
		derived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jsonshape",
			Name:      "adapters_derived_total",
			Help:      "Adapters derived, by root type.",
		}, []string{"type"}),
		registered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jsonshape",
			Name:      "adapters_registered_total",
			Help:      "Precomputed adapters registered.",
		}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jsonshape",
			Name:      "derivation_failures_total",
			Help:      "Failed derivations, by root type.",
		}, []string{"type"}),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jsonshape",
			Name:      "cache_hits_total",
			Help:      "Adapter lookups served from the cache.",
		}),
		took: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jsonshape",
			Name:      "derivation_seconds",
			Help:      "Time spent deriving an adapter graph.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(h.derived, h.registered, h.failed, h.hits, h.took)
	}
	return h
}

func (h *Hooks) AdapterDerived(typ string, took time.Duration) {
	h.derived.WithLabelValues(typ).Inc()
	h.took.Observe(took.Seconds())
}

func (h *Hooks) AdapterRegistered(string) { h.registered.Inc() }

func (h *Hooks) DerivationFailed(typ string, _ error) {
	h.failed.WithLabelValues(typ).Inc()
}

func (h *Hooks) CacheHit(string) { h.hits.Inc() }
