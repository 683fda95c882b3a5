package jsonshape

import "time"

// Hooks are lightweight callbacks for registry events.
// Implementations MUST be cheap and non-blocking; CacheHit runs on every
// adapter lookup.
type Hooks interface {
	// An adapter was derived for typ (and its not-yet-cached dependencies).
	AdapterDerived(typ string, took time.Duration)

	// A precomputed adapter for typ was registered.
	AdapterRegistered(typ string)

	// Derivation for typ failed. The failure is cached.
	DerivationFailed(typ string, err error)

	// A lookup was served from the cache.
	CacheHit(typ string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) AdapterDerived(string, time.Duration) {}
func (NopHooks) AdapterRegistered(string)             {}
func (NopHooks) DerivationFailed(string, error)       {}
func (NopHooks) CacheHit(string)                      {}
