// Package store keeps typed documents in a provider.Provider.
//
// Each document is encoded by a codec.Codec, framed in a small envelope that
// records the codec's format, and written under "doc:<namespace>:<id>".
// Reads that find a corrupt envelope, a payload written by a different
// format, or a payload the codec rejects delete the key and report a miss.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unkn0wn-root/jsonshape"
	"github.com/unkn0wn-root/jsonshape/codec"
	"github.com/unkn0wn-root/jsonshape/internal/util"
	"github.com/unkn0wn-root/jsonshape/internal/wire"
	pr "github.com/unkn0wn-root/jsonshape/provider"
)

const defaultTTL = 10 * time.Minute

// CostFunc reports the cost passed to Provider.Set for one document.
type CostFunc func(id string, payload []byte) int64

type Options[V any] struct {
	// Required
	Namespace string // e.g. "user", "order"; must not contain ':'
	Provider  pr.Provider
	Codec     codec.Codec[V]

	Logger      jsonshape.Logger // if nil, NopLogger is used
	DefaultTTL  time.Duration    // 0 => 10m; < 0 => no expiry
	ComputeCost CostFunc         // default: envelope size
}

type Store[V any] struct {
	ns       string
	provider pr.Provider
	codec    codec.Codec[V]
	format   byte
	log      jsonshape.Logger
	ttl      time.Duration
	cost     CostFunc
}

func New[V any](opts Options[V]) (*Store[V], error) {
	if opts.Provider == nil {
		return nil, errors.New("store: provider is required")
	}
	if opts.Codec == nil {
		return nil, errors.New("store: codec is required")
	}
	if opts.Namespace == "" {
		return nil, errors.New("store: namespace is required")
	}
	if strings.Contains(opts.Namespace, ":") {
		return nil, fmt.Errorf("store: namespace %q contains ':'", opts.Namespace)
	}

	s := &Store[V]{
		ns:       opts.Namespace,
		provider: opts.Provider,
		codec:    opts.Codec,
		log:      opts.Logger,
		ttl:      opts.DefaultTTL,
		cost:     opts.ComputeCost,
	}
	if s.log == nil {
		s.log = jsonshape.NopLogger{}
	}
	if s.ttl == 0 {
		s.ttl = defaultTTL
	}
	if s.cost == nil {
		s.cost = func(_ string, payload []byte) int64 { return int64(len(payload)) }
	}
	if f, ok := opts.Codec.(interface{ FormatID() codec.FormatID }); ok {
		s.format = byte(f.FormatID())
	}
	return s, nil
}

func (s *Store[V]) key(id string) string { return util.DocKey(s.ns, id) }

// Get returns the document stored under id. ok is false on a miss.
func (s *Store[V]) Get(ctx context.Context, id string) (V, bool, error) {
	var zero V
	k := s.key(id)
	raw, ok, err := s.provider.Get(ctx, k)
	if err != nil || !ok {
		return zero, false, err
	}

	format, payload, err := wire.Decode(raw)
	if err != nil {
		s.heal(ctx, k, id, "corrupt envelope")
		return zero, false, nil
	}
	if s.format != 0 && format != s.format {
		s.heal(ctx, k, id, "format mismatch")
		return zero, false, nil
	}
	v, err := s.codec.Decode(payload)
	if err != nil {
		s.heal(ctx, k, id, "decode failed: "+err.Error())
		return zero, false, nil
	}
	return v, true, nil
}

func (s *Store[V]) heal(ctx context.Context, k, id, reason string) {
	if err := s.provider.Del(ctx, k); err != nil {
		s.log.Warn("self-heal delete failed", jsonshape.Fields{"ns": s.ns, "id": id, "err": err.Error()})
		return
	}
	s.log.Debug("self-heal", jsonshape.Fields{"ns": s.ns, "id": id, "reason": reason})
}

// Set stores v under id with the default TTL.
func (s *Store[V]) Set(ctx context.Context, id string, v V) error {
	return s.SetTTL(ctx, id, v, 0)
}

// SetTTL stores v under id. ttl 0 uses the default; ttl < 0 never expires.
func (s *Store[V]) SetTTL(ctx context.Context, id string, v V, ttl time.Duration) error {
	if ttl == 0 {
		ttl = s.ttl
	}
	if ttl < 0 {
		ttl = 0
	}
	payload, err := s.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("store: encode %s/%s: %w", s.ns, id, err)
	}
	env := wire.Encode(s.format, payload)
	ok, err := s.provider.Set(ctx, s.key(id), env, s.cost(id, env), ttl)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Debug("set rejected by provider (pressure)", jsonshape.Fields{"ns": s.ns, "id": id})
	}
	return nil
}

func (s *Store[V]) Delete(ctx context.Context, id string) error {
	return s.provider.Del(ctx, s.key(id))
}

// ErrPurgeUnsupported is returned by Purge when the provider cannot drop keys
// by prefix.
var ErrPurgeUnsupported = errors.New("store: provider does not support purge")

// Purge removes every document in the store's namespace.
func (s *Store[V]) Purge(ctx context.Context) error {
	pp, ok := s.provider.(pr.Purger)
	if !ok {
		return ErrPurgeUnsupported
	}
	if err := pp.Purge(ctx, util.DocPrefix(s.ns)); err != nil {
		return fmt.Errorf("store: purge %s: %w", s.ns, err)
	}
	s.log.Info("namespace purged", jsonshape.Fields{"ns": s.ns})
	return nil
}

// Close closes the provider.
func (s *Store[V]) Close(ctx context.Context) error {
	return s.provider.Close(ctx)
}
