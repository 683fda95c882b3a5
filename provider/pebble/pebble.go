// Package pebble is a persistent provider backed by cockroachdb/pebble.
//
// Pebble has no TTLs, so each value is stored behind an 8-byte big-endian
// expiry (unix nanoseconds, 0 = never). The header is stripped on Get and
// expired documents are deleted lazily when read.
package pebble

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/unkn0wn-root/jsonshape/provider"
)

var (
	ErrClosed  = errors.New("pebble provider: database is closed")
	ErrCorrupt = errors.New("pebble provider: value shorter than expiry header")
)

const expiryLen = 8

type Provider struct {
	db   *pebble.DB
	sync bool
	now  func() time.Time

	mu     sync.RWMutex
	closed bool
}

var (
	_ provider.Provider = (*Provider)(nil)
	_ provider.Purger   = (*Provider)(nil)
)

type Config struct {
	// Path of the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	// CacheSize of the block cache in bytes; 0 => 64 MiB.
	CacheSize int64
	// Sync fsyncs every write.
	Sync bool
	// Now overrides the clock (tests).
	Now func() time.Time
}

func New(cfg Config) (*Provider, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = 64 << 20
	}
	cache := pebble.NewCache(size)
	defer cache.Unref()

	opts := &pebble.Options{Cache: cache}
	path := cfg.Path
	if cfg.InMemory {
		opts.FS = vfs.NewMem()
		path = ""
	} else if path == "" {
		return nil, errors.New("pebble provider: empty path")
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{db: db, sync: cfg.Sync, now: now}, nil
}

func (p *Provider) writeOpts() *pebble.WriteOptions {
	if p.sync {
		return pebble.Sync
	}
	return pebble.NoSync
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, false, ErrClosed
	}

	raw, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	if len(raw) < expiryLen {
		return nil, false, ErrCorrupt
	}
	if exp := int64(binary.BigEndian.Uint64(raw)); exp != 0 && p.now().UnixNano() >= exp {
		_ = p.db.Delete([]byte(key), p.writeOpts())
		return nil, false, nil
	}

	// raw is only valid until closer.Close
	out := make([]byte, len(raw)-expiryLen)
	copy(out, raw[expiryLen:])
	return out, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false, ErrClosed
	}

	buf := make([]byte, expiryLen+len(value))
	if ttl > 0 {
		binary.BigEndian.PutUint64(buf, uint64(p.now().Add(ttl).UnixNano()))
	}
	copy(buf[expiryLen:], value)
	if err := p.db.Set([]byte(key), buf, p.writeOpts()); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	return p.db.Delete([]byte(key), p.writeOpts())
}

// Purge drops every key starting with prefix with a single range tombstone.
func (p *Provider) Purge(_ context.Context, prefix string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if prefix == "" {
		return errors.New("pebble provider: empty purge prefix")
	}
	end, ok := prefixEnd([]byte(prefix))
	if !ok {
		return errors.New("pebble provider: purge prefix has no upper bound")
	}
	return p.db.DeleteRange([]byte(prefix), end, p.writeOpts())
}

// prefixEnd returns the smallest key greater than every key with prefix b.
func prefixEnd(b []byte) ([]byte, bool) {
	end := append([]byte(nil), b...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1], true
		}
	}
	return nil, false
}

func (p *Provider) Close(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}
