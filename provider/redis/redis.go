// Package redis is a shared provider backed by redis/go-redis. Documents
// written through it are visible to every process using the same namespace.
//
// KeyPrefix isolates several applications sharing one logical database. Purge
// walks the keyspace with SCAN and UNLINKs matches in pipelined batches; on a
// cluster client every master is scanned.
package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/jsonshape/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

const defaultScanCount = 512

type Redis struct {
	rdb         goredis.UniversalClient
	prefix      string
	scanCount   int64
	closeClient bool
}

var (
	_ provider.Provider = (*Redis)(nil)
	_ provider.Purger   = (*Redis)(nil)
)

type Config struct {
	Client goredis.UniversalClient
	// KeyPrefix is prepended to every key, e.g. "billing:".
	KeyPrefix string
	// ScanCount is the COUNT hint per SCAN round in Purge; 0 => 512.
	ScanCount   int64
	CloseClient bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	n := cfg.ScanCount
	if n <= 0 {
		n = defaultScanCount
	}
	return &Redis{rdb: cfg.Client, prefix: cfg.KeyPrefix, scanCount: n, closeClient: cfg.CloseClient}, nil
}

func (p *Redis) key(k string) string { return p.prefix + k }

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, p.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0 // no expiry
	}
	if err := p.rdb.Set(ctx, p.key(key), value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, p.key(key)).Err()
}

// Purge removes every key starting with prefix. Keys written concurrently may
// survive; SCAN only guarantees keys present for the whole walk.
func (p *Redis) Purge(ctx context.Context, prefix string) error {
	match := matchPattern(p.key(prefix))
	if cc, ok := p.rdb.(*goredis.ClusterClient); ok {
		return cc.ForEachMaster(ctx, func(ctx context.Context, node *goredis.Client) error {
			return p.purgeNode(ctx, node, match)
		})
	}
	return p.purgeNode(ctx, p.rdb, match)
}

func (p *Redis) purgeNode(ctx context.Context, c goredis.Cmdable, match string) error {
	var cursor uint64
	for {
		keys, next, err := c.Scan(ctx, cursor, match, p.scanCount).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			// one UNLINK per key keeps cluster slots apart
			pipe := c.Pipeline()
			for _, k := range keys {
				pipe.Unlink(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// matchPattern escapes glob metacharacters in prefix and appends '*'.
func matchPattern(prefix string) string {
	var b strings.Builder
	b.Grow(len(prefix) + 1)
	for i := 0; i < len(prefix); i++ {
		switch c := prefix[i]; c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('*')
	return b.String()
}

// Close releases the client only when this provider owns it. Repeated calls
// are no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
