package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/jsonshape/provider"
	"github.com/unkn0wn-root/jsonshape/provider/providertest"
)

// Set JSONSHAPE_REDIS_ADDR (e.g. localhost:6379) to run against a server.
func TestRedisProvider(t *testing.T) {
	addr := os.Getenv("JSONSHAPE_REDIS_ADDR")
	if addr == "" {
		t.Skip("JSONSHAPE_REDIS_ADDR not set")
	}
	providertest.Run(t, providertest.Suite{
		New: func(t *testing.T) provider.Provider {
			client := goredis.NewClient(&goredis.Options{Addr: addr})
			require.NoError(t, client.FlushDB(context.Background()).Err())
			p, err := New(Config{Client: client, CloseClient: true})
			require.NoError(t, err)
			t.Cleanup(func() { _ = p.Close(context.Background()) })
			return p
		},
		Expire: func(_ provider.Provider, ttl time.Duration) {
			time.Sleep(ttl + 50*time.Millisecond)
		},
	})
}

func TestRedisPurge(t *testing.T) {
	addr := os.Getenv("JSONSHAPE_REDIS_ADDR")
	if addr == "" {
		t.Skip("JSONSHAPE_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	require.NoError(t, client.FlushDB(ctx).Err())
	p, err := New(Config{Client: client, KeyPrefix: "app:", ScanCount: 2, CloseClient: true})
	require.NoError(t, err)
	defer p.Close(ctx) //nolint:errcheck

	for _, k := range []string{"doc:u*:1", "doc:u*:2", "doc:u*:3", "doc:us:1", "doc:users:1"} {
		_, err := p.Set(ctx, k, []byte(k), 0, 0)
		require.NoError(t, err)
	}
	raw, err := client.Get(ctx, "app:doc:us:1").Bytes()
	require.NoError(t, err)
	assert.Equal(t, "doc:us:1", string(raw))

	require.NoError(t, p.Purge(ctx, "doc:u*:"))
	for k, want := range map[string]bool{"doc:u*:1": false, "doc:u*:3": false, "doc:us:1": true, "doc:users:1": true} {
		_, ok, err := p.Get(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, want, ok, k)
	}
}

func TestMatchPattern(t *testing.T) {
	for in, want := range map[string]string{
		"doc:user:":    "doc:user:*",
		"doc:u*:":      `doc:u\*:*`,
		"app:doc:[x]?": `app:doc:\[x\]\?*`,
		`a\b`:          `a\\b*`,
		"":             "*",
	} {
		assert.Equal(t, want, matchPattern(in), in)
	}
}

func TestRedisKeyPrefix(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	p, err := New(Config{Client: client, KeyPrefix: "billing:"})
	require.NoError(t, err)
	assert.Equal(t, "billing:doc:user:1", p.key("doc:user:1"))
	assert.Equal(t, int64(defaultScanCount), p.scanCount)
}

func TestRedisNilClient(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestRedisCloseNotOwned(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	p, err := New(Config{Client: client})
	require.NoError(t, err)
	assert.NoError(t, p.Close(context.Background()))
	assert.NoError(t, p.Close(context.Background()))
}
