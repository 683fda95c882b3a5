// Package providertest runs the provider contract against an implementation.
package providertest

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/jsonshape/provider"
)

// Suite describes the store under test.
type Suite struct {
	New func(t *testing.T) provider.Provider
	// Settle is called after writes; buffered stores flush here.
	Settle func(p provider.Provider)
	// Expire advances time past ttl. Nil skips TTL checks.
	Expire func(p provider.Provider, ttl time.Duration)
}

func (s Suite) settle(p provider.Provider) {
	if s.Settle != nil {
		s.Settle(p)
	}
}

func Run(t *testing.T, s Suite) {
	t.Run("miss", func(t *testing.T) {
		p := s.New(t)
		b, ok, err := p.Get(context.Background(), "absent")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, b)
	})

	t.Run("transparent", func(t *testing.T) {
		p := s.New(t)
		ctx := context.Background()
		payloads := [][]byte{
			[]byte(`{"id":1}`),
			{0x00, 0xff, 0x00},
			bytes.Repeat([]byte("x"), 4096),
		}
		for i, want := range payloads {
			key := string(rune('a' + i))
			ok, err := p.Set(ctx, key, want, int64(len(want)), 0)
			require.NoError(t, err)
			require.True(t, ok)
			s.settle(p)

			got, hit, err := p.Get(ctx, key)
			require.NoError(t, err)
			require.True(t, hit, key)
			assert.Equal(t, want, got)
		}
	})

	t.Run("overwrite_and_delete", func(t *testing.T) {
		p := s.New(t)
		ctx := context.Background()
		_, err := p.Set(ctx, "k", []byte("one"), 3, 0)
		require.NoError(t, err)
		s.settle(p)
		_, err = p.Set(ctx, "k", []byte("two"), 3, 0)
		require.NoError(t, err)
		s.settle(p)

		got, ok, err := p.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("two"), got)

		require.NoError(t, p.Del(ctx, "k"))
		s.settle(p)
		_, ok, err = p.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)

		// deleting a missing key is not an error
		assert.NoError(t, p.Del(ctx, "k"))
	})

	if s.Expire != nil {
		t.Run("ttl", func(t *testing.T) {
			p := s.New(t)
			ctx := context.Background()
			_, err := p.Set(ctx, "short", []byte("v"), 1, 50*time.Millisecond)
			require.NoError(t, err)
			_, err = p.Set(ctx, "forever", []byte("v"), 1, 0)
			require.NoError(t, err)
			s.settle(p)

			s.Expire(p, 50*time.Millisecond)
			_, ok, err := p.Get(ctx, "short")
			require.NoError(t, err)
			assert.False(t, ok)
			_, ok, err = p.Get(ctx, "forever")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}
