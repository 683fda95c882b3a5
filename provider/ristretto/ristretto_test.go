package ristretto

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/jsonshape/provider"
	"github.com/unkn0wn-root/jsonshape/provider/providertest"
)

func TestRistrettoProvider(t *testing.T) {
	providertest.Run(t, providertest.Suite{
		New: func(t *testing.T) provider.Provider {
			p, err := New(DefaultConfig(1 << 20))
			require.NoError(t, err)
			t.Cleanup(func() { _ = p.Close(context.Background()) })
			return p
		},
		Settle: func(p provider.Provider) { p.(*Provider).Wait() },
		Expire: func(_ provider.Provider, ttl time.Duration) {
			time.Sleep(ttl + time.Second) // ristretto expires on one-second buckets
		},
	})
}

func TestRistrettoInvalidConfig(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
