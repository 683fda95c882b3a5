package bigcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/jsonshape/provider"
	"github.com/unkn0wn-root/jsonshape/provider/providertest"
)

func TestBigcacheProvider(t *testing.T) {
	providertest.Run(t, providertest.Suite{
		New: func(t *testing.T) provider.Provider {
			p, err := New(Config{LifeWindow: time.Minute, Shards: 16, MaxEntrySize: 512})
			require.NoError(t, err)
			t.Cleanup(func() { _ = p.Close(context.Background()) })
			return p
		},
	})
}

func TestBigcacheRequiresLifeWindow(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
