package zap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/jsonshape"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := ZapLogger{L: zap.New(core)}

	l.Warn("derivation failed", jsonshape.Fields{"type": "main.User", "err": errors.New("boom")})
	l.Debug("adapter derived", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "derivation failed", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "main.User", ctx["type"])
	assert.Equal(t, "boom", ctx["err"])
	assert.Empty(t, entries[1].Context)
}

func TestRegistryLogsThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := jsonshape.NewRegistry(jsonshape.Options{Logger: ZapLogger{L: zap.New(core)}, NoBuiltins: true})
	_, err := jsonshape.AdapterFor[[]int](r)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("adapter derived").Len())
}
