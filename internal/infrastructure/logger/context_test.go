package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContext(t *testing.T) {
	l := zap.NewExample()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}

func TestFromContext_Fallbacks(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	ctx := context.WithValue(context.Background(), loggerKey, "not a logger")
	assert.NotNil(t, FromContext(ctx))

	var nilLogger *zap.Logger
	ctx = WithContext(context.Background(), nilLogger)
	assert.NotNil(t, FromContext(ctx))
}

func TestWithRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, enriched := WithRequestID(context.Background(), zap.New(core), "req-123")
	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Same(t, enriched, FromContext(ctx))

	FromContext(ctx).Info("batch blocked")
	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "req-123", logs[0].ContextMap()["request_id"])
}

func TestGetRequestID_NotFound(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestL(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	t.Run("prefers the context logger", func(t *testing.T) {
		ctxCore, ctxRecorded := observer.New(zapcore.InfoLevel)
		ctx := WithContext(context.Background(), zap.New(ctxCore))

		L(ctx, base).Info("from context")
		assert.Equal(t, 1, ctxRecorded.Len())
		assert.Equal(t, 0, recorded.FilterMessage("from context").Len())
	})

	t.Run("falls back to base", func(t *testing.T) {
		L(context.Background(), base).Info("from base")
		assert.Equal(t, 1, recorded.FilterMessage("from base").Len())
	})

	t.Run("tags base with a bare request id", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), requestIDKey, "req-9")
		L(ctx, base).Info("tagged")

		logs := recorded.FilterMessage("tagged").All()
		require.Len(t, logs, 1)
		assert.Equal(t, "req-9", logs[0].ContextMap()["request_id"])
	})

	t.Run("nil base", func(t *testing.T) {
		assert.NotPanics(t, func() {
			L(context.Background(), nil).Info("dropped")
		})
	})
}
