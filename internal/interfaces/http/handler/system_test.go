package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/perishables/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err   error
	calls int
}

func (p *stubPinger) Ping(_ context.Context) error {
	p.calls++
	return p.err
}

func serveSystem(h *SystemHandler, fn gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/system", nil)
	fn(c)
	return w
}

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("lotes", "1.2.0", nil)
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("lotes", "1.2.0", nil)

	w := serveSystem(h, h.GetSystemInfo)

	require.Equal(t, http.StatusOK, w.Code)
	var info SystemInfoResponse
	decodeData(t, w, &info)
	assert.Equal(t, "lotes", info.Name)
	assert.Equal(t, "1.2.0", info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.Uptime)
}

func TestSystemHandler_Ping(t *testing.T) {
	h := NewSystemHandler("lotes", "1.2.0", nil)

	w := serveSystem(h, h.Ping)

	require.Equal(t, http.StatusOK, w.Code)
	var pong PingResponse
	decodeData(t, w, &pong)
	assert.Equal(t, "pong", pong.Message)
	assert.NotEmpty(t, pong.Timestamp)
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("database up", func(t *testing.T) {
		db := &stubPinger{}
		h := NewSystemHandler("lotes", "1.2.0", db)

		w := serveSystem(h, h.Health)

		require.Equal(t, http.StatusOK, w.Code)
		var health HealthResponse
		decodeData(t, w, &health)
		assert.Equal(t, "healthy", health.Status)
		assert.Equal(t, "up", health.Database)
		assert.Equal(t, 1, db.calls)
	})

	t.Run("database down", func(t *testing.T) {
		h := NewSystemHandler("lotes", "1.2.0", &stubPinger{err: errors.New("dial tcp: connection refused")})

		w := serveSystem(h, h.Health)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, RetryAfterSeconds, w.Header().Get("Retry-After"))
		resp := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeUnavailable, resp.Error.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})

	t.Run("no database configured", func(t *testing.T) {
		h := NewSystemHandler("lotes", "1.2.0", nil)

		w := serveSystem(h, h.Health)

		require.Equal(t, http.StatusOK, w.Code)
		var health HealthResponse
		decodeData(t, w, &health)
		assert.Equal(t, "unchecked", health.Database)
	})

	t.Run("cache up", func(t *testing.T) {
		cache := &stubPinger{}
		h := NewSystemHandler("lotes", "1.2.0", &stubPinger{}).WithCache(cache)

		w := serveSystem(h, h.Health)

		require.Equal(t, http.StatusOK, w.Code)
		var health HealthResponse
		decodeData(t, w, &health)
		assert.Equal(t, "up", health.Cache)
		assert.Equal(t, 1, cache.calls)
	})

	t.Run("cache down", func(t *testing.T) {
		h := NewSystemHandler("lotes", "1.2.0", &stubPinger{}).
			WithCache(&stubPinger{err: errors.New("redis: connection pool timeout")})

		w := serveSystem(h, h.Health)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, decodeError(t, w).Error.Message, "cache")
	})
}
