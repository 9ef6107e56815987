package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/perishables/internal/infrastructure/logger"
	"github.com/erp/perishables/internal/infrastructure/telemetry"
	"github.com/erp/perishables/internal/infrastructure/telemetry/telemetrytest"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedRouter(t *testing.T, assignIDs bool) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	router := gin.New()
	if assignIDs {
		router.Use(logger.RequestID())
	}
	router.Use(Tracing("lotes-test", tp)...)
	router.GET("/batches/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return router, sr
}

func TestTracing(t *testing.T) {
	t.Run("span per request tagged with the request id", func(t *testing.T) {
		router, sr := newTracedRouter(t, true)

		req := httptest.NewRequest(http.MethodGet, "/batches/42", nil)
		req.Header.Set(logger.RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Contains(t, spans[0].Name(), "/batches/:id")
		assert.Contains(t, spans[0].Attributes(), attribute.String("request_id", "req-123"))
	})

	t.Run("oversized raw request ids are truncated", func(t *testing.T) {
		router, sr := newTracedRouter(t, false)

		long := strings.Repeat("x", MaxRequestIDLength+50)
		req := httptest.NewRequest(http.MethodGet, "/batches/1", nil)
		req.Header.Set(logger.RequestIDHeader, long)
		router.ServeHTTP(httptest.NewRecorder(), req)

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Contains(t, spans[0].Attributes(), attribute.String("request_id", long[:MaxRequestIDLength]))
	})
}

func TestHTTPMetrics(t *testing.T) {
	meter, reader := telemetrytest.NewMeter(t)
	mw, err := HTTPMetrics(meter)
	require.NoError(t, err)

	router := gin.New()
	router.Use(mw)
	router.GET("/batches/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, path := range []string{"/batches/1", "/batches/2", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, int64(2), reader.Int64("http_requests_total",
		telemetry.AttrHTTPRoute.String("/batches/:id"),
		telemetry.AttrHTTPStatus.String("200"),
	))
	assert.Equal(t, int64(1), reader.Int64("http_requests_total",
		telemetry.AttrHTTPRoute.String("unmatched"),
		telemetry.AttrHTTPStatus.String("404"),
	))
	assert.Equal(t, uint64(3), reader.Count("http_request_duration_seconds"))
}
