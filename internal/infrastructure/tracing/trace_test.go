package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTracer(t *testing.T) *Tracer {
	t.Helper()
	tracer := New("bridge-test", zap.NewNop())
	t.Cleanup(tracer.Close)
	return tracer
}

func TestStartSpanNewTrace(t *testing.T) {
	tracer := newTracer(t)

	span, ctx := tracer.StartSpan(context.Background(), "op")
	require.NotEmpty(t, span.TraceID)
	assert.Empty(t, span.ParentID)
	assert.Equal(t, span.TraceID, GetTraceID(ctx))
	assert.Equal(t, span.SpanID, GetSpanID(ctx))
}

func TestStartSpanChild(t *testing.T) {
	tracer := newTracer(t)

	parent, ctx := tracer.StartSpan(context.Background(), "parent")
	child, _ := tracer.StartSpan(ctx, "child")

	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.NotEqual(t, parent.SpanID, child.SpanID)
}

func TestInjectExtractRoundTrip(t *testing.T) {
	tracer := newTracer(t)
	span, ctx := tracer.StartSpan(context.Background(), "op")

	headers := make(map[string]string)
	InjectTraceContext(ctx, headers)

	traceID, spanID := ExtractTraceContext(headers)
	assert.Equal(t, span.TraceID, traceID)
	assert.Equal(t, span.SpanID, spanID)
}

func TestHTTPMiddlewarePropagation(t *testing.T) {
	tracer := newTracer(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))

	var seenTrace TraceID
	router.GET("/session", func(c *gin.Context) {
		seenTrace = GetTraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.Header.Set(TraceIDHeader, "trace-abc")
	req.Header.Set(SpanIDHeader, "span-parent")
	router.ServeHTTP(w, req)

	assert.Equal(t, TraceID("trace-abc"), seenTrace)
	assert.Equal(t, "trace-abc", w.Header().Get(TraceIDHeader))
	assert.NotEmpty(t, w.Header().Get(SpanIDHeader))
}
