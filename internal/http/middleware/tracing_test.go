package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opencensus.io/trace"
)

func TestTracingMiddleware(t *testing.T) {
	handler := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotNil(t, trace.FromContext(r.Context()), "expected a span on the request context")
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/delivery.status", nil)
	req.Header.Set("User-Agent", "hookline-test")
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracingMiddleware_PropagatesErrorStatus(t *testing.T) {
	handler := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	req := httptest.NewRequest("GET", "/api/delivery.status", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTraceResponseWriter(t *testing.T) {
	recorder := httptest.NewRecorder()
	ctx, span := trace.StartSpan(context.Background(), "test-span")
	defer span.End()

	w := &traceResponseWriter{ResponseWriter: recorder, ctx: ctx}
	w.WriteHeader(http.StatusBadRequest)
	_, err := w.Write([]byte("bad input"))

	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, w.statusCode)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "bad input", recorder.Body.String())
}
