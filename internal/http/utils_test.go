package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/internal/domain"
	"github.com/hookline/hookline/pkg/logger"
)

func TestWriteJSONError(t *testing.T) {
	testCases := []struct {
		name       string
		message    string
		statusCode int
	}{
		{
			name:       "bad_request",
			message:    "Bad request",
			statusCode: http.StatusBadRequest,
		},
		{
			name:       "unauthorized",
			message:    "Unauthorized access",
			statusCode: http.StatusUnauthorized,
		},
		{
			name:       "internal_server_error",
			message:    "Internal server error",
			statusCode: http.StatusInternalServerError,
		},
		{
			name:       "not_found",
			message:    "Resource not found",
			statusCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			WriteJSONError(w, tc.message, tc.statusCode)

			assert.Equal(t, tc.statusCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var response map[string]string
			err := json.NewDecoder(w.Body).Decode(&response)
			require.NoError(t, err)
			assert.Equal(t, tc.message, response["error"])
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"subscription": map[string]string{"id": "sub-1"},
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"subscription":{"id":"sub-1"}}`, w.Body.String())
}

func TestWriteServiceError(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		statusCode int
		message    string
	}{
		{
			name:       "validation_error",
			err:        &domain.ValidationError{Field: "to", Message: "destination is required"},
			statusCode: http.StatusBadRequest,
			message:    "invalid to: destination is required",
		},
		{
			name:       "wrapped_validation_error",
			err:        fmt.Errorf("creating: %w", &domain.ValidationError{Field: "when", Message: "unknown event kind"}),
			statusCode: http.StatusBadRequest,
			message:    "creating: invalid when: unknown event kind",
		},
		{
			name:       "not_found",
			err:        &domain.ErrNotFound{Entity: "subscription", ID: "sub-1"},
			statusCode: http.StatusNotFound,
			message:    "Subscription not found",
		},
		{
			name:       "other_errors_stay_opaque",
			err:        errors.New("pq: connection refused"),
			statusCode: http.StatusInternalServerError,
			message:    "Failed to create subscription",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			writeServiceError(w, logger.NewTestLogger(t), tc.err, "Subscription not found", "Failed to create subscription")

			assert.Equal(t, tc.statusCode, w.Code)

			var response map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tc.message, response["error"])
		})
	}
}

func TestWriteJSONError_EncoderFailure(t *testing.T) {
	w := &failingResponseWriter{
		ResponseWriter: httptest.NewRecorder(),
		failOnWrite:    true,
	}

	// Must not panic when the client went away mid-response.
	WriteJSONError(w, "Test message", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, w.status)
	assert.Equal(t, "application/json", w.headers.Get("Content-Type"))
}

// A response writer that can be made to fail during Write
type failingResponseWriter struct {
	ResponseWriter http.ResponseWriter
	failOnWrite    bool
	status         int
	headers        http.Header
}

func (f *failingResponseWriter) Header() http.Header {
	if f.headers == nil {
		f.headers = make(http.Header)
	}
	return f.headers
}

func (f *failingResponseWriter) Write(b []byte) (int, error) {
	if f.failOnWrite {
		return 0, assert.AnError
	}
	return f.ResponseWriter.Write(b)
}

func (f *failingResponseWriter) WriteHeader(statusCode int) {
	f.status = statusCode
	f.ResponseWriter.WriteHeader(statusCode)
}
