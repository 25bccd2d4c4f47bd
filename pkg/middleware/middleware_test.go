package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "smartstorage/pkg/errors"
	"smartstorage/pkg/logger"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestRequestLogging_AttachesRequestID(t *testing.T) {
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lockers", nil))

	assert.Len(t, seen, 32)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRequestLogging_KeepsCallerRequestID(t *testing.T) {
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
	}))

	req := httptest.NewRequest(http.MethodPost, "/signals", nil)
	req.Header.Set(RequestIDHeader, "gpio-bridge-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "gpio-bridge-42", seen)
}

func TestRequestLogging_CommandsAtInfoStatusAtDebug(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogging(logger.New(logger.Config{Format: logger.TEXT, Output: &buf}))(noContent)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/session", nil))
	assert.Empty(t, buf.String())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/signals", nil))
	out := buf.String()
	assert.Contains(t, out, `msg="Admin command handled"`)
	assert.Contains(t, out, "component=admin-api")
	assert.Contains(t, out, "kind=command")
	assert.Contains(t, out, "status=204")
}

func TestRecovery_ReturnsInternalError(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperrors.CodeInternal, decode(t, rec).Code)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(logger.Discard())(noContent)

	tests := []struct {
		name        string
		body        string
		contentType string
		want        int
	}{
		{"json body", `{"signal":"doorbell"}`, "application/json; charset=utf-8", http.StatusNoContent},
		{"form body", "signal=doorbell", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"no body", "", "", http.StatusNoContent},
		{"malformed header", `{"signal":"close"}`, "application/", http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/signals", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnsupportedMediaType {
				resp := decode(t, rec)
				assert.Equal(t, apperrors.CodeInvalidInput, resp.Code)
				assert.Equal(t, tt.contentType, resp.Details["content_type"])
			}
		})
	}
}

func TestMaxRequestSize_RejectsLargeBody(t *testing.T) {
	h := MaxRequestSize(8)(noContent)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signals", strings.NewReader(`{"signal":"doorbell"}`)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidInput, decode(t, rec).Code)
}

func TestRequestTimeout_WritesTimeout(t *testing.T) {
	h := RequestTimeout(10*time.Millisecond, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, apperrors.CodeTimeout, decode(t, rec).Code)
}

func TestRequestTimeout_FastHandlerUntouched(t *testing.T) {
	h := RequestTimeout(time.Second, logger.Discard())(noContent)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signals", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, nil, logger.Discard())
	defer rl.Stop()

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	require.True(t, rl.Allow("10.0.0.7"))
	require.True(t, rl.Allow("10.0.0.7"))
	assert.False(t, rl.Allow("10.0.0.7"))
	assert.True(t, rl.Allow("10.0.0.8"), "buckets are per key")
	assert.True(t, rl.Allow(""), "empty key is never limited")

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("10.0.0.7"))
}

func TestRateLimit_Rejects(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, nil, logger.Discard())
	defer rl.Stop()
	h := RateLimit(rl)(noContent)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/signals", nil)
		req.RemoteAddr = "192.168.1.20:51234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestIsCommand(t *testing.T) {
	assert.False(t, isCommand(httptest.NewRequest(http.MethodGet, "/lockers", nil)))
	assert.True(t, isCommand(httptest.NewRequest(http.MethodPost, "/signals", nil)))
}

func TestClientAddress(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.20:51234"
	assert.Equal(t, "192.168.1.20", ClientAddress(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", ClientAddress(req))
}
