package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"smartstorage/pkg/logger"
	"smartstorage/pkg/metrics"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// RequestIDHeader lets a caller such as the GPIO bridge correlate its own
// logs with the controller's.
const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// RequestLogging tags each request with an id and logs its completion.
// Commands are logged at Info; the display's status polling only at Debug.
func RequestLogging(log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Component(component)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = newRequestID()
			}
			r = r.WithContext(context.WithValue(r.Context(), RequestIDKey, requestID))
			w.Header().Set(RequestIDHeader, requestID)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			metrics.RecordAPIRequest(requestKind(r), rec.status)

			attrs := []any{
				"request_id", requestID,
				"kind", requestKind(r),
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			switch {
			case rec.status >= http.StatusInternalServerError:
				log.Error("Admin request failed", attrs...)
			case isCommand(r):
				log.Info("Admin command handled", attrs...)
			default:
				log.Debug("Status request served", attrs...)
			}
		})
	}
}

// RequestID returns the id RequestLogging attached to r, or "".
func RequestID(r *http.Request) string {
	if id, ok := r.Context().Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func newRequestID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
