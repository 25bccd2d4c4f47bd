package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	apperrors "smartstorage/pkg/errors"
	"smartstorage/pkg/logger"
)

// guardedWriter drops handler writes once the request has timed out, so a
// late handler cannot append to the timeout body.
type guardedWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	expired  bool
	answered bool
}

func (g *guardedWriter) WriteHeader(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.expired || g.answered {
		return
	}
	g.answered = true
	g.ResponseWriter.WriteHeader(code)
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.expired {
		return 0, http.ErrHandlerTimeout
	}
	g.answered = true
	return g.ResponseWriter.Write(b)
}

// expire marks the request timed out and reports whether nothing had been
// written yet.
func (g *guardedWriter) expire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expired = true
	return !g.answered
}

// RequestTimeout bounds each admin request. A handler still running at the
// deadline gets a cancelled context and the client gets 503 TIMEOUT.
func RequestTimeout(timeout time.Duration, log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Component(component)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			r = r.WithContext(ctx)

			gw := &guardedWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(gw, r)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if !gw.expire() {
					return
				}
				log.Warn("Admin request timed out",
					"request_id", RequestID(r),
					"kind", requestKind(r),
					"path", r.URL.Path,
					"timeout", timeout,
				)
				reject(w, apperrors.New(apperrors.CodeTimeout, "locker controller did not answer in time", http.StatusServiceUnavailable))
			}
		})
	}
}
