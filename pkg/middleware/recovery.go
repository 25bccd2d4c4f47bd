package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "smartstorage/pkg/errors"
	"smartstorage/pkg/logger"
)

// Recovery turns a handler panic into 500 INTERNAL_ERROR.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Component(component)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				log.Error("Admin handler panicked",
					"request_id", RequestID(r),
					"kind", requestKind(r),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				reject(w, apperrors.Internal("admin request failed", fmt.Errorf("panic: %v", rec)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
