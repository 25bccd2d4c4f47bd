package middleware

import (
	"net/http"

	apperrors "smartstorage/pkg/errors"
)

// MaxRequestSize caps request bodies at limit bytes. Reads past the limit
// fail and the handler reports them as invalid input.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				reject(w, apperrors.New(apperrors.CodeInvalidInput, "request body too large", http.StatusRequestEntityTooLarge).
					WithDetails(map[string]any{"limit_bytes": limit}))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
