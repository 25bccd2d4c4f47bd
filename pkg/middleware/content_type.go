package middleware

import (
	"mime"
	"net/http"

	apperrors "smartstorage/pkg/errors"
	"smartstorage/pkg/logger"
)

// ContentTypeValidation requires command bodies, such as a signal
// injection, to be JSON. Reads and empty bodies pass.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Component(component)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isCommand(r) || r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				log.Warn("Rejected command with non-JSON body",
					"request_id", RequestID(r),
					"content_type", r.Header.Get("Content-Type"),
					"path", r.URL.Path,
				)
				reject(w, apperrors.New(apperrors.CodeInvalidInput, "commands must be sent as application/json", http.StatusUnsupportedMediaType).
					WithDetails(map[string]any{"content_type": r.Header.Get("Content-Type")}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
