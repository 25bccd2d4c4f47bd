package middleware

import (
	"net/http"

	apperrors "smartstorage/pkg/errors"
)

const component = "admin-api"

// reject writes err as the admin API's JSON error body.
func reject(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode())
	_, _ = w.Write(err.ToJSON())
}

// isCommand reports whether r changes controller state, as opposed to the
// status reads the locker bank display polls.
func isCommand(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

func requestKind(r *http.Request) string {
	if isCommand(r) {
		return "command"
	}
	return "status"
}
