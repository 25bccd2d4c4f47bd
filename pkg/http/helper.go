package http

import (
	"net/http"
	"strconv"

	apperrors "smartstorage/pkg/errors"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ExtractLimit reads the limit query parameter. Missing or non-positive
// values fall back to DefaultLimit and large ones are capped at MaxLimit.
func ExtractLimit(r *http.Request) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return DefaultLimit, nil
	}
	limit, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid limit parameter: " + s)
	}
	switch {
	case limit <= 0:
		return DefaultLimit, nil
	case limit > MaxLimit:
		return MaxLimit, nil
	}
	return limit, nil
}
