package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("smtp: connection refused")

	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Locker"), CodeNotFound, http.StatusNotFound},
		{"invalid input", InvalidInput("unknown signal"), CodeInvalidInput, http.StatusBadRequest},
		{"internal", Internal("boom", cause), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("no user detected"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("MongoDB"), CodeUnavailable, http.StatusServiceUnavailable},
		{"denied", Denied("unrecognized user"), CodeDenied, http.StatusForbidden},
		{"no locker", NoLockerAvailable(), CodeNoLockerAvailable, http.StatusConflict},
		{"configuration", Configuration("resident missing", cause), CodeConfiguration, http.StatusInternalServerError},
		{"notification", NotificationFailure(cause), CodeNotificationFailure, http.StatusBadGateway},
		{"invalid state", InvalidState("locker is available"), CodeInvalidState, http.StatusConflict},
		{"unknown user", UnknownUser("Mallory"), CodeUnknownUser, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
			if tt.err.Message == "" {
				t.Errorf("message should not be empty")
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   Denied("unrecognized user"),
			expected: "DENIED: unrecognized user",
		},
		{
			name:     "with underlying error",
			appErr:   Configuration("locker 9 has no channel", errors.New("unmapped")),
			expected: "CONFIGURATION_ERROR: locker 9 has no channel (caused by: unmapped)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	appErr := NotificationFailure(cause)

	if !errors.Is(appErr, cause) {
		t.Errorf("errors.Is should find the cause through Unwrap")
	}
}

func TestIsAppError_WrappedChain(t *testing.T) {
	wrapped := fmt.Errorf("allocate: %w", NoLockerAvailable())

	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should see through fmt.Errorf wrapping")
	}
	if IsAppError(errors.New("plain")) {
		t.Errorf("IsAppError() should return false for a plain error")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := UnknownUser("Mallory")

	if got := AsAppError(fmt.Errorf("classify: %w", appErr)); got != appErr {
		t.Errorf("AsAppError() should return the wrapped AppError")
	}

	plain := errors.New("regular error")
	got := AsAppError(plain)
	if got.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap a plain error as internal, got %s", got.Code)
	}
	if got.Err != plain {
		t.Errorf("AsAppError() should keep the original error")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("session: %w", Configuration("missing resident", nil))

	if !HasCode(err, CodeConfiguration) {
		t.Errorf("HasCode() should match CONFIGURATION_ERROR")
	}
	if HasCode(err, CodeTimeout) {
		t.Errorf("HasCode() should not match TIMEOUT")
	}
	if HasCode(errors.New("plain"), CodeConfiguration) {
		t.Errorf("HasCode() should be false for a plain error")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	body := string(UnknownUser("Mallory").ToJSON())

	if !strings.Contains(body, `"code":"UNKNOWN_USER"`) {
		t.Errorf("ToJSON() should contain the code, got %s", body)
	}
	if !strings.Contains(body, `"identity":"Mallory"`) {
		t.Errorf("ToJSON() should contain details, got %s", body)
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := NotFound("Locker").WithDetails(map[string]any{"locker_id": 9})

	if err.Details["locker_id"] != 9 {
		t.Errorf("expected locker_id 9, got %v", err.Details["locker_id"])
	}
}
