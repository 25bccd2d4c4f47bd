package vision

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartstorage/pkg/model"
)

func sidecar(t *testing.T, path, body string, status int) *Sidecar {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, path, r.URL.Path)
		assert.Equal(t, contentTypeJPEG, r.Header.Get("Content-Type"))
		frame, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte("frame"), frame)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewSidecar(srv.URL, time.Second)
}

func TestSidecar_Identify(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   model.Identity
		wantOK bool
	}{
		{"resident", `{"kind":"resident","name":"Ming"}`, model.Resident("Ming"), true},
		{"carrier", `{"kind":"carrier"}`, model.Carrier(), true},
		{"unknown", `{"kind":"unknown"}`, model.Unknown(), true},
		{"no face", `{"kind":"none"}`, model.Identity{}, false},
		{"empty", `{}`, model.Identity{}, false},
		{"resident without name", `{"kind":"resident"}`, model.Unknown(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sidecar(t, pathIdentify, tt.body, http.StatusOK)

			got, ok, err := s.Identify(context.Background(), []byte("frame"))

			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSidecar_IdentifyErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		s := sidecar(t, pathIdentify, `{"message":"model not loaded"}`, http.StatusServiceUnavailable)
		_, _, err := s.Identify(context.Background(), []byte("frame"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model not loaded")
	})
	t.Run("unexpected kind", func(t *testing.T) {
		s := sidecar(t, pathIdentify, `{"kind":"robot"}`, http.StatusOK)
		_, _, err := s.Identify(context.Background(), []byte("frame"))
		assert.Error(t, err)
	})
}

func TestSidecar_Scan(t *testing.T) {
	s := sidecar(t, pathScan, `{"found":true,"tag":"3"}`, http.StatusOK)
	tag, ok, err := s.Scan(context.Background(), []byte("frame"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", tag)

	s = sidecar(t, pathScan, `{"found":false}`, http.StatusOK)
	_, ok, err = s.Scan(context.Background(), []byte("frame"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCamera_Capture(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", contentTypeJPEG)
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	frame, err := NewCamera(srv.URL+"/snapshot.jpg", time.Second).Capture(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), frame)
}

func TestCamera_CaptureFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewCamera(srv.URL, time.Second).Capture(context.Background())

	assert.Error(t, err)
}
