package utils

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffStopsOnSuccess(t *testing.T) {
	var calls int
	err := NewBackoff(time.Millisecond, 5).Do(func(int) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestBackoffExhaustsRetries(t *testing.T) {
	var calls int
	boom := errors.New("boom")
	err := NewBackoff(time.Millisecond, 2).Do(func(int) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	// intento inicial + 2 reintentos
	assert.Equal(t, 3, calls)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDsAreUnique(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r1 := httptest.NewRecorder()
	r2 := httptest.NewRecorder()
	h.ServeHTTP(r1, httptest.NewRequest(http.MethodGet, "/", nil))
	h.ServeHTTP(r2, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEqual(t, r1.Header().Get("X-Request-ID"), r2.Header().Get("X-Request-ID"))
}

func TestLoggerCapturesStatus(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRIDMissing(t *testing.T) {
	assert.Equal(t, "", RID(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
