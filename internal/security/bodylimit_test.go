package security_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cartd/internal/security"
)

func TestBodyLimitPassesSmallPayloads(t *testing.T) {
	var captured string
	handler := security.BodyLimit{Max: 64}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	body := `{"id":"p1","name":"Kopi","price":"15000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/abc/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, body, captured)
}

func TestBodyLimitRejectsDeclaredOversize(t *testing.T) {
	handler := security.BodyLimit{Max: 8}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for an oversized request")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/abc/items", strings.NewReader("far too large a payload"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Contains(t, rec.Body.String(), "PAYLOAD_TOO_LARGE")
}

func TestBodyLimitCapsUndeclaredLength(t *testing.T) {
	var readErr error
	handler := security.BodyLimit{Max: 8}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/abc/items", strings.NewReader("far too large a payload"))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var maxErr *http.MaxBytesError
	require.True(t, errors.As(readErr, &maxErr), "reads past the cap must fail, got %v", readErr)
}

func TestBodyLimitDisabledWhenMaxUnset(t *testing.T) {
	handler := security.BodyLimit{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/abc/items", strings.NewReader(strings.Repeat("x", 4096)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
