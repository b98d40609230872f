package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestBearerAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		setup  func(r *http.Request)
		status int
	}{
		{"disabled without token", "", func(r *http.Request) {}, http.StatusNoContent},
		{"missing token", "s3cret", func(r *http.Request) {}, http.StatusUnauthorized},
		{"wrong token", "s3cret", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"header token", "s3cret", func(r *http.Request) { r.Header.Set("Authorization", "Bearer s3cret") }, http.StatusNoContent},
		{"query token", "s3cret", func(r *http.Request) { r.URL.RawQuery = "token=s3cret" }, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewBearerAuthMiddleware(tt.token).Handler(okHandler())
			req := httptest.NewRequest("GET", "/v1/state", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestBodyLimitMiddleware(t *testing.T) {
	handler := NewBodyLimitMiddleware(8).Handler(okHandler())

	t.Run("rejects declared oversized body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/v1/messages", strings.NewReader("0123456789"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
	})

	t.Run("passes small body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/v1/messages", strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("default size", func(t *testing.T) {
		assert.Equal(t, int64(DefaultMaxBodySize), NewBodyLimitMiddleware(0).maxSize)
	})
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
