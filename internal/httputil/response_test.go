package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/resbox/resbox-core/internal/errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     apperrors.ErrorCode
		category apperrors.Category
	}{
		{"invalid input", apperrors.InvalidInput("query", "empty"), http.StatusBadRequest, apperrors.ErrCodeInvalidInput, apperrors.CategoryPrecondition},
		{"credentials", apperrors.InvalidCredentials(), http.StatusUnauthorized, apperrors.ErrCodeInvalidCredentials, apperrors.CategoryAuthentication},
		{"no results", apperrors.NoResults(), http.StatusNotFound, apperrors.ErrCodeNoResults, apperrors.CategoryPrecondition},
		{"login in flight", apperrors.LoginInFlight(), http.StatusConflict, apperrors.ErrCodeLoginInFlight, apperrors.CategoryPrecondition},
		{"rate limited", apperrors.RateLimitExceeded(), http.StatusTooManyRequests, apperrors.ErrCodeRateLimited, apperrors.CategoryPrecondition},
		{"upstream", apperrors.RequestFailed(errors.New("eof")), http.StatusBadGateway, apperrors.ErrCodeRequestFailed, apperrors.CategoryTransport},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, apperrors.ErrCodeInternal, apperrors.CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.category, body.Category)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Query string `json:"query"`
	}

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"query":"bob"}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, "bob", dst.Query)

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"other":1}`))
	err := DecodeJSON(req, &dst)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))
}
