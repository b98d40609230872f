package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/resbox/resbox-core/internal/audit"
	apperrors "github.com/resbox/resbox-core/internal/errors"
	"github.com/resbox/resbox-core/internal/httputil"
	"github.com/resbox/resbox-core/internal/util"
)

// BearerAuthMiddleware guards the control API with a static token. An empty
// token disables the check.
type BearerAuthMiddleware struct {
	token string
}

func NewBearerAuthMiddleware(token string) *BearerAuthMiddleware {
	return &BearerAuthMiddleware{token: token}
}

func (m *BearerAuthMiddleware) Handler(next http.Handler) http.Handler {
	if m.token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			httputil.WriteError(w, apperrors.Unauthorized("Missing authentication token"))
			return
		}

		if !util.ConstantTimeEqual(token, m.token) {
			log.Warn().Str("path", r.URL.Path).Str("token", util.MaskSecret(token)).Msg("control API: invalid token attempt")
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventAuthFailure,
				Details: map[string]any{"path": r.URL.Path},
			})
			httputil.WriteError(w, apperrors.Unauthorized("Invalid token"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractToken accepts a query parameter because EventSource cannot set
// headers.
func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}
