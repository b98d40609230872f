package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger logs one line per request and attaches a request-scoped
// logger to the context.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := log.With().
			Str("requestId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			var e *zerolog.Event
			switch {
			case status >= 500:
				e = logger.Error()
			case status >= 400:
				e = logger.Warn()
			default:
				e = logger.Debug()
			}
			e.Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("request handled")
		}()

		next.ServeHTTP(ww, r)
	})
}
