package audit

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventLoginSuccess     EventType = "login_success"
	EventLoginFailure     EventType = "login_failure"
	EventTokenResume      EventType = "token_resume"
	EventTokenRejected    EventType = "token_rejected"
	EventCredentialStore  EventType = "credential_store"
	EventCredentialDelete EventType = "credential_delete"
	EventRateLimitExceed  EventType = "rate_limit_exceeded"
	EventAuthFailure      EventType = "auth_failure"
)

type Event struct {
	Type      EventType
	UserID    string
	Username  string
	RemoteIP  string
	UserAgent string
	Details   map[string]any
}

func Log(ctx context.Context, event Event) {
	logger := log.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &log.Logger
	}

	e := logger.Info().
		Str("audit", "security").
		Str("eventType", string(event.Type)).
		Time("timestamp", time.Now())

	if event.UserID != "" {
		e = e.Str("userId", event.UserID)
	}
	if event.Username != "" {
		e = e.Str("username", event.Username)
	}
	if event.RemoteIP != "" {
		e = e.Str("remoteIp", event.RemoteIP)
	}
	if event.UserAgent != "" {
		e = e.Str("userAgent", event.UserAgent)
	}

	for k, v := range event.Details {
		e = addField(e, k, v)
	}
	e.Msg("security audit event")
}

func addField(e *zerolog.Event, key string, value any) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	case error:
		return e.AnErr(key, v)
	default:
		return e.Interface(key, v)
	}
}

func LogFromRequest(r *http.Request, event Event) {
	event.RemoteIP = clientIP(r)
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}

// clientIP ignores forwarding headers; the control API only listens on loopback.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
