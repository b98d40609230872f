package bridge

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/resbox/resbox-core/internal/backend"
	apperrors "github.com/resbox/resbox-core/internal/errors"
	"github.com/resbox/resbox-core/internal/model"
	"github.com/resbox/resbox-core/internal/sse"
)

// eventPayload is the wire form of an orchestrator event. Tokens are never
// published.
type eventPayload struct {
	UserID   string              `json:"userId,omitempty"`
	Method   string              `json:"method,omitempty"`
	Command  string              `json:"command,omitempty"`
	Resource string              `json:"resource,omitempty"`
	Info     *model.UserInfo     `json:"info,omitempty"`
	Error    *apperrors.AppError `json:"error,omitempty"`
}

func payloadOf(ev backend.Event) eventPayload {
	switch e := ev.(type) {
	case backend.LoggedIn:
		return eventPayload{UserID: e.UserID}
	case backend.LoginFailed:
		return eventPayload{Error: wireError(e.Err)}
	case backend.PreviousTokenInvalid:
		return eventPayload{Error: wireError(e.Err)}
	case backend.HubConnectFailed:
		return eventPayload{Error: wireError(e.Err)}
	case backend.HubRequestFailed:
		return eventPayload{Method: e.Method, Error: wireError(e.Err)}
	case backend.HubUninitialized:
		return eventPayload{Command: e.Command, Error: apperrors.HubUninitialized()}
	case backend.UserInfoResponse:
		info := e.Info
		return eventPayload{UserID: e.UserID, Info: &info}
	case backend.FetchFailed:
		return eventPayload{Resource: e.Resource, Error: wireError(e.Err)}
	case backend.Crashed:
		return eventPayload{Error: wireError(e.Err)}
	default:
		return eventPayload{}
	}
}

func wireError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	return apperrors.Internal(err.Error())
}

func (b *Bridge) publish(ctx context.Context, ev backend.Event) {
	if b.deps.Publisher == nil {
		return
	}
	event, err := sse.NewEvent(ev.Name(), payloadOf(ev))
	if err != nil {
		log.Error().Err(err).Str("event", ev.Name()).Msg("failed to encode event")
		return
	}
	if err := b.deps.Publisher.Publish(ctx, Topic, event); err != nil {
		log.Warn().Err(err).Str("event", ev.Name()).Msg("failed to publish event")
	}
}
