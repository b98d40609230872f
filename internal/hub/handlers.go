package hub

import (
	"github.com/rs/zerolog/log"

	"github.com/resbox/resbox-core/internal/model"
	"github.com/resbox/resbox-core/internal/state"
)

// PushHandlers applies hub pushes to the shared caches.
type PushHandlers struct {
	state *state.AppState
	// OnMessages, when set, is called with every pushed message after it
	// has been merged.
	OnMessages func(msgs []model.Message)
}

func NewPushHandlers(st *state.AppState) *PushHandlers {
	return &PushHandlers{state: st}
}

// StatusUpdate re-indexes every cached session under the pushed salt
// before storing the status.
func (h *PushHandlers) StatusUpdate(status model.UserStatus) {
	if status.HashSalt != nil && *status.HashSalt != "" {
		h.state.HashLookup.Rebuild(h.state.Sessions.IDs(), *status.HashSalt)
	}
	h.state.Statuses.Put(status)
	h.state.MarkDirty()

	log.Debug().
		Str("userId", status.UserID).
		Str("onlineStatus", status.Online().String()).
		Msg("status update")
}

func (h *PushHandlers) SessionUpdate(session model.SessionInfo) {
	h.state.Sessions.Put(session)
	h.state.HashLookup.Index(session.SessionID, h.state.Statuses.Salts()...)
	h.state.MarkDirty()

	log.Debug().Str("sessionId", session.SessionID).Str("name", session.Name).Msg("session update")
}

func (h *PushHandlers) MessageReceived(msg model.Message) {
	h.mergeMessage(msg)
	log.Debug().Str("messageId", msg.ID).Str("peerId", state.PeerOf(msg)).Msg("message received")
}

func (h *PushHandlers) MessageSent(msg model.Message) {
	h.mergeMessage(msg)
	log.Debug().Str("messageId", msg.ID).Str("peerId", state.PeerOf(msg)).Msg("message sent")
}

func (h *PushHandlers) mergeMessage(msg model.Message) {
	batch := []model.Message{msg}
	h.state.Messages.Merge(batch)
	h.state.MarkDirty()
	if h.OnMessages != nil {
		h.OnMessages(batch)
	}
}

func (h *PushHandlers) ServerLog(text string) {
	log.Debug().Str("source", "hub").Msg(text)
}
