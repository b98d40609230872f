package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/resbox/resbox-core/internal/bridge"
	apperrors "github.com/resbox/resbox-core/internal/errors"
	"github.com/resbox/resbox-core/internal/httputil"
	"github.com/resbox/resbox-core/internal/state"
)

// StateHandler serves read-only views of the caches and the UI state.
type StateHandler struct {
	ui      UI
	state   *state.AppState
	archive ConversationArchive
}

// NewStateHandler accepts a nil archive.
func NewStateHandler(ui UI, st *state.AppState, archive ConversationArchive) *StateHandler {
	return &StateHandler{ui: ui, state: st, archive: archive}
}

type stateView struct {
	bridge.UIState
	DisplayName string `json:"displayName"`
}

func (h *StateHandler) GetState(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, stateView{
		UIState:     h.ui.Snapshot(),
		DisplayName: h.ui.DisplayName(),
	})
}

func (h *StateHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts := h.state.Contacts.List()
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"contacts": contacts,
		"total":    len(contacts),
	})
}

func (h *StateHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	peers := h.state.Messages.Peers()
	conversations := make([]map[string]any, 0, len(peers))
	for _, peer := range peers {
		msgs := h.state.Messages.Peer(peer)
		entry := map[string]any{
			"peerId": peer,
			"unread": h.state.Messages.Unread(peer),
			"total":  len(msgs),
		}
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			entry["lastMessage"] = last
			entry["fromYou"] = h.ui.IsYou(last.SenderID)
		}
		conversations = append(conversations, entry)
	}

	body := map[string]any{"conversations": conversations}
	if h.archive != nil {
		if ownerID := h.ui.Snapshot().UserID; ownerID != "" {
			archived, err := h.archive.Count(r.Context(), ownerID)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			body["archived"] = archived
		}
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}

// GetMessage looks a message up in the cache, then in the archive.
func (h *StateHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	peerID := chi.URLParam(r, "peerId")
	messageID := chi.URLParam(r, "messageId")

	for _, msg := range h.state.Messages.Peer(peerID) {
		if msg.ID == messageID {
			httputil.WriteJSON(w, http.StatusOK, map[string]any{"message": msg, "source": "cache"})
			return
		}
	}

	notFound := apperrors.NoResults().WithDetails(map[string]string{"peerId": peerID, "messageId": messageID})
	if h.archive == nil {
		httputil.WriteError(w, notFound)
		return
	}
	ownerID := h.ui.Snapshot().UserID
	if ownerID == "" {
		httputil.WriteError(w, apperrors.NotLoggedIn())
		return
	}
	msg, err := h.archive.Message(r.Context(), ownerID, messageID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if msg.OtherID != peerID {
		httputil.WriteError(w, notFound)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"message": msg, "source": "archive"})
}

// GetConversation pages back from the newest message. With ?source=archive
// the history comes from the message archive instead of the cache.
func (h *StateHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	peerID := chi.URLParam(r, "peerId")
	if peerID == "" {
		httputil.WriteError(w, apperrors.InvalidInput("peerId", "must not be empty"))
		return
	}
	page := ParsePagination(r)

	if r.URL.Query().Get("source") == "archive" {
		h.getArchivedConversation(w, r, peerID, page)
		return
	}

	msgs := Tail(h.state.Messages.Peer(peerID), page)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"peerId":   peerID,
		"messages": msgs,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

func (h *StateHandler) getArchivedConversation(w http.ResponseWriter, r *http.Request, peerID string, page PaginationParams) {
	if h.archive == nil {
		httputil.WriteError(w, apperrors.InvalidInput("source", "message archive is not configured"))
		return
	}
	ownerID := h.ui.Snapshot().UserID
	if ownerID == "" {
		httputil.WriteError(w, apperrors.NotLoggedIn())
		return
	}

	msgs, err := h.archive.Conversation(r.Context(), ownerID, peerID, page.Limit+page.Offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"peerId":   peerID,
		"messages": Tail(msgs, page),
		"limit":    page.Limit,
		"offset":   page.Offset,
		"source":   "archive",
	})
}

func (h *StateHandler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"statuses": h.state.Statuses.List()})
}

func (h *StateHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"sessions": h.state.Sessions.List()})
}

// ResolveSession maps a session hash from a user status to the session.
func (h *StateHandler) ResolveSession(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	id, ok := h.state.HashLookup.Resolve(hash)
	if !ok {
		httputil.WriteError(w, apperrors.NoResults().WithDetails(map[string]string{"hash": hash}))
		return
	}
	session, ok := h.state.Sessions.Get(id)
	if !ok {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"sessionId": id})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"sessionId": id, "session": session})
}

func (h *StateHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notifications": h.ui.Notifications()})
}

func (h *StateHandler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	h.ui.ClearNotifications()
	w.WriteHeader(http.StatusNoContent)
}
