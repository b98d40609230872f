package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/resbox/resbox-core/internal/backend"
	apperrors "github.com/resbox/resbox-core/internal/errors"
	"github.com/resbox/resbox-core/internal/httputil"
	"github.com/resbox/resbox-core/internal/model"
	"github.com/resbox/resbox-core/internal/util"
)

// ActionsHandler turns control API requests into orchestrator commands.
// Results arrive asynchronously on the event stream, so accepted requests
// answer 202.
type ActionsHandler struct {
	ui  UI
	now func() time.Time
}

func NewActionsHandler(ui UI) *ActionsHandler {
	return &ActionsHandler{ui: ui, now: time.Now}
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

func (h *ActionsHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Password == "" {
		httputil.WriteError(w, apperrors.InvalidInput("password", "must not be empty"))
		return
	}

	if err := h.ui.RequestLogin(req.Username, req.Password, req.RememberMe); err != nil {
		httputil.WriteError(w, err)
		return
	}
	log.Info().Str("username", req.Username).Bool("rememberMe", req.RememberMe).Msg("login submitted via control API")
	accepted(w)
}

type searchRequest struct {
	Query string `json:"query"`
}

func (h *ActionsHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.ui.Search(req.Query); err != nil {
		httputil.WriteError(w, err)
		return
	}
	accepted(w)
}

type statusRequest struct {
	UserID    *string `json:"userId"`
	Invisible bool    `json:"invisible"`
}

// RequestStatus with an empty body asks for every contact.
func (h *ActionsHandler) RequestStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	if req.UserID != nil && !util.IsUserID(*req.UserID) {
		httputil.WriteError(w, apperrors.InvalidInput("userId", "must be a user id"))
		return
	}
	if req.UserID == nil && !req.Invisible {
		h.ui.RequestStatus()
	} else {
		h.ui.Send(backend.RequestStatus{UserID: req.UserID, Invisible: req.Invisible})
	}
	accepted(w)
}

type broadcastRequest struct {
	OnlineStatus *model.OnlineStatus    `json:"onlineStatus"`
	Target       *model.BroadcastTarget `json:"target"`
}

// BroadcastStatus announces the signed-in user's status, publicly unless a
// target is given.
func (h *ActionsHandler) BroadcastStatus(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	userID := h.ui.Snapshot().UserID
	if userID == "" {
		httputil.WriteError(w, apperrors.NotLoggedIn())
		return
	}

	status := model.NewUserStatus(userID, h.now())
	if req.OnlineStatus != nil {
		online := *req.OnlineStatus
		status.OnlineStatus = &online
	}
	target := model.PublicBroadcast()
	if req.Target != nil {
		target = *req.Target
	}

	h.ui.Send(backend.BroadcastStatus{Status: status, Target: target})
	accepted(w)
}

type sendMessageRequest struct {
	RecipientID string `json:"recipientId"`
	Content     string `json:"content"`
}

func (h *ActionsHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.ui.SendMessage(req.RecipientID, req.Content); err != nil {
		httputil.WriteError(w, err)
		return
	}
	accepted(w)
}

type listenRequest struct {
	Key string `json:"key"`
}

func (h *ActionsHandler) ListenOnKey(w http.ResponseWriter, r *http.Request) {
	var req listenRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.ui.Send(backend.ListenOnKey{Key: req.Key})
	accepted(w)
}

// ConnectHub reconnects with the current session credentials.
func (h *ActionsHandler) ConnectHub(w http.ResponseWriter, r *http.Request) {
	h.ui.Send(backend.ConnectHub{})
	accepted(w)
}

func (h *ActionsHandler) InitializeStatus(w http.ResponseWriter, r *http.Request) {
	h.ui.Send(backend.InitializeStatus{})
	accepted(w)
}

func (h *ActionsHandler) ClearCredentials(w http.ResponseWriter, r *http.Request) {
	if err := h.ui.ClearCredentials(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func accepted(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
