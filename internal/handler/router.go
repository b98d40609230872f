package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/resbox/resbox-core/internal/config"
	"github.com/resbox/resbox-core/internal/middleware"
	"github.com/resbox/resbox-core/internal/sse"
	"github.com/resbox/resbox-core/internal/state"
)

type RouterDeps struct {
	UI     UI
	Phases PhaseReporter
	State  *state.AppState
	Broker *sse.Broker

	// Optional.
	Archive ConversationArchive

	BearerToken  string
	LoginLimiter middleware.Limiter
}

func NewRouter(deps RouterDeps) http.Handler {
	stateHandler := NewStateHandler(deps.UI, deps.State, deps.Archive)
	actionsHandler := NewActionsHandler(deps.UI)
	eventsHandler := NewEventsHandler(deps.Broker, deps.UI)
	var clients ClientCounter
	if deps.Broker != nil {
		clients = deps.Broker
	}
	healthHandler := NewHealthHandler(deps.Phases, clients)

	loginLimiter := deps.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = middleware.NewRateLimiter()
	}
	loginLimit := middleware.NewRateLimitMiddleware(loginLimiter, config.LoginAttemptsPerMin, "login")
	auth := middleware.NewBearerAuthMiddleware(deps.BearerToken)
	bodyLimit := middleware.NewBodyLimitMiddleware(0)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Handler)

		r.Get("/events", eventsHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
			r.Use(bodyLimit.Handler)

			r.Get("/state", stateHandler.GetState)
			r.Get("/contacts", stateHandler.ListContacts)
			r.Get("/messages", stateHandler.ListConversations)
			r.Get("/messages/{peerId}", stateHandler.GetConversation)
			r.Get("/messages/{peerId}/{messageId}", stateHandler.GetMessage)
			r.Get("/statuses", stateHandler.ListStatuses)
			r.Get("/sessions", stateHandler.ListSessions)
			r.Get("/sessions/by-hash/{hash}", stateHandler.ResolveSession)
			r.Get("/notifications", stateHandler.ListNotifications)
			r.Delete("/notifications", stateHandler.ClearNotifications)

			r.With(loginLimit.Handler).Post("/login", actionsHandler.Login)
			r.Delete("/credentials", actionsHandler.ClearCredentials)
			r.Post("/users/search", actionsHandler.SearchUsers)
			r.Post("/status/request", actionsHandler.RequestStatus)
			r.Post("/status/broadcast", actionsHandler.BroadcastStatus)
			r.Post("/status/initialize", actionsHandler.InitializeStatus)
			r.Post("/messages", actionsHandler.SendMessage)
			r.Post("/hub/listen", actionsHandler.ListenOnKey)
			r.Post("/hub/connect", actionsHandler.ConnectHub)
		})
	})

	return r
}
