// Package bridge turns orchestrator events into the state a UI renders and
// turns UI actions into orchestrator commands.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/resbox/resbox-core/internal/backend"
	"github.com/resbox/resbox-core/internal/credential"
	"github.com/resbox/resbox-core/internal/model"
	"github.com/resbox/resbox-core/internal/sse"
)

// Topic is the broker topic every processed event is published on.
const Topic = "ui"

// UsernameAccount holds the remembered username next to the token account.
const UsernameAccount = "resbox-username"

// Sender accepts commands for the orchestrator.
type Sender interface {
	Send(cmd backend.Command) error
}

// EventSource yields pending events without blocking.
type EventSource interface {
	TryRecv() (backend.Event, bool)
}

// EventStream is an EventSource that can also be waited on.
type EventStream interface {
	EventSource
	Events() <-chan backend.Event
}

type Publisher interface {
	Publish(ctx context.Context, topic string, event sse.Event) error
}

type LoginDetails struct {
	Username   string `json:"username"`
	RememberMe bool   `json:"rememberMe"`
}

type UIState struct {
	LoggedIn        bool                      `json:"loggedIn"`
	CanAttemptLogin bool                      `json:"canAttemptLogin"`
	UserID          string                    `json:"userId,omitempty"`
	Token           string                    `json:"-"`
	You             *model.UserInfo           `json:"you,omitempty"`
	Notifications   []Notification            `json:"notifications"`
	History         History                   `json:"history"`
	UserInfos       map[string]model.UserInfo `json:"userInfos"`
	SearchQuery     string                    `json:"searchQuery"`
	SearchResults   []string                  `json:"searchResults"`
	Login           LoginDetails              `json:"login"`
}

func (s *UIState) clone() UIState {
	out := *s
	if s.You != nil {
		you := *s.You
		out.You = &you
	}
	out.Notifications = append([]Notification(nil), s.Notifications...)
	out.History = s.History.clone()
	out.UserInfos = make(map[string]model.UserInfo, len(s.UserInfos))
	for id, info := range s.UserInfos {
		out.UserInfos[id] = info
	}
	out.SearchResults = append([]string(nil), s.SearchResults...)
	return out
}

type Deps struct {
	Sender Sender

	// Optional.
	Store     credential.Store
	Images    ImageCache
	Publisher Publisher

	// Credential store coordinates for the session token.
	Service string
	Account string

	Now func() time.Time
}

type Bridge struct {
	deps Deps

	mu sync.RWMutex
	ui UIState

	out *outbox
}

// New starts on the loading page until the orchestrator reports whether a
// remembered session could be resumed. A non-empty username means the user
// asked to be remembered last time.
func New(deps Deps, rememberedUsername string) *Bridge {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Bridge{
		deps: deps,
		out:  newOutbox(),
		ui: UIState{
			History:   NewHistory(Page{Kind: PageLoading}),
			UserInfos: make(map[string]model.UserInfo),
			Login: LoginDetails{
				Username:   rememberedUsername,
				RememberMe: rememberedUsername != "",
			},
		},
	}
}

// Snapshot returns a copy of the UI state.
func (b *Bridge) Snapshot() UIState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ui.clone()
}

// Drain processes every pending event and reports how many there were.
func (b *Bridge) Drain(ctx context.Context, src EventSource) int {
	n := 0
	for {
		ev, ok := src.TryRecv()
		if !ok || ev == nil {
			return n
		}
		b.Process(ctx, ev)
		n++
	}
}

// Run processes events until the stream closes or ctx is done. Each wakeup
// drains whatever else is already pending. Follow-up commands are sent from
// a separate goroutine while Run is active.
func (b *Bridge) Run(ctx context.Context, src EventStream) {
	stop := b.startPump(ctx)
	defer stop()

	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.Process(ctx, ev)
			if n := b.Drain(ctx, src); n > 0 {
				log.Debug().Int("count", n+1).Msg("processed event burst")
			}
		}
	}
}

func (b *Bridge) send(cmd backend.Command) {
	if err := b.deps.Sender.Send(cmd); err != nil {
		log.Error().Err(err).Str("command", cmd.Name()).Msg("failed to send command")
		b.notify(errorNotification("Backend unavailable", err))
	}
}

func (b *Bridge) notify(n Notification) {
	b.mu.Lock()
	b.ui.Notifications = append(b.ui.Notifications, n)
	b.mu.Unlock()
}
