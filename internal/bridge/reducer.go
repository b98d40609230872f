package bridge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/resbox/resbox-core/internal/audit"
	"github.com/resbox/resbox-core/internal/backend"
	"github.com/resbox/resbox-core/internal/model"
)

// Process applies one orchestrator event to the UI state, issues any
// follow-up commands and publishes the event.
func (b *Bridge) Process(ctx context.Context, ev backend.Event) {
	var followUp []backend.Command
	var persist *persistRequest

	b.mu.Lock()
	switch e := ev.(type) {
	case backend.LoggedIn:
		followUp, persist = b.loggedIn(e)
	case backend.LoginFailed:
		b.ui.Notifications = append(b.ui.Notifications, errorNotification("Login failed", e.Err))
		b.ui.CanAttemptLogin = true
	case backend.UserInfoResponse:
		b.userInfo(e)
	case backend.PreviousTokenInvalid:
		if b.ui.History.Current().Kind == PageLoading {
			b.ui.History.Push(Page{Kind: PageSignIn})
		}
		b.ui.CanAttemptLogin = true
	case backend.HubConnected:
		b.ui.Notifications = append(b.ui.Notifications, infoNotification(GlyphConnected, "Hub connected", ""))
	case backend.HubConnectFailed:
		b.ui.Notifications = append(b.ui.Notifications, errorNotification("Hub connect failed", e.Err))
	case backend.HubDisconnected:
		b.ui.Notifications = append(b.ui.Notifications, infoNotification(GlyphInfo, "Hub disconnected", "Live updates paused"))
	case backend.HubRequestFailed:
		n := errorNotification("Hub request failed", e.Err)
		n.Detail = fmt.Sprintf("%s: %s", e.Method, n.Detail)
		b.ui.Notifications = append(b.ui.Notifications, n)
	case backend.HubUninitialized:
		n := infoNotification(GlyphError, "Hub not initialized", fmt.Sprintf("%s was issued before connecting", e.Command))
		n.Kind = "precondition"
		b.ui.Notifications = append(b.ui.Notifications, n)
	case backend.Crashed:
		b.ui.Notifications = append(b.ui.Notifications, errorNotification("Backend crashed", e.Err))
	case backend.FetchFailed:
		log.Warn().Err(e.Err).Str("resource", e.Resource).Msg("background fetch failed")
	case backend.RefreshRequested:
	}
	b.mu.Unlock()

	b.auditEvent(ctx, ev)
	b.dispatch(followUp)
	if persist != nil {
		b.persist(ctx, *persist)
	}
	b.publish(ctx, ev)
}

// loggedIn runs with b.mu held.
func (b *Bridge) loggedIn(e backend.LoggedIn) ([]backend.Command, *persistRequest) {
	b.ui.Token = e.Token
	b.ui.UserID = e.UserID
	b.ui.LoggedIn = true

	cmds := []backend.Command{
		backend.ConnectHub{UserID: e.UserID, Token: e.Token},
		backend.RequestStatus{UserID: nil, Invisible: false},
		backend.InitializeStatus{},
		backend.BroadcastStatus{
			Status: model.NewUserStatus(e.UserID, b.deps.Now()),
			Target: model.PublicBroadcast(),
		},
	}

	if b.ui.History.Current().Kind == PageLoading {
		b.ui.History.Replace(ProfilePage(e.UserID))
	}

	if !b.ui.Login.RememberMe {
		b.ui.Login.Username = ""
	}
	return cmds, &persistRequest{
		remember: b.ui.Login.RememberMe,
		username: b.ui.Login.Username,
		userID:   e.UserID,
		token:    e.Token,
	}
}

// userInfo runs with b.mu held.
func (b *Bridge) userInfo(e backend.UserInfoResponse) {
	if b.isYou(e.UserID) {
		info := e.Info
		b.ui.You = &info

		title := fmt.Sprintf("Hi %s!", info.Username)
		n := infoNotification(GlyphContact, title, "You're signed in")
		if info.Profile != nil && info.Profile.IconURL != "" && b.deps.Images != nil {
			n.Icon = NotificationIcon{
				ImageURL: info.Profile.IconURL,
				Image:    b.deps.Images.Get(info.Profile.IconURL),
			}
		}
		b.ui.Notifications = append(b.ui.Notifications, n)
	}

	b.ui.UserInfos[e.UserID] = e.Info
	if b.ui.History.Current().Kind == PageUserSearch {
		b.ui.SearchResults = append(b.ui.SearchResults, e.UserID)
	}
}

func (b *Bridge) isYou(id string) bool {
	return b.ui.UserID != "" && b.ui.UserID == id
}

func (b *Bridge) auditEvent(ctx context.Context, ev backend.Event) {
	switch e := ev.(type) {
	case backend.LoggedIn:
		audit.Log(ctx, audit.Event{Type: audit.EventLoginSuccess, UserID: e.UserID})
	case backend.LoginFailed:
		audit.Log(ctx, audit.Event{
			Type:    audit.EventLoginFailure,
			Details: map[string]any{"error": e.Err},
		})
	case backend.PreviousTokenInvalid:
		if e.Err != nil {
			audit.Log(ctx, audit.Event{
				Type:    audit.EventTokenRejected,
				Details: map[string]any{"error": e.Err},
			})
		}
	}
}
