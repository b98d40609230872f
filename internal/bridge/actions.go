package bridge

import (
	"strings"

	"github.com/resbox/resbox-core/internal/backend"
	apperrors "github.com/resbox/resbox-core/internal/errors"
)

// RequestLogin submits credentials. Only one attempt may be in flight.
func (b *Bridge) RequestLogin(username, password string, rememberMe bool) error {
	b.mu.Lock()
	if b.ui.LoggedIn {
		b.mu.Unlock()
		return apperrors.AlreadyLoggedIn()
	}
	if !b.ui.CanAttemptLogin {
		b.mu.Unlock()
		return apperrors.LoginInFlight()
	}
	if strings.TrimSpace(username) == "" {
		b.mu.Unlock()
		return apperrors.InvalidInput("username", "must not be empty")
	}
	b.ui.Login = LoginDetails{Username: username, RememberMe: rememberMe}
	b.ui.CanAttemptLogin = false
	b.ui.History.Push(Page{Kind: PageLoading})
	b.mu.Unlock()

	b.send(backend.LoginCommand{Username: username, Password: password, RememberMe: rememberMe})
	return nil
}

// Search clears previous results and looks users up by id or name.
func (b *Bridge) Search(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return apperrors.InvalidInput("query", "must not be empty")
	}

	b.mu.Lock()
	b.ui.SearchQuery = query
	b.ui.SearchResults = nil
	if b.ui.History.Current().Kind != PageUserSearch {
		b.ui.History.Push(Page{Kind: PageUserSearch})
	}
	b.mu.Unlock()

	b.send(backend.UserInfoRequest{Query: query})
	return nil
}

// RequestStatus asks the hub for fresh statuses of every contact.
func (b *Bridge) RequestStatus() {
	b.send(backend.RequestStatus{})
}

func (b *Bridge) SendMessage(recipientID, content string) error {
	if strings.TrimSpace(recipientID) == "" {
		return apperrors.InvalidInput("recipientId", "must not be empty")
	}
	if content == "" {
		return apperrors.InvalidInput("content", "must not be empty")
	}
	b.send(backend.SendMessage{RecipientID: recipientID, Content: content})
	return nil
}

// Send forwards a command without touching the UI state.
func (b *Bridge) Send(cmd backend.Command) {
	b.send(cmd)
}

func (b *Bridge) SetPage(page Page) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ui.History.Push(page)
}

func (b *Bridge) Back() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ui.History.Back()
}

func (b *Bridge) Forward() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ui.History.Forward()
}

func (b *Bridge) CurrentPage() Page {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ui.History.Current()
}

// DisplayName is the signed-in user's name, or "you" before it is known.
func (b *Bridge) DisplayName() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.ui.You != nil {
		return b.ui.You.Username
	}
	return "you"
}

func (b *Bridge) IsYou(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.isYou(id)
}

func (b *Bridge) Notifications() []Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Notification(nil), b.ui.Notifications...)
}

func (b *Bridge) ClearNotifications() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ui.Notifications = nil
}
