package backend

import "github.com/resbox/resbox-core/internal/model"

// Event is a notification from the orchestrator to the UI.
type Event interface {
	Name() string
	event()
}

type LoggedIn struct {
	Token  string
	UserID string
}

type LoginFailed struct {
	Err error
}

// PreviousTokenInvalid means no remembered session could be resumed. Err
// is nil when none was offered.
type PreviousTokenInvalid struct {
	Err error
}

type HubConnected struct{}

type HubConnectFailed struct {
	Err error
}

// HubDisconnected reports that an established hub connection ended.
type HubDisconnected struct{}

type HubRequestFailed struct {
	Method string
	Err    error
}

// HubUninitialized reports a hub command issued without a connection.
type HubUninitialized struct {
	Command string
}

type UserInfoResponse struct {
	UserID string
	Info   model.UserInfo
}

// FetchFailed reports a failed background fetch. The caches keep their
// previous contents.
type FetchFailed struct {
	Resource string
	Err      error
}

// RefreshRequested signals that the caches changed.
type RefreshRequested struct{}

// Crashed is the last event before the event channel closes on an
// unrecoverable error.
type Crashed struct {
	Err error
}

func (LoggedIn) Name() string             { return "logged-in" }
func (LoginFailed) Name() string          { return "login-failed" }
func (PreviousTokenInvalid) Name() string { return "previous-token-invalid" }
func (HubConnected) Name() string         { return "hub-connected" }
func (HubConnectFailed) Name() string     { return "hub-connect-failed" }
func (HubDisconnected) Name() string      { return "hub-disconnected" }
func (HubRequestFailed) Name() string     { return "hub-request-failed" }
func (HubUninitialized) Name() string     { return "hub-uninitialized" }
func (UserInfoResponse) Name() string     { return "user-info" }
func (FetchFailed) Name() string          { return "fetch-failed" }
func (RefreshRequested) Name() string     { return "refresh" }
func (Crashed) Name() string              { return "crashed" }

func (LoggedIn) event()             {}
func (LoginFailed) event()          {}
func (PreviousTokenInvalid) event() {}
func (HubConnected) event()         {}
func (HubConnectFailed) event()     {}
func (HubDisconnected) event()      {}
func (HubRequestFailed) event()     {}
func (HubUninitialized) event()     {}
func (UserInfoResponse) event()     {}
func (FetchFailed) event()          {}
func (RefreshRequested) event()     {}
func (Crashed) event()              {}
