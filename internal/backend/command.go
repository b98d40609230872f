package backend

import "github.com/resbox/resbox-core/internal/model"

// Command is a request from the UI to the orchestrator.
type Command interface {
	Name() string
	command()
}

// LoginCommand logs in with a username and password.
type LoginCommand struct {
	Username   string
	Password   string
	RememberMe bool
}

// UserInfoRequest looks up users by id (U- prefix) or by name.
type UserInfoRequest struct {
	Query string
}

type UserStatusRequest struct {
	UserID string
}

// ConnectHub opens the realtime connection. Empty credentials fall back to
// the current API session.
type ConnectHub struct {
	UserID string
	Token  string
}

type InitializeStatus struct{}

type ListenOnKey struct {
	Key string
}

// RequestStatus asks the hub to push statuses. A nil UserID requests all
// contacts.
type RequestStatus struct {
	UserID    *string
	Invisible bool
}

type BroadcastStatus struct {
	Status model.UserStatus
	Target model.BroadcastTarget
}

type SendMessage struct {
	RecipientID string
	Content     string
}

type Shutdown struct{}

func (LoginCommand) Name() string      { return "login" }
func (UserInfoRequest) Name() string   { return "user-info-request" }
func (UserStatusRequest) Name() string { return "user-status-request" }
func (ConnectHub) Name() string        { return "connect-hub" }
func (InitializeStatus) Name() string  { return "initialize-status" }
func (ListenOnKey) Name() string       { return "listen-on-key" }
func (RequestStatus) Name() string     { return "request-status" }
func (BroadcastStatus) Name() string   { return "broadcast-status" }
func (SendMessage) Name() string       { return "send-message" }
func (Shutdown) Name() string          { return "shutdown" }

func (LoginCommand) command()      {}
func (UserInfoRequest) command()   {}
func (UserStatusRequest) command() {}
func (ConnectHub) command()        {}
func (InitializeStatus) command()  {}
func (ListenOnKey) command()       {}
func (RequestStatus) command()     {}
func (BroadcastStatus) command()   {}
func (SendMessage) command()       {}
func (Shutdown) command()          {}

// InitialLogin selects how the orchestrator authenticates on start.
type InitialLogin interface {
	initialLogin()
}

type FreshLogin struct{}

// PreviousToken resumes a remembered session.
type PreviousToken struct {
	Username     string
	SessionToken string
}

func (FreshLogin) initialLogin()    {}
func (PreviousToken) initialLogin() {}
