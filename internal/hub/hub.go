// Package hub connects to the platform's realtime SignalR hub and applies
// its pushes to the shared caches.
package hub

import (
	"context"
	"fmt"

	"github.com/resbox/resbox-core/internal/model"
)

// Server-invoked methods.
const (
	MethodReceiveStatusUpdate  = "ReceiveStatusUpdate"
	MethodReceiveSessionUpdate = "ReceiveSessionUpdate"
	MethodReceiveMessage       = "ReceiveMessage"
	MethodMessageSent          = "MessageSent"
	MethodDebug                = "Debug"
)

// Client-invoked methods.
const (
	MethodInitializeStatus = "InitializeStatus"
	MethodRequestStatus    = "RequestStatus"
	MethodBroadcastStatus  = "BroadcastStatus"
	MethodSendMessage      = "SendMessage"
	MethodListenOnKey      = "ListenOnKey"
)

type Credentials struct {
	DeviceHash string
	UserID     string
	Token      string
}

func (c Credentials) AuthorizationHeader() string {
	return fmt.Sprintf("res %s:%s", c.UserID, c.Token)
}

// Handlers receives decoded server pushes. Calls may arrive on any
// goroutine, concurrently with command processing.
type Handlers interface {
	StatusUpdate(status model.UserStatus)
	SessionUpdate(session model.SessionInfo)
	MessageReceived(msg model.Message)
	MessageSent(msg model.Message)
	ServerLog(text string)
}

type Dialer interface {
	Dial(ctx context.Context, creds Credentials, handlers Handlers) (Conn, error)
}

type Conn interface {
	// Invoke calls a hub method and waits for its completion.
	Invoke(ctx context.Context, method string, args ...any) error
	// Done is closed once the connection has ended.
	Done() <-chan struct{}
	Close() error
}
