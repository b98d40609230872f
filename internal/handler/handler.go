// Package handler serves the local control API that external UIs use to
// drive the client.
package handler

import (
	"context"

	"github.com/resbox/resbox-core/internal/backend"
	"github.com/resbox/resbox-core/internal/bridge"
	"github.com/resbox/resbox-core/internal/model"
)

// UI is the bridge surface exposed over HTTP.
type UI interface {
	Snapshot() bridge.UIState
	RequestLogin(username, password string, rememberMe bool) error
	Search(query string) error
	RequestStatus()
	SendMessage(recipientID, content string) error
	Send(cmd backend.Command)
	Notifications() []bridge.Notification
	ClearNotifications()
	ClearCredentials(ctx context.Context) error
	DisplayName() string
	IsYou(id string) bool
}

// PhaseReporter exposes the orchestrator state machine.
type PhaseReporter interface {
	Phase() backend.Phase
	HubPhase() backend.HubPhase
}

// ConversationArchive reads history older than the in-memory cache.
type ConversationArchive interface {
	Conversation(ctx context.Context, ownerID, peerID string, limit int) ([]model.Message, error)
	Message(ctx context.Context, ownerID, id string) (*model.Message, error)
	Count(ctx context.Context, ownerID string) (int, error)
}

// ClientCounter reports connected event stream subscribers.
type ClientCounter interface {
	TotalClients() int
}

var _ UI = (*bridge.Bridge)(nil)
