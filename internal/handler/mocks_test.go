package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/resbox/resbox-core/internal/backend"
	"github.com/resbox/resbox-core/internal/bridge"
	"github.com/resbox/resbox-core/internal/model"
)

type MockUI struct {
	mock.Mock
}

func (m *MockUI) Snapshot() bridge.UIState {
	args := m.Called()
	return args.Get(0).(bridge.UIState)
}

func (m *MockUI) RequestLogin(username, password string, rememberMe bool) error {
	args := m.Called(username, password, rememberMe)
	return args.Error(0)
}

func (m *MockUI) Search(query string) error {
	args := m.Called(query)
	return args.Error(0)
}

func (m *MockUI) RequestStatus() {
	m.Called()
}

func (m *MockUI) SendMessage(recipientID, content string) error {
	args := m.Called(recipientID, content)
	return args.Error(0)
}

func (m *MockUI) Send(cmd backend.Command) {
	m.Called(cmd)
}

func (m *MockUI) Notifications() []bridge.Notification {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]bridge.Notification)
}

func (m *MockUI) ClearNotifications() {
	m.Called()
}

func (m *MockUI) ClearCredentials(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUI) DisplayName() string {
	return m.Called().String(0)
}

func (m *MockUI) IsYou(id string) bool {
	return m.Called(id).Bool(0)
}

type MockPhases struct {
	mock.Mock
}

func (m *MockPhases) Phase() backend.Phase {
	return m.Called().Get(0).(backend.Phase)
}

func (m *MockPhases) HubPhase() backend.HubPhase {
	return m.Called().Get(0).(backend.HubPhase)
}

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Conversation(ctx context.Context, ownerID, peerID string, limit int) ([]model.Message, error) {
	args := m.Called(ctx, ownerID, peerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MockArchive) Message(ctx context.Context, ownerID, id string) (*model.Message, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockArchive) Count(ctx context.Context, ownerID string) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

type staticClients int

func (c staticClients) TotalClients() int { return int(c) }
