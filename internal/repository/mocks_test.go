package repository

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/resbox/resbox-core/internal/model"
)

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Upsert(ctx context.Context, msgs []model.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockMessageRepository) FindByID(ctx context.Context, ownerID, id string) (*model.ArchivedMessage, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ArchivedMessage), args.Error(1)
}

func (m *MockMessageRepository) FindByOwner(ctx context.Context, ownerID string, limit int) ([]model.ArchivedMessage, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ArchivedMessage), args.Error(1)
}

func (m *MockMessageRepository) FindByPeer(ctx context.Context, ownerID, peerID string, limit int) ([]model.ArchivedMessage, error) {
	args := m.Called(ctx, ownerID, peerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ArchivedMessage), args.Error(1)
}

func (m *MockMessageRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

func (m *MockMessageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}
