package repository

import (
	"context"

	"github.com/rs/zerolog/log"

	apperrors "github.com/resbox/resbox-core/internal/errors"
	"github.com/resbox/resbox-core/internal/model"
)

// DefaultArchiveLoadLimit bounds how much history seeds the cache on login.
const DefaultArchiveLoadLimit = 5000

// MessageArchive stores conversation history for the orchestrator.
type MessageArchive struct {
	repo      MessageRepository
	loadLimit int
}

func NewMessageArchive(repo MessageRepository, loadLimit int) *MessageArchive {
	if loadLimit <= 0 {
		loadLimit = DefaultArchiveLoadLimit
	}
	return &MessageArchive{repo: repo, loadLimit: loadLimit}
}

func (a *MessageArchive) SaveMessages(ctx context.Context, msgs []model.Message) error {
	if err := a.repo.Upsert(ctx, msgs); err != nil {
		return apperrors.Database(err)
	}
	log.Debug().Int("count", len(msgs)).Msg("archived messages")
	return nil
}

func (a *MessageArchive) LoadMessages(ctx context.Context, ownerID string) ([]model.Message, error) {
	rows, err := a.repo.FindByOwner(ctx, ownerID, a.loadLimit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	msgs := make([]model.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.ToMessage())
	}
	return msgs, nil
}

// Conversation returns the archived history with one peer.
func (a *MessageArchive) Conversation(ctx context.Context, ownerID, peerID string, limit int) ([]model.Message, error) {
	rows, err := a.repo.FindByPeer(ctx, ownerID, peerID, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	msgs := make([]model.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.ToMessage())
	}
	return msgs, nil
}

// Message returns one archived message, or a NoResults error.
func (a *MessageArchive) Message(ctx context.Context, ownerID, id string) (*model.Message, error) {
	row, err := a.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if row == nil {
		return nil, apperrors.NoResults().WithDetails(map[string]string{"messageId": id})
	}
	msg := row.ToMessage()
	return &msg, nil
}

// Count reports how many messages are archived for ownerID.
func (a *MessageArchive) Count(ctx context.Context, ownerID string) (int, error) {
	n, err := a.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return 0, apperrors.Database(err)
	}
	return n, nil
}
