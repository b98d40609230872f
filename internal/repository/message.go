package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/resbox/resbox-core/internal/database"
	"github.com/resbox/resbox-core/internal/model"
)

type MessageRepository interface {
	Upsert(ctx context.Context, msgs []model.Message) error
	FindByID(ctx context.Context, ownerID, id string) (*model.ArchivedMessage, error)
	FindByOwner(ctx context.Context, ownerID string, limit int) ([]model.ArchivedMessage, error)
	FindByPeer(ctx context.Context, ownerID, peerID string, limit int) ([]model.ArchivedMessage, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type messageRepo struct {
	db *database.DB
}

func NewMessageRepository(db *database.DB) MessageRepository {
	return &messageRepo{db: db}
}

const upsertMessage = `
	INSERT INTO archived_messages
		(id, owner_id, other_id, sender_id, recipient_id, message_type, content,
		 send_time, last_update_time, read_time, is_migrated, archived_at)
	VALUES
		(:id, :owner_id, :other_id, :sender_id, :recipient_id, :message_type, :content,
		 :send_time, :last_update_time, :read_time, :is_migrated, NOW())
	ON CONFLICT (owner_id, id) DO UPDATE SET
		content = EXCLUDED.content,
		last_update_time = EXCLUDED.last_update_time,
		read_time = EXCLUDED.read_time,
		is_migrated = EXCLUDED.is_migrated,
		archived_at = NOW()
	WHERE archived_messages.last_update_time <= EXCLUDED.last_update_time
`

// Upsert writes msgs in one transaction. Rows already holding a newer
// revision are left alone; messages without an id or owner are skipped.
func (r *messageRepo) Upsert(ctx context.Context, msgs []model.Message) error {
	rows := make([]model.ArchivedMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.ID == "" || m.OwnerID == "" {
			continue
		}
		rows = append(rows, model.ArchiveMessage(m))
	}
	if len(rows) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, row := range rows {
			if _, err := tx.NamedExecContext(ctx, upsertMessage, row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *messageRepo) FindByID(ctx context.Context, ownerID, id string) (*model.ArchivedMessage, error) {
	var msg model.ArchivedMessage
	err := r.db.GetContext(ctx, &msg, `
		SELECT * FROM archived_messages WHERE owner_id = $1 AND id = $2
	`, ownerID, id)
	return optionalRow(&msg, err)
}

// FindByOwner returns the newest limit messages, oldest first.
func (r *messageRepo) FindByOwner(ctx context.Context, ownerID string, limit int) ([]model.ArchivedMessage, error) {
	var msgs []model.ArchivedMessage
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM (
			SELECT * FROM archived_messages
			WHERE owner_id = $1
			ORDER BY last_update_time DESC
			LIMIT $2
		) recent
		ORDER BY last_update_time ASC
	`, ownerID, limit)
	return msgs, err
}

// FindByPeer returns the newest limit messages exchanged with peerID,
// oldest first.
func (r *messageRepo) FindByPeer(ctx context.Context, ownerID, peerID string, limit int) ([]model.ArchivedMessage, error) {
	var msgs []model.ArchivedMessage
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM (
			SELECT * FROM archived_messages
			WHERE owner_id = $1 AND other_id = $2
			ORDER BY last_update_time DESC
			LIMIT $3
		) recent
		ORDER BY last_update_time ASC
	`, ownerID, peerID, limit)
	return msgs, err
}

func (r *messageRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM archived_messages WHERE owner_id = $1
	`, ownerID)
	return count, err
}

func (r *messageRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM archived_messages WHERE last_update_time < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
