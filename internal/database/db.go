package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/resbox/resbox-core/internal/config"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx so repositories can run
// inside or outside a transaction.
type DBTX interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

var _ DBTX = (*sqlx.DB)(nil)
var _ DBTX = (*sqlx.Tx)(nil)

type DB struct {
	*sqlx.DB
}

func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(config.DBConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, config.DBPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.DB.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS archived_messages (
	id               TEXT        NOT NULL,
	owner_id         TEXT        NOT NULL,
	other_id         TEXT        NOT NULL,
	sender_id        TEXT        NOT NULL,
	recipient_id     TEXT        NOT NULL,
	message_type     TEXT        NOT NULL,
	content          TEXT        NOT NULL,
	send_time        TIMESTAMPTZ NOT NULL,
	last_update_time TIMESTAMPTZ NOT NULL,
	read_time        TIMESTAMPTZ,
	is_migrated      BOOLEAN     NOT NULL DEFAULT FALSE,
	archived_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (owner_id, id)
);

CREATE INDEX IF NOT EXISTS archived_messages_peer_idx
	ON archived_messages (owner_id, other_id, last_update_time);

CREATE INDEX IF NOT EXISTS archived_messages_update_idx
	ON archived_messages (last_update_time);
`

// EnsureSchema creates the archive tables when they are missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// TxFunc is a function that runs within a transaction.
type TxFunc func(tx *sqlx.Tx) error

// WithTx executes fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
// Otherwise, the transaction is committed.
func (db *DB) WithTx(ctx context.Context, fn TxFunc) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
