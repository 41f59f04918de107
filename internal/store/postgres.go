package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/contact"
)

const pgSchemaSQL = `
CREATE TABLE IF NOT EXISTS contact_messages (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PGSink inserts contact messages into a Postgres table.
type PGSink struct {
	conn *sql.DB
}

var _ contact.Sink = (*PGSink)(nil)

// OpenPostgres connects to databaseURL and ensures the messages table exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*PGSink, error) {
	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	conn.SetConnMaxIdleTime(5 * time.Minute)
	conn.SetConnMaxLifetime(30 * time.Minute)
	conn.SetMaxIdleConns(2)
	conn.SetMaxOpenConns(5)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	if _, err := conn.ExecContext(ctx, pgSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply postgres schema: %w", err)
	}
	return &PGSink{conn: conn}, nil
}

// Insert implements contact.Sink.
func (s *PGSink) Insert(ctx context.Context, m contact.Message) (contact.Receipt, error) {
	rc := contact.Receipt{ID: uuid.NewString()}
	err := s.conn.QueryRowContext(ctx, `
		INSERT INTO contact_messages (id, name, email, message)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, rc.ID, m.Name, m.Email, m.Message).Scan(&rc.CreatedAt)
	if err != nil {
		return contact.Receipt{}, fmt.Errorf("store: insert message: %w: %w", apperr.ErrSubmission, err)
	}
	rc.CreatedAt = rc.CreatedAt.UTC()
	return rc, nil
}

// Close closes the connection pool.
func (s *PGSink) Close() error {
	return s.conn.Close()
}
