package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/contact"
)

// MessageRow is a stored contact message.
type MessageRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Verify *DB satisfies contact.Sink at compile time.
var _ contact.Sink = (*DB)(nil)

// Insert stores a submission. Failures wrap apperr.ErrSubmission.
func (db *DB) Insert(ctx context.Context, m contact.Message) (contact.Receipt, error) {
	rc := contact.Receipt{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rc.ID, m.Name, m.Email, m.Message, rc.CreatedAt)
	if err != nil {
		return contact.Receipt{}, fmt.Errorf("store: insert message: %w: %w", apperr.ErrSubmission, err)
	}
	return rc, nil
}

// RecentMessages returns up to limit messages, newest first.
func (db *DB) RecentMessages(ctx context.Context, limit int) ([]MessageRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, email, message, created_at
		FROM contact_messages
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent messages: %w", err)
	}
	defer rows.Close()

	out := []MessageRow{}
	for rows.Next() {
		var r MessageRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Message, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan message: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountMessages returns the number of stored messages.
func (db *DB) CountMessages(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM contact_messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count messages: %w", err)
	}
	return n, nil
}
