package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/folio/internal/catalog"
)

const metaChecksum = "catalog_checksum"

// Sync brings the index up to date with c. The catalog is small, so a
// changed checksum rebuilds every row in one transaction; an unchanged one
// is a no-op.
func Sync(ctx context.Context, db *DB, c *catalog.Catalog, logger *slog.Logger) error {
	indexed, err := db.Checksum(ctx)
	if err != nil {
		return err
	}
	if indexed == c.Checksum() {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `DELETE FROM projects`); err != nil {
		return fmt.Errorf("index: clear: %w", err)
	}
	if err := ftsClear(tx); err != nil {
		return fmt.Errorf("index: clear fts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO projects (slug, position, title, category, body)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range c.Projects() {
		body := searchText(p)
		if _, err := stmt.ExecContext(ctx, p.Slug, i, p.Title, p.Category, body); err != nil {
			return fmt.Errorf("index: insert %s: %w", p.Slug, err)
		}
		if err := ftsInsert(tx, p.Slug, p.Title, body); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaChecksum, c.Checksum()); err != nil {
		return fmt.Errorf("index: store checksum: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("index: commit: %w", err)
	}
	logger.Debug("index: synced", slog.Int("projects", c.Len()), slog.String("checksum", c.Checksum()))
	return nil
}

// Checksum returns the checksum of the catalog last synced, or "" if none.
func (db *DB) Checksum(ctx context.Context) (string, error) {
	var cs string
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = ?`, metaChecksum).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// Count returns the number of indexed projects.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM projects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// searchText is everything a visitor might search a project by.
func searchText(p catalog.Project) string {
	parts := []string{
		p.Description, p.Tag, p.Category, p.Stack,
		p.Problem, p.Approach, p.Architecture, p.Challenges, p.Learned,
	}
	var b strings.Builder
	for _, s := range parts {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s)
	}
	return b.String()
}
