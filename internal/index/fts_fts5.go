//go:build sqlite_fts5

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS projects_fts USING fts5(
			slug UNINDEXED,
			title,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, slug, title, body string) error {
	_, err := tx.Exec(`INSERT INTO projects_fts (slug, title, body) VALUES (?, ?, ?)`, slug, title, body)
	if err != nil {
		return fmt.Errorf("index: insert fts: %w", err)
	}
	return nil
}

func ftsClear(tx *sql.Tx) error {
	_, err := tx.Exec(`DELETE FROM projects_fts`)
	return err
}

// ftsQuery quotes every term so user input cannot reach FTS5 query syntax.
// Quoted terms are ANDed.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// Search performs an FTS5 full-text search and returns matching projects with snippets.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	q := ftsQuery(query)
	if q == "" {
		return nil, nil
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT f.slug,
		       p.title,
		       p.category,
		       snippet(projects_fts, 2, '<b>', '</b>', '...', 24)
		FROM projects_fts f
		JOIN projects p ON p.slug = f.slug
		WHERE projects_fts MATCH ?
		ORDER BY rank, p.position
		LIMIT ?
	`, q, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Slug, &r.Title, &r.Category, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
