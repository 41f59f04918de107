// Package index provides a SQLite-backed project search index with optional
// FTS5 full-text search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
	slug     TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	title    TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	body     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS index_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// DB is the search index. It is rebuilt from the catalog by Sync.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the index at path. An empty path keeps it in memory.
func Open(path string) (*DB, error) {
	dsn := ":memory:"
	if path != "" {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if path == "" {
		// Every connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
		conn.SetConnMaxLifetime(0)
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"ping", conn.Ping},
		{"apply core schema", func() error { _, err := conn.Exec(coreSchemaSQL); return err }},
		{"apply fts schema", func() error { return initFTS(conn) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("index: %s: %w", step.name, err)
		}
	}
	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}
