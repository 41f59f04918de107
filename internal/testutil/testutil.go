// Package testutil provides shared test helpers for content directories,
// message databases, search indexes and services.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/contact"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/portfolio"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/store"
)

// TestDB creates a temporary SQLite message store that is automatically
// cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "folio-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestContent creates a temporary content directory holding the embedded
// default portfolio.yaml.
func TestContent(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, catalog.FileName), catalog.DefaultSource(), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, p
}

// TestService returns a service over the default catalog writing to sink.
func TestService(t *testing.T, sink contact.Sink, opts ...portfolio.Option) *portfolio.Service {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	return portfolio.NewService(catalog.NewStore(c), sink, opts...)
}

// TestIndex returns an in-memory search index synced to the default catalog.
func TestIndex(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	c, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	if err := index.Sync(context.Background(), db, c, slog.New(slog.NewJSONHandler(io.Discard, nil))); err != nil {
		t.Fatal(err)
	}
	return db
}
