//go:build sqlite_fts5

package index

import (
	"context"
	"strings"
	"testing"

	"github.com/starford/folio/internal/catalog"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM projects_fts`).Scan(&count); err != nil {
		t.Fatalf("projects_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := syncedDB(t)
	results, err := db.Search(context.Background(), "Polygon", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Slug != "digital-gold-token" {
		t.Fatalf("results = %+v", results)
	}
	// FTS5 snippet should contain bold markers.
	if !strings.Contains(results[0].Snippet, "<b>") {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
}

func TestFTS5_ResyncClearsOldRows(t *testing.T) {
	ctx := context.Background()
	db := syncedDB(t)
	// Force a rebuild with the same catalog.
	if _, err := db.conn.Exec(`DELETE FROM index_meta`); err != nil {
		t.Fatal(err)
	}
	c, _ := catalog.Default()
	if err := Sync(ctx, db, c, discard()); err != nil {
		t.Fatal(err)
	}
	var n int
	db.conn.QueryRow(`SELECT count(*) FROM projects_fts`).Scan(&n)
	if n != c.Len() {
		t.Errorf("fts rows = %d, want %d", n, c.Len())
	}
}

func TestFTSQuery_QuotesTerms(t *testing.T) {
	if got := ftsQuery(`spring "boot`); got != `"spring" """boot"` {
		t.Errorf("ftsQuery = %s", got)
	}
}
