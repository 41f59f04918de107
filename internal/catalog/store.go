package catalog

import (
	"fmt"
	"sync/atomic"

	"github.com/starford/folio/internal/storage"
)

// FileName is the content document inside a content directory.
const FileName = "portfolio.yaml"

// Store holds the current catalog snapshot. Readers never see a partially
// loaded catalog; a reload swaps in a fresh immutable value.
type Store struct {
	cur atomic.Pointer[Catalog]
}

// NewStore returns a store serving c.
func NewStore(c *Catalog) *Store {
	s := &Store{}
	s.cur.Store(c)
	return s
}

// Current returns the snapshot in effect.
func (s *Store) Current() *Catalog {
	return s.cur.Load()
}

// Swap installs c and returns the previous snapshot.
func (s *Store) Swap(c *Catalog) *Catalog {
	return s.cur.Swap(c)
}

// Load reads and parses the content document from p.
func Load(p storage.Provider) (*Catalog, error) {
	data, err := p.Read(FileName)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return Parse(data)
}
