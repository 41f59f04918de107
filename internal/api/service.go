package api

import (
	"context"

	"github.com/starford/folio/internal/store"
)

// MessageLister reads stored contact messages for the admin endpoint.
// *store.DB implements it.
type MessageLister interface {
	RecentMessages(ctx context.Context, limit int) ([]store.MessageRow, error)
	CountMessages(ctx context.Context) (int, error)
}

var _ MessageLister = (*store.DB)(nil)
