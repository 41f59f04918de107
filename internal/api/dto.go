package api

import (
	"time"

	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/contact"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/portfolio"
	"github.com/starford/folio/internal/store"
)

// ProfileResponse is the biography.
type ProfileResponse = catalog.Profile

// ProjectDetail is a project with its rendered narrative sections.
type ProjectDetail = portfolio.ProjectDetail

// ProjectListResponse wraps filtered project listings.
type ProjectListResponse struct {
	Projects   []catalog.Project `json:"projects" validate:"required"`
	Total      int               `json:"total" example:"3" validate:"required"`
	Categories []string          `json:"categories" validate:"required"`
}

// SkillsResponse wraps the skill groups.
type SkillsResponse struct {
	Groups []catalog.SkillGroup `json:"groups" validate:"required"`
}

// SearchResponse wraps project search hits in relevance order.
type SearchResponse struct {
	Query   string         `json:"query" example:"solidity" validate:"required"`
	Results []index.Result `json:"results" validate:"required"`
	Total   int            `json:"total" example:"2" validate:"required"`
}

// ContactRequest is the request body for a contact submission.
type ContactRequest = contact.Message

// ContactResponse is returned after an accepted submission.
type ContactResponse struct {
	ID        string    `json:"id" example:"3f1c..." validate:"required"`
	CreatedAt time.Time `json:"created_at" validate:"required"`
	Status    string    `json:"status" example:"success" validate:"required"`
	// ResetAfterMS is how long a client form should show the success state.
	ResetAfterMS int64 `json:"reset_after_ms" example:"4000"`
}

// MessagesResponse wraps stored contact messages.
type MessagesResponse struct {
	Messages []store.MessageRow `json:"messages" validate:"required"`
	Total    int                `json:"total" example:"12" validate:"required"`
}
