package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/contact"
	"github.com/starford/folio/internal/portfolio"
	"github.com/starford/folio/internal/ratelimit"
)

const maxContactBody = 64 << 10

// Handler holds API route handlers.
type Handler struct {
	svc      *portfolio.Service
	messages MessageLister
}

// NewHandler creates a new Handler. messages may be nil when the contact
// sink does not keep a readable copy.
func NewHandler(svc *portfolio.Service, messages MessageLister) *Handler {
	return &Handler{svc: svc, messages: messages}
}

// notModified sets the catalog ETag and reports whether the client's copy
// is current.
func notModified(w http.ResponseWriter, r *http.Request, c *catalog.Catalog) bool {
	etag := checksum.ETag(c.Checksum())
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if checksum.Matches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

// GetProfile handles GET /api/profile.
//
//	@Summary		Get the site owner's profile
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	ProfileResponse
//	@Success		304
//	@Router			/profile [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	c := h.svc.Catalog()
	if notModified(w, r, c) {
		return
	}
	writeJSON(w, http.StatusOK, c.Profile())
}

// ListProjects handles GET /api/projects.
//
//	@Summary		List projects in catalog order
//	@Tags			catalog
//	@Produce		json
//	@Param			category	query		string	false	"Filter by category"
//	@Param			featured	query		bool	false	"Only featured projects"
//	@Success		200			{object}	ProjectListResponse
//	@Failure		400			{object}	errResponse
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filter{Category: q.Get("category")}
	if v := q.Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("featured must be a boolean"))
			return
		}
		f.Featured = featured
	}

	c := h.svc.Catalog()
	if notModified(w, r, c) {
		return
	}
	projects := c.List(f)
	writeJSON(w, http.StatusOK, ProjectListResponse{
		Projects:   projects,
		Total:      len(projects),
		Categories: c.Categories(),
	})
}

// GetProject handles GET /api/projects/{slug}.
//
//	@Summary		Get a project with its rendered narrative
//	@Tags			catalog
//	@Produce		json
//	@Param			slug	path		string	true	"Project slug"
//	@Success		200		{object}	ProjectDetail
//	@Failure		404		{object}	errResponse
//	@Router			/projects/{slug} [get]
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	c := h.svc.Catalog()
	if _, ok := c.Lookup(slug); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	if notModified(w, r, c) {
		return
	}
	d, err := h.svc.GetProjectDetail(r.Context(), slug)
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.Error("get project failed", slog.String("slug", slug), slog.String("error", err.Error()))
		}
		writeJSON(w, status, errorBody(msg))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ListSkills handles GET /api/skills.
//
//	@Summary		List skill groups
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	SkillsResponse
//	@Router			/skills [get]
func (h *Handler) ListSkills(w http.ResponseWriter, r *http.Request) {
	c := h.svc.Catalog()
	if notModified(w, r, c) {
		return
	}
	writeJSON(w, http.StatusOK, SkillsResponse{Groups: c.Skills()})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search over projects
//	@Tags			catalog
//	@Produce		json
//	@Param			q		query		string	true	"Search terms, all must match"
//	@Param			limit	query		int		false	"Max results (default 20, max 50)"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be an integer"))
			return
		}
		limit = n
	}

	results, err := h.svc.Search(r.Context(), q.Get("q"), limit)
	if err != nil {
		status, msg := statusFor(err)
		if errors.Is(err, apperr.ErrInvalid) {
			status, msg = http.StatusBadRequest, "q must be 1-200 characters"
		}
		if status == http.StatusInternalServerError {
			slog.Error("search failed", slog.String("error", err.Error()))
		}
		writeJSON(w, status, errorBody(msg))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q.Get("q"), Results: results, Total: len(results)})
}

// SubmitContact handles POST /api/contact.
//
//	@Summary		Submit a contact message
//	@Tags			contact
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ContactRequest	true	"Message"
//	@Success		201		{object}	ContactResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Failure		429		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Router			/contact [post]
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxContactBody)
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	form, err := h.svc.SubmitContact(r.Context(), ratelimit.ClientKey(r), req)
	if err != nil {
		status, msg := statusFor(err)
		body := errorBody(msg)
		if errors.Is(err, apperr.ErrInvalid) {
			body.Fields = form.FieldErrors()
		}
		if status == http.StatusBadGateway || status == http.StatusInternalServerError {
			slog.Warn("contact submission failed", slog.String("error", err.Error()))
		}
		writeJSON(w, status, body)
		return
	}

	rc := form.Receipt()
	writeJSON(w, http.StatusCreated, ContactResponse{
		ID:           rc.ID,
		CreatedAt:    rc.CreatedAt,
		Status:       string(contact.StatusSuccess),
		ResetAfterMS: form.ResetAfter().Milliseconds(),
	})
}

// ListMessages handles GET /api/admin/messages.
//
//	@Summary		List recent contact messages
//	@Tags			admin
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Success		200		{object}	MessagesResponse
//	@Failure		401		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/admin/messages [get]
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	msgs, err := h.messages.RecentMessages(r.Context(), limit)
	if err != nil {
		slog.Error("list messages failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	total, err := h.messages.CountMessages(r.Context())
	if err != nil {
		slog.Error("count messages failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, MessagesResponse{Messages: msgs, Total: total})
}
