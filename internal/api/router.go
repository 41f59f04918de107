package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/starford/folio/internal/portfolio"
)

// Deps are the collaborators of the API router.
type Deps struct {
	Service *portfolio.Service
	// Messages backs the admin endpoint; nil leaves it unmounted.
	Messages MessageLister
	// Events, if non-nil, is mounted at GET /events.
	Events         http.Handler
	Auth           AuthConfig
	AllowedOrigins []string
}

// NewRouter creates a chi router with all API routes mounted.
// The admin group is only mounted when auth is enabled.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Service, d.Messages)

	r := chi.NewRouter()
	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "If-None-Match"},
			ExposedHeaders: []string{"ETag"},
			MaxAge:         300,
		}))
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
	})

	// Catalog reads.
	r.Get("/profile", h.GetProfile)
	r.Get("/projects", h.ListProjects)
	r.Get("/projects/{slug}", h.GetProject)
	r.Get("/skills", h.ListSkills)
	r.Get("/search", h.Search)

	// Contact.
	r.Post("/contact", h.SubmitContact)

	// Content change events.
	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	if d.Auth.Enabled && d.Messages != nil {
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Auth))
			r.Get("/admin/messages", h.ListMessages)
		})
	}

	return r
}
