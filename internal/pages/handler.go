package pages

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/contact"
	"github.com/starford/folio/internal/portfolio"
	"github.com/starford/folio/internal/ratelimit"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	viewHome     = "home"
	viewProjects = "projects"
	viewDetail   = "detail"
	viewSkills   = "skills"
	viewContact  = "contact"
	viewNotFound = "notfound"
)

// contactView is the contact form as the template sees it.
type contactView struct {
	Status      string
	Fields      contact.Message
	FieldErrors map[string]string
	Error       string
}

type pageData struct {
	Path           string
	Active         string
	Nav            []Route
	Profile        catalog.Profile
	RefreshSeconds int

	Projects   []catalog.Project
	Categories []string
	Category   string
	Detail     *portfolio.ProjectDetail
	Skills     []catalog.SkillGroup
	Form       *contactView

	Message   string
	BackURL   string
	BackLabel string
}

// Handler renders the site's pages.
type Handler struct {
	svc    *portfolio.Service
	logger *slog.Logger
	views  map[string]*template.Template
	nav    []Route
}

// NewHandler parses the embedded views.
func NewHandler(svc *portfolio.Service, logger *slog.Logger) (*Handler, error) {
	h := &Handler{
		svc:    svc,
		logger: logger,
		views:  make(map[string]*template.Template),
	}
	for _, name := range []string{viewHome, viewProjects, viewDetail, viewSkills, viewContact, viewNotFound} {
		t, err := template.New(name).ParseFS(templateFS,
			"templates/layout.html", "templates/partials.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("pages: parse %s: %w", name, err)
		}
		h.views[name] = t
	}
	for _, r := range Routes {
		if r.Nav != "" {
			h.nav = append(h.nav, r)
		}
	}
	return h, nil
}

// Register mounts the page routes, the static assets and the HTML not-found
// page on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/projects", h.projects)
	r.Get("/projects/{slug}", h.detail)
	r.Get("/skills", h.skills)
	r.Get("/contact", h.contactForm)
	r.Post("/contact", h.submitContact)

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))
	r.NotFound(h.notFound)
}

func (h *Handler) page(r *http.Request, active string) *pageData {
	return &pageData{
		Path:    r.URL.Path,
		Active:  active,
		Nav:     h.nav,
		Profile: h.svc.Profile(r.Context()),
	}
}

func (h *Handler) render(w http.ResponseWriter, status int, view string, data *pageData) {
	var buf bytes.Buffer
	if err := h.views[view].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("pages: render failed", slog.String("view", view), slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, RouteHome)
	data.Projects = h.svc.ListProjects(r.Context(), catalog.Filter{Featured: true})
	h.render(w, http.StatusOK, viewHome, data)
}

func (h *Handler) projects(w http.ResponseWriter, r *http.Request) {
	// One snapshot for the whole response.
	c := h.svc.Catalog()
	data := h.page(r, RouteProjects)
	data.Category = r.URL.Query().Get("category")
	data.Categories = c.Categories()
	data.Projects = c.List(catalog.Filter{Category: data.Category})
	h.render(w, http.StatusOK, viewProjects, data)
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetProjectDetail(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, apperr.ErrNotFound) {
		data := h.page(r, RouteProjects)
		data.Message, data.BackURL, data.BackLabel = "Project not found", "/projects", "Back to projects"
		h.render(w, http.StatusNotFound, viewNotFound, data)
		return
	}
	if err != nil {
		h.logger.Error("pages: project detail", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	data := h.page(r, RouteProjects)
	data.Detail = d
	h.render(w, http.StatusOK, viewDetail, data)
}

func (h *Handler) skills(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, RouteSkills)
	data.Skills = h.svc.Skills(r.Context())
	h.render(w, http.StatusOK, viewSkills, data)
}

func (h *Handler) contactForm(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, RouteContact)
	data.Form = &contactView{Status: string(contact.StatusIdle)}
	h.render(w, http.StatusOK, viewContact, data)
}

func (h *Handler) submitContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	fields := contact.Message{
		Name:    r.PostForm.Get("name"),
		Email:   r.PostForm.Get("email"),
		Message: r.PostForm.Get("message"),
	}

	form, err := h.svc.SubmitContact(r.Context(), ratelimit.ClientKey(r), fields)
	data := h.page(r, RouteContact)
	view := &contactView{
		Status: string(form.Status()),
		Fields: form.Fields,
	}
	data.Form = view

	if err == nil {
		data.RefreshSeconds = int(math.Ceil(form.ResetAfter().Seconds()))
		h.render(w, http.StatusOK, viewContact, data)
		return
	}

	view.Status = string(contact.StatusError)
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, apperr.ErrInvalid):
		status = http.StatusUnprocessableEntity
		view.Error = "Please check the highlighted fields."
		view.FieldErrors = form.FieldErrors()
	case errors.Is(err, apperr.ErrRateLimited):
		status = http.StatusTooManyRequests
		view.Error = "Too many messages. Please try again later."
	case errors.Is(err, apperr.ErrUnsupported):
		status = http.StatusServiceUnavailable
		view.Error = "The contact form is unavailable right now."
	default:
		h.logger.Warn("pages: contact submission failed", slog.String("error", err.Error()))
		view.Error = "Something went wrong. Please try again."
	}
	h.render(w, status, viewContact, data)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, "")
	data.Message, data.BackURL, data.BackLabel = "Page not found", "/", "Back home"
	h.render(w, http.StatusNotFound, viewNotFound, data)
}
