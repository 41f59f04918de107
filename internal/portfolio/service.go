// Package portfolio coordinates the catalog, the markdown renderer and the
// contact sink for the HTTP, page and MCP front ends.
package portfolio

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/contact"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/markdown"
	"github.com/starford/folio/internal/ratelimit"
)

// DetailSection is one narrative block of a project detail page. ID is the
// anchor the section tracker observes.
type DetailSection struct {
	ID    string        `json:"id"`
	Title string        `json:"title"`
	HTML  template.HTML `json:"html"`
}

// ProjectDetail is a project with its rendered narrative.
type ProjectDetail struct {
	catalog.Project
	Sections []DetailSection `json:"sections"`
}

// DetailSectionIDs are the anchors of a project detail page, top to bottom.
var DetailSectionIDs = []string{"problem", "stack", "approach", "architecture", "challenges", "learned"}

var sectionTitles = map[string]string{
	"problem":      "The Problem",
	"stack":        "Tech Stack",
	"approach":     "The Approach",
	"architecture": "Technical Architecture",
	"challenges":   "Core Challenges",
	"learned":      "Key Learnings",
}

// Service is the read side over the catalog plus contact submission.
type Service struct {
	catalogs      *catalog.Store
	sink          contact.Sink
	limiter       *ratelimit.Limiter
	search        index.Searcher
	md            *markdown.Renderer
	successWindow time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithSuccessWindow sets how long a successful contact form stays in the
// success state. Zero keeps the form default.
func WithSuccessWindow(d time.Duration) Option {
	return func(s *Service) { s.successWindow = d }
}

// WithLimiter caps contact submissions per client.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithSearch enables project search.
func WithSearch(idx index.Searcher) Option {
	return func(s *Service) { s.search = idx }
}

// NewService creates a service.
func NewService(catalogs *catalog.Store, sink contact.Sink, opts ...Option) *Service {
	s := &Service{
		catalogs: catalogs,
		sink:     sink,
		md:       markdown.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the snapshot in effect. Callers serving one request should
// take a single snapshot and read from it.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalogs.Current()
}

// ListProjects returns the projects matching f.
func (s *Service) ListProjects(_ context.Context, f catalog.Filter) []catalog.Project {
	return s.Catalog().List(f)
}

// GetProject returns the project with slug or apperr.ErrNotFound.
func (s *Service) GetProject(_ context.Context, slug string) (catalog.Project, error) {
	return s.Catalog().Get(slug)
}

func narrative(p catalog.Project) map[string]string {
	return map[string]string{
		"problem":      p.Problem,
		"stack":        p.Stack,
		"approach":     p.Approach,
		"architecture": p.Architecture,
		"challenges":   p.Challenges,
		"learned":      p.Learned,
	}
}

// SectionIDs returns the detail anchors p has content for, top to bottom.
func SectionIDs(p catalog.Project) []string {
	raw := narrative(p)
	ids := make([]string, 0, len(DetailSectionIDs))
	for _, id := range DetailSectionIDs {
		if raw[id] != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// GetProjectDetail returns the project with its narrative rendered to HTML.
func (s *Service) GetProjectDetail(ctx context.Context, slug string) (*ProjectDetail, error) {
	p, err := s.GetProject(ctx, slug)
	if err != nil {
		return nil, err
	}
	raw := narrative(p)
	d := &ProjectDetail{Project: p}
	for _, id := range SectionIDs(p) {
		html, err := s.md.Render(raw[id])
		if err != nil {
			return nil, err
		}
		d.Sections = append(d.Sections, DetailSection{ID: id, Title: sectionTitles[id], HTML: html})
	}
	return d, nil
}

// Profile returns the biography.
func (s *Service) Profile(_ context.Context) catalog.Profile {
	return s.Catalog().Profile()
}

// Skills returns the skill groups.
func (s *Service) Skills(_ context.Context) []catalog.SkillGroup {
	return s.Catalog().Skills()
}

// NewContactForm returns a form bound to the configured success window.
func (s *Service) NewContactForm(fields contact.Message) *contact.Form {
	return contact.NewForm(fields, contact.WithSuccessWindow(s.successWindow))
}

// SubmitContact runs one submission of fields from client through a fresh
// form. The returned form carries the outcome whether or not err is nil. A
// rate-limited client gets apperr.ErrRateLimited and an idle form that
// still holds its fields.
func (s *Service) SubmitContact(ctx context.Context, client string, fields contact.Message) (*contact.Form, error) {
	f := s.NewContactForm(fields)
	if s.sink == nil {
		return f, fmt.Errorf("portfolio: no contact sink: %w", apperr.ErrUnsupported)
	}
	if _, err := s.limiter.Check(ctx, client); err != nil {
		return f, err
	}
	err := f.Submit(ctx, s.sink)
	return f, err
}

// maxQueryLen bounds search input in characters; longer queries are rejected.
const maxQueryLen = 200

// Search finds projects of the current catalog matching every term of query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]index.Result, error) {
	if s.search == nil {
		return nil, fmt.Errorf("portfolio: search disabled: %w", apperr.ErrUnsupported)
	}
	query = strings.TrimSpace(query)
	if query == "" || utf8.RuneCountInString(query) > maxQueryLen {
		return nil, fmt.Errorf("portfolio: query must be 1-%d characters: %w", maxQueryLen, apperr.ErrInvalid)
	}
	results, err := s.search.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []index.Result{}
	}
	return results, nil
}
