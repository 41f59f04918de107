// Package pages serves the server-rendered site: the route table, the HTML
// views and the contact form post.
package pages

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/portfolio"
)

// Route names.
const (
	RouteHome     = "home"
	RouteProjects = "projects"
	RouteDetail   = "detail"
	RouteSkills   = "skills"
	RouteContact  = "contact"
)

// Route is one entry of the site's route table.
type Route struct {
	Name    string
	Pattern string
	// Nav is the dock label; empty routes are not in the dock.
	Nav string
}

// Routes is the route table in dock order.
var Routes = []Route{
	{Name: RouteHome, Pattern: "/", Nav: "Home"},
	{Name: RouteProjects, Pattern: "/projects", Nav: "Projects"},
	{Name: RouteDetail, Pattern: "/projects/{slug}"},
	{Name: RouteSkills, Pattern: "/skills", Nav: "Skills"},
	{Name: RouteContact, Pattern: "/contact", Nav: "Contact"},
}

var matcher = func() *chi.Mux {
	m := chi.NewRouter()
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for _, r := range Routes {
		m.Get(r.Pattern, noop)
	}
	return m
}()

// Match resolves path against the route table. params holds the pattern's
// URL parameters.
func Match(path string) (route Route, params map[string]string, ok bool) {
	rctx := chi.NewRouteContext()
	if !matcher.Match(rctx, http.MethodGet, path) {
		return Route{}, nil, false
	}
	pattern := rctx.RoutePattern()
	for _, r := range Routes {
		if r.Pattern != pattern {
			continue
		}
		params = make(map[string]string, len(rctx.URLParams.Keys))
		for i, k := range rctx.URLParams.Keys {
			params[k] = rctx.URLParams.Values[i]
		}
		return r, params, true
	}
	return Route{}, nil, false
}

// SectionResolver returns the viewport resolver for the site: detail pages
// of known projects observe their narrative sections, every other page in
// the route table observes none.
func SectionResolver(svc *portfolio.Service) func(path string) ([]string, bool) {
	return func(path string) ([]string, bool) {
		route, params, ok := Match(path)
		if !ok {
			return nil, false
		}
		if route.Name != RouteDetail {
			return nil, true
		}
		p, found := svc.Catalog().Lookup(params["slug"])
		if !found {
			// The not-found view mounts without sections.
			return nil, true
		}
		return portfolio.SectionIDs(p), true
	}
}
