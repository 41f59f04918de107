// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the portfolio catalog for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/chrome"
	"github.com/starford/folio/internal/portfolio"
)

const (
	profileURI       = "folio://profile"
	contentFormatURI = "folio://content-format"
	maxScrollOffsets = 1000
)

// Server wraps the MCP server with the portfolio tools.
type Server struct {
	mcp *server.MCPServer
	svc *portfolio.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *portfolio.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Folio",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List portfolio projects in display order, optionally filtered."),
		mcp.WithString("category", mcp.Description("Only projects in this category")),
		mcp.WithBoolean("featured", mcp.Description("Only featured projects")),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("get_project",
		mcp.WithDescription("Get one project with its narrative sections rendered to HTML."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Project slug, e.g. digital-gold-token")),
	), s.getProject)

	s.mcp.AddTool(mcp.NewTool("search_projects",
		mcp.WithDescription("Full-text search over project titles, stacks and narratives. Every term must match."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search terms, e.g. solidity polygon")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 20, max 50)")),
	), s.searchProjects)

	s.mcp.AddTool(mcp.NewTool("list_skills",
		mcp.WithDescription("List the skill groups shown on the skills page."),
	), s.listSkills)

	s.mcp.AddTool(mcp.NewTool("simulate_scroll",
		mcp.WithDescription("Replay a sequence of vertical scroll offsets through the navigation "+
			"dock's show/hide rule and return whether the dock is visible after each one."),
		mcp.WithArray("offsets", mcp.Required(),
			mcp.Description("Scroll offsets in pixels, in the order they happen"),
			mcp.Items(map[string]any{"type": "integer"}),
		),
	), s.simulateScroll)

	s.mcp.AddTool(mcp.NewTool("validate_content",
		mcp.WithDescription("Check a draft portfolio.yaml against the content format. "+
			"Read the format first via get_content_contract or the folio://content-format resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full YAML document")),
	), s.validateContent)

	s.mcp.AddTool(mcp.NewTool("get_content_contract",
		mcp.WithDescription("Returns the portfolio.yaml content format."),
	), s.getContentContract)

	s.mcp.AddResource(
		mcp.NewResource(profileURI, "Profile",
			mcp.WithResourceDescription("The site owner's biography and links."),
			mcp.WithMIMEType("application/json"),
		),
		s.readProfileResource,
	)
	s.mcp.AddResource(
		mcp.NewResource(contentFormatURI, "Content Format",
			mcp.WithResourceDescription("Format of the portfolio.yaml content document."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContentFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := catalog.Filter{
		Category: req.GetString("category", ""),
		Featured: req.GetBool("featured", false),
	}
	type item struct {
		Slug        string `json:"slug"`
		Title       string `json:"title"`
		Category    string `json:"category"`
		Year        int    `json:"year"`
		Featured    bool   `json:"featured"`
		Description string `json:"description"`
	}
	projects := s.svc.ListProjects(ctx, f)
	items := make([]item, 0, len(projects))
	for _, p := range projects {
		items = append(items, item{p.Slug, p.Title, p.Category, p.Year, p.Featured, p.Description})
	}
	return jsonResult(items)
}

func (s *Server) getProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.GetProjectDetail(ctx, slug)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(d)
}

func (s *Server) searchProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) listSkills(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Skills(ctx))
}

func (s *Server) simulateScroll(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	offsets, err := req.RequireIntSlice("offsets")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(offsets) > maxScrollOffsets {
		return mcp.NewToolResultError(fmt.Sprintf("at most %d offsets", maxScrollOffsets)), nil
	}
	type step struct {
		Offset  int  `json:"offset"`
		Visible bool `json:"visible"`
	}
	visible := chrome.Trace(offsets)
	steps := make([]step, len(offsets))
	for i, off := range offsets {
		steps[i] = step{Offset: off, Visible: visible[i]}
	}
	return jsonResult(steps)
}

func (s *Server) validateContent(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := catalog.Parse([]byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("valid: %d projects, %d skill groups", c.Len(), len(c.Skills()))), nil
}

func (s *Server) getContentContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ContentFormatContract), nil
}

func (s *Server) readProfileResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := json.Marshal(s.svc.Profile(ctx))
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      profileURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

func (s *Server) readContentFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contentFormatURI,
			MIMEType: "text/markdown",
			Text:     ContentFormatContract,
		},
	}, nil
}
