// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes omnibar tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/omnibar/internal/navservice"
)

const rulesURI = "omnibar://classifier-rules"

// Server wraps the MCP server with omnibar tools.
type Server struct {
	mcp *server.MCPServer
	svc *navservice.Service
}

// New creates a new MCP server with all omnibar tools registered.
func New(svc *navservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Omnibar",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("resolve_input",
		mcp.WithDescription("Classify address-bar text as a URL or a search query and return the URL that would be loaded. Does not fetch anything."),
		mcp.WithString("input", mcp.Required(), mcp.Description("Raw text as typed into an address bar")),
	), s.resolveInput)

	s.mcp.AddTool(mcp.NewTool("open_url",
		mcp.WithDescription("Resolve the input and load it in the headless browser shell. "+
			"Returns the final URL after redirects, the page title and any load error."),
		mcp.WithString("input", mcp.Required(), mcp.Description("Raw text as typed into an address bar")),
	), s.openURL)

	s.mcp.AddTool(mcp.NewTool("recent_visits",
		mcp.WithDescription("List pages loaded successfully by the shell, newest first."),
		mcp.WithString("query", mcp.Description("Optional substring of URL or title")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of visits (default 20)")),
	), s.recentVisits)

	s.mcp.AddResource(
		mcp.NewResource(rulesURI, "Classifier Rules",
			mcp.WithResourceDescription("How address-bar input is classified into URLs and search queries."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRulesResource,
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

func (s *Server) resolveInput(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := req.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Resolve(ctx, input))
}

func (s *Server) openURL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := req.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, state := s.svc.Navigate(ctx, input)
	if state.LastError != "" {
		return mcp.NewToolResultError(fmt.Sprintf("load %s failed: %s", target.URL, state.LastError)), nil
	}
	return jsonResult(map[string]any{
		"target": target,
		"url":    state.URL,
		"title":  state.Title,
	})
}

func (s *Server) recentVisits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := ""
	if q, err := req.RequireString("query"); err == nil {
		query = q
	}
	limit := 20
	if n, err := req.RequireInt("limit"); err == nil && n > 0 {
		limit = n
	}
	visits, err := s.svc.Visits(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(visits) == 0 {
		return mcp.NewToolResultText("no visits recorded"), nil
	}
	return jsonResult(visits)
}

func (s *Server) readRulesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      rulesURI,
			MIMEType: "text/markdown",
			Text:     ClassifierRules,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
