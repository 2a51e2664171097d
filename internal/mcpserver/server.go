// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the entry repository to LLM clients via stdio transport.
//
// Every tool is read-only. Mutations stay with the CLI so agents cannot
// bypass lifecycle or reference validation.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/entryservice"
	"github.com/starford/ansuz/internal/models"
)

// Server wraps the MCP server with ansuz tools.
type Server struct {
	mcp *server.MCPServer
	svc *entryservice.Service
}

// New creates a new MCP server with all ansuz tools registered.
func New(svc *entryservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_entry",
		mcp.WithDescription("Read one entry by id (or a unique id prefix), including its Markdown body."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id or unique id prefix")),
	), s.getEntry)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List entries in creation order. Optional filters combine conjunctively."),
		mcp.WithString("kind", mcp.Description("hypothesis, literature or knowledge")),
		mcp.WithString("status", mcp.Description("Lifecycle status, e.g. active, proven, pending, published, archived")),
		mcp.WithString("tag", mcp.Description("Tag the entries must carry")),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all entries whose references include the given entry."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id to find referrers of")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("repo_overview",
		mcp.WithDescription("Summarize the repository: entry counts per kind and per status, plus files that fail to parse."),
	), s.repoOverview)

	s.mcp.AddTool(mcp.NewTool("get_entry_contract",
		mcp.WithDescription("Returns the canonical entry file format. "+
			"Call this before interpreting raw entry files."),
	), s.getEntryContract)

	// Resource: entry format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://entry-format", "Entry Format Contract",
			mcp.WithResourceDescription("Canonical Markdown entry format used by every file in the repository."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEntryFormatResource,
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

func (s *Server) getEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.svc.Resolve(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(struct {
		*models.Entry
		Body string `json:"body"`
	}{e, e.Body}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var filter models.ListFilter
	if kind, err := req.RequireString("kind"); err == nil && kind != "" {
		k, parseErr := models.ParseKind(kind)
		if parseErr != nil {
			return mcp.NewToolResultError(parseErr.Error()), nil
		}
		filter.Kind = k
	}
	if status, err := req.RequireString("status"); err == nil {
		filter.Status = models.Status(status)
	}
	if tag, err := req.RequireString("tag"); err == nil {
		filter.Tag = tag
	}

	entries, issues, err := s.svc.List(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(struct {
		Entries []*models.Entry `json:"entries"`
		Issues  []issueReport   `json:"issues,omitempty"`
	}{entries, toIssueReports(issues)}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	referrers, err := s.svc.Backlinks(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(referrers) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	out, _ := json.MarshalIndent(referrers, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) repoOverview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, issues, err := s.svc.List(ctx, models.ListFilter{})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	byKind := make(map[string]int)
	byStatus := make(map[string]int)
	for _, e := range entries {
		byKind[e.Kind.String()]++
		byStatus[e.Status.String()]++
	}
	out, _ := json.MarshalIndent(struct {
		Total    int            `json:"total"`
		ByKind   map[string]int `json:"by_kind"`
		ByStatus map[string]int `json:"by_status"`
		Issues   []issueReport  `json:"issues,omitempty"`
	}{len(entries), byKind, byStatus, toIssueReports(issues)}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getEntryContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EntryFormatContract), nil
}

func (s *Server) readEntryFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://entry-format",
			MIMEType: "text/markdown",
			Text:     EntryFormatContract,
		},
	}, nil
}

// issueReport is the JSON shape of a parse issue; the service's error
// value flattens to its message.
type issueReport struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

func toIssueReports(issues []entryservice.ParseIssue) []issueReport {
	if len(issues) == 0 {
		return nil
	}
	out := make([]issueReport, len(issues))
	for i, is := range issues {
		out[i] = issueReport{Path: is.Path, Error: fmt.Sprint(is.Err)}
	}
	return out
}
