// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Memendex tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fele-systems/memendex/internal/memeservice"
)

// Server wraps the MCP server with Memendex tools.
type Server struct {
	mcp *server.MCPServer
	svc *memeservice.Service
}

// New creates a new MCP server with all Memendex tools registered.
func New(svc *memeservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Memendex",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_memes",
		mcp.WithDescription("Fuzzy search through meme display names and descriptions. "+
			"Queries shorter than three characters return nothing."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchMemes)

	s.mcp.AddTool(mcp.NewTool("get_meme",
		mcp.WithDescription("Fetch one meme with its tags by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Meme id")),
	), s.getMeme)

	s.mcp.AddTool(mcp.NewTool("list_memes",
		mcp.WithDescription("List memes page by page, newest ids last."),
		mcp.WithNumber("page", mcp.Description("1-based page number (default 1)")),
	), s.listMemes)

	s.mcp.AddTool(mcp.NewTool("save_note",
		mcp.WithDescription("Store a note meme with a title and description."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("description", mcp.Description("Note body")),
	), s.saveNote)

	s.mcp.AddTool(mcp.NewTool("suggest_tags",
		mcp.WithDescription("Suggest tags ordered by usage. An empty term returns the overall top tags."),
		mcp.WithString("term", mcp.Description("Substring to match against canonical tag labels")),
	), s.suggestTags)

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

func (s *Server) searchMemes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.svc.Search(ctx, query, 1, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(page.Data, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getMeme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireFloat("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.Detail(ctx, int64(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: meme %d", int64(id))), nil
	}
	out, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listMemes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageNum := 1
	if p, err := req.RequireFloat("page"); err == nil && p > 0 {
		pageNum = int(p)
	}
	page, err := s.svc.List(ctx, pageNum, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(page, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) saveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description := ""
	if d, err := req.RequireString("description"); err == nil {
		description = d
	}
	meme, err := s.svc.SaveNote(ctx, description, title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: meme %d", meme.ID)), nil
}

func (s *Server) suggestTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	term := ""
	if v, err := req.RequireString("term"); err == nil {
		term = v
	}
	usages, err := s.svc.SuggestTags(ctx, term, 10)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(usages) == 0 {
		return mcp.NewToolResultText("no tags found"), nil
	}
	var lines []string
	for _, u := range usages {
		lines = append(lines, fmt.Sprintf("%s (%d)", u.Tag, u.Count))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}
