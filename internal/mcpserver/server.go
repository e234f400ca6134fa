// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Dagaz tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dagaz/internal/checksum"
	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/repository"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/toc"
)

// Server wraps the MCP server with Dagaz tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	db    *index.DB
}

// New creates a new MCP server with all Dagaz tools registered.
func New(store storage.Provider, db *index.DB) *Server {
	s := &Server{store: store, db: db}

	s.mcp = server.NewMCPServer(
		"Dagaz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List posts, newest first. Optionally filter by tag."),
		mcp.WithString("tag", mcp.Description("Optional tag to filter by")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Full-text search through post content, titles, and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read the full Markdown source of a post."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug (e.g. 2025-01-15 or 2025-01-15-2)")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("post_outline",
		mcp.WithDescription("Get the heading outline of a post: level, text, and anchor id per heading."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug")),
	), s.postOutline)

	s.mcp.AddTool(mcp.NewTool("create_post",
		mcp.WithDescription("Create a new post at the given slug. "+
			"Content MUST follow the canonical post format (YAML frontmatter with title, "+
			"date, optional description and tags, Markdown body). Read the contract first "+
			"via the get_post_contract tool or the dagaz://post-format resource."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Slug for the new post, normally today's date (YYYY-MM-DD), with -2, -3... for additional posts on the same day")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the Dagaz post format contract")),
	), s.createPost)

	s.mcp.AddTool(mcp.NewTool("get_post_contract",
		mcp.WithDescription("Returns the canonical Dagaz post format contract. "+
			"Call this before creating posts to ensure correct structure."),
	), s.getPostContract)

	// Resource: post format contract.
	s.mcp.AddResource(
		mcp.NewResource("dagaz://post-format", "Post Format Contract",
			mcp.WithResourceDescription("Canonical Markdown post format that all posts must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
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

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := ""
	if v, err := req.RequireString("tag"); err == nil {
		tag = v
	}
	rows, _, err := s.db.ListPosts(200, 0, tag, "new")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type item struct {
		Slug  string   `json:"slug"`
		Title string   `json:"title"`
		Date  string   `json:"date,omitempty"`
		Tags  []string `json:"tags,omitempty"`
	}
	items := make([]item, len(rows))
	for i, r := range rows {
		items[i] = item{Slug: r.Slug, Title: r.Title, Date: r.Date, Tags: r.Tags}
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(slug + ".md")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) postOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(slug + ".md")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	res := parser.Parse(data)
	headings := toc.DeriveHeadings(res.Body)
	if len(headings) == 0 {
		return mcp.NewToolResultText("no headings"), nil
	}
	out, _ := json.MarshalIndent(headings, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.HasSuffix(slug, ".md") {
		return mcp.NewToolResultError("slug must not include the .md extension"), nil
	}

	path := slug + ".md"
	if s.store.Exists(path) {
		return mcp.NewToolResultError(fmt.Sprintf("post already exists: %s", slug)), nil
	}

	data := []byte(content)
	if err := s.store.Write(path, data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Index the new post.
	res := parser.Parse(data)
	_ = s.db.UpsertPost(index.PostRow{
		Slug:        slug,
		Title:       res.Frontmatter.Title,
		Description: res.Frontmatter.Description,
		Date:        res.Frontmatter.Date,
		DailyIndex:  repository.DailyIndex(slug),
		Tags:        res.Frontmatter.Tags,
		Checksum:    checksum.Sum(data),
		UpdatedAt:   time.Now(),
	}, res.Body)

	return mcp.NewToolResultText(fmt.Sprintf("created: %s", slug)), nil
}

func (s *Server) getPostContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readPostFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "dagaz://post-format",
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}
