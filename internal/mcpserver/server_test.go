package mcpserver

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/storage"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	contentDir := t.TempDir()
	store, err := storage.NewFS(contentDir)
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "dagaz-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	srv := New(store, db)
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_posts":
		result, err = srv.listPosts(ctx, req)
	case "search_posts":
		result, err = srv.searchPosts(ctx, req)
	case "read_post":
		result, err = srv.readPost(ctx, req)
	case "post_outline":
		result, err = srv.postOutline(ctx, req)
	case "create_post":
		result, err = srv.createPost(ctx, req)
	case "get_post_contract":
		result, err = srv.getPostContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

const samplePost = `---
title: Sample
date: 2025-01-15
tags: [go]
---

# Sample

## Setup

text

## Setup

more`

func TestCreateAndReadPost(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_post", map[string]interface{}{
		"slug":    "2025-01-15",
		"content": samplePost,
	})
	text := resultText(r)
	if text != "created: 2025-01-15" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_post", map[string]interface{}{
		"slug": "2025-01-15",
	})
	if resultText(r) != samplePost {
		t.Errorf("read result = %q", resultText(r))
	}
}

func TestCreatePost_DuplicateRejected(t *testing.T) {
	srv, _ := testServer(t)

	_ = callTool(t, srv, "create_post", map[string]interface{}{
		"slug":    "2025-01-15",
		"content": samplePost,
	})
	r := callTool(t, srv, "create_post", map[string]interface{}{
		"slug":    "2025-01-15",
		"content": samplePost,
	})
	if !r.IsError {
		t.Error("expected error for duplicate slug")
	}
}

func TestCreatePost_RejectsExtension(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_post", map[string]interface{}{
		"slug":    "2025-01-15.md",
		"content": samplePost,
	})
	if !r.IsError {
		t.Error("expected error for slug with .md extension")
	}
}

func TestListPosts(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_post", map[string]interface{}{
		"slug":    "2025-01-15",
		"content": samplePost,
	})

	r := callTool(t, srv, "list_posts", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "2025-01-15") {
		t.Errorf("list = %q", text)
	}
}

func TestSearchPosts(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_post", map[string]interface{}{
		"slug":    "2025-01-15",
		"content": "---\ntitle: Find Me\ndate: 2025-01-15\n---\n\nuniquetoken body",
	})

	r := callTool(t, srv, "search_posts", map[string]interface{}{"query": "uniquetoken"})
	text := resultText(r)
	if !strings.Contains(text, "2025-01-15") {
		t.Errorf("search = %q", text)
	}
}

func TestPostOutline(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_post", map[string]interface{}{
		"slug":    "2025-01-15",
		"content": samplePost,
	})

	r := callTool(t, srv, "post_outline", map[string]interface{}{"slug": "2025-01-15"})
	text := resultText(r)
	if !strings.Contains(text, `"setup"`) || !strings.Contains(text, `"setup-2"`) {
		t.Errorf("outline = %q", text)
	}
}

func TestPostOutline_NoHeadings(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("plain.md", []byte("no headings here"))

	r := callTool(t, srv, "post_outline", map[string]interface{}{"slug": "plain"})
	if resultText(r) != "no headings" {
		t.Errorf("outline = %q", resultText(r))
	}
}

func TestReadPostMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_post", map[string]interface{}{"slug": "nope"})
	if !r.IsError {
		t.Error("expected error for missing post")
	}
}

func TestGetPostContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_post_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "YYYY-MM-DD") {
		t.Error("contract missing date convention")
	}
}
