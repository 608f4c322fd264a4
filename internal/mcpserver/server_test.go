package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fele-systems/memendex/internal/memeservice"
	"github.com/fele-systems/memendex/internal/models"
	"github.com/fele-systems/memendex/internal/testutil"
	"github.com/fele-systems/memendex/internal/thumbnail"
)

func testServer(t *testing.T) (*Server, *memeservice.Service) {
	t.Helper()

	db := testutil.TestDB(t)
	_, store := testutil.TestStore(t)
	thumbs, err := thumbnail.NewCache(t.TempDir(), store)
	if err != nil {
		t.Fatal(err)
	}
	svc := memeservice.New(db, store, thumbs)
	return New(svc), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_memes":
		result, err = srv.searchMemes(ctx, req)
	case "get_meme":
		result, err = srv.getMeme(ctx, req)
	case "list_memes":
		result, err = srv.listMemes(ctx, req)
	case "save_note":
		result, err = srv.saveNote(ctx, req)
	case "suggest_tags":
		result, err = srv.suggestTags(ctx, req)
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

func TestSaveAndGetNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "save_note", map[string]interface{}{
		"title":       "shopping",
		"description": "milk and eggs",
	})
	text := resultText(r)
	if !strings.HasPrefix(text, "created: meme ") {
		t.Errorf("save result = %q", text)
	}

	r = callTool(t, srv, "get_meme", map[string]interface{}{"id": float64(1)})
	text = resultText(r)
	if !strings.Contains(text, "shopping") || !strings.Contains(text, "milk and eggs") {
		t.Errorf("get result = %q", text)
	}
}

func TestGetMemeMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_meme", map[string]interface{}{"id": float64(99)})
	if !r.IsError {
		t.Error("expected error for missing meme")
	}
}

func TestSearchMemes(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "save_note", map[string]interface{}{"title": "surprised pikachu"})

	r := callTool(t, srv, "search_memes", map[string]interface{}{"query": "pikachu"})
	text := resultText(r)
	if !strings.Contains(text, "surprised pikachu") {
		t.Errorf("search result = %q", text)
	}
}

func TestListMemes(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "save_note", map[string]interface{}{"title": "a"})
	callTool(t, srv, "save_note", map[string]interface{}{"title": "b"})

	r := callTool(t, srv, "list_memes", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"totalCount": 2`) {
		t.Errorf("list result = %q", text)
	}
}

func TestSuggestTags(t *testing.T) {
	srv, svc := testServer(t)
	note, err := svc.SaveNote(context.Background(), "", "tagged")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Update(context.Background(), note.ID, models.MemePatch{}, &[]string{"#funny"}); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "suggest_tags", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "#funny (1)") {
		t.Errorf("suggest result = %q", text)
	}
}
