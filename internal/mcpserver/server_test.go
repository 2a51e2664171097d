package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/entryservice"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/render"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/testutil"
)

func testServer(t *testing.T) (*Server, *entryservice.Service, storage.Provider) {
	t.Helper()
	_, store, lay := testutil.TestRepo(t)
	svc := entryservice.NewService(store, lay, testutil.TestAllocator(t), render.New(store),
		entryservice.WithClock(testutil.FixedClock(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))))
	return New(svc), svc, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go offers no direct call-tool test helper, so the handler
	// functions are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_entry":
		result, err = srv.getEntry(ctx, req)
	case "list_entries":
		result, err = srv.listEntries(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "repo_overview":
		result, err = srv.repoOverview(ctx, req)
	case "get_entry_contract":
		result, err = srv.getEntryContract(ctx, req)
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

func mustCreate(t *testing.T, svc *entryservice.Service, p entryservice.CreateParams) *models.Entry {
	t.Helper()
	e, err := svc.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return e
}

func TestGetEntry(t *testing.T) {
	srv, svc, _ := testServer(t)
	e := mustCreate(t, svc, entryservice.CreateParams{Kind: models.KindHypothesis, Title: "Quantum noise"})
	if _, err := svc.UpdateBody(context.Background(), e.ID, "## Notes\n"); err != nil {
		t.Fatalf("UpdateBody: %v", err)
	}

	r := callTool(t, srv, "get_entry", map[string]interface{}{"id": e.ID})
	if r.IsError {
		t.Fatalf("get_entry errored: %s", resultText(r))
	}
	var got struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != e.ID || got.Title != "Quantum noise" {
		t.Errorf("got %+v", got)
	}
	if got.Body != "## Notes\n" {
		t.Errorf("body = %q", got.Body)
	}
}

func TestGetEntryMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "get_entry", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing entry")
	}
}

func TestListEntriesFiltered(t *testing.T) {
	srv, svc, _ := testServer(t)
	h := mustCreate(t, svc, entryservice.CreateParams{Kind: models.KindHypothesis, Title: "H"})
	mustCreate(t, svc, entryservice.CreateParams{Kind: models.KindLiterature, Title: "L"})

	r := callTool(t, srv, "list_entries", map[string]interface{}{"kind": "hypothesis"})
	if r.IsError {
		t.Fatalf("list_entries errored: %s", resultText(r))
	}
	var got struct {
		Entries []struct {
			ID string `json:"id"`
		} `json:"entries"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].ID != h.ID {
		t.Errorf("entries = %+v, want just %s", got.Entries, h.ID)
	}

	r = callTool(t, srv, "list_entries", map[string]interface{}{"kind": "experiment"})
	if !r.IsError {
		t.Error("expected error for unknown kind")
	}
}

func TestGetBacklinks(t *testing.T) {
	srv, svc, _ := testServer(t)
	a := mustCreate(t, svc, entryservice.CreateParams{Kind: models.KindHypothesis, Title: "A"})
	b := mustCreate(t, svc, entryservice.CreateParams{Kind: models.KindLiterature, Title: "B"})
	if err := svc.AddReference(context.Background(), a.ID, b.ID); err != nil {
		t.Fatalf("AddReference: %v", err)
	}

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"id": b.ID})
	if r.IsError {
		t.Fatalf("get_backlinks errored: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), a.ID) {
		t.Errorf("backlinks = %q, want to contain %s", resultText(r), a.ID)
	}

	r = callTool(t, srv, "get_backlinks", map[string]interface{}{"id": a.ID})
	if resultText(r) != "no backlinks found" {
		t.Errorf("backlinks = %q, want none", resultText(r))
	}
}

func TestRepoOverview(t *testing.T) {
	srv, svc, store := testServer(t)
	mustCreate(t, svc, entryservice.CreateParams{Kind: models.KindHypothesis, Title: "H1"})
	mustCreate(t, svc, entryservice.CreateParams{Kind: models.KindHypothesis, Title: "H2"})
	mustCreate(t, svc, entryservice.CreateParams{Kind: models.KindKnowledge, Title: "K"})
	if err := store.Write(filepath.Join(testutil.ActiveDir, "hypotheses", "zz-bad.md"), []byte("garbage\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := callTool(t, srv, "repo_overview", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("repo_overview errored: %s", resultText(r))
	}
	var got struct {
		Total    int            `json:"total"`
		ByKind   map[string]int `json:"by_kind"`
		ByStatus map[string]int `json:"by_status"`
		Issues   []issueReport  `json:"issues"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Total != 3 || got.ByKind["hypothesis"] != 2 || got.ByStatus["draft"] != 1 {
		t.Errorf("overview = %+v", got)
	}
	if len(got.Issues) != 1 {
		t.Errorf("issues = %+v, want one", got.Issues)
	}
}

func TestGetEntryContract(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "get_entry_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "frontmatter") {
		t.Error("contract text missing frontmatter description")
	}
}
