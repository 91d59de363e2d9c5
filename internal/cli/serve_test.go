package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/commitreel/pkg/ancestry"
	"github.com/matzehuels/commitreel/pkg/branchtree"
	"github.com/matzehuels/commitreel/pkg/cache"
	"github.com/matzehuels/commitreel/pkg/inventory"
)

const serveHistory = `{
  "metadata": {"repo": "demo/repo"},
  "branches": [{"name": "main", "is_default": true}],
  "commits": [
    {"sha": "a1", "branch": "main", "timestamp": "2025-03-01T12:00:00Z", "insertions": 10, "files_changed": 1, "category": "feature"},
    {"sha": "b1", "branch": "feature/x", "timestamp": "2025-03-02T12:00:00Z", "insertions": 50, "files_changed": 3, "category": "feature"},
    {"sha": "a2", "branch": "main", "timestamp": "2025-03-03T12:00:00Z", "insertions": 60, "files_changed": 4, "category": "merge"}
  ],
  "merges": [
    {"sha": "a2", "from_branch": "feature/x", "to_branch": "main", "timestamp": "2025-03-03T12:00:00Z"}
  ]
}`

func testServer(t *testing.T) *server {
	t.Helper()
	doc, err := ancestry.Load(strings.NewReader(serveHistory))
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	tree := branchtree.Build(doc)
	return &server{
		doc:     doc,
		docHash: cache.Hash([]byte(serveHistory)),
		tree:    tree,
		table:   inventory.Precompute(doc, tree),
		store:   cache.NewNullCache(),
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
	}
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServeHealth(t *testing.T) {
	srv := testServer(t)
	rec := get(t, srv.routes(), "/healthz")

	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
}

func TestServeInfo(t *testing.T) {
	srv := testServer(t)
	rec := get(t, srv.routes(), "/api/info")

	if rec.Code != http.StatusOK {
		t.Fatalf("info status = %d", rec.Code)
	}

	var body struct {
		Repo          string `json:"repo"`
		Commits       int    `json:"commits"`
		Branches      int    `json:"branches"`
		DefaultBranch string `json:"default_branch"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if body.Repo != "demo/repo" || body.Commits != 3 || body.DefaultBranch != "main" {
		t.Errorf("unexpected info: %+v", body)
	}
}

func TestServeStatsSingleFrame(t *testing.T) {
	srv := testServer(t)
	rec := get(t, srv.routes(), "/api/stats?frame=2")

	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}

	var row inventory.FrameStats
	if err := json.NewDecoder(rec.Body).Decode(&row); err != nil {
		t.Fatalf("decode stats row: %v", err)
	}
	// After two commits the feature branch holds unmerged work.
	if row.UnmergedCommits != 1 || row.UnmergedLines != 50 {
		t.Errorf("unexpected row: %+v", row)
	}
}

func TestServeStatsBadFrame(t *testing.T) {
	srv := testServer(t)
	rec := get(t, srv.routes(), "/api/stats?frame=nope")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad frame should 400, got %d", rec.Code)
	}
}

func TestServeStatsFullTable(t *testing.T) {
	srv := testServer(t)
	rec := get(t, srv.routes(), "/api/stats")

	var rows []inventory.FrameStats
	if err := json.NewDecoder(rec.Body).Decode(&rows); err != nil {
		t.Fatalf("decode stats table: %v", err)
	}
	if len(rows) != 4 {
		t.Errorf("table length = %d, want commits+1", len(rows))
	}
}

func TestServeLayout(t *testing.T) {
	srv := testServer(t)
	rec := get(t, srv.routes(), "/api/layout?width=1280&height=720")

	if rec.Code != http.StatusOK {
		t.Fatalf("layout status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("layout content type = %q", ct)
	}

	var body struct {
		Commits []json.RawMessage
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	if len(body.Commits) != 3 {
		t.Errorf("layout commits = %d, want 3", len(body.Commits))
	}
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/layout?width=640&height=junk", nil)

	if got := queryInt(req, "width", 1920); got != 640 {
		t.Errorf("width = %d, want 640", got)
	}
	if got := queryInt(req, "height", 1080); got != 1080 {
		t.Errorf("invalid height should fall back, got %d", got)
	}
	if got := queryInt(req, "missing", 42); got != 42 {
		t.Errorf("missing param should fall back, got %d", got)
	}
}
