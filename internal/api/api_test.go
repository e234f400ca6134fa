package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/postservice"
	"github.com/starford/dagaz/internal/render"
	"github.com/starford/dagaz/internal/repository"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/theme"
)

// testEnv sets up a temp content tree, SQLite index, service, theme store,
// and router. authToken="" means auth disabled.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	return testEnvFull(t, authToken != "", authToken, nil)
}

func testEnvFull(t *testing.T, authEnabled bool, authToken string, sseHandler http.Handler) http.Handler {
	t.Helper()

	contentDir := t.TempDir()
	store, err := storage.NewFS(contentDir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	files := map[string]string{
		"2025-01-01.md": "---\ntitle: First\ndate: 2025-01-01\ntags: [go]\n---\n\n# Intro\n\nLearned something.",
		"2025-01-02.md": "---\ntitle: Second\ndate: 2025-01-02\ntags: [go, sql]\n---\n\n# Queries\n\nuniquetoken here.",
		"2025-01-03.md": "---\ntitle: Third\ndate: 2025-01-03\ntags: [sql]\n---\n\nplain text",
	}
	for path, content := range files {
		if err := store.Write(path, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}

	repo := repository.New()
	if err := repo.LoadAll(context.Background(), store); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	dbFile, err := os.CreateTemp("", "dagaz-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })
	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if err := index.Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	themes, err := theme.Open(filepath.Join(t.TempDir(), "theme.json"), theme.ModeLight)
	if err != nil {
		t.Fatalf("theme.Open: %v", err)
	}

	svc := postservice.NewService(repo, db, render.New())
	return NewRouter(svc, themes, authEnabled, authToken, sseHandler)
}

func TestListPosts(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/posts?limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d, body = %s", w.Code, w.Body.String())
	}
	var resp PostListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 3 || len(resp.Posts) != 3 {
		t.Fatalf("total = %d, posts = %d, want 3", resp.Total, len(resp.Posts))
	}
	if resp.Posts[0].Slug != "2025-01-03" {
		t.Errorf("first post = %q, want newest", resp.Posts[0].Slug)
	}
}

func TestListPosts_TagFilter(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/posts?tag=go", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp PostListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Errorf("go posts = %d, want 2", resp.Total)
	}
}

func TestGetPost(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/posts/2025-01-02", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d, body = %s", w.Code, w.Body.String())
	}
	var post PostDetail
	_ = json.Unmarshal(w.Body.Bytes(), &post)
	if post.Title != "Second" {
		t.Errorf("title = %q", post.Title)
	}
	if !bytes.Contains([]byte(post.HTML), []byte(`id="queries"`)) {
		t.Errorf("HTML missing anchor: %q", post.HTML)
	}
	if len(post.Headings) != 1 || post.Headings[0].ID != "queries" {
		t.Errorf("headings = %+v", post.Headings)
	}
	if post.Next == nil || post.Next.Slug != "2025-01-03" {
		t.Errorf("next = %+v", post.Next)
	}
	if post.Prev == nil || post.Prev.Slug != "2025-01-01" {
		t.Errorf("prev = %+v", post.Prev)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/posts/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing post = %d, want 404", w.Code)
	}
}

func TestTagsEndpoint(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/tags", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("tags = %d", w.Code)
	}
	var resp TagsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Tags) != 2 {
		t.Fatalf("tags = %+v, want go and sql", resp.Tags)
	}
	if resp.Tags[0].Name != "go" || resp.Tags[0].Count != 2 {
		t.Errorf("tags[0] = %+v", resp.Tags[0])
	}
}

func TestTagPostsEndpoint(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/tags/sql", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("tag posts = %d", w.Code)
	}
	var resp PostListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || resp.Posts[0].Slug != "2025-01-03" {
		t.Errorf("sql posts = %+v", resp)
	}
}

func TestArchiveEndpoint(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/archive", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("archive = %d", w.Code)
	}
	var resp ArchiveResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Months) != 1 || resp.Months[0].Month != "2025-01" || resp.Months[0].Count != 3 {
		t.Errorf("months = %+v", resp.Months)
	}
}

func TestCalendarEndpoint(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/calendar/2025-01", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("calendar = %d, body = %s", w.Code, w.Body.String())
	}
	var cal postservice.CalendarMonth
	_ = json.Unmarshal(w.Body.Bytes(), &cal)
	if cal.StartWeekday != 3 || len(cal.Days) != 31 {
		t.Errorf("calendar = start %d, days %d", cal.StartWeekday, len(cal.Days))
	}
	if len(cal.Days[0].Slugs) != 1 {
		t.Errorf("Jan 1 = %+v", cal.Days[0])
	}
}

func TestCalendarEndpoint_InvalidMonth(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/calendar/bogus", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("invalid month = %d, want 404", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/search?q=uniquetoken", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].Slug != "2025-01-02" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestThemeGetAndUpdate(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/theme", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp ThemeResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Mode != "light" {
		t.Errorf("initial mode = %q, want light", resp.Mode)
	}

	body, _ := json.Marshal(UpdateThemeRequest{Mode: "dark"})
	req = httptest.NewRequest(http.MethodPut, "/theme", bytes.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update theme = %d, body = %s", w.Code, w.Body.String())
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Mode != "dark" {
		t.Errorf("updated mode = %q, want dark", resp.Mode)
	}
}

func TestThemeUpdate_InvalidMode(t *testing.T) {
	router := testEnv(t, "")

	body, _ := json.Marshal(UpdateThemeRequest{Mode: "sepia"})
	req := httptest.NewRequest(http.MethodPut, "/theme", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid mode = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

// sseStub writes headers and blocks until the request context is done.
var sseStub = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvFull(t, true, "secret", sseStub)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvFull(t, true, "tok", sseStub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}
