package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"newsdigest/internal/config"
	"newsdigest/internal/core"
	"newsdigest/internal/persistence"
	"newsdigest/internal/ranker"
)

type fakeDB struct {
	persistence.Database
	providers *fakeProviderRepo
	stories   *fakeStoryRepo
	digests   *fakeDigestRepo
}

func (f *fakeDB) Providers() persistence.ProviderRepository { return f.providers }
func (f *fakeDB) Stories() persistence.StoryRepository       { return f.stories }
func (f *fakeDB) Digests() persistence.DigestRepository       { return f.digests }

type fakeProviderRepo struct {
	persistence.ProviderRepository
	byID map[int]*core.Provider
}

func (r *fakeProviderRepo) Get(ctx context.Context, id int) (*core.Provider, error) {
	return r.byID[id], nil
}

type fakeStoryRepo struct {
	persistence.StoryRepository
	byDigest map[int][]core.Story
	articles map[int][]core.Article
}

func (r *fakeStoryRepo) ListByDigest(ctx context.Context, digestID int) ([]core.Story, error) {
	return r.byDigest[digestID], nil
}

func (r *fakeStoryRepo) ArticlesOf(ctx context.Context, storyID int) ([]core.Article, error) {
	return r.articles[storyID], nil
}

type fakeDigestRepo struct {
	persistence.DigestRepository
	ready *core.Digest
}

func (r *fakeDigestRepo) LatestReady(ctx context.Context) (*core.Digest, error) {
	return r.ready, nil
}

func newTestServer() *Server {
	db := &fakeDB{
		providers: &fakeProviderRepo{byID: map[int]*core.Provider{
			1: {ID: 1, Name: "Example Wire", Country: "US"},
		}},
		stories: &fakeStoryRepo{
			byDigest: map[int][]core.Story{
				7: {{ID: 42, Timestamp: time.Now(), Headline: "Headline", Summary: "First. Second."}},
			},
			articles: map[int][]core.Article{
				42: {{ID: 1, ProviderID: 1, Title: "Article", URL: "https://example.com/a", Timestamp: time.Now()}},
			},
		},
		digests: &fakeDigestRepo{ready: &core.Digest{ID: 7, State: core.StateReady}},
	}

	assembler := ranker.New(db, slog.Default(), time.Minute)
	if err := assembler.Refresh(context.Background()); err != nil {
		panic(err)
	}
	return New(assembler, config.Server{Host: "127.0.0.1", Port: 0}, slog.Default())
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleListStories(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/stories", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stories []ranker.RankedStory
	if err := json.Unmarshal(rec.Body.Bytes(), &stories); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(stories) != 1 || stories[0].ID != 42 {
		t.Fatalf("unexpected stories payload: %+v", stories)
	}
}

func TestHandleGetStory_Found(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/story/42", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleGetStory_NotFound(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/story/999", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleGetStory_NonNumericID(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/story/abc", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleRefresh(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRenderRundownHTML_EmptyInput(t *testing.T) {
	if got := RenderRundownHTML(""); got != "" {
		t.Fatalf("expected empty html for empty input, got %q", got)
	}
}

func TestRenderRundownHTML_RendersMarkdown(t *testing.T) {
	got := RenderRundownHTML("# Title\n\nBody text.")
	if got == "" {
		t.Fatal("expected non-empty rendered html")
	}
}
