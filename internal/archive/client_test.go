package archive

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"archivist/internal/domain"
	"archivist/internal/fetch"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func record() *domain.ArticleRecord {
	return &domain.ArticleRecord{
		Title:   "A Title",
		Slug:    "a-title",
		Content: "body",
		Author:  domain.ArticleAuthor{Name: "someone", DiscordID: "42"},
	}
}

func TestSubmit_Created(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"slug":"server-slug"}`))
	}))
	defer ts.Close()

	c := New(ts.URL, fetch.New(nil, testLogger()), testLogger())
	outcome := c.Submit(context.Background(), record())

	if gotPath != "/api/article_import" {
		t.Errorf("path = %q", gotPath)
	}
	if !outcome.Created {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Slug != "server-slug" {
		t.Errorf("server slug should be preferred, got %q", outcome.Slug)
	}
	if gotBody["title"] != "A Title" {
		t.Errorf("posted body = %#v", gotBody)
	}
}

func TestSubmit_CreatedWithoutSlugKeepsLocal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c := New(ts.URL, fetch.New(nil, testLogger()), testLogger())
	if outcome := c.Submit(context.Background(), record()); outcome.Slug != "a-title" {
		t.Errorf("slug = %q", outcome.Slug)
	}
}

func TestSubmit_FailureCarriesStatusAndPreview(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(strings.Repeat("x", 3000)))
	}))
	defer ts.Close()

	c := New(ts.URL, fetch.New(nil, testLogger()), testLogger())
	outcome := c.Submit(context.Background(), record())
	if outcome.Created {
		t.Fatal("422 must not be a success")
	}
	if outcome.Status != "422" {
		t.Errorf("status = %q", outcome.Status)
	}
	if len(outcome.Body) != 1900 {
		t.Errorf("body preview length = %d", len(outcome.Body))
	}
}

func TestSubmit_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	c := New(ts.URL, fetch.New(nil, testLogger()), testLogger())
	outcome := c.Submit(context.Background(), record())
	if outcome.Status != "NoResponse" || outcome.Body != "No response" {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestArticleURL(t *testing.T) {
	c := New("https://archive.example.com/", fetch.New(nil, testLogger()), testLogger())
	if got := c.ArticleURL("my-slug"); got != "https://archive.example.com/article/my-slug" {
		t.Errorf("got %q", got)
	}
}
