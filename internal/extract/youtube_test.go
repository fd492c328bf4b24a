package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"

	"archivist/internal/domain"
	"archivist/internal/fetch"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func fetcherServing(fn roundTripFunc) *fetch.Fetcher {
	return fetch.New(&http.Client{Transport: fn}, testLogger())
}

func htmlResponse(req *http.Request, body string) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}

func TestYouTubeVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://example.com/watch?v=nope", ""},
	}
	for _, tt := range tests {
		if got := YouTubeVideoID(tt.url); got != tt.want {
			t.Errorf("YouTubeVideoID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestYouTubeExtract_PageUnreachable(t *testing.T) {
	f := fetcherServing(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	e := NewYouTubeExtractor(f, testLogger())

	meta := e.Extract(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if meta.MediaURL != "https://www.youtube.com/embed/dQw4w9WgXcQ" {
		t.Errorf("media url = %q", meta.MediaURL)
	}
	if meta.MediaType != domain.MediaYouTube {
		t.Errorf("media type = %q, want youtube", meta.MediaType)
	}
	if meta.Title != "dQw4w9WgXcQ" {
		t.Errorf("title = %q, want video id fallback", meta.Title)
	}
	if meta.Subtitle != "YouTube" {
		t.Errorf("subtitle = %q", meta.Subtitle)
	}
}

func TestYouTubeExtract_PageReachable(t *testing.T) {
	page := `<html><head>
<meta property="og:title" content="Never Gonna Give You Up - YouTube">
<meta property="og:site_name" content="YouTube">
<meta property="og:description" content="The official video.">
</head><body></body></html>`
	f := fetcherServing(func(r *http.Request) (*http.Response, error) {
		return htmlResponse(r, page)
	})
	e := NewYouTubeExtractor(f, testLogger())

	meta := e.Extract(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if meta.Title != "Never Gonna Give You Up" {
		t.Errorf("title = %q, site suffix should be trimmed", meta.Title)
	}
	if meta.Content != "The official video." {
		t.Errorf("content = %q", meta.Content)
	}
	if meta.MediaType != domain.MediaYouTube {
		t.Errorf("media type = %q", meta.MediaType)
	}
}

func TestYouTubeExtract_NoID(t *testing.T) {
	e := NewYouTubeExtractor(fetcherServing(func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	}), testLogger())
	if meta := e.Extract(context.Background(), "https://example.com/page"); !meta.IsZero() {
		t.Errorf("expected zero metadata, got %+v", meta)
	}
}
