package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"archivist/internal/domain"
	"archivist/internal/fetch"
)

func TestGenericExtract(t *testing.T) {
	page := `<html><head>
<title>Doc Title</title>
<meta property="og:title" content="OG Title">
<meta property="og:description" content="OG description.">
<meta property="og:image" content="https://cdn.example.com/hero.jpg">
</head><body>
<article>
<p>Lead paragraph one.</p>
<p>Lead paragraph two.</p>
<p>Paragraph three is ignored.</p>
</article>
</body></html>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer ts.Close()

	e := NewGenericExtractor(fetch.New(nil, testLogger()), testLogger())
	meta := e.Extract(context.Background(), ts.URL+"/story")

	if meta.Title != "OG Title" {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.Subtitle != "OG description." {
		t.Errorf("subtitle = %q", meta.Subtitle)
	}
	if meta.MediaURL != "https://cdn.example.com/hero.jpg" {
		t.Errorf("media url = %q", meta.MediaURL)
	}
	if meta.MediaType != domain.MediaImage {
		t.Errorf("media type = %q", meta.MediaType)
	}
	want := "Lead paragraph one.\n\nLead paragraph two.\n\n" + ts.URL + "/story"
	if meta.Content != want {
		t.Errorf("content = %q, want %q", meta.Content, want)
	}
}

func TestGenericExtract_TitleFallsBackToDocument(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Only the doc title</title></head><body></body></html>`))
	}))
	defer ts.Close()

	e := NewGenericExtractor(fetch.New(nil, testLogger()), testLogger())
	meta := e.Extract(context.Background(), ts.URL)
	if meta.Title != "Only the doc title" {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.MediaURL != domain.PlaceholderImageURL {
		t.Errorf("media url = %q, want placeholder", meta.MediaURL)
	}
	if !strings.HasSuffix(meta.Content, ts.URL) {
		t.Errorf("content should end with the source url, got %q", meta.Content)
	}
}

func TestGenericExtract_FetchFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusInternalServerError)
	}))
	defer ts.Close()

	e := NewGenericExtractor(fetch.New(nil, testLogger()), testLogger())
	if meta := e.Extract(context.Background(), ts.URL); !meta.IsZero() {
		t.Errorf("expected zero metadata, got %+v", meta)
	}
}
