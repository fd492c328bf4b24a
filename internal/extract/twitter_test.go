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

type stubPersister struct {
	got      string
	resolved string
}

func (s *stubPersister) Resolve(_ context.Context, platform, remoteURL string) string {
	s.got = remoteURL
	if s.resolved != "" {
		return s.resolved
	}
	return remoteURL
}

func TestTweetID(t *testing.T) {
	if got := TweetID("https://x.com/user/status/1234567890"); got != "1234567890" {
		t.Errorf("TweetID = %q", got)
	}
	if got := TweetID("https://x.com/user"); got != "" {
		t.Errorf("TweetID on non-status url = %q", got)
	}
}

func twitterServer(t *testing.T, payload string) (*httptest.Server, *TwitterExtractor, *stubPersister) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/status/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	t.Cleanup(ts.Close)

	persister := &stubPersister{}
	table := TwitterTable{APIBase: ts.URL}
	e := NewTwitterExtractor(fetch.New(nil, testLogger()), table, persister, testLogger())
	return ts, e, persister
}

func TestTwitterExtract_Video(t *testing.T) {
	_, e, persister := twitterServer(t, `{"tweet":{
		"text":"check this out https://t.co/x",
		"author":{"name":"Some Author"},
		"media":{"videos":[{"url":"https://video.twimg.com/amplify_video/1/vid.mp4"}]}
	}}`)
	persister.resolved = "https://files.example.com/twitter_abc123def456.mp4"

	meta := e.Extract(context.Background(), "https://x.com/user/status/99")
	if meta.MediaType != domain.MediaVideo {
		t.Fatalf("media type = %q", meta.MediaType)
	}
	if meta.MediaURL != persister.resolved {
		t.Errorf("media url = %q, persister result not used", meta.MediaURL)
	}
	if persister.got != "https://video.twimg.com/amplify_video/1/vid.mp4" {
		t.Errorf("persister received %q", persister.got)
	}
	if meta.Title != "check this out" {
		t.Errorf("title = %q, urls should be stripped", meta.Title)
	}
	if meta.Subtitle != "Some Author" {
		t.Errorf("subtitle = %q", meta.Subtitle)
	}
	if meta.Content != "check this out https://t.co/x" {
		t.Errorf("content = %q, should keep raw text", meta.Content)
	}
}

func TestTwitterExtract_Photo(t *testing.T) {
	_, e, persister := twitterServer(t, `{"tweet":{
		"text":"a photo",
		"author":{"name":"A"},
		"media":{"photos":[{"url":"https://pbs.twimg.com/media/pic.jpg"}]}
	}}`)

	meta := e.Extract(context.Background(), "https://twitter.com/u/status/1")
	if meta.MediaType != domain.MediaImage {
		t.Errorf("media type = %q", meta.MediaType)
	}
	if meta.MediaURL != "https://pbs.twimg.com/media/pic.jpg" {
		t.Errorf("media url = %q", meta.MediaURL)
	}
	if persister.got != "" {
		t.Errorf("persister should not run for images, got %q", persister.got)
	}
}

func TestTwitterExtract_ListShapedMedia(t *testing.T) {
	_, e, _ := twitterServer(t, `{"tweet":{
		"text":"gif time",
		"media":[{"type":"gif","url":"https://video.twimg.com/tweet_video/x.mp4"}]
	}}`)

	meta := e.Extract(context.Background(), "https://x.com/u/status/2")
	if meta.MediaType != domain.MediaVideo {
		t.Errorf("gif should map to video, got %q", meta.MediaType)
	}
}

func TestTwitterExtract_PlaceholderWhenNoMedia(t *testing.T) {
	_, e, _ := twitterServer(t, `{"tweet":{"text":"words only"}}`)

	meta := e.Extract(context.Background(), "https://x.com/u/status/3")
	if meta.MediaURL != domain.PlaceholderImageURL {
		t.Errorf("media url = %q, want placeholder", meta.MediaURL)
	}
	if meta.MediaType != domain.MediaImage {
		t.Errorf("media type = %q", meta.MediaType)
	}
}

func TestTwitterExtract_ProxyDown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	}))
	defer ts.Close()

	e := NewTwitterExtractor(fetch.New(nil, testLogger()), TwitterTable{APIBase: ts.URL}, nil, testLogger())
	if meta := e.Extract(context.Background(), "https://x.com/u/status/4"); !meta.IsZero() {
		t.Errorf("expected zero metadata, got %+v", meta)
	}
}

func TestPickTweetMedia_VideosBeforePhotos(t *testing.T) {
	url, mt := pickTweetMedia([]byte(`{"videos":[{"url":"v.mp4"}],"photos":[{"url":"p.jpg"}]}`))
	if url != "v.mp4" || mt != domain.MediaVideo {
		t.Errorf("got %q/%q", url, mt)
	}
}
