package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"archivist/internal/fetch"
)

func TestCacheFilename(t *testing.T) {
	name := CacheFilename("twitter", "https://video.twimg.com/amplify_video/1/vid.mp4?tag=12")
	if !strings.HasPrefix(name, "twitter_") || !strings.HasSuffix(name, ".mp4") {
		t.Errorf("name = %q", name)
	}
	// platform + "_" + 12 hex chars + ".mp4"
	if len(name) != len("twitter_")+12+len(".mp4") {
		t.Errorf("unexpected length: %q", name)
	}

	if again := CacheFilename("twitter", "https://video.twimg.com/amplify_video/1/vid.mp4?tag=12"); again != name {
		t.Error("filename must be deterministic")
	}

	if webm := CacheFilename("twitter", "https://cdn/v.webm"); !strings.HasSuffix(webm, ".webm") {
		t.Errorf("webm extension not kept: %q", webm)
	}
	if noExt := CacheFilename("twitter", "https://cdn/stream"); !strings.HasSuffix(noExt, ".mp4") {
		t.Errorf("default extension should be .mp4: %q", noExt)
	}
}

func TestResolve_DownloadAndCacheHit(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("video-bytes"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	d := NewDownloader(dir, "https://files.example.com/media/", fetch.New(nil, testLogger()), testLogger())

	remote := ts.URL + "/clip.mp4"
	got := d.Resolve(context.Background(), "twitter", remote)
	want := "https://files.example.com/media/" + CacheFilename("twitter", remote)
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	data, err := os.ReadFile(filepath.Join(dir, CacheFilename("twitter", remote)))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "video-bytes" {
		t.Errorf("cached content = %q", data)
	}

	if again := d.Resolve(context.Background(), "twitter", remote); again != want {
		t.Errorf("cache hit returned %q", again)
	}
	if hits != 1 {
		t.Errorf("expected a single download, got %d", hits)
	}
}

func TestResolve_Non200FallsBackToRemote(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer ts.Close()

	d := NewDownloader(t.TempDir(), "https://files.example.com", fetch.New(nil, testLogger()), testLogger())
	remote := ts.URL + "/clip.mp4"
	if got := d.Resolve(context.Background(), "twitter", remote); got != remote {
		t.Errorf("got %q, want remote url", got)
	}
}

func TestResolve_DisabledWithoutCacheConfig(t *testing.T) {
	d := NewDownloader("", "", fetch.New(nil, testLogger()), testLogger())
	remote := "https://video.twimg.com/v.mp4"
	if got := d.Resolve(context.Background(), "twitter", remote); got != remote {
		t.Errorf("got %q", got)
	}
}
