package media

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"archivist/internal/fetch"
)

// Downloader persists remote videos into a flat cache directory under
// content-addressed names and serves back the public URL for a cached file.
// Every failure path falls back to the remote URL; downloading is an
// optimization, never a requirement.
type Downloader struct {
	dir        string
	publicBase string
	fetcher    *fetch.Fetcher
	logger     *slog.Logger
}

func NewDownloader(dir, publicBase string, fetcher *fetch.Fetcher, logger *slog.Logger) *Downloader {
	return &Downloader{
		dir:        dir,
		publicBase: strings.TrimRight(publicBase, "/"),
		fetcher:    fetcher,
		logger:     logger.With("component", "downloader"),
	}
}

// Resolve downloads remoteURL into the cache if it is not already there
// and returns its public URL. On any failure the remote URL is returned
// unchanged.
func (d *Downloader) Resolve(ctx context.Context, platform, remoteURL string) string {
	if d.dir == "" || d.publicBase == "" {
		return remoteURL
	}

	name := CacheFilename(platform, remoteURL)
	path := filepath.Join(d.dir, name)

	if _, err := os.Stat(path); err == nil {
		d.logger.Debug("cache hit", "file", name)
		return d.publicURL(name)
	}

	resp, err := d.fetcher.Get(ctx, remoteURL, map[string]string{"User-Agent": fetch.DesktopUserAgent}, 30*time.Second)
	if err != nil || !resp.OK() {
		d.logger.Warn("video download failed, using remote url", "url", remoteURL, "err", err)
		return remoteURL
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		d.logger.Warn("cache dir unavailable", "dir", d.dir, "err", err)
		return remoteURL
	}
	if err := os.WriteFile(path, resp.Body, 0o644); err != nil {
		d.logger.Warn("cache write failed", "file", path, "err", err)
		return remoteURL
	}

	d.logger.Info("video cached", "file", name, "bytes", len(resp.Body))
	return d.publicURL(name)
}

func (d *Downloader) publicURL(name string) string {
	return d.publicBase + "/" + name
}

// CacheFilename derives the content-addressed cache name for a source URL:
// the platform, a 12-hex-char MD5 prefix of the URL, and an extension
// carried over from the URL tail.
func CacheFilename(platform, remoteURL string) string {
	sum := md5.Sum([]byte(remoteURL))
	return platform + "_" + hex.EncodeToString(sum[:])[:12] + extensionOf(remoteURL)
}

func extensionOf(remoteURL string) string {
	tail := remoteURL
	if u, err := url.Parse(remoteURL); err == nil {
		tail = u.Path
	}
	switch strings.ToLower(filepath.Ext(tail)) {
	case ".webm":
		return ".webm"
	case ".mov":
		return ".mov"
	default:
		return ".mp4"
	}
}
