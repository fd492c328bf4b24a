package extract

import (
	"context"
	"log/slog"
	"strings"

	"archivist/internal/domain"
	"archivist/internal/textutil"
)

// Extractor is one platform's metadata extraction strategy. Extractors do
// not return errors; a failed extraction is a zero LinkMetadata.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, url string) domain.LinkMetadata
}

// Router dispatches a URL to the extractor for its host class and falls
// through to the generic extractor for everything else.
type Router struct {
	byPlatform map[textutil.Platform]Extractor
	generic    Extractor
	logger     *slog.Logger
}

func NewRouter(generic Extractor, logger *slog.Logger) *Router {
	return &Router{
		byPlatform: make(map[textutil.Platform]Extractor),
		generic:    generic,
		logger:     logger.With("component", "router"),
	}
}

// Register binds an extractor to a host class, replacing any previous
// binding.
func (r *Router) Register(platform textutil.Platform, e Extractor) {
	r.byPlatform[platform] = e
}

// Classify reports the host class the router would dispatch url to.
func (r *Router) Classify(url string) textutil.Platform {
	return textutil.ClassifyHost(url)
}

// Extract runs the platform extractor for url and appends the source URL
// to the content as a trailing paragraph, so the archived article always
// links back to where it came from.
func (r *Router) Extract(ctx context.Context, url string) domain.LinkMetadata {
	platform := textutil.ClassifyHost(url)
	extractor, ok := r.byPlatform[platform]
	if !ok {
		extractor = r.generic
	}
	r.logger.Debug("dispatching", "platform", string(platform), "extractor", extractor.Name(), "url", url)

	meta := extractor.Extract(ctx, url)
	if meta.Content != "" && !strings.HasSuffix(strings.TrimSpace(meta.Content), url) {
		meta.Content = strings.TrimRight(meta.Content, "\n") + "\n\n" + url
	}
	return meta
}
