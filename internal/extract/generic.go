package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"archivist/internal/domain"
	"archivist/internal/fetch"
	"archivist/internal/textutil"
)

// GenericExtractor handles everything without a dedicated extractor:
// OpenGraph and twitter-card tags plus the page's leading paragraphs.
type GenericExtractor struct {
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

func NewGenericExtractor(fetcher *fetch.Fetcher, logger *slog.Logger) *GenericExtractor {
	return &GenericExtractor{fetcher: fetcher, logger: logger.With("extractor", "generic")}
}

func (e *GenericExtractor) Name() string { return "generic" }

func (e *GenericExtractor) Extract(ctx context.Context, url string) domain.LinkMetadata {
	resp, err := e.fetcher.Get(ctx, url, map[string]string{
		"User-Agent": fetch.DesktopUserAgent,
	}, 10*time.Second)
	if err != nil || !resp.OK() {
		e.logger.Debug("page fetch failed", "url", url, "err", err)
		return domain.LinkMetadata{}
	}
	doc, err := ParseHTML(resp.Text())
	if err != nil {
		return domain.LinkMetadata{}
	}

	title := textutil.NormalizeTitle(firstNonEmpty(
		doc.MetaProperty("og:title"),
		doc.MetaName("twitter:title"),
		doc.Title(),
	))
	subtitle := textutil.NormalizeSubtitle(firstNonEmpty(
		doc.MetaProperty("og:description"),
		doc.MetaName("description"),
		doc.MetaName("twitter:description"),
	))

	mediaURL, mediaType := pickGenericMedia(doc)

	paragraphs := doc.FirstParagraphs(2)
	content := strings.Join(paragraphs, "\n\n")
	if content == "" {
		content = firstNonEmpty(subtitle, title)
	}
	if content != "" {
		content += "\n\n" + url
	}

	return domain.LinkMetadata{
		Title:     title,
		Subtitle:  subtitle,
		MediaURL:  mediaURL,
		Content:   content,
		MediaType: mediaType,
	}
}

func pickGenericMedia(doc *Doc) (string, domain.MediaType) {
	for _, key := range []string{"og:video:secure_url", "og:video:url", "og:video"} {
		if v := doc.MetaProperty(key); strings.HasPrefix(v, "http") {
			return v, domain.MediaVideo
		}
	}
	if img := firstNonEmpty(doc.MetaProperty("og:image"), doc.MetaName("twitter:image")); img != "" {
		return img, domain.MediaImage
	}
	return domain.PlaceholderImageURL, domain.MediaImage
}
