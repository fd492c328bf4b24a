package media

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"archivist/internal/domain"
	"archivist/internal/textutil"
)

var vimeoRe = regexp.MustCompile(`vimeo\.com/(\d+)`)

// LinkExtractor is the slice of the extractor router the resolver needs.
type LinkExtractor interface {
	Classify(url string) textutil.Platform
	Extract(ctx context.Context, url string) domain.LinkMetadata
}

// Resolver picks the representative media URL for a message that carries
// more than just a link: attachments first, then platform links, then
// embeds, then the placeholder.
type Resolver struct {
	extractor LinkExtractor
	logger    *slog.Logger
}

func NewResolver(extractor LinkExtractor, logger *slog.Logger) *Resolver {
	return &Resolver{extractor: extractor, logger: logger.With("component", "media-resolver")}
}

func (r *Resolver) Resolve(ctx context.Context, msg *domain.Message) string {
	if url := firstAttachment(msg.Attachments, "video/"); url != "" {
		return url
	}
	if url := firstAttachment(msg.Attachments, "image/"); url != "" {
		return url
	}

	for _, link := range textutil.ExtractURLs(msg.Text) {
		if m := vimeoRe.FindStringSubmatch(link); m != nil {
			return "https://vimeo.com/" + m[1]
		}
		platform := r.extractor.Classify(link)
		if platform == textutil.PlatformGeneric {
			continue
		}
		meta := r.extractor.Extract(ctx, link)
		if meta.MediaURL != "" && meta.MediaURL != domain.PlaceholderImageURL {
			return meta.MediaURL
		}
		r.logger.Debug("platform link yielded no media", "url", link)
	}

	for _, embed := range msg.Embeds {
		if embed.Image != nil && embed.Image.URL != "" {
			return embed.Image.URL
		}
		if embed.Thumbnail != nil && embed.Thumbnail.URL != "" {
			return embed.Thumbnail.URL
		}
		if embed.Video != nil && embed.Video.URL != "" && !isLongFormPlayerURL(embed.Video.URL) {
			return embed.Video.URL
		}
	}

	return domain.PlaceholderImageURL
}

func firstAttachment(attachments []domain.Attachment, mimePrefix string) string {
	for _, a := range attachments {
		if strings.HasPrefix(a.ContentType, mimePrefix) && a.URL != "" {
			return a.URL
		}
	}
	return ""
}

// Long-form player URLs render as an iframe, not a file, so an embed video
// pointing at one is useless as article media.
func isLongFormPlayerURL(url string) bool {
	return textutil.ClassifyHost(url) == textutil.PlatformYouTube
}
