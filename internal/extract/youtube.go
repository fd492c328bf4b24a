package extract

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"archivist/internal/domain"
	"archivist/internal/fetch"
	"archivist/internal/textutil"
)

var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/v/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
}

var youtubeTitleSuffixRe = regexp.MustCompile(`\s*-\s*YouTube\s*$`)
var youtubeAuthorRe = regexp.MustCompile(`"author":\s*"([^"]+)"`)

// YouTubeVideoID pulls the 11-character video ID out of watch, short-link,
// embed, /v/ and shorts URL forms.
func YouTubeVideoID(url string) string {
	for _, re := range youtubeIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// YouTubeEmbedURL builds the player URL recorded as the article's media.
func YouTubeEmbedURL(videoID string) string {
	return "https://www.youtube.com/embed/" + videoID
}

// YouTubeExtractor is the long-form-video extractor. The embed player URL is
// always usable from the ID alone, so a dead page only costs the nicer title
// and description.
type YouTubeExtractor struct {
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

func NewYouTubeExtractor(fetcher *fetch.Fetcher, logger *slog.Logger) *YouTubeExtractor {
	return &YouTubeExtractor{fetcher: fetcher, logger: logger.With("extractor", "youtube")}
}

func (e *YouTubeExtractor) Name() string { return "youtube" }

func (e *YouTubeExtractor) Extract(ctx context.Context, url string) domain.LinkMetadata {
	videoID := YouTubeVideoID(url)
	if videoID == "" {
		e.logger.Debug("no video id in url", "url", url)
		return domain.LinkMetadata{}
	}

	meta := domain.LinkMetadata{
		Title:     videoID,
		Subtitle:  "YouTube",
		MediaURL:  YouTubeEmbedURL(videoID),
		Content:   url,
		MediaType: domain.MediaYouTube,
	}

	resp, err := e.fetcher.Get(ctx, url, map[string]string{"User-Agent": fetch.DesktopUserAgent}, 10*time.Second)
	if err != nil || !resp.OK() {
		e.logger.Debug("page fetch failed, keeping embed-only metadata", "url", url)
		return meta
	}
	doc, err := ParseHTML(resp.Text())
	if err != nil {
		return meta
	}

	title := firstNonEmpty(
		doc.MetaProperty("og:title"),
		doc.MetaName("twitter:title"),
		doc.MetaName("name"),
		doc.Title(),
	)
	if title != "" {
		title = youtubeTitleSuffixRe.ReplaceAllString(title, "")
	}
	meta.Title = textutil.NormalizeTitle(firstNonEmpty(title, videoID))

	subtitle := firstNonEmpty(
		doc.MetaProperty("og:site_name"),
		doc.MetaName("author"),
	)
	if subtitle == "" {
		if m := youtubeAuthorRe.FindStringSubmatch(resp.Text()); m != nil {
			subtitle = m[1]
		}
	}
	meta.Subtitle = textutil.NormalizeSubtitle(firstNonEmpty(subtitle, "YouTube"))

	content := firstNonEmpty(
		doc.MetaProperty("og:description"),
		doc.MetaName("description"),
		doc.MetaName("twitter:description"),
	)
	meta.Content = firstNonEmpty(content, meta.Title)

	return meta
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
