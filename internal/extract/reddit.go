package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"archivist/internal/domain"
	"archivist/internal/fetch"
	"archivist/internal/textutil"
)

var redditCommentsRe = regexp.MustCompile(`/comments/[a-z0-9]+`)

// RedditExtractor is the news-aggregator extractor. It talks to the site's
// public .json endpoints rather than scraping, after normalizing share
// links and short links down to a canonical post URL.
type RedditExtractor struct {
	fetcher *fetch.Fetcher
	table   RedditTable
	logger  *slog.Logger
}

func NewRedditExtractor(fetcher *fetch.Fetcher, table RedditTable, logger *slog.Logger) *RedditExtractor {
	return &RedditExtractor{fetcher: fetcher, table: table, logger: logger.With("extractor", "reddit")}
}

func (e *RedditExtractor) Name() string { return "reddit" }

type redditPost struct {
	Title       string  `json:"title"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Selftext    string  `json:"selftext"`
	URL         string  `json:"url"`
	Thumbnail   string  `json:"thumbnail"`
	PostHint    string  `json:"post_hint"`
	IsGallery   bool    `json:"is_gallery"`
	IsVideo     bool    `json:"is_video"`
	GalleryData *struct {
		Items []struct {
			MediaID string `json:"media_id"`
		} `json:"items"`
	} `json:"gallery_data"`
	MediaMetadata map[string]struct {
		S struct {
			U   string `json:"u"`
			GIF string `json:"gif"`
		} `json:"s"`
		P []struct {
			U string `json:"u"`
		} `json:"p"`
	} `json:"media_metadata"`
	SecureMedia *redditMedia `json:"secure_media"`
	Media       *redditMedia `json:"media"`
	Preview     *struct {
		Images []struct {
			Source struct {
				URL string `json:"url"`
			} `json:"source"`
		} `json:"images"`
	} `json:"preview"`
}

type redditMedia struct {
	RedditVideo *struct {
		FallbackURL string `json:"fallback_url"`
		DashURL     string `json:"dash_url"`
	} `json:"reddit_video"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (e *RedditExtractor) Extract(ctx context.Context, rawURL string) domain.LinkMetadata {
	postURL := e.canonicalURL(ctx, rawURL)
	if postURL == "" {
		return domain.LinkMetadata{}
	}

	resp, err := e.fetcher.Get(ctx, strings.TrimSuffix(postURL, "/")+".json", map[string]string{
		"User-Agent": fetch.DesktopUserAgent,
	}, 15*time.Second)
	if err != nil || !resp.OK() {
		e.logger.Debug("post json fetch failed", "url", postURL, "err", err)
		return domain.LinkMetadata{}
	}

	var listings []redditListing
	if err := resp.JSON(&listings); err != nil || len(listings) == 0 || len(listings[0].Data.Children) == 0 {
		e.logger.Debug("unexpected listing shape", "url", postURL)
		return domain.LinkMetadata{}
	}
	post := listings[0].Data.Children[0].Data

	mediaURL, mediaType := pickRedditMedia(&post)
	note := ""
	if post.IsGallery {
		note = "Reddit posts may contain multiple media items. Only the first item is used."
	}

	title := textutil.NormalizeTitle(post.Title)
	content := post.Selftext
	if strings.TrimSpace(content) == "" {
		content = post.Title
	}

	return domain.LinkMetadata{
		Title:     title,
		Subtitle:  textutil.NormalizeSubtitle("u/" + post.Author),
		MediaURL:  mediaURL,
		Content:   content,
		MediaType: mediaType,
		Note:      note,
	}
}

// canonicalURL reduces any reddit link shape to a https://www.reddit.com
// post URL without query or fragment. Share links (/s/) and redd.it short
// links need a round trip to resolve.
func (e *RedditExtractor) canonicalURL(ctx context.Context, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	u.RawQuery = ""
	u.Fragment = ""
	if strings.EqualFold(u.Hostname(), "old.reddit.com") {
		u.Host = "www.reddit.com"
	}

	if strings.EqualFold(u.Hostname(), "redd.it") {
		if resolved := e.followRedirect(ctx, u.String()); resolved != "" {
			return e.stripQuery(resolved)
		}
		return ""
	}

	if strings.Contains(u.Path, "/s/") {
		return e.resolveShareLink(ctx, u)
	}
	return u.String()
}

func (e *RedditExtractor) stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func (e *RedditExtractor) followRedirect(ctx context.Context, raw string) string {
	resp, err := e.fetcher.Head(ctx, raw, map[string]string{"User-Agent": fetch.DesktopUserAgent}, 10*time.Second)
	if err != nil {
		return ""
	}
	if redditCommentsRe.MatchString(resp.FinalURL) {
		return resp.FinalURL
	}
	return ""
}

// resolveShareLink fetches the share page and digs the real post link out
// of it. The redirect target usually carries the comments path already;
// the anchors are the fallback for interstitial pages.
func (e *RedditExtractor) resolveShareLink(ctx context.Context, u *url.URL) string {
	resp, err := e.fetcher.Get(ctx, u.String(), map[string]string{"User-Agent": fetch.DesktopUserAgent}, 15*time.Second)
	if err != nil {
		e.logger.Debug("share link fetch failed", "url", u.String(), "err", err)
		return ""
	}
	if redditCommentsRe.MatchString(resp.FinalURL) {
		return e.stripQuery(resp.FinalURL)
	}

	doc, err := ParseHTML(resp.Text())
	if err != nil {
		return ""
	}
	href := doc.FindAnchor(CompileAnchorSelectors(e.table.ShareLinkSelectors)...)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "/") {
		href = fmt.Sprintf("https://%s%s", u.Host, href)
	}
	return e.stripQuery(href)
}

// pickRedditMedia walks the post's media fields best-first: hosted video,
// direct image, gallery item, preview source, thumbnail, a direct media
// URL, and finally the placeholder. Some fields arrive with ampersands
// HTML-escaped inside the JSON.
func pickRedditMedia(post *redditPost) (string, domain.MediaType) {
	if post.IsVideo || post.PostHint == "hosted:video" {
		for _, media := range []*redditMedia{post.SecureMedia, post.Media} {
			if media == nil || media.RedditVideo == nil {
				continue
			}
			if u := firstNonEmpty(media.RedditVideo.FallbackURL, media.RedditVideo.DashURL); u != "" {
				return decodeRedditURL(u), domain.MediaVideo
			}
		}
	}

	if post.PostHint == "image" && post.URL != "" {
		return decodeRedditURL(post.URL), domain.MediaImage
	}

	if post.IsGallery && post.GalleryData != nil && len(post.GalleryData.Items) > 0 {
		id := post.GalleryData.Items[0].MediaID
		if meta, ok := post.MediaMetadata[id]; ok {
			if meta.S.U != "" {
				return decodeRedditURL(meta.S.U), domain.MediaImage
			}
			if meta.S.GIF != "" {
				return decodeRedditURL(meta.S.GIF), domain.MediaImage
			}
			if len(meta.P) > 0 {
				return decodeRedditURL(meta.P[len(meta.P)-1].U), domain.MediaImage
			}
		}
	}

	if post.Preview != nil && len(post.Preview.Images) > 0 {
		if src := post.Preview.Images[0].Source.URL; src != "" {
			return decodeRedditURL(src), domain.MediaImage
		}
	}

	if thumb := post.Thumbnail; strings.HasPrefix(thumb, "http") {
		return decodeRedditURL(thumb), domain.MediaImage
	}

	if direct := decodeRedditURL(post.URL); direct != "" {
		if textutil.IsVideoURL(direct) {
			return direct, domain.MediaVideo
		}
		if hasImageSuffix(direct) {
			return direct, domain.MediaImage
		}
	}
	return domain.PlaceholderImageURL, domain.MediaImage
}

func decodeRedditURL(u string) string {
	return strings.ReplaceAll(u, "&amp;", "&")
}

func hasImageSuffix(u string) bool {
	lower := strings.ToLower(u)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp", ".gif"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
