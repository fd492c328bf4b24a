package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"archivist/internal/domain"
	"archivist/internal/fetch"
	"archivist/internal/textutil"
)

var tweetIDRe = regexp.MustCompile(`/status/(\d+)`)

// TweetID extracts the status ID from any Twitter/X URL variant.
func TweetID(url string) string {
	if m := tweetIDRe.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// VideoPersister persists remote videos and hands back a stable URL, or the
// original URL when persisting is disabled or fails.
type VideoPersister interface {
	Resolve(ctx context.Context, platform, remoteURL string) string
}

// TwitterExtractor is the microblog extractor. It reads a third-party JSON
// proxy rather than scraping, so it needs no browser.
type TwitterExtractor struct {
	fetcher   *fetch.Fetcher
	table     TwitterTable
	persister VideoPersister // optional
	logger    *slog.Logger
}

func NewTwitterExtractor(fetcher *fetch.Fetcher, table TwitterTable, persister VideoPersister, logger *slog.Logger) *TwitterExtractor {
	return &TwitterExtractor{
		fetcher:   fetcher,
		table:     table,
		persister: persister,
		logger:    logger.With("extractor", "twitter"),
	}
}

func (e *TwitterExtractor) Name() string { return "twitter" }

// tweetEnvelope mirrors the proxy's response shape.
type tweetEnvelope struct {
	Tweet *tweetData `json:"tweet"`
}

type tweetData struct {
	Text   string `json:"text"`
	Author *struct {
		Name string `json:"name"`
	} `json:"author"`
	// Media arrives either as {videos: [...], photos: [...]} or as a bare
	// list of typed items, depending on proxy version.
	Media json.RawMessage `json:"media"`
}

type mediaItem struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

func (e *TwitterExtractor) Extract(ctx context.Context, url string) domain.LinkMetadata {
	id := TweetID(url)
	if id == "" {
		return domain.LinkMetadata{}
	}

	endpoint := strings.TrimRight(e.table.APIBase, "/") + "/status/" + id
	resp, err := e.fetcher.Get(ctx, endpoint, nil, 5*time.Second)
	if err != nil || !resp.OK() {
		e.logger.Debug("proxy fetch failed", "tweet", id)
		return domain.LinkMetadata{}
	}
	var envelope tweetEnvelope
	if err := resp.JSON(&envelope); err != nil || envelope.Tweet == nil {
		e.logger.Debug("unusable proxy payload", "tweet", id)
		return domain.LinkMetadata{}
	}
	tweet := envelope.Tweet

	meta := domain.LinkMetadata{
		Title:   textutil.NormalizeTitle(strings.TrimSpace(textutil.StripURLs(tweet.Text))),
		Content: tweet.Text,
	}
	if tweet.Author != nil {
		meta.Subtitle = textutil.NormalizeSubtitle(tweet.Author.Name)
	}

	mediaURL, mediaType := pickTweetMedia(tweet.Media)

	// No direct media: follow URLs inside the tweet and take the first
	// og:image, skipping links back into the platform itself.
	if mediaURL == "" {
		for _, embedded := range textutil.ExtractURLs(tweet.Text) {
			if strings.Contains(embedded, "/status/") {
				continue
			}
			page, err := e.fetcher.Get(ctx, embedded, map[string]string{"User-Agent": fetch.DesktopUserAgent}, 10*time.Second)
			if err != nil || !page.OK() {
				continue
			}
			doc, err := ParseHTML(page.Text())
			if err != nil {
				continue
			}
			if img := doc.MetaProperty("og:image"); img != "" {
				mediaURL, mediaType = img, domain.MediaImage
				break
			}
		}
	}

	// The proxy sometimes mislabels videos as photos; trust the URL shape.
	if mediaURL != "" && textutil.IsVideoURL(mediaURL) {
		mediaType = domain.MediaVideo
	}

	if mediaURL == "" {
		mediaURL, mediaType = domain.PlaceholderImageURL, domain.MediaImage
	}

	if mediaType == domain.MediaVideo && e.persister != nil {
		mediaURL = e.persister.Resolve(ctx, "twitter", mediaURL)
	}

	meta.MediaURL = mediaURL
	meta.MediaType = mediaType
	return meta
}

// pickTweetMedia selects one media URL from either proxy media shape:
// videos first, then photos, then typed list items.
func pickTweetMedia(raw json.RawMessage) (string, domain.MediaType) {
	if len(raw) == 0 {
		return "", ""
	}

	var grouped struct {
		Videos []mediaItem `json:"videos"`
		Photos []mediaItem `json:"photos"`
	}
	if err := json.Unmarshal(raw, &grouped); err == nil {
		if len(grouped.Videos) > 0 && grouped.Videos[0].URL != "" {
			return grouped.Videos[0].URL, domain.MediaVideo
		}
		if len(grouped.Photos) > 0 && grouped.Photos[0].URL != "" {
			return grouped.Photos[0].URL, domain.MediaImage
		}
	}

	var items []mediaItem
	if err := json.Unmarshal(raw, &items); err == nil {
		for _, item := range items {
			if item.URL == "" {
				continue
			}
			switch item.Type {
			case "video", "gif":
				return item.URL, domain.MediaVideo
			case "photo", "image":
				return item.URL, domain.MediaImage
			}
		}
	}
	return "", ""
}
