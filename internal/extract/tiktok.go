package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"archivist/internal/browser"
	"archivist/internal/domain"
	"archivist/internal/fetch"
	"archivist/internal/textutil"
)

var tiktokUserRe = regexp.MustCompile(`tiktok\.com/@([^/]+)`)
// Escaped slashes are allowed so the pattern also works over serialized
// JSON before unescaping.
var tiktokHarvestRe = regexp.MustCompile(`https?:\\?/\\?/[^\s"']+\.(?:mp4|m3u8|jpeg|jpg|png)`)

// TikTokExtractor is the short-video extractor: a headless session, the
// embedded state JSON, a raw URL harvest, and finally the DOM, with a
// cookie-carrying HEAD probe to weed out signed URLs that no longer work.
type TikTokExtractor struct {
	launcher *browser.Launcher
	fetcher  *fetch.Fetcher
	table    TikTokTable
	logger   *slog.Logger
}

func NewTikTokExtractor(launcher *browser.Launcher, fetcher *fetch.Fetcher, table TikTokTable, logger *slog.Logger) *TikTokExtractor {
	return &TikTokExtractor{
		launcher: launcher,
		fetcher:  fetcher,
		table:    table,
		logger:   logger.With("extractor", "tiktok"),
	}
}

func (e *TikTokExtractor) Name() string { return "tiktok" }

func (e *TikTokExtractor) Extract(ctx context.Context, url string) domain.LinkMetadata {
	session, release := e.launcher.NewSession(ctx)
	defer release()

	src, err := session.Load(url, e.table.ReadySelectors, 3*time.Second)
	if err != nil {
		e.logger.Debug("page load failed", "url", url, "err", err)
		return domain.LinkMetadata{}
	}
	doc, err := ParseHTML(src)
	if err != nil {
		return domain.LinkMetadata{}
	}

	cookies, _ := session.Cookies()

	state := ExtractStateJSON(src, e.table.StatePatterns)
	mediaURL, mediaType := ChooseMediaFromState(state)
	if mediaURL == "" && state != nil {
		// Raw harvest over the serialized state: any media-looking URL,
		// mp4 preferred.
		if serialized, err := json.Marshal(state); err == nil {
			mediaURL, mediaType = HarvestMediaURL(string(serialized))
		}
	}

	if mediaURL != "" {
		mediaURL = e.verify(ctx, mediaURL, cookies)
	}
	if mediaURL == "" {
		mediaURL, mediaType = e.domFallback(session, ctx, cookies)
	}

	title, subtitle, content := e.describe(state, doc, url)

	if mediaURL == "" {
		if img := doc.MetaProperty("og:image"); img != "" {
			mediaURL = img
		} else {
			mediaURL = domain.PlaceholderImageURL
		}
	}
	if mediaType == "" {
		mediaType = domain.MediaVideo
	}

	return domain.LinkMetadata{
		Title:     title,
		Subtitle:  subtitle,
		MediaURL:  mediaURL,
		Content:   content,
		MediaType: mediaType,
		Note:      "TikTok links are not fully supported. Please verify the extracted media manually.",
	}
}

// verify HEAD-probes a candidate with the browser's cookies; on a 4xx it
// retries once with known-bad CDN hosts rewritten. Returns "" when neither
// form answers.
func (e *TikTokExtractor) verify(ctx context.Context, url, cookies string) string {
	headers := map[string]string{
		"User-Agent": fetch.DesktopUserAgent,
		"Referer":    "https://www.tiktok.com/",
	}
	if cookies != "" {
		headers["Cookie"] = cookies
	}

	resp, err := e.fetcher.Head(ctx, url, headers, 8*time.Second)
	if err == nil && resp.Status < 400 {
		return firstNonEmpty(resp.FinalURL, url)
	}

	rewritten := RewriteCDNHost(url, e.table.CDNRewrites)
	if rewritten != url {
		resp, err = e.fetcher.Head(ctx, rewritten, headers, 8*time.Second)
		if err == nil && resp.Status < 400 {
			return firstNonEmpty(resp.FinalURL, rewritten)
		}
	}
	e.logger.Debug("media url failed verification", "url", url)
	return ""
}

func (e *TikTokExtractor) domFallback(session *browser.Session, ctx context.Context, cookies string) (string, domain.MediaType) {
	if srcs, err := session.QueryAttr("video", "src"); err == nil {
		for _, s := range srcs {
			if strings.HasPrefix(s, "http") {
				if v := e.verify(ctx, s, cookies); v != "" {
					return v, domain.MediaVideo
				}
			}
		}
	}
	if posters, err := session.QueryAttr("video", "poster"); err == nil {
		for _, p := range posters {
			if strings.HasPrefix(p, "http") {
				if v := e.verify(ctx, p, cookies); v != "" {
					return v, domain.MediaVideo
				}
			}
		}
	}
	if imgs, err := session.QueryAttr("img", "src"); err == nil {
		for _, img := range imgs {
			if !strings.HasPrefix(img, "http") || containsAnyFold(img, e.table.SkipImageMarkers) {
				continue
			}
			if v := e.verify(ctx, img, cookies); v != "" {
				return v, domain.MediaImage
			}
		}
	}
	return "", ""
}

func (e *TikTokExtractor) describe(state map[string]any, doc *Doc, url string) (title, subtitle, content string) {
	if item := firstItemModule(state); item != nil {
		if desc, ok := item["desc"].(string); ok && desc != "" {
			title = textutil.NormalizeTitle(desc)
		}
		if author, ok := item["author"].(map[string]any); ok {
			if id, ok := author["uniqueId"].(string); ok && id != "" {
				subtitle = textutil.NormalizeSubtitle("@" + id)
			}
		}
	}

	if title == "" {
		title = textutil.NormalizeTitle(firstNonEmpty(
			doc.MetaProperty("og:title"),
			doc.MetaName("twitter:title"),
			"TikTok Video",
		))
	}
	if subtitle == "" {
		if m := tiktokUserRe.FindStringSubmatch(url); m != nil {
			subtitle = textutil.NormalizeSubtitle("@" + m[1])
		} else {
			subtitle = textutil.NormalizeSubtitle(firstNonEmpty(doc.MetaProperty("og:site_name"), "TikTok"))
		}
	}
	content = firstNonEmpty(doc.MetaProperty("og:description"), title)
	return title, subtitle, content
}

// ExtractStateJSON locates the embedded state blob using each pattern in
// turn and parses it. Patterns capture the JSON text in group 1.
func ExtractStateJSON(src string, patterns []string) map[string]any {
	for _, pat := range patterns {
		re, err := regexp.Compile("(?s)" + pat)
		if err != nil {
			continue
		}
		m := re.FindStringSubmatch(src)
		if m == nil {
			continue
		}
		text := strings.TrimSuffix(strings.TrimSpace(m[1]), ";")
		var data map[string]any
		if err := json.Unmarshal([]byte(text), &data); err == nil {
			return data
		}
	}
	return nil
}

func firstItemModule(state map[string]any) map[string]any {
	if state == nil {
		return nil
	}
	module, ok := state["ItemModule"].(map[string]any)
	if !ok {
		module, ok = state["itemModule"].(map[string]any)
	}
	if !ok {
		return nil
	}
	for _, v := range module {
		if item, ok := v.(map[string]any); ok {
			return item
		}
	}
	return nil
}

// ChooseMediaFromState picks the best media URL out of the parsed state:
// video playAddr/downloadAddr first (in their several shapes, last list
// entry being the highest resolution), then the first image of a photo post.
func ChooseMediaFromState(state map[string]any) (string, domain.MediaType) {
	item := firstItemModule(state)
	if item == nil {
		return "", ""
	}

	if video, ok := item["video"].(map[string]any); ok {
		for _, key := range []string{"playAddr", "downloadAddr"} {
			if u := addressFromValue(video[key]); u != "" {
				return u, domain.MediaVideo
			}
		}
	}

	if post, ok := item["imagePost"].(map[string]any); ok {
		if images, ok := post["images"].([]any); ok && len(images) > 0 {
			switch first := images[0].(type) {
			case map[string]any:
				for _, key := range []string{"imageURL", "url", "urlList", "url_list"} {
					if u := addressFromValue(first[key]); u != "" {
						return u, domain.MediaImage
					}
				}
			case string:
				return first, domain.MediaImage
			}
		}
	}
	return "", ""
}

// addressFromValue unwraps the shapes a media address shows up in: a plain
// string, a list of qualities, or a dict with a urlList/url inside.
func addressFromValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		if len(val) > 0 {
			if s, ok := val[len(val)-1].(string); ok {
				return s
			}
		}
	case map[string]any:
		for _, key := range []string{"urlList", "url_list"} {
			if list, ok := val[key].([]any); ok && len(list) > 0 {
				if s, ok := list[len(list)-1].(string); ok {
					return s
				}
			}
		}
		if s, ok := val["url"].(string); ok {
			return s
		}
	}
	return ""
}

// HarvestMediaURL scans serialized state for anything that looks like a
// media file URL, preferring mp4 over stills.
func HarvestMediaURL(serialized string) (string, domain.MediaType) {
	candidates := tiktokHarvestRe.FindAllString(serialized, -1)
	if len(candidates) == 0 {
		return "", ""
	}
	for _, c := range candidates {
		if strings.HasSuffix(c, ".mp4") {
			return UnescapeJSONURL(c), domain.MediaVideo
		}
	}
	return UnescapeJSONURL(candidates[0]), domain.MediaImage
}

// RewriteCDNHost applies the known-bad-host rewrites and undoes the %7e
// tilde encoding signed URLs sometimes carry.
func RewriteCDNHost(url string, rewrites []HostRewrite) string {
	for _, rw := range rewrites {
		url = strings.ReplaceAll(url, rw.From, rw.To)
	}
	return strings.ReplaceAll(url, "%7e", "~")
}
