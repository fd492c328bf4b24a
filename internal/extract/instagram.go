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
	"archivist/internal/textutil"
)

var (
	instagramIDRe       = regexp.MustCompile(`instagram\.com/(?:p|reel|tv)/([A-Za-z0-9_-]+)`)
	instagramUserRe     = regexp.MustCompile(`instagram\.com/([^/]+)/`)
	instagramTitleTail  = regexp.MustCompile(`(?i)\s*on Instagram.*$`)
	instagramEngagement = regexp.MustCompile(`(?i)\d+[KM]?\s+(?:likes?|comments?|views?)`)
	instagramDisplayRe  = regexp.MustCompile(`"display_url":\s*"(https:[^"]+)"`)
	instagramUserJSONRe = regexp.MustCompile(`"username":\s*"([^"]+)"`)
	sentenceSplitRe     = regexp.MustCompile(`[.!?]`)
)

// InstagramExtractor is the photo-share extractor. Nothing useful is served
// without JavaScript, so it always drives a headless session and then works
// through a chain of DOM, page-source-JSON, meta-tag, and JSON-LD fallbacks.
type InstagramExtractor struct {
	launcher *browser.Launcher
	table    InstagramTable
	logger   *slog.Logger
}

func NewInstagramExtractor(launcher *browser.Launcher, table InstagramTable, logger *slog.Logger) *InstagramExtractor {
	return &InstagramExtractor{
		launcher: launcher,
		table:    table,
		logger:   logger.With("extractor", "instagram"),
	}
}

func (e *InstagramExtractor) Name() string { return "instagram" }

func (e *InstagramExtractor) Extract(ctx context.Context, url string) domain.LinkMetadata {
	url = CanonicalPhotoShareURL(url, e.table)

	postID := instagramPostID(url)
	if postID == "" {
		return domain.LinkMetadata{}
	}
	isReel := strings.Contains(url, "/reel/")

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

	mediaURL, mediaType := e.findMedia(session, doc, src, isReel)
	if mediaURL == "" {
		mediaURL = domain.PlaceholderImageURL
		if !isReel {
			mediaType = domain.MediaImage
		}
	}
	if mediaType == "" {
		if isReel {
			mediaType = domain.MediaVideo
		} else {
			mediaType = domain.MediaImage
		}
	}

	title := instagramTitle(doc, postID, isReel)
	subtitle := instagramSubtitle(doc, src, url)
	content := instagramContent(doc, title)

	return domain.LinkMetadata{
		Title:     title,
		Subtitle:  subtitle,
		MediaURL:  mediaURL,
		Content:   content,
		MediaType: mediaType,
		Note:      "Instagram links are not fully supported. Please verify the extracted media manually.",
	}
}

// findMedia walks the fallback chain: live DOM video, page-source video
// JSON, video meta tags, image meta tags, JSON-LD, display_url scraping.
func (e *InstagramExtractor) findMedia(session *browser.Session, doc *Doc, src string, isReel bool) (string, domain.MediaType) {
	// (i) DOM <video>: a real src wins; a blob src only offers its poster.
	for _, sel := range e.table.VideoSelectors {
		srcs, err := session.QueryAttr(sel, "src")
		if err != nil {
			continue
		}
		posters, _ := session.QueryAttr(sel, "poster")
		for i, vsrc := range srcs {
			if strings.HasPrefix(vsrc, "http") {
				return vsrc, domain.MediaVideo
			}
			if strings.HasPrefix(vsrc, "blob:") && i < len(posters) &&
				strings.HasPrefix(posters[i], "http") && !e.isThumbnail(posters[i]) {
				return posters[i], domain.MediaVideo
			}
		}
	}

	// (ii) Video URLs serialized into page-source JSON.
	if u := PickVideoFromSource(src, e.table.VideoJSONPatterns, e.table.ThumbnailMarkers); u != "" {
		return u, domain.MediaVideo
	}

	// (iii) Video meta tags.
	if u := firstNonEmpty(doc.MetaProperty("og:video"), doc.MetaProperty("og:video:secure_url")); u != "" {
		return u, domain.MediaVideo
	}

	// (iv) og:image, unless it is an obvious thumbnail on a reel.
	if img := doc.MetaProperty("og:image"); img != "" {
		if !isReel {
			return img, domain.MediaImage
		}
		if !e.isThumbnail(img) {
			return img, domain.MediaVideo // reel with only a cover frame
		}
	}

	// (v) JSON-LD.
	if u, mt := pickJSONLDMedia(doc); u != "" {
		if isReel && mt != domain.MediaVideo {
			mt = domain.MediaVideo
		}
		return u, mt
	}

	// (vi) display_url entries in page source, longest non-thumbnail.
	if m := bestPatternMatch(src, instagramDisplayRe, e.table.ThumbnailMarkers); m != "" {
		m = UnescapeJSONURL(m)
		if isReel {
			return m, domain.MediaVideo
		}
		return m, domain.MediaImage
	}

	return "", ""
}

func (e *InstagramExtractor) isThumbnail(url string) bool {
	lower := strings.ToLower(url)
	for _, marker := range e.table.ThumbnailMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// CanonicalPhotoShareURL rewrites mirror hosts onto the canonical host.
func CanonicalPhotoShareURL(url string, table InstagramTable) string {
	for _, mirror := range table.MirrorHosts {
		if strings.Contains(url, mirror) {
			return strings.ReplaceAll(url, mirror, table.CanonicalHost)
		}
	}
	return url
}

func instagramPostID(url string) string {
	if m := instagramIDRe.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// PickVideoFromSource scans page source with each pattern, drops matches
// that look like thumbnails, and returns the longest candidate with JSON
// escapes undone. Longest wins because the CDN appends quality parameters.
func PickVideoFromSource(src string, patterns, thumbnailMarkers []string) string {
	var best string
	for _, pat := range patterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			continue
		}
		for _, m := range re.FindAllStringSubmatch(src, -1) {
			candidate := m[1]
			if containsAnyFold(candidate, thumbnailMarkers) {
				continue
			}
			if len(candidate) > len(best) {
				best = candidate
			}
		}
		if best != "" {
			break
		}
	}
	return UnescapeJSONURL(best)
}

// UnescapeJSONURL undoes the escaping found in serialized page JSON.
func UnescapeJSONURL(url string) string {
	url = strings.ReplaceAll(url, `\/`, "/")
	url = strings.ReplaceAll(url, `\u0026`, "&")
	url = strings.ReplaceAll(url, "&amp;", "&")
	return url
}

func bestPatternMatch(src string, re *regexp.Regexp, skipMarkers []string) string {
	var best string
	for _, m := range re.FindAllStringSubmatch(src, -1) {
		if containsAnyFold(m[1], skipMarkers) {
			continue
		}
		if len(m[1]) > len(best) {
			best = m[1]
		}
	}
	return UnescapeJSONURL(best)
}

func containsAnyFold(s string, markers []string) bool {
	lower := strings.ToLower(s)
	for _, marker := range markers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

func pickJSONLDMedia(doc *Doc) (string, domain.MediaType) {
	for _, block := range doc.JSONLD() {
		var data map[string]any
		if err := json.Unmarshal([]byte(block), &data); err != nil {
			continue
		}
		if data["@type"] == "VideoObject" {
			if u, ok := data["contentUrl"].(string); ok && u != "" {
				return u, domain.MediaVideo
			}
		}
		switch img := data["image"].(type) {
		case string:
			if img != "" {
				return img, domain.MediaImage
			}
		case []any:
			if len(img) > 0 {
				if u, ok := img[0].(string); ok && u != "" {
					return u, domain.MediaImage
				}
			}
		}
		if u, ok := data["contentUrl"].(string); ok && u != "" {
			return u, domain.MediaImage
		}
	}
	return "", ""
}

func instagramTitle(doc *Doc, postID string, isReel bool) string {
	title := firstNonEmpty(
		doc.MetaProperty("og:title"),
		doc.MetaName("twitter:title"),
		doc.Title(),
	)
	if title != "" {
		title = instagramTitleTail.ReplaceAllString(title, "")
	}

	// A bare "Instagram" title is useless; borrow the caption's opening.
	if title == "" || strings.HasPrefix(strings.ToLower(title), "instagram") {
		if desc := doc.MetaProperty("og:description"); desc != "" {
			first := strings.TrimSpace(sentenceSplitRe.Split(desc, 2)[0])
			if len(first) > 100 {
				first = first[:100]
			}
			title = first
		}
	}

	if title == "" {
		kind := "Instagram Post"
		if isReel {
			kind = "Instagram Reel"
		}
		title = kind + " " + postID
	}
	return textutil.NormalizeTitle(title)
}

func instagramSubtitle(doc *Doc, src, url string) string {
	if m := instagramUserRe.FindStringSubmatch(url); m != nil && !isPostPathSegment(m[1]) {
		return textutil.NormalizeSubtitle("@" + m[1])
	}
	if author := doc.MetaName("author"); author != "" {
		if strings.HasPrefix(author, "@") {
			return textutil.NormalizeSubtitle(author)
		}
		return textutil.NormalizeSubtitle("@" + author)
	}
	if m := instagramUserJSONRe.FindStringSubmatch(src); m != nil {
		return textutil.NormalizeSubtitle("@" + m[1])
	}
	return textutil.NormalizeSubtitle("Instagram")
}

func isPostPathSegment(seg string) bool {
	switch seg {
	case "p", "reel", "tv":
		return true
	}
	return false
}

func instagramContent(doc *Doc, title string) string {
	content := firstNonEmpty(
		doc.MetaProperty("og:description"),
		doc.MetaName("description"),
		doc.MetaName("twitter:description"),
	)
	content = strings.TrimSpace(instagramEngagement.ReplaceAllString(content, ""))
	if content == "" {
		content = title
	}
	return content
}
