package textutil

import (
	"net/url"
	"regexp"
	"strings"
)

// Platform is the host class a URL belongs to.
type Platform string

const (
	PlatformYouTube    Platform = "youtube"
	PlatformMicroblog  Platform = "microblog"
	PlatformPhotoShare Platform = "photoshare"
	PlatformShortVideo Platform = "shortvideo"
	PlatformNewsAgg    Platform = "newsagg"
	PlatformGeneric    Platform = "generic"
)

var urlRe = regexp.MustCompile(`https?://[^\s<>"]+`)

// ExtractURLs returns every http(s) URL found in text, in order.
func ExtractURLs(text string) []string {
	if text == "" {
		return nil
	}
	return urlRe.FindAllString(text, -1)
}

// StripURLs removes every http(s) URL token from text.
func StripURLs(text string) string {
	return urlRe.ReplaceAllString(text, "")
}

var platformHosts = map[Platform][]string{
	PlatformYouTube:    {"youtube.com", "youtu.be"},
	PlatformMicroblog:  {"twitter.com", "x.com", "fxtwitter.com", "vxtwitter.com"},
	PlatformPhotoShare: {"instagram.com", "kkinstagram.com"},
	PlatformShortVideo: {"tiktok.com"},
	PlatformNewsAgg:    {"reddit.com", "redd.it"},
}

// ClassifyHost maps a URL's hostname to its platform class. Unrecognized
// hosts, including unparsable URLs, are generic.
func ClassifyHost(rawURL string) Platform {
	u, err := url.Parse(rawURL)
	if err != nil {
		return PlatformGeneric
	}
	host := strings.ToLower(u.Hostname())
	for platform, hosts := range platformHosts {
		for _, h := range hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return platform
			}
		}
	}
	return PlatformGeneric
}

var videoExtensions = []string{".mp4", ".webm", ".mov", ".avi", ".mkv", ".m4v", ".gif"}

var videoHostPatterns = []string{"video.twimg.com", "/amplify_video/", "/ext_tw_video/"}

// IsVideoURL reports whether a URL points at a video: it either carries a
// video file extension or matches a known video-host pattern.
func IsVideoURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	lower := strings.ToLower(rawURL)
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, pat := range videoHostPatterns {
		if strings.Contains(lower, pat) {
			return true
		}
	}
	return false
}
