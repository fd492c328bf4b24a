package extract

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// The scraping heuristics for each platform live here as data, not code:
// selector lists, regex lists, host rewrites, and fallback order can all be
// tuned from a YAML file without touching extractor control flow.

// HostRewrite maps a known-bad CDN host to one that usually works.
type HostRewrite struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// TwitterTable configures the microblog extractor.
type TwitterTable struct {
	APIBase string `yaml:"apiBase"` // JSON proxy, {APIBase}/status/{id}
}

// InstagramTable configures the photo-share extractor.
type InstagramTable struct {
	CanonicalHost     string   `yaml:"canonicalHost"`
	MirrorHosts       []string `yaml:"mirrorHosts"`
	ReadySelectors    []string `yaml:"readySelectors"`
	VideoSelectors    []string `yaml:"videoSelectors"`
	ImageSelectors    []string `yaml:"imageSelectors"`
	VideoJSONPatterns []string `yaml:"videoJsonPatterns"`
	ThumbnailMarkers  []string `yaml:"thumbnailMarkers"`
	SkipImageMarkers  []string `yaml:"skipImageMarkers"`
}

// TikTokTable configures the short-video extractor.
type TikTokTable struct {
	ReadySelectors   []string      `yaml:"readySelectors"`
	StatePatterns    []string      `yaml:"statePatterns"`
	CDNRewrites      []HostRewrite `yaml:"cdnRewrites"`
	SkipImageMarkers []string      `yaml:"skipImageMarkers"`
}

// RedditTable configures the news-aggregator extractor.
type RedditTable struct {
	ShareLinkSelectors []string `yaml:"shareLinkSelectors"` // tried in order on share-link pages
}

// Tables bundles every platform's heuristics.
type Tables struct {
	Twitter   TwitterTable   `yaml:"twitter"`
	Instagram InstagramTable `yaml:"instagram"`
	TikTok    TikTokTable    `yaml:"tiktok"`
	Reddit    RedditTable    `yaml:"reddit"`
}

// DefaultTables returns the built-in heuristics.
func DefaultTables() *Tables {
	return &Tables{
		Twitter: TwitterTable{
			APIBase: "https://api.fxtwitter.com",
		},
		Instagram: InstagramTable{
			CanonicalHost:  "instagram.com",
			MirrorHosts:    []string{"kkinstagram.com"},
			ReadySelectors: []string{"img[srcset]", "video", "article", "main", "[role='main']"},
			VideoSelectors: []string{
				"video[playsinline]",
				"div[role='presentation'] video",
				"article video",
				"video",
			},
			ImageSelectors: []string{"article img[srcset]", "article img", "img[alt]"},
			// JSON in page source escapes slashes, so the scheme is
			// matched loosely and unescaped afterwards.
			VideoJSONPatterns: []string{
				`"video_url":\s*"(https:[^"]+)"`,
				`"playback_url":\s*"(https:[^"]+)"`,
				`"src":\s*"(https:[^"]+\.mp4[^"]*)"`,
				`videoUrl":"(https:[^"]+)"`,
			},
			ThumbnailMarkers: []string{"thumbnail", "s150x150", "s320x320"},
			SkipImageMarkers: []string{"profile_pic", "s150x150", "44x44", "instagram_logo"},
		},
		TikTok: TikTokTable{
			ReadySelectors: []string{"video", "[data-e2e='browse-video']", "img[alt]", "main", "#main-content-video_detail"},
			StatePatterns: []string{
				`<script id="SIGI_STATE"[^>]*>(.*?)</script>`,
				`window\.__INIT_PROPS__\s*=\s*(\{.*?\});`,
				`window\["SIGI_STATE"\]\s*=\s*(\{.*?\});`,
				`window\.__INIT_DATA__\s*=\s*(\{.*?\});`,
			},
			CDNRewrites: []HostRewrite{
				{From: "p16-common-sign.tiktokcdn-us.com", To: "p16-sign.tiktokcdn.com"},
				{From: "p16-common.tiktokcdn.com", To: "p16-sign.tiktokcdn.com"},
			},
			SkipImageMarkers: []string{"logo", "icon", "avatar"},
		},
		Reddit: RedditTable{
			ShareLinkSelectors: []string{
				`a[href*="/comments/"]`,
				`a[data-click-id="body"]`,
				`shreddit-post a[slot="full-post-link"]`,
			},
		},
	}
}

// LoadTables returns the defaults overlaid with any overrides from the YAML
// file at path. Fields absent from the file keep their defaults.
func LoadTables(path string) (*Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables file: %w", err)
	}
	if err := yaml.Unmarshal(data, tables); err != nil {
		return nil, fmt.Errorf("parse tables file %s: %w", path, err)
	}
	return tables, nil
}
