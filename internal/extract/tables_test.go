package extract

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTables(t *testing.T) {
	tables := DefaultTables()
	if tables.Twitter.APIBase == "" {
		t.Error("twitter api base unset")
	}
	if len(tables.Instagram.VideoJSONPatterns) == 0 {
		t.Error("instagram video patterns unset")
	}
	if len(tables.TikTok.StatePatterns) == 0 {
		t.Error("tiktok state patterns unset")
	}
	if len(tables.TikTok.CDNRewrites) == 0 {
		t.Error("tiktok cdn rewrites unset")
	}
}

func TestLoadTables_OverridesKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	override := `
twitter:
  apiBase: https://proxy.example.com
tiktok:
  cdnRewrites:
    - from: bad.example.com
      to: good.example.com
`
	if err := os.WriteFile(path, []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	tables, err := LoadTables(path)
	if err != nil {
		t.Fatal(err)
	}
	if tables.Twitter.APIBase != "https://proxy.example.com" {
		t.Errorf("apiBase = %q, override not applied", tables.Twitter.APIBase)
	}
	if tables.TikTok.CDNRewrites[0].From != "bad.example.com" {
		t.Errorf("cdnRewrites = %+v", tables.TikTok.CDNRewrites)
	}
	if len(tables.Instagram.VideoJSONPatterns) == 0 {
		t.Error("untouched sections should keep defaults")
	}
}

func TestLoadTables_MissingFile(t *testing.T) {
	if _, err := LoadTables(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
