package config

import (
	"os"
	"path/filepath"
	"testing"
)

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.General.LogLevel = "loud"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestValidate_ValidLogLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		cfg := Defaults()
		cfg.General.LogLevel = level
		if err := Validate(cfg); err != nil {
			t.Fatalf("level %q should be valid: %v", level, err)
		}
	}
}

func TestValidate_DiscordTokenRequired(t *testing.T) {
	cfg := Defaults()
	cfg.Discord.Enabled = true
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for enabled discord without token")
	}

	cfg.Discord.Token = "token"
	if err := Validate(cfg); err != nil {
		t.Fatalf("token set should be valid: %v", err)
	}
}

func TestValidate_ArchiveBaseURLScheme(t *testing.T) {
	cfg := Defaults()
	cfg.Archive.BaseURL = "archive.example.com"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for schemeless base url")
	}

	cfg.Archive.BaseURL = "https://archive.example.com"
	if err := Validate(cfg); err != nil {
		t.Fatalf("https base url should be valid: %v", err)
	}

	// Empty is explicitly permitted.
	cfg.Archive.BaseURL = ""
	if err := Validate(cfg); err != nil {
		t.Fatalf("empty base url should be valid: %v", err)
	}
}

func TestValidate_CachePublicBaseRequired(t *testing.T) {
	cfg := Defaults()
	cfg.Cache.Dir = "/var/cache/archivist"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for cache dir without public base")
	}

	cfg.Cache.PublicBaseURL = "https://files.example.com/media"
	if err := Validate(cfg); err != nil {
		t.Fatalf("complete cache config should be valid: %v", err)
	}
}

// --- Load ---

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"archive":{"baseUrl":"https://archive.example.com"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.General.LogLevel != "info" {
		t.Errorf("logLevel = %q, defaults not applied", cfg.General.LogLevel)
	}
	if !cfg.Browser.Headless {
		t.Error("headless should default to true")
	}
	if cfg.Archive.BaseURL != "https://archive.example.com" {
		t.Errorf("baseUrl = %q", cfg.Archive.BaseURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	path := writeConfig(t, `{"discord":{"enabled":true}}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

// --- ExpandEnvVars ---

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ARCHIVIST_TEST_TOKEN", "secret")

	got := ExpandEnvVars(`{"token":"${ARCHIVIST_TEST_TOKEN}"}`)
	if got != `{"token":"secret"}` {
		t.Errorf("got %q", got)
	}
}

func TestExpandEnvVars_Default(t *testing.T) {
	os.Unsetenv("ARCHIVIST_TEST_UNSET")

	got := ExpandEnvVars(`${ARCHIVIST_TEST_UNSET:-fallback}`)
	if got != "fallback" {
		t.Errorf("got %q", got)
	}
}

func TestExpandEnvVars_UnsetWithoutDefaultKept(t *testing.T) {
	os.Unsetenv("ARCHIVIST_TEST_UNSET")

	got := ExpandEnvVars(`${ARCHIVIST_TEST_UNSET}`)
	if got != "${ARCHIVIST_TEST_UNSET}" {
		t.Errorf("got %q", got)
	}
}

func TestLoad_ExpandsEnvInFile(t *testing.T) {
	t.Setenv("ARCHIVIST_TEST_BASE", "https://archive.example.com")
	path := writeConfig(t, `{"archive":{"baseUrl":"${ARCHIVIST_TEST_BASE}"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Archive.BaseURL != "https://archive.example.com" {
		t.Errorf("baseUrl = %q", cfg.Archive.BaseURL)
	}
}

// --- Save ---

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Defaults()
	cfg.Discord.Enabled = true
	cfg.Discord.Token = "token"

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Discord.Token != "token" {
		t.Errorf("token = %q", loaded.Discord.Token)
	}
}
