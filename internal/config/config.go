package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for Archivist.
type Config struct {
	General GeneralConfig `json:"general"`
	Archive ArchiveConfig `json:"archive"`
	Discord DiscordConfig `json:"discord"`
	Browser BrowserConfig `json:"browser"`
	Cache   CacheConfig   `json:"cache"`
	Extract ExtractConfig `json:"extract"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	LogFile  string `json:"logFile,omitempty"` // optional log file path
}

// ArchiveConfig points at the archive service articles are submitted to.
// An empty base URL disables submission-time absolute links but is
// permitted; the import endpoint then resolves relative to nothing, which
// matches the service running behind the same origin.
type ArchiveConfig struct {
	BaseURL string `json:"baseUrl"`
}

type DiscordConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	GuildID string `json:"guildId,omitempty"` // optional: restrict command registration to one guild
}

type BrowserConfig struct {
	Headless   bool   `json:"headless"`
	ProfileDir string `json:"profileDir,omitempty"` // persistent Chrome profile for logged-in scraping
}

// CacheConfig controls the on-disk video cache. Both fields must be set for
// video downloading to be enabled; otherwise remote URLs are passed through.
type CacheConfig struct {
	Dir           string `json:"dir,omitempty"`
	PublicBaseURL string `json:"publicBaseUrl,omitempty"`
}

type ExtractConfig struct {
	TablesFile string `json:"tablesFile,omitempty"` // optional YAML override for scraping heuristics
}

// DefaultConfigDir returns the default config directory (~/.archivist).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".archivist"
	}
	return filepath.Join(home, ".archivist")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Browser.ProfileDir = ExpandPath(cfg.Browser.ProfileDir)
	cfg.Cache.Dir = ExpandPath(cfg.Cache.Dir)
	cfg.Extract.TablesFile = ExpandPath(cfg.Extract.TablesFile)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if cfg.Discord.Enabled && cfg.Discord.Token == "" {
		errs = append(errs, "discord.token is required when discord is enabled")
	}

	if base := cfg.Archive.BaseURL; base != "" {
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			errs = append(errs, "archive.baseUrl must start with http:// or https://")
		}
	}

	if cfg.Cache.Dir != "" && cfg.Cache.PublicBaseURL == "" {
		errs = append(errs, "cache.publicBaseUrl is required when cache.dir is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
