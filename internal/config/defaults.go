package config

import "os"

// Defaults returns the configuration used when a field is absent from the
// config file. The archive base URL honors the API_URL environment variable
// for parity with deployments that configure nothing else.
func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Archive: ArchiveConfig{
			BaseURL: os.Getenv("API_URL"),
		},
		Discord: DiscordConfig{
			Enabled: false,
		},
		Browser: BrowserConfig{
			Headless: true,
		},
	}
}
