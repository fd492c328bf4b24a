package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"archivist/internal/archive"
	"archivist/internal/browser"
	"archivist/internal/channel"
	"archivist/internal/config"
	"archivist/internal/extract"
	"archivist/internal/fetch"
	"archivist/internal/media"
	"archivist/internal/pipeline"
	"archivist/internal/textutil"

	"github.com/spf13/cobra"
)

var (
	version    = "0.3.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "archivist",
		Short: "Archivist: chat-room archival assistant",
		Long:  "Archivist turns chat messages into article records and submits them to an archive service.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.archivist/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(runCmd())
	root.AddCommand(probeCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
	}
	applyLogLevel(cfg.General.LogLevel)
	return cfg
}

func applyLogLevel(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.DefaultConfigPath()
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve archive requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if !cfg.Discord.Enabled {
				return fmt.Errorf("discord is disabled in config")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			processor, err := buildPipeline(cfg)
			if err != nil {
				return err
			}

			discord := channel.NewDiscord(channel.DiscordConfig{
				Token:   cfg.Discord.Token,
				GuildID: cfg.Discord.GuildID,
			}, processor, logger)

			return discord.Start(ctx)
		},
	}
}

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <url>",
		Short: "Run link extraction for one URL and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			router, err := buildRouter(cfg)
			if err != nil {
				return err
			}

			meta := router.Extract(cmd.Context(), args[0])
			fmt.Printf("title:      %s\n", meta.Title)
			fmt.Printf("subtitle:   %s\n", meta.Subtitle)
			fmt.Printf("media_url:  %s\n", meta.MediaURL)
			fmt.Printf("media_type: %s\n", meta.MediaType)
			if meta.Note != "" {
				fmt.Printf("note:       %s\n", meta.Note)
			}
			fmt.Printf("content:\n%s\n", meta.Content)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("archivist", version)
		},
	}
}

// buildRouter wires the fetcher, browser launcher, and every platform
// extractor behind one router.
func buildRouter(cfg *config.Config) (*extract.Router, error) {
	tables, err := extract.LoadTables(cfg.Extract.TablesFile)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.New(fetch.NewHTTPClient(), logger)
	launcher := browser.NewLauncher(browser.Config{
		Headless:   cfg.Browser.Headless,
		ProfileDir: cfg.Browser.ProfileDir,
		Logger:     logger,
	})

	downloader := media.NewDownloader(cfg.Cache.Dir, cfg.Cache.PublicBaseURL, fetcher, logger)

	router := extract.NewRouter(extract.NewGenericExtractor(fetcher, logger), logger)
	router.Register(textutil.PlatformYouTube, extract.NewYouTubeExtractor(fetcher, logger))
	router.Register(textutil.PlatformMicroblog, extract.NewTwitterExtractor(fetcher, tables.Twitter, downloader, logger))
	router.Register(textutil.PlatformPhotoShare, extract.NewInstagramExtractor(launcher, tables.Instagram, logger))
	router.Register(textutil.PlatformShortVideo, extract.NewTikTokExtractor(launcher, fetcher, tables.TikTok, logger))
	router.Register(textutil.PlatformNewsAgg, extract.NewRedditExtractor(fetcher, tables.Reddit, logger))
	return router, nil
}

func buildPipeline(cfg *config.Config) (*pipeline.Processor, error) {
	router, err := buildRouter(cfg)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.New(fetch.NewHTTPClient(), logger)
	resolver := media.NewResolver(router, logger)
	archiver := archive.New(cfg.Archive.BaseURL, fetcher, logger)

	return pipeline.New(router, resolver, archiver, logger), nil
}
