package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmokto/newsherald/app/cfg"
	"github.com/lmokto/newsherald/app/config"
	"github.com/lmokto/newsherald/app/dedup"
	"github.com/lmokto/newsherald/app/feed"
	"github.com/lmokto/newsherald/app/pipeline"
	"github.com/lmokto/newsherald/app/publish"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appCfg.Debug)
	slog.Info("Starting newsherald", "version", appCfg.Version, "config", appCfg.BotConfig, "dry_run", appCfg.DryRun)

	botConfig, err := config.NewLoader(appCfg.BotConfig).Load()
	if err != nil {
		slog.Error("Failed to load bot configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("Bot configuration loaded", "bot", botConfig.Bot.Name, "sources", len(botConfig.Sources))

	// One run owns the store exclusively; overlapping runs of the same bot
	// must be prevented by the external scheduler.
	store := buildStore(appCfg, botConfig)
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 5,
		},
	}

	fetchers := make([]feed.Fetcher, 0, len(botConfig.Sources))
	for _, source := range botConfig.Sources {
		fetchers = append(fetchers, feed.NewFetcher(source, httpClient, appCfg.UserAgent, botConfig.Settings.GetFetchTimeout()))
	}

	normalizer := feed.NewNormalizer(botConfig.Settings.BodyMaxLength)
	filterer := feed.NewFilterer()

	var extractor *feed.ExcerptExtractor
	if botConfig.Settings.ExtractContent {
		extractor = feed.NewExcerptExtractor(httpClient, appCfg.UserAgent, botConfig.Settings.GetFetchTimeout())
	}

	publisher := buildPublisher(appCfg, botConfig, httpClient)
	formatter := publish.NewFormatter(botConfig.Bot.TitleSuffix)
	gate := publish.NewGate(store, publisher, formatter,
		feed.Strategy(botConfig.Settings.FingerprintStrategy),
		botConfig.Settings.GetTimestampGranularity(),
		botConfig.Settings.GetPublishTimeout())

	runner := pipeline.NewRunner(botConfig, fetchers, normalizer, filterer, extractor, store, gate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runner.Run(ctx)
	if err != nil {
		slog.Error("Run failed", "run_id", summary.RunID, "error", err)
		os.Exit(1)
	}

	// Item-level failures are reported in the summary but do not fail the
	// run; the affected items stay unseen and retry next time.
	for _, failure := range summary.PublishFailures {
		slog.Warn("Unpublished item will retry next run",
			"source", failure.Source, "title", failure.Title, "kind", string(failure.Kind))
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func buildStore(appCfg *cfg.Cfg, botConfig *config.BotConfig) dedup.Store {
	path := botConfig.Settings.DedupStore
	if appCfg.StorePath != "" {
		path = appCfg.StorePath
	}

	if appCfg.StoreBackend == "sqlite" {
		return dedup.NewSQLiteStore(path)
	}
	return dedup.NewFileStore(path)
}

func buildPublisher(appCfg *cfg.Cfg, botConfig *config.BotConfig, httpClient *http.Client) publish.Publisher {
	if appCfg.DryRun {
		return &publish.LogPublisher{}
	}

	creds := publish.Credentials{
		ClientID:     appCfg.RedditClientID,
		ClientSecret: appCfg.RedditClientSecret,
		Username:     appCfg.RedditUsername,
		Password:     appCfg.RedditPassword,
	}
	return publish.NewRedditPublisher(httpClient, creds, botConfig.Bot.Subreddit, appCfg.UserAgent)
}
