package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Bot configuration
	BotConfig    string `long:"config" env:"BOT_CONFIG" default:"./bot.yml" description:"Path to the bot configuration file"`
	StorePath    string `long:"store" env:"STORE_PATH" description:"Path to the dedup store (overrides bot configuration)"`
	StoreBackend string `long:"store-backend" env:"STORE_BACKEND" default:"file" choice:"file" choice:"sqlite" description:"Dedup store backend"`

	// Publish target credentials
	RedditClientID     string `long:"reddit-client-id" env:"REDDIT_CLIENT_ID" description:"Reddit application client ID"`
	RedditClientSecret string `long:"reddit-client-secret" env:"REDDIT_CLIENT_SECRET" description:"Reddit application client secret"`
	RedditUsername     string `long:"reddit-username" env:"REDDIT_USERNAME" description:"Reddit account username"`
	RedditPassword     string `long:"reddit-password" env:"REDDITPASSWORD" description:"Reddit account password"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"newsherald/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/London)"`
	DryRun    bool   `long:"dry-run" env:"DRY_RUN" description:"Log posts instead of submitting them"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		BotConfig:          raw.BotConfig,
		StorePath:          raw.StorePath,
		StoreBackend:       raw.StoreBackend,
		RedditClientID:     raw.RedditClientID,
		RedditClientSecret: raw.RedditClientSecret,
		RedditUsername:     raw.RedditUsername,
		RedditPassword:     raw.RedditPassword,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		DryRun:             raw.DryRun,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return err
		}
		time.Local = loc
	}
	return nil
}
