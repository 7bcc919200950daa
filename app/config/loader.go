package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of bot configurations
type Loader struct {
	path string
}

// NewLoader creates a new configuration loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads, defaults and validates the bot configuration file
func (l *Loader) Load() (*BotConfig, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config BotConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&config)

	if err := l.validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", l.path, err)
	}

	return &config, nil
}

// setDefaults applies default values to configuration
func (l *Loader) setDefaults(config *BotConfig) {
	if config.Settings.FingerprintStrategy == "" {
		config.Settings.FingerprintStrategy = "url"
	}
	if config.Settings.TimestampGranularity == 0 {
		config.Settings.TimestampGranularity = 300 // seconds
	}
	if config.Settings.BodyMaxLength == 0 {
		config.Settings.BodyMaxLength = 500
	}
	if config.Settings.DedupStore == "" {
		config.Settings.DedupStore = fmt.Sprintf("./posted_%s.txt", config.Bot.Name)
	}
	if config.Settings.FetchTimeout == 0 {
		config.Settings.FetchTimeout = 30 // seconds
	}
	if config.Settings.PublishTimeout == 0 {
		config.Settings.PublishTimeout = 30 // seconds
	}
	for i := range config.Sources {
		if config.Sources[i].Type == "" {
			config.Sources[i].Type = "rss"
		}
	}
}

// validate validates the configuration
func (l *Loader) validate(config *BotConfig) error {
	if config.Bot.Name == "" {
		return fmt.Errorf("bot name is required")
	}

	if len(config.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	for i, source := range config.Sources {
		if source.Name == "" {
			return fmt.Errorf("source at index %d has no name", i)
		}
		if source.URL == "" {
			return fmt.Errorf("source %s has no URL", source.Name)
		}
		switch source.Type {
		case "rss", "page":
		default:
			return fmt.Errorf("source %s has unknown type: %s", source.Name, source.Type)
		}
		if source.Type == "page" && source.Selectors.Item == "" {
			return fmt.Errorf("source %s is a page source but has no item selector", source.Name)
		}
	}

	switch config.Settings.FingerprintStrategy {
	case "url", "title", "content", "timestamp":
	default:
		return fmt.Errorf("unknown fingerprint strategy: %s", config.Settings.FingerprintStrategy)
	}

	if config.Settings.BodyMaxLength < 0 {
		return fmt.Errorf("body max length must be non-negative")
	}
	if config.Settings.DedupHorizon != "" {
		if _, err := time.ParseDuration(config.Settings.DedupHorizon); err != nil {
			return fmt.Errorf("invalid dedup horizon: %w", err)
		}
	}

	validFields := map[string]bool{
		"title": true,
		"body":  true,
		"link":  true,
	}
	for i, filter := range config.Filters {
		if !validFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
