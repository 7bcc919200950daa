package config

// BotConfig represents a complete bot variant configuration
type BotConfig struct {
	Bot      BotInfo  `yaml:"bot"`
	Sources  []Source `yaml:"sources"`
	Settings Settings `yaml:"settings"`
	Filters  []Filter `yaml:"filters"`
}

// BotInfo identifies the bot variant and its publish target
type BotInfo struct {
	Name        string `yaml:"name"`
	Subreddit   string `yaml:"subreddit"`
	TitleSuffix string `yaml:"title_suffix"`
}

// Source describes a single feed or page to fetch items from
type Source struct {
	Name      string    `yaml:"name"`
	URL       string    `yaml:"url"`
	Type      string    `yaml:"type"` // "rss" or "page"
	Selectors Selectors `yaml:"selectors"`
}

// Selectors drive item extraction for page sources. Title and Summary
// accept an optional attribute suffix in square brackets, e.g. "img[alt]".
type Selectors struct {
	Item    string `yaml:"item"`
	Title   string `yaml:"title"`
	Link    string `yaml:"link"`
	Summary string `yaml:"summary"`
}

// Settings contains pipeline processing settings
type Settings struct {
	FingerprintStrategy  string `yaml:"fingerprint_strategy"`  // url, title, content, timestamp
	TimestampGranularity int    `yaml:"timestamp_granularity"` // seconds
	BodyMaxLength        int    `yaml:"body_max_length"`
	DedupHorizon         string `yaml:"dedup_horizon"` // Go duration, empty = no eviction
	DedupStore           string `yaml:"dedup_store"`   // path to the dedup store file
	ExtractContent       bool   `yaml:"extract_content"`
	FetchTimeout         int    `yaml:"fetch_timeout"`   // seconds
	PublishTimeout       int    `yaml:"publish_timeout"` // seconds
}

// Filter represents a content filter rule
type Filter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
