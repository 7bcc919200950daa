package cfg

type Cfg struct {
	// Bot configuration
	BotConfig    string
	StorePath    string
	StoreBackend string

	// Publish target credentials
	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string

	// Application metadata
	UserAgent string
	Timezone  string
	DryRun    bool
	Debug     bool
	Version   string
}
