// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Placeholder API key value treated the same as a missing key.
const PlaceholderAPIKey = "YOUR_API_KEY"

// Config captures every knob that influences a harvest run.
type Config struct {
	Harvest    HarvestConfig    `mapstructure:"harvest"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Pace       PaceConfig       `mapstructure:"pace"`
	YouTube    YouTubeConfig    `mapstructure:"youtube"`
	Reddit     RedditConfig     `mapstructure:"reddit"`
	Nitter     NitterConfig     `mapstructure:"nitter"`
	Letterboxd LetterboxdConfig `mapstructure:"letterboxd"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Publish    PublishConfig    `mapstructure:"publish"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// HarvestConfig governs run-wide harvesting behavior.
type HarvestConfig struct {
	DefaultQuery  string `mapstructure:"default_query"`
	CommentTarget int    `mapstructure:"comment_target"`
	ResultsDir    string `mapstructure:"results_dir"`
}

// HTTPConfig configures the outbound HTTP clients.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// PaceConfig controls inter-call delays and the throttle backoff.
type PaceConfig struct {
	DelaySeconds           float64 `mapstructure:"delay_seconds"`
	LetterboxdDelaySeconds float64 `mapstructure:"letterboxd_delay_seconds"`
	ThrottleBackoffSeconds float64 `mapstructure:"throttle_backoff_seconds"`
}

// YouTubeConfig configures the quota-metered API collector.
type YouTubeConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	MaxVideos int    `mapstructure:"max_videos"`
	PageSize  int    `mapstructure:"page_size"`
}

// RedditConfig configures the comment-tree collector.
type RedditConfig struct {
	BaseURL     string   `mapstructure:"base_url"`
	Subreddits  []string `mapstructure:"subreddits"`
	SearchLimit int      `mapstructure:"search_limit"`
	TopPosts    int      `mapstructure:"top_posts"`
	UserAgent   string   `mapstructure:"user_agent"`
}

// NitterConfig configures the mirror-failover collector.
type NitterConfig struct {
	Mirrors             []string `mapstructure:"mirrors"`
	MaxPages            int      `mapstructure:"max_pages"`
	ProbeTimeoutSeconds int      `mapstructure:"probe_timeout_seconds"`
}

// LetterboxdConfig configures the paginated review collector.
type LetterboxdConfig struct {
	BaseURL  string            `mapstructure:"base_url"`
	MaxPages int               `mapstructure:"max_pages"`
	Slugs    map[string]string `mapstructure:"slugs"`
}

// StorageConfig selects where harvest artifacts are written.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// PublishConfig holds Pub/Sub metadata for run-completion events.
// Both fields empty disables publishing.
type PublishConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// MetricsConfig enables the optional Prometheus listener.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk and environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("harvest.default_query", "Sinners")
	v.SetDefault("harvest.comment_target", 1000)
	v.SetDefault("harvest.results_dir", "raw_data/results")

	v.SetDefault("http.timeout_seconds", 12)
	v.SetDefault("http.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")

	v.SetDefault("pace.delay_seconds", 1.5)
	v.SetDefault("pace.letterboxd_delay_seconds", 2.0)
	v.SetDefault("pace.throttle_backoff_seconds", 5.0)

	v.SetDefault("youtube.api_key", "")
	v.SetDefault("youtube.base_url", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("youtube.max_videos", 5)
	v.SetDefault("youtube.page_size", 100)

	v.SetDefault("reddit.base_url", "https://www.reddit.com")
	v.SetDefault("reddit.subreddits", []string{"movies", "TrueFilm", "boxoffice", "flicks"})
	v.SetDefault("reddit.search_limit", 10)
	v.SetDefault("reddit.top_posts", 15)
	v.SetDefault("reddit.user_agent", "film-buzz-harvester/1.0 (comment research; contact: ops@filmbuzz.dev)")

	v.SetDefault("nitter.mirrors", []string{
		"https://nitter.net",
		"https://nitter.privacydev.net",
		"https://nitter.poast.org",
	})
	v.SetDefault("nitter.max_pages", 5)
	v.SetDefault("nitter.probe_timeout_seconds", 8)

	v.SetDefault("letterboxd.base_url", "https://letterboxd.com")
	v.SetDefault("letterboxd.max_pages", 10)
	v.SetDefault("letterboxd.slugs", map[string]string{
		"Sinners":              "sinners",
		"The Brutalist":        "the-brutalist",
		"Anora":                "anora",
		"Conclave":             "conclave",
		"Wicked":               "wicked-2024",
		"A Complete Unknown":   "a-complete-unknown",
		"Emilia Perez":         "emilia-perez",
		"Nickel Boys":          "nickel-boys",
		"The Substance":        "the-substance",
		"Dune: Part Two":       "dune-part-two",
		"I'm Still Here":       "im-still-here-2024",
		"One Battle After Another": "one-battle-after-another",
	})

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.gcs_bucket", "")

	v.SetDefault("publish.project_id", "")
	v.SetDefault("publish.topic", "")

	v.SetDefault("metrics.listen_addr", "")

	v.SetDefault("logging.development", false)
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.Harvest.DefaultQuery == "" {
		return fmt.Errorf("harvest.default_query must be set")
	}
	if c.Harvest.CommentTarget <= 0 {
		return fmt.Errorf("harvest.comment_target must be > 0")
	}
	if c.Harvest.ResultsDir == "" {
		return fmt.Errorf("harvest.results_dir must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent must be set")
	}
	if c.Pace.DelaySeconds <= 0 {
		return fmt.Errorf("pace.delay_seconds must be > 0")
	}
	if c.Pace.ThrottleBackoffSeconds <= 0 {
		return fmt.Errorf("pace.throttle_backoff_seconds must be > 0")
	}
	if c.YouTube.MaxVideos <= 0 || c.YouTube.MaxVideos > 5 {
		return fmt.Errorf("youtube.max_videos must be between 1 and 5")
	}
	if c.YouTube.PageSize <= 0 || c.YouTube.PageSize > 100 {
		return fmt.Errorf("youtube.page_size must be between 1 and 100")
	}
	if len(c.Reddit.Subreddits) == 0 {
		return fmt.Errorf("reddit.subreddits must include at least one subreddit")
	}
	if c.Reddit.TopPosts <= 0 || c.Reddit.TopPosts > 15 {
		return fmt.Errorf("reddit.top_posts must be between 1 and 15")
	}
	if c.Reddit.UserAgent == "" {
		return fmt.Errorf("reddit.user_agent must be set")
	}
	if len(c.Nitter.Mirrors) == 0 {
		return fmt.Errorf("nitter.mirrors must include at least one mirror")
	}
	if c.Nitter.MaxPages <= 0 {
		return fmt.Errorf("nitter.max_pages must be > 0")
	}
	if c.Letterboxd.MaxPages <= 0 || c.Letterboxd.MaxPages > 10 {
		return fmt.Errorf("letterboxd.max_pages must be between 1 and 10")
	}
	switch c.Storage.Backend {
	case "local":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set when storage.backend is gcs")
		}
	default:
		return fmt.Errorf("storage.backend must be local or gcs, got %q", c.Storage.Backend)
	}
	if (c.Publish.ProjectID == "") != (c.Publish.Topic == "") {
		return fmt.Errorf("publish.project_id and publish.topic must be set together")
	}
	return nil
}

// HTTPTimeout returns the per-call timeout as a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// PublishEnabled reports whether run-completion events should be published.
func (c Config) PublishEnabled() bool {
	return c.Publish.ProjectID != "" && c.Publish.Topic != ""
}

// OfflineYouTube reports whether the YouTube collector must run in fixture
// mode because no usable API key is configured.
func (c Config) OfflineYouTube() bool {
	key := strings.TrimSpace(c.YouTube.APIKey)
	return key == "" || key == PlaceholderAPIKey
}
