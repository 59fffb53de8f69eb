package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrConfigInvalid is returned when the loaded configuration cannot drive a run.
var ErrConfigInvalid = eris.New("config: invalid configuration")

// Config holds the full application configuration.
type Config struct {
	Tracker    TrackerConfig    `yaml:"tracker" mapstructure:"tracker"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	NewsAPI    NewsAPIConfig    `yaml:"newsapi" mapstructure:"newsapi"`
	RSS        RSSConfig        `yaml:"rss" mapstructure:"rss"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Report     ReportConfig     `yaml:"report" mapstructure:"report"`
	Mail       MailConfig       `yaml:"mail" mapstructure:"mail"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// TrackerConfig configures a tracker run.
type TrackerConfig struct {
	LookbackDays          int    `yaml:"lookback_days" mapstructure:"lookback_days"`
	TaxonomyPath          string `yaml:"taxonomy_path" mapstructure:"taxonomy_path"`
	MaxConcurrentArticles int    `yaml:"max_concurrent_articles" mapstructure:"max_concurrent_articles"`
	LookupEnabled         bool   `yaml:"lookup_enabled" mapstructure:"lookup_enabled"`
	MaxLookups            int    `yaml:"max_lookups" mapstructure:"max_lookups"`
}

// StoreConfig configures the history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// NewsAPIConfig holds NewsAPI credentials and search settings.
type NewsAPIConfig struct {
	Key      string   `yaml:"key" mapstructure:"key"`
	BaseURL  string   `yaml:"base_url" mapstructure:"base_url"`
	PageSize int      `yaml:"page_size" mapstructure:"page_size"`
	Language string   `yaml:"language" mapstructure:"language"`
	SortBy   string   `yaml:"sort_by" mapstructure:"sort_by"`
	Queries  []string `yaml:"queries" mapstructure:"queries"`
}

// RSSConfig lists the feeds polled each run.
type RSSConfig struct {
	Feeds []string `yaml:"feeds" mapstructure:"feeds"`
}

// FetchConfig configures HTTP fetching shared by all sources.
type FetchConfig struct {
	TimeoutSecs          int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxConcurrentSources int    `yaml:"max_concurrent_sources" mapstructure:"max_concurrent_sources"`
	MaxRetries           int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent            string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ScrapeConfig configures full-article scraping.
type ScrapeConfig struct {
	Enabled  bool `yaml:"enabled" mapstructure:"enabled"`
	MinChars int  `yaml:"min_chars" mapstructure:"min_chars"`
	MaxChars int  `yaml:"max_chars" mapstructure:"max_chars"`
}

// ReportConfig configures report output paths.
type ReportConfig struct {
	XLSXPath        string `yaml:"xlsx_path" mapstructure:"xlsx_path"`
	HTMLPreviewPath string `yaml:"html_preview_path" mapstructure:"html_preview_path"`
}

// MailConfig holds SendGrid settings.
type MailConfig struct {
	SendGridKey string   `yaml:"sendgrid_key" mapstructure:"sendgrid_key"`
	BaseURL     string   `yaml:"base_url" mapstructure:"base_url"`
	Sender      string   `yaml:"sender" mapstructure:"sender"`
	Recipients  []string `yaml:"recipients" mapstructure:"recipients"`
}

// MonitoringConfig configures run health checks and alert delivery.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	StaleAfterHours      int     `yaml:"stale_after_hours" mapstructure:"stale_after_hours"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultQueries are the NewsAPI searches used when none are configured.
var DefaultQueries = []string{
	"Trump CEO meeting",
	"Trump business leaders",
	"Trump executives meeting",
	"Mar-a-Lago CEO",
	"White House business meeting Trump",
	"Business Roundtable Trump",
	"Trump tech leaders",
	"Trump manufacturers",
	`"Trump meets" CEO OR chairman OR executive`,
	`"Trump hosted" business OR executives`,
}

// DefaultFeeds are the RSS feeds polled when none are configured.
var DefaultFeeds = []string{
	"https://news.google.com/rss/search?q=Trump+CEO+meeting&hl=en-US&gl=US&ceid=US:en",
	"https://news.google.com/rss/search?q=Trump+met+with+executives&hl=en-US&gl=US&ceid=US:en",
	"https://news.google.com/rss/search?q=Mar-a-Lago+CEO&hl=en-US&gl=US&ceid=US:en",
	"https://feeds.bbci.co.uk/news/business/rss.xml",
	"https://rss.nytimes.com/services/xml/rss/nyt/Business.xml",
	"https://feeds.npr.org/1006/rss.xml",
	"https://rss.politico.com/politics-news.xml",
	"https://abcnews.go.com/abcnews/politicsheadlines",
	"https://www.cbsnews.com/latest/rss/politics",
	"https://feeds.nbcnews.com/nbcnews/public/politics",
	"https://moxie.foxnews.com/google-publisher/politics.xml",
	"https://www.vox.com/rss/index.xml",
}

// secretKeys are settings with no default that are usually supplied through
// the environment (TRACKER_NEWSAPI_KEY, TRACKER_MAIL_RECIPIENTS, ...).
// Recipients may be given as a comma-separated list.
var secretKeys = []string{
	"newsapi.key",
	"mail.sendgrid_key",
	"mail.sender",
	"mail.recipients",
	"monitoring.webhook_url",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are unknown to Unmarshal unless bound.
	for _, key := range secretKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("tracker.lookback_days", 7)
	v.SetDefault("tracker.taxonomy_path", "taxonomy.yaml")
	v.SetDefault("tracker.max_concurrent_articles", 8)
	v.SetDefault("tracker.lookup_enabled", false)
	v.SetDefault("tracker.max_lookups", 20)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "meetings.db")
	v.SetDefault("newsapi.base_url", "https://newsapi.org")
	v.SetDefault("newsapi.page_size", 15)
	v.SetDefault("newsapi.language", "en")
	v.SetDefault("newsapi.sort_by", "relevancy")
	v.SetDefault("newsapi.queries", DefaultQueries)
	v.SetDefault("rss.feeds", DefaultFeeds)
	v.SetDefault("fetch.timeout_secs", 15)
	v.SetDefault("fetch.max_concurrent_sources", 4)
	v.SetDefault("fetch.max_retries", 2)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; meeting-tracker/1.0)")
	v.SetDefault("scrape.enabled", true)
	v.SetDefault("scrape.min_chars", 200)
	v.SetDefault("scrape.max_chars", 5000)
	v.SetDefault("report.xlsx_path", "meetings.xlsx")
	v.SetDefault("report.html_preview_path", "email_preview.html")
	v.SetDefault("mail.base_url", "https://api.sendgrid.com")
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.stale_after_hours", 48)
	v.SetDefault("monitoring.lookback_window_hours", 168)
	v.SetDefault("monitoring.check_interval_secs", 3600)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a run depends on. Problems are collected and
// reported together, wrapped around ErrConfigInvalid.
func (c *Config) Validate() error {
	var errs []string

	if c.Tracker.LookbackDays <= 0 {
		errs = append(errs, fmt.Sprintf("tracker.lookback_days must be positive, got %d", c.Tracker.LookbackDays))
	}
	if c.Tracker.TaxonomyPath == "" {
		errs = append(errs, "tracker.taxonomy_path is required")
	}
	if c.Tracker.MaxConcurrentArticles <= 0 {
		errs = append(errs, "tracker.max_concurrent_articles must be positive")
	}

	switch c.Store.Driver {
	case "sqlite", "file", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, fmt.Sprintf("store.database_url is required for driver %q", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of sqlite, file, postgres", c.Store.Driver))
	}

	if c.Fetch.MaxConcurrentSources <= 0 {
		errs = append(errs, "fetch.max_concurrent_sources must be positive")
	}
	if c.Scrape.Enabled && c.Scrape.MaxChars <= 0 {
		errs = append(errs, "scrape.max_chars must be positive when scraping is enabled")
	}
	if len(c.Mail.Recipients) > 0 {
		if c.Mail.SendGridKey == "" {
			errs = append(errs, "mail.sendgrid_key is required when recipients are set")
		}
		if c.Mail.Sender == "" {
			errs = append(errs, "mail.sender is required when recipients are set")
		}
	}

	if len(errs) > 0 {
		return eris.Wrap(ErrConfigInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
