package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Tracker.LookbackDays)
	assert.Equal(t, "taxonomy.yaml", cfg.Tracker.TaxonomyPath)
	assert.Equal(t, 8, cfg.Tracker.MaxConcurrentArticles)
	assert.False(t, cfg.Tracker.LookupEnabled)
	assert.Equal(t, 20, cfg.Tracker.MaxLookups)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "meetings.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "https://newsapi.org", cfg.NewsAPI.BaseURL)
	assert.Equal(t, 15, cfg.NewsAPI.PageSize)
	assert.Equal(t, "en", cfg.NewsAPI.Language)
	assert.Equal(t, "relevancy", cfg.NewsAPI.SortBy)
	assert.Equal(t, DefaultQueries, cfg.NewsAPI.Queries)
	assert.Len(t, cfg.RSS.Feeds, len(DefaultFeeds))
	assert.Equal(t, 15, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 4, cfg.Fetch.MaxConcurrentSources)
	assert.True(t, cfg.Scrape.Enabled)
	assert.Equal(t, 5000, cfg.Scrape.MaxChars)
	assert.Equal(t, 200, cfg.Scrape.MinChars)
	assert.Equal(t, "meetings.xlsx", cfg.Report.XLSXPath)
	assert.Equal(t, "email_preview.html", cfg.Report.HTMLPreviewPath)
	assert.Equal(t, "https://api.sendgrid.com", cfg.Mail.BaseURL)
	assert.InDelta(t, 0.25, cfg.Monitoring.FailureRateThreshold, 1e-9)
	assert.Equal(t, 48, cfg.Monitoring.StaleAfterHours)
	assert.Equal(t, 168, cfg.Monitoring.LookbackWindowHours)
	assert.Empty(t, cfg.Monitoring.WebhookURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
tracker:
  lookback_days: 14
store:
  driver: file
  database_url: history.json
newsapi:
  queries:
    - "Trump CEO"
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 14, cfg.Tracker.LookbackDays)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "history.json", cfg.Store.DatabaseURL)
	assert.Equal(t, []string{"Trump CEO"}, cfg.NewsAPI.Queries)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 15, cfg.NewsAPI.PageSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: file
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("TRACKER_STORE_DRIVER", "postgres")
	t.Setenv("TRACKER_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("TRACKER_TRACKER_LOOKBACK_DAYS", "3")
	t.Setenv("TRACKER_NEWSAPI_KEY", "news-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Tracker.LookbackDays)
	assert.Equal(t, "news-key", cfg.NewsAPI.Key)
}

func TestLoadSecretsFromEnv(t *testing.T) {
	chdirTemp(t)

	t.Setenv("TRACKER_NEWSAPI_KEY", "news-key")
	t.Setenv("TRACKER_MAIL_SENDGRID_KEY", "sg-key")
	t.Setenv("TRACKER_MAIL_SENDER", "tracker@example.com")
	t.Setenv("TRACKER_MAIL_RECIPIENTS", "a@example.com,b@example.com")
	t.Setenv("TRACKER_MONITORING_WEBHOOK_URL", "https://hooks.example.com/x")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "news-key", cfg.NewsAPI.Key)
	assert.Equal(t, "sg-key", cfg.Mail.SendGridKey)
	assert.Equal(t, "tracker@example.com", cfg.Mail.Sender)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Mail.Recipients)
	assert.Equal(t, "https://hooks.example.com/x", cfg.Monitoring.WebhookURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadSecretsFromFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
mail:
  sendgrid_key: file-key
  sender: tracker@example.com
  recipients: [ops@example.com]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.Mail.SendGridKey)
	assert.Equal(t, []string{"ops@example.com"}, cfg.Mail.Recipients)
	assert.Empty(t, cfg.NewsAPI.Key)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("tracker: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Tracker.LookbackDays = 7
	cfg.Tracker.TaxonomyPath = "taxonomy.yaml"
	cfg.Tracker.MaxConcurrentArticles = 8
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "meetings.db"
	cfg.Fetch.MaxConcurrentSources = 4
	cfg.Scrape.Enabled = true
	cfg.Scrape.MaxChars = 5000
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "zero lookback",
			mutate:  func(c *Config) { c.Tracker.LookbackDays = 0 },
			wantErr: "tracker.lookback_days must be positive",
		},
		{
			name:    "missing taxonomy",
			mutate:  func(c *Config) { c.Tracker.TaxonomyPath = "" },
			wantErr: "tracker.taxonomy_path is required",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Store.Driver = "mongo" },
			wantErr: `store.driver "mongo"`,
		},
		{
			name:    "missing dsn",
			mutate:  func(c *Config) { c.Store.Driver = "postgres"; c.Store.DatabaseURL = "" },
			wantErr: "store.database_url is required",
		},
		{
			name:    "recipients without key",
			mutate:  func(c *Config) { c.Mail.Recipients = []string{"a@example.com"} },
			wantErr: "mail.sendgrid_key is required",
		},
		{
			name:    "scrape cap",
			mutate:  func(c *Config) { c.Scrape.MaxChars = 0 },
			wantErr: "scrape.max_chars must be positive",
		},
		{
			name:   "scrape disabled ignores cap",
			mutate: func(c *Config) { c.Scrape.Enabled = false; c.Scrape.MaxChars = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, eris.Is(err, ErrConfigInvalid))
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := validDefaults()
	cfg.Tracker.LookbackDays = -1
	cfg.Fetch.MaxConcurrentSources = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracker.lookback_days")
	assert.Contains(t, err.Error(), "fetch.max_concurrent_sources")
}
