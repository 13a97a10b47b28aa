package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone    = "UTC"
	configPathEnv      = "AINVESTORHOOD_CONFIG"
	databaseDSNEnv     = "DATABASE_DSN"
	analysisAPIKeyEnv  = "ANALYSIS_API_KEY"
	analysisURLEnv     = "ANALYSIS_ENDPOINT"
	symbolsURLEnv      = "SYMBOLS_ENDPOINT"
	allowUnverifiedEnv = "ALLOW_UNVERIFIED"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Logging       LoggingConfig      `yaml:"logging"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Analysis      AnalysisConfig     `yaml:"analysis"`
	Symbols       SymbolsConfig      `yaml:"symbols"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Notifications NotificationConfig `yaml:"notifications"`
	Feeds         []FeedConfig       `yaml:"feeds"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines how often collection runs execute.
type SchedulerConfig struct {
	Interval string         `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// IntervalDuration parses the interval string, defaulting to 15 minutes.
func (s SchedulerConfig) IntervalDuration() time.Duration {
	if d, err := time.ParseDuration(s.Interval); err == nil && d > 0 {
		return d
	}
	return 15 * time.Minute
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// AnalysisConfig defines how to contact the remote analysis service.
type AnalysisConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	Timeout  string `yaml:"timeout"`
}

// TimeoutDuration parses the analysis timeout, defaulting to 25 seconds.
func (a AnalysisConfig) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(a.Timeout); err == nil && d > 0 {
		return d
	}
	return 25 * time.Second
}

// SymbolsConfig defines how to contact the symbol resolution service.
type SymbolsConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	Timeout  string `yaml:"timeout"`
}

// TimeoutDuration parses the resolver timeout, defaulting to 10 seconds.
func (s SymbolsConfig) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(s.Timeout); err == nil && d > 0 {
		return d
	}
	return 10 * time.Second
}

// PipelineConfig groups the item-processing tunables.
type PipelineConfig struct {
	AllowUnverified     *bool   `yaml:"allowUnverified"`
	DedupWindow         int     `yaml:"dedupWindow"`
	SimilarityThreshold float64 `yaml:"similarityThreshold"`
	Workers             int     `yaml:"workers"`
}

// AllowUnverifiedInstruments resolves the policy flag, defaulting to true.
func (p PipelineConfig) AllowUnverifiedInstruments() bool {
	if p.AllowUnverified == nil {
		return true
	}
	return *p.AllowUnverified
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// FeedConfig describes a single upstream feed and its source strategy.
type FeedConfig struct {
	Name     string            `yaml:"name"`
	Source   string            `yaml:"source"`
	URL      string            `yaml:"url"`
	MaxItems int               `yaml:"maxItems"`
	Options  map[string]string `yaml:"options"`
}

// SourceName resolves the strategy name, defaulting to rss.
func (f FeedConfig) SourceName() string {
	if f.Source == "" {
		return "rss"
	}
	return f.Source
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Feeds) == 0 {
		cfg.Feeds = defaultConfig().Feeds
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(analysisURLEnv); v != "" {
		c.Analysis.Endpoint = v
	}

	if v := os.Getenv(analysisAPIKeyEnv); v != "" {
		c.Analysis.APIKey = v
	}

	if v := os.Getenv(symbolsURLEnv); v != "" {
		c.Symbols.Endpoint = v
	}

	if v := os.Getenv(allowUnverifiedEnv); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Pipeline.AllowUnverified = &parsed
		}
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Scheduler.Interval != "" {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Analysis.Endpoint != "" {
		base.Analysis.Endpoint = override.Analysis.Endpoint
	}
	if override.Analysis.APIKey != "" {
		base.Analysis.APIKey = override.Analysis.APIKey
	}
	if override.Analysis.Timeout != "" {
		base.Analysis.Timeout = override.Analysis.Timeout
	}

	if override.Symbols.Endpoint != "" {
		base.Symbols.Endpoint = override.Symbols.Endpoint
	}
	if override.Symbols.APIKey != "" {
		base.Symbols.APIKey = override.Symbols.APIKey
	}
	if override.Symbols.Timeout != "" {
		base.Symbols.Timeout = override.Symbols.Timeout
	}

	if override.Pipeline.AllowUnverified != nil {
		base.Pipeline.AllowUnverified = override.Pipeline.AllowUnverified
	}
	if override.Pipeline.DedupWindow > 0 {
		base.Pipeline.DedupWindow = override.Pipeline.DedupWindow
	}
	if override.Pipeline.SimilarityThreshold > 0 {
		base.Pipeline.SimilarityThreshold = override.Pipeline.SimilarityThreshold
	}
	if override.Pipeline.Workers > 0 {
		base.Pipeline.Workers = override.Pipeline.Workers
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database:  DatabaseConfig{DSN: ""},
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{Interval: "15m", Timezone: defaultTimezone, location: tz},
		Analysis: AnalysisConfig{
			Endpoint: "",
			APIKey:   "",
			Timeout:  "25s",
		},
		Symbols: SymbolsConfig{
			Endpoint: "",
			APIKey:   "",
			Timeout:  "10s",
		},
		Pipeline: PipelineConfig{
			DedupWindow:         2000,
			SimilarityThreshold: 0.8,
			Workers:             4,
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
		Feeds: []FeedConfig{
			{
				Name:     "marketwatch-top",
				Source:   "rss",
				URL:      "https://www.marketwatch.com/rss/topstories",
				MaxItems: 10,
			},
			{
				Name:     "cnbc-finance",
				Source:   "rss",
				URL:      "https://www.cnbc.com/id/100003114/device/rss/rss.html",
				MaxItems: 10,
			},
			{
				Name:     "investing-news",
				Source:   "rss",
				URL:      "https://www.investing.com/rss/news.rss",
				MaxItems: 10,
			},
		},
	}
}
