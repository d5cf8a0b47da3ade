package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone        = "Asia/Shanghai"
	defaultConflictRetries = 3
	configPathEnv          = "HACKNEWS_BOT_CONFIG"
	intervalEnv            = "HACKNEWS_BOT_INTERVAL"
	logLevelEnv            = "LOG_LEVEL"
	githubTokenEnv         = "GITHUB_TOKEN"
	githubRepoEnv          = "GITHUB_REPO"
	openAIAPIKeyEnv        = "OPENAI_API_KEY"
	databaseDSNEnv         = "DATABASE_DSN"
	redisURLEnv            = "REDIS_URL"
	telegramTokenEnv       = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv      = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Feed          FeedConfig         `yaml:"feed"`
	Translator    TranslatorConfig   `yaml:"translator"`
	Document      DocumentConfig     `yaml:"document"`
	Storage       StorageConfig      `yaml:"storage"`
	Lock          LockConfig         `yaml:"lock"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// SchedulerConfig defines how often a cycle runs and which day it belongs to.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FeedConfig describes the ranked feed and how hard to hit it.
type FeedConfig struct {
	Strategy          string        `yaml:"strategy"`
	RankedURL         string        `yaml:"rankedUrl"`
	ItemURLTemplate   string        `yaml:"itemUrlTemplate"`
	PageURL           string        `yaml:"pageUrl"`
	RSSURL            string        `yaml:"rssUrl"`
	Limit             int           `yaml:"limit"`
	Concurrency       int           `yaml:"concurrency"`
	RequestTimeout    time.Duration `yaml:"requestTimeout"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
}

// TranslatorConfig selects the translation backend.
type TranslatorConfig struct {
	Provider       string               `yaml:"provider"`
	SourceLang     string               `yaml:"sourceLang"`
	TargetLang     string               `yaml:"targetLang"`
	Timeout        time.Duration        `yaml:"timeout"`
	Concurrency    int                  `yaml:"concurrency"`
	CacheSize      int                  `yaml:"cacheSize"`
	Endpoint       string               `yaml:"endpoint"`
	OpenAI         OpenAIConfig         `yaml:"openai"`
	LibreTranslate LibreTranslateConfig `yaml:"libretranslate"`
}

// OpenAIConfig defines how to contact an OpenAI-compatible API.
type OpenAIConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`
}

// LibreTranslateConfig addresses a LibreTranslate server.
type LibreTranslateConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"apiKey"`
}

// DocumentConfig controls where and how the daily document is written.
type DocumentConfig struct {
	Directory string `yaml:"directory"`
	LinkStyle string `yaml:"linkStyle"`
	// nil means defaultConflictRetries; 0 disables retries.
	MaxConflictRetries *int `yaml:"maxConflictRetries"`
}

// ConflictRetries resolves MaxConflictRetries.
func (d DocumentConfig) ConflictRetries() int {
	if d.MaxConflictRetries == nil {
		return defaultConflictRetries
	}
	return *d.MaxConflictRetries
}

// StorageConfig picks one document store backend.
type StorageConfig struct {
	Backend  string         `yaml:"backend"`
	GitHub   GitHubConfig   `yaml:"github"`
	GCS      GCSConfig      `yaml:"gcs"`
	Postgres PostgresConfig `yaml:"postgres"`
	File     FileConfig     `yaml:"file"`
}

// GitHubConfig addresses a repository through the contents API.
type GitHubConfig struct {
	Repo    string `yaml:"repo"`
	Branch  string `yaml:"branch"`
	Token   string `yaml:"token"`
	BaseURL string `yaml:"baseUrl"`
}

// GCSConfig addresses a bucket.
type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	CredentialsFile string `yaml:"credentialsFile"`
}

// PostgresConfig describes Postgres connection details.
type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// FileConfig roots a local directory store.
type FileConfig struct {
	Root string `yaml:"root"`
}

// LockConfig picks the per-document mutual exclusion backend.
type LockConfig struct {
	Backend  string        `yaml:"backend"`
	RedisURL string        `yaml:"redisUrl"`
	TTL      time.Duration `yaml:"ttl"`
}

// MetricsConfig exposes Prometheus metrics when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
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

// Load reads .env, YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile is Load with an explicit YAML path; an empty path skips the file.
func LoadFile(path string) Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path != "" {
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

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(intervalEnv); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Scheduler.Interval = d
		} else {
			log.Printf("config: invalid %s=%q, keeping %s", intervalEnv, v, c.Scheduler.Interval)
		}
	}

	if v := os.Getenv(githubTokenEnv); v != "" {
		c.Storage.GitHub.Token = v
	}

	if v := os.Getenv(githubRepoEnv); v != "" {
		c.Storage.GitHub.Repo = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.Translator.OpenAI.APIKey = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.Postgres.DSN = v
	}

	if v := os.Getenv(redisURLEnv); v != "" {
		c.Lock.RedisURL = v
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
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	base.Feed = mergeFeed(base.Feed, override.Feed)
	base.Translator = mergeTranslator(base.Translator, override.Translator)

	if override.Document.Directory != "" {
		base.Document.Directory = override.Document.Directory
	}
	if override.Document.LinkStyle != "" {
		base.Document.LinkStyle = override.Document.LinkStyle
	}
	if override.Document.MaxConflictRetries != nil {
		base.Document.MaxConflictRetries = override.Document.MaxConflictRetries
	}

	if override.Storage.Backend != "" {
		base.Storage.Backend = override.Storage.Backend
	}
	if override.Storage.GitHub.Repo != "" {
		base.Storage.GitHub.Repo = override.Storage.GitHub.Repo
	}
	if override.Storage.GitHub.Branch != "" {
		base.Storage.GitHub.Branch = override.Storage.GitHub.Branch
	}
	if override.Storage.GitHub.Token != "" {
		base.Storage.GitHub.Token = override.Storage.GitHub.Token
	}
	if override.Storage.GitHub.BaseURL != "" {
		base.Storage.GitHub.BaseURL = override.Storage.GitHub.BaseURL
	}
	if override.Storage.GCS.Bucket != "" {
		base.Storage.GCS = override.Storage.GCS
	}
	if override.Storage.Postgres.DSN != "" {
		base.Storage.Postgres.DSN = override.Storage.Postgres.DSN
	}
	if override.Storage.Postgres.Table != "" {
		base.Storage.Postgres.Table = override.Storage.Postgres.Table
	}
	if override.Storage.File.Root != "" {
		base.Storage.File.Root = override.Storage.File.Root
	}

	if override.Lock.Backend != "" {
		base.Lock.Backend = override.Lock.Backend
	}
	if override.Lock.RedisURL != "" {
		base.Lock.RedisURL = override.Lock.RedisURL
	}
	if override.Lock.TTL > 0 {
		base.Lock.TTL = override.Lock.TTL
	}

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func mergeFeed(base, override FeedConfig) FeedConfig {
	if override.Strategy != "" {
		base.Strategy = strings.ToLower(override.Strategy)
	}
	if override.RankedURL != "" {
		base.RankedURL = override.RankedURL
	}
	if override.ItemURLTemplate != "" {
		base.ItemURLTemplate = override.ItemURLTemplate
	}
	if override.PageURL != "" {
		base.PageURL = override.PageURL
	}
	if override.RSSURL != "" {
		base.RSSURL = override.RSSURL
	}
	if override.Limit > 0 {
		base.Limit = override.Limit
	}
	if override.Concurrency > 0 {
		base.Concurrency = override.Concurrency
	}
	if override.RequestTimeout > 0 {
		base.RequestTimeout = override.RequestTimeout
	}
	if override.RequestsPerSecond > 0 {
		base.RequestsPerSecond = override.RequestsPerSecond
	}
	return base
}

func mergeTranslator(base, override TranslatorConfig) TranslatorConfig {
	if override.Provider != "" {
		base.Provider = strings.ToLower(override.Provider)
	}
	if override.SourceLang != "" {
		base.SourceLang = override.SourceLang
	}
	if override.TargetLang != "" {
		base.TargetLang = override.TargetLang
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}
	if override.Concurrency > 0 {
		base.Concurrency = override.Concurrency
	}
	// negative disables the cache
	if override.CacheSize != 0 {
		base.CacheSize = override.CacheSize
	}
	if override.Endpoint != "" {
		base.Endpoint = override.Endpoint
	}
	if override.OpenAI.BaseURL != "" {
		base.OpenAI.BaseURL = override.OpenAI.BaseURL
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.LibreTranslate.URL != "" {
		base.LibreTranslate.URL = override.LibreTranslate.URL
	}
	if override.LibreTranslate.APIKey != "" {
		base.LibreTranslate.APIKey = override.LibreTranslate.APIKey
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{Interval: 3 * time.Hour, Timezone: defaultTimezone},
		Feed: FeedConfig{
			Strategy:          "hn-api",
			RankedURL:         "https://hacker-news.firebaseio.com/v0/topstories.json",
			ItemURLTemplate:   "https://hacker-news.firebaseio.com/v0/item/%d.json",
			PageURL:           "https://news.ycombinator.com/news",
			RSSURL:            "https://hnrss.org/frontpage",
			Limit:             20,
			Concurrency:       8,
			RequestTimeout:    10 * time.Second,
			RequestsPerSecond: 20,
		},
		Translator: TranslatorConfig{
			Provider:    "google",
			SourceLang:  "en",
			TargetLang:  "zh-CN",
			Timeout:     15 * time.Second,
			Concurrency: 4,
			CacheSize:   512,
			Endpoint:    "https://translate.googleapis.com/translate_a/single",
			OpenAI: OpenAIConfig{
				Model: "gpt-4o-mini",
			},
		},
		Document: DocumentConfig{
			Directory: "_posts",
			LinkStyle: "discussion",
		},
		Storage: StorageConfig{
			Backend:  "github",
			Postgres: PostgresConfig{Table: "documents"},
			File:     FileConfig{Root: "./site"},
		},
		Lock: LockConfig{Backend: "local", TTL: 5 * time.Minute},
	}
}
