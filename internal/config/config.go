package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	MercuryAPIKey      string        `mapstructure:"mercury_api_key"`
	MercuryEndpoint    string        `mapstructure:"mercury_endpoint"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
	UserAgent          string        `mapstructure:"user_agent"`
	ContentFormat      string        `mapstructure:"content_format"`
	FetchAllPages      bool          `mapstructure:"fetch_all_pages"`

	ProvidersFile        string        `mapstructure:"providers_file"`
	PublishersFile       string        `mapstructure:"publishers_file"`
	CrawlIntervalSeconds int64         `mapstructure:"crawl_interval"`
	CrawlInterval        time.Duration `mapstructure:"-"`
	ParseConcurrency     int           `mapstructure:"parse_concurrency"`
	ParseRatePerSecond   float64       `mapstructure:"parse_rate_per_second"`
	OGFallback           bool          `mapstructure:"og_fallback"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	ReaderAddr            string        `mapstructure:"reader_addr"`
	ReaderCacheTTLSeconds int64         `mapstructure:"reader_cache_ttl_seconds"`
	ReaderCacheTTL        time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "mercury-reader")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("mercury_api_key", "")
	v.SetDefault("mercury_endpoint", "https://mercury.postlight.com/parser")
	v.SetDefault("http_timeout_seconds", 0)
	v.SetDefault("user_agent", "mercury-reader/1.0")
	v.SetDefault("content_format", "")
	v.SetDefault("fetch_all_pages", false)
	v.SetDefault("providers_file", "./configs/providers.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("crawl_interval", 900) // seconds
	v.SetDefault("parse_concurrency", 4)
	v.SetDefault("parse_rate_per_second", 2.0)
	v.SetDefault("og_fallback", true)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/mercury.db")
	v.SetDefault("storage_ttl_seconds", int64((5*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("reader_addr", ":8080")
	v.SetDefault("reader_cache_ttl_seconds", int64(time.Hour/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	cfg.MercuryAPIKey = strings.TrimSpace(cfg.MercuryAPIKey)
	cfg.ContentFormat = strings.ToLower(strings.TrimSpace(cfg.ContentFormat))

	if cfg.HTTPTimeoutSeconds < 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must be zero or positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.CrawlIntervalSeconds <= 0 {
		return fmt.Errorf("invalid crawl_interval (must be positive seconds)")
	}
	cfg.CrawlInterval = time.Duration(cfg.CrawlIntervalSeconds) * time.Second

	if cfg.ParseConcurrency <= 0 {
		return fmt.Errorf("invalid parse_concurrency (must be positive)")
	}
	if cfg.ParseRatePerSecond < 0 {
		return fmt.Errorf("invalid parse_rate_per_second (must be zero or positive)")
	}

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	if cfg.ReaderCacheTTLSeconds < 0 {
		return fmt.Errorf("invalid reader_cache_ttl_seconds (must be zero or positive seconds)")
	}
	cfg.ReaderCacheTTL = time.Duration(cfg.ReaderCacheTTLSeconds) * time.Second

	return nil
}

// RequireAPIKey reports a descriptive error when MERCURY_API_KEY is unset.
func (cfg *Config) RequireAPIKey() error {
	if cfg == nil || cfg.MercuryAPIKey == "" {
		return fmt.Errorf("mercury_api_key is not set (export MERCURY_API_KEY or add it to configs/.env)")
	}
	return nil
}

// Summary is the loggable view of the config; the API key is reduced to a presence flag.
func (cfg *Config) Summary() map[string]any {
	return map[string]any{
		"app_name":              cfg.AppName,
		"app_env":               cfg.Env,
		"log_level":             cfg.LogLevel,
		"mercury_endpoint":      cfg.MercuryEndpoint,
		"mercury_api_key_set":   cfg.MercuryAPIKey != "",
		"http_timeout":          cfg.HTTPTimeout.String(),
		"content_format":        cfg.ContentFormat,
		"fetch_all_pages":       cfg.FetchAllPages,
		"providers_file":        cfg.ProvidersFile,
		"publishers_file":       cfg.PublishersFile,
		"crawl_interval":        cfg.CrawlInterval.String(),
		"parse_concurrency":     cfg.ParseConcurrency,
		"parse_rate_per_second": cfg.ParseRatePerSecond,
		"storage_type":          cfg.StorageType,
		"reader_addr":           cfg.ReaderAddr,
	}
}
