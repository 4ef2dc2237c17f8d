package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MERCURY_API_KEY", " key-123 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MercuryAPIKey != "key-123" {
		t.Fatalf("MercuryAPIKey = %q", cfg.MercuryAPIKey)
	}
	if cfg.CrawlInterval != 900*time.Second {
		t.Fatalf("CrawlInterval = %v", cfg.CrawlInterval)
	}
	if cfg.HTTPTimeout != 0 {
		t.Fatalf("expected no default http timeout, got %v", cfg.HTTPTimeout)
	}
	if cfg.ReaderCacheTTL != time.Hour {
		t.Fatalf("ReaderCacheTTL = %v", cfg.ReaderCacheTTL)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		t.Fatalf("RequireAPIKey: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PARSE_CONCURRENCY", "9")
	t.Setenv("CONTENT_FORMAT", " Markdown ")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ParseConcurrency != 9 {
		t.Fatalf("ParseConcurrency = %d", cfg.ParseConcurrency)
	}
	if cfg.ContentFormat != "markdown" {
		t.Fatalf("ContentFormat = %q", cfg.ContentFormat)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
}

func TestLoadRejectsInvalidInterval(t *testing.T) {
	t.Setenv("CRAWL_INTERVAL", "0")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "crawl_interval") {
		t.Fatalf("expected crawl_interval error, got %v", err)
	}
}

func TestRequireAPIKey(t *testing.T) {
	cfg := &Config{}
	if err := cfg.RequireAPIKey(); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestSummaryHidesAPIKey(t *testing.T) {
	cfg := &Config{MercuryAPIKey: "secret-key", AppName: "mercury-reader"}
	summary := cfg.Summary()
	for k, v := range summary {
		if s, ok := v.(string); ok && strings.Contains(s, "secret-key") {
			t.Fatalf("summary field %s leaks the api key", k)
		}
	}
	if summary["mercury_api_key_set"] != true {
		t.Fatalf("expected key presence flag, got %v", summary["mercury_api_key_set"])
	}
}
