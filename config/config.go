// Package config loads pipeline settings from an optional YAML file.
// Everything has a sensible default; Spotify credentials stay in the
// environment, never in the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidEnrichWorkers = errors.New("enrich_workers must be at least 1")
	ErrInvalidFetchWorkers  = errors.New("fetch_workers must be at least 1")
	ErrInvalidTimeout       = errors.New("request_timeout_sec must be at least 1")
	ErrInvalidLogLevel      = errors.New("log_level must be one of: debug, info, warn, error")
)

type Config struct {
	// the dice.fm listing to scrape
	ListingURL string `yaml:"listing_url"`

	// sqlite database file
	DBPath string `yaml:"db_path"`

	// directory for cached detail pages; empty disables the cache
	CacheDir string `yaml:"cache_dir"`

	// catalog lookups in flight per lineup
	EnrichWorkers int `yaml:"enrich_workers"`

	// detail pages fetched in parallel
	FetchWorkers int `yaml:"fetch_workers"`

	// per-request timeout for page fetches
	RequestTimeoutSec int `yaml:"request_timeout_sec"`

	LogLevel string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		ListingURL:        "https://dice.fm/browse/new-york/music/dj",
		DBPath:            "events.db",
		EnrichWorkers:     4,
		FetchWorkers:      4,
		RequestTimeoutSec: 15,
		LogLevel:          "info",
	}
}

// Load reads the config file at path, layered over the defaults. A missing
// file isn't an error: the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()

	bs, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return cfg, fmt.Errorf("error reading config file '%s': %w", path, err)
	}

	if err := yaml.Unmarshal(bs, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config file '%s': %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file '%s': %w", path, err)
	}

	return cfg, nil
}

func (cfg Config) Validate() error {
	if cfg.EnrichWorkers < 1 {
		return ErrInvalidEnrichWorkers
	}
	if cfg.FetchWorkers < 1 {
		return ErrInvalidFetchWorkers
	}
	if cfg.RequestTimeoutSec < 1 {
		return ErrInvalidTimeout
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}

func (cfg Config) RequestTimeout() time.Duration {
	return time.Duration(cfg.RequestTimeoutSec) * time.Second
}
