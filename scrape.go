package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cbrugna/nyc-events/config"
	"github.com/cbrugna/nyc-events/db"
	"github.com/cbrugna/nyc-events/dice"
	"github.com/cbrugna/nyc-events/enrich"
	"github.com/cbrugna/nyc-events/pipeline"
	"github.com/cbrugna/nyc-events/readthrough"
	"github.com/cbrugna/nyc-events/spotify"
	"github.com/cbrugna/nyc-events/subcmd"
)

// scrape runs the whole pipeline once: fetch the dice.fm listing, extract
// events, enrich each lineup against spotify, and upsert into the database.
func scrape(ctx context.Context, args []string) error {
	cmd := subcmd.New("scrape", "scrape dice.fm and enrich the lineups")
	var (
		configPath = cmd.String("config", "config.yaml", "path to the yaml config file")
		dbPath     = cmd.String("db", "", "sqlite database file (overrides config)")
		workers    = cmd.Int("workers", 0, "concurrent catalog lookups (overrides config)")
		cacheDir   = cmd.String("cache", "", "cache event detail pages in this directory (overrides config)")
	)
	if err := cmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *workers > 0 {
		cfg.EnrichWorkers = *workers
	}
	if *cacheDir != "" {
		cfg.CacheDir = *cacheDir
	}

	log := newLogger(cfg.LogLevel)

	clientID := os.Getenv("SPOTIFY_CLIENT_ID")
	clientSecret := os.Getenv("SPOTIFY_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set")
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	var cache *readthrough.ReadThrough
	if cfg.CacheDir != "" {
		if err := os.MkdirAll(cfg.CacheDir, 0777); err != nil {
			return fmt.Errorf("error creating cache dir '%s': %w", cfg.CacheDir, err)
		}
		cache = readthrough.New(cfg.CacheDir, "page-")
	}

	src := dice.NewSource(cfg.ListingURL, cache, cfg.RequestTimeout())
	scraper := dice.NewScraper(src, cfg.FetchWorkers, log.With().Str("component", "dice").Logger())
	catalog := spotify.New(clientID, clientSecret, log.With().Str("component", "spotify").Logger())
	enricher := enrich.New(catalog, cfg.EnrichWorkers, log.With().Str("component", "enrich").Logger())

	pipe := pipeline.New(scraper, enricher, database, log.With().Str("component", "pipeline").Logger())
	emitted, err := pipe.Run(ctx)
	if err != nil {
		return fmt.Errorf("scrape error: %w", err)
	}

	log.Info().Int("events", emitted).Msg("scrape complete")
	return nil
}
