// this program scrapes dice.fm's New York DJ listings, enriches each
// event's lineup with artist metadata from the Spotify Web API, and stores
// the combined records in a sqlite3 database file.
//
// see db/schema.sql for info about the resulting database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cbrugna/nyc-events/sigctx"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var usage = strings.TrimSpace(`
usage: nyc-events $cmd
valid $cmd are 'scrape' and 'events'
for help: nyc-events $cmd -help
`)

func run() error {
	ctx := sigctx.New()

	// spotify credentials live in the environment; a .env file is a
	// convenience, not a requirement
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error loading .env: %w", err)
	}

	if len(os.Args) < 2 {
		return errors.New(usage)
	}
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "scrape":
		return scrape(ctx, args)

	case "events":
		return events(ctx, args)

	default:
		return fmt.Errorf("unknown cmd: '%s'\n%s", cmd, usage)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
