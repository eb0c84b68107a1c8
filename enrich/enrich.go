// Package enrich builds Artist records by cross-referencing lineup names
// against the music catalog. A name the catalog doesn't know, or can't be
// asked about, still yields a complete Artist record pointing at a web
// search instead of a catalog profile.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/cbrugna/nyc-events/data"
	"github.com/cbrugna/nyc-events/spotify"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	maxTopTracks = 5
	maxGenres    = 3

	searchBaseURL = "https://www.google.com/search?q="
)

// Catalog is the capability surface the engine needs from the music
// catalog. Every call can fail for network, auth, or rate-limit reasons;
// a failed call means "unknown", not "not found".
type Catalog interface {
	FindArtistID(ctx context.Context, name string) (string, error)
	TopTrackIDs(ctx context.Context, artistID string) ([]string, error)
	TrackTitles(ctx context.Context, trackIDs []string) ([]string, error)
	Genres(ctx context.Context, artistID string) ([]string, error)
	Popularity(ctx context.Context, artistID string) (int, error)
	ProfileURL(ctx context.Context, artistID string) (string, error)
}

func New(catalog Catalog, workers int, log zerolog.Logger) *Enricher {
	if workers <= 0 {
		workers = 4
	}
	return &Enricher{
		catalog: catalog,
		workers: workers,
		log:     log,
	}
}

type Enricher struct {
	catalog Catalog
	workers int
	log     zerolog.Logger
}

// Enrich looks the named artist up in the catalog and assembles their
// record. It never fails: an artist the catalog doesn't know, or one whose
// lookup errored, becomes a no-profile record with a deterministic search
// URL. Once the artist's catalog ID is known, the record keeps its profile
// even if individual field lookups fail; those fields just keep their
// defaults.
func (enr *Enricher) Enrich(ctx context.Context, name string) data.Artist {
	artist := data.Artist{
		Name:       name,
		Popularity: -1,
		ProfileURL: SearchURL(name),
	}

	id, err := enr.catalog.FindArtistID(ctx, name)
	if errors.Is(err, spotify.ErrNotFound) {
		enr.log.Debug().Str("artist", name).Msg("no catalog profile")
		return artist
	} else if err != nil {
		enr.log.Warn().Str("artist", name).Err(err).Msg("artist lookup failed")
		return artist
	}

	artist.SpotifyID = id
	artist.HasProfile = true
	artist.ProfileURL = fmt.Sprintf("https://open.spotify.com/artist/%s", id)

	if trackIDs, err := enr.catalog.TopTrackIDs(ctx, id); err != nil {
		enr.log.Warn().Str("artist", name).Err(err).Msg("top tracks lookup failed")
	} else if len(trackIDs) > 0 {
		// titles must come from these IDs so the pairing can't drift
		if titles, err := enr.catalog.TrackTitles(ctx, trackIDs); err != nil {
			enr.log.Warn().Str("artist", name).Err(err).Msg("track titles lookup failed")
		} else {
			n := min(len(trackIDs), len(titles), maxTopTracks)
			for i := 0; i < n; i++ {
				artist.TopTracks = append(artist.TopTracks, data.Track{
					Title:     titles[i],
					SpotifyID: trackIDs[i],
				})
			}
		}
	}

	if genres, err := enr.catalog.Genres(ctx, id); err != nil {
		enr.log.Warn().Str("artist", name).Err(err).Msg("genres lookup failed")
	} else {
		if len(genres) > maxGenres {
			genres = genres[:maxGenres]
		}
		artist.Genres = genres
	}

	if popularity, err := enr.catalog.Popularity(ctx, id); err != nil {
		enr.log.Warn().Str("artist", name).Err(err).Msg("popularity lookup failed")
	} else {
		artist.Popularity = popularity
	}

	if profileURL, err := enr.catalog.ProfileURL(ctx, id); err != nil {
		enr.log.Warn().Str("artist", name).Err(err).Msg("profile url lookup failed")
	} else if profileURL != "" {
		artist.ProfileURL = profileURL
	}

	return artist
}

// EnrichAll enriches every name through a bounded worker pool, returning
// records in input order. One artist's failure never affects another's.
func (enr *Enricher) EnrichAll(ctx context.Context, names []string) []data.Artist {
	artists := make([]data.Artist, len(names))

	g := new(errgroup.Group)
	g.SetLimit(enr.workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			artists[i] = enr.Enrich(ctx, name)
			return nil
		})
	}
	g.Wait()

	return artists
}

// SearchURL builds the fallback web-search link used when an artist has no
// catalog profile. It is a pure function of the name.
func SearchURL(name string) string {
	return searchBaseURL + strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}
