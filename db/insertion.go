package db

import (
	"context"
	"fmt"

	"github.com/cbrugna/nyc-events/data"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertEvent stores a finalized event and its artists, keyed on the
// event's deterministic ID. Upserting the same event twice leaves the
// database in the same state; a re-scraped event with new details updates
// in place.
func (db *DB) UpsertEvent(ctx context.Context, event *data.Event) error {
	if event.ID == "" {
		return fmt.Errorf("no event id")
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).
			Create(event).
			Error; err != nil {
			return fmt.Errorf("error upserting event '%s': %w", event.Name, err)
		}

		// the lineup is replaced wholesale: a re-scrape is the new
		// truth for this event
		if err := tx.
			Where("event_id = ?", event.ID).
			Delete(&data.EventArtist{}).
			Error; err != nil {
			return fmt.Errorf("error clearing lineup for event '%s': %w", event.Name, err)
		}

		for _, artist := range event.Artists {
			if err := upsertArtist(tx, &artist); err != nil {
				return err
			}
			if err := tx.
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&data.EventArtist{
					EventID:    event.ID,
					ArtistName: artist.Name,
				}).
				Error; err != nil {
				return fmt.Errorf("error inserting event artist {'%s' '%s'}: %w", event.Name, artist.Name, err)
			}
		}

		return nil
	})
}

func upsertArtist(tx *gorm.DB, artist *data.Artist) error {
	if artist.Name == "" {
		return fmt.Errorf("no artist name")
	}

	if err := tx.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			UpdateAll: true,
		}).
		Create(artist).
		Error; err != nil {
		return fmt.Errorf("error upserting artist '%s': %w", artist.Name, err)
	}

	if err := tx.
		Where("artist_name = ?", artist.Name).
		Delete(&data.ArtistTrack{}).
		Error; err != nil {
		return fmt.Errorf("error clearing tracks for artist '%s': %w", artist.Name, err)
	}
	for i, track := range artist.TopTracks {
		if err := tx.
			Create(&data.ArtistTrack{
				ArtistName: artist.Name,
				Position:   i,
				Title:      track.Title,
				SpotifyID:  track.SpotifyID,
			}).
			Error; err != nil {
			return fmt.Errorf("error inserting track '%s' for artist '%s': %w", track.Title, artist.Name, err)
		}
	}

	if err := tx.
		Where("artist_name = ?", artist.Name).
		Delete(&data.ArtistGenre{}).
		Error; err != nil {
		return fmt.Errorf("error clearing genres for artist '%s': %w", artist.Name, err)
	}
	for i, genre := range artist.Genres {
		if err := tx.
			Create(&data.ArtistGenre{
				ArtistName: artist.Name,
				Position:   i,
				Genre:      genre,
			}).
			Error; err != nil {
			return fmt.Errorf("error inserting genre '%s' for artist '%s': %w", genre, artist.Name, err)
		}
	}

	return nil
}
