package db

import (
	"context"
	"database/sql"
	"fmt"
)

// An EventSummary is one row of the `events` listing.
type EventSummary struct {
	ID          string
	Name        string
	Date        sql.NullTime
	Location    string
	Price       string
	ArtistCount int
}

// ListEvents returns every stored event with its artist count, soonest
// first. Events whose dates couldn't be parsed sort first.
func (db *DB) ListEvents(ctx context.Context) ([]EventSummary, error) {
	var rows []EventSummary
	if err := db.WithContext(ctx).
		Table("events").
		Select(
			"events.id",
			"events.name",
			"events.date",
			"events.location",
			"events.price",
			"count(event_artists.artist_name) as artist_count",
		).
		Joins("left join event_artists on event_artists.event_id = events.id").
		Group("events.id").
		Order("events.date").
		Scan(&rows).
		Error; err != nil {
		return nil, fmt.Errorf("error listing events: %w", err)
	}
	return rows, nil
}
