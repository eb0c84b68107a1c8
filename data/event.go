package data

import "database/sql"

// Event holds one listing scraped from dice.fm, keyed by a deterministic ID
// derived from its name, date, and location. The ID is the upsert key in the
// events table, so re-scraping an unchanged listing is idempotent.
//
// Events have many artists via the association table event_artists.
type Event struct {
	// like "18d73c2f"
	ID string `gorm:"primaryKey"`

	// like "Sweat! DJ Night"
	Name string

	// the date string as scraped, like "Thu, Jun 8"
	DateText string

	// DateText parsed into the current year. Invalid means the date
	// string couldn't be parsed; the event is kept anyway.
	Date sql.NullTime

	Location string
	Price    string

	// like "https://dice.fm/event/..."
	SourceLink string
	ImageURL   string

	// the lineup string as scraped from the event's detail page, like
	// "Artist A, Artist B and 12 more". Empty means the detail page had
	// no lineup (or couldn't be fetched).
	RawLineup string

	// performer names resolved from RawLineup, in page order
	Lineup []string `gorm:"-"`

	// enriched records for Lineup, in the same order
	Artists []Artist `gorm:"-"`
}

// EventArtist represents a many-to-many relationship between events and
// artists.
type EventArtist struct {
	EventID    string `gorm:"primaryKey"`
	ArtistName string `gorm:"primaryKey"`
}
