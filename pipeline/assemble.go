package pipeline

import (
	"database/sql"
	"time"

	"github.com/cbrugna/nyc-events/data"
	"github.com/cbrugna/nyc-events/dice"
	"github.com/cbrugna/nyc-events/normalize"
)

// Assemble turns one raw event card into a finalized Event: the scraped
// strings pass through, the date and lineup are normalized, and the
// deterministic ID is derived from name, date, and location. It is a pure
// function given a fixed now; an unparseable date leaves Date invalid and
// contributes a sentinel to the ID instead of failing the event.
func Assemble(raw dice.RawEvent, now time.Time) data.Event {
	event := data.Event{
		Name:       raw.Name,
		DateText:   raw.DateText,
		Location:   raw.Location,
		Price:      raw.Price,
		SourceLink: raw.SourceLink,
		ImageURL:   raw.ImageURL,
		RawLineup:  raw.LineupText,
		Lineup:     normalize.ResolveLineup(raw.LineupText),
	}

	var date *time.Time
	if parsed, err := normalize.ParseEventDate(raw.DateText, now); err == nil {
		event.Date = sql.NullTime{Time: parsed, Valid: true}
		date = &parsed
	}

	event.ID = normalize.EventID(event.Name, date, event.Location)

	return event
}
