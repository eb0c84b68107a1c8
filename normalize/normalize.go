// Package normalize turns the loosely formatted strings scraped from dice.fm
// into structured values: calendar dates, performer-name lists, and the
// deterministic event IDs the sink uses for upserts.
package normalize

import (
	"fmt"
	"hash/fnv"
	"io"
	"regexp"
	"strings"
	"time"
)

// dice renders event dates like "Thu, Jun 8" or "Thu, Jun 08", never with a
// year.
const dateLayout = "Mon, Jan 2"

// dateSentinel stands in for the date when computing an ID for an event
// whose date string couldn't be parsed.
const dateSentinel = "unknown-date"

// ParseEventDate parses a scraped date string like "Thu, Jun 8" into a date
// in now's year. The source never includes a year, so the current year is an
// accepted approximation: a January event scraped in December lands in the
// wrong year, and there is no signal in the input to do better.
func ParseEventDate(raw string, now time.Time) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable event date '%s': %w", raw, err)
	}
	return time.Date(now.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
}

var moreRE = regexp.MustCompile(` and \d+ more$`)

// ResolveLineup splits a scraped lineup string like
// "Artist A, Artist B, Artist C and 12 more" into cleaned performer names,
// preserving page order. The trailing "and N more" marker is dropped: the
// hidden names are not recoverable, only the visible ones. Empty input
// yields no names, not an error.
func ResolveLineup(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	segments := strings.Split(raw, ",")

	var names []string
	for i, segment := range segments {
		name := strings.TrimSpace(segment)
		if i == len(segments)-1 {
			name = strings.TrimSpace(moreRE.ReplaceAllString(name, ""))
		}
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// EventID derives the deterministic ID for an event from its name, date, and
// location. Two events with identical inputs always hash to the same ID;
// this is the dedup/upsert key in the sink, so the hash must stay stable
// across runs.
//
// An event without a parseable date gets a fixed sentinel in place of the
// date so its ID is still deterministic.
func EventID(name string, date *time.Time, location string) string {
	dateStr := dateSentinel
	if date != nil {
		dateStr = date.Format("2006-01-02")
	}

	h := fnv.New32a()
	io.WriteString(h, name)
	io.WriteString(h, dateStr)
	io.WriteString(h, location)
	return fmt.Sprintf("%08x", h.Sum32())
}
