package normalize_test

import (
	"testing"
	"time"

	"github.com/cbrugna/nyc-events/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventDate(t *testing.T) {
	now := time.Date(2023, time.March, 15, 12, 0, 0, 0, time.UTC)

	got, err := normalize.ParseEventDate("Thu, Jun 8", now)
	require.NoError(t, err)
	assert.Equal(t, 2023, got.Year())
	assert.Equal(t, time.June, got.Month())
	assert.Equal(t, 8, got.Day())
}

func TestParseEventDateLeadingZero(t *testing.T) {
	now := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	got, err := normalize.ParseEventDate("Thu, Jun 08", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 8, 0, 0, 0, 0, time.UTC), got)
}

func TestParseEventDateUsesCallersYear(t *testing.T) {
	for _, year := range []int{2021, 2024, 2030} {
		now := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		got, err := normalize.ParseEventDate("Sat, Feb 4", now)
		require.NoError(t, err)
		assert.Equal(t, year, got.Year())
	}
}

func TestParseEventDateUnparseable(t *testing.T) {
	now := time.Now()
	for _, raw := range []string{"", "tomorrow", "Jun 8", "Thu, Juneteenth"} {
		_, err := normalize.ParseEventDate(raw, now)
		assert.Error(t, err, "raw: %q", raw)
	}
}

func TestResolveLineup(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"Solo Act", []string{"Solo Act"}},
		{"Artist A, Artist B, Artist C", []string{"Artist A", "Artist B", "Artist C"}},
		{"Artist A, Artist B, Artist C and 5 more", []string{"Artist A", "Artist B", "Artist C"}},
		{"Artist A and 12 more", []string{"Artist A"}},
		{"Artist A, , Artist B", []string{"Artist A", "Artist B"}},
		// "and N more" is only stripped from the final segment
		{"A and 2 more, B", []string{"A and 2 more", "B"}},
		// "and more" without a count is part of the name
		{"Artist A and more", []string{"Artist A and more"}},
	} {
		assert.Equal(t, tc.want, normalize.ResolveLineup(tc.raw), "raw: %q", tc.raw)
	}
}

func TestResolveLineupNoEmptyNames(t *testing.T) {
	for _, raw := range []string{",", ", ,", "A,", " and 3 more", "A, and 3 more"} {
		for _, name := range normalize.ResolveLineup(raw) {
			assert.NotEmpty(t, name, "raw: %q", raw)
		}
	}
}

func TestEventIDDeterministic(t *testing.T) {
	date := time.Date(2023, time.June, 8, 0, 0, 0, 0, time.UTC)

	a := normalize.EventID("Sweat!", &date, "Brooklyn")
	b := normalize.EventID("Sweat!", &date, "Brooklyn")
	assert.Equal(t, a, b)

	assert.Len(t, a, 8)
	assert.Regexp(t, "^[0-9a-z]{8}$", a)
}

func TestEventIDDistinguishesInputs(t *testing.T) {
	date := time.Date(2023, time.June, 8, 0, 0, 0, 0, time.UTC)
	other := time.Date(2023, time.June, 9, 0, 0, 0, 0, time.UTC)

	base := normalize.EventID("Sweat!", &date, "Brooklyn")
	assert.NotEqual(t, base, normalize.EventID("Sweat?", &date, "Brooklyn"))
	assert.NotEqual(t, base, normalize.EventID("Sweat!", &other, "Brooklyn"))
	assert.NotEqual(t, base, normalize.EventID("Sweat!", &date, "Queens"))
}

func TestEventIDAbsentDate(t *testing.T) {
	a := normalize.EventID("Sweat!", nil, "Brooklyn")
	b := normalize.EventID("Sweat!", nil, "Brooklyn")
	assert.Equal(t, a, b)
	assert.Len(t, a, 8)
}
