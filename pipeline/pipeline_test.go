package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cbrugna/nyc-events/data"
	"github.com/cbrugna/nyc-events/dice"
	"github.com/cbrugna/nyc-events/enrich"
	"github.com/cbrugna/nyc-events/pipeline"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	raws       []dice.RawEvent
	listingErr error
}

func (x *fakeExtractor) Listing(context.Context) (*goquery.Document, error) {
	if x.listingErr != nil {
		return nil, x.listingErr
	}
	return goquery.NewDocumentFromReader(strings.NewReader("<html></html>"))
}

func (x *fakeExtractor) Events(context.Context, *goquery.Document) []dice.RawEvent {
	return x.raws
}

type fakeEnricher struct{ failFor string }

func (e *fakeEnricher) EnrichAll(_ context.Context, names []string) []data.Artist {
	artists := make([]data.Artist, len(names))
	for i, name := range names {
		if name == e.failFor {
			artists[i] = data.Artist{Name: name, Popularity: -1, ProfileURL: enrich.SearchURL(name)}
			continue
		}
		artists[i] = data.Artist{Name: name, SpotifyID: "id-" + name, HasProfile: true, Popularity: 10}
	}
	return artists
}

type fakeSink struct {
	events []data.Event
	err    error
}

func (s *fakeSink) UpsertEvent(_ context.Context, event *data.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, *event)
	return nil
}

func rawEvent(name string) dice.RawEvent {
	return dice.RawEvent{
		Name:       name,
		DateText:   "Thu, Jun 8",
		Location:   "Elsewhere",
		Price:      "From $20",
		SourceLink: "https://dice.fm/event/" + name,
		LineupText: "Artist A, Artist B, Artist C and 5 more",
	}
}

func TestRun(t *testing.T) {
	sink := &fakeSink{}
	p := pipeline.New(
		&fakeExtractor{raws: []dice.RawEvent{rawEvent("one"), rawEvent("two")}},
		&fakeEnricher{},
		sink,
		zerolog.Nop(),
	)

	emitted, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, emitted)
	assert.Equal(t, pipeline.StateDone, p.State())

	require.Len(t, sink.events, 2)
	for _, event := range sink.events {
		assert.Len(t, event.Lineup, 3)
		assert.Len(t, event.Artists, 3)
		assert.NotEmpty(t, event.ID)
		assert.True(t, event.Date.Valid)
	}
	assert.NotEqual(t, sink.events[0].ID, sink.events[1].ID)
}

func TestRunListingFailureIsFatal(t *testing.T) {
	p := pipeline.New(
		&fakeExtractor{listingErr: errors.New("unreachable")},
		&fakeEnricher{},
		&fakeSink{},
		zerolog.Nop(),
	)

	_, err := p.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, pipeline.StateFailed, p.State())
}

func TestRunEnrichmentFailureIsLocalToArtist(t *testing.T) {
	sink := &fakeSink{}
	p := pipeline.New(
		&fakeExtractor{raws: []dice.RawEvent{rawEvent("one")}},
		&fakeEnricher{failFor: "Artist B"},
		sink,
		zerolog.Nop(),
	)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	artists := sink.events[0].Artists
	require.Len(t, artists, 3)
	assert.True(t, artists[0].HasProfile)
	assert.False(t, artists[1].HasProfile)
	assert.True(t, artists[2].HasProfile)
}

func TestRunEmptyListing(t *testing.T) {
	sink := &fakeSink{}
	p := pipeline.New(&fakeExtractor{}, &fakeEnricher{}, sink, zerolog.Nop())

	emitted, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, emitted)
	assert.Equal(t, pipeline.StateDone, p.State())
	assert.Empty(t, sink.events)
}

func TestRunSinkFailure(t *testing.T) {
	p := pipeline.New(
		&fakeExtractor{raws: []dice.RawEvent{rawEvent("one")}},
		&fakeEnricher{},
		&fakeSink{err: errors.New("disk full")},
		zerolog.Nop(),
	)

	_, err := p.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, pipeline.StateFailed, p.State())
}

func TestAssemble(t *testing.T) {
	now := time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)

	event := pipeline.Assemble(rawEvent("one"), now)

	assert.Equal(t, "one", event.Name)
	assert.Equal(t, "Thu, Jun 8", event.DateText)
	require.True(t, event.Date.Valid)
	assert.Equal(t, time.Date(2023, time.June, 8, 0, 0, 0, 0, time.UTC), event.Date.Time)
	assert.Equal(t, []string{"Artist A", "Artist B", "Artist C"}, event.Lineup)
	assert.Len(t, event.ID, 8)
}

func TestAssembleIDIgnoresPriceLinkImage(t *testing.T) {
	now := time.Now()

	a := rawEvent("one")
	b := rawEvent("one")
	b.Price = "From $999"
	b.SourceLink = "https://elsewhere"
	b.ImageURL = "https://other-image"

	assert.Equal(t, pipeline.Assemble(a, now).ID, pipeline.Assemble(b, now).ID)
}

func TestAssembleUnparseableDate(t *testing.T) {
	raw := rawEvent("one")
	raw.DateText = "sometime soon"

	event := pipeline.Assemble(raw, time.Now())

	assert.False(t, event.Date.Valid)
	assert.Len(t, event.ID, 8)

	// same inputs, same id, even without a date
	again := pipeline.Assemble(raw, time.Now())
	assert.Equal(t, event.ID, again.ID)
}
