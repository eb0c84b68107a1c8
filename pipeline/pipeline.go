// Package pipeline drives one scraping run end to end: fetch the listing
// page, extract raw events, assemble them, enrich their lineups, and emit
// the finished records to the sink.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cbrugna/nyc-events/data"
	"github.com/cbrugna/nyc-events/dice"
	"github.com/rs/zerolog"
)

// State is where a run currently is. Failure of the run moves it to
// StateFailed from wherever it was; everything before Emitting is free of
// external side effects.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateExtracting
	StateResolving
	StateEnriching
	StateEmitting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateResolving:
		return "resolving"
	case StateEnriching:
		return "enriching"
	case StateEmitting:
		return "emitting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// An Extractor produces the listing page and the raw events on it. Listing
// failure is run-fatal; Events never fails, it just yields fewer events.
type Extractor interface {
	Listing(ctx context.Context) (*goquery.Document, error)
	Events(ctx context.Context, listing *goquery.Document) []dice.RawEvent
}

// An Enricher fills in Artist records for a lineup, in lineup order. It
// never fails; artists the catalog can't answer for come back without a
// profile.
type Enricher interface {
	EnrichAll(ctx context.Context, names []string) []data.Artist
}

// A Sink stores finalized events, upserting on Event.ID.
type Sink interface {
	UpsertEvent(ctx context.Context, event *data.Event) error
}

func New(extractor Extractor, enricher Enricher, sink Sink, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		enricher:  enricher,
		sink:      sink,
		log:       log,
		now:       time.Now,
	}
}

type Pipeline struct {
	extractor Extractor
	enricher  Enricher
	sink      Sink
	log       zerolog.Logger

	// now is the run's single clock, so every event in a batch resolves
	// dates against the same year
	now func() time.Time

	mu    sync.Mutex
	state State
}

// State reports where the run currently is.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	p.log.Info().Stringer("state", s).Msg("pipeline")
}

// Run executes one complete pass and returns the number of events emitted.
// Only two things fail a run: the listing page being unreachable, and the
// sink rejecting an upsert. Bad cards, missing lineups, and artists the
// catalog can't resolve all degrade the affected record and continue.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	emitted, err := p.run(ctx)
	if err != nil {
		p.setState(StateFailed)
		return emitted, err
	}
	p.setState(StateDone)
	return emitted, nil
}

func (p *Pipeline) run(ctx context.Context) (int, error) {
	p.setState(StateFetching)
	listing, err := p.extractor.Listing(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing page unreachable: %w", err)
	}

	p.setState(StateExtracting)
	raws := p.extractor.Events(ctx, listing)

	p.setState(StateResolving)
	now := p.now()
	events := make([]data.Event, len(raws))
	for i, raw := range raws {
		events[i] = Assemble(raw, now)
	}

	p.setState(StateEnriching)
	for i := range events {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		events[i].Artists = p.enricher.EnrichAll(ctx, events[i].Lineup)
	}

	p.setState(StateEmitting)
	for i := range events {
		if err := p.sink.UpsertEvent(ctx, &events[i]); err != nil {
			return i, fmt.Errorf("error emitting event '%s': %w", events[i].ID, err)
		}
		p.log.Info().
			Str("id", events[i].ID).
			Str("name", events[i].Name).
			Int("artists", len(events[i].Artists)).
			Msg("emitted event")
	}

	return len(events), nil
}
