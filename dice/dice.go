// Package dice extracts raw event fields from dice.fm's listing markup.
// It only pulls strings out of pages; parsing and enrichment happen
// elsewhere, so a markup change touches nothing but this package.
package dice

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Selectors for dice.fm's generated class names. These track the site's
// styled-components build and are the first thing to check when extraction
// starts coming up empty.
const (
	eventCardSelector = "div.EventCard__Event-sc-95ckmb-1"
	titleSelector     = "div.styles__Title-mwubo3-6"
	dateSelector      = "div.styles__Date-mwubo3-8"
	venueSelector     = "div.styles__Venue-mwubo3-7"
	priceSelector     = "div.styles__Price-mwubo3-9"
	linkSelector      = "a.styles__EventCardLink-mwubo3-5"
	imageSelector     = "img.styles__Image-mwubo3-3"
	lineupSelector    = "div.EventDetailsLineup__ArtistTitle-gmffoe-10"
)

// A RawEvent holds the unparsed field strings for one event card, exactly
// as they appear on the page.
type RawEvent struct {
	Name       string
	DateText   string
	Location   string
	Price      string
	SourceLink string
	ImageURL   string

	// from the event's detail page; empty when the page has no lineup
	// or couldn't be fetched
	LineupText string
}

func NewScraper(src Source, fetchWorkers int, log zerolog.Logger) *Scraper {
	if fetchWorkers <= 0 {
		fetchWorkers = 4
	}
	return &Scraper{
		src:          src,
		fetchWorkers: fetchWorkers,
		log:          log,
	}
}

type Scraper struct {
	src          Source
	fetchWorkers int
	log          zerolog.Logger
}

// Extract fetches the listing page and returns the raw fields of every
// well-formed event card on it. A malformed card is logged and skipped; the
// rest of the batch continues. Failure to fetch the listing page itself is
// fatal: there is nothing to salvage without it.
func (s *Scraper) Extract(ctx context.Context) ([]RawEvent, error) {
	doc, err := s.Listing(ctx)
	if err != nil {
		return nil, err
	}
	return s.Events(ctx, doc), nil
}

// Listing fetches and parses the listing page.
func (s *Scraper) Listing(ctx context.Context) (*goquery.Document, error) {
	doc, err := s.src.Listing(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching listing page: %w", err)
	}
	return doc, nil
}

// Events extracts the raw fields of every well-formed event card on the
// listing page. A malformed card is logged and skipped.
//
// Each event's lineup lives on its detail page; those are fetched through a
// bounded worker pool, and a failure there just leaves that one event
// without a lineup.
func (s *Scraper) Events(ctx context.Context, doc *goquery.Document) []RawEvent {
	var raws []RawEvent
	doc.Find(eventCardSelector).Each(func(i int, sel *goquery.Selection) {
		raw, err := eventElement{sel}.RawEvent()
		if err != nil {
			s.log.Warn().Int("card", i).Err(err).Msg("skipping malformed event card")
			return
		}
		raws = append(raws, raw)
	})
	s.log.Info().Int("events", len(raws)).Msg("extracted listing page")

	g := new(errgroup.Group)
	g.SetLimit(s.fetchWorkers)
	for i := range raws {
		i := i
		g.Go(func() error {
			raws[i].LineupText = s.lineup(ctx, raws[i].SourceLink)
			return nil
		})
	}
	g.Wait()

	return raws
}

func (s *Scraper) lineup(ctx context.Context, url string) string {
	if url == "" {
		return ""
	}

	doc, err := s.src.EventPage(ctx, url)
	if err != nil {
		s.log.Warn().Str("url", url).Err(err).Msg("couldn't fetch event page; continuing without a lineup")
		return ""
	}

	return strings.TrimSpace(doc.Find(lineupSelector).First().Text())
}

// An eventElement is the div for a single event card on the listing page.
// It has methods for looking into that div and extracting information.
type eventElement struct{ *goquery.Selection }

func (el eventElement) RawEvent() (RawEvent, error) {
	var raw RawEvent
	var err error
	if raw.Name, err = el.text(titleSelector); err != nil {
		return raw, err
	}
	if raw.DateText, err = el.text(dateSelector); err != nil {
		return raw, err
	}
	if raw.Location, err = el.text(venueSelector); err != nil {
		return raw, err
	}
	if raw.Price, err = el.text(priceSelector); err != nil {
		return raw, err
	}
	if raw.SourceLink, err = el.attr(linkSelector, "href"); err != nil {
		return raw, err
	}
	if raw.ImageURL, err = el.attr(imageSelector, "src"); err != nil {
		return raw, err
	}
	return raw, nil
}

func (el eventElement) text(selector string) (string, error) {
	target := el.Find(selector)
	if target.Length() == 0 {
		return "", fmt.Errorf("event card has no '%s' element", selector)
	}
	return strings.TrimSpace(target.First().Text()), nil
}

func (el eventElement) attr(selector, name string) (string, error) {
	target := el.Find(selector)
	if target.Length() == 0 {
		return "", fmt.Errorf("event card has no '%s' element", selector)
	}
	value, found := target.First().Attr(name)
	if !found {
		return "", fmt.Errorf("event card '%s' element has no %s attribute", selector, name)
	}
	return value, nil
}
