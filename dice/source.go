package dice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cbrugna/nyc-events/readthrough"
	"github.com/cbrugna/nyc-events/request"
)

// DefaultListingURL is dice.fm's New York DJ listing.
const DefaultListingURL = "https://dice.fm/browse/new-york/music/dj"

const defaultTimeout = 15 * time.Second

// A Source produces parsed pages for the scraper: the listing page, and one
// detail page per event. Implementations own fetching; the scraper only
// queries the returned documents.
type Source interface {
	Listing(ctx context.Context) (*goquery.Document, error)
	EventPage(ctx context.Context, url string) (*goquery.Document, error)
}

// NewSource returns a Source that fetches pages over HTTP with a per-request
// timeout. If cache is non-nil, detail pages are served through it.
func NewSource(listingURL string, cache *readthrough.ReadThrough, timeout time.Duration) Source {
	if listingURL == "" {
		listingURL = DefaultListingURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &httpSource{
		listingURL: listingURL,
		cache:      cache,
		client:     &http.Client{Timeout: timeout},
	}
}

type httpSource struct {
	listingURL string
	cache      *readthrough.ReadThrough
	client     *http.Client
}

func (src *httpSource) Listing(ctx context.Context) (*goquery.Document, error) {
	return request.FetchHTML(ctx, src.client, src.listingURL)
}

func (src *httpSource) EventPage(ctx context.Context, url string) (*goquery.Document, error) {
	if src.cache == nil {
		return request.FetchHTML(ctx, src.client, url)
	}

	if cached, _, err := src.cache.Get(url); err == nil {
		defer cached.Close()
		return goquery.NewDocumentFromReader(cached)
	} else if !errors.Is(err, readthrough.ErrMiss) {
		return nil, err
	}

	body, err := request.Fetch(ctx, src.client, url)
	if err != nil {
		return nil, err
	}

	cached, _, err := src.cache.Set(url, body)
	if err != nil {
		return nil, fmt.Errorf("error caching page '%s': %w", url, err)
	}
	defer cached.Close()

	return goquery.NewDocumentFromReader(cached)
}
