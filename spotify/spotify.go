// Package spotify is a client for the parts of the Spotify Web API the
// enrichment pipeline needs: artist search, top tracks, track titles,
// genres, popularity, and profile URLs.
package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cbrugna/nyc-events/limiter"
	"github.com/cbrugna/nyc-events/request"
	"github.com/rs/zerolog"
)

const nextReqFilename = "next-req"

// ErrNotFound is returned by FindArtistID when the catalog has no artist
// matching the given name. It is distinct from a lookup failure: not-found
// is an answer, a failure is the absence of one.
var ErrNotFound = errors.New("no matching artist")

// New creates a new Spotify client, with the given clientID and
// clientSecret. The client owns its access token, refreshing it when it
// expires or when the API answers 401.
func New(clientID, clientSecret string, log zerolog.Logger) *Client {
	lim := limiter.New(nextReqFilename, time.Second/10, log)
	if err := lim.Load(); err != nil {
		log.Warn().Err(err).Msg("couldn't restore rate limiter state")
	}

	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      "https://api.spotify.com/v1",
		accountsURL:  "https://accounts.spotify.com/api/token",
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		lim:          lim,
		log:          log,
	}
}

type Client struct {
	mu sync.Mutex

	clientID     string
	clientSecret string

	baseURL     string
	accountsURL string
	httpClient  *http.Client
	lim         *limiter.Limiter
	log         zerolog.Logger

	accessToken string
	expiresAt   time.Time
}

// FindArtistID searches the catalog for an artist with exactly the given
// name, ignoring case. Only the first page of search results is considered,
// and the first match wins; there is no fuzzy matching. Returns ErrNotFound
// when the page has no match.
func (spo *Client) FindArtistID(ctx context.Context, name string) (string, error) {
	query := url.Values{}
	query.Add("q", name)
	query.Add("type", "artist")
	query.Add("limit", "50")

	resp, err := spo.get(ctx, "/search", query)
	if err != nil {
		return "", err
	}

	defer resp.Close()
	var results artistSearchPage
	dec := json.NewDecoder(resp)
	if err := dec.Decode(&results); err != nil {
		return "", fmt.Errorf("artist search decode error: %w", err)
	}

	for _, item := range results.Artists.Items {
		if strings.EqualFold(item.Name, name) {
			return item.ID, nil
		}
	}

	return "", fmt.Errorf("artist '%s': %w", name, ErrNotFound)
}

type artistSearchPage struct {
	Artists struct {
		Items []struct {
			ID   string
			Name string
		}
	}
}

// TopTrackIDs returns the IDs of the artist's top tracks, most popular
// first.
func (spo *Client) TopTrackIDs(ctx context.Context, artistID string) ([]string, error) {
	query := url.Values{}
	query.Add("market", "US")

	resp, err := spo.get(ctx, fmt.Sprintf("/artists/%s/top-tracks", artistID), query)
	if err != nil {
		return nil, err
	}

	defer resp.Close()
	var results topTracksResults
	dec := json.NewDecoder(resp)
	if err := dec.Decode(&results); err != nil {
		return nil, fmt.Errorf("top tracks decode error: %w", err)
	}

	ids := make([]string, len(results.Tracks))
	for i, track := range results.Tracks {
		ids[i] = track.ID
	}
	return ids, nil
}

type topTracksResults struct {
	Tracks []struct {
		ID string
	}
}

// TrackTitles returns the titles for the given track IDs, positionally
// aligned with the input.
func (spo *Client) TrackTitles(ctx context.Context, trackIDs []string) ([]string, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Add("ids", strings.Join(trackIDs, ","))

	resp, err := spo.get(ctx, "/tracks", query)
	if err != nil {
		return nil, err
	}

	defer resp.Close()
	var results severalTracksResults
	dec := json.NewDecoder(resp)
	if err := dec.Decode(&results); err != nil {
		return nil, fmt.Errorf("track titles decode error: %w", err)
	}

	titles := make([]string, len(results.Tracks))
	for i, track := range results.Tracks {
		titles[i] = track.Name
	}
	return titles, nil
}

type severalTracksResults struct {
	Tracks []struct {
		Name string
	}
}

// Genres returns the artist's genre list in the catalog's order.
func (spo *Client) Genres(ctx context.Context, artistID string) ([]string, error) {
	artist, err := spo.fetchArtist(ctx, artistID)
	if err != nil {
		return nil, err
	}
	return artist.Genres, nil
}

// Popularity returns the artist's popularity score, in [0, 100].
func (spo *Client) Popularity(ctx context.Context, artistID string) (int, error) {
	artist, err := spo.fetchArtist(ctx, artistID)
	if err != nil {
		return -1, err
	}
	return artist.Popularity, nil
}

// ProfileURL returns the URL of the artist's Spotify page.
func (spo *Client) ProfileURL(ctx context.Context, artistID string) (string, error) {
	artist, err := spo.fetchArtist(ctx, artistID)
	if err != nil {
		return "", err
	}
	return artist.ExternalURLs.Spotify, nil
}

type artistResult struct {
	Genres       []string
	Popularity   int
	ExternalURLs struct {
		Spotify string
	} `json:"external_urls"`
}

func (spo *Client) fetchArtist(ctx context.Context, artistID string) (*artistResult, error) {
	resp, err := spo.get(ctx, fmt.Sprintf("/artists/%s", artistID), nil)
	if err != nil {
		return nil, err
	}

	defer resp.Close()
	var result artistResult
	dec := json.NewDecoder(resp)
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("artist decode error: %w", err)
	}

	return &result, nil
}

// get performs one authenticated GET against the API, honoring the rate
// limiter. On 429 it records the Retry-After penalty and retries; on 401 it
// refreshes the access token once and retries. Requests are serialized:
// the API rate limit applies per client, not per call site.
func (spo *Client) get(ctx context.Context, path string, query url.Values) (io.ReadCloser, error) {
	spo.mu.Lock()
	defer spo.mu.Unlock()

	refreshed := false

retry:
	if err := spo.lim.Wait(ctx); err != nil {
		return nil, err
	}

	url, err := url.Parse(spo.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	url.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}

	token, err := spo.token()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", token)

	resp, err := spo.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized && !refreshed:
		resp.Body.Close()
		spo.accessToken = ""
		refreshed = true
		goto retry

	case resp.StatusCode == http.StatusTooManyRequests:
		resp.Body.Close()
		retryAfter := resp.Header.Get("Retry-After")
		if retryAfter == "" {
			spo.log.Warn().Msg("no retry-after header on 429; retrying in 1 minute")
		} else {
			spo.log.Warn().Str("retry_after", retryAfter).Msg("429 from api")
		}
		if err := spo.lim.SetNextAt(retryAfter); err != nil {
			return nil, err
		}
		goto retry
	}

	if err := request.Error(resp); err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch error: %w", err)
	}

	spo.lim.Delay()

	return resp.Body, nil
}

type tokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (spo *Client) token() (string, error) {
	if spo.accessToken == "" || spo.expiresAt.Before(time.Now().Add(time.Second)) {
		if err := spo.fetchToken(); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Bearer %s", spo.accessToken), nil
}

func (spo *Client) fetchToken() error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequest(http.MethodPost, spo.accountsURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("token request error: %w", err)
	}
	up := fmt.Sprintf("%s:%s", spo.clientID, spo.clientSecret)
	credential := base64.StdEncoding.EncodeToString([]byte(up))
	req.Header.Set("Authorization", fmt.Sprintf("Basic %s", credential))
	req.Header.Set("Content-type", "application/x-www-form-urlencoded")

	requestAt := time.Now()
	resp, err := spo.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request error: %w", err)
	}
	defer resp.Body.Close()
	if err := request.Error(resp); err != nil {
		return fmt.Errorf("token fetch error: %w", err)
	}

	var result tokenResult
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&result); err != nil {
		return fmt.Errorf("token decode error: %w", err)
	}

	spo.accessToken = result.AccessToken
	spo.expiresAt = requestAt.Add(time.Duration(result.ExpiresIn) * time.Second)

	return nil
}
