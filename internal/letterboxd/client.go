// Package letterboxd fetches public Letterboxd watchlists by scraping the
// paginated watchlist pages of a profile.
package letterboxd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/acahill/boxdbot/internal/config"
	"github.com/acahill/boxdbot/internal/metrics"
)

const DEFAULT_URL = "https://letterboxd.com"

// ErrUserNotFound means the username has no watchlist page at all, as
// opposed to having an empty one.
var ErrUserNotFound = errors.New("user not found")

// FetchError covers transport failures and unexpected response statuses
// other than not-found.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching watchlist page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError means a page came back 200 but did not look like a watchlist
// page. A well-formed page with zero entries is not a ParseError; that is
// how the end of the list is signaled.
type ParseError struct {
	Page int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing watchlist page %d: %v", e.Page, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type Client struct {
	HTTPClient http.Client
	BaseURL    string
	Limiter    *rate.Limiter
}

// NewClient builds a client whose limiter allows one request per configured
// fetch delay. The limiter is shared across all fetches through this client,
// so the delay holds between pages of one user, between users of one command
// invocation, and across concurrent invocations.
func NewClient(cfg config.Config) *Client {
	baseURL := cfg.Letterboxd.BaseURL
	if baseURL == "" {
		baseURL = DEFAULT_URL
	}
	return &Client{
		HTTPClient: http.Client{Timeout: cfg.Letterboxd.Timeout},
		BaseURL:    baseURL,
		Limiter:    rate.NewLimiter(rate.Every(cfg.Letterboxd.FetchDelay), 1),
	}
}

// Fetch returns the user's complete watchlist in site order, walking
// successive pages until one has no entries or no next-page link. Titles are
// returned exactly as published, duplicates and all.
func (c *Client) Fetch(ctx context.Context, username string) ([]string, error) {
	username = strings.TrimPrefix(username, "@")
	if username == "" {
		return nil, ErrUserNotFound
	}

	var watchlist []string
	for page := 1; ; page++ {
		titles, hasNext, err := c.fetchPage(ctx, username, page)
		if err != nil {
			return nil, err
		}
		if len(titles) == 0 {
			break
		}
		watchlist = append(watchlist, titles...)
		if !hasNext {
			break
		}
	}
	return watchlist, nil
}

func (c *Client) fetchPage(ctx context.Context, username string, page int) ([]string, bool, error) {
	url := fmt.Sprintf("%s/%s/watchlist/", c.BaseURL, username)
	if page > 1 {
		url = fmt.Sprintf("%s/%s/watchlist/page/%d/", c.BaseURL, username, page)
	}

	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("error creating http request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		metrics.LetterboxdRequests.WithLabelValues("error").Inc()
		return nil, false, &FetchError{Page: page, Err: err}
	}
	defer resp.Body.Close()
	metrics.LetterboxdRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrUserNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, false, &FetchError{Page: page, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, false, &ParseError{Page: page, Err: err}
	}

	titles, err := extractTitles(doc)
	if err != nil {
		return nil, false, &ParseError{Page: page, Err: err}
	}

	hasNext := doc.Find("a.next").Length() > 0
	return titles, hasNext, nil
}

// extractTitles pulls titles from the film poster grid. Poster img alt text
// carries the film title. A page with the content container but no posters
// is a legitimate empty page; a page missing the container entirely means
// the markup is not what we expect.
func extractTitles(doc *goquery.Document) ([]string, error) {
	var titles []string
	doc.Find("div.film-poster img").Each(func(_ int, sel *goquery.Selection) {
		if alt, ok := sel.Attr("alt"); ok && alt != "" {
			titles = append(titles, alt)
		}
	})

	if len(titles) == 0 && doc.Find("div#content").Length() == 0 {
		return nil, errors.New("unrecognized page structure")
	}
	return titles, nil
}
