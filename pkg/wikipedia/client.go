// Package wikipedia provides a client for the MediaWiki action API.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the MediaWiki operations used for biographical lookups.
type Client interface {
	// Search returns the title of the best matching page, or "" if none.
	Search(ctx context.Context, query string) (string, error)
	// Page fetches the plain-text intro extract and canonical URL for title.
	// It returns nil, nil if the page does not exist.
	Page(ctx context.Context, title string) (*Page, error)
	// Lookup combines Search and Page. It returns nil, nil if nothing matches.
	Lookup(ctx context.Context, name string) (*Page, error)
}

// Page is the subset of page data we keep.
type Page struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	URL     string `json:"fullurl"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom api.php URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithUserAgent sets the User-Agent header MediaWiki requires.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithMaxAttempts sets how many times a transient failure is tried.
func WithMaxAttempts(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithInitialBackoff sets the delay before the first retry.
func WithInitialBackoff(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.backoff = d
		}
	}
}

type httpClient struct {
	baseURL     string
	userAgent   string
	http        *http.Client
	maxAttempts int
	backoff     time.Duration
}

// NewClient creates a new MediaWiki client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:     "https://en.wikipedia.org/w/api.php",
		userAgent:   "roster-graph/1.0 (entity resolution)",
		maxAttempts: 3,
		backoff:     time.Second,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError reports a non-200 response after retries.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wikipedia: unexpected status %d: %s", e.StatusCode, e.Body)
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}

// retryDo executes a GET with exponential backoff on network errors and
// retryable statuses.
func (c *httpClient) retryDo(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()
	backoff := c.backoff

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "wikipedia: create request")
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err == nil {
			body, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				err = eris.Wrap(readErr, "wikipedia: read response body")
			case resp.StatusCode == http.StatusOK:
				return body, nil
			case retryableStatusCode(resp.StatusCode):
				err = &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
			default:
				return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
			}
		}
		lastErr = err

		if attempt < c.maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, eris.Wrapf(lastErr, "wikipedia: request failed after %d attempts", c.maxAttempts)
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

func (c *httpClient) Search(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"action":        {"query"},
		"list":          {"search"},
		"srsearch":      {query},
		"srlimit":       {"1"},
		"format":        {"json"},
		"formatversion": {"2"},
	}
	body, err := c.retryDo(ctx, params)
	if err != nil {
		return "", err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", eris.Wrap(err, "wikipedia: unmarshal search response")
	}
	if len(resp.Query.Search) == 0 {
		return "", nil
	}
	return resp.Query.Search[0].Title, nil
}

type pageResponse struct {
	Query struct {
		Pages []struct {
			Title   string `json:"title"`
			Missing bool   `json:"missing"`
			Extract string `json:"extract"`
			FullURL string `json:"fullurl"`
		} `json:"pages"`
	} `json:"query"`
}

func (c *httpClient) Page(ctx context.Context, title string) (*Page, error) {
	params := url.Values{
		"action":        {"query"},
		"prop":          {"extracts|info"},
		"titles":        {title},
		"exintro":       {"1"},
		"explaintext":   {"1"},
		"inprop":        {"url"},
		"redirects":     {"1"},
		"format":        {"json"},
		"formatversion": {"2"},
	}
	body, err := c.retryDo(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp pageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "wikipedia: unmarshal page response")
	}
	if len(resp.Query.Pages) == 0 || resp.Query.Pages[0].Missing {
		return nil, nil
	}
	p := resp.Query.Pages[0]
	return &Page{
		Title:   p.Title,
		Extract: strings.TrimSpace(p.Extract),
		URL:     p.FullURL,
	}, nil
}

func (c *httpClient) Lookup(ctx context.Context, name string) (*Page, error) {
	title, err := c.Search(ctx, name)
	if err != nil {
		return nil, eris.Wrapf(err, "wikipedia: search %q", name)
	}
	if title == "" {
		return nil, nil
	}
	page, err := c.Page(ctx, title)
	if err != nil {
		return nil, eris.Wrapf(err, "wikipedia: page %q", title)
	}
	return page, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
