package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"librarian/internal/services"
)

// DefaultBaseURL is the public OMDb endpoint.
const DefaultBaseURL = "http://www.omdbapi.com/"

const (
	defaultTimeout = 8 * time.Second
	defaultRetries = 2
	defaultBackoff = 250 * time.Millisecond
)

// SearchItem is one entry of an OMDb search response.
type SearchItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
}

// SearchResponse models the OMDb s= response envelope.
type SearchResponse struct {
	Search   []SearchItem `json:"Search"`
	Response string       `json:"Response"`
	Error    string       `json:"Error"`
}

// OK reports whether OMDb marked the response as successful.
func (r *SearchResponse) OK() bool {
	return r != nil && r.Response == "True"
}

// Detail models the OMDb t= and i= response envelope.
type Detail struct {
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	ImdbID   string `json:"imdbID"`
	Type     string `json:"Type"`
	Plot     string `json:"Plot"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// OK reports whether OMDb marked the response as successful.
func (d *Detail) OK() bool {
	return d != nil && d.Response == "True"
}

// Lookup defines the OMDb operations the resolver depends on.
type Lookup interface {
	Search(ctx context.Context, term string) (*SearchResponse, error)
	ByTitle(ctx context.Context, title string) (*Detail, error)
	ByID(ctx context.Context, imdbID string) (*Detail, error)
}

// Client provides access to the OMDb API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retries    int
	backoff    time.Duration
	sleep      func(time.Duration)
}

var _ Lookup = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the OMDb endpoint (primarily for tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		baseURL = strings.TrimSpace(baseURL)
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithRetryPolicy overrides the bounded retry schedule.
func WithRetryPolicy(retries int, backoff time.Duration) Option {
	return func(c *Client) {
		if retries >= 0 {
			c.retries = retries
		}
		if backoff >= 0 {
			c.backoff = backoff
		}
	}
}

// New creates an OMDb client.
func New(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(DefaultBaseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		retries:    defaultRetries,
		backoff:    defaultBackoff,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search runs an s= movie search.
func (c *Client) Search(ctx context.Context, term string) (*SearchResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.New("search term must not be empty")
	}
	params := url.Values{}
	params.Set("s", term)
	params.Set("type", "movie")

	var payload SearchResponse
	if err := c.getJSON(ctx, params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ByTitle runs a t= exact-title lookup.
func (c *Client) ByTitle(ctx context.Context, title string) (*Detail, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title must not be empty")
	}
	params := url.Values{}
	params.Set("t", title)
	params.Set("type", "movie")
	params.Set("plot", "short")

	var payload Detail
	if err := c.getJSON(ctx, params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ByID fetches full details for an IMDb id.
func (c *Client) ByID(ctx context.Context, imdbID string) (*Detail, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, errors.New("imdb id must not be empty")
	}
	params := url.Values{}
	params.Set("i", imdbID)
	params.Set("plot", "short")

	var payload Detail
	if err := c.getJSON(ctx, params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// getJSON issues the request with bounded retry and exponential backoff.
// The api key is attached here so it never appears at call sites.
func (c *Client) getJSON(ctx context.Context, params url.Values, out any) error {
	params.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "/?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := c.backoff * (1 << (attempt - 1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			c.sleep(delay)
		}
		lastErr = c.doOnce(ctx, endpoint, out)
		if lastErr == nil {
			return nil
		}
	}
	return services.Wrap(services.ErrTransient, "omdb", "request",
		fmt.Sprintf("after %d attempts", c.retries+1), lastErr)
}

func (c *Client) doOnce(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("omdb returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode omdb response: %w", err)
	}
	return nil
}
