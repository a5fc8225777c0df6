package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/jon4hz/symlinkarr/internal/config"
	"github.com/jon4hz/symlinkarr/internal/metadata"
	"golang.org/x/time/rate"
)

const (
	idPrefix = "tt"

	// error messages of responses with "Response": "False"
	errMovieNotFound   = "Movie not found!"
	errIncorrectID     = "Incorrect IMDb ID."
	errTooManyResults  = "Too many results."
	notAvailable       = "N/A"
	responseFalse      = "False"
	defaultHTTPTimeout = 10 * time.Second
)

var (
	yearPattern        = regexp.MustCompile(`\d{4}`)
	trailingYearSuffix = regexp.MustCompile(`^(.+?)\s+(\d{4})$`)
)

// Client is an OMDb API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

var _ metadata.Service = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the http client used for requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBackOff sets the backoff policy between retries.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = newBackOff
	}
}

// New creates a new OMDb API client.
func New(cfg *config.MetadataConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: cfg.MaxRetries,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type response struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

type searchItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
}

type searchResponse struct {
	response
	Search []searchItem `json:"Search"`
}

type titleResponse struct {
	response
	Title   string `json:"Title"`
	Year    string `json:"Year"`
	Genre   string `json:"Genre"`
	Country string `json:"Country"`
	ImdbID  string `json:"imdbID"`
	Type    string `json:"Type"`
}

// SearchByTitle searches titles. A trailing four digit year in query is sent as year filter;
// if that yields nothing, the full query is searched as title.
func (c *Client) SearchByTitle(ctx context.Context, query string) ([]metadata.SearchResult, error) {
	query = strings.TrimSpace(query)
	if m := trailingYearSuffix.FindStringSubmatch(query); m != nil {
		results, err := c.search(ctx, m[1], m[2])
		if err != nil || len(results) > 0 {
			return results, err
		}
	}
	return c.search(ctx, query, "")
}

func (c *Client) search(ctx context.Context, title, year string) ([]metadata.SearchResult, error) {
	params := url.Values{}
	params.Set("s", title)
	if year != "" {
		params.Set("y", year)
	}

	var resp searchResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}
	if resp.Response == responseFalse {
		switch resp.Error {
		case errMovieNotFound, errTooManyResults:
			return nil, nil
		default:
			return nil, fmt.Errorf("search %q failed: %s", title, resp.Error)
		}
	}

	results := make([]metadata.SearchResult, 0, len(resp.Search))
	for _, item := range resp.Search {
		results = append(results, metadata.SearchResult{
			ID:             strings.TrimPrefix(item.ImdbID, idPrefix),
			Classification: item.Type,
		})
	}
	return results, nil
}

// FetchByID fetches the title with the numeric IMDb id.
func (c *Client) FetchByID(ctx context.Context, id string) (*metadata.Title, error) {
	params := url.Values{}
	params.Set("i", idPrefix+strings.TrimPrefix(id, idPrefix))

	var resp titleResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}
	if resp.Response == responseFalse {
		if resp.Error == errIncorrectID || resp.Error == errMovieNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch %q failed: %s", id, resp.Error)
	}

	return &metadata.Title{
		ID:             strings.TrimPrefix(resp.ImdbID, idPrefix),
		Title:          resp.Title,
		Year:           parseYear(resp.Year),
		Classification: resp.Type,
		Genres:         splitList(resp.Genre),
		Countries:      splitList(resp.Country),
	}, nil
}

// parseYear returns the first year of values like "1999" or "2011–2019".
func parseYear(s string) int {
	y, err := strconv.Atoi(yearPattern.FindString(s))
	if err != nil {
		return 0
	}
	return y
}

func splitList(s string) []string {
	if s == "" || s == notAvailable {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// get performs a rate limited GET request and decodes the response into out.
// Transport errors, 429 and 5xx responses are retried.
func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	params.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "/?" + params.Encode()

	attempt := 0
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("error creating request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Debug("omdb request failed", "attempt", attempt, "error", err)
			return fmt.Errorf("error performing request: %w", err)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			bodyBytes, _ := io.ReadAll(resp.Body)
			err := fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				log.Debug("omdb request failed", "attempt", attempt, "status", resp.StatusCode)
				return err
			}
			return backoff.Permanent(err)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("error decoding response: %w", err))
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	return backoff.Retry(operation, b)
}
