// Package newsapi provides a client for the NewsAPI "everything" search.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the NewsAPI operations.
type Client interface {
	// Everything searches all indexed articles matching q.
	Everything(ctx context.Context, q Query) (*Response, error)
}

// Query holds the /v2/everything parameters the tracker uses.
type Query struct {
	Q        string
	From     time.Time
	Language string
	SortBy   string
	PageSize int
}

// Response is the parsed search response.
type Response struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// Article is a single search hit.
type Article struct {
	Source      Source    `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Content     string    `json:"content"`
}

// Source names the publication.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Error is a non-200 response. Code and Message come from the error body
// when NewsAPI sent one.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("newsapi: status %d", e.StatusCode)
	}
	return fmt.Sprintf("newsapi: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// Option configures the NewsAPI client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a NewsAPI client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://newsapi.org",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Everything(ctx context.Context, q Query) (*Response, error) {
	params := url.Values{}
	params.Set("q", q.Q)
	if !q.From.IsZero() {
		params.Set("from", q.From.UTC().Format(time.DateOnly))
	}
	if q.Language != "" {
		params.Set("language", q.Language)
	}
	if q.SortBy != "" {
		params.Set("sortBy", q.SortBy)
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "newsapi: create request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "newsapi: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, eris.Wrap(err, "newsapi: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &Error{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		return nil, apiErr
	}

	var result Response
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "newsapi: unmarshal response")
	}
	if result.Status != "ok" {
		return nil, &Error{StatusCode: resp.StatusCode, Code: "status", Message: result.Status}
	}
	return &result, nil
}
