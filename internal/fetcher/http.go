package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/meeting-tracker/internal/resilience"
)

// maxBodyBytes caps any single download.
const maxBodyBytes = 10 << 20

// HTTPOptions configures the HTTP client shared by feed and page fetches.
type HTTPOptions struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// RetryBackoff is the delay before the first retry.
	RetryBackoff time.Duration
	// HostRate is the steady per-host request rate.
	HostRate rate.Limit
}

// AdaptiveLimiter wraps a rate.Limiter that halves its rate after a 429
// (down to a quarter of the initial rate) and recovers by 20% per success
// (up to twice the initial rate).
type AdaptiveLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	initial rate.Limit
	current rate.Limit
}

// NewAdaptiveLimiter creates an adaptive rate limiter.
func NewAdaptiveLimiter(initial rate.Limit, burst int) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		limiter: rate.NewLimiter(initial, burst),
		initial: initial,
		current: initial,
	}
}

// Wait blocks until the limiter allows a request.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess raises the rate.
func (a *AdaptiveLimiter) OnSuccess() {
	a.set(min(a.Limit()*1.2, a.initial*2))
}

// OnRateLimit lowers the rate.
func (a *AdaptiveLimiter) OnRateLimit() {
	lim := max(a.Limit()*0.5, a.initial/4)
	a.set(lim)
	zap.L().Warn("fetcher: rate limited, slowing host", zap.Float64("rate", float64(lim)))
}

// Limit returns the current rate.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

func (a *AdaptiveLimiter) set(l rate.Limit) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = l
	a.limiter.SetLimit(l)
}

// HTTPClient downloads feeds and article pages with per-host rate limiting
// and retries on transient failures.
type HTTPClient struct {
	client *http.Client
	opts   HTTPOptions

	mu       sync.Mutex
	limiters map[string]*AdaptiveLimiter
}

// NewHTTPClient creates an HTTPClient with the given options.
func NewHTTPClient(opts HTTPOptions) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "meeting-tracker/1.0"
	}
	if opts.HostRate <= 0 {
		opts.HostRate = 2
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		limiters: make(map[string]*AdaptiveLimiter),
	}
}

func (c *HTTPClient) limiterFor(u *url.URL) *AdaptiveLimiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[u.Host]
	if !ok {
		lim = NewAdaptiveLimiter(c.opts.HostRate, 2)
		c.limiters[u.Host] = lim
	}
	return lim
}

// Get fetches rawURL and returns the response body. Non-2xx responses are
// returned as *resilience.StatusError.
func (c *HTTPClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, eris.Errorf("fetcher: invalid url %q", rawURL)
	}
	lim := c.limiterFor(u)

	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = c.opts.MaxRetries + 1
	if c.opts.RetryBackoff > 0 {
		cfg.InitialBackoff = c.opts.RetryBackoff
	}
	cfg.OnRetry = resilience.LogRetry(u.Host)

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		if err := lim.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limiter wait")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: create request")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: get %s", u.Host)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode == http.StatusTooManyRequests {
			lim.OnRateLimit()
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &resilience.StatusError{Service: u.Host, StatusCode: resp.StatusCode}
		}
		lim.OnSuccess()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: read %s", u.Host)
		}
		return body, nil
	})
}
