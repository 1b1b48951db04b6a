package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Fetcher defaults.
const (
	DefaultFetchTimeout = 30 * time.Second
	DefaultFetchRate    = 10
	DefaultFetchRetries = 3
	DefaultRetryDelay   = time.Second
	DefaultMaxBodyBytes = 20 << 20
	DefaultUserAgent    = "Helixir-AuthorReconciliation/1.0"

	maxRetryDelay      = time.Minute
	discardedBodyLimit = 1 << 20
)

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	// Timeout bounds one HTTP exchange.
	Timeout time.Duration

	// RateLimit is the sustained requests per second sent to the provider.
	RateLimit float64

	// BurstSize is the token bucket size; it defaults to the rounded-up rate.
	BurstSize int

	// MaxRetries is the retry budget for 429 and for 5xx other than 503.
	MaxRetries int

	// RetryDelay is the first backoff step. It doubles per attempt unless
	// the provider sends Retry-After.
	RetryDelay time.Duration

	// MaxBodyBytes caps how much of a successful body is read.
	MaxBodyBytes int64

	// UserAgent is sent on every request.
	UserAgent string

	// Headers are added to every request, e.g. an API key.
	Headers map[string]string
}

func (c *FetcherConfig) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = DefaultFetchTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultFetchRate
	}
	if c.BurstSize == 0 {
		c.BurstSize = max(1, int(c.RateLimit+0.999))
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultFetchRetries
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
}

// Document is one fetched provider response. Body is only read for 2xx
// statuses.
type Document struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (d *Document) OK() bool {
	return d != nil && d.StatusCode >= 200 && d.StatusCode < 300
}

// Fetcher issues rate-limited GETs against one provider. It is safe for
// concurrent use.
//
// Failed statuses come back as a Document with a nil error, so a 503 stays
// visible to the verifier. Only transport failures and cancellation are
// errors.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	config  FetcherConfig
}

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	cfg.applyDefaults()
	return &Fetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.BurstSize),
		config:  cfg,
	}
}

// Get fetches rawURL with the given Accept header.
func (f *Fetcher) Get(ctx context.Context, rawURL, accept string) (*Document, error) {
	for attempt := 0; ; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}

		doc, hint, err := f.once(ctx, rawURL, accept)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt >= f.config.MaxRetries {
				return nil, err
			}
		} else if !retryable(doc.StatusCode) || attempt >= f.config.MaxRetries {
			return doc, nil
		}

		delay := f.backoff(attempt)
		if hint > 0 {
			delay = hint
		}
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// once performs a single exchange. For retryable statuses it also returns
// the provider's Retry-After hint.
func (f *Fetcher) once(ctx context.Context, rawURL, accept string) (*Document, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	for k, v := range f.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	doc := &Document{StatusCode: resp.StatusCode}
	if !doc.OK() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, discardedBodyLimit))
		return doc, retryAfter(resp.Header.Get("Retry-After")), nil
	}

	doc.Body, err = io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	return doc, 0, nil
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	d := f.config.RetryDelay << attempt
	if d <= 0 || d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}

// retryable is true for 429 and 5xx other than 503. A 503 means the provider
// refuses the whole run, which the verifier handles.
func retryable(status int) bool {
	switch {
	case status == http.StatusTooManyRequests:
		return true
	case status == http.StatusServiceUnavailable:
		return false
	default:
		return status >= 500 && status < 600
	}
}

// retryAfter parses a Retry-After header in seconds or HTTP-date form.
func retryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs <= 0 {
			return 0
		}
		return min(time.Duration(secs)*time.Second, maxRetryDelay)
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return min(d, maxRetryDelay)
		}
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
