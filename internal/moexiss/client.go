// Package moexiss is the sole gateway to the MOEX ISS public JSON API. It
// applies rate limiting, decodes the column-array "table" dialect into typed
// records, normalizes transport errors into the package's error taxonomy,
// and optionally caches idempotent reads.
package moexiss

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const maxRetryAttempts = 3

// Client talks to MOEX ISS over HTTP.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	limiter         *rate.Limiter
	timeout         time.Duration
	maxLookbackDays int
	defaultBoard    string
	cache           *issCache
	log             zerolog.Logger
}

// Config configures a new Client, mirroring the service's MOEX_ISS_* env vars.
type Config struct {
	BaseURL         string
	RateLimitRPS    float64
	TimeoutSeconds  int
	MaxLookbackDays int
	DefaultBoard    string
	EnableCache     bool
	CacheTTLSeconds int
	CacheMaxSize    int
}

// NewClient builds a Client. The rate limiter is a token bucket allowing at
// most cfg.RateLimitRPS acquisitions per second, shared by every concurrent
// caller — callers block in the limiter's Wait until a token is available.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/") + "/",
		httpClient:      &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		limiter:         rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1),
		timeout:         time.Duration(cfg.TimeoutSeconds) * time.Second,
		maxLookbackDays: cfg.MaxLookbackDays,
		defaultBoard:    cfg.DefaultBoard,
		log:             log.With().Str("component", "moex-iss").Logger(),
	}
	if cfg.EnableCache {
		c.cache = newIssCache(time.Duration(cfg.CacheTTLSeconds)*time.Second, cfg.CacheMaxSize)
	}
	return c
}

// CacheStats reports the current entry count of the idempotent-read cache,
// or (0, false) when caching is disabled.
func (c *Client) CacheStats() (int, bool) {
	if c.cache == nil {
		return 0, false
	}
	return c.cache.size(), true
}

// PurgeExpiredCache drops stale cache entries and returns how many were removed.
func (c *Client) PurgeExpiredCache() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.purgeExpired()
}

func cacheKey(op string, parts ...string) string {
	return op + "|" + strings.Join(parts, "|")
}

// get issues one rate-limited, retried GET to the ISS endpoint at path with
// query parameters q, returning the decoded top-level JSON object.
func (c *Client) get(ctx context.Context, op, path string, q url.Values) (map[string]json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	q.Set("iss.meta", "off")
	requestURL := c.baseURL + path + "?" + q.Encode()

	var lastErr error
	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		body, status, err := c.doOnce(ctx, requestURL)
		if err == nil {
			var result map[string]json.RawMessage
			if jsonErr := json.Unmarshal(body, &result); jsonErr != nil {
				return nil, &UnknownIssError{Op: op, Err: jsonErr}
			}
			return result, nil
		}

		if ctx.Err() != nil {
			return nil, &IssTimeoutError{Op: op, Err: ctx.Err()}
		}

		if status >= 500 {
			lastErr = &IssServerError{Op: op, StatusCode: status, Err: err}
			wait := time.Duration(1<<uint(attempt)) * 200 * time.Millisecond
			c.log.Warn().Str("op", op).Int("attempt", attempt+1).Dur("wait", wait).Msg("iss 5xx, retrying")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, &IssTimeoutError{Op: op, Err: ctx.Err()}
			}
			continue
		}

		if status >= 400 {
			// 4xx is not retried.
			return nil, &UnknownIssError{Op: op, Err: err}
		}

		// status == 0: a transport-level failure (connection refused/reset,
		// DNS, ...) rather than an HTTP error. ctx.Err() was already checked
		// above, so this is transient and retried like a 5xx. A call that hit
		// the http.Client timeout is reported as IssTimeoutError.
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			lastErr = &IssTimeoutError{Op: op, Err: err}
		} else {
			lastErr = &UnknownIssError{Op: op, Err: err}
		}
		wait := time.Duration(1<<uint(attempt)) * 200 * time.Millisecond
		c.log.Warn().Str("op", op).Int("attempt", attempt+1).Dur("wait", wait).Msg("iss transport error, retrying")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, &IssTimeoutError{Op: op, Err: ctx.Err()}
		}
	}

	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, requestURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; moex-risk-analytics/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("iss returned status %d", resp.StatusCode)
	}
	return body, resp.StatusCode, nil
}

// validateRange enforces the inclusive date-range invariant shared by every
// history-fetching operation.
func (c *Client) validateRange(fromDate, toDate string) error {
	from, err1 := time.Parse("2006-01-02", fromDate)
	to, err2 := time.Parse("2006-01-02", toDate)
	if err1 != nil || err2 != nil || to.Before(from) {
		return &DateRangeTooLargeError{FromDate: fromDate, ToDate: toDate, MaxDays: c.maxLookbackDays}
	}
	if days := int(to.Sub(from).Hours() / 24); days > c.maxLookbackDays {
		return &DateRangeTooLargeError{FromDate: fromDate, ToDate: toDate, MaxDays: c.maxLookbackDays}
	}
	return nil
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func parseISSTime(layouts []string, s string) (time.Time, bool) {
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
