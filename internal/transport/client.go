// Package transport implements the HTTP clients for the transportation
// providers tripwise aggregates: flight offers, rail journeys, and bus
// trips. All methods are context-aware, share a single rate limiter so
// provider quotas are respected across modes, and retry on transient
// errors (429, 5xx).
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const maxRetries = 4

// Default provider endpoints. Overridable for testing and for users pointing
// at sandbox environments.
const (
	DefaultFlightsBaseURL = "https://api.amadeus.com/v2/"
	DefaultTrainsBaseURL  = "https://api.sncf.com/v1/"
	DefaultBusesBaseURL   = "https://flixbus.p.rapidapi.com/v1/"
)

// Options configures a Client. Empty credentials disable the corresponding
// provider: its search methods return no offers and the aggregator records
// a warning instead of failing the whole search.
type Options struct {
	FlightsAPIKey string
	TrainsAPIKey  string
	BusesAPIKey   string

	FlightsBaseURL string
	TrainsBaseURL  string
	BusesBaseURL   string

	Timeout    time.Duration
	RatePerSec float64
	MaxResults int // per provider, per search
	Debug      bool
}

// Client is the shared provider HTTP client. A single rate limiter covers
// all three providers, so at most one network search runs at a time with a
// minimum spacing between requests.
type Client struct {
	opts       Options
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Client from opts, applying defaults for anything unset.
func NewClient(opts Options) *Client {
	if opts.FlightsBaseURL == "" {
		opts.FlightsBaseURL = DefaultFlightsBaseURL
	}
	if opts.TrainsBaseURL == "" {
		opts.TrainsBaseURL = DefaultTrainsBaseURL
	}
	if opts.BusesBaseURL == "" {
		opts.BusesBaseURL = DefaultBusesBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 2.0
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 3
	}
	return &Client{
		opts: opts,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		// Burst of 1: never more than one in-flight search, regardless of
		// how far behind the bucket is.
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
	}
}

// HasFlights reports whether flight search credentials are configured.
func (c *Client) HasFlights() bool { return c.opts.FlightsAPIKey != "" }

// HasTrains reports whether train search credentials are configured.
func (c *Client) HasTrains() bool { return c.opts.TrainsAPIKey != "" }

// HasBuses reports whether bus search credentials are configured.
func (c *Client) HasBuses() bool { return c.opts.BusesAPIKey != "" }

// ─── Low-level HTTP ───────────────────────────────────────────────────────────

// getJSON performs a GET against baseURL+endpoint, handling rate limiting,
// retries with exponential backoff, and JSON decoding into out. headers are
// applied to every attempt; the API key header value is redacted in debug
// logs.
func (c *Client) getJSON(ctx context.Context, baseURL, endpoint string, params url.Values, headers map[string]string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	if c.opts.Debug {
		slog.Debug("provider request", "url", redact(reqURL, c.opts.FlightsAPIKey, c.opts.TrainsAPIKey, c.opts.BusesAPIKey))
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))*500) * time.Millisecond
			slog.Debug("retrying after backoff", "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "tripwise/1.0")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading body: %w", err)
			continue
		}

		if c.opts.Debug {
			slog.Debug("provider response", "status", resp.StatusCode, "bytes", len(body))
		}

		// Retry on server errors and rate limiting
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var apiErr struct {
				Error   string `json:"error"`
				Message string `json:"message"`
			}
			_ = json.Unmarshal(body, &apiErr)
			if apiErr.Message != "" {
				return fmt.Errorf("API error: %s", apiErr.Message)
			}
			if apiErr.Error != "" {
				return fmt.Errorf("API error: %s", apiErr.Error)
			}
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}

// redact replaces any of the given secrets in s with a placeholder.
func redact(s string, secrets ...string) string {
	for _, secret := range secrets {
		if secret != "" {
			s = strings.Replace(s, secret, "REDACTED", 1)
		}
	}
	return s
}
