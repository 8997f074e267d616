package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"dishprice-workers/internal/common/errors"
)

const maxBodyBytes = 8 << 20

// Options configures a client bound to one upstream source.
type Options struct {
	Source    string
	Timeout   time.Duration
	UserAgent string
	RateLimit float64 // requests per second, 0 disables limiting
	RateBurst int
}

type Client struct {
	httpClient *http.Client
	source     string
	userAgent  string
	limiter    *rate.Limiter
}

// NewSourceClient builds a client that sends the source's headers and
// respects its outbound rate limit.
func NewSourceClient(opts Options) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		source:    opts.Source,
		userAgent: opts.UserAgent,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// GetJSON performs a single GET and decodes the body into out. Transport
// failures and non-2xx statuses come back as TRANSIENT_NETWORK, undecodable
// bodies as MALFORMED_RESPONSE.
func (c *Client) GetJSON(ctx context.Context, url, operation string, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.NewTransientNetworkError(c.source, operation, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.NewTransientNetworkError(c.source, operation, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewTransientNetworkError(c.source, operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return errors.NewStatusError(c.source, operation, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return errors.NewTransientNetworkError(c.source, operation, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.NewMalformedResponseError(c.source, operation, fmt.Errorf("decode: %w", err))
	}
	return nil
}
