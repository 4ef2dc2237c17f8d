// Package mercury is a client for the hosted Mercury web parser API.
//
// A Client holds an API key and an HTTP execution context and turns a page URL
// into an Article with exactly one authenticated GET request. It never retries
// and never caches; callers own deadlines through the context they pass in.
package mercury

import (
	"context"
	"strings"
	"time"

	"github.com/samvad-hq/mercury-reader/pkg/httpclient"
)

// Client issues parse requests. It is immutable after NewClient and safe for concurrent use.
type Client struct {
	http      httpclient.Client
	apiKey    string
	endpoint  string
	userAgent string
	log       Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides DefaultEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = strings.TrimSpace(endpoint) }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log Logger) Option {
	return func(c *Client) { c.log = ensureLogger(log) }
}

// WithUserAgent sets a User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = strings.TrimSpace(ua) }
}

// NewClient builds a client that sends requests through hc. A nil hc selects a
// resty-backed client without an internal timeout.
func NewClient(hc httpclient.Client, apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, &ConfigError{Field: "api_key", Reason: "api key is required", Err: ErrMissingAPIKey}
	}
	if hc == nil {
		hc = httpclient.NewRestyClient(0)
	}

	c := &Client{
		http:     hc,
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		log:      NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if _, err := parseEndpoint(c.endpoint); err != nil {
		return nil, err
	}
	return c, nil
}

// Endpoint returns the parser endpoint requests are sent to.
func (c *Client) Endpoint() string { return c.endpoint }

// Parse fetches target through the service and decodes the result.
func (c *Client) Parse(ctx context.Context, target string, opts ...ParseOption) (*Article, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := BuildRequest(c.endpoint, c.apiKey, target, NewParseOptions(opts...))
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header["User-Agent"] = c.userAgent
	}

	start := time.Now()
	resp, err := c.http.Get(ctx, req.URL, req.Header)
	if err != nil {
		c.log.WarnObj("mercury request failed", "mercury_transport_error", map[string]any{
			"target": target,
			"error":  err.Error(),
		})
		return nil, &TransportError{URL: target, Err: err}
	}

	article, err := Decode(resp.StatusCode(), resp.Body())
	c.log.DebugObj("mercury response received", "mercury_response", map[string]any{
		"target":     target,
		"status":     resp.StatusCode(),
		"elapsed_ms": time.Since(start).Milliseconds(),
		"ok":         err == nil,
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

// Result is the outcome of an asynchronous parse.
type Result struct {
	Article *Article
	Err     error
}

// ParseAsync runs Parse in its own goroutine. The returned channel is buffered and
// receives exactly one Result, so abandoning it does not leak the goroutine.
func (c *Client) ParseAsync(ctx context.Context, target string, opts ...ParseOption) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		article, err := c.Parse(ctx, target, opts...)
		out <- Result{Article: article, Err: err}
	}()
	return out
}
