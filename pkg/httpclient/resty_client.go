package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Option tweaks the underlying resty.Client.
type Option func(*resty.Client)

// WithUserAgent sets the User-Agent sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *resty.Client) {
		if ua != "" {
			c.SetHeader("User-Agent", ua)
		}
	}
}

// WithLogger routes resty's internal warnings and debug output to log.
// *zap.SugaredLogger satisfies resty.Logger.
func WithLogger(log resty.Logger) Option {
	return func(c *resty.Client) {
		if log != nil {
			c.SetLogger(log)
		}
	}
}

// redactedHeaders never appear in debug dumps.
var redactedHeaders = []string{"X-Api-Key", "Authorization"}

// WithDebug dumps requests and responses through the configured logger.
// Credential headers are masked in the dump; the request itself is untouched.
func WithDebug(enabled bool) Option {
	return func(c *resty.Client) {
		c.SetDebug(enabled)
		if enabled {
			c.OnRequestLog(redactRequestLog)
		}
	}
}

func redactRequestLog(rl *resty.RequestLog) error {
	for _, name := range redactedHeaders {
		if rl.Header.Get(name) != "" {
			rl.Header.Set(name, "[redacted]")
		}
	}
	return nil
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified timeout.
// A zero timeout leaves deadlines to the caller's context.
func NewRestyClient(timeout time.Duration, opts ...Option) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout, opts...)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration, opts ...Option) *resty.Client {
	return newRestyBaseClient(timeout, opts...)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration, opts ...Option) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
