package mercury

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultEndpoint is the hosted Mercury parser endpoint.
	DefaultEndpoint = "https://mercury.postlight.com/parser"

	// HeaderAPIKey carries the API key on every request.
	HeaderAPIKey = "x-api-key"
)

// Request is a fully formed outbound request, independent of any HTTP library.
type Request struct {
	Method string
	URL    string
	Header map[string]string
}

// BuildRequest assembles the GET request for target. It performs no I/O.
func BuildRequest(endpoint, apiKey, target string, opts ParseOptions) (Request, error) {
	base, err := parseEndpoint(endpoint)
	if err != nil {
		return Request{}, err
	}
	if err := validateTarget(target); err != nil {
		return Request{}, err
	}
	if err := opts.Validate(); err != nil {
		return Request{}, err
	}

	q := base.Query()
	for key, vals := range opts.query() {
		q[key] = append(q[key], vals...)
	}
	q.Set(paramURL, strings.TrimSpace(target))
	base.RawQuery = q.Encode()

	return Request{
		Method: http.MethodGet,
		URL:    base.String(),
		Header: map[string]string{
			HeaderAPIKey: apiKey,
			"Accept":     "application/json",
		},
	}, nil
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, &ConfigError{Field: "endpoint", Reason: "endpoint is empty"}
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, &ConfigError{Field: "endpoint", Reason: "endpoint does not parse", Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &ConfigError{Field: "endpoint", Reason: "endpoint must be an absolute http(s) url"}
	}
	return u, nil
}

func validateTarget(target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return &ConfigError{Field: "url", Reason: "target url is empty"}
	}
	u, err := url.Parse(target)
	if err != nil {
		return &ConfigError{Field: "url", Reason: "target url does not parse", Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigError{Field: "url", Reason: "target url must be an absolute http(s) url"}
	}
	return nil
}
