package mercury

import (
	"fmt"
	"net/url"
	"strings"
)

// ContentType selects the format the service renders Article.Content in.
type ContentType string

const (
	ContentTypeHTML     ContentType = "html"
	ContentTypeMarkdown ContentType = "markdown"
	ContentTypeText     ContentType = "text"
)

// ParseContentType normalizes s into a known ContentType. An empty string maps to
// the zero value, which leaves the choice to the service.
func ParseContentType(s string) (ContentType, error) {
	ct := ContentType(strings.ToLower(strings.TrimSpace(s)))
	switch ct {
	case "", ContentTypeHTML, ContentTypeMarkdown, ContentTypeText:
		return ct, nil
	default:
		return "", &ConfigError{Field: "format", Reason: fmt.Sprintf("unsupported content type %q", s)}
	}
}

const (
	paramURL           = "url"
	paramContentType   = "content_type"
	paramFetchAllPages = "fetch_all_pages"
)

// ParseOptions tunes a single parse call. The zero value uses server defaults.
type ParseOptions struct {
	// Format is the requested content type; empty omits the parameter.
	Format ContentType
	// FetchAllPages asks the service to merge multi-page articles; nil omits the parameter.
	FetchAllPages *bool
	// Params carries extra query parameters the service understands but this
	// package does not model. They may not override the target url.
	Params url.Values
}

// ParseOption mutates ParseOptions.
type ParseOption func(*ParseOptions)

// WithFormat requests content in the given format.
func WithFormat(ct ContentType) ParseOption {
	return func(o *ParseOptions) { o.Format = ct }
}

// WithOutputType is an alias for WithFormat.
func WithOutputType(ct ContentType) ParseOption {
	return WithFormat(ct)
}

// WithFetchAllPages toggles multi-page merging on the service side.
func WithFetchAllPages(enabled bool) ParseOption {
	return func(o *ParseOptions) { o.FetchAllPages = &enabled }
}

// WithParam adds a raw query parameter.
func WithParam(key, value string) ParseOption {
	return func(o *ParseOptions) {
		if o.Params == nil {
			o.Params = url.Values{}
		}
		o.Params.Add(key, value)
	}
}

// NewParseOptions folds opts into a ParseOptions value.
func NewParseOptions(opts ...ParseOption) ParseOptions {
	var o ParseOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Validate checks the options without touching the network.
func (o ParseOptions) Validate() error {
	if _, err := ParseContentType(string(o.Format)); err != nil {
		return err
	}
	for key := range o.Params {
		if strings.EqualFold(strings.TrimSpace(key), paramURL) {
			return &ConfigError{Field: "params", Reason: "the url parameter is set from the parse target"}
		}
		if strings.TrimSpace(key) == "" {
			return &ConfigError{Field: "params", Reason: "empty parameter name"}
		}
	}
	return nil
}

// query renders the options as query parameters.
func (o ParseOptions) query() url.Values {
	q := url.Values{}
	for key, vals := range o.Params {
		for _, v := range vals {
			q.Add(strings.TrimSpace(key), v)
		}
	}
	if ct, err := ParseContentType(string(o.Format)); err == nil && ct != "" {
		q.Set(paramContentType, string(ct))
	}
	if o.FetchAllPages != nil {
		q.Set(paramFetchAllPages, fmt.Sprintf("%t", *o.FetchAllPages))
	}
	return q
}
