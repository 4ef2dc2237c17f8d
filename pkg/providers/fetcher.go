package providers

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/mercury-reader/pkg/httpclient"
)

const (
	ProviderTypeGoogleNews = "google_news_sitemap"

	defaultUserAgent = "mercury-reader/1.0 (+sitemap)"
)

// fetcherRegistry implements FetcherRegistry. A fetcher registered for a provider id
// wins over one registered for the provider's type.
type fetcherRegistry struct {
	mu     sync.RWMutex
	byID   map[string]Fetcher
	byType map[string]Fetcher
}

// NewFetcherRegistry builds a registry with type-level fetchers plus optional provider-specific ones.
func NewFetcherRegistry(typeFetchers map[string]Fetcher, fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		byID:   make(map[string]Fetcher),
		byType: make(map[string]Fetcher),
	}
	for typ, f := range typeFetchers {
		reg.register(reg.byType, typ, f)
	}
	for _, f := range fetchers {
		if f != nil {
			reg.register(reg.byID, f.ID(), f)
		}
	}
	return reg
}

func (r *fetcherRegistry) register(into map[string]Fetcher, key string, f Fetcher) {
	key = normalizeKey(key)
	if key == "" || f == nil {
		return
	}
	r.mu.Lock()
	into[key] = f
	r.mu.Unlock()
}

// FetcherFor selects the fetcher for the given provider based on its id or type.
func (r *fetcherRegistry) FetcherFor(cfg Provider) (Fetcher, error) {
	if r == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}
	id := normalizeKey(cfg.ID)
	if id == "" {
		return nil, fmt.Errorf("provider id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.byID[id]; ok {
		return f, nil
	}
	if f, ok := r.byType[normalizeKey(cfg.Type)]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("no fetcher registered for provider %q (type %q)", cfg.ID, cfg.Type)
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DefaultHTTPClient returns a resty-backed client tuned for sitemap fetches.
func DefaultHTTPClient() HTTPClient {
	return httpclient.NewRestyClient(15*time.Second, httpclient.WithUserAgent(defaultUserAgent))
}

// DefaultFetcherRegistry wires up known provider fetchers.
func DefaultFetcherRegistry(client HTTPClient) FetcherRegistry {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return NewFetcherRegistry(map[string]Fetcher{
		ProviderTypeGoogleNews: NewGoogleNewsFetcher(client),
	})
}
