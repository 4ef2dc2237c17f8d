package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/samvad-hq/mercury-reader/internal/domain"
)

// googleNewsFetcher implements Fetcher for Google News sitemap providers.
type googleNewsFetcher struct {
	client HTTPClient
}

func NewGoogleNewsFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &googleNewsFetcher{client: client}
}

func (f *googleNewsFetcher) ID() string {
	return ProviderTypeGoogleNews
}

func (f *googleNewsFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.Link, error) {
	if !strings.EqualFold(cfg.Type, ProviderTypeGoogleNews) {
		return nil, fmt.Errorf("google news fetcher received incompatible provider type %q", cfg.Type)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return nil, fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}

	urls, err := f.fetchGoogleNewsURLs(ctx, cfg, cfg.SourceURL, Headers(cfg), map[string]struct{}{})
	if err != nil {
		return nil, err
	}
	links := buildLinksFromSitemap(cfg.ID, urls)
	if len(links) == 0 {
		return nil, fmt.Errorf("%s sitemap returned no records", cfg.ID)
	}
	if limit := cfg.MaxLinks; limit > 0 && len(links) > limit {
		links = links[:limit]
	}
	return links, nil
}

// fetchGoogleNewsURLs loads a sitemap and, when it is an index, recurses into its children.
// visited guards against index cycles.
func (f *googleNewsFetcher) fetchGoogleNewsURLs(ctx context.Context, cfg Provider, sitemapURL string, headers map[string]string, visited map[string]struct{}) ([]googleNewsURL, error) {
	if visited == nil {
		visited = map[string]struct{}{}
	}
	if _, seen := visited[sitemapURL]; seen {
		return nil, nil
	}
	visited[sitemapURL] = struct{}{}

	raw, err := fetchSitemap(ctx, f.client, sitemapURL, cfg.ID, headers)
	if err != nil {
		return nil, err
	}

	if children, err := parseSitemapIndex(raw); err == nil {
		var all []googleNewsURL
		for _, child := range children {
			urls, err := f.fetchGoogleNewsURLs(ctx, cfg, child, headers, visited)
			if err != nil {
				return nil, err
			}
			all = append(all, urls...)
		}
		return all, nil
	}

	urls, err := parseGoogleNewsSitemap(raw)
	if err != nil {
		return nil, fmt.Errorf("decode google news sitemap: %w", err)
	}
	return urls, nil
}
