package providers

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/mercury-reader/internal/domain"
	"github.com/samvad-hq/mercury-reader/pkg/httpclient"
)

// HashURL derives the stable link ID used for de-duplication.
func HashURL(u string) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(u)))
	return hex.EncodeToString(sum[:])
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

type googleNewsSitemap struct {
	URLs []googleNewsURL `xml:"url"`
}

type googleNewsURL struct {
	Loc  string `xml:"loc"`
	News struct {
		PublicationDate string `xml:"publication_date"`
		Title           string `xml:"title"`
		Keywords        string `xml:"keywords"`
	} `xml:"news"`
}

type sitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// parseSitemapIndex returns the child sitemap locations, or an error when data is not an index.
func parseSitemapIndex(data []byte) ([]string, error) {
	var idx sitemapIndex
	if err := xml.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(idx.Sitemaps))
	for _, sm := range idx.Sitemaps {
		if loc := strings.TrimSpace(sm.Loc); loc != "" {
			out = append(out, loc)
		}
	}
	return out, nil
}

func parseGoogleNewsSitemap(data []byte) ([]googleNewsURL, error) {
	var sitemap googleNewsSitemap
	if err := xml.Unmarshal(data, &sitemap); err != nil {
		return nil, err
	}
	return sitemap.URLs, nil
}

func buildLinksFromSitemap(providerID string, urls []googleNewsURL) []domain.Link {
	links := make([]domain.Link, 0, len(urls))
	for _, entry := range urls {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}

		links = append(links, domain.Link{
			ID:          HashURL(loc),
			ProviderID:  providerID,
			URL:         loc,
			Title:       strings.TrimSpace(entry.News.Title),
			PublishedAt: parsePublicationDate(entry.News.PublicationDate),
			Keywords:    splitKeywords(entry.News.Keywords),
		})
	}
	return links
}

func parsePublicationDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z0700", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func splitKeywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fetchSitemap(ctx context.Context, client httpclient.Client, url, providerID string, headers map[string]string) ([]byte, error) {
	resp, err := client.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s sitemap: %w", providerID, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s sitemap returned status %d body: %s", providerID, resp.StatusCode(), responseSnippet(body))
	}

	return body, nil
}
