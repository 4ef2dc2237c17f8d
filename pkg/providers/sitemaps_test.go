package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/mercury-reader/internal/domain"
	"github.com/samvad-hq/mercury-reader/pkg/httpclient"
)

type fakeResponse struct {
	body       []byte
	statusCode int
}

func (f fakeResponse) Body() []byte    { return f.body }
func (f fakeResponse) StatusCode() int { return f.statusCode }

// fakeHTTPClient returns canned responses per URL to avoid network calls.
type fakeHTTPClient struct {
	responses map[string]fakeResponse
	calls     []string
	headers   []map[string]string
}

func (f *fakeHTTPClient) Get(_ context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	f.calls = append(f.calls, url)
	f.headers = append(f.headers, headers)
	resp, ok := f.responses[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return resp, nil
}

const leafXML = `
<urlset xmlns:news="http://www.google.com/schemas/sitemap-news/0.9">
  <url>
    <loc>https://example.com/a</loc>
    <news:news>
      <news:publication_date>2024-01-01T00:00:00Z</news:publication_date>
      <news:keywords>foo, bar</news:keywords>
      <news:title>Hello</news:title>
    </news:news>
  </url>
  <url><loc>https://example.com/b</loc></url>
  <url><loc>   </loc></url>
</urlset>`

func TestBuildLinksFromSitemap(t *testing.T) {
	entries, err := parseGoogleNewsSitemap([]byte(leafXML))
	if err != nil {
		t.Fatalf("parseGoogleNewsSitemap: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 url entries, got %d", len(entries))
	}

	links := buildLinksFromSitemap("provider-x", entries)
	if len(links) != 2 {
		t.Fatalf("expected 2 links after filtering empty loc, got %d", len(links))
	}

	l := links[0]
	if l.ProviderID != "provider-x" {
		t.Errorf("ProviderID = %s want provider-x", l.ProviderID)
	}
	if l.Title != "Hello" {
		t.Errorf("Title = %s want Hello", l.Title)
	}
	if !l.PublishedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("PublishedAt = %v", l.PublishedAt)
	}
	if len(l.Keywords) != 2 || l.Keywords[0] != "foo" || l.Keywords[1] != "bar" {
		t.Errorf("Keywords = %#v", l.Keywords)
	}
	if l.ID != HashURL("https://example.com/a") {
		t.Errorf("expected hashed ID, got %q", l.ID)
	}
}

func TestFetchFollowsSitemapIndex(t *testing.T) {
	indexXML := `
<sitemapindex>
  <sitemap><loc>https://example.com/leaf.xml</loc></sitemap>
  <sitemap><loc> </loc></sitemap>
  <sitemap><loc>https://example.com/root.xml</loc></sitemap>
</sitemapindex>`

	client := &fakeHTTPClient{responses: map[string]fakeResponse{
		"https://example.com/root.xml": {body: []byte(indexXML), statusCode: http.StatusOK},
		"https://example.com/leaf.xml": {body: []byte(leafXML), statusCode: http.StatusOK},
	}}

	fetcher := NewGoogleNewsFetcher(client)
	links, err := fetcher.Fetch(context.Background(), Provider{
		ID:        "p1",
		Type:      ProviderTypeGoogleNews,
		SourceURL: "https://example.com/root.xml",
		MaxLinks:  1,
		Config:    map[string]any{ConfigUserAgentKey: "bot"},
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(links) != 1 || links[0].URL != "https://example.com/a" {
		t.Fatalf("unexpected links: %#v", links)
	}
	if len(client.calls) != 2 {
		t.Fatalf("expected index + leaf calls (cycle skipped), got %v", client.calls)
	}
	if client.headers[0]["User-Agent"] != "bot" {
		t.Fatalf("expected provider user agent header, got %#v", client.headers[0])
	}
}

func TestFetchRejectsWrongType(t *testing.T) {
	fetcher := NewGoogleNewsFetcher(&fakeHTTPClient{})
	_, err := fetcher.Fetch(context.Background(), Provider{ID: "x", Type: "rss", SourceURL: "https://x"})
	if err == nil || !strings.Contains(err.Error(), "incompatible provider type") {
		t.Fatalf("expected type error, got %v", err)
	}
}

func TestFetchSitemapHandlesNon200(t *testing.T) {
	client := &fakeHTTPClient{responses: map[string]fakeResponse{
		"https://example.com/root.xml": {body: []byte("oops"), statusCode: http.StatusBadRequest},
	}}

	_, err := fetchSitemap(context.Background(), client, "https://example.com/root.xml", "p1", nil)
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestFetcherRegistryPrefersID(t *testing.T) {
	byType := NewGoogleNewsFetcher(&fakeHTTPClient{})
	custom := &namedFetcher{id: "special"}
	reg := NewFetcherRegistry(map[string]Fetcher{ProviderTypeGoogleNews: byType}, custom)

	f, err := reg.FetcherFor(Provider{ID: "Special", Type: ProviderTypeGoogleNews})
	if err != nil || f != custom {
		t.Fatalf("expected id fetcher, got %v %v", f, err)
	}
	f, err = reg.FetcherFor(Provider{ID: "other", Type: ProviderTypeGoogleNews})
	if err != nil || f != byType {
		t.Fatalf("expected type fetcher, got %v %v", f, err)
	}
	if _, err := reg.FetcherFor(Provider{ID: "other", Type: "rss"}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestParseHelpers(t *testing.T) {
	if kw := splitKeywords(" a, b , ,c "); len(kw) != 3 || kw[0] != "a" || kw[2] != "c" {
		t.Errorf("splitKeywords = %#v", kw)
	}
	if kw := splitKeywords("   "); kw != nil {
		t.Errorf("expected nil keywords on blank input")
	}
	if tm := parsePublicationDate("not-a-date"); !tm.IsZero() {
		t.Errorf("expected zero time on invalid input, got %v", tm)
	}
	if tm := parsePublicationDate("2024-03-05"); tm.Day() != 5 {
		t.Errorf("expected date-only layout to parse, got %v", tm)
	}
	if s := responseSnippet([]byte("   ")); s != "<empty>" {
		t.Errorf("expected blank body placeholder, got %q", s)
	}
	if s := responseSnippet([]byte(strings.Repeat("x", 600))); len(s) != 515 {
		t.Errorf("expected truncated snippet, got len %d", len(s))
	}
}

type namedFetcher struct{ id string }

func (n *namedFetcher) ID() string { return n.id }
func (n *namedFetcher) Fetch(context.Context, Provider) ([]domain.Link, error) {
	return nil, nil
}
