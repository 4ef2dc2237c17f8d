package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/samvad-hq/mercury-reader/internal/domain"
	"github.com/samvad-hq/mercury-reader/pkg/httpclient"
	"github.com/samvad-hq/mercury-reader/pkg/mercury"
	"github.com/samvad-hq/mercury-reader/pkg/providers"
)

const maxHTMLBodyBytes = 1 << 20 // 1 MiB

// Scraper fetches the article page itself and fills fields the parser left empty,
// preferring OpenGraph/meta tags and falling back to a local readability pass.
type Scraper struct {
	client httpclient.Client
}

// NewScraper constructs a scraper with the provided HTTP client (or default).
func NewScraper(client httpclient.Client) *Scraper {
	if client == nil {
		client = providers.DefaultHTTPClient()
	}
	return &Scraper{client: client}
}

// Fill only touches empty fields; parser output always wins.
func (s *Scraper) Fill(ctx context.Context, cfg providers.Provider, link domain.Link, article *mercury.Article) error {
	if article == nil {
		return nil
	}
	target := firstNonEmpty(article.URL, link.URL)

	resp, err := s.client.Get(ctx, target, providers.Headers(cfg))
	if err != nil {
		return fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("status %d fetching %s", resp.StatusCode(), target)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}
	meta, err := parseMeta(body, target)
	if err != nil {
		return err
	}

	if article.Title == "" {
		article.Title = meta.Title
	}
	if article.Excerpt == "" {
		article.Excerpt = meta.Description
	}
	if article.Author == nil && meta.Author != "" {
		author := meta.Author
		article.Author = &author
	}
	if article.LeadImageURL == nil {
		if img := resolveURL(meta.ImageURL, target); img != "" {
			article.LeadImageURL = &img
		}
	}
	return nil
}

type pageMeta struct {
	Title       string
	Description string
	ImageURL    string
	Author      string
}

func parseMeta(body []byte, pageURL string) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	content := func(sel string) string {
		val, _ := doc.Find(sel).First().Attr("content")
		return strings.TrimSpace(val)
	}

	// readability failures only cost the fallback values
	var extracted readability.Article
	if u, err := url.Parse(pageURL); err == nil {
		extracted, _ = readability.FromReader(bytes.NewReader(body), u)
	}

	return pageMeta{
		Title: firstNonEmpty(
			content(`meta[property="og:title"]`),
			content(`meta[name="twitter:title"]`),
			extracted.Title,
			doc.Find("title").First().Text(),
		),
		Description: firstNonEmpty(
			content(`meta[property="og:description"]`),
			content(`meta[name="description"]`),
			extracted.Excerpt,
		),
		ImageURL: firstNonEmpty(
			content(`meta[property="og:image"]`),
			content(`meta[name="twitter:image"]`),
			extracted.Image,
		),
		Author: firstNonEmpty(
			content(`meta[name="author"]`),
			extracted.Byline,
		),
	}, nil
}

// resolveURL makes ref absolute against base. Unparseable input yields "".
func resolveURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return b.ResolveReference(r).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
