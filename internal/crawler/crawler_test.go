package crawler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/samvad-hq/mercury-reader/internal/domain"
	"github.com/samvad-hq/mercury-reader/pkg/mercury"
	"github.com/samvad-hq/mercury-reader/pkg/providers"
	"github.com/samvad-hq/mercury-reader/pkg/publishers"
)

type fakeFetcher struct {
	links []domain.Link
	err   error
}

func (f *fakeFetcher) ID() string { return "fake" }
func (f *fakeFetcher) Fetch(context.Context, providers.Provider) ([]domain.Link, error) {
	return f.links, f.err
}

type fakeRegistry struct {
	fetcher providers.Fetcher
}

func (f *fakeRegistry) FetcherFor(providers.Provider) (providers.Fetcher, error) {
	if f.fetcher == nil {
		return nil, errors.New("missing fetcher")
	}
	return f.fetcher, nil
}

// fakeParser returns an article per URL, or an error for URLs listed in fail.
type fakeParser struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeParser) Parse(_ context.Context, target string, _ ...mercury.ParseOption) (*mercury.Article, error) {
	f.mu.Lock()
	f.calls = append(f.calls, target)
	f.mu.Unlock()
	if err := f.fail[target]; err != nil {
		return nil, err
	}
	return &mercury.Article{URL: target, Content: "<p>body</p>", Excerpt: "x", Direction: mercury.LTR, TotalPages: 1, RenderedPages: 1}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishers.Event
	errFor string
	n      int
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if evt.Article.URL == f.errFor {
		return f.n, errors.New("sink down")
	}
	return 1, nil
}

type fakeStore struct {
	mu      sync.Mutex
	seen    map[string]bool
	failID  string
	failErr error
}

func (f *fakeStore) SeenLink(id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.failID {
		return false, f.failErr
	}
	return f.seen[id], nil
}

func (f *fakeStore) MarkLink(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	f.seen[id] = true
	return nil
}

type recordingFiller struct {
	mu    sync.Mutex
	calls int
}

func (r *recordingFiller) Fill(_ context.Context, _ providers.Provider, _ domain.Link, a *mercury.Article) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	img := "https://img.example/lead.png"
	a.LeadImageURL = &img
	return nil
}

func link(id string) domain.Link {
	return domain.Link{ID: id, URL: "https://news.example/" + id, Title: "title " + id}
}

var testProvider = providers.Provider{ID: "p1", Name: "Provider One", RequestDelayMs: 1}

func TestServicePublishesFreshLinksOnly(t *testing.T) {
	store := &fakeStore{seen: map[string]bool{"old": true}}
	parser := &fakeParser{}
	pub := &fakePublisher{}
	filler := &recordingFiller{}

	svc := NewService(&fakeRegistry{fetcher: &fakeFetcher{links: []domain.Link{link("old"), link("new")}}},
		parser, filler, pub, store, nil, Options{Concurrency: 2})

	if err := svc.Run(context.Background(), []providers.Provider{testProvider}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(parser.calls) != 1 || parser.calls[0] != "https://news.example/new" {
		t.Fatalf("expected only the fresh link parsed, got %v", parser.calls)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	evt := pub.events[0]
	if evt.ProviderID != "p1" || evt.ProviderName != "Provider One" || evt.LinkID != "new" {
		t.Fatalf("unexpected event metadata %+v", evt)
	}
	if evt.Article.Title != "title new" {
		t.Fatalf("expected sitemap title fallback, got %q", evt.Article.Title)
	}
	if evt.Article.LeadImageURL == nil || filler.calls != 1 {
		t.Fatalf("expected metadata filler to run once")
	}
	if evt.ID == "" || evt.CollectedAt.IsZero() {
		t.Fatalf("expected event id and timestamp")
	}
	if !store.seen["new"] {
		t.Fatalf("MarkLink not called for published link")
	}
}

func TestServiceCollectsParseAndPublishErrors(t *testing.T) {
	parser := &fakeParser{fail: map[string]error{
		"https://news.example/bad": &mercury.APIError{StatusCode: 502, Message: "upstream"},
	}}
	pub := &fakePublisher{errFor: "https://news.example/down"}
	store := &fakeStore{}

	svc := NewService(&fakeRegistry{fetcher: &fakeFetcher{links: []domain.Link{link("bad"), link("down"), link("ok")}}},
		parser, nil, pub, store, nil, Options{Concurrency: 3, RatePerSecond: 1000})

	err := svc.Run(context.Background(), []providers.Provider{testProvider})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if !strings.Contains(err.Error(), "news.example/bad") || !strings.Contains(err.Error(), "sink down") {
		t.Fatalf("error should name both failures: %v", err)
	}
	if !mercury.IsAPIError(err) {
		t.Fatalf("expected APIError to stay reachable through the join")
	}
	if !store.seen["ok"] || store.seen["bad"] || store.seen["down"] {
		t.Fatalf("only successfully published links should be marked: %#v", store.seen)
	}
}

func TestServiceMarksPartiallyPublishedLinks(t *testing.T) {
	pub := &fakePublisher{errFor: "https://news.example/half", n: 1}
	store := &fakeStore{}

	svc := NewService(&fakeRegistry{fetcher: &fakeFetcher{links: []domain.Link{link("half")}}},
		&fakeParser{}, nil, pub, store, nil, Options{})

	if err := svc.Run(context.Background(), []providers.Provider{testProvider}); err != nil {
		t.Fatalf("partial delivery should not fail the link: %v", err)
	}
	if !store.seen["half"] {
		t.Fatalf("expected partially delivered link to be marked")
	}
}

func TestFilterNewLinksKeepsLinksOnLookupError(t *testing.T) {
	store := &fakeStore{
		seen:    map[string]bool{"skip": true},
		failID:  "error",
		failErr: errors.New("lookup failed"),
	}
	svc := NewService(&fakeRegistry{}, &fakeParser{}, nil, &fakePublisher{}, store, nil, Options{})

	got := svc.filterNewLinks(testProvider, []domain.Link{link("keep"), link("skip"), link("error")})
	if len(got) != 2 || got[0].ID != "keep" || got[1].ID != "error" {
		t.Fatalf("unexpected filter result %#v", got)
	}
}

func TestServiceRunValidation(t *testing.T) {
	svc := NewService(&fakeRegistry{fetcher: &fakeFetcher{}}, &fakeParser{}, nil, &fakePublisher{}, nil, nil, Options{})
	if err := svc.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error when providers list empty")
	}

	var nilSvc *Service
	if err := nilSvc.Run(context.Background(), []providers.Provider{testProvider}); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestServiceRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	parser := &fakeParser{}
	svc := NewService(&fakeRegistry{fetcher: &fakeFetcher{links: []domain.Link{link("a")}}},
		parser, nil, &fakePublisher{}, nil, nil, Options{})
	if errs := svc.runAll(ctx, []providers.Provider{testProvider}); len(errs) != 0 {
		t.Fatalf("expected no errors on cancelled context, got %v", errs)
	}
	if len(parser.calls) != 0 {
		t.Fatalf("expected no parse calls after cancellation")
	}
}

func TestServiceFetchErrorIsReported(t *testing.T) {
	svc := NewService(&fakeRegistry{fetcher: &fakeFetcher{err: errors.New("sitemap 500")}},
		&fakeParser{}, nil, &fakePublisher{}, nil, nil, Options{})
	err := svc.Run(context.Background(), []providers.Provider{testProvider})
	if err == nil || !strings.Contains(err.Error(), "fetch provider p1") {
		t.Fatalf("expected fetch error, got %v", err)
	}
}
