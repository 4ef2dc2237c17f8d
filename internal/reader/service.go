// Package reader serves parsed articles over HTTP: a readable HTML page for people
// and a JSON endpoint for programs, both backed by a two-level article cache.
package reader

import (
	"context"
	"fmt"
	"strings"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v2"
	"golang.org/x/sync/singleflight"

	"github.com/samvad-hq/mercury-reader/internal/logger"
	"github.com/samvad-hq/mercury-reader/pkg/mercury"
)

// Parser fetches a parsed article. *mercury.Client satisfies it.
type Parser interface {
	Parse(ctx context.Context, target string, opts ...mercury.ParseOption) (*mercury.Article, error)
}

// ArticleStore is the persistent cache tier (storage.Store satisfies it).
type ArticleStore interface {
	GetArticle(key string) (*mercury.Article, bool, error)
	PutArticle(key string, article *mercury.Article) error
}

const defaultMemoryKeys = 256

// ServiceOptions configure caching and the parse options applied to every read.
type ServiceOptions struct {
	CacheTTL     time.Duration
	MemoryKeys   int
	ParseOptions []mercury.ParseOption
}

// Service resolves article URLs through memory, then the store, then the parser.
// Concurrent reads of the same URL share one upstream call.
type Service struct {
	parser Parser
	store  ArticleStore
	mem    cache.Cache[string, *mercury.Article]
	group  singleflight.Group
	opts   []mercury.ParseOption
	ttl    time.Duration
	log    logger.Logger
}

// NewService builds a reader service. store may be nil; a zero CacheTTL disables caching.
func NewService(parser Parser, store ArticleStore, log logger.Logger, opts ServiceOptions) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if opts.MemoryKeys <= 0 {
		opts.MemoryKeys = defaultMemoryKeys
	}
	return &Service{
		parser: parser,
		store:  store,
		mem:    cache.NewCache[string, *mercury.Article]().WithTTL(opts.CacheTTL).WithMaxKeys(opts.MemoryKeys).WithLRU(),
		opts:   opts.ParseOptions,
		ttl:    opts.CacheTTL,
		log:    log,
	}
}

// Read returns the article for target. Parser errors are returned unchanged so callers
// can classify them with the mercury.Is* helpers.
func (s *Service) Read(ctx context.Context, target string) (*mercury.Article, error) {
	key := strings.TrimSpace(target)
	if key == "" {
		return nil, &mercury.ConfigError{Field: "url", Reason: "url query parameter is required"}
	}

	if a, ok := s.cached(key); ok {
		return a, nil
	}

	// The shared parse outlives any single caller; each caller only waits on its own ctx.
	shareCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		a, err := s.parser.Parse(shareCtx, key, s.opts...)
		if err != nil {
			return nil, err
		}
		s.remember(key, a)
		return a, nil
	})

	select {
	case <-ctx.Done():
		return nil, &mercury.TransportError{URL: key, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.log.DebugObj("reader request coalesced", "reader_cache", map[string]any{"url": key})
		}
		return res.Val.(*mercury.Article), nil
	}
}

func (s *Service) cached(key string) (*mercury.Article, bool) {
	if s.ttl <= 0 {
		return nil, false
	}
	if a, ok := s.mem.Get(key); ok {
		return a, true
	}
	if s.store == nil {
		return nil, false
	}
	a, ok, err := s.store.GetArticle(key)
	if err != nil {
		s.log.WarnObj("article cache lookup failed", "storage_error", map[string]any{
			"url":   key,
			"error": err.Error(),
		})
		return nil, false
	}
	if ok {
		s.mem.Set(key, a, 0)
	}
	return a, ok
}

func (s *Service) remember(key string, a *mercury.Article) {
	if s.ttl <= 0 {
		return
	}
	s.mem.Set(key, a, 0)
	if s.store == nil {
		return
	}
	if err := s.store.PutArticle(key, a); err != nil {
		s.log.WarnObj("article cache write failed", "storage_error", map[string]any{
			"url":   key,
			"error": fmt.Sprint(err),
		})
	}
}

// CacheStats exposes memory-tier hit/miss counters for /healthz.
func (s *Service) CacheStats() cache.Stats {
	return s.mem.Stat()
}
