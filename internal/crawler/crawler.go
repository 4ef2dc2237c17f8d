package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/samvad-hq/mercury-reader/internal/domain"
	"github.com/samvad-hq/mercury-reader/internal/logger"
	"github.com/samvad-hq/mercury-reader/pkg/mercury"
	"github.com/samvad-hq/mercury-reader/pkg/providers"
	"github.com/samvad-hq/mercury-reader/pkg/publishers"
)

// Options tunes how aggressively links are parsed.
type Options struct {
	// Concurrency caps in-flight parse calls per provider. Values <= 0 mean 1.
	Concurrency int
	// RatePerSecond caps parse calls across all providers. Zero disables the limit.
	RatePerSecond float64
	// ParseOptions are forwarded to every Parse call.
	ParseOptions []mercury.ParseOption
}

// Service coordinates crawling across multiple providers: discover links, parse the new
// ones through the parser API, publish the results and remember what was published.
type Service struct {
	registry providers.FetcherRegistry
	parser   ArticleParser
	filler   MetadataFiller
	pub      EventPublisher
	store    LinkStore
	log      logger.Logger
	opts     Options
	limiter  *rate.Limiter
	now      func() time.Time
}

// NewService wires a crawler. filler may be nil to skip metadata fallback.
func NewService(reg providers.FetcherRegistry, parser ArticleParser, filler MetadataFiller, pub EventPublisher, store LinkStore, log logger.Logger, opts Options) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return &Service{
		registry: reg,
		parser:   parser,
		filler:   filler,
		pub:      pub,
		store:    store,
		log:      log,
		opts:     opts,
		limiter:  limiter,
		now:      time.Now,
	}
}

// Run executes a crawl pass for all configured providers.
func (s *Service) Run(ctx context.Context, cfgs []providers.Provider) error {
	if s == nil || s.registry == nil || s.parser == nil || s.pub == nil {
		return fmt.Errorf("crawler service is not initialized")
	}
	if len(cfgs) == 0 {
		return fmt.Errorf("no providers configured for crawling")
	}
	return errors.Join(s.runAll(ctx, cfgs)...)
}

func (s *Service) runAll(ctx context.Context, cfgs []providers.Provider) []error {
	var errs []error
	for _, cfg := range cfgs {
		if ctx.Err() != nil {
			break
		}
		if err := s.runProvider(ctx, cfg); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("provider crawl failed", "provider_error", map[string]any{
				"provider_id": cfg.ID,
				"error":       err.Error(),
			})
		}
	}
	return errs
}

// Stats summarises one provider pass.
type Stats struct {
	Discovered int
	Fresh      int
	Published  int
	Failed     int
}

func (s *Service) runProvider(ctx context.Context, cfg providers.Provider) error {
	fetcher, err := s.registry.FetcherFor(cfg)
	if err != nil {
		return fmt.Errorf("resolve fetcher for provider %s: %w", cfg.ID, err)
	}

	links, err := fetcher.Fetch(ctx, cfg)
	if err != nil {
		return fmt.Errorf("fetch provider %s: %w", cfg.ID, err)
	}

	fresh := s.filterNewLinks(cfg, links)
	stats, err := s.processLinks(ctx, cfg, fresh)
	stats.Discovered = len(links)

	s.log.InfoObj("provider crawl completed", "provider_result", map[string]any{
		"provider_id": cfg.ID,
		"discovered":  stats.Discovered,
		"fresh":       stats.Fresh,
		"published":   stats.Published,
		"failed":      stats.Failed,
	})
	return err
}

// filterNewLinks drops links the store has already seen. Lookup failures keep the link:
// publishing twice beats silently losing an article.
func (s *Service) filterNewLinks(cfg providers.Provider, links []domain.Link) []domain.Link {
	if s.store == nil {
		return links
	}
	out := make([]domain.Link, 0, len(links))
	for _, l := range links {
		seen, err := s.store.SeenLink(l.ID)
		if err != nil {
			s.log.WarnObj("seen-link lookup failed", "storage_error", map[string]any{
				"provider_id": cfg.ID,
				"link_id":     l.ID,
				"error":       err.Error(),
			})
		}
		if seen {
			continue
		}
		out = append(out, l)
	}
	return out
}

// processLinks parses and publishes links with bounded concurrency. Every link is attempted;
// failures are collected rather than cancelling siblings.
func (s *Service) processLinks(ctx context.Context, cfg providers.Provider, links []domain.Link) (Stats, error) {
	stats := Stats{Fresh: len(links)}
	if len(links) == 0 {
		return stats, nil
	}

	pace := rate.NewLimiter(rate.Every(cfg.RequestDelay()), 1)

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for _, link := range links {
		g.Go(func() error {
			if err := pace.Wait(gctx); err != nil {
				return err
			}
			if err := s.limiter.Wait(gctx); err != nil {
				return err
			}
			err := s.processLink(gctx, cfg, link)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				errs = append(errs, fmt.Errorf("link %s: %w", link.URL, err))
				return nil
			}
			stats.Published++
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}
	return stats, errors.Join(errs...)
}

func (s *Service) processLink(ctx context.Context, cfg providers.Provider, link domain.Link) error {
	article, err := s.parser.Parse(ctx, link.URL, s.opts.ParseOptions...)
	if err != nil {
		s.log.WarnObj("article parse failed", "parse_error", map[string]any{
			"provider_id": cfg.ID,
			"url":         link.URL,
			"error":       err.Error(),
		})
		return fmt.Errorf("parse: %w", err)
	}

	if article.Title == "" {
		article.Title = link.Title
	}
	if s.filler != nil && needsMetadata(article) {
		if err := s.filler.Fill(ctx, cfg, link, article); err != nil {
			s.log.WarnObj("article metadata fallback failed", "metadata_error", map[string]any{
				"provider_id": cfg.ID,
				"url":         link.URL,
				"error":       err.Error(),
			})
		}
	}

	evt := publishers.NewEvent(cfg.ID, cfg.Name, link.ID, *article)
	evt.CollectedAt = s.now().UTC()
	delivered, err := s.pub.Publish(ctx, evt)
	if err != nil {
		if delivered == 0 {
			return fmt.Errorf("publish: %w", err)
		}
		s.log.WarnObj("event partially published", "publish_error", map[string]any{
			"provider_id": cfg.ID,
			"event_id":    evt.ID,
			"delivered":   delivered,
			"error":       err.Error(),
		})
	}

	if s.store != nil {
		if err := s.store.MarkLink(link.ID); err != nil {
			s.log.WarnObj("mark link failed", "storage_error", map[string]any{
				"provider_id": cfg.ID,
				"link_id":     link.ID,
				"error":       err.Error(),
			})
		}
	}
	return nil
}

func needsMetadata(a *mercury.Article) bool {
	return a.Title == "" || a.Excerpt == "" || a.LeadImageURL == nil
}
