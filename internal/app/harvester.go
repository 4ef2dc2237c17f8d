package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/mercury-reader/internal/config"
	"github.com/samvad-hq/mercury-reader/internal/crawler"
	"github.com/samvad-hq/mercury-reader/internal/logger"
	"github.com/samvad-hq/mercury-reader/internal/storage"
	"github.com/samvad-hq/mercury-reader/pkg/providers"
	"github.com/samvad-hq/mercury-reader/pkg/publishers"
)

// Harvester is the long-running crawl loop: sitemap links in, parsed articles out to
// the configured publishers. It owns the storage and publisher lifecycles.
type Harvester struct {
	cfg           *config.Config
	providerReg   *providers.Registry
	fanout        *publishers.Fanout
	crawlService  *crawler.Service
	crawlInterval time.Duration
	log           logger.Logger
	store         storage.Store
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	parser, err := NewMercuryClient(cfg, log)
	if err != nil {
		return nil, err
	}
	parseOpts, err := DefaultParseOptions(cfg)
	if err != nil {
		return nil, fmt.Errorf("content_format: %w", err)
	}

	providerReg, err := providers.LoadRegistry(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers registry: %w", err)
	}
	providerList := providerReg.All()
	providerIDs := make([]string, 0, len(providerList))
	for _, p := range providerList {
		providerIDs = append(providerIDs, p.ID)
	}
	log.InfoObj("providers registry loaded", "providers_meta", map[string]any{
		"count": len(providerIDs),
		"ids":   providerIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		LinkTTL:         cfg.StorageTTL,
		ArticleTTL:      cfg.ReaderCacheTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"link_ttl_seconds":         int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	var filler crawler.MetadataFiller
	if cfg.OGFallback {
		filler = crawler.NewScraper(providers.DefaultHTTPClient())
	}

	crawlService := crawler.NewService(
		providers.DefaultFetcherRegistry(nil),
		parser,
		filler,
		fanout,
		store,
		log,
		crawler.Options{
			Concurrency:   cfg.ParseConcurrency,
			RatePerSecond: cfg.ParseRatePerSecond,
			ParseOptions:  parseOpts,
		},
	)

	return &Harvester{
		cfg:           cfg,
		providerReg:   providerReg,
		fanout:        fanout,
		crawlService:  crawlService,
		crawlInterval: cfg.CrawlInterval,
		log:           log,
		store:         store,
	}, nil
}

// Run starts the crawl loop until the context is cancelled.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.crawlService == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()

	providerList := h.providerReg.All()
	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"providers_count":  len(providerList),
		"publishers_count": h.fanout.Size(),
		"crawl_interval":   h.crawlInterval.String(),
	})

	if err := h.runOnce(ctx, providerList); err != nil {
		h.log.ErrorObj("initial crawl failed", "error", err.Error())
	}

	ticker := time.NewTicker(h.crawlInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := h.runOnce(ctx, providerList); err != nil {
				h.log.ErrorObj("scheduled crawl failed", "error", err.Error())
			}
		}
	}
}

// RunOnce performs a single crawl pass and releases resources afterwards.
func (h *Harvester) RunOnce(ctx context.Context) error {
	if h == nil || h.crawlService == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()
	return h.runOnce(ctx, h.providerReg.All())
}

func (h *Harvester) runOnce(ctx context.Context, providerList []providers.Provider) error {
	start := time.Now()
	h.log.InfoObj("crawl started", "crawl_meta", map[string]any{
		"providers_count": len(providerList),
		"started_at":      start.UTC(),
	})
	if err := h.crawlService.Run(ctx, providerList); err != nil {
		return err
	}
	h.log.InfoObj("crawl completed", "crawl_meta", map[string]any{
		"providers_count": len(providerList),
		"elapsed_ms":      time.Since(start).Milliseconds(),
	})
	return nil
}

func (h *Harvester) close() {
	if err := h.fanout.Close(); err != nil {
		h.log.ErrorObj("publisher close failed", "error", err.Error())
	}
	if h.store == nil {
		return
	}
	if err := h.store.Close(); err != nil {
		h.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
