package main

import (
	"fmt"

	"github.com/samvad-hq/mercury-reader/internal/app"
	"github.com/samvad-hq/mercury-reader/internal/reader"
	"github.com/samvad-hq/mercury-reader/internal/storage"
)

// Run executes the serve command until the context is cancelled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	cfg := deps.Config
	addr := c.Addr
	if addr == "" {
		addr = cfg.ReaderAddr
	}

	deps.Log.InfoObj("reader starting", "config", cfg.Summary())

	p, err := deps.Parser()
	if err != nil {
		return err
	}
	parseOpts, err := app.DefaultParseOptions(cfg)
	if err != nil {
		return fmt.Errorf("content_format: %w", err)
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		LinkTTL:         cfg.StorageTTL,
		ArticleTTL:      cfg.ReaderCacheTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	svc := reader.NewService(p, store, deps.Log, reader.ServiceOptions{
		CacheTTL:     cfg.ReaderCacheTTL,
		ParseOptions: parseOpts,
	})
	return reader.NewServer(svc, deps.Log).ListenAndServe(deps.Ctx, addr)
}
