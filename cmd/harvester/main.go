package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/samvad-hq/mercury-reader/internal/app"
	"github.com/samvad-hq/mercury-reader/internal/config"
	"github.com/samvad-hq/mercury-reader/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "harvester failed: %v\n", err)
		os.Exit(1)
	}
}

var cli struct {
	Once bool `help:"Run a single crawl pass and exit."`
}

func run() error {
	kong.Parse(&cli,
		kong.Name("harvester"),
		kong.Description("Parse fresh sitemap links through the Mercury API and publish them."),
	)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()
	log := logger.Default()

	log.InfoObj("harvester starting", "config", cfg.Summary())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	harvester, err := app.NewHarvester(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize harvester", "error", err.Error())
		return err
	}

	if cli.Once {
		return harvester.RunOnce(ctx)
	}
	if err := harvester.Run(ctx); err != nil {
		return fmt.Errorf("harvester run: %w", err)
	}
	return nil
}
