package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/samvad-hq/mercury-reader/internal/config"
	"github.com/samvad-hq/mercury-reader/internal/logger"
	"github.com/samvad-hq/mercury-reader/pkg/httpclient"
	"github.com/samvad-hq/mercury-reader/pkg/mercury"
)

// NewMercuryClient builds the parser API client every binary shares.
func NewMercuryClient(cfg *config.Config, log logger.Logger) (*mercury.Client, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	httpOpts := []httpclient.Option{httpclient.WithUserAgent(cfg.UserAgent)}
	if logger.S != nil {
		httpOpts = append(httpOpts,
			httpclient.WithLogger(logger.S.WithOptions(zap.AddCallerSkip(1))),
			httpclient.WithDebug(cfg.LogLevel == "debug"),
		)
	}
	hc := httpclient.NewRestyClient(cfg.HTTPTimeout, httpOpts...)

	client, err := mercury.NewClient(hc, cfg.MercuryAPIKey,
		mercury.WithEndpoint(cfg.MercuryEndpoint),
		mercury.WithUserAgent(cfg.UserAgent),
		mercury.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("init mercury client: %w", err)
	}
	return client, nil
}

// DefaultParseOptions maps the content_format / fetch_all_pages settings to parse options.
func DefaultParseOptions(cfg *config.Config) ([]mercury.ParseOption, error) {
	var opts []mercury.ParseOption
	if cfg.ContentFormat != "" {
		ct, err := mercury.ParseContentType(cfg.ContentFormat)
		if err != nil {
			return nil, err
		}
		opts = append(opts, mercury.WithFormat(ct))
	}
	if cfg.FetchAllPages {
		opts = append(opts, mercury.WithFetchAllPages(true))
	}
	return opts, nil
}
