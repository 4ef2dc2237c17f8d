package providers

import (
	"context"

	"github.com/samvad-hq/mercury-reader/internal/domain"
	"github.com/samvad-hq/mercury-reader/pkg/httpclient"
)

// Fetcher is responsible for discovering candidate article links for a provider.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider) ([]domain.Link, error)
}

// FetcherRegistry resolves the fetcher implementation for a given provider config.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within providers.
type HTTPClient = httpclient.Client
