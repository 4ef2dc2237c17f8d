package crawler

import (
	"context"

	"github.com/samvad-hq/mercury-reader/internal/domain"
	"github.com/samvad-hq/mercury-reader/pkg/mercury"
	"github.com/samvad-hq/mercury-reader/pkg/providers"
	"github.com/samvad-hq/mercury-reader/pkg/publishers"
)

// ArticleParser turns a link into a parsed article. *mercury.Client satisfies it.
type ArticleParser interface {
	Parse(ctx context.Context, target string, opts ...mercury.ParseOption) (*mercury.Article, error)
}

// MetadataFiller patches gaps in a parsed article (e.g. from OG tags).
type MetadataFiller interface {
	Fill(ctx context.Context, cfg providers.Provider, link domain.Link, article *mercury.Article) error
}

// EventPublisher publishes parsed articles downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// LinkStore remembers links that were already published.
type LinkStore interface {
	SeenLink(id string) (bool, error)
	MarkLink(id string) error
}
