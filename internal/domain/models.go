package domain

import "time"

// Domain contains core models shared by the harvester packages.

// Link is a candidate article URL discovered by a provider, before it is parsed.
type Link struct {
	ID          string
	ProviderID  string
	URL         string
	Title       string
	PublishedAt time.Time
	Keywords    []string
}
