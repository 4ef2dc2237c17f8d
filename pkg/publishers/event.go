package publishers

import (
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/mercury-reader/pkg/mercury"
)

// Event is the payload published downstream for every freshly parsed article.
type Event struct {
	ID           string          `json:"id"`
	ProviderID   string          `json:"provider_id"`
	ProviderName string          `json:"provider_name"`
	LinkID       string          `json:"link_id"`
	Article      mercury.Article `json:"article"`
	CollectedAt  time.Time       `json:"collected_at"`
}

// NewEvent stamps a parsed article with a fresh id and collection time.
func NewEvent(providerID, providerName, linkID string, article mercury.Article) Event {
	return Event{
		ID:           uuid.NewString(),
		ProviderID:   providerID,
		ProviderName: providerName,
		LinkID:       linkID,
		Article:      article,
		CollectedAt:  time.Now().UTC(),
	}
}

// attributes are the string attributes attached to queue/topic messages.
func (e Event) attributes() map[string]string {
	attrs := make(map[string]string, 3)
	for k, v := range map[string]string{
		"event_id":    e.ID,
		"provider_id": e.ProviderID,
		"domain":      e.Article.Host(),
	} {
		if v != "" {
			attrs[k] = v
		}
	}
	return attrs
}
