package mercury

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// TextDirection is the reading direction of an article's content.
type TextDirection string

const (
	LTR TextDirection = "ltr"
	RTL TextDirection = "rtl"
)

// IsLTR reports whether d is left-to-right.
func (d TextDirection) IsLTR() bool { return d == LTR }

// IsRTL reports whether d is right-to-left.
func (d TextDirection) IsRTL() bool { return d == RTL }

// UnmarshalJSON accepts "ltr"/"rtl" in any case; null leaves the current value.
func (d *TextDirection) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch TextDirection(strings.ToLower(strings.TrimSpace(raw))) {
	case LTR:
		*d = LTR
	case RTL:
		*d = RTL
	default:
		return fmt.Errorf("unknown text direction %q", raw)
	}
	return nil
}

// Article is the structured result of parsing one web page.
// Pointer fields are nil when the service could not extract the attribute.
type Article struct {
	Title         string        `json:"title"`
	Author        *string       `json:"author,omitempty"`
	DatePublished *time.Time    `json:"date_published,omitempty"`
	Dek           *string       `json:"dek,omitempty"`
	LeadImageURL  *string       `json:"lead_image_url,omitempty"`
	Content       string        `json:"content"`
	NextPageURL   *string       `json:"next_page_url,omitempty"`
	URL           string        `json:"url"`
	Domain        string        `json:"domain,omitempty"`
	Excerpt       string        `json:"excerpt"`
	WordCount     int           `json:"word_count"`
	Direction     TextDirection `json:"direction"`
	TotalPages    int           `json:"total_pages"`
	RenderedPages int           `json:"rendered_pages"`
}

// HasNextPage reports whether the service returned a follow-up page to fetch.
func (a *Article) HasNextPage() bool {
	return a != nil && a.NextPageURL != nil && strings.TrimSpace(*a.NextPageURL) != ""
}

// Host returns the article's domain, falling back to the host of its URL.
func (a *Article) Host() string {
	if a == nil {
		return ""
	}
	if a.Domain != "" {
		return a.Domain
	}
	u, err := url.Parse(a.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// StringValue dereferences optional string fields.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
