package providers

import "strings"

// ConfigString returns the trimmed string value for key from provider.Config or a fallback.
func ConfigString(cfg Provider, key, fallback string) string {
	raw, ok := cfg.Config[key]
	if !ok {
		return fallback
	}
	if val, ok := raw.(string); ok {
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

const (
	ConfigUserAgentKey      = "user_agent"
	ConfigAcceptKey         = "accept"
	ConfigAcceptLanguageKey = "accept_language"
	ConfigCacheControlKey   = "cache_control"
	ConfigContentFormatKey  = "content_format"
)

var headerKeys = []struct{ key, header string }{
	{ConfigUserAgentKey, "User-Agent"},
	{ConfigAcceptKey, "Accept"},
	{ConfigAcceptLanguageKey, "Accept-Language"},
	{ConfigCacheControlKey, "Cache-Control"},
}

// Headers builds the sitemap request headers from a provider config (skips empty values).
func Headers(cfg Provider) map[string]string {
	headers := make(map[string]string, len(headerKeys))
	for _, hk := range headerKeys {
		if v := ConfigString(cfg, hk.key, ""); v != "" {
			headers[hk.header] = v
		}
	}
	return headers
}
