// Package providers discovers candidate article links from configured sources
// (Google News sitemaps today) and loads the provider registry from YAML or JSON.
package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultRequestDelay = 500 * time.Millisecond

// Provider describes one link source.
type Provider struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Type           string         `json:"type" yaml:"type"`
	SourceURL      string         `json:"source_url" yaml:"source_url"`
	RequestDelayMs int            `json:"request_delay_ms" yaml:"request_delay_ms"`
	MaxLinks       int            `json:"max_links" yaml:"max_links"`
	Config         map[string]any `json:"config" yaml:"config"`
}

// RequestDelay returns the pause between two article parses for this provider.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMs <= 0 {
		return defaultRequestDelay
	}
	return time.Duration(p.RequestDelayMs) * time.Millisecond
}

// Registry is an immutable, validated set of providers.
type Registry struct {
	providers []Provider
	byID      map[string]Provider
}

type registryFile struct {
	Providers []Provider `json:"providers" yaml:"providers"`
}

// LoadRegistry reads and validates the providers file at path.
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("providers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	return ParseRegistry(raw, filepath.Ext(path))
}

// ParseRegistry decodes a registry document. ext selects the decoder (".yaml", ".yml",
// ".json"); an empty ext tries YAML then JSON.
func ParseRegistry(data []byte, ext string) (*Registry, error) {
	file, err := decodeRegistry(data, ext)
	if err != nil {
		return nil, err
	}
	if len(file.Providers) == 0 {
		return nil, errors.New("providers file contains no providers entries")
	}

	reg := &Registry{
		providers: make([]Provider, 0, len(file.Providers)),
		byID:      make(map[string]Provider, len(file.Providers)),
	}
	for i, p := range file.Providers {
		p = sanitizeProvider(p)
		if err := validateProvider(p); err != nil {
			return nil, fmt.Errorf("provider[%d]: %w", i, err)
		}
		if _, dup := reg.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate provider id %q", p.ID)
		}
		reg.providers = append(reg.providers, p)
		reg.byID[p.ID] = p
	}
	return reg, nil
}

// All returns a copy of the providers in file order.
func (r *Registry) All() []Provider {
	if r == nil || len(r.providers) == 0 {
		return nil
	}
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// ByID looks up a provider by id.
func (r *Registry) ByID(id string) (Provider, bool) {
	if r == nil {
		return Provider{}, false
	}
	p, ok := r.byID[strings.TrimSpace(id)]
	return p, ok
}

func decodeRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		ext string
		fn  func([]byte, any) error
	}{
		{".yaml", yaml.Unmarshal},
		{".yml", yaml.Unmarshal},
		{".json", json.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var file registryFile
		if err := d.fn(data, &file); err != nil {
			lastErr = err
			continue
		}
		return file, nil
	}
	if lastErr != nil {
		return registryFile{}, fmt.Errorf("decode providers file: %w", lastErr)
	}
	return registryFile{}, fmt.Errorf("providers file extension %q not recognized (expected YAML or JSON)", ext)
}

func sanitizeProvider(p Provider) Provider {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Type = strings.TrimSpace(p.Type)
	p.SourceURL = strings.TrimSpace(p.SourceURL)
	if p.Name == "" {
		p.Name = p.ID
	}
	if p.Config == nil {
		p.Config = map[string]any{}
	}
	return p
}

func validateProvider(p Provider) error {
	switch {
	case p.ID == "":
		return errors.New("id is required")
	case p.Type == "":
		return fmt.Errorf("type is required for provider %q", p.ID)
	case p.SourceURL == "":
		return fmt.Errorf("source_url is required for provider %q", p.ID)
	case p.MaxLinks < 0:
		return fmt.Errorf("max_links must be >= 0 for provider %q", p.ID)
	}
	return nil
}
