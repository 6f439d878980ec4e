// Package catalog loads the default provider/model catalog seeded at startup.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// Canonical provider identifiers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderAzure     = "azure"
)

var providerAliases = map[string]string{
	"openai":               ProviderOpenAI,
	"openai-compatibility": ProviderOpenAI,
	"codex":                ProviderOpenAI,
	"anthropic":            ProviderAnthropic,
	"claude":               ProviderAnthropic,
	"claude-code":          ProviderAnthropic,
	"gemini":               ProviderGemini,
	"vertex_ai":            ProviderGemini,
	"azure":                ProviderAzure,
}

// Entry describes one default model endpoint.
type Entry struct {
	ModelName  string `yaml:"model-name"`   // Public model name.
	Model      string `yaml:"model"`        // Provider-side model id.
	Provider   string `yaml:"provider"`     // Provider tag.
	APIKeyEnv  string `yaml:"api-key-env"`  // Env var holding the API key.
	APIBaseEnv string `yaml:"api-base-env"` // Env var holding the base URL override.
}

// Catalog is an ordered list of default entries.
type Catalog struct {
	Entries []Entry `yaml:"models"`
}

// LookupFunc resolves an environment variable name to its value.
type LookupFunc func(name string) string

// Len returns the number of entries.
func (c Catalog) Len() int {
	return len(c.Entries)
}

// Default returns the embedded default catalog.
func Default() (Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// Load reads a catalog override file, falling back to the embedded default when path is empty.
func Load(path string) (Catalog, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return Default()
	}
	data, errRead := os.ReadFile(trimmed)
	if errRead != nil {
		return Catalog{}, fmt.Errorf("catalog: read %s: %w", trimmed, errRead)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (Catalog, error) {
	var cat Catalog
	if errUnmarshal := yaml.Unmarshal(data, &cat); errUnmarshal != nil {
		return Catalog{}, fmt.Errorf("catalog: parse: %w", errUnmarshal)
	}
	for i := range cat.Entries {
		entry := &cat.Entries[i]
		entry.ModelName = strings.TrimSpace(entry.ModelName)
		entry.Model = strings.TrimSpace(entry.Model)
		entry.Provider = NormalizeProvider(entry.Provider)
		entry.APIKeyEnv = strings.TrimSpace(entry.APIKeyEnv)
		entry.APIBaseEnv = strings.TrimSpace(entry.APIBaseEnv)
		if entry.ModelName == "" {
			return Catalog{}, fmt.Errorf("catalog: entry %d: missing model-name", i)
		}
		if entry.Model == "" {
			return Catalog{}, fmt.Errorf("catalog: entry %q: missing model", entry.ModelName)
		}
		if entry.Provider == "" {
			return Catalog{}, fmt.Errorf("catalog: entry %q: missing provider", entry.ModelName)
		}
	}
	return cat, nil
}

// NormalizeProvider maps provider aliases to their canonical tag.
func NormalizeProvider(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return ""
	}
	if alias, ok := providerAliases[trimmed]; ok {
		return alias
	}
	return trimmed
}

// Credentials resolves the entry's API key and base URL.
func (e Entry) Credentials(lookup LookupFunc) (apiKey, apiBase string) {
	if lookup == nil {
		lookup = os.Getenv
	}
	if e.APIKeyEnv != "" {
		apiKey = strings.TrimSpace(lookup(e.APIKeyEnv))
	}
	if e.APIBaseEnv != "" {
		apiBase = strings.TrimSpace(lookup(e.APIBaseEnv))
	}
	return apiKey, apiBase
}
