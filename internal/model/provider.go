package model

import (
	"fmt"
	"strings"
)

// Provider name constants.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Provider represents a validated model provider.
// Zero value means "not specified"; use OrDefault before use.
type Provider struct {
	name string
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Provider{}

// Pre-parsed providers for use in code.
var (
	GeminiProvider = Provider{name: ProviderGemini}
	OpenAIProvider = Provider{name: ProviderOpenAI}
)

// providerInfo holds per-provider defaults.
type providerInfo struct {
	envVar       string
	defaultModel string
	display      string
}

var providers = map[string]providerInfo{
	ProviderGemini: {envVar: "GEMINI_API_KEY", defaultModel: "gemini-1.5-flash", display: "Gemini"},
	ProviderOpenAI: {envVar: "OPENAI_API_KEY", defaultModel: "gpt-4o-mini", display: "OpenAI"},
}

// ParseProvider validates a provider name. Matching is case-insensitive.
// Empty string returns the zero Provider without error.
func ParseProvider(s string) (Provider, error) {
	if s == "" {
		return Provider{}, nil
	}
	name := strings.ToLower(strings.TrimSpace(s))
	if _, ok := providers[name]; !ok {
		return Provider{}, fmt.Errorf("unknown provider %q (use 'gemini' or 'openai'): %w", s, ErrInvalidProvider)
	}
	return Provider{name: name}, nil
}

// String returns the provider name, or empty string for zero value.
func (p Provider) String() string {
	return p.name
}

// IsZero returns true if no provider was specified.
func (p Provider) IsZero() bool {
	return p.name == ""
}

// OrDefault returns the provider, or GeminiProvider if zero.
func (p Provider) OrDefault() Provider {
	if p.IsZero() {
		return GeminiProvider
	}
	return p
}

// EnvVar returns the environment variable holding the provider credential.
func (p Provider) EnvVar() string {
	return providers[p.OrDefault().name].envVar
}

// DefaultModel returns the model used when none is configured.
func (p Provider) DefaultModel() string {
	return providers[p.OrDefault().name].defaultModel
}

// DisplayName returns the provider's product name, e.g. "Gemini".
func (p Provider) DisplayName() string {
	return providers[p.OrDefault().name].display
}
