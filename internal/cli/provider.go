package cli

import (
	"errors"
	"fmt"
	"strings"
)

// Provider names accepted by --provider and the provider config key.
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderVertex   = "vertex"
)

// Environment variables holding provider credentials.
const (
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
	EnvDeepSeekAPIKey    = "DEEPSEEK_API_KEY"
	EnvGoogleCredentials = "GOOGLE_APPLICATION_CREDENTIALS"
)

// Provider represents a validated translation provider.
// Zero value is invalid and must not be used.
// Use ParseProvider to create from user input, or the pre-parsed constants.
type Provider struct {
	name string
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Provider{}

// ErrInvalidProvider indicates an invalid provider name was specified.
var ErrInvalidProvider = errors.New("invalid provider")

// Pre-parsed provider constants for use in code.
var (
	OpenAIProvider   = Provider{name: ProviderOpenAI}
	DeepSeekProvider = Provider{name: ProviderDeepSeek}
	VertexProvider   = Provider{name: ProviderVertex}
)

var validProviders = map[string]bool{
	ProviderOpenAI:   true,
	ProviderDeepSeek: true,
	ProviderVertex:   true,
}

// ParseProvider validates and parses a provider name, ignoring case and
// surrounding spaces. Returns ErrInvalidProvider if the name is not recognized.
func ParseProvider(s string) (Provider, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Provider{}, fmt.Errorf("provider cannot be empty: %w", ErrInvalidProvider)
	}
	if !validProviders[s] {
		return Provider{}, fmt.Errorf("unknown provider %q (use 'openai', 'deepseek' or 'vertex'): %w", s, ErrInvalidProvider)
	}
	return Provider{name: s}, nil
}

// String returns the provider name string.
func (p Provider) String() string {
	return p.name
}

// IsZero returns true if no provider is set.
func (p Provider) IsZero() bool {
	return p.name == ""
}

// IsOpenAI returns true if this provider is OpenAI.
func (p Provider) IsOpenAI() bool {
	return p.name == ProviderOpenAI
}

// IsDeepSeek returns true if this provider is DeepSeek.
func (p Provider) IsDeepSeek() bool {
	return p.name == ProviderDeepSeek
}

// IsVertex returns true if this provider is Vertex AI.
func (p Provider) IsVertex() bool {
	return p.name == ProviderVertex
}

// CredentialEnv names the environment variable holding this provider's
// credential. For Vertex AI it is the service account file, which is
// optional when application default credentials are available.
func (p Provider) CredentialEnv() string {
	switch p.name {
	case ProviderDeepSeek:
		return EnvDeepSeekAPIKey
	case ProviderVertex:
		return EnvGoogleCredentials
	default:
		return EnvOpenAIAPIKey
	}
}

// OrDefault returns the provider, or OpenAIProvider if zero.
func (p Provider) OrDefault() Provider {
	if p.IsZero() {
		return OpenAIProvider
	}
	return p
}
