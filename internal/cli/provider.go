package cli

import (
	"errors"
	"fmt"
)

// Provider names accepted by --provider and --transcriber.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
)

// API key environment variables.
const (
	EnvGroqAPIKey   = "GROQ_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
)

// ErrInvalidProvider indicates an invalid provider name was specified.
var ErrInvalidProvider = errors.New("invalid provider")

// Role tells which collaborator a provider serves.
type Role int

// Roles.
const (
	RoleTranscriber Role = iota
	RoleSummarizer
)

var validProviders = map[Role][]string{
	RoleTranscriber: {ProviderGroq, ProviderOpenAI},
	RoleSummarizer:  {ProviderGemini, ProviderOpenAI},
}

// ParseProvider validates a provider name for role.
// Names are case sensitive.
func ParseProvider(role Role, s string) (string, error) {
	valid := validProviders[role]
	if s == "" {
		return "", fmt.Errorf("provider cannot be empty: %w", ErrInvalidProvider)
	}
	for _, v := range valid {
		if s == v {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q (use %s or %s): %w", s, valid[0], valid[1], ErrInvalidProvider)
}

// apiKey returns the key for provider, or ErrAPIKeyMissing naming the
// variable to set. Gemini also accepts GOOGLE_API_KEY.
func apiKey(getenv func(string) string, provider string) (string, error) {
	var names []string
	switch provider {
	case ProviderGroq:
		names = []string{EnvGroqAPIKey}
	case ProviderOpenAI:
		names = []string{EnvOpenAIAPIKey}
	case ProviderGemini:
		names = []string{EnvGeminiAPIKey, EnvGoogleAPIKey}
	default:
		return "", fmt.Errorf("unknown provider %q: %w", provider, ErrInvalidProvider)
	}
	for _, n := range names {
		if v := getenv(n); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w (set it with: export %s=...)", ErrAPIKeyMissing, names[0])
}
