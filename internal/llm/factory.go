package llm

import (
	"fmt"
	"strings"
)

// Options selects and configures a provider backend.
type Options struct {
	// Model is "provider/model", e.g. "groq/llama-3.1-8b-instant".
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
}

// ParseModel splits "provider/model". A bare model name is treated as OpenAI.
func ParseModel(s string) (provider, model string) {
	s = strings.TrimSpace(s)
	if p, m, ok := strings.Cut(s, "/"); ok && p != "" {
		return strings.ToLower(p), m
	}
	return "openai", s
}

// New builds the client for opts.Model. It returns ErrNotConfigured when
// no API key is set.
func New(opts Options) (Client, error) {
	provider, model := ParseModel(opts.Model)
	if model == "" {
		return nil, fmt.Errorf("model name is required: %q", opts.Model)
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: no api key for %s", ErrNotConfigured, provider)
	}

	switch provider {
	case "groq":
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = GroqBaseURL
		}
		return NewOpenAIClient(provider, opts.APIKey, model, baseURL, opts.MaxTokens), nil
	case "openai":
		return NewOpenAIClient(provider, opts.APIKey, model, opts.BaseURL, opts.MaxTokens), nil
	case "anthropic":
		return NewAnthropicClient(opts.APIKey, model, opts.BaseURL, opts.MaxTokens), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}
