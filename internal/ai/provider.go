package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/v0xg/testforge/internal/config"
)

// Provider is a single-shot text completion backend.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

var (
	// ErrMissingCredential is returned before any client is built when no API
	// key is configured for the selected provider.
	ErrMissingCredential = errors.New("missing API credential")

	// ErrModelCallFailed matches every *ModelError.
	ErrModelCallFailed = errors.New("model call failed")

	// ErrEmptyResponse is the cause when the model answered with no text.
	ErrEmptyResponse = errors.New("empty response")

	// ErrMalformedResponse is the cause when a reply has text but not in the
	// shape that was asked for.
	ErrMalformedResponse = errors.New("malformed response")
)

// ModelError describes a failed completion request.
type ModelError struct {
	Provider   string
	StatusCode int // HTTP status when the SDK exposes it, 0 otherwise
	Err        error
}

func (e *ModelError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, ErrModelCallFailed, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, ErrModelCallFailed, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

func (e *ModelError) Is(target error) bool { return target == ErrModelCallFailed }

// NewProvider creates a new AI provider based on the provider name
func NewProvider(ctx context.Context, name, apiKey, model string) (Provider, error) {
	switch config.CanonicalProvider(name) {
	case config.ProviderGemini:
		return NewGeminiProvider(ctx, apiKey, model)
	case config.ProviderClaude:
		return NewClaudeProvider(apiKey, model)
	case config.ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: gemini, claude, openai)", name)
	}
}

// ValidateProvider reports whether name is a known provider without building
// a client.
func ValidateProvider(name string) error {
	switch config.CanonicalProvider(name) {
	case config.ProviderGemini, config.ProviderClaude, config.ProviderOpenAI:
		return nil
	default:
		return fmt.Errorf("unknown provider: %s (supported: gemini, claude, openai)", name)
	}
}
