package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel tracks the latest flash model.
const DefaultGeminiModel = "gemini-flash-latest"

// GeminiProvider implements the Provider interface using the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	if model == "" {
		model = DefaultGeminiModel
	}

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Complete generates content for a single text prompt.
func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		merr := &ModelError{Provider: p.Name(), Err: err}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			merr.StatusCode = apiErr.Code
		}
		return "", merr
	}

	text := resp.Text()
	if text == "" {
		return "", &ModelError{Provider: p.Name(), Err: ErrEmptyResponse}
	}

	return text, nil
}
