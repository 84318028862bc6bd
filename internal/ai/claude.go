package ai

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeProvider implements the Provider interface using Anthropic's Claude
type ClaudeProvider struct {
	client *anthropic.Client
	model  string
}

// NewClaudeProvider creates a new Claude provider
func NewClaudeProvider(apiKey, model string) (*ClaudeProvider, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))

	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	return &ClaudeProvider{
		client: &client,
		model:  model,
	}, nil
}

func (p *ClaudeProvider) Name() string { return "claude" }

// Complete sends prompt as a single user message and returns the first text block.
func (p *ClaudeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		merr := &ModelError{Provider: p.Name(), Err: err}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			merr.StatusCode = apiErr.StatusCode
		}
		return "", merr
	}

	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}

	return "", &ModelError{Provider: p.Name(), Err: ErrEmptyResponse}
}
