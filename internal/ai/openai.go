package ai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface using OpenAI
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}

	client := openai.NewClient(apiKey)

	if model == "" {
		model = "gpt-4o"
	}

	return &OpenAIProvider{
		client: client,
		model:  model,
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

// Complete runs one chat completion with prompt as the only user message.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		merr := &ModelError{Provider: p.Name(), Err: err}
		var apiErr *openai.APIError
		var reqErr *openai.RequestError
		switch {
		case errors.As(err, &apiErr):
			merr.StatusCode = apiErr.HTTPStatusCode
		case errors.As(err, &reqErr):
			merr.StatusCode = reqErr.HTTPStatusCode
		}
		return "", merr
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &ModelError{Provider: p.Name(), Err: ErrEmptyResponse}
	}

	return resp.Choices[0].Message.Content, nil
}
