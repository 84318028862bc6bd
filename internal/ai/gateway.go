package ai

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/v0xg/testforge/internal/config"
)

// ProviderFactory builds the backend on first use.
type ProviderFactory func(ctx context.Context, cfg config.LLMConfig) (Provider, error)

func defaultFactory(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	return NewProvider(ctx, cfg.Provider, cfg.APIKey, cfg.Model)
}

// Gateway is the text-in/text-out boundary to the completion service. The
// provider client is built lazily so a missing key never opens a connection.
type Gateway struct {
	cfg      config.LLMConfig
	factory  ProviderFactory
	provider Provider
	logger   *zap.Logger
}

// NewGateway validates the provider name and returns a gateway for it.
func NewGateway(cfg config.LLMConfig, logger *zap.Logger) (*Gateway, error) {
	return NewGatewayWithFactory(cfg, defaultFactory, logger)
}

func NewGatewayWithFactory(cfg config.LLMConfig, factory ProviderFactory, logger *zap.Logger) (*Gateway, error) {
	if err := ValidateProvider(cfg.Provider); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		cfg:     cfg,
		factory: factory,
		logger:  logger.Named("gateway"),
	}, nil
}

// Provider returns the configured provider name.
func (g *Gateway) Provider() string {
	return config.CanonicalProvider(g.cfg.Provider)
}

// Generate sends prompt to the model and returns its raw reply. It makes
// exactly one request and never retries.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	if g.cfg.APIKey == "" {
		g.logger.Warn("No API key configured", zap.String("provider", g.Provider()))
		return "", ErrMissingCredential
	}

	if g.provider == nil {
		p, err := g.factory(ctx, g.cfg)
		if err != nil {
			if errors.Is(err, ErrMissingCredential) {
				return "", err
			}
			var merr *ModelError
			if !errors.As(err, &merr) {
				err = &ModelError{Provider: g.Provider(), Err: err}
			}
			return "", err
		}
		g.provider = p
	}

	start := time.Now()
	g.logger.Debug("Calling model",
		zap.String("provider", g.provider.Name()),
		zap.Int("prompt_chars", len(prompt)))

	text, err := g.provider.Complete(ctx, prompt)
	if err != nil {
		var merr *ModelError
		if !errors.As(err, &merr) {
			err = &ModelError{Provider: g.provider.Name(), Err: err}
		}
		g.logger.Warn("Model call failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return "", err
	}

	g.logger.Debug("Model replied",
		zap.Int("reply_chars", len(text)),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}
