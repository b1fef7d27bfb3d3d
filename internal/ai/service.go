package ai

import (
	"context"
	"fmt"

	"resumegap/internal/config"
	"resumegap/internal/errors"
)

// Service is the GenerationClient handed to the pipeline. It selects the
// provider named in config and reports its health.
type Service struct {
	Provider Provider
	config   config.AIConfig
	logger   *errors.Logger
}

var _ GenerationClient = (*Service)(nil)

// NewService creates a new AI service instance. prompts supplies the
// optional system instruction.
func NewService(cfg config.AIConfig, prompts PromptSource, logger *errors.Logger, opts ...GeminiOption) (*Service, error) {
	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"temperature", cfg.Temperature,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries)

	var (
		provider Provider
		err      error
	)
	switch cfg.Provider {
	case "gemini", "":
		provider, err = NewGeminiProvider(cfg, prompts, logger, opts...)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	return &Service{Provider: provider, config: cfg, logger: logger}, nil
}

// Generate delegates to the configured provider.
func (s *Service) Generate(ctx context.Context, prompt string) (*Generation, error) {
	return s.Provider.Generate(ctx, prompt)
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// Stats returns breaker statistics when the provider exposes them.
func (s *Service) Stats() map[string]any {
	if sp, ok := s.Provider.(interface{ CircuitBreakerStats() map[string]any }); ok {
		return sp.CircuitBreakerStats()
	}
	return map[string]any{}
}

// Close releases provider resources.
func (s *Service) Close() error {
	return s.Provider.Close()
}
