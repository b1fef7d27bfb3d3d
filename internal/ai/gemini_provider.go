package ai

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"resumegap/internal/config"
	appErrors "resumegap/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const modelCheckTimeout = 10 * time.Second

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	config         config.AIConfig
	prompts        PromptSource
	circuitBreaker *GenerateBreaker
	modelBreaker   *ModelBreaker
	logger         *appErrors.Logger
	retryBase      time.Duration
}

var _ Provider = (*GeminiProvider)(nil)

// GeminiOption customises a GeminiProvider.
type GeminiOption func(*genai.ClientConfig)

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) GeminiOption {
	return func(c *genai.ClientConfig) { c.HTTPOptions.BaseURL = url }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) GeminiOption {
	return func(c *genai.ClientConfig) { c.HTTPClient = client }
}

// NewGeminiProvider creates a Gemini-backed provider. prompts may be nil, in
// which case no system instruction is sent.
func NewGeminiProvider(cfg config.AIConfig, prompts PromptSource, logger *appErrors.Logger, opts ...GeminiOption) (*GeminiProvider, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(clientCfg)
	}

	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		prompts:        prompts,
		circuitBreaker: NewGenerateBreaker(cfg.CircuitBreaker, logger),
		modelBreaker:   NewModelBreaker(cfg.CircuitBreaker, logger),
		logger:         logger,
		retryBase:      time.Second,
	}, nil
}

// Generate sends prompt to the configured model and returns its text.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string) (*Generation, error) {
	tracer := otel.Tracer("resumegap.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.generate")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(g.config.Temperature)),
		attribute.Int("input.prompt_length", len(prompt)),
	)

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	genCfg := g.generateConfig()
	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(prompt), genCfg)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return nil, appErrors.NewGenerationError(appErrors.ErrCodeGenerationFailed,
			"Failed to generate content", err)
	}

	gen := &Generation{
		Content:    result.Text(),
		TokenUsage: extractTokenUsage(result),
	}
	if gen.TokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", gen.TokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", gen.TokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", gen.TokenUsage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Int("output.length", len(gen.Content)))
	return gen, nil
}

func (g *GeminiProvider) generateConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if g.config.Temperature > 0 {
		temp := g.config.Temperature
		cfg.Temperature = &temp
	}
	if g.prompts != nil {
		if system := ResolvePrompts(g.prompts).System; system != "" {
			cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
		}
	}
	return cfg
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version
	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"display_name", info.DisplayName,
		"version", info.Version)
	return info
}

// executeWithRetry retries retryable failures with exponential backoff. With
// MaxRetries at zero fn runs exactly once.
func (g *GeminiProvider) executeWithRetry(ctx context.Context, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	maxRetries := max(g.config.MaxRetries, 0)

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying generation",
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(g.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("Generation succeeded after retry", "attempts", attempt+1)
			}
			return result, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			break
		}
	}

	if maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("generation failed after %d retries: %w", maxRetries, lastErr)
}

// backoff doubles per attempt with up to 10% jitter, capped at 30s.
func (g *GeminiProvider) backoff(attempt int) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt-1))) * g.retryBase
	var jitter time.Duration
	if limit := int64(float64(base) * 0.1); limit > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(limit)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(base+jitter, 30*time.Second)
}

// isRetryableError reports network failures and throttling or server errors.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return retryableStatus(apiErrPtr.Code)
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return retryableStatus(gErr.Code)
	}
	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// CircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) CircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.Stats(),
		"model_operations": g.modelBreaker.Stats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close implements Provider. The Gemini client holds no resources in
// single-shot mode.
func (g *GeminiProvider) Close() error {
	return nil
}

func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
