package ai

import (
	"context"
)

// GenerationClient produces free text for a single prompt. Implementations
// return an error instead of an empty Generation when the model fails.
type GenerationClient interface {
	Generate(ctx context.Context, prompt string) (*Generation, error)
}

// Provider is a GenerationClient backed by a hosted model that can report
// its own health.
type Provider interface {
	GenerationClient
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// Generation is the outcome of one Generate call.
type Generation struct {
	Content    string
	TokenUsage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
