package ai

import (
	"context"

	"resumegap/internal/observability"
)

// TrackedGenerate calls client.Generate under om.TrackAIOperation so the call
// is counted, timed and its token usage recorded as operation. A nil om only
// runs the call.
func TrackedGenerate(ctx context.Context, om *observability.ObservabilityManager, operation string, client GenerationClient, prompt string) (*Generation, error) {
	var gen *Generation
	err := om.TrackAIOperation(ctx, operation, func(ctx context.Context) *observability.AIOperationResult {
		var err error
		gen, err = client.Generate(ctx, prompt)
		if err != nil {
			return &observability.AIOperationResult{Error: err}
		}
		return &observability.AIOperationResult{TokenUsage: observedUsage(gen.TokenUsage)}
	})
	if err != nil {
		return nil, err
	}
	return gen, nil
}

func observedUsage(u *TokenUsage) *observability.TokenUsage {
	if u == nil {
		return nil
	}
	return &observability.TokenUsage{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.TotalTokens,
	}
}
