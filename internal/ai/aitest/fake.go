// Package aitest provides a scripted GenerationClient for tests.
package aitest

import (
	"context"
	"sync"

	"resumegap/internal/ai"
	"resumegap/internal/errors"
)

// FakeClient replays Responses in order and records every prompt. Once the
// script runs out the last response repeats. A non-nil Err is returned on
// call FailOn (1-based), or on every call when FailOn is zero.
type FakeClient struct {
	Responses []string
	Err       error
	FailOn    int

	mu      sync.Mutex
	prompts []string
}

var _ ai.GenerationClient = (*FakeClient)(nil)

// NewFakeClient scripts the given responses.
func NewFakeClient(responses ...string) *FakeClient {
	return &FakeClient{Responses: responses}
}

// Failing returns a client whose every call fails with a generation error.
func Failing(message string) *FakeClient {
	return &FakeClient{Err: errors.NewGenerationError(errors.ErrCodeGenerationFailed, message, nil)}
}

// Generate implements ai.GenerationClient.
func (f *FakeClient) Generate(ctx context.Context, prompt string) (*ai.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prompts = append(f.prompts, prompt)
	call := len(f.prompts)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil && (f.FailOn == 0 || f.FailOn == call) {
		return nil, f.Err
	}

	var content string
	if n := len(f.Responses); n > 0 {
		content = f.Responses[min(call, n)-1]
	}
	return &ai.Generation{
		Content: content,
		TokenUsage: &ai.TokenUsage{
			InputTokens:  int64(len(prompt)),
			OutputTokens: int64(len(content)),
			TotalTokens:  int64(len(prompt) + len(content)),
		},
	}, nil
}

// Prompts returns a copy of the prompts seen so far.
func (f *FakeClient) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Calls reports how many times Generate ran.
func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}
