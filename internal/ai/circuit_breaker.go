package ai

import (
	"resumegap/internal/config"
	"resumegap/internal/errors"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"
)

// GenerateBreaker guards text generation calls.
type GenerateBreaker struct {
	cb *gobreaker.CircuitBreaker[*genai.GenerateContentResponse]
}

// ModelBreaker guards model metadata lookups used by health checks.
type ModelBreaker struct {
	cb *gobreaker.CircuitBreaker[*genai.Model]
}

// NewGenerateBreaker returns nil when the breaker is disabled; a nil breaker
// executes calls directly.
func NewGenerateBreaker(cfg config.CircuitBreakerConfig, logger *errors.Logger) *GenerateBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        "AI-generate",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: stateLogger(logger, cfg.MaxRequests),
	}

	return &GenerateBreaker{cb: gobreaker.NewCircuitBreaker[*genai.GenerateContentResponse](settings)}
}

// NewModelBreaker trips less eagerly than the generation breaker since model
// lookups only feed health reporting.
func NewModelBreaker(cfg config.CircuitBreakerConfig, logger *errors.Logger) *ModelBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        "AI-model",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.8
		},
		OnStateChange: stateLogger(logger, cfg.MaxRequests),
	}

	return &ModelBreaker{cb: gobreaker.NewCircuitBreaker[*genai.Model](settings)}
}

func stateLogger(logger *errors.Logger, maxRequests uint32) func(string, gobreaker.State, gobreaker.State) {
	return func(name string, from, to gobreaker.State) {
		logger.Info("Circuit breaker state changed",
			"name", name,
			"from", from.String(),
			"to", to.String(),
			"max_requests", maxRequests)
	}
}

// Execute runs fn under the breaker.
func (b *GenerateBreaker) Execute(fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Execute runs fn under the breaker.
func (b *ModelBreaker) Execute(fn func() (*genai.Model, error)) (*genai.Model, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats reports breaker state for the /stats endpoint.
func (b *GenerateBreaker) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	return breakerStats(b.cb.Name(), b.cb.State(), b.cb.Counts())
}

// Stats reports breaker state for the /stats endpoint.
func (b *ModelBreaker) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	return breakerStats(b.cb.Name(), b.cb.State(), b.cb.Counts())
}

func breakerStats(name string, state gobreaker.State, counts gobreaker.Counts) map[string]any {
	return map[string]any{
		"name":    name,
		"state":   state.String(),
		"counts":  counts,
		"enabled": true,
	}
}

// IsHealthy is true when the breaker is absent or closed.
func (b *GenerateBreaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}

// IsHealthy is true when the breaker is absent or closed.
func (b *ModelBreaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
