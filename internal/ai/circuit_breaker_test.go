package ai

import (
	stderrors "errors"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"resumegap/internal/config"
	"resumegap/internal/errors"
)

var testLogger = errors.NewLogger(slog.LevelDebug)

func breakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          60 * time.Second,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}
}

func TestGenerateBreakerStats(t *testing.T) {
	b := NewGenerateBreaker(breakerConfig(), testLogger)
	require.NotNil(t, b)

	stats := b.Stats()
	assert.Equal(t, "AI-generate", stats["name"])
	assert.Equal(t, "closed", stats["state"])
	assert.Equal(t, true, stats["enabled"])
	assert.True(t, b.IsHealthy())

	m := NewModelBreaker(breakerConfig(), testLogger)
	require.NotNil(t, m)
	assert.Equal(t, "AI-model", m.Stats()["name"])
}

func TestBreakerDisabled(t *testing.T) {
	cfg := breakerConfig()
	cfg.Enabled = false

	b := NewGenerateBreaker(cfg, testLogger)
	assert.Nil(t, b)
	assert.True(t, b.IsHealthy())
	assert.Equal(t, map[string]any{"enabled": false}, b.Stats())

	calls := 0
	_, err := b.Execute(func() (*genai.GenerateContentResponse, error) {
		calls++
		return &genai.GenerateContentResponse{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "nil breaker runs the call directly")

	m := NewModelBreaker(cfg, testLogger)
	assert.Nil(t, m)
	assert.True(t, m.IsHealthy())
}

func TestGenerateBreakerTrips(t *testing.T) {
	b := NewGenerateBreaker(breakerConfig(), testLogger)
	boom := stderrors.New("model unavailable")

	for range 3 {
		_, err := b.Execute(func() (*genai.GenerateContentResponse, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)
	}

	assert.False(t, b.IsHealthy())
	assert.Equal(t, "open", b.Stats()["state"])

	calls := 0
	_, err := b.Execute(func() (*genai.GenerateContentResponse, error) {
		calls++
		return nil, nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Zero(t, calls, "open breaker short-circuits")
}

func TestModelBreakerIsLenient(t *testing.T) {
	m := NewModelBreaker(breakerConfig(), testLogger)
	boom := stderrors.New("lookup failed")

	for range 4 {
		_, _ = m.Execute(func() (*genai.Model, error) { return nil, boom })
	}
	assert.True(t, m.IsHealthy(), "model breaker needs five requests before tripping")

	_, _ = m.Execute(func() (*genai.Model, error) { return nil, boom })
	assert.False(t, m.IsHealthy())
}
