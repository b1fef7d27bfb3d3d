package cli

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"resumegap/internal/ai"
	"resumegap/internal/config"
	"resumegap/internal/errors"
	"resumegap/internal/extract"
	"resumegap/internal/fetch"
	"resumegap/internal/observability"
	"resumegap/internal/pipeline"
)

// components is the wired object graph shared by the commands.
type components struct {
	om        *observability.ObservabilityManager
	ai        *ai.Service
	extractor *extract.Service
	fetcher   *fetch.Fetcher
	pipeline  *pipeline.Orchestrator
	logger    *errors.Logger
}

// newExtractor builds the document extractor. Temp files that could not be
// removed are counted on om.
func newExtractor(cfg *config.Config, om *observability.ObservabilityManager, logger *errors.Logger) *extract.Service {
	return extract.NewService(cfg.Extract, logger, extract.WithCleanupHook(func(path string, err error) {
		om.RecordBusinessMetric(context.Background(), observability.MetricTempCleanupFailed, false,
			attribute.String("file_type", extract.FileType(path)))
	}))
}

// newObservability starts telemetry. The Prometheus endpoint is only served
// by long-running commands.
func newObservability(cfg *config.Config, serving bool) (*observability.ObservabilityManager, error) {
	obsCfg := observability.GetObservabilityConfig(cfg, Version)
	if !serving {
		obsCfg.Prometheus.Enabled = false
	}
	om, err := observability.NewObservabilityManager(obsCfg, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return om, nil
}

// newComponents wires the generation client, extractor, fetcher and
// pipeline from cfg.
func newComponents(cfg *config.Config, logger *errors.Logger, serving bool) (*components, error) {
	if err := cfg.RequireAIKey(); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, "Cannot create generation client", err)
	}

	om, err := newObservability(cfg, serving)
	if err != nil {
		return nil, err
	}

	aiService, err := ai.NewService(cfg.AI, cfg, logger)
	if err != nil {
		shutdownObservability(om, logger)
		return nil, err
	}

	extractor := newExtractor(cfg, om, logger)
	fetcher := fetch.New(cfg.Fetch, aiService, logger, fetch.WithPrompts(cfg), fetch.WithMetrics(om))
	orchestrator := pipeline.New(aiService, extractor, fetcher, logger,
		pipeline.WithPrompts(cfg),
		pipeline.WithMetrics(om))

	return &components{
		om:        om,
		ai:        aiService,
		extractor: extractor,
		fetcher:   fetcher,
		pipeline:  orchestrator,
		logger:    logger,
	}, nil
}

// Close releases the generation client and flushes telemetry.
func (c *components) Close() {
	if err := c.ai.Close(); err != nil {
		c.logger.LogError(err, "Failed to close AI service")
	}
	shutdownObservability(c.om, c.logger)
}

func shutdownObservability(om *observability.ObservabilityManager, logger *errors.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		logger.LogError(err, "Failed to shutdown observability")
	}
}
